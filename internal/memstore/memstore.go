// Package memstore is an in-memory implementation of service.Store.
//
// It enforces the same uniqueness rules as the Postgres schema (one cart per
// user, one cart per guest session, one line per cart and product) and gives
// ExecTx all-or-nothing semantics by running the function against a copy of
// the data and swapping it in only on success. All access is serialized by a
// single mutex, so it is meant for tests and local development.
package memstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
)

// Store holds every table in memory.
type Store struct {
	mu       sync.Mutex
	data     *dataset
	failures map[string]error
	now      func() time.Time
}

// Counts reports row counts per table.
type Counts struct {
	Carts      int
	CartItems  int
	Products   int
	Addresses  int
	Orders     int
	OrderItems int
}

type cartRow struct {
	id        uuid.UUID
	userID    uuid.UUID
	sessionID uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

type itemRow struct {
	id        uuid.UUID
	cartID    uuid.UUID
	productID uuid.UUID
	quantity  int32
	createdAt time.Time
	seq       int64
}

type orderItemRow struct {
	item domain.OrderItem
	seq  int64
}

type dataset struct {
	seq        int64
	carts      map[uuid.UUID]cartRow
	items      map[uuid.UUID]itemRow
	products   map[uuid.UUID]domain.Product
	addresses  map[uuid.UUID]domain.Address
	orders     map[uuid.UUID]domain.Order
	orderItems map[uuid.UUID]orderItemRow
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:     newDataset(),
		failures: make(map[string]error),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by sweeper tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func newDataset() *dataset {
	return &dataset{
		carts:      make(map[uuid.UUID]cartRow),
		items:      make(map[uuid.UUID]itemRow),
		products:   make(map[uuid.UUID]domain.Product),
		addresses:  make(map[uuid.UUID]domain.Address),
		orders:     make(map[uuid.UUID]domain.Order),
		orderItems: make(map[uuid.UUID]orderItemRow),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		seq:        d.seq,
		carts:      make(map[uuid.UUID]cartRow, len(d.carts)),
		items:      make(map[uuid.UUID]itemRow, len(d.items)),
		products:   make(map[uuid.UUID]domain.Product, len(d.products)),
		addresses:  make(map[uuid.UUID]domain.Address, len(d.addresses)),
		orders:     make(map[uuid.UUID]domain.Order, len(d.orders)),
		orderItems: make(map[uuid.UUID]orderItemRow, len(d.orderItems)),
	}
	for k, v := range d.carts {
		c.carts[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.addresses {
		c.addresses[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.orderItems {
		c.orderItems[k] = v
	}
	return c
}

func (d *dataset) next() int64 {
	d.seq++
	return d.seq
}

// =============================================================================
// Test helpers
// =============================================================================

// FailOn makes every later call to the named Querier method return err.
// Pass a nil err to clear it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// AddProduct inserts a catalog row, assigning an ID and timestamp when missing.
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.data.products[p.ID] = p
	return p
}

// SetProductPrice changes a product's current price.
func (s *Store) SetProductPrice(id uuid.UUID, priceCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.PriceCents = priceCents
	s.data.products[id] = p
	return nil
}

// Counts returns the current row counts.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Carts:      len(s.data.carts),
		CartItems:  len(s.data.items),
		Products:   len(s.data.products),
		Addresses:  len(s.data.addresses),
		Orders:     len(s.data.orders),
		OrderItems: len(s.data.orderItems),
	}
}

// =============================================================================
// Transactions
// =============================================================================

// ExecTx runs fn against a private copy of the data. The copy replaces the
// live data only when fn returns nil.
func (s *Store) ExecTx(ctx context.Context, fn func(q service.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(&view{store: s, d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func withLock[T any](s *Store, fn func(v *view) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{store: s, d: s.data})
}

func withLockErr(s *Store, fn func(v *view) error) error {
	_, err := withLock(s, func(v *view) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// =============================================================================
// Querier on the live data
// =============================================================================

var _ service.Store = (*Store)(nil)

func (s *Store) GetCartByOwner(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	return withLock(s, func(v *view) (*domain.Cart, error) { return v.GetCartByOwner(ctx, owner) })
}

func (s *Store) CreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	return withLock(s, func(v *view) (*domain.Cart, error) { return v.CreateCart(ctx, owner) })
}

func (s *Store) LockCart(ctx context.Context, cartID uuid.UUID) error {
	return withLockErr(s, func(v *view) error { return v.LockCart(ctx, cartID) })
}

func (s *Store) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	return withLockErr(s, func(v *view) error { return v.TouchCart(ctx, cartID) })
}

func (s *Store) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return withLockErr(s, func(v *view) error { return v.DeleteCart(ctx, cartID) })
}

func (s *Store) DeleteStaleGuestCarts(ctx context.Context, updatedBefore time.Time, limit int) (int64, error) {
	return withLock(s, func(v *view) (int64, error) { return v.DeleteStaleGuestCarts(ctx, updatedBefore, limit) })
}

func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	return withLock(s, func(v *view) ([]domain.CartItem, error) { return v.ListCartItems(ctx, cartID) })
}

func (s *Store) GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	return withLock(s, func(v *view) (*domain.CartItem, error) { return v.GetCartItem(ctx, cartID, itemID) })
}

func (s *Store) UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	return withLock(s, func(v *view) (*domain.CartItem, error) { return v.UpsertCartItem(ctx, cartID, productID, quantity) })
}

func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	return withLock(s, func(v *view) (*domain.CartItem, error) { return v.SetCartItemQuantity(ctx, cartID, itemID, quantity) })
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return withLockErr(s, func(v *view) error { return v.DeleteCartItem(ctx, cartID, itemID) })
}

func (s *Store) DeleteCartItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	return withLock(s, func(v *view) (int64, error) { return v.DeleteCartItems(ctx, cartID) })
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return withLock(s, func(v *view) (*domain.Product, error) { return v.GetProduct(ctx, id) })
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return withLock(s, func(v *view) (*domain.Product, error) { return v.GetProductBySlug(ctx, slug) })
}

func (s *Store) SearchProduct(ctx context.Context, term string) (*domain.Product, error) {
	return withLock(s, func(v *view) (*domain.Product, error) { return v.SearchProduct(ctx, term) })
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return withLock(s, func(v *view) ([]domain.Product, error) { return v.ListProducts(ctx, filter) })
}

func (s *Store) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32, requireAvailable bool) error {
	return withLockErr(s, func(v *view) error { return v.DecrementStock(ctx, productID, quantity, requireAvailable) })
}

func (s *Store) CreateAddress(ctx context.Context, addr *domain.Address) error {
	return withLockErr(s, func(v *view) error { return v.CreateAddress(ctx, addr) })
}

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	return withLockErr(s, func(v *view) error { return v.CreateOrder(ctx, order) })
}

func (s *Store) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return withLockErr(s, func(v *view) error { return v.CreateOrderItem(ctx, item) })
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return withLock(s, func(v *view) (*domain.Order, error) { return v.GetOrder(ctx, id) })
}

// =============================================================================
// view: Querier over one dataset, caller holds the mutex
// =============================================================================

type view struct {
	store *Store
	d     *dataset
}

var _ service.Querier = (*view)(nil)

func (v *view) fail(method string) error {
	return v.store.failures[method]
}

func (v *view) now() time.Time {
	return v.store.now()
}

func (r cartRow) owner() domain.Identity {
	if r.userID != uuid.Nil {
		return domain.UserIdentity(r.userID)
	}
	return domain.GuestIdentity(r.sessionID)
}

func (r cartRow) toDomain() *domain.Cart {
	return &domain.Cart{
		ID:        r.id,
		Owner:     r.owner(),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}

func (v *view) GetCartByOwner(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	if err := v.fail("GetCartByOwner"); err != nil {
		return nil, err
	}
	for _, c := range v.d.carts {
		if c.owner() == owner {
			return c.toDomain(), nil
		}
	}
	return nil, domain.ErrCartNotFound
}

func (v *view) CreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	if err := v.fail("CreateCart"); err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	for _, c := range v.d.carts {
		if c.owner() == owner {
			return nil, domain.ErrDuplicateCart
		}
	}

	now := v.now()
	row := cartRow{id: uuid.New(), createdAt: now, updatedAt: now}
	if userID, ok := owner.UserID(); ok {
		row.userID = userID
	} else {
		row.sessionID = owner.ID()
	}
	v.d.carts[row.id] = row
	return row.toDomain(), nil
}

func (v *view) LockCart(ctx context.Context, cartID uuid.UUID) error {
	if err := v.fail("LockCart"); err != nil {
		return err
	}
	if _, ok := v.d.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	return nil
}

func (v *view) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	if err := v.fail("TouchCart"); err != nil {
		return err
	}
	c, ok := v.d.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	c.updatedAt = v.now()
	v.d.carts[cartID] = c
	return nil
}

func (v *view) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	if err := v.fail("DeleteCart"); err != nil {
		return err
	}
	if _, ok := v.d.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	v.deleteItemsOf(cartID)
	delete(v.d.carts, cartID)
	return nil
}

func (v *view) DeleteStaleGuestCarts(ctx context.Context, updatedBefore time.Time, limit int) (int64, error) {
	if err := v.fail("DeleteStaleGuestCarts"); err != nil {
		return 0, err
	}
	var stale []cartRow
	for _, c := range v.d.carts {
		if c.sessionID != uuid.Nil && c.updatedAt.Before(updatedBefore) {
			stale = append(stale, c)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].updatedAt.Before(stale[j].updatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	for _, c := range stale {
		v.deleteItemsOf(c.id)
		delete(v.d.carts, c.id)
	}
	return int64(len(stale)), nil
}

func (v *view) deleteItemsOf(cartID uuid.UUID) int64 {
	var n int64
	for id, it := range v.d.items {
		if it.cartID == cartID {
			delete(v.d.items, id)
			n++
		}
	}
	return n
}

func (v *view) joinItem(it itemRow) domain.CartItem {
	return domain.CartItem{
		ID:        it.id,
		CartID:    it.cartID,
		ProductID: it.productID,
		Quantity:  it.quantity,
		CreatedAt: it.createdAt,
		Product:   v.d.products[it.productID].Snapshot(),
	}
}

func (v *view) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	if err := v.fail("ListCartItems"); err != nil {
		return nil, err
	}
	var rows []itemRow
	for _, it := range v.d.items {
		if it.cartID == cartID {
			rows = append(rows, it)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	items := make([]domain.CartItem, len(rows))
	for i, r := range rows {
		items[i] = v.joinItem(r)
	}
	return items, nil
}

func (v *view) GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	if err := v.fail("GetCartItem"); err != nil {
		return nil, err
	}
	it, ok := v.d.items[itemID]
	if !ok || it.cartID != cartID {
		return nil, domain.ErrCartItemNotFound
	}
	item := v.joinItem(it)
	return &item, nil
}

func (v *view) UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	if err := v.fail("UpsertCartItem"); err != nil {
		return nil, err
	}
	if _, ok := v.d.carts[cartID]; !ok {
		return nil, domain.ErrCartNotFound
	}
	if _, ok := v.d.products[productID]; !ok {
		return nil, domain.ErrProductNotFound
	}

	for id, it := range v.d.items {
		if it.cartID == cartID && it.productID == productID {
			if it.quantity > math.MaxInt32-quantity {
				return nil, domain.ErrInvalidQuantity
			}
			it.quantity += quantity
			v.d.items[id] = it
			item := v.joinItem(it)
			return &item, nil
		}
	}

	it := itemRow{
		id:        uuid.New(),
		cartID:    cartID,
		productID: productID,
		quantity:  quantity,
		createdAt: v.now(),
		seq:       v.d.next(),
	}
	v.d.items[it.id] = it
	item := v.joinItem(it)
	return &item, nil
}

func (v *view) SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	if err := v.fail("SetCartItemQuantity"); err != nil {
		return nil, err
	}
	it, ok := v.d.items[itemID]
	if !ok || it.cartID != cartID {
		return nil, domain.ErrCartItemNotFound
	}
	it.quantity = quantity
	v.d.items[itemID] = it
	item := v.joinItem(it)
	return &item, nil
}

func (v *view) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if err := v.fail("DeleteCartItem"); err != nil {
		return err
	}
	it, ok := v.d.items[itemID]
	if !ok || it.cartID != cartID {
		return domain.ErrCartItemNotFound
	}
	delete(v.d.items, itemID)
	return nil
}

func (v *view) DeleteCartItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	if err := v.fail("DeleteCartItems"); err != nil {
		return 0, err
	}
	return v.deleteItemsOf(cartID), nil
}

func (v *view) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := v.fail("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := v.d.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (v *view) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if err := v.fail("GetProductBySlug"); err != nil {
		return nil, err
	}
	for _, p := range v.d.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (v *view) SearchProduct(ctx context.Context, term string) (*domain.Product, error) {
	if err := v.fail("SearchProduct"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	for _, p := range v.sortedProducts() {
		if !p.Published {
			continue
		}
		if strings.Contains(strings.ToLower(p.Slug), needle) || strings.Contains(strings.ToLower(p.Name), needle) {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (v *view) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := v.fail("ListProducts"); err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range v.sortedProducts() {
		if !p.Published {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// sortedProducts returns products newest first.
func (v *view) sortedProducts() []domain.Product {
	out := make([]domain.Product, 0, len(v.d.products))
	for _, p := range v.d.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Slug < out[j].Slug
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (v *view) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32, requireAvailable bool) error {
	if err := v.fail("DecrementStock"); err != nil {
		return err
	}
	p, ok := v.d.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if requireAvailable && p.Stock < quantity {
		return domain.ErrStockExceeded
	}
	p.Stock -= quantity
	v.d.products[productID] = p
	return nil
}

func (v *view) CreateAddress(ctx context.Context, addr *domain.Address) error {
	if err := v.fail("CreateAddress"); err != nil {
		return err
	}
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	addr.CreatedAt = v.now()
	v.d.addresses[addr.ID] = *addr
	return nil
}

func (v *view) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := v.fail("CreateOrder"); err != nil {
		return err
	}
	if _, ok := v.d.addresses[order.AddressID]; !ok {
		return domain.Errorf(domain.EINTERNAL, "memstore.CreateOrder", "address %s does not exist", order.AddressID)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = v.now()

	row := *order
	row.Items = nil
	row.Address = domain.Address{}
	v.d.orders[row.ID] = row
	return nil
}

func (v *view) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	if err := v.fail("CreateOrderItem"); err != nil {
		return err
	}
	if _, ok := v.d.orders[item.OrderID]; !ok {
		return domain.Errorf(domain.EINTERNAL, "memstore.CreateOrderItem", "order %s does not exist", item.OrderID)
	}
	if _, ok := v.d.products[item.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	v.d.orderItems[item.ID] = orderItemRow{item: *item, seq: v.d.next()}
	return nil
}

func (v *view) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := v.fail("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := v.d.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Address = v.d.addresses[o.AddressID]

	var rows []orderItemRow
	for _, r := range v.d.orderItems {
		if r.item.OrderID == id {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	o.Items = make([]domain.OrderItem, len(rows))
	for i, r := range rows {
		o.Items[i] = r.item
	}
	return &o, nil
}
