package service

import (
	"context"
	"math"
	"time"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/events"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartService provides business logic for shopping cart operations.
// Every method resolves the cart from the identity; callers never pass a cart ID,
// so an item ID from another cart is always reported as not found.
type CartService interface {
	GetOrCreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	GetCartSummary(ctx context.Context, owner domain.Identity) (*CartSummary, error)
	AddItem(ctx context.Context, owner domain.Identity, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, owner domain.Identity, itemID uuid.UUID, quantity int) (*domain.CartItem, bool, error)
	RemoveItem(ctx context.Context, owner domain.Identity, itemID uuid.UUID) error
	ClearCart(ctx context.Context, owner domain.Identity) error
	MergeGuestCart(ctx context.Context, userID, guestSessionID uuid.UUID) (*MergeResult, error)
}

// CartSummary aggregates a cart, its lines at current prices and the derived totals.
type CartSummary struct {
	Cart   *domain.Cart
	Totals pricing.Totals
}

type cartService struct {
	store   Store
	pricing *pricing.Engine
	events  events.Publisher
	metrics *telemetry.BusinessMetrics
	now     func() time.Time
}

// NewCartService creates a new CartService instance.
// A nil publisher drops events; nil metrics are not recorded.
func NewCartService(store Store, engine *pricing.Engine, publisher events.Publisher, metrics *telemetry.BusinessMetrics) CartService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &cartService{
		store:   store,
		pricing: engine,
		events:  publisher,
		metrics: metrics,
		now:     time.Now,
	}
}

// GetOrCreateCart returns the identity's cart, creating an empty one on first use.
// A concurrent creation that loses the unique-constraint race re-fetches the winner's row.
func (s *cartService) GetOrCreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	return getOrCreateCart(ctx, s.store, owner, s.metrics)
}

func getOrCreateCart(ctx context.Context, q Querier, owner domain.Identity, metrics *telemetry.BusinessMetrics) (*domain.Cart, error) {
	const op = "cart.get_or_create"

	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := q.GetCartByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !domain.IsCode(err, domain.ENOTFOUND) {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load cart")
	}

	cart, err = q.CreateCart(ctx, owner)
	if err == nil {
		metrics.CartCreated(owner.Kind().String())
		zerolog.Ctx(ctx).Debug().
			Str("cart_id", cart.ID.String()).
			Stringer("owner", owner).
			Msg("cart created")
		return cart, nil
	}
	if !domain.IsCode(err, domain.ECONFLICT) {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to create cart")
	}

	// Lost the race: another request created the cart between our read and insert.
	metrics.CartCreateConflict()
	cart, err = q.GetCartByOwner(ctx, owner)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to re-fetch cart after conflict")
	}
	return cart, nil
}

// GetCartSummary returns the cart with live product data and computed totals.
func (s *cartService) GetCartSummary(ctx context.Context, owner domain.Identity) (*CartSummary, error) {
	const op = "cart.get_summary"

	cart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load cart items")
	}
	cart.Items = items

	totals, err := s.pricing.Compute(ctx, pricing.LinesFromCart(items))
	if err != nil {
		return nil, err
	}

	return &CartSummary{Cart: cart, Totals: totals}, nil
}

// AddItem adds quantity units of a product. An existing line for the product
// is incremented rather than duplicated.
func (s *cartService) AddItem(ctx context.Context, owner domain.Identity, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	const op = "cart.add_item"

	if quantity <= 0 || quantity > math.MaxInt32 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrProductNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load product")
	}
	if !product.Published {
		return nil, ErrProductUnavailable
	}

	cart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	var item *domain.CartItem
	err = s.store.ExecTx(ctx, func(q Querier) error {
		var err error
		item, err = q.UpsertCartItem(ctx, cart.ID, productID, int32(quantity))
		if err != nil {
			return err
		}
		return q.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, mapCartError(err, op, "failed to add item")
	}

	s.metrics.ItemsAdded(owner.Kind().String(), quantity)
	zerolog.Ctx(ctx).Info().
		Str("cart_id", cart.ID.String()).
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Int32("line_quantity", item.Quantity).
		Msg("item added to cart")

	s.publishCartUpdated(ctx, owner, cart.ID)
	return item, nil
}

// UpdateItemQuantity sets a line to an absolute quantity. A quantity of zero
// or less removes the line, reported by the returned bool.
func (s *cartService) UpdateItemQuantity(ctx context.Context, owner domain.Identity, itemID uuid.UUID, quantity int) (*domain.CartItem, bool, error) {
	const op = "cart.update_item"

	if quantity > math.MaxInt32 {
		return nil, false, ErrInvalidQuantity
	}
	if quantity <= 0 {
		if err := s.RemoveItem(ctx, owner, itemID); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	cart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, false, err
	}

	var item *domain.CartItem
	err = s.store.ExecTx(ctx, func(q Querier) error {
		var err error
		item, err = q.SetCartItemQuantity(ctx, cart.ID, itemID, int32(quantity))
		if err != nil {
			return err
		}
		return q.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, false, mapCartError(err, op, "failed to update item")
	}

	s.publishCartUpdated(ctx, owner, cart.ID)
	return item, false, nil
}

// RemoveItem deletes one line from the identity's cart.
func (s *cartService) RemoveItem(ctx context.Context, owner domain.Identity, itemID uuid.UUID) error {
	const op = "cart.remove_item"

	cart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return err
	}

	err = s.store.ExecTx(ctx, func(q Querier) error {
		if err := q.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
			return err
		}
		return q.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return mapCartError(err, op, "failed to remove item")
	}

	s.metrics.ItemRemoved(owner.Kind().String())
	s.publishCartUpdated(ctx, owner, cart.ID)
	return nil
}

// ClearCart deletes every line. Clearing an empty cart succeeds.
func (s *cartService) ClearCart(ctx context.Context, owner domain.Identity) error {
	const op = "cart.clear"

	cart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return err
	}

	var removed int64
	err = s.store.ExecTx(ctx, func(q Querier) error {
		var err error
		if removed, err = q.DeleteCartItems(ctx, cart.ID); err != nil {
			return err
		}
		return q.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to clear cart")
	}

	s.metrics.CartCleared(owner.Kind().String())
	zerolog.Ctx(ctx).Debug().
		Str("cart_id", cart.ID.String()).
		Int64("lines_removed", removed).
		Msg("cart cleared")

	s.publishCartUpdated(ctx, owner, cart.ID)
	return nil
}

func (s *cartService) publishCartUpdated(ctx context.Context, owner domain.Identity, cartID uuid.UUID) {
	count := 0
	if items, err := s.store.ListCartItems(ctx, cartID); err == nil {
		for _, it := range items {
			count += int(it.Quantity)
		}
	}
	publish(ctx, s.events, events.SubjectCartUpdated, events.CartUpdated{
		Identity:  owner.String(),
		CartID:    cartID,
		ItemCount: count,
		At:        s.now(),
	})
}

// publish sends an event after commit. Failures are logged and never returned.
func publish(ctx context.Context, p events.Publisher, subject string, payload any) {
	if err := p.Publish(ctx, subject, payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// mapCartError keeps domain errors from the store and wraps anything else as internal.
func mapCartError(err error, op, message string) error {
	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND, domain.EINVALID, domain.ECONFLICT:
		return err
	}
	return domain.WrapError(err, domain.EINTERNAL, op, message)
}
