package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/address"
	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/events"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// errCartEmpty signals the empty-cart rejection out of the transaction.
var errCartEmpty = errors.New("cart is empty")

// supportedPaymentMethods are recorded on the order; no payment is taken here.
var supportedPaymentMethods = map[string]bool{
	domain.DefaultPaymentMethod: true,
	"paypal":                    true,
	"cash_on_delivery":          true,
}

// CheckoutService converts a cart into an order.
type CheckoutService interface {
	// Checkout validates input, then in one transaction snapshots prices, creates
	// the address, order and order lines, decrements stock and clears the cart.
	// On any failure inside the transaction nothing is written and the cart is untouched.
	Checkout(ctx context.Context, owner domain.Identity, req CheckoutRequest) (*domain.Order, error)
}

// CheckoutRequest is the shopper's checkout input.
type CheckoutRequest struct {
	ShippingAddress address.Address
	GuestEmail      string // used only for guest identities
	PaymentMethod   string // defaults to credit_card
}

// CheckoutConfig tunes checkout behavior.
type CheckoutConfig struct {
	// StrictStock rejects a checkout that would take stock below zero.
	// When false stock is decremented unconditionally.
	StrictStock bool
}

type checkoutService struct {
	store     Store
	pricing   *pricing.Engine
	addresses address.Validator
	validate  *validator.Validate
	events    events.Publisher
	metrics   *telemetry.BusinessMetrics
	cfg       CheckoutConfig
	now       func() time.Time
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(
	store Store,
	engine *pricing.Engine,
	addressValidator address.Validator,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	cfg CheckoutConfig,
) CheckoutService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &checkoutService{
		store:     store,
		pricing:   engine,
		addresses: addressValidator,
		validate:  validator.New(),
		events:    publisher,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, owner domain.Identity, req CheckoutRequest) (*domain.Order, error) {
	const op = "checkout"

	if err := owner.Validate(); err != nil {
		return nil, err
	}
	kind := owner.Kind().String()
	s.metrics.CheckoutStart(kind)

	addr, err := s.validateRequest(ctx, owner, &req)
	if err != nil {
		s.metrics.CheckoutFail("validation")
		return nil, err
	}

	var order *domain.Order
	err = s.store.ExecTx(ctx, func(q Querier) error {
		var err error
		order, err = s.placeOrder(ctx, q, owner, req, addr)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, errCartEmpty):
		s.metrics.CheckoutFail("empty_cart")
		return nil, domain.EmptyCart(op)
	case errors.Is(err, domain.ErrStockExceeded):
		s.metrics.CheckoutFail("stock")
		return nil, domain.WrapError(err, domain.ECONFLICT, op, domain.ErrStockExceeded.Message)
	default:
		s.metrics.CheckoutFail("error")
		zerolog.Ctx(ctx).Error().Err(err).Stringer("owner", owner).Msg("checkout rolled back")
		return nil, domain.CheckoutFailed(err, op)
	}

	itemCount := 0
	for _, it := range order.Items {
		itemCount += int(it.Quantity)
	}
	s.metrics.CheckoutComplete(kind, order.TotalCents, itemCount)
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Int64("total_cents", order.TotalCents).
		Int("item_count", itemCount).
		Str("identity_kind", kind).
		Msg("order created")

	publish(ctx, s.events, events.SubjectOrderCreated, events.OrderCreated{
		OrderID:    order.ID,
		UserID:     order.UserID,
		GuestEmail: order.GuestEmail,
		TotalCents: order.TotalCents,
		ItemCount:  itemCount,
		At:         s.now(),
	})
	return order, nil
}

// validateRequest normalizes the address and checks the guest email and payment method.
// Field errors are collected into one ValidationError.
func (s *checkoutService) validateRequest(ctx context.Context, owner domain.Identity, req *CheckoutRequest) (address.Address, error) {
	const op = "checkout.validate"

	result, err := s.addresses.Validate(ctx, req.ShippingAddress)
	if err != nil {
		return address.Address{}, domain.WrapError(err, domain.EINTERNAL, op, "address validation failed")
	}

	var verr error
	for _, fe := range result.Errors {
		verr = domain.AddFieldError(verr, fe.Field, fe.Message)
	}

	req.GuestEmail = strings.TrimSpace(req.GuestEmail)
	if owner.IsUser() {
		req.GuestEmail = ""
	} else if req.GuestEmail != "" {
		if err := s.validate.Var(req.GuestEmail, "email"); err != nil {
			verr = domain.AddFieldError(verr, "guestEmail", domain.ErrorMessage(ErrInvalidGuestEmail))
		}
	}

	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.DefaultPaymentMethod
	}
	if !supportedPaymentMethods[req.PaymentMethod] {
		verr = domain.AddFieldError(verr, "paymentMethod", domain.ErrorMessage(ErrInvalidPaymentMethod))
	}

	if verr != nil {
		ve := verr.(*domain.ValidationError)
		ve.Op = op
		return address.Address{}, ve
	}

	addr := req.ShippingAddress
	if result.NormalizedAddress != nil {
		addr = *result.NormalizedAddress
	}
	return addr, nil
}

// placeOrder runs inside the checkout transaction.
func (s *checkoutService) placeOrder(ctx context.Context, q Querier, owner domain.Identity, req CheckoutRequest, addr address.Address) (*domain.Order, error) {
	cart, err := q.GetCartByOwner(ctx, owner)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, errCartEmpty
		}
		return nil, err
	}
	if err := q.LockCart(ctx, cart.ID); err != nil {
		return nil, err
	}

	items, err := q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errCartEmpty
	}

	// Prices are read once, here, and copied onto the order lines.
	totals, err := s.pricing.Compute(ctx, pricing.LinesFromCart(items))
	if err != nil {
		return nil, err
	}

	var userID *uuid.UUID
	if id, ok := owner.UserID(); ok {
		userID = &id
	}

	shipTo := &domain.Address{
		UserID:    userID,
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Street:    addr.Street,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   addr.Country,
		Phone:     addr.Phone,
	}
	if err := q.CreateAddress(ctx, shipTo); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        userID,
		GuestEmail:    req.GuestEmail,
		AddressID:     shipTo.ID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		ShippingCents: totals.ShippingCents,
		TotalCents:    totals.TotalCents,
	}
	if err := q.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	order.Items = make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		line := domain.OrderItem{
			OrderID:    order.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceCents: it.Product.PriceCents,
		}
		if err := q.CreateOrderItem(ctx, &line); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, line)
	}

	for _, it := range items {
		if err := q.DecrementStock(ctx, it.ProductID, it.Quantity, s.cfg.StrictStock); err != nil {
			return nil, err
		}
	}

	if _, err := q.DeleteCartItems(ctx, cart.ID); err != nil {
		return nil, err
	}
	if err := q.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}

	order.Address = *shipTo
	return order, nil
}
