package storefront

import (
	"net/http"

	"github.com/dukerupert/larder/internal/address"
	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/service"
)

// CheckoutHandler places orders.
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	ShippingAddress addressRequest `json:"shippingAddress"`
	GuestEmail      string         `json:"guestEmail"`
	PaymentMethod   string         `json:"paymentMethod"`
}

// addressRequest is decoded leniently; the address validator owns the rules.
type addressRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

func (a addressRequest) toAddress() address.Address {
	return address.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}

// Place handles POST /api/checkout
//
// Responses: 201 with the order; 400 with field errors; 400 empty_cart;
// 409 when strict stock rejects the order; 500 checkout_failed with the cart untouched.
func (h *CheckoutHandler) Place(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := handler.DecodeJSON(r, "checkout", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.checkout.Checkout(ctx, domain.MustIdentity(ctx), service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress.toAddress(),
		GuestEmail:      req.GuestEmail,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, r, http.StatusCreated, newOrderResponse(order))
}
