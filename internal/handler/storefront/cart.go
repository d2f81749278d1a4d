// Package storefront serves the shopper-facing cart, checkout, order and
// catalog JSON API.
package storefront

import (
	"net/http"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
)

// GuestCookies clears the guest session cookie once its cart is merged away.
type GuestCookies interface {
	Clear(w http.ResponseWriter, r *http.Request) error
}

// CartHandler handles all cart routes. The owner always comes from the
// resolved identity, never from the request body.
type CartHandler struct {
	carts    service.CartService
	products service.ProductService
	guests   GuestCookies
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts service.CartService, products service.ProductService, guests GuestCookies) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		guests:   guests,
	}
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.carts.GetCartSummary(ctx, domain.MustIdentity(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, r, http.StatusOK, newCartResponse(summary))
}

// Add handles POST /api/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := handler.DecodeJSON(r, "cart.add_item", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	productID, err := h.products.ResolveProductID(ctx, req.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	item, err := h.carts.AddItem(ctx, domain.MustIdentity(ctx), productID, quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, r, http.StatusCreated, newCartItemResponse(*item))
}

// Update handles PATCH /api/cart/{itemId}
// A quantity of zero or less removes the line and answers {"removed": true}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, ok := pathItemID(r)
	if !ok {
		handler.ErrorResponse(w, r, service.ErrCartItemNotFound)
		return
	}

	var req updateItemRequest
	if err := handler.DecodeJSON(r, "cart.update_item", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	item, removed, err := h.carts.UpdateItemQuantity(ctx, domain.MustIdentity(ctx), itemID, *req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if removed {
		handler.WriteJSON(w, r, http.StatusOK, map[string]bool{"removed": true})
		return
	}

	handler.WriteJSON(w, r, http.StatusOK, newCartItemResponse(*item))
}

// Remove handles DELETE /api/cart/{itemId}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, ok := pathItemID(r)
	if !ok {
		handler.ErrorResponse(w, r, service.ErrCartItemNotFound)
		return
	}

	if err := h.carts.RemoveItem(ctx, domain.MustIdentity(ctx), itemID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.carts.ClearCart(ctx, domain.MustIdentity(ctx)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Merge handles POST /api/cart/merge
// Called by the client right after sign-in. The guest cart named by the
// cookie is folded into the user's cart and the cookie is cleared.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := domain.MustIdentity(ctx).UserID()
	if !ok {
		handler.UnauthorizedResponse(w, r)
		return
	}

	sessionID, ok := domain.GuestSessionFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if _, err := h.carts.MergeGuestCart(ctx, userID, sessionID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.guests.Clear(w, r); err != nil {
		// The guest cart is already gone; a stale cookie only yields a fresh empty cart.
		middleware.GetLogger(ctx).Warn().Err(err).Msg("failed to clear guest cookie after merge")
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathItemID parses {itemId}. A malformed ID can never name a line in this
// cart, so callers report it as not found.
func pathItemID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("itemId"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
