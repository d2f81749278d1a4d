package routes

import (
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/router"
)

// RegisterStorefrontRoutes registers the shopper-facing JSON API.
//
// Catalog reads need no identity. Cart, checkout and order routes run behind
// the identity middleware, which mints a guest cookie on first contact.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalog
	r.Get("/api/products", deps.ProductHandler.List)
	r.Get("/api/products/{slug}", deps.ProductHandler.Detail)

	owned := r.Group(deps.Identity)

	// Cart
	owned.Get("/api/cart", deps.CartHandler.Get)
	owned.Post("/api/cart", deps.CartHandler.Add)
	owned.Delete("/api/cart", deps.CartHandler.Clear)
	owned.Patch("/api/cart/{itemId}", deps.CartHandler.Update)
	owned.Delete("/api/cart/{itemId}", deps.CartHandler.Remove)
	owned.Post("/api/cart/merge", deps.CartHandler.Merge, middleware.RequireUser)

	// Checkout
	var checkoutMiddleware []router.Middleware
	if deps.CheckoutLimit != nil {
		checkoutMiddleware = append(checkoutMiddleware, deps.CheckoutLimit)
	}
	owned.Post("/api/checkout", deps.CheckoutHandler.Place, checkoutMiddleware...)

	// Orders
	owned.Get("/api/orders/{id}", deps.OrderHandler.Get)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health)
	if deps.Metrics != nil {
		r.Mount("GET /metrics", deps.Metrics)
	}
}
