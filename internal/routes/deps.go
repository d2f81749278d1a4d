package routes

import (
	"net/http"

	"github.com/dukerupert/larder/internal/handler/storefront"
	"github.com/dukerupert/larder/internal/router"
)

// StorefrontDeps contains dependencies for the storefront API routes
type StorefrontDeps struct {
	// Catalog
	ProductHandler *storefront.ProductHandler

	// Cart (get, add, update, remove, clear, merge)
	CartHandler *storefront.CartHandler

	// Checkout and order confirmation
	CheckoutHandler *storefront.CheckoutHandler
	OrderHandler    *storefront.OrderHandler

	// Identity resolves the cart owner for every cart, checkout and order route.
	Identity router.Middleware

	// CheckoutLimit throttles order placement. Optional.
	CheckoutLimit router.Middleware
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	Health  http.HandlerFunc
	Metrics http.Handler
}
