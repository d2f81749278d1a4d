package service

import (
	"github.com/dukerupert/larder/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrProductNotFound  = domain.ErrProductNotFound
	ErrCartNotFound     = domain.ErrCartNotFound
	ErrCartItemNotFound = domain.ErrCartItemNotFound
	ErrOrderNotFound    = domain.ErrOrderNotFound
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidQuantity      = domain.ErrInvalidQuantity
	ErrProductUnavailable   = domain.Errorf(domain.EINVALID, "", "Product is not available")
	ErrInvalidGuestEmail    = domain.Errorf(domain.EINVALID, "", "A valid email address is required")
	ErrInvalidPaymentMethod = domain.Errorf(domain.EINVALID, "", "Unsupported payment method")
)

// Checkout and merge errors
var (
	ErrStockExceeded     = domain.ErrStockExceeded
	ErrMergeRequiresUser = domain.Unauthorized("cart.merge", "Sign in to merge a guest cart")
)
