package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be a positive integer"}
	ErrDuplicateCart    = Conflict("cart.create", "Cart already exists for this identity")
)

// Cart is the single cart owned by one Identity.
// Items carry the live product data joined at read time.
type Cart struct {
	ID        uuid.UUID
	Owner     Identity
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []CartItem
}

// ItemCount is the sum of line quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += int(it.Quantity)
	}
	return n
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemByProduct returns the line for a product, if present.
func (c *Cart) ItemByProduct(productID uuid.UUID) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// CartItem is one (cart, product) line. At most one exists per pair.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	CreatedAt time.Time

	// Product is the current catalog row, not a snapshot.
	Product ProductSnapshot
}

// LineTotalCents is the live price times quantity.
func (i CartItem) LineTotalCents() int64 {
	return i.Product.PriceCents * int64(i.Quantity)
}

// ProductSnapshot is the catalog data joined onto a cart line for display.
type ProductSnapshot struct {
	Name       string
	Slug       string
	ImageURL   string
	PriceCents int64
	Stock      int32
	Published  bool
}
