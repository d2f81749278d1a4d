package domain

import (
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrStockExceeded   = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
)

// Product is a catalog row. The cart core only ever changes Stock.
type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	ImageURL    string
	CategoryID  *uuid.UUID
	PriceCents  int64
	Stock       int32
	Published   bool
	CreatedAt   time.Time
}

// Snapshot returns the display fields joined onto cart lines.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Name:       p.Name,
		Slug:       p.Slug,
		ImageURL:   p.ImageURL,
		PriceCents: p.PriceCents,
		Stock:      p.Stock,
		Published:  p.Published,
	}
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
}
