package shipping

import (
	"context"
	"time"
)

// Provider defines the interface for shipping quotes.
// Implementations can integrate with carriers; the storefront uses FlatRateProvider.
type Provider interface {
	// GetRates returns available shipping options for an order.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating shipping rates.
type RateParams struct {
	SubtotalCents int64
	ItemCount     int
	Destination   ShippingAddress // Optional; flat rates ignore it
}

// ShippingAddress represents a shipping destination.
type ShippingAddress struct {
	Name       string
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Rate represents a shipping rate option.
type Rate struct {
	RateID                string
	Carrier               string
	ServiceName           string
	ServiceCode           string
	CostCents             int64
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}

// Cheapest returns the lowest-cost rate. ok is false for an empty slice.
func Cheapest(rates []Rate) (Rate, bool) {
	if len(rates) == 0 {
		return Rate{}, false
	}
	best := rates[0]
	for _, r := range rates[1:] {
		if r.CostCents < best.CostCents {
			best = r
		}
	}
	return best, true
}
