package tax

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for order line items and, optionally, shipping.
	// Returns tax amount in cents.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	LineItems     []LineItem
	ShippingCents int64
}

// SubtotalCents sums the line totals.
func (p TaxParams) SubtotalCents() int64 {
	var total int64
	for _, li := range p.LineItems {
		total += li.TotalCents
	}
	return total
}

// LineItem represents a single item being taxed.
type LineItem struct {
	ProductID      uuid.UUID
	Description    string
	Quantity       int32
	UnitPriceCents int64
	TotalCents     int64
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTaxCents int64
	Breakdown     []TaxBreakdown
	IsEstimate    bool
}

// TaxBreakdown represents tax for a single rate.
type TaxBreakdown struct {
	Name        string          // e.g., "Sales Tax"
	Rate        decimal.Decimal // e.g., 0.10 for 10%
	AmountCents int64
}
