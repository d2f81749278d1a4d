package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// PercentageCalculator calculates tax using a single flat rate.
type PercentageCalculator struct {
	rate        decimal.Decimal // e.g., 0.10 for 10%
	taxShipping bool
}

// NewPercentageCalculator creates a new percentage-based tax calculator.
// When taxShipping is false only the merchandise subtotal is taxed.
func NewPercentageCalculator(rate decimal.Decimal, taxShipping bool) (*PercentageCalculator, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}
	return &PercentageCalculator{rate: rate, taxShipping: taxShipping}, nil
}

// Rate returns the configured rate.
func (c *PercentageCalculator) Rate() decimal.Decimal {
	return c.rate
}

// CalculateTax computes rate × taxable amount, rounded half-up to the cent.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	taxable := params.SubtotalCents()
	if c.taxShipping {
		taxable += params.ShippingCents
	}
	if taxable < 0 {
		return nil, ErrNegativeAmount
	}

	amount := decimal.NewFromInt(taxable).Mul(c.rate).Round(0).IntPart()

	return &TaxResult{
		TotalTaxCents: amount,
		Breakdown: []TaxBreakdown{
			{Name: "Sales Tax", Rate: c.rate, AmountCents: amount},
		},
	}, nil
}
