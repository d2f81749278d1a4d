// Package pricing derives cart and order totals from line items.
//
// Totals are computed in integer cents. The same Engine prices the cart view
// and the checkout snapshot, so what the shopper sees is what the order records.
package pricing

import (
	"context"
	"fmt"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/shipping"
	"github.com/dukerupert/larder/internal/tax"
	"github.com/shopspring/decimal"
)

// Default storefront pricing rules.
const (
	DefaultFreeShippingOverCents int64 = 5000
	DefaultFlatShippingCents     int64 = 1000
)

// DefaultTaxRate is 10% of the merchandise subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Line is the minimal input the engine prices.
type Line struct {
	UnitPriceCents int64
	Quantity       int32
}

// Totals is a derived pricing result. It is never stored on a cart.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
	ItemCount     int
}

// Engine combines a tax calculator and a shipping provider.
type Engine struct {
	tax      tax.Calculator
	shipping shipping.Provider
}

// NewEngine creates a pricing engine from its collaborators.
func NewEngine(calc tax.Calculator, provider shipping.Provider) *Engine {
	return &Engine{tax: calc, shipping: provider}
}

// Config holds the tunable pricing rules.
type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingOverCents int64
	FlatShippingCents     int64
}

// New builds the percentage-tax, flat-rate-shipping engine described by cfg.
func New(cfg Config) (*Engine, error) {
	calc, err := tax.NewPercentageCalculator(cfg.TaxRate, false)
	if err != nil {
		return nil, fmt.Errorf("tax calculator: %w", err)
	}
	provider := shipping.NewFlatRateProvider([]shipping.FlatRate{
		shipping.StandardRate(cfg.FlatShippingCents, cfg.FreeShippingOverCents),
	})
	return NewEngine(calc, provider), nil
}

// Default returns the engine with storefront defaults: 10% tax, $10 shipping, free over $50.
func Default() *Engine {
	e, err := New(Config{
		TaxRate:               DefaultTaxRate,
		FreeShippingOverCents: DefaultFreeShippingOverCents,
		FlatShippingCents:     DefaultFlatShippingCents,
	})
	if err != nil {
		panic(err)
	}
	return e
}

// Compute prices the lines. Shipping uses the cheapest available rate.
func (e *Engine) Compute(ctx context.Context, lines []Line) (Totals, error) {
	var totals Totals
	taxLines := make([]tax.LineItem, 0, len(lines))

	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitPriceCents < 0 {
			return Totals{}, domain.Errorf(domain.EINVALID, "pricing.Compute", "invalid line: price %d quantity %d", l.UnitPriceCents, l.Quantity)
		}
		lineTotal := l.UnitPriceCents * int64(l.Quantity)
		totals.SubtotalCents += lineTotal
		totals.ItemCount += int(l.Quantity)
		taxLines = append(taxLines, tax.LineItem{
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			TotalCents:     lineTotal,
		})
	}

	rates, err := e.shipping.GetRates(ctx, shipping.RateParams{
		SubtotalCents: totals.SubtotalCents,
		ItemCount:     totals.ItemCount,
	})
	if err != nil {
		return Totals{}, domain.WrapError(err, domain.EINTERNAL, "pricing.Compute", "shipping rates")
	}
	rate, ok := shipping.Cheapest(rates)
	if !ok {
		return Totals{}, domain.WrapError(shipping.ErrNoRates, domain.EINTERNAL, "pricing.Compute", "shipping rates")
	}
	totals.ShippingCents = rate.CostCents

	taxResult, err := e.tax.CalculateTax(ctx, tax.TaxParams{
		LineItems:     taxLines,
		ShippingCents: totals.ShippingCents,
	})
	if err != nil {
		return Totals{}, domain.WrapError(err, domain.EINTERNAL, "pricing.Compute", "tax")
	}
	totals.TaxCents = taxResult.TotalTaxCents

	totals.TotalCents = totals.SubtotalCents + totals.TaxCents + totals.ShippingCents
	return totals, nil
}

// LinesFromCart converts cart items to pricing lines at their current prices.
func LinesFromCart(items []domain.CartItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{UnitPriceCents: it.Product.PriceCents, Quantity: it.Quantity}
	}
	return lines
}

// FormatCents renders cents as a fixed two-decimal string, e.g. 2155 -> "21.55".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
