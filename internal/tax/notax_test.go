package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/larder/internal/tax"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNoTaxCalculator_CalculateTax_ReturnsZeroTax(t *testing.T) {
	calc := tax.NewNoTaxCalculator()

	params := tax.TaxParams{
		LineItems: []tax.LineItem{
			{ProductID: uuid.New(), Description: "Rye loaf", Quantity: 2, UnitPriceCents: 1800, TotalCents: 3600},
			{ProductID: uuid.New(), Description: "Focaccia", Quantity: 1, UnitPriceCents: 2200, TotalCents: 2200},
		},
		ShippingCents: 500,
	}

	result, err := calc.CalculateTax(context.Background(), params)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int64(0), result.TotalTaxCents, "NoTaxCalculator should always return zero tax")
	assert.Empty(t, result.Breakdown, "NoTaxCalculator should return empty breakdown")
	assert.False(t, result.IsEstimate)
}

func TestNoTaxCalculator_CalculateTax_EmptyLineItems(t *testing.T) {
	calc := tax.NewNoTaxCalculator()

	result, err := calc.CalculateTax(context.Background(), tax.TaxParams{})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalTaxCents, "Should return zero tax even with no items")
}

func TestNoTaxCalculator_ImplementsCalculator(t *testing.T) {
	var _ tax.Calculator = tax.NewNoTaxCalculator()
	var _ tax.Calculator = (*tax.PercentageCalculator)(nil)
}
