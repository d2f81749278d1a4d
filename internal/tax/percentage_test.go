package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/larder/internal/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalc(t *testing.T, rate string, taxShipping bool) *tax.PercentageCalculator {
	t.Helper()
	calc, err := tax.NewPercentageCalculator(decimal.RequireFromString(rate), taxShipping)
	require.NoError(t, err)
	return calc
}

// Subtotal $10.50 at 10% = $1.05; shipping is not taxed.
func Test_PercentageCalculator_StorefrontExample(t *testing.T) {
	calc := newCalc(t, "0.10", false)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{
			{ProductID: uuid.New(), Description: "Sourdough", Quantity: 2, UnitPriceCents: 450, TotalCents: 900},
			{ProductID: uuid.New(), Description: "Baguette", Quantity: 1, UnitPriceCents: 150, TotalCents: 150},
		},
		ShippingCents: 1000,
	}

	result, err := calc.CalculateTax(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, int64(105), result.TotalTaxCents, "1050 * 0.10 = 105 cents")
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "Sales Tax", result.Breakdown[0].Name)
	assert.True(t, result.Breakdown[0].Rate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, int64(105), result.Breakdown[0].AmountCents)
	assert.False(t, result.IsEstimate)
}

func Test_PercentageCalculator_DifferentTaxRates(t *testing.T) {
	tests := []struct {
		name        string
		rate        string
		subtotal    int64
		expectedTax int64
	}{
		{name: "zero percent rate", rate: "0", subtotal: 10000, expectedTax: 0},
		{name: "five percent rate", rate: "0.05", subtotal: 10000, expectedTax: 500},
		{name: "eight point five percent rate", rate: "0.085", subtotal: 10000, expectedTax: 850},
		{name: "ten percent rate", rate: "0.10", subtotal: 7500, expectedTax: 750},
		{name: "one hundred percent rate edge case", rate: "1", subtotal: 5000, expectedTax: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newCalc(t, tt.rate, false)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
				LineItems: []tax.LineItem{{TotalCents: tt.subtotal}},
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, result.TotalTaxCents)
		})
	}
}

func Test_PercentageCalculator_RoundingBehavior(t *testing.T) {
	tests := []struct {
		name        string
		rate        string
		subtotal    int64
		expectedTax int64
		explanation string
	}{
		{name: "exact cent amount", rate: "0.10", subtotal: 1000, expectedTax: 100, explanation: "1000 * 0.10 = 100.0"},
		{name: "rounds half up", rate: "0.10", subtotal: 1005, expectedTax: 101, explanation: "1005 * 0.10 = 100.5, rounds to 101"},
		{name: "rounds down below midpoint", rate: "0.10", subtotal: 1004, expectedTax: 100, explanation: "100.4 rounds to 100"},
		{name: "rounds up above midpoint", rate: "0.08", subtotal: 1062, expectedTax: 85, explanation: "84.96 rounds to 85"},
		{name: "one cent subtotal", rate: "0.10", subtotal: 1, expectedTax: 0, explanation: "0.1 rounds to 0"},
		{name: "five cent subtotal", rate: "0.10", subtotal: 5, expectedTax: 1, explanation: "0.5 rounds to 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newCalc(t, tt.rate, false)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
				LineItems: []tax.LineItem{{TotalCents: tt.subtotal}},
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, result.TotalTaxCents, tt.explanation)
		})
	}
}

func Test_PercentageCalculator_ShippingScenarios(t *testing.T) {
	params := tax.TaxParams{
		LineItems:     []tax.LineItem{{TotalCents: 5000}},
		ShippingCents: 1000,
	}

	t.Run("shipping excluded", func(t *testing.T) {
		result, err := newCalc(t, "0.10", false).CalculateTax(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(500), result.TotalTaxCents)
	})

	t.Run("shipping included", func(t *testing.T) {
		result, err := newCalc(t, "0.10", true).CalculateTax(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(600), result.TotalTaxCents)
	})
}

func Test_PercentageCalculator_EdgeCases(t *testing.T) {
	t.Run("empty line items", func(t *testing.T) {
		result, err := newCalc(t, "0.10", false).CalculateTax(context.Background(), tax.TaxParams{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.TotalTaxCents)
	})

	t.Run("negative taxable amount", func(t *testing.T) {
		_, err := newCalc(t, "0.10", false).CalculateTax(context.Background(), tax.TaxParams{
			LineItems: []tax.LineItem{{TotalCents: -100}},
		})
		assert.ErrorIs(t, err, tax.ErrNegativeAmount)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newCalc(t, "0.10", false).CalculateTax(ctx, tax.TaxParams{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func Test_PercentageCalculator_NewConstructor(t *testing.T) {
	tests := []struct {
		rate    string
		wantErr bool
	}{
		{"0", false},
		{"0.10", false},
		{"1", false},
		{"-0.01", true},
		{"1.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(decimal.RequireFromString(tt.rate), false)
			if tt.wantErr {
				assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
				assert.Nil(t, calc)
				return
			}
			require.NoError(t, err)
			assert.True(t, calc.Rate().Equal(decimal.RequireFromString(tt.rate)))
		})
	}
}

func Test_PercentageCalculator_Idempotency(t *testing.T) {
	calc := newCalc(t, "0.10", false)
	params := tax.TaxParams{LineItems: []tax.LineItem{{TotalCents: 4723}}}

	first, err := calc.CalculateTax(context.Background(), params)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := calc.CalculateTax(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, first.TotalTaxCents, again.TotalTaxCents)
	}
}
