package pricing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/shipping"
	"github.com/dukerupert/larder/internal/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Compute_Determinism(t *testing.T) {
	engine := pricing.Default()

	totals, err := engine.Compute(context.Background(), []pricing.Line{
		{UnitPriceCents: 450, Quantity: 2},
		{UnitPriceCents: 150, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1050), totals.SubtotalCents)
	assert.Equal(t, int64(105), totals.TaxCents)
	assert.Equal(t, int64(1000), totals.ShippingCents)
	assert.Equal(t, int64(2155), totals.TotalCents)
	assert.Equal(t, 3, totals.ItemCount)
	assert.Equal(t, "21.55", pricing.FormatCents(totals.TotalCents))
}

func TestEngine_Compute_FreeShippingBoundary(t *testing.T) {
	tests := []struct {
		name          string
		lines         []pricing.Line
		wantSubtotal  int64
		wantShipping  int64
		wantTax       int64
		wantTotal     int64
		wantItemCount int
	}{
		{
			name:          "exactly 50.00 pays shipping",
			lines:         []pricing.Line{{UnitPriceCents: 2500, Quantity: 2}},
			wantSubtotal:  5000,
			wantShipping:  1000,
			wantTax:       500,
			wantTotal:     6500,
			wantItemCount: 2,
		},
		{
			name:          "50.01 ships free",
			lines:         []pricing.Line{{UnitPriceCents: 5001, Quantity: 1}},
			wantSubtotal:  5001,
			wantShipping:  0,
			wantTax:       500,
			wantTotal:     5501,
			wantItemCount: 1,
		},
		{
			name:          "empty cart still quotes flat shipping",
			lines:         nil,
			wantSubtotal:  0,
			wantShipping:  1000,
			wantTax:       0,
			wantTotal:     1000,
			wantItemCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := pricing.Default().Compute(context.Background(), tt.lines)

			require.NoError(t, err)
			assert.Equal(t, tt.wantSubtotal, totals.SubtotalCents)
			assert.Equal(t, tt.wantShipping, totals.ShippingCents)
			assert.Equal(t, tt.wantTax, totals.TaxCents)
			assert.Equal(t, tt.wantTotal, totals.TotalCents)
			assert.Equal(t, tt.wantItemCount, totals.ItemCount)
		})
	}
}

func TestEngine_Compute_InvalidLine(t *testing.T) {
	_, err := pricing.Default().Compute(context.Background(), []pricing.Line{{UnitPriceCents: 100, Quantity: 0}})

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestEngine_Compute_CollaboratorErrors(t *testing.T) {
	t.Run("shipping failure", func(t *testing.T) {
		provider := shipping.NewMockProvider()
		provider.GetRatesFunc = func(ctx context.Context, params shipping.RateParams) ([]shipping.Rate, error) {
			return nil, errors.New("carrier down")
		}
		engine := pricing.NewEngine(tax.NewNoTaxCalculator(), provider)

		_, err := engine.Compute(context.Background(), []pricing.Line{{UnitPriceCents: 100, Quantity: 1}})

		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	})

	t.Run("no rates", func(t *testing.T) {
		provider := shipping.NewMockProvider()
		provider.GetRatesFunc = func(ctx context.Context, params shipping.RateParams) ([]shipping.Rate, error) {
			return []shipping.Rate{}, nil
		}
		engine := pricing.NewEngine(tax.NewNoTaxCalculator(), provider)

		_, err := engine.Compute(context.Background(), []pricing.Line{{UnitPriceCents: 100, Quantity: 1}})

		assert.ErrorIs(t, err, shipping.ErrNoRates)
	})
}

func TestNew_RejectsBadRate(t *testing.T) {
	_, err := pricing.New(pricing.Config{TaxRate: decimal.NewFromInt(2)})

	assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
}

func TestLinesFromCart(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: uuid.New(), Quantity: 2, Product: domain.ProductSnapshot{PriceCents: 450}},
		{ProductID: uuid.New(), Quantity: 1, Product: domain.ProductSnapshot{PriceCents: 150}},
	}

	lines := pricing.LinesFromCart(items)

	assert.Equal(t, []pricing.Line{
		{UnitPriceCents: 450, Quantity: 2},
		{UnitPriceCents: 150, Quantity: 1},
	}, lines)
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		105:   "1.05",
		5001:  "50.01",
		-250:  "-2.50",
		12345: "123.45",
	}
	for cents, want := range tests {
		assert.Equal(t, want, pricing.FormatCents(cents))
	}
}
