package shipping

import (
	"context"
	"time"
)

// FlatRateProvider returns predefined flat-rate shipping options.
type FlatRateProvider struct {
	rates []FlatRate
	now   func() time.Time
}

// FlatRate defines a single flat-rate shipping option.
//
// When FreeOverCents is positive the rate costs nothing for subtotals
// strictly greater than FreeOverCents. A subtotal equal to the threshold pays.
type FlatRate struct {
	ServiceName   string
	ServiceCode   string
	CostCents     int64
	FreeOverCents int64
	DaysMin       int
	DaysMax       int
}

// StandardRate is the storefront default: $10.00, free over $50.00.
func StandardRate(costCents, freeOverCents int64) FlatRate {
	return FlatRate{
		ServiceName:   "Standard Shipping",
		ServiceCode:   "STD",
		CostCents:     costCents,
		FreeOverCents: freeOverCents,
		DaysMin:       3,
		DaysMax:       5,
	}
}

// NewFlatRateProvider creates a new flat-rate shipping provider.
func NewFlatRateProvider(rates []FlatRate) *FlatRateProvider {
	return &FlatRateProvider{rates: rates, now: time.Now}
}

// GetRates converts flat rates to Rate objects.
func (p *FlatRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	if params.SubtotalCents < 0 {
		return nil, ErrNegativeSubtotal
	}
	if len(p.rates) == 0 {
		return nil, ErrNoRates
	}

	result := make([]Rate, len(p.rates))
	for i, fr := range p.rates {
		cost := fr.CostCents
		if fr.FreeOverCents > 0 && params.SubtotalCents > fr.FreeOverCents {
			cost = 0
		}
		result[i] = Rate{
			RateID:                fr.ServiceCode,
			Carrier:               "Flat Rate",
			ServiceName:           fr.ServiceName,
			ServiceCode:           fr.ServiceCode,
			CostCents:             cost,
			EstimatedDaysMin:      fr.DaysMin,
			EstimatedDaysMax:      fr.DaysMax,
			EstimatedDeliveryDate: p.now().AddDate(0, 0, fr.DaysMax),
		}
	}
	return result, nil
}
