package service_test

import (
	"context"
	"testing"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_ResolveProductID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	literal := uuid.New()

	tests := []struct {
		name    string
		ref     string
		want    uuid.UUID
		wantErr error
	}{
		{name: "uuid passes through", ref: literal.String(), want: literal},
		{name: "exact slug", ref: "baguette", want: f.baguette.ID},
		{name: "partial slug", ref: "sourdough", want: f.sourdough.ID},
		{name: "case-insensitive name", ref: "LOAF", want: f.sourdough.ID},
		{name: "unpublished only by exact slug", ref: "test-bake", want: f.hidden.ID},
		{name: "unpublished not searchable", ref: "Test Bake", wantErr: service.ErrProductNotFound},
		{name: "nothing matches", ref: "croissant", wantErr: service.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.products.ResolveProductID(ctx, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductService_ResolveProductID_Blank(t *testing.T) {
	f := newFixture(t)

	_, err := f.products.ResolveProductID(context.Background(), "  ")

	assert.True(t, domain.IsValidationError(err))
}

func TestProductService_ListAndDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	category := uuid.New()
	rye := f.store.AddProduct(domain.Product{Name: "Rye", Slug: "rye", PriceCents: 600, Published: true, CategoryID: &category})

	all, err := f.products.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "unpublished products are hidden")

	filtered, err := f.products.ListProducts(ctx, domain.ProductFilter{CategoryID: &category})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, rye.ID, filtered[0].ID)

	detail, err := f.products.GetProductDetail(ctx, "baguette")
	require.NoError(t, err)
	assert.Equal(t, f.baguette.ID, detail.ID)

	_, err = f.products.GetProductDetail(ctx, "test-bake")
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}
