package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/events"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// GetOrCreateCart
// ============================================================================

func TestCartService_GetOrCreateCart_ReturnsSameCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	first, err := f.carts.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	second, err := f.carts.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, owner, first.Owner)
	assert.Equal(t, 1, f.store.Counts().Carts)
}

func TestCartService_GetOrCreateCart_RejectsZeroIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.carts.GetOrCreateCart(context.Background(), domain.Identity{})

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Equal(t, 0, f.store.Counts().Carts)
}

func TestCartService_GetOrCreateCart_ConcurrentFirstRequests(t *testing.T) {
	for _, owner := range []domain.Identity{guest(), user()} {
		t.Run(owner.Kind().String(), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			const workers = 50
			ids := make([]uuid.UUID, workers)

			var g errgroup.Group
			for i := 0; i < workers; i++ {
				g.Go(func() error {
					cart, err := f.carts.GetOrCreateCart(ctx, owner)
					if err != nil {
						return err
					}
					ids[i] = cart.ID
					return nil
				})
			}
			require.NoError(t, g.Wait(), "no caller may see the duplicate-cart conflict")

			for _, id := range ids {
				assert.Equal(t, ids[0], id)
			}
			assert.Equal(t, 1, f.store.Counts().Carts)
		})
	}
}

func TestCartService_GetOrCreateCart_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("CreateCart", errors.New("connection reset"))

	_, err := f.carts.GetOrCreateCart(context.Background(), guest())

	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

// ============================================================================
// AddItem
// ============================================================================

func TestCartService_AddItem_AccumulatesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	_, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 2)
	require.NoError(t, err)
	item, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, int32(5), item.Quantity)

	summary, err := f.carts.GetCartSummary(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summary.Cart.Items, 1, "one line per product")
	assert.Equal(t, int32(5), summary.Cart.Items[0].Quantity)
	assert.Equal(t, "Sourdough Loaf", summary.Cart.Items[0].Product.Name)
}

func TestCartService_AddItem_ConcurrentAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := user()

	const workers = 100
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := f.carts.AddItem(ctx, owner, f.baguette.ID, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	summary, err := f.carts.GetCartSummary(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summary.Cart.Items, 1)
	assert.Equal(t, int32(workers), summary.Cart.Items[0].Quantity)
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		productID func(f *fixture) uuid.UUID
		quantity  int
		wantCode  string
		wantErr   error
	}{
		{name: "zero quantity", productID: func(f *fixture) uuid.UUID { return f.sourdough.ID }, quantity: 0, wantErr: service.ErrInvalidQuantity},
		{name: "negative quantity", productID: func(f *fixture) uuid.UUID { return f.sourdough.ID }, quantity: -2, wantErr: service.ErrInvalidQuantity},
		{name: "unknown product", productID: func(f *fixture) uuid.UUID { return uuid.New() }, quantity: 1, wantErr: service.ErrProductNotFound},
		{name: "unpublished product", productID: func(f *fixture) uuid.UUID { return f.hidden.ID }, quantity: 1, wantErr: service.ErrProductUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.carts.AddItem(context.Background(), guest(), tt.productID(f), tt.quantity)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.store.Counts().CartItems)
		})
	}
}

func TestCartService_AddItem_LineQuantityCannotOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	item, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), item.Quantity)

	_, err = f.carts.AddItem(ctx, owner, f.sourdough.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	summary, err := f.carts.GetCartSummary(ctx, owner)
	require.NoError(t, err, "cart stays readable after a rejected add")
	require.Len(t, summary.Cart.Items, 1)
	assert.Equal(t, int32(math.MaxInt32), summary.Cart.Items[0].Quantity)
}

func TestCartService_AddItem_PublishesCartUpdated(t *testing.T) {
	f := newFixture(t)
	owner := guest()

	_, err := f.carts.AddItem(context.Background(), owner, f.sourdough.ID, 2)
	require.NoError(t, err)

	msgs := f.events.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.SubjectCartUpdated, msgs[0].Subject)
	payload := msgs[0].Payload.(events.CartUpdated)
	assert.Equal(t, 2, payload.ItemCount)
	assert.Equal(t, owner.String(), payload.Identity)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.CartItemsAdded.WithLabelValues("guest")))
}

// ============================================================================
// UpdateItemQuantity
// ============================================================================

func TestCartService_UpdateItemQuantity_IsAbsolute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	item, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 5)
	require.NoError(t, err)

	updated, removed, err := f.carts.UpdateItemQuantity(ctx, owner, item.ID, 2)

	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int32(2), updated.Quantity, "update sets the quantity, it does not add")
}

func TestCartService_UpdateItemQuantity_ZeroOrNegativeRemoves(t *testing.T) {
	for _, qty := range []int{0, -1} {
		f := newFixture(t)
		ctx := context.Background()
		owner := guest()

		item, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 2)
		require.NoError(t, err)

		updated, removed, err := f.carts.UpdateItemQuantity(ctx, owner, item.ID, qty)

		require.NoError(t, err)
		assert.True(t, removed)
		assert.Nil(t, updated)
		assert.Equal(t, 0, f.store.Counts().CartItems)
	}
}

func TestCartService_ForeignItemIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, mallory := user(), guest()

	item, err := f.carts.AddItem(ctx, alice, f.sourdough.ID, 2)
	require.NoError(t, err)

	_, _, err = f.carts.UpdateItemQuantity(ctx, mallory, item.ID, 9)
	assert.ErrorIs(t, err, service.ErrCartItemNotFound)

	_, _, err = f.carts.UpdateItemQuantity(ctx, mallory, item.ID, 0)
	assert.ErrorIs(t, err, service.ErrCartItemNotFound)

	err = f.carts.RemoveItem(ctx, mallory, item.ID)
	assert.ErrorIs(t, err, service.ErrCartItemNotFound)

	summary, err := f.carts.GetCartSummary(ctx, alice)
	require.NoError(t, err)
	require.Len(t, summary.Cart.Items, 1)
	assert.Equal(t, int32(2), summary.Cart.Items[0].Quantity, "owner's line untouched")
}

// ============================================================================
// RemoveItem / ClearCart
// ============================================================================

func TestCartService_RemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	item, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.carts.RemoveItem(ctx, owner, item.ID))
	assert.ErrorIs(t, f.carts.RemoveItem(ctx, owner, item.ID), service.ErrCartItemNotFound)
}

func TestCartService_ClearCart_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := user()

	_, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, owner, f.baguette.ID, 4)
	require.NoError(t, err)

	require.NoError(t, f.carts.ClearCart(ctx, owner))
	require.NoError(t, f.carts.ClearCart(ctx, owner), "clearing an empty cart succeeds")

	summary, err := f.carts.GetCartSummary(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, summary.Cart.Items)
	assert.Equal(t, 1, f.store.Counts().Carts, "the cart row itself survives")
}

// ============================================================================
// GetCartSummary
// ============================================================================

func TestCartService_GetCartSummary_Totals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	_, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, owner, f.baguette.ID, 1)
	require.NoError(t, err)

	summary, err := f.carts.GetCartSummary(ctx, owner)

	require.NoError(t, err)
	assert.Equal(t, int64(1050), summary.Totals.SubtotalCents)
	assert.Equal(t, int64(105), summary.Totals.TaxCents)
	assert.Equal(t, int64(1000), summary.Totals.ShippingCents)
	assert.Equal(t, int64(2155), summary.Totals.TotalCents)
	assert.Equal(t, 3, summary.Totals.ItemCount)
}

func TestCartService_GetCartSummary_UsesLivePrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := guest()

	_, err := f.carts.AddItem(ctx, owner, f.sourdough.ID, 2)
	require.NoError(t, err)
	require.NoError(t, f.store.SetProductPrice(f.sourdough.ID, 500))

	summary, err := f.carts.GetCartSummary(ctx, owner)

	require.NoError(t, err)
	assert.Equal(t, int64(1000), summary.Totals.SubtotalCents)
}
