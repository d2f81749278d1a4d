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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCartService_MergeGuestCart_SumsQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()
	guestOwner, userOwner := domain.GuestIdentity(sessionID), domain.UserIdentity(userID)

	_, err := f.carts.AddItem(ctx, guestOwner, f.sourdough.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, guestOwner, f.baguette.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, userOwner, f.sourdough.ID, 3)
	require.NoError(t, err)

	result, err := f.carts.MergeGuestCart(ctx, userID, sessionID)

	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, 2, result.LinesMerged)

	summary, err := f.carts.GetCartSummary(ctx, userOwner)
	require.NoError(t, err)
	assert.Equal(t, result.UserCartID, summary.Cart.ID)

	quantities := map[uuid.UUID]int32{}
	for _, it := range summary.Cart.Items {
		quantities[it.ProductID] = it.Quantity
	}
	assert.Equal(t, map[uuid.UUID]int32{f.sourdough.ID: 5, f.baguette.ID: 1}, quantities)

	_, err = f.store.GetCartByOwner(ctx, guestOwner)
	assert.ErrorIs(t, err, domain.ErrCartNotFound, "guest cart is deleted")
	assert.Equal(t, 1, f.store.Counts().Carts)

	assert.Contains(t, f.events.Subjects(), events.SubjectCartMerged)
}

func TestCartService_MergeGuestCart_RejectsOverflowingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()
	guestOwner, userOwner := domain.GuestIdentity(sessionID), domain.UserIdentity(userID)

	_, err := f.carts.AddItem(ctx, guestOwner, f.sourdough.ID, math.MaxInt32)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, userOwner, f.sourdough.ID, 1)
	require.NoError(t, err)

	_, err = f.carts.MergeGuestCart(ctx, userID, sessionID)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// The transaction rolled back: both carts are as they were.
	guestCart, err := f.carts.GetCartSummary(ctx, guestOwner)
	require.NoError(t, err)
	require.Len(t, guestCart.Cart.Items, 1)
	assert.Equal(t, int32(math.MaxInt32), guestCart.Cart.Items[0].Quantity)

	userCart, err := f.carts.GetCartSummary(ctx, userOwner)
	require.NoError(t, err)
	require.Len(t, userCart.Cart.Items, 1)
	assert.Equal(t, int32(1), userCart.Cart.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_SecondMergeIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()

	_, err := f.carts.AddItem(ctx, domain.GuestIdentity(sessionID), f.sourdough.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, domain.UserIdentity(userID), f.sourdough.ID, 3)
	require.NoError(t, err)

	_, err = f.carts.MergeGuestCart(ctx, userID, sessionID)
	require.NoError(t, err)

	again, err := f.carts.MergeGuestCart(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.False(t, again.Merged)

	summary, err := f.carts.GetCartSummary(ctx, domain.UserIdentity(userID))
	require.NoError(t, err)
	require.Len(t, summary.Cart.Items, 1)
	assert.Equal(t, int32(5), summary.Cart.Items[0].Quantity, "quantities are not added twice")
}

func TestCartService_MergeGuestCart_ConcurrentMergesApplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()

	_, err := f.carts.AddItem(ctx, domain.GuestIdentity(sessionID), f.sourdough.ID, 2)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := f.carts.MergeGuestCart(ctx, userID, sessionID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	summary, err := f.carts.GetCartSummary(ctx, domain.UserIdentity(userID))
	require.NoError(t, err)
	require.Len(t, summary.Cart.Items, 1)
	assert.Equal(t, int32(2), summary.Cart.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_NoGuestCart(t *testing.T) {
	f := newFixture(t)

	result, err := f.carts.MergeGuestCart(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.Equal(t, 0, f.store.Counts().Carts, "a no-op merge creates nothing")
	assert.Empty(t, f.events.Messages())
}

func TestCartService_MergeGuestCart_UserCartCreatedWhenMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()

	_, err := f.carts.AddItem(ctx, domain.GuestIdentity(sessionID), f.baguette.ID, 4)
	require.NoError(t, err)

	result, err := f.carts.MergeGuestCart(ctx, userID, sessionID)

	require.NoError(t, err)
	assert.True(t, result.Merged)
	cart, err := f.store.GetCartByOwner(ctx, domain.UserIdentity(userID))
	require.NoError(t, err)
	assert.Equal(t, result.UserCartID, cart.ID)
}

func TestCartService_MergeGuestCart_RequiresUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.carts.MergeGuestCart(context.Background(), uuid.Nil, uuid.New())

	assert.ErrorIs(t, err, service.ErrMergeRequiresUser)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestCartService_MergeGuestCart_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionID, userID := uuid.New(), uuid.New()

	_, err := f.carts.AddItem(ctx, domain.GuestIdentity(sessionID), f.sourdough.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, domain.UserIdentity(userID), f.sourdough.ID, 3)
	require.NoError(t, err)

	f.store.FailOn("DeleteCart", errors.New("disk full"))
	_, err = f.carts.MergeGuestCart(ctx, userID, sessionID)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	f.store.FailOn("DeleteCart", nil)
	summary, err := f.carts.GetCartSummary(ctx, domain.UserIdentity(userID))
	require.NoError(t, err)
	assert.Equal(t, int32(3), summary.Cart.Items[0].Quantity, "user cart unchanged")

	_, err = f.store.GetCartByOwner(ctx, domain.GuestIdentity(sessionID))
	assert.NoError(t, err, "guest cart survives a failed merge")
}
