package service

import (
	"context"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MergeResult describes what a guest-to-user merge did.
type MergeResult struct {
	UserCartID  uuid.UUID
	LinesMerged int
	Merged      bool // false when there was no guest cart to merge
}

// MergeGuestCart folds the guest session's cart into the user's cart at sign-in.
//
// Quantities for a product present in both carts are summed. The guest cart is
// deleted in the same transaction, so running the merge again for the same
// session finds nothing and is a no-op.
func (s *cartService) MergeGuestCart(ctx context.Context, userID, guestSessionID uuid.UUID) (*MergeResult, error) {
	const op = "cart.merge"

	if userID == uuid.Nil {
		return nil, ErrMergeRequiresUser
	}
	if guestSessionID == uuid.Nil {
		return &MergeResult{}, nil
	}

	guest := domain.GuestIdentity(guestSessionID)
	owner := domain.UserIdentity(userID)

	// Look for a guest cart first so a no-op merge never creates a user cart.
	if _, err := s.store.GetCartByOwner(ctx, guest); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			s.metrics.CartMerged(false)
			return &MergeResult{}, nil
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load guest cart")
	}

	// The user cart is resolved outside the transaction; a unique violation
	// inside it would abort the whole transaction on Postgres.
	userCart, err := s.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{UserCartID: userCart.ID}
	err = s.store.ExecTx(ctx, func(q Querier) error {
		// Re-read under the transaction: a concurrent merge may already have consumed it.
		guestCart, err := q.GetCartByOwner(ctx, guest)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return nil
			}
			return err
		}
		if err := q.LockCart(ctx, guestCart.ID); err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return nil
			}
			return err
		}

		items, err := q.ListCartItems(ctx, guestCart.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if _, err := q.UpsertCartItem(ctx, userCart.ID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if err := q.DeleteCart(ctx, guestCart.ID); err != nil {
			return err
		}
		if err := q.TouchCart(ctx, userCart.ID); err != nil {
			return err
		}

		result.LinesMerged = len(items)
		result.Merged = true
		return nil
	})
	if err != nil {
		return nil, mapCartError(err, op, "failed to merge guest cart")
	}

	s.metrics.CartMerged(result.Merged)
	if !result.Merged {
		return result, nil
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID.String()).
		Str("cart_id", userCart.ID.String()).
		Int("lines_merged", result.LinesMerged).
		Msg("guest cart merged")

	publish(ctx, s.events, events.SubjectCartMerged, events.CartMerged{
		UserID:         userID,
		GuestSessionID: guestSessionID,
		CartID:         userCart.ID,
		LinesMerged:    result.LinesMerged,
		At:             s.now(),
	})
	s.publishCartUpdated(ctx, owner, userCart.ID)
	return result, nil
}
