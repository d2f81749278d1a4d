package postgres

import (
	"context"
	"time"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// =============================================================================
// CARTS
// =============================================================================

const cartColumns = `id, user_id, session_id, created_at, updated_at`

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var (
		c         domain.Cart
		userID    uuid.NullUUID
		sessionID uuid.NullUUID
	)
	if err := row.Scan(&c.ID, &userID, &sessionID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		c.Owner = domain.UserIdentity(userID.UUID)
	} else {
		c.Owner = domain.GuestIdentity(sessionID.UUID)
	}
	return &c, nil
}

// ownerColumns splits an identity into the (user_id, session_id) pair.
func ownerColumns(owner domain.Identity) (uuid.NullUUID, uuid.NullUUID) {
	if userID, ok := owner.UserID(); ok {
		return uuid.NullUUID{UUID: userID, Valid: true}, uuid.NullUUID{}
	}
	sessionID, _ := owner.GuestSessionID()
	return uuid.NullUUID{}, uuid.NullUUID{UUID: sessionID, Valid: true}
}

// GetCartByOwner returns the cart header for an identity without its items.
func (q *Queries) GetCartByOwner(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT ` + cartColumns + ` FROM carts WHERE session_id = $1`
	if owner.IsUser() {
		query = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1`
	}

	cart, err := scanCart(q.db.QueryRow(ctx, query, owner.ID()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.Internal(err, "cart.get_by_owner", "failed to get cart")
	}
	return cart, nil
}

// CreateCart inserts a cart. A concurrent insert for the same owner loses on
// the unique constraint and gets ErrDuplicateCart.
func (q *Queries) CreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	userID, sessionID := ownerColumns(owner)

	cart, err := scanCart(q.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, session_id)
		VALUES ($1, $2)
		RETURNING `+cartColumns,
		userID, sessionID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCart
		}
		if isCheckViolation(err) {
			return nil, domain.Invalid("cart.create", "cart must have exactly one owner")
		}
		return nil, domain.Internal(err, "cart.create", "failed to create cart")
	}
	return cart, nil
}

// LockCart takes a row lock on the cart for the rest of the transaction.
func (q *Queries) LockCart(ctx context.Context, cartID uuid.UUID) error {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrCartNotFound
		}
		return domain.Internal(err, "cart.lock", "failed to lock cart")
	}
	return nil
}

// TouchCart bumps updated_at.
func (q *Queries) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return domain.Internal(err, "cart.touch", "failed to update cart")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

// DeleteCart removes a cart; its items go with it via ON DELETE CASCADE.
func (q *Queries) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return domain.Internal(err, "cart.delete", "failed to delete cart")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

// DeleteStaleGuestCarts deletes up to limit guest carts untouched since updatedBefore,
// oldest first.
func (q *Queries) DeleteStaleGuestCarts(ctx context.Context, updatedBefore time.Time, limit int) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM carts
		WHERE id IN (
			SELECT id FROM carts
			WHERE session_id IS NOT NULL AND updated_at < $1
			ORDER BY updated_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`,
		updatedBefore, limit,
	)
	if err != nil {
		return 0, domain.Internal(err, "cart.sweep_guests", "failed to delete stale guest carts")
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// CART ITEMS
// =============================================================================

// cartItemSelect joins each line with the live product row.
const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
	       p.name, p.slug, p.image_url, p.price_cents, p.stock, p.published
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt,
		&it.Product.Name, &it.Product.Slug, &it.Product.ImageURL,
		&it.Product.PriceCents, &it.Product.Stock, &it.Product.Published,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListCartItems returns the lines of a cart in insertion order.
func (q *Queries) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := q.db.Query(ctx, cartItemSelect+`
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id`,
		cartID,
	)
	if err != nil {
		return nil, domain.Internal(err, "cart.list_items", "failed to list cart items")
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CartItem, error) {
		it, err := scanCartItem(row)
		if err != nil {
			return domain.CartItem{}, err
		}
		return *it, nil
	})
	if err != nil {
		return nil, domain.Internal(err, "cart.list_items", "failed to scan cart items")
	}
	return items, nil
}

// GetCartItem returns a line only if it belongs to cartID.
func (q *Queries) GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	it, err := scanCartItem(q.db.QueryRow(ctx, cartItemSelect+`
		WHERE ci.id = $1 AND ci.cart_id = $2`,
		itemID, cartID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, domain.Internal(err, "cart.get_item", "failed to get cart item")
	}
	return it, nil
}

// UpsertCartItem inserts a line or adds quantity to the existing one in a
// single statement, so concurrent adds never lose an increment.
func (q *Queries) UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	it, err := scanCartItem(q.db.QueryRow(ctx, `
		WITH upserted AS (
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, cart_id, product_id, quantity, created_at
		)
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
		       p.name, p.slug, p.image_url, p.price_cents, p.stock, p.published
		FROM upserted ci
		JOIN products p ON p.id = ci.product_id`,
		cartID, productID, quantity,
	))
	if err != nil {
		switch {
		case isForeignKeyViolation(err, "cart_items_product_id_fkey"):
			return nil, domain.ErrProductNotFound
		case isForeignKeyViolation(err, "cart_items_cart_id_fkey"):
			return nil, domain.ErrCartNotFound
		case isCheckViolation(err), isNumericOutOfRange(err):
			// quantity is int4; a summed line past its range overflows
			return nil, domain.ErrInvalidQuantity
		}
		return nil, domain.Internal(err, "cart.upsert_item", "failed to add cart item")
	}
	return it, nil
}

// SetCartItemQuantity overwrites the quantity of a line in cartID.
func (q *Queries) SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	it, err := scanCartItem(q.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE cart_items SET quantity = $3
			WHERE id = $1 AND cart_id = $2
			RETURNING id, cart_id, product_id, quantity, created_at
		)
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
		       p.name, p.slug, p.image_url, p.price_cents, p.stock, p.published
		FROM updated ci
		JOIN products p ON p.id = ci.product_id`,
		itemID, cartID, quantity,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCartItemNotFound
		}
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, domain.Internal(err, "cart.set_quantity", "failed to update cart item")
	}
	return it, nil
}

// DeleteCartItem removes one line of cartID.
func (q *Queries) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return domain.Internal(err, "cart.delete_item", "failed to delete cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// DeleteCartItems empties a cart and returns how many lines were removed.
func (q *Queries) DeleteCartItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return tag.RowsAffected(), nil
}
