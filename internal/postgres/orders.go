package postgres

import (
	"context"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// =============================================================================
// ORDERS
// =============================================================================

// CreateAddress inserts a shipping address and fills in ID and CreatedAt.
func (q *Queries) CreateAddress(ctx context.Context, addr *domain.Address) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, first_name, last_name, street, city, state, zip_code, country, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		addr.UserID, addr.FirstName, addr.LastName, addr.Street, addr.City,
		addr.State, addr.ZipCode, addr.Country, addr.Phone,
	).Scan(&addr.ID, &addr.CreatedAt)
	if err != nil {
		return domain.Internal(err, "order.create_address", "failed to save address")
	}
	return nil
}

// CreateOrder inserts the order header and fills in ID and CreatedAt.
func (q *Queries) CreateOrder(ctx context.Context, order *domain.Order) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			user_id, guest_email, address_id, status, payment_status, payment_method,
			subtotal_cents, tax_cents, shipping_cents, total_cents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		order.UserID, order.GuestEmail, order.AddressID, order.Status, order.PaymentStatus,
		order.PaymentMethod, order.SubtotalCents, order.TaxCents, order.ShippingCents, order.TotalCents,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return domain.Internal(err, "order.create", "failed to create order")
	}
	return nil
}

// CreateOrderItem inserts one order line with its purchase-time price.
func (q *Queries) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.PriceCents,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err, "order_items_product_id_fkey") {
			return domain.ErrProductNotFound
		}
		return domain.Internal(err, "order.create_item", "failed to create order item")
	}
	return nil
}

// GetOrder returns an order with its address and lines.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var (
		o    domain.Order
		a    domain.Address
		guid uuid.NullUUID
	)
	err := q.db.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.guest_email, o.address_id, o.status, o.payment_status,
		       o.payment_method, o.subtotal_cents, o.tax_cents, o.shipping_cents,
		       o.total_cents, o.created_at,
		       a.id, a.user_id, a.first_name, a.last_name, a.street, a.city, a.state,
		       a.zip_code, a.country, a.phone, a.created_at
		FROM orders o
		JOIN addresses a ON a.id = o.address_id
		WHERE o.id = $1`,
		id,
	).Scan(
		&o.ID, &guid, &o.GuestEmail, &o.AddressID, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.SubtotalCents, &o.TaxCents, &o.ShippingCents,
		&o.TotalCents, &o.CreatedAt,
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Street, &a.City, &a.State,
		&a.ZipCode, &a.Country, &a.Phone, &a.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "failed to get order")
	}
	if guid.Valid {
		o.UserID = &guid.UUID
	}
	o.Address = a

	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id`,
		id,
	)
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to list order items")
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceCents)
		return it, err
	})
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to scan order items")
	}
	return &o, nil
}
