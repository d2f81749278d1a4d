package postgres

import (
	"context"
	"strings"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// =============================================================================
// PRODUCTS
// =============================================================================

const productColumns = `id, name, slug, description, image_url, category_id, price_cents, stock, published, created_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.ImageURL, &p.CategoryID,
		&p.PriceCents, &p.Stock, &p.Published, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) getProduct(ctx context.Context, op, where string, args ...any) (*domain.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to get product")
	}
	return p, nil
}

// GetProduct returns a product by ID regardless of publication.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return q.getProduct(ctx, "product.get", `id = $1`, id)
}

// GetProductBySlug returns a product by its exact slug.
func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return q.getProduct(ctx, "product.get_by_slug", `slug = $1`, slug)
}

// SearchProduct returns the newest published product whose slug or name
// contains term, case-insensitively.
func (q *Queries) SearchProduct(ctx context.Context, term string) (*domain.Product, error) {
	pattern := "%" + escapeLike(term) + "%"
	return q.getProduct(ctx, "product.search", `
		published AND (slug ILIKE $1 OR name ILIKE $1)
		ORDER BY created_at DESC, slug
		LIMIT 1`,
		pattern,
	)
}

// ListProducts returns published products, newest first.
func (q *Queries) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE published AND ($1::uuid IS NULL OR category_id = $1)
		ORDER BY created_at DESC, slug`,
		filter.CategoryID,
	)
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to list products")
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		p, err := scanProduct(row)
		if err != nil {
			return domain.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to scan products")
	}
	return products, nil
}

// DecrementStock subtracts quantity from a product's stock. With
// requireAvailable the update only applies when enough stock remains.
func (q *Queries) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32, requireAvailable bool) error {
	query := `UPDATE products SET stock = stock - $2 WHERE id = $1`
	if requireAvailable {
		query += ` AND stock >= $2`
	}

	tag, err := q.db.Exec(ctx, query, productID, quantity)
	if err != nil {
		return domain.Internal(err, "product.decrement_stock", "failed to update stock")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either the product is gone or stock ran short.
	if _, err := q.GetProduct(ctx, productID); err != nil {
		return err
	}
	return domain.ErrStockExceeded
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
