package service

import (
	"context"
	"strings"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
)

// ProductService provides catalog reads for the storefront
type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProductDetail(ctx context.Context, slug string) (*domain.Product, error)

	// ResolveProductID turns a client-supplied reference into a product ID.
	// A UUID is returned as-is; otherwise the reference is tried as an exact slug,
	// then as a case-insensitive match within published product slugs and names.
	ResolveProductID(ctx context.Context, ref string) (uuid.UUID, error)
}

type productService struct {
	repo Querier
}

// NewProductService creates a new ProductService instance
func NewProductService(repo Querier) ProductService {
	return &productService{repo: repo}
}

// ListProducts returns published products, newest first
func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "product.list", "failed to list products")
	}
	return products, nil
}

// GetProductDetail retrieves a published product by slug
func (s *productService) GetProductDetail(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrProductNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "product.get", "failed to load product")
	}
	if !product.Published {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ResolveProductID(ctx context.Context, ref string) (uuid.UUID, error) {
	const op = "product.resolve"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, domain.NewValidationError(op, "productId", "productId is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	product, err := s.repo.GetProductBySlug(ctx, ref)
	if err == nil {
		return product.ID, nil
	}
	if !domain.IsCode(err, domain.ENOTFOUND) {
		return uuid.Nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to look up product")
	}

	product, err = s.repo.SearchProduct(ctx, ref)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return uuid.Nil, ErrProductNotFound
		}
		return uuid.Nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to search products")
	}
	return product.ID, nil
}
