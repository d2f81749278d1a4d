package service

import (
	"context"
	"time"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
)

// Querier is the persistence surface the cart core needs.
// Implementations: postgres.Store (production) and memstore.Store (tests, local dev).
//
// Lookups return the domain not-found errors (ErrCartNotFound, ErrCartItemNotFound,
// ErrProductNotFound, ErrOrderNotFound). CreateCart returns ErrDuplicateCart when a
// cart already exists for the owner.
type Querier interface {
	// Carts
	GetCartByOwner(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	CreateCart(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	LockCart(ctx context.Context, cartID uuid.UUID) error
	TouchCart(ctx context.Context, cartID uuid.UUID) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	DeleteStaleGuestCarts(ctx context.Context, updatedBefore time.Time, limit int) (int64, error)

	// Cart items, joined with live product data
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error)
	GetCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error)
	UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.CartItem, error)
	SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int32) (*domain.CartItem, error)
	DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteCartItems(ctx context.Context, cartID uuid.UUID) (int64, error)

	// Products
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	SearchProduct(ctx context.Context, term string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32, requireAvailable bool) error

	// Orders
	CreateAddress(ctx context.Context, addr *domain.Address) error
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// Store is a Querier that can run a function inside one transaction.
// If fn returns an error every write it made is rolled back.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(q Querier) error) error
}
