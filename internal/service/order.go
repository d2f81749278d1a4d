package service

import (
	"context"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/google/uuid"
)

// OrderService provides read access to placed orders.
type OrderService interface {
	// GetOrder retrieves a single order with its lines and address.
	// Only the user who placed the order can read it; anyone else gets ErrOrderNotFound.
	GetOrder(ctx context.Context, owner domain.Identity, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	store Querier
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(store Querier) OrderService {
	return &orderService{store: store}
}

func (s *orderService) GetOrder(ctx context.Context, owner domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.get"

	userID, ok := owner.UserID()
	if !ok {
		return nil, ErrOrderNotFound
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load order")
	}

	// Hide other customers' orders behind the same not-found answer.
	if order.UserID == nil || *order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
