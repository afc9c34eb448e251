package port

import (
	"context"

	"web-larek/internal/core/domain"
)

// OrderRepositoryPort - контракт для адаптера, хранящего оформленные заказы.
type OrderRepositoryPort interface {
	Save(ctx context.Context, order *domain.PlacedOrder) error
	// FindByID возвращает domain.ErrOrderNotFound, если заказа нет.
	FindByID(ctx context.Context, id string) (*domain.PlacedOrder, error)
	FindBySession(ctx context.Context, sessionID string, limit, offset int) (*domain.PaginatedOrders, error)
}
