package port

import (
	"context"

	"web-larek/internal/core/domain"
)

// OrderEventsPort публикует факт оформления заказа.
type OrderEventsPort interface {
	PublishOrderCreated(ctx context.Context, order *domain.PlacedOrder) error
}
