package usecases_port

import (
	"context"

	"web-larek/internal/core/domain"
)

type StartOrderUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.OrderFormData, error)
}

// UpdateOrderFormUseCasePort сохраняет форму и возвращает результат проверки (form:validate).
type UpdateOrderFormUseCasePort interface {
	Execute(ctx context.Context, sessionID string, form domain.OrderFormData) (*domain.FormValidationPayload, error)
}

type SubmitOrderUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.OrderResult, error)
}

type GetOrdersUseCasePort interface {
	Execute(ctx context.Context, sessionID string, limit, offset int) (*domain.PaginatedOrders, error)
}
