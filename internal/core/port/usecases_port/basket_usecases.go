package usecases_port

import (
	"context"

	"web-larek/internal/core/domain"
)

type AddToBasketUseCasePort interface {
	Execute(ctx context.Context, sessionID, productID string) (*domain.BasketChangedPayload, error)
}

type RemoveFromBasketUseCasePort interface {
	Execute(ctx context.Context, sessionID, productID string) (*domain.BasketChangedPayload, error)
}

type UpdateBasketItemUseCasePort interface {
	Execute(ctx context.Context, sessionID, productID string, quantity int) (*domain.BasketChangedPayload, error)
}

type ClearBasketUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.BasketChangedPayload, error)
}

// OpenBasketUseCasePort возвращает корзину с отрисованным фрагментом (basket:open).
type OpenBasketUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.BasketView, error)
}

// GetBasketUseCasePort возвращает корзину без побочных эффектов.
type GetBasketUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.BasketView, error)
}
