package usecases_port

import (
	"context"

	"web-larek/internal/core/domain"
)

type LoadCatalogUseCasePort interface {
	Execute(ctx context.Context, sessionID string) ([]domain.Product, error)
}

// SelectProductUseCasePort открывает превью товара (card:click).
type SelectProductUseCasePort interface {
	Execute(ctx context.Context, sessionID, productID string) (*domain.PreviewView, error)
}

type ClosePreviewUseCasePort interface {
	Execute(ctx context.Context, sessionID string) error
}

// InvalidateCatalogUseCasePort вызывается по сообщению catalog.updated.
type InvalidateCatalogUseCasePort interface {
	Execute(ctx context.Context, productIDs []string) error
}
