package port

import (
	"context"

	"web-larek/internal/core/domain"
)

// CatalogSourcePort - контракт для клиента магазина.
type CatalogSourcePort interface {
	GetProducts(ctx context.Context) ([]domain.ProductServer, error)
	GetProduct(ctx context.Context, id string) (*domain.ProductServer, error)
	PostOrder(ctx context.Context, order domain.OrderServer) (*domain.OrderResult, error)
}

// CatalogCachePort - кэш каталога. Get возвращает ok=false при промахе.
type CatalogCachePort interface {
	Get(ctx context.Context) ([]domain.ProductServer, bool, error)
	Set(ctx context.Context, products []domain.ProductServer) error
	Invalidate(ctx context.Context) error
}
