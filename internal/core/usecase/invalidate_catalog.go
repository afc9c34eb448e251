package usecase

import (
	"context"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/port"
)

type InvalidateCatalogUseCase struct {
	cache port.CatalogCachePort
}

func NewInvalidateCatalogUseCase(cache port.CatalogCachePort) *InvalidateCatalogUseCase {
	return &InvalidateCatalogUseCase{cache: cache}
}

// Execute сбрасывает кэш каталога целиком, productIDs попадают только в лог.
func (uc *InvalidateCatalogUseCase) Execute(ctx context.Context, productIDs []string) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "InvalidateCatalog",
		"products": len(productIDs),
	})

	if err := uc.cache.Invalidate(ctx); err != nil {
		ucLogger.Error("Failed to invalidate catalog cache", err, nil)
		return err
	}
	ucLogger.Info("Catalog cache invalidated", nil)
	return nil
}
