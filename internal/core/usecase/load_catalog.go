package usecase

import (
	"context"
	"fmt"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type LoadCatalogUseCase struct {
	scope  *SessionScope
	source port.CatalogSourcePort
	cache  port.CatalogCachePort
}

func NewLoadCatalogUseCase(scope *SessionScope, source port.CatalogSourcePort, cache port.CatalogCachePort) *LoadCatalogUseCase {
	return &LoadCatalogUseCase{scope: scope, source: source, cache: cache}
}

// Execute берет каталог из кэша или из магазина и кладет его в состояние сессии.
func (uc *LoadCatalogUseCase) Execute(ctx context.Context, sessionID string) ([]domain.Product, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "LoadCatalog",
		"session_id": sessionID,
	})

	products, fromCache, err := uc.fetch(ctx, ucLogger)
	if err != nil {
		ucLogger.Error("Failed to load catalog", err, nil)
		return nil, err
	}

	state, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		state.SetCatalog(products)
		return bus.Emit(domain.EventCatalogLoaded, domain.CatalogLoadedPayload{Count: len(products), FromCache: fromCache})
	})
	if err != nil {
		return nil, err
	}

	ucLogger.Info("Catalog loaded", port.Fields{"count": len(products), "from_cache": fromCache})
	return state.Catalog, nil
}

func (uc *LoadCatalogUseCase) fetch(ctx context.Context, logger port.LoggerPort) ([]domain.ProductServer, bool, error) {
	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx)
		if err != nil {
			// Кэш недоступен - идем в магазин напрямую
			logger.Warn("Catalog cache read failed", port.Fields{"error": err.Error()})
		} else if ok {
			return cached, true, nil
		}
	}

	products, err := uc.source.GetProducts(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, products); err != nil {
			logger.Warn("Catalog cache write failed", port.Fields{"error": err.Error()})
		}
	}
	return products, false, nil
}
