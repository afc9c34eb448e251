package port

import (
	"context"

	"web-larek/internal/core/domain"
)

// SessionStorePort хранит AppState между запросами.
// Неизвестная сессия - это пустое состояние, а не ошибка.
type SessionStorePort interface {
	Load(ctx context.Context, sessionID string) (*domain.AppState, error)
	Save(ctx context.Context, sessionID string, state *domain.AppState) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionLockerPort - блокировка сессии, общая для всех экземпляров сервиса.
// Хранилище, которое ее реализует, защищает сессию и от соседних реплик.
type SessionLockerPort interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}
