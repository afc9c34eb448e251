package usecases_port

import (
	"context"

	"web-larek/internal/core/domain"
)

type GetStateUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.AppState, error)
}

// GetModalUseCasePort отрисовывает модальное окно по текущему превью.
type GetModalUseCasePort interface {
	Execute(ctx context.Context, sessionID string) (*domain.ModalView, error)
}
