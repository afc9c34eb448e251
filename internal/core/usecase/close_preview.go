package usecase

import (
	"context"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type ClosePreviewUseCase struct {
	scope *SessionScope
	views port.Views
}

func NewClosePreviewUseCase(scope *SessionScope, views port.Views) *ClosePreviewUseCase {
	return &ClosePreviewUseCase{scope: scope, views: views}
}

// Execute закрывает модальное окно. Закрытие уже закрытого окна - не ошибка.
func (uc *ClosePreviewUseCase) Execute(ctx context.Context, sessionID string) error {
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		state.ClearPreview()
		modal := uc.views.Modal(uc.views.NewContainer(modalContainerID), bus)
		return modal.Close()
	})
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to close preview", err, port.Fields{"session_id": sessionID})
	}
	return err
}
