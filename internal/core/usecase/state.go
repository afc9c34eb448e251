package usecase

import (
	"context"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type GetStateUseCase struct {
	scope *SessionScope
}

func NewGetStateUseCase(scope *SessionScope) *GetStateUseCase {
	return &GetStateUseCase{scope: scope}
}

func (uc *GetStateUseCase) Execute(ctx context.Context, sessionID string) (*domain.AppState, error) {
	state, err := uc.scope.Load(ctx, sessionID)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to load state", err, port.Fields{"session_id": sessionID})
		return nil, err
	}
	return state, nil
}

type GetModalUseCase struct {
	scope *SessionScope
	views port.Views
}

func NewGetModalUseCase(scope *SessionScope, views port.Views) *GetModalUseCase {
	return &GetModalUseCase{scope: scope, views: views}
}

// Execute перерисовывает модальное окно по состоянию сессии без событий.
func (uc *GetModalUseCase) Execute(ctx context.Context, sessionID string) (*domain.ModalView, error) {
	state, err := uc.scope.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if product, ok := state.PreviewProduct(); ok {
		html, err := renderPreviewModal(uc.views, product, nil)
		if err != nil {
			return nil, err
		}
		return &domain.ModalView{Open: true, HTML: html}, nil
	}

	container := uc.views.NewContainer(modalContainerID)
	if err := uc.views.Modal(container, nil).Render(); err != nil {
		return nil, err
	}
	return &domain.ModalView{Open: false, HTML: container.HTML()}, nil
}
