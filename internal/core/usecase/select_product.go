package usecase

import (
	"context"
	"errors"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

const (
	previewContainerID = "card-preview"
	modalContainerID   = "modal-container"
	basketContainerID  = "basket"
)

type SelectProductUseCase struct {
	scope  *SessionScope
	source port.CatalogSourcePort
	views  port.Views
}

func NewSelectProductUseCase(scope *SessionScope, source port.CatalogSourcePort, views port.Views) *SelectProductUseCase {
	return &SelectProductUseCase{scope: scope, source: source, views: views}
}

// Execute открывает превью. Товар, которого нет в каталоге сессии (прямая
// ссылка до загрузки каталога), запрашивается у магазина и добавляется в каталог.
func (uc *SelectProductUseCase) Execute(ctx context.Context, sessionID, productID string) (*domain.PreviewView, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "SelectProduct",
		"session_id": sessionID,
		"product_id": productID,
	})

	var view domain.PreviewView
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		product, ok := state.FindProduct(productID)
		if !ok {
			fetched, err := uc.source.GetProduct(ctx, productID)
			if err != nil {
				return err
			}
			product = domain.NewProduct(*fetched)
			state.Catalog = append(state.Catalog, product)
			state.SyncSelection()
			product, _ = state.FindProduct(productID)
		}
		if err := state.SetPreview(productID); err != nil {
			return err
		}
		if err := bus.Emit(domain.EventCardClick, domain.PreviewPayload{ProductID: productID}); err != nil {
			return err
		}

		html, err := renderPreviewModal(uc.views, product, bus)
		if err != nil {
			return err
		}
		view = domain.PreviewView{Product: product, ModalHTML: html}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			ucLogger.Error("Failed to open preview", err, nil)
		}
		return nil, err
	}

	ucLogger.Debug("Preview opened", nil)
	return &view, nil
}

// renderPreviewModal рисует карточку и открывает с ней модальное окно.
// bus == nil: только отрисовка, без modal:open.
func renderPreviewModal(views port.Views, product domain.Product, bus port.EventsPort) (string, error) {
	cardContainer := views.NewContainer(previewContainerID)
	card := views.Card(cardContainer, product)
	defer card.Destroy()
	if err := card.Render(); err != nil {
		return "", err
	}

	modalContainer := views.NewContainer(modalContainerID)
	modal := views.Modal(modalContainer, bus)
	if err := modal.Open(cardContainer.HTML()); err != nil {
		return "", err
	}
	return modalContainer.HTML(), nil
}
