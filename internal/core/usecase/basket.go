package usecase

import (
	"context"
	"errors"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/basket"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

// mutateBasket применяет изменение к корзине сессии и возвращает ее снимок.
func mutateBasket(ctx context.Context, scope *SessionScope, sessionID string, fn func(state *domain.AppState, svc *basket.Service, bus port.EventsPort) error) (*domain.BasketChangedPayload, error) {
	var snapshot domain.BasketChangedPayload
	_, err := scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		svc := basket.NewService(state.Basket, bus)
		if err := fn(state, svc, bus); err != nil {
			return err
		}
		state.Basket = svc.GetItems()
		state.SyncSelection()
		snapshot = svc.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// isClientError - ошибки, которые вызваны запросом, а не сбоем; их не логируем как Error.
func isClientError(err error) bool {
	var validation *domain.ValidationError
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrProductNotForSale) ||
		errors.Is(err, domain.ErrBasketItemNotFound) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrBasketEmpty) ||
		errors.Is(err, domain.ErrOrderNotStarted) ||
		errors.Is(err, domain.ErrInvalidPayment) ||
		errors.As(err, &validation)
}

func logResult(logger port.LoggerPort, err error, msg string) {
	if err == nil {
		logger.Info("Use case finished successfully", nil)
		return
	}
	if isClientError(err) {
		logger.Warn(msg, port.Fields{"error": err.Error()})
		return
	}
	logger.Error(msg, err, nil)
}

type AddToBasketUseCase struct {
	scope *SessionScope
}

func NewAddToBasketUseCase(scope *SessionScope) *AddToBasketUseCase {
	return &AddToBasketUseCase{scope: scope}
}

// Execute кладет товар из каталога сессии в корзину (повторно - +1 штука).
func (uc *AddToBasketUseCase) Execute(ctx context.Context, sessionID, productID string) (*domain.BasketChangedPayload, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "AddToBasket",
		"session_id": sessionID,
		"product_id": productID,
	})
	ucLogger.Info("Use case started", nil)

	snapshot, err := mutateBasket(ctx, uc.scope, sessionID, func(state *domain.AppState, svc *basket.Service, bus port.EventsPort) error {
		product, ok := state.FindProduct(productID)
		if !ok {
			return domain.ErrProductNotFound
		}
		if err := bus.Emit(domain.EventCardAdd, domain.BasketItemPayload{ProductID: productID}); err != nil {
			return err
		}
		return svc.Add(product)
	})
	logResult(ucLogger, err, "Failed to add product to basket")
	return snapshot, err
}

type RemoveFromBasketUseCase struct {
	scope *SessionScope
}

func NewRemoveFromBasketUseCase(scope *SessionScope) *RemoveFromBasketUseCase {
	return &RemoveFromBasketUseCase{scope: scope}
}

func (uc *RemoveFromBasketUseCase) Execute(ctx context.Context, sessionID, productID string) (*domain.BasketChangedPayload, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "RemoveFromBasket",
		"session_id": sessionID,
		"product_id": productID,
	})
	ucLogger.Info("Use case started", nil)

	snapshot, err := mutateBasket(ctx, uc.scope, sessionID, func(state *domain.AppState, svc *basket.Service, bus port.EventsPort) error {
		if err := bus.Emit(domain.EventBasketItemRemove, domain.BasketItemPayload{ProductID: productID}); err != nil {
			return err
		}
		return svc.Remove(productID)
	})
	logResult(ucLogger, err, "Failed to remove product from basket")
	return snapshot, err
}

type UpdateBasketItemUseCase struct {
	scope *SessionScope
}

func NewUpdateBasketItemUseCase(scope *SessionScope) *UpdateBasketItemUseCase {
	return &UpdateBasketItemUseCase{scope: scope}
}

// Execute выставляет количество позиции; quantity < 1 отклоняется.
func (uc *UpdateBasketItemUseCase) Execute(ctx context.Context, sessionID, productID string, quantity int) (*domain.BasketChangedPayload, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "UpdateBasketItem",
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	})
	ucLogger.Info("Use case started", nil)

	snapshot, err := mutateBasket(ctx, uc.scope, sessionID, func(state *domain.AppState, svc *basket.Service, bus port.EventsPort) error {
		if err := bus.Emit(domain.EventBasketItemUpdate, domain.BasketItemPayload{ProductID: productID, Quantity: quantity}); err != nil {
			return err
		}
		return svc.Update(productID, quantity)
	})
	logResult(ucLogger, err, "Failed to update basket item")
	return snapshot, err
}

type ClearBasketUseCase struct {
	scope *SessionScope
}

func NewClearBasketUseCase(scope *SessionScope) *ClearBasketUseCase {
	return &ClearBasketUseCase{scope: scope}
}

func (uc *ClearBasketUseCase) Execute(ctx context.Context, sessionID string) (*domain.BasketChangedPayload, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "ClearBasket",
		"session_id": sessionID,
	})
	ucLogger.Info("Use case started", nil)

	snapshot, err := mutateBasket(ctx, uc.scope, sessionID, func(state *domain.AppState, svc *basket.Service, bus port.EventsPort) error {
		svc.Clear()
		return nil
	})
	logResult(ucLogger, err, "Failed to clear basket")
	return snapshot, err
}

type OpenBasketUseCase struct {
	scope *SessionScope
	views port.Views
}

func NewOpenBasketUseCase(scope *SessionScope, views port.Views) *OpenBasketUseCase {
	return &OpenBasketUseCase{scope: scope, views: views}
}

// Execute отрисовывает корзину в модальном окне. Превью при этом закрывается:
// окно одно, и теперь в нем корзина.
func (uc *OpenBasketUseCase) Execute(ctx context.Context, sessionID string) (*domain.BasketView, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "OpenBasket",
		"session_id": sessionID,
	})

	var view domain.BasketView
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		state.ClearPreview()
		if err := bus.Emit(domain.EventBasketOpen, nil); err != nil {
			return err
		}

		fragment, err := basketView(uc.views, state.Basket)
		if err != nil {
			return err
		}
		modalContainer := uc.views.NewContainer(modalContainerID)
		if err := uc.views.Modal(modalContainer, bus).Open(fragment.HTML); err != nil {
			return err
		}
		fragment.HTML = modalContainer.HTML()
		view = *fragment
		return nil
	})
	if err != nil {
		ucLogger.Error("Failed to open basket", err, nil)
		return nil, err
	}
	return &view, nil
}

// GetBasketUseCase читает корзину, не трогая модальное окно и не отправляя событий.
type GetBasketUseCase struct {
	scope *SessionScope
	views port.Views
}

func NewGetBasketUseCase(scope *SessionScope, views port.Views) *GetBasketUseCase {
	return &GetBasketUseCase{scope: scope, views: views}
}

func (uc *GetBasketUseCase) Execute(ctx context.Context, sessionID string) (*domain.BasketView, error) {
	state, err := uc.scope.Load(ctx, sessionID)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to load basket", err, port.Fields{"use_case": "GetBasket"})
		return nil, err
	}
	return basketView(uc.views, state.Basket)
}

// basketView считает итоги и отрисовывает фрагмент корзины (без модального окна).
func basketView(views port.Views, items []domain.BasketItem) (*domain.BasketView, error) {
	svc := basket.NewService(items, nil)
	container := views.NewContainer(basketContainerID)
	component := views.Basket(container, svc.GetItems())
	defer component.Destroy()
	if err := component.Render(); err != nil {
		return nil, err
	}
	return &domain.BasketView{
		Items: svc.GetItems(),
		Count: svc.Count(),
		Total: svc.GetTotal(),
		HTML:  container.HTML(),
	}, nil
}
