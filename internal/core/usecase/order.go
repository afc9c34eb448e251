package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/basket"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type StartOrderUseCase struct {
	scope *SessionScope
}

func NewStartOrderUseCase(scope *SessionScope) *StartOrderUseCase {
	return &StartOrderUseCase{scope: scope}
}

// Execute начинает оформление с оплатой картой по умолчанию.
// Уже начатая форма не сбрасывается.
func (uc *StartOrderUseCase) Execute(ctx context.Context, sessionID string) (*domain.OrderFormData, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "StartOrder",
		"session_id": sessionID,
	})
	ucLogger.Info("Use case started", nil)

	var form domain.OrderFormData
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		if len(state.Basket) == 0 {
			return domain.ErrBasketEmpty
		}
		if state.Order == nil {
			state.Order = &domain.OrderFormData{Payment: domain.PaymentCard}
		}
		if state.CheckoutID == "" {
			state.CheckoutID = uuid.NewString()
		}
		state.ClearPreview()
		form = *state.Order
		return bus.Emit(domain.EventOrderStart, form)
	})
	logResult(ucLogger, err, "Failed to start order")
	if err != nil {
		return nil, err
	}
	return &form, nil
}

type UpdateOrderFormUseCase struct {
	scope *SessionScope
}

func NewUpdateOrderFormUseCase(scope *SessionScope) *UpdateOrderFormUseCase {
	return &UpdateOrderFormUseCase{scope: scope}
}

// Execute сохраняет форму целиком и возвращает результат проверки.
// Невалидная форма - не ошибка: она сохраняется, ошибки уходят в form:validate.
func (uc *UpdateOrderFormUseCase) Execute(ctx context.Context, sessionID string, form domain.OrderFormData) (*domain.FormValidationPayload, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "UpdateOrderForm",
		"session_id": sessionID,
	})

	var result domain.FormValidationPayload
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		if state.Order == nil {
			return domain.ErrOrderNotStarted
		}
		state.Order = &form
		result = validateForm(form)
		return bus.Emit(domain.EventFormValidate, result)
	})
	if err != nil {
		logResult(ucLogger, err, "Failed to update order form")
		return nil, err
	}
	ucLogger.Debug("Order form updated", port.Fields{"valid": result.Valid})
	return &result, nil
}

func validateForm(form domain.OrderFormData) domain.FormValidationPayload {
	err := form.Validate()
	if err == nil {
		return domain.FormValidationPayload{Valid: true}
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return domain.FormValidationPayload{Valid: false, Errors: validation.Fields}
	}
	return domain.FormValidationPayload{Valid: false, Errors: map[string]string{"form": err.Error()}}
}

type SubmitOrderUseCase struct {
	scope     *SessionScope
	source    port.CatalogSourcePort
	repo      port.OrderRepositoryPort
	publisher port.OrderEventsPort
}

// NewSubmitOrderUseCase: publisher может быть nil, если брокер выключен.
func NewSubmitOrderUseCase(scope *SessionScope, source port.CatalogSourcePort, repo port.OrderRepositoryPort, publisher port.OrderEventsPort) *SubmitOrderUseCase {
	return &SubmitOrderUseCase{scope: scope, source: source, repo: repo, publisher: publisher}
}

// Execute отправляет заказ в магазин. После подтверждения заказ сохраняется
// в историю и публикуется в брокер; сбои этих шагов логируются, но заказ
// уже оформлен, поэтому корзина и форма все равно сбрасываются.
//
// Невалидная форма возвращается как *domain.ValidationError, а подписчики
// получают form:validate. Заказ, уже записанный в историю под CheckoutID
// сессии, повторно в магазин не отправляется.
func (uc *SubmitOrderUseCase) Execute(ctx context.Context, sessionID string) (*domain.OrderResult, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "SubmitOrder",
		"session_id": sessionID,
	})
	ucLogger.Info("Use case started", nil)

	var (
		result  domain.OrderResult
		invalid error
	)
	_, err := uc.scope.Mutate(ctx, sessionID, func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error {
		if state.Order == nil {
			return domain.ErrOrderNotStarted
		}
		order, err := domain.NewOrderServer(*state.Order, state.Basket)
		if err != nil {
			validation := new(domain.ValidationError)
			if !errors.As(err, &validation) {
				return err
			}
			// состояние не меняется, но form:validate должен дойти до клиента
			invalid = err
			return bus.Emit(domain.EventFormValidate, domain.FormValidationPayload{Valid: false, Errors: validation.Fields})
		}
		if state.CheckoutID == "" {
			state.CheckoutID = uuid.NewString()
		}

		if existing := uc.findPlaced(ctx, ucLogger, state.CheckoutID); existing != nil {
			ucLogger.Warn("Order was already placed, skipping upstream call", port.Fields{
				"order_id":    existing.ID,
				"upstream_id": existing.UpstreamID,
			})
			result = domain.OrderResult{ID: existing.UpstreamID, Total: existing.Order.Total}
		} else {
			if err := bus.Emit(domain.EventFormSubmit, order); err != nil {
				return err
			}
			placed, err := uc.source.PostOrder(ctx, order)
			if err != nil {
				return err
			}
			result = *placed
			uc.record(ctx, ucLogger, sessionID, state.CheckoutID, placed.ID, order, state.Basket)
		}
		// заказ уже есть в магазине: дальше сбой сохранения сессии не ошибка
		markCommitted(bus)

		svc := basket.NewService(state.Basket, bus)
		svc.Clear()
		state.ResetOrder()
		return bus.Emit(domain.EventOrderSuccess, result)
	})
	if err == nil && invalid != nil {
		err = invalid
	}
	logResult(ucLogger, err, "Failed to submit order")
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// findPlaced ищет заказ в истории; ошибка хранилища не блокирует оформление.
func (uc *SubmitOrderUseCase) findPlaced(ctx context.Context, logger port.LoggerPort, checkoutID string) *domain.PlacedOrder {
	if uc.repo == nil {
		return nil
	}
	existing, err := uc.repo.FindByID(ctx, checkoutID)
	if err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			logger.Warn("Failed to look up placed order", port.Fields{"order_id": checkoutID, "error": err.Error()})
		}
		return nil
	}
	return existing
}

func (uc *SubmitOrderUseCase) record(ctx context.Context, logger port.LoggerPort, sessionID, orderID, upstreamID string, order domain.OrderServer, items []domain.BasketItem) {
	placed := &domain.PlacedOrder{
		ID:         orderID,
		SessionID:  sessionID,
		UpstreamID: upstreamID,
		Order:      order,
		Lines:      domain.NewOrderLines(items),
		CreatedAt:  time.Now().UTC(),
	}
	orderLogger := logger.WithFields(port.Fields{"order_id": placed.ID, "upstream_id": upstreamID})

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, placed); err != nil {
			orderLogger.Error("Failed to save placed order", err, nil)
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderCreated(ctx, placed); err != nil {
			orderLogger.Error("Failed to publish order created event", err, nil)
		}
	}
	orderLogger.Info("Order placed", port.Fields{"total": order.Total})
}

const (
	defaultOrdersPageSize = 20
	maxOrdersPageSize     = 100
)

type GetOrdersUseCase struct {
	repo port.OrderRepositoryPort
}

func NewGetOrdersUseCase(repo port.OrderRepositoryPort) *GetOrdersUseCase {
	return &GetOrdersUseCase{repo: repo}
}

func (uc *GetOrdersUseCase) Execute(ctx context.Context, sessionID string, limit, offset int) (*domain.PaginatedOrders, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "GetOrders",
		"session_id": sessionID,
	})

	if limit <= 0 {
		limit = defaultOrdersPageSize
	}
	if limit > maxOrdersPageSize {
		limit = maxOrdersPageSize
	}
	if offset < 0 {
		offset = 0
	}

	page, err := uc.repo.FindBySession(ctx, sessionID, limit, offset)
	if err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return nil, err
	}
	return page, nil
}
