package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"web-larek/internal/adapters/notifier"
	"web-larek/internal/contextkeys"
	"web-larek/internal/core/port"
	"web-larek/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
)

// UseCases - все сценарии витрины, которые обслуживает REST-слой.
type UseCases struct {
	LoadCatalog      usecases_port.LoadCatalogUseCasePort
	SelectProduct    usecases_port.SelectProductUseCasePort
	ClosePreview     usecases_port.ClosePreviewUseCasePort
	AddToBasket      usecases_port.AddToBasketUseCasePort
	RemoveFromBasket usecases_port.RemoveFromBasketUseCasePort
	UpdateBasketItem usecases_port.UpdateBasketItemUseCasePort
	ClearBasket      usecases_port.ClearBasketUseCasePort
	OpenBasket       usecases_port.OpenBasketUseCasePort
	GetBasket        usecases_port.GetBasketUseCasePort
	StartOrder       usecases_port.StartOrderUseCasePort
	UpdateOrderForm  usecases_port.UpdateOrderFormUseCasePort
	SubmitOrder      usecases_port.SubmitOrderUseCasePort
	GetOrders        usecases_port.GetOrdersUseCasePort
	GetState         usecases_port.GetStateUseCasePort
	GetModal         usecases_port.GetModalUseCasePort
}

// eventStream - то, что SSE-обработчику нужно от notifier.SSENotifier.
type eventStream interface {
	AddClient(sessionID string) notifier.ClientChannel
	RemoveClient(sessionID string, ch notifier.ClientChannel)
}

// HealthCheck проверяет одну внешнюю зависимость.
type HealthCheck func(ctx context.Context) error

type StorefrontHandler struct {
	uc        UseCases
	stream    eventStream
	keepAlive time.Duration
	checks    map[string]HealthCheck
}

func NewStorefrontHandler(uc UseCases, stream eventStream) *StorefrontHandler {
	return &StorefrontHandler{uc: uc, stream: stream, keepAlive: 15 * time.Second}
}

// WithHealthChecks подключает проверки зависимостей к GET /health.
func (h *StorefrontHandler) WithHealthChecks(checks map[string]HealthCheck) *StorefrontHandler {
	h.checks = checks
	return h
}

// GetCatalog обрабатывает GET /api/v1/catalog
func (h *StorefrontHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.uc.LoadCatalog.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, CatalogResponse{Total: len(products), Items: products})
}

// SelectProduct обрабатывает POST /api/v1/catalog/{productID}/preview
func (h *StorefrontHandler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	preview, err := h.uc.SelectProduct.Execute(ctx, contextkeys.SessionIDFromContext(ctx), chi.URLParam(r, "productID"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, preview)
}

// ClosePreview обрабатывает DELETE /api/v1/preview
func (h *StorefrontHandler) ClosePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.uc.ClosePreview.Execute(ctx, contextkeys.SessionIDFromContext(ctx)); err != nil {
		writeUseCaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBasket обрабатывает GET /api/v1/basket
func (h *StorefrontHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.uc.GetBasket.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

// OpenBasket обрабатывает POST /api/v1/basket/open: корзина в модальном окне
func (h *StorefrontHandler) OpenBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.uc.OpenBasket.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

// AddBasketItem обрабатывает POST /api/v1/basket/items
func (h *StorefrontHandler) AddBasketItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"handler": "AddBasketItem"})

	var req AddBasketItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		logger.Warn("Invalid request body for add basket item", nil)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot, err := h.uc.AddToBasket.Execute(ctx, contextkeys.SessionIDFromContext(ctx), req.ProductID)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, snapshot)
}

// UpdateBasketItem обрабатывает PATCH /api/v1/basket/items/{productID}
func (h *StorefrontHandler) UpdateBasketItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateBasketItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot, err := h.uc.UpdateBasketItem.Execute(ctx, contextkeys.SessionIDFromContext(ctx), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}

// RemoveBasketItem обрабатывает DELETE /api/v1/basket/items/{productID}
func (h *StorefrontHandler) RemoveBasketItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.uc.RemoveFromBasket.Execute(ctx, contextkeys.SessionIDFromContext(ctx), chi.URLParam(r, "productID"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}

// ClearBasket обрабатывает DELETE /api/v1/basket
func (h *StorefrontHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.uc.ClearBasket.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}

// StartOrder обрабатывает POST /api/v1/order
func (h *StorefrontHandler) StartOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := h.uc.StartOrder.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, form)
}

// UpdateOrderForm обрабатывает PUT /api/v1/order/form.
// Невалидная форма - это 200 с valid=false: форма сохраняется как есть.
func (h *StorefrontHandler) UpdateOrderForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OrderFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.uc.UpdateOrderForm.Execute(ctx, contextkeys.SessionIDFromContext(ctx), req.toDomain())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// SubmitOrder обрабатывает POST /api/v1/order/submit
func (h *StorefrontHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.uc.SubmitOrder.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, result)
}

// GetOrders обрабатывает GET /api/v1/orders?limit=&offset=
func (h *StorefrontHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := getIntQuery(r, "limit", 0)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := getIntQuery(r, "offset", 0)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	page, err := h.uc.GetOrders.Execute(ctx, contextkeys.SessionIDFromContext(ctx), limit, offset)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPaginatedOrdersResponse(page))
}

// GetState обрабатывает GET /api/v1/state
func (h *StorefrontHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := h.uc.GetState.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, state)
}

// GetModal обрабатывает GET /api/v1/modal
func (h *StorefrontHandler) GetModal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	modal, err := h.uc.GetModal.Execute(ctx, contextkeys.SessionIDFromContext(ctx))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, modal)
}

// SubscribeToEvents - обработчик для GET /api/v1/events
func (h *StorefrontHandler) SubscribeToEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := contextkeys.SessionIDFromContext(r.Context())
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeToEvents"})

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := h.stream.AddClient(sessionID)
	defer h.stream.RemoveClient(sessionID, clientChan)

	// Первое событие подтверждает подписку и сообщает клиенту его сессию
	fmt.Fprintf(w, "event: connected\ndata: {\"session_id\":%q}\n\n", sessionID)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data, open := <-clientChan:
			if !open {
				return
			}
			if _, err := w.Write(data); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// строки, начинающиеся с ':', клиент считает комментариями
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected.", nil)
			return
		}
	}
}

const healthCheckTimeout = 2 * time.Second

// Health обрабатывает GET /health. Любая упавшая проверка дает 503.
func (h *StorefrontHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		response.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			contextkeys.LoggerFromContext(r.Context()).Warn("Health check failed", port.Fields{"dependency": name, "error": err.Error()})
			response.Checks[name] = err.Error()
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}
	RespondWithJSON(w, status, response)
}
