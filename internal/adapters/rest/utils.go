package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"web-larek/internal/core/domain"
)

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}

// statusForError сопоставляет доменные ошибки с HTTP-статусами.
func statusForError(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrBasketItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProductNotForSale),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPayment):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBasketEmpty), errors.Is(err, domain.ErrOrderNotStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeUseCaseError отвечает клиенту по ошибке use case. Текст внутренних
// ошибок наружу не уходит.
func writeUseCaseError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		WriteJSONError(w, status, "Internal server error")
		return
	}

	response := ErrorResponse{Error: err.Error()}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		response.Fields = validation.Fields
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		response.Error = upstream.Message
	}
	RespondWithJSON(w, status, response)
}

// getIntQuery читает целый параметр запроса; пустое значение - defaultValue.
func getIntQuery(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
