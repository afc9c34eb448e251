package domain

import (
	"encoding/json"
	"fmt"
)

// APIResponse - конверт ответа магазина.
// Соглашение: либо Success и Result осмыслен, либо !Success и Error не пуст.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Result  T      `json:"result"`
	Error   string `json:"error,omitempty"`
}

func OK[T any](result T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Result: result}
}

func Failed[T any](message string) *APIResponse[T] {
	if message == "" {
		message = "unknown error"
	}
	return &APIResponse[T]{Success: false, Error: message}
}

// Err превращает неуспешный конверт в *UpstreamError.
func (r *APIResponse[T]) Err() error {
	if r == nil {
		return &UpstreamError{Message: "empty response"}
	}
	if r.Success {
		return nil
	}
	return &UpstreamError{Message: r.Error}
}

// DecodeResult раскладывает сырой конверт в типизированный.
// Ошибка декодирования результата превращает конверт в неуспешный.
func DecodeResult[T any](raw *APIResponse[json.RawMessage]) *APIResponse[T] {
	if raw == nil {
		return Failed[T]("empty response")
	}
	if !raw.Success {
		return Failed[T](raw.Error)
	}
	var result T
	if len(raw.Result) > 0 {
		if err := json.Unmarshal(raw.Result, &result); err != nil {
			return Failed[T](fmt.Sprintf("malformed result: %v", err))
		}
	}
	return OK(result)
}

// ProductList - результат GET /product.
type ProductList struct {
	Total int             `json:"total"`
	Items []ProductServer `json:"items"`
}
