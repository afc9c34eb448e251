package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductNotForSale  = errors.New("product has no price and cannot be bought")
	ErrBasketItemNotFound = errors.New("basket item not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrBasketEmpty        = errors.New("basket is empty")
	ErrOrderNotStarted    = errors.New("order has not been started")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidPayment     = errors.New("payment method must be 'card' or 'cash'")
	ErrUnknownEvent       = errors.New("unknown event name")
	ErrUpstream           = errors.New("upstream shop API error")
)

// ValidationError собирает ошибки по полям формы.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UpstreamError - ошибка, которую вернул магазин в конверте ответа.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return "upstream shop API error: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
