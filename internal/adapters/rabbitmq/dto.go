package rabbitmq

import "time"

// OrderCreatedEventDTO - тело сообщения orders.created (схема order-created/v1).
type OrderCreatedEventDTO struct {
	EventID    string              `json:"event_id"`
	OrderID    string              `json:"order_id"`
	UpstreamID string              `json:"upstream_id"`
	SessionID  string              `json:"session_id"`
	Payment    string              `json:"payment"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Address    string              `json:"address"`
	Total      float64             `json:"total"`
	Items      []OrderItemEventDTO `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

type OrderItemEventDTO struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// CatalogUpdatedEventDTO - тело сообщения catalog.updated (схема catalog-updated/v1).
type CatalogUpdatedEventDTO struct {
	EventID    string    `json:"event_id"`
	ProductIDs []string  `json:"product_ids,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
