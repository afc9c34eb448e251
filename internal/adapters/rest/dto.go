package rest

import (
	"time"

	"web-larek/internal/core/domain"
)

// ErrorResponse - стандартная структура для ответа с ошибкой.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// AddBasketItemRequest - тело POST /basket/items.
type AddBasketItemRequest struct {
	ProductID string `json:"product_id"`
}

// UpdateBasketItemRequest - тело PATCH /basket/items/{productID}.
type UpdateBasketItemRequest struct {
	Quantity int `json:"quantity"`
}

// OrderFormRequest - тело PUT /order/form.
type OrderFormRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Payment string `json:"payment"`
}

func (r OrderFormRequest) toDomain() domain.OrderFormData {
	return domain.OrderFormData{
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Payment: domain.PaymentMethod(r.Payment),
	}
}

// CatalogResponse повторяет форму списка товаров магазина.
type CatalogResponse struct {
	Total int              `json:"total"`
	Items []domain.Product `json:"items"`
}

type OrderLineResponse struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderResponse struct {
	ID         string              `json:"id"`
	UpstreamID string              `json:"upstream_id"`
	Payment    string              `json:"payment"`
	Address    string              `json:"address"`
	Total      float64             `json:"total"`
	Items      []OrderLineResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

// PaginatedOrdersResponse - структура для ответа со списком заказов.
type PaginatedOrdersResponse struct {
	Data    []OrderResponse `json:"data"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

func toPaginatedOrdersResponse(page *domain.PaginatedOrders) PaginatedOrdersResponse {
	response := PaginatedOrdersResponse{
		Data:    make([]OrderResponse, 0, len(page.Orders)),
		Total:   page.TotalCount,
		Page:    page.CurrentPage,
		PerPage: page.ItemsPerPage,
	}
	for _, o := range page.Orders {
		lines := make([]OrderLineResponse, 0, len(o.Lines))
		for _, l := range o.Lines {
			lines = append(lines, OrderLineResponse{ProductID: l.ProductID, Title: l.Title, Quantity: l.Quantity, Price: l.Price})
		}
		response.Data = append(response.Data, OrderResponse{
			ID:         o.ID,
			UpstreamID: o.UpstreamID,
			Payment:    string(o.Order.Payment),
			Address:    o.Order.Address,
			Total:      o.Order.Total,
			Items:      lines,
			CreatedAt:  o.CreatedAt,
		})
	}
	return response
}
