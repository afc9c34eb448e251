package port

import "web-larek/internal/core/domain"

// BasketServicePort - операции над корзиной.
type BasketServicePort interface {
	Add(product domain.Product) error
	Remove(id string) error
	Update(id string, quantity int) error
	Clear()
	GetItems() []domain.BasketItem
	GetTotal() float64
}
