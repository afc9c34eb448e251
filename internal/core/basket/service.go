// Package basket реализует корзину поверх среза позиций из состояния сессии.
package basket

import (
	"fmt"

	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

// Service - корзина одной сессии. Не потокобезопасна: use case держит
// ее только на время одного запроса.
type Service struct {
	items  []domain.BasketItem
	events port.EventsPort
}

var _ port.BasketServicePort = (*Service)(nil)

// NewService оборачивает позиции, загруженные из состояния.
// events может быть nil, тогда basket:change никуда не уходит.
func NewService(items []domain.BasketItem, events port.EventsPort) *Service {
	copied := make([]domain.BasketItem, len(items))
	copy(copied, items)
	return &Service{items: copied, events: events}
}

// Add кладет товар в корзину или увеличивает количество на 1.
func (s *Service) Add(product domain.Product) error {
	if !product.ForSale() {
		return fmt.Errorf("%w: %s", domain.ErrProductNotForSale, product.ID)
	}

	if i := s.indexOf(product.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		product.SetSelected(true)
		s.items = append(s.items, domain.BasketItem{Product: product, Quantity: 1})
	}
	return s.changed()
}

func (s *Service) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrBasketItemNotFound, id)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return s.changed()
}

func (s *Service) Update(id string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, quantity)
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrBasketItemNotFound, id)
	}
	s.items[i].Quantity = quantity
	return s.changed()
}

// Clear очищает корзину. Событие уходит, даже если корзина уже была пуста.
func (s *Service) Clear() {
	s.items = []domain.BasketItem{}
	_ = s.changed()
}

// GetItems возвращает копию позиций.
func (s *Service) GetItems() []domain.BasketItem {
	items := make([]domain.BasketItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Service) GetTotal() float64 {
	return domain.BasketTotal(s.items).InexactFloat64()
}

// Count - общее количество штук в корзине.
func (s *Service) Count() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// Snapshot - полезная нагрузка basket:change.
func (s *Service) Snapshot() domain.BasketChangedPayload {
	return domain.BasketChangedPayload{
		Items: s.GetItems(),
		Count: s.Count(),
		Total: s.GetTotal(),
	}
}

func (s *Service) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) changed() error {
	if s.events == nil {
		return nil
	}
	if err := s.events.Emit(domain.EventBasketChange, s.Snapshot()); err != nil {
		return fmt.Errorf("emit basket change: %w", err)
	}
	return nil
}
