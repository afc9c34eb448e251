package domain

import (
	"fmt"
	"sort"
	"sync"
)

// EventName - имя события шины приложения.
type EventName string

// Базовое имя шины: подписка на все события.
const EventAll EventName = "*"

const (
	EventCatalogLoaded    EventName = "catalog:loaded"
	EventCardClick        EventName = "card:click"
	EventCardAdd          EventName = "card:add"
	EventBasketChange     EventName = "basket:change"
	EventBasketOpen       EventName = "basket:open"
	EventBasketItemRemove EventName = "basket:item:remove"
	EventBasketItemUpdate EventName = "basket:item:update"
	EventOrderStart       EventName = "order:start"
	EventFormSubmit       EventName = "form:submit"
	EventFormValidate     EventName = "form:validate"
	EventOrderSuccess     EventName = "order:success"
	EventModalOpen        EventName = "modal:open"
	EventModalClose       EventName = "modal:close"
)

// Словарь событий закрыт для шины приложения, но другие пакеты могут
// расширить его через RegisterEventName при инициализации.
var (
	eventNamesMu sync.RWMutex
	eventNames   = map[EventName]struct{}{
		EventAll:              {},
		EventCatalogLoaded:    {},
		EventCardClick:        {},
		EventCardAdd:          {},
		EventBasketChange:     {},
		EventBasketOpen:       {},
		EventBasketItemRemove: {},
		EventBasketItemUpdate: {},
		EventOrderStart:       {},
		EventFormSubmit:       {},
		EventFormValidate:     {},
		EventOrderSuccess:     {},
		EventModalOpen:        {},
		EventModalClose:       {},
	}
)

// RegisterEventName добавляет имя в словарь. Пустое имя - ошибка.
func RegisterEventName(name EventName) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownEvent)
	}
	eventNamesMu.Lock()
	defer eventNamesMu.Unlock()
	eventNames[name] = struct{}{}
	return nil
}

func IsKnownEventName(name EventName) bool {
	eventNamesMu.RLock()
	defer eventNamesMu.RUnlock()
	_, ok := eventNames[name]
	return ok
}

// KnownEventNames возвращает словарь в отсортированном виде.
func KnownEventNames() []EventName {
	eventNamesMu.RLock()
	defer eventNamesMu.RUnlock()
	names := make([]EventName, 0, len(eventNames))
	for name := range eventNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// PreviewPayload уходит с card:click.
type PreviewPayload struct {
	ProductID string `json:"product_id,omitempty"`
}

// ModalPayload уходит с modal:open и modal:close.
type ModalPayload struct {
	ContainerID string `json:"container_id"`
}

// CatalogLoadedPayload уходит с catalog:loaded.
type CatalogLoadedPayload struct {
	Count     int  `json:"count"`
	FromCache bool `json:"from_cache"`
}

// BasketItemPayload уходит с card:add, basket:item:remove и basket:item:update.
type BasketItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
}
