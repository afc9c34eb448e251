package port

import (
	"context"

	"web-larek/internal/core/domain"
	"web-larek/pkg/events"
)

// Subscriber получает полезную нагрузку события.
type Subscriber = events.Subscriber

// EventCallback - то же самое, что Subscriber.
type EventCallback = Subscriber

// Subscription - дескриптор подписки для Off.
type Subscription = events.Subscription

// EventsPort - шина событий приложения. Emit отклоняет имена вне словаря.
type EventsPort interface {
	On(name domain.EventName, cb EventCallback) Subscription
	OnAll(cb func(name domain.EventName, payload any)) Subscription
	Off(sub Subscription)
	Emit(name domain.EventName, payload any) error
}

// SessionEventsFactoryPort выдает шину, привязанную к сессии.
// Все события такой шины дополнительно уходят в NotifierPort.
type SessionEventsFactoryPort interface {
	ForSession(ctx context.Context, sessionID string) EventsPort
}
