package eventbus

import (
	"context"
	"fmt"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
	"web-larek/pkg/events"
)

// Factory выдает шину на время одного запроса сессии.
// Все события шины дублируются в notifier (если он задан).
type Factory struct {
	notifier port.NotifierPort
}

var _ port.SessionEventsFactoryPort = (*Factory)(nil)

func NewFactory(notifier port.NotifierPort) *Factory {
	return &Factory{notifier: notifier}
}

func (f *Factory) ForSession(ctx context.Context, sessionID string) port.EventsPort {
	bus := &Bus{emitter: events.New(), logger: contextkeys.LoggerFromContext(ctx)}
	if f.notifier != nil {
		bus.emitter.OnAll(func(e events.Event) {
			f.notifier.Notify(ctx, port.SessionEvent{
				SessionID: sessionID,
				Name:      domain.EventName(e.Name),
				Payload:   e.Payload,
			})
		})
	}
	return bus
}

// Bus - шина приложения поверх events.Emitter: пропускает только имена из словаря.
type Bus struct {
	emitter *events.Emitter
	logger  port.LoggerPort
}

var _ port.EventsPort = (*Bus)(nil)

// NewBus - шина без привязки к сессии.
func NewBus(logger port.LoggerPort) *Bus {
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	return &Bus{emitter: events.New(), logger: logger}
}

func (b *Bus) On(name domain.EventName, cb port.EventCallback) port.Subscription {
	return b.emitter.On(string(name), cb)
}

func (b *Bus) OnAll(cb func(name domain.EventName, payload any)) port.Subscription {
	return b.emitter.OnAll(func(e events.Event) {
		cb(domain.EventName(e.Name), e.Payload)
	})
}

func (b *Bus) Off(sub port.Subscription) {
	b.emitter.Off(sub)
}

func (b *Bus) Emit(name domain.EventName, payload any) error {
	if name == domain.EventAll || !domain.IsKnownEventName(name) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, name)
	}
	called := b.emitter.Emit(string(name), payload)
	b.logger.Debug("Event emitted", port.Fields{"event_name": string(name), "subscribers": called})
	return nil
}
