package port

import "context"

// EventListenerPort - входящий поток сообщений из брокера.
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
