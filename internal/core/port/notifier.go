package port

import (
	"context"

	"web-larek/internal/core/domain"
)

// SessionEvent - событие шины, адресованное подписчикам одной сессии.
type SessionEvent struct {
	SessionID string
	Name      domain.EventName
	Payload   any
}

// NotifierPort доставляет события в браузер (SSE).
type NotifierPort interface {
	Notify(ctx context.Context, event SessionEvent)
}
