package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/port"
)

// ClientChannel - канал событий одного SSE-подключения (одной вкладки)
type ClientChannel chan []byte

const (
	eventQueueSize  = 256
	clientQueueSize = 64
)

type eventWithContext struct {
	ctx   context.Context
	event port.SessionEvent
}

// SSENotifier рассылает события сессии во все ее открытые вкладки.
type SSENotifier struct {
	// clients: id сессии -> каналы подключений
	clients map[string][]ClientChannel
	mu      sync.RWMutex

	eventChan chan eventWithContext
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	logger port.LoggerPort
}

var _ port.NotifierPort = (*SSENotifier)(nil)

// NewSSENotifier создает нотификатор и запускает горутину-диспетчер
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[string][]ClientChannel),
		eventChan: make(chan eventWithContext, eventQueueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}
	go n.dispatcher()
	return n
}

func (n *SSENotifier) dispatcher() {
	defer close(n.done)
	n.logger.Debug("Notifier dispatcher started.", nil)
	for {
		select {
		case <-n.stop:
			n.logger.Debug("Notifier dispatcher stopped.", nil)
			return
		case pkg := <-n.eventChan:
			n.dispatch(pkg)
		}
	}
}

func (n *SSENotifier) dispatch(pkg eventWithContext) {
	event := pkg.event
	eventLogger := contextkeys.LoggerFromContext(pkg.ctx).WithFields(port.Fields{
		"component":  "SSENotifier.dispatcher",
		"event_name": string(event.Name),
		"session_id": event.SessionID,
	})

	message, err := FormatSSE(string(event.Name), event.Payload)
	if err != nil {
		eventLogger.Error("Failed to marshal event", err, nil)
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	channels := n.clients[event.SessionID]
	if len(channels) == 0 {
		eventLogger.Debug("No active clients for session, event dropped.", nil)
		return
	}
	for _, ch := range channels {
		// Медленный клиент не должен задерживать остальных
		select {
		case ch <- message:
		default:
			eventLogger.Warn("Client channel is full, skipping.", nil)
		}
	}
}

// FormatSSE собирает кадр "event: ...\ndata: ...\n\n"
func FormatSSE(name string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)), nil
}

// Notify ставит событие в очередь диспетчера. После Close события отбрасываются.
func (n *SSENotifier) Notify(ctx context.Context, event port.SessionEvent) {
	select {
	case <-n.stop:
		return
	default:
	}
	select {
	case n.eventChan <- eventWithContext{ctx: ctx, event: event}:
	case <-n.stop:
	case <-ctx.Done():
		n.logger.Warn("Context done before event was queued, event dropped.", port.Fields{"event_name": string(event.Name)})
	}
}

// AddClient регистрирует новое SSE-подключение сессии
func (n *SSENotifier) AddClient(sessionID string) ClientChannel {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(ClientChannel, clientQueueSize)
	n.clients[sessionID] = append(n.clients[sessionID], ch)

	n.logger.Info("Client connected for session", port.Fields{
		"session_id":                    sessionID,
		"total_connections_for_session": len(n.clients[sessionID]),
	})
	return ch
}

// RemoveClient удаляет канал при отключении клиента
func (n *SSENotifier) RemoveClient(sessionID string, ch ClientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[sessionID]
	if !found {
		return
	}
	remaining := make([]ClientChannel, 0, len(channels))
	for _, c := range channels {
		if c != ch {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(n.clients, sessionID)
		n.logger.Debug("Last client disconnected for session.", port.Fields{"session_id": sessionID})
		return
	}
	n.clients[sessionID] = remaining
	n.logger.Info("Client disconnected for session.", port.Fields{
		"session_id":            sessionID,
		"remaining_connections": len(remaining),
	})
}

// ClientCount - число активных подключений сессии
func (n *SSENotifier) ClientCount(sessionID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients[sessionID])
}

// Close останавливает диспетчер и ждет его завершения
func (n *SSENotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.stop)
		<-n.done
	})
}
