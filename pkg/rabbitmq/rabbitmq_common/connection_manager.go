package rabbitmq_common

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// ConnectionManager держит одно AMQP-соединение на процесс и раздает из него каналы.
// После разрыва (NotifyClose) соединение восстанавливается с экспоненциальной задержкой.
type ConnectionManager struct {
	url string

	mu   sync.RWMutex
	conn *amqp.Connection

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	Logger Logger
}

// NewConnectionManager подключается к брокеру и запускает наблюдение за соединением.
func NewConnectionManager(cfg Config, logger Logger) (*ConnectionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoopLogger()
	}

	m := &ConnectionManager{
		url:    cfg.URL,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		Logger: logger,
	}

	conn, err := m.dial()
	if err != nil {
		logger.Error(err, "Initial connection failed")
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}

	go m.watch(conn)

	return m, nil
}

func (m *ConnectionManager) dial() (*amqp.Connection, error) {
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	m.Logger.Debug("ConnectionManager: connected")
	return conn, nil
}

// watch ждет закрытия текущего соединения и переподключается, пока менеджер не остановлен.
func (m *ConnectionManager) watch(conn *amqp.Connection) {
	defer close(m.done)

	for {
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-m.stop:
			return
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				// штатное закрытие через Close
				select {
				case <-m.stop:
					return
				default:
				}
			}
			m.Logger.Warn("ConnectionManager: connection lost, reconnecting", "reason", amqpErr)
		}

		next, ok := m.reconnect()
		if !ok {
			return
		}
		conn = next
	}
}

func (m *ConnectionManager) reconnect() (*amqp.Connection, bool) {
	delay := minReconnectDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-m.stop:
			return nil, false
		case <-time.After(delay):
		}

		conn, err := m.dial()
		if err == nil {
			m.Logger.Info("ConnectionManager: reconnected", "attempt", attempt)
			return conn, true
		}
		m.Logger.Error(err, "ConnectionManager: reconnect failed", "attempt", attempt, "next_delay", delay.String())

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// GetChannel открывает новый канал на общем соединении
func (m *ConnectionManager) GetChannel() (*amqp.Connection, *amqp.Channel, error) {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return conn, nil, fmt.Errorf("rabbitmq: connection is not available")
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	return conn, ch, nil
}

// IsConnected используется health-check'ом
func (m *ConnectionManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn != nil && !m.conn.IsClosed()
}

// Close останавливает наблюдение и закрывает соединение.
func (m *ConnectionManager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.IsClosed() {
		return nil
	}
	if err := m.conn.Close(); err != nil {
		m.Logger.Error(err, "ConnectionManager: close failed")
		return err
	}
	return nil
}
