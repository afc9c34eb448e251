package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

// SessionScope - общая часть use case'ов витрины: блокировка сессии,
// загрузка состояния, шина событий и сохранение.
type SessionScope struct {
	store  port.SessionStorePort
	events port.SessionEventsFactoryPort
	locks  *sessionLocks
}

func NewSessionScope(store port.SessionStorePort, events port.SessionEventsFactoryPort) *SessionScope {
	return &SessionScope{store: store, events: events, locks: newSessionLocks()}
}

// MutateFunc меняет состояние сессии и отправляет события в bus.
type MutateFunc func(ctx context.Context, state *domain.AppState, bus port.EventsPort) error

const (
	committedSaveAttempts = 3
	committedSaveTimeout  = 5 * time.Second
	committedSaveBackoff  = 100 * time.Millisecond
)

// Mutate выполняет fn под блокировкой сессии: локальным мьютексом и, если
// хранилище реализует port.SessionLockerPort, общей для реплик. События доходят до подписчиков
// только после успешного сохранения состояния; при ошибке они отбрасываются.
//
// Если fn вызвала markCommitted (внешний эффект уже произошел, например заказ
// создан в магазине), сохранение повторяется вне контекста запроса, а его
// окончательный сбой логируется и не превращается в ошибку use case'а.
func (s *SessionScope) Mutate(ctx context.Context, sessionID string, fn MutateFunc) (*domain.AppState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if locker, ok := s.store.(port.SessionLockerPort); ok {
		release, err := locker.Lock(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock session: %w", err)
		}
		defer release()
	}

	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	bus := newPendingBus(s.events.ForSession(ctx, sessionID))
	if err := fn(ctx, state, bus); err != nil {
		return nil, err
	}

	if bus.committed {
		if err := s.saveCommitted(ctx, sessionID, state); err != nil {
			contextkeys.LoggerFromContext(ctx).Error("Session state not saved after committed change", err, port.Fields{"session_id": sessionID})
		}
	} else if err := s.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session state: %w", err)
	}

	if err := bus.flush(); err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to deliver session events", err, port.Fields{"session_id": sessionID})
	}
	return state, nil
}

func (s *SessionScope) saveCommitted(ctx context.Context, sessionID string, state *domain.AppState) error {
	base := context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= committedSaveAttempts; attempt++ {
		saveCtx, cancel := context.WithTimeout(base, committedSaveTimeout)
		err = s.store.Save(saveCtx, sessionID, state)
		cancel()
		if err == nil {
			return nil
		}
		contextkeys.LoggerFromContext(ctx).Warn("Retrying session state save", port.Fields{
			"session_id": sessionID,
			"attempt":    attempt,
			"error":      err.Error(),
		})
		if attempt < committedSaveAttempts {
			time.Sleep(committedSaveBackoff * time.Duration(attempt))
		}
	}
	return fmt.Errorf("failed to save session state after %d attempts: %w", committedSaveAttempts, err)
}

// Load читает состояние без изменений.
func (s *SessionScope) Load(ctx context.Context, sessionID string) (*domain.AppState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	return state, nil
}

type pendingEvent struct {
	name    domain.EventName
	payload any
}

// pendingBus копит Emit до flush; подписки сразу уходят в целевую шину.
type pendingBus struct {
	target    port.EventsPort
	queue     []pendingEvent
	committed bool
}

// markCommitted отмечает, что fn уже изменила что-то за пределами сессии.
func markCommitted(bus port.EventsPort) {
	if pb, ok := bus.(*pendingBus); ok {
		pb.committed = true
	}
}

func newPendingBus(target port.EventsPort) *pendingBus {
	return &pendingBus{target: target}
}

func (b *pendingBus) On(name domain.EventName, cb port.EventCallback) port.Subscription {
	return b.target.On(name, cb)
}

func (b *pendingBus) OnAll(cb func(name domain.EventName, payload any)) port.Subscription {
	return b.target.OnAll(cb)
}

func (b *pendingBus) Off(sub port.Subscription) {
	b.target.Off(sub)
}

func (b *pendingBus) Emit(name domain.EventName, payload any) error {
	if name == domain.EventAll || !domain.IsKnownEventName(name) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, name)
	}
	b.queue = append(b.queue, pendingEvent{name: name, payload: payload})
	return nil
}

func (b *pendingBus) flush() error {
	var firstErr error
	for _, e := range b.queue {
		if err := b.target.Emit(e.name, e.payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.queue = nil
	return firstErr
}

// sessionLocks - мьютекс на каждую активную сессию; запись удаляется,
// когда ее больше никто не держит.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
