// Package memory - хранилища в памяти процесса для запуска без Redis.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type sessionEntry struct {
	raw       []byte
	expiresAt time.Time
}

// SessionStore хранит состояние сериализованным, чтобы вызывающий
// не мог изменить сохраненную копию через указатели.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]sessionEntry
}

var _ port.SessionStorePort = (*SessionStore)(nil)

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.AppState, error) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if ok && s.expired(entry) {
		delete(s.sessions, sessionID)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return domain.NewAppState(), nil
	}
	state := &domain.AppState{}
	if err := json.Unmarshal(entry.raw, state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	state.Normalize()
	return state, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.AppState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := sessionEntry{raw: raw}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[sessionID] = entry
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Sweep удаляет истекшие сессии и возвращает их число.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper периодически вызывает Sweep до отмены ctx.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *SessionStore) expired(entry sessionEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}
