package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "web-larek:session:"
	lockKeyPrefix    = "web-larek:lock:"

	lockTTL       = 30 * time.Second
	lockMaxWait   = 5 * time.Second
	lockRetryStep = 20 * time.Millisecond
)

// Снимаем блокировку, только если она все еще наша (TTL мог истечь).
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore хранит AppState в Redis как JSON со скользящим TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var (
	_ port.SessionStorePort  = (*SessionStore)(nil)
	_ port.SessionLockerPort = (*SessionStore)(nil)
)

func NewSessionStore(client *redis.Client, ttl time.Duration) (*SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Load возвращает пустое состояние для неизвестной или истекшей сессии.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.AppState, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewAppState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	state := &domain.AppState{}
	if err := json.Unmarshal(raw, state); err != nil {
		// Битое состояние не должно блокировать пользователя: начинаем заново
		contextkeys.LoggerFromContext(ctx).Warn("Discarding corrupted session state", port.Fields{
			"component":  "RedisSessionStore",
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return domain.NewAppState(), nil
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
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Lock берет блокировку сессии через SET NX PX и ждет ее не дольше lockMaxWait.
func (s *SessionStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, lockMaxWait)
	defer cancel()

	for {
		acquired, err := s.client.SetNX(waitCtx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock session %s: %w", sessionID, err)
		}
		if acquired {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("session %s is locked by another request: %w", sessionID, waitCtx.Err())
		case <-time.After(lockRetryStep):
		}
	}

	return func() {
		if err := unlockScript.Run(context.WithoutCancel(ctx), s.client, []string{key}, token).Err(); err != nil {
			contextkeys.LoggerFromContext(ctx).Warn("Failed to release session lock", port.Fields{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}, nil
}
