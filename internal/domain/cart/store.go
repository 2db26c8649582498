// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionCart is the stored form of a session cart
type sessionCart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore keeps session carts in Redis. A cart lives only as long as
// its session key; it is never written to the relational database.
type SessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionStore creates a new session cart store
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// Load returns the cart for a session, or an empty cart if none is stored
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Engine, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for cart")
	}

	data, err := s.redisClient.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return NewEngine(), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var stored sessionCart
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return Restore(stored.Lines), nil
}

// Save writes the cart for a session and refreshes its expiry. An empty
// cart removes the key.
func (s *SessionStore) Save(ctx context.Context, sessionID string, engine *Engine) error {
	lines := engine.Lines()
	if len(lines) == 0 {
		return s.Delete(ctx, sessionID)
	}

	data, err := json.Marshal(sessionCart{
		SessionID: sessionID,
		Lines:     lines,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.redisClient.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete drops the session cart
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redisClient.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}
