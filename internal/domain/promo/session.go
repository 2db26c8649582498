// internal/domain/promo/session.go
package promo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the promo applied to a session's cart in Redis
type SessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionStore creates a new applied promo store
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// Save stores the applied promo for a session
func (s *SessionStore) Save(ctx context.Context, sessionID string, applied *AppliedPromo) error {
	data, err := json.Marshal(applied)
	if err != nil {
		return fmt.Errorf("failed to encode applied promo: %w", err)
	}
	return s.redisClient.Set(ctx, sessionKey(sessionID), data, s.ttl).Err()
}

// Load returns the applied promo for a session, or nil when none is applied
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*AppliedPromo, error) {
	data, err := s.redisClient.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load applied promo: %w", err)
	}

	var applied AppliedPromo
	if err := json.Unmarshal([]byte(data), &applied); err != nil {
		return nil, fmt.Errorf("failed to decode applied promo: %w", err)
	}
	return &applied, nil
}

// Delete removes the applied promo for a session
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.redisClient.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("promo:session:%s", sessionID)
}
