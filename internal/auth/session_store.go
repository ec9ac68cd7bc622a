package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kingspos/internal/cache"
)

const sessionKeyPrefix = "session:"

// SessionStore persists sessions keyed by their opaque id.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Get returns nil, nil for a missing or expired session.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete reports whether a session existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// RedisSessionStore keeps sessions in Redis as JSON with a TTL matching
// the session expiry.
type RedisSessionStore struct {
	cache *cache.Client
	now   func() time.Time
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a new session store.
func NewRedisSessionStore(cache *cache.Client) *RedisSessionStore {
	return &RedisSessionStore{cache: cache, now: time.Now}
}

// Save stores the session until its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl)
}

// Get loads a session.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, nil
	}
	return &sess, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.cache.Del(ctx, sessionKeyPrefix+id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}
