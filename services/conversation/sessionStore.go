// File: services/conversation/sessionStore.go
package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"careai/models"
	"careai/utils"
)

// SessionStore persists conversation sessions between requests and across
// restarts. Dates round-trip as RFC 3339 via the JSON encoding.
type SessionStore interface {
	Save(ctx context.Context, sess *models.ConversationSession) error
	Get(ctx context.Context, id string) (*models.ConversationSession, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps each session under its own key with a TTL, so
// abandoned conversations age out on their own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *models.ConversationSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, utils.SessionCachePrefix+sess.ID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.ConversationSession, error) {
	data, err := s.client.Get(ctx, utils.SessionCachePrefix+id).Result()
	if err == redis.Nil {
		return nil, &SessionNotFoundError{SessionID: id}
	}
	if err != nil {
		return nil, err
	}
	var sess models.ConversationSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, utils.SessionCachePrefix+id).Err()
}

// MemorySessionStore is the in-process implementation used by tests and
// keyless local runs.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (s *MemorySessionStore) Save(_ context.Context, sess *models.ConversationSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = b
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.sessions[id]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: id}
	}
	var sess models.ConversationSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
