package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const KeyRevokedSession = "dashboard:session:revoked:"

// RevocationStore remembers signed-out session ids until their tokens
// would have expired anyway.
type RevocationStore interface {
	Revoke(c context.Context, id string, ttl time.Duration) error
	IsRevoked(c context.Context, id string) (bool, error)
}

type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(c context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(c, KeyRevokedSession+id, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed revoking session in cache with error=%w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(c context.Context, id string) (bool, error) {
	n, err := s.client.Exists(c, KeyRevokedSession+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed checking revoked session in cache with error=%w", err)
	}
	return n > 0, nil
}

type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryRevocationStore) Revoke(c context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for revokedID, expiresAt := range s.revoked {
		if !now.Before(expiresAt) {
			delete(s.revoked, revokedID)
		}
	}
	s.revoked[id] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(c context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.revoked[id]
	return ok && s.now().Before(expiresAt), nil
}
