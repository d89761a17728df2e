package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the progress map with a TTL-capable keyed store so the
// service can run as multiple stateless instances behind one endpoint.
type RedisStore struct {
	rc     *redis.Client
	prefix string
}

// NewRedisStore creates a redis-backed store. All keys are namespaced under
// the given prefix ("progress" when empty).
func NewRedisStore(rc *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "progress"
	}
	return &RedisStore{rc: rc, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *RedisStore) Put(ctx context.Context, id string, rec Record) error {
	bytes, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	// KEEPTTL preserves a retention window set by an earlier Expire call;
	// records without one live until Expire is called on terminal write.
	if err := s.rc.Set(ctx, s.key(id), bytes, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, bool, error) {
	result, err := s.rc.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("failed to get record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rc.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *RedisStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.rc.Expire(ctx, s.key(id), ttl).Err(); err != nil {
		return fmt.Errorf("failed to expire record: %w", err)
	}
	return nil
}
