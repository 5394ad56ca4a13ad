package schedctx

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as one hash, refreshed to ttl on every write.
type RedisStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "schedctx"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) SetField(ctx context.Context, sessionID string, field Field, value []byte) error {
	key := s.key(sessionID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, string(field), value)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Fields(ctx context.Context, sessionID string) (map[Field][]byte, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[Field][]byte, len(raw))
	for k, v := range raw {
		out[Field(k)] = []byte(v)
	}
	return out, nil
}
