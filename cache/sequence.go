package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const sequenceKeyPrefix = "invoice:seq:"

// RedisSequencer allocates invoice numbers with INCR, one key per
// organization.
type RedisSequencer struct {
	client redis.Cmdable
}

func NewRedisSequencer(client redis.Cmdable) *RedisSequencer {
	return &RedisSequencer{client: client}
}

func SequenceKey(organizationID string) string {
	return sequenceKeyPrefix + organizationID
}

func (s *RedisSequencer) Next(ctx context.Context, organizationID string) (string, error) {
	v, err := s.client.Incr(ctx, SequenceKey(organizationID)).Result()
	if err != nil {
		return "", fmt.Errorf("cache: incr invoice sequence: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}
