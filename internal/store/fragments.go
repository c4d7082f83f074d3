package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// fragmentKeyPrefix partitions the fragment lists in the shared redis keyspace.
const fragmentKeyPrefix = "fragments:"

// fragmentTTL guards against keys leaking when a debounce timer is lost
// (e.g. process restart with buffered fragments and no pending timer).
const fragmentTTL = 24 * time.Hour

// RedisFragments buffers in-flight message fragments per user in redis lists.
// Appends go to the tail; Drain atomically reads and deletes the whole list so
// no fragment is ever delivered twice.
type RedisFragments struct {
	client redis.UniversalClient
}

func NewRedisFragments(client redis.UniversalClient) *RedisFragments {
	return &RedisFragments{client: client}
}

func fragmentKey(user string) string { return fragmentKeyPrefix + user }

// Append pushes one fragment to the tail of the user's list.
func (s *RedisFragments) Append(ctx context.Context, user, fragment string) error {
	key := fragmentKey(user)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, fragment)
	pipe.Expire(ctx, key, fragmentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append fragment for %s: %w", user, err)
	}
	log.Debug().Str("user", user).Msg("fragment_appended")
	return nil
}

// Drain returns all buffered fragments in arrival order and removes them.
// The read and the delete run inside one MULTI/EXEC so a concurrent Drain
// cannot observe the same fragments.
func (s *RedisFragments) Drain(ctx context.Context, user string) ([]string, error) {
	key := fragmentKey(user)
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("drain fragments for %s: %w", user, err)
	}
	fragments, err := rangeCmd.Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("drain fragments for %s: %w", user, err)
	}
	log.Debug().Str("user", user).Int("count", len(fragments)).Msg("fragments_drained")
	return fragments, nil
}
