package petitions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"campaign-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// SignatureCounter caches per-petition signature counts.
// ok is false on a cache miss.
//
// Set never overwrites an entry, and Increment on an uncached count leaves an
// invalidation behind that makes the next Set a no-op. A count read from the
// database before a concurrent signature therefore never reaches the cache.
type SignatureCounter interface {
	Get(ctx context.Context, petitionID string) (n int64, ok bool, err error)
	Set(ctx context.Context, petitionID string, n int64) error
	Increment(ctx context.Context, petitionID string) error
	Forget(ctx context.Context, petitionID string) error
}

const defaultCounterTTL = 10 * time.Minute

// RedisCounter stores counts under "petition:<id>:signatures".
type RedisCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCounter(rdb *redis.Client, ttl time.Duration) *RedisCounter {
	if ttl <= 0 {
		ttl = defaultCounterTTL
	}
	return &RedisCounter{rdb: rdb, ttl: ttl}
}

func counterKey(petitionID string) string {
	return "petition:" + petitionID + ":signatures"
}

func (c *RedisCounter) Get(ctx context.Context, petitionID string) (int64, bool, error) {
	v, err := c.rdb.Get(ctx, counterKey(petitionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if v == utils.CounterInvalidated {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt signature counter %q: %w", v, err)
	}
	return n, true, nil
}

func (c *RedisCounter) Set(ctx context.Context, petitionID string, n int64) error {
	_, err := utils.FillCounter(ctx, c.rdb, counterKey(petitionID), n, c.ttl)
	return err
}

func (c *RedisCounter) Increment(ctx context.Context, petitionID string) error {
	_, _, err := utils.IncrementOrInvalidate(ctx, c.rdb, counterKey(petitionID), c.ttl)
	return err
}

func (c *RedisCounter) Forget(ctx context.Context, petitionID string) error {
	return c.rdb.Del(ctx, counterKey(petitionID)).Err()
}

// NoopCounter disables caching; every read falls through to the database.
type NoopCounter struct{}

func (NoopCounter) Get(context.Context, string) (int64, bool, error) { return 0, false, nil }
func (NoopCounter) Set(context.Context, string, int64) error         { return nil }
func (NoopCounter) Increment(context.Context, string) error          { return nil }
func (NoopCounter) Forget(context.Context, string) error             { return nil }
