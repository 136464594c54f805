package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// CounterInvalidated marks a cached counter whose value is unknown. Readers
// treat it as a miss.
const CounterInvalidated = "stale"

var incrOrInvalidateScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = ttl_ms (int)
-- ARGV[2] = invalidation marker
--
-- Returns the new value, or -1 when the counter was not cached.
local v = redis.call('GET', KEYS[1])
if v and v ~= ARGV[2] then
  local current = redis.call('INCR', KEYS[1])
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  return current
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[1])
return -1
`)

var fillCounterScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = value
-- ARGV[2] = ttl_ms (int)
-- ARGV[3] = invalidation marker
--
-- Returns 1 when the value was stored.
local v = redis.call('GET', KEYS[1])
if not v then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
  return 1
end
if v == ARGV[3] then
  redis.call('DEL', KEYS[1])
end
return 0
`)

func checkCounterArgs(rdb redis.Scripter, key string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be > 0")
	}
	return nil
}

// IncrementOrInvalidate bumps a cached counter. When the counter is not
// cached it stores CounterInvalidated instead, so a concurrent FillCounter
// computed before this increment cannot publish a stale value.
func IncrementOrInvalidate(ctx context.Context, rdb redis.Scripter, key string, ttl time.Duration) (int64, bool, error) {
	if err := checkCounterArgs(rdb, key, ttl); err != nil {
		return 0, false, err
	}

	n, err := incrOrInvalidateScript.Run(ctx, rdb, []string{key}, ttl.Milliseconds(), CounterInvalidated).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// FillCounter stores n only when the key is absent. An invalidated key is
// cleared instead, leaving the next reader to recompute.
func FillCounter(ctx context.Context, rdb redis.Scripter, key string, n int64, ttl time.Duration) (bool, error) {
	if err := checkCounterArgs(rdb, key, ttl); err != nil {
		return false, err
	}

	stored, err := fillCounterScript.Run(ctx, rdb, []string{key}, n, ttl.Milliseconds(), CounterInvalidated).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}
