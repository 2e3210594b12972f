package database

import (
	"JagannathOPD/config"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	MinIdleConns int
	ReadTimeout  time.Duration
	MaxRetries   int
}

// ErrLockNotAcquired is returned when another holder keeps the lock past all retries.
var ErrLockNotAcquired = errors.New("lock is held by another process")

// LoadRedisConfig loads configuration from environment variables with default fallbacks
func LoadRedisConfig(redisURL string) (RedisConfig, error) {
	if redisURL == "" {
		return RedisConfig{}, errors.New("REDIS_URL environment variable is not set")
	}

	return RedisConfig{
		URL:          redisURL,
		PoolSize:     config.GetEnvAsInt("REDIS_POOL_SIZE", 10),
		DialTimeout:  config.GetEnvAsDuration("REDIS_DIAL_TIMEOUT", 30*time.Second),
		MinIdleConns: config.GetEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		ReadTimeout:  config.GetEnvAsDuration("REDIS_READ_TIMEOUT", 10*time.Second),
		MaxRetries:   config.GetEnvAsInt("REDIS_MAX_RETRIES", 3),
	}, nil
}

// NewRedisClient creates a Redis client with the provided configuration
func NewRedisClient(cfg RedisConfig, log *zap.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis server: %w", err)
	}

	log.Info("Redis client initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("min_idle_conns", cfg.MinIdleConns),
		zap.Duration("dial_timeout", cfg.DialTimeout),
		zap.Duration("read_timeout", cfg.ReadTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)
	return client, nil
}

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLocker hands out SET NX locks released through a compare-and-delete script.
type RedisLocker struct {
	client     *redis.Client
	log        *zap.Logger
	script     *redis.Script
	retries    int
	retryDelay time.Duration
}

func NewRedisLocker(client *redis.Client, log *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		log:        log,
		script:     redis.NewScript(releaseLockScript),
		retries:    3,
		retryDelay: 200 * time.Millisecond,
	}
}

// Acquire takes the lock for key. The returned release func is safe to defer;
// it only deletes the key while this holder still owns it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.client == nil {
		return nil, errors.New("Redis client is not initialized")
	}
	value := uuid.NewString()

	for attempt := 0; attempt <= l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, value, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, value) }, nil
		}
		if attempt == l.retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, ErrLockNotAcquired
}

func (l *RedisLocker) release(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := l.script.Run(ctx, l.client, []string{key}, value).Int64()
	if err != nil {
		l.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		return
	}
	if result == 0 {
		l.log.Warn("lock release skipped: not the lock owner", zap.String("key", key))
	}
}

// PoolStats reports the connection pool statistics for monitoring
func PoolStats(client *redis.Client) map[string]uint32 {
	stats := client.PoolStats()
	return map[string]uint32{
		"total": stats.TotalConns,
		"idle":  stats.IdleConns,
		"stale": stats.StaleConns,
	}
}
