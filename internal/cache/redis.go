package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardsnap/cardsnap/internal/entity"
)

const redisKeyPrefix = "cardsnap:recognition:"

// Redis is a shared ResultCache backed by go-redis. Every Redis error is
// logged and degraded to a cache miss.
type Redis struct {
	client *redis.Client
	maxAge time.Duration
	logger *slog.Logger
}

func NewRedis(addr string, maxAge time.Duration, logger *slog.Logger) *Redis {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		maxAge: maxAge,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (entity.RecognitionResult, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache.redis.get_error", "key", key, "error", err)
		}
		return entity.RecognitionResult{}, false
	}
	var res entity.RecognitionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		r.logger.Warn("cache.redis.decode_error", "key", key, "error", err)
		return entity.RecognitionResult{}, false
	}
	return res, true
}

func (r *Redis) Put(ctx context.Context, key string, res entity.RecognitionResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		r.logger.Warn("cache.redis.encode_error", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.maxAge).Err(); err != nil {
		r.logger.Warn("cache.redis.put_error", "key", key, "error", err)
	}
}

func (r *Redis) IsValid(res entity.RecognitionResult, engineID string) bool {
	if engineID != "" && res.EngineID != engineID {
		return false
	}
	return time.Since(res.ProcessedAt) <= r.maxAge
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
