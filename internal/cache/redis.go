package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scanBatch     = 200
	generationKey = "generation"
)

// setIfGeneration runs SET only while the generation counter still equals
// ARGV[1]; a missing counter reads as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStore keeps cached responses in redis under a common key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.prefix+generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

func (r *RedisStore) SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen int64) (bool, error) {
	keys := []string{r.prefix + generationKey, r.prefix + key}
	stored, err := setIfGeneration.Run(ctx, r.client, keys, strconv.FormatInt(gen, 10), value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("cache set %s: %w", key, err)
	}
	return stored == 1, nil
}

// Invalidate deletes every key containing pattern, scanning in batches so a
// large keyspace never blocks the server. The generation is bumped before
// the scan, so any fill racing with it is either refused or deleted.
func (r *RedisStore) Invalidate(ctx context.Context, pattern string) error {
	if err := r.client.Incr(ctx, r.prefix+generationKey).Err(); err != nil {
		return fmt.Errorf("cache generation bump: %w", err)
	}
	match := r.prefix + "*" + escapeGlob(pattern) + "*"
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("cache del %s: %w", pattern, err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	r.logger.DebugContext(ctx, "cache invalidated", "pattern", pattern, "deleted", deleted)
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
