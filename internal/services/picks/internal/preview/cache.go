package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved previews by link. Implementations treat every
// failure as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (model.LinkPreview, bool)
	Set(ctx context.Context, key string, p model.LinkPreview, ttl time.Duration)
}

// MemoryCache is a process-local cache bounded by entry count.
type MemoryCache struct {
	cache *ristretto.Cache[string, model.LinkPreview]
}

func NewMemoryCache(maxKeys int64) (*MemoryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, model.LinkPreview]{
		NumCounters: maxKeys * 10,
		MaxCost:     maxKeys,
		BufferItems: 64,
		// every entry costs 1, so MaxCost is the entry limit
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create preview cache: %w", err)
	}

	return &MemoryCache{cache: c}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (model.LinkPreview, bool) {
	return m.cache.Get(key)
}

func (m *MemoryCache) Set(_ context.Context, key string, p model.LinkPreview, ttl time.Duration) {
	m.cache.SetWithTTL(key, p, 1, ttl)
	m.cache.Wait()
}

func (m *MemoryCache) Close() {
	m.cache.Close()
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache shares previews between service instances.
type RedisCache struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{rdb: rdb, log: slog.Default()}
}

func (r *RedisCache) Get(ctx context.Context, key string) (model.LinkPreview, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("preview cache read failed", "key", key, "error", err)
		}
		return model.LinkPreview{}, false
	}

	var p model.LinkPreview
	if err := json.Unmarshal(val, &p); err != nil {
		r.log.Warn("preview cache entry corrupt", "key", key, "error", err)
		return model.LinkPreview{}, false
	}

	return p, true
}

func (r *RedisCache) Set(ctx context.Context, key string, p model.LinkPreview, ttl time.Duration) {
	val, err := json.Marshal(p)
	if err != nil {
		r.log.Warn("preview cache encode failed", "key", key, "error", err)
		return
	}

	if err := r.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		r.log.Warn("preview cache write failed", "key", key, "error", err)
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

// TieredCache reads the near cache first and back-fills it from the far one.
type TieredCache struct {
	near Cache
	far  Cache
	ttl  time.Duration
}

func NewTieredCache(near, far Cache, nearTTL time.Duration) *TieredCache {
	return &TieredCache{near: near, far: far, ttl: nearTTL}
}

func (t *TieredCache) Get(ctx context.Context, key string) (model.LinkPreview, bool) {
	if p, ok := t.near.Get(ctx, key); ok {
		return p, true
	}

	p, ok := t.far.Get(ctx, key)
	if ok {
		t.near.Set(ctx, key, p, t.ttl)
	}
	return p, ok
}

func (t *TieredCache) Set(ctx context.Context, key string, p model.LinkPreview, ttl time.Duration) {
	nearTTL := t.ttl
	if ttl > 0 && ttl < nearTTL {
		nearTTL = ttl
	}
	t.near.Set(ctx, key, p, nearTTL)
	t.far.Set(ctx, key, p, ttl)
}
