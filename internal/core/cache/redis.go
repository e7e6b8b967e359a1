package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// store is the slice of redis the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisStore struct{ rdb *redis.Client }

func (r redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	return r.rdb.Get(ctx, key).Bytes()
}

func (r redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r redisStore) Del(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, keys...).Err()
}

// Cache is a read-through Redis cache. A nil *Cache is valid and always
// loads from the source.
type Cache struct {
	kv store
	sf singleflight.Group

	// gen 每个 key 的失效代数；回源期间被 Invalidate 过的结果不回写
	mu  sync.Mutex
	gen map[string]uint64
}

func NewFromClient(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return newCache(redisStore{rdb: rdb})
}

func newCache(kv store) *Cache { return &Cache{kv: kv, gen: map[string]uint64{}} }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.kv == nil {
		return load(ctx)
	}
	// 先读缓存（Redis 不可用时直接回源）
	if b, err := c.kv.Get(ctx, key); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		c.mu.Lock()
		g := c.gen[key]
		c.mu.Unlock()

		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		c.mu.Lock()
		if c.gen[key] == g {
			_ = c.kv.Set(ctx, key, b, ttl)
		}
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops keys; errors are ignored because entries expire anyway.
// A load already in flight for one of the keys will not write its result back.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.kv == nil || len(keys) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.gen[k]++
		c.sf.Forget(k)
	}
	_ = c.kv.Del(ctx, keys...)
}
