package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	loadTimeout = 15 * time.Second // a collapsed load outlives its first caller up to this
	versionTTL  = 24 * time.Hour   // versions only need to outlive in-flight loads
)

type Cache struct {
	RDB    *redis.Client
	Prefix string // prepended to every key
	sf     singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		Prefix: "mz:",
	}
}

func (c *Cache) key(k string) string { return c.Prefix + k }

// versionKey is bumped by Delete; a load only writes back when it is
// unchanged since the load began.
func versionKey(full string) string { return full + ":v" }

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

// GetOrLoad serves key from redis, collapsing concurrent misses into one load.
// The load is detached from the first caller's cancellation so the other
// waiters are not failed by it. A failed redis write is ignored; the loaded
// value is still returned.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	k := c.key(key)
	if b, err := c.RDB.Get(ctx, k).Bytes(); err == nil {
		return b, nil
	}
	v, err, _ := c.sf.Do(k, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		ver, _ := c.RDB.Get(lctx, versionKey(k)).Result()
		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		_ = c.setIfVersion(lctx, k, ver, b, ttl)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// setIfVersion stores b unless an invalidation moved the version after the
// load read it; the stale value is dropped instead of cached.
func (c *Cache) setIfVersion(ctx context.Context, k, ver string, b []byte, ttl time.Duration) error {
	vk := versionKey(k)
	return c.RDB.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, b, ttl)
			return nil
		})
		return err
	}, vk)
}

// Delete drops the keys and bumps their versions so loads already in
// flight do not put the old values back.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range keys {
			k := c.key(key)
			p.Del(ctx, k)
			p.Incr(ctx, versionKey(k))
			p.Expire(ctx, versionKey(k), versionTTL)
		}
		return nil
	})
	return err
}
