package db

import (
	"context"
	"errors"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/redis/go-redis/v9"
)

var _ caches.Cacher = (*redisCacher)(nil)

// Reset lookups are short lived; cached rows expire well inside the cooldown window.
const redisCacheTTL = 30 * time.Second

type redisCacher struct {
	rdb *redis.Client
}

func (c *redisCacher) Get(ctx context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	res, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := q.Unmarshal(res); err != nil {
		return nil, err
	}

	return q, nil
}

func (c *redisCacher) Store(ctx context.Context, key string, val *caches.Query[any]) error {
	res, err := val.Marshal()
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, res, redisCacheTTL).Err()
}

func (c *redisCacher) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, caches.IdentifierPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}
