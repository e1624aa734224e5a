package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLedger struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLedger(rdb *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "admission:redeemed:"
	}
	return &RedisLedger{rdb: rdb, prefix: prefix}
}

func (l *RedisLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return l.rdb.SetNX(ctx, l.prefix+key, time.Now().UTC().Unix(), ttl).Result()
}
