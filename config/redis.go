package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the token ledger and call event Pub/Sub.
var RedisClient *redis.Client

// InitRedis connects to REDIS_URL (redis:// or rediss://) or a bare REDIS_ADDR.
func InitRedis(ctx context.Context) error {
	opt, err := redisOptions(os.Getenv("REDIS_URL"), os.Getenv("REDIS_ADDR"))
	if err != nil {
		return err
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return err
	}

	RedisClient = client
	return nil
}

func redisOptions(url, addr string) (*redis.Options, error) {
	var opt *redis.Options
	switch {
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opt = parsed
	case url != "":
		opt = &redis.Options{Addr: url}
	case addr != "":
		opt = &redis.Options{Addr: addr}
	default:
		return nil, ErrNotConfigured
	}

	opt.ClientName = "yootranslate"
	// ledger claims sit on the admission path
	opt.DialTimeout = 3 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second
	return opt, nil
}
