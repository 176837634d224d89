package config

// Redis backs the distributed rate limiter and the catalogue response
// cache. If the server cannot be reached at startup NewRedisClient returns
// nil and callers degrade: caching is skipped and rate limiting falls back to
// an in-process limiter.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/knadh/koanf"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for Redis.
type RedisConfig struct {
	Addr     string // host:port; REDIS_HOST/REDIS_PORT override when both set
	Password string
	DB       int
	TLS      bool
}

func redisConfigFrom(k *koanf.Koanf) RedisConfig {
	addr := k.String("redis_addr")
	if host, port := k.String("redis_host"), k.String("redis_port"); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: k.String("redis_password"),
		DB:       k.Int("redis_db"),
		TLS:      k.Bool("redis_tls"),
	}
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout. The returned client is nil if the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
