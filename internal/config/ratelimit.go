package config

import (
	"time"

	"github.com/knadh/koanf"
)

// RateLimitConfig drives both the Redis token bucket and the in-process
// fallback limiter.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func rateLimitConfigFrom(k *koanf.Koanf) RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        k.Bool("rate_limit_enabled"),
		Capacity:       k.Int("rate_limit_capacity"),
		RefillTokens:   k.Int("rate_limit_refill_tokens"),
		RefillInterval: k.Duration("rate_limit_refill_interval"),
		TTL:            k.Duration("rate_limit_ttl"),
		KeyStrategy:    k.String("rate_limit_key_strategy"),
		Prefix:         k.String("rate_limit_prefix"),
		Debug:          k.Bool("rate_limit_debug"),
	}
	if b := k.Int("rate_limit_burst"); b > 0 {
		rl.Capacity = b
	}
	if every := k.Duration("rate_limit_refill_every"); every > 0 {
		rl.RefillTokens = 1
		rl.RefillInterval = every
	}
	return rl.normalized()
}

func (rl RateLimitConfig) normalized() RateLimitConfig {
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	// keep state at least a few refill intervals so buckets don't reset early
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl
}
