package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf"
)

// CacheConfig defines settings for the response cache middleware. When
// Enabled is false or no Redis client is configured, caching is disabled.
// KeyStrategy determines which parts of the request contribute to the cache
// key; Prefix namespaces the keys.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func cacheConfigFrom(k *koanf.Koanf) CacheConfig {
	ttl := k.Duration("cache_ttl")
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return CacheConfig{
		Enabled:      k.Bool("cache_enabled"),
		Methods:      parseMethods(k.String("cache_methods")),
		TTL:          ttl,
		KeyStrategy:  k.String("cache_key_strategy"),
		Prefix:       k.String("cache_prefix"),
		MaxBodyBytes: k.Int("cache_max_body_bytes"),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
