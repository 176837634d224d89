package middleware

import (
	"math"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/iliyamo/cloudlab/internal/config"
)

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// localLimiter keeps one x/time/rate limiter per key. Buckets idle for
// longer than the configured TTL are dropped on the next sweep.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	lastGC  time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	per := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
	return &localLimiter{
		buckets: make(map[string]*localBucket),
		limit:   rate.Every(per),
		burst:   cfg.Capacity,
		ttl:     cfg.TTL,
		lastGC:  time.Now(),
	}
}

func (l *localLimiter) reserve(key string, now time.Time) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.ttl {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.ttl {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}

	b, found := l.buckets[key]
	if !found {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	r := b.lim.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// NewLocalLimiter limits requests in process memory. It serves single
// instance deployments and the case where Redis is unreachable at startup.
func NewLocalLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return passthrough
	}
	l := newLocalLimiter(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := l.reserve(buildRateKey(cfg, c), time.Now())
			if !ok {
				return tooManyRequests(c, int(math.Ceil(wait.Seconds())))
			}
			return next(c)
		}
	}
}
