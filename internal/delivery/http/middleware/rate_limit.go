package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bakery-backend/pkg/utils"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token buckets.
type RateLimitConfig struct {
	RPS           float64
	Burst         int
	CleanupPeriod time.Duration
	ClientTTL     time.Duration
	// ExemptPaths bypass limiting, e.g. load balancer health checks.
	ExemptPaths []string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP, keyed the same way the
// request logger reports the IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	exempt  map[string]struct{}
	buckets map[string]*bucket
	mu      sync.Mutex
	now     func() time.Time
	cancel  context.CancelFunc
}

// NewRateLimiter starts the stale-bucket sweeper; call Shutdown to stop it.
func NewRateLimiter(ctx context.Context, cfg RateLimitConfig) *RateLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = time.Minute
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = 3 * time.Minute
	}

	rl := &RateLimiter{
		cfg:     cfg,
		exempt:  make(map[string]struct{}, len(cfg.ExemptPaths)),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	for _, p := range cfg.ExemptPaths {
		rl.exempt[p] = struct{}{}
	}

	ctx, rl.cancel = context.WithCancel(ctx)
	go rl.sweep(ctx)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := rl.exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if wait, ok := rl.take(getClientIP(r)); !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				utils.WriteErrorCode(w, http.StatusTooManyRequests, "Too Many Requests", "RATE_LIMITED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// take consumes one token for key. When none is available it returns how
// long until one would be, without holding a reservation.
func (rl *RateLimiter) take(key string) (time.Duration, bool) {
	now := rl.now()
	limiter := rl.bucketFor(key, now)

	res := limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Second, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictStale()
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.ClientTTL)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}

// ClientCount reports how many clients are currently tracked.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// retryAfter renders whole seconds, at least 1.
func retryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
