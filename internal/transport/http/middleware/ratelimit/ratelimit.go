// Package ratelimit throttles callers of the chat and token endpoints with a
// per-key token bucket refilled continuously over one minute.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/grokway/internal/types"
)

// idleAfter drops buckets whose owner has been quiet this long; a dropped
// bucket comes back full, as it would have refilled anyway.
const idleAfter = 10 * time.Minute

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// Limiter tracks rate limits per API key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether keyID may make another request under perMinute.
// perMinute <= 0 means unlimited.
func (l *Limiter) Allow(keyID string, perMinute int) bool {
	ok, _ := l.take(keyID, perMinute)
	return ok
}

// take consumes one token. When none is left it returns how long until one is.
func (l *Limiter) take(keyID string, perMinute int) (bool, time.Duration) {
	if perMinute <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	capacity := float64(perMinute)
	b, ok := l.buckets[keyID]
	if !ok {
		b = &bucket{tokens: capacity, lastFill: now}
		l.buckets[keyID] = b
	}

	perSecond := capacity / 60
	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.lastFill).Seconds()*perSecond)
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / perSecond * float64(time.Second))
	return false, wait
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for id, b := range l.buckets {
		if now.Sub(b.lastFill) >= idleAfter {
			delete(l.buckets, id)
		}
	}
}

// Middleware returns an HTTP middleware that allows perMinute requests per
// caller. Must be used after APIKeyAuth middleware (needs key in context).
func Middleware(limiter *Limiter, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := auth.GetAPIKey(r.Context())
			if key == nil {
				next.ServeHTTP(w, r)
				return
			}

			if ok, wait := limiter.take(key.ID, perMinute); !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				types.WriteError(w, http.StatusTooManyRequests, types.ErrRateLimit("rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
