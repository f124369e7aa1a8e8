package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	used    int
	resetAt time.Time
}

// limiter counts requests per key in fixed windows. Expired windows are swept at
// most once per period so a busy endpoint does not walk the whole map per request.
type limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

func newLimiter(limit int, period time.Duration) *limiter {
	return &limiter{limit: limit, period: period, now: time.Now, windows: map[string]*window{}}
}

// take consumes one request for key. It reports whether the request is allowed,
// how many remain in the window and when the window resets.
func (l *limiter) take(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.period)
	}

	w := l.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	if w.used >= l.limit {
		return false, 0, w.resetAt
	}
	w.used++
	return true, l.limit - w.used, w.resetAt
}

// RateLimit allows limit requests per period for each requester. Authenticated
// requests are keyed by user id, anonymous ones by client IP. A non-positive limit
// disables the check.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(limit, period)
	return func(next http.Handler) http.Handler {
		return l.middleware(next)
	}
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, resetAt := l.take(requesterKey(r))
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		wait := int(math.Ceil(resetAt.Sub(l.now()).Seconds()))
		if wait < 1 {
			wait = 1
		}
		h.Set("Content-Type", "application/json")
		h.Set("Retry-After", strconv.Itoa(wait))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "rate_limited", "message": "too many requests"},
		})
	})
}

func requesterKey(r *http.Request) string {
	if user := UserIDFromContext(r.Context()); user != "" {
		return "user:" + user
	}
	return "ip:" + ClientIP(r)
}
