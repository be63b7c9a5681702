package httpx

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Quota is the state of one client's window after a request was counted.
type Quota struct {
	Limit     int
	Remaining int
	// Reset is how long until the window starts over.
	Reset time.Duration
}

func (q Quota) Allowed() bool { return q.Remaining >= 0 }

// Limiter counts one request for key and reports the resulting quota.
type Limiter interface {
	Take(ctx context.Context, key string) (Quota, error)
}

// RateLimitOptions tunes WithRateLimit.
type RateLimitOptions struct {
	// FailOpen passes requests through when the limiter itself fails
	// instead of answering 503.
	FailOpen bool
	// TrustProxy keys requests by the first X-Forwarded-For hop. Only set it
	// when a proxy that overwrites the header fronts the service.
	TrustProxy bool
}

// WithRateLimit keys requests by client address and advertises the quota in
// RateLimit-* headers.
func WithRateLimit(l Limiter, logger *slog.Logger, opts RateLimitOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q, err := l.Take(r.Context(), clientKey(r, opts.TrustProxy))
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "rate limiter error", "err", err, "request_id", RequestIDFromContext(r.Context()))
				}
				if opts.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteMessage(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
				return
			}

			reset := strconv.Itoa(int(math.Ceil(q.Reset.Seconds())))
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(q.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(max(q.Remaining, 0)))
			h.Set("RateLimit-Reset", reset)
			if !q.Allowed() {
				h.Set("Retry-After", reset)
				WriteMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MemoryRateLimiter keeps fixed windows in process memory. Replicas do not
// share counts, so it is only suitable for a single instance.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]memWindow
}

type memWindow struct {
	hits    int
	expires time.Time
}

const memoryLimiterSweepAt = 10000

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	limit, window = limiterDefaults(limit, window)
	return &MemoryRateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]memWindow),
	}
}

func limiterDefaults(limit int, window time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}

func (rl *MemoryRateLimiter) Take(_ context.Context, key string) (Quota, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, ok := rl.windows[key]
	if !ok || !now.Before(win.expires) {
		if len(rl.windows) >= memoryLimiterSweepAt {
			rl.sweep(now)
		}
		win = memWindow{expires: now.Add(rl.window)}
	}
	win.hits++
	rl.windows[key] = win
	return Quota{Limit: rl.limit, Remaining: rl.limit - win.hits, Reset: win.expires.Sub(now)}, nil
}

func (rl *MemoryRateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if !now.Before(w.expires) {
			delete(rl.windows, k)
		}
	}
}

// clientKey is the peer address, or the first X-Forwarded-For hop when the
// proxy in front is trusted.
func clientKey(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
