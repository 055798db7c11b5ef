package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/penshort/budgetdesk/internal/cache"
)

const (
	localLimiterIdle  = 10 * time.Minute
	localSweepEvery   = 5 * time.Minute
	defaultRetryAfter = time.Second
)

// IPLimiter decides whether a client IP may make another request.
type IPLimiter interface {
	Allow(ctx context.Context, ip string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a token bucket shared by every API instance.
type RedisLimiter struct {
	Cache     *cache.Cache
	PerMinute int
	Burst     int
}

// Allow consumes one token for ip.
func (l *RedisLimiter) Allow(ctx context.Context, ip string) (bool, time.Duration, error) {
	result, err := l.Cache.CheckIPRateLimit(ctx, ip, l.PerMinute, l.Burst)
	if err != nil {
		return false, 0, err
	}
	return result.Allowed, result.RetryAfter, nil
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-process token bucket per IP, used when Redis is not
// configured. Idle entries are swept inline.
type LocalLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	r         rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows perMinute requests per minute with the given burst.
func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	return &LocalLimiter{
		limiters:  make(map[string]*ipLimiter),
		r:         rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow consumes one token for ip.
func (l *LocalLimiter) Allow(ctx context.Context, ip string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > localSweepEvery {
		for key, v := range l.limiters {
			if now.Sub(v.lastSeen) > localLimiterIdle {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.limiters[ip]
	if !ok {
		v = &ipLimiter{limiter: rate.NewLimiter(l.r, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	res := v.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, defaultRetryAfter, nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// RateLimitConfig holds configuration for the per-IP limiter.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter IPLimiter
	Enabled bool
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Limiter errors fail open.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			allowed, retryAfter, err := cfg.Limiter.Allow(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("rate_limit_check_failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				seconds := int(retryAfter.Round(time.Second).Seconds())
				if seconds < 1 {
					seconds = 1
				}
				cfg.Logger.Warn("rate_limit_exceeded",
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", seconds),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please slow down.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
