package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ouija/woocommerce-gateway-payza/internal/http/response"
)

// Limiter decides whether a request identified by key may proceed under a
// fixed-window policy.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type FailureMode string

const (
	// FailOpen lets traffic through when the limiter backend is
	// unavailable. Used for the checkout surface: a redis outage must not
	// block shoppers from paying.
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type fixedWindow struct {
	count       int
	windowStart time.Time
}

type localFixedWindowLimiter struct {
	mu    sync.Mutex
	store map[string]*fixedWindow
}

func NewLocalFixedWindowLimiter() Limiter {
	return &localFixedWindowLimiter{store: make(map[string]*fixedWindow)}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.store[key]
	if !ok || now.Sub(w.windowStart) >= window {
		l.store[key] = &fixedWindow{count: 1, windowStart: now}
		l.evictStale(now, window)
		return true, 0, nil
	}
	if w.count < limit {
		w.count++
		return true, 0, nil
	}
	return false, window - now.Sub(w.windowStart), nil
}

func (l *localFixedWindowLimiter) evictStale(now time.Time, window time.Duration) {
	if len(l.store) < 4096 {
		return
	}
	for key, w := range l.store {
		if now.Sub(w.windowStart) >= window {
			delete(l.store, key)
		}
	}
}

type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	mode    FailureMode
	keyFunc func(r *http.Request) string
}

func NewRateLimiter(limiter Limiter, limit int, window time.Duration, mode FailureMode) *RateLimiter {
	if limiter == nil {
		limiter = NewLocalFixedWindowLimiter()
	}
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		mode:    mode,
		keyFunc: clientIPKey,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter, err := rl.limiter.Allow(r.Context(), rl.keyFunc(r), rl.limit, rl.window)
		if err != nil {
			if rl.mode == FailOpen {
				next.ServeHTTP(w, r)
				return
			}
			response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "rate limiter unavailable", nil)
			return
		}
		if !allowed {
			seconds := int(retryAfter / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return fmt.Sprintf("ip:%s", host)
}
