package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

// WindowCounter counts hits for key within a fixed window starting at the first hit.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	counter WindowCounter
	scope   string
	limit   int64
	window  time.Duration
}

func NewRateLimiter(counter WindowCounter, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		scope:   scope,
		limit:   int64(limit),
		window:  window,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + rl.scope + ":" + clientIP(r)

		count, err := rl.counter.Hit(r.Context(), key, rl.window)
		if err != nil {
			log.Printf("rate limiter: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count int64
	start time.Time
}

// MemoryCounter is a process-local WindowCounter.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*window), now: time.Now}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, d time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, w := range c.windows {
		if now.Sub(w.start) > d {
			delete(c.windows, k)
		}
	}

	w, ok := c.windows[key]
	if !ok {
		w = &window{start: now}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}
