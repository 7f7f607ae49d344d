// Package ratelimit caps per-client request rates with a fixed window.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

type clientWindow struct {
	windowStart time.Time
	requests    int
}

// Limiter allows a number of requests per client per minute. Stale client
// entries are dropped by a background sweep.
type Limiter struct {
	mu                sync.Mutex
	clients           map[string]*clientWindow
	requestsPerMinute int
	stop              chan struct{}
	stopOnce          sync.Once
}

func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	l := &Limiter{
		clients:           make(map[string]*clientWindow),
		requestsPerMinute: requestsPerMinute,
		stop:              make(chan struct{}),
	}
	go l.sweep(5 * time.Minute)
	return l
}

// Allow reports whether a request from the client fits its current window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[clientIP]
	if !ok || now.Sub(c.windowStart) > time.Minute {
		l.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}
	c.requests++
	return c.requests <= l.requestsPerMinute
}

// Middleware responds 429 to clients over their limit.
func (l *Limiter) Middleware(clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * time.Minute)
			l.mu.Lock()
			for ip, c := range l.clients {
				if c.windowStart.Before(cutoff) {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Shutdown stops the background sweep.
func (l *Limiter) Shutdown() {
	l.stopOnce.Do(func() { close(l.stop) })
}
