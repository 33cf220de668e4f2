package middleware

import (
	"net/http"
	"sync"
	"time"

	"portfolio-backend/internal/transport"

	"golang.org/x/time/rate"
)

const throttleIdle = 10 * time.Minute

// Throttle is a per-IP token bucket for the public submission endpoint.
type Throttle struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*throttleEntry
	swept   time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewThrottle(perMinute, burst int) *Throttle {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*throttleEntry),
	}
}

func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.swept) > throttleIdle {
		for k, e := range t.clients {
			if now.Sub(e.lastSeen) > throttleIdle {
				delete(t.clients, k)
			}
		}
		t.swept = now
	}

	e, ok := t.clients[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			transport.WriteError(w, http.StatusTooManyRequests, "Too many submissions. Please wait a moment and try again.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
