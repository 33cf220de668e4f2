package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"portfolio-backend/internal/transport"

	"github.com/redis/go-redis/v9"
)

const redisGuardTimeout = 500 * time.Millisecond

// LoginGuard counts failed logins per client IP and locks the IP out once the
// limit is reached inside the window. With Redis attached the counters are
// shared by every instance; Redis errors fall back to the in-process counter.
type LoginGuard struct {
	limit   int
	window  time.Duration
	lockout time.Duration
	now     func() time.Time

	redis  *redis.Client
	prefix string

	mu      sync.Mutex
	clients map[string]*loginState
	swept   time.Time
}

type loginState struct {
	failures    []time.Time
	lockedUntil time.Time
}

func NewLoginGuard(limit int, window, lockout time.Duration) *LoginGuard {
	return &LoginGuard{
		limit:   limit,
		window:  window,
		lockout: lockout,
		now:     time.Now,
		clients: make(map[string]*loginState),
	}
}

// WithRedis keeps attempt counters under prefix in Redis.
func (g *LoginGuard) WithRedis(client *redis.Client, prefix string) *LoginGuard {
	g.redis = client
	g.prefix = prefix
	return g
}

// Locked reports whether key is locked out and for how long.
func (g *LoginGuard) Locked(ctx context.Context, key string) (bool, time.Duration) {
	if g.redis != nil {
		if locked, wait, err := g.redisLocked(ctx, key); err == nil {
			return locked, wait
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.clients[key]
	if !ok {
		return false, 0
	}
	now := g.now()
	if now.Before(st.lockedUntil) {
		return true, st.lockedUntil.Sub(now)
	}
	return false, 0
}

func (g *LoginGuard) Fail(ctx context.Context, key string) {
	if g.redis != nil && g.redisFail(ctx, key) == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	st, ok := g.clients[key]
	if !ok {
		st = &loginState{}
		g.clients[key] = st
	}

	cutoff := now.Add(-g.window)
	kept := st.failures[:0]
	for _, at := range st.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	st.failures = append(kept, now)

	if len(st.failures) >= g.limit {
		st.lockedUntil = now.Add(g.lockout)
		st.failures = nil
	}
}

func (g *LoginGuard) Reset(ctx context.Context, key string) {
	if g.redis != nil {
		rctx, cancel := context.WithTimeout(ctx, redisGuardTimeout)
		_ = g.redis.Del(rctx, g.failKey(key), g.lockKey(key)).Err()
		cancel()
	}
	g.mu.Lock()
	delete(g.clients, key)
	g.mu.Unlock()
}

// Tracked is the number of clients held in process memory.
func (g *LoginGuard) Tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// sweep drops clients with no live lock and no failure inside the window.
// Caller holds g.mu.
func (g *LoginGuard) sweep(now time.Time) {
	if now.Sub(g.swept) < g.window {
		return
	}
	cutoff := now.Add(-g.window)
	for k, st := range g.clients {
		if now.Before(st.lockedUntil) {
			continue
		}
		if n := len(st.failures); n > 0 && st.failures[n-1].After(cutoff) {
			continue
		}
		delete(g.clients, k)
	}
	g.swept = now
}

func (g *LoginGuard) failKey(key string) string { return g.prefix + "fail:" + key }
func (g *LoginGuard) lockKey(key string) string { return g.prefix + "lock:" + key }

func (g *LoginGuard) redisLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, redisGuardTimeout)
	defer cancel()

	ttl, err := g.redis.PTTL(ctx, g.lockKey(key)).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

// redisFail counts failures in a window opened by the first failure.
func (g *LoginGuard) redisFail(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisGuardTimeout)
	defer cancel()

	n, err := g.redis.Incr(ctx, g.failKey(key)).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		if err := g.redis.PExpire(ctx, g.failKey(key), g.window).Err(); err != nil {
			return err
		}
	}
	if n < int64(g.limit) {
		return nil
	}
	_, err = g.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, g.lockKey(key), "1", g.lockout)
		pipe.Del(ctx, g.failKey(key))
		return nil
	})
	return err
}

// Middleware records the wrapped login handler's outcome: 401 counts as a
// failure, any 2xx clears the client's history.
func (g *LoginGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if locked, wait := g.Locked(r.Context(), key); locked {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			transport.WriteError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.", nil)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		switch code := rec.code(); {
		case code == http.StatusUnauthorized:
			g.Fail(r.Context(), key)
		case code >= 200 && code < 300:
			g.Reset(r.Context(), key)
		}
	})
}

// clientIP is the peer address of the connection. Forwarding headers are
// only honoured through chi's RealIP, which the server installs when
// TRUST_PROXY is set.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
