// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter decides whether one more attempt for key fits in the window.
type Counter interface {
	Allow(ctx context.Context, key string) bool
	Reset(ctx context.Context, key string)
}

// Limiter is an in-process fixed-window counter. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New returns a limiter allowing limit attempts per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow implements Counter.
func (l *Limiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset implements Counter.
func (l *Limiter) Reset(_ context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops expired windows; must be called with mu held.
func (l *Limiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, k)
		}
	}
}

// RedisLimiter is a fixed-window counter shared by every instance using the
// same Redis. On Redis errors it fails open and logs.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	limit    int
	duration time.Duration
	log      *zap.Logger
}

// NewRedis returns a Redis-backed limiter. Keys are stored under prefix.
func NewRedis(client *redis.Client, prefix string, limit int, duration time.Duration, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, duration: duration, log: log}
}

// incrWindow bumps the counter and gives it a TTL in one step. A key found
// without a TTL gets one too, so no counter outlives its window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Allow implements Counter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	n, err := incrWindow.Run(ctx, l.client, []string{l.prefix + key}, l.duration.Milliseconds()).Int64()
	if err != nil {
		l.log.Warn("rate limit check failed; allowing", zap.Error(err))
		return true
	}
	return n <= int64(l.limit)
}

// Reset implements Counter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		l.log.Warn("rate limit reset failed", zap.Error(err))
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter limits sign-in and sign-up attempts per client IP and per
// email.
type LoginLimiter struct {
	ip    Counter
	email Counter
}

// NewLoginLimiter combines an IP counter and an email counter.
func NewLoginLimiter(ip, email Counter) *LoginLimiter {
	return &LoginLimiter{ip: ip, email: email}
}

// Check reports whether the attempt may proceed, and why not.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	ctx := r.Context()
	if !ll.ip.Allow(ctx, "ip:"+ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !ll.email.Allow(ctx, "email:"+key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the email counter after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(ctx context.Context, email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(ctx, "email:"+key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
