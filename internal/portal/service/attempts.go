package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxLoginFailures = 5
	DefaultLockoutWindow    = 15 * time.Minute
)

// AttemptLimiter counts failed logins per key inside a fixed window.
type AttemptLimiter interface {
	// Locked reports how long key remains locked, or zero.
	Locked(ctx context.Context, key string) (time.Duration, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type attemptWindow struct {
	failures int
	start    time.Time
}

// MemoryAttempts keeps counters in process. Counters are lost on restart and
// are not shared between replicas.
type MemoryAttempts struct {
	Max    int
	Window time.Duration
	Now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*attemptWindow
	lastPrune time.Time
}

func NewMemoryAttempts(maxFailures int, window time.Duration) *MemoryAttempts {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxLoginFailures
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &MemoryAttempts{
		Max:     maxFailures,
		Window:  window,
		Now:     time.Now,
		windows: make(map[string]*attemptWindow),
	}
}

func (m *MemoryAttempts) current(key string, now time.Time) *attemptWindow {
	w, ok := m.windows[key]
	if ok && now.Sub(w.start) >= m.Window {
		delete(m.windows, key)
		return nil
	}
	return w
}

func (m *MemoryAttempts) Locked(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	w := m.current(key, now)
	if w == nil || w.failures < m.Max {
		return 0, nil
	}
	return w.start.Add(m.Window).Sub(now), nil
}

// prune drops every elapsed window, at most once per Window, so keys that
// never come back do not accumulate.
func (m *MemoryAttempts) prune(now time.Time) {
	if now.Sub(m.lastPrune) < m.Window {
		return
	}
	m.lastPrune = now
	for key, w := range m.windows {
		if now.Sub(w.start) >= m.Window {
			delete(m.windows, key)
		}
	}
}

func (m *MemoryAttempts) Fail(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	m.prune(now)
	if w := m.current(key, now); w != nil {
		w.failures++
		return nil
	}
	m.windows[key] = &attemptWindow{failures: 1, start: now}
	return nil
}

func (m *MemoryAttempts) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// RedisAttempts shares counters between replicas. The window starts at the
// first failure and the key expires with it. Redis errors fail open.
type RedisAttempts struct {
	Client *redis.Client
	Max    int
	Window time.Duration
	Prefix string
	Logger *slog.Logger
}

func NewRedisAttempts(client *redis.Client, maxFailures int, window time.Duration, logger *slog.Logger) *RedisAttempts {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxLoginFailures
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &RedisAttempts{Client: client, Max: maxFailures, Window: window, Prefix: "portal:login:", Logger: logger}
}

var failScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

func (r *RedisAttempts) Locked(ctx context.Context, key string) (time.Duration, error) {
	k := r.Prefix + key
	n, err := r.Client.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		r.Logger.Warn("login attempt lookup failed, allowing", "error", err)
		return 0, nil
	}
	if n < r.Max {
		return 0, nil
	}

	ttl, err := r.Client.PTTL(ctx, k).Result()
	if err != nil || ttl <= 0 {
		return r.Window, nil
	}
	return ttl, nil
}

func (r *RedisAttempts) Fail(ctx context.Context, key string) error {
	err := failScript.Run(ctx, r.Client, []string{r.Prefix + key}, r.Window.Milliseconds()).Err()
	if err != nil {
		r.Logger.Warn("login attempt record failed", "error", err)
	}
	return nil
}

func (r *RedisAttempts) Reset(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.Prefix+key).Err(); err != nil {
		r.Logger.Warn("login attempt reset failed", "error", err)
	}
	return nil
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
