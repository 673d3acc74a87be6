package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"

	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// RateLimitConfig is a token bucket refilled at Requests per Window.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS"`
	Window   time.Duration `env:"WINDOW"`
	Burst    int           `env:"BURST"`
}

// Profiles used by the router. Each can be overridden from the environment,
// e.g. RATELIMIT_STRICT_REQUESTS=50 RATELIMIT_STRICT_WINDOW=10s.
var (
	// StrictLimit guards the credential endpoints.
	StrictLimit = RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 10}
	// ModerateLimit guards authenticated writes such as sending invitations.
	ModerateLimit = RateLimitConfig{Requests: 30, Window: time.Minute, Burst: 30}
	// LenientLimit guards authenticated reads.
	LenientLimit = RateLimitConfig{Requests: 120, Window: time.Minute, Burst: 120}
)

func init() {
	StrictLimit = RateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = RateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = RateLimitFromEnv("LENIENT", LenientLimit)
}

// RateLimitFromEnv overlays RATELIMIT_<name>_* variables on def. Invalid or
// non-positive values leave the default in place.
func RateLimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	var cfg RateLimitConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "RATELIMIT_" + name + "_"}); err != nil {
		return def
	}
	if cfg.Requests > 0 {
		def.Requests = cfg.Requests
	}
	if cfg.Window > 0 {
		def.Window = cfg.Window
	}
	if cfg.Burst > 0 {
		def.Burst = cfg.Burst
	}
	return def
}

// KeyExtractor groups requests into buckets. An empty key skips limiting.
type KeyExtractor func(*http.Request) string

// ClientIP returns the originating client address, honouring the first
// X-Forwarded-For hop and then X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserKey returns the authenticated account id, if any.
func UserKey(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok {
		return c.Subject
	}
	return ""
}

// JoinKeys concatenates the non-empty keys of each extractor.
func JoinKeys(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			if k := ex(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, "|")
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}
	return &limiterSet{
		buckets: make(map[string]*bucket),
		every:   rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:   burst,
		idle:    max(cfg.Window*2, time.Minute),
		swept:   time.Now(),
	}
}

// reserve takes a token for key. When none is available it returns false
// and how long until one will be.
func (s *limiterSet) reserve(key string, now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.swept) > s.idle {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idle {
				delete(s.buckets, k)
			}
		}
		s.swept = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.every, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	if b.lim.AllowN(now, 1) {
		return true, 0
	}
	r := b.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// RateLimit rejects requests with 429 once the bucket for their key is
// empty.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	set := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := set.reserve(k, time.Now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := max(int(wait.Round(time.Second).Seconds()), 1)
			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"path", r.URL.Path,
				"retry_after", retry,
			)
			WriteTooManyRequests(w, retry)
		})
	}
}

// WriteTooManyRequests writes the 429 body shared by every limiter.
func WriteTooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
}

func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ClientIP)
}

// RateLimitByUser keys on the account id, falling back to the client IP for
// anonymous requests.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, func(r *http.Request) string {
		if u := UserKey(r); u != "" {
			return "u:" + u
		}
		return "ip:" + ClientIP(r)
	})
}
