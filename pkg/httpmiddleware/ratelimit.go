package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket limiter.
type RateLimitConfig struct {
	// Max is the bucket size: the number of requests a client may burst,
	// refilled evenly over Window.
	Max int
	// Window is the time it takes to refill an empty bucket.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the client IP address is used.
	KeyFunc func(*http.Request) string
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	cfg   RateLimitConfig
	limit rate.Limit

	mu      sync.Mutex
	clients map[string]*client
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultKeyFunc
	}
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &rateLimiter{
		cfg:     cfg,
		limit:   rate.Limit(float64(cfg.Max) / cfg.Window.Seconds()),
		clients: make(map[string]*client),
	}
}

// allow takes a token for key. It returns the tokens left, the time the
// next token becomes available and whether the request may proceed.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.cfg.Max)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	allowed = c.limiter.AllowN(now, 1)
	tokens := c.limiter.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	remaining = int(math.Floor(tokens))

	resetAt = now
	if tokens < 1 {
		wait := (1 - tokens) / float64(rl.limit)
		resetAt = now.Add(time.Duration(wait * float64(time.Second)))
	}
	return remaining, resetAt, allowed
}

// cleanup drops clients idle for longer than a window; their buckets are
// full again by then.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.cfg.Window {
			delete(rl.clients, key)
		}
	}
}

func (rl *rateLimiter) startCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(2 * rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now)
			}
		}
	}()
}

// RateLimit returns a middleware that enforces a per-key token bucket. When
// the bucket is empty it responds with 429 Too Many Requests and a JSON
// body. Every response includes X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimitMiddleware(newRateLimiter(cfg))
}

// RateLimitWithCleanup is like RateLimit but also evicts idle clients in the
// background until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	rl.startCleanup(ctx)
	return rateLimitMiddleware(rl)
}

func rateLimitMiddleware(rl *rateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			remaining, resetAt, allowed := rl.allow(rl.cfg.KeyFunc(r), now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := resetAt.Sub(now)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes the {"code","message"} error body used by the API.
func writeError(w http.ResponseWriter, code int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// defaultKeyFunc extracts the client IP from the request, checking
// X-Forwarded-For first, then X-Real-IP, then falling back to RemoteAddr.
func defaultKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
