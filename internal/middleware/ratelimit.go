package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/conformeahq/conformea/pkg/logger"
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active
	Enabled bool
	// RequestsPerSecond is the allowed requests per second per tenant
	RequestsPerSecond float64
	// BurstSize is the maximum burst size
	BurstSize int
	// CleanupInterval is how often to clean up idle entries
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 50,
		BurstSize:         100,
		CleanupInterval:   time.Minute,
	}
}

// tokenBucket implements a simple token bucket rate limiter.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// rateLimiter stores per-tenant token buckets. Authenticated requests
// are keyed by organization so a noisy tenant cannot starve the others;
// unauthenticated requests fall back to the client IP.
type rateLimiter struct {
	buckets  map[string]*tokenBucket
	mu       sync.RWMutex
	rate     float64
	burst    int
	log      *logger.Logger
	stopChan chan struct{}
}

func newRateLimiter(cfg RateLimitConfig, log *logger.Logger) *rateLimiter {
	rl := &rateLimiter{
		buckets:  make(map[string]*tokenBucket),
		rate:     cfg.RequestsPerSecond,
		burst:    cfg.BurstSize,
		log:      log.WithComponent("rate-limiter"),
		stopChan: make(chan struct{}),
	}

	go rl.cleanup(cfg.CleanupInterval)

	return rl
}

// allow checks if a request under the given key is allowed.
func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = &tokenBucket{
			tokens:     float64(rl.burst),
			lastRefill: time.Now(),
		}
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.lastRefill = now

	bucket.tokens += elapsed * rl.rate
	if bucket.tokens > float64(rl.burst) {
		bucket.tokens = float64(rl.burst)
	}

	if bucket.tokens < 1 {
		return false
	}

	bucket.tokens--
	return true
}

// cleanup removes idle entries periodically.
func (rl *rateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, bucket := range rl.buckets {
				bucket.mu.Lock()
				if now.Sub(bucket.lastRefill) > 5*time.Minute {
					delete(rl.buckets, key)
				}
				bucket.mu.Unlock()
			}
			rl.mu.Unlock()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	close(rl.stopChan)
}

// RateLimit returns a middleware that limits requests per tenant.
func RateLimit(cfg RateLimitConfig, log *logger.Logger) func(next http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	rl := newRateLimiter(cfg, log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := tenantKey(r)

			if !rl.allow(key) {
				rl.log.Warn("rate limit exceeded", "tenant", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error": "rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// tenantKey derives the rate limit key for a request: the organization
// of the authenticated user when present, the client IP otherwise.
func tenantKey(r *http.Request) string {
	if user := GetUser(r.Context()); user != nil {
		return "org:" + user.OrgID.String()
	}
	return "ip:" + clientIP(r)
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	// X-Forwarded-For is set by proxies and load balancers; take the
	// first IP in the chain.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr is in the format "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndexByte(ip, ':'); idx >= 0 {
		return ip[:idx]
	}
	return ip
}
