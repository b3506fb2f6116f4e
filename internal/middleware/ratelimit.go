// ratelimit.go throttles clients with per-key token buckets and answers 429
// once a client runs out of tokens.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/safego"
)

// RateLimitConfig tunes one limiter instance.
type RateLimitConfig struct {
	RequestsPerMinute int           // sustained refill rate
	BurstSize         int           // bucket capacity
	CleanupInterval   time.Duration // how often idle buckets are dropped
}

// DefaultRateLimitConfig suits the authenticated API surface, where a single
// page of the admin UI may fan out into several requests at once.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig keeps login and registration slow enough to frustrate
// credential stuffing.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// bucket is the token-bucket state for one client key.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// refill credits tokens for the time elapsed since the last request, capped at
// the burst capacity.
func (b *bucket) refill(now time.Time, cfg RateLimitConfig) {
	perSecond := float64(cfg.RequestsPerMinute) / 60.0
	b.tokens = min(float64(cfg.BurstSize), b.tokens+now.Sub(b.lastSeen).Seconds()*perSecond)
	b.lastSeen = now
}

// RateLimiter holds a bucket per client key. Buckets idle past ten minutes are
// reaped by a background sweep so the map cannot grow without bound.
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.RWMutex
	buckets map[string]*bucket
	stopCh  chan struct{}
}

// NewRateLimiter builds a limiter and starts its sweep goroutine. Call Stop
// during shutdown to end the sweep.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
	}
	safego.Go("ratelimit-cleanup", rl.cleanup)
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow consumes one token for key, reporting whether the request may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		// First sighting of this client: full bucket minus this request.
		rl.buckets[key] = &bucket{tokens: float64(rl.config.BurstSize) - 1, lastSeen: now}
		return true
	}

	b.refill(now, rl.config)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RemainingTokens reports how many requests key has left right now, without
// consuming anything.
func (rl *RateLimiter) RemainingTokens(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[key]
	if !ok {
		return rl.config.BurstSize
	}
	perSecond := float64(rl.config.RequestsPerMinute) / 60.0
	current := min(float64(rl.config.BurstSize), b.tokens+time.Since(b.lastSeen).Seconds()*perSecond)
	return int(current)
}

// RateLimitMiddleware gates requests through the limiter, exposing the usual
// X-RateLimit headers and a Retry-After on rejection.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingTokens(key)))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingTokens(key)))
		c.Next()
	}
}

// clientKey buckets authenticated callers by user id so a shared NAT does not
// starve colleagues of each other's quota; anonymous callers fall back to IP.
func clientKey(c *gin.Context) string {
	if userID, exists := c.Get(ContextUserID); exists {
		if id, ok := userID.(string); ok && id != "" {
			return "user:" + id
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
