package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"github.com/sangkips/sales-api/pkg/apperror"
	"golang.org/x/time/rate"
)

// ClientRateLimiter limits requests per client IP
type ClientRateLimiter struct {
	limiters    map[string]*rateLimiterEntry
	mu          sync.Mutex
	rate        rate.Limit // requests per second
	burst       int
	cleanupTick time.Duration
	entryTTL    time.Duration
	now         func() time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration // how often stale entries are dropped
	EntryTTL          time.Duration // how long an idle client is remembered
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	}
}

// RateLimiterConfigFrom spreads requests evenly over a window of seconds.
func RateLimiterConfigFrom(requests, windowSeconds int) RateLimiterConfig {
	cfg := DefaultRateLimiterConfig()
	if requests > 0 && windowSeconds > 0 {
		cfg.RequestsPerSecond = float64(requests) / float64(windowSeconds)
		cfg.BurstSize = requests
	}
	return cfg
}

// NewClientRateLimiter creates a limiter. Stale entries are only dropped
// while Run is active.
func NewClientRateLimiter(cfg RateLimiterConfig) *ClientRateLimiter {
	return &ClientRateLimiter{
		limiters:    make(map[string]*rateLimiterEntry),
		rate:        rate.Limit(cfg.RequestsPerSecond),
		burst:       cfg.BurstSize,
		cleanupTick: cfg.CleanupInterval,
		entryTTL:    cfg.EntryTTL,
		now:         time.Now,
	}
}

func (rl *ClientRateLimiter) getLimiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[client]; ok {
		entry.lastSeen = rl.now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[client] = &rateLimiterEntry{limiter: limiter, lastSeen: rl.now()}
	return limiter
}

// Run drops idle clients every cleanup interval until ctx is done.
func (rl *ClientRateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *ClientRateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := rl.now().Add(-rl.entryTTL)
	for client, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, client)
			removed++
		}
	}
	return removed
}

// Middleware returns a Gin middleware that applies per-client rate limiting
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(rl.burst)
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.ClientIP())

		c.Header("X-RateLimit-Limit", limit)
		if !limiter.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			response.Error(c, apperror.ErrTooManyRequest)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		c.Next()
	}
}

func (rl *ClientRateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
