package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
	pkgredis "github.com/AminArria/sponsorly/pkg/redis"
	"github.com/AminArria/sponsorly/pkg/response"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Rate limit per second per client IP (0 = unlimited)
	RequestsPerSecond int
	// Burst size (token bucket capacity)
	BurstSize int
	// RedisClient shares buckets across instances when set
	RedisClient *pkgredis.Client
	// Key prefix for Redis
	KeyPrefix string
	// Cleanup interval for local rate limiter
	CleanupInterval time.Duration
	// Entry TTL for local rate limiter
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns defaults for the public read endpoints
func DefaultRateLimitConfig(requestsPerSecond int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         max(1, requestsPerSecond*2),
		KeyPrefix:         "ratelimit:",
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	}
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// rateLimitEntry tracks rate limit state for one client
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// LocalRateLimiter implements in-memory token bucket rate limiting
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time

	totalAllowed  atomic.Uint64
	totalRejected atomic.Uint64
}

// NewLocalRateLimiter creates a limiter and starts its cleanup loop
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = time.Minute
	}
	rl := &LocalRateLimiter{
		config: config,
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go rl.cleanup()
	return rl
}

// Allow takes one token from key's bucket
func (rl *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()

	entry, _ := rl.entries.LoadOrStore(key, &rateLimitEntry{
		tokens:     float64(rl.config.BurstSize),
		lastUpdate: now,
	})
	e := entry.(*rateLimitEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.lastUpdate).Seconds()
	e.tokens = min(float64(rl.config.BurstSize), e.tokens+elapsed*float64(rl.config.RequestsPerSecond))
	e.lastUpdate = now

	if e.tokens >= 1 {
		e.tokens--
		rl.totalAllowed.Add(1)
		return true, nil
	}
	rl.totalRejected.Add(1)
	return false, nil
}

// GetStats returns rate limiter statistics
func (rl *LocalRateLimiter) GetStats() (allowed, rejected uint64) {
	return rl.totalAllowed.Load(), rl.totalRejected.Load()
}

// cleanup periodically removes stale entries
func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.now().Add(-rl.config.EntryTTL)
			rl.entries.Range(func(key, value any) bool {
				e := value.(*rateLimitEntry)
				e.mu.Lock()
				if e.lastUpdate.Before(cutoff) {
					rl.entries.Delete(key)
				}
				e.mu.Unlock()
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

const tokenBucketScriptName = "rate_limit_token_bucket"

// tokenBucketScript refills and takes one token atomically.
// Returns {allowed, remaining tokens}.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, math.floor(tokens)}
`

// RedisRateLimiter implements a token bucket shared through Redis
type RedisRateLimiter struct {
	config RateLimitConfig
	client *pkgredis.Client
}

// NewRedisRateLimiter registers the token bucket script
func NewRedisRateLimiter(ctx context.Context, config RateLimitConfig) (*RedisRateLimiter, error) {
	if config.RedisClient == nil {
		return nil, fmt.Errorf("redis rate limiter: client is required")
	}
	if _, err := config.RedisClient.LoadScript(ctx, tokenBucketScriptName, tokenBucketScript); err != nil {
		return nil, err
	}
	return &RedisRateLimiter{config: config, client: config.RedisClient}, nil
}

// Allow takes one token from key's bucket in Redis
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	values, err := rl.client.EvalShaByName(ctx, tokenBucketScriptName,
		[]string{rl.config.KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstSize,
		now,
	).Int64Slice()
	if err != nil {
		return false, err
	}
	if len(values) < 1 {
		return false, fmt.Errorf("unexpected result length")
	}
	return values[0] == 1, nil
}

// RateLimiter creates a per-client rate limiting middleware. Limiter
// errors let the request through.
func RateLimiter(config RateLimitConfig, limiter Limiter) gin.HandlerFunc {
	limit := strconv.Itoa(config.RequestsPerSecond)

	return func(c *gin.Context) {
		if config.RequestsPerSecond <= 0 {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Get().WarnContext(c.Request.Context(), "rate limiter unavailable, allowing request", zap.Error(err))
			allowed = true
		}

		c.Header("X-RateLimit-Limit", limit)
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.TooManyRequests("Rate limit exceeded. Please retry after 1 second(s)."))
			return
		}

		c.Next()
	}
}
