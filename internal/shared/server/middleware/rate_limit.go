package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"teamsync-backend/internal/shared/telemetry"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule is a token bucket: Rate tokens per second, up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// Limiter decides whether key may proceed under rule.
type Limiter interface {
	Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration)
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      Limiter
}

// RateLimit rejects requests over the per-principal budget of their group with 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewMemoryLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok || rule.Rate <= 0 || rule.Burst <= 0 {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		allowed, retryAfter := cfg.Limiter.Allow(c.Request.Context(), principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "rate_limited",
				"message": "too many requests",
			},
			"retryAfterMs": retryAfterMs,
		})
	}
}

// MemoryLimiter keeps one x/time/rate limiter per key in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		now:      now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RedisLimiter counts requests in fixed windows shared by every API replica.
// Redis errors fail open.
type RedisLimiter struct {
	Client *redis.Client
	Window time.Duration
	Prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{Client: client, Window: time.Second, Prefix: "teamsync:rate_limit", now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.Client == nil {
		return true, 0
	}
	window := l.Window
	if window <= 0 {
		window = time.Second
	}
	limit := int64(math.Max(float64(rule.Burst), math.Ceil(rule.Rate*window.Seconds())))
	now := l.now()
	slot := now.UnixNano() / int64(window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.Prefix, key, slot)

	count, err := l.Client.Incr(ctx, redisKey).Result()
	if err != nil {
		telemetry.Warn("rate_limit.redis_error", map[string]any{"error": err})
		return true, 0
	}
	if count == 1 {
		l.Client.PExpire(ctx, redisKey, window+time.Second)
	}
	if count > limit {
		windowEnd := time.Unix(0, (slot+1)*int64(window))
		return false, windowEnd.Sub(now)
	}
	return true, 0
}
