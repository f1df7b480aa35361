package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recordbook/recordbook/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Name labels the limiter in metrics.
	Name() string
}

// MemoryLimiter is a per-key token bucket held in process memory.
type MemoryLimiter struct {
	rps   float64
	burst int
	store sync.Map // map[string]*rate.Limiter
}

// NewMemoryLimiter allows rps events per second with the given burst per key.
func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rps, burst: burst}
}

func (m *MemoryLimiter) Name() string { return "memory" }

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	v, ok := m.store.Load(key)
	if !ok {
		v, _ = m.store.LoadOrStore(key, rate.NewLimiter(rate.Limit(m.rps), m.burst))
	}
	return v.(*rate.Limiter).Allow(), nil
}

// RedisLimiter is a fixed-window counter shared by every replica.
// Each window admits floor(rps*window)+burst requests per key.
type RedisLimiter struct {
	client        *redis.Client
	windowSeconds int
	allowed       int64
	now           func() time.Time
}

func NewRedisLimiter(client *redis.Client, rps float64, burst int, window time.Duration) *RedisLimiter {
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	return &RedisLimiter{
		client:        client,
		windowSeconds: windowSeconds,
		allowed:       int64(rps*float64(windowSeconds)) + int64(burst),
		now:           time.Now,
	}
}

func (r *RedisLimiter) Name() string { return "redis" }

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := r.now().Unix() / int64(r.windowSeconds)
	redisKey := fmt.Sprintf("rl:%s:%d", key, bucket)

	cnt, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		_ = r.client.Expire(ctx, redisKey, time.Duration(r.windowSeconds+1)*time.Second).Err()
	}
	return cnt <= r.allowed, nil
}

// RateLimit rejects requests over budget with 429. Keys prefer the
// authenticated subject (claims.sub) and fall back to the client IP, so it
// must run after IdentifyMiddleware or AuthMiddleware to see the subject.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), clientKey(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if !ok {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues(l.Name()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(l.Name()).Inc()
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub, ok := cm["sub"].(string); ok && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
