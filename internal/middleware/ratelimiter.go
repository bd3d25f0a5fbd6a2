package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "coursehub:ratelimit"

// RateRule allows Requests per client IP in each fixed Window.
type RateRule struct {
	Scope    string
	Requests int64
	Window   time.Duration
}

func (r RateRule) enabled() bool {
	return r.Requests > 0 && r.Window > 0
}

// RateLimiter counts hits in redis. A nil client disables limiting.
type RateLimiter struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRateLimiter(client *redis.Client, log *logger.Logger) *RateLimiter {
	return &RateLimiter{client: client, log: log.With("service", "RateLimiter")}
}

func rateKey(scope, clientIP string) string {
	return fmt.Sprintf("%s:%s:%s", rateLimitPrefix, scope, clientIP)
}

// Allow records one hit for clientIP. When the rule is exceeded it reports how long
// until the window resets. The window starts with the first hit.
func (rl *RateLimiter) Allow(ctx context.Context, rule RateRule, clientIP string) (bool, time.Duration, error) {
	key := rateKey(rule.Scope, clientIP)

	pipe := rl.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, rule.Window)
	hits := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}

	if hits.Val() <= rule.Requests {
		return true, 0, nil
	}
	return false, ttl.Val(), nil
}

// Limit applies rule to the route. Redis failures let the request through.
func (rl *RateLimiter) Limit(rule RateRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.client == nil || !rule.enabled() {
			c.Next()
			return
		}

		allowed, retryAfter, err := rl.Allow(c.Request.Context(), rule, c.ClientIP())
		if err != nil {
			rl.log.Warn("rate limit check failed", "scope", rule.Scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			seconds := strconv.Itoa(int(math.Ceil(retryAfter.Seconds())))
			c.Header("Retry-After", seconds)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": seconds + " seconds",
			})
			return
		}
		c.Next()
	}
}
