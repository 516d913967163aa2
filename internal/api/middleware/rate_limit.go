package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	perSec   float64
	lastTime time.Time
	now      func() time.Time
}

// NewRateLimiter allows requests per window, with bursts up to requests.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	start := time.Now()
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		perSec:   float64(requests) / window.Seconds(),
		lastTime: start,
		now:      time.Now,
	}
}

// Allow 嘗試取用一個令牌
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.take()
	return ok
}

// take refills the bucket and consumes a token. When the bucket is empty it
// reports how long until the next token is available.
func (rl *RateLimiter) take() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.lastTime).Seconds()*rl.perSec)
	rl.lastTime = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	wait := (1 - rl.tokens) / rl.perSec
	return false, time.Duration(wait * float64(time.Second))
}

// RateLimit 全域限流中間件，超限時回傳 429 與 Retry-After
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		ok, wait := limiter.take()
		if ok {
			c.Next()
			return
		}

		retry := int(math.Ceil(wait.Seconds()))
		common.LogInfo("Request throttled",
			zap.String("route", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Int("retry_after", retry),
		)
		c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.Response(false))
	}
}
