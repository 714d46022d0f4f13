package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter applies a per-client token bucket, keyed by client IP. State is
// in-process only; behind multiple replicas each instance enforces its own
// budget.
type RateLimiter struct {
	perMinute float64
	burst     float64

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests sustained, with the same value as
// burst capacity.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		perMinute: float64(perMinute),
		burst:     float64(perMinute),
		clients:   make(map[string]*clientBucket),
	}
}

// Handler returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !rl.take(key, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok {
		rl.clients[key] = &clientBucket{tokens: rl.burst - 1, lastSeen: now}
		return true
	}
	b.tokens += now.Sub(b.lastSeen).Minutes() * rl.perMinute
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
