package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"campus-market-backend/internal/shared/response"
)

const (
	visitorCleanupInterval = time.Minute
	visitorIdleTimeout     = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket. Authenticated callers are keyed
// by user id, anonymous ones by client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter starts a background sweep of idle visitors that stops when ctx is done.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
	}

	go rl.cleanupVisitors(ctx)

	return rl
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mtx.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > visitorIdleTimeout {
					delete(rl.visitors, key)
				}
			}
			rl.mtx.Unlock()
		}
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + CurrentClientIP(c)
		if userID, ok := CurrentUserID(c); ok {
			key = "user:" + userID.String()
		}

		if !rl.getVisitor(key).Allow() {
			response.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
