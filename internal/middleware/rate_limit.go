package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a simple in-memory sliding-window limiter keyed by IP
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		windows: make(map[string][]time.Time),
	}
}

// allow records a request for the key and reports whether it fits in the
// per-minute window
func (l *rateLimiter) allow(key string, requestsPerMinute int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-time.Minute)

	// Drop timestamps older than the window
	var validTimes []time.Time
	for _, t := range l.windows[key] {
		if t.After(windowStart) {
			validTimes = append(validTimes, t)
		}
	}

	if len(validTimes) >= requestsPerMinute {
		l.windows[key] = validTimes
		return false
	}

	l.windows[key] = append(validTimes, now)
	return true
}

// GlobalRateLimiter creates a middleware for global per-IP rate limiting
func GlobalRateLimiter(requestsPerMinute int) gin.HandlerFunc {
	limiter := newRateLimiter()
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), requestsPerMinute) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":          false,
				"message":          "Rate limit exceeded",
				"code":             http.StatusTooManyRequests,
				"limit":            requestsPerMinute,
				"retry_after_secs": 60,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
