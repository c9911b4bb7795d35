package middleware

import (
	"net/http"
	"sync"
	"time"

	"oticash/internal/apierror"

	"github.com/gin-gonic/gin"
)

// rateEntry tracks request counts per IP within a sliding window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	apiRateMap   = make(map[string]*rateEntry)
	apiRateMapMu sync.Mutex
)

// RateLimiter returns a general-purpose sliding-window rate limiter,
// keyed by client IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		apiRateMapMu.Lock()
		entry, exists := apiRateMap[ip]
		if !exists {
			entry = &rateEntry{}
			apiRateMap[ip] = entry
		}
		apiRateMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}

		entry.count++
		if entry.count > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry later"))
			return
		}
		c.Next()
	}
}
