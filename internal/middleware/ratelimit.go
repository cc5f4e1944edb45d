package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/metrics"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	ips   map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a limiter allowing r requests per second with the
// given burst. Call Run to evict idle clients.
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
	}
}

// Run evicts clients idle for longer than three minutes until ctx is done.
func (rl *IPRateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

func (rl *IPRateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.ips {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.ips, ip)
		}
	}
}

// GetLimiter returns the rate limiter for the given IP
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *IPRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

var (
	// Sending inquiries and replies: 30 per minute
	ChatLimiter = NewIPRateLimiter(rate.Limit(30.0/60.0), 10)

	// Listing endpoints: 600 per minute (10/sec)
	GeneralLimiter = NewIPRateLimiter(rate.Limit(10.0), 50)
)

// RateLimitMiddleware rejects requests once the caller's bucket is empty.
// endpoint labels the rejection metric.
func RateLimitMiddleware(limiter *IPRateLimiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if limiter.GetLimiter(ip).Allow() {
			c.Next()
			return
		}

		metrics.RateLimitHits.WithLabelValues(endpoint).Inc()
		logger.Warn().
			Str("ip", ip).
			Str("path", c.Request.URL.Path).
			Msg("Rate limit exceeded")

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded. Please slow down.",
		})
	}
}

// ChatRateLimit guards the endpoints that create messages.
func ChatRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(ChatLimiter, "messages_write")
}

// GeneralRateLimit guards the listing endpoints.
func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter, "messages_read")
}
