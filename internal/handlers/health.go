package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports store and cache reachability. A nil redis client
// means caching is disabled.
type HealthHandler struct {
	store pinger
	redis *redis.Client
}

func NewHealthHandler(store pinger, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{store: store, redis: redisClient}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "store": "up", "redis": "disabled"}

	if err := h.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = "down"
	}

	// Redis is optional: an outage slows the inbox but does not fail health.
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}

	c.JSON(status, body)
}
