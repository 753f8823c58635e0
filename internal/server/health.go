package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency, usually the record store.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping    Pinger
	timeout time.Duration
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{ping: ping, timeout: 2 * time.Second}
}

// HealthCheck handles GET /healthcheck.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
