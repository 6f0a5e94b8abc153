package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool; Redis is adapted with a closure.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
	logger *zap.Logger
}

func NewHealthHandler(checks map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	dependencies := gin.H{}
	healthy := true

	for name, check := range h.checks {
		status := "ok"
		if err := check.Ping(c.Request.Context()); err != nil {
			status = "error"
			healthy = false
			h.logger.Error("Health check: ping failed", zap.String("dependency", name), zap.Error(err))
		}
		dependencies[name] = status
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "dependencies": dependencies})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": dependencies})
}
