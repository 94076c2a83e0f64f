package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/interfaces/http/response"
	"p2p-ramp.backend/pkg/logger"
)

type publicSettings interface {
	Public() entities.PublicSettings
}

type statsReporter interface {
	Stats(ctx context.Context, actor entities.Actor) (interface{}, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// CommonHandler serves endpoints shared by every role.
type CommonHandler struct {
	settings publicSettings
	stats    statsReporter
	checks   map[string]HealthCheck
}

func NewCommonHandler(settings publicSettings, stats statsReporter, checks map[string]HealthCheck) *CommonHandler {
	return &CommonHandler{settings: settings, stats: stats, checks: checks}
}

// PublicSettings exposes the deposit wallet and current rates.
// GET /api/settings/public
func (h *CommonHandler) PublicSettings(c *gin.Context) {
	response.Success(c, http.StatusOK, h.settings.Public())
}

// Stats returns counters scoped to the caller's role.
// GET /api/stats
func (h *CommonHandler) Stats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	stats, err := h.stats.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Health
// GET /health
func (h *CommonHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.Warn(ctx, "Health check failed", zap.String("component", name), zap.Error(err))
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}
