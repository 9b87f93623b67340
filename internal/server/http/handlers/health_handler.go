package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/server/http/dto"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports liveness of the service and its database.
type HealthHandler struct {
	facade HealthFacade
	logger *zap.Logger
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(facade HealthFacade, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{facade: facade, logger: logger}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.facade.HealthCheck(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
