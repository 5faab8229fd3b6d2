package handler

import (
	"context"
	"net/http"
	"time"

	"admin-portal/pkg/profiling"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	statusOK          = "ok"
	statusDegraded    = "degraded"
	healthPingTimeout = 2 * time.Second
)

type HealthHandler struct {
	cache  Pinger
	logger *zap.Logger
}

// NewHealthHandler creates the handler; cache may be nil when no snapshot cache is configured
func NewHealthHandler(cache Pinger, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{cache: cache, logger: log}
}

type HealthResponse struct {
	Status string                `json:"status"`
	Cache  string                `json:"cache,omitempty"`
	Memory profiling.MemoryStats `json:"memory"`
}

// Check always answers 200: a failing cache only slows permission loads down
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{Status: statusOK, Memory: profiling.GetMemoryStats()}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		resp.Cache = statusOK
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("permission cache unreachable", zap.Error(err))
			resp.Status = statusDegraded
			resp.Cache = statusDegraded
		}
	}

	return c.JSON(http.StatusOK, resp)
}
