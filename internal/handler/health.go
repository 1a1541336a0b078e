package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/deppfellow/listings-api/internal/middleware"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const defaultHealthCheckTimeout = 5 * time.Second

// HealthHandler reports whether the service and its dependencies are
// reachable, for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns system health status and dependency checks.
//
// The store check never dials: an uninitialized store is reported as such
// and is only unhealthy when the init strategy is not lazy. Redis failures
// are reported but do not make the service unhealthy, since the rate limiter
// fails open.
//
// It returns 200 when healthy and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true
	obs := h.server.Config.Observability

	if obs == nil || obs.HealthCheckEnabled("store") {
		if !h.checkStore(c.Request().Context(), checks, &logger) {
			isHealthy = false
		}
	}

	if h.server.Redis != nil && (obs == nil || obs.HealthCheckEnabled("redis")) {
		h.checkRedis(c.Request().Context(), checks, &logger)
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) checkStore(ctx context.Context, checks map[string]interface{}, logger *zerolog.Logger) bool {
	state := h.server.Store.State()

	if state != store.StateInitialized {
		healthy := h.server.Config.Server.InitStrategy == config.InitLazy
		status := "unhealthy"
		if healthy {
			status = "healthy"
		}
		checks["store"] = map[string]interface{}{
			"status":   status,
			"state":    state.String(),
			"driver":   h.server.Config.Database.Driver,
			"attempts": h.server.Store.Attempts(),
		}
		if !healthy {
			logger.Warn().Int64("attempts", h.server.Store.Attempts()).Msg("listings store not initialized")
		}
		return healthy
	}

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout())
	defer cancel()

	storeStart := time.Now()
	if err := h.server.Store.Ping(ctx); err != nil {
		checks["store"] = map[string]interface{}{
			"status":        "unhealthy",
			"state":         state.String(),
			"driver":        h.server.Config.Database.Driver,
			"response_time": time.Since(storeStart).String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(storeStart)).
			Msg("store health check failed")

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":       "store",
			"operation":        "health_check",
			"error_type":       "store_unhealthy",
			"response_time_ms": time.Since(storeStart).Milliseconds(),
			"error_message":    err.Error(),
		})
		return false
	}

	checks["store"] = map[string]interface{}{
		"status":        "healthy",
		"state":         state.String(),
		"driver":        h.server.Config.Database.Driver,
		"response_time": time.Since(storeStart).String(),
	}
	return true
}

func (h *HealthHandler) checkRedis(ctx context.Context, checks map[string]interface{}, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout())
	defer cancel()

	redisStart := time.Now()

	if err := h.server.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(redisStart).String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(redisStart)).
			Msg("redis health check failed")

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":       "redis",
			"operation":        "health_check",
			"error_type":       "redis_unhealthy",
			"response_time_ms": time.Since(redisStart).Milliseconds(),
			"error_message":    err.Error(),
		})
		return
	}

	checks["redis"] = map[string]interface{}{
		"status":        "healthy",
		"response_time": time.Since(redisStart).String(),
	}
}

func (h *HealthHandler) checkTimeout() time.Duration {
	if obs := h.server.Config.Observability; obs != nil && obs.HealthChecks.Timeout > 0 {
		return obs.HealthChecks.Timeout
	}
	return defaultHealthCheckTimeout
}

func (h *HealthHandler) recordHealthCheckError(attrs map[string]interface{}) {
	if h.server.LoggerService != nil && h.server.LoggerService.GetApplication() != nil {
		h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
	}
}
