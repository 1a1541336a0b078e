package router

import (
	"github.com/deppfellow/listings-api/internal/handler"
	"github.com/deppfellow/listings-api/static"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints outside the listings API. None of
// them connects the store.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Root.Root)

	r.GET("/status", h.Health.CheckHealth)

	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
