package handler

import (
	"net/http"

	"github.com/deppfellow/listings-api/internal/server"
	"github.com/labstack/echo/v4"
)

// RootHandler answers the liveness check at "/". It never touches the store.
type RootHandler struct {
	Handler
}

func NewRootHandler(s *server.Server) *RootHandler {
	return &RootHandler{
		Handler: NewHandler(s),
	}
}

func (h *RootHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "API listening"})
}
