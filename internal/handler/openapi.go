package handler

import (
	"net/http"

	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/static"
	"github.com/labstack/echo/v4"
)

// OpenAPIHandler serves the API reference page at /docs. The page renders
// /static/openapi.json; both files are embedded in the binary.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := static.FS.ReadFile("openapi.html")
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, page)
}
