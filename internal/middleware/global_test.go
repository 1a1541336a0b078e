package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/middleware"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGlobal(env string) *middleware.GlobalMiddlewares {
	cfg := config.DefaultConfig()
	cfg.Observability.Environment = env
	logger := zerolog.Nop()
	return middleware.NewGlobalMiddlewares(&server.Server{Config: cfg, Logger: &logger})
}

func handle(t *testing.T, g *middleware.GlobalMiddlewares, method string, err error) (int, map[string]any, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, "/api/listings", nil)
	rec := httptest.NewRecorder()
	g.GlobalErrorHandler(err, e.NewContext(req, rec))

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body, rec.Body.String()
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		detail  any
	}{
		{
			name:    "http error is used as is",
			err:     errs.NewNotFoundError("Listing not found", nil),
			status:  http.StatusNotFound,
			message: "Listing not found",
		},
		{
			name:    "internal error carries its cause",
			err:     errs.NewInternalServerError("Failed to add listing", errors.New("duplicate key")),
			status:  http.StatusInternalServerError,
			message: "Failed to add listing",
			detail:  "duplicate key",
		},
		{
			name:    "unknown route",
			err:     echo.ErrNotFound,
			status:  http.StatusNotFound,
			message: "Route not found",
		},
		{
			name:    "echo error keeps its status",
			err:     echo.NewHTTPError(http.StatusRequestEntityTooLarge),
			status:  http.StatusRequestEntityTooLarge,
			message: "Request Entity Too Large",
		},
		{
			name:    "plain error becomes 500",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Internal Server Error",
			detail:  "boom",
		},
	}

	g := newGlobal("development")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := handle(t, g, http.MethodGet, tt.err)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, tt.detail, body["error"])
		})
	}
}

func TestGlobalErrorHandler_RedactsInProduction(t *testing.T) {
	g := newGlobal("production")

	status, body, _ := handle(t, g, http.MethodGet, errs.NewInternalServerError("Error fetching listing", errors.New("auth failed for user admin")))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error fetching listing", body["message"])
	assert.NotContains(t, body, "error")

	// Client errors are never redacted.
	status, body, _ = handle(t, g, http.MethodGet, errs.NewBadRequestError("page and perPage are required and must be numbers", nil, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "page and perPage are required and must be numbers", body["message"])
}

func TestGlobalErrorHandler_Head(t *testing.T) {
	status, _, raw := handle(t, newGlobal("development"), http.MethodHead, errs.NewNotFoundError("Listing not found", nil))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Empty(t, raw)
}
