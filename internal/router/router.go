// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/deppfellow/listings-api/internal/handler"
	"github.com/deppfellow/listings-api/internal/middleware"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/internal/validation"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the echo instance with global middleware, the system
// routes and the /api group. Only /api routes pass the rate limiter; the
// listing handlers connect the store themselves once the request is valid.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
		middlewares.Global.BodyLimit(),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api", middlewares.RateLimit.Limit())
	registerListingRoutes(api, h)

	return router
}

func registerListingRoutes(api *echo.Group, h *handler.Handlers) {
	listings := api.Group("/listings")

	listings.POST("", handler.Handle[validation.CreateListingRequest](h.Listing.CreateListing, http.StatusCreated))
	listings.GET("", handler.Handle[validation.ListListingsRequest](h.Listing.ListListings, http.StatusOK))
	listings.GET("/:id", handler.Handle[validation.ListingIDRequest](h.Listing.GetListing, http.StatusOK))
	listings.PUT("/:id", handler.HandleNoContent[validation.UpdateListingRequest](h.Listing.UpdateListing, http.StatusNoContent))
	listings.DELETE("/:id", handler.HandleNoContent[validation.ListingIDRequest](h.Listing.DeleteListing, http.StatusNoContent))
}
