package handler

import (
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// receives one object.
type Handlers struct {
	Root    *RootHandler    // Root answers GET / without touching the store.
	Listing *ListingHandler // Listing serves the /api/listings CRUD routes.
	Health  *HealthHandler  // Health serves the dependency report at /status.
	OpenAPI *OpenAPIHandler // OpenAPI serves the API documentation UI.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Root:    NewRootHandler(s),
		Listing: NewListingHandler(s, services.Listing),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
