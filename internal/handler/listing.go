package handler

import (
	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/internal/service"
	"github.com/deppfellow/listings-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ListingHandler serves the /api/listings routes.
type ListingHandler struct {
	Handler
	listingService *service.ListingService
}

func NewListingHandler(s *server.Server, listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{
		Handler:        NewHandler(s),
		listingService: listingService,
	}
}

// requireStore connects the listings store unless it already is. It runs
// after validation, so malformed requests are rejected without ever
// dialing. Concurrent requests share one attempt; after a failure the next
// request tries again.
func (h *ListingHandler) requireStore(c echo.Context) error {
	if err := h.server.Store.EnsureReady(c.Request().Context()); err != nil {
		return errs.NewInternalServerError("Failed to connect to the listings store", err)
	}
	return nil
}

func (h *ListingHandler) CreateListing(c echo.Context, req *validation.CreateListingRequest) (repository.Document, error) {
	if err := h.requireStore(c); err != nil {
		return nil, err
	}
	created, err := h.listingService.CreateListing(c.Request().Context(), req.Document)
	if err != nil {
		return nil, errs.NewInternalServerError("Failed to add listing", err)
	}
	return created, nil
}

func (h *ListingHandler) ListListings(c echo.Context, req *validation.ListListingsRequest) (*repository.ListingPage, error) {
	if err := h.requireStore(c); err != nil {
		return nil, err
	}
	page, err := h.listingService.ListListings(c.Request().Context(), req.Query())
	if err != nil {
		return nil, errs.NewInternalServerError("Failed to retrieve listings", err)
	}
	return page, nil
}

func (h *ListingHandler) GetListing(c echo.Context, req *validation.ListingIDRequest) (repository.Document, error) {
	if err := h.requireStore(c); err != nil {
		return nil, err
	}
	doc, err := h.listingService.GetListing(c.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, errs.NewNotFoundError("Listing not found", nil)
		}
		return nil, errs.NewInternalServerError("Error fetching listing", err)
	}
	return doc, nil
}

func (h *ListingHandler) UpdateListing(c echo.Context, req *validation.UpdateListingRequest) error {
	if err := h.requireStore(c); err != nil {
		return err
	}
	if err := h.listingService.UpdateListing(c.Request().Context(), req.ID, req.Fields); err != nil {
		return errs.NewInternalServerError("Failed to update listing", err)
	}
	return nil
}

func (h *ListingHandler) DeleteListing(c echo.Context, req *validation.ListingIDRequest) error {
	if err := h.requireStore(c); err != nil {
		return err
	}
	if err := h.listingService.DeleteListing(c.Request().Context(), req.ID); err != nil {
		return errs.NewInternalServerError("Failed to delete listing", err)
	}
	return nil
}
