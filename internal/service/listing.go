package service

import (
	"context"
	"strings"

	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/rs/zerolog"
)

// ListingService implements the listing operations on top of a repository.
// Errors from the repository are returned unchanged; mapping them to HTTP
// responses is the handler's job.
type ListingService struct {
	server *server.Server
	repo   repository.ListingRepository
}

func NewListingService(s *server.Server, repo repository.ListingRepository) *ListingService {
	return &ListingService{
		server: s,
		repo:   repo,
	}
}

// CreateListing stores doc under a new id. A client supplied _id is ignored.
func (s *ListingService) CreateListing(ctx context.Context, doc repository.Document) (repository.Document, error) {
	logger := zerolog.Ctx(ctx)

	created, err := s.repo.Create(ctx, doc.WithoutID())
	if err != nil {
		logger.Error().Err(err).Msg("failed to create listing")
		return nil, err
	}

	logger.Info().
		Str("event", "listing_created").
		Str("listing_id", created.ID()).
		Msg("listing created")

	return created, nil
}

// ListListings returns one page. perPage is capped at the configured maximum
// and the name filter is trimmed; an empty filter matches everything.
func (s *ListingService) ListListings(ctx context.Context, q repository.ListQuery) (*repository.ListingPage, error) {
	logger := zerolog.Ctx(ctx)

	if limit := s.server.Config.Server.MaxPerPage; limit > 0 && q.PerPage > limit {
		q.PerPage = limit
	}
	q.Name = strings.TrimSpace(q.Name)

	page, err := s.repo.List(ctx, q)
	if err != nil {
		logger.Error().Err(err).Int("page", q.Page).Int("per_page", q.PerPage).Msg("failed to list listings")
		return nil, err
	}

	if page.Items == nil {
		page.Items = []repository.Document{}
	}

	logger.Debug().
		Int("page", page.Page).
		Int("per_page", page.PerPage).
		Int("count", len(page.Items)).
		Int64("total", page.Total).
		Msg("listings retrieved")

	return page, nil
}

// GetListing returns repository.ErrListingNotFound when nothing matches.
func (s *ListingService) GetListing(ctx context.Context, id string) (repository.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateListing merges fields into the listing. Updating a missing id is not
// an error.
func (s *ListingService) UpdateListing(ctx context.Context, id string, fields repository.Document) error {
	logger := zerolog.Ctx(ctx)

	if err := s.repo.UpdateByID(ctx, id, fields.WithoutID()); err != nil {
		logger.Error().Err(err).Str("listing_id", id).Msg("failed to update listing")
		return err
	}

	logger.Info().
		Str("event", "listing_updated").
		Str("listing_id", id).
		Int("fields", len(fields.WithoutID())).
		Msg("listing updated")

	return nil
}

// DeleteListing removes the listing. Deleting a missing id is not an error.
func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	logger := zerolog.Ctx(ctx)

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		logger.Error().Err(err).Str("listing_id", id).Msg("failed to delete listing")
		return err
	}

	logger.Info().
		Str("event", "listing_deleted").
		Str("listing_id", id).
		Msg("listing deleted")

	return nil
}
