package service

import (
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/deppfellow/listings-api/internal/server"
)

// Services is a container for the business layer.
type Services struct {
	Listing *ListingService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Listing: NewListingService(s, repos.Listings),
	}, nil
}
