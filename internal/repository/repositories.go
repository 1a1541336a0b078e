package repository

// Repositories is a container for all repository instances.
//
// The service layer receives this container instead of individual repos, so
// adding a repository later does not change the wiring signatures.
type Repositories struct {
	// Listings is normally the store adapter, which delegates to the
	// configured backend once it is connected.
	Listings ListingRepository
}

// NewRepositories constructs the repository container.
func NewRepositories(listings ListingRepository) *Repositories {
	return &Repositories{
		Listings: listings,
	}
}
