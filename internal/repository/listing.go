package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math"
)

// IDField is the key under which every backend exposes a listing's id.
const IDField = "_id"

// NameField is the key the list filter matches against.
const NameField = "name"

// ErrListingNotFound is returned by GetByID when no listing has the given id.
var ErrListingNotFound = errors.New("listing not found")

// Document is a schema-less listing as posted by the client and returned by
// the store. Only _id and name are ever inspected.
type Document map[string]any

// ID returns the document's _id as a string, or "" when absent.
func (d Document) ID() string {
	if id, ok := d[IDField].(string); ok {
		return id
	}
	return ""
}

// Name returns the document's name field as a string, or "" when absent.
func (d Document) Name() string {
	if name, ok := d[NameField].(string); ok {
		return name
	}
	return ""
}

// WithoutID returns a shallow copy of d without the _id key. Ids are always
// assigned by the store, never by the client.
func (d Document) WithoutID() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of d by round-tripping through JSON.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		// Values that cannot be marshalled never come from a decoded body;
		// fall back to a shallow copy.
		out := make(Document, len(d))
		for k, v := range d {
			out[k] = v
		}
		return out
	}
	var out Document
	_ = json.Unmarshal(b, &out)
	return out
}

// ListQuery selects one page of listings.
type ListQuery struct {
	Page    int
	PerPage int
	// Name filters by case-insensitive substring of the name field; "" means all.
	Name string
}

// Skip is the number of documents before the requested page. It saturates
// at math.MaxInt64, so a huge page is simply past the end.
func (q ListQuery) Skip() int64 {
	if q.Page < 1 || q.PerPage < 1 {
		return 0
	}
	pages, perPage := int64(q.Page-1), int64(q.PerPage)
	if pages > math.MaxInt64/perPage {
		return math.MaxInt64
	}
	return pages * perPage
}

// ListingPage is one page of listings plus the total number of matches.
type ListingPage struct {
	Items   []Document `json:"items"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
	Total   int64      `json:"total"`
}

// ListingRepository is the persistence contract every backend implements.
type ListingRepository interface {
	// Create stores a new listing and returns it including the assigned _id.
	Create(ctx context.Context, doc Document) (Document, error)

	// List returns one page of listings ordered by _id.
	List(ctx context.Context, q ListQuery) (*ListingPage, error)

	// GetByID returns ErrListingNotFound when nothing matches.
	GetByID(ctx context.Context, id string) (Document, error)

	// UpdateByID merges fields into the stored listing. A missing id is not an error.
	UpdateByID(ctx context.Context, id string, fields Document) error

	// DeleteByID removes the listing. A missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
