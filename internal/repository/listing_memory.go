package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryListingRepository keeps listings in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryListingRepository struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string
}

var _ ListingRepository = (*MemoryListingRepository)(nil)

// NewMemoryListingRepository returns an empty in-memory backend.
func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{
		docs: make(map[string]Document),
	}
}

func (m *MemoryListingRepository) Create(_ context.Context, doc Document) (Document, error) {
	stored := doc.Clone().WithoutID()
	id := uuid.New().String()
	stored[IDField] = id

	m.mu.Lock()
	m.docs[id] = stored
	m.order = append(m.order, id)
	m.mu.Unlock()

	return stored.Clone(), nil
}

func (m *MemoryListingRepository) List(_ context.Context, q ListQuery) (*ListingPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(q.Name)
	skip := q.Skip()
	items := make([]Document, 0, q.PerPage)
	var total int64

	for _, id := range m.order {
		doc := m.docs[id]
		if needle != "" && !strings.Contains(strings.ToLower(doc.Name()), needle) {
			continue
		}
		if total >= skip && len(items) < q.PerPage {
			items = append(items, doc.Clone())
		}
		total++
	}

	return &ListingPage{Items: items, Page: q.Page, PerPage: q.PerPage, Total: total}, nil
}

func (m *MemoryListingRepository) GetByID(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryListingRepository) UpdateByID(_ context.Context, id string, fields Document) error {
	patch := fields.Clone().WithoutID()

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

func (m *MemoryListingRepository) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return nil
	}
	delete(m.docs, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryListingRepository) Ping(context.Context) error  { return nil }
func (m *MemoryListingRepository) Close(context.Context) error { return nil }
