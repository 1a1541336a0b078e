package repository

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Projections(t *testing.T) {
	doc := Document{IDField: "abc", NameField: "Lakeview Cabin", "beds": 2}
	assert.Equal(t, "abc", doc.ID())
	assert.Equal(t, "Lakeview Cabin", doc.Name())

	odd := Document{IDField: 42, NameField: []any{"not", "a", "string"}}
	assert.Empty(t, odd.ID())
	assert.Empty(t, odd.Name())

	stripped := doc.WithoutID()
	assert.NotContains(t, stripped, IDField)
	assert.Contains(t, doc, IDField, "WithoutID must not modify the receiver")
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := Document{"address": map[string]any{"city": "Tahoe"}, "tags": []any{"a"}}

	clone := doc.Clone()
	clone["address"].(map[string]any)["city"] = "Reno"
	clone["tags"].([]any)[0] = "b"

	assert.Equal(t, "Tahoe", doc["address"].(map[string]any)["city"])
	assert.Equal(t, "a", doc["tags"].([]any)[0])
	assert.Nil(t, Document(nil).Clone())
}

func TestListQuery_Skip(t *testing.T) {
	tests := []struct {
		name  string
		query ListQuery
		want  int64
	}{
		{"first page", ListQuery{Page: 1, PerPage: 10}, 0},
		{"third page", ListQuery{Page: 3, PerPage: 10}, 20},
		{"page zero", ListQuery{Page: 0, PerPage: 10}, 0},
		{"per page zero", ListQuery{Page: 4, PerPage: 0}, 0},
		{"largest exact product", ListQuery{Page: math.MaxInt64/100 + 1, PerPage: 100}, (math.MaxInt64 / 100) * 100},
		{"overflowing product saturates", ListQuery{Page: 100_000_000_000_000_000, PerPage: 100}, math.MaxInt64},
		{"max page", ListQuery{Page: math.MaxInt, PerPage: 2}, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Skip())
		})
	}
}

func TestMemoryListingRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()

	created, err := repo.Create(ctx, Document{IDField: "client", "name": "Loft", "price": 90.0})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)
	assert.NotEqual(t, "client", id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// Returned documents are copies.
	got["name"] = "changed"
	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Loft", again.Name())

	require.NoError(t, repo.UpdateByID(ctx, id, Document{"price": 110.0, IDField: "other"}))
	updated, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID())
	assert.Equal(t, 110.0, updated["price"])
	assert.Equal(t, "Loft", updated.Name())

	require.NoError(t, repo.DeleteByID(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrListingNotFound)

	assert.NoError(t, repo.DeleteByID(ctx, id))
	assert.NoError(t, repo.UpdateByID(ctx, "missing", Document{"x": 1}))
}

func TestMemoryListingRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()

	for i := 1; i <= 7; i++ {
		name := fmt.Sprintf("Apartment %d", i)
		if i%2 == 0 {
			name = fmt.Sprintf("Cabin %d", i)
		}
		_, err := repo.Create(ctx, Document{"name": name})
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, ListQuery{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Apartment 5", page.Items[1].Name())

	page, err = repo.List(ctx, ListQuery{Page: 1, PerPage: 10, Name: "cabin"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 3)

	page, err = repo.List(ctx, ListQuery{Page: 5, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestMemoryListingRepository_ListHugePage(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, Document{"name": fmt.Sprintf("Listing %d", i)})
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, ListQuery{Page: 100_000_000_000_000_000, PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Empty(t, page.Items)
}
