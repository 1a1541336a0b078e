package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresListingRepository stores listings as JSONB rows in the listings
// table created by the embedded migrations. It owns the pool: Close closes it.
type PostgresListingRepository struct {
	pool *pgxpool.Pool
}

var _ ListingRepository = (*PostgresListingRepository)(nil)

// NewPostgresListingRepository wraps an already connected pool.
func NewPostgresListingRepository(pool *pgxpool.Pool) *PostgresListingRepository {
	return &PostgresListingRepository{pool: pool}
}

func (r *PostgresListingRepository) Create(ctx context.Context, doc Document) (Document, error) {
	fields := doc.WithoutID()

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO listings (doc) VALUES ($1::jsonb) RETURNING id::text`,
		map[string]any(fields),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("listings/postgres: insert listing: %w", err)
	}

	fields[IDField] = id
	return fields, nil
}

func (r *PostgresListingRepository) List(ctx context.Context, q ListQuery) (*ListingPage, error) {
	where := ""
	args := []any{}
	if q.Name != "" {
		where = `WHERE doc->>'name' ILIKE '%' || $1 || '%' ESCAPE '\'`
		args = append(args, escapeLike(q.Name))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM listings `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("listings/postgres: count listings: %w", err)
	}

	limit := len(args) + 1
	query := fmt.Sprintf(
		`SELECT id::text, doc FROM listings %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		where, limit, limit+1,
	)
	args = append(args, q.PerPage, q.Skip())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listings/postgres: find listings: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0, q.PerPage)
	for rows.Next() {
		var (
			id  string
			doc map[string]any
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("listings/postgres: scan listing: %w", err)
		}
		items = append(items, withID(doc, id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listings/postgres: iterate listings: %w", err)
	}

	return &ListingPage{Items: items, Page: q.Page, PerPage: q.PerPage, Total: total}, nil
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id string) (Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM listings WHERE id = $1::text::uuid`, id)
	if err != nil {
		return nil, fmt.Errorf("listings/postgres: get listing: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("listings/postgres: get listing: %w", err)
		}
		return nil, ErrListingNotFound
	}

	var doc map[string]any
	if err := rows.Scan(&doc); err != nil {
		return nil, fmt.Errorf("listings/postgres: scan listing: %w", err)
	}

	return withID(doc, id), nil
}

func (r *PostgresListingRepository) UpdateByID(ctx context.Context, id string, fields Document) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE listings SET doc = doc || $2::jsonb, updated_at = now() WHERE id = $1::text::uuid`,
		id, map[string]any(fields.WithoutID()),
	)
	if err != nil {
		return fmt.Errorf("listings/postgres: update listing: %w", err)
	}
	return nil
}

func (r *PostgresListingRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1::text::uuid`, id); err != nil {
		return fmt.Errorf("listings/postgres: delete listing: %w", err)
	}
	return nil
}

func (r *PostgresListingRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresListingRepository) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func withID(doc map[string]any, id string) Document {
	out := Document(doc)
	if out == nil {
		out = Document{}
	}
	out[IDField] = id
	return out
}

// escapeLike makes a user string match literally inside ILIKE.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
