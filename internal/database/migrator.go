package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// versionTable records the applied migration version.
const versionTable = "listings_schema_version"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded migrations that connString's database has not
// seen yet. It uses a dedicated connection that is closed before returning.
func Migrate(ctx context.Context, logger *zerolog.Logger, connString string) error {
	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("parsing migration connection string: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("constructing migrator: %w", err)
	}

	files, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(files); err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	to := int32(len(m.Migrations))

	if from == to {
		logger.Debug().Int32("version", to).Msg("listings schema up to date")
		return nil
	}

	start := time.Now()
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating listings schema from version %d: %w", from, err)
	}

	logger.Info().
		Int32("from", from).
		Int32("to", to).
		Dur("duration", time.Since(start)).
		Msg("migrated listings schema")

	return nil
}
