package store

import (
	"context"
	"fmt"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/deppfellow/listings-api/internal/database"
	"github.com/deppfellow/listings-api/internal/logger"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/rs/zerolog"
)

// NewDialer returns the Dialer for cfg.Database.Driver. Each call of the
// returned Dialer opens fresh connections, so a failed attempt leaves
// nothing behind to reuse.
func NewDialer(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) (Dialer, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return func(ctx context.Context) (repository.ListingRepository, error) {
			client, err := database.NewMongo(ctx, cfg, log)
			if err != nil {
				return nil, err
			}
			repo := repository.NewMongoListingRepository(client, cfg.Database.Name, cfg.Database.Collection)
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close(context.WithoutCancel(ctx))
				return nil, err
			}
			return repo, nil
		}, nil

	case config.DriverPostgres:
		return func(ctx context.Context) (repository.ListingRepository, error) {
			if err := database.Migrate(ctx, log, cfg.Database.ConnString); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			pool, err := database.NewPostgres(ctx, cfg, log, loggerService)
			if err != nil {
				return nil, err
			}
			return repository.NewPostgresListingRepository(pool), nil
		}, nil

	case config.DriverMemory:
		return func(context.Context) (repository.ListingRepository, error) {
			log.Warn().Msg("using in-memory listings store, data is lost on restart")
			return repository.NewMemoryListingRepository(), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// New builds an Adapter for the configured backend.
func New(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) (*Adapter, error) {
	dial, err := NewDialer(cfg, log, loggerService)
	if err != nil {
		return nil, err
	}
	opts := Options{
		ConnectTimeout: cfg.Database.ConnectTimeout,
		QueryTimeout:   cfg.Database.QueryTimeout,
	}
	if cfg.Observability != nil {
		opts.SlowQueryThreshold = cfg.Observability.Logging.SlowQueryThreshold
	}

	return NewAdapter(dial, opts, log), nil
}
