package database

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongo connects a MongoDB client and pings the primary within
// cfg.Database.ConnectTimeout. The client is disconnected again when the
// ping fails.
func NewMongo(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*mongo.Client, error) {
	db := cfg.Database

	opts := options.Client().
		ApplyURI(db.ConnString).
		SetAppName(config.ServiceName).
		SetMaxPoolSize(uint64(db.MaxOpenConns)).
		SetMinPoolSize(uint64(min(db.MaxIdleConns, db.MaxOpenConns))).
		SetMaxConnIdleTime(time.Duration(db.ConnMaxIdleTime) * time.Second).
		SetConnectTimeout(db.ConnectTimeout).
		SetServerSelectionTimeout(db.ConnectTimeout).
		SetTimeout(db.QueryTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, db.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info().
		Str("driver", config.DriverMongo).
		Str("database", db.Name).
		Str("collection", db.Collection).
		Msg("connected to the database")

	return client, nil
}
