// Package server defines the core Server struct that composes the app's main
// dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the listings store adapter
//   - the optional redis client
//   - http.Server
//
// It provides constructors, the store init strategies and start/shutdown
// logic to run the application cleanly.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/deppfellow/listings-api/internal/store"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/listings-api/internal/logger"
)

// Server is the application container that holds shared resources. It is
// not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// Store is the listings store. It starts uninitialized; see InitStore.
	Store *store.Adapter

	// Redis is nil when no address is configured.
	Redis *redis.Client

	httpServer *http.Server
}

// New constructs a Server. It does not connect the store; that is decided by
// InitStore according to the configured strategy.
//
// Redis is optional: a failed ping is logged and startup continues, since the
// rate limiter fails open.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	adapter, err := store.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize listings store: %w", err)
	}

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Store:         adapter,
	}

	if cfg.Redis.Enabled() {
		server.Redis = newRedisClient(cfg, logger, loggerService)
	}

	return server, nil
}

func newRedisClient(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without shared rate limits")
	}

	return redisClient
}

// InitStore applies the configured init strategy:
//
//   - eager-blocking: connect now and return the error on failure
//   - eager-nonblocking: start one connection attempt in the background and
//     return immediately; a failure is only logged
//   - lazy: do nothing, the first API request connects
//
// Under every strategy each valid listing request calls EnsureReady, which
// joins or retries the connection as needed.
func (s *Server) InitStore(ctx context.Context) error {
	strategy := s.Config.Server.InitStrategy
	log := s.Logger.With().Str("init_strategy", strategy).Logger()

	switch strategy {
	case config.InitEagerBlocking:
		if err := s.Store.EnsureReady(ctx); err != nil {
			return fmt.Errorf("failed to initialize listings store: %w", err)
		}

	case config.InitEagerNonBlocking:
		go func() {
			if err := s.Store.EnsureReady(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("background store initialization failed, will retry on first request")
			}
		}()

	case config.InitLazy:
		log.Info().Msg("listings store will connect on first request")

	default:
		return fmt.Errorf("unknown init strategy %q", strategy)
	}

	return nil
}

// SetupHTTPServer configures the internal net/http server with handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server and blocks until it stops.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("driver", s.Config.Database.Driver).
		Str("init_strategy", s.Config.Server.InitStrategy).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx ends,
// then closes the store and redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	s.Logger.Info().Msg("closing listings store")
	if err := s.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close listings store: %w", err))
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	return errors.Join(errs...)
}
