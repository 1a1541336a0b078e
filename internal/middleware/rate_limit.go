package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const rateLimitKeyPrefix = "listings:ratelimit"

// RateLimitMiddleware limits requests per client IP. Counters live in Redis
// when it is configured, so every replica shares them; otherwise each
// process keeps its own token buckets.
type RateLimitMiddleware struct {
	server *server.Server
	store  middleware.RateLimiterStore
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	cfg := s.Config.RateLimit

	var store middleware.RateLimiterStore
	if s.Redis != nil {
		store = NewRedisRateLimiterStore(s.Redis, cfg.WindowLimit(), cfg.Window, s.Logger)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RequestsPerSecond),
			Burst:     cfg.Burst,
			ExpiresIn: 3 * time.Minute,
		})
	}

	return &RateLimitMiddleware{
		server: s,
		store:  store,
	}
}

// Limit returns the rate limiting middleware, or a pass-through when rate
// limiting is disabled.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	if !r.server.Config.RateLimit.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().Str("client", identifier).Msg("rate limit exceeded")
			return errs.NewTooManyRequestsError("Too many requests")
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewInternalServerError("Failed to identify client", err)
		},
	})
}

// RecordRateLimitHit reports a denied request to New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// RedisRateLimiterStore is a fixed-window counter per identifier: the first
// request of a window creates the key with a TTL of one window, and requests
// beyond limit are denied until the key expires.
//
// When Redis cannot be reached the request is allowed.
type RedisRateLimiterStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zerolog.Logger
}

var _ middleware.RateLimiterStore = (*RedisRateLimiterStore)(nil)

func NewRedisRateLimiterStore(client *redis.Client, limit int64, window time.Duration, logger *zerolog.Logger) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	key := fmt.Sprintf("%s:%s", rateLimitKeyPrefix, identifier)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return true, nil
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, s.window).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to set rate limit window")
		}
	}

	return count <= s.limit, nil
}
