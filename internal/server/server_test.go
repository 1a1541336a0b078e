package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deppfellow/listings-api/internal/config"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/deppfellow/listings-api/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, strategy string, dial store.Dialer) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.InitStrategy = strategy
	cfg.Database.Driver = config.DriverMemory

	logger := zerolog.Nop()
	return &Server{
		Config: cfg,
		Logger: &logger,
		Store:  store.NewAdapter(dial, store.Options{ConnectTimeout: time.Second}, &logger),
	}
}

func memoryDialer(calls *atomic.Int32) store.Dialer {
	return func(context.Context) (repository.ListingRepository, error) {
		calls.Add(1)
		return repository.NewMemoryListingRepository(), nil
	}
}

func TestInitStoreEagerBlocking(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, config.InitEagerBlocking, memoryDialer(&calls))

	require.NoError(t, s.InitStore(context.Background()))
	assert.Equal(t, store.StateInitialized, s.Store.State())
	assert.Equal(t, int32(1), calls.Load())
}

func TestInitStoreEagerBlockingFailure(t *testing.T) {
	boom := errors.New("no reachable servers")
	s := newTestServer(t, config.InitEagerBlocking, func(context.Context) (repository.ListingRepository, error) {
		return nil, boom
	})

	err := s.InitStore(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, store.StateUninitialized, s.Store.State())
}

func TestInitStoreEagerNonBlocking(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, config.InitEagerNonBlocking, memoryDialer(&calls))

	require.NoError(t, s.InitStore(context.Background()))
	require.Eventually(t, func() bool {
		return s.Store.State() == store.StateInitialized
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInitStoreEagerNonBlockingFailureDoesNotFail(t *testing.T) {
	s := newTestServer(t, config.InitEagerNonBlocking, func(context.Context) (repository.ListingRepository, error) {
		return nil, errors.New("connection refused")
	})

	require.NoError(t, s.InitStore(context.Background()))
	require.Eventually(t, func() bool { return s.Store.Attempts() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, store.StateUninitialized, s.Store.State())
}

func TestInitStoreLazy(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, config.InitLazy, memoryDialer(&calls))

	require.NoError(t, s.InitStore(context.Background()))
	assert.Equal(t, store.StateUninitialized, s.Store.State())
	assert.Equal(t, int32(0), calls.Load())
}

func TestShutdownClosesStore(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, config.InitEagerBlocking, memoryDialer(&calls))
	require.NoError(t, s.InitStore(context.Background()))

	require.NoError(t, s.Shutdown(context.Background()))
	assert.ErrorIs(t, s.Store.EnsureReady(context.Background()), store.ErrClosed)
}
