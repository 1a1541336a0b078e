// Package store owns the connection state of the listings backend.
//
// An Adapter starts uninitialized. EnsureReady dials the configured backend
// at most once at a time: concurrent callers share a single attempt, a failed
// attempt leaves the adapter uninitialized so the next call retries, and a
// successful one is published for every later caller.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotInitialized is returned by the listing operations before a
	// successful EnsureReady.
	ErrNotInitialized = errors.New("listings store is not initialized")

	// ErrClosed is returned by EnsureReady after Close.
	ErrClosed = errors.New("listings store is closed")
)

// State is the connection state of an Adapter.
type State int32

const (
	StateUninitialized State = iota
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	default:
		return "uninitialized"
	}
}

// Dialer connects a backend. It is called with a context that is not tied to
// any request and carries the connect timeout.
type Dialer func(ctx context.Context) (repository.ListingRepository, error)

// Options tunes an Adapter. Zero values disable the respective setting.
type Options struct {
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration

	// SlowQueryThreshold logs store calls that take longer.
	SlowQueryThreshold time.Duration
}

type backend struct {
	repo repository.ListingRepository
}

// Adapter is a repository.ListingRepository that connects its backend on
// demand.
type Adapter struct {
	dial   Dialer
	opts   Options
	logger *zerolog.Logger

	group    singleflight.Group
	current  atomic.Pointer[backend]
	attempts atomic.Int64
	closed   atomic.Bool
}

var _ repository.ListingRepository = (*Adapter)(nil)

// NewAdapter returns an uninitialized adapter. Nothing is dialed until
// EnsureReady is called.
func NewAdapter(dial Dialer, opts Options, logger *zerolog.Logger) *Adapter {
	return &Adapter{
		dial:   dial,
		opts:   opts,
		logger: logger,
	}
}

// State reports whether a backend has been connected.
func (a *Adapter) State() State {
	if a.current.Load() != nil {
		return StateInitialized
	}
	return StateUninitialized
}

// Attempts is the number of times the dialer has been invoked.
func (a *Adapter) Attempts() int64 {
	return a.attempts.Load()
}

// EnsureReady connects the backend unless it already is. It is safe to call
// from any number of goroutines and returns nil once the adapter is
// initialized. A caller whose ctx ends stops waiting, but the shared attempt
// keeps running for the others.
func (a *Adapter) EnsureReady(ctx context.Context) error {
	if a.current.Load() != nil {
		return nil
	}
	if a.closed.Load() {
		return ErrClosed
	}

	ch := a.group.DoChan("dial", func() (any, error) {
		// A previous flight may have finished between the fast path and here.
		if b := a.current.Load(); b != nil {
			return b, nil
		}
		return a.connect(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) connect(ctx context.Context) (*backend, error) {
	attempt := a.attempts.Add(1)

	if a.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ConnectTimeout)
		defer cancel()
	}

	start := time.Now()
	repo, err := a.dial(ctx)
	if err != nil {
		a.logger.Error().
			Err(err).
			Int64("attempt", attempt).
			Dur("duration", time.Since(start)).
			Msg("failed to connect listings store")
		return nil, fmt.Errorf("connect listings store: %w", err)
	}

	b := &backend{repo: repo}
	a.current.Store(b)

	// Close may have run while dialing, or between the Store above and here.
	// Whichever side takes b out of current closes it.
	if a.closed.Load() {
		if a.current.CompareAndSwap(b, nil) {
			_ = repo.Close(ctx)
		}
		return nil, ErrClosed
	}

	a.logger.Info().
		Int64("attempt", attempt).
		Dur("duration", time.Since(start)).
		Msg("listings store initialized")

	return b, nil
}

func (a *Adapter) repo() (repository.ListingRepository, error) {
	b := a.current.Load()
	if b == nil {
		return nil, ErrNotInitialized
	}
	return b.repo, nil
}

// begin applies the query timeout and returns a func that ends the call,
// logging it when it was slow.
func (a *Adapter) begin(ctx context.Context, op string) (context.Context, func()) {
	start := time.Now()
	cancel := context.CancelFunc(func() {})
	if a.opts.QueryTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.opts.QueryTimeout)
	}

	return ctx, func() {
		cancel()
		if a.opts.SlowQueryThreshold <= 0 {
			return
		}
		if d := time.Since(start); d > a.opts.SlowQueryThreshold {
			logger := zerolog.Ctx(ctx)
			if logger.GetLevel() == zerolog.Disabled {
				logger = a.logger
			}
			logger.Warn().
				Str("op", op).
				Dur("duration", d).
				Dur("threshold", a.opts.SlowQueryThreshold).
				Msg("slow store call")
		}
	}
}

func (a *Adapter) Create(ctx context.Context, doc repository.Document) (repository.Document, error) {
	r, err := a.repo()
	if err != nil {
		return nil, err
	}
	ctx, end := a.begin(ctx, "create")
	defer end()
	return r.Create(ctx, doc)
}

func (a *Adapter) List(ctx context.Context, q repository.ListQuery) (*repository.ListingPage, error) {
	r, err := a.repo()
	if err != nil {
		return nil, err
	}
	ctx, end := a.begin(ctx, "list")
	defer end()
	return r.List(ctx, q)
}

func (a *Adapter) GetByID(ctx context.Context, id string) (repository.Document, error) {
	r, err := a.repo()
	if err != nil {
		return nil, err
	}
	ctx, end := a.begin(ctx, "get")
	defer end()
	return r.GetByID(ctx, id)
}

func (a *Adapter) UpdateByID(ctx context.Context, id string, fields repository.Document) error {
	r, err := a.repo()
	if err != nil {
		return err
	}
	ctx, end := a.begin(ctx, "update")
	defer end()
	return r.UpdateByID(ctx, id, fields)
}

func (a *Adapter) DeleteByID(ctx context.Context, id string) error {
	r, err := a.repo()
	if err != nil {
		return err
	}
	ctx, end := a.begin(ctx, "delete")
	defer end()
	return r.DeleteByID(ctx, id)
}

// Ping checks the connected backend. It does not trigger a dial.
func (a *Adapter) Ping(ctx context.Context) error {
	r, err := a.repo()
	if err != nil {
		return err
	}
	return r.Ping(ctx)
}

// Close releases the backend, if any, and makes later EnsureReady calls fail.
func (a *Adapter) Close(ctx context.Context) error {
	a.closed.Store(true)
	b := a.current.Swap(nil)
	if b == nil {
		return nil
	}
	return b.repo.Close(ctx)
}
