// Package core wires the realtime components behind one facade used by the
// CLI: the entity cache with its API fetchers, the notification feed store
// and its local journal, the optimistic mutation controller and the stream
// bridge.
package core

import (
	"errors"
	"time"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/feed"
	"github.com/cristianoliveira/crmsync/internal/logging"
	"github.com/cristianoliveira/crmsync/internal/mutation"
	"github.com/cristianoliveira/crmsync/internal/ports"
	"github.com/cristianoliveira/crmsync/internal/stream"
	"github.com/cristianoliveira/crmsync/internal/uistate"
)

// ErrNoBackend is returned by operations that need the CRM API when the core
// runs offline against the local journal only.
var ErrNoBackend = errors.New("no CRM backend configured")

// Core is the application facade.
type Core struct {
	backend    ports.Backend
	repo       ports.Repository
	cache      *cache.Cache
	feed       *feed.Store
	channels   *feed.Channels
	controller *mutation.Controller
	logger     logging.Logger
	transport  stream.Transport
	uiOpts     []uistate.Option
	cacheOpts  []cache.Option
	now        func() time.Time
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger shared by every component.
func WithLogger(l logging.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransport sets the push transport used by Watch.
func WithTransport(t stream.Transport) Option {
	return func(c *Core) { c.transport = t }
}

// WithUIOptions configures the UI store created by Watch.
func WithUIOptions(opts ...uistate.Option) Option {
	return func(c *Core) { c.uiOpts = append(c.uiOpts, opts...) }
}

// WithClock sets the time source of optimistic writes.
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// WithCacheOptions passes options to the entity cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *Core) { c.cacheOpts = append(c.cacheOpts, opts...) }
}

// New creates a core. backend may be nil, in which case only local feed
// operations are available.
func New(backend ports.Backend, repo ports.Repository, opts ...Option) *Core {
	c := &Core{
		backend:  backend,
		repo:     repo,
		feed:     feed.New(),
		channels: feed.NewChannels(),
		logger:   logging.NewNoop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cache = cache.New(append([]cache.Option{cache.WithLogger(c.logger)}, c.cacheOpts...)...)
	if backend != nil {
		api.RegisterFetchers(c.cache, backend)
		c.controller = mutation.NewController(c.cache, backend,
			mutation.WithLogger(c.logger), mutation.WithClock(c.now))
	}
	return c
}

// Cache returns the entity cache.
func (c *Core) Cache() *cache.Cache {
	return c.cache
}

// Feed returns the notification feed store.
func (c *Core) Feed() *feed.Store {
	return c.feed
}

// Channels returns the channel settings store.
func (c *Core) Channels() *feed.Channels {
	return c.channels
}

// Close stops background fetches.
func (c *Core) Close() {
	c.cache.Close()
}
