// Package cache implements the entity cache shared by the realtime components.
//
// Entries are keyed by entity kind plus serialized query parameters and hold
// independent copies of their data: the same deal may live in several list
// entries and in its own detail entry. All operations are atomic; Batch makes a
// group of operations atomic as a whole. Subscribers and background refetches
// run after the cache lock is released.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cristianoliveira/crmsync/internal/logging"
)

var (
	// ErrNoFetcher is returned when no fetcher is registered for a key's kind.
	ErrNoFetcher = errors.New("cache: no fetcher registered")
	// ErrHeld is returned by Fetch when the entry is held by a pending mutation.
	ErrHeld = errors.New("cache: entry is held")
)

// Option configures a Cache.
type Option func(*Cache)

// WithFetcher registers the fetcher for a kind.
func WithFetcher(kind string, f Fetcher) Option {
	return func(c *Cache) { c.fetchers[kind] = f }
}

// WithScheduler replaces the background job runner.
func WithScheduler(s Scheduler) Option {
	return func(c *Cache) { c.schedule = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithClock sets the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache is a keyed, observable store of entity data.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	holds    map[Key]int
	fetchers map[string]Fetcher
	subs     map[int]Listener
	nextSub  int

	schedule Scheduler
	logger   logging.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:  make(map[Key]*entry),
		holds:    make(map[Key]int),
		fetchers: make(map[string]Fetcher),
		subs:     make(map[int]Listener),
		schedule: func(job func()) { go job() },
		logger:   logging.NewNoop(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterFetcher binds a fetcher to a kind, replacing any previous one.
func (c *Cache) RegisterFetcher(kind string, f Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[kind] = f
}

// Batch runs fn while holding the cache lock, so no reader observes a
// partially applied group of writes. fn must not call other Cache methods.
func (c *Cache) Batch(fn func(tx *Tx)) {
	c.mu.Lock()
	tx := &Tx{c: c}
	func() {
		defer c.mu.Unlock()
		fn(tx)
		tx.done = true
	}()
	c.publish(tx.events)
	for _, job := range tx.jobs {
		c.dispatch(job)
	}
}

// Get returns the entry for key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Data returns the data stored for key, or nil.
func (c *Cache) Data(key Key) any {
	e, _ := c.Get(key)
	return e.Data
}

// Set stores data for key as a successful, fresh value.
func (c *Cache) Set(key Key, data any) {
	c.Batch(func(tx *Tx) { tx.Set(key, data) })
}

// Update replaces the data of an existing entry with fn(old).
// It reports false when the entry does not exist or holds no data.
func (c *Cache) Update(key Key, fn func(old any) any) bool {
	var ok bool
	c.Batch(func(tx *Tx) {
		e, found := tx.Get(key)
		if !found || !e.HasData() {
			return
		}
		tx.Set(key, fn(e.Data))
		ok = true
	})
	return ok
}

// Remove deletes the entry for key.
func (c *Cache) Remove(key Key) {
	c.Batch(func(tx *Tx) { tx.Remove(key) })
}

// Find returns the entries accepted by m, ordered by key.
func (c *Cache) Find(m Matcher) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.find(m)
}

// Invalidate marks the entries accepted by m stale and schedules a refetch for
// each one that has a fetcher and is not held. It returns the number of entries marked.
func (c *Cache) Invalidate(m Matcher) int {
	var n int
	c.Batch(func(tx *Tx) { n = tx.Invalidate(m) })
	return n
}

// Cancel makes an in-flight fetch for key unable to write its result.
// The request itself is allowed to complete.
func (c *Cache) Cancel(key Key) {
	c.Batch(func(tx *Tx) { tx.cancelFetch(key) })
}

// Hold keeps fetch results from overwriting the given keys until release is called.
func (c *Cache) Hold(keys ...Key) (release func()) {
	c.Batch(func(tx *Tx) { tx.hold(keys) })
	var once sync.Once
	return func() {
		once.Do(func() { c.Batch(func(tx *Tx) { tx.Resume(keys...) }) })
	}
}

// Fetch loads key synchronously through its fetcher and stores the result.
func (c *Cache) Fetch(ctx context.Context, key Key) (Entry, error) {
	var (
		job fetchJob
		err error
	)
	c.Batch(func(tx *Tx) {
		if c.holds[key] > 0 {
			err = ErrHeld
			return
		}
		var ok bool
		job, ok = tx.startFetch(key)
		if !ok {
			err = fmt.Errorf("%w for kind %q", ErrNoFetcher, key.Kind)
		}
	})
	if err != nil {
		e, _ := c.Get(key)
		return e, err
	}
	data, fetchErr := job.fetch(ctx, key)
	c.finishFetch(job, data, fetchErr)
	e, _ := c.Get(key)
	if fetchErr != nil {
		return e, fmt.Errorf("fetch %s: %w", key, fetchErr)
	}
	return e, nil
}

// Subscribe registers a listener for entry changes.
func (c *Cache) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Wait blocks until all scheduled background fetches have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close cancels background fetches and waits for them to return.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) find(m Matcher) []Entry {
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		if m == nil || m(k) {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.entries[k].Entry)
	}
	return out
}

type fetchJob struct {
	key   Key
	gen   uint64
	fetch Fetcher
}

func (c *Cache) dispatch(job fetchJob) {
	c.wg.Add(1)
	c.schedule(func() {
		defer c.wg.Done()
		data, err := job.fetch(c.ctx, job.key)
		c.finishFetch(job, data, err)
	})
}

func (c *Cache) finishFetch(job fetchJob, data any, err error) {
	c.Batch(func(tx *Tx) {
		e, ok := c.entries[job.key]
		if !ok {
			return
		}
		if e.gen != job.gen {
			c.logger.Debug("discarding superseded fetch", "entry", job.key.String())
			return
		}
		if c.holds[job.key] > 0 {
			c.logger.Debug("discarding fetch for held entry", "entry", job.key.String())
			return
		}
		if err != nil {
			c.logger.Warn("fetch failed", "entry", job.key.String(), "error", err)
			e.Status = StatusError
			e.Err = err
			tx.emit(e)
			return
		}
		tx.write(e, data)
	})
}

func (c *Cache) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, c.subs[id])
	}
	c.mu.Unlock()
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
