// Package mutation performs optimistic writes against the entity cache.
//
// A mutation suspends refetches of the entries it touches, snapshots them,
// applies the optimistic value, issues the remote write, then either
// reconciles with the server result or rolls back. Whatever the outcome, the
// touched entries and derived aggregates are invalidated at settle.
package mutation

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/logging"
)

// Spec describes one optimistic mutation.
type Spec struct {
	// Name is used in logs and errors.
	Name string
	// Touched selects the entries the mutation may change. It runs inside
	// the first batch.
	Touched func(tx *cache.Tx) []cache.Key
	// Apply returns the optimistic value of an entry, or false to leave it.
	Apply func(key cache.Key, data any) (any, bool)
	// Write performs the remote call.
	Write func(ctx context.Context) (any, error)
	// Reconcile returns the value of an entry given the server result, or
	// false to leave it.
	Reconcile func(key cache.Key, data any, result any) (any, bool)
	// Aggregates match derived entries invalidated at settle as well.
	Aggregates []cache.Matcher
}

// StageWriter writes a deal stage remotely. *api.Client implements it.
type StageWriter interface {
	UpdateDealStage(ctx context.Context, dealID string, stage domain.Stage) (domain.Deal, error)
}

// DealTransform computes the optimistic deal from the current one.
type DealTransform func(d domain.Deal) domain.Deal

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source of the default optimistic transform.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCloner replaces CloneData.
func WithCloner(clone Cloner) Option {
	return func(c *Controller) { c.clone = clone }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller runs optimistic mutations against one cache.
type Controller struct {
	cache  *cache.Cache
	writer StageWriter
	clone  Cloner
	now    func() time.Time
	logger logging.Logger
}

// NewController creates a controller.
func NewController(c *cache.Cache, writer StageWriter, opts ...Option) *Controller {
	ctrl := &Controller{
		cache:  c,
		writer: writer,
		clone:  CloneData,
		now:    time.Now,
		logger: logging.NewNoop(),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Mutate runs spec. On failure every touched entry is restored before the
// error is returned.
func (c *Controller) Mutate(ctx context.Context, spec Spec) (any, error) {
	var (
		keys []cache.Key
		snap Snapshot
	)
	c.cache.Batch(func(tx *cache.Tx) {
		keys = spec.Touched(tx)
		tx.Suspend(keys...)
		snap = Capture(tx, keys, c.clone)
		for _, k := range keys {
			e, ok := tx.Get(k)
			if !ok || !e.HasData() {
				continue
			}
			if next, changed := spec.Apply(k, c.clone(e.Data)); changed {
				tx.Set(k, next)
			}
		}
	})
	c.logger.Debug("optimistic update applied", "mutation", spec.Name, "entries", len(keys))

	result, err := spec.Write(ctx)

	c.cache.Batch(func(tx *cache.Tx) {
		if err != nil {
			snap.Rollback(tx)
		} else if spec.Reconcile != nil {
			snap.Reconcile(tx, func(k cache.Key, data any) (any, bool) {
				return spec.Reconcile(k, c.clone(data), result)
			})
		}
		tx.Resume(keys...)
		tx.Invalidate(cache.MatchAny(append([]cache.Matcher{cache.MatchKeys(keys...)}, spec.Aggregates...)...))
	})

	if err != nil {
		c.logger.Warn("mutation failed, rolled back", "mutation", spec.Name, "error", err)
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return result, nil
}

// UpdateDealStage moves a deal to stage. Every cached list and the detail
// entry show the new stage immediately; the server result replaces it on
// success and the previous value is restored on failure. transform may be
// nil, in which case the stage is set and UpdatedAt moves to now.
func (c *Controller) UpdateDealStage(ctx context.Context, dealID string, stage domain.Stage, transform DealTransform) (domain.Deal, error) {
	if !stage.IsValid() {
		return domain.Deal{}, fmt.Errorf("invalid stage: %s", stage)
	}
	if transform == nil {
		transform = func(d domain.Deal) domain.Deal {
			d.Stage = stage
			d.UpdatedAt = c.now()
			return d
		}
	}
	detail := api.DealKey(dealID)

	result, err := c.Mutate(ctx, Spec{
		Name: "update stage of deal " + dealID,
		Touched: func(tx *cache.Tx) []cache.Key {
			keys := []cache.Key{detail}
			for _, e := range tx.Find(cache.MatchKind(api.KindDeals)) {
				keys = append(keys, e.Key)
			}
			return keys
		},
		Apply: func(_ cache.Key, data any) (any, bool) {
			return replaceDeal(data, dealID, transform)
		},
		Write: func(ctx context.Context) (any, error) {
			return c.writer.UpdateDealStage(ctx, dealID, stage)
		},
		Reconcile: func(_ cache.Key, data any, result any) (any, bool) {
			server := result.(domain.Deal)
			return replaceDeal(data, dealID, func(domain.Deal) domain.Deal { return server.Clone() })
		},
		Aggregates: []cache.Matcher{cache.MatchKind(api.KindStageMetrics)},
	})
	if err != nil {
		return domain.Deal{}, err
	}
	return result.(domain.Deal), nil
}

// replaceDeal applies fn to the deal with id inside a detail or list value.
func replaceDeal(data any, id string, fn DealTransform) (any, bool) {
	switch v := data.(type) {
	case domain.Deal:
		if v.ID != id {
			return nil, false
		}
		return fn(v), true
	case []domain.Deal:
		for i, d := range v {
			if d.ID == id {
				out := domain.CloneDeals(v)
				out[i] = fn(d)
				return out, true
			}
		}
	}
	return nil, false
}
