package core

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/mutation"
)

// ListDeals returns the deal list view for filters through the cache.
func (c *Core) ListDeals(ctx context.Context, filters domain.DealFilters) ([]domain.Deal, error) {
	data, err := c.fetch(ctx, api.DealsKey(filters))
	if err != nil {
		return nil, err
	}
	deals, _ := data.([]domain.Deal)
	return domain.CloneDeals(deals), nil
}

// GetDeal returns one deal through the cache.
func (c *Core) GetDeal(ctx context.Context, id string) (domain.Deal, error) {
	data, err := c.fetch(ctx, api.DealKey(id))
	if err != nil {
		return domain.Deal{}, err
	}
	deal, _ := data.(domain.Deal)
	return deal.Clone(), nil
}

// StageMetrics returns the pipeline aggregate through the cache.
func (c *Core) StageMetrics(ctx context.Context) ([]domain.StageMetric, error) {
	data, err := c.fetch(ctx, api.StageMetricsKey())
	if err != nil {
		return nil, err
	}
	metrics, _ := data.([]domain.StageMetric)
	return append([]domain.StageMetric(nil), metrics...), nil
}

// Payments returns the payments of a deal through the cache.
func (c *Core) Payments(ctx context.Context, dealID string) ([]domain.Payment, error) {
	data, err := c.fetch(ctx, api.PaymentsKey(dealID))
	if err != nil {
		return nil, err
	}
	payments, _ := data.([]domain.Payment)
	return append([]domain.Payment(nil), payments...), nil
}

// MoveDeal changes the stage of a deal optimistically. The deal detail is
// loaded first when the cache does not hold it yet.
func (c *Core) MoveDeal(ctx context.Context, dealID string, stage domain.Stage, transform mutation.DealTransform) (domain.Deal, error) {
	if c.backend == nil {
		return domain.Deal{}, ErrNoBackend
	}
	if e, ok := c.cache.Get(api.DealKey(dealID)); !ok || !e.HasData() {
		if _, err := c.cache.Fetch(ctx, api.DealKey(dealID)); err != nil {
			return domain.Deal{}, fmt.Errorf("move deal %s: %w", dealID, err)
		}
	}
	return c.controller.UpdateDealStage(ctx, dealID, stage, transform)
}

func (c *Core) fetch(ctx context.Context, key cache.Key) (any, error) {
	if c.backend == nil {
		return nil, ErrNoBackend
	}
	e, err := c.cache.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.Data, nil
}
