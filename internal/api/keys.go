package api

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// Cache kinds backed by the API.
const (
	KindDeals        = "deals"
	KindDeal         = "deal"
	KindStageMetrics = "deal-stage-metrics"
	KindPayments     = "payments"
)

// DealsKey addresses a deal list view.
func DealsKey(filters domain.DealFilters) cache.Key {
	return cache.Key{Kind: KindDeals, Params: filters.Encode()}
}

// DealKey addresses the detail view of one deal.
func DealKey(id string) cache.Key {
	return cache.Key{Kind: KindDeal, Params: id}
}

// StageMetricsKey addresses the pipeline aggregate.
func StageMetricsKey() cache.Key {
	return cache.Key{Kind: KindStageMetrics}
}

// PaymentsKey addresses the payments of one deal, or all payments for "".
func PaymentsKey(dealID string) cache.Key {
	return cache.Key{Kind: KindPayments, Params: dealID}
}

// DealReader is the read side of the deal API. *Client implements it.
type DealReader interface {
	ListDeals(ctx context.Context, filters domain.DealFilters) ([]domain.Deal, error)
	GetDeal(ctx context.Context, id string) (domain.Deal, error)
	GetStageMetrics(ctx context.Context) ([]domain.StageMetric, error)
	ListPayments(ctx context.Context, dealID string) ([]domain.Payment, error)
}

// RegisterFetchers binds every API-backed kind to the client.
func RegisterFetchers(c *cache.Cache, client DealReader) {
	c.RegisterFetcher(KindDeals, func(ctx context.Context, key cache.Key) (any, error) {
		filters, err := domain.ParseDealFilters(key.Params)
		if err != nil {
			return nil, err
		}
		return client.ListDeals(ctx, filters)
	})
	c.RegisterFetcher(KindDeal, func(ctx context.Context, key cache.Key) (any, error) {
		if key.Params == "" {
			return nil, fmt.Errorf("deal key without id")
		}
		return client.GetDeal(ctx, key.Params)
	})
	c.RegisterFetcher(KindStageMetrics, func(ctx context.Context, key cache.Key) (any, error) {
		return client.GetStageMetrics(ctx)
	})
	c.RegisterFetcher(KindPayments, func(ctx context.Context, key cache.Key) (any, error) {
		return client.ListPayments(ctx, key.Params)
	})
}
