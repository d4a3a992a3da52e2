package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// ListDeals returns the deals matching the filters.
func (c *Client) ListDeals(ctx context.Context, filters domain.DealFilters) ([]domain.Deal, error) {
	query, _ := url.ParseQuery(filters.Encode())
	var deals []domain.Deal
	if err := c.do(ctx, http.MethodGet, "/crm/deals", query, nil, &deals); err != nil {
		return nil, err
	}
	if deals == nil {
		deals = []domain.Deal{}
	}
	return deals, nil
}

// GetDeal returns one deal.
func (c *Client) GetDeal(ctx context.Context, id string) (domain.Deal, error) {
	var deal domain.Deal
	err := c.do(ctx, http.MethodGet, "/crm/deals/"+url.PathEscape(id), nil, nil, &deal)
	return deal, err
}

type stageRequest struct {
	Stage domain.Stage `json:"stage"`
}

// UpdateDealStage moves a deal to stage and returns the authoritative deal.
func (c *Client) UpdateDealStage(ctx context.Context, id string, stage domain.Stage) (domain.Deal, error) {
	var deal domain.Deal
	err := c.do(ctx, http.MethodPatch, "/crm/deals/"+url.PathEscape(id)+"/stage", nil, stageRequest{Stage: stage}, &deal)
	return deal, err
}

// GetStageMetrics returns the per-stage pipeline aggregate.
func (c *Client) GetStageMetrics(ctx context.Context) ([]domain.StageMetric, error) {
	var metrics []domain.StageMetric
	if err := c.do(ctx, http.MethodGet, "/crm/deals/stage-metrics", nil, nil, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// ListPayments returns the payments of a deal, or all payments when dealID is empty.
func (c *Client) ListPayments(ctx context.Context, dealID string) ([]domain.Payment, error) {
	path := "/crm/payments"
	if id := strings.TrimSpace(dealID); id != "" {
		path = "/crm/deals/" + url.PathEscape(id) + "/payments"
	}
	var payments []domain.Payment
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
