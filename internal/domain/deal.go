// Package domain holds the CRM entities the realtime layer keeps in sync:
// deals, ambient notifications, feed items and payment events.
package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Stage is a pipeline stage of a deal. Any stage may move to any other stage.
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
)

// Stages lists the pipeline stages in board order.
var Stages = []Stage{
	StageProspecting,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// IsValid checks if the stage is one of the known pipeline stages.
func (s Stage) IsValid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// ParseStage parses a string into a Stage.
func ParseStage(value string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(value)))
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid deal stage: %s", value)
	}
	return stage, nil
}

// Deal is a pipeline entity. UpdatedAt is assigned by the server and only
// moves forward for a given deal.
type Deal struct {
	ID                string     `json:"id" yaml:"id"`
	Title             string     `json:"title" yaml:"title"`
	ClientID          string     `json:"clientId,omitempty" yaml:"client_id,omitempty"`
	Stage             Stage      `json:"stage" yaml:"stage"`
	Value             float64    `json:"value,omitempty" yaml:"value,omitempty"`
	Currency          string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	Probability       float64    `json:"probability,omitempty" yaml:"probability,omitempty"`
	Owner             string     `json:"owner,omitempty" yaml:"owner,omitempty"`
	NextReviewAt      *time.Time `json:"nextReviewAt,omitempty" yaml:"next_review_at,omitempty"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty" yaml:"expected_close_date,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt" yaml:"updated_at"`
}

// Clone returns a copy of the deal that shares no memory with the receiver.
func (d Deal) Clone() Deal {
	out := d
	if d.NextReviewAt != nil {
		t := *d.NextReviewAt
		out.NextReviewAt = &t
	}
	if d.ExpectedCloseDate != nil {
		t := *d.ExpectedCloseDate
		out.ExpectedCloseDate = &t
	}
	return out
}

// CloneDeals deep-copies a deal collection. A nil slice stays nil.
func CloneDeals(deals []Deal) []Deal {
	if deals == nil {
		return nil
	}
	out := make([]Deal, len(deals))
	for i, d := range deals {
		out[i] = d.Clone()
	}
	return out
}

// DealFilters are the query parameters of a deal list view.
type DealFilters struct {
	Stage  Stage
	Owner  string
	Search string
}

// Encode serializes the filters deterministically; it is the params part of
// a list cache key.
func (f DealFilters) Encode() string {
	values := url.Values{}
	if f.Stage != "" && f.Stage != "all" {
		values.Set("stage", string(f.Stage))
	}
	if f.Owner != "" {
		values.Set("owner", f.Owner)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		values.Set("search", s)
	}
	return values.Encode()
}

// ParseDealFilters is the inverse of DealFilters.Encode.
func ParseDealFilters(encoded string) (DealFilters, error) {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return DealFilters{}, fmt.Errorf("parse deal filters: %w", err)
	}
	return DealFilters{
		Stage:  Stage(values.Get("stage")),
		Owner:  values.Get("owner"),
		Search: values.Get("search"),
	}, nil
}

// StageMetric is an aggregate derived from deals; the server recomputes it
// whenever a deal changes stage.
type StageMetric struct {
	Stage      Stage   `json:"stage" yaml:"stage"`
	Count      int     `json:"count" yaml:"count"`
	TotalValue float64 `json:"totalValue" yaml:"total_value"`
}

// Payment is a payment record attached to a deal.
type Payment struct {
	ID       string    `json:"id" yaml:"id"`
	DealID   string    `json:"dealId" yaml:"deal_id"`
	Amount   float64   `json:"amount" yaml:"amount"`
	Currency string    `json:"currency" yaml:"currency"`
	Status   string    `json:"status" yaml:"status"`
	DueDate  string    `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	Updated  time.Time `json:"updatedAt" yaml:"updated_at"`
}
