// Package mockserver is an in-memory CRM backend. It serves the same REST
// endpoints as the real API and backs the "mock" base URL mode.
package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// Server holds the mock backend state.
type Server struct {
	mu        sync.Mutex
	deals     map[string]domain.Deal
	payments  []domain.Payment
	feed      map[string]domain.FeedItem
	channels  []domain.ChannelState
	now       func() time.Time
	stageFail *failure
}

type failure struct {
	status  int
	message string
}

// Option configures a Server.
type Option func(*Server)

// WithDeals replaces the seeded deals.
func WithDeals(deals ...domain.Deal) Option {
	return func(s *Server) {
		s.deals = make(map[string]domain.Deal, len(deals))
		for _, d := range deals {
			s.deals[d.ID] = d.Clone()
		}
	}
}

// WithFeed replaces the seeded feed items.
func WithFeed(items ...domain.FeedItem) Option {
	return func(s *Server) {
		s.feed = make(map[string]domain.FeedItem, len(items))
		for _, item := range items {
			s.feed[item.ID] = item.Clone()
		}
	}
}

// WithChannels replaces the seeded channel settings.
func WithChannels(channels ...domain.ChannelState) Option {
	return func(s *Server) { s.channels = append([]domain.ChannelState(nil), channels...) }
}

// WithPayments replaces the seeded payments.
func WithPayments(payments ...domain.Payment) Option {
	return func(s *Server) { s.payments = append([]domain.Payment(nil), payments...) }
}

// WithClock sets the time source for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server seeded with sample data.
func New(opts ...Option) *Server {
	s := &Server{now: time.Now}
	seed(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNextStageUpdate makes the next stage change answer with status and message.
func (s *Server) FailNextStageUpdate(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageFail = &failure{status: status, message: message}
}

// Deal returns the server copy of a deal.
func (s *Server) Deal(id string) (domain.Deal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	return d.Clone(), ok
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /crm/deals", s.listDeals)
	mux.HandleFunc("GET /crm/deals/stage-metrics", s.stageMetrics)
	mux.HandleFunc("GET /crm/deals/{id}", s.getDeal)
	mux.HandleFunc("PATCH /crm/deals/{id}/stage", s.updateStage)
	mux.HandleFunc("GET /crm/deals/{id}/payments", s.dealPayments)
	mux.HandleFunc("GET /crm/payments", s.listPayments)
	mux.HandleFunc("GET /notifications/feed", s.getFeed)
	mux.HandleFunc("POST /notifications/feed/read", s.markRead)
	mux.HandleFunc("POST /notifications/feed/important", s.markImportant)
	mux.HandleFunc("DELETE /notifications/feed", s.deleteItems)
	mux.HandleFunc("PATCH /notifications/channels/{channel}", s.updateChannel)
	return mux
}

// Transport serves requests in-process, without a listening socket.
func (s *Server) Transport() http.RoundTripper {
	return handlerTransport{h: s.Handler()}
}

type handlerTransport struct {
	h http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	filters, err := domain.ParseDealFilters(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	out := make([]domain.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if matchesDeal(d, filters) {
			out = append(out, d.Clone())
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func matchesDeal(d domain.Deal, f domain.DealFilters) bool {
	if f.Stage != "" && f.Stage != "all" && d.Stage != f.Stage {
		return false
	}
	if f.Owner != "" && d.Owner != f.Owner {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(d.Title+" \x00"+d.ClientID), q)
	}
	return true
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	d, ok := s.Deal(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Deal not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateStage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Stage string `json:"stage"`
	}
	if !decode(w, r, &body) {
		return
	}
	stage, err := domain.ParseStage(body.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if f := s.stageFail; f != nil {
		s.stageFail = nil
		s.mu.Unlock()
		writeError(w, f.status, f.message)
		return
	}
	id := r.PathValue("id")
	d, ok := s.deals[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Deal not found")
		return
	}
	d.Stage = stage
	updated := s.now().UTC()
	if !updated.After(d.UpdatedAt) {
		updated = d.UpdatedAt.Add(time.Second)
	}
	d.UpdatedAt = updated
	s.deals[id] = d
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, d.Clone())
}

func (s *Server) stageMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	byStage := make(map[domain.Stage]*domain.StageMetric, len(domain.Stages))
	for _, d := range s.deals {
		m, ok := byStage[d.Stage]
		if !ok {
			m = &domain.StageMetric{Stage: d.Stage}
			byStage[d.Stage] = m
		}
		m.Count++
		m.TotalValue += d.Value
	}
	s.mu.Unlock()

	out := make([]domain.StageMetric, 0, len(domain.Stages))
	for _, stage := range domain.Stages {
		if m, ok := byStage[stage]; ok {
			out = append(out, *m)
		} else {
			out = append(out, domain.StageMetric{Stage: stage})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) dealPayments(w http.ResponseWriter, r *http.Request) {
	s.writePayments(w, r.PathValue("id"))
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	s.writePayments(w, "")
}

func (s *Server) writePayments(w http.ResponseWriter, dealID string) {
	s.mu.Lock()
	out := make([]domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if dealID == "" || p.DealID == dealID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
