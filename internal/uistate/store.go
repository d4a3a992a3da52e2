// Package uistate holds the UI-facing state the realtime layer writes to: the
// ambient notification log, deal highlights, recently updated deals, deal
// selection and deal-details requests.
package uistate

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/payments"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultLogLimit caps the ambient notification log.
	DefaultLogLimit = 20
	// DefaultHighlightDuration is how long a deal stays highlighted.
	DefaultHighlightDuration = 3 * time.Second
)

// Timer is the part of *time.Timer the store needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func defaultAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DetailsRequest asks the presentation layer to open a deal. Seq grows with
// every request so repeated requests for the same deal are distinguishable.
type DetailsRequest struct {
	DealID      string    `json:"dealId" yaml:"deal_id"`
	Seq         uint64    `json:"seq" yaml:"seq"`
	RequestedAt time.Time `json:"requestedAt" yaml:"requested_at"`
}

// PaymentEventResult tells the caller whether payment data should be refetched.
type PaymentEventResult struct {
	ShouldRefetch bool
}

// State is a snapshot of the store.
type State struct {
	Notifications      []domain.Notification
	HighlightedDeal    string
	DealUpdates        map[string]time.Time
	SelectedDeals      []string
	DealDetailsRequest *DetailsRequest
}

// Option configures a Store.
type Option func(*Store)

// WithLogLimit sets the ambient log capacity.
func WithLogLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithHighlightDuration sets how long a highlight lasts.
func WithHighlightDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.highlightFor = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc. f must not be run before AfterFunc returns.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Store) { s.afterFunc = f }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDefaultCurrency sets the currency used for payment amounts without one.
func WithDefaultCurrency(code string) Option {
	return func(s *Store) { s.currency = code }
}

// Store is safe for concurrent use. Listeners are called after the lock is
// released, with a copy of the new state.
type Store struct {
	mu            sync.Mutex
	notifications []domain.Notification
	highlighted   string
	highlightSeq  uint64
	highlightTm   Timer
	updates       map[string]time.Time
	selected      []string
	details       *DetailsRequest
	detailsSeq    uint64

	subs    map[int]func(State)
	nextSub int

	limit        int
	highlightFor time.Duration
	afterFunc    AfterFunc
	now          func() time.Time
	currency     string
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		updates:      make(map[string]time.Time),
		subs:         make(map[int]func(State)),
		limit:        DefaultLogLimit,
		highlightFor: DefaultHighlightDuration,
		afterFunc:    defaultAfterFunc,
		now:          time.Now,
		currency:     "RUB",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate runs fn under the lock and notifies listeners when fn reports a change.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	state := s.snapshotLocked()
	listeners := make([]func(State), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

func (s *Store) snapshotLocked() State {
	st := State{
		Notifications:   append([]domain.Notification(nil), s.notifications...),
		HighlightedDeal: s.highlighted,
		DealUpdates:     make(map[string]time.Time, len(s.updates)),
		SelectedDeals:   append([]string(nil), s.selected...),
	}
	for k, v := range s.updates {
		st.DealUpdates[k] = v
	}
	if s.details != nil {
		d := *s.details
		st.DealDetailsRequest = &d
	}
	return st
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for state changes and returns its unsubscribe func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// PushNotification adds n to the front of the ambient log and returns the
// stored copy. An entry with the same id is replaced; the oldest entries are
// evicted once the log is full. Missing id, severity and time are filled in.
func (s *Store) PushNotification(n domain.Notification) domain.Notification {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if !n.Severity.IsValid() {
		n.Severity = domain.SeverityInfo
	}
	s.mutate(func() bool {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now()
		}
		next := make([]domain.Notification, 0, len(s.notifications)+1)
		next = append(next, n)
		for _, existing := range s.notifications {
			if existing.ID != n.ID {
				next = append(next, existing)
			}
		}
		if len(next) > s.limit {
			next = next[:s.limit]
		}
		s.notifications = next
		return true
	})
	return n
}

// DismissNotification removes a notification from the log.
func (s *Store) DismissNotification(id string) bool {
	var found bool
	s.mutate(func() bool {
		for i, n := range s.notifications {
			if n.ID == id {
				s.notifications = append(s.notifications[:i:i], s.notifications[i+1:]...)
				found = true
				break
			}
		}
		return found
	})
	return found
}

// Notifications returns the ambient log, newest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// HighlightDeal highlights dealID until the highlight duration elapses or
// another deal is highlighted. An empty id clears the highlight.
func (s *Store) HighlightDeal(dealID string) {
	dealID = strings.TrimSpace(dealID)
	s.mutate(func() bool {
		if s.highlightTm != nil {
			s.highlightTm.Stop()
			s.highlightTm = nil
		}
		s.highlightSeq++
		changed := s.highlighted != dealID
		s.highlighted = dealID
		if dealID == "" {
			return changed
		}
		seq := s.highlightSeq
		s.highlightTm = s.afterFunc(s.highlightFor, func() { s.expireHighlight(seq) })
		return true
	})
}

func (s *Store) expireHighlight(seq uint64) {
	s.mutate(func() bool {
		// a newer highlight owns the slot
		if seq != s.highlightSeq || s.highlighted == "" {
			return false
		}
		s.highlighted = ""
		s.highlightTm = nil
		return true
	})
}

// HighlightedDeal returns the highlighted deal id, or "".
func (s *Store) HighlightedDeal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlighted
}

// MarkDealUpdated records that dealID changed remotely.
func (s *Store) MarkDealUpdated(dealID string) {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return
	}
	s.mutate(func() bool {
		s.updates[dealID] = s.now()
		return true
	})
}

// ClearDealUpdate forgets the update mark of dealID.
func (s *Store) ClearDealUpdate(dealID string) {
	s.mutate(func() bool {
		if _, ok := s.updates[dealID]; !ok {
			return false
		}
		delete(s.updates, dealID)
		return true
	})
}

// DealUpdates returns when each recently updated deal was marked.
func (s *Store) DealUpdates() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.updates))
	for k, v := range s.updates {
		out[k] = v
	}
	return out
}

// ToggleDealSelection adds dealID to the selection or removes it.
func (s *Store) ToggleDealSelection(dealID string) {
	s.mutate(func() bool {
		for i, id := range s.selected {
			if id == dealID {
				s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
				return true
			}
		}
		s.selected = append(s.selected, dealID)
		return true
	})
}

// SelectDeals replaces the selection. Duplicates are dropped.
func (s *Store) SelectDeals(ids []string) {
	s.mutate(func() bool {
		seen := make(map[string]bool, len(ids))
		next := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			next = append(next, id)
		}
		s.selected = next
		return true
	})
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.mutate(func() bool {
		if len(s.selected) == 0 {
			return false
		}
		s.selected = nil
		return true
	})
}

// SelectedDeals returns the selected deal ids in selection order.
func (s *Store) SelectedDeals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// TriggerDealDetailsRequest asks the presentation layer to open dealID.
func (s *Store) TriggerDealDetailsRequest(dealID string) DetailsRequest {
	var req DetailsRequest
	s.mutate(func() bool {
		s.detailsSeq++
		req = DetailsRequest{DealID: dealID, Seq: s.detailsSeq, RequestedAt: s.now()}
		s.details = &req
		return true
	})
	return req
}

// DealDetailsRequest returns the latest details request.
func (s *Store) DealDetailsRequest() (DetailsRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.details == nil {
		return DetailsRequest{}, false
	}
	return *s.details, true
}

// HandlePaymentEvent surfaces a payment event: a notification, plus an update
// mark and highlight on the deal it belongs to. Events that are not payment
// events only surface their message, and never ask for a refetch.
func (s *Store) HandlePaymentEvent(evt domain.PaymentEvent) PaymentEventResult {
	msg, severity, ok := payments.Describe(evt, s.currency)
	if !ok {
		if m := strings.TrimSpace(evt.Message); m != "" {
			s.PushNotification(domain.Notification{
				ID:       evt.ID,
				Message:  m,
				Severity: domain.SeverityInfo,
				Source:   domain.SourcePayments,
			})
		}
		return PaymentEventResult{}
	}

	s.PushNotification(domain.Notification{
		ID:       evt.ID,
		Message:  msg,
		Severity: severity,
		Source:   domain.SourcePayments,
	})
	if evt.DealID != "" {
		s.MarkDealUpdated(evt.DealID)
		s.HighlightDeal(evt.DealID)
	}
	return PaymentEventResult{ShouldRefetch: true}
}

// Close stops the pending highlight timer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highlightTm != nil {
		s.highlightTm.Stop()
		s.highlightTm = nil
	}
}
