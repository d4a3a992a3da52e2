package mockserver

import (
	"net/http"
	"sort"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

var sourceLabels = map[string]string{
	domain.FeedSourceCRM:      "CRM",
	domain.FeedSourcePayments: "Payments",
	domain.FeedSourceSystem:   "System",
}

var categoryLabels = map[string]string{
	domain.CategoryDeal:     "Deals",
	domain.CategoryTask:     "Tasks",
	domain.CategoryPayment:  "Payments",
	domain.CategorySecurity: "Security",
	domain.CategorySystem:   "System",
}

type feedResponse struct {
	Items               []domain.FeedItem     `json:"items"`
	UnreadCount         int                   `json:"unreadCount"`
	AvailableCategories []domain.FilterOption `json:"availableCategories"`
	AvailableSources    []domain.FilterOption `json:"availableSources"`
	ChannelSettings     []domain.ChannelState `json:"channelSettings"`
}

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := domain.FeedFilters{
		Category: q.Get("category"),
		Source:   q.Get("source"),
		Status:   domain.FeedStatus(q.Get("status")),
		Search:   q.Get("search"),
	}

	s.mu.Lock()
	all := make([]domain.FeedItem, 0, len(s.feed))
	for _, item := range s.feed {
		all = append(all, item.Clone())
	}
	channels := append([]domain.ChannelState(nil), s.channels...)
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	resp := feedResponse{
		Items:               []domain.FeedItem{},
		AvailableCategories: options(all, func(i domain.FeedItem) string { return i.Category }, categoryLabels),
		AvailableSources:    options(all, func(i domain.FeedItem) string { return i.Source }, sourceLabels),
		ChannelSettings:     channels,
	}
	for _, item := range all {
		if !item.Read {
			resp.UnreadCount++
		}
		if item.Matches(filters) {
			resp.Items = append(resp.Items, item)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func options(items []domain.FeedItem, field func(domain.FeedItem) string, labels map[string]string) []domain.FilterOption {
	counts := make(map[string]int)
	for _, item := range items {
		counts[field(item)]++
	}
	out := make([]domain.FilterOption, 0, len(counts))
	for value, count := range counts {
		label, ok := labels[value]
		if !ok {
			label = value
		}
		out = append(out, domain.FilterOption{Value: value, Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.updateItems(body.IDs, func(item *domain.FeedItem) { item.Read = true }))
}

func (s *Server) markImportant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs       []string `json:"ids"`
		Important bool     `json:"important"`
	}
	if !decode(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.updateItems(body.IDs, func(item *domain.FeedItem) { item.Important = body.Important }))
}

func (s *Server) updateItems(ids []string, apply func(*domain.FeedItem)) []domain.FeedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := make([]domain.FeedItem, 0, len(ids))
	for _, id := range ids {
		item, ok := s.feed[id]
		if !ok {
			continue
		}
		apply(&item)
		s.feed[id] = item
		updated = append(updated, item.Clone())
	}
	return updated
}

func (s *Server) deleteItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	removed := 0
	for _, id := range body.IDs {
		if _, ok := s.feed[id]; ok {
			delete(s.feed, id)
			removed++
		}
	}
	s.mu.Unlock()
	if removed == 0 {
		writeError(w, http.StatusNotFound, "Notifications not found")
		return
	}
	writeJSON(w, http.StatusOK, body.IDs)
}

func (s *Server) updateChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !decode(w, r, &body) {
		return
	}
	channel := r.PathValue("channel")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].Channel != channel {
			continue
		}
		if !s.channels[i].Editable {
			writeError(w, http.StatusBadRequest, "Channel is read-only")
			return
		}
		now := s.now().UTC()
		s.channels[i].Enabled = body.Enabled
		s.channels[i].LastChangedAt = &now
		writeJSON(w, http.StatusOK, s.channels[i])
		return
	}
	writeError(w, http.StatusNotFound, "Channel not found")
}
