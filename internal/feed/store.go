// Package feed implements the notification feed store and its channel
// delivery settings sub-store.
package feed

import (
	"sort"
	"sync"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// State is a snapshot of the feed store.
type State struct {
	Items       []domain.FeedItem
	UnreadCount int
	Filters     domain.FeedFilters
	Selected    []string
}

// Store keeps feed items by id plus the visible order: ids of the items that
// match the active filters, newest first. The unread counter only moves on
// read/unread transitions.
type Store struct {
	mu         sync.Mutex
	items      map[string]domain.FeedItem
	order      []string
	unread     int
	filters    domain.FeedFilters
	selected   []string
	categories []domain.FilterOption
	sources    []domain.FilterOption

	subs    map[int]func(State)
	nextSub int
}

// New creates an empty store with filters matching everything.
func New() *Store {
	return &Store{
		items:   make(map[string]domain.FeedItem),
		filters: domain.DefaultFeedFilters(),
		subs:    make(map[int]func(State)),
	}
}

func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	state := s.stateLocked()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]func(State), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

func (s *Store) stateLocked() State {
	return State{
		Items:       s.visibleLocked(),
		UnreadCount: s.unread,
		Filters:     s.filters,
		Selected:    append([]string(nil), s.selected...),
	}
}

// Subscribe registers fn for changes and returns its unsubscribe func.
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

// sortIDs orders ids newest first; equal timestamps fall back to id order.
func (s *Store) sortIDs(ids []string) {
	sort.SliceStable(ids, func(a, b int) bool {
		ia, ib := s.items[ids[a]], s.items[ids[b]]
		if !ia.CreatedAt.Equal(ib.CreatedAt) {
			return ia.CreatedAt.After(ib.CreatedAt)
		}
		return ia.ID < ib.ID
	})
}

func (s *Store) rebuildOrderLocked() {
	order := make([]string, 0, len(s.items))
	for id, item := range s.items {
		if item.Matches(s.filters) {
			order = append(order, id)
		}
	}
	s.sortIDs(order)
	s.order = order
}

func (s *Store) recountLocked() {
	n := 0
	for _, item := range s.items {
		if !item.Read {
			n++
		}
	}
	s.unread = n
}

func (s *Store) visibleLocked() []domain.FeedItem {
	out := make([]domain.FeedItem, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out
}

func (s *Store) retainSelectedLocked(keep func(id string) bool) {
	next := s.selected[:0:0]
	for _, id := range s.selected {
		if keep(id) {
			next = append(next, id)
		}
	}
	s.selected = next
}

// SetFeed replaces every item. unreadCount is the authoritative count from
// the server. Selected ids that no longer exist are dropped.
func (s *Store) SetFeed(items []domain.FeedItem, unreadCount int) {
	s.mutate(func() bool {
		s.items = make(map[string]domain.FeedItem, len(items))
		for _, item := range items {
			s.items[item.ID] = item.Clone()
		}
		s.rebuildOrderLocked()
		s.unread = max(unreadCount, 0)
		s.retainSelectedLocked(func(id string) bool {
			_, ok := s.items[id]
			return ok
		})
		return true
	})
}

// ReplaceItems upserts items, typically the server's answer to a bulk action,
// and recomputes the unread count from the stored items.
func (s *Store) ReplaceItems(items []domain.FeedItem) {
	if len(items) == 0 {
		return
	}
	s.mutate(func() bool {
		for _, item := range items {
			s.items[item.ID] = item.Clone()
		}
		s.rebuildOrderLocked()
		s.recountLocked()
		return true
	})
}

// Restore puts back items removed optimistically, e.g. after a failed delete.
func (s *Store) Restore(items []domain.FeedItem) {
	s.ReplaceItems(items)
}

// Ingest inserts or overwrites one item.
func (s *Store) Ingest(item domain.FeedItem) {
	s.mutate(func() bool {
		existing, had := s.items[item.ID]
		s.items[item.ID] = item.Clone()

		switch {
		case !item.Read && (!had || existing.Read):
			s.unread++
		case item.Read && had && !existing.Read:
			s.unread = max(s.unread-1, 0)
		}

		order := make([]string, 0, len(s.order)+1)
		for _, id := range s.order {
			if id != item.ID {
				order = append(order, id)
			}
		}
		if item.Matches(s.filters) {
			order = append(order, item.ID)
			s.sortIDs(order)
		}
		s.order = order
		s.retainSelectedLocked(func(id string) bool { return id != item.ID })
		return true
	})
}

// MarkRead marks items as read. Unknown and already read ids are no-ops. The
// visible order is left alone until the next SetFeed or filter change.
func (s *Store) MarkRead(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mutate(func() bool {
		changed := false
		for _, id := range ids {
			item, ok := s.items[id]
			if !ok || item.Read {
				continue
			}
			item.Read = true
			s.items[id] = item
			s.unread = max(s.unread-1, 0)
			changed = true
		}
		return changed
	})
}

// MarkImportant sets the important flag of items.
func (s *Store) MarkImportant(ids []string, important bool) {
	if len(ids) == 0 {
		return
	}
	s.mutate(func() bool {
		changed := false
		for _, id := range ids {
			item, ok := s.items[id]
			if !ok || item.Important == important {
				continue
			}
			item.Important = important
			s.items[id] = item
			changed = true
		}
		return changed
	})
}

// Remove deletes items and evicts them from the selection.
func (s *Store) Remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mutate(func() bool {
		removed := make(map[string]bool, len(ids))
		for _, id := range ids {
			item, ok := s.items[id]
			if !ok {
				continue
			}
			if !item.Read {
				s.unread = max(s.unread-1, 0)
			}
			delete(s.items, id)
			removed[id] = true
		}
		if len(removed) == 0 {
			return false
		}
		order := s.order[:0:0]
		for _, id := range s.order {
			if !removed[id] {
				order = append(order, id)
			}
		}
		s.order = order
		s.retainSelectedLocked(func(id string) bool { return !removed[id] })
		return true
	})
}

// SetFilters replaces the active filters and clears the selection.
func (s *Store) SetFilters(filters domain.FeedFilters) {
	s.mutate(func() bool {
		s.filters = filters.Normalize()
		s.selected = nil
		s.rebuildOrderLocked()
		return true
	})
}

// ResetFilters restores filters matching everything and clears the selection.
func (s *Store) ResetFilters() {
	s.SetFilters(domain.DefaultFeedFilters())
}

// ToggleSelection selects or unselects id.
func (s *Store) ToggleSelection(id string) {
	s.mutate(func() bool {
		for i, sel := range s.selected {
			if sel == id {
				s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
				return true
			}
		}
		s.selected = append(s.selected, id)
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

// SetAvailableFilters stores the filter values offered by the server.
func (s *Store) SetAvailableFilters(categories, sources []domain.FilterOption) {
	s.mutate(func() bool {
		s.categories = append([]domain.FilterOption(nil), categories...)
		s.sources = append([]domain.FilterOption(nil), sources...)
		return true
	})
}

// AvailableFilters returns the filter values offered by the server.
func (s *Store) AvailableFilters() (categories, sources []domain.FilterOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FilterOption(nil), s.categories...), append([]domain.FilterOption(nil), s.sources...)
}

// Items returns the visible items, newest first.
func (s *Store) Items() []domain.FeedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// All returns every stored item regardless of filters, newest first.
func (s *Store) All() []domain.FeedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.sortIDs(ids)
	out := make([]domain.FeedItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id].Clone())
	}
	return out
}

// Item returns one stored item.
func (s *Store) Item(id string) (domain.FeedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item.Clone(), ok
}

// UnreadCount returns the unread counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Selected returns the selected ids in selection order.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// Filters returns the active filters.
func (s *Store) Filters() domain.FeedFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}
