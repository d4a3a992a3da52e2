package mutation

import (
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// Cloner returns a deep copy of cache data.
type Cloner func(data any) any

// CloneData deep-copies the data types the CRM caches hold. Other values are
// returned unchanged; cache data is never mutated in place.
func CloneData(data any) any {
	switch v := data.(type) {
	case domain.Deal:
		return v.Clone()
	case *domain.Deal:
		if v == nil {
			return v
		}
		d := v.Clone()
		return &d
	case []domain.Deal:
		return domain.CloneDeals(v)
	case []domain.StageMetric:
		return append([]domain.StageMetric(nil), v...)
	case []domain.Payment:
		return append([]domain.Payment(nil), v...)
	default:
		return data
	}
}

type snapshotEntry struct {
	key     cache.Key
	data    any
	existed bool
}

// Snapshot is the pre-mutation copy of every entry a mutation touches.
// It is a value: later writes to the cache cannot alter it.
type Snapshot struct {
	entries []snapshotEntry
	clone   Cloner
}

// Capture copies the current value of keys. Keys without an entry are
// recorded as absent.
func Capture(tx *cache.Tx, keys []cache.Key, clone Cloner) Snapshot {
	if clone == nil {
		clone = CloneData
	}
	s := Snapshot{entries: make([]snapshotEntry, 0, len(keys)), clone: clone}
	seen := make(map[cache.Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		e, ok := tx.Get(k)
		se := snapshotEntry{key: k, existed: ok && e.HasData()}
		if se.existed {
			se.data = clone(e.Data)
		}
		s.entries = append(s.entries, se)
	}
	return s
}

// Keys returns the captured keys in capture order.
func (s Snapshot) Keys() []cache.Key {
	keys := make([]cache.Key, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Data returns a copy of the captured value of key.
func (s Snapshot) Data(key cache.Key) (any, bool) {
	for _, e := range s.entries {
		if e.key == key && e.existed {
			return s.clone(e.data), true
		}
	}
	return nil, false
}

// Rollback restores every captured entry that held data. Entries that held
// nothing are left alone: the optimistic step never writes them.
func (s Snapshot) Rollback(tx *cache.Tx) {
	for _, e := range s.entries {
		if !e.existed {
			continue
		}
		tx.Set(e.key, s.clone(e.data))
	}
}

// Reconcile writes replace(key, current) into every captured entry that
// currently holds data, for which replace reports true.
func (s Snapshot) Reconcile(tx *cache.Tx, replace func(key cache.Key, current any) (any, bool)) {
	for _, e := range s.entries {
		cur, ok := tx.Get(e.key)
		if !ok || !cur.HasData() {
			continue
		}
		if next, changed := replace(e.key, cur.Data); changed {
			tx.Set(e.key, next)
		}
	}
}
