package cache

import (
	"context"
	"time"
)

// Status is the fetch status of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a read-only view of one cache entry.
// Data holds either a collection or a single record and must not be mutated
// in place: writers always store a new value.
type Entry struct {
	Key       Key
	Data      any
	Status    Status
	Revision  uint64
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

// HasData reports whether the entry holds a value.
func (e Entry) HasData() bool { return e.Data != nil }

// Fetcher loads the authoritative value for a key.
type Fetcher func(ctx context.Context, key Key) (any, error)

// Event describes a change of one entry, delivered to subscribers.
type Event struct {
	Key     Key
	Entry   Entry
	Removed bool
}

// Listener receives change events after the change has been committed.
type Listener func(Event)

// Scheduler runs a background job. The default starts a goroutine.
type Scheduler func(job func())

type entry struct {
	Entry
	// gen is bumped on every fetch start and cancel; a fetch result is
	// applied only if the generation it started with is still current.
	gen uint64
}
