package cache

// Tx is the view of the cache inside a Batch. It is only valid during the
// Batch callback. Change events and refetches are released when the batch ends.
type Tx struct {
	c      *Cache
	events []Event
	jobs   []fetchJob
	done   bool
}

func (tx *Tx) check() {
	if tx.done {
		panic("cache: Tx used outside of its Batch")
	}
}

// Get returns the entry for key.
func (tx *Tx) Get(key Key) (Entry, bool) {
	tx.check()
	e, ok := tx.c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Find returns the entries accepted by m, ordered by key.
func (tx *Tx) Find(m Matcher) []Entry {
	tx.check()
	return tx.c.find(m)
}

// Set stores data for key, creating the entry if needed.
func (tx *Tx) Set(key Key, data any) {
	tx.check()
	e, ok := tx.c.entries[key]
	if !ok {
		e = &entry{Entry: Entry{Key: key}}
		tx.c.entries[key] = e
	}
	tx.write(e, data)
}

// Remove deletes the entry for key.
func (tx *Tx) Remove(key Key) {
	tx.check()
	e, ok := tx.c.entries[key]
	if !ok {
		return
	}
	delete(tx.c.entries, key)
	tx.events = append(tx.events, Event{Key: key, Entry: e.Entry, Removed: true})
}

// Invalidate marks matching entries stale and schedules refetches for the ones
// that have a fetcher and are not held. Held entries stay stale until invalidated again.
func (tx *Tx) Invalidate(m Matcher) int {
	tx.check()
	n := 0
	for _, current := range tx.c.find(m) {
		e := tx.c.entries[current.Key]
		e.Stale = true
		n++
		if tx.c.holds[e.Key] > 0 {
			tx.emit(e)
			continue
		}
		if job, ok := tx.startFetch(e.Key); ok {
			tx.jobs = append(tx.jobs, job)
			continue
		}
		tx.emit(e)
	}
	return n
}

// Suspend cancels in-flight fetches for keys and holds them, so no fetch result
// can overwrite them until Resume.
func (tx *Tx) Suspend(keys ...Key) {
	tx.check()
	for _, k := range keys {
		tx.cancelFetch(k)
	}
	tx.hold(keys)
}

// Resume releases holds taken by Suspend or Cache.Hold.
func (tx *Tx) Resume(keys ...Key) {
	tx.check()
	for _, k := range keys {
		if tx.c.holds[k] <= 1 {
			delete(tx.c.holds, k)
			continue
		}
		tx.c.holds[k]--
	}
}

// Held reports whether key is currently held.
func (tx *Tx) Held(key Key) bool {
	tx.check()
	return tx.c.holds[key] > 0
}

func (tx *Tx) hold(keys []Key) {
	for _, k := range keys {
		tx.c.holds[k]++
	}
}

func (tx *Tx) cancelFetch(key Key) {
	e, ok := tx.c.entries[key]
	if !ok {
		return
	}
	e.gen++
	if e.Status == StatusFetching {
		if e.HasData() {
			e.Status = StatusSuccess
		} else {
			e.Status = StatusIdle
		}
		tx.emit(e)
	}
}

// startFetch moves key into the fetching state and returns the job to run.
func (tx *Tx) startFetch(key Key) (fetchJob, bool) {
	f, ok := tx.c.fetchers[key.Kind]
	if !ok || f == nil {
		return fetchJob{}, false
	}
	e, exists := tx.c.entries[key]
	if !exists {
		e = &entry{Entry: Entry{Key: key}}
		tx.c.entries[key] = e
	}
	e.gen++
	e.Status = StatusFetching
	tx.emit(e)
	return fetchJob{key: key, gen: e.gen, fetch: f}, true
}

func (tx *Tx) write(e *entry, data any) {
	e.Data = data
	e.Status = StatusSuccess
	e.Stale = false
	e.Err = nil
	e.Revision++
	e.UpdatedAt = tx.c.now()
	tx.emit(e)
}

func (tx *Tx) emit(e *entry) {
	tx.events = append(tx.events, Event{Key: e.Key, Entry: e.Entry})
}
