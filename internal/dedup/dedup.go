// Package dedup keeps repeated error signatures from flooding observations
// and repeated analysis calls from burning tokens. A Debouncer suppresses
// re-reports inside a time window; an AnalysisCache makes each signature pay
// for at most one LLM call per process lifetime. Both warm-start from a flat
// file Store so restarts keep their history.
package dedup

import "time"

// Debouncer tracks when each signature was last reported. A signature cycles
// Unseen -> Reported -> Expired: reporting is allowed when unseen or when
// the previous report is older than the window.
type Debouncer struct {
	window time.Duration
	seen   map[string]time.Time
	store  *Store
}

// NewDebouncer returns a Debouncer with the given window, preloaded from the
// store. A nil store keeps state in memory only.
func NewDebouncer(window time.Duration, store *Store) *Debouncer {
	d := &Debouncer{
		window: window,
		seen:   make(map[string]time.Time),
		store:  store,
	}
	if store != nil {
		d.seen = store.LoadReported()
	}
	return d
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// ShouldReport reports whether sig may produce an observation at time now:
// true when the signature is unseen or its last report has expired.
func (d *Debouncer) ShouldReport(sig string, now time.Time) bool {
	last, ok := d.seen[sig]
	if !ok {
		return true
	}
	return now.Sub(last) >= d.window
}

// MarkReported records that sig was reported at time now and persists the
// record. The in-memory map is updated even when persistence fails.
func (d *Debouncer) MarkReported(sig string, now time.Time) error {
	d.seen[sig] = now
	if d.store == nil {
		return nil
	}
	return d.store.SaveReported(sig, now)
}

type cacheEntry struct {
	text    string
	touched time.Time
}

// AnalysisCache maps signatures to previously produced analysis text.
// Entries live for the process lifetime by default; a nonzero idle TTL
// evicts entries not touched for that long, checked on access.
type AnalysisCache struct {
	entries map[string]cacheEntry
	idleTTL time.Duration
	store   *Store
}

// NewAnalysisCache returns a cache preloaded from the store. idleTTL zero
// disables eviction. A nil store keeps entries in memory only.
func NewAnalysisCache(idleTTL time.Duration, store *Store) *AnalysisCache {
	c := &AnalysisCache{
		entries: make(map[string]cacheEntry),
		idleTTL: idleTTL,
		store:   store,
	}
	if store != nil {
		now := time.Now()
		for sig, text := range store.LoadAnalyses() {
			c.entries[sig] = cacheEntry{text: text, touched: now}
		}
	}
	return c
}

// Get returns cached analysis text for sig, refreshing its idle timer. An
// entry past the idle TTL is evicted and reported as a miss.
func (c *AnalysisCache) Get(sig string, now time.Time) (string, bool) {
	e, ok := c.entries[sig]
	if !ok {
		return "", false
	}
	if c.expired(e, now) {
		c.evict(sig)
		return "", false
	}
	e.touched = now
	c.entries[sig] = e
	return e.text, true
}

// Analyzed reports whether sig has a live cache entry, without refreshing
// its idle timer.
func (c *AnalysisCache) Analyzed(sig string, now time.Time) bool {
	e, ok := c.entries[sig]
	if !ok {
		return false
	}
	if c.expired(e, now) {
		c.evict(sig)
		return false
	}
	return true
}

// Put stores analysis text for sig and persists it.
func (c *AnalysisCache) Put(sig, text string, now time.Time) error {
	c.entries[sig] = cacheEntry{text: text, touched: now}
	if c.store == nil {
		return nil
	}
	return c.store.SaveAnalysis(sig, text)
}

// Len returns the number of live entries.
func (c *AnalysisCache) Len() int {
	return len(c.entries)
}

func (c *AnalysisCache) expired(e cacheEntry, now time.Time) bool {
	return c.idleTTL > 0 && now.Sub(e.touched) >= c.idleTTL
}

func (c *AnalysisCache) evict(sig string) {
	delete(c.entries, sig)
	if c.store != nil {
		// Best effort. A leftover file only costs a redundant warm-start
		// entry next run.
		_ = c.store.DeleteAnalysis(sig)
	}
}
