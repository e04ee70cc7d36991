package dedup

import (
	"strings"
	"time"
)

// Entry is one captured snippet waiting for analysis.
type Entry struct {
	Signature string
	Snippet   string
	Added     time.Time
}

// Batch accumulates snippets between analysis flushes. A flush is due when
// the batch is old enough or holds enough lines, whichever comes first. The
// zero count of entries never triggers a flush.
type Batch struct {
	window    time.Duration
	threshold int

	entries []Entry
	present map[string]bool
	lines   int
	started time.Time
}

// NewBatch returns an empty batch flushing after window or threshold lines.
func NewBatch(window time.Duration, threshold int) *Batch {
	return &Batch{
		window:    window,
		threshold: threshold,
		present:   make(map[string]bool),
	}
}

// Add appends a snippet unless its signature is already buffered. It returns
// true when the entry was added. The first Add after a flush starts the
// batch age clock.
func (b *Batch) Add(sig, snippet string, now time.Time) bool {
	if b.present[sig] {
		return false
	}
	if len(b.entries) == 0 {
		b.started = now
	}
	b.entries = append(b.entries, Entry{Signature: sig, Snippet: snippet, Added: now})
	b.present[sig] = true
	b.lines += countLines(snippet)
	return true
}

// Due reports whether the batch should flush at time now.
func (b *Batch) Due(now time.Time) bool {
	if len(b.entries) == 0 {
		return false
	}
	return now.Sub(b.started) >= b.window || b.lines >= b.threshold
}

// Drain returns the buffered entries in arrival order and resets the batch.
func (b *Batch) Drain() []Entry {
	out := b.entries
	b.entries = nil
	b.present = make(map[string]bool)
	b.lines = 0
	b.started = time.Time{}
	return out
}

// Len returns the number of buffered entries.
func (b *Batch) Len() int {
	return len(b.entries)
}

// Lines returns the total snippet lines buffered.
func (b *Batch) Lines() int {
	return b.lines
}

func countLines(snippet string) int {
	s := strings.Trim(snippet, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
