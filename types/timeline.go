package types

import (
	"sort"
	"sync"

	"github.com/tumilabs/rumiai/timestamp"
)

// TimelineEntry is one typed event on the unified time axis.
// Invariants (enforced by the assembler): 0 <= Start <= duration, and when
// End is present, Start <= End <= duration.
type TimelineEntry struct {
	Start    timestamp.Timestamp  `json:"start"`
	End      *timestamp.Timestamp `json:"end,omitempty"`
	Modality Modality             `json:"modality"`
	Payload  any                  `json:"payload"`

	// seq is the insertion sequence number, the stable secondary sort key.
	seq int
}

// Timeline is the ordered unified sequence of events across modalities.
// Entries are kept in non-decreasing start order; equal starts retain
// insertion order.
type Timeline struct {
	mu      sync.Mutex
	entries []TimelineEntry
	nextSeq int
	dirty   bool
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Insert adds an entry, assigning it the next insertion sequence number.
// Ordering is restored lazily by Entries and the query methods, so bulk
// insertion stays linear.
func (t *Timeline) Insert(e TimelineEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.seq = t.nextSeq
	t.nextSeq++
	t.entries = append(t.entries, e)
	t.dirty = true
}

// Len returns the number of entries.
func (t *Timeline) Len() int { return len(t.entries) }

// sortEntries establishes (start, seq) order. The sort runs only after new
// insertions, so concurrent read-only consumers of a finished analysis never
// contend on it.
func (t *Timeline) sortEntries() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return
	}
	sort.SliceStable(t.entries, func(i, j int) bool {
		si, sj := t.entries[i].Start.Seconds(), t.entries[j].Start.Seconds()
		if si != sj {
			return si < sj
		}
		return t.entries[i].seq < t.entries[j].seq
	})
	t.dirty = false
}

// Entries returns all entries in (start, insertion) order. The returned
// slice is owned by the timeline and must not be mutated.
func (t *Timeline) Entries() []TimelineEntry {
	t.sortEntries()
	return t.entries
}

// Range returns entries with from <= start < to, in order.
func (t *Timeline) Range(from, to float64) []TimelineEntry {
	t.sortEntries()
	var out []TimelineEntry
	for _, e := range t.entries {
		s := e.Start.Seconds()
		if s >= to {
			break
		}
		if s >= from {
			out = append(out, e)
		}
	}
	return out
}

// ByModality returns entries of the given modality, in order.
func (t *Timeline) ByModality(m Modality) []TimelineEntry {
	t.sortEntries()
	var out []TimelineEntry
	for _, e := range t.entries {
		if e.Modality == m {
			out = append(out, e)
		}
	}
	return out
}

// PerSecondCounts buckets entry starts into 1-second bins over [0, duration).
// An entry at exactly the duration boundary lands in the final bucket.
func (t *Timeline) PerSecondCounts(duration float64) []int {
	n := int(duration)
	if float64(n) < duration {
		n++
	}
	if n <= 0 {
		return nil
	}
	counts := make([]int, n)
	for _, e := range t.entries {
		i := int(e.Start.Seconds())
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}
	return counts
}

// MarshalJSON serializes the timeline as its ordered entry list.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	return marshalJSON(t.Entries())
}
