// Package ledger records which spans currently carry a conversion so they can be
// put back exactly as they were.
package ledger

import (
	"fmt"
	"go-price-converter/domain"
	"sort"
)

// Ledger of live conversions, one entry per span.
// A Ledger belongs to a single document session and is not safe for concurrent use.
type Ledger struct {
	entries map[domain.SpanID]entry

	// seq orders entries by when they were applied
	seq uint64
}

type entry struct {
	replacement domain.Replacement
	seq         uint64
}

// New constructs an empty Ledger
func New() *Ledger {
	return &Ledger{
		entries: map[domain.SpanID]entry{},
	}
}

// Apply records a replacement for r.SpanID, discarding any previous entry for that span.
// r.Original must be the span text before any conversion was applied.
func (l *Ledger) Apply(r domain.Replacement) {
	l.seq++
	l.entries[r.SpanID] = entry{
		replacement: r,
		seq:         l.seq,
	}
}

// Restore removes the entry of a span and returns its original text.
// The error wraps domain.ErrNotFound when the span has no live entry.
func (l *Ledger) Restore(id domain.SpanID) (string, error) {
	e, ok := l.entries[id]
	if !ok {
		return "", fmt.Errorf("restore [%v]: %w", id, domain.ErrNotFound)
	}
	delete(l.entries, id)
	return e.replacement.Original, nil
}

// Lookup the live replacement of a span
func (l *Ledger) Lookup(id domain.SpanID) (domain.Replacement, bool) {
	e, ok := l.entries[id]
	return e.replacement, ok
}

// RestoreAll empties the ledger and returns the original text of every span it held,
// in the order the spans were last applied.
func (l *Ledger) RestoreAll() []domain.Restored {
	all := make([]entry, 0, len(l.entries))
	for _, e := range l.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].seq < all[j].seq
	})

	restored := make([]domain.Restored, len(all))
	for i, e := range all {
		restored[i] = domain.Restored{
			SpanID:   e.replacement.SpanID,
			Original: e.replacement.Original,
		}
	}

	l.entries = map[domain.SpanID]entry{}
	return restored
}

// Count the number of live entries
func (l *Ledger) Count() int {
	return len(l.entries)
}
