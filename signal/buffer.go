package signal

import (
	"errors"
	"sort"
	"sync"

	"github.com/hushtab/hushcore/internal/types"
)

// Buffer holds signal events in timestamp order.
//
// The capture layer delivers events asynchronously and occasionally late;
// unlike a strict append-only log, the buffer reinserts out-of-order
// arrivals at their proper position so a scoring pass never reads a stale
// snapshot. Ties keep arrival order.
type Buffer struct {
	events []Event
	mu     sync.RWMutex
	logger types.Logger
}

// NewBuffer creates an empty event buffer
func NewBuffer(logger types.Logger) *Buffer {
	return &Buffer{
		events: make([]Event, 0),
		logger: logger,
	}
}

// Add validates and inserts events, one at a time or in a batch.
//
// Malformed events are rejected individually: valid events in the same
// batch are still inserted, and the returned error joins the individual
// MalformedEventError values. The returned count is the number inserted.
func (b *Buffer) Add(events ...Event) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	added := 0

	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			if b.logger != nil {
				b.logger.Printf("rejecting event: %v", err)
			}
			errs = append(errs, err)
			continue
		}

		b.insert(ev)
		added++
	}

	return added, errors.Join(errs...)
}

// insert places ev at its chronological position. The fast path is an
// append; late arrivals shift the tail.
func (b *Buffer) insert(ev Event) {
	n := len(b.events)
	if n == 0 || b.events[n-1].Timestamp <= ev.Timestamp {
		b.events = append(b.events, ev)
		return
	}

	// Find the first event strictly later than ev; equal timestamps keep
	// arrival order, so the late event lands after them.
	idx := sort.Search(n, func(i int) bool {
		return b.events[i].Timestamp > ev.Timestamp
	})

	b.events = append(b.events, Event{})
	copy(b.events[idx+1:], b.events[idx:])
	b.events[idx] = ev
}

// EventsInRange returns all buffered events with start <= timestamp <= end,
// optionally restricted to the given kinds. The result is a fresh ordered
// slice; iterating it is restartable and has no effect on the buffer.
func (b *Buffer) EventsInRange(start, end int64, kinds ...Kind) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lo := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp >= start
	})
	hi := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp > end
	})

	if lo >= hi {
		return nil
	}

	if len(kinds) == 0 {
		out := make([]Event, hi-lo)
		copy(out, b.events[lo:hi])
		return out
	}

	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []Event
	for _, ev := range b.events[lo:hi] {
		if want[ev.Kind] {
			out = append(out, ev)
		}
	}
	return out
}

// DrainUntil removes and returns all events with timestamp <= ts.
// A timer-driven tick calls this first so scoring always sees every event
// that has already arrived for the instant being scored.
func (b *Buffer) DrainUntil(ts int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp > ts
	})

	if idx == 0 {
		return nil
	}

	drained := make([]Event, idx)
	copy(drained, b.events[:idx])
	b.events = b.events[idx:]

	return drained
}

// Count returns the number of buffered events
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// First returns the earliest buffered event, or nil when empty
func (b *Buffer) First() *Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}
	ev := b.events[0]
	return &ev
}

// Last returns the latest buffered event, or nil when empty
func (b *Buffer) Last() *Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}
	ev := b.events[len(b.events)-1]
	return &ev
}

// Clear discards all buffered events
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = b.events[:0]
}
