package lifecycle

import (
	"fmt"
	"sync/atomic"
)

// Ledger counts lifecycle events. It is the instrumented allocator used to
// prove that every allocation is freed exactly once and every initialized
// value is finalized exactly once.
type Ledger struct {
	counts [eventTypeCount]atomic.Int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// OnContainerEvent implements Observer.
func (l *Ledger) OnContainerEvent(e Event) {
	if e.Type < eventTypeCount {
		l.counts[e.Type].Add(1)
	}
}

// Count returns how many events of the given type were recorded.
func (l *Ledger) Count(t EventType) int64 {
	if t >= eventTypeCount {
		return 0
	}
	return l.counts[t].Load()
}

// Live returns the number of allocations not yet freed or discarded.
func (l *Ledger) Live() int64 {
	return l.Count(EventAllocated) - l.Count(EventFreed) - l.Count(EventDiscarded)
}

// Snapshot returns all counters keyed by event name.
func (l *Ledger) Snapshot() map[string]int64 {
	out := make(map[string]int64, eventTypeCount)
	for t := EventType(0); t < eventTypeCount; t++ {
		out[t.String()] = l.counts[t].Load()
	}
	return out
}

// Balanced returns an error unless every allocation was released exactly once
// and every initialized value was either destroyed or moved out exactly once.
func (l *Ledger) Balanced() error {
	allocated := l.Count(EventAllocated)
	released := l.Count(EventFreed) + l.Count(EventDiscarded)
	if allocated != released {
		return fmt.Errorf("allocations unbalanced: %d allocated, %d freed or discarded", allocated, released)
	}
	initialized := l.Count(EventInitialized)
	finalized := l.Count(EventDestroyed) + l.Count(EventMovedOut)
	if initialized != finalized {
		return fmt.Errorf("values unbalanced: %d initialized, %d destroyed or moved out", initialized, finalized)
	}
	return nil
}
