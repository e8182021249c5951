// Package perf tracks loop execution latencies in fixed-size ring buffers
// so the engine's status surface can report tick and analysis timing without
// unbounded memory growth.
package perf

import (
	"sync"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// Capacity is the number of samples each tracker retains; older samples are
// overwritten in ring order.
const Capacity = 100

// Tracker records execution durations for one loop in a ring buffer and
// derives summary statistics over the retained window.
type Tracker struct {
	mu        sync.Mutex
	samples   [Capacity]time.Duration
	count     int
	next      int
	last      time.Duration
	threshold time.Duration
}

// NewTracker creates a tracker that flags samples above threshold as slow.
// A zero threshold disables slow detection.
func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{threshold: threshold}
}

// Record adds a sample and reports whether it exceeded the slow threshold.
func (t *Tracker) Record(elapsed time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = elapsed
	t.next = (t.next + 1) % Capacity
	if t.count < Capacity {
		t.count++
	}
	t.last = elapsed

	return t.threshold > 0 && elapsed > t.threshold
}

// Threshold returns the slow-sample threshold.
func (t *Tracker) Threshold() time.Duration {
	return t.threshold
}

// Snapshot summarizes the retained window.
func (t *Tracker) Snapshot() types.PerfSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := types.PerfSnapshot{Count: t.count, Last: t.last}
	if t.count == 0 {
		return snap
	}

	var total time.Duration
	snap.Min = t.samples[0]
	for i := 0; i < t.count; i++ {
		s := t.samples[i]
		total += s
		if s < snap.Min {
			snap.Min = s
		}
		if s > snap.Max {
			snap.Max = s
		}
	}
	snap.Avg = total / time.Duration(t.count)

	return snap
}

// Reset clears the retained window.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count = 0
	t.next = 0
	t.last = 0
}
