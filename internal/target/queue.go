package target

import (
	"sort"
	"sync"
	"time"
)

// Gate scores candidate targets and admits only those whose confidence
// clears the threshold. Confidence is the average of the movement
// consistency and data sufficiency terms, both already clamped to [0,1].
type Gate struct {
	Threshold float64
}

// Score combines the two confidence terms.
func (g Gate) Score(consistency, sufficiency float64) float64 {
	return clamp01((consistency + sufficiency) / 2)
}

// Admit reports whether a candidate with this confidence may be enqueued.
func (g Gate) Admit(confidence float64) bool {
	return confidence >= g.Threshold
}

// Queue is the time-ordered prediction queue. Entries are ordered by
// OptimalTiming and expired entries are pruned lazily from the front before
// every read, so a target whose optimal timing has passed is never returned.
//
// The queue has a single producer (the scheduler, after gating) and is
// intended for a single polling consumer; the mutex only guards the
// producer/consumer boundary.
type Queue struct {
	mu      sync.Mutex
	entries []Predicted
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push inserts a gated target, keeping the queue ordered by OptimalTiming.
func (q *Queue) Push(p Predicted) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].OptimalTiming.After(p.OptimalTiming)
	})
	q.entries = append(q.entries, Predicted{})
	copy(q.entries[idx+1:], q.entries[idx:])
	q.entries[idx] = p
}

// Peek returns the earliest non-expired target without removing it.
func (q *Queue) Peek(now time.Time) (Predicted, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(now)
	if len(q.entries) == 0 {
		return Predicted{}, false
	}
	return q.entries[0], true
}

// Pop removes and returns the earliest non-expired target.
func (q *Queue) Pop(now time.Time) (Predicted, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(now)
	if len(q.entries) == 0 {
		return Predicted{}, false
	}
	p := q.entries[0]
	q.entries = q.entries[1:]
	return p, true
}

// Len returns the number of non-expired entries.
func (q *Queue) Len(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(now)
	return len(q.entries)
}

// Pending copies the non-expired entries in timing order.
func (q *Queue) Pending(now time.Time) []Predicted {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(now)
	out := make([]Predicted, len(q.entries))
	copy(out, q.entries)
	return out
}

// prune drops expired entries from the front. Callers must hold the mutex.
func (q *Queue) prune(now time.Time) {
	i := 0
	for i < len(q.entries) && q.entries[i].Expired(now) {
		i++
	}
	if i > 0 {
		q.entries = q.entries[i:]
	}
}
