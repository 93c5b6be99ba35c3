// Package outcome keeps the bounded record of past successful hits used to
// bias future target placement.
package outcome

import "github.com/flowbox-vr/flowbox/internal/motion"

// Record is one successful hit: where it landed and how accurate it was.
// Records are never mutated after insertion.
type Record struct {
	Position motion.Vec3
	Accuracy float64
}

// Store is a fixed-capacity circular buffer of hit records. It follows the
// same single-writer/multi-reader contract as the motion history: only the
// scheduler tick records, readers take Snapshot copies. No aggregation runs
// in the hot path; consumers compute centroid or average accuracy on demand.
type Store struct {
	records []Record
	head    int
	size    int
}

// DefaultCapacity is the default hit record capacity.
const DefaultCapacity = 200

// NewStore creates a Store with the given capacity.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{records: make([]Record, capacity)}
}

// Record overwrites the next circular slot with a hit. O(1), never blocks.
func (s *Store) Record(position motion.Vec3, accuracy float64) {
	s.records[s.head] = Record{Position: position, Accuracy: accuracy}
	s.head = (s.head + 1) % len(s.records)
	if s.size < len(s.records) {
		s.size++
	}
}

// Size returns the number of valid records.
func (s *Store) Size() int { return s.size }

// Snapshot copies the valid records, oldest first.
func (s *Store) Snapshot() Set {
	out := make(Set, s.size)
	for i := 0; i < s.size; i++ {
		idx := (s.head - s.size + i + len(s.records)) % len(s.records)
		out[i] = s.records[idx]
	}
	return out
}

// Set is a read-only copy of hit records.
type Set []Record

// Centroid returns the arithmetic mean of the recorded hit positions, and
// false if the set is empty.
func (set Set) Centroid() (motion.Vec3, bool) {
	if len(set) == 0 {
		return motion.Vec3{}, false
	}
	var sum motion.Vec3
	for _, r := range set {
		sum = sum.Add(r.Position)
	}
	return sum.Scale(1 / float64(len(set))), true
}

// AverageAccuracy returns the mean accuracy over the set, and false if the
// set is empty.
func (set Set) AverageAccuracy() (float64, bool) {
	if len(set) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range set {
		sum += r.Accuracy
	}
	return sum / float64(len(set)), true
}
