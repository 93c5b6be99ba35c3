package motion

// History maintains the bounded motion record for one player: a ring of pose
// samples (position + yaw) and a separately sized ring of stance labels.
// Insertion overwrites the oldest slot; there is no dynamic growth.
//
// History is single-writer: only the scheduler tick records into it. Parallel
// tasks consume read-only Snapshots, so the writer may keep recording into
// the next slot while a snapshot is being read.
type History struct {
	samples  []Sample
	head     int // next write position
	size     int // current number of samples stored
	writes   int64

	stances     []Stance
	stanceHead  int
	stanceSize  int
}

// NewHistory creates a History with the given ring capacities.
func NewHistory(sampleCapacity, stanceCapacity int) *History {
	if sampleCapacity < 2 {
		sampleCapacity = 100 // Default
	}
	if stanceCapacity < 1 {
		stanceCapacity = 50 // Default
	}
	return &History{
		samples: make([]Sample, sampleCapacity),
		stances: make([]Stance, stanceCapacity),
	}
}

// Record appends a sample, overwriting the oldest if the ring is full. O(1),
// never blocks. The monotonic write counter gauges data sufficiency.
func (h *History) Record(s Sample) {
	h.samples[h.head] = s
	h.head = (h.head + 1) % len(h.samples)
	if h.size < len(h.samples) {
		h.size++
	}

	h.stances[h.stanceHead] = s.Stance
	h.stanceHead = (h.stanceHead + 1) % len(h.stances)
	if h.stanceSize < len(h.stances) {
		h.stanceSize++
	}

	h.writes++
}

// Size returns the current number of samples in the ring.
func (h *History) Size() int {
	return h.size
}

// Capacity returns the sample ring capacity.
func (h *History) Capacity() int {
	return len(h.samples)
}

// Writes returns the monotonic write count.
func (h *History) Writes() int64 {
	return h.writes
}

// Clear empties both rings.
func (h *History) Clear() {
	h.head = 0
	h.size = 0
	h.stanceHead = 0
	h.stanceSize = 0
	h.writes = 0
}

// Snapshot copies the current contents into an immutable view, oldest first.
// The snapshot is safe for concurrent consumption while the writer continues
// recording.
func (h *History) Snapshot() Snapshot {
	samples := make([]Sample, h.size)
	for i := 0; i < h.size; i++ {
		idx := (h.head - h.size + i + len(h.samples)) % len(h.samples)
		samples[i] = h.samples[idx]
	}

	stances := make([]Stance, h.stanceSize)
	for i := 0; i < h.stanceSize; i++ {
		idx := (h.stanceHead - h.stanceSize + i + len(h.stances)) % len(h.stances)
		stances[i] = h.stances[idx]
	}

	return Snapshot{
		Samples:  samples,
		Stances:  stances,
		Writes:   h.writes,
		Capacity: len(h.samples),
	}
}

// Snapshot is a read-only copy of a History at a point in time, ordered
// oldest to newest.
type Snapshot struct {
	Samples  []Sample
	Stances  []Stance
	Writes   int64
	Capacity int
}

// Latest returns the most recent sample, or false if the snapshot is empty.
func (s Snapshot) Latest() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// Sufficiency returns min(writes, capacity)/capacity, the data-sufficiency
// ratio used by the confidence gate.
func (s Snapshot) Sufficiency() float64 {
	if s.Capacity == 0 {
		return 0
	}
	w := s.Writes
	if w > int64(s.Capacity) {
		w = int64(s.Capacity)
	}
	return float64(w) / float64(s.Capacity)
}

// TimeDeltaSeconds returns the time delta between the two most recent
// samples, or 0 if fewer than 2 samples are available.
func (s Snapshot) TimeDeltaSeconds() float64 {
	n := len(s.Samples)
	if n < 2 {
		return 0
	}
	return s.Samples[n-1].Time.Sub(s.Samples[n-2].Time).Seconds()
}
