package controller

// Sample is one curated experience: the state the robot was in, the action
// it settled on, and how good the outcome was. Samples are immutable once
// created.
type Sample struct {
	State   []float32
	Action  []float32
	Fitness float64
}

// Buffer is a bounded, time-ordered store of experience samples. When an
// insertion pushes it past capacity, the oldest samples are evicted down
// to evictTo, so eviction happens in batches rather than per insert.
type Buffer struct {
	samples  []Sample
	capacity int
	evictTo  int

	bestFitness float64
	bestAction  []float32
	haveBest    bool
}

// NewBuffer creates a buffer. evictTo must be at most capacity; it is
// clamped if not.
func NewBuffer(capacity, evictTo int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	if evictTo > capacity || evictTo < 1 {
		evictTo = capacity
	}
	return &Buffer{capacity: capacity, evictTo: evictTo}
}

// Add appends a sample, evicting the oldest entries if the buffer would
// exceed its capacity, and updates best-sample tracking.
func (b *Buffer) Add(s Sample) {
	b.samples = append(b.samples, s)
	if len(b.samples) > b.capacity {
		kept := make([]Sample, b.evictTo)
		copy(kept, b.samples[len(b.samples)-b.evictTo:])
		b.samples = kept
	}

	if !b.haveBest || s.Fitness > b.bestFitness {
		b.bestFitness = s.Fitness
		b.bestAction = append([]float32(nil), s.Action...)
		b.haveBest = true
	}
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int { return len(b.samples) }

// Samples returns a snapshot of the stored samples, oldest first.
func (b *Buffer) Samples() []Sample {
	return append([]Sample(nil), b.samples...)
}

// Best returns the highest fitness seen and the action that earned it.
// Diagnostics only; training never reads it.
func (b *Buffer) Best() (float64, []float32, bool) {
	if !b.haveBest {
		return 0, nil, false
	}
	return b.bestFitness, append([]float32(nil), b.bestAction...), true
}

// Clear drops all samples and best tracking.
func (b *Buffer) Clear() {
	b.samples = nil
	b.bestAction = nil
	b.bestFitness = 0
	b.haveBest = false
}
