package telemetry

import "sync/atomic"

// Snapshot is one control tick's observable state, published for external
// consumers (debug UIs, remote visualizers). Slices are owned by the
// snapshot and must not be mutated after Publish.
type Snapshot struct {
	Tick    int64     `json:"tick"`
	Sensors []float32 `json:"sensors"`
	Action  []float32 `json:"action"`

	Contacts []float32 `json:"contacts"`
	Stable   bool      `json:"stable"`

	Fitness         float64 `json:"fitness"`
	ExplorationRate float64 `json:"exploration_rate"`
	Episode         int     `json:"episode"`
}

// Publisher hands the latest snapshot to readers without blocking the
// control loop. Latest-wins: a slow reader skips intermediate states
// instead of backpressuring the simulation.
type Publisher struct {
	latest atomic.Pointer[Snapshot]
}

// Publish replaces the current snapshot.
func (p *Publisher) Publish(s *Snapshot) {
	p.latest.Store(s)
}

// Latest returns the most recent snapshot, or nil before the first publish.
func (p *Publisher) Latest() *Snapshot {
	return p.latest.Load()
}
