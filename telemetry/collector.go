package telemetry

// Collector accumulates learning events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	// Event counters for current window
	episodes      int
	boundaryEnds  int
	trainingRuns  int
	trainingSkips int

	// Per-tick fitness samples for current window
	fitness []float64
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per simulation tick
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordFitness records one control tick's fitness score.
func (c *Collector) RecordFitness(f float64) {
	c.fitness = append(c.fitness, f)
}

// RecordEpisode records a completed episode. boundary marks episodes that
// ended by leaving the bounded region rather than by timeout.
func (c *Collector) RecordEpisode(boundary bool) {
	c.episodes++
	if boundary {
		c.boundaryEnds++
	}
}

// RecordTraining records a scheduled fit. skipped marks fits that returned
// without updating the model, usually for lack of qualifying samples.
func (c *Collector) RecordTraining(skipped bool) {
	if skipped {
		c.trainingSkips++
	} else {
		c.trainingRuns++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// bestFitness, explorationRate and bufferLen are sampled at window end.
func (c *Collector) Flush(currentTick int64, bestFitness, explorationRate float64, bufferLen int) WindowStats {
	mean, std, min, max := ComputeFitnessStats(c.fitness)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Episodes:     c.episodes,
		BoundaryEnds: c.boundaryEnds,

		TrainingRuns:  c.trainingRuns,
		TrainingSkips: c.trainingSkips,

		FitnessMean: mean,
		FitnessStd:  std,
		FitnessMin:  min,
		FitnessMax:  max,

		BestFitness:     bestFitness,
		ExplorationRate: explorationRate,
		BufferLen:       bufferLen,
	}

	c.windowStartTick = currentTick
	c.episodes = 0
	c.boundaryEnds = 0
	c.trainingRuns = 0
	c.trainingSkips = 0
	c.fitness = c.fitness[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
