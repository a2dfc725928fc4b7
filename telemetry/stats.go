package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated learning statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Episode outcomes during the window
	Episodes     int `csv:"episodes"`
	BoundaryEnds int `csv:"boundary_ends"`

	// Training activity during the window
	TrainingRuns  int `csv:"training_runs"`
	TrainingSkips int `csv:"training_skips"`

	// Per-tick fitness distribution (samples collected during window)
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessMin  float64 `csv:"fitness_min"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Learning state at window end
	BestFitness     float64 `csv:"best_fitness"`
	ExplorationRate float64 `csv:"exploration_rate"`
	BufferLen       int     `csv:"buffer_len"`
}

// EpisodeRecord is one completed standing attempt.
type EpisodeRecord struct {
	Episode      int     `csv:"episode"`
	EndTick      int64   `csv:"end_tick"`
	SimTimeSec   float64 `csv:"sim_time"`
	Reason       string  `csv:"reason"`
	MeanFitness  float64 `csv:"mean_fitness"`
	FinalFitness float64 `csv:"final_fitness"`
	Exploration  float64 `csv:"exploration_rate"`
	BufferLen    int     `csv:"buffer_len"`
}

// TrainingRecord is one scheduled fit, successful or skipped.
type TrainingRecord struct {
	EndTick     int64   `csv:"end_tick"`
	SimTimeSec  float64 `csv:"sim_time"`
	SamplesUsed int     `csv:"samples_used"`
	Loss        float64 `csv:"loss"`
	Skipped     string  `csv:"skipped"` // empty on success, reason otherwise
}

// ComputeFitnessStats calculates the window fitness distribution.
func ComputeFitnessStats(values []float64) (mean, std, min, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	min = floats.Min(values)
	max = floats.Max(values)
	return mean, std, min, max
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"episodes", s.Episodes,
		"boundary_ends", s.BoundaryEnds,
		"training_runs", s.TrainingRuns,
		"training_skips", s.TrainingSkips,
		"fitness_mean", s.FitnessMean,
		"fitness_std", s.FitnessStd,
		"fitness_min", s.FitnessMin,
		"fitness_max", s.FitnessMax,
		"best_fitness", s.BestFitness,
		"exploration_rate", s.ExplorationRate,
		"buffer_len", s.BufferLen,
	)
}
