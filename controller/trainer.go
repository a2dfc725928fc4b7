package controller

// EndReason says why an episode ended.
type EndReason int

const (
	// EndTimeout means the episode ran its full duration.
	EndTimeout EndReason = iota
	// EndBoundary means the torso left the bounded region. Terminal for
	// the episode, not an error.
	EndBoundary
)

// String returns the reason name used in logs and run records.
func (r EndReason) String() string {
	if r == EndBoundary {
		return "boundary"
	}
	return "timeout"
}

// TickOutput reports what one control tick did. Acted is false when the
// tick was skipped (control-rate gating or unavailable physics handles).
type TickOutput struct {
	Acted   bool
	Action  []float32 // post-processed command to actuate
	Fitness float64
	Sensors SensorVector

	EpisodeEnded    bool
	EndReason       EndReason
	EpisodeFitness  float64 // episode-mean fitness, valid when EpisodeEnded
	TrainingStarted bool
}

// Trainer is the episodic scheduler. It drives sample collection cadence,
// periodic retraining and episode-boundary resets, all on accumulated
// per-tick elapsed time scaled by the simulation-speed multiplier, never
// wall clock. Speed divides the episode-timeout and training-interval
// thresholds identically, so episodes per training event stay constant
// across speeds.
type Trainer struct {
	ctrl  *Controller
	speed float64

	// onReset is the single consumer of episode-boundary events; the
	// owning loop respawns the robot at its rest pose.
	onReset func(EndReason)

	// onFit receives async fit outcomes on the training goroutine.
	onFit func(FitResult)

	controlAccum float64
	episodeTime  float64
	trainTime    float64

	epStart    []float32
	epHasStart bool
	epFitness  float64
	epTicks    int
	episodes   int
}

// NewTrainer creates a scheduler around a controller. onReset may be nil.
func NewTrainer(ctrl *Controller, onReset func(EndReason)) *Trainer {
	return &Trainer{ctrl: ctrl, speed: 1, onReset: onReset}
}

// SetOnFit registers a callback for async fit outcomes. It runs on the
// training goroutine; keep it short and thread-safe.
func (t *Trainer) SetOnFit(fn func(FitResult)) {
	t.onFit = fn
}

// SetSpeed sets the simulation-speed multiplier. Values below a sane
// minimum are clamped.
func (t *Trainer) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	t.speed = speed
}

// Speed returns the simulation-speed multiplier.
func (t *Trainer) Speed() float64 { return t.speed }

// Episodes returns the number of completed episodes.
func (t *Trainer) Episodes() int { return t.episodes }

// Tick advances the scheduler by dt elapsed seconds. It acts only on the
// fixed control rate; between control ticks it just accumulates time.
func (t *Trainer) Tick(frame PhysicsFrame, act Actuator, dt float64) TickOutput {
	cfg := t.ctrl.cfg
	t.controlAccum += dt
	t.episodeTime += dt
	t.trainTime += dt

	if t.controlAccum < cfg.Control.Interval {
		return TickOutput{}
	}
	tickDt := t.controlAccum
	t.controlAccum = 0

	sensors, ok := t.ctrl.encoder.Encode(frame, act, float32(tickDt))
	if !ok {
		// Physics handles not live yet. Skip the tick, never fail.
		return TickOutput{}
	}

	fitness := Fitness(sensors.Values, t.ctrl.FitnessParams())
	t.ctrl.recordFitness(fitness)

	if !t.epHasStart {
		t.epStart = append([]float32(nil), sensors.Values...)
		t.epHasStart = true
	}
	t.epFitness += fitness
	t.epTicks++

	raw, _ := t.ctrl.policy.Choose(t.ctrl.Model(), sensors)
	command := t.ctrl.filter.Apply(raw)
	t.ctrl.stepCount++

	out := TickOutput{
		Acted:   true,
		Action:  command,
		Fitness: fitness,
		Sensors: sensors,
	}

	// Boundary violation ends the episode immediately; the timer path
	// waits for the full duration.
	switch {
	case t.outOfBounds(frame):
		out.EpisodeFitness = t.endEpisode(EndBoundary)
		out.EpisodeEnded = true
		out.EndReason = EndBoundary
	case t.episodeTime >= cfg.Episode.Duration/t.speed:
		out.EpisodeFitness = t.endEpisode(EndTimeout)
		out.EpisodeEnded = true
		out.EndReason = EndTimeout
	}

	if t.trainTime >= cfg.Training.Interval/t.speed &&
		t.ctrl.TrainingActive() &&
		!t.ctrl.IsTraining() &&
		t.ctrl.buffer.Len() >= cfg.Training.MinSamples {
		out.TrainingStarted = t.ctrl.FitAsync(t.onFit)
		// Reset regardless of the fit's eventual outcome.
		t.trainTime = 0
	}

	return out
}

// outOfBounds checks the torso against the episode's bounded region.
func (t *Trainer) outOfBounds(frame PhysicsFrame) bool {
	torso, ok := frame.Body("torso")
	if !ok || !torso.Live() {
		return false
	}
	p := torso.Translation()
	cfg := t.ctrl.cfg.Episode
	return float64(p.X) > cfg.BoundsX || float64(p.X) < -cfg.BoundsX ||
		float64(p.Y) < cfg.BoundsY ||
		float64(p.Z) > cfg.BoundsZ || float64(p.Z) < -cfg.BoundsZ
}

// endEpisode folds the attempt into one experience sample (starting
// state, final post-processed action, tick-averaged fitness), then
// clears episode accumulators, resets kinematic history and signals
// the owning loop to respawn the robot. Returns the episode-mean fitness.
func (t *Trainer) endEpisode(reason EndReason) float64 {
	mean := 0.0
	if t.epTicks > 0 {
		mean = t.epFitness / float64(t.epTicks)
	}

	if t.ctrl.TrainingActive() && t.epHasStart && t.epTicks > 0 {
		t.ctrl.buffer.Add(Sample{
			State:   t.epStart,
			Action:  t.ctrl.filter.Last(),
			Fitness: mean,
		})
	}

	t.epStart = nil
	t.epHasStart = false
	t.epFitness = 0
	t.epTicks = 0
	t.episodeTime = 0
	t.episodes++

	t.ctrl.ResetPositionState()
	if t.onReset != nil {
		t.onReset(reason)
	}
	return mean
}
