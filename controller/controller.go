package controller

import (
	"math/rand"
	"sync"

	"github.com/pthm-cable/standup/config"
	"github.com/pthm-cable/standup/morphology"
	"github.com/pthm-cable/standup/neural"
)

// Controller owns the per-robot learning state: the model, the sensor
// encoder, the action policy and filter, the experience buffer and the
// bookkeeping around them. One Controller per robot instance; nothing here
// is shared between instances.
type Controller struct {
	morph *morphology.Morphology
	cfg   *config.Config
	rng   *rand.Rand

	encoder *SensorEncoder
	policy  *ActionPolicy
	filter  *ActionFilter
	buffer  *Buffer

	mu          sync.Mutex
	model       *neural.Network
	modelGen    uint64
	initialized bool
	training    bool // a fit is in flight
	active      bool // samples are collected and fits scheduled

	stepCount      int64
	fitnessHistory []float64
}

// New creates a controller for one robot instance. No model exists until
// CreateModel is called; the policy explores unconditionally until then.
func New(m *morphology.Morphology, cfg *config.Config, seed int64) *Controller {
	rng := rand.New(rand.NewSource(seed))
	return &Controller{
		morph:   m,
		cfg:     cfg,
		rng:     rng,
		encoder: NewSensorEncoder(m, float32(cfg.Fitness.ContactThreshold)),
		policy: NewActionPolicy(m.MotorCount,
			cfg.Policy.ExplorationInitial,
			cfg.Policy.ExplorationDecay,
			cfg.Policy.ExplorationFloor,
			rng),
		filter: NewActionFilter(m.MotorCount,
			float32(cfg.Control.MaxMotorChangeRate),
			float32(cfg.Control.Smoothing)),
		buffer: NewBuffer(cfg.Experience.Capacity, cfg.Experience.EvictTo),
		active: true,
	}
}

// Morphology returns the controller's body plan.
func (c *Controller) Morphology() *morphology.Morphology { return c.morph }

// Model returns the current network, or nil before CreateModel.
func (c *Controller) Model() *neural.Network {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Initialized reports whether a model has been created.
func (c *Controller) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// IsTraining reports whether a fit is currently in flight.
func (c *Controller) IsTraining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.training
}

// SetTrainingActive toggles sample collection and scheduled fits.
// Turning it off keeps already-collected samples.
func (c *Controller) SetTrainingActive(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = on
}

// TrainingActive reports whether samples are being collected.
func (c *Controller) TrainingActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ExplorationRate returns the policy's current exploration probability.
func (c *Controller) ExplorationRate() float64 { return c.policy.ExplorationRate() }

// StepCount returns the number of control ticks taken.
func (c *Controller) StepCount() int64 { return c.stepCount }

// Buffer exposes the experience buffer for the scheduler and diagnostics.
func (c *Controller) Buffer() *Buffer { return c.buffer }

// LastAction returns the previous post-processed command.
func (c *Controller) LastAction() []float32 { return c.filter.Last() }

// FitnessHistory returns a copy of the bounded per-tick fitness history.
func (c *Controller) FitnessHistory() []float64 {
	return append([]float64(nil), c.fitnessHistory...)
}

// FitnessParams returns the evaluator targets from config.
func (c *Controller) FitnessParams() FitnessParams {
	return FitnessParams{
		TargetHeadHeight:  c.cfg.Fitness.TargetHeadHeight,
		TargetTorsoHeight: c.cfg.Fitness.TargetTorsoHeight,
	}
}

// recordFitness appends to the bounded history.
func (c *Controller) recordFitness(f float64) {
	limit := c.cfg.Telemetry.FitnessHistory
	if limit <= 0 {
		limit = 2000
	}
	c.fitnessHistory = append(c.fitnessHistory, f)
	if len(c.fitnessHistory) > limit {
		c.fitnessHistory = c.fitnessHistory[len(c.fitnessHistory)-limit:]
	}
}

// ResetPositionState clears kinematic history only: the encoder's
// previous-velocity snapshot and the filter's previous command. Model,
// buffer and counters are untouched. Called after the robot is respawned.
func (c *Controller) ResetPositionState() {
	c.encoder.Reset()
	c.filter.Reset()
}

// ResetAll returns the controller to construction defaults: fresh model,
// empty buffer, initial exploration rate, cleared history. Refused while a
// fit is in flight.
func (c *Controller) ResetAll() error {
	if err := c.ResetModel(); err != nil {
		return err
	}
	c.buffer.Clear()
	c.policy.Reset()
	c.ResetPositionState()
	c.stepCount = 0
	c.fitnessHistory = nil
	return nil
}
