package controller

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/standup/neural"
)

// ErrNoModel is returned when an operation needs a model and none exists.
var ErrNoModel = errors.New("no model: call CreateModel first")

// ErrInsufficientData is returned when a fit is requested with too few
// qualifying samples. Not fatal; the scheduler retries next interval.
var ErrInsufficientData = errors.New("insufficient training data")

// ErrTrainingInFlight is returned when a destructive reset is requested
// while a fit is running.
var ErrTrainingInFlight = errors.New("training in flight")

// FitResult reports the outcome of one fit.
type FitResult struct {
	Loss        float64
	SamplesUsed int // qualifying samples before replication
	Err         error
}

// CreateModel builds a fresh network sized sensorCount → hidden tiers →
// motorCount and marks the controller initialized. Any previous model is
// dropped; an in-flight fit against it will discard its result.
func (c *Controller) CreateModel() error {
	hidden := c.cfg.HiddenLayers(c.morph.Tier.String())
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, c.morph.SensorCount)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, c.morph.MotorCount)

	c.mu.Lock()
	defer c.mu.Unlock()
	model, err := neural.New(sizes,
		float32(c.cfg.Training.LearningRate),
		float32(c.cfg.Training.Dropout),
		c.rng)
	if err != nil {
		return fmt.Errorf("creating model: %w", err)
	}
	c.model = model
	c.modelGen++
	c.initialized = true
	return nil
}

// ResetModel disposes the current network and immediately recreates a
// fresh one. The experience buffer is untouched. Refused while a fit is
// in flight.
func (c *Controller) ResetModel() error {
	c.mu.Lock()
	if c.training {
		c.mu.Unlock()
		return ErrTrainingInFlight
	}
	c.mu.Unlock()
	return c.CreateModel()
}

// Fit retrains the model synchronously from the experience buffer and
// returns the result. Kept separate from FitAsync so tests and one-shot
// tools can train deterministically.
func (c *Controller) Fit() FitResult {
	c.mu.Lock()
	if c.training {
		c.mu.Unlock()
		return FitResult{Err: ErrTrainingInFlight}
	}
	if c.model == nil {
		c.mu.Unlock()
		return FitResult{Err: ErrNoModel}
	}
	c.training = true
	gen := c.modelGen
	clone := c.model.Clone()
	seed := c.rng.Int63()
	c.mu.Unlock()

	res := c.fitInto(clone, c.buffer.Samples(), seed)
	c.finishFit(clone, gen, res)
	return res
}

// FitAsync starts a fit in the background if none is running. Returns
// false if one was already in flight or no model exists. The done callback,
// if non-nil, runs on the training goroutine after the result is applied.
func (c *Controller) FitAsync(done func(FitResult)) bool {
	c.mu.Lock()
	if c.training || c.model == nil {
		c.mu.Unlock()
		return false
	}
	c.training = true
	gen := c.modelGen
	clone := c.model.Clone()
	seed := c.rng.Int63()
	c.mu.Unlock()

	samples := c.buffer.Samples()
	go func() {
		res := c.fitInto(clone, samples, seed)
		c.finishFit(clone, gen, res)
		if done != nil {
			done(res)
		}
	}()
	return true
}

// fitInto trains a detached clone. The live model keeps serving forward
// passes while this runs; finishFit swaps the clone in afterwards.
func (c *Controller) fitInto(clone *neural.Network, samples []Sample, seed int64) FitResult {
	minFit := c.cfg.Training.MinFitness
	qualifying := samples[:0:0]
	for _, s := range samples {
		if s.Fitness > minFit {
			qualifying = append(qualifying, s)
		}
	}
	if len(qualifying) < c.cfg.Training.MinSamples {
		return FitResult{SamplesUsed: len(qualifying), Err: ErrInsufficientData}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].Fitness > qualifying[j].Fitness
	})
	if topN := c.cfg.Training.TopN; topN > 0 && len(qualifying) > topN {
		qualifying = qualifying[:topN]
	}

	// Replicate each sample proportionally to its fitness: a crude
	// importance weighting in place of a weighted loss.
	var inputs, targets [][]float32
	for _, s := range qualifying {
		copies := 1 + int(s.Fitness/20)
		for k := 0; k < copies; k++ {
			inputs = append(inputs, s.State)
			targets = append(targets, s.Action)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	loss, err := clone.Train(inputs, targets, c.cfg.Training.Epochs, rng)
	if err != nil {
		return FitResult{Loss: loss, SamplesUsed: len(qualifying), Err: fmt.Errorf("fit: %w", err)}
	}
	return FitResult{Loss: loss, SamplesUsed: len(qualifying)}
}

// finishFit clears the in-flight flag and installs the trained clone,
// unless the model was replaced while training ran, in which case the
// result is silently discarded against the fresh network.
func (c *Controller) finishFit(clone *neural.Network, gen uint64, res FitResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.training = false
	if res.Err == nil && gen == c.modelGen {
		c.model = clone
	}
}
