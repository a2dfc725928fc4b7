package controller

import (
	"math/rand"

	"github.com/pthm-cable/standup/neural"
)

// ActionPolicy decides the motor-command vector each control tick, blending
// uniform random exploration with network inference. The exploration
// probability decays multiplicatively toward a floor, so the policy shifts
// from random search to learned behavior without ever eliminating
// exploration entirely.
type ActionPolicy struct {
	motorCount int
	rate       float64
	initial    float64
	decay      float64
	floor      float64
	rng        *rand.Rand
}

// NewActionPolicy creates a policy for the given motor count.
func NewActionPolicy(motorCount int, initial, decay, floor float64, rng *rand.Rand) *ActionPolicy {
	if initial < floor {
		initial = floor
	}
	return &ActionPolicy{
		motorCount: motorCount,
		rate:       initial,
		initial:    initial,
		decay:      decay,
		floor:      floor,
		rng:        rng,
	}
}

// Choose returns the raw action for this tick and whether it was an
// exploration draw. With no model, the policy always explores. The
// exploration rate decays after every call.
func (p *ActionPolicy) Choose(model *neural.Network, v SensorVector) ([]float32, bool) {
	explored := model == nil || p.rng.Float64() < p.rate
	var action []float32
	if explored {
		action = make([]float32, p.motorCount)
		for i := range action {
			action[i] = p.rng.Float32()*2 - 1
		}
	} else {
		// Forward pads or truncates to the network's input width; the
		// output layer saturates, so commands are already in [-1,1].
		action = model.Forward(v.Values)
		if len(action) != p.motorCount {
			fixed := make([]float32, p.motorCount)
			copy(fixed, action)
			action = fixed
		}
	}

	p.rate *= p.decay
	if p.rate < p.floor {
		p.rate = p.floor
	}
	return action, explored
}

// ExplorationRate returns the current exploration probability.
func (p *ActionPolicy) ExplorationRate() float64 { return p.rate }

// Reset restores the initial exploration rate.
func (p *ActionPolicy) Reset() { p.rate = p.initial }
