package controller

import (
	"math"
	"testing"
)

// postureVector builds a common-block sensor vector for the fitness
// evaluator with everything else zeroed.
func postureVector(headY, torsoY, torsoX, velX, rotX, kneeL, contactL, contactR float32) []float32 {
	v := make([]float32, commonLen)
	v[idxTorsoX] = torsoX
	v[idxTorsoY] = torsoY
	v[idxHeadY] = headY
	v[idxTorsoVelX] = velX
	v[idxRotX] = rotX
	v[idxRotW] = 1
	v[idxKneeL] = kneeL
	v[idxContactL] = contactL
	v[idxContactR] = contactR
	return v
}

func TestFitnessPerfectStand(t *testing.T) {
	v := postureVector(1.8, 1.0, 0, 0, 0, 0, 1, 1)
	got := Fitness(v, DefaultFitnessParams())
	if got != 100 {
		t.Errorf("perfect stand = %v, want 100", got)
	}
}

func TestFitnessFallen(t *testing.T) {
	v := postureVector(0.1, 0.1, 0, 0, 0.7, 0, 0, 0)
	got := Fitness(v, DefaultFitnessParams())
	if got <= 0 || got >= 50 {
		t.Errorf("fallen posture = %v, want graded score in (0, 50)", got)
	}
}

func TestFitnessShortVector(t *testing.T) {
	got := Fitness(make([]float32, commonLen-1), DefaultFitnessParams())
	if got != 100 {
		t.Errorf("short vector = %v, want 100", got)
	}
}

func TestFitnessBounds(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
	}{
		{"all zero", make([]float32, commonLen)},
		{"extreme negative", postureVector(-10, -10, 50, 30, 5, 8, 0, 0)},
		{"extreme positive", postureVector(50, 50, 0, 0, 0, 0, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fitness(tt.v, DefaultFitnessParams())
			if got < 0 || got > 100 {
				t.Errorf("fitness = %v, want within [0, 100]", got)
			}
		})
	}
}

func TestFitnessHeadHeightMonotonic(t *testing.T) {
	prev := -1.0
	for _, headY := range []float32{0, 0.5, 1.0, 1.5, 1.8} {
		v := postureVector(headY, 0.5, 0, 0, 0, 0, 0, 0)
		got := Fitness(v, DefaultFitnessParams())
		if got < prev {
			t.Errorf("fitness at headY=%v dropped to %v from %v", headY, got, prev)
		}
		prev = got
	}
}

func TestFitnessContactSteps(t *testing.T) {
	base := postureVector(0.2, 0.2, 0, 0, 1, 2, 0, 0)
	none := Fitness(base, DefaultFitnessParams())

	one := postureVector(0.2, 0.2, 0, 0, 1, 2, 1, 0)
	both := postureVector(0.2, 0.2, 0, 0, 1, 2, 1, 1)
	below := postureVector(0.2, 0.2, 0, 0, 1, 2, 0.49, 0.49)

	if d := Fitness(one, DefaultFitnessParams()) - none; math.Abs(d-10) > 1e-9 {
		t.Errorf("one contact adds %v, want 10", d)
	}
	if d := Fitness(both, DefaultFitnessParams()) - none; math.Abs(d-20) > 1e-9 {
		t.Errorf("both contacts add %v, want 20", d)
	}
	if d := Fitness(below, DefaultFitnessParams()) - none; d != 0 {
		t.Errorf("sub-threshold contacts add %v, want 0", d)
	}
}

func TestFitnessStillnessDecays(t *testing.T) {
	slow := postureVector(1.0, 0.6, 0, 0.1, 0, 0, 0, 0)
	fast := postureVector(1.0, 0.6, 0, 3.0, 0, 0, 0, 0)
	if Fitness(fast, DefaultFitnessParams()) >= Fitness(slow, DefaultFitnessParams()) {
		t.Error("faster torso should not score higher stillness")
	}
}
