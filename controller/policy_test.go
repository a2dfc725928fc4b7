package controller

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/standup/neural"
)

func TestPolicyAlwaysExploresWithoutModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewActionPolicy(4, 0.0, 0.999, 0.0, rng)

	// Zero exploration rate, but nil model forces exploration anyway.
	action, explored := p.Choose(nil, SensorVector{})
	if !explored {
		t.Error("policy exploited with no model")
	}
	if len(action) != 4 {
		t.Fatalf("action has %d motors, want 4", len(action))
	}
	for i, a := range action {
		if a < -1 || a > 1 {
			t.Errorf("motor %d = %v, want within [-1,1]", i, a)
		}
	}
}

func TestPolicyDecayToFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewActionPolicy(2, 0.9, 0.999, 0.1, rng)

	prev := p.ExplorationRate()
	for i := 0; i < 5000; i++ {
		p.Choose(nil, SensorVector{})
		rate := p.ExplorationRate()
		if rate > prev+1e-12 {
			t.Fatalf("exploration rate rose from %v to %v at step %d", prev, rate, i)
		}
		prev = rate
	}
	if math.Abs(p.ExplorationRate()-0.1) > 1e-9 {
		t.Errorf("rate after decay = %v, want floor 0.1", p.ExplorationRate())
	}

	p.Reset()
	if p.ExplorationRate() != 0.9 {
		t.Errorf("rate after reset = %v, want 0.9", p.ExplorationRate())
	}
}

func TestPolicyExploitUsesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	model, err := neural.New([]int{3, 4, 2}, 0.01, 0, rng)
	if err != nil {
		t.Fatal(err)
	}

	// Floor and initial at zero: the policy can only exploit.
	p := NewActionPolicy(2, 0.0, 0.999, 0.0, rng)
	v := SensorVector{Values: []float32{0.5, -0.5, 0.25}}

	action, explored := p.Choose(model, v)
	if explored {
		t.Error("policy explored with rate 0")
	}
	want := model.Forward(v.Values)
	for i := range want {
		if action[i] != want[i] {
			t.Errorf("motor %d = %v, want model output %v", i, action[i], want[i])
		}
	}
}

func TestPolicyPadsModelOutput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	model, err := neural.New([]int{3, 4, 2}, 0.01, 0, rng)
	if err != nil {
		t.Fatal(err)
	}

	// Policy expects more motors than the network emits.
	p := NewActionPolicy(5, 0.0, 0.999, 0.0, rng)
	action, _ := p.Choose(model, SensorVector{Values: []float32{1, 1, 1}})
	if len(action) != 5 {
		t.Fatalf("action has %d motors, want 5", len(action))
	}
	for i := 2; i < 5; i++ {
		if action[i] != 0 {
			t.Errorf("padded motor %d = %v, want 0", i, action[i])
		}
	}
}
