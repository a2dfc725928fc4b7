package controller

import (
	"math/rand"
	"testing"
)

func TestFilterFirstStep(t *testing.T) {
	f := NewActionFilter(2, 0.05, 0.7)
	out := f.Apply([]float32{1, -1})

	// From rest: delta clamps to ±0.05, then blends 70/30 with zero.
	want := float32(0.7 * 0.05)
	if out[0] != want || out[1] != -want {
		t.Errorf("first step = %v, want ±%v", out, want)
	}
}

func TestFilterRateLimitInvariant(t *testing.T) {
	const maxDelta = 0.05
	f := NewActionFilter(4, maxDelta, 0.7)
	rng := rand.New(rand.NewSource(42))

	prev := f.Last()
	for step := 0; step < 500; step++ {
		raw := make([]float32, 4)
		for i := range raw {
			raw[i] = rng.Float32()*4 - 2 // intentionally outside [-1,1]
		}
		out := f.Apply(raw)
		for i := range out {
			d := out[i] - prev[i]
			if d > maxDelta+1e-6 || d < -maxDelta-1e-6 {
				t.Fatalf("step %d motor %d jumped by %v, limit %v", step, i, d, maxDelta)
			}
			if out[i] > 1 || out[i] < -1 {
				t.Fatalf("step %d motor %d escaped [-1,1]: %v", step, i, out[i])
			}
		}
		prev = out
	}
}

func TestFilterConverges(t *testing.T) {
	f := NewActionFilter(1, 0.05, 0.7)
	var out []float32
	for i := 0; i < 200; i++ {
		out = f.Apply([]float32{1})
	}
	if out[0] < 0.95 {
		t.Errorf("held command converged to %v, want near 1", out[0])
	}
}

func TestFilterReset(t *testing.T) {
	f := NewActionFilter(2, 0.05, 0.7)
	f.Apply([]float32{1, 1})
	f.Reset()
	for i, v := range f.Last() {
		if v != 0 {
			t.Errorf("motor %d = %v after reset, want 0", i, v)
		}
	}
}

func TestFilterShortRawTreatedAsZero(t *testing.T) {
	f := NewActionFilter(3, 0.05, 0.7)
	out := f.Apply([]float32{1}) // motors 1 and 2 get no request
	if len(out) != 3 {
		t.Fatalf("output has %d motors, want 3", len(out))
	}
	if out[1] != 0 || out[2] != 0 {
		t.Errorf("unrequested motors moved: %v", out)
	}
}
