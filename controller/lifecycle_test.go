package controller

import (
	"errors"
	"math"
	"testing"
)

func qualifyingSample(m int, fitness float64) Sample {
	return Sample{
		State:   make([]float32, 26),
		Action:  make([]float32, m),
		Fitness: fitness,
	}
}

func TestCreateModelSizes(t *testing.T) {
	cfg := testConfig()
	ctrl := New(mustMorph("biped"), cfg, 42)
	if ctrl.Initialized() {
		t.Error("controller initialized before CreateModel")
	}
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	if !ctrl.Initialized() {
		t.Error("controller not initialized after CreateModel")
	}

	sizes := ctrl.Model().Sizes
	want := []int{26, 24, 6}
	if len(sizes) != len(want) {
		t.Fatalf("sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("sizes = %v, want %v", sizes, want)
		}
	}
}

func TestCreateModelTiersFollowMorphology(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		morph  string
		hidden []int
	}{
		{"biped", cfg.Neural.TierSmall},
		{"quadruped", cfg.Neural.TierMedium},
		{"spider", cfg.Neural.TierLarge},
	}
	for _, tt := range tests {
		t.Run(tt.morph, func(t *testing.T) {
			ctrl := New(mustMorph(tt.morph), cfg, 42)
			if err := ctrl.CreateModel(); err != nil {
				t.Fatal(err)
			}
			sizes := ctrl.Model().Sizes
			if len(sizes) != len(tt.hidden)+2 {
				t.Fatalf("layer count = %d, want %d", len(sizes), len(tt.hidden)+2)
			}
			for i, h := range tt.hidden {
				if sizes[i+1] != h {
					t.Errorf("hidden layer %d = %d, want %d", i, sizes[i+1], h)
				}
			}
		})
	}
}

func TestResetModelReplacesWeights(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	before := ctrl.Model().Layers[0].FlattenWeights()

	if err := ctrl.ResetModel(); err != nil {
		t.Fatal(err)
	}
	after := ctrl.Model().Layers[0].FlattenWeights()

	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("reset did not replace the weights")
	}
	if ctrl.Buffer().Len() != 0 {
		t.Errorf("buffer len = %d, expected untouched empty buffer", ctrl.Buffer().Len())
	}
}

func TestResetRefusedWhileTraining(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}

	ctrl.mu.Lock()
	ctrl.training = true
	ctrl.mu.Unlock()

	if err := ctrl.ResetModel(); !errors.Is(err, ErrTrainingInFlight) {
		t.Errorf("ResetModel = %v, want ErrTrainingInFlight", err)
	}
	if err := ctrl.ResetAll(); !errors.Is(err, ErrTrainingInFlight) {
		t.Errorf("ResetAll = %v, want ErrTrainingInFlight", err)
	}
	if res := ctrl.Fit(); !errors.Is(res.Err, ErrTrainingInFlight) {
		t.Errorf("Fit = %v, want ErrTrainingInFlight", res.Err)
	}
	if ctrl.FitAsync(nil) {
		t.Error("FitAsync started while another fit was in flight")
	}
}

func TestFitRequiresModel(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if res := ctrl.Fit(); !errors.Is(res.Err, ErrNoModel) {
		t.Errorf("Fit = %v, want ErrNoModel", res.Err)
	}
	if ctrl.FitAsync(nil) {
		t.Error("FitAsync started without a model")
	}
}

func TestFitInsufficientDataLeavesModelIntact(t *testing.T) {
	cfg := testConfig() // min_samples 3, min_fitness 20
	ctrl := New(mustMorph("biped"), cfg, 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}

	// Two qualifying samples among noise below the threshold.
	ctrl.Buffer().Add(qualifyingSample(6, 50))
	ctrl.Buffer().Add(qualifyingSample(6, 60))
	for i := 0; i < 5; i++ {
		ctrl.Buffer().Add(qualifyingSample(6, 10))
	}

	before := ctrl.Model().Layers[0].FlattenWeights()
	res := ctrl.Fit()
	if !errors.Is(res.Err, ErrInsufficientData) {
		t.Fatalf("Fit = %v, want ErrInsufficientData", res.Err)
	}
	if res.SamplesUsed != 2 {
		t.Errorf("samples used = %d, want 2", res.SamplesUsed)
	}
	if ctrl.IsTraining() {
		t.Error("training flag still set after refused fit")
	}

	after := ctrl.Model().Layers[0].FlattenWeights()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("weights changed despite refused fit")
		}
	}
}

func TestFitUpdatesModel(t *testing.T) {
	cfg := testConfig()
	ctrl := New(mustMorph("biped"), cfg, 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s := qualifyingSample(6, 40+float64(i)*10)
		s.State[idxHeadY] = 1.8
		s.Action[0] = 0.5
		ctrl.Buffer().Add(s)
	}

	before := ctrl.Model().Layers[0].FlattenWeights()
	res := ctrl.Fit()
	if res.Err != nil {
		t.Fatalf("Fit failed: %v", res.Err)
	}
	if res.SamplesUsed != 5 {
		t.Errorf("samples used = %d, want 5", res.SamplesUsed)
	}
	if math.IsNaN(res.Loss) || math.IsInf(res.Loss, 0) {
		t.Errorf("loss = %v, want finite", res.Loss)
	}

	after := ctrl.Model().Layers[0].FlattenWeights()
	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("successful fit left the model unchanged")
	}
}

func TestResetAllRestoresDefaults(t *testing.T) {
	cfg := testConfig()
	ctrl := New(mustMorph("biped"), cfg, 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	ctrl.Buffer().Add(qualifyingSample(6, 50))
	ctrl.policy.Choose(nil, SensorVector{}) // decay once
	ctrl.recordFitness(42)

	if err := ctrl.ResetAll(); err != nil {
		t.Fatal(err)
	}
	if ctrl.Buffer().Len() != 0 {
		t.Errorf("buffer len = %d, want 0", ctrl.Buffer().Len())
	}
	if got := ctrl.ExplorationRate(); got != cfg.Policy.ExplorationInitial {
		t.Errorf("exploration rate = %v, want initial %v", got, cfg.Policy.ExplorationInitial)
	}
	if len(ctrl.FitnessHistory()) != 0 {
		t.Error("fitness history survived reset")
	}
	if !ctrl.Initialized() {
		t.Error("controller lost its model in reset")
	}
}
