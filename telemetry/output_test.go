package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/standup/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// Every write on a disabled manager is a silent no-op.
	if err := om.WriteEpisode(EpisodeRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteWindow(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	recs := []EpisodeRecord{
		{Episode: 1, Reason: "timeout", MeanFitness: 42.5},
		{Episode: 2, Reason: "boundary", MeanFitness: 12.0},
	}
	for _, r := range recs {
		if err := om.WriteEpisode(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteTraining(TrainingRecord{SamplesUsed: 7, Loss: 0.25}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteWindow(WindowStats{Episodes: 2}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "episodes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("episodes.csv has %d lines, want header + 2 records", len(lines))
	}
	if !strings.Contains(lines[0], "mean_fitness") {
		t.Errorf("header missing column: %q", lines[0])
	}
	if strings.Contains(lines[2], "mean_fitness") {
		t.Error("header repeated on subsequent writes")
	}
	if !strings.Contains(lines[1], "timeout") || !strings.Contains(lines[2], "boundary") {
		t.Errorf("records out of order or missing: %v", lines[1:])
	}

	for _, name := range []string{"training.csv", "windows.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestOutputManagerConfigSnapshot(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "training:") {
		t.Error("config snapshot missing training section")
	}
}

func TestWriteFitnessPlot(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	history := make([]float64, 100)
	for i := range history {
		history[i] = float64(i)
	}
	if err := om.WriteFitnessPlot(history, 0.05); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "fitness.png"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("fitness.png is empty")
	}

	// Disabled or empty cases are no-ops.
	if err := om.WriteFitnessPlot(nil, 0.05); err != nil {
		t.Error(err)
	}
	var disabled *OutputManager
	if err := disabled.WriteFitnessPlot(history, 0.05); err != nil {
		t.Error(err)
	}
}
