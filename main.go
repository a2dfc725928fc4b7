package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pthm-cable/standup/config"
	"github.com/pthm-cable/standup/morphology"
	"github.com/pthm-cable/standup/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	morph := flag.String("morphology", "biped", "Robot morphology: "+strings.Join(morphology.IDs(), ", "))
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and model export")
	dbPath := flag.String("db", "", "SQLite run history database (empty = disabled)")
	exportPath := flag.String("export", "", "Write the final model JSON to this path")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N physics ticks (0 = unlimited)")
	speed := flag.Float64("speed", 1, "Simulation-speed multiplier for the training schedule")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	s, err := sim.New(cfg, sim.Options{
		Seed:           rngSeed,
		Morphology:     *morph,
		Speed:          *speed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		DBPath:         *dbPath,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"morphology", *morph,
		"seed", rngSeed,
		"speed", *speed,
		"max_ticks", *maxTicks,
	)

	for {
		s.Update()

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached",
				"tick", s.Tick(),
				"episodes", s.Trainer().Episodes(),
				"exploration_rate", s.Controller().ExplorationRate(),
			)
			break
		}
	}

	if *exportPath != "" {
		if err := s.ExportModel(*exportPath); err != nil {
			slog.Error("model export failed", "error", err)
			os.Exit(1)
		}
		slog.Info("model exported", "path", *exportPath)
	}
}
