// Package sim owns the headless run loop: it builds the world, controller
// and trainer for one robot, steps physics between control ticks, actuates
// the trainer's commands and fans results out to telemetry and the run
// store.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pthm-cable/standup/components"
	"github.com/pthm-cable/standup/config"
	"github.com/pthm-cable/standup/controller"
	"github.com/pthm-cable/standup/morphology"
	"github.com/pthm-cable/standup/runstore"
	"github.com/pthm-cable/standup/telemetry"
	"github.com/pthm-cable/standup/world"
)

// Options configures one simulation run.
type Options struct {
	Seed           int64
	Morphology     string
	Speed          float64 // simulation-speed multiplier for the schedule
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string // empty = CSV output disabled
	DBPath         string // empty = run store disabled
}

// frame adapts the world's concrete handles to the controller's read
// contract.
type frame struct {
	w *world.World
}

func (f frame) Body(name string) (controller.Body, bool) {
	h, ok := f.w.Body(name)
	if !ok {
		return nil, false
	}
	return h, true
}

func (f frame) GroundLevel(x, z float32) float32 {
	return f.w.GroundLevel(x, z)
}

// Simulation drives one robot through the learn-to-stand loop.
type Simulation struct {
	cfg   *config.Config
	morph *morphology.Morphology

	world   *world.World
	ctrl    *controller.Controller
	trainer *controller.Trainer

	collector *telemetry.Collector
	publisher *telemetry.Publisher
	out       *telemetry.OutputManager
	store     *runstore.Store

	// fitResults carries async fit outcomes back onto the loop thread.
	fitResults chan controller.FitResult

	tick     int64
	command  []float32
	logStats bool
}

// New builds a simulation from config and options. The robot is spawned
// and its model created; the first Update can act immediately.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	m, err := morphology.ByID(opts.Morphology)
	if err != nil {
		return nil, err
	}

	var terrain *world.Terrain
	if cfg.Terrain.Enabled {
		terrain = world.NewTerrain(cfg.Terrain.Seed, cfg.Terrain.Amplitude, cfg.Terrain.Scale)
	}

	w := world.New(m, world.Options{
		Gravity:        float32(cfg.Physics.Gravity),
		JointStiffness: float32(cfg.Physics.JointStiffness),
		JointDamping:   float32(cfg.Physics.JointDamping),
		LinearDamping:  float32(cfg.Physics.LinearDamping),
		Terrain:        terrain,
	})
	w.Spawn()

	ctrl := controller.New(m, cfg, opts.Seed)
	if err := ctrl.CreateModel(); err != nil {
		return nil, fmt.Errorf("initializing model: %w", err)
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return nil, err
	}

	store, err := runstore.Open(context.Background(), opts.DBPath)
	if err != nil {
		out.Close()
		return nil, err
	}
	if _, err := store.BeginRun(context.Background(), m.ID, opts.Seed); err != nil {
		out.Close()
		store.Close()
		return nil, err
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	s := &Simulation{
		cfg:        cfg,
		morph:      m,
		world:      w,
		ctrl:       ctrl,
		collector:  telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		publisher:  &telemetry.Publisher{},
		out:        out,
		store:      store,
		fitResults: make(chan controller.FitResult, 4),
		command:    make([]float32, m.MotorCount),
		logStats:   opts.LogStats,
	}
	s.trainer = controller.NewTrainer(ctrl, s.onEpisodeReset)
	s.trainer.SetOnFit(func(res controller.FitResult) {
		// Training goroutine; latest-wins if the loop falls behind.
		select {
		case s.fitResults <- res:
		default:
		}
	})
	if opts.Speed > 0 {
		s.trainer.SetSpeed(opts.Speed)
	}
	return s, nil
}

// Tick returns the number of physics steps taken.
func (s *Simulation) Tick() int64 { return s.tick }

// Controller exposes the learning state for export and inspection.
func (s *Simulation) Controller() *controller.Controller { return s.ctrl }

// Trainer exposes the episodic scheduler.
func (s *Simulation) Trainer() *controller.Trainer { return s.trainer }

// Publisher returns the latest-wins snapshot publisher for external
// consumers.
func (s *Simulation) Publisher() *telemetry.Publisher { return s.publisher }

// Update advances the simulation by one physics step and lets the trainer
// act when a control tick is due.
func (s *Simulation) Update() {
	dt := s.cfg.Derived.DT32

	s.actuate()
	s.world.Step(dt)
	s.tick++

	out := s.trainer.Tick(frame{s.world}, s.world, s.cfg.Physics.DT)
	if out.Acted {
		copy(s.command, out.Action)
		s.collector.RecordFitness(out.Fitness)
		s.publisher.Publish(s.snapshot(out))
	}
	if out.EpisodeEnded {
		s.recordEpisode(out)
	}
	if out.TrainingStarted && s.logStats {
		Logf("Training started (buffer: %d)", s.ctrl.Buffer().Len())
	}
	s.drainFitResults()

	if s.collector.ShouldFlush(s.tick) {
		s.flushWindow()
	}
}

// actuate converts the held motor command into joint torques. Per-joint
// failures are isolated: one disposed part must not silence the rest.
func (s *Simulation) actuate() {
	maxTorque := float32(s.cfg.Physics.MaxTorque)
	for motor := 0; motor < s.world.MotorCount() && motor < len(s.command); motor++ {
		axis := s.morph.Joints[motor].Axis
		scale := s.command[motor] * maxTorque
		t := components.Vec3{X: axis[0] * scale, Y: axis[1] * scale, Z: axis[2] * scale}
		if err := s.world.AddTorque(motor, t, true); err != nil {
			slog.Debug("actuation failed", "motor", motor, "error", err)
		}
	}
}

// snapshot assembles the published view of one control tick.
func (s *Simulation) snapshot(out controller.TickOutput) *telemetry.Snapshot {
	preview := s.cfg.Telemetry.SensorPreview
	sensors := out.Sensors.Values
	if preview > 0 && len(sensors) > preview {
		sensors = sensors[:preview]
	}
	return &telemetry.Snapshot{
		Tick:            s.tick,
		Sensors:         append([]float32(nil), sensors...),
		Action:          append([]float32(nil), out.Action...),
		Contacts:        append([]float32(nil), out.Sensors.Contact.Contacts...),
		Stable:          out.Sensors.Contact.Stable,
		Fitness:         out.Fitness,
		ExplorationRate: s.ctrl.ExplorationRate(),
		Episode:         s.trainer.Episodes(),
	}
}

// onEpisodeReset returns the robot to its rest pose. The trainer has
// already cleared the controller's kinematic history.
func (s *Simulation) onEpisodeReset(controller.EndReason) {
	s.world.ResetPose()
	for i := range s.command {
		s.command[i] = 0
	}
}

// recordEpisode writes one finished episode to CSV, the run store and the
// window collector.
func (s *Simulation) recordEpisode(out controller.TickOutput) {
	reason := out.EndReason.String()
	s.collector.RecordEpisode(out.EndReason == controller.EndBoundary)

	if s.logStats {
		s.logEpisode(reason, out.EpisodeFitness)
	}

	rec := telemetry.EpisodeRecord{
		Episode:      s.trainer.Episodes(),
		EndTick:      s.tick,
		SimTimeSec:   float64(s.tick) * s.cfg.Physics.DT,
		Reason:       reason,
		MeanFitness:  out.EpisodeFitness,
		FinalFitness: out.Fitness,
		Exploration:  s.ctrl.ExplorationRate(),
		BufferLen:    s.ctrl.Buffer().Len(),
	}
	if err := s.out.WriteEpisode(rec); err != nil {
		slog.Error("writing episode record", "error", err)
	}
	if err := s.store.RecordEpisode(context.Background(), rec.Episode, reason,
		rec.MeanFitness, rec.Exploration); err != nil {
		slog.Error("recording episode", "error", err)
	}
}

// drainFitResults writes any completed async fit outcomes.
func (s *Simulation) drainFitResults() {
	for {
		select {
		case res := <-s.fitResults:
			s.writeFitResult(res)
		default:
			return
		}
	}
}

// writeFitResult records one finished fit.
func (s *Simulation) writeFitResult(res controller.FitResult) {
	skipped := ""
	if res.Err != nil {
		skipped = res.Err.Error()
	}
	s.collector.RecordTraining(res.Err != nil)
	rec := telemetry.TrainingRecord{
		EndTick:     s.tick,
		SimTimeSec:  float64(s.tick) * s.cfg.Physics.DT,
		SamplesUsed: res.SamplesUsed,
		Loss:        res.Loss,
		Skipped:     skipped,
	}
	if err := s.out.WriteTraining(rec); err != nil {
		slog.Error("writing training record", "error", err)
	}
	if err := s.store.RecordTraining(context.Background(), res.SamplesUsed,
		res.Loss, skipped); err != nil {
		slog.Error("recording training event", "error", err)
	}
}

// flushWindow emits the current stats window.
func (s *Simulation) flushWindow() {
	best, _, _ := s.ctrl.Buffer().Best()
	stats := s.collector.Flush(s.tick, best, s.ctrl.ExplorationRate(), s.ctrl.Buffer().Len())
	if s.logStats {
		stats.LogStats()
	}
	if err := s.out.WriteWindow(stats); err != nil {
		slog.Error("writing window stats", "error", err)
	}
}

// ExportModel writes the current model as a JSON document at path.
func (s *Simulation) ExportModel(path string) error {
	data, err := s.ctrl.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model export: %w", err)
	}
	return nil
}

// Close finishes the run record and flushes all outputs.
func (s *Simulation) Close() error {
	s.drainFitResults()

	best, _, _ := s.ctrl.Buffer().Best()
	if err := s.store.FinishRun(context.Background(), s.trainer.Episodes(), best); err != nil {
		slog.Error("finishing run record", "error", err)
	}
	if err := s.out.WriteFitnessPlot(s.ctrl.FitnessHistory(), s.cfg.Control.Interval); err != nil {
		slog.Error("writing fitness plot", "error", err)
	}
	if data, err := s.ctrl.ExportJSON(); err == nil {
		if err := s.out.WriteModel("model.json", data); err != nil {
			slog.Error("writing model export", "error", err)
		}
	}

	var firstErr error
	if err := s.out.Close(); err != nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
