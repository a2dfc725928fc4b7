package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/standup/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir          string
	episodesFile *os.File
	trainingFile *os.File
	windowsFile  *os.File

	// Track if headers have been written
	episodesHeaderWritten bool
	trainingHeaderWritten bool
	windowsHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "episodes.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating episodes.csv: %w", err)
	}
	om.episodesFile = f

	f, err = os.Create(filepath.Join(dir, "training.csv"))
	if err != nil {
		om.episodesFile.Close()
		return nil, fmt.Errorf("creating training.csv: %w", err)
	}
	om.trainingFile = f

	f, err = os.Create(filepath.Join(dir, "windows.csv"))
	if err != nil {
		om.episodesFile.Close()
		om.trainingFile.Close()
		return nil, fmt.Errorf("creating windows.csv: %w", err)
	}
	om.windowsFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteEpisode writes an episode record to episodes.csv.
func (om *OutputManager) WriteEpisode(rec EpisodeRecord) error {
	if om == nil {
		return nil
	}

	records := []EpisodeRecord{rec}

	if !om.episodesHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.episodesFile); err != nil {
			return fmt.Errorf("writing episode: %w", err)
		}
		om.episodesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.episodesFile); err != nil {
			return fmt.Errorf("writing episode: %w", err)
		}
	}

	return nil
}

// WriteTraining writes a training record to training.csv.
func (om *OutputManager) WriteTraining(rec TrainingRecord) error {
	if om == nil {
		return nil
	}

	records := []TrainingRecord{rec}

	if !om.trainingHeaderWritten {
		if err := gocsv.Marshal(records, om.trainingFile); err != nil {
			return fmt.Errorf("writing training record: %w", err)
		}
		om.trainingHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.trainingFile); err != nil {
			return fmt.Errorf("writing training record: %w", err)
		}
	}

	return nil
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}

	if !om.windowsHeaderWritten {
		if err := gocsv.Marshal(records, om.windowsFile); err != nil {
			return fmt.Errorf("writing window stats: %w", err)
		}
		om.windowsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.windowsFile); err != nil {
			return fmt.Errorf("writing window stats: %w", err)
		}
	}

	return nil
}

// WriteModel saves an exported model document as JSON.
func (om *OutputManager) WriteModel(name string, data []byte) error {
	if om == nil {
		return nil
	}
	path := filepath.Join(om.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model export: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	for _, f := range []*os.File{om.episodesFile, om.trainingFile, om.windowsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
