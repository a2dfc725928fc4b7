package sim

import (
	"fmt"
	"io"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logEpisode logs one completed episode.
func (s *Simulation) logEpisode(reason string, meanFitness float64) {
	Logf("=== Episode %d (%s) ===", s.trainer.Episodes(), reason)
	Logf("Mean fitness: %.2f | exploration: %.3f | buffer: %d",
		meanFitness, s.ctrl.ExplorationRate(), s.ctrl.Buffer().Len())
	if best, _, ok := s.ctrl.Buffer().Best(); ok {
		Logf("Best sample fitness: %.2f", best)
	}
}
