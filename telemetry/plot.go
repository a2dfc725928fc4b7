package telemetry

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteFitnessPlot renders the per-tick fitness history as a line plot PNG
// in the output directory. No-op when output is disabled or the history is
// empty.
func (om *OutputManager) WriteFitnessPlot(history []float64, dt float64) error {
	if om == nil || len(history) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = "Fitness"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "fitness"
	p.Y.Min = 0
	p.Y.Max = 100

	pts := make(plotter.XYs, len(history))
	for i, f := range history {
		pts[i].X = float64(i) * dt
		pts[i].Y = f
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building fitness line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Add(plotter.NewGrid())

	path := filepath.Join(om.dir, "fitness.png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving fitness plot: %w", err)
	}
	return nil
}
