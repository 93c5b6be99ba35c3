package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/flowbox-vr/flowbox/internal/storage"
)

// TrajectoryPlotter renders recorded sessions to PNG files: the actual
// top-down path, the gated target placements, and the confidence series.
// Used by the replay tool for post-session analysis.
type TrajectoryPlotter struct {
	outputDir string
}

// NewTrajectoryPlotter creates a plotter writing into outputDir.
func NewTrajectoryPlotter(outputDir string) (*TrajectoryPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &TrajectoryPlotter{outputDir: outputDir}, nil
}

// PlotTrajectory draws the session's X/Z path with target placements
// overlaid and saves it as trajectory_<session>.png. Returns the file path.
func (tp *TrajectoryPlotter) PlotTrajectory(sessionID string,
	samples []storage.StoredSample, predictions []storage.StoredPrediction) (string, error) {

	if len(samples) == 0 {
		return "", fmt.Errorf("session %s has no samples to plot", sessionID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s — motion trail and targets", shortID(sessionID))
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"

	pathPts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pathPts[i].X = s.Sample.Position.X
		pathPts[i].Y = s.Sample.Position.Z
	}
	pathLine, err := plotter.NewLine(pathPts)
	if err != nil {
		return "", fmt.Errorf("failed to build path line: %w", err)
	}
	pathLine.Width = vg.Points(1)
	pathLine.Color = color.RGBA{B: 200, A: 255}
	p.Add(pathLine)
	p.Legend.Add("path", pathLine)

	if len(predictions) > 0 {
		targetPts := make(plotter.XYs, len(predictions))
		for i, pr := range predictions {
			targetPts[i].X = pr.Target.Position.X
			targetPts[i].Y = pr.Target.Position.Z
		}
		targetScatter, err := plotter.NewScatter(targetPts)
		if err != nil {
			return "", fmt.Errorf("failed to build target scatter: %w", err)
		}
		targetScatter.GlyphStyle.Radius = vg.Points(3)
		targetScatter.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
		p.Add(targetScatter)
		p.Legend.Add("targets", targetScatter)
	}

	file := filepath.Join(tp.outputDir, fmt.Sprintf("trajectory_%s.png", shortID(sessionID)))
	if err := p.Save(10*vg.Inch, 10*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save trajectory plot: %w", err)
	}
	return file, nil
}

// PlotConfidence draws the prediction confidence series over the session and
// saves it as confidence_<session>.png. Returns the file path.
func (tp *TrajectoryPlotter) PlotConfidence(sessionID string,
	predictions []storage.StoredPrediction) (string, error) {

	if len(predictions) == 0 {
		return "", fmt.Errorf("session %s has no predictions to plot", sessionID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s — gate confidence", shortID(sessionID))
	p.X.Label.Text = "prediction #"
	p.Y.Label.Text = "confidence"
	p.Y.Min = 0
	p.Y.Max = 1

	pts := make(plotter.XYs, len(predictions))
	for i, pr := range predictions {
		pts[i].X = float64(i)
		pts[i].Y = pr.Target.Confidence
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build confidence line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	file := filepath.Join(tp.outputDir, fmt.Sprintf("confidence_%s.png", shortID(sessionID)))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save confidence plot: %w", err)
	}
	return file, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
