package monitor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleMotionChart renders a top-down (X/Z) scatter of the published motion
// trail with the currently queued targets overlaid. Debugging-only endpoint
// for eyeballing predictions against the actual path.
func (ws *WebServer) handleMotionChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.engine.Trail()
	if len(snap.Samples) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no motion samples published yet")
		return
	}

	trail := make([]opts.ScatterData, 0, len(snap.Samples))
	maxAbs := 1.0
	for _, s := range snap.Samples {
		if abs := absMax(s.Position.X, s.Position.Z); abs > maxAbs {
			maxAbs = abs
		}
		trail = append(trail, opts.ScatterData{Value: []interface{}{s.Position.X, s.Position.Z}})
	}

	targets := ws.engine.QueuedTargets()
	targetData := make([]opts.ScatterData, 0, len(targets))
	for _, t := range targets {
		if abs := absMax(t.Position.X, t.Position.Z); abs > maxAbs {
			maxAbs = abs
		}
		targetData = append(targetData, opts.ScatterData{Value: []interface{}{t.Position.X, t.Position.Z}})
	}

	pad := maxAbs * 1.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Motion Trail", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Motion Trail (top-down)",
			Subtitle: fmt.Sprintf("samples=%d queued_targets=%d", len(trail), len(targetData)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Z", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("trail", trail, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("targets", targetData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))

	ws.renderChart(w, scatter)
}

// handleConfidenceChart renders the recent gate confidence scores as a line
// chart so threshold tuning can be eyeballed against live movement.
func (ws *WebServer) handleConfidenceChart(w http.ResponseWriter, r *http.Request) {
	scores := ws.engine.RecentConfidences()
	if len(scores) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no confidence scores recorded yet")
		return
	}

	xs := make([]string, len(scores))
	data := make([]opts.LineData, len(scores))
	for i, s := range scores {
		xs[i] = fmt.Sprintf("%d", i)
		data[i] = opts.LineData{Value: s}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gate Confidence", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Gate Confidence",
			Subtitle: fmt.Sprintf("last %d ticks", len(scores)),
		}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "confidence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs)
	line.AddSeries("confidence", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	ws.renderChart(w, line)
}

type renderer interface {
	Render(w io.Writer) error
}

func (ws *WebServer) renderChart(w http.ResponseWriter, c renderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func absMax(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
