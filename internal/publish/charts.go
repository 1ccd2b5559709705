package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartRenderer draws sentiment bar charts as PNG files. Charts are
// transient attachments and are removed after publishing.
type ChartRenderer struct {
	dir string
}

// NewChartRenderer creates a renderer writing into dir
func NewChartRenderer(dir string) *ChartRenderer {
	return &ChartRenderer{dir: dir}
}

// RenderSentiment draws one bar per market section, green above zero
// and red below, and returns the PNG path.
func (r *ChartRenderer) RenderSentiment(title string, labels []string, values []float64) (string, error) {
	if len(labels) == 0 || len(labels) != len(values) {
		return "", fmt.Errorf("labels and values must be non-empty and equal length")
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chart dir: %w", err)
	}

	bars := make([]chart.Value, len(labels))
	var maxAbs float64
	for i, label := range labels {
		style := chart.Style{FillColor: drawing.ColorGreen, StrokeColor: drawing.ColorGreen}
		if values[i] < 0 {
			style = chart.Style{FillColor: drawing.ColorRed, StrokeColor: drawing.ColorRed}
		}
		bars[i] = chart.Value{Label: label, Value: values[i], Style: style}
		if abs := values[i]; abs < 0 {
			abs = -abs
			if abs > maxAbs {
				maxAbs = abs
			}
		} else if abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	graph := chart.BarChart{
		Title:    title,
		Height:   480,
		Width:    960,
		BarWidth: 80,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -maxAbs * 1.2, Max: maxAbs * 1.2},
		},
		Bars: bars,
	}

	path := filepath.Join(r.dir, fmt.Sprintf("sentiment-%d.png", time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return path, nil
}

// Cleanup removes a rendered chart once it has been published
func (r *ChartRenderer) Cleanup(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}
