package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
)

// preview renders a PNG copy of a line chart.
func (r *Renderer) preview(filename, yLabel string, labels []string, lines []Series) error {
	var chartSeries []chart.Series
	for i, s := range lines {
		var xs, ys []float64
		for _, xy := range s.points() {
			xs = append(xs, xy.X)
			ys = append(ys, xy.Y)
		}
		if len(xs) == 0 {
			continue
		}

		c := drawing.ColorFromHex(strings.TrimPrefix(PaletteHex(i), "#"))
		chartSeries = append(chartSeries, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				DotColor:    c,
				DotWidth:    3,
			},
		})
	}

	if len(chartSeries) == 0 {
		r.log.Warn("Skipping preview without data", zap.String("path", filename))
		return nil
	}

	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	dpi := float64(r.opts.PreviewDPI)
	graph := chart.Chart{
		Width:  int(6 * dpi),
		Height: int(5 * dpi),
		DPI:    dpi,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Taxonomic level",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.25, Max: math.Max(float64(len(labels))-0.75, 0.25)},
		},
		YAxis: chart.YAxis{
			Name:  yLabel,
			Range: &chart.ContinuousRange{Min: -5, Max: 105},
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return fmt.Errorf("rendering %s: %w", filename, err)
	}

	if err := os.WriteFile(filename, buffer.Bytes(), 0o644); err != nil {
		return err
	}

	r.log.Info("Wrote preview", zap.String("path", filename))
	return nil
}
