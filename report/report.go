// Package report renders classification statistics and per-rank composition
// as PDF charts, with optional PNG previews and tabular exports.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/taxstats"
)

// Output file names, relative to the output directory.
const (
	WellClassifiedFile = "Well_classified_proportion.pdf"
	RetainedRatioFile  = "Retained_taxa_ratio.pdf"

	WellClassifiedPreview = "Well_classified_proportion.png"
	RetainedRatioPreview  = "Retained_taxa_ratio.png"

	BarplotSuffix              = "_barplot.pdf"
	SupplementaryBarplotSuffix = "_barplot_Supple.pdf"
)

var (
	lineChartWidth  = 6 * vg.Inch
	lineChartHeight = 5 * vg.Inch
)

// Options configures a Renderer.
type Options struct {
	// Dir is where charts and exports are written, and where barplots look
	// for truncated tables when Truncated is empty.
	Dir string

	// Truncated lists the truncated tables to plot, in rank order. Each
	// barplot is written next to its table.
	Truncated []string

	// LevelLabels holds one display label per rank, in rank order.
	LevelLabels []string

	SampleColumn string
	SampleNames  abundance.SampleNames

	// TopN is the number of taxa drawn individually in the cumulative
	// barplots.
	TopN int

	// LegendLimit is the number of taxa named in supplementary legends.
	LegendLimit int

	// PNGPreviews enables PNG copies of the two line charts.
	PNGPreviews bool
	PreviewDPI  int

	// SummaryCSV and Workbook select the tabular exports.
	SummaryCSV bool
	Workbook   bool
}

// Renderer draws the workflow charts.
type Renderer struct {
	opts Options
	log  *zap.Logger
}

// New returns a Renderer. A nil logger discards output.
func New(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{opts: opts, log: logger}
}

func (r *Renderer) path(name string) string {
	return filepath.Join(r.opts.Dir, name)
}

// checkLevels verifies that every level has a label.
func (r *Renderer) checkLevels(levels []string) error {
	if len(levels) != len(r.opts.LevelLabels) {
		return fmt.Errorf("%d level labels for %d levels", len(r.opts.LevelLabels), len(levels))
	}
	return nil
}

// Series is one line of a line chart. Points with a NaN value are skipped.
type Series struct {
	Name   string
	Values []float64
}

func (s Series) points() plotter.XYs {
	xys := make(plotter.XYs, 0, len(s.Values))
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
	}
	return xys
}

// WellClassifiedSeries converts unclassified fractions into well-classified
// percentages, one series per sample. The first rank is left out.
func WellClassifiedSeries(m *taxstats.Matrix) []Series {
	out := make([]Series, len(m.Samples))
	for i, sample := range m.Samples {
		s := Series{Name: sample}
		for j := 1; j < len(m.Levels); j++ {
			s.Values = append(s.Values, (1-m.At(i, j))*100)
		}
		out[i] = s
	}
	return out
}

// RetainedSeries converts retained-column ratios into percentages. The first
// rank is left out.
func RetainedSeries(s *taxstats.RatioSeries) []Series {
	out := Series{Name: "Retained taxa"}
	for j := 1; j < len(s.Ratios); j++ {
		out.Values = append(out.Values, s.Ratios[j]*100)
	}
	return []Series{out}
}

// WellClassified writes the well-classified line chart.
func (r *Renderer) WellClassified(m *taxstats.Matrix) error {
	if err := r.checkLevels(m.Levels); err != nil {
		return err
	}

	lines := WellClassifiedSeries(m)
	labels := r.opts.LevelLabels[1:]

	if err := r.lineChart(r.path(WellClassifiedFile), "Well-classified (%)", labels, lines); err != nil {
		return err
	}
	r.log.Info("Wrote chart", zap.String("path", r.path(WellClassifiedFile)))

	if r.opts.PNGPreviews {
		return r.preview(r.path(WellClassifiedPreview), "Well-classified (%)", labels, lines)
	}
	return nil
}

// RetainedRatio writes the retained-column line chart.
func (r *Renderer) RetainedRatio(s *taxstats.RatioSeries) error {
	if err := r.checkLevels(s.Levels); err != nil {
		return err
	}

	lines := RetainedSeries(s)
	labels := r.opts.LevelLabels[1:]

	if err := r.lineChart(r.path(RetainedRatioFile), "Retained taxa (%)", labels, lines); err != nil {
		return err
	}
	r.log.Info("Wrote chart", zap.String("path", r.path(RetainedRatioFile)))

	if r.opts.PNGPreviews {
		return r.preview(r.path(RetainedRatioPreview), "Retained taxa (%)", labels, lines)
	}
	return nil
}

func (r *Renderer) lineChart(path, yLabel string, labels []string, lines []Series) error {
	p := plot.New()
	p.X.Label.Text = "Taxonomic level"
	p.Y.Label.Text = yLabel
	p.Y.Min = -5
	p.Y.Max = 105
	p.X.Min = -0.25
	p.X.Max = math.Max(float64(len(labels))-0.75, 0.25)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	p.Legend.Top = false
	p.Legend.Left = true

	for i, s := range lines {
		xys := s.points()
		if len(xys) == 0 {
			r.log.Warn("No defined values to draw", zap.String("series", s.Name), zap.String("path", path))
			continue
		}

		line, pts, err := plotter.NewLinePoints(xys)
		if err != nil {
			return pfx.Err(err)
		}
		line.Color = PaletteColor(i)
		line.Width = vg.Points(1.5)
		pts.GlyphStyle.Color = PaletteColor(i)
		pts.GlyphStyle.Shape = draw.CircleGlyph{}
		pts.GlyphStyle.Radius = vg.Points(2.5)

		p.Add(line, pts)
		p.Legend.Add(s.Name, line, pts)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(p.Save(lineChartWidth, lineChartHeight, path))
}
