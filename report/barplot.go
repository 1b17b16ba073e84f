package report

import (
	"image/color"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/carbocation/pfx"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/filter"
	"github.com/CSB-hub/Seokwoo-Github/taxon"
)

var (
	barChartWidth  = 9 * vg.Inch
	barChartHeight = 5 * vg.Inch
	legendWidth    = 2.5 * vg.Inch
	barWidth       = vg.Points(18)
)

// TruncatedTables returns the configured truncated tables that exist, or
// failing a configured list, those at the top of the output directory. Either
// way they come in rank order.
func (r *Renderer) TruncatedTables() ([]string, error) {
	if len(r.opts.Truncated) > 0 {
		var out []string
		for _, src := range r.opts.Truncated {
			if _, err := os.Stat(src); err != nil {
				r.log.Warn("Truncated table not found", zap.String("path", src), zap.Error(err))
				continue
			}
			out = append(out, src)
		}
		return out, nil
	}

	matches, err := doublestar.Glob(os.DirFS(r.opts.Dir), "level-*"+filter.TruncatedSuffix)
	if err != nil {
		return nil, pfx.Err(err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, _ := abundance.RankIndex(matches[i])
		b, _ := abundance.RankIndex(matches[j])
		if a != b {
			return a < b
		}
		return matches[i] < matches[j]
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(r.opts.Dir, filepath.FromSlash(m))
	}
	return out, nil
}

// levelName maps ".../level-3_truncated.csv" to "level-3".
func levelName(truncated string) string {
	return strings.TrimSuffix(path.Base(filepath.ToSlash(truncated)), filter.TruncatedSuffix)
}

// Barplots writes one cumulative barplot per truncated table: the TopN taxa
// by mean relative abundance plus an "Other" remainder. It returns the paths
// written.
func (r *Renderer) Barplots() ([]string, error) {
	return r.barplots(BarplotSuffix, func(c Composition) (Composition, int) {
		top := c.Top(r.opts.TopN)
		return top, len(top.Columns)
	})
}

// SupplementaryBarplots writes one barplot per truncated table showing every
// taxon, with only the LegendLimit most abundant named in the legend.
func (r *Renderer) SupplementaryBarplots() ([]string, error) {
	return r.barplots(SupplementaryBarplotSuffix, func(c Composition) (Composition, int) {
		return c.Sorted(), r.opts.LegendLimit
	})
}

func (r *Renderer) barplots(suffix string, layout func(Composition) (Composition, int)) ([]string, error) {
	tables, err := r.TruncatedTables()
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		r.log.Warn("No truncated tables to plot", zap.String("dir", r.opts.Dir))
		return nil, nil
	}

	var written []string
	for _, src := range tables {
		t, err := abundance.ReadFile(src, r.opts.SampleColumn)
		if err != nil {
			return written, err
		}

		level := levelName(src)
		if len(t.Taxa) == 0 {
			r.log.Warn("Skipping barplot of table without taxa", zap.String("level", level))
			continue
		}

		c, legendCount := layout(NewComposition(t, r.opts.SampleNames))
		out := filepath.Join(filepath.Dir(src), level+suffix)
		if err := r.drawBarplot(out, c, legendCount); err != nil {
			return written, err
		}

		r.log.Info("Wrote barplot", zap.String("level", level), zap.Int("taxa", len(c.Columns)), zap.String("path", out))
		written = append(written, out)
	}

	return written, nil
}

// barColor is the palette entry for column k, black for the remainder.
func barColor(c Composition, k int) color.Color {
	if c.Other && k == len(c.Columns)-1 {
		return hexColor(OtherColor)
	}
	return PaletteColor(k)
}

// drawBarplot stacks the columns of c per sample, in column order, and names
// the first legendCount columns in a legend to the right of the plot.
func (r *Renderer) drawBarplot(filename string, c Composition, legendCount int) error {
	p := plot.New()
	p.Y.Label.Text = "Relative abundance (%)"
	p.Y.Min = 0
	p.Y.Max = 100
	p.NominalX(c.Samples...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop

	grid := plotter.NewGrid()
	grid.Vertical.Width = 0
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	leg := plot.NewLegend()
	leg.Top = true
	leg.Left = true
	leg.TextStyle.Font.Size = vg.Points(8)

	var below *plotter.BarChart
	for k, col := range c.Columns {
		vals := make(plotter.Values, len(c.Samples))
		for i, v := range c.Percent[k] {
			if !math.IsNaN(v) {
				vals[i] = v
			}
		}

		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return pfx.Err(err)
		}
		bars.Color = barColor(c, k)
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		below = bars

		p.Add(bars)
		if k < legendCount {
			leg.Add(taxon.ReadableLabel(col), bars)
		}
	}

	canvas := vgpdf.New(barChartWidth, barChartHeight)
	dc := draw.New(canvas)
	p.Draw(draw.Crop(dc, 0, -legendWidth, 0, 0))
	leg.Draw(draw.Crop(dc, barChartWidth-legendWidth, 0, 0, 0))

	f, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if _, err := canvas.WriteTo(f); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}
