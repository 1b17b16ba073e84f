// Package workflow runs the full analysis: rank discovery, column filtering,
// classification statistics and charts.
package workflow

import (
	"time"

	"go.uber.org/zap"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/config"
	"github.com/CSB-hub/Seokwoo-Github/filter"
	"github.com/CSB-hub/Seokwoo-Github/report"
	"github.com/CSB-hub/Seokwoo-Github/taxstats"
)

// Workflow wires the engines over one input directory. It is not safe for
// concurrent use.
type Workflow struct {
	cfg    config.Config
	ranks  []abundance.Rank
	labels []string
	log    *zap.Logger

	filter   *filter.Engine
	stats    *taxstats.Engine
	renderer *report.Renderer

	// OnRankProcessed, if set, is called after each rank table is filtered.
	OnRankProcessed func(r abundance.Rank, res *filter.Result)
}

// New validates cfg, discovers the rank tables and resolves their labels. It
// returns abundance.ErrMissingInput if no table matches, and an error wrapping
// config.ErrConfiguration for unusable settings. A nil logger discards output.
func New(cfg config.Config, logger *zap.Logger) (*Workflow, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ranks, err := abundance.Discover(cfg.InputDir, cfg.LevelPattern)
	if err != nil {
		return nil, err
	}

	labels, err := cfg.ResolveLabels(len(ranks))
	if err != nil {
		return nil, err
	}
	for i := range ranks {
		ranks[i].Label = labels[i]
	}

	names := cfg.SampleNameMap()

	truncated := make([]string, len(ranks))
	for i, r := range ranks {
		_, _, truncated[i] = filter.OutputPaths(r.Path)
	}

	w := &Workflow{
		cfg:    cfg,
		ranks:  ranks,
		labels: labels,
		log:    logger,
		filter: filter.New(cfg.SampleColumn, logger.Named("filter")),
		stats:  taxstats.New(ranks, cfg.SampleColumn, names, logger.Named("stats")),
		renderer: report.New(report.Options{
			Dir:          cfg.InputDir,
			Truncated:    truncated,
			LevelLabels:  labels,
			SampleColumn: cfg.SampleColumn,
			SampleNames:  names,
			TopN:         cfg.Report.TopN,
			LegendLimit:  cfg.Report.LegendLimit,
			PNGPreviews:  cfg.Report.PNGPreviews,
			PreviewDPI:   cfg.Report.PreviewDPI,
			SummaryCSV:   cfg.Report.SummaryCSV,
			Workbook:     cfg.Report.Workbook,
		}, logger.Named("report")),
	}

	for _, r := range ranks {
		logger.Debug("Found level file", zap.String("level", r.Name), zap.String("label", r.Label), zap.String("path", r.Path))
	}
	logger.Info("Discovered level files", zap.Int("count", len(ranks)), zap.String("dir", cfg.InputDir))

	return w, nil
}

// Ranks returns the discovered rank tables, in rank order.
func (w *Workflow) Ranks() []abundance.Rank {
	return w.ranks
}

// Labels returns the rank labels, in rank order.
func (w *Workflow) Labels() []string {
	return w.labels
}

// Stats exposes the statistics engine and its memoized results.
func (w *Workflow) Stats() *taxstats.Engine {
	return w.stats
}

// ProcessAll filters every rank table and writes the derived tables.
func (w *Workflow) ProcessAll() error {
	return w.filter.ProcessAll(w.ranks, w.OnRankProcessed)
}

// ComputeStats recomputes both statistics from the tables on disk.
func (w *Workflow) ComputeStats() (*taxstats.Matrix, *taxstats.RatioSeries, error) {
	m, err := w.stats.ComputeUnclassifiedStats()
	if err != nil {
		return nil, nil, err
	}

	s, err := w.stats.ComputeTaxaCounts()
	if err != nil {
		return nil, nil, err
	}

	return m, s, nil
}

// PlotWellClassified draws the well-classified chart, computing the
// statistics first if none are memoized.
func (w *Workflow) PlotWellClassified() error {
	m, err := w.stats.UnclassifiedStats()
	if err != nil {
		return err
	}
	return w.renderer.WellClassified(m)
}

// PlotTaxaRetained recomputes the retained-column ratios and draws them.
func (w *Workflow) PlotTaxaRetained() error {
	s, err := w.stats.ComputeTaxaCounts()
	if err != nil {
		return err
	}
	return w.renderer.RetainedRatio(s)
}

// Barplots draws the cumulative barplots from the truncated tables.
func (w *Workflow) Barplots() error {
	_, err := w.renderer.Barplots()
	return err
}

// Supplementary draws the barplots showing every taxon.
func (w *Workflow) Supplementary() error {
	_, err := w.renderer.SupplementaryBarplots()
	return err
}

// Export writes the enabled tabular summaries, computing whatever statistics
// are not memoized.
func (w *Workflow) Export() error {
	m, err := w.stats.UnclassifiedStats()
	if err != nil {
		return err
	}

	s := w.stats.TaxaCounts()
	if s == nil {
		if s, err = w.stats.ComputeTaxaCounts(); err != nil {
			return err
		}
	}

	return w.renderer.Export(m, s)
}

// Plot draws the two summary charts and the cumulative barplots.
func (w *Workflow) Plot() error {
	if err := w.PlotWellClassified(); err != nil {
		return err
	}
	if err := w.PlotTaxaRetained(); err != nil {
		return err
	}
	return w.Barplots()
}

// RunAll filters every table, computes the statistics, draws the charts and
// writes the summaries. The supplementary barplots are not included.
func (w *Workflow) RunAll() error {
	start := time.Now()
	w.log.Info("Workflow started", zap.String("dir", w.cfg.InputDir))

	if err := w.ProcessAll(); err != nil {
		return err
	}
	if _, _, err := w.ComputeStats(); err != nil {
		return err
	}
	if err := w.Plot(); err != nil {
		return err
	}
	if err := w.Export(); err != nil {
		return err
	}

	w.log.Info("Workflow complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
