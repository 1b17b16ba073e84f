// Package filter splits each rank's abundance table into noise ("filtered")
// and signal ("retained") columns, and derives a copy whose headers are
// truncated to their longest clean taxonomic prefix.
package filter

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/taxon"
)

// Output file suffixes, appended to the stem of the source table.
const (
	FilteredSuffix  = "_filtered.csv"
	RetainedSuffix  = "_retained.csv"
	TruncatedSuffix = "_truncated.csv"
)

// Result holds the three tables derived from one rank table, and the
// abundance totals that were logged for it.
type Result struct {
	Filtered  *abundance.Table
	Retained  *abundance.Table
	Truncated *abundance.Table

	// Total is the sum of every taxon cell. FilteredSum is the part of it that
	// falls in filtered columns. FilteredPercent is NaN if Total is zero.
	Total           float64
	FilteredSum     float64
	FilteredPercent float64
}

// Engine applies the rank-aware noise rules to rank tables.
type Engine struct {
	sampleColumn string
	log          *zap.Logger
}

// New returns an Engine. sampleColumn overrides the sample column name; if
// empty the first column is used. A nil logger discards output.
func New(sampleColumn string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{sampleColumn: sampleColumn, log: logger}
}

// Process partitions the taxon columns of t using the noise rules for the
// 0-based rank. A negative rank selects the rank-agnostic rules.
func (e *Engine) Process(t *abundance.Table, rank int) Result {
	var filtered, retained []int
	for j, label := range t.Taxa {
		if taxon.IsNoiseAtRank(label, rank) {
			filtered = append(filtered, j)
		} else {
			retained = append(retained, j)
		}
	}

	res := Result{
		Filtered:  t.Select(filtered),
		Retained:  t.Select(retained),
		Truncated: t.Relabel(taxon.Truncate),
		Total:     t.Sum(),
	}
	res.FilteredSum = res.Filtered.Sum()
	res.FilteredPercent = res.FilteredSum / res.Total * 100

	return res
}

// OutputPaths returns where the filtered, retained and truncated tables
// derived from the table at src are written: alongside it.
func OutputPaths(src string) (filtered, retained, truncated string) {
	base := filepath.Join(filepath.Dir(src), abundance.Stem(src))
	return base + FilteredSuffix, base + RetainedSuffix, base + TruncatedSuffix
}

// ProcessFile loads the table at src, processes it at the rank encoded in its
// file name, and writes the three derived tables next to it.
func (e *Engine) ProcessFile(src string) (*Result, error) {
	log := e.log.With(zap.String("source", src))
	log.Info("Processing table")

	rank, known := abundance.RankIndex(src)
	if known {
		log.Info("Target level", zap.Int("level", rank+1), zap.Int("index", rank))
	} else {
		log.Info("Target level: auto-detect")
	}

	t, err := abundance.ReadFile(src, e.sampleColumn)
	if err != nil {
		return nil, err
	}

	res := e.Process(t, rank)

	log.Info("Columns",
		zap.Int("total", len(t.Taxa)),
		zap.Int("filtered", len(res.Filtered.Taxa)),
		zap.Int("retained", len(res.Retained.Taxa)),
	)
	for _, label := range res.Filtered.Taxa {
		log.Debug("Filtered column", zap.String("taxon", taxon.LastLabel(label)), zap.String("label", label))
	}
	log.Info("Abundance",
		zap.Float64("total", res.Total),
		zap.Float64("filtered", res.FilteredSum),
		zap.String("filtered_percent", fmt.Sprintf("%.2f%%", res.FilteredPercent)),
	)

	filteredPath, retainedPath, truncatedPath := OutputPaths(src)
	for _, out := range []struct {
		path  string
		table *abundance.Table
	}{
		{filteredPath, res.Filtered},
		{retainedPath, res.Retained},
		{truncatedPath, res.Truncated},
	} {
		if err := abundance.WriteFile(out.path, out.table); err != nil {
			return nil, fmt.Errorf("writing %s: %w", out.path, err)
		}
	}

	return &res, nil
}

// ProcessAll runs ProcessFile over every rank, in order, calling done (if
// non-nil) after each. It returns abundance.ErrMissingInput if ranks is empty.
func (e *Engine) ProcessAll(ranks []abundance.Rank, done func(abundance.Rank, *Result)) error {
	if len(ranks) == 0 {
		return abundance.ErrMissingInput
	}

	for _, r := range ranks {
		res, err := e.ProcessFile(r.Path)
		if err != nil {
			return err
		}
		if done != nil {
			done(r, res)
		}
	}

	return nil
}
