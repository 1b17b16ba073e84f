// Package taxstats computes per-rank classification quality: the fraction of
// each sample's abundance that sits in noise taxa, and the fraction of taxon
// columns that survive filtering.
//
// Both statistics use the rank-agnostic noise rules (taxon.IsNoise) even
// though each table's rank is known. This differs from the column filtering,
// which is rank-aware.
package taxstats

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v3"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/taxon"
)

// ErrSampleMismatch is returned when rank tables do not share the same number
// of samples.
var ErrSampleMismatch = errors.New("rank tables disagree on sample count")

// Matrix holds the unclassified fraction of every sample at every rank.
type Matrix struct {
	// Samples are display names, in the row order of the first rank table.
	Samples []string

	// Levels are rank names, e.g. "level-1", in rank order.
	Levels []string

	// Cells is indexed [sample][level]. A cell is invalid when the sample's
	// total abundance at that rank is zero.
	Cells [][]null.Float
}

// At returns the fraction at sample i and level j, or NaN if undefined.
func (m *Matrix) At(i, j int) float64 {
	if c := m.Cells[i][j]; c.Valid {
		return c.Float64
	}
	return math.NaN()
}

// Row returns the fractions of sample i across levels.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, len(m.Levels))
	for j := range out {
		out[j] = m.At(i, j)
	}
	return out
}

// RatioSeries holds the retained-column ratio of every rank, in rank order.
type RatioSeries struct {
	Levels   []string
	Retained []int
	Total    []int

	// Ratios is Retained/Total, NaN for a rank without taxon columns.
	Ratios []float64
}

// Engine computes statistics from the rank tables on disk. The last computed
// results are kept until the next computation overwrites them; they are not
// invalidated when the underlying files change.
//
// Engine is not safe for concurrent use.
type Engine struct {
	ranks        []abundance.Rank
	sampleColumn string
	names        abundance.SampleNames
	log          *zap.Logger

	stats      *Matrix
	taxaCounts *RatioSeries
}

// New returns an Engine over ranks. A nil logger discards output.
func New(ranks []abundance.Rank, sampleColumn string, names abundance.SampleNames, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ranks:        ranks,
		sampleColumn: sampleColumn,
		names:        names,
		log:          logger,
	}
}

// ComputeUnclassifiedStats reloads every rank table and computes, per sample,
// the abundance in noise columns divided by the total abundance. A zero total
// yields an invalid cell and a warning, never an error.
func (e *Engine) ComputeUnclassifiedStats() (*Matrix, error) {
	e.log.Info("Computing unclassified stats")

	m := &Matrix{Levels: make([]string, 0, len(e.ranks))}

	var rawSamples []string
	for j, r := range e.ranks {
		t, err := abundance.ReadFile(r.Path, e.sampleColumn)
		if err != nil {
			return nil, err
		}

		if rawSamples == nil {
			rawSamples = t.Samples
			m.Cells = make([][]null.Float, len(rawSamples))
			for i := range m.Cells {
				m.Cells[i] = make([]null.Float, len(e.ranks))
			}
		} else if len(t.Samples) != len(rawSamples) {
			return nil, fmt.Errorf("%w: %s has %d samples, %s has %d",
				ErrSampleMismatch, r.Name, len(t.Samples), e.ranks[0].Name, len(rawSamples))
		}

		totals := t.RowTotals()
		noise := t.RowSumsWhere(taxon.IsNoise)
		for i := range totals {
			if totals[i] == 0 {
				e.log.Warn("Sample has no abundance at this level; fraction is undefined",
					zap.String("level", r.Name),
					zap.String("sample", t.Samples[i]),
				)
				continue
			}
			m.Cells[i][j] = null.FloatFrom(noise[i] / totals[i])
		}

		m.Levels = append(m.Levels, r.Name)
		e.log.Info("Level done", zap.String("level", r.Name))
	}

	m.Samples = e.names.DisplayAll(rawSamples)
	e.stats = m
	return m, nil
}

// ComputeTaxaCounts reloads every rank table and computes the fraction of its
// taxon columns that are not noise.
func (e *Engine) ComputeTaxaCounts() (*RatioSeries, error) {
	e.log.Info("Computing retained taxa column ratios")

	s := &RatioSeries{
		Levels:   make([]string, 0, len(e.ranks)),
		Retained: make([]int, 0, len(e.ranks)),
		Total:    make([]int, 0, len(e.ranks)),
		Ratios:   make([]float64, 0, len(e.ranks)),
	}

	for _, r := range e.ranks {
		t, err := abundance.ReadFile(r.Path, e.sampleColumn)
		if err != nil {
			return nil, err
		}

		retained := 0
		for _, label := range t.Taxa {
			if !taxon.IsNoise(label) {
				retained++
			}
		}

		ratio := math.NaN()
		if len(t.Taxa) > 0 {
			ratio = float64(retained) / float64(len(t.Taxa))
		} else {
			e.log.Warn("Level has no taxon columns; ratio is undefined", zap.String("level", r.Name))
		}

		s.Levels = append(s.Levels, r.Name)
		s.Retained = append(s.Retained, retained)
		s.Total = append(s.Total, len(t.Taxa))
		s.Ratios = append(s.Ratios, ratio)
	}

	e.taxaCounts = s
	return s, nil
}

// UnclassifiedStats returns the last computed matrix, computing it first if
// there is none.
func (e *Engine) UnclassifiedStats() (*Matrix, error) {
	if e.stats != nil {
		return e.stats, nil
	}
	return e.ComputeUnclassifiedStats()
}

// TaxaCounts returns the last computed series, or nil.
func (e *Engine) TaxaCounts() *RatioSeries {
	return e.taxaCounts
}
