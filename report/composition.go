package report

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/taxon"
)

// otherEpsilon is the smallest remainder, in percent, that still warrants an
// "Other" bucket. It absorbs rounding residue of percentages summing to 100.
const otherEpsilon = 1e-9

// Composition is the relative abundance, in percent of each sample's total, of
// every column of a table.
type Composition struct {
	// Samples are display names.
	Samples []string

	// Columns are taxon headers. Duplicates are kept as separate columns.
	Columns []string

	// Percent is indexed [column][sample]. A sample with zero total has NaN
	// in every column.
	Percent [][]float64

	// Means is the mean of each column over the samples with a defined
	// percentage, NaN if there are none.
	Means []float64

	// Other is true for compositions whose last column is the aggregated
	// remainder bucket.
	Other bool
}

// NewComposition derives the composition of t, renaming samples with names.
func NewComposition(t *abundance.Table, names abundance.SampleNames) Composition {
	totals := t.RowTotals()

	c := Composition{
		Samples: names.DisplayAll(t.Samples),
		Columns: append([]string(nil), t.Taxa...),
		Percent: make([][]float64, len(t.Taxa)),
		Means:   make([]float64, len(t.Taxa)),
	}

	for j := range t.Taxa {
		col := make([]float64, len(t.Samples))
		for i, row := range t.Counts {
			col[i] = row[j] / totals[i] * 100
		}
		c.Percent[j] = col
		c.Means[j] = nanMean(col)
	}

	return c
}

// nanMean is the mean of the non-NaN values, NaN if there are none.
func nanMean(vals []float64) float64 {
	defined := make(stats.Float64Data, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}

	m, err := stats.Mean(defined)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Order returns column indices by decreasing mean. Ties keep column order and
// NaN means sort last.
func (c Composition) Order() []int {
	idx := make([]int, len(c.Columns))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ma, mb := c.Means[idx[a]], c.Means[idx[b]]
		if math.IsNaN(mb) {
			return !math.IsNaN(ma)
		}
		if math.IsNaN(ma) {
			return false
		}
		return ma > mb
	})

	return idx
}

// subset returns the columns at idx, in that order.
func (c Composition) subset(idx []int) Composition {
	out := Composition{
		Samples: c.Samples,
		Columns: make([]string, len(idx)),
		Percent: make([][]float64, len(idx)),
		Means:   make([]float64, len(idx)),
	}
	for k, j := range idx {
		out.Columns[k] = c.Columns[j]
		out.Percent[k] = c.Percent[j]
		out.Means[k] = c.Means[j]
	}
	return out
}

// Sorted returns every column, by decreasing mean.
func (c Composition) Sorted() Composition {
	return c.subset(c.Order())
}

// Top returns the n columns with the highest means, by decreasing mean. The
// remainder of each sample, clipped at zero, is appended as an "Other" column
// unless it is zero for every sample.
func (c Composition) Top(n int) Composition {
	order := c.Order()
	if n < len(order) {
		order = order[:n]
	}
	out := c.subset(order)

	other := make([]float64, len(c.Samples))
	needed := false
	for i := range other {
		rest := 100.0
		for _, col := range out.Percent {
			rest -= col[i]
		}
		if rest < 0 {
			rest = 0
		}
		if rest > otherEpsilon {
			needed = true
		}
		other[i] = rest
	}

	if needed {
		out.Columns = append(out.Columns, taxon.Other)
		out.Percent = append(out.Percent, other)
		out.Means = append(out.Means, nanMean(other))
		out.Other = true
	}

	return out
}
