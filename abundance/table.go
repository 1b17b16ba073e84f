// Package abundance reads and writes per-rank abundance tables: one row per
// sample, one column per taxon label, non-negative counts in the cells.
package abundance

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/floats"

	metabarcoding "github.com/CSB-hub/Seokwoo-Github"
)

// ErrMalformedTable is returned for tables that cannot be interpreted as a
// sample-by-taxon count matrix.
var ErrMalformedTable = errors.New("malformed abundance table")

// taxonSeparator joins the segments of taxon labels. It never delimits
// columns.
const taxonSeparator = ";"

// Table is an in-memory abundance table. The sample column is held apart from
// the taxon columns and is always written first.
type Table struct {
	// SampleColumn is the header of the sample identifier column.
	SampleColumn string

	// Samples holds one identifier per row, in file order.
	Samples []string

	// Taxa holds the taxon column headers, in file order. Duplicates are
	// allowed.
	Taxa []string

	// Counts is indexed [row][taxon column].
	Counts [][]float64
}

// Read parses a delimited table from r. The delimiter is sniffed from the
// content. The sample column is sampleColumn if non-empty, otherwise the first
// column.
func Read(r io.Reader, sampleColumn string) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedTable)
	}

	// Taxon labels are themselves semicolon-delimited, so only tab is allowed
	// to override the comma.
	cr := csv.NewReader(bytes.NewReader(raw))
	if metabarcoding.DetermineDelimiter(bytes.NewReader(bytes.TrimRight(raw, "\r\n"))) == '\t' {
		cr.Comma = '\t'
	}
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if len(header) == 1 && strings.Contains(header[0], taxonSeparator) {
		return nil, fmt.Errorf("%w: single column header %q looks semicolon-delimited", ErrMalformedTable, header[0])
	}

	sampleIdx := 0
	if sampleColumn != "" {
		sampleIdx = -1
		for i, h := range header {
			if h == sampleColumn {
				sampleIdx = i
				break
			}
		}
		if sampleIdx < 0 {
			return nil, fmt.Errorf("%w: sample column %q not found", ErrMalformedTable, sampleColumn)
		}
	}

	t := &Table{
		SampleColumn: header[sampleIdx],
		Samples:      make([]string, 0, len(records)-1),
		Taxa:         make([]string, 0, len(header)-1),
		Counts:       make([][]float64, 0, len(records)-1),
	}
	for i, h := range header {
		if i != sampleIdx {
			t.Taxa = append(t.Taxa, h)
		}
	}

	for line, rec := range records[1:] {
		row := make([]float64, 0, len(t.Taxa))
		for i, cell := range rec {
			if i == sampleIdx {
				t.Samples = append(t.Samples, cell)
				continue
			}

			v, err := parseCount(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, column %q: %v", ErrMalformedTable, line+2, header[i], err)
			}
			row = append(row, v)
		}
		t.Counts = append(t.Counts, row)
	}

	return t, nil
}

// parseCount accepts non-negative numbers. Blank cells count as zero.
func parseCount(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("count %q is not a non-negative number", cell)
	}

	return v, nil
}

// ReadFile reads the table at path, transparently decompressing it if needed.
func ReadFile(path, sampleColumn string) (*Table, error) {
	rc, err := metabarcoding.OpenDecompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Read(rc, sampleColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// Write emits t as comma-separated text with the sample column first.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.Taxa)+1)
	header = append(header, t.SampleColumn)
	header = append(header, t.Taxa...)
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	rec := make([]string, len(header))
	for i, sample := range t.Samples {
		rec[0] = sample
		for j, v := range t.Counts[i] {
			rec[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := Write(bw, t); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}

// Select returns a table with the same samples and only the taxon columns at
// the given indices, in that order. Row slices are freshly allocated.
func (t *Table) Select(cols []int) *Table {
	out := &Table{
		SampleColumn: t.SampleColumn,
		Samples:      append([]string(nil), t.Samples...),
		Taxa:         make([]string, len(cols)),
		Counts:       make([][]float64, len(t.Counts)),
	}
	for j, c := range cols {
		out.Taxa[j] = t.Taxa[c]
	}
	for i, row := range t.Counts {
		out.Counts[i] = make([]float64, len(cols))
		for j, c := range cols {
			out.Counts[i][j] = row[c]
		}
	}
	return out
}

// Relabel returns a copy of t whose taxon headers are replaced by
// fn(header). Values are unchanged.
func (t *Table) Relabel(fn func(string) string) *Table {
	cols := make([]int, len(t.Taxa))
	for i := range cols {
		cols[i] = i
	}

	out := t.Select(cols)
	for i, h := range out.Taxa {
		out.Taxa[i] = fn(h)
	}
	return out
}

// RowTotals returns the sum of every taxon column, per sample.
func (t *Table) RowTotals() []float64 {
	out := make([]float64, len(t.Counts))
	for i, row := range t.Counts {
		out[i] = floats.Sum(row)
	}
	return out
}

// RowSumsWhere returns, per sample, the sum of the taxon columns whose header
// satisfies keep.
func (t *Table) RowSumsWhere(keep func(string) bool) []float64 {
	var cols []int
	for j, h := range t.Taxa {
		if keep(h) {
			cols = append(cols, j)
		}
	}

	out := make([]float64, len(t.Counts))
	buf := make([]float64, len(cols))
	for i, row := range t.Counts {
		for k, c := range cols {
			buf[k] = row[c]
		}
		out[i] = floats.Sum(buf)
	}
	return out
}

// Sum returns the total of every taxon cell.
func (t *Table) Sum() float64 {
	return floats.Sum(t.RowTotals())
}
