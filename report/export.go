package report

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/CSB-hub/Seokwoo-Github/taxstats"
)

// Export file names, relative to the output directory.
const (
	UnclassifiedCSV = "Unclassified_stats.csv"
	RetainedCSV     = "Retained_taxa_ratio.csv"
	WorkbookFile    = "Taxonomy_summary.xlsx"

	unclassifiedSheet = "Unclassified"
	retainedSheet     = "RetainedRatio"
)

// UnclassifiedRow is one (sample, level) cell of the unclassified matrix.
// Undefined fractions are written as empty fields.
type UnclassifiedRow struct {
	Sample         string `csv:"sample"`
	Level          string `csv:"level"`
	Label          string `csv:"label"`
	Unclassified   string `csv:"unclassified_fraction"`
	WellClassified string `csv:"well_classified_percent"`
}

// RetainedRow is one level of the retained-column series.
type RetainedRow struct {
	Level    string `csv:"level"`
	Label    string `csv:"label"`
	Retained int    `csv:"retained_columns"`
	Total    int    `csv:"total_columns"`
	Ratio    string `csv:"ratio"`
}

func formatNA(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// UnclassifiedRows flattens m, sample by sample.
func (r *Renderer) UnclassifiedRows(m *taxstats.Matrix) []UnclassifiedRow {
	rows := make([]UnclassifiedRow, 0, len(m.Samples)*len(m.Levels))
	for i, sample := range m.Samples {
		for j, level := range m.Levels {
			v := m.At(i, j)
			rows = append(rows, UnclassifiedRow{
				Sample:         sample,
				Level:          level,
				Label:          r.label(j),
				Unclassified:   formatNA(v),
				WellClassified: formatNA((1 - v) * 100),
			})
		}
	}
	return rows
}

// RetainedRows lists s, level by level.
func (r *Renderer) RetainedRows(s *taxstats.RatioSeries) []RetainedRow {
	rows := make([]RetainedRow, len(s.Levels))
	for j, level := range s.Levels {
		rows[j] = RetainedRow{
			Level:    level,
			Label:    r.label(j),
			Retained: s.Retained[j],
			Total:    s.Total[j],
			Ratio:    formatNA(s.Ratios[j]),
		}
	}
	return rows
}

func (r *Renderer) label(j int) string {
	if j < len(r.opts.LevelLabels) {
		return r.opts.LevelLabels[j]
	}
	return ""
}

// Export writes the enabled tabular exports of m and s.
func (r *Renderer) Export(m *taxstats.Matrix, s *taxstats.RatioSeries) error {
	if r.opts.SummaryCSV {
		if err := r.ExportCSV(m, s); err != nil {
			return err
		}
	}
	if r.opts.Workbook {
		if err := r.ExportWorkbook(m, s); err != nil {
			return err
		}
	}
	return nil
}

// ExportCSV writes the long-format statistics tables.
func (r *Renderer) ExportCSV(m *taxstats.Matrix, s *taxstats.RatioSeries) error {
	unclassified := r.UnclassifiedRows(m)
	if err := marshalFile(r.path(UnclassifiedCSV), &unclassified); err != nil {
		return err
	}

	retained := r.RetainedRows(s)
	if err := marshalFile(r.path(RetainedCSV), &retained); err != nil {
		return err
	}

	r.log.Info("Wrote statistics tables",
		zap.String("unclassified", r.path(UnclassifiedCSV)),
		zap.String("retained", r.path(RetainedCSV)))
	return nil
}

func marshalFile(filename string, rows interface{}) error {
	f, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return pfx.Err(fmt.Sprintf("%v (%s)", err, filename))
	}

	return f.Close()
}

// ExportWorkbook writes both statistics as sheets of one workbook: the
// unclassified matrix in wide form, and the retained-column series.
func (r *Renderer) ExportWorkbook(m *taxstats.Matrix, s *taxstats.RatioSeries) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", unclassifiedSheet); err != nil {
		return pfx.Err(err)
	}

	header := []interface{}{"Sample"}
	for j := range m.Levels {
		header = append(header, r.label(j))
	}
	if err := setRow(f, unclassifiedSheet, 1, header); err != nil {
		return err
	}
	for i, sample := range m.Samples {
		row := []interface{}{sample}
		for j := range m.Levels {
			row = append(row, cellValue(m.At(i, j)))
		}
		if err := setRow(f, unclassifiedSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(retainedSheet); err != nil {
		return pfx.Err(err)
	}
	if err := setRow(f, retainedSheet, 1, []interface{}{"Level", "Label", "Retained", "Total", "Ratio"}); err != nil {
		return err
	}
	for j, level := range s.Levels {
		row := []interface{}{level, r.label(j), s.Retained[j], s.Total[j], cellValue(s.Ratios[j])}
		if err := setRow(f, retainedSheet, j+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(r.path(WorkbookFile)); err != nil {
		return pfx.Err(err)
	}

	r.log.Info("Wrote workbook", zap.String("path", r.path(WorkbookFile)))
	return nil
}

// cellValue leaves undefined values blank rather than writing "NaN".
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}
