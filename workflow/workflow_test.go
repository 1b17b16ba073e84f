package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/config"
	"github.com/CSB-hub/Seokwoo-Github/filter"
	"github.com/CSB-hub/Seokwoo-Github/report"
)

var levels = map[string]string{
	"level-1.csv": "index,k__Bacteria,k__Archaea,k__uncultured\n" +
		"0H,80,10,10\n" +
		"6H,50,30,20\n",
	"level-2.csv": "index,k__Bacteria;p__Proteobacteria,k__Bacteria;__,k__Archaea;p__Crenarchaeota,k__Bacteria;p__SAR406\n" +
		"0H,60,20,10,10\n" +
		"6H,40,10,30,20\n",
	"level-3.csv": "index,k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria,k__Bacteria;p__Proteobacteria;c__uncultured,k__Archaea;p__Crenarchaeota;c__Nitrososphaeria\n" +
		"0H,50,30,20\n" +
		"6H,0,0,0\n",
}

func writeLevels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range levels {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.InputDir = dir
	cfg.SampleNames = []config.SampleName{{Raw: "0H", Display: "T0"}}
	cfg.Report.PNGPreviews = true
	cfg.Report.PreviewDPI = 72
	return cfg
}

func TestNew(t *testing.T) {
	w, err := New(testConfig(writeLevels(t)), nil)
	require.NoError(t, err)

	require.Len(t, w.Ranks(), 3)
	assert.Equal(t, []string{"Kingdom", "Phylum", "Class"}, w.Labels())
	for i, r := range w.Ranks() {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, w.Labels()[i], r.Label)
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(testConfig(t.TempDir()), nil)
	assert.ErrorIs(t, err, abundance.ErrMissingInput)

	cfg := testConfig(writeLevels(t))
	cfg.LevelLabels = []string{"Kingdom", "Phylum"}
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, config.ErrConfiguration)

	cfg = testConfig(writeLevels(t))
	cfg.Report.TopN = 0
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, config.ErrConfiguration)

	cfg = testConfig(writeLevels(t))
	cfg.LevelPattern = "level-[.csv"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestRunAll(t *testing.T) {
	dir := writeLevels(t)

	core, logs := observer.New(zapcore.InfoLevel)
	w, err := New(testConfig(dir), zap.New(core))
	require.NoError(t, err)

	var processed []string
	w.OnRankProcessed = func(r abundance.Rank, _ *filter.Result) {
		processed = append(processed, r.Name)
	}

	require.NoError(t, w.RunAll())
	assert.Equal(t, []string{"level-1", "level-2", "level-3"}, processed)

	for _, name := range []string{
		"level-1_filtered.csv", "level-2_retained.csv", "level-3_truncated.csv",
		report.WellClassifiedFile, report.RetainedRatioFile,
		report.WellClassifiedPreview, report.RetainedRatioPreview,
		"level-1_barplot.pdf", "level-2_barplot.pdf", "level-3_barplot.pdf",
		report.UnclassifiedCSV, report.RetainedCSV, report.WorkbookFile,
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		if assert.NoError(t, err, name) {
			assert.NotZero(t, info.Size(), name)
		}
	}
	assert.NoFileExists(t, filepath.Join(dir, "level-1_barplot_Supple.pdf"))

	m, err := w.Stats().UnclassifiedStats()
	require.NoError(t, err)
	assert.Equal(t, []string{"T0", "6H"}, m.Samples)
	assert.InDelta(t, 0.1, m.At(0, 0), 1e-12)
	assert.InDelta(t, 0.3, m.At(0, 1), 1e-12)
	assert.InDelta(t, 0.3, m.At(0, 2), 1e-12)
	assert.False(t, m.Cells[1][2].Valid, "empty sample at level-3 must be undefined")

	s := w.Stats().TaxaCounts()
	require.NotNil(t, s)
	assert.Equal(t, []int{2, 2, 2}, s.Retained)
	assert.Equal(t, []int{3, 4, 3}, s.Total)

	assert.Equal(t, 1, logs.FilterMessage("Workflow started").Len())
	assert.Equal(t, 1, logs.FilterMessage("Workflow complete").Len())
}

func TestSupplementary(t *testing.T) {
	dir := writeLevels(t)
	w, err := New(testConfig(dir), nil)
	require.NoError(t, err)

	require.NoError(t, w.ProcessAll())
	require.NoError(t, w.Supplementary())

	for _, r := range w.Ranks() {
		assert.FileExists(t, filepath.Join(dir, r.Name+report.SupplementaryBarplotSuffix))
	}
}

func TestRerunIgnoresDerivedTables(t *testing.T) {
	dir := writeLevels(t)
	w, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	require.NoError(t, w.ProcessAll())

	again, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	assert.Len(t, again.Ranks(), 3)
}

func TestRecursivePatternBarplots(t *testing.T) {
	dir := t.TempDir()
	run := filepath.Join(dir, "run1")
	require.NoError(t, os.MkdirAll(run, 0o755))
	for _, name := range []string{"level-1.csv", "level-2.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(run, name), []byte(levels[name]), 0o644))
	}

	cfg := testConfig(dir)
	cfg.LevelPattern = "**/level-*.csv"
	w, err := New(cfg, nil)
	require.NoError(t, err)
	require.Len(t, w.Ranks(), 2)

	require.NoError(t, w.RunAll())
	require.NoError(t, w.Supplementary())

	for _, name := range []string{
		"level-1_truncated.csv",
		"level-1_barplot.pdf", "level-2_barplot.pdf",
		"level-1_barplot_Supple.pdf", "level-2_barplot_Supple.pdf",
	} {
		assert.FileExists(t, filepath.Join(run, name))
	}
	assert.FileExists(t, filepath.Join(dir, report.WellClassifiedFile))
}
