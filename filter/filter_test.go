package filter

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
)

const phylumTable = "index,k__Bacteria;p__Proteobacteria,k__Bacteria;__,k__Bacteria;p__SAR406,k__Bacteria;p__Bacteroidota\n" +
	"S1,10,5,1,4\n" +
	"S2,0,0,3,7\n"

func TestProcessPartitionsByRank(t *testing.T) {
	tab := &abundance.Table{
		SampleColumn: "index",
		Samples:      []string{"S1", "S2"},
		Taxa: []string{
			"k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria",
			"k__Bacteria;p__Proteobacteria;__",
			"k__Bacteria;__;__",
			"k__Bacteria;p__Firmicutes;c__Bacilli_sp",
		},
		Counts: [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}},
	}

	e := New("", nil)

	// At the class rank the empty third segment is noise.
	res := e.Process(tab, 2)
	assert.Equal(t, []string{"k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria"}, res.Retained.Taxa)
	assert.Equal(t, [][]float64{{1}, {5}}, res.Retained.Counts)
	assert.Equal(t, []string{
		"k__Bacteria;p__Proteobacteria;__",
		"k__Bacteria;__;__",
		"k__Bacteria;p__Firmicutes;c__Bacilli_sp",
	}, res.Filtered.Taxa)
	assert.Equal(t, [][]float64{{2, 3, 4}, {6, 7, 8}}, res.Filtered.Counts)
	assert.Equal(t, []string{"S1", "S2"}, res.Filtered.Samples)

	// At the phylum rank only fully empty and malformed labels are noise.
	res = e.Process(tab, 1)
	assert.Equal(t, []string{
		"k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria",
		"k__Bacteria;p__Proteobacteria;__",
	}, res.Retained.Taxa)

	assert.Equal(t, 36.0, res.Total)
	assert.Equal(t, 22.0, res.FilteredSum)
	assert.InDelta(t, 22.0/36.0*100, res.FilteredPercent, 1e-9)
}

func TestProcessTruncatesHeadersInPlace(t *testing.T) {
	tab := &abundance.Table{
		SampleColumn: "index",
		Samples:      []string{"S1"},
		Taxa: []string{
			"k__Bacteria;p__Proteobacteria;c__1234;o____",
			"k__Bacteria;__;__",
			"k__Bacteria;p__Firmicutes",
			"k__uncultured",
		},
		Counts: [][]float64{{1, 2, 3, 4}},
	}

	res := New("", nil).Process(tab, 1)
	assert.Equal(t, []string{
		"k__Bacteria;p__Proteobacteria",
		"k__Bacteria",
		"k__Bacteria;p__Firmicutes",
		"",
	}, res.Truncated.Taxa)
	assert.Equal(t, tab.Counts, res.Truncated.Counts)
	assert.Equal(t, "k__Bacteria;p__Proteobacteria;c__1234;o____", tab.Taxa[0], "source table must not change")
}

func TestProcessZeroTotal(t *testing.T) {
	tab := &abundance.Table{
		SampleColumn: "index",
		Samples:      []string{"S1"},
		Taxa:         []string{"k__Bacteria;__"},
		Counts:       [][]float64{{0}},
	}

	res := New("", nil).Process(tab, 1)
	assert.Equal(t, 0.0, res.Total)
	assert.True(t, math.IsNaN(res.FilteredPercent))
}

func TestProcessFileWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "level-2.csv")
	require.NoError(t, os.WriteFile(src, []byte(phylumTable), 0o644))

	core, logs := observer.New(zapcore.InfoLevel)
	e := New("", zap.New(core))

	res, err := e.ProcessFile(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"k__Bacteria;p__Proteobacteria", "k__Bacteria;p__Bacteroidota"}, res.Retained.Taxa)

	filtered, retained, truncated := OutputPaths(src)
	assert.Equal(t, filepath.Join(dir, "level-2_filtered.csv"), filtered)

	got, err := os.ReadFile(filtered)
	require.NoError(t, err)
	assert.Equal(t, "index,k__Bacteria;__,k__Bacteria;p__SAR406\nS1,5,1\nS2,0,3\n", string(got))

	got, err = os.ReadFile(retained)
	require.NoError(t, err)
	assert.Equal(t, "index,k__Bacteria;p__Proteobacteria,k__Bacteria;p__Bacteroidota\nS1,10,4\nS2,0,7\n", string(got))

	got, err = os.ReadFile(truncated)
	require.NoError(t, err)
	assert.Equal(t, "index,k__Bacteria;p__Proteobacteria,k__Bacteria,k__Bacteria,k__Bacteria;p__Bacteroidota\nS1,10,5,1,4\nS2,0,0,3,7\n", string(got))

	entries := logs.FilterMessage("Abundance").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, 30.0, fields["total"])
	assert.Equal(t, 9.0, fields["filtered"])
	assert.Equal(t, "30.00%", fields["filtered_percent"])
	assert.Equal(t, 1, logs.FilterMessage("Target level").Len())
}

func TestProcessFileSampleColumnOverride(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "level-1.csv")
	require.NoError(t, os.WriteFile(src, []byte("k__Bacteria,sample,k__Archaea\n4,S1,1\n"), 0o644))

	res, err := New("sample", nil).ProcessFile(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"k__Bacteria", "k__Archaea"}, res.Retained.Taxa)

	_, retained, _ := OutputPaths(src)
	got, err := os.ReadFile(retained)
	require.NoError(t, err)
	assert.Equal(t, "sample,k__Bacteria,k__Archaea\nS1,4,1\n", string(got))
}

func TestProcessAll(t *testing.T) {
	assert.ErrorIs(t, New("", nil).ProcessAll(nil, nil), abundance.ErrMissingInput)

	dir := t.TempDir()
	src := filepath.Join(dir, "level-2.csv")
	require.NoError(t, os.WriteFile(src, []byte(phylumTable), 0o644))
	bad := filepath.Join(dir, "level-3.csv")
	require.NoError(t, os.WriteFile(bad, []byte("index,k__A\nS1,x\n"), 0o644))

	var done []int
	err := New("", nil).ProcessAll([]abundance.Rank{{Index: 1, Path: src}, {Index: 2, Path: bad}}, func(r abundance.Rank, _ *Result) {
		done = append(done, r.Index)
	})
	assert.ErrorIs(t, err, abundance.ErrMalformedTable)
	assert.Equal(t, []int{1}, done)

	_, err = os.Stat(filepath.Join(dir, "level-2_truncated.csv"))
	assert.NoError(t, err)
}

func TestProcessFileLogsFilteredColumns(t *testing.T) {
	src := filepath.Join(t.TempDir(), "level-2.csv")
	require.NoError(t, os.WriteFile(src, []byte(phylumTable), 0o644))

	core, logs := observer.New(zapcore.DebugLevel)
	_, err := New("", zap.New(core)).ProcessFile(src)
	require.NoError(t, err)

	entries := logs.FilterMessage("Filtered column").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].ContextMap()["taxon"])
	assert.Equal(t, "SAR406", entries[1].ContextMap()["taxon"])
}
