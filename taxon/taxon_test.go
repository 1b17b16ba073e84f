package taxon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type noiseExpectation struct {
	Label    string
	Rank     int
	AtRank   bool
	Agnostic bool
}

func TestNoisePredicates(t *testing.T) {
	for _, v := range []noiseExpectation{
		// String-level rules hold regardless of rank.
		{"k__Bacteria;p__Firmicutes;c__Clostridia1", 2, true, true},
		{"k__Bacteria;p__Firmicutes;c__Clostridia-like", 0, true, true},
		{"k__Bacteria;c__Incertae_Sedis", 1, true, true},
		{"k__Bacteria;g__Bacillus_sp", 1, true, true},
		{"k__Bacteria;p__uncultured", 1, true, true},
		{"k__Bacteria;p__Unidentified", 1, true, true},
		{"k__Fungi;s__Geotrichum_candidum", 1, true, true},
		{"k__Bacteria;p__Candidatus_Saccharibacteria", 1, true, true},
		{"k__Bacteria;s__marine_metagenome", 1, true, true},
		{"k__Bacteria;s__Escherichia coli", 1, true, true},
		{"k__Bacteria;p__Proteobacteria(x)", 1, true, true},

		// "_sp" is case-sensitive and must be a suffix.
		{"k__Bacteria;g__Bacillus_SP", 1, false, false},
		{"k__Bacteria;g__Bacillus_spore", 1, false, false},

		// Empty segment checks.
		{"k__A;__;__", 1, true, true},
		{"k__Bacteria;__", 0, false, true},
		{"k__Bacteria;__", 1, true, true},
		{"k__Bacteria;p__Proteobacteria;__", 1, false, true},
		{"k__Bacteria;p__Proteobacteria;__", 2, true, true},
		{"k__Bacteria;__;c__Gammaproteobacteria", 1, true, false},
		{"__;__;__", 0, true, true},

		// Clean labels.
		{"k__Bacteria", 0, false, false},
		{"k__Bacteria;p__Proteobacteria", 1, false, false},
		{"k__Bacteria;p__Proteobacteria", 5, false, false},
		{"Other", 0, false, false},
	} {
		assert.Equal(t, v.AtRank, IsNoiseAtRank(v.Label, v.Rank), "IsNoiseAtRank(%q, %d)", v.Label, v.Rank)
		assert.Equal(t, v.Agnostic, IsNoise(v.Label), "IsNoise(%q)", v.Label)
	}
}

func TestDigitsAndHyphensAreAlwaysNoise(t *testing.T) {
	for _, label := range []string{
		"k__Bacteria;p__SAR406",
		"k__Bacteria;p__Firmicutes;c__Clostridia;o__Clostridiales;f__Family-XI",
		"0",
		"-",
	} {
		assert.True(t, IsNoise(label), label)
		for rank := 0; rank < 7; rank++ {
			assert.True(t, IsNoiseAtRank(label, rank), "%s at rank %d", label, rank)
		}
	}
}

func TestNegativeRankIsRankAgnostic(t *testing.T) {
	for _, label := range []string{"k__Bacteria;__", "k__A;p__B;c__C", "k__A;__;c__C"} {
		assert.Equal(t, IsNoise(label), IsNoiseAtRank(label, -1), label)
	}
}

func TestTruncate(t *testing.T) {
	for _, v := range []struct {
		Label    string
		Expected string
	}{
		{"k__Bacteria;p__Proteobacteria;c__1234;o____", "k__Bacteria;p__Proteobacteria"},
		{"k__Bacteria;__;__", "k__Bacteria"},
		{"k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria", "k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria"},
		{"__;p__Proteobacteria", ""},
		{"k__Bacteria;p__Firmicutes;c__Incertae_Sedis;o__X", "k__Bacteria;p__Firmicutes"},
		{"k__Bacteria;g__Bacillus_sp", "k__Bacteria"},
		{"k__Bacteria;s__Escherichia coli", "k__Bacteria"},
		{"k__uncultured", ""},
		{"Other", "Other"},
		{"", ""},
	} {
		assert.Equal(t, v.Expected, Truncate(v.Label), v.Label)
	}
}

func TestTruncateIsSegmentPrefix(t *testing.T) {
	for _, label := range []string{
		"k__Bacteria;p__Proteobacteria;c__Alphaproteobacteria;o__Rhodobacterales",
		"k__Bacteria;p__Proteobacteria;__;__",
		"k__Eukaryota;p__Ochrophyta;c__Bacillariophyta;o__uncultured",
		"k__Bacteria",
	} {
		got := Truncate(label)
		assert.True(t, got == "" || got == label || strings.HasPrefix(label, got+Separator),
			"Truncate(%q) = %q is not a segment prefix", label, got)
	}
}

func TestReadableLabel(t *testing.T) {
	for _, v := range []struct {
		Label    string
		Expected string
	}{
		{"k__Bacteria", "K: Bacteria"},
		{"k__Bacteria;p__Firmicutes", "P: Firmicutes"},
		{"k__Bacteria;p__Firmicutes;c__Bacilli", "C: Bacilli"},
		{"k__Bacteria;o__Bacillales", "O: Bacillales"},
		{"k__Bacteria;f__Vibrionaceae", "F: Vibrionaceae"},
		{"k__Bacteria;g__Vibrio", "G: Vibrio"},
		{"k__Bacteria;s__Vibrio_harveyi", "S: Vibrio_harveyi"},
		{"k__Bacteria;g__Foo_g__Bar", "G: Foo_Bar"},
		{"x__Foo", "x__Foo"},
		{"k__Bacteria;__", "__"},
		{"Other", "Other"},
		{"", ""},
	} {
		assert.Equal(t, v.Expected, ReadableLabel(v.Label), v.Label)
	}
}

func TestLastLabel(t *testing.T) {
	assert.Equal(t, "Vibrio", LastLabel("k__Bacteria;g__Vibrio"))
	assert.Equal(t, "Bacteria", LastLabel("k__Bacteria"))
	assert.Equal(t, "NoPrefix", LastLabel("k__Bacteria;NoPrefix"))
	assert.Equal(t, "", LastLabel("k__Bacteria;__"))
	assert.Equal(t, "Other", LastLabel("Other"))
}
