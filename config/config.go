// Package config loads and validates workflow settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/carbocation/pfx"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	metabarcoding "github.com/CSB-hub/Seokwoo-Github"
	"github.com/CSB-hub/Seokwoo-Github/abundance"
)

// ErrConfiguration is returned for settings that cannot be used, including a
// rank label list whose length differs from the number of rank tables.
var ErrConfiguration = errors.New("configuration error")

// Defaults
const (
	DefaultInputDir     = "."
	DefaultLevelPattern = "level-*.csv"

	// DefaultTopN is the number of taxa shown individually in the cumulative
	// barplots before the rest is aggregated into "Other".
	DefaultTopN = 10

	// DefaultLegendLimit is the number of taxa named in the legend of the
	// supplementary barplots.
	DefaultLegendLimit = 10

	// DefaultPreviewDPI is the resolution of optional PNG previews.
	DefaultPreviewDPI = 150
)

// DefaultLevelLabels names the ranks of a standard seven-level taxonomy.
var DefaultLevelLabels = []string{
	"Kingdom", "Phylum", "Class",
	"Order", "Family", "Genus", "Species",
}

// Config holds every setting of a workflow run.
type Config struct {
	// InputDir holds the level-N.csv tables. Outputs are written there too.
	InputDir string `mapstructure:"input_dir" toml:"input_dir"`

	// LevelPattern is a doublestar glob, relative to InputDir, selecting
	// candidate rank tables.
	LevelPattern string `mapstructure:"level_pattern" toml:"level_pattern"`

	// LevelLabels are display names of the ranks, in rank order. When empty,
	// DefaultLevelLabels is used.
	LevelLabels []string `mapstructure:"level_labels" toml:"level_labels"`

	// SampleColumn overrides the sample identifier column. When empty, the
	// first column of each table is used.
	SampleColumn string `mapstructure:"sample_column" toml:"sample_column"`

	// SampleNames renames samples in statistics and plots.
	SampleNames []SampleName `mapstructure:"sample_names" toml:"sample_names"`

	Report ReportConfig `mapstructure:"report" toml:"report"`
}

// SampleName maps one raw sample identifier to its display name. Pairs are
// used rather than a table because configuration keys are case-folded.
type SampleName struct {
	Raw     string `mapstructure:"raw" toml:"raw"`
	Display string `mapstructure:"display" toml:"display"`
}

// ReportConfig holds chart and export settings.
type ReportConfig struct {
	TopN        int  `mapstructure:"top_n" toml:"top_n"`
	LegendLimit int  `mapstructure:"legend_limit" toml:"legend_limit"`
	PreviewDPI  int  `mapstructure:"preview_dpi" toml:"preview_dpi"`
	PNGPreviews bool `mapstructure:"png_previews" toml:"png_previews"`
	SummaryCSV  bool `mapstructure:"summary_csv" toml:"summary_csv"`
	Workbook    bool `mapstructure:"workbook" toml:"workbook"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		InputDir:     DefaultInputDir,
		LevelPattern: DefaultLevelPattern,
		Report: ReportConfig{
			TopN:        DefaultTopN,
			LegendLimit: DefaultLegendLimit,
			PreviewDPI:  DefaultPreviewDPI,
			SummaryCSV:  true,
			Workbook:    true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("level_pattern", d.LevelPattern)
	v.SetDefault("report.top_n", d.Report.TopN)
	v.SetDefault("report.legend_limit", d.Report.LegendLimit)
	v.SetDefault("report.preview_dpi", d.Report.PreviewDPI)
	v.SetDefault("report.png_previews", d.Report.PNGPreviews)
	v.SetDefault("report.summary_csv", d.Report.SummaryCSV)
	v.SetDefault("report.workbook", d.Report.Workbook)
}

// NewViper returns a viper instance carrying the defaults, with the config
// file at path (if non-empty) read on top of them. The file format follows
// its extension (toml, yaml or json).
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}

	return v, nil
}

// FromViper decodes v into a Config and validates it.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads the config file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// Validate checks the settings that do not depend on the input files, and
// expands a leading ~ in InputDir.
func (c *Config) Validate() error {
	dir, err := metabarcoding.ExpandHome(c.InputDir)
	if err != nil {
		return fmt.Errorf("%w: input_dir: %v", ErrConfiguration, err)
	}
	c.InputDir = dir

	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("%w: input_dir must not be empty", ErrConfiguration)
	}
	if strings.TrimSpace(c.LevelPattern) == "" {
		return fmt.Errorf("%w: level_pattern must not be empty", ErrConfiguration)
	}
	if !doublestar.ValidatePattern(c.LevelPattern) {
		return fmt.Errorf("%w: level_pattern %q is not a valid glob", ErrConfiguration, c.LevelPattern)
	}
	if c.Report.TopN < 1 {
		return fmt.Errorf("%w: report.top_n must be at least 1, got %d", ErrConfiguration, c.Report.TopN)
	}
	if c.Report.LegendLimit < 0 {
		return fmt.Errorf("%w: report.legend_limit must not be negative, got %d", ErrConfiguration, c.Report.LegendLimit)
	}
	if c.Report.PreviewDPI < 1 {
		return fmt.Errorf("%w: report.preview_dpi must be at least 1, got %d", ErrConfiguration, c.Report.PreviewDPI)
	}

	seen := make(map[string]bool, len(c.SampleNames))
	for _, s := range c.SampleNames {
		if s.Raw == "" {
			return fmt.Errorf("%w: sample_names entry with empty raw name", ErrConfiguration)
		}
		if seen[s.Raw] {
			return fmt.Errorf("%w: sample_names maps %q more than once", ErrConfiguration, s.Raw)
		}
		seen[s.Raw] = true
	}

	return nil
}

// ResolveLabels returns one rank label per rank table. Explicit labels must
// match n exactly; default labels are trimmed to n and cannot cover more than
// the seven standard ranks.
func (c Config) ResolveLabels(n int) ([]string, error) {
	if len(c.LevelLabels) > 0 {
		if len(c.LevelLabels) != n {
			return nil, fmt.Errorf("%w: %d level labels given for %d level files", ErrConfiguration, len(c.LevelLabels), n)
		}
		return append([]string(nil), c.LevelLabels...), nil
	}

	if n > len(DefaultLevelLabels) {
		return nil, fmt.Errorf("%w: %d level files found but only %d default labels exist; set level_labels",
			ErrConfiguration, n, len(DefaultLevelLabels))
	}

	return append([]string(nil), DefaultLevelLabels[:n]...), nil
}

// SampleNameMap returns SampleNames as a lookup.
func (c Config) SampleNameMap() abundance.SampleNames {
	out := make(abundance.SampleNames, len(c.SampleNames))
	for _, s := range c.SampleNames {
		out[s.Raw] = s.Display
	}
	return out
}

// WriteDefault writes a starter TOML config to path. It refuses to overwrite
// an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := Default()
	cfg.LevelLabels = append([]string(nil), DefaultLevelLabels...)
	cfg.SampleNames = []SampleName{{Raw: "0H", Display: "0H"}}

	b, err := toml.Marshal(cfg)
	if err != nil {
		return pfx.Err(err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pfx.Err(err)
		}
	}

	return os.WriteFile(path, b, 0o644)
}
