package abundance

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrMissingInput is returned when no rank table matches the configured
// source pattern.
var ErrMissingInput = errors.New("no level files found")

var (
	levelFileName = regexp.MustCompile(`^level-(\d+)\.csv$`)
	levelNumber   = regexp.MustCompile(`level-(\d+)`)
)

// Rank is one taxonomic level backed by one abundance table on disk.
type Rank struct {
	// Index is the 0-based rank, one less than the number in "level-N".
	Index int

	// Name is the file stem, e.g. "level-2".
	Name string

	// Label is the human-readable rank name, e.g. "Phylum". It is assigned by
	// configuration and may be empty.
	Label string

	// Path is the location of the rank table.
	Path string
}

// RankIndex extracts the 0-based rank index encoded as "level-N" in a file
// name. The second return value is false if the name carries no level number
// of at least 1.
func RankIndex(name string) (int, bool) {
	m := levelNumber.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return -1, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return -1, false
	}

	return n - 1, true
}

// Stem returns the file name of path without its extension.
func Stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Discover finds the rank tables in dir whose paths match the doublestar glob
// pattern and whose base names are exactly "level-<digits>.csv". Ranks are
// returned in rank order. ErrMissingInput is returned if none are found.
func Discover(dir, pattern string) ([]Rank, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid level pattern %q", pattern)
	}

	var matches []string
	if _, err := os.Stat(dir); err == nil {
		matches, err = doublestar.Glob(os.DirFS(dir), pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %q in %s: %w", pattern, dir, err)
		}
	}

	ranks := make([]Rank, 0, len(matches))
	for _, m := range matches {
		if !levelFileName.MatchString(path.Base(m)) {
			continue
		}

		idx, ok := RankIndex(m)
		if !ok {
			continue
		}

		full := filepath.Join(dir, filepath.FromSlash(m))
		ranks = append(ranks, Rank{
			Index: idx,
			Name:  Stem(full),
			Path:  full,
		})
	}

	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w in %s matching %q", ErrMissingInput, dir, pattern)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Index != ranks[j].Index {
			return ranks[i].Index < ranks[j].Index
		}
		return ranks[i].Path < ranks[j].Path
	})

	return ranks, nil
}
