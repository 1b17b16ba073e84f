// Package taxon classifies taxonomic labels of the form
// "k__Bacteria;p__Proteobacteria;__" as noise or signal, and derives shortened
// and human-readable forms of them.
//
// Two noise predicates exist. IsNoiseAtRank knows which rank (0-based) the
// label's column belongs to and checks emptiness relative to that rank.
// IsNoise does not, and falls back to fixed rank-agnostic emptiness checks.
// Column filtering uses the former while the unclassified statistics use the
// latter, so the two can disagree on the same label.
package taxon

import (
	"regexp"
	"strings"
)

const (
	// Separator joins the segments of a taxonomic path.
	Separator = ";"

	// EmptySegment marks a rank at which no name was assigned.
	EmptySegment = "__"

	// Other is the sentinel label of aggregated remainder buckets.
	Other = "Other"
)

var (
	digitOrHyphen = regexp.MustCompile(`[0-9\-]`)
	disallowed    = regexp.MustCompile(`[^A-Za-z0-9_;]`)
)

// Case-insensitive substrings that mark a name as not a real taxon.
var ambiguousTerms = []string{
	"incertae",
	"uncultured",
	"unidentified",
	"candidum",
	"candidatus",
	"metagenome",
}

// hasNoiseMarker applies the string-level rules shared by whole labels and
// single segments.
func hasNoiseMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, term := range ambiguousTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}

	return strings.HasSuffix(s, "_sp") ||
		digitOrHyphen.MatchString(s) ||
		disallowed.MatchString(s)
}

// allEmpty reports whether every segment equals EmptySegment. It is false for
// an empty slice.
func allEmpty(segs []string) bool {
	if len(segs) == 0 {
		return false
	}
	for _, s := range segs {
		if s != EmptySegment {
			return false
		}
	}
	return true
}

// IsNoise reports whether label is a noise taxon without knowledge of its
// rank. Besides the string-level rules, a label whose segments are all empty
// from the third onward, or from the second onward, is noise.
func IsNoise(label string) bool {
	if hasNoiseMarker(label) {
		return true
	}

	segs := strings.Split(label, Separator)
	if len(segs) >= 3 && allEmpty(segs[2:]) {
		return true
	}
	if len(segs) >= 2 && allEmpty(segs[1:]) {
		return true
	}

	return false
}

// IsNoiseAtRank reports whether label is a noise taxon for a column at the
// given 0-based rank. Besides the string-level rules, the label is noise if its
// segment at rank is empty, or if every segment from rank onward is empty. A
// negative rank means the rank is unknown, and IsNoise is applied instead.
func IsNoiseAtRank(label string, rank int) bool {
	if rank < 0 {
		return IsNoise(label)
	}

	if hasNoiseMarker(label) {
		return true
	}

	segs := strings.Split(label, Separator)
	if len(segs) > rank {
		if segs[rank] == EmptySegment {
			return true
		}
		if allEmpty(segs[rank:]) {
			return true
		}
	}

	return false
}

// Truncate shortens label to its longest clean prefix: segments are kept up
// to, but excluding, the first one that is empty or trips a string-level noise
// rule. The result is empty if the first segment breaks.
func Truncate(label string) string {
	segs := strings.Split(label, Separator)
	for i, s := range segs {
		if s == EmptySegment || hasNoiseMarker(s) {
			segs = segs[:i]
			break
		}
	}
	return strings.Join(segs, Separator)
}

var readablePrefixes = []struct {
	prefix, code string
}{
	{"k__", "K: "},
	{"p__", "P: "},
	{"c__", "C: "},
	{"o__", "O: "},
	{"f__", "F: "},
	{"g__", "G: "},
	{"s__", "S: "},
}

// ReadableLabel returns the last segment of label with its rank prefix
// replaced by a display code, e.g. "g__Vibrio" becomes "G: Vibrio". Every
// occurrence of the matched prefix is removed from the name. Segments without
// a known prefix, and the Other sentinel, are returned verbatim.
func ReadableLabel(label string) string {
	if label == Other {
		return Other
	}

	last := lastSegment(label)
	for _, p := range readablePrefixes {
		if strings.HasPrefix(last, p.prefix) {
			return p.code + strings.ReplaceAll(last, p.prefix, "")
		}
	}

	return last
}

// LastLabel returns the name of the last segment of label, without any
// "x__" prefix.
func LastLabel(label string) string {
	if label == Other {
		return Other
	}

	last := lastSegment(label)
	if _, name, found := strings.Cut(last, EmptySegment); found {
		return name
	}
	return last
}

func lastSegment(label string) string {
	if i := strings.LastIndex(label, Separator); i >= 0 {
		return label[i+1:]
	}
	return label
}
