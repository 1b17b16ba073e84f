package abundance

// SampleNames maps raw sample identifiers to display identifiers. Unmapped
// identifiers display as themselves. It is applied only when presenting
// results and never to the tables themselves.
type SampleNames map[string]string

// Display returns the display identifier of raw.
func (m SampleNames) Display(raw string) string {
	if v, ok := m[raw]; ok {
		return v
	}
	return raw
}

// DisplayAll maps every identifier in raw, preserving order.
func (m SampleNames) DisplayAll(raw []string) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = m.Display(r)
	}
	return out
}
