package rank

import (
	"fmt"
	"sort"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
)

// TieBreak orders entries with equal counts
type TieBreak int

const (
	// TieInsertion keeps first-seen order for equal counts. The order then
	// depends on file enumeration order.
	TieInsertion TieBreak = iota
	// TieLexical orders equal counts by key ascending.
	TieLexical
)

// ParseTieBreak maps a config value to a TieBreak
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "insertion":
		return TieInsertion, nil
	case "lexical":
		return TieLexical, nil
	}
	return TieInsertion, fmt.Errorf("unknown tie break %q", s)
}

// Top returns the n highest-count entries, count descending. n <= 0 returns
// every entry. The input slice is not modified.
func Top(entries []freq.Entry, n int, tie TieBreak) []freq.Entry {
	sorted := make([]freq.Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		if tie == TieLexical {
			return sorted[i].Key < sorted[j].Key
		}
		return false
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// InflectionStats summarizes lemma provenance
type InflectionStats struct {
	Lemmas     int `json:"lemmas"`
	SingleForm int `json:"single_form"`
	Inflected  int `json:"inflected"`
}

// Inflections counts lemmas seen with exactly one surface form versus more
func Inflections(p *freq.Provenance) InflectionStats {
	var st InflectionStats
	if p == nil {
		return st
	}
	for _, k := range p.Keys() {
		st.Lemmas++
		if p.Size(k) == 1 {
			st.SingleForm++
		} else {
			st.Inflected++
		}
	}
	return st
}
