package domain

import (
	"sort"
	"strings"
)

// CoinSet is a sorted, de-duplicated set of coin ids
// Two sets are equal when their fingerprints are equal.
type CoinSet struct {
	ids []string
}

// NewCoinSet builds a set from arbitrary ids, dropping empties and duplicates
func NewCoinSet(ids ...string) CoinSet {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return CoinSet{ids: out}
}

// CoinSetOf returns the distinct coin ids across the holdings
func CoinSetOf(holdings []Holding) CoinSet {
	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		ids = append(ids, h.CoinID)
	}
	return NewCoinSet(ids...)
}

// IDs returns a copy of the sorted ids
func (s CoinSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s CoinSet) Len() int { return len(s.ids) }

func (s CoinSet) Contains(id string) bool {
	i := sort.SearchStrings(s.ids, id)
	return i < len(s.ids) && s.ids[i] == id
}

// Union returns the set of ids present in either set
func (s CoinSet) Union(other CoinSet) CoinSet {
	return NewCoinSet(append(s.IDs(), other.ids...)...)
}

// Fingerprint is a canonical string for the set, stable across orderings
func (s CoinSet) Fingerprint() string {
	return strings.Join(s.ids, ",")
}

func (s CoinSet) Equal(other CoinSet) bool {
	return s.Fingerprint() == other.Fingerprint()
}
