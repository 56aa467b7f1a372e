package model

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/swellcycle/surfboard-gwp/internal/must"
)

// DefaultKey is the entry used when no other key matches.
const DefaultKey = "default"

// FactorTable regroups emission factors (kgCO2eq per unit) by key
type FactorTable map[string]float64

// NormalizeKey lowercases s and joins its words with underscores.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", ".", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// Get returns the factor of the longest key prefixing key, or the default factor.
func (table FactorTable) Get(key string) float64 {
	key = NormalizeKey(key)
	keysize := 0
	factor, found := table[DefaultKey]
	must.Assert(found, "default emission factor not set")

	for k, f := range table {
		if strings.HasPrefix(key, k) {
			if len(k) > keysize {
				keysize = len(k)
				factor = f
			}
		}
	}
	return factor
}

// Keys returns the table keys in lexicographical order, default excluded.
func (table FactorTable) Keys() []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		if k == DefaultKey {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lookup finds the factor best matching a free-form name. Exact keys win,
// then the closest fuzzy match, then the default factor.
func (table FactorTable) Lookup(name string) (key string, factor float64) {
	normalized := NormalizeKey(name)
	if f, found := table[normalized]; found {
		return normalized, f
	}

	keys := table.Keys()
	if normalized == "" || len(keys) == 0 {
		return DefaultKey, table.Get(DefaultKey)
	}

	targets := make([]string, len(keys))
	for i, k := range keys {
		targets[i] = strings.ReplaceAll(k, "_", " ")
	}

	best := fuzzy.Rank{OriginalIndex: -1}
	bestLen := 0
	for _, submatch := range submatches(strings.ReplaceAll(normalized, "_", " ")) {
		ranks := fuzzy.RankFindNormalizedFold(submatch, targets)
		if len(ranks) == 0 {
			continue
		}
		sort.Sort(ranks)
		if len(submatch) > bestLen || (len(submatch) == bestLen && ranks[0].Distance < best.Distance) {
			best = ranks[0]
			bestLen = len(submatch)
		}
	}

	if best.OriginalIndex < 0 {
		slog.Debug("no emission factor matches, using default", "name", name)
		return DefaultKey, table.Get(DefaultKey)
	}

	slog.Debug("fuzzy found the closest emission factor", "source", name, "match", keys[best.OriginalIndex])
	return keys[best.OriginalIndex], table[keys[best.OriginalIndex]]
}

// submatches splits string into subcomponents from small to entire string
// to help fuzzy matching finding the best option. For example, passing the
// string: "foo bar baz" returns {"foo", "foo bar", "foo bar baz", "bar", "baz"}
func submatches(s string) []string {
	splited := strings.Fields(s)
	if len(splited) == 0 {
		return nil
	}
	submatches := make([]string, 0, 2*len(splited))
	for i, substr := range splited {
		if i > 0 {
			submatches = append(submatches, submatches[i-1]+" "+substr)
			continue
		}
		submatches = append(submatches, substr)
	}
	submatches = append(submatches, splited[1:]...)
	return submatches
}

// Merge returns a copy of table overridden by the entries of other.
func (table FactorTable) Merge(other FactorTable) FactorTable {
	merged := make(FactorTable, len(table)+len(other))
	for k, v := range table {
		merged[k] = v
	}
	for k, v := range other {
		merged[NormalizeKey(k)] = v
	}
	return merged
}
