// Package ranking selects symbols for listing: kind and name filters,
// standard-type exclusion, neighbor expansion and top-N by rank.
package ranking

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phobologic/symctx/internal/graph"
	"github.com/phobologic/symctx/internal/model"
)

// Entry is a selected symbol with its rank.
type Entry struct {
	Symbol model.Symbol
	Rank   float64
}

// Filter narrows a selection. The zero value selects every symbol in table
// order.
type Filter struct {
	// Kinds keeps only these kinds. Empty keeps all.
	Kinds []model.Kind
	// Match keeps names containing this substring, case-insensitively.
	Match string
	// Related adds the symbols a match references and the symbols that
	// reference a match.
	Related bool
	// Exclude drops these qualified names.
	Exclude map[string]struct{}
	// Top keeps the N highest-ranked symbols, ordered by rank. Zero keeps
	// all in table order.
	Top int
}

// Select applies f to t.
func Select(t *graph.Table, f Filter) []Entry {
	ranks := graph.Rank(t)
	syms := t.Symbols()

	kinds := make(map[model.Kind]struct{}, len(f.Kinds))
	for _, k := range f.Kinds {
		kinds[k] = struct{}{}
	}
	lower := strings.ToLower(f.Match)

	matched := make(map[string]struct{})
	for _, s := range syms {
		if strings.Contains(strings.ToLower(s.QualifiedName()), lower) {
			matched[s.QualifiedName()] = struct{}{}
		}
	}

	// Expand to one-hop neighbors of the matched symbols.
	if f.Related && f.Match != "" {
		related := make(map[string]struct{})
		for _, s := range syms {
			_, isMatched := matched[s.QualifiedName()]
			for _, ref := range s.References() {
				if isMatched {
					related[ref] = struct{}{}
				}
				if _, ok := matched[ref]; ok {
					related[s.QualifiedName()] = struct{}{}
				}
			}
		}
		for name := range related {
			matched[name] = struct{}{}
		}
	}

	var out []Entry
	for _, s := range syms {
		if _, ok := matched[s.QualifiedName()]; !ok {
			continue
		}
		if _, skip := f.Exclude[s.QualifiedName()]; skip {
			continue
		}
		if len(kinds) > 0 {
			if _, ok := kinds[s.Kind()]; !ok {
				continue
			}
		}
		out = append(out, Entry{Symbol: s, Rank: ranks[model.KeyOf(s)]})
	}

	if f.Top > 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
		if f.Top < len(out) {
			out = out[:f.Top]
		}
	}
	return out
}

// SelectNames applies f's Match and Exclude to names, keeping their order.
// It serves enumerations that carry no graph, such as a lexical cache.
func SelectNames(names []string, f Filter) []string {
	lower := strings.ToLower(f.Match)
	var out []string
	for _, name := range names {
		if !strings.Contains(strings.ToLower(name), lower) {
			continue
		}
		if _, skip := f.Exclude[name]; skip {
			continue
		}
		out = append(out, name)
	}
	return out
}

// ParseKinds parses a comma-separated kind list such as "struct,typedef".
func ParseKinds(s string) ([]model.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var kinds []model.Kind
	for _, part := range strings.Split(s, ",") {
		k, ok := model.ParseKind(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("unknown symbol kind %q", strings.TrimSpace(part))
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ReadTargets reads one symbol name per line. Blank lines and lines
// starting with '#' are skipped.
func ReadTargets(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}
	return names, nil
}
