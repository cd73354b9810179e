package graph

import (
	"fmt"

	"github.com/phobologic/symctx/internal/model"
)

// Table maps (kind, qualified name) to the first symbol registered under
// that key. It is filled by a single writer and read-only after Freeze;
// a frozen Table is safe for concurrent readers.
type Table struct {
	order  []model.Key
	byKey  map[model.Key]model.Symbol
	byName map[string]model.Symbol
	frozen bool
}

// NewTable returns an empty, writable table.
func NewTable() *Table {
	return &Table{
		byKey:  make(map[model.Key]model.Symbol),
		byName: make(map[string]model.Symbol),
	}
}

// Register adds sym unless its key is taken, in which case sym is dropped
// and Register returns false.
func (t *Table) Register(sym model.Symbol) bool {
	if t.frozen {
		panic(fmt.Sprintf("graph: Register(%s) on frozen table", model.KeyOf(sym)))
	}
	key := model.KeyOf(sym)
	if _, taken := t.byKey[key]; taken {
		return false
	}
	t.byKey[key] = sym
	t.order = append(t.order, key)
	if _, ok := t.byName[key.Name]; !ok {
		t.byName[key.Name] = sym
	}
	return true
}

// Freeze ends the accumulation phase.
func (t *Table) Freeze() { t.frozen = true }

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool { return t.frozen }

// Lookup returns the symbol stored under key.
func (t *Table) Lookup(key model.Key) (model.Symbol, bool) {
	sym, ok := t.byKey[key]
	return sym, ok
}

// Resolve returns the earliest registered symbol whose qualified name is
// name, whatever its kind.
func (t *Table) Resolve(name string) (model.Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int { return len(t.order) }

// Symbols returns every symbol in registration order.
func (t *Table) Symbols() []model.Symbol {
	out := make([]model.Symbol, len(t.order))
	for i, k := range t.order {
		out[i] = t.byKey[k]
	}
	return out
}

// Names returns the distinct qualified names in registration order.
func (t *Table) Names() []string {
	seen := make(map[string]struct{}, len(t.order))
	var names []string
	for _, k := range t.order {
		if _, dup := seen[k.Name]; dup {
			continue
		}
		seen[k.Name] = struct{}{}
		names = append(names, k.Name)
	}
	return names
}

// Merge registers the symbols of each unit in order and freezes the
// result. It returns the table and the number of symbols dropped as
// duplicates.
func Merge(units ...[]model.Symbol) (*Table, int) {
	t := NewTable()
	dropped := 0
	for _, syms := range units {
		for _, s := range syms {
			if !t.Register(s) {
				dropped++
			}
		}
	}
	t.Freeze()
	return t, dropped
}
