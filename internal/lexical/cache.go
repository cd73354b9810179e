// Package lexical implements the lightweight context mode: a flat cache of
// top-level declaration sites and a fixed line window around each one.
package lexical

import (
	"github.com/phobologic/symctx/internal/ast"
)

// Entry is a cached declaration site.
type Entry struct {
	Name string   `json:"name"`
	Kind ast.Kind `json:"kind"`
	File string   `json:"file"`
	Line int      `json:"line"`

	// Definition is false for prototypes and forward declarations.
	Definition bool `json:"definition,omitempty"`
}

var candidateKinds = map[ast.Kind]struct{}{
	ast.FunctionDecl:    {},
	ast.StructDecl:      {},
	ast.TypedefDecl:     {},
	ast.EnumDecl:        {},
	ast.MacroDefinition: {},
}

// Kinds whose definitions are pulled in when named inside a window.
var auxiliaryKinds = map[ast.Kind]struct{}{
	ast.TypedefDecl:     {},
	ast.EnumDecl:        {},
	ast.MacroDefinition: {},
}

// Cache maps a declared name to where it was declared. The first entry
// recorded for a name is kept, except that a definition replaces an earlier
// bare declaration of the same name.
type Cache struct {
	entries map[string]Entry
	order   []string
}

// NewCache builds a cache from entries with the same precedence as put.
func NewCache(entries []Entry) *Cache {
	c := &Cache{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.put(e)
	}
	return c
}

// BuildCache records the direct children of each unit root that are
// functions, structs, typedefs, enums or macros, declared inside the
// target tree and not named in exclude.
func BuildCache(units []*ast.Unit, in ast.Filter, exclude map[string]struct{}) *Cache {
	c := NewCache(nil)
	for _, u := range units {
		for _, n := range u.Root.Children {
			if _, ok := candidateKinds[n.Kind]; !ok || n.Name == "" {
				continue
			}
			if _, skip := exclude[n.Name]; skip || !in(n.Loc.File) {
				continue
			}
			c.put(Entry{Name: n.Name, Kind: n.Kind, File: n.Loc.File, Line: n.Loc.Line, Definition: n.Definition})
		}
	}
	return c
}

func (c *Cache) put(e Entry) {
	if prev, ok := c.entries[e.Name]; ok {
		if prev.Definition || !e.Definition {
			return
		}
		c.entries[e.Name] = e
		return
	}
	c.entries[e.Name] = e
	c.order = append(c.order, e.Name)
}

// Lookup returns the entry for name.
func (c *Cache) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Names returns the cached names in insertion order.
func (c *Cache) Names() []string {
	return append([]string(nil), c.order...)
}

// Entries returns the cached entries in insertion order.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.order))
	for i, name := range c.order {
		out[i] = c.entries[name]
	}
	return out
}

// Len returns the number of cached names.
func (c *Cache) Len() int { return len(c.order) }
