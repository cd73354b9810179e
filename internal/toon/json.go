package toon

import (
	"encoding/json"

	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/provider"
	"github.com/phobologic/symctx/internal/ranking"
)

type symbolRow struct {
	Kind       model.Kind `json:"kind"`
	Name       string     `json:"name"`
	File       string     `json:"file"`
	Line       int        `json:"line"`
	References []string   `json:"references"`
	Rank       float64    `json:"rank"`
}

// JSONSymbols renders a symbol listing as indented JSON.
func JSONSymbols(root string, entries []ranking.Entry) ([]byte, error) {
	rows := make([]symbolRow, len(entries))
	for i, e := range entries {
		loc := e.Symbol.Location()
		refs := e.Symbol.References()
		if refs == nil {
			refs = []string{}
		}
		rows[i] = symbolRow{
			Kind:       e.Symbol.Kind(),
			Name:       e.Symbol.QualifiedName(),
			File:       relPath(root, loc.File),
			Line:       loc.Line,
			References: refs,
			Rank:       e.Rank,
		}
	}
	return json.MarshalIndent(rows, "", "  ")
}

type entryRow struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// JSONEntries renders a listing of lexical cache entries as indented JSON.
func JSONEntries(root string, entries []lexical.Entry) ([]byte, error) {
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = entryRow{Kind: e.Kind.String(), Name: e.Name, File: relPath(root, e.File), Line: e.Line}
	}
	return json.MarshalIndent(rows, "", "  ")
}

type contextDoc struct {
	Target    string            `json:"target"`
	Strategy  provider.Strategy `json:"strategy"`
	Symbols   []model.Envelope  `json:"symbols,omitempty"`
	Entry     *lexical.Entry    `json:"entry,omitempty"`
	Window    []string          `json:"window,omitempty"`
	Auxiliary []string          `json:"auxiliary,omitempty"`
	Text      string            `json:"text,omitempty"`
}

// JSONContexts renders contexts as an indented JSON array.
func JSONContexts(cs []*provider.Context) ([]byte, error) {
	docs := make([]contextDoc, len(cs))
	for i, c := range cs {
		d := contextDoc{Target: c.Target, Strategy: c.Strategy}
		for _, s := range c.Symbols {
			d.Symbols = append(d.Symbols, model.Wrap(s))
		}
		if c.Lexical != nil {
			d.Entry = &c.Lexical.Entry
			d.Window = c.Lexical.Window
			d.Auxiliary = c.Lexical.Auxiliary
			d.Text = c.Text()
		}
		docs[i] = d
	}
	return json.MarshalIndent(docs, "", "  ")
}
