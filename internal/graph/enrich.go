package graph

import (
	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
)

// Enrich records reference edges on the symbols of one unit. Every type
// spelling a symbol owns is canonicalized and kept when defs has it; a
// method additionally picks up the field types of its owner when the owner
// was collected from the same unit. Reference lists are then deduplicated,
// first occurrence kept.
func Enrich(syms []model.Symbol, defs Definitions) {
	e := &enricher{defs: defs, owners: make(map[string]*model.Record)}
	for _, s := range syms {
		if r, ok := s.(*model.Record); ok {
			if _, seen := e.owners[r.Name]; !seen {
				e.owners[r.Name] = r
			}
		}
	}
	for _, s := range syms {
		s.Accept(e)
		s.SetReferences(dedup(s.References()))
	}
}

type enricher struct {
	defs   Definitions
	owners map[string]*model.Record
}

func (e *enricher) match(refs []string, raw string) []string {
	if name := Canonicalize(raw); e.defs.Has(name) {
		return append(refs, name)
	}
	return refs
}

func (e *enricher) VisitFunction(f *model.Function) {
	f.TypeReferences = e.match(f.TypeReferences, f.ReturnType)
	for _, p := range f.Parameters {
		f.TypeReferences = e.match(f.TypeReferences, p.Type)
	}
	if owner := f.Owner(); owner != "" {
		if rec, ok := e.owners[owner]; ok {
			for _, fld := range rec.Fields {
				f.TypeReferences = e.match(f.TypeReferences, fld.Type)
			}
		}
	}
}

func (e *enricher) VisitRecord(r *model.Record) {
	for _, fld := range r.Fields {
		r.TypeReferences = e.match(r.TypeReferences, fld.Type)
	}
}

func (e *enricher) VisitEnum(*model.Enum) {}

func (e *enricher) VisitTypedef(t *model.Typedef) {
	t.TypeReferences = e.match(t.TypeReferences, t.Underlying)
}

func dedup(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ProcessUnit runs the per-unit passes in order: pre-pass, collection,
// enrichment. It touches no state outside the unit.
func ProcessUnit(root *ast.Node, in ast.Filter) []model.Symbol {
	defs := CollectDefinitions(root, in)
	syms := Collect(root, in, defs)
	Enrich(syms, defs)
	return syms
}
