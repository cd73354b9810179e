package graph

import "github.com/phobologic/symctx/internal/model"

// Assemble returns the context bundle of target: target itself, then each
// symbol its references resolve to in t, then (for records) its field
// types and (for typedefs) its underlying type. Entries are unique by
// qualified name in first-seen order. Resolved symbols are not expanded
// further, and names that do not resolve are left out. For
// "typedef struct P {...} P" the typedef's bundle is the typedef alone.
func Assemble(target model.Symbol, t *Table) []model.Symbol {
	b := &bundler{
		table: t,
		seen:  map[string]struct{}{target.QualifiedName(): {}},
		out:   []model.Symbol{target},
	}
	for _, ref := range target.References() {
		b.add(ref)
	}
	target.Accept(b)
	return b.out
}

type bundler struct {
	table *Table
	seen  map[string]struct{}
	out   []model.Symbol
}

func (b *bundler) add(name string) {
	sym, ok := b.table.Resolve(name)
	if !ok {
		return
	}
	qn := sym.QualifiedName()
	if _, dup := b.seen[qn]; dup {
		return
	}
	b.seen[qn] = struct{}{}
	b.out = append(b.out, sym)
}

func (b *bundler) VisitFunction(*model.Function) {}

func (b *bundler) VisitRecord(r *model.Record) {
	for _, f := range r.Fields {
		b.add(Canonicalize(f.Type))
	}
}

func (b *bundler) VisitEnum(*model.Enum) {}

func (b *bundler) VisitTypedef(t *model.Typedef) {
	b.add(Canonicalize(t.Underlying))
}
