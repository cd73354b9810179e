package graph

import "github.com/phobologic/symctx/internal/ast"

// Definitions is the set of type-introducing names declared in one unit's
// target tree. It is only ever used for membership tests.
type Definitions map[string]struct{}

// Has reports whether name was declared.
func (d Definitions) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// CollectDefinitions records the names of every enum, struct, class, union
// and typedef under root whose location passes in. Subtrees outside the
// target tree are not entered.
func CollectDefinitions(root *ast.Node, in ast.Filter) Definitions {
	defs := make(Definitions)
	root.Walk(func(n *ast.Node) bool {
		if n.Kind != ast.TranslationUnit && !in(n.Loc.File) {
			return false
		}
		if introducesType(n.Kind) && n.Name != "" {
			defs[n.Name] = struct{}{}
		}
		return true
	})
	return defs
}

func introducesType(k ast.Kind) bool {
	return k.IsRecord() || k == ast.EnumDecl || k == ast.TypedefDecl
}
