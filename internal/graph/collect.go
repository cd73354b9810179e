package graph

import (
	"strings"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
)

var recordTags = map[ast.Kind]model.Kind{
	ast.StructDecl: model.KindStruct,
	ast.ClassDecl:  model.KindClass,
	ast.UnionDecl:  model.KindUnion,
}

// Collect walks root and returns one symbol per qualifying declaration in
// the target tree, in traversal order. Callables must be definitions.
// Records and enums without a body are skipped as well: they carry no
// members, and letting one into the table would shadow the real
// definition. Body type references are kept only when defs has them.
func Collect(root *ast.Node, in ast.Filter, defs Definitions) []model.Symbol {
	var out []model.Symbol
	root.Walk(func(n *ast.Node) bool {
		if n.Kind != ast.TranslationUnit && !in(n.Loc.File) {
			return false
		}
		if sym := collectNode(n, defs); sym != nil {
			out = append(out, sym)
		}
		return true
	})
	return out
}

func collectNode(n *ast.Node, defs Definitions) model.Symbol {
	if n.Name == "" || !n.Definition {
		return nil
	}
	decl := model.Decl{Name: n.Name, Loc: model.Location{File: n.Loc.File, Line: n.Loc.Line}}

	switch n.Kind {
	case ast.FunctionDecl, ast.Method:
		decl.Name = qualify(n)
		fn := &model.Function{
			Decl:       decl,
			ReturnType: n.ResultType,
			Parameters: make([]model.Param, 0, len(n.Args)),
			BodyText:   strings.Join(n.Tokens, " "),
		}
		for _, a := range n.Args {
			fn.Parameters = append(fn.Parameters, model.Param{Name: a.Name, Type: a.Type})
		}
		if n.Body != nil {
			for _, ref := range n.Body.Children {
				if ref.Kind == ast.TypeRef && defs.Has(ref.Name) {
					fn.TypeReferences = append(fn.TypeReferences, ref.Name)
				}
			}
		}
		return fn

	case ast.StructDecl, ast.ClassDecl, ast.UnionDecl:
		rec := &model.Record{Decl: decl, Tag: recordTags[n.Kind], Fields: []model.Param{}}
		for _, c := range n.Children {
			switch {
			case c.Kind == ast.FieldDecl:
				rec.Fields = append(rec.Fields, model.Param{Name: c.Name, Type: c.Type})
			case c.Kind == ast.Method && c.Definition && n.Kind != ast.UnionDecl:
				rec.Methods = append(rec.Methods, c.Name)
			}
		}
		return rec

	case ast.EnumDecl:
		en := &model.Enum{Decl: decl, Enumerators: []string{}}
		for _, c := range n.Children {
			if c.Kind == ast.EnumConstant {
				en.Enumerators = append(en.Enumerators, c.Name)
			}
		}
		return en

	case ast.TypedefDecl:
		return &model.Typedef{Decl: decl, Underlying: n.Type}
	}
	return nil
}

// qualify prefixes a callable with its semantic parent's name.
func qualify(n *ast.Node) string {
	if n.Parent != nil && n.Parent.Name != "" {
		return n.Parent.Name + "::" + n.Name
	}
	return n.Name
}
