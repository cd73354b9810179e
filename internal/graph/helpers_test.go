package graph

import (
	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
)

var inSrc = ast.UnderDir("/src")

func at(file string, line int) ast.Location {
	return ast.Location{File: file, Line: line}
}

func unit(path string, children ...*ast.Node) *ast.Node {
	return (&ast.Node{Kind: ast.TranslationUnit, Name: path, Loc: at(path, 1)}).Add(children...)
}

func record(kind ast.Kind, name string, loc ast.Location, members ...*ast.Node) *ast.Node {
	n := &ast.Node{Kind: kind, Name: name, Loc: loc, Definition: true}
	for _, m := range members {
		if m.Loc.File == "" {
			m.Loc = loc
		}
		if m.Kind.IsCallable() {
			m.Parent = n
		}
	}
	return n.Add(members...)
}

func field(name, typ string) *ast.Node {
	return &ast.Node{Kind: ast.FieldDecl, Name: name, Type: typ}
}

func function(name string, loc ast.Location, ret string, args ...ast.Arg) *ast.Node {
	return &ast.Node{
		Kind:       ast.FunctionDecl,
		Name:       name,
		Loc:        loc,
		Definition: true,
		ResultType: ret,
		Args:       args,
		Body:       &ast.Node{Kind: ast.CompoundStmt, Loc: loc},
		Tokens:     []string{"{", "}"},
	}
}

func typedef(name, underlying string, loc ast.Location) *ast.Node {
	return &ast.Node{Kind: ast.TypedefDecl, Name: name, Type: underlying, Loc: loc, Definition: true}
}

func enum(name string, loc ast.Location, constants ...string) *ast.Node {
	n := &ast.Node{Kind: ast.EnumDecl, Name: name, Loc: loc, Definition: true}
	for _, c := range constants {
		n.Add(&ast.Node{Kind: ast.EnumConstant, Name: c, Loc: loc})
	}
	return n
}

func names(syms []model.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.QualifiedName()
	}
	return out
}

func symbolNamed(syms []model.Symbol, name string) model.Symbol {
	for _, s := range syms {
		if s.QualifiedName() == name {
			return s
		}
	}
	return nil
}
