package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
)

func TestCollectFunctions(t *testing.T) {
	t.Parallel()

	src := "/src/geo.c"
	def := function("distance", at(src, 3), "float",
		ast.Arg{Name: "a", Type: "Point"}, ast.Arg{Name: "b", Type: "const Point *"})
	def.Tokens = []string{"{", "Point", "d", ";", "Other", "o", ";", "}"}
	def.Body.Add(
		&ast.Node{Kind: ast.TypeRef, Name: "Point", Loc: at(src, 4)},
		&ast.Node{Kind: ast.TypeRef, Name: "Other", Loc: at(src, 5)},
	)
	proto := function("proto", at(src, 9), "int")
	proto.Definition = false

	syms := Collect(unit(src, def, proto), inSrc, Definitions{"Point": {}})
	require.Len(t, syms, 1)

	fn, ok := syms[0].(*model.Function)
	require.True(t, ok)
	assert.Equal(t, "distance", fn.Name)
	assert.Equal(t, model.Location{File: src, Line: 3}, fn.Location())
	assert.Equal(t, "float", fn.ReturnType)
	assert.Equal(t, []model.Param{{Name: "a", Type: "Point"}, {Name: "b", Type: "const Point *"}}, fn.Parameters)
	assert.Equal(t, "{ Point d ; Other o ; }", fn.BodyText)
	assert.Equal(t, []string{"Point"}, fn.TypeReferences, "only body refs known to the unit")
}

func TestCollectMethodsAreQualified(t *testing.T) {
	t.Parallel()

	src := "/src/shape.cpp"
	inline := function("area", at(src, 4), "int")
	inline.Kind = ast.Method
	decl := function("draw", at(src, 5), "void")
	decl.Kind = ast.Method
	decl.Definition = false
	cls := record(ast.ClassDecl, "Shape", at(src, 1), field("sides", "int"), inline, decl)

	outOfLine := function("draw", at(src, 8), "void")
	outOfLine.Parent = &ast.Node{Kind: ast.Other, Name: "Shape"}

	syms := Collect(unit(src, cls, outOfLine), inSrc, Definitions{})
	assert.Equal(t, []string{"Shape", "Shape::area", "Shape::draw"}, names(syms))

	rec := syms[0].(*model.Record)
	assert.Equal(t, model.KindClass, rec.Kind())
	assert.Equal(t, []model.Param{{Name: "sides", Type: "int"}}, rec.Fields)
	assert.Equal(t, []string{"area"}, rec.Methods, "methods list holds bare names of inline definitions")
	assert.Equal(t, model.Location{File: src, Line: 8}, syms[2].Location())
}

func TestCollectTypesAndFilter(t *testing.T) {
	t.Parallel()

	src := "/src/types.h"
	u := unit(src,
		record(ast.UnionDecl, "Value", at(src, 1), field("i", "int"), field("f", "float")),
		enum("Color", at(src, 5), "RED", "GREEN", "BLUE"),
		typedef("MyUint", "unsigned int", at(src, 7)),
		&ast.Node{Kind: ast.StructDecl, Name: "Fwd", Loc: at(src, 8)},
		&ast.Node{Kind: ast.MacroDefinition, Name: "MAX", Loc: at(src, 9), Definition: true},
		record(ast.StructDecl, "FILE", at("/usr/include/stdio.h", 10), field("fd", "int")),
	)

	syms := Collect(u, inSrc, Definitions{})
	require.Equal(t, []string{"Value", "Color", "MyUint"}, names(syms))

	un := syms[0].(*model.Record)
	assert.Equal(t, model.KindUnion, un.Kind())
	assert.Len(t, un.Fields, 2)
	assert.Empty(t, un.Methods)

	assert.Equal(t, []string{"RED", "GREEN", "BLUE"}, syms[1].(*model.Enum).Enumerators)
	assert.Equal(t, "unsigned int", syms[2].(*model.Typedef).Underlying)
}

func TestCollectNamespaceQualifiesFunctions(t *testing.T) {
	t.Parallel()

	src := "/src/ns.cpp"
	ns := &ast.Node{Kind: ast.Namespace, Name: "geo", Loc: at(src, 1)}
	f := function("area", at(src, 2), "int")
	f.Parent = ns
	ns.Add(f)

	syms := Collect(unit(src, ns), inSrc, Definitions{})
	assert.Equal(t, []string{"geo::area"}, names(syms))
}
