package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
)

func TestEnrichTypedefWithoutMatch(t *testing.T) {
	t.Parallel()

	src := "/src/t.h"
	syms := ProcessUnit(unit(src, typedef("MyUint", "unsigned int", at(src, 1))), inSrc)
	require.Len(t, syms, 1)
	assert.Empty(t, syms[0].References())
}

func TestEnrichFunctionDedup(t *testing.T) {
	t.Parallel()

	src := "/src/geo.c"
	fn := function("distance", at(src, 5), "Point *",
		ast.Arg{Name: "a", Type: "Point"},
		ast.Arg{Name: "b", Type: "const Point &"},
		ast.Arg{Name: "c", Type: "Color"},
		ast.Arg{Name: "n", Type: "int"})
	fn.Body.Add(&ast.Node{Kind: ast.TypeRef, Name: "Color", Loc: at(src, 6)})

	syms := ProcessUnit(unit(src,
		record(ast.StructDecl, "Point", at(src, 1), field("x", "int")),
		enum("Color", at(src, 3), "RED"),
		fn,
	), inSrc)

	got := symbolNamed(syms, "distance")
	require.NotNil(t, got)
	assert.Equal(t, []string{"Color", "Point"}, got.References(),
		"body refs first, then return and parameter types, no duplicates")
}

func TestEnrichRecordFieldsAndTypedef(t *testing.T) {
	t.Parallel()

	src := "/src/list.h"
	syms := ProcessUnit(unit(src,
		record(ast.StructDecl, "Node", at(src, 1),
			field("next", "struct Node *"),
			field("value", "Value"),
			field("prev", "Node *"),
			field("count", "int")),
		typedef("Value", "const struct Payload *", at(src, 6)),
		record(ast.StructDecl, "Payload", at(src, 7)),
		typedef("NodePtr", "Node *", at(src, 9)),
	), inSrc)

	assert.Equal(t, []string{"Node", "Value"}, symbolNamed(syms, "Node").References())
	assert.Equal(t, []string{"Payload"}, symbolNamed(syms, "Value").References())
	assert.Equal(t, []string{"Node"}, symbolNamed(syms, "NodePtr").References())
}

func TestEnrichMethodPicksUpOwnerFields(t *testing.T) {
	t.Parallel()

	src := "/src/shape.cpp"
	outOfLine := function("draw", at(src, 10), "void")
	outOfLine.Parent = &ast.Node{Kind: ast.Other, Name: "Shape"}
	free := function("helper", at(src, 12), "void")

	syms := ProcessUnit(unit(src,
		record(ast.StructDecl, "Pen", at(src, 1)),
		record(ast.ClassDecl, "Shape", at(src, 3), field("pen", "Pen *"), field("n", "int")),
		outOfLine,
		free,
	), inSrc)

	assert.Equal(t, []string{"Pen"}, symbolNamed(syms, "Shape::draw").References())
	assert.Empty(t, symbolNamed(syms, "helper").References())
}

func TestEnrichIsUnitLocal(t *testing.T) {
	t.Parallel()

	// Point lives in another unit, so this unit never links it.
	src := "/src/b.c"
	syms := ProcessUnit(unit(src,
		function("distance", at(src, 1), "float", ast.Arg{Name: "a", Type: "Point"}),
	), inSrc)
	require.Len(t, syms, 1)
	assert.Empty(t, syms[0].References())
}

func TestEnrichLeavesEnumsAlone(t *testing.T) {
	t.Parallel()

	e := &model.Enum{Decl: model.Decl{Name: "Color"}, Enumerators: []string{"RED"}}
	Enrich([]model.Symbol{e}, Definitions{"Color": {}})
	assert.Empty(t, e.References())
}
