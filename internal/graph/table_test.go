package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symctx/internal/model"
)

func fnSym(name, file string) *model.Function {
	return &model.Function{Decl: model.Decl{Name: name, Loc: model.Location{File: file, Line: 1}}}
}

func TestMergeFirstRegisteredWins(t *testing.T) {
	t.Parallel()

	first := fnSym("foo", "/src/a.c")
	second := fnSym("foo", "/src/b.c")

	table, dropped := Merge([]model.Symbol{first}, []model.Symbol{second})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, table.Len())

	got, ok := table.Lookup(model.Key{Kind: model.KindFunction, Name: "foo"})
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.True(t, table.Frozen())
}

func TestTableKeysIncludeKind(t *testing.T) {
	t.Parallel()

	st := &model.Record{Decl: model.Decl{Name: "Point"}, Tag: model.KindStruct}
	td := &model.Typedef{Decl: model.Decl{Name: "Point"}, Underlying: "struct Point"}
	other := &model.Enum{Decl: model.Decl{Name: "Color"}}

	table := NewTable()
	assert.True(t, table.Register(st))
	assert.True(t, table.Register(td))
	assert.True(t, table.Register(other))
	assert.False(t, table.Register(&model.Record{Decl: model.Decl{Name: "Point"}, Tag: model.KindStruct}))

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Point", "Color"}, table.Names())

	resolved, ok := table.Resolve("Point")
	require.True(t, ok)
	assert.Same(t, st, resolved, "earliest registered symbol wins name resolution")

	_, ok = table.Resolve("Missing")
	assert.False(t, ok)

	all := table.Symbols()
	require.Len(t, all, 3)
	assert.Same(t, td, all[1])
}

func TestRegisterAfterFreezePanics(t *testing.T) {
	t.Parallel()

	table, _ := Merge()
	assert.Equal(t, 0, table.Len())
	assert.Panics(t, func() { table.Register(fnSym("late", "/src/x.c")) })
}
