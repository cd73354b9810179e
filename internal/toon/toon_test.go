package toon

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/provider"
	"github.com/phobologic/symctx/internal/ranking"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"scoped name", "Shape::area", `"Shape::area"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.c", "src/main.c"},
		{"pointer type", "const char *", "const char *"},
		{"signature one param", "float len(Point p)", "float len(Point p)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

func fixtures() (distance *model.Function, point *model.Record, length *model.Typedef) {
	point = &model.Record{
		Decl:   model.Decl{Name: "Point", Loc: model.Location{File: "/repo/src/geo.h", Line: 1}},
		Tag:    model.KindStruct,
		Fields: []model.Param{{Name: "x", Type: "float"}, {Name: "y", Type: "float"}},
	}
	distance = &model.Function{
		Decl:       model.Decl{Name: "distance", Loc: model.Location{File: "/repo/src/geo.c", Line: 5}, TypeReferences: []string{"Point"}},
		ReturnType: "float",
		Parameters: []model.Param{{Name: "a", Type: "Point"}, {Name: "b", Type: "Point"}},
	}
	length = &model.Typedef{
		Decl:       model.Decl{Name: "Len", Loc: model.Location{File: "/usr/include/x.h", Line: 2}},
		Underlying: "int",
	}
	return distance, point, length
}

func lexicalContext() *provider.Context {
	return &provider.Context{
		Target:   "area",
		Strategy: provider.StrategyLexical,
		Lexical: &lexical.Context{
			Entry:     lexical.Entry{Name: "area", Kind: ast.FunctionDecl, File: "/repo/s.c", Line: 2},
			Window:    []string{"int area(Len w) {", "  return w;", "}"},
			Auxiliary: []string{"typedef int Len;"},
		},
	}
}

func TestEncodeSymbols(t *testing.T) {
	t.Parallel()

	distance, point, length := fixtures()
	got := EncodeSymbols("/repo", []ranking.Entry{
		{Symbol: distance, Rank: 0.25},
		{Symbol: point, Rank: 0.5},
		{Symbol: length, Rank: 0.125},
	})

	want := strings.Join([]string{
		"root: repo",
		"symbols[3]{kind,name,file,line,refs,rank}:",
		"  function,distance,src/geo.c,5,1,0.2500",
		"  struct,Point,src/geo.h,1,0,0.5000",
		"  typedef,Len,/usr/include/x.h,2,0,0.1250",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestEncodeSymbolsEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "root: repo\nsymbols[0]{kind,name,file,line,refs,rank}:", EncodeSymbols("/repo", nil))
}

func TestEncodeEntries(t *testing.T) {
	t.Parallel()

	entries := []lexical.Entry{
		{Name: "MAX", Kind: ast.MacroDefinition, File: "/repo/src/geo.h", Line: 3},
		{Name: "area", Kind: ast.FunctionDecl, File: "/repo/src/geo.c", Line: 9, Definition: true},
	}
	got := EncodeEntries("/repo", entries)
	want := "root: repo\nsymbols[2]{kind,name,file,line}:\n  macro_definition,MAX,src/geo.h,3\n  function_decl,area,src/geo.c,9"
	if got != want {
		t.Errorf("EncodeEntries =\n%s\nwant\n%s", got, want)
	}

	data, err := JSONEntries("/repo", entries[:1])
	if err != nil {
		t.Fatalf("JSONEntries: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(rows) != 1 || rows[0]["kind"] != "macro_definition" || rows[0]["file"] != "src/geo.h" {
		t.Errorf("JSONEntries = %s", data)
	}
}

func TestEncodeBundle(t *testing.T) {
	t.Parallel()

	distance, point, _ := fixtures()
	got := EncodeContext("/repo", &provider.Context{
		Target:   "distance",
		Strategy: provider.StrategyGraph,
		Symbols:  []model.Symbol{distance, point},
	})

	want := strings.Join([]string{
		"target: distance",
		"strategy: graph",
		"symbols[2]{kind,name,file,line,signature}:",
		`  function,distance,src/geo.c,5,"float distance(Point a, Point b)"`,
		"  struct,Point,src/geo.h,1,struct Point",
		"parameters[2]{function,name,type}:",
		"  distance,a,Point",
		"  distance,b,Point",
		"fields[2]{record,name,type}:",
		"  Point,x,float",
		"  Point,y,float",
		"references[1]{from,to}:",
		"  distance,Point",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestEncodeBundleEnumAndMethods(t *testing.T) {
	t.Parallel()

	shape := &model.Record{Decl: model.Decl{Name: "Shape"}, Tag: model.KindClass, Fields: []model.Param{}, Methods: []string{"area"}}
	color := &model.Enum{Decl: model.Decl{Name: "Color"}, Enumerators: []string{"RED", "GREEN"}}
	got := EncodeContext("", &provider.Context{Target: "Shape", Strategy: provider.StrategyGraph, Symbols: []model.Symbol{shape, color}})

	assert.Contains(t, got, "methods[1]{record,name}:\n  Shape,area")
	assert.Contains(t, got, "enumerators[2]{enum,name}:\n  Color,RED\n  Color,GREEN")
	assert.Contains(t, got, "references[0]{from,to}:")
	assert.NotContains(t, got, "fields[")
}

func TestEncodeLexical(t *testing.T) {
	t.Parallel()

	want := strings.Join([]string{
		"target: area",
		"strategy: lexical",
		"kind: function_decl",
		"file: s.c",
		"line: 2",
		"auxiliary: 1",
		`context: "typedef int Len;\nint area(Len w) {\n  return w;\n}"`,
	}, "\n")
	assert.Equal(t, want, EncodeContext("/repo", lexicalContext()))
}

func TestDeclaration(t *testing.T) {
	t.Parallel()

	distance, point, length := fixtures()
	color := &model.Enum{Decl: model.Decl{Name: "Color"}, Enumerators: []string{"RED", "GREEN"}}

	assert.Equal(t, "float distance(Point a, Point b);", Declaration(distance))
	assert.Equal(t, "struct Point {\n    float x;\n    float y;\n};", Declaration(point))
	assert.Equal(t, "enum Color {\n    RED,\n    GREEN,\n};", Declaration(color))
	assert.Equal(t, "typedef int Len;", Declaration(length))
	assert.Equal(t, "typedef int Len", Signature(length))
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	distance, point, length := fixtures()

	got := Prompt(&provider.Context{Target: "distance", Strategy: provider.StrategyGraph, Symbols: []model.Symbol{distance, point}})
	want := "Document `distance` (function).\n" + promptFunction +
		"\nBase the description only on the source below.\n\n```c\n" +
		"float distance(Point a, Point b);\n\nstruct Point {\n    float x;\n    float y;\n};\n```\n"
	assert.Equal(t, want, got)

	got = Prompt(&provider.Context{Target: "Point", Strategy: provider.StrategyGraph, Symbols: []model.Symbol{point}})
	assert.Contains(t, got, "Document this struct:")

	got = Prompt(&provider.Context{Target: "Len", Strategy: provider.StrategyGraph, Symbols: []model.Symbol{length}})
	assert.Contains(t, got, promptTypedef)

	lc := lexicalContext()
	lc.Lexical.Entry.Kind = ast.MacroDefinition
	got = Prompt(lc)
	assert.Contains(t, got, "(macro)")
	assert.Contains(t, got, promptMacro)
	assert.Contains(t, got, "typedef int Len;\nint area(Len w) {")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	distance, point, _ := fixtures()

	data, err := JSONSymbols("/repo", []ranking.Entry{{Symbol: point, Rank: 0.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"kind":"struct","name":"Point","file":"src/geo.h","line":1,"references":[],"rank":0.5}]`, string(data))

	data, err = JSONContexts([]*provider.Context{
		{Target: "distance", Strategy: provider.StrategyGraph, Symbols: []model.Symbol{distance, point}},
		lexicalContext(),
	})
	require.NoError(t, err)

	var docs []struct {
		Target   string           `json:"target"`
		Strategy string           `json:"strategy"`
		Symbols  []model.Envelope `json:"symbols"`
		Entry    *lexical.Entry   `json:"entry"`
		Text     string           `json:"text"`
	}
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 2)

	assert.Equal(t, "graph", docs[0].Strategy)
	require.Len(t, docs[0].Symbols, 2)
	assert.Equal(t, distance, docs[0].Symbols[0].Symbol)
	assert.Nil(t, docs[0].Entry)

	assert.Equal(t, "lexical", docs[1].Strategy)
	require.NotNil(t, docs[1].Entry)
	assert.Equal(t, ast.FunctionDecl, docs[1].Entry.Kind)
	assert.Equal(t, "typedef int Len;\nint area(Len w) {\n  return w;\n}", docs[1].Text)
}
