package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "include/geo.h", `#ifndef GEO_H
#define GEO_H
#define MAX_POINTS 64

typedef struct Point {
    float x;
    float y;
} Point;

typedef unsigned int Len;

enum Color { RED, GREEN, BLUE };

float distance(Point a, Point b);
#endif
`)
	writeTestFile(t, dir, "src/geo.c", `#include "../include/geo.h"
#include <stddef.h>

float distance(Point a, Point b) {
    Point d;
    d.x = a.x - b.x;
    d.y = a.y - b.y;
    return d.x * d.x + d.y * d.y;
}

Len count(enum Color c, size_t n) {
    Len total = 0;
    return total;
}
`)
	return dir
}

func runOK(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String(), stderr.String()
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _ := runOK(t, "version")
	assert.Equal(t, "symctx dev\n", out)

	out, _ = runOK(t, "--version")
	assert.Equal(t, "symctx dev\n", out)
}

func TestRunList(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "list")
	assert.True(t, strings.HasPrefix(out, "root: "+filepath.Base(dir)+"\nsymbols["), out)
	assert.Contains(t, out, "struct,Point,include/geo.h,5,")
	assert.Contains(t, out, "typedef,Len,include/geo.h,10,")
	assert.Contains(t, out, "enum,Color,include/geo.h,12,")
	assert.Contains(t, out, "function,distance,src/geo.c,4,")
	assert.Contains(t, out, "function,count,src/geo.c,11,")
}

func TestRunListFilters(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "list", "--kind", "struct")
	assert.Contains(t, out, "struct,Point")
	assert.NotContains(t, out, "function,")

	out, _ = runOK(t, "--dir", dir, "list", "--match", "dist")
	assert.Contains(t, out, "symbols[1]")
	assert.Contains(t, out, "distance")

	out, _ = runOK(t, "--dir", dir, "list", "--top", "1")
	assert.Contains(t, out, "symbols[1]")
	assert.Contains(t, out, "Point")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", dir, "list", "--kind", "macro"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown symbol kind")
}

func TestRunListLexical(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "list", "--strategy", "lexical")
	assert.Contains(t, out, "macro_definition,MAX_POINTS,include/geo.h,3")
	assert.Contains(t, out, "function_decl,distance,src/geo.c,4")
	assert.Contains(t, out, "enum_decl,Color,include/geo.h,12")

	out, _ = runOK(t, "--dir", dir, "list", "-s", "lexical", "--match", "max", "--format", "json")
	var rows []struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "macro_definition", rows[0].Kind)
	assert.Equal(t, "MAX_POINTS", rows[0].Name)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", dir, "list", "-s", "lexical", "--top", "3"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "need the graph strategy")

	err = run([]string{"--dir", dir, "list", "-s", "semantic"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown context strategy")
}

func TestRunListJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "list", "--format", "json", "--kind", "function")
	var rows []struct {
		Kind       string   `json:"kind"`
		Name       string   `json:"name"`
		File       string   `json:"file"`
		References []string `json:"references"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "distance", rows[0].Name)
	assert.Equal(t, "src/geo.c", rows[0].File)
	assert.Equal(t, []string{"Point"}, rows[0].References)
	assert.Equal(t, "count", rows[1].Name)
	assert.ElementsMatch(t, []string{"Len", "Color"}, rows[1].References)
}

func TestRunBaseDir(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "--base", "src", "list")
	assert.Contains(t, out, "symbols[2]")
	assert.Contains(t, out, "function,distance")
	assert.NotContains(t, out, "Point")
}

func TestRunContextGraph(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "context", "distance")
	assert.True(t, strings.HasPrefix(out, "target: distance\nstrategy: graph\nsymbols[2]"), out)
	assert.Contains(t, out, "struct,Point,include/geo.h,5,struct Point")
	assert.Contains(t, out, "fields[2]{record,name,type}:\n  Point,x,float\n  Point,y,float")
	assert.Contains(t, out, "references[1]{from,to}:\n  distance,Point")
}

func TestRunContextLexical(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "context", "--strategy", "lexical", "--format", "json", "count")
	var docs []struct {
		Strategy  string   `json:"strategy"`
		Window    []string `json:"window"`
		Auxiliary []string `json:"auxiliary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "lexical", docs[0].Strategy)
	require.NotEmpty(t, docs[0].Window)
	assert.Equal(t, "Len count(enum Color c, size_t n) {", docs[0].Window[0])
	require.NotEmpty(t, docs[0].Auxiliary)
	assert.True(t, strings.HasPrefix(docs[0].Auxiliary[0], "typedef unsigned int Len;"), docs[0].Auxiliary[0])
}

func TestRunContextLexicalSkipsPrototype(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "context", "--strategy", "lexical", "--format", "json", "distance")
	var docs []struct {
		Window []string `json:"window"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.NotEmpty(t, docs[0].Window)
	assert.Equal(t, "float distance(Point a, Point b) {", docs[0].Window[0])
	assert.Contains(t, docs[0].Window, "    return d.x * d.x + d.y * d.y;")
}

func TestRunContextUnknownNames(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, errOut := runOK(t, "--dir", dir, "context", "nope", "Point")
	assert.Contains(t, out, "target: Point")
	assert.NotContains(t, out, "target: nope")
	assert.Contains(t, errOut, "unknown symbol")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", dir, "context", "nope"}, &stdout, &stderr)
	assert.Error(t, err)

	err = run([]string{"--dir", dir, "context"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no symbol names")

	err = run([]string{"--dir", dir, "context", "--strategy", "semantic", "Point"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown context strategy")
}

func TestRunContextTargets(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	targets := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(targets, []byte("# wanted\ncount\n\nLen\n"), 0o644))

	out, _ := runOK(t, "--dir", dir, "context", "--targets", targets)
	first := strings.Index(out, "target: count")
	second := strings.Index(out, "target: Len")
	require.GreaterOrEqual(t, first, 0, out)
	assert.Greater(t, second, first)
}

func TestRunContextPrompt(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, _ := runOK(t, "--dir", dir, "context", "--format", "prompt", "distance", "Color")
	assert.True(t, strings.HasPrefix(out, "Document `distance` (function).\n"), out)
	assert.Contains(t, out, "struct Point {\n    float x;\n    float y;\n};")
	assert.Contains(t, out, "\n---\n\nDocument `Color` (enum).\n")
	assert.Contains(t, out, "enum Color {\n    RED,\n    GREEN,\n    BLUE,\n};")
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cache := filepath.Join(t.TempDir(), "symctx.db")

	first, _ := runOK(t, "--dir", dir, "--cache", cache, "list")
	assert.FileExists(t, cache)

	second, errOut := runOK(t, "--dir", dir, "--cache", cache, "--log-level", "debug", "list")
	assert.Equal(t, first, second)
	assert.Contains(t, errOut, "using snapshot")

	writeTestFile(t, dir, "src/extra.c", "typedef int Extra;\n")
	third, errOut := runOK(t, "--dir", dir, "--cache", cache, "--log-level", "debug", "list")
	assert.Contains(t, third, "Extra")
	assert.Contains(t, errOut, "rescanning")
}

func TestRunCacheSettingsChanged(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cache := filepath.Join(t.TempDir(), "symctx.db")

	narrow, _ := runOK(t, "--dir", dir, "--cache", cache, "--base", "src", "list")
	assert.NotContains(t, narrow, "Point")

	wide, errOut := runOK(t, "--dir", dir, "--cache", cache, "--log-level", "debug", "list")
	assert.Contains(t, wide, "struct,Point")
	assert.Contains(t, errOut, "scan settings changed")

	again, errOut := runOK(t, "--dir", dir, "--cache", cache, "--log-level", "debug", "list")
	assert.Equal(t, wide, again)
	assert.Contains(t, errOut, "using snapshot")
}

func TestRunMetricsFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	path := filepath.Join(t.TempDir(), "symctx.prom")

	runOK(t, "--dir", dir, "--metrics-file", path, "context", "distance")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "symctx_units_parsed_total 2")
	assert.Contains(t, string(data), `symctx_bundle_size_count{strategy="graph"} 1`)
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "symctx.yaml", "output:\n  format: json\n")

	out, _ := runOK(t, "--dir", dir, "list", "--kind", "enum")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["), out)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", dir, "--config", filepath.Join(dir, "missing.yaml"), "list"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "config file")
}

func TestRunConfigLanguages(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "src/shape.cpp", "struct Shape { int sides; };\n")
	writeTestFile(t, dir, "symctx.yaml", "scan:\n  languages: [c]\n")

	out, _ := runOK(t, "--dir", dir, "list")
	assert.Contains(t, out, "function,distance")
	assert.NotContains(t, out, "Shape")
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", dir, "list"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no C or C++ source files")
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dir", filepath.Join(dir, "src", "geo.c"), "list"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "not a directory")
}
