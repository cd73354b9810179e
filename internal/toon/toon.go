// Package toon renders symbol listings and context as TOON
// (Token-Oriented Object Notation), JSON or documentation prompts.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/provider"
	"github.com/phobologic/symctx/internal/ranking"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeSymbols renders a symbol listing. File paths are shown relative
// to root when they fall inside it.
func EncodeSymbols(root string, entries []ranking.Entry) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(filepath.Base(root))))

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		loc := e.Symbol.Location()
		rows = append(rows, []string{
			string(e.Symbol.Kind()),
			e.Symbol.QualifiedName(),
			relPath(root, loc.File),
			fmt.Sprintf("%d", loc.Line),
			fmt.Sprintf("%d", len(e.Symbol.References())),
			fmt.Sprintf("%.4f", e.Rank),
		})
	}
	parts = append(parts, formatTabular("symbols", []string{"kind", "name", "file", "line", "refs", "rank"}, rows))
	return strings.Join(parts, "\n")
}

// EncodeEntries renders a listing of lexical cache entries.
func EncodeEntries(root string, entries []lexical.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Kind.String(),
			e.Name,
			relPath(root, e.File),
			fmt.Sprintf("%d", e.Line),
		})
	}
	return strings.Join([]string{
		fmt.Sprintf("root: %s", encodeValue(filepath.Base(root))),
		formatTabular("symbols", []string{"kind", "name", "file", "line"}, rows),
	}, "\n")
}

// EncodeContext renders a graph bundle or a lexical context.
func EncodeContext(root string, c *provider.Context) string {
	if c.Lexical != nil {
		return encodeLexical(root, c)
	}
	return encodeBundle(root, c)
}

func encodeBundle(root string, c *provider.Context) string {
	t := &tables{}
	var symRows [][]string
	for _, s := range c.Symbols {
		loc := s.Location()
		symRows = append(symRows, []string{
			string(s.Kind()),
			s.QualifiedName(),
			relPath(root, loc.File),
			fmt.Sprintf("%d", loc.Line),
			Signature(s),
		})
		for _, ref := range s.References() {
			t.refs = append(t.refs, []string{s.QualifiedName(), ref})
		}
		s.Accept(t)
	}

	parts := []string{
		fmt.Sprintf("target: %s", encodeValue(c.Target)),
		fmt.Sprintf("strategy: %s", c.Strategy),
		formatTabular("symbols", []string{"kind", "name", "file", "line", "signature"}, symRows),
	}
	if len(t.params) > 0 {
		parts = append(parts, formatTabular("parameters", []string{"function", "name", "type"}, t.params))
	}
	if len(t.fields) > 0 {
		parts = append(parts, formatTabular("fields", []string{"record", "name", "type"}, t.fields))
	}
	if len(t.methods) > 0 {
		parts = append(parts, formatTabular("methods", []string{"record", "name"}, t.methods))
	}
	if len(t.enumerators) > 0 {
		parts = append(parts, formatTabular("enumerators", []string{"enum", "name"}, t.enumerators))
	}
	parts = append(parts, formatTabular("references", []string{"from", "to"}, t.refs))
	return strings.Join(parts, "\n")
}

// tables collects the per-kind detail rows of a bundle.
type tables struct {
	params, fields, methods, enumerators, refs [][]string
}

func (t *tables) VisitFunction(f *model.Function) {
	for _, p := range f.Parameters {
		t.params = append(t.params, []string{f.Name, p.Name, p.Type})
	}
}

func (t *tables) VisitRecord(r *model.Record) {
	for _, p := range r.Fields {
		t.fields = append(t.fields, []string{r.Name, p.Name, p.Type})
	}
	for _, m := range r.Methods {
		t.methods = append(t.methods, []string{r.Name, m})
	}
}

func (t *tables) VisitEnum(e *model.Enum) {
	for _, name := range e.Enumerators {
		t.enumerators = append(t.enumerators, []string{e.Name, name})
	}
}

func (t *tables) VisitTypedef(*model.Typedef) {}

func encodeLexical(root string, c *provider.Context) string {
	e := c.Lexical.Entry
	return strings.Join([]string{
		fmt.Sprintf("target: %s", encodeValue(c.Target)),
		fmt.Sprintf("strategy: %s", c.Strategy),
		fmt.Sprintf("kind: %s", e.Kind),
		fmt.Sprintf("file: %s", encodeValue(relPath(root, e.File))),
		fmt.Sprintf("line: %d", e.Line),
		fmt.Sprintf("auxiliary: %d", len(c.Lexical.Auxiliary)),
		fmt.Sprintf("context: %s", encodeValue(c.Text())),
	}, "\n")
}

// relPath returns path relative to root, or path itself when it lies
// outside root.
func relPath(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
