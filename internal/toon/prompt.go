package toon

import (
	"fmt"
	"strings"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/provider"
)

const (
	promptFunction = "Document this function: its purpose, each parameter with its type and valid range, the return value, error conditions and side effects."
	promptRecord   = "Document this %s: its purpose and each field with its type and meaning. Note invariants that hold between fields."
	promptTypedef  = "Document this typedef: what it abstracts, its underlying type and how it is typically used."
	promptEnum     = "Document this enum: what it represents and the meaning of each enumerator."
	promptMacro    = "Document this macro: its replacement value and how it is meant to be used."
	promptOther    = "Document this symbol according to its kind."
)

// Prompt renders c as a documentation request. The instruction depends on
// the kind of the target.
func Prompt(c *provider.Context) string {
	kind, instruction := describe(c)

	var b strings.Builder
	fmt.Fprintf(&b, "Document `%s` (%s).\n", c.Target, kind)
	b.WriteString(instruction)
	b.WriteString("\nBase the description only on the source below.\n\n```c\n")
	if c.Lexical != nil {
		b.WriteString(c.Text())
	} else {
		decls := make([]string, len(c.Symbols))
		for i, s := range c.Symbols {
			decls[i] = Declaration(s)
		}
		b.WriteString(strings.Join(decls, "\n\n"))
	}
	b.WriteString("\n```\n")
	return b.String()
}

func describe(c *provider.Context) (string, string) {
	if c.Lexical != nil {
		switch c.Lexical.Entry.Kind {
		case ast.FunctionDecl:
			return "function", promptFunction
		case ast.StructDecl:
			return "struct", fmt.Sprintf(promptRecord, "struct")
		case ast.TypedefDecl:
			return "typedef", promptTypedef
		case ast.EnumDecl:
			return "enum", promptEnum
		case ast.MacroDefinition:
			return "macro", promptMacro
		}
		return c.Lexical.Entry.Kind.String(), promptOther
	}
	if len(c.Symbols) == 0 {
		return "unknown", promptOther
	}
	switch k := c.Symbols[0].Kind(); k {
	case model.KindFunction:
		return string(k), promptFunction
	case model.KindStruct, model.KindClass, model.KindUnion:
		return string(k), fmt.Sprintf(promptRecord, k)
	case model.KindTypedef:
		return string(k), promptTypedef
	case model.KindEnum:
		return string(k), promptEnum
	default:
		return string(k), promptOther
	}
}
