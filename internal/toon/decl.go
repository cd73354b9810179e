package toon

import (
	"fmt"
	"strings"

	"github.com/phobologic/symctx/internal/model"
)

// Signature returns a one-line summary of s.
func Signature(s model.Symbol) string {
	v := &signer{}
	s.Accept(v)
	return v.out
}

type signer struct{ out string }

func (v *signer) VisitFunction(f *model.Function) {
	v.out = fmt.Sprintf("%s %s(%s)", f.ReturnType, f.Name, params(f.Parameters))
	v.out = strings.TrimSpace(v.out)
}

func (v *signer) VisitRecord(r *model.Record) { v.out = string(r.Tag) + " " + r.Name }
func (v *signer) VisitEnum(e *model.Enum) { v.out = "enum " + e.Name }
func (v *signer) VisitTypedef(t *model.Typedef) {
	v.out = "typedef " + t.Underlying + " " + t.Name
}

// Declaration renders s as C-like source text for prompts.
func Declaration(s model.Symbol) string {
	v := &declarer{}
	s.Accept(v)
	return v.b.String()
}

type declarer struct{ b strings.Builder }

func (v *declarer) VisitFunction(f *model.Function) {
	fmt.Fprintf(&v.b, "%s;", Signature(f))
}

func (v *declarer) VisitRecord(r *model.Record) {
	fmt.Fprintf(&v.b, "%s %s {", r.Tag, r.Name)
	for _, p := range r.Fields {
		fmt.Fprintf(&v.b, "\n    %s;", joinDecl(p))
	}
	for _, m := range r.Methods {
		fmt.Fprintf(&v.b, "\n    %s(...);", m)
	}
	v.b.WriteString("\n};")
}

func (v *declarer) VisitEnum(e *model.Enum) {
	fmt.Fprintf(&v.b, "enum %s {", e.Name)
	for _, name := range e.Enumerators {
		fmt.Fprintf(&v.b, "\n    %s,", name)
	}
	v.b.WriteString("\n};")
}

func (v *declarer) VisitTypedef(t *model.Typedef) {
	fmt.Fprintf(&v.b, "typedef %s %s;", t.Underlying, t.Name)
}

func params(ps []model.Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = joinDecl(p)
	}
	return strings.Join(parts, ", ")
}

func joinDecl(p model.Param) string {
	return strings.TrimSpace(p.Type + " " + p.Name)
}
