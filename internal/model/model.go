// Package model defines the symbol types shared across symctx.
package model

import (
	"encoding/json"
	"fmt"
)

// Kind is the declaration kind of a Symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindStruct   Kind = "struct"
	KindClass    Kind = "class"
	KindUnion    Kind = "union"
	KindEnum     Kind = "enum"
	KindTypedef  Kind = "typedef"
)

// Kinds lists every symbol kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindFunction, KindStruct, KindClass, KindUnion, KindEnum, KindTypedef}
}

// ParseKind returns the Kind named s, or false if s is not a symbol kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Location is a 1-based source position.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Key identifies a symbol in the merged table.
type Key struct {
	Kind Kind
	Name string
}

func (k Key) String() string {
	return string(k.Kind) + " " + k.Name
}

// Symbol is a declaration collected from source. The concrete types are
// *Function, *Record, *Enum and *Typedef; the set is closed.
type Symbol interface {
	Kind() Kind
	QualifiedName() string
	Location() Location
	References() []string
	SetReferences(refs []string)
	Accept(v Visitor)
	decl() *Decl
}

// Visitor dispatches on the concrete symbol type. Adding a kind adds a
// method here, which breaks every implementation until it handles it.
type Visitor interface {
	VisitFunction(f *Function)
	VisitRecord(r *Record)
	VisitEnum(e *Enum)
	VisitTypedef(t *Typedef)
}

// KeyOf returns the table key of s.
func KeyOf(s Symbol) Key {
	return Key{Kind: s.Kind(), Name: s.QualifiedName()}
}

// Decl holds the attributes common to every symbol kind.
type Decl struct {
	Name           string   `json:"name"`
	Loc            Location `json:"location"`
	TypeReferences []string `json:"type_references,omitempty"`
}

func (d *Decl) QualifiedName() string { return d.Name }
func (d *Decl) Location() Location { return d.Loc }
func (d *Decl) References() []string { return d.TypeReferences }
func (d *Decl) SetReferences(refs []string) { d.TypeReferences = refs }
func (d *Decl) decl() *Decl { return d }

// Param is a named, typed slot: a function parameter or a record field.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Function is a function or method definition.
type Function struct {
	Decl
	ReturnType string  `json:"return_type"`
	Parameters []Param `json:"parameters"`
	BodyText   string  `json:"body_text,omitempty"`
}

func (f *Function) Kind() Kind { return KindFunction }
func (f *Function) Accept(v Visitor) { v.VisitFunction(f) }

// Owner returns the qualifier of a method name ("Shape" for "Shape::area"),
// or "" for free functions.
func (f *Function) Owner() string {
	for i := len(f.Name) - 2; i > 0; i-- {
		if f.Name[i] == ':' && f.Name[i+1] == ':' {
			return f.Name[:i]
		}
	}
	return ""
}

// Record is a struct, class or union.
type Record struct {
	Decl
	Tag     Kind     `json:"-"`
	Fields  []Param  `json:"fields"`
	Methods []string `json:"methods,omitempty"`
}

func (r *Record) Kind() Kind { return r.Tag }
func (r *Record) Accept(v Visitor) { v.VisitRecord(r) }

// Enum is an enumeration with its enumerator names in declaration order.
type Enum struct {
	Decl
	Enumerators []string `json:"enumerators"`
}

func (e *Enum) Kind() Kind { return KindEnum }
func (e *Enum) Accept(v Visitor) { v.VisitEnum(e) }

// Typedef is a typedef or alias declaration.
type Typedef struct {
	Decl
	Underlying string `json:"underlying"`
}

func (t *Typedef) Kind() Kind { return KindTypedef }
func (t *Typedef) Accept(v Visitor) { v.VisitTypedef(t) }

// Envelope pairs a symbol with its kind for serialization.
type Envelope struct {
	Kind   Kind   `json:"kind"`
	Symbol Symbol `json:"symbol"`
}

// Wrap returns the serializable envelope of s.
func Wrap(s Symbol) Envelope {
	return Envelope{Kind: s.Kind(), Symbol: s}
}

// UnmarshalJSON decodes the symbol into the concrete type named by kind.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind   Kind            `json:"kind"`
		Symbol json.RawMessage `json:"symbol"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var sym Symbol
	switch raw.Kind {
	case KindFunction:
		sym = &Function{}
	case KindStruct, KindClass, KindUnion:
		sym = &Record{Tag: raw.Kind}
	case KindEnum:
		sym = &Enum{}
	case KindTypedef:
		sym = &Typedef{}
	default:
		return fmt.Errorf("unknown symbol kind %q", raw.Kind)
	}
	if err := json.Unmarshal(raw.Symbol, sym); err != nil {
		return fmt.Errorf("decoding %s symbol: %w", raw.Kind, err)
	}
	e.Kind = raw.Kind
	e.Symbol = sym
	return nil
}
