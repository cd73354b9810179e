// Package ast is the declaration tree handed from a parser to the symbol
// graph. Nodes are plain data so tests can build trees without a parser.
package ast

import (
	"path/filepath"
	"strings"
)

// Kind classifies a declaration node.
type Kind int

const (
	Other Kind = iota
	TranslationUnit
	Namespace
	FunctionDecl
	Method
	StructDecl
	ClassDecl
	UnionDecl
	EnumDecl
	EnumConstant
	FieldDecl
	TypedefDecl
	MacroDefinition
	TypeRef
	CompoundStmt
)

var kindNames = [...]string{
	Other:           "other",
	TranslationUnit: "translation_unit",
	Namespace:       "namespace",
	FunctionDecl:    "function_decl",
	Method:          "method",
	StructDecl:      "struct_decl",
	ClassDecl:       "class_decl",
	UnionDecl:       "union_decl",
	EnumDecl:        "enum_decl",
	EnumConstant:    "enum_constant",
	FieldDecl:       "field_decl",
	TypedefDecl:     "typedef_decl",
	MacroDefinition: "macro_definition",
	TypeRef:         "type_ref",
	CompoundStmt:    "compound_stmt",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return Other
}

// IsCallable reports whether k is a function or method.
func (k Kind) IsCallable() bool {
	return k == FunctionDecl || k == Method
}

// IsRecord reports whether k is a struct, class or union.
func (k Kind) IsRecord() bool {
	return k == StructDecl || k == ClassDecl || k == UnionDecl
}

// Location is a 1-based source position.
type Location struct {
	File string
	Line int
}

// Arg is a callable's parameter as spelled in source.
type Arg struct {
	Name string
	Type string
}

// Node is one element of a unit's declaration tree.
type Node struct {
	Kind       Kind
	Name       string
	Loc        Location
	Definition bool
	Children   []*Node

	// Parent is the semantic parent: the record or namespace a declaration
	// belongs to. Nil for top-level declarations.
	Parent *Node

	// Callables only.
	Args       []Arg
	ResultType string
	Body       *Node
	Tokens     []string

	// Field type or typedef underlying type.
	Type string
}

// Add appends children to n and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Unit is one parsed source file.
type Unit struct {
	Path string
	Root *Node
}

// Filter reports whether a file belongs to the target tree.
type Filter func(path string) bool

// UnderDir returns a Filter accepting paths inside base. Paths are compared
// after cleaning so "src" does not match "src2/x.c".
func UnderDir(base string) Filter {
	base = filepath.Clean(base)
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return func(path string) bool {
		path = filepath.Clean(path)
		return path == base || strings.HasPrefix(path, prefix)
	}
}

// Everything accepts every path.
func Everything(string) bool { return true }
