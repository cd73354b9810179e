package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/lang"
)

var recordKinds = map[string]ast.Kind{
	"struct_specifier": ast.StructDecl,
	"union_specifier":  ast.UnionDecl,
	"class_specifier":  ast.ClassDecl,
	"enum_specifier":   ast.EnumDecl,
}

// Containers whose children belong to the enclosing scope.
var transparent = map[string]struct{}{
	"preproc_ifdef":         {},
	"preproc_if":            {},
	"preproc_else":          {},
	"preproc_elif":          {},
	"preproc_elifdef":       {},
	"declaration_list":      {},
	"template_declaration":  {},
	"linkage_specification": {},
}

var declaratorTypes = map[string]struct{}{
	"identifier":               {},
	"field_identifier":         {},
	"type_identifier":          {},
	"qualified_identifier":     {},
	"destructor_name":          {},
	"operator_name":            {},
	"pointer_declarator":       {},
	"reference_declarator":     {},
	"array_declarator":         {},
	"function_declarator":      {},
	"parenthesized_declarator": {},
	"init_declarator":          {},
	"attributed_declarator":    {},
}

var nameTypes = map[string]struct{}{
	"identifier":       {},
	"field_identifier": {},
	"type_identifier":  {},
	"destructor_name":  {},
	"operator_name":    {},
}

// Literals kept whole in a body token stream.
var atomicTokens = map[string]struct{}{
	"string_literal":     {},
	"raw_string_literal": {},
	"char_literal":       {},
	"number_literal":     {},
	"system_lib_string":  {},
}

// converter lifts declarations out of one file's syntax tree.
type converter struct {
	b     *builder
	path  string
	src   []byte
	depth int
}

func (c *converter) loc(n *sitter.Node) ast.Location {
	return ast.Location{File: c.path, Line: int(n.StartPoint().Row) + 1}
}

func (c *converter) text(n *sitter.Node) string {
	return lang.NodeText(n, c.src)
}

func (c *converter) items(n *sitter.Node, scope *ast.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.item(n.NamedChild(i), scope)
	}
}

func (c *converter) item(n *sitter.Node, scope *ast.Node) {
	typ := n.Type()
	if _, ok := transparent[typ]; ok {
		c.items(n, scope)
		return
	}
	if _, ok := recordKinds[typ]; ok {
		c.specifier(n, scope, "")
		return
	}

	switch typ {
	case "function_definition":
		c.function(n, scope)
	case "declaration", "field_declaration":
		c.declaration(n, scope)
	case "type_definition":
		c.typedef(n, scope)
	case "alias_declaration":
		c.alias(n, scope)
	case "namespace_definition":
		ns := &ast.Node{Kind: ast.Namespace, Loc: c.loc(n), Parent: semanticParent(scope)}
		if name := n.ChildByFieldName("name"); name != nil {
			ns.Name = c.text(name)
			ns.Loc = c.loc(name)
		}
		scope.Add(ns)
		if body := n.ChildByFieldName("body"); body != nil {
			c.items(body, ns)
		}
	case "preproc_def", "preproc_function_def":
		if name := n.ChildByFieldName("name"); name != nil {
			scope.Add(&ast.Node{
				Kind:       ast.MacroDefinition,
				Name:       c.text(name),
				Loc:        c.loc(name),
				Definition: true,
			})
		}
	case "preproc_include":
		c.b.include(c, n, scope)
	}
}

// semanticParent returns scope when declarations inside it are qualified
// by its name.
func semanticParent(scope *ast.Node) *ast.Node {
	if scope.Kind.IsRecord() || scope.Kind == ast.Namespace {
		return scope
	}
	return nil
}

// specifier handles a struct/union/class/enum specifier. Named bodies and
// standalone forward declarations become nodes; bodiless specifiers used as
// a type are only references and yield nil.
func (c *converter) specifier(n *sitter.Node, scope *ast.Node, fallback string) *ast.Node {
	kind := recordKinds[n.Type()]
	body := n.ChildByFieldName("body")
	nameNode := n.ChildByFieldName("name")

	name := fallback
	loc := c.loc(n)
	if nameNode != nil {
		name = c.text(nameNode)
		loc = c.loc(nameNode)
	}
	if name == "" {
		return nil
	}

	node := &ast.Node{
		Kind:       kind,
		Name:       name,
		Loc:        loc,
		Definition: body != nil,
		Parent:     semanticParent(scope),
	}
	scope.Add(node)
	if body == nil {
		return node
	}

	if kind == ast.EnumDecl {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			e := body.NamedChild(i)
			if e.Type() != "enumerator" {
				continue
			}
			if en := e.ChildByFieldName("name"); en != nil {
				node.Add(&ast.Node{Kind: ast.EnumConstant, Name: c.text(en), Loc: c.loc(en), Parent: node})
			}
		}
		return node
	}
	c.items(body, node)
	return node
}

// baseType spells the type specifier of a declaration together with its
// cv-qualifiers. Record and enum specifiers are spelled by keyword and name.
func (c *converter) baseType(n *sitter.Node) string {
	var quals []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() == "type_qualifier" {
			quals = append(quals, c.text(ch))
		}
	}

	var base string
	if t := n.ChildByFieldName("type"); t != nil {
		if _, ok := recordKinds[t.Type()]; ok {
			base = keyword(t.Type())
			if name := t.ChildByFieldName("name"); name != nil {
				base += " " + c.text(name)
			}
		} else {
			base = lang.CollapseWhitespace(c.text(t))
		}
	}
	return strings.TrimSpace(strings.Join(append(quals, base), " "))
}

func keyword(specifierType string) string {
	return strings.TrimSuffix(specifierType, "_specifier")
}

// declarators returns the declarator children following the type
// specifier, stopping at an initializer.
func (c *converter) declarators(n *sitter.Node) []*sitter.Node {
	var after uint32
	if t := n.ChildByFieldName("type"); t != nil {
		after = t.EndByte()
	}
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.Type() == "=" {
			break
		}
		if !ch.IsNamed() || ch.StartByte() < after {
			continue
		}
		if _, ok := declaratorTypes[ch.Type()]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// declaratorName finds the declared name inside a declarator chain.
func declaratorName(d *sitter.Node) *sitter.Node {
	if d == nil {
		return nil
	}
	if _, ok := nameTypes[d.Type()]; ok {
		return d
	}
	if d.Type() == "qualified_identifier" {
		return d
	}
	if inner := d.ChildByFieldName("declarator"); inner != nil {
		return declaratorName(inner)
	}
	for i := 0; i < int(d.NamedChildCount()); i++ {
		if name := declaratorName(d.NamedChild(i)); name != nil {
			return name
		}
	}
	return nil
}

// functionDeclarator returns the function_declarator in a declarator
// chain, or nil.
func functionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator",
			"attributed_declarator", "init_declarator":
			inner := d.ChildByFieldName("declarator")
			if inner == nil {
				inner = lastNamed(d)
			}
			d = inner
		default:
			return nil
		}
	}
	return nil
}

// isFunctionPointer reports whether fd declares a pointer to function,
// as in `int (*cb)(int)`, rather than a function.
func isFunctionPointer(fd *sitter.Node) bool {
	inner := fd.ChildByFieldName("declarator")
	return inner != nil && inner.Type() == "parenthesized_declarator"
}

func lastNamed(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}

// spellWithout joins base with the text of outer minus the inner span,
// yielding "Point *" for base "Point" and declarator "*p".
func (c *converter) spellWithout(base string, outer, inner *sitter.Node) string {
	if outer == nil {
		return base
	}
	if outer.Type() == "init_declarator" {
		if d := outer.ChildByFieldName("declarator"); d != nil {
			outer = d
		}
	}
	var rest string
	if inner == nil {
		rest = c.text(outer)
	} else {
		rest = string(c.src[outer.StartByte():inner.StartByte()]) + string(c.src[inner.EndByte():outer.EndByte()])
	}
	return lang.CollapseWhitespace(base + " " + rest)
}

// splitQualified returns the bare name and the innermost scope of a
// possibly qualified name node.
func (c *converter) splitQualified(n *sitter.Node) (name, owner string, at *sitter.Node) {
	for n != nil && n.Type() == "qualified_identifier" {
		if scope := n.ChildByFieldName("scope"); scope != nil {
			owner = c.text(scope)
			if i := strings.LastIndex(owner, "::"); i >= 0 {
				owner = owner[i+2:]
			}
			if i := strings.IndexByte(owner, '<'); i >= 0 {
				owner = owner[:i]
			}
		}
		n = n.ChildByFieldName("name")
	}
	if n == nil {
		return "", owner, nil
	}
	return c.text(n), owner, n
}

// callable builds a function node from a function_declarator.
func (c *converter) callable(decl, outer, fd *sitter.Node, scope *ast.Node, body *sitter.Node) *ast.Node {
	name, owner, at := c.splitQualified(declaratorName(fd.ChildByFieldName("declarator")))
	if name == "" {
		return nil
	}
	node := &ast.Node{
		Kind:       ast.FunctionDecl,
		Name:       name,
		Loc:        c.loc(at),
		Definition: body != nil,
		Parent:     semanticParent(scope),
		ResultType: c.spellWithout(c.baseType(decl), outer, fd),
	}
	if scope.Kind.IsRecord() {
		node.Kind = ast.Method
	} else if owner != "" {
		node.Parent = &ast.Node{Kind: ast.Other, Name: owner}
	}
	node.Args = c.params(fd.ChildByFieldName("parameters"))
	if body != nil {
		node.Body, node.Tokens = c.body(body)
	}
	return node
}

func (c *converter) function(n *sitter.Node, scope *ast.Node) {
	outer := n.ChildByFieldName("declarator")
	fd := functionDeclarator(outer)
	if fd == nil {
		return
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if node := c.callable(n, outer, fd, scope, body); node != nil {
		scope.Add(node)
	}
}

func (c *converter) params(list *sitter.Node) []ast.Arg {
	if list == nil {
		return nil
	}
	var args []ast.Arg
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			d := p.ChildByFieldName("declarator")
			base := c.baseType(p)
			if d == nil && base == "void" {
				continue
			}
			var name string
			nameNode := declaratorName(d)
			if nameNode != nil {
				name = c.text(nameNode)
			}
			args = append(args, ast.Arg{Name: name, Type: c.spellWithout(base, d, nameNode)})
		case "variadic_parameter", "variadic_parameter_declaration":
			args = append(args, ast.Arg{Type: "..."})
		}
	}
	return args
}

// body collects the type references and token stream of a compound body.
func (c *converter) body(n *sitter.Node) (*ast.Node, []string) {
	stmt := &ast.Node{Kind: ast.CompoundStmt, Loc: c.loc(n), Definition: true}
	var tokens []string
	var walk func(*sitter.Node)
	walk = func(x *sitter.Node) {
		typ := x.Type()
		if typ == "comment" {
			return
		}
		if typ == "type_identifier" {
			stmt.Add(&ast.Node{Kind: ast.TypeRef, Name: c.text(x), Loc: c.loc(x)})
		}
		if _, ok := atomicTokens[typ]; ok || x.ChildCount() == 0 {
			if tok := c.text(x); tok != "" {
				tokens = append(tokens, tok)
			}
			return
		}
		for i := 0; i < int(x.ChildCount()); i++ {
			walk(x.Child(i))
		}
	}
	walk(n)
	return stmt, tokens
}

// declaration handles declaration and field_declaration: prototypes,
// fields, records defined inline, and forward declarations.
func (c *converter) declaration(n *sitter.Node, scope *ast.Node) {
	decls := c.declarators(n)

	if t := n.ChildByFieldName("type"); t != nil {
		if _, ok := recordKinds[t.Type()]; ok && (t.ChildByFieldName("body") != nil || len(decls) == 0) {
			c.specifier(t, scope, "")
		}
	}

	base := c.baseType(n)
	for _, d := range decls {
		if fd := functionDeclarator(d); fd != nil && !isFunctionPointer(fd) {
			if node := c.callable(n, d, fd, scope, nil); node != nil {
				scope.Add(node)
			}
			continue
		}
		if n.Type() != "field_declaration" || !scope.Kind.IsRecord() {
			continue
		}
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}
		scope.Add(&ast.Node{
			Kind:   ast.FieldDecl,
			Name:   c.text(nameNode),
			Loc:    c.loc(nameNode),
			Type:   c.spellWithout(base, d, nameNode),
			Parent: scope,
		})
	}
}

func (c *converter) typedef(n *sitter.Node, scope *ast.Node) {
	decls := c.declarators(n)
	if len(decls) == 0 {
		return
	}

	if t := n.ChildByFieldName("type"); t != nil {
		if _, ok := recordKinds[t.Type()]; ok && t.ChildByFieldName("body") != nil {
			var fallback string
			if first := declaratorName(decls[0]); first != nil {
				fallback = c.text(first)
			}
			c.specifier(t, scope, fallback)
		}
	}

	base := c.baseType(n)
	if t := n.ChildByFieldName("type"); t != nil {
		if _, ok := recordKinds[t.Type()]; ok && t.ChildByFieldName("name") == nil {
			if first := declaratorName(decls[0]); first != nil {
				base += " " + c.text(first)
			}
		}
	}

	for _, d := range decls {
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}
		scope.Add(&ast.Node{
			Kind:       ast.TypedefDecl,
			Name:       c.text(nameNode),
			Loc:        c.loc(nameNode),
			Definition: true,
			Type:       c.spellWithout(base, d, nameNode),
			Parent:     semanticParent(scope),
		})
	}
}

// alias handles C++ `using Name = Type;`.
func (c *converter) alias(n *sitter.Node, scope *ast.Node) {
	name := n.ChildByFieldName("name")
	typ := n.ChildByFieldName("type")
	if name == nil || typ == nil {
		return
	}
	scope.Add(&ast.Node{
		Kind:       ast.TypedefDecl,
		Name:       c.text(name),
		Loc:        c.loc(name),
		Definition: true,
		Type:       lang.CollapseWhitespace(c.text(typ)),
		Parent:     semanticParent(scope),
	})
}
