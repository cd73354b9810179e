// Package parse builds declaration trees from C and C++ sources using
// tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/lang"
)

var (
	// ErrParse marks a unit that produced no tree.
	ErrParse = errors.New("parse failed")
	// ErrUnsupported marks a file with no registered grammar.
	ErrUnsupported = errors.New("unsupported file type")
)

const defaultMaxIncludeDepth = 16

// Parser produces the declaration tree of one source unit.
type Parser interface {
	Parse(ctx context.Context, path string) (*ast.Unit, error)
}

// TreeSitter is a Parser backed by the tree-sitter C and C++ grammars.
// It is not safe for concurrent use; give each goroutine its own.
type TreeSitter struct {
	includeDirs []string
	maxDepth    int
	timeout     time.Duration
	parsers     map[string]*sitter.Parser
}

// Option configures a TreeSitter.
type Option func(*TreeSitter)

// WithIncludeDirs adds directories searched for #include targets.
func WithIncludeDirs(dirs ...string) Option {
	return func(p *TreeSitter) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				p.includeDirs = append(p.includeDirs, abs)
			}
		}
	}
}

// WithMaxIncludeDepth bounds nested include expansion. Zero disables
// include expansion entirely.
func WithMaxIncludeDepth(n int) Option {
	return func(p *TreeSitter) { p.maxDepth = n }
}

// WithTimeout sets a deadline for each unit, headers included.
func WithTimeout(d time.Duration) Option {
	return func(p *TreeSitter) { p.timeout = d }
}

// NewTreeSitter returns a parser configured by opts.
func NewTreeSitter(opts ...Option) *TreeSitter {
	p := &TreeSitter{
		maxDepth: defaultMaxIncludeDepth,
		parsers:  make(map[string]*sitter.Parser),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the underlying tree-sitter parsers.
func (p *TreeSitter) Close() error {
	for name, sp := range p.parsers {
		sp.Close()
		delete(p.parsers, name)
	}
	return nil
}

// Parse reads path and returns its declaration tree. Local includes are
// expanded in place, each header at most once per unit.
func (p *TreeSitter) Parse(ctx context.Context, path string) (*ast.Unit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	root := &ast.Node{Kind: ast.TranslationUnit, Name: abs, Loc: ast.Location{File: abs, Line: 1}}
	b := &builder{p: p, ctx: ctx, seen: map[string]struct{}{abs: {}}}
	if err := b.file(abs, root, 0); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return &ast.Unit{Path: abs, Root: root}, nil
}

func (p *TreeSitter) parserFor(path string) (*sitter.Parser, error) {
	name := lang.ForExtension(filepath.Ext(path))
	if name == "" {
		return nil, ErrUnsupported
	}
	if sp, ok := p.parsers[name]; ok {
		return sp, nil
	}
	sp := lang.Languages[name].NewParser()
	p.parsers[name] = sp
	return sp, nil
}

// builder carries per-unit state across the main file and its headers.
type builder struct {
	p    *TreeSitter
	ctx  context.Context
	seen map[string]struct{}
}

func (b *builder) file(path string, scope *ast.Node, depth int) error {
	sp, err := b.p.parserFor(path)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := sp.ParseCtx(b.ctx, nil, source)
	if err != nil {
		return err
	}
	if tree == nil {
		return errors.New("no tree")
	}
	defer tree.Close()

	c := &converter{b: b, path: path, src: source, depth: depth}
	c.items(tree.RootNode(), scope)
	return nil
}

// include expands a resolved header into scope. Unreadable or unsupported
// headers are skipped; they never fail the including unit.
func (b *builder) include(c *converter, n *sitter.Node, scope *ast.Node) {
	if c.depth >= b.p.maxDepth {
		return
	}
	target := n.ChildByFieldName("path")
	if target == nil {
		return
	}
	spelled := lang.NodeText(target, c.src)
	if len(spelled) < 2 {
		return
	}
	quoted := spelled[0] == '"'
	name := spelled[1 : len(spelled)-1]

	var candidates []string
	if filepath.IsAbs(name) {
		candidates = append(candidates, name)
	} else {
		if quoted {
			candidates = append(candidates, filepath.Join(filepath.Dir(c.path), name))
		}
		for _, dir := range b.p.includeDirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, cand := range candidates {
		cand = filepath.Clean(cand)
		info, err := os.Stat(cand)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, done := b.seen[cand]; done {
			return
		}
		b.seen[cand] = struct{}{}
		_ = b.file(cand, scope, c.depth+1)
		return
	}
}
