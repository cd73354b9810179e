// Package provider puts the graph and lexical context strategies behind a
// single interface.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/symctx/internal/graph"
	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/model"
)

var (
	// ErrUnknownSymbol is returned for names the provider has no entry for.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUnknownStrategy is returned by New for an unrecognized strategy.
	ErrUnknownStrategy = errors.New("unknown context strategy")
)

// Strategy names a context provider.
type Strategy string

const (
	StrategyGraph   Strategy = "graph"
	StrategyLexical Strategy = "lexical"
)

// Strategies lists the accepted strategy names.
func Strategies() []Strategy {
	return []Strategy{StrategyGraph, StrategyLexical}
}

// Context is the context assembled for one target name. Graph providers
// fill Symbols; lexical providers fill Lexical.
type Context struct {
	Target   string
	Strategy Strategy
	Symbols  []model.Symbol
	Lexical  *lexical.Context
}

// Size is the number of entries in the context: bundle symbols, or the
// primary window plus auxiliary snippets.
func (c *Context) Size() int {
	if c.Lexical != nil {
		return 1 + len(c.Lexical.Auxiliary)
	}
	return len(c.Symbols)
}

// Text renders a lexical context as source text. Graph contexts have no
// source text and return "".
func (c *Context) Text() string {
	if c.Lexical == nil {
		return ""
	}
	return c.Lexical.Text()
}

// Provider assembles context for a symbol name.
type Provider interface {
	Context(ctx context.Context, name string) (*Context, error)
	// Names lists the names Context accepts, in discovery order.
	Names() []string
}

// Option configures a provider.
type Option func(*options)

type options struct {
	observe func(size int)
}

// WithSizeObserver registers fn to be called with the size of every
// assembled context.
func WithSizeObserver(fn func(size int)) Option {
	return func(o *options) { o.observe = fn }
}

func newOptions(opts []Option) options {
	o := options{observe: func(int) {}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Graph serves one-hop context bundles from a merged symbol table.
type Graph struct {
	table *graph.Table
	opts  options
}

// NewGraph returns a provider over t.
func NewGraph(t *graph.Table, opts ...Option) *Graph {
	return &Graph{table: t, opts: newOptions(opts)}
}

// Context resolves name in the table and assembles its bundle.
func (g *Graph) Context(ctx context.Context, name string) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym, ok := g.table.Resolve(strings.TrimSpace(name))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	out := &Context{Target: name, Strategy: StrategyGraph, Symbols: graph.Assemble(sym, g.table)}
	g.opts.observe(out.Size())
	return out, nil
}

// Names returns every qualified name in the table.
func (g *Graph) Names() []string { return g.table.Names() }

// Lexical serves source windows from a lexical cache.
type Lexical struct {
	cache     *lexical.Cache
	assembler *lexical.Assembler
	opts      options
}

// NewLexical returns a provider answering from cache through a.
func NewLexical(cache *lexical.Cache, a *lexical.Assembler, opts ...Option) *Lexical {
	return &Lexical{cache: cache, assembler: a, opts: newOptions(opts)}
}

// Context reads the source window for name.
func (l *Lexical) Context(ctx context.Context, name string) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	lc, err := l.assembler.Context(name)
	if errors.Is(err, lexical.ErrUnknownSymbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	if err != nil {
		return nil, err
	}
	out := &Context{Target: name, Strategy: StrategyLexical, Lexical: lc}
	l.opts.observe(out.Size())
	return out, nil
}

// Names returns every name in the lexical cache.
func (l *Lexical) Names() []string { return l.cache.Names() }

// New returns the provider for strategy. The graph strategy needs t; the
// lexical strategy needs cache and a.
func New(strategy string, t *graph.Table, cache *lexical.Cache, a *lexical.Assembler, opts ...Option) (Provider, error) {
	switch Strategy(strategy) {
	case StrategyGraph:
		if t == nil {
			return nil, errors.New("graph strategy: no symbol table")
		}
		return NewGraph(t, opts...), nil
	case StrategyLexical:
		if cache == nil || a == nil {
			return nil, errors.New("lexical strategy: no lexical cache")
		}
		return NewLexical(cache, a, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
