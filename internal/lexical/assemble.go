package lexical

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownSymbol is returned for names that are not in the cache.
var ErrUnknownSymbol = errors.New("unknown symbol")

const (
	defaultWindow  = 10
	defaultSnippet = 5
)

var wordRe = regexp.MustCompile(`\b\w+\b`)

// Assembler produces the lexical context of a cached symbol.
type Assembler struct {
	cache   *Cache
	lines   LineSource
	window  int
	snippet int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWindow sets how many lines after the declaration line the primary
// window spans.
func WithWindow(n int) Option {
	return func(a *Assembler) {
		if n >= 0 {
			a.window = n
		}
	}
}

// WithSnippet sets the length of auxiliary definition snippets.
func WithSnippet(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.snippet = n
		}
	}
}

// NewAssembler returns an Assembler reading files through lines.
func NewAssembler(cache *Cache, lines LineSource, opts ...Option) *Assembler {
	a := &Assembler{cache: cache, lines: lines, window: defaultWindow, snippet: defaultSnippet}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Context is the result of a lexical assembly.
type Context struct {
	Entry Entry
	// Window is the primary source window, starting at the declaration line.
	Window []string
	// Auxiliary holds typedef, enum and macro snippets for names that occur
	// in the window, in order of first occurrence.
	Auxiliary []string
}

// Text joins the auxiliary snippets and the primary window.
func (c *Context) Text() string {
	parts := append(append([]string(nil), c.Auxiliary...), strings.TrimSpace(strings.Join(c.Window, "\n")))
	return strings.Join(parts, "\n")
}

// Assemble returns the lexical context text for name.
func (a *Assembler) Assemble(name string) (string, error) {
	ctx, err := a.Context(name)
	if err != nil {
		return "", err
	}
	return ctx.Text(), nil
}

// Context reads the window for name and collects auxiliary snippets.
// Auxiliary files that cannot be read are skipped.
func (a *Assembler) Context(name string) (*Context, error) {
	entry, ok := a.cache.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	lines, err := a.lines.Lines(entry.File)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry.File, err)
	}

	out := &Context{Entry: entry, Window: span(lines, entry.Line-1, entry.Line+a.window)}
	seen := make(map[string]struct{})
	for _, line := range out.Window {
		for _, tok := range wordRe.FindAllString(line, -1) {
			ref, ok := a.cache.Lookup(tok)
			if !ok {
				continue
			}
			if _, aux := auxiliaryKinds[ref.Kind]; !aux {
				continue
			}
			src, err := a.lines.Lines(ref.File)
			if err != nil {
				continue
			}
			text := strings.TrimSpace(strings.Join(span(src, ref.Line-1, ref.Line-1+a.snippet), "\n"))
			if _, dup := seen[text]; dup || text == "" {
				continue
			}
			seen[text] = struct{}{}
			out.Auxiliary = append(out.Auxiliary, text)
		}
	}
	return out, nil
}

// span returns lines[from:to] clamped to the slice bounds.
func span(lines []string, from, to int) []string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from >= to {
		return nil
	}
	return lines[from:to]
}
