// Package scan runs the two-phase symbol scan: every unit is parsed and
// processed independently and concurrently, then the per-unit results are
// merged in scan order by a single writer.
package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/graph"
	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/metrics"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/parse"
)

// Failure is a unit that was skipped because it could not be parsed.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of a scan. Table is frozen.
type Result struct {
	ID        uuid.UUID
	Table     *graph.Table
	Lexical   *lexical.Cache
	Units     []string // successfully processed units, in scan order
	Failed    []Failure
	Collected int
	Dropped   int
	Duration  time.Duration
}

// Scanner parses units with one parser per worker.
type Scanner struct {
	newParser func() parse.Parser
	filter    ast.Filter
	exclude   map[string]struct{}
	workers   int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	progress  func()
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds concurrent units. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = n }
}

// WithFilter sets the target-tree predicate. The default accepts every file.
func WithFilter(in ast.Filter) Option {
	return func(s *Scanner) { s.filter = in }
}

// WithLexicalExclude keeps names out of the lexical cache.
func WithLexicalExclude(names map[string]struct{}) Option {
	return func(s *Scanner) { s.exclude = names }
}

// WithLogger sets the logger. Records carry the scan id.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics records scan counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithProgress registers fn to be called once per finished unit. It may be
// called from several goroutines.
func WithProgress(fn func()) Option {
	return func(s *Scanner) { s.progress = fn }
}

// New returns a Scanner that calls newParser once per worker. Parsers that
// implement io.Closer are closed when the scan ends.
func New(newParser func() parse.Parser, opts ...Option) *Scanner {
	s := &Scanner{
		newParser: newParser,
		filter:    ast.Everything,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		progress:  func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

type unitResult struct {
	syms    []model.Symbol
	entries []lexical.Entry
	err     error
}

// Scan processes paths and merges their symbols. A unit that fails to parse
// is logged and recorded in Result.Failed; it never fails the scan. Scan
// returns an error only when ctx is done.
func (s *Scanner) Scan(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	id := uuid.New()
	logger := s.logger.With("scan", id.String())
	logger.Info("scan started", "units", len(paths), "workers", s.workers)

	workers := min(s.workers, max(len(paths), 1))
	pool := make(chan parse.Parser, workers)
	for range workers {
		pool <- s.newParser()
	}
	defer func() {
		close(pool)
		for p := range pool {
			if c, ok := p.(io.Closer); ok {
				_ = c.Close()
			}
		}
	}()

	results := make([]unitResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := <-pool
			defer func() { pool <- p }()

			results[i] = s.unit(gctx, p, path)
			s.progress()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{ID: id}
	perUnit := make([][]model.Symbol, 0, len(paths))
	var entries []lexical.Entry
	for i, r := range results {
		if r.err != nil {
			reason := "parse"
			if errors.Is(r.err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			logger.Warn("skipping unit", "unit", paths[i], "reason", reason, "error", r.err)
			res.Failed = append(res.Failed, Failure{Path: paths[i], Err: r.err})
			if s.metrics != nil {
				s.metrics.UnitFailed(reason)
			}
			continue
		}
		res.Units = append(res.Units, paths[i])
		res.Collected += len(r.syms)
		perUnit = append(perUnit, r.syms)
		entries = append(entries, r.entries...)
	}

	res.Table, res.Dropped = graph.Merge(perUnit...)
	res.Lexical = lexical.NewCache(entries)
	res.Duration = time.Since(start)
	if res.Dropped > 0 {
		logger.Debug("dropped duplicate symbols", "count", res.Dropped)
	}
	if s.metrics != nil {
		s.metrics.Dropped(res.Dropped)
		s.metrics.ScanFinished(res.Duration)
	}
	logger.Info("scan finished",
		"units", len(res.Units),
		"failed", len(res.Failed),
		"symbols", res.Table.Len(),
		"dropped", res.Dropped,
		"duration", res.Duration,
	)
	return res, nil
}

// unit runs the per-unit phase. It reads nothing outside the unit's tree.
func (s *Scanner) unit(ctx context.Context, p parse.Parser, path string) unitResult {
	u, err := p.Parse(ctx, path)
	if err != nil {
		return unitResult{err: err}
	}
	syms := graph.ProcessUnit(u.Root, s.filter)
	if s.metrics != nil {
		refs := 0
		for _, sym := range syms {
			refs += len(sym.References())
		}
		s.metrics.UnitParsed(len(syms), refs)
	}
	return unitResult{
		syms:    syms,
		entries: lexical.BuildCache([]*ast.Unit{u}, s.filter, s.exclude).Entries(),
	}
}
