package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/phobologic/symctx/internal/ast"
	"github.com/phobologic/symctx/internal/config"
	"github.com/phobologic/symctx/internal/discover"
	"github.com/phobologic/symctx/internal/graph"
	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/metrics"
	"github.com/phobologic/symctx/internal/parse"
	"github.com/phobologic/symctx/internal/scan"
	"github.com/phobologic/symctx/internal/store"
)

// project is a scanned source tree, either freshly parsed or restored from
// a snapshot.
type project struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	table   *graph.Table
	lexical *lexical.Cache
	failed  []string
	cached  bool
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, g *globalOptions, root string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		if _, statErr := os.Stat(g.configPath); statErr != nil {
			return nil, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadFromDir(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base") {
		cfg.Scan.BaseDir = g.base
	}
	if flags.Changed("include-dir") {
		cfg.Scan.IncludeDirs = append(cfg.Scan.IncludeDirs, g.includeDirs...)
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = g.workers
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = g.cachePath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := discover.ValidatePatterns(append(append([]string(nil), cfg.Scan.Include...), cfg.Scan.Exclude...)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolve makes p absolute against root.
func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// openProject discovers the source files under the root and scans them,
// reusing the snapshot when the file set is unchanged.
func openProject(cmd *cobra.Command, g *globalOptions) (*project, error) {
	stderr := cmd.ErrOrStderr()

	root, err := filepath.Abs(g.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := loadConfig(cmd, g, root)
	if err != nil {
		return nil, err
	}
	p := &project{root: root, cfg: cfg, logger: newLogger(stderr, cfg), metrics: metrics.New()}

	files, err := discover.Files(root, discover.Options{
		Languages:   cfg.Scan.Languages,
		Include:     cfg.Scan.Include,
		Exclude:     cfg.Scan.Exclude,
		MaxFileSize: cfg.Scan.MaxFileSize,
		Logger:      p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no C or C++ source files found")
	}

	fingerprints := make([]store.Fingerprint, len(files))
	paths := make([]string, len(files))
	for i, f := range files {
		fingerprints[i] = store.Fingerprint{Path: filepath.ToSlash(f.Path), Size: f.Size, ModTime: f.ModTime.UnixNano()}
		paths[i] = filepath.Join(root, f.Path)
	}

	cachePath := resolve(root, cfg.Cache.Path)
	var settings string
	if cachePath != "" {
		if settings, err = store.Digest(p.settings()); err != nil {
			return nil, fmt.Errorf("hashing scan settings: %w", err)
		}
		snap, err := store.Load(cachePath, fingerprints, settings)
		switch {
		case err == nil:
			p.logger.Debug("using snapshot", "path", cachePath, "scan", snap.ScanID)
			p.table, p.lexical, p.failed, p.cached = snap.Table(), snap.Cache(), snap.Failed, true
			return p, nil
		case errors.Is(err, store.ErrNoSnapshot), errors.Is(err, store.ErrStale):
			p.logger.Debug("rescanning", "path", cachePath, "reason", err)
		default:
			p.logger.Warn("ignoring unreadable snapshot", "path", cachePath, "error", err)
		}
	}

	res, err := p.scan(cmd, paths)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		if err := store.Save(cachePath, store.FromResult(res, fingerprints, settings)); err != nil {
			p.logger.Warn("failed to write snapshot", "path", cachePath, "error", err)
		}
	}
	return p, nil
}

// scanSettings is everything besides the file set that shapes a scan
// result. A snapshot is only reused when these match.
type scanSettings struct {
	Base            string   `json:"base"`
	IncludeDirs     []string `json:"include_dirs"`
	MaxIncludeDepth int      `json:"max_include_depth"`
	Include         []string `json:"include"`
	Exclude         []string `json:"exclude"`
	MaxFileSize     int64    `json:"max_file_size"`
	ExcludeNames    []string `json:"exclude_names"`
}

func (p *project) settings() scanSettings {
	return scanSettings{
		Base:            p.baseDir(),
		IncludeDirs:     p.includeDirs(),
		MaxIncludeDepth: p.cfg.Scan.MaxIncludeDepth,
		Include:         p.cfg.Scan.Include,
		Exclude:         p.cfg.Scan.Exclude,
		MaxFileSize:     p.cfg.Scan.MaxFileSize,
		ExcludeNames:    p.cfg.Lexical.ExcludeNames,
	}
}

func (p *project) baseDir() string {
	if p.cfg.Scan.BaseDir == "" {
		return p.root
	}
	return resolve(p.root, p.cfg.Scan.BaseDir)
}

func (p *project) includeDirs() []string {
	dirs := make([]string, len(p.cfg.Scan.IncludeDirs))
	for i, d := range p.cfg.Scan.IncludeDirs {
		dirs[i] = resolve(p.root, d)
	}
	return dirs
}

func (p *project) scan(cmd *cobra.Command, paths []string) (*scan.Result, error) {
	cfg := p.cfg
	includeDirs := p.includeDirs()
	newParser := func() parse.Parser {
		return parse.NewTreeSitter(
			parse.WithIncludeDirs(includeDirs...),
			parse.WithMaxIncludeDepth(cfg.Scan.MaxIncludeDepth),
			parse.WithTimeout(cfg.Scan.ParseTimeout),
		)
	}

	opts := []scan.Option{
		scan.WithWorkers(cfg.Scan.Workers),
		scan.WithFilter(ast.UnderDir(p.baseDir())),
		scan.WithLexicalExclude(cfg.ExcludeSet()),
		scan.WithLogger(p.logger),
		scan.WithMetrics(p.metrics),
	}
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Parsing"),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, scan.WithProgress(func() { _ = bar.Add(1) }))
		defer func() { _ = bar.Finish() }()
	}

	res, err := scan.New(newParser, opts...).Scan(cmd.Context(), paths)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	p.table, p.lexical = res.Table, res.Lexical
	for _, f := range res.Failed {
		p.failed = append(p.failed, f.Path)
	}
	return res, nil
}

// finish writes the metrics file when one was requested.
func (p *project) finish(g *globalOptions) error {
	if g.metricsFile == "" {
		return nil
	}
	if err := p.metrics.WriteTextfile(g.metricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
