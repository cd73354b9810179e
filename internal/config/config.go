// Package config loads symctx settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the scan root.
const FileName = "symctx.yaml"

// Config holds all configuration for symctx.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Lexical LexicalConfig `yaml:"lexical"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ScanConfig controls discovery and parsing.
type ScanConfig struct {
	BaseDir         string        `yaml:"base_dir"` // Target tree; empty means the scan root
	IncludeDirs     []string      `yaml:"include_dirs,omitempty"`
	Languages       []string      `yaml:"languages,omitempty"` // "c", "cpp"; empty means both
	Include         []string      `yaml:"include,omitempty"`
	Exclude         []string      `yaml:"exclude,omitempty"`
	Workers         int           `yaml:"workers"` // 0 = GOMAXPROCS
	ParseTimeout    time.Duration `yaml:"parse_timeout"`
	MaxFileSize     int64         `yaml:"max_file_size"`
	MaxIncludeDepth int           `yaml:"max_include_depth"`
}

// LexicalConfig controls the lexical strategy.
type LexicalConfig struct {
	WindowLines   int      `yaml:"window_lines"`
	SnippetLines  int      `yaml:"snippet_lines"`
	ExcludeNames  []string `yaml:"exclude_names"`
	LineCacheSize int      `yaml:"line_cache_size"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format   string `yaml:"format"`   // "toon", "json", "prompt"
	Strategy string `yaml:"strategy"` // "graph", "lexical"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CacheConfig locates the snapshot file.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Languages lists the grammar names accepted by scan.languages. Headers
// are parsed with the cpp grammar.
var Languages = []string{"c", "cpp"}

// Formats lists the accepted output formats.
var Formats = []string{"toon", "json", "prompt"}

// DefaultStdTypes are the standard typedef names left out of listings and
// the lexical cache.
var DefaultStdTypes = []string{
	"size_t", "ptrdiff_t", "intptr_t", "uintptr_t",
	"int8_t", "int16_t", "int32_t", "int64_t",
	"uint8_t", "uint16_t", "uint32_t", "uint64_t",
	"int_least8_t", "int_least16_t", "int_least32_t", "int_least64_t",
	"uint_least8_t", "uint_least16_t", "uint_least32_t", "uint_least64_t",
	"int_fast8_t", "int_fast16_t", "int_fast32_t", "int_fast64_t",
	"uint_fast8_t", "uint_fast16_t", "uint_fast32_t", "uint_fast64_t",
	"intmax_t", "uintmax_t", "wchar_t", "va_list", "__vcrt_bool",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			ParseTimeout:    30 * time.Second,
			MaxFileSize:     1_000_000,
			MaxIncludeDepth: 16,
		},
		Lexical: LexicalConfig{
			WindowLines:   10,
			SnippetLines:  5,
			ExcludeNames:  append([]string(nil), DefaultStdTypes...),
			LineCacheSize: 256,
		},
		Output: OutputConfig{
			Format:   "toon",
			Strategy: "graph",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads symctx.yaml from dir, falling back to
// .symctx/config.yaml and then to the defaults.
func LoadFromDir(dir string) (*Config, error) {
	for _, path := range []string{
		filepath.Join(dir, FileName),
		filepath.Join(dir, ".symctx", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return DefaultConfig(), nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must be >= 0, got %d", c.Scan.Workers))
	}
	for _, l := range c.Scan.Languages {
		if !contains(Languages, l) {
			errs = append(errs, fmt.Errorf("scan.languages: %q is not one of %v", l, Languages))
		}
	}
	if c.Scan.MaxIncludeDepth < 0 {
		errs = append(errs, fmt.Errorf("scan.max_include_depth must be >= 0, got %d", c.Scan.MaxIncludeDepth))
	}
	if c.Scan.ParseTimeout < 0 {
		errs = append(errs, fmt.Errorf("scan.parse_timeout must be >= 0, got %s", c.Scan.ParseTimeout))
	}
	if c.Lexical.WindowLines < 1 {
		errs = append(errs, fmt.Errorf("lexical.window_lines must be >= 1, got %d", c.Lexical.WindowLines))
	}
	if c.Lexical.SnippetLines < 1 {
		errs = append(errs, fmt.Errorf("lexical.snippet_lines must be >= 1, got %d", c.Lexical.SnippetLines))
	}
	if c.Lexical.LineCacheSize < 1 {
		errs = append(errs, fmt.Errorf("lexical.line_cache_size must be >= 1, got %d", c.Lexical.LineCacheSize))
	}
	if !contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %v", c.Output.Format, Formats))
	}
	if c.Output.Strategy != "graph" && c.Output.Strategy != "lexical" {
		errs = append(errs, fmt.Errorf("output.strategy %q is not graph or lexical", c.Output.Strategy))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ExcludeSet returns Lexical.ExcludeNames as a set.
func (c *Config) ExcludeSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Lexical.ExcludeNames))
	for _, n := range c.Lexical.ExcludeNames {
		out[n] = struct{}{}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
