package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/provider"
	"github.com/phobologic/symctx/internal/ranking"
	"github.com/phobologic/symctx/internal/toon"
)

func newContextCmd(g *globalOptions) *cobra.Command {
	var (
		strategy string
		format   string
		targets  string
		window   int
		snippet  int
	)
	cmd := &cobra.Command{
		Use:   "context [flags] NAME...",
		Short: "Emit the context bundle of one or more symbols",
		Long: `Emit context for each named symbol.

The graph strategy (default) prints the symbol and every symbol its type
references resolve to, one hop deep. The lexical strategy prints the source
lines starting at the declaration, preceded by the typedefs, enums and macros
named in them.

Names unknown to the scan are reported as warnings and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := append([]string(nil), args...)
			if targets != "" {
				f, err := os.Open(targets)
				if err != nil {
					return fmt.Errorf("targets file: %w", err)
				}
				fromFile, err := ranking.ReadTargets(f)
				_ = f.Close()
				if err != nil {
					return err
				}
				names = append(names, fromFile...)
			}
			if len(names) == 0 {
				return errors.New("no symbol names given")
			}

			p, err := openProject(cmd, g)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("strategy") {
				strategy = p.cfg.Output.Strategy
			}
			if !flags.Changed("format") {
				format = p.cfg.Output.Format
			}
			if !flags.Changed("window") {
				window = p.cfg.Lexical.WindowLines
			}
			if !flags.Changed("snippet") {
				snippet = p.cfg.Lexical.SnippetLines
			}

			lines, err := lexical.NewFileLines(p.cfg.Lexical.LineCacheSize)
			if err != nil {
				return err
			}
			assembler := lexical.NewAssembler(p.lexical, lines, lexical.WithWindow(window), lexical.WithSnippet(snippet))
			prov, err := provider.New(strategy, p.table, p.lexical, assembler,
				provider.WithSizeObserver(p.metrics.BundleObserver(strategy)))
			if err != nil {
				return err
			}

			var contexts []*provider.Context
			for _, name := range names {
				c, err := prov.Context(cmd.Context(), name)
				if errors.Is(err, provider.ErrUnknownSymbol) {
					p.logger.Warn("unknown symbol", "name", name)
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				contexts = append(contexts, c)
			}
			if len(contexts) == 0 {
				return fmt.Errorf("none of the %d requested symbols were found", len(names))
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := toon.JSONContexts(contexts)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, string(data))
			case "prompt":
				parts := make([]string, len(contexts))
				for i, c := range contexts {
					parts[i] = toon.Prompt(c)
				}
				_, _ = fmt.Fprint(out, strings.Join(parts, "\n---\n\n"))
			case "toon":
				parts := make([]string, len(contexts))
				for i, c := range contexts {
					parts[i] = toon.EncodeContext(p.root, c)
				}
				_, _ = fmt.Fprintln(out, strings.Join(parts, "\n\n"))
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return p.finish(g)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&strategy, "strategy", "s", "graph", "context strategy: graph, lexical")
	f.StringVarP(&format, "format", "f", "toon", "output format: toon, json, prompt")
	f.StringVarP(&targets, "targets", "t", "", "file with one symbol name per line")
	f.IntVar(&window, "window", 10, "lexical: lines in the primary window")
	f.IntVar(&snippet, "snippet", 5, "lexical: lines per auxiliary snippet")
	return cmd
}
