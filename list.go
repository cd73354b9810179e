package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/provider"
	"github.com/phobologic/symctx/internal/ranking"
	"github.com/phobologic/symctx/internal/toon"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var (
		kinds    string
		match    string
		related  bool
		top      int
		all      bool
		format   string
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the symbols found in the source tree",
		Long: `List every function, struct, class, union, enum and typedef collected from
the target tree with its location, reference count and PageRank score.
Standard library typedefs such as size_t and uint32_t are left out unless
--all is given.

With --strategy lexical the names known to the lexical cache are listed
instead, macros included, in the order they were found. Only --match and
--all apply there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := ranking.ParseKinds(kinds)
			if err != nil {
				return err
			}
			p, err := openProject(cmd, g)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("format") {
				format = p.cfg.Output.Format
			}
			if !flags.Changed("strategy") {
				strategy = p.cfg.Output.Strategy
			}

			filter := ranking.Filter{Kinds: ks, Match: match, Related: related, Top: top}
			if !all {
				filter.Exclude = p.cfg.ExcludeSet()
			}
			out := cmd.OutOrStdout()

			if provider.Strategy(strategy) == provider.StrategyLexical {
				if flags.Changed("kind") || flags.Changed("related") || flags.Changed("top") {
					return errors.New("--kind, --related and --top need the graph strategy")
				}
				return listLexical(cmd, g, p, filter, format)
			}
			if provider.Strategy(strategy) != provider.StrategyGraph {
				return fmt.Errorf("%w: %q", provider.ErrUnknownStrategy, strategy)
			}

			entries := ranking.Select(p.table, filter)
			switch format {
			case "json":
				data, err := toon.JSONSymbols(p.root, entries)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, string(data))
			case "toon", "prompt":
				_, _ = fmt.Fprintln(out, toon.EncodeSymbols(p.root, entries))
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return p.finish(g)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&kinds, "kind", "k", "", "comma-separated kinds: function, struct, class, union, enum, typedef")
	f.StringVarP(&match, "match", "m", "", "keep names containing this substring (case-insensitive)")
	f.BoolVar(&related, "related", false, "with --match, also list symbols one reference away")
	f.IntVarP(&top, "top", "n", 0, "keep the N highest-ranked symbols")
	f.BoolVar(&all, "all", false, "include standard library typedefs")
	f.StringVarP(&format, "format", "f", "toon", "output format: toon, json")
	f.StringVarP(&strategy, "strategy", "s", "graph", "symbol source: graph, lexical")
	return cmd
}

// listLexical enumerates the lexical provider's names.
func listLexical(cmd *cobra.Command, g *globalOptions, p *project, filter ranking.Filter, format string) error {
	lines, err := lexical.NewFileLines(p.cfg.Lexical.LineCacheSize)
	if err != nil {
		return err
	}
	prov, err := provider.New(string(provider.StrategyLexical), p.table, p.lexical, lexical.NewAssembler(p.lexical, lines))
	if err != nil {
		return err
	}

	names := ranking.SelectNames(prov.Names(), filter)
	entries := make([]lexical.Entry, 0, len(names))
	for _, name := range names {
		if e, ok := p.lexical.Lookup(name); ok {
			entries = append(entries, e)
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := toon.JSONEntries(p.root, entries)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
	case "toon", "prompt":
		_, _ = fmt.Fprintln(out, toon.EncodeEntries(p.root, entries))
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return p.finish(g)
}
