// symctx builds a type-reference graph of a C/C++ source tree and emits
// per-symbol context bundles.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	dir         string
	configPath  string
	base        string
	includeDirs []string
	workers     int
	cachePath   string
	metricsFile string
	logLevel    string
	progress    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "symctx",
		Short: "Type-reference graph and context bundles for C/C++ sources",
		Long: `symctx parses a C/C++ source tree, links every function, record, enum
and typedef to the user-defined types it references, and emits a compact
context bundle per symbol for documentation tools and coding agents.

Example usage:
  symctx list                          # every symbol, ranked table
  symctx list --kind struct --top 20   # the 20 most referenced structs
  symctx context Point distance        # one-hop bundles for two symbols
  symctx context --targets names.txt --format prompt
  symctx context --strategy lexical area`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("symctx {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&g.dir, "dir", "d", ".", "root of the source tree")
	pf.StringVar(&g.configPath, "config", "", "config file (default is <dir>/symctx.yaml)")
	pf.StringVar(&g.base, "base", "", "target tree inside the root; declarations outside it are ignored")
	pf.StringSliceVarP(&g.includeDirs, "include-dir", "I", nil, "directory searched for #include targets (repeatable)")
	pf.IntVarP(&g.workers, "workers", "j", 0, "units parsed concurrently (default GOMAXPROCS)")
	pf.StringVar(&g.cachePath, "cache", "", "snapshot file reused while the source files are unchanged")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&g.progress, "progress", false, "show a progress bar while parsing")

	root.AddCommand(
		newListCmd(g),
		newContextCmd(g),
		newInitCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print the symctx version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "symctx %s\n", version)
			},
		},
	)
	return root
}
