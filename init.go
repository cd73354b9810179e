package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/symctx/internal/config"
)

const (
	sentinelStart = "<!-- symctx:start -->"
	sentinelEnd   = "<!-- symctx:end -->"
)

// newInitCmd builds `symctx init`, which writes (or updates) a symctx usage
// section in an agent instructions file.
func newInitCmd(g *globalOptions) *cobra.Command {
	var (
		dryRun      bool
		writeConfig bool
	)
	cmd := &cobra.Command{
		Use:   "init [flags] [path-to-CLAUDE.md]",
		Short: "Write a symctx usage section to CLAUDE.md",
		Long: `Write a symctx usage section to a CLAUDE.md file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path-to-CLAUDE.md defaults to ./CLAUDE.md. With --write-config a default
symctx.yaml is also written to the --dir root unless one exists.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := "CLAUDE.md"
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote symctx section to %s\n", path)

			if writeConfig {
				cfgPath := filepath.Join(g.dir, config.FileName)
				if _, err := os.Stat(cfgPath); err == nil {
					_, _ = fmt.Fprintf(stderr, "%s exists, leaving it alone\n", cfgPath)
					return nil
				}
				if err := config.DefaultConfig().Save(cfgPath); err != nil {
					return fmt.Errorf("writing %s: %w", cfgPath, err)
				}
				_, _ = fmt.Fprintf(stderr, "wrote default config to %s\n", cfgPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "also write a default symctx.yaml")
	return cmd
}

// generateSection returns the full sentinel-wrapped symctx documentation block.
func generateSection() string {
	body := `## symctx: C/C++ Symbol Context

Run ` + "`symctx`" + ` via the Bash tool before reading C or C++ code you have not
seen. It links each function, struct, class, union, enum and typedef to the
types it uses and prints just the declarations you need.

**Availability:** Check with ` + "`symctx version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
symctx list --top 30                          # most referenced symbols first
symctx list --kind struct,typedef -m buffer   # filter by kind and name
symctx context parse_header                   # a symbol plus the types it uses
symctx context --targets names.txt            # many symbols, one per line
symctx context --strategy lexical MAX_LEN     # raw source window, macros too
symctx -I include --base src context Foo      # headers dir, target tree
symctx --cache .symctx-cache list             # reuse the scan while files are unchanged
` + "```" + `

**Caching:** Use ` + "`--cache <file>`" + ` on large trees. Add the cache file to
` + "`.gitignore`" + `. A conventional path is ` + "`.symctx-cache`" + `.

**All flags:** ` + "`symctx --help`" + ` and ` + "`symctx <command> --help`" + `

**How to use the output:**

1. **Start from ` + "`symctx list --top N`" + `.** Rank is PageRank over type
   references, so the central data structures come first.

2. **Ask for a bundle before opening files.** ` + "`symctx context NAME`" + ` shows the
   symbol with its fields or parameters and every type it references, one hop
   deep. Request the referenced types by name to go further.

3. **Use the lexical strategy for macros** and anything the graph does not
   cover; it prints the source lines at the declaration.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
