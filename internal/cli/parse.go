package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumina-lang/lumina/internal/frontend"
)

func newParseCmd() *cobra.Command {
	var showTree bool
	var showStats bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a source file and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := frontend.New(cfg)
			if err != nil {
				return err
			}
			out, err := pipeline.RunFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if showTree {
				switch {
				case out.CST != nil:
					fmt.Fprintln(w, out.CST.String())
				case out.AST != nil:
					for _, stmt := range out.AST.Statements {
						fmt.Fprintln(w, stmt.String())
					}
				}
			}
			renderDiagnostics(cmd.ErrOrStderr(), out.Collector, cfg.Output)
			if showStats {
				renderStats(w, out, cfg.Output)
			}
			if !out.Success() {
				return fmt.Errorf("%s: %d error(s)", args[0], out.Collector.ErrorCount())
			}
			fmt.Fprintf(w, "%s: ok\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTree, "tree", false, "print the parsed tree")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print parse statistics")
	return cmd
}
