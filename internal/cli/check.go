package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumina-lang/lumina/internal/frontend"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Run the full front end, memory checking included",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := frontend.New(cfg)
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				out, err := pipeline.RunFile(path)
				if err != nil {
					return err
				}
				renderDiagnostics(cmd.ErrOrStderr(), out.Collector, cfg.Output)
				if out.Check != nil {
					for _, warning := range out.Check.Warnings {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %s\n", path, warning)
					}
				}
				if out.Success() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d error(s)\n", path, out.Collector.ErrorCount())
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}
}
