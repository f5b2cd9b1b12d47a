// Package cli provides the lumina-frontend command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumina-lang/lumina/internal/config"
	"github.com/lumina-lang/lumina/internal/frontend"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lumina-frontend",
		Short: "Lumina compiler front end",
		Long: `lumina-frontend runs the Lumina front end: lexing, grammar-driven
parsing with error recovery, CST-to-AST lowering with configurable type
resolution, and linear-ownership memory checking.`,
		Version:       frontend.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default lumina.yaml)")
	pf.String("mode", config.DefaultMode, "parse mode: direct-ast, cst or cst-ast")
	pf.Int("max-errors", config.DefaultMaxErrors, "diagnostic bound per compilation")
	pf.Bool("strict", false, "stop each stage at its first error")
	pf.String("output", config.DefaultOutput, "diagnostic rendering: text or table")
	pf.Bool("preserve-trivia", true, "keep whitespace and comments in the CST")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newGrammarCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
