package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/parser"
)

func newGrammarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grammar",
		Short: "Validate the default grammar table and list its rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			collector := diagnostics.NewCollector(cfg.MaxErrors)
			grammar := parser.New(nil, collector).Grammar()

			w := cmd.OutOrStdout()
			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.AppendHeader(table.Row{"Rule", "Cacheable", "Priority", "Depends on"})
			for _, name := range grammar.RuleNames() {
				rule := grammar.Get(name)
				t.AppendRow(table.Row{
					rule.Name(),
					rule.Cacheable(),
					rule.Priority(),
					strings.Join(rule.Dependencies(), ", "),
				})
			}
			t.Render()

			if cycles := grammar.FindCircularDependencies(); len(cycles) > 0 {
				return fmt.Errorf("circular rule dependencies: %s", strings.Join(cycles, " -> "))
			}
			if missing := grammar.FindMissingRules(); len(missing) > 0 {
				return fmt.Errorf("rules referenced but never defined: %s", strings.Join(missing, ", "))
			}
			if err := grammar.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(w, "grammar ok")
			return nil
		},
	}
}
