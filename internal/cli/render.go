package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/frontend"
)

// renderDiagnostics writes the collected diagnostics as plain text or as
// a go-pretty table, per the output setting.
func renderDiagnostics(w io.Writer, c *diagnostics.Collector, mode string) {
	diags := c.Diagnostics()
	if len(diags) == 0 {
		return
	}
	if mode != "table" {
		fmt.Fprint(w, c.Format())
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Line", "Col", "Severity", "Stage", "Message", "Hint"})
	for _, d := range diags {
		t.AppendRow(table.Row{d.Line, d.Column, d.Severity, d.Stage, d.Message, d.Hint})
	}
	t.Render()
}

// renderStats summarizes one compilation
func renderStats(w io.Writer, out *frontend.Output, mode string) {
	if mode != "table" {
		fmt.Fprintf(w, "rules executed: %d, cache hits: %d, tokens consumed: %d\n",
			out.ParseStats.RulesExecuted, out.ParseStats.CacheHits, out.ParseStats.TokensConsumed)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"rules executed", out.ParseStats.RulesExecuted})
	t.AppendRow(table.Row{"cache hits", out.ParseStats.CacheHits})
	t.AppendRow(table.Row{"cache misses", out.ParseStats.CacheMisses})
	t.AppendRow(table.Row{"tokens consumed", out.ParseStats.TokensConsumed})
	t.AppendRow(table.Row{"nodes transformed", out.BuildStats.NodesTransformed})
	t.AppendRow(table.Row{"deferred types", out.BuildStats.DeferredTypes})
	t.AppendRow(table.Row{"errors", out.Collector.ErrorCount()})
	t.Render()
}
