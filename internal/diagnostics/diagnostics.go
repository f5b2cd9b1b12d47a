// Package diagnostics provides the shared diagnostic collector for the
// Lumina front end. One Collector is created per compilation and passed
// explicitly into each stage; every stage tags its diagnostics so
// downstream tooling can filter by pipeline stage.
package diagnostics

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Stage identifies which pipeline stage produced a diagnostic
type Stage int

const (
	StageLexing Stage = iota
	StageParsing
	StageBuilding
	StageTypeCheck
	StageMemory
)

func (st Stage) String() string {
	switch st {
	case StageLexing:
		return "lexing"
	case StageParsing:
		return "parsing"
	case StageBuilding:
		return "building"
	case StageTypeCheck:
		return "typecheck"
	case StageMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single reported problem
type Diagnostic struct {
	Severity Severity
	Stage    Stage
	Message  string
	Line     int    // 1-based line number, 0 when unknown
	Column   int    // 1-based column number, 0 when unknown
	Hint     string // Optional explanatory hint
	Context  string // Optional source line for context
}

// String returns a formatted single-line representation
func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d: ", d.Line, d.Column)
	}
	fmt.Fprintf(&sb, "%s [%s]: %s", d.Severity, d.Stage, d.Message)
	return sb.String()
}

// Collector accumulates diagnostics for one compilation. It is the single
// sink shared by the parser, the AST builder, the type checker, and the
// memory checker, so a caller can ask "did the whole compilation fail"
// with one query regardless of which stage raised the error.
type Collector struct {
	diagnostics []Diagnostic
	errorCount  int
	maxErrors   int
}

// NewCollector creates a collector bounded by maxErrors. A limit of zero
// suppresses all error recording.
func NewCollector(maxErrors int) *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0, 16),
		maxErrors:   maxErrors,
	}
}

// Add records a diagnostic. Errors beyond the maxErrors bound are dropped;
// already-collected diagnostics are never discarded.
func (c *Collector) Add(d Diagnostic) {
	if d.Severity == SeverityError {
		if c.errorCount >= c.maxErrors {
			return
		}
		c.errorCount++
	}
	c.diagnostics = append(c.diagnostics, d)
}

// Error is a convenience wrapper for Add with error severity
func (c *Collector) Error(stage Stage, line int, message string) {
	c.Add(Diagnostic{Severity: SeverityError, Stage: stage, Line: line, Message: message})
}

// ErrorWithHint records an error carrying an explanatory hint
func (c *Collector) ErrorWithHint(stage Stage, line int, message, hint string) {
	c.Add(Diagnostic{Severity: SeverityError, Stage: stage, Line: line, Message: message, Hint: hint})
}

// Warning is a convenience wrapper for Add with warning severity
func (c *Collector) Warning(stage Stage, line int, message string) {
	c.Add(Diagnostic{Severity: SeverityWarning, Stage: stage, Line: line, Message: message})
}

// Hint records a low-confidence observation, e.g. a best-effort recovery choice
func (c *Collector) Hint(stage Stage, line int, message string) {
	c.Add(Diagnostic{Severity: SeverityHint, Stage: stage, Line: line, Message: message})
}

// HasErrors reports whether any stage recorded an error
func (c *Collector) HasErrors() bool {
	return c.errorCount > 0
}

// ErrorCount returns the number of recorded errors
func (c *Collector) ErrorCount() int {
	return c.errorCount
}

// AtLimit reports whether the error bound has been reached
func (c *Collector) AtLimit() bool {
	return c.errorCount >= c.maxErrors
}

// Diagnostics returns all collected diagnostics in report order
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// ByStage returns the diagnostics produced by one pipeline stage
func (c *Collector) ByStage(stage Stage) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}

// Format renders all diagnostics, one per line
func (c *Collector) Format() string {
	var sb strings.Builder
	for _, d := range c.diagnostics {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
