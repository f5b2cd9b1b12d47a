// Package frontend ties the pipeline together: lexing, parsing in the
// configured mode, CST-to-AST lowering, and memory checking, all sharing
// one diagnostics collector per compilation.
package frontend

import (
	"fmt"
	"os"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/astbuilder"
	"github.com/lumina-lang/lumina/internal/config"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
	"github.com/lumina-lang/lumina/internal/memcheck"
	"github.com/lumina-lang/lumina/internal/parser"
)

// Version of the front end, gated by min_frontend in lumina.yaml
const Version = "0.4.1"

// Output is everything one compilation produced. CST is set in the CST
// modes, AST whenever an AST was built, Check when the memory checker ran.
type Output struct {
	Filename   string
	CST        *cst.Node
	AST        *ast.Program
	Check      *memcheck.Result
	ParseStats parser.ParseStats
	BuildStats astbuilder.BuildStats
	Collector  *diagnostics.Collector
}

// Success reports whether the compilation finished without errors
func (o *Output) Success() bool {
	return o.Collector != nil && !o.Collector.HasErrors()
}

// Pipeline runs compilations under one configuration. Each Run creates
// its own collector, so a Pipeline is reusable across source units.
type Pipeline struct {
	cfg *config.Config
}

// New creates a pipeline for cfg
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.CheckFrontendVersion(Version); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// RunFile compiles the source unit at path
func (p *Pipeline) RunFile(path string) (*Output, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Run(path, string(source))
}

// Run compiles one source unit front to back
func (p *Pipeline) Run(filename, source string) (*Output, error) {
	collector := diagnostics.NewCollector(p.cfg.MaxErrors)
	out := &Output{Filename: filename, Collector: collector}

	tokens := lexer.New(filename, source, collector).ScanAll()

	mode, err := parseMode(p.cfg.Mode)
	if err != nil {
		return nil, err
	}
	opts := []parser.Option{
		parser.WithMode(mode),
		parser.WithRecovery(p.recoveryConfig()),
	}
	if p.cfg.Strict {
		opts = append(opts, parser.Strict())
	}
	result := parser.New(tokens, collector, opts...).Parse()
	out.CST = result.CST
	out.AST = result.AST
	out.ParseStats = result.Stats

	if mode == parser.CSTThenAST && result.CST != nil {
		builder := astbuilder.New(collector, p.buildConfig())
		out.AST = builder.Build(result.CST)
		out.BuildStats = builder.Stats()
	}

	if out.AST != nil {
		check := memcheck.New(collector).Check(out.AST)
		out.Check = &check
	}
	return out, nil
}

func parseMode(mode string) (parser.ParseMode, error) {
	switch mode {
	case "direct-ast":
		return parser.DirectAST, nil
	case "cst":
		return parser.CSTOnly, nil
	case "cst-ast":
		return parser.CSTThenAST, nil
	default:
		return 0, fmt.Errorf("unknown parse mode %q", mode)
	}
}

func (p *Pipeline) recoveryConfig() parser.RecoveryConfig {
	rc := parser.DefaultRecoveryConfig()
	rc.MaxErrors = p.cfg.MaxErrors
	rc.PreserveTrivia = p.cfg.PreserveTrivia
	rc.AttachTrivia = p.cfg.PreserveTrivia
	rc.InsertMissingTokens = p.cfg.InsertMissingNodes
	rc.CreatePartialNodes = p.cfg.InsertErrorNodes
	rc.ContinueOnError = !p.cfg.Strict
	return rc
}

func (p *Pipeline) buildConfig() astbuilder.BuildConfig {
	return astbuilder.BuildConfig{
		EnableEarlyTypeResolution: p.cfg.EarlyTypeResolution,
		DeferExpressionTypes:      p.cfg.DeferExpressionTypes,
		StrictMode:                p.cfg.Strict,
		InsertErrorNodes:          p.cfg.InsertErrorNodes,
		InsertMissingNodes:        p.cfg.InsertMissingNodes,
		PreserveSourceMapping:     p.cfg.SourceMapping,
		MaxErrors:                 p.cfg.MaxErrors,
	}
}
