package parser

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
)

// RecoveryConfig controls how the parser behaves on malformed input.
// The defaults favor maximal recovery: keep parsing, synthesize
// placeholder nodes, and preserve every token in the tree.
type RecoveryConfig struct {
	// SyncTokens are the token types synchronization skips to: statement
	// terminators, block delimiters, and leading keywords of statements.
	SyncTokens []lexer.TokenType

	MaxErrors           int  // maximum errors before diagnostics stop
	ContinueOnError     bool // keep producing best-effort nodes past MaxErrors
	InsertMissingTokens bool // synthesize missing nodes for absent elements
	SkipInvalidTokens   bool // skip tokens that fit no production
	CreatePartialNodes  bool // emit incomplete nodes for partial constructs

	PreserveTrivia bool // keep whitespace and comments in the CST
	AttachTrivia   bool // attach buffered trivia to meaningful nodes
}

// DefaultRecoveryConfig returns the standard recovery settings
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		SyncTokens: []lexer.TokenType{
			lexer.TokenSemicolon,
			lexer.TokenRBrace,
			lexer.TokenVar,
			lexer.TokenFn,
			lexer.TokenClass,
			lexer.TokenIf,
			lexer.TokenWhile,
			lexer.TokenFor,
			lexer.TokenReturn,
			lexer.TokenBreak,
			lexer.TokenContinue,
			lexer.TokenPrint,
		},
		MaxErrors:           100,
		ContinueOnError:     true,
		InsertMissingTokens: true,
		SkipInvalidTokens:   true,
		CreatePartialNodes:  true,
		PreserveTrivia:      true,
		AttachTrivia:        true,
	}
}

// blockContext records an open block for "caused by" diagnostics. It
// never influences parse decisions.
type blockContext struct {
	kind       string // "function body", "class body", "if block", ...
	startToken lexer.Token
}

func (p *Parser) pushBlockContext(kind string, start lexer.Token) {
	p.blockStack = append(p.blockStack, blockContext{kind: kind, startToken: start})
}

func (p *Parser) popBlockContext() {
	if len(p.blockStack) > 0 {
		p.blockStack = p.blockStack[:len(p.blockStack)-1]
	}
}

// causedBy renders the innermost open block as diagnostic context
func (p *Parser) causedBy() string {
	if len(p.blockStack) == 0 {
		return ""
	}
	bc := p.blockStack[len(p.blockStack)-1]
	return fmt.Sprintf("caused by enclosing %s starting at line %d", bc.kind, bc.startToken.Line)
}

// shouldContinueParsing reports whether the parse may keep going: strict
// mode stops on the first error, and past MaxErrors only ContinueOnError
// keeps best-effort node production alive
func (p *Parser) shouldContinueParsing() bool {
	if p.strict && p.collector.HasErrors() {
		return false
	}
	if p.errorCount > p.recovery.MaxErrors && !p.recovery.ContinueOnError {
		return false
	}
	return true
}

func (p *Parser) isSyncToken(tt lexer.TokenType) bool {
	for _, sync := range p.recovery.SyncTokens {
		if tt == sync {
			return true
		}
	}
	return false
}

// reportError records a parse diagnostic, appending block context when a
// block is open. Past MaxErrors no further diagnostics are emitted, but
// parsing itself keeps going under ContinueOnError.
func (p *Parser) reportError(message string) {
	p.errorCount++
	if p.errorCount > p.recovery.MaxErrors {
		return
	}
	tok := p.peek()
	if cb := p.causedBy(); cb != "" {
		message = message + " (" + cb + ")"
	}
	p.collector.Add(diagnostics.Diagnostic{
		Severity: diagnostics.SeverityError,
		Stage:    diagnostics.StageParsing,
		Line:     tok.Line,
		Column:   tok.Column,
		Message:  message,
		Context:  tok.Lexeme,
	})
}

// synchronize skips tokens until a synchronization point, returning the
// skipped tokens so the caller can preserve them in an error node. The
// sync token itself is not consumed.
func (p *Parser) synchronize() []lexer.Token {
	var skipped []lexer.Token
	for !p.isAtEnd() {
		tok := p.peek()
		if p.isSyncToken(tok.Type) {
			break
		}
		skipped = append(skipped, p.advance())
	}
	return skipped
}

// errorNodeAt synthesizes an error node at the current position, running
// synchronization so the parse can continue at a statement boundary
func (p *Parser) errorNodeAt(message string) *cst.Node {
	p.reportError(message)
	tok := p.peek()
	node := cst.NewErrorNode(message, tok.Start, tok.End)
	if p.recovery.SkipInvalidTokens {
		for _, sk := range p.synchronize() {
			node.AddSkippedToken(sk)
		}
		// A stray semicolon at the sync point belongs to the bad statement.
		if p.check(lexer.TokenSemicolon) {
			node.AddSkippedToken(p.advance())
		}
	}
	return node
}

// missingNodeAt synthesizes a missing-node placeholder for a required
// element that was absent; no tokens are consumed
func (p *Parser) missingNodeAt(expected cst.NodeKind, description string) *cst.Node {
	p.reportError(description)
	return cst.NewMissingNode(expected, description, p.peek().Start)
}
