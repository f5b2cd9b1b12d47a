package parser

import (
	"github.com/lumina-lang/lumina/internal/lexer"
)

// ParseContext is the mutable state threaded through grammar rule
// execution: the token cursor, the trivia buffer, and per-parse error
// accounting. One context serves exactly one parse of one token stream.
type ParseContext struct {
	Mode   ParseMode
	Tokens []lexer.Token

	current int

	// Trivia handling
	PreserveTrivia bool
	triviaBuffer   []lexer.Token

	// Error tracking
	errors    []string
	maxErrors int

	// Recovery governs partial-node synthesis inside combinators
	Recovery RecoveryConfig

	stats *ParseStats
}

// NewParseContext creates a context over the given token stream. In
// DirectAST mode trivia collection is disabled for speed.
func NewParseContext(mode ParseMode, tokens []lexer.Token, maxErrors int) *ParseContext {
	ctx := &ParseContext{
		Mode:           mode,
		Tokens:         tokens,
		PreserveTrivia: mode != DirectAST,
		maxErrors:      maxErrors,
		Recovery:       DefaultRecoveryConfig(),
		stats:          &ParseStats{},
	}
	return ctx
}

// Pos returns the current token index
func (ctx *ParseContext) Pos() int { return ctx.current }

// SetPos rewinds or advances the cursor; used by combinators to reset
// position after a failed alternative
func (ctx *ParseContext) SetPos(pos int) { ctx.current = pos }

// IsAtEnd reports whether the cursor has reached the end of the stream
func (ctx *ParseContext) IsAtEnd() bool {
	return ctx.current >= len(ctx.Tokens) || ctx.Tokens[ctx.current].Type == lexer.TokenEOF
}

// Peek returns the current significant token without consuming it,
// buffering any trivia it skips over
func (ctx *ParseContext) Peek() lexer.Token {
	ctx.CollectTrivia()
	if ctx.current >= len(ctx.Tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return ctx.Tokens[ctx.current]
}

// Advance consumes and returns the current significant token
func (ctx *ParseContext) Advance() lexer.Token {
	tok := ctx.Peek()
	if ctx.current < len(ctx.Tokens) && tok.Type != lexer.TokenEOF {
		ctx.current++
	}
	return tok
}

// Match consumes the current token if it has the given type
func (ctx *ParseContext) Match(tt lexer.TokenType) bool {
	if ctx.Peek().Type == tt {
		ctx.Advance()
		return true
	}
	return false
}

// CollectTrivia advances past trivia tokens, buffering them when
// preservation is on
func (ctx *ParseContext) CollectTrivia() {
	for ctx.current < len(ctx.Tokens) && ctx.Tokens[ctx.current].IsTrivia() {
		if ctx.PreserveTrivia {
			ctx.triviaBuffer = append(ctx.triviaBuffer, ctx.Tokens[ctx.current])
		}
		ctx.current++
	}
}

// TakeTrivia returns and clears the buffered trivia
func (ctx *ParseContext) TakeTrivia() []lexer.Token {
	out := ctx.triviaBuffer
	ctx.triviaBuffer = nil
	return out
}

// ReportError records a rule-level error message, bounded by maxErrors
func (ctx *ParseContext) ReportError(message string) {
	if len(ctx.errors) < ctx.maxErrors {
		ctx.errors = append(ctx.errors, message)
	}
}

// Errors returns the rule-level errors collected so far
func (ctx *ParseContext) Errors() []string { return ctx.errors }

// HasErrors reports whether any rule-level error was recorded
func (ctx *ParseContext) HasErrors() bool { return len(ctx.errors) > 0 }

// Stats returns the statistics accumulator shared with the grammar table
func (ctx *ParseContext) Stats() *ParseStats { return ctx.stats }
