// Package lexer implements the Lumina lexical analyzer. It produces the
// full token stream for a source file, including whitespace and comment
// trivia so the concrete syntax tree can reproduce the input losslessly.
package lexer

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/diagnostics"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token types
const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Trivia
	TokenWhitespace
	TokenNewline
	TokenComment

	// Literals
	TokenIdentifier
	TokenInteger
	TokenFloat
	TokenString

	// Keywords
	TokenVar
	TokenFn
	TokenClass
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenReturn
	TokenBreak
	TokenContinue
	TokenPrint
	TokenTrue
	TokenFalse
	TokenNil
	TokenAnd
	TokenOr

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenAssign
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenBang

	// Symbols
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenColon
	TokenDoubleColon
	TokenArrow
)

// tokenNames provides string representations for token types
var tokenNames = map[TokenType]string{
	TokenEOF:   "EOF",
	TokenError: "ERROR",

	TokenWhitespace: "WHITESPACE",
	TokenNewline:    "NEWLINE",
	TokenComment:    "COMMENT",

	TokenIdentifier: "IDENTIFIER",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",

	TokenVar:      "VAR",
	TokenFn:       "FN",
	TokenClass:    "CLASS",
	TokenIf:       "IF",
	TokenElse:     "ELSE",
	TokenWhile:    "WHILE",
	TokenFor:      "FOR",
	TokenReturn:   "RETURN",
	TokenBreak:    "BREAK",
	TokenContinue: "CONTINUE",
	TokenPrint:    "PRINT",
	TokenTrue:     "TRUE",
	TokenFalse:    "FALSE",
	TokenNil:      "NIL",
	TokenAnd:      "AND",
	TokenOr:       "OR",

	TokenPlus:    "PLUS",
	TokenMinus:   "MINUS",
	TokenStar:    "STAR",
	TokenSlash:   "SLASH",
	TokenPercent: "PERCENT",
	TokenAssign:  "ASSIGN",
	TokenEq:      "EQ",
	TokenNe:      "NE",
	TokenLt:      "LT",
	TokenLe:      "LE",
	TokenGt:      "GT",
	TokenGe:      "GE",
	TokenBang:    "BANG",

	TokenLParen:      "LPAREN",
	TokenRParen:      "RPAREN",
	TokenLBrace:      "LBRACE",
	TokenRBrace:      "RBRACE",
	TokenLBracket:    "LBRACKET",
	TokenRBracket:    "RBRACKET",
	TokenSemicolon:   "SEMICOLON",
	TokenComma:       "COMMA",
	TokenDot:         "DOT",
	TokenColon:       "COLON",
	TokenDoubleColon: "DOUBLE_COLON",
	TokenArrow:       "ARROW",
}

// keywords maps string keywords to their token types
var keywords = map[string]TokenType{
	"var":      TokenVar,
	"fn":       TokenFn,
	"class":    TokenClass,
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"return":   TokenReturn,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"print":    TokenPrint,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"nil":      TokenNil,
	"and":      TokenAnd,
	"or":       TokenOr,
}

// Token represents a lexical token with position information
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int // 1-based line number
	Column int // 1-based column number
	Start  int // 0-based byte offset of the first byte
	End    int // 0-based byte offset one past the last byte
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Lexeme: %q, Line: %d, Column: %d}",
		t.Type, t.Lexeme, t.Line, t.Column)
}

// IsTrivia reports whether the token carries no syntactic meaning
func (t Token) IsTrivia() bool {
	return t.Type == TokenWhitespace || t.Type == TokenNewline || t.Type == TokenComment
}

// IsKeyword reports whether the token is a reserved word
func (t Token) IsKeyword() bool {
	return t.Type >= TokenVar && t.Type <= TokenOr
}

// Lexer performs lexical analysis over a single source buffer
type Lexer struct {
	input    string
	filename string
	position int  // current position in input (points to current char)
	ch       byte // current char under examination, 0 at EOF
	line     int  // current line number
	column   int  // current column number

	collector *diagnostics.Collector
}

// New creates a new lexer for the given source text. Diagnostics are
// reported into the shared collector.
func New(filename, input string, collector *diagnostics.Collector) *Lexer {
	l := &Lexer{
		input:     input,
		filename:  filename,
		line:      1,
		column:    1,
		collector: collector,
	}
	if len(input) > 0 {
		l.ch = input[0]
	}
	return l
}

// ScanAll tokenizes the whole input, trivia included. The returned slice
// always ends with an EOF token.
func (l *Lexer) ScanAll() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// NextToken scans and returns the next token, including trivia tokens
func (l *Lexer) NextToken() Token {
	startLine, startCol, startPos := l.line, l.column, l.position

	mk := func(tt TokenType) Token {
		return Token{
			Type:   tt,
			Lexeme: l.input[startPos:l.position],
			Line:   startLine,
			Column: startCol,
			Start:  startPos,
			End:    l.position,
		}
	}

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Line: l.line, Column: l.column, Start: l.position, End: l.position}
	case l.ch == '\n':
		l.advance()
		return mk(TokenNewline)
	case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.advance()
		}
		return mk(TokenWhitespace)
	case l.ch == '/' && l.peek() == '/':
		for l.ch != 0 && l.ch != '\n' {
			l.advance()
		}
		return mk(TokenComment)
	case l.ch == '/' && l.peek() == '*':
		l.advance()
		l.advance()
		closed := false
		for l.ch != 0 {
			if l.ch == '*' && l.peek() == '/' {
				l.advance()
				l.advance()
				closed = true
				break
			}
			l.advance()
		}
		if !closed {
			l.collector.Error(diagnostics.StageLexing, startLine, "unterminated block comment")
		}
		return mk(TokenComment)
	case isDigit(l.ch):
		return l.scanNumber(mk)
	case isLetter(l.ch):
		for isLetter(l.ch) || isDigit(l.ch) {
			l.advance()
		}
		tok := mk(TokenIdentifier)
		if kw, ok := keywords[tok.Lexeme]; ok {
			tok.Type = kw
		}
		return tok
	case l.ch == '"':
		return l.scanString(mk)
	}

	return l.scanOperator(mk)
}

func (l *Lexer) scanNumber(mk func(TokenType) Token) Token {
	for isDigit(l.ch) {
		l.advance()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		l.advance()
		for isDigit(l.ch) {
			l.advance()
		}
		return mk(TokenFloat)
	}
	return mk(TokenInteger)
}

func (l *Lexer) scanString(mk func(TokenType) Token) Token {
	startLine := l.line
	l.advance() // opening quote
	for l.ch != 0 && l.ch != '"' && l.ch != '\n' {
		if l.ch == '\\' && l.peek() != 0 {
			l.advance()
		}
		l.advance()
	}
	if l.ch != '"' {
		l.collector.Error(diagnostics.StageLexing, startLine, "unterminated string literal")
		return mk(TokenError)
	}
	l.advance() // closing quote
	return mk(TokenString)
}

func (l *Lexer) scanOperator(mk func(TokenType) Token) Token {
	ch := l.ch
	l.advance()

	two := func(next byte, withNext, alone TokenType) Token {
		if l.ch == next {
			l.advance()
			return mk(withNext)
		}
		return mk(alone)
	}

	switch ch {
	case '+':
		return mk(TokenPlus)
	case '-':
		return two('>', TokenArrow, TokenMinus)
	case '*':
		return mk(TokenStar)
	case '/':
		return mk(TokenSlash)
	case '%':
		return mk(TokenPercent)
	case '=':
		return two('=', TokenEq, TokenAssign)
	case '!':
		return two('=', TokenNe, TokenBang)
	case '<':
		return two('=', TokenLe, TokenLt)
	case '>':
		return two('=', TokenGe, TokenGt)
	case '(':
		return mk(TokenLParen)
	case ')':
		return mk(TokenRParen)
	case '{':
		return mk(TokenLBrace)
	case '}':
		return mk(TokenRBrace)
	case '[':
		return mk(TokenLBracket)
	case ']':
		return mk(TokenRBracket)
	case ';':
		return mk(TokenSemicolon)
	case ',':
		return mk(TokenComma)
	case '.':
		return mk(TokenDot)
	case ':':
		return two(':', TokenDoubleColon, TokenColon)
	}

	l.collector.Error(diagnostics.StageLexing, l.line, fmt.Sprintf("unexpected character %q", ch))
	return mk(TokenError)
}

func (l *Lexer) advance() {
	if l.position >= len(l.input) {
		l.ch = 0
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.position++
	if l.position < len(l.input) {
		l.ch = l.input[l.position]
	} else {
		l.ch = 0
	}
}

func (l *Lexer) peek() byte {
	if l.position+1 >= len(l.input) {
		return 0
	}
	return l.input[l.position+1]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
