// Package parser implements the grammar-driven Lumina parser. The same
// grammar produces either a lossless concrete syntax tree or a direct
// abstract syntax tree, selected by parse mode, with error recovery that
// synthesizes placeholder nodes instead of aborting.
package parser

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
)

// ParseMode selects the parser's output representation
type ParseMode int

const (
	// DirectAST produces an AST without building a CST; trivia is
	// discarded. The fastest mode, used for plain compilation.
	DirectAST ParseMode = iota
	// CSTThenAST produces a CST meant to be lowered by the AST builder
	CSTThenAST
	// CSTOnly produces only the lossless CST, for formatting and IDE use
	CSTOnly
)

func (m ParseMode) String() string {
	switch m {
	case DirectAST:
		return "direct-ast"
	case CSTThenAST:
		return "cst-then-ast"
	case CSTOnly:
		return "cst-only"
	default:
		return "unknown"
	}
}

// Result is the outcome of one parse: exactly one of CST or AST is set,
// per the mode, plus advisory statistics
type Result struct {
	CST   *cst.Node
	AST   *ast.Program
	Stats ParseStats
}

// Parser drives both the hand-written recursive descent path and the
// grammar table. One Parser instance serves one token stream.
type Parser struct {
	tokens  []lexer.Token
	current int

	mode      ParseMode
	recovery  RecoveryConfig
	strict    bool
	collector *diagnostics.Collector

	grammar *GrammarTable
	stats   ParseStats

	triviaBuffer []lexer.Token
	blockStack   []blockContext
	errorCount   int
}

// Option configures a Parser
type Option func(*Parser)

// WithMode selects the output mode (default DirectAST)
func WithMode(mode ParseMode) Option { return func(p *Parser) { p.mode = mode } }

// WithRecovery replaces the default recovery configuration
func WithRecovery(rc RecoveryConfig) Option { return func(p *Parser) { p.recovery = rc } }

// Strict makes the first unrecoverable error stop the parse
func Strict() Option { return func(p *Parser) { p.strict = true } }

// New creates a parser over a token stream. The stream must end with an
// EOF token, as produced by lexer.ScanAll.
func New(tokens []lexer.Token, collector *diagnostics.Collector, opts ...Option) *Parser {
	p := &Parser{
		tokens:    tokens,
		mode:      DirectAST,
		recovery:  DefaultRecoveryConfig(),
		collector: collector,
		grammar:   NewGrammarTable(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mode == DirectAST {
		p.recovery.PreserveTrivia = false
		p.recovery.AttachTrivia = false
	}
	p.initGrammar()
	return p
}

// Grammar exposes the rule table for registration and validation
func (p *Parser) Grammar() *GrammarTable { return p.grammar }

// Stats returns the advisory counters from the last parse
func (p *Parser) Stats() ParseStats { return p.stats }

// Parse runs the mode-selected parse and returns the owned tree root.
// The memoization cache is reset first, so a Parser can be reused on the
// same token stream but never across different streams.
func (p *Parser) Parse() *Result {
	p.grammar.ResetCache()
	p.current = 0
	p.stats = ParseStats{}
	p.errorCount = 0
	p.triviaBuffer = nil
	p.blockStack = nil

	res := &Result{}
	switch p.mode {
	case DirectAST:
		res.AST = p.parseProgramAST()
	case CSTThenAST, CSTOnly:
		res.CST = p.parseProgram()
	}
	p.stats.TokensConsumed = p.current
	res.Stats = p.stats
	return res
}

// ParseRule executes one named grammar rule at the current position.
// In the CST modes the rule runs against the grammar table; in DirectAST
// mode it is served by the descent and the result carries an AST node.
// Exposed for grammar-driven parsing and for grammar tests.
func (p *Parser) ParseRule(name string) RuleResult {
	if p.mode == DirectAST {
		return p.parseRuleAST(name)
	}
	ctx := NewParseContext(p.mode, p.tokens, p.recovery.MaxErrors)
	ctx.Recovery = p.recovery
	ctx.SetPos(p.current)
	res := p.grammar.Execute(name, ctx)
	if res.Success {
		p.current = ctx.Pos()
	} else {
		// Rule-level errors only become diagnostics once the rule as a
		// whole has failed; alternatives tried along the way stay silent.
		for _, msg := range ctx.Errors() {
			p.reportError(msg)
		}
	}
	p.stats.RulesExecuted += ctx.stats.RulesExecuted
	p.stats.CacheHits += ctx.stats.CacheHits
	p.stats.CacheMisses += ctx.stats.CacheMisses
	return res
}

// ===== Token access =====

// peek returns the current significant token, buffering skipped trivia
func (p *Parser) peek() lexer.Token {
	p.collectTrivia()
	if p.current >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAhead(offset int) lexer.Token {
	i := p.current
	seen := 0
	for i < len(p.tokens) {
		if !p.tokens[i].IsTrivia() {
			if seen == offset {
				return p.tokens[i]
			}
			seen++
		}
		i++
	}
	return lexer.Token{Type: lexer.TokenEOF}
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.current < len(p.tokens) && tok.Type != lexer.TokenEOF {
		p.current++
	}
	return tok
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.peek().Type == tt
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) collectTrivia() {
	for p.current < len(p.tokens) && p.tokens[p.current].IsTrivia() {
		if p.recovery.PreserveTrivia {
			p.triviaBuffer = append(p.triviaBuffer, p.tokens[p.current])
		}
		p.current++
	}
}

// flushTriviaInto hands the buffered trivia to a node: attached as
// leading trivia when the node is still empty, otherwise inlined as
// ordered elements so source order survives reconstruction. Either way
// each trivia token has exactly one home in the tree.
func (p *Parser) flushTriviaInto(node *cst.Node) {
	if len(p.triviaBuffer) == 0 {
		return
	}
	trivia := p.triviaBuffer
	p.triviaBuffer = nil
	if p.recovery.AttachTrivia && len(node.Elements) == 0 {
		node.AddLeadingTrivia(trivia...)
		return
	}
	for _, tok := range trivia {
		node.AddToken(tok)
	}
}

// addToken flushes pending trivia into the node, then appends the token
func (p *Parser) addToken(node *cst.Node, tok lexer.Token) {
	p.flushTriviaInto(node)
	node.AddToken(tok)
}

// consume expects a token of the given type. On a mismatch it reports a
// diagnostic and, when configured, inserts a missing-node placeholder.
func (p *Parser) consume(node *cst.Node, tt lexer.TokenType, description string) bool {
	if p.check(tt) {
		p.addToken(node, p.advance())
		return true
	}
	found := p.peek()
	msg := fmt.Sprintf("%s: expected %s, found %s %q", description, tt, found.Type, found.Lexeme)
	if p.recovery.InsertMissingTokens {
		node.AddNode(p.missingNodeAt(cst.KindTokenNode, msg))
	} else {
		p.reportError(msg)
	}
	return false
}

// ===== Program and statements =====

func (p *Parser) parseProgram() *cst.Node {
	program := cst.NewNode(cst.KindProgram)
	for !p.isAtEnd() {
		if !p.shouldContinueParsing() {
			break
		}
		before := p.current
		program.AddNode(p.parseStatement())
		if p.current == before {
			// No progress: consume one token into an error node.
			program.AddNode(p.errorNodeAt(fmt.Sprintf("unexpected token %q", p.peek().Lexeme)))
			if p.current == before && !p.isAtEnd() {
				p.advance()
			}
		}
	}
	p.flushTriviaInto(program)
	return program
}

func (p *Parser) parseStatement() *cst.Node {
	switch p.peek().Type {
	case lexer.TokenVar:
		return p.parseVarDeclaration()
	case lexer.TokenFn:
		return p.parseFunctionDeclaration()
	case lexer.TokenClass:
		return p.parseClassDeclaration()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		return p.parseWhileStatement()
	case lexer.TokenFor:
		return p.parseForStatement()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenBreak:
		return p.parseSimpleStatement(cst.KindBreakStatement)
	case lexer.TokenContinue:
		return p.parseSimpleStatement(cst.KindContinueStatement)
	case lexer.TokenPrint:
		return p.parsePrintStatement()
	case lexer.TokenLBrace:
		return p.parseBlock("block")
	case lexer.TokenError:
		return p.errorNodeAt(fmt.Sprintf("invalid token %q", p.peek().Lexeme))
	default:
		return p.parseExpressionStatement()
	}
}

// parseVarDeclaration parses: var IDENT (":" type)? ("=" expression)? ";"
func (p *Parser) parseVarDeclaration() *cst.Node {
	node := cst.NewNode(cst.KindVarDeclaration)
	p.addToken(node, p.advance()) // var

	if p.check(lexer.TokenIdentifier) {
		ident := cst.NewNode(cst.KindIdentifier)
		p.addToken(ident, p.advance())
		node.AddNode(ident)
	} else {
		node.AddNode(p.missingNodeAt(cst.KindIdentifier, "expected identifier after 'var'"))
	}

	if p.check(lexer.TokenColon) {
		p.addToken(node, p.advance())
		node.AddNode(p.parseTypeAnnotation())
	}

	if p.check(lexer.TokenAssign) {
		p.addToken(node, p.advance())
		init := cst.NewNode(cst.KindInitializer)
		init.AddNode(p.parseExpression())
		node.AddNode(init)
	}

	p.consume(node, lexer.TokenSemicolon, "variable declaration")
	return node
}

// parseFunctionDeclaration parses:
// fn IDENT "(" parameters ")" ("->" type)? block
func (p *Parser) parseFunctionDeclaration() *cst.Node {
	node := cst.NewNode(cst.KindFunctionDeclaration)
	fnTok := p.advance()
	p.addToken(node, fnTok)

	if p.check(lexer.TokenIdentifier) {
		ident := cst.NewNode(cst.KindIdentifier)
		p.addToken(ident, p.advance())
		node.AddNode(ident)
	} else {
		node.AddNode(p.missingNodeAt(cst.KindIdentifier, "expected function name after 'fn'"))
	}

	p.consume(node, lexer.TokenLParen, "function declaration")
	node.AddNode(p.parseParameterList())
	p.consume(node, lexer.TokenRParen, "function parameters")

	if p.check(lexer.TokenArrow) {
		p.addToken(node, p.advance())
		node.AddNode(p.parseTypeAnnotation())
	}

	p.pushBlockContext("function body", fnTok)
	node.AddNode(p.parseBlock("function body"))
	p.popBlockContext()
	return node
}

func (p *Parser) parseParameterList() *cst.Node {
	list := cst.NewNode(cst.KindParameterList)
	if p.check(lexer.TokenRParen) {
		return list
	}
	for {
		param := cst.NewNode(cst.KindParameter)
		if p.check(lexer.TokenIdentifier) {
			ident := cst.NewNode(cst.KindIdentifier)
			p.addToken(ident, p.advance())
			param.AddNode(ident)
		} else {
			param.AddNode(p.missingNodeAt(cst.KindIdentifier, "expected parameter name"))
		}
		if p.consume(param, lexer.TokenColon, "parameter") {
			param.AddNode(p.parseTypeAnnotation())
		}
		list.AddNode(param)

		if !p.check(lexer.TokenComma) {
			break
		}
		p.addToken(list, p.advance())
	}
	return list
}

// parseClassDeclaration parses: class IDENT "{" (varDecl | fnDecl)* "}"
func (p *Parser) parseClassDeclaration() *cst.Node {
	node := cst.NewNode(cst.KindClassDeclaration)
	classTok := p.advance()
	p.addToken(node, classTok)

	if p.check(lexer.TokenIdentifier) {
		ident := cst.NewNode(cst.KindIdentifier)
		p.addToken(ident, p.advance())
		node.AddNode(ident)
	} else {
		node.AddNode(p.missingNodeAt(cst.KindIdentifier, "expected class name after 'class'"))
	}

	p.pushBlockContext("class body", classTok)
	body := cst.NewNode(cst.KindBlock)
	p.consume(body, lexer.TokenLBrace, "class body")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TokenVar:
			body.AddNode(p.parseVarDeclaration())
		case lexer.TokenFn:
			body.AddNode(p.parseFunctionDeclaration())
		default:
			body.AddNode(p.errorNodeAt(fmt.Sprintf(
				"expected field or method in class body, found %q", p.peek().Lexeme)))
		}
	}
	p.consume(body, lexer.TokenRBrace, "class body")
	p.popBlockContext()
	node.AddNode(body)
	return node
}

// parseIfStatement parses: if "(" expr ")" statement ("else" statement)?
func (p *Parser) parseIfStatement() *cst.Node {
	node := cst.NewNode(cst.KindIfStatement)
	ifTok := p.advance()
	p.addToken(node, ifTok)

	p.consume(node, lexer.TokenLParen, "if statement")
	cond := cst.NewNode(cst.KindCondition)
	cond.AddNode(p.parseExpression())
	node.AddNode(cond)
	p.consume(node, lexer.TokenRParen, "if condition")

	p.pushBlockContext("if body", ifTok)
	node.AddNode(p.parseStatement())
	p.popBlockContext()

	if p.check(lexer.TokenElse) {
		p.addToken(node, p.advance())
		node.AddNode(p.parseStatement())
	}
	return node
}

func (p *Parser) parseWhileStatement() *cst.Node {
	node := cst.NewNode(cst.KindWhileStatement)
	whileTok := p.advance()
	p.addToken(node, whileTok)

	p.consume(node, lexer.TokenLParen, "while statement")
	cond := cst.NewNode(cst.KindCondition)
	cond.AddNode(p.parseExpression())
	node.AddNode(cond)
	p.consume(node, lexer.TokenRParen, "while condition")

	p.pushBlockContext("while body", whileTok)
	node.AddNode(p.parseStatement())
	p.popBlockContext()
	return node
}

// parseForStatement parses the three-clause loop:
// for "(" (varDecl | exprStmt | ";") expr? ";" expr? ")" statement
func (p *Parser) parseForStatement() *cst.Node {
	node := cst.NewNode(cst.KindForStatement)
	forTok := p.advance()
	p.addToken(node, forTok)

	p.consume(node, lexer.TokenLParen, "for statement")

	init := cst.NewNode(cst.KindInitializer)
	switch p.peek().Type {
	case lexer.TokenSemicolon:
		p.addToken(init, p.advance())
	case lexer.TokenVar:
		init.AddNode(p.parseVarDeclaration())
	default:
		init.AddNode(p.parseExpressionStatement())
	}
	node.AddNode(init)

	cond := cst.NewNode(cst.KindCondition)
	if !p.check(lexer.TokenSemicolon) {
		cond.AddNode(p.parseExpression())
	}
	node.AddNode(cond)
	p.consume(node, lexer.TokenSemicolon, "for condition")

	if !p.check(lexer.TokenRParen) {
		node.AddNode(p.parseExpression())
	}
	p.consume(node, lexer.TokenRParen, "for clauses")

	p.pushBlockContext("for body", forTok)
	node.AddNode(p.parseStatement())
	p.popBlockContext()
	return node
}

func (p *Parser) parseReturnStatement() *cst.Node {
	node := cst.NewNode(cst.KindReturnStatement)
	p.addToken(node, p.advance())
	if !p.check(lexer.TokenSemicolon) {
		node.AddNode(p.parseExpression())
	}
	p.consume(node, lexer.TokenSemicolon, "return statement")
	return node
}

func (p *Parser) parseSimpleStatement(kind cst.NodeKind) *cst.Node {
	node := cst.NewNode(kind)
	p.addToken(node, p.advance())
	p.consume(node, lexer.TokenSemicolon, "statement")
	return node
}

// parsePrintStatement parses: print "(" arguments ")" ";"
func (p *Parser) parsePrintStatement() *cst.Node {
	node := cst.NewNode(cst.KindPrintStatement)
	p.addToken(node, p.advance())

	p.consume(node, lexer.TokenLParen, "print statement")
	args := cst.NewNode(cst.KindArgumentList)
	if !p.check(lexer.TokenRParen) {
		for {
			arg := cst.NewNode(cst.KindArgument)
			arg.AddNode(p.parseExpression())
			args.AddNode(arg)
			if !p.check(lexer.TokenComma) {
				break
			}
			p.addToken(args, p.advance())
		}
	}
	node.AddNode(args)
	p.consume(node, lexer.TokenRParen, "print arguments")
	p.consume(node, lexer.TokenSemicolon, "print statement")
	return node
}

func (p *Parser) parseBlock(context string) *cst.Node {
	node := cst.NewNode(cst.KindBlockStatement)
	braceTok := p.peek()
	p.consume(node, lexer.TokenLBrace, context)
	p.pushBlockContext(context, braceTok)
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		before := p.current
		node.AddNode(p.parseStatement())
		if p.current == before {
			node.AddNode(p.errorNodeAt(fmt.Sprintf("unexpected token %q in %s", p.peek().Lexeme, context)))
			if p.current == before && !p.isAtEnd() {
				p.advance()
			}
		}
	}
	p.popBlockContext()
	p.consume(node, lexer.TokenRBrace, context)
	return node
}

func (p *Parser) parseExpressionStatement() *cst.Node {
	node := cst.NewNode(cst.KindExpressionStatement)
	node.AddNode(p.parseExpression())
	p.consume(node, lexer.TokenSemicolon, "expression statement")
	return node
}

// ===== Expressions (precedence climbing) =====

func (p *Parser) parseExpression() *cst.Node {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() *cst.Node {
	left := p.parseLogicalOr()
	if p.check(lexer.TokenAssign) {
		node := cst.NewNode(cst.KindAssignmentExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseAssignment())
		return node
	}
	return left
}

func (p *Parser) parseLogicalOr() *cst.Node {
	left := p.parseLogicalAnd()
	for p.check(lexer.TokenOr) {
		node := cst.NewNode(cst.KindLogicalExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseLogicalAnd())
		left = node
	}
	return left
}

func (p *Parser) parseLogicalAnd() *cst.Node {
	left := p.parseEquality()
	for p.check(lexer.TokenAnd) {
		node := cst.NewNode(cst.KindLogicalExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseEquality())
		left = node
	}
	return left
}

func (p *Parser) parseEquality() *cst.Node {
	left := p.parseComparison()
	for p.check(lexer.TokenEq) || p.check(lexer.TokenNe) {
		node := cst.NewNode(cst.KindBinaryExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseComparison())
		left = node
	}
	return left
}

func (p *Parser) parseComparison() *cst.Node {
	left := p.parseTerm()
	for p.check(lexer.TokenLt) || p.check(lexer.TokenLe) ||
		p.check(lexer.TokenGt) || p.check(lexer.TokenGe) {
		node := cst.NewNode(cst.KindBinaryExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseTerm())
		left = node
	}
	return left
}

func (p *Parser) parseTerm() *cst.Node {
	left := p.parseFactor()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		node := cst.NewNode(cst.KindBinaryExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseFactor())
		left = node
	}
	return left
}

func (p *Parser) parseFactor() *cst.Node {
	left := p.parseUnary()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) || p.check(lexer.TokenPercent) {
		node := cst.NewNode(cst.KindBinaryExpr)
		node.AddNode(left)
		p.addToken(node, p.advance())
		node.AddNode(p.parseUnary())
		left = node
	}
	return left
}

func (p *Parser) parseUnary() *cst.Node {
	if p.check(lexer.TokenBang) || p.check(lexer.TokenMinus) {
		node := cst.NewNode(cst.KindUnaryExpr)
		p.addToken(node, p.advance())
		node.AddNode(p.parseUnary())
		return node
	}
	return p.parseCall()
}

func (p *Parser) parseCall() *cst.Node {
	expr := p.parsePrimary()
	for {
		switch p.peek().Type {
		case lexer.TokenLParen:
			node := cst.NewNode(cst.KindCallExpr)
			node.AddNode(expr)
			p.addToken(node, p.advance())
			args := cst.NewNode(cst.KindArgumentList)
			if !p.check(lexer.TokenRParen) {
				for {
					arg := cst.NewNode(cst.KindArgument)
					arg.AddNode(p.parseExpression())
					args.AddNode(arg)
					if !p.check(lexer.TokenComma) {
						break
					}
					p.addToken(args, p.advance())
				}
			}
			node.AddNode(args)
			p.consume(node, lexer.TokenRParen, "call arguments")
			expr = node
		case lexer.TokenDot:
			node := cst.NewNode(cst.KindMemberExpr)
			node.AddNode(expr)
			p.addToken(node, p.advance())
			if p.check(lexer.TokenIdentifier) {
				ident := cst.NewNode(cst.KindIdentifier)
				p.addToken(ident, p.advance())
				node.AddNode(ident)
			} else {
				node.AddNode(p.missingNodeAt(cst.KindIdentifier, "expected member name after '.'"))
			}
			expr = node
		case lexer.TokenLBracket:
			node := cst.NewNode(cst.KindIndexExpr)
			node.AddNode(expr)
			p.addToken(node, p.advance())
			node.AddNode(p.parseExpression())
			p.consume(node, lexer.TokenRBracket, "index expression")
			expr = node
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() *cst.Node {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenInteger, lexer.TokenFloat, lexer.TokenString,
		lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNil:
		node := cst.NewNode(cst.KindLiteralExpr)
		p.addToken(node, p.advance())
		return node
	case lexer.TokenIdentifier:
		node := cst.NewNode(cst.KindVariableExpr)
		p.addToken(node, p.advance())
		return node
	case lexer.TokenLParen:
		node := cst.NewNode(cst.KindGroupingExpr)
		p.addToken(node, p.advance())
		node.AddNode(p.parseExpression())
		p.consume(node, lexer.TokenRParen, "grouping expression")
		return node
	case lexer.TokenLBracket:
		node := cst.NewNode(cst.KindListExpr)
		p.addToken(node, p.advance())
		if !p.check(lexer.TokenRBracket) {
			for {
				node.AddNode(p.parseExpression())
				if !p.check(lexer.TokenComma) {
					break
				}
				p.addToken(node, p.advance())
			}
		}
		p.consume(node, lexer.TokenRBracket, "list literal")
		return node
	default:
		return p.errorNodeAt(fmt.Sprintf("expected expression, found %s %q", tok.Type, tok.Lexeme))
	}
}

// ===== Type annotations =====

// parseTypeAnnotation parses builtin, user, and generic type notations:
// int, str, Person, list<int>, dict<str, int>, Option<T>
func (p *Parser) parseTypeAnnotation() *cst.Node {
	tok := p.peek()
	if tok.Type != lexer.TokenIdentifier {
		return p.missingNodeAt(cst.KindUserType, fmt.Sprintf(
			"expected type name, found %s %q", tok.Type, tok.Lexeme))
	}

	kind := typeKindForName(tok.Lexeme)
	node := cst.NewNode(kind)
	p.addToken(node, p.advance())

	// Generic arguments: name "<" type ("," type)* ">"
	if p.check(lexer.TokenLt) && isGenericHead(kind) {
		p.addToken(node, p.advance())
		for {
			node.AddNode(p.parseTypeAnnotation())
			if !p.check(lexer.TokenComma) {
				break
			}
			p.addToken(node, p.advance())
		}
		p.consume(node, lexer.TokenGt, "type arguments")
	}
	return node
}

func typeKindForName(name string) cst.NodeKind {
	switch name {
	case "int", "uint", "float", "bool", "str", "void":
		return cst.KindPrimitiveType
	case "list":
		return cst.KindListType
	case "dict":
		return cst.KindDictType
	case "array":
		return cst.KindArrayType
	case "Option":
		return cst.KindOptionType
	case "Result":
		return cst.KindResultType
	default:
		return cst.KindUserType
	}
}

func isGenericHead(kind cst.NodeKind) bool {
	switch kind {
	case cst.KindListType, cst.KindDictType, cst.KindArrayType,
		cst.KindOptionType, cst.KindResultType, cst.KindUserType:
		return true
	}
	return false
}
