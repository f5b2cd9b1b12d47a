package parser

import (
	"fmt"
	"strconv"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
	"github.com/lumina-lang/lumina/internal/position"
)

// Direct AST production. In DirectAST mode the parser builds AST nodes
// straight from the token stream: no CST is allocated and trivia is
// dropped at the cursor. Grammar and precedence mirror the CST path.

func spanOf(start, end lexer.Token) position.Span {
	return position.Span{Start: start.Start, End: end.End}
}

// parseRuleAST serves rule execution in DirectAST mode through the
// descent, so a rule result carries an AST node instead of a CST node.
// Rules with a leading keyword fail without consuming when the keyword
// is absent, matching the no-leak policy of the grammar table.
func (p *Parser) parseRuleAST(name string) RuleResult {
	type gate struct {
		tt    lexer.TokenType
		parse func() ast.Node
	}
	gates := map[string]gate{
		"varDecl":    {lexer.TokenVar, func() ast.Node { return p.parseVarDeclAST() }},
		"fnDecl":     {lexer.TokenFn, func() ast.Node { return p.parseFunctionDeclAST() }},
		"returnStmt": {lexer.TokenReturn, func() ast.Node { return p.parseReturnAST() }},
		"block":      {lexer.TokenLBrace, func() ast.Node { return p.parseBlockAST("block") }},
	}

	p.stats.RulesExecuted++
	start := p.current
	var node ast.Node
	switch name {
	case "program":
		node = p.parseProgramAST()
	case "statement", "declaration":
		if stmt := p.parseStatementAST(); stmt != nil {
			node = stmt
		}
	case "exprStmt":
		node = p.parseExprStatementAST()
	case "expression":
		node = p.parseExpressionAST()
	default:
		g, ok := gates[name]
		if !ok {
			return RuleResult{ErrorMessage: fmt.Sprintf("rule %q has no direct form", name)}
		}
		if !p.check(g.tt) {
			return RuleResult{ErrorMessage: fmt.Sprintf(
				"%s: expected %s, found %q", name, g.tt, p.peek().Lexeme)}
		}
		node = g.parse()
	}
	if node == nil {
		p.current = start
		return RuleResult{ErrorMessage: fmt.Sprintf("%s: no match", name)}
	}
	return RuleResult{AST: node, Success: true, TokensConsumed: p.current - start}
}

func (p *Parser) parseProgramAST() *ast.Program {
	first := p.peek()
	program := &ast.Program{}
	program.Line = first.Line
	for !p.isAtEnd() {
		if !p.shouldContinueParsing() {
			break
		}
		before := p.current
		if stmt := p.parseStatementAST(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if p.current == before {
			p.reportError(fmt.Sprintf("unexpected token %q", p.peek().Lexeme))
			p.synchronize()
			if p.current == before && !p.isAtEnd() {
				p.advance()
			}
		}
	}
	last := p.peek()
	program.Span = spanOf(first, last)
	return program
}

func (p *Parser) parseStatementAST() ast.Statement {
	switch p.peek().Type {
	case lexer.TokenVar:
		return p.parseVarDeclAST()
	case lexer.TokenFn:
		return p.parseFunctionDeclAST()
	case lexer.TokenClass:
		return p.parseClassDeclAST()
	case lexer.TokenIf:
		return p.parseIfAST()
	case lexer.TokenWhile:
		return p.parseWhileAST()
	case lexer.TokenFor:
		return p.parseForAST()
	case lexer.TokenReturn:
		return p.parseReturnAST()
	case lexer.TokenBreak:
		tok := p.advance()
		stmt := &ast.BreakStatement{}
		stmt.Line, stmt.Span = tok.Line, spanOf(tok, tok)
		p.expectSemicolon("break statement")
		return stmt
	case lexer.TokenContinue:
		tok := p.advance()
		stmt := &ast.ContinueStatement{}
		stmt.Line, stmt.Span = tok.Line, spanOf(tok, tok)
		p.expectSemicolon("continue statement")
		return stmt
	case lexer.TokenPrint:
		return p.parsePrintAST()
	case lexer.TokenLBrace:
		return p.parseBlockAST("block")
	default:
		return p.parseExprStatementAST()
	}
}

// expectSemicolon consumes a statement terminator or reports its absence
func (p *Parser) expectSemicolon(context string) {
	if p.check(lexer.TokenSemicolon) {
		p.advance()
		return
	}
	p.reportError(fmt.Sprintf("%s: expected ';', found %q", context, p.peek().Lexeme))
}

func (p *Parser) parseVarDeclAST() *ast.VarDeclaration {
	varTok := p.advance()
	decl := &ast.VarDeclaration{}
	decl.Line = varTok.Line

	if p.check(lexer.TokenIdentifier) {
		decl.Name = p.advance().Lexeme
	} else {
		p.reportError("expected identifier after 'var'")
		decl.Name = "<missing>"
	}

	if p.check(lexer.TokenColon) {
		p.advance()
		decl.TypeAnn = p.parseTypeAnnotationAST()
	}
	if p.check(lexer.TokenAssign) {
		p.advance()
		decl.Initializer = p.parseExpressionAST()
	}

	end := p.peek()
	p.expectSemicolon("variable declaration")
	decl.Span = spanOf(varTok, end)
	return decl
}

func (p *Parser) parseFunctionDeclAST() *ast.FunctionDeclaration {
	fnTok := p.advance()
	decl := &ast.FunctionDeclaration{}
	decl.Line = fnTok.Line

	if p.check(lexer.TokenIdentifier) {
		decl.Name = p.advance().Lexeme
	} else {
		p.reportError("expected function name after 'fn'")
		decl.Name = "<missing>"
	}

	if !p.check(lexer.TokenLParen) {
		p.reportError("function declaration: expected '('")
	} else {
		p.advance()
	}
	if !p.check(lexer.TokenRParen) {
		for {
			param := ast.Parameter{Line: p.peek().Line}
			if p.check(lexer.TokenIdentifier) {
				param.Name = p.advance().Lexeme
			} else {
				p.reportError("expected parameter name")
				param.Name = "<missing>"
			}
			if p.check(lexer.TokenColon) {
				p.advance()
				param.TypeAnn = p.parseTypeAnnotationAST()
			} else {
				p.reportError(fmt.Sprintf("parameter %q is missing a type annotation", param.Name))
			}
			decl.Params = append(decl.Params, param)
			if !p.check(lexer.TokenComma) {
				break
			}
			p.advance()
		}
	}
	if !p.check(lexer.TokenRParen) {
		p.reportError("function parameters: expected ')'")
	} else {
		p.advance()
	}

	if p.check(lexer.TokenArrow) {
		p.advance()
		decl.ReturnType = p.parseTypeAnnotationAST()
	}

	p.pushBlockContext("function body", fnTok)
	decl.Body = p.parseBlockAST("function body")
	p.popBlockContext()
	decl.Span = position.Span{Start: fnTok.Start, End: decl.Body.Span.End}
	return decl
}

func (p *Parser) parseClassDeclAST() *ast.ClassDeclaration {
	classTok := p.advance()
	decl := &ast.ClassDeclaration{}
	decl.Line = classTok.Line

	if p.check(lexer.TokenIdentifier) {
		decl.Name = p.advance().Lexeme
	} else {
		p.reportError("expected class name after 'class'")
		decl.Name = "<missing>"
	}

	p.pushBlockContext("class body", classTok)
	if !p.check(lexer.TokenLBrace) {
		p.reportError("class body: expected '{'")
	} else {
		p.advance()
	}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TokenVar:
			decl.Fields = append(decl.Fields, p.parseVarDeclAST())
		case lexer.TokenFn:
			decl.Methods = append(decl.Methods, p.parseFunctionDeclAST())
		default:
			p.reportError(fmt.Sprintf("expected field or method in class body, found %q", p.peek().Lexeme))
			p.synchronize()
			if p.check(lexer.TokenSemicolon) {
				p.advance()
			}
		}
	}
	end := p.peek()
	if p.check(lexer.TokenRBrace) {
		p.advance()
	}
	p.popBlockContext()
	decl.Span = spanOf(classTok, end)
	return decl
}

func (p *Parser) parseIfAST() *ast.IfStatement {
	ifTok := p.advance()
	stmt := &ast.IfStatement{}
	stmt.Line = ifTok.Line

	p.expectToken(lexer.TokenLParen, "if statement")
	stmt.Condition = p.parseExpressionAST()
	p.expectToken(lexer.TokenRParen, "if condition")

	p.pushBlockContext("if body", ifTok)
	stmt.ThenBranch = p.parseStatementAST()
	p.popBlockContext()

	if p.check(lexer.TokenElse) {
		p.advance()
		stmt.ElseBranch = p.parseStatementAST()
	}
	stmt.Span = position.Span{Start: ifTok.Start, End: p.previousEnd(ifTok)}
	return stmt
}

func (p *Parser) parseWhileAST() *ast.WhileStatement {
	whileTok := p.advance()
	stmt := &ast.WhileStatement{}
	stmt.Line = whileTok.Line

	p.expectToken(lexer.TokenLParen, "while statement")
	stmt.Condition = p.parseExpressionAST()
	p.expectToken(lexer.TokenRParen, "while condition")

	p.pushBlockContext("while body", whileTok)
	stmt.Body = p.parseStatementAST()
	p.popBlockContext()
	stmt.Span = position.Span{Start: whileTok.Start, End: p.previousEnd(whileTok)}
	return stmt
}

func (p *Parser) parseForAST() *ast.ForStatement {
	forTok := p.advance()
	stmt := &ast.ForStatement{}
	stmt.Line = forTok.Line

	p.expectToken(lexer.TokenLParen, "for statement")
	switch p.peek().Type {
	case lexer.TokenSemicolon:
		p.advance()
	case lexer.TokenVar:
		stmt.Initializer = p.parseVarDeclAST()
	default:
		stmt.Initializer = p.parseExprStatementAST()
	}
	if !p.check(lexer.TokenSemicolon) {
		stmt.Condition = p.parseExpressionAST()
	}
	p.expectToken(lexer.TokenSemicolon, "for condition")
	if !p.check(lexer.TokenRParen) {
		stmt.Increment = p.parseExpressionAST()
	}
	p.expectToken(lexer.TokenRParen, "for clauses")

	p.pushBlockContext("for body", forTok)
	stmt.Body = p.parseStatementAST()
	p.popBlockContext()
	stmt.Span = position.Span{Start: forTok.Start, End: p.previousEnd(forTok)}
	return stmt
}

func (p *Parser) parseReturnAST() *ast.ReturnStatement {
	retTok := p.advance()
	stmt := &ast.ReturnStatement{}
	stmt.Line = retTok.Line
	if !p.check(lexer.TokenSemicolon) {
		stmt.Value = p.parseExpressionAST()
	}
	end := p.peek()
	p.expectSemicolon("return statement")
	stmt.Span = spanOf(retTok, end)
	return stmt
}

func (p *Parser) parsePrintAST() *ast.PrintStatement {
	printTok := p.advance()
	stmt := &ast.PrintStatement{}
	stmt.Line = printTok.Line

	p.expectToken(lexer.TokenLParen, "print statement")
	if !p.check(lexer.TokenRParen) {
		for {
			stmt.Arguments = append(stmt.Arguments, p.parseExpressionAST())
			if !p.check(lexer.TokenComma) {
				break
			}
			p.advance()
		}
	}
	p.expectToken(lexer.TokenRParen, "print arguments")
	end := p.peek()
	p.expectSemicolon("print statement")
	stmt.Span = spanOf(printTok, end)
	return stmt
}

func (p *Parser) parseBlockAST(context string) *ast.BlockStatement {
	braceTok := p.peek()
	block := &ast.BlockStatement{}
	block.Line = braceTok.Line
	p.expectToken(lexer.TokenLBrace, context)
	p.pushBlockContext(context, braceTok)
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		before := p.current
		if stmt := p.parseStatementAST(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if p.current == before {
			p.reportError(fmt.Sprintf("unexpected token %q in %s", p.peek().Lexeme, context))
			p.synchronize()
			if p.current == before && !p.isAtEnd() {
				p.advance()
			}
		}
	}
	p.popBlockContext()
	end := p.peek()
	p.expectToken(lexer.TokenRBrace, context)
	block.Span = spanOf(braceTok, end)
	return block
}

func (p *Parser) parseExprStatementAST() *ast.ExprStatement {
	expr := p.parseExpressionAST()
	stmt := &ast.ExprStatement{Expr: expr}
	stmt.Line = expr.GetLine()
	stmt.Span = expr.GetSpan()
	p.expectSemicolon("expression statement")
	return stmt
}

func (p *Parser) expectToken(tt lexer.TokenType, context string) {
	if p.check(tt) {
		p.advance()
		return
	}
	p.reportError(fmt.Sprintf("%s: expected %s, found %q", context, tt, p.peek().Lexeme))
}

// previousEnd returns the end offset of the last consumed token, falling
// back to the given token when nothing was consumed yet
func (p *Parser) previousEnd(fallback lexer.Token) int {
	for i := p.current - 1; i >= 0; i-- {
		if !p.tokens[i].IsTrivia() {
			return p.tokens[i].End
		}
	}
	return fallback.End
}

// ===== Expressions =====

func (p *Parser) parseExpressionAST() ast.Expression {
	return p.parseAssignmentAST()
}

func (p *Parser) parseAssignmentAST() ast.Expression {
	left := p.parseLogicalOrAST()
	if !p.check(lexer.TokenAssign) {
		return left
	}
	eq := p.advance()
	value := p.parseAssignmentAST()

	assign := &ast.AssignExpr{Value: value}
	assign.Line = left.GetLine()
	assign.Span = position.Span{Start: left.GetSpan().Start, End: value.GetSpan().End}
	switch target := left.(type) {
	case *ast.VariableExpr:
		assign.Name = target.Name
	case *ast.MemberExpr:
		assign.Object = target.Object
		assign.Member = target.Name
	case *ast.IndexExpr:
		assign.Object = target.Object
		assign.Index = target.Index
	default:
		p.collector.Add(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityError,
			Stage:    diagnostics.StageParsing,
			Line:     eq.Line,
			Column:   eq.Column,
			Message:  "invalid assignment target",
		})
		return left
	}
	return assign
}

func (p *Parser) parseLogicalOrAST() ast.Expression {
	left := p.parseLogicalAndAST()
	for p.check(lexer.TokenOr) {
		op := p.advance()
		right := p.parseLogicalAndAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseLogicalAndAST() ast.Expression {
	left := p.parseEqualityAST()
	for p.check(lexer.TokenAnd) {
		op := p.advance()
		right := p.parseEqualityAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseEqualityAST() ast.Expression {
	left := p.parseComparisonAST()
	for p.check(lexer.TokenEq) || p.check(lexer.TokenNe) {
		op := p.advance()
		right := p.parseComparisonAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseComparisonAST() ast.Expression {
	left := p.parseTermAST()
	for p.check(lexer.TokenLt) || p.check(lexer.TokenLe) ||
		p.check(lexer.TokenGt) || p.check(lexer.TokenGe) {
		op := p.advance()
		right := p.parseTermAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseTermAST() ast.Expression {
	left := p.parseFactorAST()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := p.advance()
		right := p.parseFactorAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseFactorAST() ast.Expression {
	left := p.parseUnaryAST()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) || p.check(lexer.TokenPercent) {
		op := p.advance()
		right := p.parseUnaryAST()
		left = p.newBinary(left, op, right)
	}
	return left
}

func (p *Parser) newBinary(left ast.Expression, op lexer.Token, right ast.Expression) *ast.BinaryExpr {
	bin := &ast.BinaryExpr{Left: left, Op: op.Type, Right: right}
	bin.Line = left.GetLine()
	bin.Span = position.Span{Start: left.GetSpan().Start, End: right.GetSpan().End}
	return bin
}

func (p *Parser) parseUnaryAST() ast.Expression {
	if p.check(lexer.TokenBang) || p.check(lexer.TokenMinus) {
		op := p.advance()
		right := p.parseUnaryAST()
		un := &ast.UnaryExpr{Op: op.Type, Right: right}
		un.Line = op.Line
		un.Span = position.Span{Start: op.Start, End: right.GetSpan().End}
		return un
	}
	return p.parseCallAST()
}

func (p *Parser) parseCallAST() ast.Expression {
	expr := p.parsePrimaryAST()
	for {
		switch p.peek().Type {
		case lexer.TokenLParen:
			p.advance()
			call := &ast.CallExpr{Callee: expr}
			call.Line = expr.GetLine()
			if !p.check(lexer.TokenRParen) {
				for {
					call.Arguments = append(call.Arguments, p.parseExpressionAST())
					if !p.check(lexer.TokenComma) {
						break
					}
					p.advance()
				}
			}
			end := p.peek()
			p.expectToken(lexer.TokenRParen, "call arguments")
			call.Span = position.Span{Start: expr.GetSpan().Start, End: end.End}
			expr = call
		case lexer.TokenDot:
			p.advance()
			member := &ast.MemberExpr{Object: expr}
			member.Line = expr.GetLine()
			if p.check(lexer.TokenIdentifier) {
				nameTok := p.advance()
				member.Name = nameTok.Lexeme
				member.Span = position.Span{Start: expr.GetSpan().Start, End: nameTok.End}
			} else {
				p.reportError("expected member name after '.'")
				member.Name = "<missing>"
				member.Span = expr.GetSpan()
			}
			expr = member
		case lexer.TokenLBracket:
			p.advance()
			index := &ast.IndexExpr{Object: expr, Index: p.parseExpressionAST()}
			index.Line = expr.GetLine()
			end := p.peek()
			p.expectToken(lexer.TokenRBracket, "index expression")
			index.Span = position.Span{Start: expr.GetSpan().Start, End: end.End}
			expr = index
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimaryAST() ast.Expression {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenInteger:
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LiteralInt}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.reportError(fmt.Sprintf("invalid integer literal %q", tok.Lexeme))
		}
		lit.IntVal = v
		return lit
	case lexer.TokenFloat:
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LiteralFloat}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.reportError(fmt.Sprintf("invalid float literal %q", tok.Lexeme))
		}
		lit.FloatVal = v
		return lit
	case lexer.TokenString:
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LiteralString, StrVal: unquote(tok.Lexeme)}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		return lit
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LiteralBool, BoolVal: tok.Type == lexer.TokenTrue}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		return lit
	case lexer.TokenNil:
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LiteralNil}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		return lit
	case lexer.TokenIdentifier:
		p.advance()
		v := &ast.VariableExpr{Name: tok.Lexeme}
		v.Line, v.Span = tok.Line, spanOf(tok, tok)
		return v
	case lexer.TokenLBracket:
		p.advance()
		list := &ast.ListExpr{}
		list.Line = tok.Line
		if !p.check(lexer.TokenRBracket) {
			for {
				list.Elements = append(list.Elements, p.parseExpressionAST())
				if !p.check(lexer.TokenComma) {
					break
				}
				p.advance()
			}
		}
		end := p.peek()
		p.expectToken(lexer.TokenRBracket, "list literal")
		list.Span = spanOf(tok, end)
		return list
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseExpressionAST()
		end := p.peek()
		p.expectToken(lexer.TokenRParen, "grouping expression")
		grp := &ast.GroupingExpr{Expr: inner}
		grp.Line, grp.Span = tok.Line, spanOf(tok, end)
		return grp
	default:
		p.reportError(fmt.Sprintf("expected expression, found %s %q", tok.Type, tok.Lexeme))
		lit := &ast.LiteralExpr{Kind: ast.LiteralString,
			StrVal: fmt.Sprintf("<ERROR: expected expression, found %q>", tok.Lexeme)}
		lit.Line, lit.Span = tok.Line, spanOf(tok, tok)
		return lit
	}
}

// parseTypeAnnotationAST parses a type annotation into its AST form,
// including generic arguments for list, dict, array, Option, and Result
func (p *Parser) parseTypeAnnotationAST() *ast.TypeAnnotation {
	tok := p.peek()
	if tok.Type != lexer.TokenIdentifier {
		p.reportError(fmt.Sprintf("expected type name, found %s %q", tok.Type, tok.Lexeme))
		return &ast.TypeAnnotation{Name: "<missing>"}
	}
	p.advance()

	ann := annotationForName(tok.Lexeme)
	if p.check(lexer.TokenLt) {
		p.advance()
		var args []*ast.TypeAnnotation
		for {
			args = append(args, p.parseTypeAnnotationAST())
			if !p.check(lexer.TokenComma) {
				break
			}
			p.advance()
		}
		p.expectToken(lexer.TokenGt, "type arguments")
		applyTypeArgs(ann, args)
	}
	return ann
}

func annotationForName(name string) *ast.TypeAnnotation {
	switch name {
	case "int", "uint", "float", "bool", "str", "void":
		return &ast.TypeAnnotation{Name: name, IsPrimitive: true}
	case "list":
		return &ast.TypeAnnotation{Name: name, IsList: true}
	case "dict":
		return &ast.TypeAnnotation{Name: name, IsDict: true}
	case "array":
		return &ast.TypeAnnotation{Name: name, IsArray: true}
	case "Option", "Result", "None", "Some":
		return &ast.TypeAnnotation{Name: name}
	default:
		return &ast.TypeAnnotation{Name: name, IsUserDefined: true}
	}
}

func applyTypeArgs(ann *ast.TypeAnnotation, args []*ast.TypeAnnotation) {
	switch {
	case ann.IsList || ann.IsArray:
		if len(args) > 0 {
			ann.ElementType = args[0]
		}
	case ann.IsDict:
		if len(args) > 0 {
			ann.KeyType = args[0]
		}
		if len(args) > 1 {
			ann.ValueType = args[1]
		}
	default:
		ann.TypeArgs = args
	}
}

// unquote strips the surrounding quotes and decodes simple escapes
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	body := lexeme[1 : len(lexeme)-1]
	if s, err := strconv.Unquote(lexeme); err == nil {
		return s
	}
	return body
}
