package parser

import (
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/lexer"
)

// initGrammar registers the declarative Lumina grammar. The table mirrors
// the hand-written descent and backs the rule-execution API; rules are
// built once via the factory and never mutated afterward.
func (p *Parser) initGrammar() {
	g := p.grammar

	// Terminals
	g.Token("semicolon", lexer.TokenSemicolon)
	g.Token("colon", lexer.TokenColon)
	g.Token("comma", lexer.TokenComma)
	g.Token("assign", lexer.TokenAssign)
	g.Token("lparen", lexer.TokenLParen)
	g.Token("rparen", lexer.TokenRParen)
	g.Token("lbrace", lexer.TokenLBrace)
	g.Token("rbrace", lexer.TokenRBrace)
	g.Token("arrow", lexer.TokenArrow)
	g.Keyword("varKw", "var")
	g.Keyword("fnKw", "fn")
	g.Keyword("classKw", "class")
	g.Keyword("returnKw", "return")
	g.Identifier("identifier")
	g.Literal("literal")

	// Types: a type name with optional generic arguments is handled by
	// a custom rule because the kind depends on the name.
	g.Add(NewRule("typeName", func(ctx *ParseContext) RuleResult {
		tok := ctx.Peek()
		if tok.Type != lexer.TokenIdentifier {
			return RuleResult{ErrorMessage: "expected type name"}
		}
		ctx.Advance()
		node := cst.NewNode(typeKindForName(tok.Lexeme))
		node.AddToken(tok)
		return RuleResult{CST: node, Success: true}
	}, Terminal()))

	// Expressions are parsed by the precedence-climbing descent; the
	// grammar exposes them as an opaque rule so composite rules can
	// reference "expression" by name. Not cacheable: the rule reads the
	// parser cursor through the context and may report diagnostics.
	g.Add(NewRule("expression", func(ctx *ParseContext) RuleResult {
		sub := New(ctx.Tokens, p.collector, WithMode(CSTOnly), WithRecovery(p.recovery))
		sub.current = ctx.Pos()
		node := sub.parseExpression()
		if node == nil || node.Kind == cst.KindErrorNode {
			return RuleResult{ErrorMessage: "expected expression"}
		}
		ctx.SetPos(sub.current)
		return RuleResult{CST: node, Success: true}
	}, NoCache()))

	// Composite productions
	g.Sequence("typeAnnotation", cst.KindAnnotation, "colon", "typeName")
	g.Optional("optTypeAnnotation", "typeAnnotation")
	g.Sequence("initializer", cst.KindInitializer, "assign", "expression")
	g.Optional("optInitializer", "initializer")
	g.Sequence("varDecl", cst.KindVarDeclaration,
		"varKw", "identifier", "optTypeAnnotation", "optInitializer", "semicolon")

	g.Sequence("parameter", cst.KindParameter, "identifier", "colon", "typeName")
	g.Separated("parameterList", cst.KindParameterList, "parameter", "comma")
	g.Optional("optParameterList", "parameterList")
	g.Sequence("returnClause", cst.KindAnnotation, "arrow", "typeName")
	g.Optional("optReturnClause", "returnClause")

	g.Sequence("exprStmt", cst.KindExpressionStatement, "expression", "semicolon")
	g.Sequence("returnStmt", cst.KindReturnStatement, "returnKw", "expression", "semicolon")
	g.Choice("statement", "varDecl", "returnStmt", "exprStmt")
	g.ZeroOrMore("statementList", cst.KindStatementList, "statement")
	g.Sequence("block", cst.KindBlockStatement, "lbrace", "statementList", "rbrace")

	g.Sequence("fnDecl", cst.KindFunctionDeclaration,
		"fnKw", "identifier", "lparen", "optParameterList", "rparen",
		"optReturnClause", "block")

	g.Choice("declaration", "fnDecl", "varDecl")
	g.ZeroOrMore("program", cst.KindProgram, "statement")
}
