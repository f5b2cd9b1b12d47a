package parser

import (
	"fmt"
	"strings"

	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/lexer"
)

// Rule combinators. Each constructs, registers, and returns a rule that
// composes other rules by name, so grammars read as data:
//
//	g.Sequence("varDecl", cst.KindVarDeclaration, "varKw", "name", "init")
//	g.Choice("statement", "varDecl", "ifStmt", "exprStmt")
//
// All combinators share one policy: a failed rule never leaks consumed
// tokens — the cursor is reset to where the rule started.

// Sequence matches every element in order and collects the results into a
// node of the given kind. If an element fails mid-sequence and partial
// nodes are enabled, an incomplete node holding the matched prefix is
// produced instead of discarding it.
func (g *GrammarTable) Sequence(name string, kind cst.NodeKind, elements ...string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		start := ctx.Pos()
		node := cst.NewNode(kind)
		for i, elem := range elements {
			res := g.Execute(elem, ctx)
			if !res.Success {
				if i > 0 {
					// The sequence had committed to this production.
					ctx.ReportError(fmt.Sprintf("%s: %s failed: %s", name, elem, res.ErrorMessage))
				}
				if ctx.Recovery.CreatePartialNodes && i > 0 {
					partial := cst.NewIncompleteNode(kind,
						fmt.Sprintf("incomplete %s: expected %s", name, elem),
						tokenOffset(ctx, start), tokenOffset(ctx, ctx.Pos()))
					for _, el := range node.Elements {
						if el.Node != nil {
							partial.AddNode(el.Node)
						} else if el.Token != nil {
							partial.AddToken(*el.Token)
						}
					}
					return RuleResult{CST: partial,
						ErrorMessage: fmt.Sprintf("%s: %s failed: %s", name, elem, res.ErrorMessage)}
				}
				return RuleResult{ErrorMessage: fmt.Sprintf("%s: %s failed: %s", name, elem, res.ErrorMessage)}
			}
			appendResult(node, res)
		}
		return RuleResult{CST: node, Success: true}
	}, DependsOn(elements...))
	g.Add(rule)
	return rule
}

// Choice tries each alternative in listed order; the first success wins.
// Position is reset between alternatives, so a failed alternative never
// affects the next one. When every alternative fails the diagnostic names
// them all.
func (g *GrammarTable) Choice(name string, alternatives ...string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		for _, alt := range alternatives {
			res := g.Execute(alt, ctx)
			if res.Success {
				return res
			}
		}
		return RuleResult{ErrorMessage: fmt.Sprintf(
			"%s: no alternative matched (tried %s)", name, strings.Join(alternatives, ", "))}
	}, DependsOn(alternatives...))
	g.Add(rule)
	return rule
}

// Optional succeeds with an empty result when the element fails,
// consuming nothing
func (g *GrammarTable) Optional(name string, element string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		res := g.Execute(element, ctx)
		if res.Success {
			return res
		}
		return RuleResult{Success: true}
	}, DependsOn(element))
	g.Add(rule)
	return rule
}

// ZeroOrMore matches the element repeatedly, succeeding even with zero
// matches. A successful match consuming no tokens terminates the loop to
// keep the parser making progress.
func (g *GrammarTable) ZeroOrMore(name string, kind cst.NodeKind, element string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		node := cst.NewNode(kind)
		for {
			before := ctx.Pos()
			res := g.Execute(element, ctx)
			if !res.Success || ctx.Pos() == before {
				break
			}
			appendResult(node, res)
		}
		return RuleResult{CST: node, Success: true}
	}, DependsOn(element))
	g.Add(rule)
	return rule
}

// OneOrMore is ZeroOrMore with at least one required match
func (g *GrammarTable) OneOrMore(name string, kind cst.NodeKind, element string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		first := g.Execute(element, ctx)
		if !first.Success {
			return RuleResult{ErrorMessage: fmt.Sprintf("%s: expected at least one %s: %s",
				name, element, first.ErrorMessage)}
		}
		node := cst.NewNode(kind)
		appendResult(node, first)
		for {
			before := ctx.Pos()
			res := g.Execute(element, ctx)
			if !res.Success || ctx.Pos() == before {
				break
			}
			appendResult(node, res)
		}
		return RuleResult{CST: node, Success: true}
	}, DependsOn(element))
	g.Add(rule)
	return rule
}

// Separated matches element (separator element)*. A trailing separator is
// not consumed: when the element after a separator fails, the cursor is
// reset to before that separator.
func (g *GrammarTable) Separated(name string, kind cst.NodeKind, element, separator string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		first := g.Execute(element, ctx)
		if !first.Success {
			return RuleResult{ErrorMessage: fmt.Sprintf("%s: %s", name, first.ErrorMessage)}
		}
		node := cst.NewNode(kind)
		appendResult(node, first)
		for {
			beforeSep := ctx.Pos()
			sep := g.Execute(separator, ctx)
			if !sep.Success {
				break
			}
			elem := g.Execute(element, ctx)
			if !elem.Success {
				ctx.SetPos(beforeSep)
				break
			}
			appendResult(node, sep)
			appendResult(node, elem)
		}
		return RuleResult{CST: node, Success: true}
	}, DependsOn(element, separator))
	g.Add(rule)
	return rule
}

// Token matches exactly one token of the given type
func (g *GrammarTable) Token(name string, tt lexer.TokenType) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		tok := ctx.Peek()
		if tok.Type != tt {
			return RuleResult{ErrorMessage: fmt.Sprintf("expected %s, found %s %q", tt, tok.Type, tok.Lexeme)}
		}
		ctx.Advance()
		return RuleResult{CST: cst.NewTokenNode(tok), Success: true}
	}, Terminal())
	g.Add(rule)
	return rule
}

// Keyword matches one token with the given keyword lexeme
func (g *GrammarTable) Keyword(name string, keyword string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		tok := ctx.Peek()
		if !tok.IsKeyword() || tok.Lexeme != keyword {
			return RuleResult{ErrorMessage: fmt.Sprintf("expected keyword %q, found %q", keyword, tok.Lexeme)}
		}
		ctx.Advance()
		return RuleResult{CST: cst.NewTokenNode(tok), Success: true}
	}, Terminal())
	g.Add(rule)
	return rule
}

// Identifier matches one identifier token
func (g *GrammarTable) Identifier(name string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		tok := ctx.Peek()
		if tok.Type != lexer.TokenIdentifier {
			return RuleResult{ErrorMessage: fmt.Sprintf("expected identifier, found %s %q", tok.Type, tok.Lexeme)}
		}
		ctx.Advance()
		node := cst.NewNode(cst.KindIdentifier)
		node.AddToken(tok)
		return RuleResult{CST: node, Success: true}
	}, Terminal())
	g.Add(rule)
	return rule
}

// Literal matches one literal token (integer, float, string, boolean, nil)
func (g *GrammarTable) Literal(name string) *Rule {
	rule := NewRule(name, func(ctx *ParseContext) RuleResult {
		tok := ctx.Peek()
		switch tok.Type {
		case lexer.TokenInteger, lexer.TokenFloat, lexer.TokenString,
			lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNil:
			ctx.Advance()
			node := cst.NewNode(cst.KindLiteral)
			node.AddToken(tok)
			return RuleResult{CST: node, Success: true}
		}
		return RuleResult{ErrorMessage: fmt.Sprintf("expected literal, found %s %q", tok.Type, tok.Lexeme)}
	}, Terminal())
	g.Add(rule)
	return rule
}

// appendResult folds a successful rule result into a parent node
func appendResult(parent *cst.Node, res RuleResult) {
	if res.CST == nil {
		return
	}
	// Token wrappers flatten into the parent to keep trees shallow.
	if res.CST.Kind == cst.KindTokenNode {
		for _, el := range res.CST.Elements {
			if el.Token != nil {
				parent.AddToken(*el.Token)
			}
		}
		return
	}
	parent.AddNode(res.CST)
}

// tokenOffset converts a token index into a byte offset for node spans
func tokenOffset(ctx *ParseContext, pos int) int {
	if pos < len(ctx.Tokens) {
		return ctx.Tokens[pos].Start
	}
	if len(ctx.Tokens) > 0 {
		return ctx.Tokens[len(ctx.Tokens)-1].End
	}
	return 0
}
