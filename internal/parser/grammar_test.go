package parser

import (
	"strings"
	"testing"

	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
)

func tokensFor(t *testing.T, src string) []lexer.Token {
	t.Helper()
	c := diagnostics.NewCollector(100)
	return lexer.New("test.lum", src, c).ScanAll()
}

func TestMemoizationIdempotence(t *testing.T) {
	g := NewGrammarTable()
	executions := 0
	g.Add(NewRule("counted", func(ctx *ParseContext) RuleResult {
		executions++
		tok := ctx.Peek()
		if tok.Type != lexer.TokenIdentifier {
			return RuleResult{ErrorMessage: "expected identifier"}
		}
		ctx.Advance()
		node := cst.NewNode(cst.KindIdentifier)
		node.AddToken(tok)
		return RuleResult{CST: node, Success: true}
	}))

	tokens := tokensFor(t, "abc")
	ctx := NewParseContext(CSTOnly, tokens, 100)

	first := g.Execute("counted", ctx)
	if !first.Success {
		t.Fatalf("first execution failed: %s", first.ErrorMessage)
	}
	endPos := ctx.Pos()

	// Second probe at position 0, as a second choice branch would do.
	ctx.SetPos(0)
	second := g.Execute("counted", ctx)

	if executions != 1 {
		t.Errorf("rule executed %d times, cache should have served the second call", executions)
	}
	if !second.Success || second.CST != first.CST {
		t.Error("cached result differs from original")
	}
	if ctx.Pos() != endPos {
		t.Errorf("cache hit left cursor at %d, want %d", ctx.Pos(), endPos)
	}
	if ctx.Stats().CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", ctx.Stats().CacheHits)
	}
}

func TestNoCacheRuleReExecutes(t *testing.T) {
	g := NewGrammarTable()
	executions := 0
	g.Add(NewRule("uncached", func(ctx *ParseContext) RuleResult {
		executions++
		return RuleResult{Success: true}
	}, NoCache()))

	ctx := NewParseContext(CSTOnly, tokensFor(t, "x"), 100)
	g.Execute("uncached", ctx)
	g.Execute("uncached", ctx)
	if executions != 2 {
		t.Errorf("nocache rule executed %d times, want 2", executions)
	}
}

func TestChoiceResetsPositionAfterFailedAlternative(t *testing.T) {
	// ruleA consumes two tokens then fails; ruleB succeeds from the
	// original position. The combinator must not leak ruleA's consumption.
	g := NewGrammarTable()
	g.Add(NewRule("ruleA", func(ctx *ParseContext) RuleResult {
		ctx.Advance()
		ctx.Advance()
		return RuleResult{ErrorMessage: "ruleA always fails"}
	}, NoCache()))
	g.Add(NewRule("ruleB", func(ctx *ParseContext) RuleResult {
		tok := ctx.Advance()
		node := cst.NewNode(cst.KindIdentifier)
		node.AddToken(tok)
		return RuleResult{CST: node, Success: true}
	}, NoCache()))
	g.Choice("either", "ruleA", "ruleB")

	tokens := tokensFor(t, "a b c")
	ctx := NewParseContext(CSTOnly, tokens, 100)
	res := g.Execute("either", ctx)

	if !res.Success {
		t.Fatalf("choice failed: %s", res.ErrorMessage)
	}
	// ruleB consumed exactly one significant token: "a".
	got := res.CST.SignificantTokens()
	if len(got) != 1 || got[0].Lexeme != "a" {
		t.Errorf("choice result tokens: %v", got)
	}
	if ctx.Peek().Lexeme != "b" {
		t.Errorf("cursor at %q after choice, want \"b\"", ctx.Peek().Lexeme)
	}
}

func TestChoiceFailureNamesAllAlternatives(t *testing.T) {
	g := NewGrammarTable()
	fail := func(ctx *ParseContext) RuleResult { return RuleResult{ErrorMessage: "no"} }
	g.Add(NewRule("alpha", fail))
	g.Add(NewRule("beta", fail))
	g.Choice("both", "alpha", "beta")

	ctx := NewParseContext(CSTOnly, tokensFor(t, "x"), 100)
	res := g.Execute("both", ctx)
	if res.Success {
		t.Fatal("expected failure")
	}
	for _, name := range []string{"alpha", "beta"} {
		if !strings.Contains(res.ErrorMessage, name) {
			t.Errorf("failure message %q does not name %s", res.ErrorMessage, name)
		}
	}
}

func TestSequenceFailureRecordsRuleError(t *testing.T) {
	g := NewGrammarTable()
	g.Keyword("varKw", "var")
	g.Identifier("name")
	g.Token("semicolon", lexer.TokenSemicolon)
	g.Sequence("decl", cst.KindVarDeclaration, "varKw", "name", "semicolon")

	ctx := NewParseContext(CSTOnly, tokensFor(t, "var x"), 100)
	res := g.Execute("decl", ctx)
	if res.Success {
		t.Fatal("expected the sequence to fail without a terminator")
	}
	if !ctx.HasErrors() {
		t.Fatal("a committed sequence failure must be recorded on the context")
	}
	msg := ctx.Errors()[0]
	if !strings.Contains(msg, "decl") || !strings.Contains(msg, "semicolon") {
		t.Errorf("error should name the rule and the failed element, got %q", msg)
	}
}

func TestSequenceAndSeparated(t *testing.T) {
	g := NewGrammarTable()
	g.Identifier("ident")
	g.Token("comma", lexer.TokenComma)
	g.Separated("idents", cst.KindArgumentList, "ident", "comma")

	ctx := NewParseContext(CSTOnly, tokensFor(t, "a, b, c"), 100)
	res := g.Execute("idents", ctx)
	if !res.Success {
		t.Fatalf("separated failed: %s", res.ErrorMessage)
	}
	if got := len(res.CST.FindChildren(cst.KindIdentifier)); got != 3 {
		t.Errorf("expected 3 identifiers, got %d", got)
	}
}

func TestSeparatedDoesNotConsumeTrailingSeparator(t *testing.T) {
	g := NewGrammarTable()
	g.Identifier("ident")
	g.Token("comma", lexer.TokenComma)
	g.Separated("idents", cst.KindArgumentList, "ident", "comma")

	// "a, b," — the trailing comma must be left for the caller.
	ctx := NewParseContext(CSTOnly, tokensFor(t, "a, b,"), 100)
	res := g.Execute("idents", ctx)
	if !res.Success {
		t.Fatalf("separated failed: %s", res.ErrorMessage)
	}
	if ctx.Peek().Type != lexer.TokenComma {
		t.Errorf("cursor at %s, want trailing COMMA unconsumed", ctx.Peek().Type)
	}
}

func TestOptionalConsumesNothingOnFailure(t *testing.T) {
	g := NewGrammarTable()
	g.Token("colon", lexer.TokenColon)
	g.Optional("optColon", "colon")

	ctx := NewParseContext(CSTOnly, tokensFor(t, "x"), 100)
	res := g.Execute("optColon", ctx)
	if !res.Success {
		t.Fatal("optional must succeed when element fails")
	}
	if ctx.Pos() != 0 {
		t.Errorf("optional consumed %d tokens on failure", ctx.Pos())
	}
}

func TestZeroOrMoreAndOneOrMore(t *testing.T) {
	g := NewGrammarTable()
	g.Identifier("ident")
	g.ZeroOrMore("many", cst.KindStatementList, "ident")
	g.OneOrMore("some", cst.KindStatementList, "ident")

	ctx := NewParseContext(CSTOnly, tokensFor(t, "1"), 100)
	if res := g.Execute("many", ctx); !res.Success {
		t.Error("zeroOrMore must succeed on zero matches")
	}
	if res := g.Execute("some", ctx); res.Success {
		t.Error("oneOrMore must fail on zero matches")
	}

	ctx2 := NewParseContext(CSTOnly, tokensFor(t, "a b c"), 100)
	res := g.Execute("some", ctx2)
	if !res.Success {
		t.Fatalf("oneOrMore failed: %s", res.ErrorMessage)
	}
	if got := len(res.CST.FindChildren(cst.KindIdentifier)); got != 3 {
		t.Errorf("expected 3 matches, got %d", got)
	}
}

func TestFindCircularDependencies(t *testing.T) {
	g := NewGrammarTable()
	noop := func(ctx *ParseContext) RuleResult { return RuleResult{Success: true} }
	g.Add(NewRule("a", noop, DependsOn("b")))
	g.Add(NewRule("b", noop, DependsOn("c")))
	g.Add(NewRule("c", noop, DependsOn("a")))
	g.Add(NewRule("standalone", noop))

	cyc := g.FindCircularDependencies()
	if len(cyc) != 3 {
		t.Fatalf("expected 3 rules in cycle, got %v", cyc)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !containsStr(cyc, name) {
			t.Errorf("cycle missing %s: %v", name, cyc)
		}
	}
	if err := g.Validate(); err == nil {
		t.Error("Validate should report the cycle")
	}
}

func TestFindMissingRules(t *testing.T) {
	g := NewGrammarTable()
	noop := func(ctx *ParseContext) RuleResult { return RuleResult{Success: true} }
	g.Add(NewRule("a", noop, DependsOn("ghost")))
	missing := g.FindMissingRules()
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Errorf("missing rules: %v", missing)
	}
}

func TestDefaultGrammarValidates(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, ""), c, WithMode(CSTOnly))
	if err := p.Grammar().Validate(); err != nil {
		t.Errorf("default grammar invalid: %v", err)
	}
}

func TestGrammarVarDeclRule(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "var x: int = 5;"), c, WithMode(CSTOnly))
	res := p.ParseRule("varDecl")
	if !res.Success {
		t.Fatalf("varDecl rule failed: %s", res.ErrorMessage)
	}
	if res.CST.Kind != cst.KindVarDeclaration {
		t.Errorf("kind %s", res.CST.Kind)
	}
	if res.CST.FindChild(cst.KindIdentifier) == nil {
		t.Error("missing identifier child")
	}
	if res.CST.FindChild(cst.KindInitializer) == nil {
		t.Error("missing initializer child")
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
