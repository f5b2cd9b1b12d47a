package parser

import (
	"strings"
	"testing"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
)

func parseCST(t *testing.T, src string) (*cst.Node, *diagnostics.Collector) {
	t.Helper()
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, src), c, WithMode(CSTOnly))
	return p.Parse().CST, c
}

func parseAST(t *testing.T, src string) (*ast.Program, *diagnostics.Collector) {
	t.Helper()
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, src), c, WithMode(DirectAST))
	return p.Parse().AST, c
}

func TestParseVarDeclarationCST(t *testing.T) {
	root, c := parseCST(t, "var x: int = 5;")
	if c.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", c.Format())
	}
	decl := root.FindChild(cst.KindVarDeclaration)
	if decl == nil {
		t.Fatal("no VAR_DECLARATION node")
	}
	if decl.FindChild(cst.KindIdentifier) == nil {
		t.Error("missing identifier child")
	}
	if decl.FindChild(cst.KindPrimitiveType) == nil {
		t.Error("missing primitive type child")
	}
	init := decl.FindChild(cst.KindInitializer)
	if init == nil || init.FindChild(cst.KindLiteralExpr) == nil {
		t.Error("missing initializer literal")
	}
}

func TestCSTReconstructsSource(t *testing.T) {
	src := "var x = 1;  // keep me\nfn main() -> int {\n  return x + 2;\n}\n"
	root, c := parseCST(t, src)
	if c.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", c.Format())
	}
	if got := root.ReconstructSource(); got != src {
		t.Errorf("lossless reconstruction failed:\n got %q\nwant %q", got, src)
	}
}

func TestSpanContainment(t *testing.T) {
	root, _ := parseCST(t, "fn f(a: int) { var y = a * 2; }")
	var check func(n *cst.Node)
	check = func(n *cst.Node) {
		for _, child := range n.ChildNodes() {
			if child.StartPos < n.StartPos || child.EndPos > n.EndPos {
				t.Errorf("%s [%d..%d] escapes parent %s [%d..%d]",
					child.Kind, child.StartPos, child.EndPos, n.Kind, n.StartPos, n.EndPos)
			}
			check(child)
		}
	}
	check(root)
}

func TestDirectASTVarDeclaration(t *testing.T) {
	// Scenario: a typed declaration lowers to one VarDeclaration with a
	// builtin primitive annotation and a literal initializer.
	prog, c := parseAST(t, "var x: int = 5;")
	if c.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", c.Format())
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("statement is %T", prog.Statements[0])
	}
	if decl.Name != "x" {
		t.Errorf("name %q", decl.Name)
	}
	if decl.TypeAnn == nil || decl.TypeAnn.Name != "int" || !decl.TypeAnn.IsPrimitive {
		t.Errorf("type annotation %v", decl.TypeAnn)
	}
	lit, ok := decl.Initializer.(*ast.LiteralExpr)
	if !ok || lit.Kind != ast.LiteralInt || lit.IntVal != 5 {
		t.Errorf("initializer %v", decl.Initializer)
	}
}

func TestDirectASTPrecedence(t *testing.T) {
	prog, _ := parseAST(t, "var r = 1 + 2 * 3;")
	decl := prog.Statements[0].(*ast.VarDeclaration)
	add, ok := decl.Initializer.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("initializer is %T", decl.Initializer)
	}
	if add.String() != "(1 + (2 * 3))" {
		t.Errorf("precedence shape: %s", add)
	}
}

func TestDirectASTLogicalChain(t *testing.T) {
	prog, _ := parseAST(t, "var r = a or b and c == d < e + f * !g;")
	decl := prog.Statements[0].(*ast.VarDeclaration)
	want := "(a or (b and (c == (d < (e + (f * (!g)))))))"
	if got := decl.Initializer.String(); got != want {
		t.Errorf("chain shape:\n got %s\nwant %s", got, want)
	}
}

func TestDirectASTFunctionAndCalls(t *testing.T) {
	src := `
fn add(a: int, b: int) -> int {
  return a + b;
}
var total = add(1, 2);
`
	prog, c := parseAST(t, src)
	if c.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", c.Format())
	}
	fn, ok := prog.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("first statement is %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("fn %q with %d params", fn.Name, len(fn.Params))
	}
	if fn.ReturnType == nil || fn.ReturnType.Name != "int" {
		t.Errorf("return type %v", fn.ReturnType)
	}
	decl := prog.Statements[1].(*ast.VarDeclaration)
	call, ok := decl.Initializer.(*ast.CallExpr)
	if !ok || len(call.Arguments) != 2 {
		t.Errorf("call %v", decl.Initializer)
	}
}

func TestDirectASTClassDeclaration(t *testing.T) {
	src := `
class Point {
  var x: int;
  var y: int;
  fn sum() -> int { return x + y; }
}
`
	prog, c := parseAST(t, src)
	if c.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", c.Format())
	}
	cls := prog.Statements[0].(*ast.ClassDeclaration)
	if cls.Name != "Point" || len(cls.Fields) != 2 || len(cls.Methods) != 1 {
		t.Errorf("class %q: %d fields, %d methods", cls.Name, len(cls.Fields), len(cls.Methods))
	}
}

func TestDirectASTGenericTypes(t *testing.T) {
	prog, _ := parseAST(t, "var m: dict<str, int>; var l: list<float>;")
	m := prog.Statements[0].(*ast.VarDeclaration)
	if !m.TypeAnn.IsDict || m.TypeAnn.KeyType.Name != "str" || m.TypeAnn.ValueType.Name != "int" {
		t.Errorf("dict annotation %v", m.TypeAnn)
	}
	l := prog.Statements[1].(*ast.VarDeclaration)
	if !l.TypeAnn.IsList || l.TypeAnn.ElementType.Name != "float" {
		t.Errorf("list annotation %v", l.TypeAnn)
	}
}

func TestMissingIdentifierProducesMissingNode(t *testing.T) {
	root, c := parseCST(t, "var = 5;")
	if !c.HasErrors() {
		t.Fatal("expected a diagnostic")
	}
	decl := root.FindChild(cst.KindVarDeclaration)
	if decl == nil {
		t.Fatal("no VAR_DECLARATION node")
	}
	missing := decl.FindChild(cst.KindMissingNode)
	if missing == nil {
		t.Fatal("expected MISSING_NODE for the absent identifier")
	}
	if missing.ExpectedKind != cst.KindIdentifier {
		t.Errorf("expected kind %s", missing.ExpectedKind)
	}
}

func TestErrorRecoveryContinuesPastBadStatement(t *testing.T) {
	root, c := parseCST(t, "var a = 1; @$ ; var b = 2;")
	if !c.HasErrors() {
		t.Fatal("expected diagnostics")
	}
	decls := root.FindChildren(cst.KindVarDeclaration)
	if len(decls) != 2 {
		t.Errorf("recovery lost declarations: got %d, want 2", len(decls))
	}
	if root.FindChild(cst.KindErrorNode) == nil {
		t.Error("expected an ERROR_NODE for the invalid tokens")
	}
}

func TestRecoveryBoundedness(t *testing.T) {
	// Many bad statements; diagnostics must never exceed maxErrors.
	src := strings.Repeat("@ ", 50)
	c := diagnostics.NewCollector(100)
	rc := DefaultRecoveryConfig()
	rc.MaxErrors = 5
	p := New(tokensFor(t, src), c, WithMode(CSTOnly), WithRecovery(rc))
	p.Parse()

	if got := len(c.ByStage(diagnostics.StageParsing)); got > 5 {
		t.Errorf("%d parsing diagnostics, want at most maxErrors=5", got)
	}
}

func TestCausedByBlockContext(t *testing.T) {
	_, c := parseAST(t, "fn broken() { var ; }")
	found := false
	for _, d := range c.Diagnostics() {
		if strings.Contains(d.Message, "caused by enclosing function body") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a caused-by diagnostic, got:\n%s", c.Format())
	}
}

func TestStrictModeStopsEarly(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "var ; var ok = 1;"), c, WithMode(DirectAST), Strict())
	prog := p.Parse().AST
	// Strict mode stops at the program loop after the first error, so
	// the trailing valid declaration is not reached.
	for _, s := range prog.Statements {
		if d, ok := s.(*ast.VarDeclaration); ok && d.Name == "ok" {
			t.Error("strict mode parsed past the first error")
		}
	}
}

func TestParseRuleDirectASTMode(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "var x: int = 1;"), c, WithMode(DirectAST))
	res := p.ParseRule("varDecl")
	if !res.Success {
		t.Fatalf("rule failed: %s", res.ErrorMessage)
	}
	if res.CST != nil {
		t.Error("direct mode must not produce a CST node")
	}
	decl, ok := res.AST.(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VarDeclaration, got %T", res.AST)
	}
	if decl.Name != "x" {
		t.Errorf("Name = %q, want %q", decl.Name, "x")
	}
	if res.TokensConsumed == 0 {
		t.Error("expected consumed tokens to be counted")
	}
}

func TestParseRuleDirectASTFailsWithoutConsuming(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "fn f() { return 1; }"), c, WithMode(DirectAST))

	res := p.ParseRule("varDecl")
	if res.Success {
		t.Fatal("varDecl must not match a function declaration")
	}
	if res.AST != nil || res.CST != nil {
		t.Error("failed rule must not carry a node")
	}

	res = p.ParseRule("fnDecl")
	if !res.Success {
		t.Fatalf("fnDecl should match from the original position: %s", res.ErrorMessage)
	}
	fn, ok := res.AST.(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *ast.FunctionDeclaration, got %T", res.AST)
	}
	if fn.Name != "f" {
		t.Errorf("Name = %q, want %q", fn.Name, "f")
	}
}

func TestParseRuleSurfacesRuleErrors(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "var x"), c, WithMode(CSTOnly))
	res := p.ParseRule("varDecl")
	if res.Success {
		t.Fatal("expected failure on a declaration without a terminator")
	}
	if !c.HasErrors() {
		t.Error("a committed rule failure should reach the collector")
	}
}

func TestParseStatsAccumulate(t *testing.T) {
	c := diagnostics.NewCollector(100)
	p := New(tokensFor(t, "var x: int = 5;"), c, WithMode(CSTOnly))
	p.ParseRule("varDecl")
	stats := p.Stats()
	if stats.RulesExecuted == 0 {
		t.Error("expected rule executions to be counted")
	}
}

func TestTriviaAttachedAsLeading(t *testing.T) {
	src := "// leading comment\nvar x = 1;"
	c := diagnostics.NewCollector(100)
	rc := DefaultRecoveryConfig()
	rc.AttachTrivia = true
	p := New(tokensFor(t, src), c, WithMode(CSTOnly), WithRecovery(rc))
	root := p.Parse().CST

	decl := root.FindChild(cst.KindVarDeclaration)
	if decl == nil {
		t.Fatal("no declaration")
	}
	if len(decl.LeadingTrivia) == 0 {
		t.Fatal("expected leading trivia on the declaration")
	}
	foundComment := false
	for _, tr := range decl.LeadingTrivia {
		if strings.HasPrefix(tr.Lexeme, "//") {
			foundComment = true
		}
	}
	if !foundComment {
		t.Error("comment not attached as leading trivia")
	}
}
