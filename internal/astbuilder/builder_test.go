package astbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
	"github.com/lumina-lang/lumina/internal/parser"
)

func buildSource(t *testing.T, src string, config BuildConfig) (*ast.Program, *Builder, *diagnostics.Collector) {
	t.Helper()
	c := diagnostics.NewCollector(100)
	tokens := lexer.New("test.lum", src, c).ScanAll()
	result := parser.New(tokens, c, parser.WithMode(parser.CSTOnly)).Parse()
	require.NotNil(t, result.CST, "parser produced no tree for %q", src)
	b := New(c, config)
	return b.Build(result.CST), b, c
}

func TestBuildVarDeclaration(t *testing.T) {
	program, _, c := buildSource(t, "var x: int = 42;", DefaultBuildConfig())
	require.NotNil(t, program)
	require.Len(t, program.Statements, 1)
	assert.False(t, c.HasErrors(), "unexpected diagnostics: %s", c.Format())

	decl, ok := program.Statements[0].(*ast.VarDeclaration)
	require.True(t, ok, "expected VarDeclaration, got %T", program.Statements[0])
	assert.Equal(t, "x", decl.Name)
	require.NotNil(t, decl.TypeAnn)
	assert.Equal(t, "int", decl.TypeAnn.Name)
	assert.True(t, decl.TypeAnn.IsPrimitive)

	lit, ok := decl.Initializer.(*ast.LiteralExpr)
	require.True(t, ok, "expected LiteralExpr initializer, got %T", decl.Initializer)
	assert.Equal(t, ast.LiteralInt, lit.Kind)
	assert.Equal(t, int64(42), lit.IntVal)
	require.NotNil(t, lit.Type())
	assert.Equal(t, "int", lit.Type().Name)
}

func TestBuildFunctionDeclaration(t *testing.T) {
	src := "fn add(a: int, b: int) -> int { return a + b; }"
	program, _, c := buildSource(t, src, DefaultBuildConfig())
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())
	require.Len(t, program.Statements, 1)

	fn, ok := program.Statements[0].(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "int", fn.Params[0].TypeAnn.Name)
	require.NotNil(t, fn.ReturnType)
	assert.Equal(t, "int", fn.ReturnType.Name)

	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Statements, 1)
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStatement)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok, "expected BinaryExpr, got %T", ret.Value)
	assert.Equal(t, lexer.TokenPlus, bin.Op)
}

func TestBuildClassDeclaration(t *testing.T) {
	src := `class Point {
		var x: int;
		var y: int;
		fn sum() -> int { return 0; }
	}`
	program, _, c := buildSource(t, src, DefaultBuildConfig())
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())

	cls, ok := program.Statements[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	assert.Equal(t, "Point", cls.Name)
	require.Len(t, cls.Fields, 2)
	assert.Equal(t, "x", cls.Fields[0].Name)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "sum", cls.Methods[0].Name)
}

func TestMissingNameUsesSentinel(t *testing.T) {
	program, _, c := buildSource(t, "var = 5;", DefaultBuildConfig())
	require.NotNil(t, program)
	require.Len(t, program.Statements, 1)

	decl, ok := program.Statements[0].(*ast.VarDeclaration)
	require.True(t, ok)
	assert.Equal(t, "<missing>", decl.Name)

	lit, ok := decl.Initializer.(*ast.LiteralExpr)
	require.True(t, ok, "initializer should survive the missing name")
	assert.Equal(t, int64(5), lit.IntVal)
	assert.True(t, c.HasErrors(), "the missing identifier must be diagnosed")
}

func TestGenericAnnotationsResolveStructurally(t *testing.T) {
	src := "var xs: list<int>; var m: dict<str, int>; var o: Option<float>;"
	program, _, c := buildSource(t, src, DefaultBuildConfig())
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())
	require.Len(t, program.Statements, 3)

	xs := program.Statements[0].(*ast.VarDeclaration)
	require.NotNil(t, xs.TypeAnn)
	assert.True(t, xs.TypeAnn.IsList)
	require.NotNil(t, xs.TypeAnn.ElementType)
	assert.Equal(t, "int", xs.TypeAnn.ElementType.Name)

	m := program.Statements[1].(*ast.VarDeclaration)
	assert.True(t, m.TypeAnn.IsDict)
	assert.Equal(t, "str", m.TypeAnn.KeyType.Name)
	assert.Equal(t, "int", m.TypeAnn.ValueType.Name)

	o := program.Statements[2].(*ast.VarDeclaration)
	assert.True(t, o.TypeAnn.IsOptional)
	require.Len(t, o.TypeAnn.TypeArgs, 1)
	assert.Equal(t, "float", o.TypeAnn.TypeArgs[0].Name)
}

func TestDeferredExpressionTypes(t *testing.T) {
	program, b, _ := buildSource(t, "var x = 1 + 2;", DefaultBuildConfig())
	require.NotNil(t, program)

	decl := program.Statements[0].(*ast.VarDeclaration)
	bin, ok := decl.Initializer.(*ast.BinaryExpr)
	require.True(t, ok)
	require.NotNil(t, bin.Type())
	assert.True(t, strings.HasPrefix(bin.Type().Name, "deferred_"),
		"binary expression type should be a queue placeholder, got %q", bin.Type().Name)
	assert.NotEmpty(t, b.Pending(), "expression placeholders stay queued for inference")
}

func TestPartialStrategyLeavesPlaceholder(t *testing.T) {
	config := DefaultBuildConfig()
	config.EnableEarlyTypeResolution = false
	config.DeferExpressionTypes = false

	program, b, c := buildSource(t, "var p: Person;", config)
	require.NotNil(t, program)

	decl := program.Statements[0].(*ast.VarDeclaration)
	require.NotNil(t, decl.TypeAnn)
	assert.True(t, strings.HasPrefix(decl.TypeAnn.Name, "partial_"),
		"unknown type should keep its partial placeholder, got %q", decl.TypeAnn.Name)
	assert.NotEmpty(t, b.Pending())

	warned := false
	for _, d := range c.ByStage(diagnostics.StageBuilding) {
		if d.Severity == diagnostics.SeverityWarning {
			warned = true
		}
	}
	assert.True(t, warned, "an unresolved queue entry should produce a warning")
}

func TestPartialAcceptsOnlyPrimitives(t *testing.T) {
	config := DefaultBuildConfig()
	config.EnableEarlyTypeResolution = false
	config.DeferExpressionTypes = false

	program, b, c := buildSource(t, "var n: int; var xs: list<int>;", config)
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())
	require.Len(t, program.Statements, 2)

	n := program.Statements[0].(*ast.VarDeclaration)
	require.NotNil(t, n.TypeAnn)
	assert.Equal(t, "int", n.TypeAnn.Name, "primitives resolve synchronously")
	assert.True(t, n.TypeAnn.IsPrimitive)

	xs := program.Statements[1].(*ast.VarDeclaration)
	require.NotNil(t, xs.TypeAnn)
	assert.True(t, strings.HasPrefix(xs.TypeAnn.Name, "partial_"),
		"compound types stay behind a partial placeholder, got %q", xs.TypeAnn.Name)
	assert.NotEmpty(t, b.Pending(), "the held-back compound type stays queued")
}

func TestMissingFunctionNameDiagnosed(t *testing.T) {
	root := cst.NewNode(cst.KindProgram)
	fn := cst.NewNode(cst.KindFunctionDeclaration)
	fn.AddNode(cst.NewNode(cst.KindBlockStatement))
	root.AddNode(fn)

	c := diagnostics.NewCollector(100)
	b := New(c, DefaultBuildConfig())
	program := b.Build(root)
	require.NotNil(t, program)
	require.Len(t, program.Statements, 1)

	require.Equal(t, 1, c.ErrorCount(), c.Format())
	assert.Contains(t, c.Format(), "has no name")

	decl, ok := program.Statements[0].(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "<missing>", decl.Name)
}

func TestForwardReferenceResolvesThroughQueue(t *testing.T) {
	config := DefaultBuildConfig()
	config.EnableEarlyTypeResolution = false
	config.DeferExpressionTypes = false

	src := "var p: Person; class Person { var x: int; }"
	program, b, c := buildSource(t, src, config)
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())

	decl := program.Statements[0].(*ast.VarDeclaration)
	require.NotNil(t, decl.TypeAnn)
	assert.Equal(t, "Person", decl.TypeAnn.Name,
		"the queue pass sees the later class declaration")
	assert.True(t, decl.TypeAnn.IsUserDefined)
	assert.Equal(t, 1, b.Stats().ResolvedDeferred)
}

func TestAssignmentTargetForms(t *testing.T) {
	src := "x = 1; p.x = 2; xs[0] = 3;"
	program, _, c := buildSource(t, src, DefaultBuildConfig())
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())
	require.Len(t, program.Statements, 3)

	simple := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.AssignExpr)
	assert.Equal(t, "x", simple.Name)

	member := program.Statements[1].(*ast.ExprStatement).Expr.(*ast.AssignExpr)
	assert.Equal(t, "x", member.Member)
	require.NotNil(t, member.Object)

	index := program.Statements[2].(*ast.ExprStatement).Expr.(*ast.AssignExpr)
	require.NotNil(t, index.Index)
	require.NotNil(t, index.Object)
}

func TestInvalidAssignmentTargetDiagnosed(t *testing.T) {
	program, _, c := buildSource(t, "1 = 2;", DefaultBuildConfig())
	require.NotNil(t, program)
	assert.True(t, c.HasErrors(), "a literal is not an assignment target")
}

func TestErrorNodesBecomePlaceholderStatements(t *testing.T) {
	program, b, c := buildSource(t, "var a = 1; @ ; var b = 2;", DefaultBuildConfig())
	require.NotNil(t, program)
	assert.True(t, c.HasErrors())
	assert.Greater(t, b.Stats().ErrorNodes, 0)

	var names []string
	var placeholders int
	for _, stmt := range program.Statements {
		if decl, ok := stmt.(*ast.VarDeclaration); ok {
			names = append(names, decl.Name)
		}
		if es, ok := stmt.(*ast.ExprStatement); ok {
			if lit, ok := es.Expr.(*ast.LiteralExpr); ok && strings.HasPrefix(lit.StrVal, "<ERROR:") {
				placeholders++
			}
		}
	}
	assert.Equal(t, []string{"a", "b"}, names, "declarations around the error must survive")
	assert.Greater(t, placeholders, 0, "the bad span should become a placeholder statement")
}

func TestStrictModeReturnsNil(t *testing.T) {
	config := DefaultBuildConfig()
	config.StrictMode = true
	program, _, _ := buildSource(t, "var = ;", config)
	assert.Nil(t, program, "strict mode aborts on the first build error")
}

func TestSourceMappingRecordsOrigins(t *testing.T) {
	c := diagnostics.NewCollector(100)
	tokens := lexer.New("test.lum", "var x = 1;", c).ScanAll()
	result := parser.New(tokens, c, parser.WithMode(parser.CSTOnly)).Parse()
	require.NotNil(t, result.CST)

	b := New(c, DefaultBuildConfig())
	program := b.Build(result.CST)
	require.NotNil(t, program)

	mapped, ok := b.ASTForCST(result.CST)
	require.True(t, ok, "the program node itself should be mapped")
	assert.Same(t, program, mapped)

	children := result.CST.ChildNodes()
	require.NotEmpty(t, children)
	declNode, ok := b.ASTForCST(children[0])
	require.True(t, ok)
	_, isDecl := declNode.(*ast.VarDeclaration)
	assert.True(t, isDecl, "expected the declaration mapping, got %T", declNode)
}

func TestControlFlowLowering(t *testing.T) {
	src := `
	fn main() {
		var i = 0;
		for (var j = 0; j < 10; j = j + 1) {
			if (j == 5) { break; } else { continue; }
		}
		while (i < 3) { i = i + 1; }
		print(i);
	}`
	program, _, c := buildSource(t, src, DefaultBuildConfig())
	require.NotNil(t, program)
	assert.False(t, c.HasErrors(), c.Format())

	fn := program.Statements[0].(*ast.FunctionDeclaration)
	require.Len(t, fn.Body.Statements, 4)

	loop, ok := fn.Body.Statements[1].(*ast.ForStatement)
	require.True(t, ok)
	require.NotNil(t, loop.Initializer)
	require.NotNil(t, loop.Condition)
	require.NotNil(t, loop.Increment)
	body, ok := loop.Body.(*ast.BlockStatement)
	require.True(t, ok)
	cond, ok := body.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, cond.ThenBranch)
	require.NotNil(t, cond.ElseBranch)

	_, ok = fn.Body.Statements[2].(*ast.WhileStatement)
	require.True(t, ok)
	pr, ok := fn.Body.Statements[3].(*ast.PrintStatement)
	require.True(t, ok)
	require.Len(t, pr.Arguments, 1)
}
