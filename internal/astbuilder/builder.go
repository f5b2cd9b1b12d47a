package astbuilder

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/position"
)

// BuildConfig controls how the builder lowers a CST into an AST.
type BuildConfig struct {
	// EnableEarlyTypeResolution resolves declaration annotations on the
	// spot; when false they go through the partial strategy instead.
	EnableEarlyTypeResolution bool
	// DeferExpressionTypes leaves expression types as queue placeholders
	// for a later inference pass.
	DeferExpressionTypes bool
	// StrictMode makes Build return nil as soon as lowering reports an
	// error instead of producing a best-effort tree.
	StrictMode bool
	// InsertErrorNodes turns CST error nodes into placeholder statements
	// and expressions; when false they are silently dropped.
	InsertErrorNodes bool
	// InsertMissingNodes synthesizes "<missing>" sentinels for absent
	// names. The absence is diagnosed either way.
	InsertMissingNodes bool
	// PreserveSourceMapping records a CST-to-AST mapping for tooling.
	PreserveSourceMapping bool
	// MaxErrors bounds the number of errors the builder reports.
	MaxErrors int
}

// DefaultBuildConfig returns the settings used by the full pipeline
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		EnableEarlyTypeResolution: true,
		DeferExpressionTypes:      true,
		StrictMode:                false,
		InsertErrorNodes:          true,
		InsertMissingNodes:        true,
		PreserveSourceMapping:     true,
		MaxErrors:                 100,
	}
}

// BuildStats counts what one Build call did
type BuildStats struct {
	NodesTransformed int
	ErrorNodes       int
	MissingNodes     int
	DeferredTypes    int
	ResolvedDeferred int
}

// Builder lowers a concrete syntax tree into the abstract syntax tree,
// resolving type annotations along the way.
type Builder struct {
	config     BuildConfig
	collector  *diagnostics.Collector
	types      *TypeResolutionContext
	deferred   []DeferredResolution
	sourceMap  map[*cst.Node]ast.Node
	stats      BuildStats
	errorCount int
}

// New creates a builder reporting into collector
func New(collector *diagnostics.Collector, config BuildConfig) *Builder {
	return &Builder{
		config:    config,
		collector: collector,
		types:     NewTypeResolutionContext(),
		sourceMap: make(map[*cst.Node]ast.Node),
	}
}

// Stats returns the counters from the last Build call
func (b *Builder) Stats() BuildStats { return b.stats }

// Types exposes the resolution context, mainly for tests
func (b *Builder) Types() *TypeResolutionContext { return b.types }

// Pending returns the queue entries still unresolved after Build;
// expression placeholders stay here until inference runs.
func (b *Builder) Pending() []DeferredResolution { return b.deferred }

// ASTForCST returns the AST node built from origin, when source mapping
// is enabled.
func (b *Builder) ASTForCST(origin *cst.Node) (ast.Node, bool) {
	n, ok := b.sourceMap[origin]
	return n, ok
}

// Build lowers root, which must be a program node, into an ast.Program.
// In strict mode a build error yields nil; otherwise the result is a
// best-effort tree with placeholder nodes where the input was broken.
func (b *Builder) Build(root *cst.Node) *ast.Program {
	b.stats = BuildStats{}
	b.deferred = nil
	b.errorCount = 0
	if b.config.PreserveSourceMapping {
		b.sourceMap = make(map[*cst.Node]ast.Node)
	}

	if root == nil || root.Kind != cst.KindProgram {
		b.report(0, "cannot build: root is not a program node")
		return nil
	}

	before := b.collector.ErrorCount()
	program := &ast.Program{}
	program.Span = spanOf(root)
	program.Line = lineOf(root)

	for _, child := range root.ChildNodes() {
		if stmt := b.buildStatement(child); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if b.config.StrictMode && b.buildFailed(before) {
			return nil
		}
	}

	b.stats.ResolvedDeferred = b.resolveQueue()
	if b.config.StrictMode && b.buildFailed(before) {
		return nil
	}
	b.record(root, program)
	return program
}

// ===== Statements =====

func (b *Builder) buildStatement(node *cst.Node) ast.Statement {
	if node == nil {
		return nil
	}
	var stmt ast.Statement
	switch node.Kind {
	case cst.KindVarDeclaration:
		stmt = b.buildVarDeclaration(node)
	case cst.KindFunctionDeclaration:
		stmt = b.buildFunctionDeclaration(node)
	case cst.KindClassDeclaration:
		stmt = b.buildClassDeclaration(node)
	case cst.KindIfStatement:
		stmt = b.buildIfStatement(node)
	case cst.KindWhileStatement:
		stmt = b.buildWhileStatement(node)
	case cst.KindForStatement:
		stmt = b.buildForStatement(node)
	case cst.KindBlockStatement:
		stmt = b.buildBlockStatement(node)
	case cst.KindReturnStatement:
		stmt = b.buildReturnStatement(node)
	case cst.KindBreakStatement:
		s := &ast.BreakStatement{}
		s.Span, s.Line = spanOf(node), lineOf(node)
		stmt = s
	case cst.KindContinueStatement:
		s := &ast.ContinueStatement{}
		s.Span, s.Line = spanOf(node), lineOf(node)
		stmt = s
	case cst.KindPrintStatement:
		stmt = b.buildPrintStatement(node)
	case cst.KindExpressionStatement:
		stmt = b.buildExpressionStatement(node)
	case cst.KindErrorNode, cst.KindIncompleteNode:
		stmt = b.recoveredStatement(node)
	case cst.KindMissingNode:
		b.stats.MissingNodes++
		return nil
	default:
		if node.Kind.IsExpression() {
			stmt = b.buildExpressionStatementFromExpr(node)
		} else {
			stmt = b.errorStmt(node, fmt.Sprintf("cannot lower %s node to a statement", node.Kind))
		}
	}
	if stmt != nil {
		b.stats.NodesTransformed++
		b.record(node, stmt)
	}
	return stmt
}

func (b *Builder) buildVarDeclaration(node *cst.Node) ast.Statement {
	decl := &ast.VarDeclaration{}
	decl.Span, decl.Line = spanOf(node), lineOf(node)
	decl.Name = b.identifierName(node, "variable declaration")

	if typeNode := firstTypeChild(node); typeNode != nil {
		decl.TypeAnn = b.resolveTypeNode(typeNode, b.declarationStrategy())
	}
	if init := node.FindChild(cst.KindInitializer); init != nil {
		if expr := firstExprChild(init); expr != nil {
			decl.Initializer = b.buildExpression(expr)
		}
	}
	return decl
}

func (b *Builder) buildFunctionDeclaration(node *cst.Node) ast.Statement {
	fn := &ast.FunctionDeclaration{}
	fn.Span, fn.Line = spanOf(node), lineOf(node)
	fn.Name = b.identifierName(node, "function declaration")

	b.types.EnterScope(fn.Name)
	defer b.types.ExitScope()

	if list := node.FindChild(cst.KindParameterList); list != nil {
		for _, p := range list.FindChildren(cst.KindParameter) {
			param := ast.Parameter{
				Name: b.identifierName(p, "parameter"),
				Line: lineOf(p),
			}
			if typeNode := firstTypeChild(p); typeNode != nil {
				param.TypeAnn = b.resolveTypeNode(typeNode, b.declarationStrategy())
			} else {
				b.report(param.Line, fmt.Sprintf("parameter %q is missing a type annotation", param.Name))
			}
			fn.Params = append(fn.Params, param)
		}
	}

	if typeNode := firstTypeChild(node); typeNode != nil {
		fn.ReturnType = b.resolveTypeNode(typeNode, b.declarationStrategy())
	}

	if body := node.FindChild(cst.KindBlockStatement); body != nil {
		if block, ok := b.buildBlockStatement(body).(*ast.BlockStatement); ok {
			fn.Body = block
		}
	}
	return fn
}

func (b *Builder) buildClassDeclaration(node *cst.Node) ast.Statement {
	cls := &ast.ClassDeclaration{}
	cls.Span, cls.Line = spanOf(node), lineOf(node)
	cls.Name = b.identifierName(node, "class declaration")

	b.types.Declare(cls.Name, &ast.TypeAnnotation{Name: cls.Name, IsUserDefined: true})
	b.types.EnterScope(cls.Name)
	defer b.types.ExitScope()

	body := node.FindChild(cst.KindBlock)
	if body == nil {
		return cls
	}
	for _, member := range body.ChildNodes() {
		switch member.Kind {
		case cst.KindVarDeclaration:
			if field, ok := b.buildStatement(member).(*ast.VarDeclaration); ok {
				cls.Fields = append(cls.Fields, field)
			}
		case cst.KindFunctionDeclaration:
			if method, ok := b.buildStatement(member).(*ast.FunctionDeclaration); ok {
				cls.Methods = append(cls.Methods, method)
			}
		case cst.KindErrorNode, cst.KindIncompleteNode:
			b.recoveredStatement(member)
		}
	}
	return cls
}

func (b *Builder) buildIfStatement(node *cst.Node) ast.Statement {
	stmt := &ast.IfStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	stmt.Condition = b.conditionExpr(node, "if statement")

	branches := statementChildren(node)
	if len(branches) > 0 {
		stmt.ThenBranch = b.buildStatement(branches[0])
	} else {
		b.report(stmt.Line, "if statement has no body")
	}
	if len(branches) > 1 {
		stmt.ElseBranch = b.buildStatement(branches[1])
	}
	return stmt
}

func (b *Builder) buildWhileStatement(node *cst.Node) ast.Statement {
	stmt := &ast.WhileStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	stmt.Condition = b.conditionExpr(node, "while statement")

	if bodies := statementChildren(node); len(bodies) > 0 {
		stmt.Body = b.buildStatement(bodies[0])
	} else {
		b.report(stmt.Line, "while statement has no body")
	}
	return stmt
}

func (b *Builder) buildForStatement(node *cst.Node) ast.Statement {
	stmt := &ast.ForStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)

	if init := node.FindChild(cst.KindInitializer); init != nil {
		if children := init.ChildNodes(); len(children) > 0 {
			stmt.Initializer = b.buildStatement(children[0])
		}
	}
	if cond := node.FindChild(cst.KindCondition); cond != nil {
		if expr := firstExprChild(cond); expr != nil {
			stmt.Condition = b.buildExpression(expr)
		}
	}
	if inc := firstExprChild(node); inc != nil {
		stmt.Increment = b.buildExpression(inc)
	}
	if bodies := statementChildren(node); len(bodies) > 0 {
		stmt.Body = b.buildStatement(bodies[0])
	} else {
		b.report(stmt.Line, "for statement has no body")
	}
	return stmt
}

func (b *Builder) buildBlockStatement(node *cst.Node) ast.Statement {
	block := &ast.BlockStatement{}
	block.Span, block.Line = spanOf(node), lineOf(node)
	for _, child := range node.ChildNodes() {
		if stmt := b.buildStatement(child); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	return block
}

func (b *Builder) buildReturnStatement(node *cst.Node) ast.Statement {
	stmt := &ast.ReturnStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	if expr := firstExprChild(node); expr != nil {
		stmt.Value = b.buildExpression(expr)
	}
	return stmt
}

func (b *Builder) buildPrintStatement(node *cst.Node) ast.Statement {
	stmt := &ast.PrintStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	if list := node.FindChild(cst.KindArgumentList); list != nil {
		for _, arg := range list.FindChildren(cst.KindArgument) {
			if expr := firstExprChild(arg); expr != nil {
				stmt.Arguments = append(stmt.Arguments, b.buildExpression(expr))
			}
		}
	}
	return stmt
}

func (b *Builder) buildExpressionStatement(node *cst.Node) ast.Statement {
	stmt := &ast.ExprStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	if expr := firstExprChild(node); expr != nil {
		stmt.Expr = b.buildExpression(expr)
	} else {
		stmt.Expr = b.errorExpr(node, "expression statement has no expression")
	}
	return stmt
}

func (b *Builder) buildExpressionStatementFromExpr(node *cst.Node) ast.Statement {
	stmt := &ast.ExprStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	stmt.Expr = b.buildExpression(node)
	return stmt
}

// recoveredStatement lowers a recovery node according to configuration:
// a placeholder statement when error insertion is on, nothing otherwise.
func (b *Builder) recoveredStatement(node *cst.Node) ast.Statement {
	b.stats.ErrorNodes++
	if !b.config.InsertErrorNodes {
		return nil
	}
	msg := node.ErrorMessage
	if msg == "" {
		msg = node.Description
	}
	if msg == "" {
		msg = "invalid syntax"
	}
	stmt := &ast.ExprStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	stmt.Expr = b.placeholderExpr(node, msg)
	return stmt
}

// ===== Shared helpers =====

func (b *Builder) declarationStrategy() ResolutionStrategy {
	if b.config.EnableEarlyTypeResolution {
		return ResolveImmediate
	}
	return ResolvePartial
}

// identifierName extracts the declared name from node's identifier child.
// An absent name is always diagnosed; insertion only governs whether the
// "<missing>" sentinel is synthesized in its place.
func (b *Builder) identifierName(node *cst.Node, context string) string {
	if ident := node.FindChild(cst.KindIdentifier); ident != nil {
		if tok, ok := ident.FirstToken(); ok {
			return tok.Lexeme
		}
	}
	b.stats.MissingNodes++
	b.report(lineOf(node), fmt.Sprintf("%s has no name", context))
	if b.config.InsertMissingNodes {
		return "<missing>"
	}
	return ""
}

func (b *Builder) conditionExpr(node *cst.Node, context string) ast.Expression {
	if cond := node.FindChild(cst.KindCondition); cond != nil {
		if expr := firstExprChild(cond); expr != nil {
			return b.buildExpression(expr)
		}
	}
	return b.errorExpr(node, context+" has no condition")
}

// buildFailed reports whether strict mode must abandon the build: either
// lowering added an error, or the tree contained recovery nodes.
func (b *Builder) buildFailed(errorsBefore int) bool {
	return b.collector.ErrorCount() > errorsBefore || b.stats.ErrorNodes > 0
}

// report adds a build error unless the per-build bound is exhausted
func (b *Builder) report(line int, msg string) {
	b.errorCount++
	if b.config.MaxErrors > 0 && b.errorCount > b.config.MaxErrors {
		return
	}
	b.collector.Error(diagnostics.StageBuilding, line, msg)
}

func (b *Builder) record(origin *cst.Node, built ast.Node) {
	if b.config.PreserveSourceMapping {
		b.sourceMap[origin] = built
	}
}

func spanOf(n *cst.Node) position.Span {
	return position.Span{Start: n.StartPos, End: n.EndPos}
}

func lineOf(n *cst.Node) int {
	if tok, ok := n.FirstToken(); ok {
		return tok.Line
	}
	return 0
}

func firstTypeChild(n *cst.Node) *cst.Node {
	for _, child := range n.ChildNodes() {
		if child.Kind.IsType() {
			return child
		}
	}
	return nil
}

func firstExprChild(n *cst.Node) *cst.Node {
	for _, child := range n.ChildNodes() {
		if child.Kind.IsExpression() || child.Kind.IsRecovery() {
			return child
		}
	}
	return nil
}

// statementChildren returns the direct children that lower to statements
func statementChildren(n *cst.Node) []*cst.Node {
	var out []*cst.Node
	for _, child := range n.ChildNodes() {
		if child.Kind.IsStatement() || child.Kind.IsDeclaration() || child.Kind.IsRecovery() {
			out = append(out, child)
		}
	}
	return out
}
