package astbuilder

import (
	"fmt"
	"strconv"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
	"github.com/lumina-lang/lumina/internal/lexer"
)

func (b *Builder) buildExpression(node *cst.Node) ast.Expression {
	if node == nil {
		return nil
	}
	var expr ast.Expression
	switch node.Kind {
	case cst.KindBinaryExpr, cst.KindLogicalExpr:
		expr = b.buildBinaryExpr(node)
	case cst.KindUnaryExpr:
		expr = b.buildUnaryExpr(node)
	case cst.KindAssignmentExpr:
		expr = b.buildAssignmentExpr(node)
	case cst.KindCallExpr:
		expr = b.buildCallExpr(node)
	case cst.KindMemberExpr:
		expr = b.buildMemberExpr(node)
	case cst.KindIndexExpr:
		expr = b.buildIndexExpr(node)
	case cst.KindLiteralExpr:
		expr = b.buildLiteralExpr(node)
	case cst.KindVariableExpr:
		expr = b.buildVariableExpr(node)
	case cst.KindGroupingExpr:
		expr = b.buildGroupingExpr(node)
	case cst.KindListExpr:
		expr = b.buildListExpr(node)
	case cst.KindErrorNode, cst.KindIncompleteNode:
		b.stats.ErrorNodes++
		msg := node.ErrorMessage
		if msg == "" {
			msg = node.Description
		}
		expr = b.placeholderExpr(node, msg)
	case cst.KindMissingNode:
		b.stats.MissingNodes++
		expr = b.placeholderExpr(node, node.Description)
	default:
		expr = b.errorExpr(node, fmt.Sprintf("cannot lower %s node to an expression", node.Kind))
	}
	if expr != nil {
		b.stats.NodesTransformed++
		b.record(node, expr)
	}
	return expr
}

// buildBinaryExpr lowers binary and logical nodes. The operator is taken
// from the node's own token list; when no known operator token is found
// the first token is assumed and a hint-severity diagnostic records the
// low confidence of that guess.
func (b *Builder) buildBinaryExpr(node *cst.Node) ast.Expression {
	expr := &ast.BinaryExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)

	operands := exprChildren(node)
	if len(operands) > 0 {
		expr.Left = b.buildExpression(operands[0])
	}
	if len(operands) > 1 {
		expr.Right = b.buildExpression(operands[1])
	}
	if expr.Left == nil || expr.Right == nil {
		return b.errorExpr(node, "binary expression is missing an operand")
	}

	own := node.Tokens()
	op, found := lexer.TokenEOF, false
	for _, tok := range own {
		if isBinaryOperator(tok.Type) {
			op, found = tok.Type, true
			break
		}
	}
	if !found {
		if len(own) == 0 {
			return b.errorExpr(node, "binary expression has no operator token")
		}
		op = own[0].Type
		b.collector.Add(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityHint,
			Stage:    diagnostics.StageBuilding,
			Line:     expr.Line,
			Message:  fmt.Sprintf("operator unclear, assuming %q", own[0].Lexeme),
		})
	}
	expr.Op = op

	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

func (b *Builder) buildUnaryExpr(node *cst.Node) ast.Expression {
	expr := &ast.UnaryExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	if tok, ok := node.FirstToken(); ok {
		expr.Op = tok.Type
	}
	if operand := firstExprChild(node); operand != nil {
		expr.Right = b.buildExpression(operand)
	} else {
		return b.errorExpr(node, "unary expression is missing an operand")
	}
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

// buildAssignmentExpr distinguishes the three legal target forms:
// a simple name, a member access, and an index access.
func (b *Builder) buildAssignmentExpr(node *cst.Node) ast.Expression {
	children := exprChildren(node)
	if len(children) < 2 {
		return b.errorExpr(node, "assignment is missing its target or value")
	}
	target, valueNode := children[0], children[1]

	expr := &ast.AssignExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	expr.Value = b.buildExpression(valueNode)

	switch target.Kind {
	case cst.KindVariableExpr:
		if tok, ok := target.FirstToken(); ok {
			expr.Name = tok.Lexeme
		} else {
			expr.Name = "<missing>"
		}
	case cst.KindMemberExpr:
		member := b.buildExpression(target)
		if m, ok := member.(*ast.MemberExpr); ok {
			expr.Object, expr.Member = m.Object, m.Name
		} else {
			return b.errorExpr(node, "invalid member assignment target")
		}
	case cst.KindIndexExpr:
		index := b.buildExpression(target)
		if ix, ok := index.(*ast.IndexExpr); ok {
			expr.Object, expr.Index = ix.Object, ix.Index
		} else {
			return b.errorExpr(node, "invalid index assignment target")
		}
	default:
		return b.errorExpr(node, "invalid assignment target")
	}

	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

func (b *Builder) buildCallExpr(node *cst.Node) ast.Expression {
	expr := &ast.CallExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)

	if callee := firstExprChild(node); callee != nil {
		expr.Callee = b.buildExpression(callee)
	} else {
		return b.errorExpr(node, "call expression has no callee")
	}
	if list := node.FindChild(cst.KindArgumentList); list != nil {
		for _, arg := range list.FindChildren(cst.KindArgument) {
			if argExpr := firstExprChild(arg); argExpr != nil {
				expr.Arguments = append(expr.Arguments, b.buildExpression(argExpr))
			}
		}
	}
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

func (b *Builder) buildMemberExpr(node *cst.Node) ast.Expression {
	expr := &ast.MemberExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)

	if object := firstExprChild(node); object != nil {
		expr.Object = b.buildExpression(object)
	} else {
		return b.errorExpr(node, "member access has no receiver")
	}
	expr.Name = "<missing>"
	if ident := node.FindChild(cst.KindIdentifier); ident != nil {
		if tok, ok := ident.FirstToken(); ok {
			expr.Name = tok.Lexeme
		}
	} else {
		b.stats.MissingNodes++
	}
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

func (b *Builder) buildIndexExpr(node *cst.Node) ast.Expression {
	children := exprChildren(node)
	if len(children) < 2 {
		return b.errorExpr(node, "index expression is missing its subscript")
	}
	expr := &ast.IndexExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	expr.Object = b.buildExpression(children[0])
	expr.Index = b.buildExpression(children[1])
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

// buildLiteralExpr converts the literal token into a typed value.
// Integer literals carry no dot; anything with a dot parsed as FLOAT.
func (b *Builder) buildLiteralExpr(node *cst.Node) ast.Expression {
	expr := &ast.LiteralExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)

	tok, ok := node.FirstToken()
	if !ok {
		return b.errorExpr(node, "literal expression has no token")
	}
	switch tok.Type {
	case lexer.TokenInteger:
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			b.report(tok.Line, fmt.Sprintf("invalid integer literal %q", tok.Lexeme))
		}
		expr.Kind, expr.IntVal = ast.LiteralInt, v
		expr.InferredType = b.builtinType("int")
	case lexer.TokenFloat:
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			b.report(tok.Line, fmt.Sprintf("invalid float literal %q", tok.Lexeme))
		}
		expr.Kind, expr.FloatVal = ast.LiteralFloat, v
		expr.InferredType = b.builtinType("float")
	case lexer.TokenString:
		expr.Kind, expr.StrVal = ast.LiteralString, unquote(tok.Lexeme)
		expr.InferredType = b.builtinType("str")
	case lexer.TokenTrue, lexer.TokenFalse:
		expr.Kind, expr.BoolVal = ast.LiteralBool, tok.Type == lexer.TokenTrue
		expr.InferredType = b.builtinType("bool")
	case lexer.TokenNil:
		expr.Kind = ast.LiteralNil
	default:
		return b.errorExpr(node, fmt.Sprintf("unexpected literal token %s", tok.Type))
	}
	return expr
}

func (b *Builder) buildVariableExpr(node *cst.Node) ast.Expression {
	expr := &ast.VariableExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	if tok, ok := node.FirstToken(); ok {
		expr.Name = tok.Lexeme
	} else {
		expr.Name = "<missing>"
		b.stats.MissingNodes++
	}
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

func (b *Builder) buildGroupingExpr(node *cst.Node) ast.Expression {
	expr := &ast.GroupingExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	if inner := firstExprChild(node); inner != nil {
		expr.Expr = b.buildExpression(inner)
		if expr.Expr != nil {
			expr.InferredType = expr.Expr.Type()
		}
	} else {
		return b.errorExpr(node, "grouping expression is empty")
	}
	return expr
}

func (b *Builder) buildListExpr(node *cst.Node) ast.Expression {
	expr := &ast.ListExpr{}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	for _, el := range exprChildren(node) {
		expr.Elements = append(expr.Elements, b.buildExpression(el))
	}
	b.inferExpressionType(&expr.InferredType, expr.Line)
	return expr
}

// ===== Error and placeholder expressions =====

// errorExpr reports the problem and returns a string-literal placeholder
// so the enclosing tree stays structurally complete.
func (b *Builder) errorExpr(node *cst.Node, msg string) ast.Expression {
	b.report(lineOf(node), msg)
	return b.placeholderExpr(node, msg)
}

// placeholderExpr builds the "<ERROR: ...>" placeholder without adding a
// diagnostic; used where the parser already reported the failure.
func (b *Builder) placeholderExpr(node *cst.Node, msg string) ast.Expression {
	if msg == "" {
		msg = "invalid syntax"
	}
	expr := &ast.LiteralExpr{
		Kind:   ast.LiteralString,
		StrVal: fmt.Sprintf("<ERROR: %s>", msg),
	}
	expr.Span, expr.Line = spanOf(node), lineOf(node)
	return expr
}

func (b *Builder) errorStmt(node *cst.Node, msg string) ast.Statement {
	stmt := &ast.ExprStatement{}
	stmt.Span, stmt.Line = spanOf(node), lineOf(node)
	stmt.Expr = b.errorExpr(node, msg)
	return stmt
}

// inferExpressionType fills the inferred-type slot for expressions whose
// type is not syntactically evident: a queue placeholder when deferral is
// on, nothing otherwise.
func (b *Builder) inferExpressionType(slot **ast.TypeAnnotation, line int) {
	if !b.config.DeferExpressionTypes {
		return
	}
	b.stats.DeferredTypes++
	placeholder := fmt.Sprintf("deferred_%d", b.stats.DeferredTypes)
	ann := &ast.TypeAnnotation{Name: placeholder}
	*slot = ann
	target := slot
	b.deferred = append(b.deferred, DeferredResolution{
		Placeholder: placeholder,
		Strategy:    ResolveDeferred,
		Line:        line,
		Apply:       func(resolved *ast.TypeAnnotation) { *target = resolved },
	})
}

// builtinType returns a private copy of a builtin annotation so that
// later structural edits never leak into the shared registry.
func (b *Builder) builtinType(name string) *ast.TypeAnnotation {
	if ann, ok := b.types.builtins[name]; ok {
		cp := *ann
		return &cp
	}
	return &ast.TypeAnnotation{Name: name}
}

func exprChildren(n *cst.Node) []*cst.Node {
	var out []*cst.Node
	for _, child := range n.ChildNodes() {
		if child.Kind.IsExpression() || child.Kind.IsRecovery() {
			out = append(out, child)
		}
	}
	return out
}

func isBinaryOperator(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash,
		lexer.TokenPercent, lexer.TokenEq, lexer.TokenNe, lexer.TokenLt,
		lexer.TokenLe, lexer.TokenGt, lexer.TokenGe, lexer.TokenAnd, lexer.TokenOr:
		return true
	}
	return false
}

// unquote strips the surrounding quotes and decodes simple escapes
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	if s, err := strconv.Unquote(lexeme); err == nil {
		return s
	}
	return lexeme[1 : len(lexeme)-1]
}
