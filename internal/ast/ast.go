// Package ast defines the abstract syntax tree for the Lumina language.
// Nodes are strongly typed with marker interfaces separating statements
// from expressions, and every node tracks the source line it came from so
// later phases can report precise positions without the CST at hand.
package ast

import (
	"fmt"
	"strings"

	"github.com/lumina-lang/lumina/internal/lexer"
	"github.com/lumina-lang/lumina/internal/position"
)

// Node is the base interface for all AST nodes
type Node interface {
	// GetSpan returns the source span covered by this node
	GetSpan() position.Span
	// GetLine returns the 1-based source line of the node
	GetLine() int
	// String returns a human-readable representation of the node
	String() string
}

// Statement represents all statement nodes in the AST
type Statement interface {
	Node
	statementNode() // Marker method to distinguish statements
}

// Expression represents all expression nodes in the AST
type Expression interface {
	Node
	expressionNode() // Marker method to distinguish expressions
	// Type returns the inferred type, nil until type resolution runs
	Type() *TypeAnnotation
	// SetType attaches the resolved type
	SetType(*TypeAnnotation)
}

// base carries the position bookkeeping shared by every node
type base struct {
	Span position.Span
	Line int

	// Memory is attached by the memory checker: the region the value
	// lives in and that region's generation at declaration time.
	Memory *MemoryInfo
}

// MemoryInfo records region allocation facts for a node
type MemoryInfo struct {
	Region     int
	Generation int
}

func (b *base) GetSpan() position.Span { return b.Span }
func (b *base) GetLine() int           { return b.Line }

// exprBase extends base with the inferred-type slot used by expressions
type exprBase struct {
	base
	InferredType *TypeAnnotation
}

func (e *exprBase) Type() *TypeAnnotation     { return e.InferredType }
func (e *exprBase) SetType(t *TypeAnnotation) { e.InferredType = t }

// ===== Type annotations =====

// TypeAnnotation describes a resolved or pending type. Placeholder names
// such as "deferred_3" mark types still waiting in the resolution queue.
type TypeAnnotation struct {
	Name          string
	IsPrimitive   bool
	IsUserDefined bool
	IsOptional    bool
	IsList        bool
	IsDict        bool
	IsArray       bool
	IsFunction    bool

	ElementType *TypeAnnotation   // element type for list and array types
	KeyType     *TypeAnnotation   // key type for dict types
	ValueType   *TypeAnnotation   // value type for dict types
	ReturnType  *TypeAnnotation   // return type for function types
	Params      []*TypeAnnotation // parameter types for function types
	TypeArgs    []*TypeAnnotation // arguments of a generic instantiation
}

// String renders the annotation in source notation
func (t *TypeAnnotation) String() string {
	if t == nil {
		return "<nil>"
	}
	switch {
	case t.IsList && t.ElementType != nil:
		return fmt.Sprintf("list<%s>", t.ElementType)
	case t.IsDict && t.KeyType != nil && t.ValueType != nil:
		return fmt.Sprintf("dict<%s, %s>", t.KeyType, t.ValueType)
	case t.IsFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.ReturnType)
	case len(t.TypeArgs) > 0:
		parts := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
	}
	return t.Name
}

// ===== Program structure =====

// Program is the root of the AST for one source file
type Program struct {
	base
	Statements []Statement
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

// ===== Declarations =====

// VarDeclaration declares a variable, optionally typed and initialized
type VarDeclaration struct {
	base
	Name        string
	TypeAnn     *TypeAnnotation // nil when no annotation was written
	Initializer Expression      // nil when declared without a value
}

func (v *VarDeclaration) statementNode() {}
func (v *VarDeclaration) String() string {
	var sb strings.Builder
	sb.WriteString("var " + v.Name)
	if v.TypeAnn != nil {
		sb.WriteString(": " + v.TypeAnn.String())
	}
	if v.Initializer != nil {
		sb.WriteString(" = " + v.Initializer.String())
	}
	return sb.String()
}

// Parameter is one function parameter with its declared type
type Parameter struct {
	Name    string
	TypeAnn *TypeAnnotation
	Line    int
}

// FunctionDeclaration declares a named function
type FunctionDeclaration struct {
	base
	Name       string
	Params     []Parameter
	ReturnType *TypeAnnotation // nil means void
	Body       *BlockStatement
}

func (f *FunctionDeclaration) statementNode() {}
func (f *FunctionDeclaration) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Name + ": " + p.TypeAnn.String()
	}
	s := fmt.Sprintf("fn %s(%s)", f.Name, strings.Join(parts, ", "))
	if f.ReturnType != nil {
		s += " -> " + f.ReturnType.String()
	}
	return s
}

// ClassDeclaration declares a class with fields and methods
type ClassDeclaration struct {
	base
	Name    string
	Fields  []*VarDeclaration
	Methods []*FunctionDeclaration
}

func (c *ClassDeclaration) statementNode() {}
func (c *ClassDeclaration) String() string { return "class " + c.Name }

// ===== Statements =====

// BlockStatement is a brace-delimited statement sequence with its own scope
type BlockStatement struct {
	base
	Statements []Statement
}

func (b *BlockStatement) statementNode() {}
func (b *BlockStatement) String() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// ExprStatement wraps an expression evaluated for its effects
type ExprStatement struct {
	base
	Expr Expression
}

func (e *ExprStatement) statementNode() {}
func (e *ExprStatement) String() string { return e.Expr.String() }

// IfStatement with optional else branch
type IfStatement struct {
	base
	Condition  Expression
	ThenBranch Statement
	ElseBranch Statement // nil when absent
}

func (i *IfStatement) statementNode() {}
func (i *IfStatement) String() string { return "if " + i.Condition.String() }

// WhileStatement loops while the condition holds
type WhileStatement struct {
	base
	Condition Expression
	Body      Statement
}

func (w *WhileStatement) statementNode() {}
func (w *WhileStatement) String() string { return "while " + w.Condition.String() }

// ForStatement is the classic three-clause loop; any clause may be nil
type ForStatement struct {
	base
	Initializer Statement
	Condition   Expression
	Increment   Expression
	Body        Statement
}

func (f *ForStatement) statementNode() {}
func (f *ForStatement) String() string { return "for (...)" }

// ReturnStatement with optional value
type ReturnStatement struct {
	base
	Value Expression // nil for bare return
}

func (r *ReturnStatement) statementNode() {}
func (r *ReturnStatement) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// BreakStatement exits the innermost loop
type BreakStatement struct{ base }

func (b *BreakStatement) statementNode() {}
func (b *BreakStatement) String() string { return "break" }

// ContinueStatement skips to the next loop iteration
type ContinueStatement struct{ base }

func (c *ContinueStatement) statementNode() {}
func (c *ContinueStatement) String() string { return "continue" }

// PrintStatement writes its arguments to standard output
type PrintStatement struct {
	base
	Arguments []Expression
}

func (p *PrintStatement) statementNode() {}
func (p *PrintStatement) String() string {
	parts := make([]string, len(p.Arguments))
	for i, a := range p.Arguments {
		parts[i] = a.String()
	}
	return "print(" + strings.Join(parts, ", ") + ")"
}

// ===== Expressions =====

// BinaryExpr covers arithmetic, comparison, and logical operators alike;
// the operator token type distinguishes them
type BinaryExpr struct {
	exprBase
	Left  Expression
	Op    lexer.TokenType
	Right Expression
}

func (b *BinaryExpr) expressionNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opLexeme(b.Op), b.Right)
}

// UnaryExpr is a prefix operator application
type UnaryExpr struct {
	exprBase
	Op    lexer.TokenType
	Right Expression
}

func (u *UnaryExpr) expressionNode() {}
func (u *UnaryExpr) String() string  { return fmt.Sprintf("(%s%s)", opLexeme(u.Op), u.Right) }

// LiteralKind discriminates the value stored in a LiteralExpr
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralNil
)

// LiteralExpr is a literal constant
type LiteralExpr struct {
	exprBase
	Kind     LiteralKind
	IntVal   int64
	FloatVal float64
	StrVal   string
	BoolVal  bool
}

func (l *LiteralExpr) expressionNode() {}
func (l *LiteralExpr) String() string {
	switch l.Kind {
	case LiteralInt:
		return fmt.Sprintf("%d", l.IntVal)
	case LiteralFloat:
		return fmt.Sprintf("%g", l.FloatVal)
	case LiteralString:
		return fmt.Sprintf("%q", l.StrVal)
	case LiteralBool:
		return fmt.Sprintf("%t", l.BoolVal)
	case LiteralNil:
		return "nil"
	default:
		return "<invalid literal>"
	}
}

// VariableExpr is a reference to a named variable
type VariableExpr struct {
	exprBase
	Name string
}

func (v *VariableExpr) expressionNode() {}
func (v *VariableExpr) String() string  { return v.Name }

// AssignExpr assigns to a variable, member, or index target. Exactly one
// of Name, Member, or Index describes the target form.
type AssignExpr struct {
	exprBase
	Name   string     // simple target: x = v
	Object Expression // receiver for member and index targets
	Member string     // member target: obj.m = v
	Index  Expression // index target: obj[i] = v
	Value  Expression
}

func (a *AssignExpr) expressionNode() {}
func (a *AssignExpr) String() string {
	switch {
	case a.Member != "":
		return fmt.Sprintf("%s.%s = %s", a.Object, a.Member, a.Value)
	case a.Index != nil:
		return fmt.Sprintf("%s[%s] = %s", a.Object, a.Index, a.Value)
	default:
		return fmt.Sprintf("%s = %s", a.Name, a.Value)
	}
}

// CallExpr is a function or method invocation
type CallExpr struct {
	exprBase
	Callee    Expression
	Arguments []Expression
}

func (c *CallExpr) expressionNode() {}
func (c *CallExpr) String() string {
	parts := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}

// MemberExpr accesses a named member of an object
type MemberExpr struct {
	exprBase
	Object Expression
	Name   string
}

func (m *MemberExpr) expressionNode() {}
func (m *MemberExpr) String() string  { return fmt.Sprintf("%s.%s", m.Object, m.Name) }

// IndexExpr accesses an element by subscript
type IndexExpr struct {
	exprBase
	Object Expression
	Index  Expression
}

func (i *IndexExpr) expressionNode() {}
func (i *IndexExpr) String() string  { return fmt.Sprintf("%s[%s]", i.Object, i.Index) }

// GroupingExpr is a parenthesized expression
type GroupingExpr struct {
	exprBase
	Expr Expression
}

func (g *GroupingExpr) expressionNode() {}
func (g *GroupingExpr) String() string  { return "(" + g.Expr.String() + ")" }

// ListExpr is a list literal
type ListExpr struct {
	exprBase
	Elements []Expression
}

func (l *ListExpr) expressionNode() {}
func (l *ListExpr) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func opLexeme(tt lexer.TokenType) string {
	switch tt {
	case lexer.TokenPlus:
		return "+"
	case lexer.TokenMinus:
		return "-"
	case lexer.TokenStar:
		return "*"
	case lexer.TokenSlash:
		return "/"
	case lexer.TokenPercent:
		return "%"
	case lexer.TokenEq:
		return "=="
	case lexer.TokenNe:
		return "!="
	case lexer.TokenLt:
		return "<"
	case lexer.TokenLe:
		return "<="
	case lexer.TokenGt:
		return ">"
	case lexer.TokenGe:
		return ">="
	case lexer.TokenAnd:
		return "and"
	case lexer.TokenOr:
		return "or"
	case lexer.TokenBang:
		return "!"
	default:
		return tt.String()
	}
}
