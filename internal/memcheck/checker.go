// Package memcheck enforces a linear-ownership discipline over the AST:
// every variable must be initialized before it is read, and once its
// value has been moved out it cannot be read again until reassigned.
package memcheck

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/diagnostics"
)

// ViolationKind names the memory-safety violations the checker reports.
type ViolationKind int

const (
	UseAfterMove ViolationKind = iota
	UseBeforeInit
	// DoubleMove is reserved for richer ownership tracking; the current
	// move rules report the second consumption as UseAfterMove instead.
	DoubleMove
	// MemoryLeak is unreachable until region escape analysis lands.
	MemoryLeak
)

func (k ViolationKind) String() string {
	switch k {
	case UseAfterMove:
		return "Use-after-move"
	case UseBeforeInit:
		return "Use-before-init"
	case DoubleMove:
		return "Double move"
	case MemoryLeak:
		return "Memory leak"
	default:
		return fmt.Sprintf("violation(%d)", int(k))
	}
}

// Hint returns the canonical explanation attached to each violation
func (k ViolationKind) Hint() string {
	switch k {
	case UseAfterMove:
		return "the value was moved out of this variable; reassign it before reading it again"
	case UseBeforeInit:
		return "give the variable a value before reading it"
	case DoubleMove:
		return "a value can be moved out of a variable only once"
	case MemoryLeak:
		return "the value still owns memory when its region ends"
	default:
		return ""
	}
}

// Result is what one Check call produces. Hard errors go to the shared
// collector; Success mirrors the collector because the sink is shared
// with earlier stages of the same compilation.
type Result struct {
	Success  bool
	Program  *ast.Program
	Warnings []string
}

// scopeState is the per-variable tracking restored wholesale on block
// exit, modeling block-local lifetime.
type scopeState struct {
	initialized map[string]bool
	moved       map[string]bool
	regions     map[string]int
}

func newScopeState() scopeState {
	return scopeState{
		initialized: make(map[string]bool),
		moved:       make(map[string]bool),
		regions:     make(map[string]int),
	}
}

func (s scopeState) snapshot() scopeState {
	cp := newScopeState()
	for k, v := range s.initialized {
		cp.initialized[k] = v
	}
	for k, v := range s.moved {
		cp.moved[k] = v
	}
	for k, v := range s.regions {
		cp.regions[k] = v
	}
	return cp
}

// Checker runs the single forward ownership pass.
type Checker struct {
	collector  *diagnostics.Collector
	state      scopeState
	stack      []scopeState
	region     int
	generation int
	warnings   []string
}

// New creates a checker reporting into collector
func New(collector *diagnostics.Collector) *Checker {
	return &Checker{collector: collector, state: newScopeState()}
}

// Check walks program once, front to back. Violations are reported and
// traversal continues, so one pass surfaces every finding it can reach.
func (c *Checker) Check(program *ast.Program) Result {
	c.state = newScopeState()
	c.stack = nil
	c.region, c.generation = 0, 0
	c.warnings = nil

	if program == nil {
		c.collector.Error(diagnostics.StageMemory, 0, "cannot check: program is nil")
		return Result{Success: false}
	}
	for _, stmt := range program.Statements {
		c.checkStatement(stmt)
	}
	return Result{
		Success:  !c.collector.HasErrors(),
		Program:  program,
		Warnings: c.warnings,
	}
}

// ===== Statements =====

func (c *Checker) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		c.checkVarDeclaration(s)
	case *ast.FunctionDeclaration:
		c.checkFunctionDeclaration(s)
	case *ast.ClassDeclaration:
		c.checkClassDeclaration(s)
	case *ast.BlockStatement:
		c.enterBlock()
		for _, inner := range s.Statements {
			c.checkStatement(inner)
		}
		c.exitBlock()
	case *ast.ExprStatement:
		c.checkExpression(s.Expr, false)
	case *ast.IfStatement:
		c.checkExpression(s.Condition, false)
		c.checkStatement(s.ThenBranch)
		if s.ElseBranch != nil {
			c.checkStatement(s.ElseBranch)
		}
	case *ast.WhileStatement:
		c.checkExpression(s.Condition, false)
		c.checkStatement(s.Body)
	case *ast.ForStatement:
		c.enterBlock()
		if s.Initializer != nil {
			c.checkStatement(s.Initializer)
		}
		c.checkExpression(s.Condition, false)
		c.checkExpression(s.Increment, false)
		c.checkStatement(s.Body)
		c.exitBlock()
	case *ast.ReturnStatement:
		c.checkExpression(s.Value, true)
	case *ast.PrintStatement:
		for _, arg := range s.Arguments {
			c.checkExpression(arg, false)
		}
	case *ast.BreakStatement, *ast.ContinueStatement, nil:
		// no variable effects
	}
}

func (c *Checker) checkVarDeclaration(decl *ast.VarDeclaration) {
	if decl.Initializer != nil {
		c.checkExpression(decl.Initializer, true)
	}
	if decl.TypeAnn == nil && expressionType(decl.Initializer) == nil {
		c.collector.Error(diagnostics.StageMemory, decl.Line,
			fmt.Sprintf("declaration of %q carries no resolved type", decl.Name))
	}

	if _, exists := c.state.regions[decl.Name]; exists {
		c.warnings = append(c.warnings, fmt.Sprintf(
			"line %d: declaration of %q shadows an existing binding", decl.Line, decl.Name))
	}
	c.state.regions[decl.Name] = c.region
	c.state.initialized[decl.Name] = decl.Initializer != nil
	delete(c.state.moved, decl.Name)
	decl.Memory = &ast.MemoryInfo{Region: c.region, Generation: c.generation}
}

// checkFunctionDeclaration analyzes the body in its own region with the
// parameters counted as initialized.
func (c *Checker) checkFunctionDeclaration(fn *ast.FunctionDeclaration) {
	c.enterBlock()
	for _, param := range fn.Params {
		c.state.regions[param.Name] = c.region
		c.state.initialized[param.Name] = true
	}
	if fn.Body != nil {
		for _, stmt := range fn.Body.Statements {
			c.checkStatement(stmt)
		}
	}
	c.exitBlock()
}

func (c *Checker) checkClassDeclaration(cls *ast.ClassDeclaration) {
	c.enterBlock()
	for _, field := range cls.Fields {
		c.checkVarDeclaration(field)
	}
	for _, method := range cls.Methods {
		c.checkFunctionDeclaration(method)
	}
	c.exitBlock()
}

// ===== Expressions =====

// checkExpression validates every variable read in expr. moveSource
// marks positions where the value is consumed: a declaration or
// assignment source, a call argument, a returned value.
func (c *Checker) checkExpression(expr ast.Expression, moveSource bool) {
	switch e := expr.(type) {
	case *ast.VariableExpr:
		c.readVariable(e.Name, e.Line, moveSource)
	case *ast.BinaryExpr:
		c.checkExpression(e.Left, false)
		c.checkExpression(e.Right, false)
	case *ast.UnaryExpr:
		c.checkExpression(e.Right, false)
	case *ast.GroupingExpr:
		c.checkExpression(e.Expr, moveSource)
	case *ast.AssignExpr:
		c.checkExpression(e.Value, true)
		if e.Object != nil {
			c.checkExpression(e.Object, false)
		}
		if e.Index != nil {
			c.checkExpression(e.Index, false)
		}
		if e.Name != "" {
			// assignment reinitializes the target binding
			c.state.initialized[e.Name] = true
			delete(c.state.moved, e.Name)
			if _, declared := c.state.regions[e.Name]; !declared {
				c.state.regions[e.Name] = c.region
			}
		}
	case *ast.CallExpr:
		c.checkExpression(e.Callee, false)
		for _, arg := range e.Arguments {
			c.checkExpression(arg, true)
		}
	case *ast.MemberExpr:
		c.checkExpression(e.Object, false)
	case *ast.IndexExpr:
		c.checkExpression(e.Object, false)
		c.checkExpression(e.Index, false)
	case *ast.ListExpr:
		for _, el := range e.Elements {
			c.checkExpression(el, true)
		}
	case *ast.LiteralExpr, nil:
		// nothing to track
	}
}

// readVariable enforces the two read rules and records the move when the
// read is a consuming position. Names the checker never saw declared are
// left to the type checker.
func (c *Checker) readVariable(name string, line int, moveSource bool) {
	if name == "" || name == "<missing>" {
		return
	}
	if _, declared := c.state.regions[name]; !declared {
		return
	}
	if c.state.moved[name] {
		c.report(UseAfterMove, line, fmt.Sprintf("use of moved variable %q", name))
		return
	}
	if !c.state.initialized[name] {
		c.report(UseBeforeInit, line, fmt.Sprintf("use of uninitialized variable %q", name))
		return
	}
	if moveSource {
		c.state.moved[name] = true
	}
}

func (c *Checker) report(kind ViolationKind, line int, msg string) {
	c.collector.ErrorWithHint(diagnostics.StageMemory, line,
		fmt.Sprintf("%s: %s", kind, msg), kind.Hint())
}

// ===== Regions =====

// enterBlock opens a nested lifetime region: the tracked sets are
// snapshotted so the matching exitBlock can restore them wholesale.
func (c *Checker) enterBlock() {
	c.region++
	c.generation++
	c.stack = append(c.stack, c.state)
	c.state = c.state.snapshot()
}

// exitBlock restores the snapshot taken on entry; everything declared or
// moved inside the block is forgotten.
func (c *Checker) exitBlock() {
	if n := len(c.stack); n > 0 {
		c.state = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
	c.generation++
}

func expressionType(expr ast.Expression) *ast.TypeAnnotation {
	if expr == nil {
		return nil
	}
	return expr.Type()
}
