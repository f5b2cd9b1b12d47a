package astbuilder

import (
	"fmt"
	"strings"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
)

// ResolutionStrategy selects how a type reference is turned into a
// TypeAnnotation during lowering.
type ResolutionStrategy int

const (
	// ResolveImmediate resolves the type on the spot: builtins first,
	// then declared names in the current scope chain.
	ResolveImmediate ResolutionStrategy = iota
	// ResolveDeferred records the reference in the resolution queue and
	// hands back a "deferred_<n>" placeholder.
	ResolveDeferred
	// ResolvePartial resolves primitives on the spot and leaves a
	// "partial_<n>" placeholder for everything else.
	ResolvePartial
)

func (s ResolutionStrategy) String() string {
	switch s {
	case ResolveImmediate:
		return "immediate"
	case ResolveDeferred:
		return "deferred"
	case ResolvePartial:
		return "partial"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// DeferredResolution is one queued type reference waiting for a later
// resolution pass. Expression entries carry no type node; their
// placeholder stands in until inference runs.
type DeferredResolution struct {
	Placeholder string
	Strategy    ResolutionStrategy
	Line        int
	TypeNode    *cst.Node                 // nil for inferred expression types
	Unresolved  bool                      // name was unknown when queued
	Apply       func(*ast.TypeAnnotation) // installs the resolved annotation
}

// TypeResolutionContext tracks the names visible to type references while
// the builder walks the tree. The builtin registry is populated once and
// never written afterwards; declared names accumulate per scope with
// "::"-qualified paths.
type TypeResolutionContext struct {
	scopeStack []string
	builtins   map[string]*ast.TypeAnnotation
	declared   map[string]*ast.TypeAnnotation
}

// NewTypeResolutionContext creates a context with the builtin types
// registered and an empty scope chain.
func NewTypeResolutionContext() *TypeResolutionContext {
	ctx := &TypeResolutionContext{
		builtins: make(map[string]*ast.TypeAnnotation),
		declared: make(map[string]*ast.TypeAnnotation),
	}
	for _, name := range []string{"int", "uint", "float", "bool", "str", "void"} {
		ctx.builtins[name] = &ast.TypeAnnotation{Name: name, IsPrimitive: true}
	}
	ctx.builtins["list"] = &ast.TypeAnnotation{Name: "list", IsList: true}
	ctx.builtins["dict"] = &ast.TypeAnnotation{Name: "dict", IsDict: true}
	ctx.builtins["array"] = &ast.TypeAnnotation{Name: "array", IsArray: true}
	ctx.builtins["Option"] = &ast.TypeAnnotation{Name: "Option", IsOptional: true}
	ctx.builtins["Result"] = &ast.TypeAnnotation{Name: "Result"}
	ctx.builtins["None"] = &ast.TypeAnnotation{Name: "None", IsOptional: true}
	ctx.builtins["Some"] = &ast.TypeAnnotation{Name: "Some", IsOptional: true}
	return ctx
}

// EnterScope pushes a named scope onto the chain
func (c *TypeResolutionContext) EnterScope(name string) {
	c.scopeStack = append(c.scopeStack, name)
}

// ExitScope pops the innermost scope
func (c *TypeResolutionContext) ExitScope() {
	if len(c.scopeStack) > 0 {
		c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
	}
}

// CurrentPath returns the "::"-joined scope chain, empty at top level
func (c *TypeResolutionContext) CurrentPath() string {
	return strings.Join(c.scopeStack, "::")
}

// QualifiedName prefixes name with the current scope path
func (c *TypeResolutionContext) QualifiedName(name string) string {
	path := c.CurrentPath()
	if path == "" {
		return name
	}
	return path + "::" + name
}

// Declare registers a user-defined type under the current scope path
func (c *TypeResolutionContext) Declare(name string, ann *ast.TypeAnnotation) {
	c.declared[c.QualifiedName(name)] = ann
}

// Lookup resolves a name against the current scope: qualified first,
// walking outward, then unqualified, then builtins. A miss is the signal
// to defer.
func (c *TypeResolutionContext) Lookup(name string) (*ast.TypeAnnotation, bool) {
	for i := len(c.scopeStack); i > 0; i-- {
		qualified := strings.Join(c.scopeStack[:i], "::") + "::" + name
		if ann, ok := c.declared[qualified]; ok {
			return ann, true
		}
	}
	if ann, ok := c.declared[name]; ok {
		return ann, true
	}
	if ann, ok := c.builtins[name]; ok {
		return ann, true
	}
	return nil, false
}

// IsBuiltin reports whether name is in the builtin registry
func (c *TypeResolutionContext) IsBuiltin(name string) bool {
	_, ok := c.builtins[name]
	return ok
}
