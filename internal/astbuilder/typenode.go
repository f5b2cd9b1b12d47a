package astbuilder

import (
	"fmt"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
	"github.com/lumina-lang/lumina/internal/diagnostics"
)

// resolveTypeNode lowers a CST type node into a TypeAnnotation using the
// selected strategy. Deferred and partial results are placeholders whose
// names land in the resolution queue.
func (b *Builder) resolveTypeNode(node *cst.Node, strategy ResolutionStrategy) *ast.TypeAnnotation {
	if node == nil {
		return nil
	}
	if node.Kind == cst.KindMissingNode {
		b.stats.MissingNodes++
		b.report(lineOf(node), "expected a type name")
		return &ast.TypeAnnotation{Name: "<missing>", IsUserDefined: true}
	}

	switch strategy {
	case ResolveImmediate:
		ann, _ := b.resolveImmediateType(node)
		return ann
	case ResolveDeferred:
		return b.enqueueTypeNode(node)
	case ResolvePartial:
		ann, complete := b.resolveImmediateType(node)
		if complete && ann.IsPrimitive {
			return ann
		}
		return b.enqueuePartial(node, complete)
	default:
		ann, _ := b.resolveImmediateType(node)
		return ann
	}
}

// resolveImmediateType builds the annotation on the spot. The second
// result reports whether every name in it resolved against the context;
// unknown names come back as user-defined annotations so immediate mode
// still produces a usable tree.
func (b *Builder) resolveImmediateType(node *cst.Node) (*ast.TypeAnnotation, bool) {
	tok, ok := node.FirstToken()
	if !ok {
		b.report(lineOf(node), "type annotation has no name token")
		return &ast.TypeAnnotation{Name: "<missing>", IsUserDefined: true}, false
	}
	name := tok.Lexeme

	var ann *ast.TypeAnnotation
	complete := true
	if known, found := b.types.Lookup(name); found {
		cp := *known
		ann = &cp
	} else {
		ann = &ast.TypeAnnotation{Name: name, IsUserDefined: true}
		complete = false
	}

	// Structural children are the generic arguments written after "<".
	var args []*ast.TypeAnnotation
	for _, child := range node.ChildNodes() {
		if !child.Kind.IsType() && child.Kind != cst.KindMissingNode {
			continue
		}
		arg, argComplete := b.resolveImmediateType(child)
		complete = complete && argComplete
		args = append(args, arg)
	}
	if len(args) > 0 {
		applyTypeArgs(ann, args)
	}
	return ann, complete
}

// enqueueTypeNode hands back a deferred placeholder and queues the node
// for the post-build resolution pass.
func (b *Builder) enqueueTypeNode(node *cst.Node) *ast.TypeAnnotation {
	b.stats.DeferredTypes++
	placeholder := fmt.Sprintf("deferred_%d", b.stats.DeferredTypes)
	ann := &ast.TypeAnnotation{Name: placeholder}
	b.deferred = append(b.deferred, DeferredResolution{
		Placeholder: placeholder,
		Strategy:    ResolveDeferred,
		Line:        lineOf(node),
		TypeNode:    node,
		Unresolved:  true,
		Apply:       func(resolved *ast.TypeAnnotation) { *ann = *resolved },
	})
	return ann
}

// enqueuePartial queues a partial placeholder. complete records whether
// the name was already known when queued; such entries are compound
// types held back on purpose, not forward references.
func (b *Builder) enqueuePartial(node *cst.Node, complete bool) *ast.TypeAnnotation {
	b.stats.DeferredTypes++
	placeholder := fmt.Sprintf("partial_%d", b.stats.DeferredTypes)
	ann := &ast.TypeAnnotation{Name: placeholder}
	b.deferred = append(b.deferred, DeferredResolution{
		Placeholder: placeholder,
		Strategy:    ResolvePartial,
		Line:        lineOf(node),
		TypeNode:    node,
		Unresolved:  !complete,
		Apply:       func(resolved *ast.TypeAnnotation) { *ann = *resolved },
	})
	return ann
}

// resolveQueue drains the queue entries whose name was unknown when
// queued, now that every declaration in the program has been seen.
// Entries that still miss get a warning and keep their placeholder.
// Expression entries and known compound types held back by the partial
// strategy stay queued for the semantic stage. Returns the number of
// entries resolved.
func (b *Builder) resolveQueue() int {
	resolved := 0
	var remaining []DeferredResolution
	for _, entry := range b.deferred {
		if entry.TypeNode == nil || !entry.Unresolved {
			remaining = append(remaining, entry)
			continue
		}
		ann, complete := b.resolveImmediateType(entry.TypeNode)
		if complete {
			entry.Apply(ann)
			resolved++
			continue
		}
		b.collector.Warning(diagnostics.StageBuilding, entry.Line,
			fmt.Sprintf("type %q could not be resolved", ann.Name))
		remaining = append(remaining, entry)
	}
	b.deferred = remaining
	return resolved
}

func applyTypeArgs(ann *ast.TypeAnnotation, args []*ast.TypeAnnotation) {
	switch {
	case ann.IsList || ann.IsArray:
		if len(args) > 0 {
			ann.ElementType = args[0]
		}
	case ann.IsDict:
		if len(args) > 0 {
			ann.KeyType = args[0]
		}
		if len(args) > 1 {
			ann.ValueType = args[1]
		}
	default:
		ann.TypeArgs = args
	}
}
