package parser

import (
	"fmt"
	"sort"

	"github.com/lumina-lang/lumina/internal/ast"
	"github.com/lumina-lang/lumina/internal/cst"
)

// RuleResult is the outcome of executing one grammar rule. Exactly one of
// CST or AST is set on success, depending on the parse mode.
type RuleResult struct {
	CST            *cst.Node
	AST            ast.Node
	Success        bool
	ErrorMessage   string
	TokensConsumed int
}

// RuleFunc executes a rule against the parse context
type RuleFunc func(ctx *ParseContext) RuleResult

// Rule is one named grammar production. Rules are immutable after
// construction; all variation is fixed through NewRule options.
type Rule struct {
	name         string
	description  string
	execute      RuleFunc
	terminal     bool
	cacheable    bool
	priority     int
	dependencies []string
}

// RuleOption configures a rule at construction time
type RuleOption func(*Rule)

// NoCache opts the rule out of memoization
func NoCache() RuleOption { return func(r *Rule) { r.cacheable = false } }

// Terminal marks the rule as matching a single token
func Terminal() RuleOption { return func(r *Rule) { r.terminal = true } }

// WithPriority sets the rule's ordering priority (higher checked first)
func WithPriority(p int) RuleOption { return func(r *Rule) { r.priority = p } }

// DependsOn declares the rules this rule references by name
func DependsOn(deps ...string) RuleOption {
	return func(r *Rule) { r.dependencies = append(r.dependencies, deps...) }
}

// Describe attaches a human-readable description
func Describe(desc string) RuleOption { return func(r *Rule) { r.description = desc } }

// NewRule builds an immutable rule value
func NewRule(name string, fn RuleFunc, opts ...RuleOption) *Rule {
	r := &Rule{name: name, execute: fn, cacheable: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the rule name
func (r *Rule) Name() string { return r.name }

// Cacheable reports whether results may be memoized
func (r *Rule) Cacheable() bool { return r.cacheable }

// Priority returns the rule ordering priority
func (r *Rule) Priority() int { return r.priority }

// Dependencies returns the names of rules this rule references
func (r *Rule) Dependencies() []string { return r.dependencies }

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	result RuleResult
	endPos int
}

// ParseStats accumulates advisory execution counters. They never affect
// parse decisions.
type ParseStats struct {
	RulesExecuted  int
	CacheHits      int
	CacheMisses    int
	TokensConsumed int
}

// CacheHitRatio returns hits / (hits + misses), or 0 when nothing ran
func (s *ParseStats) CacheHitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// GrammarTable is the central registry of named parsing rules. The same
// table drives every parse mode; the memoization cache is scoped to one
// parse and cleared via ResetCache between parses.
type GrammarTable struct {
	rules map[string]*Rule
	memo  map[memoKey]memoEntry
}

// NewGrammarTable creates an empty table
func NewGrammarTable() *GrammarTable {
	return &GrammarTable{
		rules: make(map[string]*Rule),
		memo:  make(map[memoKey]memoEntry),
	}
}

// Add registers a rule. Re-registering a name replaces the old rule.
func (g *GrammarTable) Add(rule *Rule) {
	g.rules[rule.name] = rule
}

// Get returns the rule with the given name, or nil
func (g *GrammarTable) Get(name string) *Rule {
	return g.rules[name]
}

// Has reports whether a rule with the given name is registered
func (g *GrammarTable) Has(name string) bool {
	_, ok := g.rules[name]
	return ok
}

// RuleNames returns all registered rule names sorted by priority then name
func (g *GrammarTable) RuleNames() []string {
	names := make([]string, 0, len(g.rules))
	for name := range g.rules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := g.rules[names[i]].priority, g.rules[names[j]].priority
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
	return names
}

// Execute runs a rule at the context's current position, consulting the
// memoization cache. Failed rules never leak consumed tokens: the cursor
// is restored to its pre-rule position.
func (g *GrammarTable) Execute(name string, ctx *ParseContext) RuleResult {
	rule := g.rules[name]
	if rule == nil {
		return RuleResult{ErrorMessage: fmt.Sprintf("unknown rule %q", name)}
	}

	startPos := ctx.Pos()
	key := memoKey{rule: name, pos: startPos}
	if rule.cacheable {
		if entry, ok := g.memo[key]; ok {
			ctx.stats.CacheHits++
			if entry.result.Success {
				ctx.SetPos(entry.endPos)
			}
			return entry.result
		}
		ctx.stats.CacheMisses++
	}

	ctx.stats.RulesExecuted++
	result := rule.execute(ctx)
	if result.Success {
		result.TokensConsumed = ctx.Pos() - startPos
	} else {
		ctx.SetPos(startPos)
	}

	if rule.cacheable {
		g.memo[key] = memoEntry{result: result, endPos: ctx.Pos()}
	}
	return result
}

// ResetCache clears the memoization cache. Must be called between
// independent parses; cached positions are meaningless across sources.
func (g *GrammarTable) ResetCache() {
	g.memo = make(map[memoKey]memoEntry)
}

// FindCircularDependencies returns the names of rules participating in a
// dependency cycle, sorted. An empty result means the declared dependency
// graph is acyclic.
func (g *GrammarTable) FindCircularDependencies() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	inCycle := make(map[string]bool)

	var visit func(name string, stack []string)
	visit = func(name string, stack []string) {
		rule := g.rules[name]
		if rule == nil {
			return
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range rule.dependencies {
			switch state[dep] {
			case unvisited:
				visit(dep, stack)
			case visiting:
				// Everything from dep's position in the stack onward is cyclic.
				for i := len(stack) - 1; i >= 0; i-- {
					inCycle[stack[i]] = true
					if stack[i] == dep {
						break
					}
				}
			}
		}
		state[name] = done
	}

	for name := range g.rules {
		if state[name] == unvisited {
			visit(name, nil)
		}
	}

	out := make([]string, 0, len(inCycle))
	for name := range inCycle {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FindMissingRules returns sorted names referenced as dependencies but
// never registered
func (g *GrammarTable) FindMissingRules() []string {
	missing := make(map[string]bool)
	for _, rule := range g.rules {
		for _, dep := range rule.dependencies {
			if !g.Has(dep) {
				missing[dep] = true
			}
		}
	}
	out := make([]string, 0, len(missing))
	for name := range missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate reports whether the grammar is well-formed: no cycles in the
// declared dependency graph and no dangling references
func (g *GrammarTable) Validate() error {
	if cyc := g.FindCircularDependencies(); len(cyc) > 0 {
		return fmt.Errorf("grammar has circular dependencies: %v", cyc)
	}
	if missing := g.FindMissingRules(); len(missing) > 0 {
		return fmt.Errorf("grammar references unregistered rules: %v", missing)
	}
	return nil
}
