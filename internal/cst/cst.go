// Package cst defines the lossless concrete syntax tree. Every token of
// the input, trivia included, appears in the tree in source order, so the
// original text can be reconstructed byte for byte. Error recovery is
// represented structurally with error, missing, and incomplete nodes
// instead of aborting the parse.
package cst

import (
	"fmt"
	"strings"

	"github.com/lumina-lang/lumina/internal/lexer"
)

// NodeKind identifies the syntactic category of a CST node
type NodeKind int

const (
	// Program structure
	KindProgram NodeKind = iota
	KindStatementList

	// Declarations
	KindVarDeclaration
	KindFunctionDeclaration
	KindClassDeclaration

	// Statements
	KindIfStatement
	KindForStatement
	KindWhileStatement
	KindBlockStatement
	KindExpressionStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement
	KindPrintStatement

	// Expressions
	KindBinaryExpr
	KindUnaryExpr
	KindCallExpr
	KindMemberExpr
	KindIndexExpr
	KindLiteralExpr
	KindVariableExpr
	KindGroupingExpr
	KindAssignmentExpr
	KindLogicalExpr
	KindListExpr

	// Types
	KindPrimitiveType
	KindFunctionType
	KindListType
	KindDictType
	KindArrayType
	KindOptionType
	KindResultType
	KindUserType
	KindGenericType

	// Parameters and arguments
	KindParameter
	KindParameterList
	KindArgument
	KindArgumentList

	// Other constructs
	KindIdentifier
	KindLiteral
	KindBlock
	KindCondition
	KindInitializer
	KindAnnotation

	// Concrete syntax elements
	KindTokenNode
	KindWhitespaceNode
	KindCommentNode
	KindTriviaNode

	// Error recovery nodes
	KindErrorNode
	KindMissingNode
	KindIncompleteNode
)

var kindNames = map[NodeKind]string{
	KindProgram:       "PROGRAM",
	KindStatementList: "STATEMENT_LIST",

	KindVarDeclaration:      "VAR_DECLARATION",
	KindFunctionDeclaration: "FUNCTION_DECLARATION",
	KindClassDeclaration:    "CLASS_DECLARATION",

	KindIfStatement:         "IF_STATEMENT",
	KindForStatement:        "FOR_STATEMENT",
	KindWhileStatement:      "WHILE_STATEMENT",
	KindBlockStatement:      "BLOCK_STATEMENT",
	KindExpressionStatement: "EXPRESSION_STATEMENT",
	KindReturnStatement:     "RETURN_STATEMENT",
	KindBreakStatement:      "BREAK_STATEMENT",
	KindContinueStatement:   "CONTINUE_STATEMENT",
	KindPrintStatement:      "PRINT_STATEMENT",

	KindBinaryExpr:     "BINARY_EXPR",
	KindUnaryExpr:      "UNARY_EXPR",
	KindCallExpr:       "CALL_EXPR",
	KindMemberExpr:     "MEMBER_EXPR",
	KindIndexExpr:      "INDEX_EXPR",
	KindLiteralExpr:    "LITERAL_EXPR",
	KindVariableExpr:   "VARIABLE_EXPR",
	KindGroupingExpr:   "GROUPING_EXPR",
	KindAssignmentExpr: "ASSIGNMENT_EXPR",
	KindLogicalExpr:    "LOGICAL_EXPR",
	KindListExpr:       "LIST_EXPR",

	KindPrimitiveType: "PRIMITIVE_TYPE",
	KindFunctionType:  "FUNCTION_TYPE",
	KindListType:      "LIST_TYPE",
	KindDictType:      "DICT_TYPE",
	KindArrayType:     "ARRAY_TYPE",
	KindOptionType:    "OPTION_TYPE",
	KindResultType:    "RESULT_TYPE",
	KindUserType:      "USER_TYPE",
	KindGenericType:   "GENERIC_TYPE",

	KindParameter:     "PARAMETER",
	KindParameterList: "PARAMETER_LIST",
	KindArgument:      "ARGUMENT",
	KindArgumentList:  "ARGUMENT_LIST",

	KindIdentifier:  "IDENTIFIER",
	KindLiteral:     "LITERAL",
	KindBlock:       "BLOCK",
	KindCondition:   "CONDITION",
	KindInitializer: "INITIALIZER",
	KindAnnotation:  "ANNOTATION",

	KindTokenNode:      "TOKEN_NODE",
	KindWhitespaceNode: "WHITESPACE_NODE",
	KindCommentNode:    "COMMENT_NODE",
	KindTriviaNode:     "TRIVIA_NODE",

	KindErrorNode:      "ERROR_NODE",
	KindMissingNode:    "MISSING_NODE",
	KindIncompleteNode: "INCOMPLETE_NODE",
}

// String returns the node kind name
func (k NodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// IsStatement reports whether the kind is a statement
func (k NodeKind) IsStatement() bool {
	return k >= KindIfStatement && k <= KindPrintStatement
}

// IsExpression reports whether the kind is an expression
func (k NodeKind) IsExpression() bool {
	return k >= KindBinaryExpr && k <= KindListExpr
}

// IsDeclaration reports whether the kind is a declaration
func (k NodeKind) IsDeclaration() bool {
	return k >= KindVarDeclaration && k <= KindClassDeclaration
}

// IsType reports whether the kind is a type annotation
func (k NodeKind) IsType() bool {
	return k >= KindPrimitiveType && k <= KindGenericType
}

// IsRecovery reports whether the kind marks an error recovery node
func (k NodeKind) IsRecovery() bool {
	return k == KindErrorNode || k == KindMissingNode || k == KindIncompleteNode
}

// IsTrivia reports whether the kind wraps trivia
func (k NodeKind) IsTrivia() bool {
	return k == KindWhitespaceNode || k == KindCommentNode || k == KindTriviaNode
}

// Element is one ordered child of a CST node: either a nested structural
// node or a raw token. Exactly one field is set.
type Element struct {
	Node  *Node
	Token *lexer.Token
}

// Node is a structural CST node. Elements hold every child node and token
// in source order; leading and trailing trivia are owned by this node and
// appear nowhere else in the tree.
type Node struct {
	Kind     NodeKind
	StartPos int // byte offset, inclusive
	EndPos   int // byte offset, exclusive

	Elements []Element

	LeadingTrivia  []lexer.Token
	TrailingTrivia []lexer.Token

	Valid        bool
	ErrorMessage string // set on error nodes
	Description  string // human-readable description for recovery nodes

	// Error recovery payload
	SkippedTokens   []lexer.Token // tokens skipped while recovering
	ExpectedKind    NodeKind      // for missing nodes: what was expected
	MissingElements []string      // for incomplete nodes: what is absent
}

// NewNode creates a structural node of the given kind
func NewNode(kind NodeKind) *Node {
	return &Node{Kind: kind, Valid: true}
}

// NewTokenNode wraps a single significant token
func NewTokenNode(tok lexer.Token) *Node {
	return &Node{Kind: KindTokenNode, StartPos: tok.Start, EndPos: tok.End, Valid: true,
		Elements: []Element{{Token: &tok}}}
}

// NewErrorNode creates an invalid-syntax node carrying the failure message
func NewErrorNode(message string, start, end int) *Node {
	return &Node{Kind: KindErrorNode, StartPos: start, EndPos: end, ErrorMessage: message}
}

// NewMissingNode records a required element that was absent from the input
func NewMissingNode(expected NodeKind, description string, pos int) *Node {
	return &Node{Kind: KindMissingNode, StartPos: pos, EndPos: pos,
		ExpectedKind: expected, Description: description}
}

// NewIncompleteNode records a construct that started but did not finish.
// ExpectedKind holds what the construct was trying to be.
func NewIncompleteNode(target NodeKind, description string, start, end int) *Node {
	return &Node{Kind: KindIncompleteNode, StartPos: start, EndPos: end,
		ExpectedKind: target, Description: description}
}

// AddNode appends a child node, growing this node's span to cover it
func (n *Node) AddNode(child *Node) {
	if child == nil {
		return
	}
	n.Elements = append(n.Elements, Element{Node: child})
	n.growSpan(child.StartPos, child.EndPos)
}

// AddToken appends a raw token element
func (n *Node) AddToken(tok lexer.Token) {
	t := tok
	n.Elements = append(n.Elements, Element{Token: &t})
	n.growSpan(tok.Start, tok.End)
}

func (n *Node) growSpan(start, end int) {
	if len(n.Elements) == 1 {
		n.StartPos, n.EndPos = start, end
		return
	}
	if start < n.StartPos {
		n.StartPos = start
	}
	if end > n.EndPos {
		n.EndPos = end
	}
}

// AddSkippedToken records a token consumed during error recovery
func (n *Node) AddSkippedToken(tok lexer.Token) {
	n.SkippedTokens = append(n.SkippedTokens, tok)
	n.growSpan(tok.Start, tok.End)
}

// AddLeadingTrivia attaches trivia tokens preceding this node
func (n *Node) AddLeadingTrivia(trivia ...lexer.Token) {
	n.LeadingTrivia = append(n.LeadingTrivia, trivia...)
}

// AddTrailingTrivia attaches trivia tokens following this node
func (n *Node) AddTrailingTrivia(trivia ...lexer.Token) {
	n.TrailingTrivia = append(n.TrailingTrivia, trivia...)
}

// ChildNodes returns the structural children in source order
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, el := range n.Elements {
		if el.Node != nil {
			out = append(out, el.Node)
		}
	}
	return out
}

// Tokens returns the direct token elements of this node
func (n *Node) Tokens() []lexer.Token {
	var out []lexer.Token
	for _, el := range n.Elements {
		if el.Token != nil {
			out = append(out, *el.Token)
		}
	}
	return out
}

// AllTokens returns every token in this subtree in source order,
// trivia included
func (n *Node) AllTokens() []lexer.Token {
	var out []lexer.Token
	out = append(out, n.LeadingTrivia...)
	for _, el := range n.Elements {
		if el.Token != nil {
			out = append(out, *el.Token)
		} else if el.Node != nil {
			out = append(out, el.Node.AllTokens()...)
		}
	}
	out = append(out, n.SkippedTokens...)
	out = append(out, n.TrailingTrivia...)
	return out
}

// SignificantTokens returns the non-trivia tokens of this subtree
func (n *Node) SignificantTokens() []lexer.Token {
	var out []lexer.Token
	for _, tok := range n.AllTokens() {
		if !tok.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

// FindChild returns the first direct child of the given kind, or nil
func (n *Node) FindChild(kind NodeKind) *Node {
	for _, el := range n.Elements {
		if el.Node != nil && el.Node.Kind == kind {
			return el.Node
		}
	}
	return nil
}

// FindChildren returns all direct children of the given kind
func (n *Node) FindChildren(kind NodeKind) []*Node {
	var out []*Node
	for _, el := range n.Elements {
		if el.Node != nil && el.Node.Kind == kind {
			out = append(out, el.Node)
		}
	}
	return out
}

// FindToken returns the first direct token of the given type
func (n *Node) FindToken(tt lexer.TokenType) (lexer.Token, bool) {
	for _, el := range n.Elements {
		if el.Token != nil && el.Token.Type == tt {
			return *el.Token, true
		}
	}
	return lexer.Token{}, false
}

// FirstToken returns the first significant token of this subtree
func (n *Node) FirstToken() (lexer.Token, bool) {
	toks := n.SignificantTokens()
	if len(toks) == 0 {
		return lexer.Token{}, false
	}
	return toks[0], true
}

// ReconstructSource rebuilds the exact original text of this subtree,
// trivia and skipped tokens included
func (n *Node) ReconstructSource() string {
	var sb strings.Builder
	for _, tok := range n.AllTokens() {
		sb.WriteString(tok.Lexeme)
	}
	return sb.String()
}

// TextWithoutTrivia returns the significant tokens joined by single spaces
func (n *Node) TextWithoutTrivia() string {
	toks := n.SignificantTokens()
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = tok.Lexeme
	}
	return strings.Join(parts, " ")
}

// HasErrors reports whether this subtree contains any recovery node
func (n *Node) HasErrors() bool {
	if n.Kind.IsRecovery() || !n.Valid && n.ErrorMessage != "" {
		return true
	}
	for _, child := range n.ChildNodes() {
		if child.HasErrors() {
			return true
		}
	}
	return false
}

// ErrorMessages collects the messages of all error nodes in this subtree
func (n *Node) ErrorMessages() []string {
	var out []string
	if n.ErrorMessage != "" {
		out = append(out, n.ErrorMessage)
	}
	for _, child := range n.ChildNodes() {
		out = append(out, child.ErrorMessages()...)
	}
	return out
}

// String renders an indented tree dump for debugging
func (n *Node) String() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s%s [%d..%d]", pad, n.Kind, n.StartPos, n.EndPos)
	if n.ErrorMessage != "" {
		fmt.Fprintf(sb, " error=%q", n.ErrorMessage)
	}
	if n.Description != "" {
		fmt.Fprintf(sb, " (%s)", n.Description)
	}
	sb.WriteByte('\n')
	for _, el := range n.Elements {
		if el.Token != nil {
			fmt.Fprintf(sb, "%s  %s %q\n", pad, el.Token.Type, el.Token.Lexeme)
		} else if el.Node != nil {
			el.Node.dump(sb, indent+1)
		}
	}
}
