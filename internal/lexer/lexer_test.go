package lexer

import (
	"testing"

	"github.com/lumina-lang/lumina/internal/diagnostics"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	c := diagnostics.NewCollector(100)
	return New("test.lum", src, c).ScanAll()
}

func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if !tok.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

func TestScanVarDeclaration(t *testing.T) {
	tokens := significant(scan(t, "var x: int = 42;"))

	expected := []struct {
		tt     TokenType
		lexeme string
	}{
		{TokenVar, "var"},
		{TokenIdentifier, "x"},
		{TokenColon, ":"},
		{TokenIdentifier, "int"},
		{TokenAssign, "="},
		{TokenInteger, "42"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Type != exp.tt {
			t.Errorf("token %d: expected type %s, got %s", i, exp.tt, tokens[i].Type)
		}
		if tokens[i].Lexeme != exp.lexeme {
			t.Errorf("token %d: expected lexeme %q, got %q", i, exp.lexeme, tokens[i].Lexeme)
		}
	}
}

func TestScanOperators(t *testing.T) {
	tests := []struct {
		input string
		tt    TokenType
	}{
		{"+", TokenPlus},
		{"-", TokenMinus},
		{"*", TokenStar},
		{"/", TokenSlash},
		{"%", TokenPercent},
		{"=", TokenAssign},
		{"==", TokenEq},
		{"!=", TokenNe},
		{"<", TokenLt},
		{"<=", TokenLe},
		{">", TokenGt},
		{">=", TokenGe},
		{"!", TokenBang},
		{"->", TokenArrow},
		{"::", TokenDoubleColon},
		{":", TokenColon},
	}

	for _, tt := range tests {
		tokens := scan(t, tt.input)
		if tokens[0].Type != tt.tt {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.tt, tokens[0].Type)
		}
		if tokens[0].Lexeme != tt.input {
			t.Errorf("input %q: lexeme %q", tt.input, tokens[0].Lexeme)
		}
	}
}

func TestScanNumberLiterals(t *testing.T) {
	tokens := significant(scan(t, "123 3.14 7."))

	if tokens[0].Type != TokenInteger || tokens[0].Lexeme != "123" {
		t.Errorf("expected INTEGER 123, got %s", tokens[0])
	}
	if tokens[1].Type != TokenFloat || tokens[1].Lexeme != "3.14" {
		t.Errorf("expected FLOAT 3.14, got %s", tokens[1])
	}
	// A trailing dot is a separate DOT token, not part of the number.
	if tokens[2].Type != TokenInteger || tokens[2].Lexeme != "7" {
		t.Errorf("expected INTEGER 7, got %s", tokens[2])
	}
	if tokens[3].Type != TokenDot {
		t.Errorf("expected DOT, got %s", tokens[3])
	}
}

func TestTriviaPreserved(t *testing.T) {
	src := "var x = 1; // the answer\nvar y = 2;"
	tokens := scan(t, src)

	var rebuilt []byte
	for _, tok := range tokens {
		rebuilt = append(rebuilt, tok.Lexeme...)
	}
	if string(rebuilt) != src {
		t.Errorf("token lexemes do not reproduce source:\n got %q\nwant %q", rebuilt, src)
	}

	foundComment := false
	for _, tok := range tokens {
		if tok.Type == TokenComment {
			foundComment = true
			if tok.Lexeme != "// the answer" {
				t.Errorf("comment lexeme %q", tok.Lexeme)
			}
		}
	}
	if !foundComment {
		t.Error("expected a COMMENT token")
	}
}

func TestBlockComment(t *testing.T) {
	tokens := scan(t, "/* multi\nline */ x")
	if tokens[0].Type != TokenComment {
		t.Fatalf("expected COMMENT, got %s", tokens[0].Type)
	}
	if tokens[0].Lexeme != "/* multi\nline */" {
		t.Errorf("comment lexeme %q", tokens[0].Lexeme)
	}
}

func TestUnterminatedString(t *testing.T) {
	c := diagnostics.NewCollector(100)
	tokens := New("test.lum", `"hello`, c).ScanAll()
	if tokens[0].Type != TokenError {
		t.Errorf("expected ERROR token, got %s", tokens[0].Type)
	}
	if !c.HasErrors() {
		t.Error("expected a lexing diagnostic")
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	tokens := significant(scan(t, "var a;\nvar b;"))

	// tokens: var a ; var b ; EOF
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("first var at %d:%d", tokens[0].Line, tokens[0].Column)
	}
	if tokens[3].Line != 2 || tokens[3].Column != 1 {
		t.Errorf("second var at %d:%d", tokens[3].Line, tokens[3].Column)
	}
	if tokens[4].Line != 2 || tokens[4].Column != 5 {
		t.Errorf("identifier b at %d:%d", tokens[4].Line, tokens[4].Column)
	}
}

func TestKeywordsVsIdentifiers(t *testing.T) {
	tokens := significant(scan(t, "fn classy while whileloop"))
	want := []TokenType{TokenFn, TokenIdentifier, TokenWhile, TokenIdentifier, TokenEOF}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}
