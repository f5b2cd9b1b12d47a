package position

import "testing"

func TestSpanContainsAndUnion(t *testing.T) {
	outer := Span{Start: 0, End: 20}
	inner := Span{Start: 5, End: 10}

	if !outer.Contains(inner) {
		t.Errorf("expected %v to contain %v", outer, inner)
	}
	if inner.Contains(outer) {
		t.Errorf("did not expect %v to contain %v", inner, outer)
	}

	u := inner.Union(Span{Start: 15, End: 30})
	if u.Start != 5 || u.End != 30 {
		t.Errorf("unexpected union result: %v", u)
	}
}

func TestPositionFromOffset(t *testing.T) {
	sf := NewSourceFile("test.lum", "var x = 1;\nvar y = 2;\n")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{11, 2, 1},
		{15, 2, 5},
	}

	for _, tt := range tests {
		pos := sf.PositionFromOffset(tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("offset %d: got %d:%d, want %d:%d",
				tt.offset, pos.Line, pos.Column, tt.line, tt.column)
		}
	}
}

func TestGetLine(t *testing.T) {
	sf := NewSourceFile("test.lum", "first\nsecond\nthird")

	if got := sf.GetLine(2); got != "second" {
		t.Errorf("GetLine(2) = %q, want %q", got, "second")
	}
	if got := sf.GetLine(99); got != "" {
		t.Errorf("GetLine(99) = %q, want empty", got)
	}
}
