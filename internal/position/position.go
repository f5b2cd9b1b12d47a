// Package position provides unified source code position tracking
// for the Lumina front end. Tokens and tree nodes carry raw byte
// offsets; this package converts between offsets and human-readable
// line/column locations for diagnostics.
package position

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Position represents a single point in source code
type Position struct {
	Filename string // Source file name
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Offset   int    // 0-based byte offset in source
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before returns true if this position comes before other
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Span represents a half-open byte range [Start, End) in one source file
type Span struct {
	Start int // Starting byte offset (inclusive)
	End   int // Ending byte offset (exclusive)
}

// IsValid returns true if the span is valid
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Len returns the length of the span in bytes
func (s Span) Len() int {
	if !s.IsValid() {
		return 0
	}
	return s.End - s.Start
}

// Contains returns true if the span fully contains other
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Union returns a span that encompasses both this span and other
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// SourceFile represents a source file with content and position tracking
type SourceFile struct {
	Filename string   // File path
	Content  string   // Source code content
	Lines    []string // Lines of source code for efficient access
}

// NewSourceFile creates a new source file from content
func NewSourceFile(filename, content string) *SourceFile {
	return &SourceFile{
		Filename: filename,
		Content:  content,
		Lines:    strings.Split(content, "\n"),
	}
}

// GetLine returns the specified line (1-based) or empty string if invalid
func (sf *SourceFile) GetLine(lineNum int) string {
	if lineNum < 1 || lineNum > len(sf.Lines) {
		return ""
	}
	return sf.Lines[lineNum-1]
}

// GetSpanText returns the text covered by the span
func (sf *SourceFile) GetSpanText(span Span) string {
	if !span.IsValid() || span.End > len(sf.Content) {
		return ""
	}
	return sf.Content[span.Start:span.End]
}

// PositionFromOffset converts a byte offset to a Position
func (sf *SourceFile) PositionFromOffset(offset int) Position {
	if offset < 0 || offset > len(sf.Content) {
		return Position{}
	}

	line := 1
	column := 1
	for i := 0; i < offset; i++ {
		if sf.Content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}

	return Position{
		Filename: sf.Filename,
		Line:     line,
		Column:   column,
		Offset:   offset,
	}
}
