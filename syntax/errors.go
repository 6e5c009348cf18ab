package syntax

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnexpectedCharacter      = errors.New("unexpected character")
	ErrUnexpectedEOF            = errors.New("unexpected end of input")
	ErrParenthesisMismatch      = errors.New("mismatched parenthesis")
	ErrUnexpectedForm           = errors.New("unexpected form")
	ErrExpectedForm             = errors.New("expected form")
	ErrMissingForm              = errors.New("missing form")
	ErrDisallowedToken          = errors.New("disallowed token")
	ErrUnsupportedToken         = errors.New("unsupported token")
	ErrUnterminatedBlockComment = errors.New("unterminated block comment")
	ErrUnterminatedIdentifier   = errors.New("unterminated identifier")
)

// SyntaxError is raised by the tokenizer, grouper and parser. Kind is one
// of the Err sentinels above, so errors.Is(err, ErrUnexpectedEOF) works.
type SyntaxError struct {
	Kind       error
	Line       int
	Col        int
	Msg        string
	SourceLine string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v at line %d column %d", e.Kind, e.Line, e.Col)
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if e.SourceLine != "" {
		fmt.Fprintf(&b, "\n%s\n%s^", e.SourceLine, strings.Repeat(" ", max(e.Col-1, 0)))
	}
	return b.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Kind
}

// sourceLine returns the 1-based line of src, or "" when out of range.
func sourceLine(src []rune, line int) string {
	if line < 1 {
		return ""
	}
	cur := 1
	start := 0
	for i, r := range src {
		if r != '\n' {
			continue
		}
		if cur == line {
			return string(src[start:i])
		}
		cur++
		start = i + 1
	}
	if cur == line {
		return string(src[start:])
	}
	return ""
}

func newError(src []rune, kind error, loc Location, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Kind:       kind,
		Line:       loc.Line,
		Col:        loc.Col,
		Msg:        fmt.Sprintf(format, args...),
		SourceLine: sourceLine(src, loc.Line),
	}
}
