package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Codes reported by the tokenizer and the parser.
const (
	CodeEmptyInput    = "E101"
	CodeUnknownWord   = "E102"
	CodeUnexpected    = "E201"
	CodeUnexpectedEnd = "E202"
)

// SyntaxError reports that a command sentence could not be tokenized or has
// no derivation under the grammar. It is the only error the parser returns
// for bad input.
type SyntaxError struct {
	Input      string   // the full input sentence
	Offset     int      // byte offset of the failure
	Column     int      // 1-based rune column of the failure
	Found      string   // offending text; empty at end of input
	Expected   []string // terminal names acceptable at the failure point
	Suggestion string   // closest vocabulary word, if any
	Code       string
}

// NewSyntaxError builds a SyntaxError positioned at the given byte offset.
func NewSyntaxError(input string, offset int, code, found string) *SyntaxError {
	if offset > len(input) {
		offset = len(input)
	}
	return &SyntaxError{
		Input:  input,
		Offset: offset,
		Column: utf8.RuneCountInString(input[:offset]) + 1,
		Found:  found,
		Code:   code,
	}
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at column %d: ", e.Column)
	switch {
	case e.Code == CodeEmptyInput:
		b.WriteString("empty input")
	case e.Found == "":
		b.WriteString("unexpected end of input")
	case e.Code == CodeUnknownWord:
		fmt.Fprintf(&b, "unknown word %q", e.Found)
	default:
		fmt.Fprintf(&b, "unexpected %q", e.Found)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "; expected %s", strings.Join(e.Expected, " or "))
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// Caret returns the input followed by a second line with a caret under the
// failing column.
func (e *SyntaxError) Caret() string {
	return e.Input + "\n" + strings.Repeat(" ", e.Column-1) + "^"
}

// Diagnostic converts the error into a Diagnostic for uniform reporting.
func (e *SyntaxError) Diagnostic() *Diagnostic {
	d := &Diagnostic{
		Message:  e.Error(),
		Severity: SeverityError,
		Line:     1,
		Column:   e.Column,
		Code:     e.Code,
	}
	if e.Suggestion != "" {
		d.Suggestion = fmt.Sprintf("did you mean %q?", e.Suggestion)
	}
	return d
}
