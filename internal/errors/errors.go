package errors

import (
	"fmt"
	"strings"
)

// Severity indicates how serious a diagnostic is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

// Diagnostic is a single problem found while loading a grammar or parsing a
// command sentence.
type Diagnostic struct {
	Message    string   // human-readable description
	Severity   Severity // error, warning, or hint
	Source     string   // grammar file or input name (empty if unknown)
	Line       int      // 0 if unknown
	Column     int      // 0 if unknown
	Suggestion string   // e.g. "did you mean \"noun\"?" (optional)
	Code       string   // "E301" style code
}

// Format returns a single-line representation of this diagnostic
// suitable for terminal output without styling; callers add color.
func (d *Diagnostic) Format() string {
	var b strings.Builder

	if d.Source != "" {
		b.WriteString(d.Source)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
		}
		b.WriteString(": ")
	}

	b.WriteString(d.Message)

	if d.Code != "" {
		b.WriteString(" [")
		b.WriteString(d.Code)
		b.WriteString("]")
	}

	return b.String()
}

// Diagnostics collects problems reported while building something.
type Diagnostics struct {
	items  []*Diagnostic
	source string // default source context
}

// New creates a Diagnostics collection scoped to a source name.
func New(source string) *Diagnostics {
	return &Diagnostics{source: source}
}

// Add appends a diagnostic to the collection.
func (ds *Diagnostics) Add(d *Diagnostic) {
	if d.Source == "" {
		d.Source = ds.source
	}
	ds.items = append(ds.items, d)
}

// AddError is a shorthand for adding a SeverityError diagnostic.
func (ds *Diagnostics) AddError(line int, code, message string) {
	ds.Add(&Diagnostic{
		Code:     code,
		Message:  message,
		Line:     line,
		Severity: SeverityError,
	})
}

// AddErrorWithSuggestion adds an error with a "did you mean" suggestion.
func (ds *Diagnostics) AddErrorWithSuggestion(line int, code, message, suggestion string) {
	ds.Add(&Diagnostic{
		Code:       code,
		Message:    message,
		Line:       line,
		Severity:   SeverityError,
		Suggestion: suggestion,
	})
}

// AddWarning is a shorthand for adding a SeverityWarning diagnostic.
func (ds *Diagnostics) AddWarning(line int, code, message string) {
	ds.Add(&Diagnostic{
		Code:     code,
		Message:  message,
		Line:     line,
		Severity: SeverityWarning,
	})
}

// HasErrors returns true if the collection contains any SeverityError entries.
func (ds *Diagnostics) HasErrors() bool {
	for _, d := range ds.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the SeverityError entries.
func (ds *Diagnostics) Errors() []*Diagnostic {
	return ds.filter(SeverityError)
}

// Warnings returns only the SeverityWarning entries.
func (ds *Diagnostics) Warnings() []*Diagnostic {
	return ds.filter(SeverityWarning)
}

func (ds *Diagnostics) filter(sev Severity) []*Diagnostic {
	var result []*Diagnostic
	for _, d := range ds.items {
		if d.Severity == sev {
			result = append(result, d)
		}
	}
	return result
}

// All returns every diagnostic in the collection.
func (ds *Diagnostics) All() []*Diagnostic {
	return ds.items
}

// Format returns a human-friendly multiline string of all diagnostics.
func (ds *Diagnostics) Format() string {
	var b strings.Builder
	for i, d := range ds.items {
		if i > 0 {
			b.WriteString("\n")
		}

		switch d.Severity {
		case SeverityError:
			fmt.Fprintf(&b, "✗ %s", d.Format())
		case SeverityWarning:
			fmt.Fprintf(&b, "⚠ %s", d.Format())
		case SeverityHint:
			fmt.Fprintf(&b, "· %s", d.Format())
		}

		if d.Suggestion != "" {
			fmt.Fprintf(&b, "\n  suggestion: %s", d.Suggestion)
		}
	}
	return b.String()
}

// Err returns the collection as an error if it holds any error-severity
// entries, or nil otherwise. Warnings alone never produce an error.
func (ds *Diagnostics) Err() error {
	if !ds.HasErrors() {
		return nil
	}
	return &DiagnosticsError{Diagnostics: ds}
}

// DiagnosticsError wraps a Diagnostics collection that contains errors.
type DiagnosticsError struct {
	Diagnostics *Diagnostics
}

func (e *DiagnosticsError) Error() string {
	errs := e.Diagnostics.Errors()
	if len(errs) == 1 {
		return errs[0].Format()
	}
	return fmt.Sprintf("%d errors:\n%s", len(errs), e.Diagnostics.Format())
}
