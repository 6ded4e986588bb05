package pcode

import (
	"fmt"
	"strings"

	"github.com/ibpcode/interpreter/internal/diagnostic"
)

// Severity classifies a structured Error, mirroring the teacher's
// pkg/dwscript severity levels.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Error is one structured parsing/validation finding, adapted from an
// internal/diagnostic.Diagnostic into a stable public shape.
type Error struct {
	Message  string
	Note     string
	Line     int
	Column   int
	Severity Severity
}

func (e *Error) IsError() bool   { return e.Severity == SeverityError }
func (e *Error) IsWarning() bool { return e.Severity == SeverityWarning }

func (e *Error) String() string {
	if e.Note != "" {
		return fmt.Sprintf("%s:%d: %s (%s)", e.Severity, e.Line, e.Message, e.Note)
	}
	return fmt.Sprintf("%s:%d: %s", e.Severity, e.Line, e.Message)
}

// CompileError wraps every structured finding from one Compile stage
// ("parsing" or "validation"). It satisfies the error interface so
// callers can keep using plain `error` while still type-asserting for
// the structured detail, same as the teacher's *CompileError.
type CompileError struct {
	Stage  string
	Errors []*Error
}

func (c *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed with %d error(s)", c.Stage, len(c.Errors))
	for _, e := range c.Errors {
		b.WriteString("\n  ")
		b.WriteString(e.String())
	}
	return b.String()
}

// HasErrors reports whether any entry is SeverityError (as opposed to a
// warning-only diagnostic set).
func (c *CompileError) HasErrors() bool {
	for _, e := range c.Errors {
		if e.IsError() {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any entry is SeverityWarning.
func (c *CompileError) HasWarnings() bool {
	for _, e := range c.Errors {
		if e.IsWarning() {
			return true
		}
	}
	return false
}

// fromDiagnostics adapts a validator/parser diagnostic batch into the
// public Error shape, subtracting the stdlib prepend offset so line
// numbers point back at the user's own source (spec.md §6).
func fromDiagnostics(diags []*diagnostic.Diagnostic, prependedLines int) []*Error {
	errs := make([]*Error, len(diags))
	for i, d := range diags {
		sev := SeverityError
		if d.Type == diagnostic.NoReturn {
			sev = SeverityWarning
		}
		errs[i] = &Error{
			Message:  d.Message,
			Note:     d.Note,
			Line:     d.Line.StartLine - prependedLines,
			Column:   d.Line.StartCol,
			Severity: sev,
		}
	}
	return errs
}
