// Package diagnostic implements the Diagnostic value spec.md §4.4/§6
// describes (an ErrorType, a source LineInfo, a message and an optional
// note) plus a colourised caret-underline printer in the shape of the
// teacher's internal/errors.CompilerError formatter.
package diagnostic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
)

// ErrorType classifies a Diagnostic. spec.md §6 names five values; the
// original Rust `ErrorType` enum the interpreter was ported from only
// carried four (NoReturn, OutOfBounds, InvalidType, Uninitialized) — we
// add Unsupported for assign-target and other structurally-rejected
// constructs the parser still needs to recover from (see
// internal/parser's assignTarget fallback).
type ErrorType int

const (
	NoReturn ErrorType = iota
	OutOfBounds
	InvalidType
	Uninitialized
	Unsupported
)

func (t ErrorType) String() string {
	switch t {
	case NoReturn:
		return "No Return"
	case OutOfBounds:
		return "Out Of Bounds"
	case InvalidType:
		return "Invalid Type"
	case Uninitialized:
		return "Uninitialized"
	case Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// LineInfo locates a diagnostic in the source. Lines are inclusive;
// columns are half-open, [StartCol, EndCol).
type LineInfo struct {
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// Diagnostic is one validator or runtime finding.
type Diagnostic struct {
	Type    ErrorType
	Line    LineInfo
	Message string
	Note    string
}

func New(t ErrorType, line LineInfo, message string) *Diagnostic {
	return &Diagnostic{Type: t, Line: line, Message: message}
}

func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Note = note
	return d
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s error at line %d: %s", d.Type, d.Line.StartLine, d.Message)
}

// RuntimeError wraps a Diagnostic raised during evaluation rather than
// validation. Unlike the validator, which accumulates and never aborts
// (spec.md §4.4), the evaluator returns the first RuntimeError the moment
// an invariant the validator should have caught is violated (spec.md §7).
type RuntimeError struct {
	*Diagnostic
}

func NewRuntimeError(d *Diagnostic) *RuntimeError {
	return &RuntimeError{Diagnostic: d}
}

const (
	ansiRed   = "\x1b[1;31m"
	ansiReset = "\x1b[0m"
)

// Printer formats diagnostics against their originating source text,
// following the teacher's CompilerError.Format(color bool) shape: a
// line-number gutter, the offending source line, and a caret underline
// spanning StartCol..EndCol.
type Printer struct {
	Source string
	Color  bool
}

func NewPrinter(source string, color bool) *Printer {
	return &Printer{Source: source, Color: color}
}

// Format renders d as a human-readable, optionally colourised block.
func (p *Printer) Format(d *Diagnostic) string {
	var b strings.Builder

	if p.Color {
		b.WriteString(ansiRed)
	}
	fmt.Fprintf(&b, "%s error: %s\n", d.Type, d.Message)

	lines := strings.Split(p.Source, "\n")
	lineNo := d.Line.StartLine
	if lineNo >= 1 && lineNo <= len(lines) {
		gutter := strconv.Itoa(lineNo)
		indent := strings.Repeat(" ", len(gutter))

		fmt.Fprintf(&b, "%s | \n", indent)
		fmt.Fprintf(&b, "%s | %s\n", gutter, lines[lineNo-1])

		start := d.Line.StartCol
		end := d.Line.EndCol
		width := end - start
		if width < 1 {
			width = 1
		}
		fmt.Fprintf(&b, "%s | %s%s", indent, strings.Repeat(" ", max(0, start-1)), strings.Repeat("^", width))
		if d.Note != "" {
			fmt.Fprintf(&b, " %s", d.Note)
		}
		b.WriteString("\n")
	}

	if p.Color {
		b.WriteString(ansiReset)
	}
	return b.String()
}

// FormatAll renders every diagnostic in ds in the order given; it does not
// sort them (internal/validator already returns its findings sorted by
// start line).
func (p *Printer) FormatAll(ds []*Diagnostic) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(p.Format(d))
	}
	return b.String()
}

// PrettyJSON reindents a JSON diagnostic document (as built by
// pkg/pcode's incremental sjson encoder) for the CLI's
// --diagnostics-json --pretty flag combination.
func PrettyJSON(doc []byte) []byte {
	return pretty.Pretty(doc)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
