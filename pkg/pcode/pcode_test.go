package pcode

import (
	"strings"
	"testing"

	"github.com/ibpcode/interpreter/internal/config"
)

func TestCompileSuccess(t *testing.T) {
	e, err := New(WithConfig(&config.Config{Stdlib: false}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c, err := e.Compile(`output 1 + 1`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.PrependedLines != 0 {
		t.Errorf("PrependedLines = %d, want 0 with stdlib disabled", c.PrependedLines)
	}
}

func TestCompileStdlibPrependsLines(t *testing.T) {
	e, _ := New(WithConfig(&config.Config{Stdlib: true}))
	c, err := e.Compile(`output 1`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.PrependedLines == 0 {
		t.Error("expected a nonzero PrependedLines with stdlib enabled")
	}
}

func TestEvalCapturedSuccess(t *testing.T) {
	e, _ := New(WithConfig(&config.Config{Stdlib: false}))
	res, err := e.EvalCaptured(`output "hello"`, nil)
	if err != nil {
		t.Fatalf("EvalCaptured returned an error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected Success, got %+v", res)
	}
	if strings.Join(res.Output, "\n") != "hello" {
		t.Errorf("Output = %v, want [hello]", res.Output)
	}
}

func TestEvalCapturedRuntimeFailure(t *testing.T) {
	e, _ := New(WithConfig(&config.Config{Stdlib: false}))
	res, err := e.EvalCaptured(`output unknownVar`, nil)
	if err != nil {
		t.Fatalf("EvalCaptured itself should not error on a runtime failure: %v", err)
	}
	if res.Success {
		t.Fatal("expected Success = false for a reference to an undefined variable")
	}
	if res.Err == nil {
		t.Fatal("expected a non-nil Err describing the runtime failure")
	}
}

func TestValidateFlagsUndefinedVariable(t *testing.T) {
	e, _ := New(WithConfig(&config.Config{Stdlib: false}))
	c, err := e.Compile(`output unknownVar`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	diags := e.Validate(c)
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic for an undefined variable")
	}
}

func TestDiagnosticsJSONAndErrorCount(t *testing.T) {
	errs := []*Error{
		{Message: "cannot find variable `x`", Line: 3, Column: 1, Severity: SeverityError},
		{Message: "function never returns", Line: 5, Column: 1, Severity: SeverityWarning},
	}
	doc, err := DiagnosticsJSON(errs)
	if err != nil {
		t.Fatalf("DiagnosticsJSON failed: %v", err)
	}
	if got := ErrorCount(doc); got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
	if !strings.Contains(string(doc), "cannot find variable") {
		t.Errorf("doc does not contain the expected message: %s", doc)
	}
}

func TestCompileErrorString(t *testing.T) {
	cerr := &CompileError{
		Stage: "parsing",
		Errors: []*Error{
			{Message: "unexpected token", Line: 1, Severity: SeverityError},
		},
	}
	if !cerr.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if cerr.HasWarnings() {
		t.Error("HasWarnings() = true, want false")
	}
	if !strings.Contains(cerr.Error(), "parsing failed with 1 error(s)") {
		t.Errorf("Error() = %q", cerr.Error())
	}
}
