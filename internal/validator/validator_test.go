package validator

import (
	"testing"

	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/parser"
	"github.com/ibpcode/interpreter/internal/runtime"
)

func validate(t *testing.T, src string) []*diagnostic.Diagnostic {
	t.Helper()
	prog, names, pdiags, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(pdiags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", pdiags)
	}
	env := runtime.NewEnv(nil, nil)
	return Validate(prog, names, env).Diagnostics
}

func TestValidateUndefinedVariable(t *testing.T) {
	diags := validate(t, `output unknownVar`)
	if len(diags) != 1 || diags[0].Type != diagnostic.Uninitialized {
		t.Fatalf("expected one Uninitialized diagnostic, got %v", diags)
	}
}

func TestValidateStaticClassReceiverNotFlagged(t *testing.T) {
	diags := validate(t, `
static class Greeter() {
	function hello() {
		return "hi"
	}
}
output Greeter.hello()
`)
	for _, d := range diags {
		if d.Type == diagnostic.Uninitialized {
			t.Errorf("unexpected Uninitialized diagnostic for a static class receiver: %v", d)
		}
	}
}

func TestValidateNoReturnFunction(t *testing.T) {
	diags := validate(t, `
function noop() {
	i = 1
}
x = noop()
`)
	found := false
	for _, d := range diags {
		if d.Type == diagnostic.NoReturn {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a NoReturn diagnostic for a function with no return, got %v", diags)
	}
}

func TestValidateBareCallSuppressesNoReturnAtStatementPosition(t *testing.T) {
	diags := validate(t, `
function noop() {
	i = 1
}
noop()
`)
	for _, d := range diags {
		if d.Type == diagnostic.NoReturn {
			t.Errorf("NoReturn should be suppressed for a bare statement-position call, got %v", d)
		}
	}
}
