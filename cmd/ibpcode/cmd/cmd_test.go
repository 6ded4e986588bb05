package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureStdout swaps os.Stdout for the duration of fn and returns
// everything written to it, mirroring the teacher's run_unit_test.go
// os.Pipe swap pattern.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), fnErr
}

// resetRunFlags restores the package-level flag vars run.go and
// validate.go share, so tests don't leak state into each other the way
// the teacher's tests reset unitSearchPaths/verbose.
func resetRunFlags(t *testing.T) {
	t.Helper()
	oldEval, oldNoStdlib, oldConfig, oldJSON, oldPretty, oldMax :=
		evalExpr, noStdlib, configPath, diagnosticsJSON, prettyJSON, maxLoopSteps
	t.Cleanup(func() {
		evalExpr, noStdlib, configPath, diagnosticsJSON, prettyJSON, maxLoopSteps =
			oldEval, oldNoStdlib, oldConfig, oldJSON, oldPretty, oldMax
	})
	evalExpr, noStdlib, configPath, diagnosticsJSON, prettyJSON, maxLoopSteps =
		"", false, filepath.Join(t.TempDir(), "missing.yaml"), false, false, 0
}

func TestRunScriptInlineEval(t *testing.T) {
	resetRunFlags(t)
	evalExpr = `output "hi"`
	noStdlib = true

	out, err := captureStdout(t, func() error {
		return runScript(runCmd, nil)
	})
	if err != nil {
		t.Fatalf("runScript failed: %v", err)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Errorf("stdout = %q, want %q", out, "hi")
	}
}

func TestRunScriptFromFile(t *testing.T) {
	resetRunFlags(t)
	noStdlib = true

	path := filepath.Join(t.TempDir(), "prog.pcode")
	if err := os.WriteFile(path, []byte("output 1 + 2"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return runScript(runCmd, []string{path})
	})
	if err != nil {
		t.Fatalf("runScript failed: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("stdout = %q, want %q", out, "3")
	}
}

func TestRunScriptRequiresFileOrEval(t *testing.T) {
	resetRunFlags(t)
	if err := runScript(runCmd, nil); err == nil {
		t.Error("expected an error when neither a file nor -e is given")
	}
}

func TestRunScriptBlocksOnUndefinedVariable(t *testing.T) {
	resetRunFlags(t)
	evalExpr = `output unknownVar`
	noStdlib = true

	if err := runScript(runCmd, nil); err == nil {
		t.Error("expected an error for a reference to an undefined variable")
	}
}

// TestRunScriptAdjustsLineNumbersWithStdlib guards adjustDiagnosticLines:
// a validator diagnostic on the user's own first line must be reported against
// line 1, not the line it actually occupies in the stdlib-prepended
// combined source.
func TestRunScriptAdjustsLineNumbersWithStdlib(t *testing.T) {
	resetRunFlags(t)
	path := filepath.Join(t.TempDir(), "prog.pcode")
	if err := os.WriteFile(path, []byte("output unknownVar"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	var stderr string
	_, err := captureStdout(t, func() error {
		r, w, perr := os.Pipe()
		if perr != nil {
			t.Fatalf("os.Pipe failed: %v", perr)
		}
		old := os.Stderr
		os.Stderr = w
		runErr := runScript(runCmd, []string{path})
		w.Close()
		os.Stderr = old
		var buf bytes.Buffer
		buf.ReadFrom(r)
		stderr = buf.String()
		return runErr
	})
	if err == nil {
		t.Fatal("expected an error for a reference to an undefined variable")
	}
	if !strings.Contains(stderr, "1 | output unknownVar") {
		t.Errorf("stderr does not quote the user's line 1 correctly: %s", stderr)
	}
}

func TestValidateScriptReportsNoDiagnostics(t *testing.T) {
	resetRunFlags(t)
	noStdlib = true
	path := filepath.Join(t.TempDir(), "prog.pcode")
	if err := os.WriteFile(path, []byte("output 1"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return validateScript(validateCmd, []string{path})
	})
	if err != nil {
		t.Fatalf("validateScript failed: %v", err)
	}
	if strings.TrimSpace(out) != "no diagnostics" {
		t.Errorf("stdout = %q, want %q", out, "no diagnostics")
	}
}
