package eval

import (
	"strings"
	"testing"

	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/parser"
	"github.com/ibpcode/interpreter/internal/runtime"
	"github.com/gkampitakis/go-snaps/snaps"
)

// runCaptured parses and runs src in Test mode with scripted input,
// returning the captured Output log joined by newlines.
func runCaptured(t *testing.T, src string, input []string) string {
	t.Helper()
	out, err := runCapturedErr(t, src, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out
}

// runCapturedErr is like runCaptured but returns the Run error instead of
// failing the test, for cases that expect a run to abort.
func runCapturedErr(t *testing.T, src string, input []string, opts ...Option) (string, error) {
	t.Helper()
	prog, names, diags, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}

	restore := ident.Install(names)
	defer restore()

	env := runtime.NewTestEnv(input)
	runErr := New(prog, names, opts...).Run(env)
	return strings.Join(env.Logs, "\n"), runErr
}

func TestEvalArithmeticAndOutput(t *testing.T) {
	out := runCaptured(t, `
x = 3 + 4 * 2
output x
`, nil)
	if out != "11" {
		t.Errorf("got %q, want %q", out, "11")
	}
}

func TestEvalStringNanQuirk(t *testing.T) {
	out := runCaptured(t, `output "a" - 1`, nil)
	if out != "Nan" {
		t.Errorf("got %q, want literal string %q", out, "Nan")
	}
}

func TestEvalAddConcatenatesWithString(t *testing.T) {
	out := runCaptured(t, `output "a" + 1`, nil)
	if out != "a1" {
		t.Errorf("got %q, want %q", out, "a1")
	}
}

func TestEvalComparisonAcrossKindsIsFalse(t *testing.T) {
	out := runCaptured(t, `output 1 < "a"`, nil)
	if out != "false" {
		t.Errorf("got %q, want %q", out, "false")
	}
}

// TestEvalForReEvaluatesEnd guards the ForStmt end-re-evaluation fix: end
// is read fresh each iteration, so mutating it inside the body changes
// how many iterations run.
func TestEvalForReEvaluatesEnd(t *testing.T) {
	out := runCaptured(t, `
limit = 5
count = 0
for i = 0 to limit {
	count = count + 1
	limit = 1
}
output count
`, nil)
	if out != "2" {
		t.Errorf("got %q, want %q (end re-evaluated: iterations for i=0 then i=1, where limit became 1)", out, "2")
	}
}

// TestEvalNoReturnFallbackAsymmetry guards the bare-call half of execFn's
// asymmetric fallback: a bare call with no return yields the string
// "No return". TestEvalReceiverNoReturnFallback covers the other half, a
// receiver-qualified call with no return yielding Number(0).
func TestEvalNoReturnFallbackAsymmetry(t *testing.T) {
	out := runCaptured(t, `
function noop() {
	i = 1
}
output noop()
`, nil)
	if out != "No return" {
		t.Errorf("bare call fallback = %q, want %q", out, "No return")
	}
}

func TestEvalReceiverNoReturnFallback(t *testing.T) {
	out := runCaptured(t, `
class Widget() {
	function noop() {
		i = 1
	}
}
w = new Widget()
output w.noop()
`, nil)
	if out != "0" {
		t.Errorf("receiver call fallback = %q, want %q", out, "0")
	}
}

// TestEvalMaxLoopStepsAborts guards the WithMaxLoopSteps runaway-loop
// guard: an infinite while loop must abort once the step budget is spent,
// rather than hanging forever.
func TestEvalMaxLoopStepsAborts(t *testing.T) {
	_, err := runCapturedErr(t, `
while true {
	i = 1
}
`, nil, WithMaxLoopSteps(10))
	if err == nil {
		t.Fatal("expected the loop to abort once the step budget was exceeded")
	}
}

func TestEvalMaxLoopStepsZeroIsUnbounded(t *testing.T) {
	out := runCaptured(t, `
i = 0
while i < 50 {
	i = i + 1
}
output i
`, nil)
	if out != "50" {
		t.Errorf("got %q, want %q", out, "50")
	}
}

func TestEvalStaticClassMethodCall(t *testing.T) {
	out := runCaptured(t, `
static class Greeter() {
	function hello() {
		return "hi"
	}
}
output Greeter.hello()
`, nil)
	if out != "hi" {
		t.Errorf("got %q, want %q", out, "hi")
	}
}

func TestEvalArrayGrowthOnWriteFillsUndefinedString(t *testing.T) {
	out := runCaptured(t, `
a = [1, 2]
a[5] = 9
output a[3]
`, nil)
	if out != "undefined" {
		t.Errorf("got %q, want literal string %q", out, "undefined")
	}
}

func TestEvalOutputStringNotTrimmed(t *testing.T) {
	out := runCaptured(t, `output "  padded  "`, nil)
	if out != "  padded  " {
		t.Errorf("got %q, want the untrimmed literal", out)
	}
}

// TestEvalFixtures mirrors the teacher's fixture_test.go pattern: run a
// handful of short programs and snapshot their captured output, one
// snapshot per program name.
func TestEvalFixtures(t *testing.T) {
	fixtures := []struct {
		name string
		src  string
	}{
		{
			name: "while_loop_sum",
			src: `
total = 0
i = 1
while i <= 5 {
	total = total + i
	i = i + 1
}
output total
`,
		},
		{
			name: "until_loop_countdown",
			src: `
n = 3
until n == 0 {
	output n
	n = n - 1
}
`,
		},
		{
			name: "class_method_chain",
			src: `
class Counter() {
	this.value = 0

	function increment() {
		this.value = this.value + 1
		return this.value
	}
}
c = new Counter()
c.increment()
c.increment()
output c.increment()
`,
		},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			out := runCaptured(t, f.src, nil)
			snaps.MatchSnapshot(t, f.name, out)
		})
	}
}
