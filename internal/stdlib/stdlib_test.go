package stdlib

import (
	"strings"
	"testing"

	"github.com/ibpcode/interpreter/internal/eval"
	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/parser"
	"github.com/ibpcode/interpreter/internal/runtime"
)

func TestPrependLineCount(t *testing.T) {
	combined, n := Prepend("output 1")
	wantLines := strings.Count(bundle, "\n") + 1
	if n != wantLines {
		t.Errorf("prependedLines = %d, want %d", n, wantLines)
	}
	if !strings.HasSuffix(combined, "output 1") {
		t.Errorf("combined source does not end with the user source")
	}
	if !strings.HasPrefix(combined, "\nclass Collection()") {
		t.Errorf("combined source does not start with the bundle")
	}
}

// run parses combined, stdlib-prepended source and captures its output.
func run(t *testing.T, userSrc string) string {
	t.Helper()
	combined, _ := Prepend(userSrc)
	prog, names, diags, err := parser.Parse(combined)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	restore := ident.Install(names)
	defer restore()

	env := runtime.NewTestEnv(nil)
	if err := eval.New(prog, names).Run(env); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return strings.Join(env.Logs, "\n")
}

func TestStdlibCollection(t *testing.T) {
	out := run(t, `
c = new Collection()
c.addItem("a")
c.addItem("b")
output c.size()
output c.getItem(1)
`)
	want := "2\nb"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestStdlibStack(t *testing.T) {
	out := run(t, `
s = new Stack()
s.push(1)
s.push(2)
output s.pop()
output s.size()
`)
	want := "2\n1"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestStdlibQueue(t *testing.T) {
	out := run(t, `
q = new Queue()
q.enqueue(1)
q.enqueue(2)
output q.dequeue()
output q.peek()
`)
	want := "1\n2"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestStdlibMath(t *testing.T) {
	// floor/round inputs are chosen to be exact in binary floating point
	// (halves and whole numbers), so the result doesn't depend on
	// fmod-vs-subtraction rounding noise.
	out := run(t, `
output Math.abs(-5)
output Math.max(3, 7)
output Math.min(3, 7)
output Math.floor(4)
output Math.round(3.5)
`)
	want := "5\n7\n3\n4\n4"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
