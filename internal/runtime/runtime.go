// Package runtime implements the interpreter's environment: the scope
// stack inside an instance's LocalEnv, the array and instance arenas, the
// static-class registry, and the Release/Test IO modes. Grounded on the
// original's env.rs / env/local_env.rs / env/allocated_lookup_map.rs, with
// the instance frame changed to an insertion-ordered structure since
// spec.md §4.6 requires Output to print fields in declaration order and a
// Go map has no stable iteration order.
package runtime

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/value"
)

// Scope is an insertion-ordered variable binding set: the teacher's
// go-dws environment keeps scopes as plain maps, but our instance frame
// must preserve declaration order for instance formatting, so every scope
// (not just the instance frame) uses this ordered shape for uniformity.
type Scope struct {
	order []ident.NameHash
	vals  map[ident.NameHash]value.Value
}

func newScope() *Scope {
	return &Scope{vals: make(map[ident.NameHash]value.Value)}
}

func (s *Scope) set(name ident.NameHash, v value.Value) {
	if _, ok := s.vals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vals[name] = v
}

func (s *Scope) get(name ident.NameHash) (value.Value, bool) {
	v, ok := s.vals[name]
	return v, ok
}

func (s *Scope) delete(name ident.NameHash) {
	if _, ok := s.vals[name]; ok {
		delete(s.vals, name)
		for i, n := range s.order {
			if n == name {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Fields returns (name, value) pairs in insertion order.
func (s *Scope) Fields() []struct {
	Name ident.NameHash
	Val  value.Value
} {
	out := make([]struct {
		Name ident.NameHash
		Val  value.Value
	}, len(s.order))
	for i, n := range s.order {
		out[i] = struct {
			Name ident.NameHash
			Val  value.Value
		}{n, s.vals[n]}
	}
	return out
}

// LocalEnv is one instance's (or the implicit main class's) scope stack.
// scopes[0] is the "instance frame" holding this.* bindings and survives
// for the instance's whole lifetime; scopes[1:] are function/block scopes
// pushed and popped as execution enters and leaves them.
type LocalEnv struct {
	ClassName ident.NameHash
	scopes    []*Scope
}

// NewLocalEnv creates a LocalEnv with just its instance frame.
func NewLocalEnv(className ident.NameHash) *LocalEnv {
	return &LocalEnv{ClassName: className, scopes: []*Scope{newScope()}}
}

// PushScope enters a new nested scope.
func (e *LocalEnv) PushScope() { e.scopes = append(e.scopes, newScope()) }

// PopScope leaves the innermost scope.
func (e *LocalEnv) PopScope() {
	if len(e.scopes) == 0 {
		panic("runtime: popping empty scope stack")
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// Define binds name in the current (innermost) scope.
func (e *LocalEnv) Define(name ident.NameHash, v value.Value) {
	e.scopes[len(e.scopes)-1].set(name, v)
}

// Undefine removes name from the current (innermost) scope.
func (e *LocalEnv) Undefine(name ident.NameHash) {
	e.scopes[len(e.scopes)-1].delete(name)
}

// Assign writes to the nearest enclosing scope that already binds name,
// or defines it in the current scope if unbound. A `this.`-flagged name
// always targets the instance frame (scopes[0]), per the original's
// this_keyword special case.
func (e *LocalEnv) Assign(name ident.NameHash, v value.Value) {
	if name.ThisKeyword {
		e.scopes[0].set(name, v)
		return
	}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].get(name); ok {
			e.scopes[i].set(name, v)
			return
		}
	}
	e.scopes[len(e.scopes)-1].set(name, v)
}

// Get reads name, searching innermost-to-outermost, unless it is a
// `this.`-flagged name which only ever looks at the instance frame.
func (e *LocalEnv) Get(name ident.NameHash) (value.Value, bool) {
	if name.ThisKeyword {
		return e.scopes[0].get(name)
	}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i].get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// InstanceFields returns the instance frame's bindings in insertion order,
// used by internal/eval's formatValue to print an Instance.
func (e *LocalEnv) InstanceFields() []struct {
	Name ident.NameHash
	Val  value.Value
} {
	return e.scopes[0].Fields()
}

// Mode selects how Input/Output statements interact with the outside
// world: Release talks to real stdin/stdout, Test replays scripted input
// lines and records Output lines for assertion, mirroring the original's
// EnvMode::Release / EnvMode::Test { mock_inputs, logs }.
type Mode int

const (
	Release Mode = iota
	Test
)

// Env is the full evaluation environment for one program run: the array
// and instance arenas (monotonic ids, no reclamation, per spec.md §3's
// arena model), a stack of "current instance" ids so method calls can
// nest, the static-class registry, and the IO mode.
type Env struct {
	Mode Mode

	arrays    map[int][]value.Value
	nextArray int

	locals    map[int]*LocalEnv
	nextLocal int
	stack     []int // ids into locals; top is the currently executing instance

	staticEnvs map[ident.NameHash]int // class NameHash -> locals id, pre-created at validation time

	mockInputs []string
	Logs       []string

	stdin  *bufio.Reader
	stdout io.Writer
}

// NewEnv creates an Env in Release mode reading/writing real IO.
func NewEnv(stdin io.Reader, stdout io.Writer) *Env {
	return &Env{
		Mode:       Release,
		arrays:     make(map[int][]value.Value),
		locals:     make(map[int]*LocalEnv),
		staticEnvs: make(map[ident.NameHash]int),
		stdin:      bufio.NewReader(stdin),
		stdout:     stdout,
	}
}

// NewTestEnv creates an Env in Test mode, replaying mockInputs in order
// for every Input statement/expression and recording Output lines instead
// of writing them anywhere.
func NewTestEnv(mockInputs []string) *Env {
	return &Env{
		Mode:       Test,
		arrays:     make(map[int][]value.Value),
		locals:     make(map[int]*LocalEnv),
		staticEnvs: make(map[ident.NameHash]int),
		mockInputs: mockInputs,
	}
}

// CreateArray allocates a new array in the arena and returns its id.
func (e *Env) CreateArray(elems []value.Value) int {
	id := e.nextArray
	e.nextArray++
	e.arrays[id] = elems
	return id
}

// GetArray returns the array at id. Panics on an unknown id — arrays are
// only ever referenced through a value.Array handle the arena itself
// issued, so an unknown id indicates a validator/evaluator defect, not
// malformed input.
func (e *Env) GetArray(id int) []value.Value {
	a, ok := e.arrays[id]
	if !ok {
		panic(fmt.Sprintf("runtime: unknown array id %d", id))
	}
	return a
}

// SetArray replaces the array at id, used after a growth-on-write resize
// or an indexed element write.
func (e *Env) SetArray(id int, elems []value.Value) {
	e.arrays[id] = elems
}

// CreateLocalEnv allocates a fresh LocalEnv for a new instance and
// returns its id, without making it the active instance.
func (e *Env) CreateLocalEnv(className ident.NameHash) int {
	id := e.nextLocal
	e.nextLocal++
	e.locals[id] = NewLocalEnv(className)
	return id
}

// RegisterStaticEnv records id as the single shared LocalEnv for a static
// class, created once at validation/load time per spec.md §4.3.
func (e *Env) RegisterStaticEnv(class ident.NameHash, id int) {
	e.staticEnvs[class] = id
}

// StaticEnvID returns the pre-created LocalEnv id for a static class.
func (e *Env) StaticEnvID(class ident.NameHash) (int, bool) {
	id, ok := e.staticEnvs[class]
	return id, ok
}

// PushLocalEnv makes id the active instance for the duration of a nested
// call.
func (e *Env) PushLocalEnv(id int) { e.stack = append(e.stack, id) }

// PopLocalEnv restores the previously active instance.
func (e *Env) PopLocalEnv() {
	if len(e.stack) == 0 {
		panic("runtime: popping empty local-env stack")
	}
	e.stack = e.stack[:len(e.stack)-1]
}

// Current returns the LocalEnv for the currently active instance.
func (e *Env) Current() *LocalEnv {
	if len(e.stack) == 0 {
		panic("runtime: no active local env")
	}
	return e.locals[e.stack[len(e.stack)-1]]
}

// CurrentClassName returns the class name of the currently active
// instance.
func (e *Env) CurrentClassName() ident.NameHash {
	return e.Current().ClassName
}

// ClassNameOf returns the class name of the instance at id.
func (e *Env) ClassNameOf(id int) ident.NameHash {
	le, ok := e.locals[id]
	if !ok {
		panic(fmt.Sprintf("runtime: unknown local-env id %d", id))
	}
	return le.ClassName
}

// LocalEnvAt returns the LocalEnv for id, used to format an Instance
// value's fields without making it the active instance.
func (e *Env) LocalEnvAt(id int) *LocalEnv {
	return e.locals[id]
}

// ReadInput fetches the next input line: in Release mode it prompts on
// stdout and reads a line from stdin, in Test mode it pops the next
// scripted line. Returns a Number if the trimmed line parses as a float,
// otherwise a String, per spec.md §4.5/§9.
func (e *Env) ReadInput(prompt string) value.Value {
	var line string
	switch e.Mode {
	case Release:
		if prompt != "" {
			fmt.Fprintf(e.stdout, "%s: ", prompt)
		}
		raw, _ := e.stdin.ReadString('\n')
		line = raw
	case Test:
		if len(e.mockInputs) == 0 {
			panic("runtime: test input exhausted")
		}
		line = e.mockInputs[0]
		e.mockInputs = e.mockInputs[1:]
	}
	line = strings.TrimSpace(line)
	if f, err := strconv.ParseFloat(line, 64); err == nil {
		return value.Number(f)
	}
	return value.String(line)
}

// WriteOutput emits one Output statement's joined text: in Release mode
// it prints the line to stdout, in Test mode it appends to Logs for
// snapshot/assertion tests.
func (e *Env) WriteOutput(text string) {
	switch e.Mode {
	case Release:
		fmt.Fprintln(e.stdout, text)
	case Test:
		e.Logs = append(e.Logs, text)
	}
}
