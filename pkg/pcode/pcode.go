// Package pcode is the public compile/validate/run facade over the
// internal lexer/parser/validator/eval pipeline, shaped after the
// teacher's pkg/dwscript engine: a functional-options constructor plus
// Compile/Eval methods that return structured errors rather than raw
// diagnostics (SPEC_FULL.md §1/§3).
package pcode

import (
	"io"
	"os"

	"github.com/ibpcode/interpreter/internal/ast"
	"github.com/ibpcode/interpreter/internal/config"
	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/eval"
	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/parser"
	"github.com/ibpcode/interpreter/internal/runtime"
	"github.com/ibpcode/interpreter/internal/stdlib"
	"github.com/ibpcode/interpreter/internal/validator"
)

// Engine compiles and runs pseudocode-dialect source against a
// configuration. It holds no per-run state; each Compile/Eval call is
// independent.
type Engine struct {
	cfg *config.Config
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig overrides the engine's configuration wholesale, typically
// loaded from a .ibpcode.yaml file via internal/config.Load.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithStdlib toggles whether the bundled Collection/Stack/Queue/Math
// sources are prepended ahead of user code.
func WithStdlib(enabled bool) Option {
	return func(e *Engine) { e.cfg.Stdlib = enabled }
}

// New constructs an Engine with default configuration, as modified by
// opts.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compiled is the result of a successful Compile: the parsed program, its
// identifier table, and the line offset introduced by stdlib prepending
// (spec.md §6) so callers can translate diagnostic line numbers back to
// the user's own source.
type Compiled struct {
	Program        *ast.Program
	Names          *ident.Table
	PrependedLines int
}

// Compile lexes and parses source, prepending the bundled stdlib sources
// first unless disabled. A lex/parse failure is returned as a
// *CompileError with Stage "parsing".
func (e *Engine) Compile(source string) (*Compiled, error) {
	prependedLines := 0
	if e.cfg.Stdlib {
		source, prependedLines = stdlib.Prepend(source)
	}

	prog, names, diags, err := parser.Parse(source)
	if err != nil {
		return nil, &CompileError{Stage: "parsing", Errors: []*Error{
			{Message: err.Error(), Severity: SeverityError},
		}}
	}
	if len(diags) > 0 {
		return nil, &CompileError{Stage: "parsing", Errors: fromDiagnostics(diags, prependedLines)}
	}

	return &Compiled{Program: prog, Names: names, PrependedLines: prependedLines}, nil
}

// Validate runs the static validator over a Compiled program. Unlike
// Compile, a non-empty diagnostic set is not itself an error — callers
// decide whether Uninitialized/NoReturn findings should block execution.
func (e *Engine) Validate(c *Compiled) []*diagnostic.Diagnostic {
	env := runtime.NewEnv(io.Discard, io.Discard)
	return validator.Validate(c.Program, c.Names, env).Diagnostics
}

// Result is the outcome of a full Eval: whether the run completed without
// a runtime error, the captured output lines (Test-mode semantics, see
// internal/runtime), and the error if any.
type Result struct {
	Success bool
	Output  []string
	Err     error
}

// Run executes a previously compiled program against env, which the
// caller constructs (Release mode against real stdio via runtime.NewEnv,
// or Test mode via runtime.NewTestEnv with scripted input).
func (e *Engine) Run(c *Compiled, env *runtime.Env) error {
	restore := ident.Install(c.Names)
	defer restore()
	return eval.New(c.Program, c.Names, eval.WithMaxLoopSteps(e.cfg.MaxLoopSteps)).Run(env)
}

// Eval is the one-shot convenience path: compile, then run against
// stdin/stdout. It does not run the validator; Eval only enforces that
// the program parses.
func (e *Engine) Eval(source string) (*Result, error) {
	c, err := e.Compile(source)
	if err != nil {
		return nil, err
	}

	env := runtime.NewEnv(os.Stdin, os.Stdout)
	if err := e.Run(c, env); err != nil {
		return &Result{Success: false, Err: err}, nil
	}
	return &Result{Success: true}, nil
}

// EvalCaptured runs source in Test mode with scripted input, returning
// the captured Output log instead of writing to real stdio.
func (e *Engine) EvalCaptured(source string, input []string) (*Result, error) {
	c, err := e.Compile(source)
	if err != nil {
		return nil, err
	}

	env := runtime.NewTestEnv(input)
	if err := e.Run(c, env); err != nil {
		return &Result{Success: false, Output: env.Logs, Err: err}, nil
	}
	return &Result{Success: true, Output: env.Logs}, nil
}
