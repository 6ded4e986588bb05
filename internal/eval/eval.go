// Package eval implements the tree-walking evaluator: it executes an
// ast.Program against a runtime.Env, grounded on the original's
// ast/evaluator.rs, eval_expr.rs and exec_stmt.rs (spec.md §4.5-4.7).
// Unlike internal/validator, which accumulates diagnostics and never
// aborts, Run returns the first error the moment an invariant the
// validator should already have caught is violated (spec.md §7).
package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/ibpcode/interpreter/internal/ast"
	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/runtime"
	"github.com/ibpcode/interpreter/internal/value"
)

// Evaluator holds the immutable program and identifier table a run
// executes against.
type Evaluator struct {
	prog         *ast.Program
	names        *ident.Table
	maxLoopSteps int
	loopSteps    int
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithMaxLoopSteps bounds the total number of while/for/until iterations
// a single Run may execute before it aborts with an Unsupported
// diagnostic, guarding against runaway scripts (internal/config's
// MaxLoopSteps). Zero (the default) means unbounded.
func WithMaxLoopSteps(n int) Option {
	return func(ev *Evaluator) { ev.maxLoopSteps = n }
}

func New(prog *ast.Program, names *ident.Table, opts ...Option) *Evaluator {
	ev := &Evaluator{prog: prog, names: names}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// stepLoop counts one loop iteration and returns an error once
// maxLoopSteps is exceeded. A zero maxLoopSteps never trips.
func (ev *Evaluator) stepLoop(line int) error {
	if ev.maxLoopSteps == 0 {
		return nil
	}
	ev.loopSteps++
	if ev.loopSteps > ev.maxLoopSteps {
		return diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Unsupported,
			diagnostic.LineInfo{StartLine: line}, "loop exceeded the configured maximum step count"))
	}
	return nil
}

// Run executes the program's top-level statements (the main class's
// constructor body) against env. Static classes (Math and any
// user-declared `static class`) get their single shared instance
// allocated and initialized up front, mirroring the one-time
// registration internal/validator performs against its own throwaway
// env — Run needs the same registration against the env it actually
// executes against, since the two envs are never the same instance
// (spec.md §4.3/§4.7).
func (ev *Evaluator) Run(env *runtime.Env) error {
	for hash, cls := range ev.prog.Classes {
		if hash == ev.prog.MainHash || !cls.Static {
			continue
		}
		id := env.CreateLocalEnv(cls.Name)
		env.RegisterStaticEnv(cls.Name, id)
		env.PushLocalEnv(id)
		for _, init := range cls.Constructor.Inits {
			v, err := ev.evalExpr(init.Expr, env)
			if err != nil {
				env.PopLocalEnv()
				return err
			}
			env.Current().Define(init.Name, v)
		}
		env.PopLocalEnv()
	}

	mainClass := ev.prog.Classes[ev.prog.MainHash]
	id := env.CreateLocalEnv(ev.prog.MainHash)
	env.PushLocalEnv(id)
	defer env.PopLocalEnv()

	for _, init := range mainClass.Constructor.Inits {
		if _, err := ev.runMainInit(init, env); err != nil {
			return err
		}
	}
	return nil
}

type stmtExprUnwrapper interface {
	Stmt() ast.Stmt
}

func (ev *Evaluator) runMainInit(init ast.FieldInit, env *runtime.Env) (*value.Value, error) {
	if w, ok := init.Expr.(stmtExprUnwrapper); ok {
		return ev.execStmt(w.Stmt(), env)
	}
	v, err := ev.evalExpr(init.Expr, env)
	if err != nil {
		return nil, err
	}
	env.Current().Define(init.Name, v)
	return nil, nil
}

// execStmt executes a statement, returning a non-nil *value.Value when
// it was (or contained) a MethodReturn, signalling the enclosing
// function body to stop executing further statements.
func (ev *Evaluator) execStmt(s ast.Stmt, env *runtime.Env) (*value.Value, error) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return nil, err
		}
		return nil, ev.execAssign(n.Target, n.Op, v, env)
	case *ast.IncrementStmt:
		return nil, ev.execAssign(n.Target, ast.OpAssignAdd, value.Number(1), env)
	case *ast.DecrementStmt:
		return nil, ev.execAssign(n.Target, ast.OpAssignSub, value.Number(1), env)
	case *ast.IfStmt:
		cond, err := ev.evalExpr(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if value.AsBool(cond) {
			return ev.execBody(n.Then, env)
		}
		for _, ei := range n.ElseIfs {
			c, err := ev.evalExpr(ei.Cond, env)
			if err != nil {
				return nil, err
			}
			if value.AsBool(c) {
				return ev.execBody(ei.Body, env)
			}
		}
		if n.HasElse {
			return ev.execBody(n.Else, env)
		}
		return nil, nil
	case *ast.WhileStmt:
		for {
			c, err := ev.evalExpr(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !value.AsBool(c) {
				return nil, nil
			}
			if err := ev.stepLoop(n.Line); err != nil {
				return nil, err
			}
			ret, err := ev.execBody(n.Body, env)
			if err != nil || ret != nil {
				return ret, err
			}
		}
	case *ast.ForStmt:
		start, err := ev.evalExpr(n.Start, env)
		if err != nil {
			return nil, err
		}
		env.Current().Assign(n.Var, start)

		for {
			// end is re-evaluated every iteration, not hoisted, since the
			// body may mutate variables it references (spec.md §4.5).
			end, err := ev.evalExpr(n.End, env)
			if err != nil {
				return nil, err
			}
			cur, _ := env.Current().Get(n.Var)
			if value.AsNum(cur) > value.AsNum(end) {
				return nil, nil
			}
			if err := ev.stepLoop(n.Line); err != nil {
				return nil, err
			}
			ret, err := ev.execBody(n.Body, env)
			if err != nil || ret != nil {
				return ret, err
			}
			cur, _ = env.Current().Get(n.Var)
			env.Current().Assign(n.Var, value.Number(value.AsNum(cur)+1))
		}
	case *ast.UntilStmt:
		for {
			if err := ev.stepLoop(n.Line); err != nil {
				return nil, err
			}
			ret, err := ev.execBody(n.Body, env)
			if err != nil || ret != nil {
				return ret, err
			}
			c, err := ev.evalExpr(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if value.AsBool(c) {
				return nil, nil
			}
		}
	case *ast.InputStmt:
		env.Current().Assign(n.Var, env.ReadInput(ev.names.Display(n.Var)))
		return nil, nil
	case *ast.OutputStmt:
		var b strings.Builder
		for i, e := range n.Values {
			if i > 0 {
				b.WriteByte(' ')
			}
			v, err := ev.evalExpr(e, env)
			if err != nil {
				return nil, err
			}
			ev.formatValue(v, &b, env)
		}
		env.WriteOutput(b.String())
		return nil, nil
	case *ast.AssertStmt:
		got, err := ev.evalExpr(n.Got, env)
		if err != nil {
			return nil, err
		}
		want, err := ev.evalExpr(n.Want, env)
		if err != nil {
			return nil, err
		}
		if !value.Equal(got, want) {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
				diagnostic.LineInfo{StartLine: n.Line, EndLine: n.Line},
				fmt.Sprintf("assertion failed: %s != %s", got, want)))
		}
		return nil, nil
	case *ast.ExprStmt:
		_, err := ev.evalExpr(n.Expr, env)
		return nil, err
	case *ast.MethodReturnStmt:
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, nil
}

func (ev *Evaluator) execBody(body []ast.Stmt, env *runtime.Env) (*value.Value, error) {
	env.Current().PushScope()
	defer env.Current().PopScope()
	for _, s := range body {
		ret, err := ev.execStmt(s, env)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

func (ev *Evaluator) execAssign(target ast.AssignTarget, op ast.AssignOp, rhs value.Value, env *runtime.Env) error {
	switch t := target.(type) {
	case *ast.IdentTarget:
		switch op {
		case ast.OpAssign:
			env.Current().Assign(t.Name, rhs)
		default:
			cur, _ := env.Current().Get(t.Name)
			env.Current().Assign(t.Name, applyCompound(op, cur, rhs))
		}
		return nil
	case *ast.IndexTarget:
		arrV, err := ev.evalExpr(t.Array, env)
		if err != nil {
			return err
		}
		arr, ok := arrV.(value.Array)
		if !ok {
			return diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
				diagnostic.LineInfo{}, "index assignment target is not an array"))
		}
		idxV, err := ev.evalExpr(t.Index, env)
		if err != nil {
			return err
		}
		idx := int(value.AsNum(idxV))
		if idx < 0 {
			return diagnostic.NewRuntimeError(diagnostic.New(diagnostic.OutOfBounds,
				diagnostic.LineInfo{}, "negative array index"))
		}

		elems := env.GetArray(arr.ID)
		// Growth-on-write: writing past the end fills every new slot with
		// the *string* "undefined", not value.Undefined{} — a quirk
		// preserved intentionally. Grow until idx
		// actually fits rather than doubling once, since a single doubling
		// can still leave idx out of range for far-out-of-bounds writes.
		for idx >= len(elems) {
			elems = append(elems, value.String("undefined"))
		}

		var res value.Value
		switch op {
		case ast.OpAssign:
			res = rhs
		default:
			// Every compound op on an array element falls through to
			// addValues, mirroring the quirk documented in
			// SPEC_FULL.md §6 (all four compound forms behave like +=).
			res = addValues(elems[idx], rhs)
		}
		elems[idx] = res
		env.SetArray(arr.ID, elems)
		return nil
	}
	return nil
}

func applyCompound(op ast.AssignOp, cur, rhs value.Value) value.Value {
	switch op {
	case ast.OpAssignAdd:
		return addValues(cur, rhs)
	case ast.OpAssignSub:
		return value.Number(value.AsNum(cur) - value.AsNum(rhs))
	case ast.OpAssignMul:
		return value.Number(value.AsNum(cur) * value.AsNum(rhs))
	case ast.OpAssignDiv:
		return value.Number(value.AsNum(cur) / value.AsNum(rhs))
	default:
		return rhs
	}
}

// addValues implements the Add/`+=` coercion rule: Number+Number sums,
// anything involving a String concatenates via String(), everything else
// falls back to numeric addition.
func addValues(l, r value.Value) value.Value {
	ls, lIsStr := l.(value.String)
	rs, rIsStr := r.(value.String)
	if lIsStr || rIsStr {
		left := string(ls)
		if !lIsStr {
			left = l.String()
		}
		right := string(rs)
		if !rIsStr {
			right = r.String()
		}
		return value.String(left + right)
	}
	return value.Number(value.AsNum(l) + value.AsNum(r))
}

// evalExpr evaluates an expression to a value.Value.
func (ev *Evaluator) evalExpr(e ast.Expr, env *runtime.Env) (value.Value, error) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		v, ok := env.Current().Get(n.Name)
		if !ok {
			// A bare class name used as a receiver (`Math.round(x)`)
			// resolves to its pre-allocated static LocalEnv rather than
			// any variable binding (spec.md §4.7: static classes are
			// dispatched on a shared instance, never `new`-constructed).
			if id, ok := env.StaticEnvID(n.Name); ok {
				return value.Instance{ID: id}, nil
			}
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
				diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find variable `%s` in this scope", ev.names.Display(n.Name))))
		}
		return v, nil
	case *ast.DataExpr:
		return n.Value, nil
	case *ast.ArrayLit:
		elems := make([]value.Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := ev.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		id := env.CreateArray(elems)
		return value.Array{ID: id}, nil
	case *ast.UnaryExpr:
		v, err := ev.evalExpr(n.Expr, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case ast.UnaryNeg:
			return value.Number(-value.AsNum(v)), nil
		default:
			return value.Bool(!value.AsBool(v)), nil
		}
	case *ast.BinOpExpr:
		l, err := ev.evalExpr(n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.evalExpr(n.Right, env)
		if err != nil {
			return nil, err
		}
		return evalBinOp(n.Op, l, r), nil
	case *ast.MethodCallExpr:
		return ev.evalMethodCall(n, env)
	case *ast.SubstringCallExpr:
		sv, err := ev.evalExpr(n.Expr, env)
		if err != nil {
			return nil, err
		}
		s, ok := sv.(value.String)
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
				diagnostic.LineInfo{StartLine: n.Line}, "substring call expression is not a string"))
		}
		startV, err := ev.evalExpr(n.Start, env)
		if err != nil {
			return nil, err
		}
		endV, err := ev.evalExpr(n.End, env)
		if err != nil {
			return nil, err
		}
		start, end := int(value.AsNum(startV)), int(value.AsNum(endV))
		if start < 0 || end > len(s) || start > end {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.OutOfBounds,
				diagnostic.LineInfo{StartLine: n.Line}, "substring range out of bounds"))
		}
		return value.String(s[start:end]), nil
	case *ast.LengthExpr:
		av, err := ev.evalExpr(n.Array, env)
		if err != nil {
			return nil, err
		}
		arr, ok := av.(value.Array)
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
				diagnostic.LineInfo{StartLine: n.Line}, "length is only valid on an array"))
		}
		return value.Number(len(env.GetArray(arr.ID))), nil
	case *ast.ClassNewExpr:
		return ev.evalClassNew(n, env)
	case *ast.IndexExpr:
		av, err := ev.evalExpr(n.Array, env)
		if err != nil {
			return nil, err
		}
		arr, ok := av.(value.Array)
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
				diagnostic.LineInfo{StartLine: n.Line}, "index expression is not an array"))
		}
		idxV, err := ev.evalExpr(n.Index, env)
		if err != nil {
			return nil, err
		}
		idx := int(value.AsNum(idxV))
		elems := env.GetArray(arr.ID)
		if idx < 0 || idx >= len(elems) {
			return value.String("undefined"), nil
		}
		return elems[idx], nil
	case *ast.InputExpr:
		prompt, err := ev.evalExpr(n.Text, env)
		if err != nil {
			return nil, err
		}
		return env.ReadInput(prompt.String()), nil
	case *ast.DivExpr:
		l, err := ev.evalExpr(n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.evalExpr(n.Right, env)
		if err != nil {
			return nil, err
		}
		return value.Number(float64(int64(value.AsNum(l)) / int64(value.AsNum(r)))), nil
	}
	return nil, fmt.Errorf("eval: unknown expression node %T", e)
}

// evalBinOp implements every arithmetic/comparison/logical operator, per
// spec.md §4.5: arithmetic coerces Bool to 0/1 and applies the IEEE-754
// op; Add with either side a String concatenates display forms instead;
// any OTHER arithmetic op with a String operand yields the literal
// String "Nan" rather than coercing the string to 0 (a documented quirk,
// distinct from the float NaN). Comparisons yield Bool (spec.md's Value
// model gives Bool first-class status), defined only within matching
// numeric/boolean/string kinds — mismatched kinds are "incomparable" and
// every ordering operator reports false.
func evalBinOp(op ast.BinOp, l, r value.Value) value.Value {
	_, lIsStr := l.(value.String)
	_, rIsStr := r.(value.String)

	switch op {
	case ast.OpAdd:
		return addValues(l, r)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpIntDiv, ast.OpMod, ast.OpPow:
		if lIsStr || rIsStr {
			return value.String("Nan")
		}
		return arithOp(op, value.AsNum(l), value.AsNum(r))
	case ast.OpAnd:
		return value.Bool(value.AsBool(l) && value.AsBool(r))
	case ast.OpOr:
		return value.Bool(value.AsBool(l) || value.AsBool(r))
	default:
		return compareValues(op, l, r)
	}
}

func arithOp(op ast.BinOp, l, r float64) value.Value {
	switch op {
	case ast.OpSub:
		return value.Number(l - r)
	case ast.OpMul:
		return value.Number(l * r)
	case ast.OpDiv:
		return value.Number(l / r)
	case ast.OpIntDiv:
		return value.Number(float64(int64(l) / int64(r)))
	case ast.OpMod:
		return value.Number(math.Mod(l, r))
	case ast.OpPow:
		return value.Number(math.Pow(l, r))
	default:
		return value.Number(0)
	}
}

func compareValues(op ast.BinOp, l, r value.Value) value.Value {
	switch op {
	case ast.OpEqual:
		return value.Bool(value.Equal(l, r))
	case ast.OpNotEqual:
		return value.Bool(!value.Equal(l, r))
	}

	lt, ok := value.Less(l, r)
	if !ok {
		return value.Bool(false)
	}
	eq := value.Equal(l, r)
	switch op {
	case ast.OpLess:
		return value.Bool(lt)
	case ast.OpGreater:
		return value.Bool(!lt && !eq)
	case ast.OpLessEq:
		return value.Bool(lt || eq)
	case ast.OpGreaterEq:
		return value.Bool(!lt)
	default:
		return value.Bool(false)
	}
}

// evalMethodCall dispatches a bare function call (resolved against the
// currently executing instance's class) or a receiver-qualified call
// (resolved against the receiver's own class) — see spec.md §4.7.
func (ev *Evaluator) evalMethodCall(n *ast.MethodCallExpr, env *runtime.Env) (value.Value, error) {
	if n.Recv == nil {
		className := env.CurrentClassName()
		cls, ok := ev.prog.Classes[className]
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
				diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find class `%s`", ev.names.Display(className))))
		}
		fn, ok := cls.Functions[n.Name]
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
				diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find function `%s` in this scope", ev.names.Display(n.Name))))
		}
		args, err := ev.evalArgs(n.Params, env)
		if err != nil {
			return nil, err
		}
		// A bare call falls back to the literal string "No return" when
		// the function body never hits a return (spec.md §4.7's
		// historical-behaviour fallback), distinct from the
		// receiver-qualified form below.
		return ev.execFn(fn, args, env, value.String("No return"))
	}

	recv, err := ev.evalExpr(n.Recv, env)
	if err != nil {
		return nil, err
	}
	inst, ok := recv.(value.Instance)
	if !ok {
		return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.InvalidType,
			diagnostic.LineInfo{StartLine: n.Line}, "call receiver is not an instance"))
	}

	className := env.ClassNameOf(inst.ID)
	cls, ok := ev.prog.Classes[className]
	if !ok {
		return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
			diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find class `%s`", ev.names.Display(className))))
	}
	fn, ok := cls.Functions[n.Name]
	if !ok {
		return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
			diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find function `%s` in this scope", ev.names.Display(n.Name))))
	}
	args, err := ev.evalArgs(n.Params, env)
	if err != nil {
		return nil, err
	}

	env.PushLocalEnv(inst.ID)
	defer env.PopLocalEnv()
	// A receiver-qualified call falls back to Number(0) rather than the
	// bare-call's string fallback (spec.md §4.7).
	return ev.execFn(fn, args, env, value.Number(0))
}

func (ev *Evaluator) evalArgs(params []ast.Expr, env *runtime.Env) ([]value.Value, error) {
	args := make([]value.Value, len(params))
	for i, p := range params {
		v, err := ev.evalExpr(p, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// execFn pushes a fresh scope, binds parameters, runs the body, and
// returns its MethodReturn value. If the body falls off the end without
// returning, it yields noReturn — the validator's NoReturn diagnostic is
// advisory, not an execution-time guard, so callers each supply the
// fallback their call form historically produced (spec.md §4.7).
func (ev *Evaluator) execFn(fn *ast.Function, args []value.Value, env *runtime.Env, noReturn value.Value) (value.Value, error) {
	env.Current().PushScope()
	defer env.Current().PopScope()

	for i, p := range fn.Params {
		if i < len(args) {
			env.Current().Define(p, args[i])
		}
	}

	for _, s := range fn.Body {
		ret, err := ev.execStmt(s, env)
		if err != nil {
			return nil, err
		}
		if ret != nil {
			return *ret, nil
		}
	}
	return noReturn, nil
}

// evalClassNew constructs a new instance: allocate its LocalEnv, bind
// constructor parameters as temporaries, run the field initializers in
// source order, then discard the temporaries (spec.md §4.3).
func (ev *Evaluator) evalClassNew(n *ast.ClassNewExpr, env *runtime.Env) (value.Value, error) {
	cls, ok := ev.prog.Classes[n.Class]
	if !ok {
		return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
			diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("cannot find class `%s`", ev.names.Display(n.Class))))
	}

	if cls.Static {
		id, ok := env.StaticEnvID(n.Class)
		if !ok {
			return nil, diagnostic.NewRuntimeError(diagnostic.New(diagnostic.Uninitialized,
				diagnostic.LineInfo{StartLine: n.Line}, fmt.Sprintf("static class `%s` was never initialized", ev.names.Display(n.Class))))
		}
		return value.Instance{ID: id}, nil
	}

	id := env.CreateLocalEnv(n.Class)
	env.PushLocalEnv(id)

	for i, p := range n.Params {
		v, err := ev.evalExpr(p, env)
		if err != nil {
			env.PopLocalEnv()
			return nil, err
		}
		if i < len(cls.Constructor.Params) {
			env.Current().Define(cls.Constructor.Params[i], v)
		}
	}

	for _, init := range cls.Constructor.Inits {
		v, err := ev.evalExpr(init.Expr, env)
		if err != nil {
			env.PopLocalEnv()
			return nil, err
		}
		env.Current().Define(init.Name, v)
	}

	for _, p := range cls.Constructor.Params {
		env.Current().Undefine(p)
	}
	env.PopLocalEnv()

	return value.Instance{ID: id}, nil
}

// formatValue renders v per spec.md §4.6's as_string rules: Instance
// fields print in insertion order, Array elements joined by ',', and —
// unlike the text this interpreter's predecessor was ported from —
// String values are NOT trimmed, since a trailing space inside a string
// literal is part of what Output must reproduce (see the worked example
// in spec.md §8 and DESIGN.md's Open Question decisions).
func (ev *Evaluator) formatValue(v value.Value, b *strings.Builder, env *runtime.Env) {
	switch t := v.(type) {
	case value.String:
		b.WriteString(string(t))
	case value.Array:
		for i, el := range env.GetArray(t.ID) {
			if i > 0 {
				b.WriteByte(',')
			}
			ev.formatValue(el, b, env)
		}
	case value.Instance:
		local := env.LocalEnvAt(t.ID)
		b.WriteString(ev.names.Display(local.ClassName))
		b.WriteString(": [")
		for i, f := range local.InstanceFields() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(ev.names.Display(f.Name))
			b.WriteString(": ")
			ev.formatValue(f.Val, b, env)
		}
		b.WriteByte(']')
	default:
		b.WriteString(v.String())
	}
}
