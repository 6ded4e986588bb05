// Package validator implements the static validator: a non-executing
// traversal of an ast.Program that seeds sentinel values into a runtime
// Env and accumulates diagnostics without ever aborting, grounded on the
// original's ast/validator.rs, validate_stmt.rs, validate_expr.rs
// (spec.md §4.4).
package validator

import (
	"fmt"
	"sort"

	"github.com/ibpcode/interpreter/internal/ast"
	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/runtime"
	"github.com/ibpcode/interpreter/internal/value"
)

// Result is the accumulated outcome of validating a Program.
type Result struct {
	Diagnostics []*diagnostic.Diagnostic
}

// validator carries the validation-time state: accumulated diagnostics,
// the memoized per-class validated-function set (so a function reachable
// from multiple call sites is only checked once), and the names table
// used to render identifiers in messages.
type validator struct {
	prog           *ast.Program
	names          *ident.Table
	diags          []*diagnostic.Diagnostic
	validatedFuncs map[ident.NameHash]map[ident.NameHash]bool
}

// Validate performs the full static pass described in spec.md §4.4:
// classes are validated first (encapsulated, so fully checkable in
// isolation), then the main script body, then any main-class functions
// never reached from the body but still worth checking. Diagnostics are
// sorted by start line at the end.
func Validate(prog *ast.Program, names *ident.Table, env *runtime.Env) *Result {
	v := &validator{
		prog:           prog,
		names:          names,
		validatedFuncs: make(map[ident.NameHash]map[ident.NameHash]bool),
	}

	for hash, cls := range prog.Classes {
		if hash == prog.MainHash {
			continue
		}
		v.validateClassDef(cls, env)
	}

	mainClass := prog.Classes[prog.MainHash]
	id := env.CreateLocalEnv(prog.MainHash)
	env.PushLocalEnv(id)
	for _, init := range mainClass.Constructor.Inits {
		v.validateMainStmt(init, env)
	}
	for name, fn := range mainClass.Functions {
		v.validateFnDef(prog.MainHash, name, fn, env)
	}
	env.PopLocalEnv()

	sort.SliceStable(v.diags, func(i, j int) bool {
		return v.diags[i].Line.StartLine < v.diags[j].Line.StartLine
	})

	return &Result{Diagnostics: v.diags}
}

type stmtExprUnwrapper interface {
	Stmt() ast.Stmt
}

// validateMainStmt validates one entry of the main class's
// Constructor.Inits list, which is either a real field initializer or a
// parser-wrapped top-level statement (see internal/parser's stmtExpr).
func (v *validator) validateMainStmt(init ast.FieldInit, env *runtime.Env) {
	if w, ok := init.Expr.(stmtExprUnwrapper); ok {
		v.validateStmt(w.Stmt(), env)
		return
	}
	v.validateExpr(init.Expr, env)
	env.Current().Assign(init.Name, value.Number(0))
}

func (v *validator) validateClassDef(cls *ast.Class, env *runtime.Env) {
	id := env.CreateLocalEnv(cls.Name)
	env.PushLocalEnv(id)

	if cls.Static {
		env.RegisterStaticEnv(cls.Name, id)
		if len(cls.Constructor.Params) > 0 {
			v.addDiag(diagnostic.Unsupported, 0,
				fmt.Sprintf("constructor parameter(s) found for class `%s`. Static classes cannot have constructor parameters", v.names.Display(cls.Name)),
				"invalid constructor parameter(s)")
		}
	} else {
		for _, p := range cls.Constructor.Params {
			env.Current().Define(p, value.Number(0))
		}
	}

	for _, init := range cls.Constructor.Inits {
		v.validateExpr(init.Expr, env)
		env.Current().Define(init.Name, value.Number(0))
	}

	for name, fn := range cls.Functions {
		v.validateFnDef(cls.Name, name, fn, env)
	}

	env.PopLocalEnv()
}

func (v *validator) validateFnDef(className, fnName ident.NameHash, fn *ast.Function, env *runtime.Env) {
	seen, ok := v.validatedFuncs[className]
	if !ok {
		seen = make(map[ident.NameHash]bool)
		v.validatedFuncs[className] = seen
	}
	if seen[fnName] {
		return
	}

	env.Current().PushScope()
	for _, p := range fn.Params {
		env.Current().Define(p, value.Number(0))
	}
	for _, s := range fn.Body {
		v.validateStmt(s, env)
	}
	env.Current().PopScope()

	seen[fnName] = true
}

func (v *validator) validateStmt(s ast.Stmt, env *runtime.Env) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		v.validateAssignTarget(n.Target, env)
		v.validateExpr(n.Value, env)
	case *ast.IncrementStmt:
		v.validateAssignTarget(n.Target, env)
	case *ast.DecrementStmt:
		v.validateAssignTarget(n.Target, env)
	case *ast.IfStmt:
		v.validateExpr(n.Cond, env)
		v.validateBody(n.Then, env)
		for _, ei := range n.ElseIfs {
			v.validateExpr(ei.Cond, env)
			v.validateBody(ei.Body, env)
		}
		if n.HasElse {
			v.validateBody(n.Else, env)
		}
	case *ast.WhileStmt:
		v.validateExpr(n.Cond, env)
		v.validateBody(n.Body, env)
	case *ast.ForStmt:
		prev, had := env.Current().Get(n.Var)
		env.Current().Assign(n.Var, value.Number(0))

		v.validateExpr(n.Start, env)
		v.validateExpr(n.End, env)
		v.validateBody(n.Body, env)

		if had {
			env.Current().Assign(n.Var, prev)
		} else {
			env.Current().Undefine(n.Var)
		}
	case *ast.UntilStmt:
		v.validateExpr(n.Cond, env)
		v.validateBody(n.Body, env)
	case *ast.InputStmt:
		env.Current().Assign(n.Var, value.Number(0))
	case *ast.OutputStmt:
		for _, e := range n.Values {
			v.validateExpr(e, env)
		}
	case *ast.AssertStmt:
		v.validateExpr(n.Got, env)
		v.validateExpr(n.Want, env)
	case *ast.ExprStmt:
		before := len(v.diags)
		v.validateExpr(n.Expr, env)
		// Statement-position NoReturn suppression: a bare call used only
		// for effect shouldn't complain about not producing a value
		// (spec.md §4.4).
		if len(v.diags) > before && v.diags[len(v.diags)-1].Type == diagnostic.NoReturn {
			v.diags = v.diags[:len(v.diags)-1]
		}
	case *ast.MethodReturnStmt:
		v.validateExpr(n.Value, env)
	}
}

func (v *validator) validateBody(body []ast.Stmt, env *runtime.Env) {
	env.Current().PushScope()
	for _, s := range body {
		v.validateStmt(s, env)
	}
	env.Current().PopScope()
}

func (v *validator) validateAssignTarget(t ast.AssignTarget, env *runtime.Env) {
	switch tt := t.(type) {
	case *ast.IdentTarget:
		env.Current().Assign(tt.Name, value.Number(0))
	case *ast.IndexTarget:
		v.validateExpr(tt.Array, env)
		v.validateExpr(tt.Index, env)
	}
}

func (v *validator) validateExpr(e ast.Expr, env *runtime.Env) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		if _, ok := env.Current().Get(n.Name); !ok {
			if cls, ok := v.prog.Classes[n.Name]; !ok || !cls.Static {
				v.addDiag(diagnostic.Uninitialized, n.Pos(),
					fmt.Sprintf("cannot find variable `%s` in this scope", v.names.Display(n.Name)),
					"not found in this scope")
			}
		}
	case *ast.DataExpr:
		// literal, nothing to check
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			v.validateExpr(el, env)
		}
	case *ast.UnaryExpr:
		v.validateExpr(n.Expr, env)
	case *ast.BinOpExpr:
		v.validateExpr(n.Left, env)
		v.validateExpr(n.Right, env)
	case *ast.MethodCallExpr:
		v.validateMethodCall(n, env)
	case *ast.SubstringCallExpr:
		v.validateExpr(n.Expr, env)
		v.validateExpr(n.Start, env)
		v.validateExpr(n.End, env)
	case *ast.LengthExpr:
		v.validateExpr(n.Array, env)
	case *ast.ClassNewExpr:
		if _, ok := v.prog.Classes[n.Class]; !ok {
			v.addDiag(diagnostic.Uninitialized, n.Pos(),
				fmt.Sprintf("cannot find class `%s`", v.names.Display(n.Class)), "class is not defined")
		}
		for _, p := range n.Params {
			v.validateExpr(p, env)
		}
	case *ast.IndexExpr:
		v.validateExpr(n.Array, env)
		v.validateExpr(n.Index, env)
	case *ast.InputExpr:
		v.validateExpr(n.Text, env)
	case *ast.DivExpr:
		v.validateExpr(n.Left, env)
		v.validateExpr(n.Right, env)
	}
}

// validateMethodCall handles both a bare function call (Recv == nil,
// resolved against the current class) and a call through a receiver
// expression (resolved once evaluation knows the receiver's class, so
// here we only check the receiver and arguments).
func (v *validator) validateMethodCall(n *ast.MethodCallExpr, env *runtime.Env) {
	if n.Recv != nil {
		v.validateExpr(n.Recv, env)
		for _, p := range n.Params {
			v.validateExpr(p, env)
		}
		return
	}

	className := env.CurrentClassName()
	cls, ok := v.prog.Classes[className]
	if !ok {
		return
	}
	fn, ok := cls.Functions[n.Name]
	if !ok {
		v.addDiag(diagnostic.Uninitialized, n.Pos(),
			fmt.Sprintf("cannot find function `%s` in this scope", v.names.Display(n.Name)),
			"not found in this scope")
		return
	}

	for _, p := range n.Params {
		v.validateExpr(p, env)
	}

	if className == v.prog.MainHash {
		v.validateFnDef(className, n.Name, fn, env)
	}

	if !fn.Returns {
		v.addDiag(diagnostic.NoReturn, n.Pos(),
			fmt.Sprintf("not all code paths return for function `%s` in class `%s`", v.names.Display(n.Name), v.names.Display(className)),
			"expected to return a value")
	}
}

func (v *validator) addDiag(t diagnostic.ErrorType, line int, msg, note string) {
	v.diags = append(v.diags, diagnostic.New(t, diagnostic.LineInfo{StartLine: line, EndLine: line}, msg).WithNote(note))
}
