// Package parser implements a recursive-descent parser that builds
// internal/ast directly from internal/token.Token (folding the teacher's
// separate parse/build stages into one pass, following spec.md §4.1).
// Operator precedence climbs logical_or > logical_and > comparison >
// add_sub > mul_div > pow > unary > postfix > primary, with pow
// right-associative and unary folding right-to-left, grounded exactly on
// the original Rust grammar's `build_expr`/`build_term`.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ibpcode/interpreter/internal/ast"
	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/ident"
	"github.com/ibpcode/interpreter/internal/lexer"
	"github.com/ibpcode/interpreter/internal/token"
	"github.com/ibpcode/interpreter/internal/value"
)

// Parser consumes a token stream and a display-name table, producing an
// ast.Program plus any Unsupported diagnostics raised while recovering
// from malformed assign targets (spec.md §4.1).
type Parser struct {
	toks  []token.Token
	pos   int
	names *ident.Table
	diags []*diagnostic.Diagnostic
}

// Parse tokenizes src, parses it, and returns the resulting Program, the
// display-name table used to intern identifiers, and any diagnostics
// recorded while recovering from unsupported constructs. A syntax error
// is returned as err.
func Parse(src string) (_ *ast.Program, _ *ident.Table, _ []*diagnostic.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, nil, nil, err
	}
	names := ident.NewTable()
	p := &Parser{toks: toks, names: names}

	prog := &ast.Program{Classes: make(map[ident.NameHash]*ast.Class)}
	prog.MainHash = names.Intern("main")
	mainClass := &ast.Class{
		Name:        prog.MainHash,
		Functions:   make(map[ident.NameHash]*ast.Function),
		Constructor: &ast.Constructor{},
	}
	prog.Classes[prog.MainHash] = mainClass

	for !p.check(token.EOF) {
		switch {
		case p.check(token.KwFunction):
			fn := p.parseFunction()
			mainClass.Functions[fn.Name] = fn
		case p.check(token.KwClass) || (p.check(token.KwStatic) && p.peekIs(1, token.KwClass)):
			cls := p.parseClass()
			prog.Classes[cls.Name] = cls
		default:
			stmt := p.parseStmt()
			mainClass.Constructor.Inits = append(mainClass.Constructor.Inits, ast.FieldInit{Expr: wrapStmtExpr(stmt)})
		}
	}

	return prog, names, p.diags, nil
}

// wrapStmtExpr lets a bare top-level statement ride alongside the
// Constructor.Inits list the main class borrows to hold the script body;
// eval recognizes this adapter (by its Stmt method) and executes the
// statement instead of assigning a field (see internal/eval).
func wrapStmtExpr(s ast.Stmt) ast.Expr {
	return &stmtExpr{stmt: s}
}

// stmtExpr adapts a Stmt so it can be threaded through Constructor.Inits
// alongside real field initializers; internal/eval type-switches on it
// before evaluating as an expression.
type stmtExpr struct {
	stmt ast.Stmt
}

func (s *stmtExpr) exprNode() {}
func (s *stmtExpr) Pos() int  { return 0 }

// Stmt unwraps the statement an eval-time type switch uses to recognize
// this adapter.
func (s *stmtExpr) Stmt() ast.Stmt { return s.stmt }

// --- token stream helpers -------------------------------------------------

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) check(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) peekIs(ahead int, k token.Kind) bool {
	i := p.pos + ahead
	if i >= len(p.toks) {
		return false
	}
	return p.toks[i].Kind == k
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.check(k) {
		panic(fmt.Sprintf("parser: expected %s, got %s at %s", k, p.cur().Kind, p.cur().Pos))
	}
	return p.advance()
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) addDiag(t diagnostic.ErrorType, line int, msg, note string) {
	p.diags = append(p.diags, diagnostic.New(t, diagnostic.LineInfo{StartLine: line, EndLine: line}, msg).WithNote(note))
}

// --- top-level declarations ----------------------------------------------

func (p *Parser) parseFunction() *ast.Function {
	p.expect(token.KwFunction)
	nameTok := p.expect(token.Ident)
	name := p.names.Intern(nameTok.Text)

	params := p.parseParamList()

	var body []ast.Stmt
	returns := false
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		s := p.parseStmt()
		if _, ok := s.(*ast.MethodReturnStmt); ok {
			returns = true
		}
		body = append(body, s)
	}
	p.match(token.RBrace)

	return &ast.Function{Name: name, Params: params, Body: body, Returns: returns}
}

func (p *Parser) parseParamList() []ident.NameHash {
	p.expect(token.LParen)
	var params []ident.NameHash
	for !p.check(token.RParen) {
		t := p.expect(token.Ident)
		params = append(params, p.names.Intern(t.Text))
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	p.match(token.LBrace)
	return params
}

func (p *Parser) parseClass() *ast.Class {
	static := p.match(token.KwStatic)
	p.expect(token.KwClass)
	nameTok := p.expect(token.Ident)
	name := p.names.Intern(nameTok.Text)

	ctorParams := p.parseParamList()

	cls := &ast.Class{
		Name:        name,
		Functions:   make(map[ident.NameHash]*ast.Function),
		Constructor: &ast.Constructor{Params: ctorParams},
		Static:      static,
	}

	for !p.check(token.RBrace) && !p.check(token.EOF) {
		if p.check(token.KwFunction) {
			fn := p.parseFunction()
			cls.Functions[fn.Name] = fn
			continue
		}

		isPublic := p.match(token.KwPublic)

		// Inline member function: `this.NAME = function(PARAMS) { BODY }`
		// is lowered to a Function on the class, not a FieldInit
		// (spec.md §4.3's "inline member form").
		if p.check(token.Ident) && p.peekIs(1, token.Assign) && p.peekIs(2, token.KwFunction) {
			// The anonymous `function(...)` has no name of its own, and the
			// key is interned without the `this.` prefix so calls resolve.
			nameTok := p.advance()
			fieldName := p.names.Intern(strings.TrimPrefix(nameTok.Text, "this."))
			p.expect(token.Assign)
			p.expect(token.KwFunction)
			fn := &ast.Function{Name: fieldName, Params: p.parseParamList()}
			for !p.check(token.RBrace) && !p.check(token.EOF) {
				s := p.parseStmt()
				if _, ok := s.(*ast.MethodReturnStmt); ok {
					fn.Returns = true
				}
				fn.Body = append(fn.Body, s)
			}
			p.match(token.RBrace)
			cls.Functions[fieldName] = fn
			continue
		}

		fieldTok := p.expect(token.Ident)
		fieldName := p.names.Intern(fieldTok.Text)
		p.expect(token.Assign)
		expr := p.parseExpr()
		cls.Constructor.Inits = append(cls.Constructor.Inits, ast.FieldInit{Name: fieldName, Expr: expr})
		_ = isPublic // tracked for source fidelity only; not enforced at runtime
	}
	p.match(token.RBrace)

	return cls
}

// --- statements ------------------------------------------------------------

func (p *Parser) parseStmt() ast.Stmt {
	line := p.cur().Pos.Line

	switch {
	case p.check(token.KwIf):
		return p.parseIf()
	case p.check(token.KwWhile):
		return p.parseWhile()
	case p.check(token.KwFor):
		return p.parseFor()
	case p.check(token.KwUntil):
		return p.parseUntil()
	case p.check(token.KwInput):
		p.advance()
		t := p.expect(token.Ident)
		return &ast.InputStmt{Var: p.names.Intern(t.Text), Line: line}
	case p.check(token.KwOutput):
		p.advance()
		var vals []ast.Expr
		vals = append(vals, p.parseExpr())
		for p.match(token.Comma) {
			vals = append(vals, p.parseExpr())
		}
		return &ast.OutputStmt{Values: vals, Line: line}
	case p.check(token.KwAssert):
		p.advance()
		got := p.parseExpr()
		p.expect(token.Eq)
		want := p.parseExpr()
		return &ast.AssertStmt{Got: got, Want: want, Line: line}
	case p.check(token.KwReturn):
		p.advance()
		return &ast.MethodReturnStmt{Value: p.parseExpr(), Line: line}
	}

	// Assignment / increment / decrement / bare expression statement all
	// start with an expression; disambiguate on what follows.
	expr := p.parseExpr()

	switch {
	case p.check(token.Increment):
		p.advance()
		return &ast.IncrementStmt{Target: p.assignTarget(expr, line), Line: line}
	case p.check(token.Decrement):
		p.advance()
		return &ast.DecrementStmt{Target: p.assignTarget(expr, line), Line: line}
	case isAssignOp(p.cur().Kind):
		op := p.assignOpFor(p.advance().Kind)
		rhs := p.parseExpr()
		return &ast.AssignStmt{Target: p.assignTarget(expr, line), Op: op, Value: rhs, Line: line}
	default:
		return &ast.ExprStmt{Expr: expr, Line: line}
	}
}

func isAssignOp(k token.Kind) bool {
	switch k {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		return true
	}
	return false
}

func (p *Parser) assignOpFor(k token.Kind) ast.AssignOp {
	switch k {
	case token.PlusAssign:
		return ast.OpAssignAdd
	case token.MinusAssign:
		return ast.OpAssignSub
	case token.StarAssign:
		return ast.OpAssignMul
	case token.SlashAssign:
		return ast.OpAssignDiv
	default:
		return ast.OpAssign
	}
}

// assignTarget reinterprets an already-parsed expression as an assign
// target: an Ident passes through, an Index becomes an array target, and
// anything else is Unsupported — recorded as a diagnostic, with parsing
// continuing via a sentinel empty-identifier target, exactly as the
// original's get_assign_target recovers.
func (p *Parser) assignTarget(e ast.Expr, line int) ast.AssignTarget {
	switch t := e.(type) {
	case *ast.IdentExpr:
		return &ast.IdentTarget{Name: t.Name}
	case *ast.IndexExpr:
		return &ast.IndexTarget{Array: t.Array, Index: t.Index}
	default:
		p.addDiag(diagnostic.Unsupported, line,
			"can only assign into a local variable or an index expression",
			"unsupported assign target")
		return &ast.IdentTarget{Name: p.names.Intern("")}
	}
}

// parseBlock parses a brace-delimited statement list, the uniform block
// syntax every control-flow body uses (`{ ... }`), mirroring the same
// shape parseFunction/parseClass already use for their own bodies.
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(token.LBrace)
	var body []ast.Stmt
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		body = append(body, p.parseStmt())
	}
	p.expect(token.RBrace)
	return body
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.cur().Pos.Line
	p.expect(token.KwIf)
	cond := p.parseExpr()
	p.match(token.KwThen)

	then := p.parseBlock()

	var elifs []ast.ElseIf
	var elseBody []ast.Stmt
	hasElse := false

	for p.check(token.KwElse) {
		p.advance()
		if p.match(token.KwIf) {
			elifCond := p.parseExpr()
			p.match(token.KwThen)
			body := p.parseBlock()
			elifs = append(elifs, ast.ElseIf{Cond: elifCond, Body: body})
			continue
		}
		hasElse = true
		elseBody = p.parseBlock()
		break
	}

	return &ast.IfStmt{Cond: cond, Then: then, ElseIfs: elifs, Else: elseBody, HasElse: hasElse, Line: line}
}

func (p *Parser) parseWhile() ast.Stmt {
	line := p.cur().Pos.Line
	p.expect(token.KwWhile)
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Line: line}
}

func (p *Parser) parseFor() ast.Stmt {
	line := p.cur().Pos.Line
	p.expect(token.KwFor)
	nameTok := p.expect(token.Ident)
	p.expect(token.Assign)
	start := p.parseExpr()
	p.expect(token.KwTo)
	end := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{Var: p.names.Intern(nameTok.Text), Start: start, End: end, Body: body, Line: line}
}

func (p *Parser) parseUntil() ast.Stmt {
	line := p.cur().Pos.Line
	p.expect(token.KwUntil)
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.UntilStmt{Cond: cond, Body: body, Line: line}
}

// --- expressions: precedence climbing --------------------------------------

func (p *Parser) parseExpr() ast.Expr { return p.parseLogicalOr() }

type binLevel struct {
	kind token.Kind
	op   ast.BinOp
}

func (p *Parser) parseLeftAssoc(next func() ast.Expr, levels []binLevel) ast.Expr {
	left := next()
	for {
		matched := false
		for _, lvl := range levels {
			if p.check(lvl.kind) {
				line := p.advance().Pos.Line
				right := next()
				left = &ast.BinOpExpr{Base: ast.Base{Line: line}, Left: left, Op: lvl.op, Right: right}
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
}

func (p *Parser) parseLogicalOr() ast.Expr {
	return p.parseLeftAssoc(p.parseLogicalAnd, []binLevel{{token.KwOr, ast.OpOr}})
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	return p.parseLeftAssoc(p.parseComparison, []binLevel{{token.KwAnd, ast.OpAnd}})
}

func (p *Parser) parseComparison() ast.Expr {
	return p.parseLeftAssoc(p.parseAddSub, []binLevel{
		{token.Gt, ast.OpGreater},
		{token.Lt, ast.OpLess},
		{token.GtEq, ast.OpGreaterEq},
		{token.LtEq, ast.OpLessEq},
		{token.Eq, ast.OpEqual},
		{token.NotEq, ast.OpNotEqual},
	})
}

func (p *Parser) parseAddSub() ast.Expr {
	return p.parseLeftAssoc(p.parseMulDiv, []binLevel{
		{token.Plus, ast.OpAdd},
		{token.Minus, ast.OpSub},
	})
}

func (p *Parser) parseMulDiv() ast.Expr {
	return p.parseLeftAssoc(p.parsePow, []binLevel{
		{token.Star, ast.OpMul},
		{token.Slash, ast.OpDiv},
		{token.KwDiv, ast.OpIntDiv},
		{token.KwMod, ast.OpMod},
	})
}

// parsePow is right-associative: `a ^ b ^ c` folds as `a ^ (b ^ c)`,
// grounded on the original `Rule::pow` handling (SPEC_FULL.md/spec.md
// §4.1).
func (p *Parser) parsePow() ast.Expr {
	left := p.parseUnary()
	if p.check(token.Caret) {
		line := p.advance().Pos.Line
		right := p.parsePow() // right recursion for right-associativity
		return &ast.BinOpExpr{Base: ast.Base{Line: line}, Left: left, Op: ast.OpPow, Right: right}
	}
	return left
}

// parseUnary folds `-`/`not` right-to-left by recursing into itself
// before wrapping, matching the original's reversed-pop loop over a
// prefix-operator stack.
func (p *Parser) parseUnary() ast.Expr {
	switch {
	case p.check(token.Minus):
		line := p.advance().Pos.Line
		return &ast.UnaryExpr{Base: ast.Base{Line: line}, Op: ast.UnaryNeg, Expr: p.parseUnary()}
	case p.check(token.KwNot):
		line := p.advance().Pos.Line
		return &ast.UnaryExpr{Base: ast.Base{Line: line}, Op: ast.UnaryNot, Expr: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by a left-to-right
// chain of `.substring(...)`, `.length`, `.method(...)`, `[index]`
// postfix operations (SPEC_FULL.md/spec.md §4.1).
func (p *Parser) parsePostfix() ast.Expr {
	node := p.parsePrimary()

	for {
		switch {
		case p.check(token.Dot):
			p.advance()
			nameTok := p.expect(token.Ident)
			switch nameTok.Text {
			case "length":
				node = &ast.LengthExpr{Base: ast.Base{Line: nameTok.Pos.Line}, Array: node}
			case "substring":
				p.expect(token.LParen)
				start := p.parseExpr()
				p.expect(token.Comma)
				end := p.parseExpr()
				p.expect(token.RParen)
				node = &ast.SubstringCallExpr{Base: ast.Base{Line: nameTok.Pos.Line}, Expr: node, Start: start, End: end}
			default:
				params := p.parseArgList()
				// The method name is interned as a plain (non this.)
				// identifier: it is a map key into the receiver's
				// class.Functions, never a LocalEnv binding, so it does
				// not need the this_keyword flag ident.Hash applies to
				// variable references.
				fnHash := p.names.Intern(nameTok.Text)
				node = &ast.MethodCallExpr{Base: ast.Base{Line: nameTok.Pos.Line}, Recv: node, Name: fnHash, Params: params}
			}
		case p.check(token.LBracket):
			line := p.advance().Pos.Line
			idx := p.parseExpr()
			p.expect(token.RBracket)
			node = &ast.IndexExpr{Base: ast.Base{Line: line}, Array: node, Index: idx}
		default:
			return node
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	p.expect(token.LParen)
	var args []ast.Expr
	for !p.check(token.RParen) {
		args = append(args, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	line := tok.Pos.Line

	switch tok.Kind {
	case token.Number:
		p.advance()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			f = 0
		}
		return &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.Number(f)}
	case token.String:
		p.advance()
		return &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.String(tok.Text)}
	case token.KwTrue:
		p.advance()
		return &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.Bool(true)}
	case token.KwFalse:
		p.advance()
		return &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.Bool(false)}
	case token.KwUndefined:
		p.advance()
		return &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.Undefined{}}
	case token.LBracket:
		p.advance()
		var elems []ast.Expr
		for !p.check(token.RBracket) {
			elems = append(elems, p.parseExpr())
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.RBracket)
		return &ast.ArrayLit{Base: ast.Base{Line: line}, Elements: elems}
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.KwInput:
		p.advance()
		var text ast.Expr = &ast.DataExpr{Base: ast.Base{Line: line}, Value: value.String("")}
		if p.check(token.LParen) {
			p.advance()
			text = p.parseExpr()
			p.expect(token.RParen)
		}
		return &ast.InputExpr{Base: ast.Base{Line: line}, Text: text}
	case token.KwDiv:
		p.advance()
		p.expect(token.LParen)
		left := p.parseExpr()
		p.expect(token.Comma)
		right := p.parseExpr()
		p.expect(token.RParen)
		return &ast.DivExpr{Base: ast.Base{Line: line}, Left: left, Right: right}
	case token.KwNew:
		p.advance()
		nameTok := p.expect(token.Ident)
		params := p.parseArgList()
		return &ast.ClassNewExpr{Base: ast.Base{Line: line}, Class: p.names.Intern(nameTok.Text), Params: params}
	case token.KwThis, token.Ident:
		p.advance()
		if p.check(token.LParen) {
			// A call on a `this.name` spelling (the lexer merges "this.foo"
			// into one identifier token) still resolves against the
			// enclosing class's plainly-hashed Functions map, same as the
			// receiver-postfix case in parsePostfix: strip the prefix
			// before interning so the lookup key matches the declaration.
			bare := strings.TrimPrefix(tok.Text, "this.")
			name := p.names.Intern(bare)
			params := p.parseArgList()
			return &ast.MethodCallExpr{Base: ast.Base{Line: line}, Name: name, Params: params}
		}
		name := p.names.Intern(tok.Text)
		return &ast.IdentExpr{Base: ast.Base{Line: line}, Name: name}
	default:
		panic(fmt.Sprintf("parser: unexpected token %s at %s", tok.Kind, tok.Pos))
	}
}
