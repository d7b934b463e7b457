package parser

import (
	"testing"

	"github.com/kristofer/pebble/pkg/ast"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(input)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseAssignment(t *testing.T) {
	prog := parseProgram(t, "x = 1 + 2 * 3\n")
	if len(prog.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body.Statements))
	}
	assign, ok := prog.Body.Statements[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected *ast.Assignment, got %T", prog.Body.Statements[0])
	}
	if assign.Name != "x" || assign.Op != ast.OpAssign {
		t.Fatalf("unexpected assignment: %+v", assign)
	}
	bin, ok := assign.Value.(*ast.BinaryOp)
	if !ok || bin.Op != "__add__" {
		t.Fatalf("expected top-level __add__, got %+v", assign.Value)
	}
}

func TestParseIf(t *testing.T) {
	prog := parseProgram(t, "x = 10\nif x > 5:\n    print('big')\n")
	if len(prog.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Body.Statements))
	}
	ifStmt, ok := prog.Body.Statements[1].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", prog.Body.Statements[1])
	}
	if len(ifStmt.Then.Statements) != 1 {
		t.Fatalf("expected 1 statement in then-block, got %d", len(ifStmt.Then.Statements))
	}
}

func TestParseWhileWithBreak(t *testing.T) {
	prog := parseProgram(t, "i = 0\nwhile True:\n    if i == 3:\n        break\n    i = i + 1\nprint(i)\n")
	while, ok := prog.Body.Statements[1].(*ast.While)
	if !ok {
		t.Fatalf("expected *ast.While, got %T", prog.Body.Statements[1])
	}
	if len(while.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements in while body, got %d", len(while.Body.Statements))
	}
	inner, ok := while.Body.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("expected nested *ast.If, got %T", while.Body.Statements[0])
	}
	if _, ok := inner.Then.Statements[0].(*ast.Break); !ok {
		t.Fatalf("expected *ast.Break in nested if, got %T", inner.Then.Statements[0])
	}
}

func TestParseForLoop(t *testing.T) {
	prog := parseProgram(t, "s = 0\nfor v in [1, 2, 3, 4]:\n    s = s + v\nprint(s)\n")
	forStmt, ok := prog.Body.Statements[1].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", prog.Body.Statements[1])
	}
	if forStmt.Var != "v" {
		t.Fatalf("expected loop var 'v', got %q", forStmt.Var)
	}
	list, ok := forStmt.Iterable.(*ast.ListLiteral)
	if !ok || len(list.Items) != 4 {
		t.Fatalf("expected 4-item list literal, got %+v", forStmt.Iterable)
	}
}

func TestParseFunctionDefAndCall(t *testing.T) {
	prog := parseProgram(t, "def add(a, b):\n    return a + b\nprint(add(40, 2))\n")
	fn, ok := prog.Body.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected *ast.FunctionDef, got %T", prog.Body.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Fatalf("unexpected function signature: %+v", fn)
	}
	ret, ok := fn.Body.Statements[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", fn.Body.Statements[0])
	}
	if _, ok := ret.Value.(*ast.BinaryOp); !ok {
		t.Fatalf("expected binary return value, got %+v", ret.Value)
	}

	exprStmt, ok := prog.Body.Statements[1].(*ast.ExprStatement)
	if !ok {
		t.Fatalf("expected *ast.ExprStatement, got %T", prog.Body.Statements[1])
	}
	call, ok := exprStmt.Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", exprStmt.Expr)
	}
	inner, ok := call.Args[0].(*ast.Call)
	if !ok || len(inner.Args) != 2 {
		t.Fatalf("expected nested call with 2 args, got %+v", call.Args)
	}
}

func TestParseIndexedCompoundAssignment(t *testing.T) {
	prog := parseProgram(t, "d = {'k': 10}\nd['k'] += 5\nprint(d['k'])\n")
	assign, ok := prog.Body.Statements[1].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected *ast.Assignment, got %T", prog.Body.Statements[1])
	}
	if assign.Name != "d" {
		t.Fatalf("expected base name 'd', got %q", assign.Name)
	}
	if len(assign.Targets) != 1 {
		t.Fatalf("expected 1 indexer, got %d", len(assign.Targets))
	}
	if assign.Op != ast.OpAddAssign {
		t.Fatalf("expected OpAddAssign, got %v", assign.Op)
	}
	key, ok := assign.Targets[0].(*ast.StringLiteral)
	if !ok || key.Value != "k" {
		t.Fatalf("expected string index 'k', got %+v", assign.Targets[0])
	}
}

func TestParseDictLiteral(t *testing.T) {
	prog := parseProgram(t, "d = {'k': 10, 'j': 20}\n")
	assign := prog.Body.Statements[0].(*ast.Assignment)
	dict, ok := assign.Value.(*ast.DictLiteral)
	if !ok {
		t.Fatalf("expected *ast.DictLiteral, got %T", assign.Value)
	}
	if len(dict.Entries) != 2 || dict.Entries[0].Key != "k" || dict.Entries[1].Key != "j" {
		t.Fatalf("unexpected dict entries: %+v", dict.Entries)
	}
}

func TestParseSetLiteral(t *testing.T) {
	prog := parseProgram(t, "s = {1, 2, 3}\n")
	assign := prog.Body.Statements[0].(*ast.Assignment)
	set, ok := assign.Value.(*ast.SetLiteral)
	if !ok || len(set.Items) != 3 {
		t.Fatalf("expected 3-item set literal, got %+v", assign.Value)
	}
}

func TestParseNotIn(t *testing.T) {
	prog := parseProgram(t, "x = 1 not in [2, 3]\n")
	assign := prog.Body.Statements[0].(*ast.Assignment)
	bin, ok := assign.Value.(*ast.BinaryOp)
	if !ok || bin.Op != "__ncontains__" {
		t.Fatalf("expected __ncontains__, got %+v", assign.Value)
	}
}
