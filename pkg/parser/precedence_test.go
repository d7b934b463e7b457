package parser

import (
	"testing"

	"github.com/kristofer/pebble/pkg/ast"
)

// dunderChain flattens a left-leaning BinaryOp chain's operator names,
// outermost first, for terse precedence assertions.
func dunderChain(e ast.Expression) []string {
	var chain []string
	for {
		bin, ok := e.(*ast.BinaryOp)
		if !ok {
			return chain
		}
		chain = append(chain, bin.Op)
		e = bin.Left
	}
}

func parseExprOf(t *testing.T, src string) ast.Expression {
	t.Helper()
	prog := parseProgram(t, src+"\n")
	stmt, ok := prog.Body.Statements[0].(*ast.ExprStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", prog.Body.Statements[0])
	}
	return stmt.Expr
}

func TestPrecedenceMultiplyBindsTighterThanAdd(t *testing.T) {
	expr := parseExprOf(t, "1 + 2 * 3")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__add__" {
		t.Fatalf("expected outer __add__, got %s", bin.Op)
	}
	right := bin.Right.(*ast.BinaryOp)
	if right.Op != "__mul__" {
		t.Fatalf("expected right-hand __mul__, got %s", right.Op)
	}
}

func TestPrecedenceComparisonBelowArithmetic(t *testing.T) {
	expr := parseExprOf(t, "1 + 2 > 3 * 4")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__gt__" {
		t.Fatalf("expected outer __gt__, got %s", bin.Op)
	}
	if _, ok := bin.Left.(*ast.BinaryOp); !ok {
		t.Fatalf("expected left to be an arithmetic BinaryOp, got %T", bin.Left)
	}
	if _, ok := bin.Right.(*ast.BinaryOp); !ok {
		t.Fatalf("expected right to be an arithmetic BinaryOp, got %T", bin.Right)
	}
}

func TestPrecedenceAndBelowComparison(t *testing.T) {
	expr := parseExprOf(t, "a == 1 and b == 2")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__and__" {
		t.Fatalf("expected outer __and__, got %s", bin.Op)
	}
}

func TestPrecedenceOrBelowAnd(t *testing.T) {
	expr := parseExprOf(t, "a and b or c and d")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__or__" {
		t.Fatalf("expected outer __or__, got %s", bin.Op)
	}
	if left, ok := bin.Left.(*ast.BinaryOp); !ok || left.Op != "__and__" {
		t.Fatalf("expected left __and__, got %+v", bin.Left)
	}
	if right, ok := bin.Right.(*ast.BinaryOp); !ok || right.Op != "__and__" {
		t.Fatalf("expected right __and__, got %+v", bin.Right)
	}
}

func TestPrecedencePowerIsRightAssociative(t *testing.T) {
	expr := parseExprOf(t, "2 ** 3 ** 2")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__pow__" {
		t.Fatalf("expected outer __pow__, got %s", bin.Op)
	}
	left, ok := bin.Left.(*ast.NumberLiteral)
	if !ok || left.Value != 2 {
		t.Fatalf("expected left operand to be literal 2, got %+v", bin.Left)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "__pow__" {
		t.Fatalf("expected right operand to itself be __pow__ (right-assoc), got %+v", bin.Right)
	}
}

func TestPrecedenceLeftAssociativeAdd(t *testing.T) {
	expr := parseExprOf(t, "1 - 2 - 3")
	chain := dunderChain(expr)
	if len(chain) != 2 || chain[0] != "__sub__" || chain[1] != "__sub__" {
		t.Fatalf("expected left-associative __sub__ chain, got %v", chain)
	}
	bin := expr.(*ast.BinaryOp)
	if _, ok := bin.Left.(*ast.BinaryOp); !ok {
		t.Fatalf("expected left-leaning tree (left child is BinaryOp), got %T", bin.Left)
	}
}

func TestPrecedenceUnaryMinusBindsTighterThanAdd(t *testing.T) {
	expr := parseExprOf(t, "-1 + 2")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__add__" {
		t.Fatalf("expected outer __add__, got %s", bin.Op)
	}
	if _, ok := bin.Left.(*ast.UnaryOp); !ok {
		t.Fatalf("expected left operand to be unary neg, got %T", bin.Left)
	}
}

func TestPrecedenceParenthesesOverride(t *testing.T) {
	expr := parseExprOf(t, "(1 + 2) * 3")
	bin := expr.(*ast.BinaryOp)
	if bin.Op != "__mul__" {
		t.Fatalf("expected outer __mul__, got %s", bin.Op)
	}
	if left, ok := bin.Left.(*ast.BinaryOp); !ok || left.Op != "__add__" {
		t.Fatalf("expected left to be parenthesized __add__, got %+v", bin.Left)
	}
}
