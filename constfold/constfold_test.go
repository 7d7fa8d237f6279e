package constfold

import (
	"testing"

	"dmcompiler/ast"
)

func TestFoldNegateConstant(t *testing.T) {
	expr := &ast.Unary{Op: ast.Negate, Operand: &ast.ConstantInt{Value: 5}}
	got := foldExpr(expr)
	ci, ok := got.(*ast.ConstantInt)
	if !ok || ci.Value != -5 {
		t.Fatalf("foldExpr() = %#v, want ConstantInt(-5)", got)
	}
}

func TestFoldLogicalAndShortCircuitsOnFalsyLeft(t *testing.T) {
	expr := &ast.Binary{
		Op:    ast.LogicalAnd,
		Left:  &ast.ConstantInt{Value: 0},
		Right: &ast.Identifier{Name: "sideEffectCall"},
	}
	got := foldExpr(expr)
	ci, ok := got.(*ast.ConstantInt)
	if !ok || ci.Value != 0 {
		t.Fatalf("foldExpr() = %#v, want the falsy left side", got)
	}
}

func TestFoldLogicalOrPicksTruthySide(t *testing.T) {
	expr := &ast.Binary{
		Op:    ast.LogicalOr,
		Left:  &ast.ConstantInt{Value: 1},
		Right: &ast.Identifier{Name: "neverEvaluated"},
	}
	got := foldExpr(expr)
	ci, ok := got.(*ast.ConstantInt)
	if !ok || ci.Value != 1 {
		t.Fatalf("foldExpr() = %#v, want the truthy left side", got)
	}
}

func TestFoldDoesNotCrossCall(t *testing.T) {
	call := &ast.Call{Callee: &ast.Identifier{Name: "f"}}
	expr := &ast.Unary{Op: ast.BooleanNot, Operand: call}
	got := foldExpr(expr)
	if _, ok := got.(*ast.Unary); !ok {
		t.Fatalf("expected a non-constant call operand to block folding, got %#v", got)
	}
}

func TestFoldRecursesIntoIfStatement(t *testing.T) {
	ifStmt := &ast.If{
		Cond: &ast.Unary{Op: ast.BooleanNot, Operand: &ast.ConstantInt{Value: 0}},
		Then: []ast.Stmt{&ast.Return{Value: &ast.ConstantInt{Value: 1}}},
	}
	foldStmt(ifStmt)
	ci, ok := ifStmt.Cond.(*ast.ConstantInt)
	if !ok || ci.Value != 1 {
		t.Fatalf("expected !0 to fold to 1, got %#v", ifStmt.Cond)
	}
}
