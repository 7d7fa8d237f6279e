package ast

import (
	"testing"

	"dmcompiler/path"
)

func TestTryAsJSONConstants(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want any
		ok   bool
	}{
		{name: "int", expr: &ConstantInt{Value: 5}, want: int64(5), ok: true},
		{name: "float", expr: &ConstantFloat{Value: 1.5}, want: 1.5, ok: true},
		{name: "string", expr: &ConstantString{Value: "hi"}, want: "hi", ok: true},
		{name: "null", expr: &ConstantNull{}, want: nil, ok: true},
		{name: "path", expr: &ConstantPath{Value: path.Parse("/obj/item")}, want: "/obj/item", ok: true},
		{name: "non-constant", expr: &Identifier{Name: "x"}, want: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TryAsJSON(tt.expr)
			if ok != tt.ok {
				t.Fatalf("TryAsJSON() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("TryAsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTryAsJSONLiteralInterpString(t *testing.T) {
	lit := &InterpolatedString{Parts: []InterpPart{{Text: "hello"}}}
	got, ok := TryAsJSON(lit)
	if !ok || got != "hello" {
		t.Errorf("TryAsJSON(literal interp string) = %v, %v", got, ok)
	}

	withExpr := &InterpolatedString{Parts: []InterpPart{{Expr: &Identifier{Name: "x"}}}}
	if _, ok := TryAsJSON(withExpr); ok {
		t.Errorf("expected TryAsJSON to fail for a non-literal interpolated string")
	}
}

func TestBinaryString(t *testing.T) {
	b := &Binary{Op: Add, Left: &Identifier{Name: "a"}, Right: &ConstantInt{Value: 1}}
	if got, want := b.String(), "(a + 1)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAssignmentOperatorIsCompound(t *testing.T) {
	if Assign.IsCompound() {
		t.Errorf("plain Assign should not be compound")
	}
	if AssignInto.IsCompound() {
		t.Errorf("AssignInto should not be compound")
	}
	if !AddAssign.IsCompound() {
		t.Errorf("AddAssign should be compound")
	}
}

func TestNodeMarkersSatisfyInterfaces(t *testing.T) {
	var _ Expr = &ConstantInt{}
	var _ Stmt = &Return{}
	var _ ObjectStmt = &ObjectDef{}
	var _ Node = &File{}
}
