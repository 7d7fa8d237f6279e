package reference

import "testing"

func TestCreateArgumentValidRange(t *testing.T) {
	ref, diag := CreateArgument(3)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if ref.Kind != Argument || ref.Index != 3 {
		t.Errorf("CreateArgument(3) = %#v", ref)
	}
}

func TestCreateArgumentOutOfRange(t *testing.T) {
	_, diag := CreateArgument(256)
	if diag == nil {
		t.Fatalf("expected a diagnostic for out-of-range argument id")
	}
	if diag.Kind.String() != "InternalError" {
		t.Errorf("expected InternalError diagnostic, got %v", diag.Kind)
	}
}

func TestCreateLocalOutOfRange(t *testing.T) {
	_, diag := CreateLocal(-1)
	if diag == nil {
		t.Fatalf("expected a diagnostic for negative local id")
	}
}

func TestFieldReferences(t *testing.T) {
	f := CreateField("health")
	if f.Kind != Field || f.Name != "health" {
		t.Errorf("CreateField() = %#v", f)
	}

	sf := CreateSrcField("x")
	if sf.Kind != SrcField || sf.Name != "x" {
		t.Errorf("CreateSrcField() = %#v", sf)
	}
}

func TestIsLvalue(t *testing.T) {
	ref, _ := CreateLocal(0)
	if !ref.IsLvalue() {
		t.Errorf("expected Local reference to be an lvalue")
	}
	if SuperProcRef.IsLvalue() {
		t.Errorf("did not expect SuperProc reference to be an lvalue")
	}
}

func TestReferenceString(t *testing.T) {
	ref, _ := CreateArgument(2)
	if got := ref.String(); got != "Argument(2)" {
		t.Errorf("String() = %q", got)
	}
}
