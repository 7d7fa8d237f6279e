package valuetype

import (
	"testing"

	"dmcompiler/path"
)

func TestHasAndWith(t *testing.T) {
	v := Num.With(Text)
	if !v.Has(Num) || !v.Has(Text) {
		t.Errorf("With() did not set both flags: %v", v)
	}
	if v.Has(Obj) {
		t.Errorf("did not expect Obj flag set")
	}
}

func TestMembers(t *testing.T) {
	v := Num | Text | Obj
	got := v.Members()
	want := []string{"num", "obj", "text"}
	if len(got) != len(want) {
		t.Fatalf("Members() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Members()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    ValueType
		want string
	}{
		{name: "anything", v: Anything, want: "anything"},
		{name: "single", v: Num, want: "num"},
		{name: "pipe joined sorted", v: Text | Num, want: "num|text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	got := ParseFlags("num|text")
	want := Num | Text
	if got != want {
		t.Errorf("ParseFlags() = %v, want %v", got, want)
	}

	if got := ParseFlags("bogus"); got != Anything {
		t.Errorf("ParseFlags(bogus) = %v, want Anything", got)
	}
}

func TestComplexValueType(t *testing.T) {
	base := ComplexValueType{Type: Obj}
	if base.String() != "obj" {
		t.Errorf("String() = %q, want obj", base.String())
	}

	constrained := base.WithPath(path.Parse("/obj/item/weapon"))
	if !constrained.HasPath {
		t.Errorf("expected HasPath to be true")
	}
	if constrained.String() != "obj in /obj/item/weapon" {
		t.Errorf("String() = %q", constrained.String())
	}
}
