// Package reference implements the Reference addressing model from spec §3:
// a tagged lvalue/rvalue descriptor the bytecode uses to address locals,
// arguments, fields, globals, and the implicit src/usr/args/world slots,
// grounded on original_source/include/DMReference.h.
package reference

import (
	"fmt"

	"dmcompiler/diagnostics"
)

// Kind identifies what a Reference addresses.
type Kind int

const (
	NoRef Kind = iota
	Src
	Self
	Usr
	Args
	World
	SuperProc
	ListIndex
	Argument
	Local
	Global
	GlobalProc
	Field
	SrcField
	SrcProc
	Callee
	Caller
	Invalid
)

func (k Kind) String() string {
	switch k {
	case NoRef:
		return "NoRef"
	case Src:
		return "Src"
	case Self:
		return "Self"
	case Usr:
		return "Usr"
	case Args:
		return "Args"
	case World:
		return "World"
	case SuperProc:
		return "SuperProc"
	case ListIndex:
		return "ListIndex"
	case Argument:
		return "Argument"
	case Local:
		return "Local"
	case Global:
		return "Global"
	case GlobalProc:
		return "GlobalProc"
	case Field:
		return "Field"
	case SrcField:
		return "SrcField"
	case SrcProc:
		return "SrcProc"
	case Callee:
		return "Callee"
	case Caller:
		return "Caller"
	default:
		return "Invalid"
	}
}

// maxByteIndex is the largest argument/local id the bytecode wire format can
// encode (Argument and Local references are a one-byte payload, per
// DMReference.h).
const maxByteIndex = 255

// Reference is a tagged addressing descriptor. Only the fields relevant to
// Kind are meaningful; zero values are ignored otherwise.
type Reference struct {
	Kind Kind

	// Index is the argument id, local slot, or global index, depending on
	// Kind.
	Index int

	// Name is the field or proc name, for Field/SrcField/SrcProc.
	Name string
}

func (r Reference) String() string {
	switch r.Kind {
	case Argument, Local, Global, GlobalProc:
		return fmt.Sprintf("%s(%d)", r.Kind, r.Index)
	case Field, SrcField, SrcProc:
		return fmt.Sprintf("%s(%q)", r.Kind, r.Name)
	default:
		return r.Kind.String()
	}
}

var (
	// SrcRef addresses the implicit src value.
	SrcRef = Reference{Kind: Src}
	// SelfRef addresses the proc's own return-value slot.
	SelfRef = Reference{Kind: Self}
	// UsrRef addresses the implicit usr value.
	UsrRef = Reference{Kind: Usr}
	// ArgsRef addresses the implicit args list.
	ArgsRef = Reference{Kind: Args}
	// WorldRef addresses the global world singleton.
	WorldRef = Reference{Kind: World}
	// SuperProcRef addresses a ".." super-proc call target.
	SuperProcRef = Reference{Kind: SuperProc}
	// CalleeRef and CallerRef address the call stack's topmost callee/
	// caller, used by icon/sound intrinsics the teacher's VM never ran.
	CalleeRef = Reference{Kind: Callee}
	CallerRef = Reference{Kind: Caller}
)

// CreateArgument returns a Reference to the argId'th proc argument. argId
// must fit in a byte; a caller that violates this invariant gets back an
// InternalError diagnostic rather than a panic, since an out-of-range
// argument id can only come from a compiler bug, not from user DM source.
func CreateArgument(argID int) (Reference, *diagnostics.Diagnostic) {
	return createIndexed(Argument, argID)
}

// CreateLocal returns a Reference to the localID'th local variable slot.
func CreateLocal(localID int) (Reference, *diagnostics.Diagnostic) {
	return createIndexed(Local, localID)
}

func createIndexed(kind Kind, index int) (Reference, *diagnostics.Diagnostic) {
	if index < 0 || index > maxByteIndex {
		d := diagnostics.Internal(diagnostics.Location{}, fmt.Errorf(
			"reference.%s: index %d exceeds byte range [0,%d]", kind, index, maxByteIndex))
		return Reference{Kind: Invalid}, &d
	}
	return Reference{Kind: kind, Index: index}, nil
}

// CreateGlobal returns a Reference to a global variable by its StringTable
// or global-slot index.
func CreateGlobal(index int) Reference {
	return Reference{Kind: Global, Index: index}
}

// CreateGlobalProc returns a Reference to a global proc by its registry
// index.
func CreateGlobalProc(index int) Reference {
	return Reference{Kind: GlobalProc, Index: index}
}

// CreateField returns a Reference to a named field on the value beneath it
// on the operand stack.
func CreateField(name string) Reference {
	return Reference{Kind: Field, Name: name}
}

// CreateSrcField returns a Reference to a named field on src.
func CreateSrcField(name string) Reference {
	return Reference{Kind: SrcField, Name: name}
}

// CreateSrcProc returns a Reference to a named proc on src, used for
// unqualified proc calls inside a proc body.
func CreateSrcProc(name string) Reference {
	return Reference{Kind: SrcProc, Name: name}
}

// CreateListIndex returns a Reference addressing an indexed element of the
// list beneath the index on the operand stack (both operands are popped at
// resolution time, so ListIndex itself carries no payload).
func CreateListIndex() Reference {
	return Reference{Kind: ListIndex}
}

// IsLvalue reports whether r can appear on the left of an assignment. Every
// Kind except NoRef, SuperProc, Callee, and Caller is assignable in DM;
// those four are rvalue-only addressing modes, and Invalid (the result of
// a failed factory call) is not assignable either.
func (r Reference) IsLvalue() bool {
	switch r.Kind {
	case NoRef, SuperProc, Callee, Caller, Invalid:
		return false
	default:
		return true
	}
}
