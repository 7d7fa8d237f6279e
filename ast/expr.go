package ast

import (
	"fmt"

	"dmcompiler/path"
)

// Invalid stands in for an expression that failed to parse; it lets later
// phases keep running on a partial tree instead of aborting, per spec §7.
type Invalid struct {
	base
	Reason string
}

func (*Invalid) exprNode() {}

// Void is the empty expression, e.g. a bare "return" with no value, or a
// missing for(;;) clause.
type Void struct{ base }

func (*Void) exprNode() {}

// ConstantInt is an integer literal. DM has no distinct integer runtime
// type (ExpressionCompiler coerces to its f32/f64 numeric type at emit
// time, per spec §4.5) but the AST still records the literal form.
type ConstantInt struct {
	base
	Value int64
}

func (*ConstantInt) exprNode() {}

// ConstantFloat is a floating-point literal.
type ConstantFloat struct {
	base
	Value float64
}

func (*ConstantFloat) exprNode() {}

// ConstantString is a plain (non-interpolated) string literal.
type ConstantString struct {
	base
	Value string
}

func (*ConstantString) exprNode() {}

// ConstantNull is the "null" literal.
type ConstantNull struct{ base }

func (*ConstantNull) exprNode() {}

// ConstantPath is a bare path literal used as a value, e.g. "/obj/item".
type ConstantPath struct {
	base
	Value path.Path
}

func (*ConstantPath) exprNode() {}

// ConstantResource is a 'resource.dmi'-style file reference literal.
type ConstantResource struct {
	base
	Value string
}

func (*ConstantResource) exprNode() {}

// Identifier is a bare name reference: a local, a special (src/usr/.../
// args/world), a field, or a global — resolved by ExpressionCompiler per
// spec §4.5's resolution order.
type Identifier struct {
	base
	Name string
}

func (*Identifier) exprNode() {}

// Unary applies a prefix or postfix operator to Operand.
type Unary struct {
	base
	Op      UnaryOperator
	Operand Expr
}

func (*Unary) exprNode() {}

// Binary applies a binary operator to Left and Right.
type Binary struct {
	base
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Ternary is "cond ? then : else".
type Ternary struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

func (*Ternary) exprNode() {}

// Assign covers plain and compound assignment, including ":=".
type Assign struct {
	base
	Op     AssignmentOperator
	Target Expr
	Value  Expr
}

func (*Assign) exprNode() {}

// DereferenceField is "base.field" (or "base?.field" when Safe is set).
type DereferenceField struct {
	base
	Target Expr
	Field  string
	Safe   bool
}

func (*DereferenceField) exprNode() {}

// DereferenceIndex is "base[index]".
type DereferenceIndex struct {
	base
	Target Expr
	Index  Expr
}

func (*DereferenceIndex) exprNode() {}

// CallArg is one call argument. Name is non-empty for a keyed argument
// ("f(x = 1)"), which the expression compiler currently rejects with an
// UnsupportedFeature diagnostic per spec §9's open question.
type CallArg struct {
	Name  string
	Value Expr
}

// Call is a procedure or method invocation. Callee is nil for a bare
// ".."() super-proc call. A Callee that is a DereferenceField indicates a
// method call on an explicit receiver; any other Callee (typically an
// Identifier) is an unqualified call resolved against the owning object's
// inherited procs and then the global proc table.
type Call struct {
	base
	Callee Expr
	Args   []CallArg

	// CallTarget and CallArgs hold the two argument lists of the two-level
	// call(proc_name)(args) / call(receiver, proc_name)(args) form. Set
	// only when IsDynamicCall is true, in which case Callee/Args above are
	// unused.
	IsDynamicCall bool
	CallTarget    []CallArg
	CallArgs      []CallArg
}

func (*Call) exprNode() {}

// ListItem is one element of a list literal; Key is non-nil for an
// associative "key = value" pair.
type ListItem struct {
	Key   Expr
	Value Expr
}

// ListLiteral is "list(a, b, key = value, ...)".
type ListLiteral struct {
	base
	Items []ListItem
}

func (*ListLiteral) exprNode() {}

// NewList is "newlist(/obj/a, /obj/b, ...)".
type NewList struct {
	base
	TypeArgs []Expr
}

func (*NewList) exprNode() {}

// NewPath is "new /obj/item(args)" or "new path_expr(args)"; PathExpr is
// nil when the path is omitted ("new(args)", instantiating the contextual
// type).
type NewPath struct {
	base
	TypePath *path.Path
	PathExpr Expr
	Args     []CallArg
}

func (*NewPath) exprNode() {}

// InterpPart is one piece of an interpolated string: either literal Text or
// an embedded Expr (from a "[expr]" marker), never both.
type InterpPart struct {
	Text string
	Expr Expr
}

// InterpolatedString is a string literal containing one or more embedded
// "[expr]" markers, lowered to a FormatString opcode at emit time.
type InterpolatedString struct {
	base
	Parts []InterpPart
}

func (*InterpolatedString) exprNode() {}

// SwitchCaseRange marks a "value_low to value_high" case expression inside
// a switch statement's case list.
type SwitchCaseRange struct {
	base
	Low  Expr
	High Expr
}

func (*SwitchCaseRange) exprNode() {}

// InputExpr is "input(...) as <types> in <list>". TypeFlags holds the
// parsed "as" type-flag bits (see the valuetype package).
type InputExpr struct {
	base
	Message   Expr
	Title     Expr
	Default   Expr
	TypeFlags uint32
	InList    Expr
}

func (*InputExpr) exprNode() {}

// NewConstantInt builds a ConstantInt at loc. Exposed so other packages
// (e.g. constfold) can synthesize folded literals without reaching into
// the unexported base field directly.
func NewConstantInt(loc Location, v int64) *ConstantInt {
	return &ConstantInt{base: base{Loc: loc}, Value: v}
}

// NewConstantFloat builds a ConstantFloat at loc.
func NewConstantFloat(loc Location, v float64) *ConstantFloat {
	return &ConstantFloat{base: base{Loc: loc}, Value: v}
}

// TryAsJSON succeeds only for constant-class expression nodes (integer,
// float, string, null, path, resource, and an interpolated string composed
// solely of literal text), per spec §3. It's used to serialize initializer
// expressions of global and instance vars.
func TryAsJSON(e Expr) (any, bool) {
	switch n := e.(type) {
	case *ConstantInt:
		return n.Value, true
	case *ConstantFloat:
		return n.Value, true
	case *ConstantString:
		return n.Value, true
	case *ConstantNull:
		return nil, true
	case *ConstantPath:
		return n.Value.String(), true
	case *ConstantResource:
		return n.Value, true
	case *InterpolatedString:
		if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
			return n.Parts[0].Text, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// String implements a minimal human-readable rendering, used by the
// printer package for debugging and REPL echo.
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", exprString(b.Left), b.Op, exprString(b.Right))
}

func exprString(e Expr) string {
	switch n := e.(type) {
	case *Identifier:
		return n.Name
	case *ConstantInt:
		return fmt.Sprintf("%d", n.Value)
	case *ConstantFloat:
		return fmt.Sprintf("%g", n.Value)
	case *ConstantString:
		return fmt.Sprintf("%q", n.Value)
	case *Binary:
		return n.String()
	default:
		return fmt.Sprintf("%T", e)
	}
}
