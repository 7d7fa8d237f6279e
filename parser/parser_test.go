package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmcompiler/ast"
	"dmcompiler/compileopts"
	"dmcompiler/diagnostics"
	"dmcompiler/lexer"
)

func mustParse(t *testing.T, src string) (*ast.File, *diagnostics.Sink) {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	require.NoError(t, err, "lexing %q", src)

	sink := diagnostics.NewSink(nil)
	file := New(tokens, "<test>", sink, compileopts.Default()).Parse()
	return file, sink
}

func TestParseTopLevelProcDiscardsProcPathSegment(t *testing.T) {
	file, sink := mustParse(t, "/proc/f(a, b)\n\treturn a + b\n")
	require.Empty(t, sink.Diagnostics())
	require.Len(t, file.Objects, 1)

	proc, ok := file.Objects[0].(*ast.ProcDef)
	require.True(t, ok, "expected *ast.ProcDef, got %T", file.Objects[0])
	assert.Equal(t, "f", proc.Name)
	require.Len(t, proc.Params, 2)
	assert.Equal(t, "a", proc.Params[0].Name)
	assert.Equal(t, "b", proc.Params[1].Name)
	require.Len(t, proc.Body, 1)
	_, isReturn := proc.Body[0].(*ast.Return)
	assert.True(t, isReturn, "expected a Return statement, got %T", proc.Body[0])
}

func TestParseInlineProcBodySameLineAsSignature(t *testing.T) {
	file, sink := mustParse(t, "/proc/f() return 5\n")
	require.Empty(t, sink.Diagnostics())
	require.Len(t, file.Objects, 1)

	proc := file.Objects[0].(*ast.ProcDef)
	require.Len(t, proc.Body, 1)
	ret, ok := proc.Body[0].(*ast.Return)
	require.True(t, ok)
	constant, ok := ret.Value.(*ast.ConstantInt)
	require.True(t, ok, "expected a ConstantInt return value, got %T", ret.Value)
	assert.EqualValues(t, 5, constant.Value)
}

func TestParsePathAnchoredObjectBodyWithVarAndNestedProc(t *testing.T) {
	src := "/mob/player\n\tvar/hp = 100\n\tproc/heal(amount)\n\t\thp += amount\n"
	file, sink := mustParse(t, src)
	require.Empty(t, sink.Diagnostics())
	require.Len(t, file.Objects, 1)

	obj, ok := file.Objects[0].(*ast.ObjectDef)
	require.True(t, ok, "expected *ast.ObjectDef, got %T", file.Objects[0])
	assert.Equal(t, "/mob/player", obj.Path.String())
	require.Len(t, obj.Body, 2)

	varDef, ok := obj.Body[0].(*ast.VarDef)
	require.True(t, ok, "expected *ast.VarDef, got %T", obj.Body[0])
	assert.Equal(t, "hp", varDef.Name)

	proc, ok := obj.Body[1].(*ast.ProcDef)
	require.True(t, ok, "expected *ast.ProcDef, got %T", obj.Body[1])
	assert.Equal(t, "heal", proc.Name)
	require.Len(t, proc.Params, 1)
	assert.Equal(t, "amount", proc.Params[0].Name)
}

func TestParseIfElseAttachesBothBranches(t *testing.T) {
	file, sink := mustParse(t, "/proc/h(x)\n\tif (x > 5)\n\t\treturn 10\n\telse\n\t\treturn 20\n")
	require.Empty(t, sink.Diagnostics())

	proc := file.Objects[0].(*ast.ProcDef)
	require.Len(t, proc.Body, 1)
	ifStmt, ok := proc.Body[0].(*ast.If)
	require.True(t, ok, "expected *ast.If, got %T", proc.Body[0])
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)

	cond, ok := ifStmt.Cond.(*ast.Binary)
	require.True(t, ok, "expected a Binary comparison condition, got %T", ifStmt.Cond)
	assert.Equal(t, ast.Greater, cond.Op)
}

// Multiplication binds tighter than addition, so "1 + 2 * 3" parses as
// 1 + (2 * 3): the top-level Binary's Right operand is itself a Binary.
func TestParseExpressionPrecedenceMultiplyBindsTighterThanAdd(t *testing.T) {
	file, sink := mustParse(t, "/proc/f() return 1 + 2 * 3\n")
	require.Empty(t, sink.Diagnostics())

	proc := file.Objects[0].(*ast.ProcDef)
	ret := proc.Body[0].(*ast.Return)
	add, ok := ret.Value.(*ast.Binary)
	require.True(t, ok, "expected top-level Binary, got %T", ret.Value)
	assert.Equal(t, ast.Add, add.Op)

	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok, "expected the right operand to be a nested Binary, got %T", add.Right)
	assert.Equal(t, ast.Multiply, mul.Op)

	_, leftIsConstant := add.Left.(*ast.ConstantInt)
	assert.True(t, leftIsConstant, "expected the left operand to stay a bare constant")
}

// A malformed statement is reported and recovered from, not left to abort
// the whole parse.
func TestParseRecoversFromMalformedStatement(t *testing.T) {
	file, sink := mustParse(t, "/proc/f()\n\t+\n\treturn 1\n")
	require.NotEmpty(t, sink.Diagnostics(), "expected the stray '+' to report a diagnostic")
	require.Len(t, file.Objects, 1)

	proc, ok := file.Objects[0].(*ast.ProcDef)
	require.True(t, ok, "expected parsing to still produce the enclosing proc, got %T", file.Objects[0])

	foundReturn := false
	for _, stmt := range proc.Body {
		if _, ok := stmt.(*ast.Return); ok {
			foundReturn = true
		}
	}
	assert.True(t, foundReturn, "expected the trailing return to still be parsed despite the earlier error")
}
