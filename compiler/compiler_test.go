package compiler

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmcompiler/compileopts"
	"dmcompiler/constfold"
	"dmcompiler/diagnostics"
	"dmcompiler/lexer"
	"dmcompiler/objtree"
	"dmcompiler/parser"
)

// compileProcSource runs the full P1/P2/P4 pipeline over src and returns
// the named proc's compiled DMProc, matching the shape pipeline.go's
// compileSource drives from the CLI entry points.
func compileProcSource(t *testing.T, src, name string) (*objtree.DMProc, *diagnostics.Sink) {
	t.Helper()
	opts := compileopts.Default().WithDefaults()

	lex := lexer.New(src)
	tokens, err := lex.Scan()
	require.NoError(t, err, "lexing %q", src)

	sink := diagnostics.NewSink(nil)
	file := parser.New(tokens, "<test>", sink, opts).Parse()
	file = constfold.Fold(file)

	tree := objtree.New()
	objtree.NewCodeTreeBuilder(tree, sink, nil).Build(file)

	ok := New(tree, sink, nil, opts).CompileAll()
	require.True(t, ok, "compile failed: %v", sink.Diagnostics())

	id, found := tree.GetProc(0, name)
	require.True(t, found, "proc %q not found in global scope", name)
	return tree.Proc(id), sink
}

// jumpOffsetAt decodes the little-endian int32 relative jump offset
// patched in at byte index i of code: offset(L) - (offset(J)+4).
func jumpOffsetAt(code []byte, i int) int32 {
	return int32(binary.LittleEndian.Uint32(code[i : i+4]))
}

// assertBytecodeEquals compares two bytecode buffers byte-for-byte,
// reporting a hex dump of both on mismatch rather than testify's default
// []byte diff.
func assertBytecodeEquals(t *testing.T, want, got []byte) {
	t.Helper()
	assert.Equal(t, want, got, "bytecode = % X, want % X", got, want)
}

// Scenario 1: `/proc/f() return 5` compiles to exactly PushFloat(5.0);
// Return, with no Self-assign/Pop detour around the returned value.
func TestCompileReturnConstantMatchesSpecBytes(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/f()\n\treturn 5\n", "f")

	want := []byte{0x38, 0x00, 0x00, 0xA0, 0x40, 0x10}
	assertBytecodeEquals(t, want, proc.Bytecode)
	assert.Equal(t, 1, proc.MaxStack)
	assert.Empty(t, proc.Locals)
}

// Scenario 2: `/proc/g(a, b) return a + b` loads both locals by reference
// and adds them directly into the Return.
func TestCompileReturnBinaryOpMatchesSpecBytes(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/g(a, b)\n\treturn a + b\n", "g")

	want := []byte{0x06, 0x09, 0x00, 0x06, 0x09, 0x01, 0x08, 0x10}
	assertBytecodeEquals(t, want, proc.Bytecode)
	assert.Equal(t, 2, proc.MaxStack)
}

// Scenario 3: an if/else where both arms return compiles the JumpIfFalse
// to land exactly 6 bytes past itself (the then-branch's 5-byte PushFloat
// and 1-byte Return), with no dead Jump-to-end in between since the
// then-branch never falls through.
func TestCompileIfElseBothReturningOmitsDeadJump(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/h(x)\n\tif (x > 5)\n\t\treturn 10\n\telse\n\t\treturn 20\n", "h")

	code := proc.Bytecode
	require.GreaterOrEqual(t, len(code), 10)

	require.Equal(t, byte(0x06), code[0], "PushReferenceValue(Local,0)")
	require.Equal(t, byte(0x09), code[1], "Local reference tag")
	require.Equal(t, byte(0x00), code[2], "local id 0")
	require.Equal(t, byte(0x38), code[3], "PushFloat(5)")
	require.Equal(t, byte(0x14), code[8], "CompareGreaterThan")
	require.Equal(t, byte(0x0C), code[9], "JumpIfFalse")

	offset := jumpOffsetAt(code, 10)
	assert.EqualValues(t, 6, offset, "JumpIfFalse must skip exactly the then-branch's PushFloat+Return")

	thenStart := 14
	require.Equal(t, byte(0x38), code[thenStart], "then-branch PushFloat(10)")
	require.Equal(t, byte(0x10), code[thenStart+5], "then-branch Return")

	elseStart := thenStart + 6
	require.Less(t, elseStart+5, len(code))
	assert.Equal(t, byte(0x38), code[elseStart], "else-branch PushFloat(20), no intervening Jump")
	assert.Equal(t, byte(0x10), code[elseStart+5], "else-branch Return")
}

// Scenario 4: a while loop compiles the standard backward-branch pattern
// and lowers the post-increment to Increment(Local,0); Pop.
func TestCompileWhileLoopEmitsIncrementAndPop(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/loop()\n\tvar/i = 0\n\twhile(i < 10)\n\t\ti++\n", "loop")

	code := proc.Bytecode
	incIdx := -1
	for i := 0; i+4 < len(code); i++ {
		if code[i] == 0x56 && code[i+1] == 0x09 {
			incIdx = i
			break
		}
	}
	require.NotEqual(t, -1, incIdx, "expected Increment(Local,...) in %v", code)
	assert.Equal(t, byte(0x51), code[incIdx+3], "Increment must be immediately followed by Pop")

	jifIdx := -1
	for i := 0; i+4 < len(code); i++ {
		if code[i] == 0x0C {
			jifIdx = i
			break
		}
	}
	require.NotEqual(t, -1, jifIdx, "expected a JumpIfFalse testing the loop condition")

	jmpIdx := -1
	for i := incIdx; i+4 < len(code); i++ {
		if code[i] == 0x0E {
			jmpIdx = i
			break
		}
	}
	require.NotEqual(t, -1, jmpIdx, "expected a backward Jump closing the loop body")
	backOffset := jumpOffsetAt(code, jmpIdx+1)
	assert.Negative(t, backOffset, "the loop-closing Jump must branch backward")
}

// Scenario 5: indexing a list literal lowers to three PushFloat pushes,
// CreateList 3, then PushFloat 0; DereferenceIndex feeding straight into
// Return.
func TestCompileListIndexMatchesSpecShape(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/listfun()\n\treturn list(1,2,3)[0]\n", "listfun")

	code := proc.Bytecode
	require.GreaterOrEqual(t, len(code), 15+1+5+1+1)

	for i, want := range []float32{1, 2, 3} {
		off := i * 5
		require.Equal(t, byte(0x38), code[off], "PushFloat for list element %d", i)
		got := math.Float32frombits(binary.LittleEndian.Uint32(code[off+1 : off+5]))
		assert.Equal(t, want, got, "list element %d value", i)
	}

	createListOff := 15
	require.Equal(t, byte(0x22), code[createListOff], "CreateList")
	count := binary.LittleEndian.Uint32(code[createListOff+1 : createListOff+5])
	assert.EqualValues(t, 3, count)

	indexFloatOff := createListOff + 5
	require.Equal(t, byte(0x38), code[indexFloatOff], "PushFloat(0) index")
	gotIndex := math.Float32frombits(binary.LittleEndian.Uint32(code[indexFloatOff+1 : indexFloatOff+5]))
	require.Equal(t, float32(0), gotIndex)

	derefOff := indexFloatOff + 5
	require.Equal(t, byte(0x69), code[derefOff], "DereferenceIndex")
	require.Equal(t, byte(0x10), code[derefOff+1], "Return")
}

// Scenario 6: a forward-reference goto patches its Jump to the exact
// offset of the label, skipping over the intervening PushFloat 1; Return.
func TestCompileForwardGotoSkipsInterveningCode(t *testing.T) {
	proc, _ := compileProcSource(t, "/proc/goto_test()\n\tgoto end\n\treturn 1\n\tend:\n", "goto_test")

	code := proc.Bytecode
	require.Greater(t, len(code), 0)
	require.Equal(t, byte(0x0E), code[0], "Jump")

	offset := jumpOffsetAt(code, 1)
	target := 5 + int(offset)
	// offset(J)+4 == 5 (the byte right after the 4-byte payload); the
	// label must land past the skipped "PushFloat 1; Return" (6 bytes).
	assert.EqualValues(t, 5+6, target, "goto must land exactly past PushFloat 1; Return")
}
