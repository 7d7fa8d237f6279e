package bytecode

import (
	"encoding/binary"
	"math"
	"testing"

	"dmcompiler/diagnostics"
	"dmcompiler/reference"
)

type fakeStringTable struct {
	strs []string
	ids  map[string]int
}

func newFakeStringTable() *fakeStringTable {
	return &fakeStringTable{ids: make(map[string]int)}
}

func (t *fakeStringTable) Intern(s string) int {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := len(t.strs)
	t.strs = append(t.strs, s)
	t.ids[s] = id
	return id
}

func TestPushFloatAndReturnMatchesSpecBytes(t *testing.T) {
	w := NewWriter(newFakeStringTable(), nil, nil)
	w.EmitFloat(PushFloat, 5.0)
	w.Emit(Return)
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	want := []byte{0x38, 0x00, 0x00, 0xA0, 0x40, 0x10}
	got := w.Bytes()
	if len(got) != len(want) {
		t.Fatalf("Bytes() = % X, want % X", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, got[i], want[i])
		}
	}
}

func TestJumpPatchingComputesRelativeOffset(t *testing.T) {
	w := NewWriter(newFakeStringTable(), nil, nil)
	label := w.CreateLabel()
	w.EmitFloat(PushFloat, 10)
	w.Emit(Return)
	site := w.Len() + 1 // account for the Jump opcode byte about to be written
	w.EmitJump(Jump, label)
	w.MarkLabel(label)

	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	target := w.labels[label]
	offset := int32(binary.LittleEndian.Uint32(w.Bytes()[site : site+4]))
	want := int32(target - (site + 4))
	if offset != want {
		t.Errorf("patched offset = %d, want %d", offset, want)
	}
}

func TestFinalizeFailsOnUnboundLabel(t *testing.T) {
	w := NewWriter(newFakeStringTable(), nil, nil)
	label := w.CreateLabel()
	w.EmitJump(Jump, label)
	if err := w.Finalize(); err == nil {
		t.Fatalf("expected Finalize() to fail on an unbound label")
	}
}

func TestWriteReferenceRoundTripsThroughDisassemble(t *testing.T) {
	strs := newFakeStringTable()
	w := NewWriter(strs, nil, nil)
	ref, diag := reference.CreateLocal(3)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	w.Emit(PushReferenceValue)
	w.WriteReference(ref)
	w.Emit(Return)
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	out, err := Disassemble(w.Bytes())
	if err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty disassembly")
	}
}

func TestResizeStackTracksMaxAndClampsUnderflow(t *testing.T) {
	sink := diagnostics.NewSink(nil)
	w := NewWriter(newFakeStringTable(), sink, nil)
	w.ResizeStack(1)
	w.ResizeStack(1)
	if w.MaxStack() != 2 {
		t.Errorf("MaxStack() = %d, want 2", w.MaxStack())
	}
	w.ResizeStack(-1)
	w.ResizeStack(-1)
	w.ResizeStack(-1) // underflow: depth would go to -1, clamp to 0
	if w.stack.depth != 0 {
		t.Errorf("expected clamped depth of 0, got %d", w.stack.depth)
	}
	if len(sink.Diagnostics()) == 0 {
		t.Errorf("expected underflow to record a diagnostic")
	}
}

func TestEmitFloatEncodesIEEE754LittleEndian(t *testing.T) {
	w := NewWriter(newFakeStringTable(), nil, nil)
	w.EmitFloat(PushFloat, 1.5)
	raw := w.Bytes()[1:5]
	got := math.Float32frombits(binary.LittleEndian.Uint32(raw))
	if got != 1.5 {
		t.Errorf("decoded float = %v, want 1.5", got)
	}
}
