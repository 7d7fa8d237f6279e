package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"dmcompiler/diagnostics"
	"dmcompiler/reference"
)

// StringTable is the subset of objtree.StringTable the writer needs to
// intern strings for PushString/DereferenceField/etc. Kept as a narrow
// interface so this package never imports objtree (the compiler package
// creates one Writer per proc and passes it the ObjectTree's string table).
type StringTable interface {
	Intern(s string) int
}

// pendingJump is a recorded patch site awaiting label resolution: the
// byte offset of the 4-byte placeholder, which label it targets, and the
// opcode that emitted it (kept for diagnostics only).
type pendingJump struct {
	site   int
	label  int
	opcode Opcode
}

// Writer owns a growing bytecode buffer, the label table, and the pending
// jump list for one proc, per spec §4.4.
type Writer struct {
	buf     []byte
	strings StringTable
	sink    *diagnostics.Sink
	log     logrus.FieldLogger

	labels    map[int]int
	nextLabel int
	pending   []pendingJump

	stack depthStack
}

// NewWriter returns a Writer that interns strings through table and
// reports problems to sink. A nil logger defaults to logrus's standard
// logger.
func NewWriter(table StringTable, sink *diagnostics.Sink, log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{
		strings: table,
		sink:    sink,
		log:     log,
		labels:  make(map[int]int),
	}
}

// Len returns the current length of the emitted instruction stream.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the emitted instruction stream. Valid only after Finalize
// has patched every jump.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// MaxStack returns the high-water mark of the simulated operand-stack
// depth observed so far.
func (w *Writer) MaxStack() int {
	return w.stack.maxDepth
}

// ResizeStack applies delta to the simulated operand-stack depth (as read
// from the relevant OpcodeMetadata entry's StackDelta) and updates
// max_stack. An underflow is reported as a Warning diagnostic and the
// depth is clamped to 0, per spec §4.4.
func (w *Writer) ResizeStack(delta int) {
	if w.stack.resize(delta) && w.sink != nil {
		w.sink.Report(diagnostics.Warn(diagnostics.StackUnderflow, diagnostics.Location{},
			fmt.Sprintf("operand stack underflow applying delta %d", delta)))
	}
}

// Emit writes a bare one-byte opcode.
func (w *Writer) Emit(op Opcode) {
	w.buf = append(w.buf, byte(op))
}

// EmitByte writes opcode followed by one operand byte.
func (w *Writer) EmitByte(op Opcode, v byte) {
	w.buf = append(w.buf, byte(op), v)
}

// EmitShort writes opcode followed by a 2-byte little-endian operand.
func (w *Writer) EmitShort(op Opcode, v uint16) {
	w.buf = append(w.buf, byte(op), 0, 0)
	binary.LittleEndian.PutUint16(w.buf[len(w.buf)-2:], v)
}

// EmitInt writes opcode followed by a 4-byte little-endian signed operand.
func (w *Writer) EmitInt(op Opcode, v int32) {
	w.buf = append(w.buf, byte(op), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], uint32(v))
}

// EmitFloat writes opcode followed by a 4-byte little-endian IEEE-754
// float32 operand, per spec §6.2's PushFloat encoding.
func (w *Writer) EmitFloat(op Opcode, v float32) {
	w.buf = append(w.buf, byte(op), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], math.Float32bits(v))
}

// EmitString interns s and writes opcode followed by its 4-byte
// little-endian string table id.
func (w *Writer) EmitString(op Opcode, s string) {
	id := w.strings.Intern(s)
	w.EmitInt(op, int32(id))
}

// CreateLabel mints a fresh, as-yet-unbound label id.
func (w *Writer) CreateLabel() int {
	id := w.nextLabel
	w.nextLabel++
	return id
}

// MarkLabel binds id to the current write offset. Binding the same id
// twice is an internal error, per spec §4.4.
func (w *Writer) MarkLabel(id int) {
	if _, bound := w.labels[id]; bound {
		if w.sink != nil {
			w.sink.Report(diagnostics.Internal(diagnostics.Location{},
				fmt.Errorf("label %d marked twice", id)))
		}
		return
	}
	w.labels[id] = len(w.buf)
}

// EmitJump writes opcode, records the current offset as a pending patch
// site, then writes 4 placeholder bytes. The patch offset is relative to
// the instruction immediately after the jump: target - (site + 4).
func (w *Writer) EmitJump(op Opcode, labelID int) {
	w.buf = append(w.buf, byte(op))
	w.AppendLabelPatch(op, labelID)
}

// AppendLabelPatch appends a 4-byte placeholder for labelID without
// writing a leading opcode byte, recording it as a pending patch site. Use
// this (instead of EmitJump) for instructions that carry a Label operand
// alongside other operands already written by Append*/Emit* calls, e.g.
// Enumerate's (EnumeratorId, Reference, Label) shape — the opcode byte and
// any preceding operands are written first, then this call appends the
// label slot.
func (w *Writer) AppendLabelPatch(op Opcode, labelID int) {
	site := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.pending = append(w.pending, pendingJump{site: site, label: labelID, opcode: op})
}

// AppendByte appends a single raw payload byte with no leading opcode, for
// composing multi-operand instructions (e.g. the args-type byte following
// Call/DereferenceCall/Rgb/CreateObject's Reference or string-id operand).
func (w *Writer) AppendByte(b byte) {
	w.buf = append(w.buf, b)
}

// AppendInt appends a raw little-endian 4-byte signed payload with no
// leading opcode, for composing multi-operand instructions.
func (w *Writer) AppendInt(v int32) {
	w.buf = append(w.buf, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], uint32(v))
}

// AppendString interns s and appends its 4-byte little-endian id with no
// leading opcode, returning the id.
func (w *Writer) AppendString(s string) int {
	id := w.strings.Intern(s)
	w.AppendInt(int32(id))
	return id
}

// WriteReference emits a Reference's tag byte and payload per the table in
// spec §3: Argument/Local carry a one-byte index, Global/GlobalProc a
// 4-byte int, SrcField/Field a 4-byte interned string id, everything else
// (Src, Self, Usr, Args, World, SuperProc, ListIndex, Callee, Caller,
// NoRef) carries no payload.
func (w *Writer) WriteReference(ref reference.Reference) {
	tag, ok := referenceTag[ref.Kind]
	if !ok {
		tag = referenceTag[reference.Invalid]
	}
	w.buf = append(w.buf, tag)

	switch ref.Kind {
	case reference.Argument, reference.Local:
		w.buf = append(w.buf, byte(ref.Index))
	case reference.Global, reference.GlobalProc:
		w.buf = append(w.buf, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], uint32(ref.Index))
	case reference.SrcField, reference.Field:
		id := w.strings.Intern(ref.Name)
		w.buf = append(w.buf, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], uint32(id))
	case reference.SrcProc:
		id := w.strings.Intern(ref.Name)
		w.buf = append(w.buf, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(w.buf[len(w.buf)-4:], uint32(id))
	}
}

// Finalize patches every pending jump against the now-complete label
// table. An unbound label is a fatal internal error: the proc's bytecode
// cannot be trusted and compilation of it aborts, per spec §4.4 and §7.
func (w *Writer) Finalize() error {
	for _, p := range w.pending {
		target, ok := w.labels[p.label]
		if !ok {
			err := fmt.Errorf("%s: unbound label %d at offset %d", p.opcode, p.label, p.site)
			if w.sink != nil {
				w.sink.Report(diagnostics.Internal(diagnostics.Location{}, err))
			}
			return err
		}
		offset := int32(target - (p.site + 4))
		binary.LittleEndian.PutUint32(w.buf[p.site:p.site+4], uint32(offset))
	}
	w.pending = nil
	return nil
}
