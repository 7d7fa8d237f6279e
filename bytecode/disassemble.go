package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"dmcompiler/reference"
)

// Disassemble renders an emitted instruction stream to a human-readable
// listing, one instruction per line, prefixed by its byte offset. It walks
// OpcodeMetadata's ArgTypes to know how many bytes to consume per operand,
// mirroring the teacher's DiassembleBytecode loop but driven by a lookup
// table instead of a giant opcode switch.
func Disassemble(code []byte) (string, error) {
	var b strings.Builder
	ip := 0
	for ip < len(code) {
		op := Opcode(code[ip])
		info, known := Metadata[op]
		if !known {
			return b.String(), fmt.Errorf("disassemble: unknown opcode 0x%02X at offset %d", code[ip], ip)
		}

		fmt.Fprintf(&b, "%04d %-24s", ip, info.Name)
		ip++

		for _, arg := range info.ArgTypes {
			if arg == ArgNone {
				continue
			}
			if ip >= len(code) {
				return b.String(), fmt.Errorf("disassemble: truncated operand for %s at offset %d", info.Name, ip)
			}
			if arg == ArgReference {
				rendered, next, err := renderReference(code, ip)
				if err != nil {
					return b.String(), err
				}
				fmt.Fprintf(&b, " %s", rendered)
				ip = next
				continue
			}

			width := argWidth(arg)
			if ip+width > len(code) {
				return b.String(), fmt.Errorf("disassemble: truncated operand for %s at offset %d", info.Name, ip)
			}
			fmt.Fprintf(&b, " %s", renderArg(arg, code[ip:ip+width]))
			ip += width
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// argWidth returns the wire width, in bytes, of one operand of the given
// kind (everything except ArgReference, which renderReference decodes
// directly since its width depends on the tag byte).
func argWidth(k ArgKind) int {
	switch k {
	case ArgLabel, ArgTypeID, ArgString, ArgInt, ArgFloat, ArgFormatCount,
		ArgListSize, ArgResource, ArgProcID, ArgEnumeratorID, ArgFilterID,
		ArgPickCount, ArgConcatCount:
		return 4
	case ArgArgType:
		return 1
	default:
		return 0
	}
}

func renderArg(k ArgKind, raw []byte) string {
	switch k {
	case ArgFloat:
		bits := binary.LittleEndian.Uint32(raw)
		return fmt.Sprintf("%g", math.Float32frombits(bits))
	case ArgArgType:
		return fmt.Sprintf("args=%d", raw[0])
	default:
		return fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(raw)))
	}
}

var tagToKind = func() map[byte]reference.Kind {
	m := make(map[byte]reference.Kind, len(referenceTag))
	for kind, tag := range referenceTag {
		m[tag] = kind
	}
	return m
}()

// renderReference decodes a Reference's tag byte and payload starting at
// offset ip, returning its rendering and the offset just past it.
func renderReference(code []byte, ip int) (string, int, error) {
	tag := code[ip]
	kind, ok := tagToKind[tag]
	if !ok {
		return "", ip, fmt.Errorf("disassemble: unknown reference tag %d at offset %d", tag, ip)
	}
	ip++

	switch kind {
	case reference.Argument, reference.Local:
		if ip >= len(code) {
			return "", ip, fmt.Errorf("disassemble: truncated reference payload at offset %d", ip)
		}
		return fmt.Sprintf("%s(%d)", kind, code[ip]), ip + 1, nil
	case reference.Global, reference.GlobalProc, reference.SrcField, reference.Field, reference.SrcProc:
		if ip+4 > len(code) {
			return "", ip, fmt.Errorf("disassemble: truncated reference payload at offset %d", ip)
		}
		id := int32(binary.LittleEndian.Uint32(code[ip : ip+4]))
		return fmt.Sprintf("%s(%d)", kind, id), ip + 4, nil
	default:
		return kind.String(), ip, nil
	}
}
