// Package bytecode implements the stack-machine bytecode writer described
// in spec §4.4 and the opcode catalog of spec §6.2-§6.4: exact one-byte
// opcodes, little-endian multi-byte operands, a label + deferred-patching
// jump model, and a simulated operand-stack depth used to track max_stack.
package bytecode

import "fmt"

// Opcode is a one-byte instruction identifier. Values are fixed by spec
// §6.2 and must not be renumbered — a conforming VM interprets them
// literally.
type Opcode byte



const (
	BitShiftLeft  Opcode = 0x01
	PushType      Opcode = 0x02
	PushString    Opcode = 0x03
	FormatString  Opcode = 0x04
	SwitchCaseRange Opcode = 0x05
	PushReferenceValue Opcode = 0x06
	Rgb           Opcode = 0x07
	Add           Opcode = 0x08
	Assign        Opcode = 0x09
	Call          Opcode = 0x0A
	MultiplyReference Opcode = 0x0B
	JumpIfFalse   Opcode = 0x0C
	Try           Opcode = 0x0D
	Jump          Opcode = 0x0E
	CompareEquals Opcode = 0x0F
	Return        Opcode = 0x10
	PushNull      Opcode = 0x11
	Subtract      Opcode = 0x12
	CompareLessThan Opcode = 0x13
	CompareGreaterThan Opcode = 0x14
	BooleanAnd    Opcode = 0x15
	BooleanNot    Opcode = 0x16
	DivideReference Opcode = 0x17
	Negate        Opcode = 0x18
	Modulus       Opcode = 0x19
	Append        Opcode = 0x1A
	CreateRangeEnumerator Opcode = 0x1B
	TryNoValue    Opcode = 0x1C
	CompareLessThanOrEqual Opcode = 0x1D
	CreateAssociativeList Opcode = 0x1E
	Remove        Opcode = 0x1F
	DeleteObject  Opcode = 0x20
	EndTry        Opcode = 0x21
	CreateList    Opcode = 0x22
	CallStatement Opcode = 0x23
	BitAnd        Opcode = 0x24
	CompareNotEquals Opcode = 0x25
	Throw         Opcode = 0x26
	Divide        Opcode = 0x27
	Multiply      Opcode = 0x28
	BitXorReference Opcode = 0x29
	BitXor        Opcode = 0x2A
	BitOr         Opcode = 0x2B
	BitNot        Opcode = 0x2C
	Combine       Opcode = 0x2D
	CreateObject  Opcode = 0x2E
	BooleanOr     Opcode = 0x2F
	CompareGreaterThanOrEqual Opcode = 0x31
	SwitchCase    Opcode = 0x32
	Mask          Opcode = 0x33
	IsInList      Opcode = 0x36
	Power         Opcode = 0x42
	BitShiftRight Opcode = 0x40
	CreateFilteredListEnumerator Opcode = 0x41
	CreateListEnumerator Opcode = 0x3A
	Enumerate     Opcode = 0x3B
	DestroyEnumerator Opcode = 0x3C
	PushFloat     Opcode = 0x38
	ModulusReference Opcode = 0x39
	EnumerateAssoc Opcode = 0x43
	Prompt        Opcode = 0x45
	IsType        Opcode = 0x49
	LocateCoord   Opcode = 0x4A
	Locate        Opcode = 0x4B
	Spawn         Opcode = 0x4D
	Pop           Opcode = 0x51
	Prob          Opcode = 0x52
	PickUnweighted Opcode = 0x54
	Increment     Opcode = 0x56
	Decrement     Opcode = 0x57
	PushGlobalVars Opcode = 0x5F
	JumpIfTrueReference Opcode = 0x66
	JumpIfFalseReference Opcode = 0x67
	DereferenceField Opcode = 0x68
	DereferenceIndex Opcode = 0x69
	DereferenceCall Opcode = 0x6A
	BitShiftLeftReference Opcode = 0x6D
	BitShiftRightReference Opcode = 0x6E
	EnumerateNoAssign Opcode = 0x72
	AssignInto    Opcode = 0x74
	GetStep       Opcode = 0x75
	Length        Opcode = 0x76
	GetDir        Opcode = 0x77
	Sqrt          Opcode = 0x80
)

// String renders an opcode by its catalog name, falling back to its raw
// byte value for anything not in Metadata (reserved/unused bytes).
func (op Opcode) String() string {
	if info, ok := Metadata[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

// ArgsType is the arguments-type byte that follows Call/Dispatch opcodes,
// per spec §6.3.
type ArgsType byte

const (
	ArgsNone ArgsType = iota
	ArgsFromStack
	ArgsFromStackKeyed
	ArgsFromArgumentList
	ArgsFromProcArguments
)

// ArgKind is the closed set of operand kinds an OpcodeMetadata entry can
// list, per spec §4.4. It documents emit() call shape for disassembly and
// verification; the writer itself stays opcode-agnostic.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgTypeID
	ArgString
	ArgLabel
	ArgReference
	ArgStackDelta
	ArgArgType
	ArgFormatCount
	ArgListSize
	ArgResource
	ArgProcID
	ArgEnumeratorID
	ArgFilterID
	ArgPickCount
	ArgConcatCount
	ArgInt
	ArgFloat
)

// OpcodeInfo is one entry of the OpcodeMetadata table: the operand shape
// and the net effect on the simulated operand-stack depth.
type OpcodeInfo struct {
	Name        string
	StackDelta  int
	ArgTypes    [4]ArgKind
}

// Metadata is the authoritative, process-wide opcode catalog. It is not
// consulted by emit (the writer has no opcode knowledge, per spec §4.4)
// but is used by Disassemble and by Opcode.String.
var Metadata = map[Opcode]OpcodeInfo{
	Add:                    {"Add", -1, [4]ArgKind{}},
	Subtract:               {"Subtract", -1, [4]ArgKind{}},
	Multiply:               {"Multiply", -1, [4]ArgKind{}},
	Divide:                 {"Divide", -1, [4]ArgKind{}},
	Modulus:                {"Modulus", -1, [4]ArgKind{}},
	Power:                  {"Power", -1, [4]ArgKind{}},
	Negate:                 {"Negate", 0, [4]ArgKind{}},
	BitAnd:                 {"BitAnd", -1, [4]ArgKind{}},
	BitOr:                  {"BitOr", -1, [4]ArgKind{}},
	BitXor:                 {"BitXor", -1, [4]ArgKind{}},
	BitNot:                 {"BitNot", 0, [4]ArgKind{}},
	BitShiftLeft:           {"BitShiftLeft", -1, [4]ArgKind{}},
	BitShiftRight:          {"BitShiftRight", -1, [4]ArgKind{}},
	CompareEquals:          {"CompareEquals", -1, [4]ArgKind{}},
	CompareNotEquals:       {"CompareNotEquals", -1, [4]ArgKind{}},
	CompareLessThan:        {"CompareLessThan", -1, [4]ArgKind{}},
	CompareGreaterThan:     {"CompareGreaterThan", -1, [4]ArgKind{}},
	CompareLessThanOrEqual: {"CompareLessThanOrEqual", -1, [4]ArgKind{}},
	CompareGreaterThanOrEqual: {"CompareGreaterThanOrEqual", -1, [4]ArgKind{}},
	BooleanAnd:             {"BooleanAnd", -1, [4]ArgKind{}},
	BooleanOr:              {"BooleanOr", -1, [4]ArgKind{}},
	BooleanNot:             {"BooleanNot", 0, [4]ArgKind{}},
	PushType:               {"PushType", 1, [4]ArgKind{ArgTypeID}},
	PushString:             {"PushString", 1, [4]ArgKind{ArgString}},
	PushFloat:              {"PushFloat", 1, [4]ArgKind{ArgFloat}},
	PushNull:               {"PushNull", 1, [4]ArgKind{}},
	PushReferenceValue:     {"PushReferenceValue", 1, [4]ArgKind{ArgReference}},
	PushGlobalVars:         {"PushGlobalVars", 1, [4]ArgKind{}},
	Pop:                    {"Pop", -1, [4]ArgKind{}},
	Assign:                 {"Assign", -1, [4]ArgKind{ArgReference}},
	AssignInto:             {"AssignInto", -1, [4]ArgKind{ArgReference}},
	Append:                 {"Append", -1, [4]ArgKind{ArgReference}},
	Remove:                 {"Remove", -1, [4]ArgKind{ArgReference}},
	MultiplyReference:      {"MultiplyReference", -1, [4]ArgKind{ArgReference}},
	DivideReference:        {"DivideReference", -1, [4]ArgKind{ArgReference}},
	ModulusReference:       {"ModulusReference", -1, [4]ArgKind{ArgReference}},
	BitXorReference:        {"BitXorReference", -1, [4]ArgKind{ArgReference}},
	Mask:                   {"Mask", -1, [4]ArgKind{ArgReference}},
	Combine:                {"Combine", -1, [4]ArgKind{ArgReference}},
	BitShiftLeftReference:  {"BitShiftLeftReference", -1, [4]ArgKind{ArgReference}},
	BitShiftRightReference: {"BitShiftRightReference", -1, [4]ArgKind{ArgReference}},
	Increment:              {"Increment", 0, [4]ArgKind{ArgReference}},
	Decrement:              {"Decrement", 0, [4]ArgKind{ArgReference}},
	Jump:                   {"Jump", 0, [4]ArgKind{ArgLabel}},
	JumpIfFalse:            {"JumpIfFalse", -1, [4]ArgKind{ArgLabel}},
	JumpIfTrueReference:    {"JumpIfTrueReference", 0, [4]ArgKind{ArgReference, ArgLabel}},
	JumpIfFalseReference:   {"JumpIfFalseReference", 0, [4]ArgKind{ArgReference, ArgLabel}},
	Return:                 {"Return", -1, [4]ArgKind{}},
	Call:                   {"Call", 0, [4]ArgKind{ArgReference, ArgArgType, ArgInt}},
	CallStatement:          {"CallStatement", -1, [4]ArgKind{ArgReference, ArgArgType, ArgInt}},
	DereferenceCall:        {"DereferenceCall", 0, [4]ArgKind{ArgString, ArgArgType, ArgInt}},
	DereferenceField:       {"DereferenceField", 0, [4]ArgKind{ArgString}},
	DereferenceIndex:       {"DereferenceIndex", -1, [4]ArgKind{}},
	CreateList:             {"CreateList", 0, [4]ArgKind{ArgListSize}},
	CreateAssociativeList:  {"CreateAssociativeList", 0, [4]ArgKind{ArgListSize}},
	CreateObject:           {"CreateObject", 0, [4]ArgKind{ArgArgType, ArgInt}},
	DeleteObject:           {"DeleteObject", -1, [4]ArgKind{}},
	CreateListEnumerator:   {"CreateListEnumerator", -1, [4]ArgKind{ArgEnumeratorID}},
	CreateFilteredListEnumerator: {"CreateFilteredListEnumerator", -1, [4]ArgKind{ArgEnumeratorID, ArgTypeID, ArgString}},
	CreateRangeEnumerator:  {"CreateRangeEnumerator", -3, [4]ArgKind{ArgEnumeratorID}},
	Enumerate:              {"Enumerate", 0, [4]ArgKind{ArgEnumeratorID, ArgReference, ArgLabel}},
	EnumerateAssoc:         {"EnumerateAssoc", 0, [4]ArgKind{ArgEnumeratorID, ArgReference, ArgReference, ArgLabel}},
	EnumerateNoAssign:      {"EnumerateNoAssign", 0, [4]ArgKind{ArgEnumeratorID, ArgLabel}},
	DestroyEnumerator:      {"DestroyEnumerator", 0, [4]ArgKind{ArgEnumeratorID}},
	SwitchCase:             {"SwitchCase", -1, [4]ArgKind{ArgLabel}},
	SwitchCaseRange:        {"SwitchCaseRange", -2, [4]ArgKind{ArgLabel}},
	Locate:                 {"Locate", 0, [4]ArgKind{}},
	LocateCoord:            {"LocateCoord", -2, [4]ArgKind{}},
	GetDir:                 {"GetDir", -1, [4]ArgKind{}},
	GetStep:                {"GetStep", -1, [4]ArgKind{}},
	Length:                 {"Length", 0, [4]ArgKind{}},
	Sqrt:                   {"Sqrt", 0, [4]ArgKind{}},
	Prob:                   {"Prob", 0, [4]ArgKind{}},
	Rgb:                    {"Rgb", 0, [4]ArgKind{ArgArgType, ArgInt}},
	PickUnweighted:         {"PickUnweighted", 0, [4]ArgKind{ArgPickCount}},
	IsType:                 {"IsType", -1, [4]ArgKind{}},
	IsInList:               {"IsInList", -1, [4]ArgKind{}},
	FormatString:           {"FormatString", 0, [4]ArgKind{ArgString, ArgFormatCount}},
	Spawn:                  {"Spawn", 0, [4]ArgKind{ArgLabel}},
	Prompt:                 {"Prompt", 0, [4]ArgKind{ArgInt}},
	Try:                    {"Try", 0, [4]ArgKind{ArgLabel}},
	TryNoValue:             {"TryNoValue", 0, [4]ArgKind{ArgLabel}},
	EndTry:                 {"EndTry", 0, [4]ArgKind{}},
	Throw:                  {"Throw", -1, [4]ArgKind{}},
}

// BinaryOpcode maps a source binary operator to its opcode, per the
// authoritative table in spec §6.6.
var BinaryOpcode = map[string]Opcode{
	"Add": Add, "Subtract": Subtract, "Multiply": Multiply, "Divide": Divide,
	"Modulo": Modulus, "Power": Power, "Equal": CompareEquals,
	"NotEqual": CompareNotEquals, "Less": CompareLessThan,
	"Greater": CompareGreaterThan, "LessOrEqual": CompareLessThanOrEqual,
	"GreaterOrEqual": CompareGreaterThanOrEqual, "LogicalAnd": BooleanAnd,
	"LogicalOr": BooleanOr, "BitwiseAnd": BitAnd, "BitwiseOr": BitOr,
	"BitwiseXor": BitXor, "LeftShift": BitShiftLeft, "RightShift": BitShiftRight,
	"In": IsInList,
}
