package bytecode

import "dmcompiler/reference"

// referenceTag maps a reference.Kind to its wire tag byte, per the table in
// spec §3. ListIndex occupies the single gap (6) left by the documented
// bytes 0-5,7-13; the remaining reserved kinds (SrcProc, Callee, Caller,
// Invalid) are assigned bytes above the documented range since the spec
// leaves them unspecified ("reserved").
var referenceTag = map[reference.Kind]byte{
	reference.NoRef:      0,
	reference.Src:        1,
	reference.Self:       2,
	reference.Usr:        3,
	reference.Args:       4,
	reference.World:      5,
	reference.ListIndex:  6,
	reference.SuperProc:  7,
	reference.Argument:   8,
	reference.Local:      9,
	reference.Global:     10,
	reference.GlobalProc: 11,
	reference.SrcField:   12,
	reference.Field:      13,
	reference.SrcProc:    14,
	reference.Callee:     15,
	reference.Caller:     16,
	reference.Invalid:    255,
}
