// Package valuetype implements the DM value-type flag bitset described in
// spec §3: a 32-bit set of primitive-kind flags plus compiler-hint modifier
// flags, as parsed from "as num|text" and similar constrained-type
// annotations.
package valuetype

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"dmcompiler/path"
)

// ValueType is a bitset of value-kind and modifier flags. The zero value,
// Anything, means unconstrained.
type ValueType uint32

const (
	Anything ValueType = 0

	Null        ValueType = 1 << 0
	Text        ValueType = 1 << 1
	Obj         ValueType = 1 << 2
	Mob         ValueType = 1 << 3
	Turf        ValueType = 1 << 4
	Num         ValueType = 1 << 5
	Message     ValueType = 1 << 6
	Area        ValueType = 1 << 7
	Color       ValueType = 1 << 8
	File        ValueType = 1 << 9
	CommandText ValueType = 1 << 10
	Sound       ValueType = 1 << 11
	Icon        ValueType = 1 << 12
	Path        ValueType = 1 << 13

	// Modifier flags: not value kinds, compiler hints.
	Unimplemented       ValueType = 1 << 14
	CompiletimeReadonly ValueType = 1 << 15
	NoConstFold         ValueType = 1 << 16
	Unsupported         ValueType = 1 << 17
)

var names = []struct {
	flag ValueType
	name string
}{
	{Null, "null"}, {Text, "text"}, {Obj, "obj"}, {Mob, "mob"}, {Turf, "turf"},
	{Num, "num"}, {Message, "message"}, {Area, "area"}, {Color, "color"},
	{File, "file"}, {CommandText, "command_text"}, {Sound, "sound"},
	{Icon, "icon"}, {Path, "path"},
	{Unimplemented, "unimplemented"}, {CompiletimeReadonly, "compiletime_readonly"},
	{NoConstFold, "no_const_fold"}, {Unsupported, "unsupported"},
}

var byName = func() map[string]ValueType {
	m := make(map[string]ValueType, len(names))
	for _, n := range names {
		m[n.name] = n.flag
	}
	return m
}()

// Has reports whether every bit in flag is set in v.
func (v ValueType) Has(flag ValueType) bool {
	return v&flag == flag
}

// With returns v with flag set.
func (v ValueType) With(flag ValueType) ValueType {
	return v | flag
}

// toBitset converts v to a bits-and-blooms/bitset.BitSet so callers can use
// its iteration API (NextSet) instead of hand-rolled bit-scanning. Kept to a
// narrow diagnostics/pretty-printing use: the hot compile path manipulates
// ValueType directly as a uint32 for speed, per §4's "no allocation in the
// hot loop" discipline that the teacher's opcode tables also follow.
func (v ValueType) toBitset() *bitset.BitSet {
	bs := bitset.New(32)
	for i := uint(0); i < 32; i++ {
		if v&(1<<i) != 0 {
			bs.Set(i)
		}
	}
	return bs
}

// Members returns the human-readable flag names set in v, in a stable order,
// used by diagnostics that report a constrained type (e.g. "expected
// num|text, got obj").
func (v ValueType) Members() []string {
	bs := v.toBitset()
	var out []string
	for i, e := bs.NextSet(0); e; i, e = bs.NextSet(i + 1) {
		flag := ValueType(1) << i
		for _, n := range names {
			if n.flag == flag {
				out = append(out, n.name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// String renders v as DM's pipe-joined type-flag syntax, e.g. "num|text".
func (v ValueType) String() string {
	if v == Anything {
		return "anything"
	}
	return strings.Join(v.Members(), "|")
}

// ParseFlags parses a pipe-separated type-flag string such as "num|text"
// into a ValueType. Unknown words are ignored (mirrors the original
// implementation's ParseTypeFlags returning Anything on failure, extended
// to tolerate partial matches in a `|`-joined list).
func ParseFlags(s string) ValueType {
	var v ValueType
	for _, word := range strings.Split(s, "|") {
		word = strings.TrimSpace(strings.ToLower(word))
		if flag, ok := byName[word]; ok {
			v |= flag
		}
	}
	return v
}

// ComplexValueType pairs a ValueType bitset with an optional constrained
// type path (e.g. "as obj|mob in /obj/item"). Invariant: if HasPath is true,
// Path must be present — see spec §3.
type ComplexValueType struct {
	Type    ValueType
	HasPath bool
	Path    path.Path
}

// WithPath returns a ComplexValueType with the same Type but constrained to
// the given type path.
func (c ComplexValueType) WithPath(p path.Path) ComplexValueType {
	return ComplexValueType{Type: c.Type, HasPath: true, Path: p}
}

func (c ComplexValueType) String() string {
	if !c.HasPath {
		return c.Type.String()
	}
	return c.Type.String() + " in " + c.Path.String()
}
