// Package path implements the value-typed DM path (e.g. "/obj/item/weapon",
// ".foo", "..bar") described in spec §3. A Path is immutable; every mutating
// operation returns a new value.
package path

import "strings"

// Kind distinguishes how a path anchors: to the tree root, to the enclosing
// definition (relative), or by upward search through ancestors.
type Kind int

const (
	Absolute Kind = iota
	Relative
	UpwardSearch
)

func (k Kind) String() string {
	switch k {
	case Absolute:
		return "Absolute"
	case Relative:
		return "Relative"
	case UpwardSearch:
		return "UpwardSearch"
	default:
		return "Unknown"
	}
}

// Path is a hierarchical type identifier. It is comparable with == only
// through Equal (the Segments slice makes raw == unreliable across copies
// sharing no backing array); treat Path as immutable once constructed.
type Path struct {
	Kind     Kind
	Segments []string
}

// Root is the "/" path, the root of the object tree.
var Root = Path{Kind: Absolute, Segments: nil}

// Parse parses a path string such as "/obj/item/weapon", ".foo/bar", or
// "..bar" into a Path. An empty string yields Root.
func Parse(s string) Path {
	if s == "" {
		return Root
	}

	kind := Absolute
	rest := s
	switch {
	case strings.HasPrefix(s, ".."):
		kind = UpwardSearch
		rest = strings.TrimPrefix(s, "..")
	case strings.HasPrefix(s, "."):
		kind = Relative
		rest = strings.TrimPrefix(s, ".")
	case strings.HasPrefix(s, "/"):
		kind = Absolute
		rest = strings.TrimPrefix(s, "/")
	}

	rest = strings.Trim(rest, "/")
	var segments []string
	if rest != "" {
		segments = strings.Split(rest, "/")
	}
	return Path{Kind: kind, Segments: segments}
}

// New builds a Path directly from a Kind and segment list.
func New(kind Kind, segments []string) Path {
	return Path{Kind: kind, Segments: append([]string(nil), segments...)}
}

// String renders the path back to DM source syntax.
func (p Path) String() string {
	var b strings.Builder
	switch p.Kind {
	case Relative:
		b.WriteByte('.')
	case UpwardSearch:
		b.WriteString("..")
	}
	for _, s := range p.Segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	if p.Kind == Absolute && len(p.Segments) == 0 {
		return "/"
	}
	return b.String()
}

// Equal compares by Kind and Segments content, per spec §3 ("equality is
// type+segments; hashable").
func (p Path) Equal(other Path) bool {
	if p.Kind != other.Kind || len(p.Segments) != len(other.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// Key returns a string usable as a map key for path_index lookups — the
// textual form already satisfies Path's equality contract.
func (p Path) Key() string {
	return p.String()
}

// Last returns the final segment, or "" for the root path.
func (p Path) Last() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path with its last segment removed.
func (p Path) Parent() Path {
	if len(p.Segments) == 0 {
		return p
	}
	return Path{Kind: p.Kind, Segments: p.Segments[:len(p.Segments)-1]}
}

// Add returns a new path with element appended.
func (p Path) Add(element string) Path {
	return Path{Kind: p.Kind, Segments: append(append([]string(nil), p.Segments...), element)}
}

// Combine appends other's segments onto p's, keeping p's Kind — used when
// resolving a relative path against an enclosing absolute path.
func (p Path) Combine(other Path) Path {
	return Path{Kind: p.Kind, Segments: append(append([]string(nil), p.Segments...), other.Segments...)}
}

// IsDescendantOf reports whether p is ancestor-equal-to-or-below ancestor,
// segment-by-segment.
func (p Path) IsDescendantOf(ancestor Path) bool {
	if len(ancestor.Segments) > len(p.Segments) {
		return false
	}
	for i, s := range ancestor.Segments {
		if p.Segments[i] != s {
			return false
		}
	}
	return true
}

// IsRoot reports whether this is the "/" path.
func (p Path) IsRoot() bool {
	return p.Kind == Absolute && len(p.Segments) == 0
}

// Well-known root object paths, per spec §3's inheritance table.
var (
	Datum  = Parse("/datum")
	Atom   = Parse("/atom")
	Obj    = Parse("/obj")
	Mob    = Parse("/mob")
	Turf   = Parse("/turf")
	Area   = Parse("/area")
	Client = Parse("/client")
	List   = Parse("/list")
)
