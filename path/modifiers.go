package path

import "strings"

// Modifiers is the set of declarator flags that can prefix a var's type
// path (e.g. "/var/const/mob" -> Const=true, remaining type "/mob"). Static
// is recorded as a distinct flag but always implies Global, per spec §3
// ("static is an alias for global").
type Modifiers struct {
	Const  bool
	Final  bool
	Tmp    bool
	Global bool
	Static bool
}

var modifierWords = map[string]func(*Modifiers){
	"const":  func(m *Modifiers) { m.Const = true },
	"final":  func(m *Modifiers) { m.Final = true },
	"tmp":    func(m *Modifiers) { m.Tmp = true },
	"global": func(m *Modifiers) { m.Global = true },
	"static": func(m *Modifiers) { m.Static = true; m.Global = true },
}

// StripModifiers removes any leading modifier segments from p and returns
// the accumulated Modifiers plus the remaining type path. A "var" segment,
// when present as a leading segment (a declarator modifier, not a type),
// is also stripped.
func StripModifiers(p Path) (Modifiers, Path) {
	var mods Modifiers
	segments := p.Segments
	i := 0
	for i < len(segments) {
		word := strings.ToLower(segments[i])
		if word == "var" {
			i++
			continue
		}
		apply, ok := modifierWords[word]
		if !ok {
			break
		}
		apply(&mods)
		i++
	}
	return mods, Path{Kind: p.Kind, Segments: segments[i:]}
}
