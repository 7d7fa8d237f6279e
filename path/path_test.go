package path

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Path
	}{
		{name: "root", in: "/", want: Root},
		{name: "absolute", in: "/obj/item/weapon", want: Path{Kind: Absolute, Segments: []string{"obj", "item", "weapon"}}},
		{name: "relative", in: ".foo/bar", want: Path{Kind: Relative, Segments: []string{"foo", "bar"}}},
		{name: "upward search", in: "..bar", want: Path{Kind: UpwardSearch, Segments: []string{"bar"}}},
		{name: "empty string is root", in: "", want: Root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	if got := Parse("/obj/item/weapon").String(); got != "/obj/item/weapon" {
		t.Errorf("String() = %q", got)
	}
	if got := Root.String(); got != "/" {
		t.Errorf("Root.String() = %q, want /", got)
	}
}

func TestIsDescendantOf(t *testing.T) {
	weapon := Parse("/obj/item/weapon")
	if !weapon.IsDescendantOf(Obj) {
		t.Errorf("expected /obj/item/weapon to descend from /obj")
	}
	if weapon.IsDescendantOf(Mob) {
		t.Errorf("did not expect /obj/item/weapon to descend from /mob")
	}
}

func TestCombine(t *testing.T) {
	base := Parse("/mob/player")
	rel := Path{Kind: Relative, Segments: []string{"proc", "Attack"}}
	combined := base.Combine(rel)
	if combined.String() != "/mob/player/proc/Attack" {
		t.Errorf("Combine() = %q", combined.String())
	}
}

func TestStripModifiers(t *testing.T) {
	mods, rest := StripModifiers(Parse("/var/const/mob"))
	if !mods.Const {
		t.Errorf("expected Const modifier")
	}
	if rest.String() != "/mob" {
		t.Errorf("remaining type = %q, want /mob", rest.String())
	}

	mods2, rest2 := StripModifiers(Parse("/var/static/list"))
	if !mods2.Static || !mods2.Global {
		t.Errorf("expected static to imply global")
	}
	if rest2.String() != "/list" {
		t.Errorf("remaining type = %q, want /list", rest2.String())
	}
}
