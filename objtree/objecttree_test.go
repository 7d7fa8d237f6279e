package objtree

import (
	"testing"

	"dmcompiler/path"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	tree := New()
	id1 := tree.GetOrCreate(path.Parse("/obj/item/weapon"))
	count := len(tree.AllObjects)
	id2 := tree.GetOrCreate(path.Parse("/obj/item/weapon"))
	if id1 != id2 {
		t.Fatalf("GetOrCreate() returned different ids: %d, %d", id1, id2)
	}
	if len(tree.AllObjects) != count {
		t.Errorf("GetOrCreate() created new objects on second call")
	}
}

func TestGetOrCreateMaterializesRootInheritance(t *testing.T) {
	tree := New()
	objID := tree.GetOrCreate(path.Parse("/obj"))
	obj := tree.Object(objID)
	atom := tree.Object(obj.Parent)
	if !atom.Path.Equal(path.Atom) {
		t.Fatalf("expected /obj's parent to be /atom, got %s", atom.Path)
	}
	datum := tree.Object(atom.Parent)
	if !datum.Path.Equal(path.Datum) {
		t.Fatalf("expected /atom's parent to be /datum, got %s", datum.Path)
	}
	if datum.Parent != 0 {
		t.Fatalf("expected /datum's parent to be root (id 0), got %d", datum.Parent)
	}
}

func TestGetOrCreateMaterializesIntermediateAncestors(t *testing.T) {
	tree := New()
	id := tree.GetOrCreate(path.Parse("/obj/item/weapon/sword"))
	obj := tree.Object(id)
	weapon := tree.Object(obj.Parent)
	if !weapon.Path.Equal(path.Parse("/obj/item/weapon")) {
		t.Fatalf("expected parent /obj/item/weapon, got %s", weapon.Path)
	}
}

func TestVariableInheritanceWalksUp(t *testing.T) {
	tree := New()
	atomID := tree.GetOrCreate(path.Atom)
	tree.Object(atomID).InstanceVars["name"] = Variable{Name: "name"}

	weaponID := tree.GetOrCreate(path.Parse("/obj/item/weapon"))
	v, ok := tree.GetVariable(weaponID, "name")
	if !ok {
		t.Fatalf("expected to inherit 'name' from /atom")
	}
	if v.Name != "name" {
		t.Errorf("GetVariable() = %#v", v)
	}
}

func TestProcRegistrationAndLookup(t *testing.T) {
	tree := New()
	mobID := tree.GetOrCreate(path.Mob)
	proc := tree.NewProc(mobID, "Attack")
	proc.Parameters = []string{"target"}

	got, ok := tree.GetProc(mobID, "Attack")
	if !ok || got != proc.ID {
		t.Fatalf("GetProc() = %d, %v, want %d, true", got, ok, proc.ID)
	}

	playerID := tree.GetOrCreate(path.Parse("/mob/player"))
	got, ok = tree.GetProc(playerID, "Attack")
	if !ok || got != proc.ID {
		t.Fatalf("expected /mob/player to inherit Attack from /mob")
	}
}

func TestInternIsIdempotent(t *testing.T) {
	tree := New()
	a := tree.Intern("health")
	b := tree.Intern("health")
	if a != b {
		t.Errorf("Intern() = %d, %d, want identical ids", a, b)
	}
}

func TestIsDescendantOf(t *testing.T) {
	tree := New()
	atomID := tree.GetOrCreate(path.Atom)
	weaponID := tree.GetOrCreate(path.Parse("/obj/item/weapon"))
	if !tree.IsDescendantOf(weaponID, atomID) {
		t.Errorf("expected /obj/item/weapon to descend from /atom")
	}
}

func TestBuiltinRegistryLookups(t *testing.T) {
	reg := Builtins()
	if _, ok := reg.GlobalProc("sqrt"); !ok {
		t.Errorf("expected 'sqrt' to be a known global built-in proc")
	}
	if _, ok := reg.TypeVar(path.Parse("/obj/item"), "x"); !ok {
		t.Errorf("expected /obj/item to inherit built-in var 'x' from /atom")
	}
	if !reg.IsContextVar("usr") {
		t.Errorf("expected 'usr' to be a context variable")
	}
	if reg.IsContextVar("bogus") {
		t.Errorf("did not expect 'bogus' to be a context variable")
	}
}
