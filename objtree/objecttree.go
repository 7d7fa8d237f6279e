package objtree

import (
	"dmcompiler/path"
)

// inheritanceParent returns the root-object parent path mandated by spec
// §2/§3 for the well-known root types, or (zero, false) for anything else
// (GetOrCreate then uses the path parent, so a top-level type such as /foo
// gets the root as its parent).
func inheritanceParent(p path.Path) (path.Path, bool) {
	if p.IsRoot() {
		return path.Path{}, false
	}
	if p.Equal(path.Datum) {
		return path.Root, true
	}
	switch {
	case p.Equal(path.Atom):
		return path.Datum, true
	case p.Equal(path.Obj), p.Equal(path.Mob), p.Equal(path.Turf), p.Equal(path.Area):
		return path.Atom, true
	case p.Equal(path.Client), p.Equal(path.List),
		p.Equal(path.Parse("/savefile")), p.Equal(path.Parse("/sound")),
		p.Equal(path.Parse("/image")), p.Equal(path.Parse("/icon")),
		p.Equal(path.Parse("/matrix")), p.Equal(path.Parse("/regex")),
		p.Equal(path.Parse("/world")):
		return path.Datum, true
	default:
		return path.Path{}, false
	}
}

// ObjectTree owns every DMObject, DMProc, and global variable materialized
// while compiling one file, per spec §3.
type ObjectTree struct {
	AllObjects  []*DMObject
	AllProcs    []*DMProc
	Globals     []Variable
	GlobalProcs map[string]int
	Strings     *StringTable
	Resources   map[string]bool
	pathIndex   map[string]int

	nextObjectID int
	nextProcID   int
}

// New returns an ObjectTree containing only the root "/" object.
func New() *ObjectTree {
	t := &ObjectTree{
		GlobalProcs: make(map[string]int),
		Strings:     NewStringTable(),
		Resources:   make(map[string]bool),
		pathIndex:   make(map[string]int),
	}
	root := newObject(0, path.Root)
	t.AllObjects = append(t.AllObjects, root)
	t.pathIndex[path.Root.Key()] = 0
	t.nextObjectID = 1
	return t
}

// GetOrCreate idempotently materializes p and all of its ancestors,
// applying the root inheritance table, and returns its object id. Calling
// it twice for the same path returns the same id and creates nothing new,
// per the object-tree idempotence property in spec §8.
func (t *ObjectTree) GetOrCreate(p path.Path) int {
	if id, ok := t.pathIndex[p.Key()]; ok {
		return id
	}

	id := t.nextObjectID
	t.nextObjectID++
	obj := newObject(id, p)
	t.AllObjects = append(t.AllObjects, obj)
	t.pathIndex[p.Key()] = id

	if parentPath, ok := inheritanceParent(p); ok {
		obj.Parent = t.GetOrCreate(parentPath)
		obj.HasParent = true
	} else if !p.IsRoot() {
		parentPath = p.Parent()
		obj.Parent = t.GetOrCreate(parentPath)
		obj.HasParent = true
	}

	return id
}

// rootID returns the object id of the "/" root, always 0 per New.
func (t *ObjectTree) rootID() int {
	return 0
}

// Lookup returns the object id already materialized for p, if any.
func (t *ObjectTree) Lookup(p path.Path) (int, bool) {
	id, ok := t.pathIndex[p.Key()]
	return id, ok
}

// Object returns the DMObject for id.
func (t *ObjectTree) Object(id int) *DMObject {
	return t.AllObjects[id]
}

// Intern interns s in the tree's shared string table.
func (t *ObjectTree) Intern(s string) int {
	return t.Strings.Intern(s)
}

// CreateGlobal appends a new global variable and returns its index,
// per spec §4.3.
func (t *ObjectTree) CreateGlobal(v Variable) int {
	t.Globals = append(t.Globals, v)
	return len(t.Globals) - 1
}

// NewProc allocates a fresh DMProc owned by ownerID and registers it on
// the owner's Procs map under name.
func (t *ObjectTree) NewProc(ownerID int, name string) *DMProc {
	id := t.nextProcID
	t.nextProcID++
	proc := &DMProc{
		ID:         id,
		Name:       name,
		Owner:      ownerID,
		Locals:     make(map[string]LocalVariable),
		GlobalRefs: make(map[string]int),
		Attrs:      make(map[string]AttrValue),
	}
	t.AllProcs = append(t.AllProcs, proc)
	owner := t.AllObjects[ownerID]
	owner.Procs[name] = append(owner.Procs[name], id)
	return proc
}

// Proc returns the DMProc for id.
func (t *ObjectTree) Proc(id int) *DMProc {
	return t.AllProcs[id]
}

// GetVariable resolves name on obj, walking up the inheritance chain
// (overrides, then instance vars, falling back to ancestors), per spec
// §4.3's inheritance-lookup contract.
func (t *ObjectTree) GetVariable(objID int, name string) (Variable, bool) {
	for id := objID; id >= 0; {
		obj := t.AllObjects[id]
		if v, ok := obj.VariableOverrides[name]; ok {
			return v, true
		}
		if v, ok := obj.InstanceVars[name]; ok {
			return v, true
		}
		if !obj.HasParent {
			break
		}
		id = obj.Parent
	}
	return Variable{}, false
}

// GetProc resolves name on obj, walking up the inheritance chain and
// returning the most-derived proc id.
func (t *ObjectTree) GetProc(objID int, name string) (int, bool) {
	for id := objID; id >= 0; {
		obj := t.AllObjects[id]
		if ids, ok := obj.Procs[name]; ok && len(ids) > 0 {
			return ids[len(ids)-1], true
		}
		if !obj.HasParent {
			break
		}
		id = obj.Parent
	}
	return 0, false
}

// GetGlobalVarIndex resolves name as a global ("var/global/..." or
// "var/static/...") variable visible from objID, walking the inheritance
// chain the same way GetVariable/GetProc do, and returns its index into
// Globals.
func (t *ObjectTree) GetGlobalVarIndex(objID int, name string) (int, bool) {
	for id := objID; id >= 0; {
		obj := t.AllObjects[id]
		if idx, ok := obj.GlobalVarIndices[name]; ok {
			return idx, true
		}
		if !obj.HasParent {
			break
		}
		id = obj.Parent
	}
	return 0, false
}

// AllVariablesFor returns every variable name visible on obj, including
// inherited ones, with the most-derived definition winning.
func (t *ObjectTree) AllVariablesFor(objID int) map[string]Variable {
	out := make(map[string]Variable)
	chain := t.ancestryChainRootFirst(objID)
	for _, id := range chain {
		obj := t.AllObjects[id]
		for name, v := range obj.InstanceVars {
			out[name] = v
		}
		for name, v := range obj.VariableOverrides {
			out[name] = v
		}
	}
	return out
}

func (t *ObjectTree) ancestryChainRootFirst(objID int) []int {
	var chain []int
	for id := objID; ; {
		chain = append(chain, id)
		obj := t.AllObjects[id]
		if !obj.HasParent {
			break
		}
		id = obj.Parent
	}
	// reverse: root first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsDescendantOf reports whether obj's type inherits from (or is)
// ancestorID, walking the parent chain.
func (t *ObjectTree) IsDescendantOf(objID, ancestorID int) bool {
	for id := objID; ; {
		if id == ancestorID {
			return true
		}
		obj := t.AllObjects[id]
		if !obj.HasParent {
			return false
		}
		id = obj.Parent
	}
}

// AddResource records a resource (file) path referenced by the compiled
// unit, e.g. from a resource literal.
func (t *ObjectTree) AddResource(p string) {
	t.Resources[p] = true
}
