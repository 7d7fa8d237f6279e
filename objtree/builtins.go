package objtree

import (
	"sync"

	"dmcompiler/path"
	"dmcompiler/valuetype"
)

// BuiltinProcSig is a global or type-scoped built-in proc's signature, per
// spec §4.3.
type BuiltinProcSig struct {
	Parameters []string
	ReturnType valuetype.ValueType
	Variadic   bool
}

// BuiltinRegistry is the process-wide, read-only catalog of global
// built-in procs, type-scoped built-in procs, built-in instance/class
// variables, context variables, and the built-in type hierarchy, per spec
// §4.3. It is initialized once and never mutated afterward, so concurrent
// reads from multiple ObjectTrees are safe (spec §5).
type BuiltinRegistry struct {
	globalProcs map[string]BuiltinProcSig
	typeProcs   map[string]map[string]BuiltinProcSig
	typeVars    map[string]map[string]valuetype.ValueType
	contextVars map[string]bool
	parents     map[string]string
}

var (
	registryOnce sync.Once
	registry     *BuiltinRegistry
)

// Builtins returns the singleton BuiltinRegistry, initializing it on first
// use.
func Builtins() *BuiltinRegistry {
	registryOnce.Do(func() {
		registry = newBuiltinRegistry()
	})
	return registry
}

func newBuiltinRegistry() *BuiltinRegistry {
	r := &BuiltinRegistry{
		globalProcs: map[string]BuiltinProcSig{
			"abs":          {Parameters: []string{"n"}, ReturnType: valuetype.Num},
			"sin":          {Parameters: []string{"x"}, ReturnType: valuetype.Num},
			"cos":          {Parameters: []string{"x"}, ReturnType: valuetype.Num},
			"sqrt":         {Parameters: []string{"x"}, ReturnType: valuetype.Num},
			"rand":         {Parameters: []string{"low", "high"}, ReturnType: valuetype.Num, Variadic: true},
			"pick":         {Parameters: []string{"...items"}, ReturnType: valuetype.Anything, Variadic: true},
			"locate":       {Parameters: []string{"x", "y", "z"}, ReturnType: valuetype.Obj | valuetype.Mob | valuetype.Turf | valuetype.Area, Variadic: true},
			"input":        {Parameters: []string{"message", "title", "default"}, ReturnType: valuetype.Anything, Variadic: true},
			"istype":       {Parameters: []string{"val", "type"}, ReturnType: valuetype.Num, Variadic: true},
			"length":       {Parameters: []string{"e"}, ReturnType: valuetype.Num},
			"rgb":          {Parameters: []string{"r", "g", "b"}, ReturnType: valuetype.Text, Variadic: true},
			"prob":         {Parameters: []string{"percent"}, ReturnType: valuetype.Num},
			"get_dir":      {Parameters: []string{"loc1", "loc2"}, ReturnType: valuetype.Num},
			"get_step":     {Parameters: []string{"loc", "dir"}, ReturnType: valuetype.Turf | valuetype.Obj | valuetype.Mob | valuetype.Area},
			"sleep":        {Parameters: []string{"delay"}, ReturnType: valuetype.Anything},
			"spawn":        {Parameters: []string{"delay"}, ReturnType: valuetype.Anything},
			"json_encode":  {Parameters: []string{"value"}, ReturnType: valuetype.Text},
			"json_decode":  {Parameters: []string{"text"}, ReturnType: valuetype.Anything},
		},
		typeProcs: map[string]map[string]BuiltinProcSig{
			"/atom": {
				"Del":  {Parameters: nil, ReturnType: valuetype.Anything},
				"Bump": {Parameters: []string{"obstacle"}, ReturnType: valuetype.Anything},
			},
			"/mob": {
				"Login":  {Parameters: nil, ReturnType: valuetype.Anything},
				"Logout": {Parameters: nil, ReturnType: valuetype.Anything},
			},
			"/datum": {
				"New":  {Parameters: []string{"..."}, ReturnType: valuetype.Anything, Variadic: true},
				"Del":  {Parameters: nil, ReturnType: valuetype.Anything},
			},
		},
		typeVars: map[string]map[string]valuetype.ValueType{
			"/atom": {"x": valuetype.Num, "y": valuetype.Num, "z": valuetype.Num, "icon": valuetype.Icon, "name": valuetype.Text},
			"/world": {"tick_lag": valuetype.Num, "name": valuetype.Text, "maxx": valuetype.Num, "maxy": valuetype.Num},
			"/list": {"len": valuetype.Num},
			"/mob":  {"key": valuetype.Text, "client": valuetype.Obj},
		},
		contextVars: map[string]bool{
			"src": true, "usr": true, "args": true, "global": true,
			"world": true, ".": true, "..": true,
		},
		parents: map[string]string{
			"/atom": "/datum", "/obj": "/atom", "/mob": "/atom",
			"/turf": "/atom", "/area": "/atom", "/client": "/datum",
			"/list": "/datum", "/savefile": "/datum", "/sound": "/datum",
			"/image": "/datum", "/icon": "/datum", "/matrix": "/datum",
			"/regex": "/datum", "/world": "/datum",
		},
	}
	return r
}

// GlobalProc looks up a global built-in proc by name.
func (r *BuiltinRegistry) GlobalProc(name string) (BuiltinProcSig, bool) {
	sig, ok := r.globalProcs[name]
	return sig, ok
}

// TypeProc looks up a built-in proc by name on typePath, walking the
// built-in type hierarchy upward until a hit or the root.
func (r *BuiltinRegistry) TypeProc(typePath path.Path, name string) (BuiltinProcSig, bool) {
	for key := typePath.String(); key != ""; key = r.parents[key] {
		if procs, ok := r.typeProcs[key]; ok {
			if sig, ok := procs[name]; ok {
				return sig, true
			}
		}
		if _, hasParent := r.parents[key]; !hasParent {
			break
		}
	}
	return BuiltinProcSig{}, false
}

// TypeVar looks up a built-in instance/class variable by name on typePath,
// walking the built-in type hierarchy. A path the hierarchy does not list
// (e.g. /obj/item) continues the walk from its path parent (/obj).
func (r *BuiltinRegistry) TypeVar(typePath path.Path, name string) (valuetype.ValueType, bool) {
	for p := typePath; ; {
		key := p.String()
		if vars, ok := r.typeVars[key]; ok {
			if vt, ok := vars[name]; ok {
				return vt, true
			}
		}
		if parent, hasParent := r.parents[key]; hasParent {
			p = path.Parse(parent)
		} else if len(p.Segments) > 0 {
			p = p.Parent()
		} else {
			break
		}
	}
	return valuetype.Anything, false
}

// IsContextVar reports whether name is one of the built-in implicit
// context variables (src, usr, args, global, world, ., ..).
func (r *BuiltinRegistry) IsContextVar(name string) bool {
	return r.contextVars[name]
}
