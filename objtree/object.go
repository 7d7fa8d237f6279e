package objtree

import (
	"dmcompiler/ast"
	"dmcompiler/path"
	"dmcompiler/valuetype"
)

// Constant is a compile-time value attached to a LocalConstVariable or
// used while serializing initializers, per spec §3.
type Constant struct {
	IsNull  bool
	Int     int64
	HasInt  bool
	Float   float64
	HasFlt  bool
	String  string
	HasStr  bool
	Path    path.Path
	HasPath bool
}

// LocalVariable is a proc-local (including parameters), minted on
// registration with a dense id.
type LocalVariable struct {
	Name       string
	ID         int
	IsParam    bool
	TypePath   path.Path
	HasType    bool
	ValueType  valuetype.ValueType
	HasValue   valuetype.ComplexValueType
}

// LocalConstVariable extends LocalVariable with a known compile-time
// value.
type LocalConstVariable struct {
	LocalVariable
	Value Constant
}

// Variable is an object-scope (instance or global) variable's metadata.
type Variable struct {
	Name      string
	TypePath  path.Path
	HasType   bool
	ValueType valuetype.ComplexValueType
	Const     bool
	Final     bool
	Tmp       bool
	Init      ast.Expr // nil if no initializer
}

// ProcAttr is a bit in DMProc.Attributes, per spec §3.
type ProcAttr uint16

const (
	AttrHidden ProcAttr = 1 << iota
	AttrBackground
	AttrWaitFor
	AttrPopup
	AttrInstant
	AttrOverride
	AttrVariadic
)

// VerbSrc classifies the "set src = ..." verb-source expression form, per
// original_source's verb metadata and spec's SUPPLEMENTED FEATURES.
type VerbSrc int

const (
	VerbSrcNone VerbSrc = iota
	VerbSrcUsr          // set src = usr
	VerbSrcWorld        // set src = world
	VerbSrcMob          // set src = mob in ...
	VerbSrcObjContents  // set src = usr.contents / contents
	VerbSrcMobGroup     // set src = usr.group
	VerbSrcView         // set src = view(...)
	VerbSrcOView        // set src = oview(...)
)

// VerbMetadata holds a verb's command-bar presentation attributes, parsed
// from "set" statements in its body.
type VerbMetadata struct {
	Name     string
	Category string
	Desc     string
	Src      VerbSrc
	SrcRange int // for View/OView, the parsed numeric range, else 0
}

// DMProc is one compiled procedure or verb, per spec §3.
type DMProc struct {
	ID                    int
	Name                  string
	Owner                 int // index into ObjectTree.AllObjects
	IsVerb                bool
	IsFinal               bool
	Attributes            ProcAttr
	Parameters            []string
	Locals                map[string]LocalVariable
	GlobalRefs            map[string]int
	Bytecode              []byte
	MaxStack              int
	ASTBody               []ast.Stmt
	ASTParams             []ast.Param
	Location              ast.Location
	UnsupportedReason     string
	HasVerbSrc            bool
	VerbSrc               VerbSrc
	VerbMetadata          *VerbMetadata
	Attrs                 map[string]AttrValue
	enumeratorCounter     int
	nextLocalID           int
}

// AttrValue is a constant "set name = value" proc attribute recorded for
// anything other than src, category, desc and name, per spec §4.6.
type AttrValue struct {
	Value string
	Bool  bool
	IsBool bool
}

// HasAttr reports whether flag is set.
func (p *DMProc) HasAttr(flag ProcAttr) bool {
	return p.Attributes&flag != 0
}

// NextLocalID allocates and returns a fresh dense local-variable id.
func (p *DMProc) NextLocalID() int {
	id := p.nextLocalID
	p.nextLocalID++
	return id
}

// NextEnumeratorID allocates and returns a fresh per-proc enumerator id,
// used by for-in loops (spec §4.6).
func (p *DMProc) NextEnumeratorID() int {
	id := p.enumeratorCounter
	p.enumeratorCounter++
	return id
}

// DMObject is one type definition in the object tree, per spec §3.
type DMObject struct {
	ID                   int
	Path                 path.Path
	Parent               int // -1 sentinel for the root "/"
	HasParent            bool
	Procs                map[string][]int
	InstanceVars         map[string]Variable
	GlobalVarIndices     map[string]int
	VariableOverrides    map[string]Variable
	TmpVars              map[string]bool
	ConstVars             map[string]bool
	InitializationProcID int
}

// NoParent and NoInitProc are the sentinel values for DMObject.Parent and
// InitializationProcID respectively.
const (
	NoParent   = -1
	NoInitProc = -1
)

func newObject(id int, p path.Path) *DMObject {
	return &DMObject{
		ID:                   id,
		Path:                 p,
		Parent:               NoParent,
		Procs:                make(map[string][]int),
		InstanceVars:         make(map[string]Variable),
		GlobalVarIndices:     make(map[string]int),
		VariableOverrides:    make(map[string]Variable),
		TmpVars:              make(map[string]bool),
		ConstVars:            make(map[string]bool),
		InitializationProcID: NoInitProc,
	}
}
