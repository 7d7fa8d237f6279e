package ast

import "dmcompiler/path"

// ObjectDef is a path followed by an indented block: "/obj/item/weapon\n\t...".
// Body holds the recursively parsed inner object statements in the path's
// scope.
type ObjectDef struct {
	base
	Path path.Path
	Body []ObjectStmt
}

func (*ObjectDef) objectStmtNode() {}

// VarDef is an object-scope "var" definition, e.g. "var/health = 100"
// inside an object block.
type VarDef struct {
	base
	Name     string
	TypePath path.Path
	Mods     path.Modifiers
	IsList   bool
	Init     Expr // nil if no initializer
}

func (*VarDef) objectStmtNode() {}

// VarOverride is an assignment at object scope to a variable inherited from
// a parent type, e.g. "health = 50" with no "var" keyword.
type VarOverride struct {
	base
	Name  string
	Value Expr
}

func (*VarOverride) objectStmtNode() {}

// Param is one proc/verb parameter.
type Param struct {
	Name      string
	TypePath  path.Path
	HasType   bool
	Default   Expr // nil if no default
	TypeFlags uint32
}

// ProcDef is a "proc/Name(params) body" or "verb/Name(params) body"
// definition at object scope.
type ProcDef struct {
	base
	Name     string
	IsVerb   bool
	IsFinal  bool
	Override bool // Name was already declared on an ancestor
	Params   []Param
	Body     []Stmt
}

func (*ProcDef) objectStmtNode() {}

// File is the root node: the ordered list of top-level object statements
// parsed from one source file.
type File struct {
	base
	Objects []ObjectStmt
}
