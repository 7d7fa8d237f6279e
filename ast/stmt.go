package ast

import "dmcompiler/path"

// Declarator is one name introduced by a "var" statement, after stripping
// modifiers from its declarator path per spec §3.
type Declarator struct {
	Name     string
	TypePath path.Path
	Mods     path.Modifiers
	IsList   bool // declarator used "[]" suffix syntax, e.g. "var/list/x[]"
	Init     Expr // nil if no initializer
}

// VarDecl is a proc-body "var" statement; it may introduce several
// declarators at once ("var/x = 1, y = 2").
type VarDecl struct {
	base
	Declarators []Declarator
}

func (*VarDecl) stmtNode() {}

// ExprStmt is an expression evaluated for its side effect; the statement
// compiler pops the resulting value.
type ExprStmt struct {
	base
	Value Expr
}

func (*ExprStmt) stmtNode() {}

// Return is "return" or "return expr".
type Return struct {
	base
	Value Expr // nil means PushNull
}

func (*Return) stmtNode() {}

// If is "if (cond) then else else".
type If struct {
	base
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if no else clause
}

func (*If) stmtNode() {}

// While is "while (cond) body".
type While struct {
	base
	Cond Expr
	Body []Stmt
}

func (*While) stmtNode() {}

// DoWhile is "do body while (cond)".
type DoWhile struct {
	base
	Body []Stmt
	Cond Expr
}

func (*DoWhile) stmtNode() {}

// For is the C-style "for (init; cond; post) body". Init, Cond, and Post
// may each be nil when the clause is omitted.
type For struct {
	base
	Init Stmt
	Cond Expr
	Post Stmt
	Body []Stmt
}

func (*For) stmtNode() {}

// ForRange is "for (var/T/x = lo to hi step s) body".
type ForRange struct {
	base
	Var  Declarator
	Low  Expr
	High Expr
	Step Expr // nil means the default step of 1
	Body []Stmt
}

func (*ForRange) stmtNode() {}

// ForInVarDecl is the parsed loop-variable declaration of a for-in
// statement, which may or may not declare a fresh typed local.
type ForInVarDecl struct {
	Name     string
	TypePath path.Path
	HasType  bool
	IsNew    bool // true when "var" introduces a fresh local, false for an existing lvalue target
}

// ForIn is "for (var/x in source) body", iterating a list, a range
// ("lo to hi"), or any enumerable expression.
type ForIn struct {
	base
	Var    ForInVarDecl
	Source Expr
	Body   []Stmt
}

func (*ForIn) stmtNode() {}

// SwitchCase is one non-default case arm; each Values entry is either a
// plain Expr or a *SwitchCaseRange.
type SwitchCase struct {
	Values []Expr
	Body   []Stmt
}

// Switch is "switch (subject) { case ...: ... default: ... }".
type Switch struct {
	base
	Subject Expr
	Cases   []SwitchCase
	Default []Stmt // nil if no default clause
}

func (*Switch) stmtNode() {}

// Break is "break", targeting the innermost loop or switch.
type Break struct{ base }

func (*Break) stmtNode() {}

// Continue is "continue", targeting the innermost non-switch loop.
type Continue struct{ base }

func (*Continue) stmtNode() {}

// Label is "name:", a jump target for goto.
type Label struct {
	base
	Name string
}

func (*Label) stmtNode() {}

// Goto is "goto name".
type Goto struct {
	base
	Name string
}

func (*Goto) stmtNode() {}

// Del is "del expr".
type Del struct {
	base
	Value Expr
}

func (*Del) stmtNode() {}

// Spawn is "spawn(delay) body"; Delay is nil when omitted (delay 0).
type Spawn struct {
	base
	Delay Expr
	Body  []Stmt
}

func (*Spawn) stmtNode() {}

// Try is "try body catch (var) handler". CatchVar is empty when the catch
// clause doesn't bind a name.
type Try struct {
	base
	Body     []Stmt
	CatchVar string
	Catch    []Stmt
}

func (*Try) stmtNode() {}

// Throw is "throw expr".
type Throw struct {
	base
	Value Expr
}

func (*Throw) stmtNode() {}

// SetAttribute is "set name = expr" inside a proc body, used for verb
// metadata (src, category, desc, ...).
type SetAttribute struct {
	base
	Name  string
	Value Expr
}

func (*SetAttribute) stmtNode() {}
