// Package ast defines the DM abstract syntax tree described in spec §3: a
// closed sum of expression, proc-statement, object-statement, and file
// nodes. Per the design notes favoring tagged sum types over a class
// hierarchy with visitor, every node is a plain struct implementing a
// marker interface, and dispatch elsewhere in the compiler uses Go type
// switches rather than an Accept(visitor) double-dispatch.
package ast

// Location is the source position attached to every node, per spec §3.
type Location struct {
	File            string
	Line            int32
	Column          int
	InStandardLib   bool
}

// Node is implemented by every AST node, exposing only its location: the
// common ground between expressions, statements, and object statements.
type Node interface {
	Pos() Location
}

// Expr is any expression node. exprNode is unexported so only this package
// can add arms to the sum.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any proc-body statement node.
type Stmt interface {
	Node
	stmtNode()
}

// ObjectStmt is any object-scope statement node (definitions nested inside
// a path block).
type ObjectStmt interface {
	Node
	objectStmtNode()
}

// base embeds a Location and implements Pos(); every concrete node embeds
// it so only the marker method need be added.
type base struct {
	Loc Location
}

func (b base) Pos() Location { return b.Loc }
