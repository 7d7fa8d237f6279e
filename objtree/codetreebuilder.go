package objtree

import (
	"github.com/sirupsen/logrus"

	"dmcompiler/ast"
	"dmcompiler/diagnostics"
	"dmcompiler/path"
)

// CodeTreeBuilder implements phase P2 of the pipeline (spec §2/§4.3): it
// walks a parsed *ast.File and materializes the ObjectTree's types,
// instance/global variables, and proc shells, borrowing each proc's AST
// body back for the statement compiler to walk later (spec §3's arena-
// ownership note: the File must outlive the ObjectTree).
//
// Grounded on the teacher's own "define then resolve" two-pass shape
// (nilan's compiler populates a symbol table before compiling bodies), but
// DM's nested object/var/proc grammar requires the recursive per-path walk
// this type implements; nothing of nilan's flat global/local scope model
// applies directly.
type CodeTreeBuilder struct {
	tree *ObjectTree
	sink *diagnostics.Sink
	log  logrus.FieldLogger
}

// NewCodeTreeBuilder returns a builder that populates tree and reports
// problems to sink. A nil logger defaults to logrus's standard logger.
func NewCodeTreeBuilder(tree *ObjectTree, sink *diagnostics.Sink, log logrus.FieldLogger) *CodeTreeBuilder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CodeTreeBuilder{tree: tree, sink: sink, log: log}
}

// Build walks file's top-level object statements against the root object
// and returns the tree for chaining.
func (b *CodeTreeBuilder) Build(file *ast.File) *ObjectTree {
	rootID := b.tree.GetOrCreate(path.Root)
	for _, stmt := range file.Objects {
		b.visitObjectStmt(stmt, rootID)
	}
	return b.tree
}

func (b *CodeTreeBuilder) visitObjectStmt(stmt ast.ObjectStmt, ownerID int) {
	switch n := stmt.(type) {
	case *ast.ObjectDef:
		childID := b.tree.GetOrCreate(n.Path)
		b.log.WithField("path", n.Path.String()).Debug("materialized object")
		for _, inner := range n.Body {
			b.visitObjectStmt(inner, childID)
		}

	case *ast.VarDef:
		b.defineVariable(n, ownerID)

	case *ast.VarOverride:
		b.overrideVariable(n, ownerID)

	case *ast.ProcDef:
		b.defineProc(n, ownerID)

	default:
		b.reportf(stmt.Pos(), diagnostics.InternalError, "codetreebuilder: unhandled object statement %T", n)
	}
}

func (b *CodeTreeBuilder) defineVariable(n *ast.VarDef, ownerID int) {
	typePath := n.TypePath
	if n.IsList {
		typePath = path.List.Combine(typePath)
	}
	v := Variable{
		Name:     n.Name,
		TypePath: typePath,
		HasType:  len(typePath.Segments) > 0,
		Const:    n.Mods.Const,
		Final:    n.Mods.Final,
		Tmp:      n.Mods.Tmp,
		Init:     n.Init,
	}
	b.recordResource(n.Init)

	owner := b.tree.Object(ownerID)
	if n.Mods.Global || n.Mods.Static {
		idx := b.tree.CreateGlobal(v)
		owner.GlobalVarIndices[n.Name] = idx
		return
	}
	owner.InstanceVars[n.Name] = v
	if n.Mods.Const {
		owner.ConstVars[n.Name] = true
	}
	if n.Mods.Tmp {
		owner.TmpVars[n.Name] = true
	}
}

func (b *CodeTreeBuilder) overrideVariable(n *ast.VarOverride, ownerID int) {
	b.recordResource(n.Value)
	v := Variable{Name: n.Name, Init: n.Value}
	if inherited, ok := b.tree.GetVariable(ownerID, n.Name); ok {
		v.TypePath = inherited.TypePath
		v.HasType = inherited.HasType
		v.ValueType = inherited.ValueType
	} else {
		b.reportf(n.Pos(), diagnostics.UnknownVariable,
			"override of undeclared variable %q", n.Name)
	}
	owner := b.tree.Object(ownerID)
	owner.VariableOverrides[n.Name] = v
}

func (b *CodeTreeBuilder) defineProc(n *ast.ProcDef, ownerID int) {
	proc := b.tree.NewProc(ownerID, n.Name)
	proc.IsVerb = n.IsVerb
	proc.IsFinal = n.IsFinal
	proc.ASTBody = n.Body
	proc.ASTParams = n.Params
	proc.Location = n.Loc

	if parent := b.tree.Object(ownerID); parent.HasParent {
		if _, ok := b.tree.GetProc(parent.Parent, n.Name); ok {
			proc.Attributes |= AttrOverride
		}
	}

	for _, param := range n.Params {
		id := proc.NextLocalID()
		lv := LocalVariable{Name: param.Name, ID: id, IsParam: true, TypePath: param.TypePath, HasType: param.HasType}
		proc.Locals[param.Name] = lv
		proc.Parameters = append(proc.Parameters, param.Name)
		b.recordResource(param.Default)
	}

	if ownerID == b.tree.rootID() {
		b.tree.GlobalProcs[n.Name] = proc.ID
	}

	b.log.WithField("proc", n.Name).Debug("created proc shell")
}

// recordResource adds e's resource literal to the tree's resource set, if
// e is (or trivially reduces to) a constant resource literal. P2 only
// scans the surface form of var initializers and parameter defaults;
// resources appearing inside proc-body expressions are recorded by the
// expression compiler as it lowers them (P4a).
func (b *CodeTreeBuilder) recordResource(e ast.Expr) {
	if res, ok := e.(*ast.ConstantResource); ok {
		b.tree.AddResource(res.Value)
	}
}

func (b *CodeTreeBuilder) reportf(loc ast.Location, kind diagnostics.Kind, format string, args ...any) {
	if b.sink == nil {
		return
	}
	dloc := diagnostics.Location{File: loc.File, Line: loc.Line, Column: loc.Column}
	b.sink.Report(diagnostics.Newf(kind, dloc, format, args...))
}
