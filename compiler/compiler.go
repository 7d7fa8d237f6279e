// Package compiler implements phases P4a and P4b of the pipeline (spec
// §4.5/§4.6): lowering the AST bodies the CodeTreeBuilder borrowed back onto
// each DMProc into bytecode, via an ExpressionCompiler (exprcompiler.go) and
// a StatementCompiler (stmtcompiler.go) sharing one procCompiler per proc.
//
// Grounded on the teacher's ASTCompiler (nilan's compiler/ast_compiler.go):
// the same "one compiler value per compilation, walk the tree, emit into a
// byte buffer" shape, generalized from nilan's flat expression-statement
// grammar to DM's object-scoped procs, lvalue reference model, and label-
// based control flow.
package compiler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"dmcompiler/ast"
	"dmcompiler/bytecode"
	"dmcompiler/compileopts"
	"dmcompiler/diagnostics"
	"dmcompiler/objtree"
	"dmcompiler/reference"
)

// Compiler drives bytecode lowering for every proc in an ObjectTree.
type Compiler struct {
	tree *objtree.ObjectTree
	sink *diagnostics.Sink
	log  logrus.FieldLogger
	opts compileopts.Options
}

// New returns a Compiler that lowers procs in tree, reporting problems to
// sink. A nil logger defaults to logrus's standard logger.
func New(tree *objtree.ObjectTree, sink *diagnostics.Sink, log logrus.FieldLogger, opts compileopts.Options) *Compiler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Compiler{tree: tree, sink: sink, log: log, opts: opts.WithDefaults()}
}

// CompileAll lowers every proc's borrowed AST body to bytecode, writing
// Bytecode/MaxStack back onto the owning DMProc. Returns false if the sink
// recorded any Error-severity diagnostic during compilation, per spec §7's
// "a failed compile... the whole build is failed" rule.
func (c *Compiler) CompileAll() bool {
	for _, proc := range c.tree.AllProcs {
		c.compileProc(proc)
	}
	return !c.sink.HasErrors()
}

func (c *Compiler) compileProc(proc *objtree.DMProc) {
	pc := &procCompiler{
		tree:   c.tree,
		proc:   proc,
		owner:  c.tree.Object(proc.Owner),
		writer: bytecode.NewWriter(c.tree.Strings, c.sink, c.log),
		sink:   c.sink,
		log:    c.log.WithField("proc", proc.Name),
		opts:   c.opts,
	}

	for _, stmt := range proc.ASTBody {
		pc.compileStmt(stmt)
	}
	// Every proc falls off the end with an implicit "return ." per DM
	// semantics; Self starts out null so this is a bare PushNull/Return.
	// Skip it when the body's last statement already returns, so a
	// "return <expr>" at the end of a proc isn't followed by dead bytecode.
	if !endsInReturn(proc.ASTBody) {
		pc.emit0(bytecode.PushNull, 1)
		pc.emit0(bytecode.Return, -1)
	}

	pc.finalizeForwardRefs()
	if err := pc.writer.Finalize(); err != nil {
		pc.log.WithError(err).Warn("proc finalize failed")
		return
	}

	proc.Bytecode = pc.writer.Bytes()
	proc.MaxStack = pc.writer.MaxStack()
}

// endsInReturn reports whether body's last statement is a Return, so the
// implicit fallthrough trailer compileProc appends can be skipped.
func endsInReturn(body []ast.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*ast.Return)
	return ok
}

// loopFrame is one entry of the StatementCompiler's LoopStack, per spec
// §4.6.
type loopFrame struct {
	startLabel    int
	endLabel      int
	continueLabel int
	isSwitch      bool
}

// forwardGoto records a "goto name" emitted before its label was seen, per
// spec §4.6's ForwardReference bookkeeping.
type forwardGoto struct {
	name        string
	placeholder int
}

// procCompiler lowers one proc's AST body into its writer. It owns the
// loop stack and named-label bookkeeping the statement compiler needs;
// the expression compiler (exprcompiler.go) shares it to resolve
// identifiers and lvalues against the proc's locals and the owning
// object.
type procCompiler struct {
	tree  *objtree.ObjectTree
	proc  *objtree.DMProc
	owner *objtree.DMObject

	writer *bytecode.Writer
	sink   *diagnostics.Sink
	log    logrus.FieldLogger
	opts   compileopts.Options

	loopStack     []loopFrame
	namedLabels   map[string]int
	definedLabels map[string]bool
	forwardGotos  []forwardGoto
	exprDepth     int
}

func (pc *procCompiler) loc(l ast.Location) diagnostics.Location {
	return diagnostics.Location{File: l.File, Line: l.Line, Column: l.Column}
}

func (pc *procCompiler) reportf(l ast.Location, kind diagnostics.Kind, format string, args ...any) {
	pc.sink.Report(diagnostics.Newf(kind, pc.loc(l), format, args...))
}

func (pc *procCompiler) warnf(l ast.Location, kind diagnostics.Kind, format string, args ...any) {
	pc.sink.Report(diagnostics.Warn(kind, pc.loc(l), fmt.Sprintf(format, args...)))
}

// --- thin emit wrappers that pair an opcode write with its stack-depth
// effect, per the "leaves exactly one value" accounting this package
// maintains independently of bytecode.Metadata (documentation-only, per
// its own doc comment). ---

func (pc *procCompiler) emit0(op bytecode.Opcode, delta int) {
	pc.writer.Emit(op)
	pc.writer.ResizeStack(delta)
}

func (pc *procCompiler) emitString(op bytecode.Opcode, s string, delta int) {
	pc.writer.EmitString(op, s)
	pc.writer.ResizeStack(delta)
}

func (pc *procCompiler) emitFloat(v float64, delta int) {
	pc.writer.EmitFloat(bytecode.PushFloat, float32(v))
	pc.writer.ResizeStack(delta)
}

func (pc *procCompiler) emitRef(op bytecode.Opcode, ref reference.Reference, delta int) {
	pc.writer.Emit(op)
	pc.writer.WriteReference(ref)
	pc.writer.ResizeStack(delta)
}

func (pc *procCompiler) createLabel() int {
	return pc.writer.CreateLabel()
}

func (pc *procCompiler) markLabel(id int) {
	pc.writer.MarkLabel(id)
}

func (pc *procCompiler) emitJump(op bytecode.Opcode, label int, delta int) {
	pc.writer.EmitJump(op, label)
	pc.writer.ResizeStack(delta)
}
