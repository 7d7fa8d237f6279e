package compiler

import (
	"strconv"

	"dmcompiler/ast"
	"dmcompiler/bytecode"
	"dmcompiler/diagnostics"
	"dmcompiler/objtree"
	"dmcompiler/reference"
)

// compileStmtList compiles each statement of body in order.
func (pc *procCompiler) compileStmtList(body []ast.Stmt) {
	for _, s := range body {
		pc.compileStmt(s)
	}
}

// compileStmt lowers one proc-body statement, spec §4.6.
func (pc *procCompiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		pc.compileVarDecl(n)

	case *ast.ExprStmt:
		pc.compileExpr(n.Value)
		pc.emit0(bytecode.Pop, -1)

	case *ast.Return:
		pc.compileOptional(n.Value)
		pc.emit0(bytecode.Return, -1)

	case *ast.If:
		pc.compileIf(n)

	case *ast.While:
		pc.compileWhile(n)

	case *ast.DoWhile:
		pc.compileDoWhile(n)

	case *ast.For:
		pc.compileFor(n)

	case *ast.ForRange:
		pc.compileForRange(n)

	case *ast.ForIn:
		pc.compileForIn(n)

	case *ast.Switch:
		pc.compileSwitch(n)

	case *ast.Break:
		pc.compileBreak(n)

	case *ast.Continue:
		pc.compileContinue(n)

	case *ast.Label:
		pc.compileLabel(n)

	case *ast.Goto:
		pc.compileGoto(n)

	case *ast.Del:
		pc.compileExpr(n.Value)
		pc.emit0(bytecode.DeleteObject, -1)

	case *ast.Spawn:
		pc.compileSpawn(n)

	case *ast.Try:
		pc.compileTry(n)

	case *ast.Throw:
		pc.compileExpr(n.Value)
		pc.emit0(bytecode.Throw, -1)

	case *ast.SetAttribute:
		pc.compileSetAttribute(n)

	default:
		pc.reportf(s.Pos(), diagnostics.InternalError, "stmtcompiler: unhandled statement %T", n)
	}
}

func (pc *procCompiler) compileVarDecl(n *ast.VarDecl) {
	for _, d := range n.Declarators {
		id := pc.proc.NextLocalID()
		pc.proc.Locals[d.Name] = objtree.LocalVariable{
			Name: d.Name, ID: id, TypePath: d.TypePath, HasType: len(d.TypePath.Segments) > 0,
		}
		ref, diag := reference.CreateLocal(id)
		if diag != nil {
			pc.sink.Report(*diag)
		}
		pc.compileOptional(d.Init)
		pc.emitRef(bytecode.Assign, ref, 0)
		pc.emit0(bytecode.Pop, -1)
	}
}

func (pc *procCompiler) compileIf(n *ast.If) {
	pc.compileExpr(n.Cond)
	endLbl := pc.createLabel()

	if len(n.Else) == 0 {
		pc.emitJump(bytecode.JumpIfFalse, endLbl, -1)
		pc.compileStmtList(n.Then)
		pc.markLabel(endLbl)
		return
	}

	elseLbl := pc.createLabel()
	pc.emitJump(bytecode.JumpIfFalse, elseLbl, -1)
	pc.compileStmtList(n.Then)
	// Skip the jump-to-end when the then-branch already returns: it would
	// never be reached.
	if !endsInReturn(n.Then) {
		pc.emitJump(bytecode.Jump, endLbl, 0)
	}
	pc.markLabel(elseLbl)
	pc.compileStmtList(n.Else)
	pc.markLabel(endLbl)
}

func (pc *procCompiler) compileWhile(n *ast.While) {
	start := pc.createLabel()
	end := pc.createLabel()
	pc.markLabel(start)
	pc.compileExpr(n.Cond)
	pc.emitJump(bytecode.JumpIfFalse, end, -1)

	pc.pushLoop(loopFrame{startLabel: start, endLabel: end, continueLabel: start})
	pc.compileStmtList(n.Body)
	pc.popLoop()

	pc.emitJump(bytecode.Jump, start, 0)
	pc.markLabel(end)
}

func (pc *procCompiler) compileDoWhile(n *ast.DoWhile) {
	start := pc.createLabel()
	cont := pc.createLabel()
	end := pc.createLabel()
	pc.markLabel(start)

	pc.pushLoop(loopFrame{startLabel: start, endLabel: end, continueLabel: cont})
	pc.compileStmtList(n.Body)
	pc.popLoop()

	pc.markLabel(cont)
	pc.compileExpr(n.Cond)
	pc.emitJump(bytecode.JumpIfFalse, end, -1)
	pc.emitJump(bytecode.Jump, start, 0)
	pc.markLabel(end)
}

func (pc *procCompiler) compileFor(n *ast.For) {
	if n.Init != nil {
		pc.compileStmt(n.Init)
	}
	start := pc.createLabel()
	post := pc.createLabel()
	end := pc.createLabel()
	pc.markLabel(start)
	if n.Cond != nil {
		pc.compileExpr(n.Cond)
		pc.emitJump(bytecode.JumpIfFalse, end, -1)
	}

	pc.pushLoop(loopFrame{startLabel: start, endLabel: end, continueLabel: post})
	pc.compileStmtList(n.Body)
	pc.popLoop()

	pc.markLabel(post)
	if n.Post != nil {
		pc.compileStmt(n.Post)
	}
	pc.emitJump(bytecode.Jump, start, 0)
	pc.markLabel(end)
}

// compileForRange lowers "for (var/T/x = lo to hi step s) body" to a
// CreateRangeEnumerator/Enumerate pair, per spec §4.6 and the
// CreateListEnumerator-family shape in §6.2.
func (pc *procCompiler) compileForRange(n *ast.ForRange) {
	id := pc.proc.NextLocalID()
	pc.proc.Locals[n.Var.Name] = objtree.LocalVariable{
		Name: n.Var.Name, ID: id, TypePath: n.Var.TypePath, HasType: len(n.Var.TypePath.Segments) > 0,
	}
	ref, diag := reference.CreateLocal(id)
	if diag != nil {
		pc.sink.Report(*diag)
	}

	pc.compileExpr(n.Low)
	pc.compileExpr(n.High)
	pc.compileOptionalStep(n.Step)

	eid := pc.proc.NextEnumeratorID()
	pc.writer.Emit(bytecode.CreateRangeEnumerator)
	pc.writer.AppendInt(int32(eid))
	pc.writer.ResizeStack(-3)

	pc.compileEnumerateLoop(eid, ref, n.Body)
}

func (pc *procCompiler) compileOptionalStep(step ast.Expr) {
	if step == nil {
		pc.emitFloat(1, 1)
		return
	}
	pc.compileExpr(step)
}

// compileForIn lowers "for (var/x in source) body". A bare "lo to hi"
// source reuses the range enumerator; anything else is treated as a list
// expression and lowered through CreateListEnumerator.
func (pc *procCompiler) compileForIn(n *ast.ForIn) {
	var id int
	if n.Var.IsNew {
		id = pc.proc.NextLocalID()
		pc.proc.Locals[n.Var.Name] = objtree.LocalVariable{
			Name: n.Var.Name, ID: id, TypePath: n.Var.TypePath, HasType: n.Var.HasType,
		}
	} else if lv, ok := pc.proc.Locals[n.Var.Name]; ok {
		id = lv.ID
	} else {
		id = pc.proc.NextLocalID()
		pc.proc.Locals[n.Var.Name] = objtree.LocalVariable{Name: n.Var.Name, ID: id}
	}
	ref, diag := reference.CreateLocal(id)
	if diag != nil {
		pc.sink.Report(*diag)
	}

	eid := pc.proc.NextEnumeratorID()
	if rng, ok := n.Source.(*ast.Binary); ok && rng.Op == ast.To {
		pc.compileExpr(rng.Left)
		pc.compileExpr(rng.Right)
		pc.emitFloat(1, 1)
		pc.writer.Emit(bytecode.CreateRangeEnumerator)
		pc.writer.AppendInt(int32(eid))
		pc.writer.ResizeStack(-3)
	} else {
		pc.compileExpr(n.Source)
		pc.writer.Emit(bytecode.CreateListEnumerator)
		pc.writer.AppendInt(int32(eid))
		pc.writer.ResizeStack(-1)
	}

	pc.compileEnumerateLoop(eid, ref, n.Body)
}

func (pc *procCompiler) compileEnumerateLoop(eid int, ref reference.Reference, body []ast.Stmt) {
	start := pc.createLabel()
	end := pc.createLabel()
	pc.markLabel(start)

	pc.writer.Emit(bytecode.Enumerate)
	pc.writer.AppendInt(int32(eid))
	pc.writer.WriteReference(ref)
	pc.writer.AppendLabelPatch(bytecode.Enumerate, end)
	pc.writer.ResizeStack(0)

	pc.pushLoop(loopFrame{startLabel: start, endLabel: end, continueLabel: start})
	pc.compileStmtList(body)
	pc.popLoop()

	pc.emitJump(bytecode.Jump, start, 0)
	pc.markLabel(end)

	pc.writer.Emit(bytecode.DestroyEnumerator)
	pc.writer.AppendInt(int32(eid))
	pc.writer.ResizeStack(0)
}

// compileSwitch lowers "switch" by pushing the subject once and testing it
// against each case value in turn; SwitchCase/SwitchCaseRange consume only
// the value(s) just pushed for the comparison, leaving the subject on the
// stack until the matched (or default) body's leading Pop discards it.
func (pc *procCompiler) compileSwitch(n *ast.Switch) {
	pc.compileExpr(n.Subject)

	bodyLabels := make([]int, len(n.Cases))
	for i, c := range n.Cases {
		bodyLabels[i] = pc.createLabel()
		for _, v := range c.Values {
			if rng, ok := v.(*ast.SwitchCaseRange); ok {
				pc.compileExpr(rng.Low)
				pc.compileExpr(rng.High)
				pc.emitJump(bytecode.SwitchCaseRange, bodyLabels[i], -2)
				continue
			}
			pc.compileExpr(v)
			pc.emitJump(bytecode.SwitchCase, bodyLabels[i], -1)
		}
	}

	defaultLbl := pc.createLabel()
	endLbl := pc.createLabel()
	pc.emitJump(bytecode.Jump, defaultLbl, 0)

	pc.pushLoop(loopFrame{endLabel: endLbl, isSwitch: true})
	for i, c := range n.Cases {
		pc.markLabel(bodyLabels[i])
		pc.emit0(bytecode.Pop, -1)
		pc.compileStmtList(c.Body)
		pc.emitJump(bytecode.Jump, endLbl, 0)
	}
	pc.markLabel(defaultLbl)
	pc.emit0(bytecode.Pop, -1)
	pc.compileStmtList(n.Default)
	pc.popLoop()

	pc.markLabel(endLbl)
}

func (pc *procCompiler) pushLoop(f loopFrame) {
	pc.loopStack = append(pc.loopStack, f)
}

func (pc *procCompiler) popLoop() {
	pc.loopStack = pc.loopStack[:len(pc.loopStack)-1]
}

func (pc *procCompiler) compileBreak(n *ast.Break) {
	if len(pc.loopStack) == 0 {
		pc.reportf(n.Pos(), diagnostics.ParseError, "break used outside a loop or switch")
		return
	}
	top := pc.loopStack[len(pc.loopStack)-1]
	pc.emitJump(bytecode.Jump, top.endLabel, 0)
}

func (pc *procCompiler) compileContinue(n *ast.Continue) {
	for i := len(pc.loopStack) - 1; i >= 0; i-- {
		if pc.loopStack[i].isSwitch {
			continue
		}
		pc.emitJump(bytecode.Jump, pc.loopStack[i].continueLabel, 0)
		return
	}
	pc.reportf(n.Pos(), diagnostics.ParseError, "continue used outside a loop")
}

// getOrCreateNamedLabel returns the writer label bound to a source-level
// "name:" label, minting one on first reference (whether from a Label or a
// forward Goto), per spec §4.6's ForwardReference bookkeeping.
func (pc *procCompiler) getOrCreateNamedLabel(name string) int {
	if pc.namedLabels == nil {
		pc.namedLabels = make(map[string]int)
	}
	if id, ok := pc.namedLabels[name]; ok {
		return id
	}
	id := pc.createLabel()
	pc.namedLabels[name] = id
	return id
}

func (pc *procCompiler) compileLabel(n *ast.Label) {
	id := pc.getOrCreateNamedLabel(n.Name)
	pc.markLabel(id)
	if pc.definedLabels == nil {
		pc.definedLabels = make(map[string]bool)
	}
	pc.definedLabels[n.Name] = true
}

func (pc *procCompiler) compileGoto(n *ast.Goto) {
	id := pc.getOrCreateNamedLabel(n.Name)
	pc.emitJump(bytecode.Jump, id, 0)
	pc.forwardGotos = append(pc.forwardGotos, forwardGoto{name: n.Name, placeholder: id})
}

// finalizeForwardRefs binds any goto target never reached by a Label
// statement to the end of the proc (right before its implicit
// PushNull/Return), reporting a Warning for each — a "goto" to nowhere
// doesn't fail the build, per spec §7's diagnostic-severity rules.
func (pc *procCompiler) finalizeForwardRefs() {
	seen := make(map[string]bool)
	for _, g := range pc.forwardGotos {
		if seen[g.name] || pc.definedLabels[g.name] {
			continue
		}
		seen[g.name] = true
		pc.warnf(ast.Location{}, diagnostics.UndefinedLabel, "goto target %q is never defined", g.name)
		pc.markLabel(g.placeholder)
	}
	pc.forwardGotos = nil
}

// compileSpawn lowers "spawn(delay) body" to a Spawn opcode whose Label
// operand marks where the spawned continuation's bytecode begins; the
// spawned body runs with its own loop context, so the enclosing loop
// stack is saved and cleared for its duration per spec §4.6.
func (pc *procCompiler) compileSpawn(n *ast.Spawn) {
	pc.compileOptional(n.Delay)
	end := pc.createLabel()
	pc.writer.Emit(bytecode.Spawn)
	pc.writer.AppendLabelPatch(bytecode.Spawn, end)
	pc.writer.ResizeStack(-1)

	savedLoops := pc.loopStack
	pc.loopStack = nil
	pc.compileStmtList(n.Body)
	pc.loopStack = savedLoops

	pc.markLabel(end)
}

// compileTry surfaces Try/Throw structurally: TryNoValue carries the label
// of the catch body, EndTry closes the guarded body, and a Jump then skips
// the catch body. A thrown value is not routed into CatchVar — exception
// objects are outside this compiler's scope (spec §1); a named catch
// variable is reported as an UnsupportedFeature warning.
func (pc *procCompiler) compileTry(n *ast.Try) {
	catchLbl := pc.createLabel()
	pc.writer.Emit(bytecode.TryNoValue)
	pc.writer.AppendLabelPatch(bytecode.TryNoValue, catchLbl)
	pc.writer.ResizeStack(0)

	pc.compileStmtList(n.Body)
	pc.emit0(bytecode.EndTry, 0)

	endLbl := pc.createLabel()
	pc.emitJump(bytecode.Jump, endLbl, 0)
	pc.markLabel(catchLbl)
	if n.CatchVar != "" {
		pc.warnf(n.Pos(), diagnostics.UnsupportedFeature,
			"try/catch exception binding %q is not modeled; the thrown value is not assigned to it", n.CatchVar)
	}
	pc.compileStmtList(n.Catch)
	pc.markLabel(endLbl)
}

func (pc *procCompiler) compileSetAttribute(n *ast.SetAttribute) {
	switch n.Name {
	case "src":
		pc.classifyVerbSrc(n)
	case "category", "desc", "name":
		pc.recordVerbMetadata(n)
	default:
		switch n.Value.(type) {
		case *ast.ConstantInt, *ast.ConstantFloat, *ast.ConstantString, *ast.ConstantNull:
		default:
			pc.warnf(n.Pos(), diagnostics.UnsupportedFeature,
				"set %s: value is not a compile-time constant and is ignored", n.Name)
			return
		}
		val := pc.constAttrValue(n.Value)
		pc.proc.Attrs[n.Name] = val
	}
}

// constAttrValue converts a literal "set x = expr" value to the AttrValue
// the object tree already uses for proc attributes, since "set" clauses are
// evaluated at compile time, not at proc-execution time. A non-literal
// value yields an empty AttrValue; compileSetAttribute drops such values
// with a warning before calling this.
func (pc *procCompiler) constAttrValue(e ast.Expr) objtree.AttrValue {
	switch v := e.(type) {
	case *ast.ConstantInt:
		return objtree.AttrValue{Value: strconv.FormatInt(v.Value, 10), Bool: v.Value != 0, IsBool: true}
	case *ast.ConstantFloat:
		return objtree.AttrValue{Value: strconv.FormatFloat(v.Value, 'g', -1, 64), Bool: v.Value != 0, IsBool: true}
	case *ast.ConstantString:
		return objtree.AttrValue{Value: v.Value}
	case *ast.ConstantNull:
		return objtree.AttrValue{}
	default:
		return objtree.AttrValue{}
	}
}

func (pc *procCompiler) classifyVerbSrc(n *ast.SetAttribute) {
	pc.proc.HasVerbSrc = true
	ident, ok := n.Value.(*ast.Identifier)
	if call, isCall := n.Value.(*ast.Call); isCall {
		if callee, isIdent := call.Callee.(*ast.Identifier); isIdent && (callee.Name == "view" || callee.Name == "oview") {
			ident, ok = &ast.Identifier{Name: callee.Name + "()"}, true
		}
	}
	if !ok {
		pc.proc.VerbSrc = objtree.VerbSrcNone
		return
	}
	switch ident.Name {
	case "usr":
		pc.proc.VerbSrc = objtree.VerbSrcUsr
	case "world":
		pc.proc.VerbSrc = objtree.VerbSrcWorld
	case "contents":
		pc.proc.VerbSrc = objtree.VerbSrcObjContents
	case "group":
		pc.proc.VerbSrc = objtree.VerbSrcMobGroup
	case "view()":
		pc.proc.VerbSrc = objtree.VerbSrcView
	case "oview()":
		pc.proc.VerbSrc = objtree.VerbSrcOView
	default:
		pc.proc.VerbSrc = objtree.VerbSrcNone
	}
}

func (pc *procCompiler) recordVerbMetadata(n *ast.SetAttribute) {
	s, ok := n.Value.(*ast.ConstantString)
	if !ok {
		return
	}
	if pc.proc.VerbMetadata == nil {
		pc.proc.VerbMetadata = &objtree.VerbMetadata{}
	}
	switch n.Name {
	case "category":
		pc.proc.VerbMetadata.Category = s.Value
	case "desc":
		pc.proc.VerbMetadata.Desc = s.Value
	case "name":
		pc.proc.VerbMetadata.Name = s.Value
	}
}
