package compiler

import (
	"strings"

	"dmcompiler/ast"
	"dmcompiler/bytecode"
	"dmcompiler/diagnostics"
	"dmcompiler/objtree"
	"dmcompiler/path"
	"dmcompiler/reference"
)

// compileExpr lowers e so that exactly one value is left on the operand
// stack, per spec §4.5. A failure (unresolved path, unknown identifier,
// non-assignable lvalue) reports a diagnostic and still pushes a
// placeholder value, so a caller composing several expressions never has
// to special-case a "nothing happened" outcome.
func (pc *procCompiler) compileExpr(e ast.Expr) {
	limit := pc.opts.MaxExprDepth
	if limit > 0 {
		pc.exprDepth++
		defer func() { pc.exprDepth-- }()
		if pc.exprDepth > limit {
			pc.reportf(e.Pos(), diagnostics.MaxDepthExceeded,
				"expression nesting exceeds the configured depth of %d", limit)
			pc.emit0(bytecode.PushNull, 1)
			return
		}
	}
	pc.compileExprNode(e)
}

func (pc *procCompiler) compileExprNode(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Invalid:
		pc.reportf(n.Pos(), diagnostics.ParseError, "invalid expression: %s", n.Reason)
		pc.emit0(bytecode.PushNull, 1)

	case *ast.Void:
		pc.emit0(bytecode.PushNull, 1)

	case *ast.ConstantInt:
		pc.emitFloat(float64(n.Value), 1)

	case *ast.ConstantFloat:
		pc.emitFloat(n.Value, 1)

	case *ast.ConstantString:
		pc.emitString(bytecode.PushString, n.Value, 1)

	case *ast.ConstantNull:
		pc.emit0(bytecode.PushNull, 1)

	case *ast.ConstantPath:
		pc.compileConstantPath(n)

	case *ast.ConstantResource:
		pc.tree.AddResource(n.Value)
		pc.emitString(bytecode.PushString, n.Value, 1)

	case *ast.Identifier:
		pc.compileIdentifier(n)

	case *ast.Unary:
		pc.compileUnary(n)

	case *ast.Binary:
		pc.compileBinary(n)

	case *ast.Ternary:
		pc.compileTernary(n)

	case *ast.Assign:
		pc.compileAssign(n)

	case *ast.DereferenceField:
		pc.compileExpr(n.Target)
		pc.emitString(bytecode.DereferenceField, n.Field, 0)

	case *ast.DereferenceIndex:
		pc.compileExpr(n.Target)
		pc.compileExpr(n.Index)
		pc.emit0(bytecode.DereferenceIndex, -1)

	case *ast.Call:
		pc.compileCall(n)

	case *ast.ListLiteral:
		pc.compileListLiteral(n)

	case *ast.NewList:
		pc.compileNewList(n)

	case *ast.NewPath:
		pc.compileNewPath(n)

	case *ast.InterpolatedString:
		pc.compileInterpolatedString(n)

	case *ast.InputExpr:
		pc.compileInput(n)

	default:
		pc.reportf(e.Pos(), diagnostics.InternalError, "exprcompiler: unhandled expression %T", n)
		pc.emit0(bytecode.PushNull, 1)
	}
}

// compileOptional compiles e, or pushes PushNull when e is the nil
// interface — used for omitted clauses (default step, default delay, a
// bare "return" with no value, ...).
func (pc *procCompiler) compileOptional(e ast.Expr) {
	if e == nil {
		pc.emit0(bytecode.PushNull, 1)
		return
	}
	pc.compileExpr(e)
}

// --- identifiers and the lvalue/reference resolution order, spec §4.5 /
// §4.5.1 ---

type identKind int

const (
	identLocal identKind = iota
	identSpecial
	identField
	identGlobal
	identBuiltinVar
	identUnresolved
)

// resolveIdentifier implements the bare-name resolution order of spec
// §4.5: local, then the implicit context specials, then a declared field
// on the owning object, then a global variable, then a BuiltinRegistry
// variable (still surfaced as SrcField), falling back to an unresolved
// SrcField access.
func (pc *procCompiler) resolveIdentifier(name string) (ref reference.Reference, globalIdx int, kind identKind) {
	if lv, ok := pc.proc.Locals[name]; ok {
		r, diag := reference.CreateLocal(lv.ID)
		if diag != nil {
			pc.sink.Report(*diag)
		}
		return r, 0, identLocal
	}

	switch name {
	case ".":
		return reference.Reference{Kind: reference.Self}, 0, identSpecial
	case "src":
		return reference.SrcRef, 0, identSpecial
	case "usr":
		return reference.UsrRef, 0, identSpecial
	case "args":
		return reference.ArgsRef, 0, identSpecial
	case "world":
		return reference.WorldRef, 0, identSpecial
	}

	if _, ok := pc.tree.GetVariable(pc.owner.ID, name); ok {
		return reference.CreateSrcField(name), 0, identField
	}
	if idx, ok := pc.tree.GetGlobalVarIndex(pc.owner.ID, name); ok {
		return reference.Reference{}, idx, identGlobal
	}
	if _, ok := objtree.Builtins().TypeVar(pc.owner.Path, name); ok {
		return reference.CreateSrcField(name), 0, identBuiltinVar
	}
	return reference.Reference{}, 0, identUnresolved
}

func (pc *procCompiler) compileIdentifier(n *ast.Identifier) {
	ref, idx, kind := pc.resolveIdentifier(n.Name)
	switch kind {
	case identLocal, identSpecial, identField, identBuiltinVar:
		pc.emitRef(bytecode.PushReferenceValue, ref, 1)
	case identGlobal:
		// global reads go through PushGlobalVars + an index lookup,
		// while writes (resolveLValue) address the slot directly via a
		// Global reference — the asymmetry spec §4.5/§4.5.1 describes.
		pc.emit0(bytecode.PushGlobalVars, 1)
		pc.emitFloat(float64(idx), 1)
		pc.emit0(bytecode.DereferenceIndex, -1)
	default:
		pc.reportf(n.Pos(), diagnostics.UnknownIdentifier, "unresolved identifier %q", n.Name)
		pc.emitRef(bytecode.PushReferenceValue, reference.CreateSrcField(n.Name), 1)
	}
}

// resolveLValue implements §4.5.1: it returns the Reference to address the
// target, how many extra values (beyond the compiled RHS) the caller must
// have already pushed to the stack for this reference to resolve
// (targetPushes — 0 for every local-like/field-by-name reference, 1 for an
// explicit "obj.field", 2 for "obj[key]"), and whether resolution
// succeeded. On success, any required target operands have already been
// emitted by the time this returns.
func (pc *procCompiler) resolveLValue(expr ast.Expr) (ref reference.Reference, targetPushes int, ok bool) {
	switch n := expr.(type) {
	case *ast.Identifier:
		r, idx, kind := pc.resolveIdentifier(n.Name)
		switch kind {
		case identGlobal:
			return reference.CreateGlobal(idx), 0, true
		case identUnresolved:
			pc.reportf(n.Pos(), diagnostics.UnknownIdentifier, "unresolved identifier %q", n.Name)
			return reference.CreateSrcField(n.Name), 0, true
		default:
			return r, 0, true
		}

	case *ast.DereferenceField:
		pc.compileExpr(n.Target)
		return reference.CreateField(n.Field), 1, true

	case *ast.DereferenceIndex:
		pc.compileExpr(n.Target)
		pc.compileExpr(n.Index)
		return reference.CreateListIndex(), 2, true

	case *ast.ConstantPath:
		if n.Value.Kind == path.Relative && len(n.Value.Segments) == 0 {
			return reference.Reference{Kind: reference.Self}, 0, true
		}
		pc.reportf(n.Pos(), diagnostics.UnresolvedPath, "path %s is not assignable", n.Value.String())
		return reference.Reference{Kind: reference.Invalid}, 0, false

	default:
		pc.reportf(expr.Pos(), diagnostics.ParseError, "expression is not assignable")
		return reference.Reference{Kind: reference.Invalid}, 0, false
	}
}

// --- constant paths: three-strategy resolution, spec §4.5/SPEC_FULL ---

func (pc *procCompiler) compileConstantPath(n *ast.ConstantPath) {
	v := n.Value
	if len(v.Segments) == 0 {
		switch v.Kind {
		case path.Relative:
			// bare "." as a value: the proc's own return-value slot.
			pc.emitRef(bytecode.PushReferenceValue, reference.Reference{Kind: reference.Self}, 1)
			return
		case path.UpwardSearch:
			pc.reportf(n.Pos(), diagnostics.UnsupportedFeature, "'..' used outside call position")
			pc.emit0(bytecode.PushNull, 1)
			return
		}
	}

	id, ok := pc.resolvePathThreeStrategies(n.Pos(), v)
	if !ok {
		pc.emit0(bytecode.PushNull, 1)
		return
	}
	pc.writer.Emit(bytecode.PushType)
	pc.writer.AppendInt(int32(id))
	pc.writer.ResizeStack(1)
}

// resolvePathThreeStrategies tries, in order: p resolved relative to the
// enclosing object, p forced absolute (only meaningful if p was relative),
// then p exactly as given from the root — per SPEC_FULL's
// "Path resolution three-strategy fallback" supplement.
func (pc *procCompiler) resolvePathThreeStrategies(loc ast.Location, p path.Path) (int, bool) {
	var tried []string

	if p.Kind == path.Relative || p.Kind == path.UpwardSearch {
		combined := pc.owner.Path.Combine(p)
		if id, ok := pc.tree.Lookup(combined); ok {
			return id, true
		}
		tried = append(tried, combined.String())
	}
	if p.Kind == path.Relative {
		abs := path.New(path.Absolute, p.Segments)
		if id, ok := pc.tree.Lookup(abs); ok {
			return id, true
		}
		tried = append(tried, abs.String())
	}
	if id, ok := pc.tree.Lookup(p); ok {
		return id, true
	}
	tried = append(tried, p.String())

	pc.reportf(loc, diagnostics.UnresolvedPath,
		"could not resolve path %s (tried: %s)", p.String(), strings.Join(tried, ", "))
	return 0, false
}

// --- unary, binary, ternary ---

func (pc *procCompiler) compileUnary(n *ast.Unary) {
	switch n.Op {
	case ast.Negate:
		pc.compileExpr(n.Operand)
		pc.emit0(bytecode.Negate, 0)
	case ast.BooleanNot:
		pc.compileExpr(n.Operand)
		pc.emit0(bytecode.BooleanNot, 0)
	case ast.BitNot:
		pc.compileExpr(n.Operand)
		pc.emit0(bytecode.BitNot, 0)

	case ast.PreIncrement, ast.PreDecrement:
		ref, targetPushes, ok := pc.resolveLValue(n.Operand)
		if !ok {
			pc.emit0(bytecode.PushNull, 1)
			return
		}
		pc.emitFloat(1, 1)
		op := bytecode.Append
		if n.Op == ast.PreDecrement {
			op = bytecode.Remove
		}
		pc.writer.Emit(op)
		pc.writer.WriteReference(ref)
		pc.writer.ResizeStack(-targetPushes)

	case ast.PostIncrement, ast.PostDecrement:
		ref, targetPushes, ok := pc.resolveLValue(n.Operand)
		if !ok {
			pc.emit0(bytecode.PushNull, 1)
			return
		}
		op := bytecode.Increment
		if n.Op == ast.PostDecrement {
			op = bytecode.Decrement
		}
		pc.writer.Emit(op)
		pc.writer.WriteReference(ref)
		pc.writer.ResizeStack(1 - targetPushes)

	default:
		pc.reportf(n.Pos(), diagnostics.InternalError, "unhandled unary operator %s", n.Op)
		pc.emit0(bytecode.PushNull, 1)
	}
}

// binaryOperatorName renders op the way bytecode.BinaryOpcode's keys spell
// it (the Go identifier name, not the source symbol ast.BinaryOperator's
// own String() uses).
func binaryOperatorName(op ast.BinaryOperator) string {
	switch op {
	case ast.Add:
		return "Add"
	case ast.Subtract:
		return "Subtract"
	case ast.Multiply:
		return "Multiply"
	case ast.Divide:
		return "Divide"
	case ast.Modulo:
		return "Modulo"
	case ast.Power:
		return "Power"
	case ast.Equal:
		return "Equal"
	case ast.NotEqual:
		return "NotEqual"
	case ast.Less:
		return "Less"
	case ast.Greater:
		return "Greater"
	case ast.LessOrEqual:
		return "LessOrEqual"
	case ast.GreaterOrEqual:
		return "GreaterOrEqual"
	case ast.LogicalAnd:
		return "LogicalAnd"
	case ast.LogicalOr:
		return "LogicalOr"
	case ast.BitwiseAnd:
		return "BitwiseAnd"
	case ast.BitwiseOr:
		return "BitwiseOr"
	case ast.BitwiseXor:
		return "BitwiseXor"
	case ast.LeftShift:
		return "LeftShift"
	case ast.RightShift:
		return "RightShift"
	case ast.In:
		return "In"
	default:
		return ""
	}
}

func (pc *procCompiler) compileBinary(n *ast.Binary) {
	if n.Op == ast.To {
		pc.reportf(n.Pos(), diagnostics.UnsupportedFeature, "'to' range operator used outside for/switch context")
		pc.emit0(bytecode.PushNull, 1)
		return
	}
	pc.compileExpr(n.Left)
	pc.compileExpr(n.Right)
	op, ok := bytecode.BinaryOpcode[binaryOperatorName(n.Op)]
	if !ok {
		pc.reportf(n.Pos(), diagnostics.InternalError, "no opcode mapping for binary operator %s", n.Op)
		op = bytecode.Add
	}
	pc.emit0(op, -1)
}

func (pc *procCompiler) compileTernary(n *ast.Ternary) {
	pc.compileExpr(n.Cond)
	falseLbl := pc.createLabel()
	endLbl := pc.createLabel()
	pc.emitJump(bytecode.JumpIfFalse, falseLbl, -1)
	pc.compileExpr(n.Then)
	pc.emitJump(bytecode.Jump, endLbl, 0)
	pc.markLabel(falseLbl)
	pc.compileExpr(n.Else)
	pc.markLabel(endLbl)
}

// --- assignment, spec §4.5.1 ---

func (pc *procCompiler) compileAssign(n *ast.Assign) {
	ref, targetPushes, ok := pc.resolveLValue(n.Target)
	if !ok {
		pc.emit0(bytecode.PushNull, 1)
		return
	}

	switch n.Op {
	case ast.LogicalAndAssign, ast.LogicalOrAssign:
		if targetPushes == 0 {
			pc.compileShortCircuitAssign(n, ref)
			return
		}
		// Short-circuit-on-reference is only specified for a simple
		// reference; a field/index target falls back to an
		// unconditional assign.
		pc.compileCompoundAssign(n.Value, ref, targetPushes, bytecode.Assign)

	case ast.Assign:
		pc.compileCompoundAssign(n.Value, ref, targetPushes, bytecode.Assign)

	case ast.AssignInto:
		pc.compileCompoundAssign(n.Value, ref, targetPushes, bytecode.AssignInto)

	default:
		op, known := compoundOpcodeFor(n.Op)
		if !known {
			pc.reportf(n.Pos(), diagnostics.InternalError, "unhandled assignment operator %s", n.Op)
			op = bytecode.Assign
		}
		pc.compileCompoundAssign(n.Value, ref, targetPushes, op)
	}
}

func compoundOpcodeFor(op ast.AssignmentOperator) (bytecode.Opcode, bool) {
	switch op {
	case ast.AddAssign:
		return bytecode.Append, true
	case ast.SubtractAssign:
		return bytecode.Remove, true
	case ast.MultiplyAssign:
		return bytecode.MultiplyReference, true
	case ast.DivideAssign:
		return bytecode.DivideReference, true
	case ast.ModuloAssign:
		return bytecode.ModulusReference, true
	case ast.BitAndAssign:
		return bytecode.Mask, true
	case ast.BitOrAssign:
		return bytecode.Combine, true
	case ast.BitXorAssign:
		return bytecode.BitXorReference, true
	case ast.ShiftLeftAssign:
		return bytecode.BitShiftLeftReference, true
	case ast.ShiftRightAssign:
		return bytecode.BitShiftRightReference, true
	}
	return bytecode.Assign, false
}

// compileCompoundAssign implements §4.5.1's emit pattern: compile RHS,
// emit the reference-consuming opcode. Any stack operands the reference
// itself needed (targetPushes, already emitted by resolveLValue before
// this call) are consumed by the opcode, leaving exactly the assigned
// value as the expression's result.
func (pc *procCompiler) compileCompoundAssign(value ast.Expr, ref reference.Reference, targetPushes int, op bytecode.Opcode) {
	pc.compileExpr(value)
	pc.writer.Emit(op)
	pc.writer.WriteReference(ref)
	pc.writer.ResizeStack(-targetPushes)
}

func (pc *procCompiler) compileShortCircuitAssign(n *ast.Assign, ref reference.Reference) {
	skip := pc.createLabel()
	op := bytecode.JumpIfFalseReference
	if n.Op == ast.LogicalOrAssign {
		op = bytecode.JumpIfTrueReference
	}
	pc.writer.Emit(op)
	pc.writer.WriteReference(ref)
	pc.writer.AppendLabelPatch(op, skip)
	pc.writer.ResizeStack(0)

	pc.compileExpr(n.Value)
	pc.writer.Emit(bytecode.Assign)
	pc.writer.WriteReference(ref)
	pc.writer.ResizeStack(0)

	pc.markLabel(skip)
}

// --- calls, spec §4.5's Call bullet ---

func argsTypeFor(n int) bytecode.ArgsType {
	if n == 0 {
		return bytecode.ArgsNone
	}
	return bytecode.ArgsFromStack
}

func (pc *procCompiler) checkNamedArgsRejected(loc ast.Location, args []ast.CallArg) {
	for _, a := range args {
		if a.Name != "" {
			pc.warnf(loc, diagnostics.UnsupportedFeature,
				"keyed argument %q is not supported; compiled positionally", a.Name)
		}
	}
}

func (pc *procCompiler) compileCall(n *ast.Call) {
	if n.IsDynamicCall {
		pc.compileDynamicCall(n)
		return
	}

	if n.Callee == nil {
		pc.compileSuperCall(n)
		return
	}

	switch callee := n.Callee.(type) {
	case *ast.ConstantPath:
		if callee.Value.Kind == path.UpwardSearch && len(callee.Value.Segments) == 0 {
			pc.compileSuperCall(n)
			return
		}
		pc.compileGlobalPathCall(n, callee.Value)

	case *ast.DereferenceField:
		pc.compileMethodCall(n, callee)

	case *ast.Identifier:
		pc.compileIdentifierCall(n, callee)

	default:
		pc.compileArbitraryCall(n, n.Callee)
	}
}

func (pc *procCompiler) compileSuperCall(n *ast.Call) {
	pc.checkNamedArgsRejected(n.Pos(), n.Args)
	for _, a := range n.Args {
		pc.compileExpr(a.Value)
	}
	argCount := len(n.Args)
	pc.writer.Emit(bytecode.CallStatement)
	pc.writer.WriteReference(reference.SuperProcRef)
	pc.writer.AppendByte(byte(argsTypeFor(argCount)))
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(1 - argCount)
}

func (pc *procCompiler) compileMethodCall(n *ast.Call, callee *ast.DereferenceField) {
	pc.compileExpr(callee.Target)
	pc.checkNamedArgsRejected(n.Pos(), n.Args)
	for _, a := range n.Args {
		pc.compileExpr(a.Value)
	}
	argCount := len(n.Args)
	pc.writer.Emit(bytecode.DereferenceCall)
	pc.writer.AppendString(callee.Field)
	pc.writer.AppendByte(byte(argsTypeFor(argCount)))
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(-argCount)
}

func (pc *procCompiler) compileIdentifierCall(n *ast.Call, callee *ast.Identifier) {
	if pc.compileIntrinsicCall(callee.Name, n.Args) {
		return
	}

	pc.checkNamedArgsRejected(n.Pos(), n.Args)
	argCount := len(n.Args)

	if procID, ok := pc.tree.GetProc(pc.owner.ID, callee.Name); ok {
		_ = procID
		pc.emitRef(bytecode.PushReferenceValue, reference.SrcRef, 1)
		for _, a := range n.Args {
			pc.compileExpr(a.Value)
		}
		pc.writer.Emit(bytecode.DereferenceCall)
		pc.writer.AppendString(callee.Name)
		pc.writer.AppendByte(byte(argsTypeFor(argCount)))
		pc.writer.AppendInt(int32(argCount))
		pc.writer.ResizeStack(-argCount)
		return
	}

	if gpID, ok := pc.tree.GlobalProcs[callee.Name]; ok {
		for _, a := range n.Args {
			pc.compileExpr(a.Value)
		}
		pc.writer.Emit(bytecode.Call)
		pc.writer.WriteReference(reference.CreateGlobalProc(gpID))
		pc.writer.AppendByte(byte(argsTypeFor(argCount)))
		pc.writer.AppendInt(int32(argCount))
		pc.writer.ResizeStack(1 - argCount)
		return
	}

	if _, ok := objtree.Builtins().GlobalProc(callee.Name); ok {
		pc.warnf(n.Pos(), diagnostics.UnsupportedFeature,
			"built-in proc %q has no dedicated lowering yet", callee.Name)
		pc.emit0(bytecode.PushNull, 1)
		return
	}

	pc.reportf(n.Pos(), diagnostics.UnknownIdentifier, "call to unknown proc %q", callee.Name)
	pc.emit0(bytecode.PushNull, 1)
}

func (pc *procCompiler) compileGlobalPathCall(n *ast.Call, p path.Path) {
	name := p.Last()
	if gpID, ok := pc.tree.GlobalProcs[name]; ok {
		pc.checkNamedArgsRejected(n.Pos(), n.Args)
		argCount := len(n.Args)
		for _, a := range n.Args {
			pc.compileExpr(a.Value)
		}
		pc.writer.Emit(bytecode.Call)
		pc.writer.WriteReference(reference.CreateGlobalProc(gpID))
		pc.writer.AppendByte(byte(argsTypeFor(argCount)))
		pc.writer.AppendInt(int32(argCount))
		pc.writer.ResizeStack(1 - argCount)
		return
	}
	pc.reportf(n.Pos(), diagnostics.UnresolvedPath, "call to unresolved proc path %s", p.String())
	pc.emit0(bytecode.PushNull, 1)
}

func (pc *procCompiler) compileArbitraryCall(n *ast.Call, callee ast.Expr) {
	pc.compileExpr(callee)
	pc.checkNamedArgsRejected(n.Pos(), n.Args)
	argCount := len(n.Args)
	for _, a := range n.Args {
		pc.compileExpr(a.Value)
	}
	pc.writer.Emit(bytecode.CallStatement)
	pc.writer.WriteReference(reference.CalleeRef)
	pc.writer.AppendByte(byte(argsTypeFor(argCount)))
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(-argCount)
}

// compileDynamicCall lowers "call(proc)(args)"/"call(recv,proc)(args)"
// per §4.5: push the real proc args, then push the call() target
// arguments in reverse order, emit CallStatement.
func (pc *procCompiler) compileDynamicCall(n *ast.Call) {
	pc.checkNamedArgsRejected(n.Pos(), n.CallArgs)
	argCount := len(n.CallArgs)
	for _, a := range n.CallArgs {
		pc.compileExpr(a.Value)
	}
	for i := len(n.CallTarget) - 1; i >= 0; i-- {
		pc.compileExpr(n.CallTarget[i].Value)
	}
	targetCount := len(n.CallTarget)

	pc.writer.Emit(bytecode.CallStatement)
	pc.writer.WriteReference(reference.CalleeRef)
	pc.writer.AppendByte(byte(argsTypeFor(argCount)))
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(1 - (argCount + targetCount))
}

// compileIntrinsicCall lowers the dedicated-opcode well-known intrinsics
// named in §4.5; every other global built-in (abs, sin, rand, ...) falls
// through to the caller's ordinary proc resolution, surfacing an
// UnsupportedFeature warning there since this compiler doesn't yet emit
// bytecode for them.
func (pc *procCompiler) compileIntrinsicCall(name string, args []ast.CallArg) bool {
	pushArgs := func() {
		for _, a := range args {
			pc.compileExpr(a.Value)
		}
	}

	switch name {
	case "locate":
		pushArgs()
		if len(args) == 3 {
			pc.emit0(bytecode.LocateCoord, 1-len(args))
		} else {
			pc.emit0(bytecode.Locate, 1-len(args))
		}
	case "pick":
		pushArgs()
		pc.writer.Emit(bytecode.PickUnweighted)
		pc.writer.AppendInt(int32(len(args)))
		pc.writer.ResizeStack(1 - len(args))
	case "rgb":
		pushArgs()
		pc.writer.Emit(bytecode.Rgb)
		pc.writer.AppendByte(byte(argsTypeFor(len(args))))
		pc.writer.AppendInt(int32(len(args)))
		pc.writer.ResizeStack(1 - len(args))
	case "prob":
		pushArgs()
		pc.emit0(bytecode.Prob, 1-len(args))
	case "istype":
		pushArgs()
		pc.emit0(bytecode.IsType, 1-len(args))
	case "get_dir":
		pushArgs()
		pc.emit0(bytecode.GetDir, 1-len(args))
	case "get_step":
		pushArgs()
		pc.emit0(bytecode.GetStep, 1-len(args))
	case "length":
		pushArgs()
		pc.emit0(bytecode.Length, 1-len(args))
	case "sqrt":
		pushArgs()
		pc.emit0(bytecode.Sqrt, 1-len(args))
	default:
		return false
	}
	return true
}

// --- lists, new, interpolated strings, input ---

func (pc *procCompiler) compileListLiteral(n *ast.ListLiteral) {
	hasKeys := false
	for _, item := range n.Items {
		if item.Key != nil {
			hasKeys = true
			break
		}
	}

	if !hasKeys {
		for _, item := range n.Items {
			pc.compileExpr(item.Value)
		}
		pc.writer.Emit(bytecode.CreateList)
		pc.writer.AppendInt(int32(len(n.Items)))
		pc.writer.ResizeStack(1 - len(n.Items))
		return
	}

	for _, item := range n.Items {
		pc.compileOptional(item.Key)
		pc.compileExpr(item.Value)
	}
	pc.writer.Emit(bytecode.CreateAssociativeList)
	pc.writer.AppendInt(int32(len(n.Items)))
	pc.writer.ResizeStack(1 - 2*len(n.Items))
}

func (pc *procCompiler) compileNewList(n *ast.NewList) {
	for _, arg := range n.TypeArgs {
		pc.compileExpr(arg)
		pc.writer.Emit(bytecode.CreateObject)
		pc.writer.AppendByte(byte(bytecode.ArgsNone))
		pc.writer.AppendInt(0)
		pc.writer.ResizeStack(0)
	}
	pc.writer.Emit(bytecode.CreateList)
	pc.writer.AppendInt(int32(len(n.TypeArgs)))
	pc.writer.ResizeStack(1 - len(n.TypeArgs))
}

func (pc *procCompiler) compileNewPath(n *ast.NewPath) {
	switch {
	case n.TypePath != nil:
		id, ok := pc.resolvePathThreeStrategies(n.Pos(), *n.TypePath)
		if !ok {
			pc.emit0(bytecode.PushNull, 1)
		} else {
			pc.writer.Emit(bytecode.PushType)
			pc.writer.AppendInt(int32(id))
			pc.writer.ResizeStack(1)
		}
	case n.PathExpr != nil:
		pc.compileExpr(n.PathExpr)
	default:
		pc.emit0(bytecode.PushNull, 1)
	}

	pc.checkNamedArgsRejected(n.Pos(), n.Args)
	for _, a := range n.Args {
		pc.compileExpr(a.Value)
	}
	argCount := len(n.Args)
	pc.writer.Emit(bytecode.CreateObject)
	pc.writer.AppendByte(byte(argsTypeFor(argCount)))
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(-argCount)
}

// compileInterpolatedString lowers a "...[expr]..." literal to
// FormatString, concatenating literal text and marking each embedded
// expression's position with a 0xFF placeholder byte, matching DM's own
// format-string convention (original_source's string formatter reserves
// 0xFF as a non-printable substitution marker).
func (pc *procCompiler) compileInterpolatedString(n *ast.InterpolatedString) {
	var sb strings.Builder
	argCount := 0
	for _, part := range n.Parts {
		if part.Expr != nil {
			pc.compileExpr(part.Expr)
			sb.WriteByte(0xFF)
			argCount++
			continue
		}
		sb.WriteString(part.Text)
	}
	pc.writer.Emit(bytecode.FormatString)
	pc.writer.AppendString(sb.String())
	pc.writer.AppendInt(int32(argCount))
	pc.writer.ResizeStack(1 - argCount)
}

func (pc *procCompiler) compileInput(n *ast.InputExpr) {
	pc.compileOptional(n.Message)
	pc.compileOptional(n.Title)
	pc.compileOptional(n.Default)
	pc.compileOptional(n.InList)
	pc.writer.Emit(bytecode.Prompt)
	pc.writer.AppendInt(int32(n.TypeFlags))
	pc.writer.ResizeStack(1 - 4)
}
