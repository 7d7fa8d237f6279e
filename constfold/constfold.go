// Package constfold implements the post-order constant-folding AST rewrite
// described in spec §4.2: unary Negate/Not and binary LogicalAnd/LogicalOr
// nodes are replaced by their folded literal when their operands reduce to
// constants, recursing into statements, expressions, and the parameter
// lists of list/newlist/new, ternary arms, and switch-case ranges. Folding
// never crosses a side-effecting call.
package constfold

import "dmcompiler/ast"

// Fold rewrites file's object statements in place and returns it, for
// chaining.
func Fold(file *ast.File) *ast.File {
	for i, obj := range file.Objects {
		file.Objects[i] = foldObjectStmt(obj)
	}
	return file
}

func foldObjectStmt(stmt ast.ObjectStmt) ast.ObjectStmt {
	switch n := stmt.(type) {
	case *ast.ObjectDef:
		for i, inner := range n.Body {
			n.Body[i] = foldObjectStmt(inner)
		}
		return n
	case *ast.VarDef:
		if n.Init != nil {
			n.Init = foldExpr(n.Init)
		}
		return n
	case *ast.VarOverride:
		n.Value = foldExpr(n.Value)
		return n
	case *ast.ProcDef:
		for _, p := range n.Params {
			if p.Default != nil {
				p.Default = foldExpr(p.Default)
			}
		}
		foldStmts(n.Body)
		return n
	default:
		return stmt
	}
}

func foldStmts(stmts []ast.Stmt) {
	for i, s := range stmts {
		stmts[i] = foldStmt(s)
	}
}

func foldStmt(stmt ast.Stmt) ast.Stmt {
	switch n := stmt.(type) {
	case *ast.ExprStmt:
		n.Value = foldExpr(n.Value)
	case *ast.VarDecl:
		for i := range n.Declarators {
			if n.Declarators[i].Init != nil {
				n.Declarators[i].Init = foldExpr(n.Declarators[i].Init)
			}
		}
	case *ast.Return:
		if n.Value != nil {
			n.Value = foldExpr(n.Value)
		}
	case *ast.If:
		n.Cond = foldExpr(n.Cond)
		foldStmts(n.Then)
		foldStmts(n.Else)
	case *ast.While:
		n.Cond = foldExpr(n.Cond)
		foldStmts(n.Body)
	case *ast.DoWhile:
		foldStmts(n.Body)
		n.Cond = foldExpr(n.Cond)
	case *ast.For:
		if n.Init != nil {
			n.Init = foldStmt(n.Init)
		}
		if n.Cond != nil {
			n.Cond = foldExpr(n.Cond)
		}
		if n.Post != nil {
			n.Post = foldStmt(n.Post)
		}
		foldStmts(n.Body)
	case *ast.ForRange:
		n.Low = foldExpr(n.Low)
		n.High = foldExpr(n.High)
		if n.Step != nil {
			n.Step = foldExpr(n.Step)
		}
		foldStmts(n.Body)
	case *ast.ForIn:
		n.Source = foldExpr(n.Source)
		foldStmts(n.Body)
	case *ast.Switch:
		n.Subject = foldExpr(n.Subject)
		for ci := range n.Cases {
			for vi, v := range n.Cases[ci].Values {
				n.Cases[ci].Values[vi] = foldExpr(v)
			}
			foldStmts(n.Cases[ci].Body)
		}
		foldStmts(n.Default)
	case *ast.Del:
		n.Value = foldExpr(n.Value)
	case *ast.Spawn:
		if n.Delay != nil {
			n.Delay = foldExpr(n.Delay)
		}
		foldStmts(n.Body)
	case *ast.Try:
		foldStmts(n.Body)
		foldStmts(n.Catch)
	case *ast.Throw:
		n.Value = foldExpr(n.Value)
	case *ast.SetAttribute:
		n.Value = foldExpr(n.Value)
	}
	return stmt
}

// foldExpr recurses post-order and folds Unary/Binary logical nodes whose
// operands are already constant.
func foldExpr(expr ast.Expr) ast.Expr {
	switch n := expr.(type) {
	case *ast.Unary:
		n.Operand = foldExpr(n.Operand)
		return foldUnary(n)
	case *ast.Binary:
		n.Left = foldExpr(n.Left)
		n.Right = foldExpr(n.Right)
		return foldBinary(n)
	case *ast.Ternary:
		n.Cond = foldExpr(n.Cond)
		n.Then = foldExpr(n.Then)
		n.Else = foldExpr(n.Else)
		return n
	case *ast.Assign:
		n.Value = foldExpr(n.Value)
		return n
	case *ast.DereferenceField:
		n.Target = foldExpr(n.Target)
		return n
	case *ast.DereferenceIndex:
		n.Target = foldExpr(n.Target)
		n.Index = foldExpr(n.Index)
		return n
	case *ast.Call:
		for i := range n.Args {
			n.Args[i].Value = foldExpr(n.Args[i].Value)
		}
		return n
	case *ast.ListLiteral:
		for i := range n.Items {
			if n.Items[i].Key != nil {
				n.Items[i].Key = foldExpr(n.Items[i].Key)
			}
			n.Items[i].Value = foldExpr(n.Items[i].Value)
		}
		return n
	case *ast.NewList:
		for i := range n.TypeArgs {
			n.TypeArgs[i] = foldExpr(n.TypeArgs[i])
		}
		return n
	case *ast.NewPath:
		if n.PathExpr != nil {
			n.PathExpr = foldExpr(n.PathExpr)
		}
		for i := range n.Args {
			n.Args[i].Value = foldExpr(n.Args[i].Value)
		}
		return n
	case *ast.InterpolatedString:
		for i := range n.Parts {
			if n.Parts[i].Expr != nil {
				n.Parts[i].Expr = foldExpr(n.Parts[i].Expr)
			}
		}
		return n
	case *ast.SwitchCaseRange:
		n.Low = foldExpr(n.Low)
		n.High = foldExpr(n.High)
		return n
	case *ast.InputExpr:
		n.Message = foldExpr(n.Message)
		if n.InList != nil {
			n.InList = foldExpr(n.InList)
		}
		return n
	default:
		return expr
	}
}

func foldUnary(n *ast.Unary) ast.Expr {
	switch n.Op {
	case ast.Negate:
		switch c := n.Operand.(type) {
		case *ast.ConstantInt:
			return ast.NewConstantInt(n.Pos(), -c.Value)
		case *ast.ConstantFloat:
			return ast.NewConstantFloat(n.Pos(), -c.Value)
		}
	case ast.BooleanNot:
		if truth, ok := truthValue(n.Operand); ok {
			return boolLiteral(n.Pos(), !truth)
		}
	}
	return n
}

func foldBinary(n *ast.Binary) ast.Expr {
	switch n.Op {
	case ast.LogicalAnd:
		if truth, ok := truthValue(n.Left); ok {
			if !truth {
				return n.Left // short-circuit: falsy left wins
			}
			return n.Right
		}
	case ast.LogicalOr:
		if truth, ok := truthValue(n.Left); ok {
			if truth {
				return n.Left
			}
			return n.Right
		}
	}
	return n
}

// truthValue reports whether e is a constant whose DM truthiness is
// statically known (non-zero number, non-empty string, non-null).
func truthValue(e ast.Expr) (bool, bool) {
	switch c := e.(type) {
	case *ast.ConstantInt:
		return c.Value != 0, true
	case *ast.ConstantFloat:
		return c.Value != 0, true
	case *ast.ConstantString:
		return c.Value != "", true
	case *ast.ConstantNull:
		return false, true
	default:
		return false, false
	}
}

func boolLiteral(loc ast.Location, v bool) ast.Expr {
	if v {
		return ast.NewConstantInt(loc, 1)
	}
	return ast.NewConstantInt(loc, 0)
}
