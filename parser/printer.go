package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"dmcompiler/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// exprToJSON renders one expression node as a JSON-friendly value using a Go
// type switch, per the ast package's tagged-sum design note: dispatch here
// is a switch over concrete types rather than an Accept(visitor) call.
func exprToJSON(e ast.Expr) any {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.Invalid:
		return map[string]any{"type": "Invalid", "reason": n.Reason}
	case *ast.Void:
		return map[string]any{"type": "Void"}
	case *ast.ConstantInt:
		return map[string]any{"type": "ConstantInt", "value": n.Value}
	case *ast.ConstantFloat:
		return map[string]any{"type": "ConstantFloat", "value": n.Value}
	case *ast.ConstantString:
		return map[string]any{"type": "ConstantString", "value": n.Value}
	case *ast.ConstantNull:
		return map[string]any{"type": "ConstantNull"}
	case *ast.ConstantPath:
		return map[string]any{"type": "ConstantPath", "value": n.Value.String()}
	case *ast.ConstantResource:
		return map[string]any{"type": "ConstantResource", "value": n.Value}
	case *ast.Identifier:
		return map[string]any{"type": "Identifier", "name": n.Name}
	case *ast.Unary:
		return map[string]any{"type": "Unary", "op": n.Op.String(), "operand": exprToJSON(n.Operand)}
	case *ast.Binary:
		return map[string]any{"type": "Binary", "op": n.Op.String(), "left": exprToJSON(n.Left), "right": exprToJSON(n.Right)}
	case *ast.Ternary:
		return map[string]any{"type": "Ternary", "cond": exprToJSON(n.Cond), "then": exprToJSON(n.Then), "else": exprToJSON(n.Else)}
	case *ast.Assign:
		return map[string]any{"type": "Assign", "op": n.Op.String(), "target": exprToJSON(n.Target), "value": exprToJSON(n.Value)}
	case *ast.DereferenceField:
		return map[string]any{"type": "DereferenceField", "target": exprToJSON(n.Target), "field": n.Field, "safe": n.Safe}
	case *ast.DereferenceIndex:
		return map[string]any{"type": "DereferenceIndex", "target": exprToJSON(n.Target), "index": exprToJSON(n.Index)}
	case *ast.Call:
		return map[string]any{
			"type":          "Call",
			"callee":        exprToJSON(n.Callee),
			"args":          callArgsToJSON(n.Args),
			"isDynamicCall": n.IsDynamicCall,
			"callTarget":    callArgsToJSON(n.CallTarget),
			"callArgs":      callArgsToJSON(n.CallArgs),
		}
	case *ast.ListLiteral:
		items := make([]any, 0, len(n.Items))
		for _, it := range n.Items {
			items = append(items, map[string]any{"key": exprToJSON(it.Key), "value": exprToJSON(it.Value)})
		}
		return map[string]any{"type": "ListLiteral", "items": items}
	case *ast.NewList:
		args := make([]any, 0, len(n.TypeArgs))
		for _, a := range n.TypeArgs {
			args = append(args, exprToJSON(a))
		}
		return map[string]any{"type": "NewList", "typeArgs": args}
	case *ast.NewPath:
		var typePath any
		if n.TypePath != nil {
			typePath = n.TypePath.String()
		}
		return map[string]any{
			"type":     "NewPath",
			"typePath": typePath,
			"pathExpr": exprToJSON(n.PathExpr),
			"args":     callArgsToJSON(n.Args),
		}
	case *ast.InterpolatedString:
		parts := make([]any, 0, len(n.Parts))
		for _, part := range n.Parts {
			if part.Expr != nil {
				parts = append(parts, exprToJSON(part.Expr))
			} else {
				parts = append(parts, part.Text)
			}
		}
		return map[string]any{"type": "InterpolatedString", "parts": parts}
	case *ast.SwitchCaseRange:
		return map[string]any{"type": "SwitchCaseRange", "low": exprToJSON(n.Low), "high": exprToJSON(n.High)}
	case *ast.InputExpr:
		return map[string]any{
			"type":      "InputExpr",
			"message":   exprToJSON(n.Message),
			"title":     exprToJSON(n.Title),
			"default":   exprToJSON(n.Default),
			"typeFlags": n.TypeFlags,
			"inList":    exprToJSON(n.InList),
		}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", e)}
	}
}

func callArgsToJSON(args []ast.CallArg) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		out = append(out, map[string]any{"name": a.Name, "value": exprToJSON(a.Value)})
	}
	return out
}

func stmtsToJSON(stmts []ast.Stmt) []any {
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, stmtToJSON(s))
	}
	return out
}

func stmtToJSON(s ast.Stmt) any {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *ast.VarDecl:
		decls := make([]any, 0, len(n.Declarators))
		for _, d := range n.Declarators {
			decls = append(decls, map[string]any{
				"name": d.Name, "typePath": d.TypePath.String(), "isList": d.IsList, "init": exprToJSON(d.Init),
			})
		}
		return map[string]any{"type": "VarDecl", "declarators": decls}
	case *ast.ExprStmt:
		return map[string]any{"type": "ExprStmt", "value": exprToJSON(n.Value)}
	case *ast.Return:
		return map[string]any{"type": "Return", "value": exprToJSON(n.Value)}
	case *ast.If:
		return map[string]any{"type": "If", "cond": exprToJSON(n.Cond), "then": stmtsToJSON(n.Then), "else": stmtsToJSON(n.Else)}
	case *ast.While:
		return map[string]any{"type": "While", "cond": exprToJSON(n.Cond), "body": stmtsToJSON(n.Body)}
	case *ast.DoWhile:
		return map[string]any{"type": "DoWhile", "cond": exprToJSON(n.Cond), "body": stmtsToJSON(n.Body)}
	case *ast.For:
		return map[string]any{
			"type": "For", "init": stmtToJSON(n.Init), "cond": exprToJSON(n.Cond),
			"post": stmtToJSON(n.Post), "body": stmtsToJSON(n.Body),
		}
	case *ast.ForRange:
		return map[string]any{
			"type": "ForRange", "var": n.Var.Name, "low": exprToJSON(n.Low),
			"high": exprToJSON(n.High), "step": exprToJSON(n.Step), "body": stmtsToJSON(n.Body),
		}
	case *ast.ForIn:
		return map[string]any{
			"type": "ForIn", "var": n.Var.Name, "source": exprToJSON(n.Source), "body": stmtsToJSON(n.Body),
		}
	case *ast.Switch:
		cases := make([]any, 0, len(n.Cases))
		for _, c := range n.Cases {
			values := make([]any, 0, len(c.Values))
			for _, v := range c.Values {
				values = append(values, exprToJSON(v))
			}
			cases = append(cases, map[string]any{"values": values, "body": stmtsToJSON(c.Body)})
		}
		return map[string]any{"type": "Switch", "subject": exprToJSON(n.Subject), "cases": cases, "default": stmtsToJSON(n.Default)}
	case *ast.Break:
		return map[string]any{"type": "Break"}
	case *ast.Continue:
		return map[string]any{"type": "Continue"}
	case *ast.Label:
		return map[string]any{"type": "Label", "name": n.Name}
	case *ast.Goto:
		return map[string]any{"type": "Goto", "name": n.Name}
	case *ast.Del:
		return map[string]any{"type": "Del", "value": exprToJSON(n.Value)}
	case *ast.Spawn:
		return map[string]any{"type": "Spawn", "delay": exprToJSON(n.Delay), "body": stmtsToJSON(n.Body)}
	case *ast.Try:
		return map[string]any{"type": "Try", "body": stmtsToJSON(n.Body), "catchVar": n.CatchVar, "catch": stmtsToJSON(n.Catch)}
	case *ast.Throw:
		return map[string]any{"type": "Throw", "value": exprToJSON(n.Value)}
	case *ast.SetAttribute:
		return map[string]any{"type": "SetAttribute", "name": n.Name, "value": exprToJSON(n.Value)}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", s)}
	}
}

func objectStmtToJSON(o ast.ObjectStmt) any {
	if o == nil {
		return nil
	}
	switch n := o.(type) {
	case *ast.ObjectDef:
		body := make([]any, 0, len(n.Body))
		for _, inner := range n.Body {
			body = append(body, objectStmtToJSON(inner))
		}
		return map[string]any{"type": "ObjectDef", "path": n.Path.String(), "body": body}
	case *ast.VarDef:
		return map[string]any{
			"type": "VarDef", "name": n.Name, "typePath": n.TypePath.String(),
			"isList": n.IsList, "init": exprToJSON(n.Init),
		}
	case *ast.VarOverride:
		return map[string]any{"type": "VarOverride", "name": n.Name, "value": exprToJSON(n.Value)}
	case *ast.ProcDef:
		params := make([]any, 0, len(n.Params))
		for _, prm := range n.Params {
			params = append(params, map[string]any{
				"name": prm.Name, "typePath": prm.TypePath.String(), "hasType": prm.HasType, "default": exprToJSON(prm.Default),
			})
		}
		return map[string]any{
			"type": "ProcDef", "name": n.Name, "isVerb": n.IsVerb, "isFinal": n.IsFinal,
			"override": n.Override, "params": params, "body": stmtsToJSON(n.Body),
		}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", o)}
	}
}

// PrintASTJSON renders file's object tree as indented JSON, prints it to
// stdout framed the way the teacher's REPL echoes its own AST dumps, and
// returns the JSON text.
func PrintASTJSON(file *ast.File) (string, error) {
	out := make([]any, 0, len(file.Objects))
	for _, o := range file.Objects {
		out = append(out, objectStmtToJSON(o))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes file's AST JSON rendering to path.
func WriteASTJSONToFile(file *ast.File, path string) error {
	s, err := PrintASTJSON(file)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
