// Package parser implements a recursive descent parser over the token
// alphabet in the token package, building the AST described in the ast
// package, per spec §4.1. Like the teacher's own nilan parser, it walks the
// token stream with a small set of peek/advance/match primitives rather
// than a parser generator; unlike nilan's parser, expression parsing is
// structured as the explicit precedence ladder spec §4.1 names (assignment
// down through primary) instead of a Pratt table, since the DM grammar's
// precedence levels are fixed and don't benefit from a data-driven table.
//
// Parse errors are reported through a diagnostics.Sink and recovered from,
// per spec §7: a malformed object member is omitted from its enclosing body
// after skipping to the next statement boundary, while a malformed
// statement keeps its place with an ast.Invalid standing in for the
// expression that failed to parse (ast has no InvalidStmt — only
// expressions get an Invalid placeholder).
package parser

import (
	"dmcompiler/ast"
	"dmcompiler/compileopts"
	"dmcompiler/diagnostics"
	"dmcompiler/path"
	"dmcompiler/token"
	"dmcompiler/valuetype"
)

// Parser turns one file's token stream into an *ast.File.
type Parser struct {
	tokens []token.Token
	pos    int
	file   string
	sink   *diagnostics.Sink
	opts   compileopts.Options

	exprDepth int
	stall     int
}

// New builds a Parser over tokens. A nil sink gets a fresh one backed by
// opts.Logger (or logrus's standard logger, once defaults are applied).
func New(tokens []token.Token, file string, sink *diagnostics.Sink, opts compileopts.Options) *Parser {
	opts = opts.WithDefaults()
	if sink == nil {
		sink = diagnostics.NewSink(opts.Logger)
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(append([]token.Token(nil), tokens...), token.New(token.EOF, "", 0, 0))
	}
	return &Parser{tokens: tokens, file: file, sink: sink, opts: opts}
}

// Sink returns the diagnostics sink this parser reports to.
func (p *Parser) Sink() *diagnostics.Sink { return p.sink }

// Parse consumes the whole token stream and returns the resulting file.
// Parse errors are reported to the sink, not returned; callers check
// p.Sink().HasErrors().
func (p *Parser) Parse() *ast.File {
	loc := p.loc()
	var objects []ast.ObjectStmt
	p.skipNewlines()
	for !p.isAtEnd() {
		before := p.pos
		objects = append(objects, p.parseObjectMember(path.Root)...)
		p.skipNewlines()
		p.checkProgress(before)
	}
	f := &ast.File{Objects: objects}
	f.Loc = loc
	return f
}

// --- token cursor primitives ---

func (p *Parser) peek() token.Token { return p.tokens[p.pos] }

func (p *Parser) peekN(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool { return p.peek().Type == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(tt token.Type) bool {
	if p.isAtEnd() {
		return tt == token.EOF
	}
	return p.peek().Type == tt
}

func (p *Parser) match(tts ...token.Type) bool {
	for _, tt := range tts {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of type tt or reports a ParseError diagnostic.
func (p *Parser) expect(tt token.Type, what string) (token.Token, bool) {
	if p.check(tt) {
		return p.advance(), true
	}
	p.errorAtf(p.peek(), diagnostics.ParseError, "expected %s, got %q", what, p.peek().Lexeme)
	return token.Token{}, false
}

func (p *Parser) loc() ast.Location {
	t := p.peek()
	return ast.Location{File: p.file, Line: t.Line, Column: t.Column, InStandardLib: p.opts.InStandardLibrary}
}

func (p *Parser) locAt(t token.Token) ast.Location {
	return ast.Location{File: p.file, Line: t.Line, Column: t.Column, InStandardLib: p.opts.InStandardLibrary}
}

func (p *Parser) skipNewlines() {
	for p.match(token.NEWLINE) || p.match(token.SEMI) {
	}
}

// atStatementEnd reports whether the cursor sits at a statement terminator.
func (p *Parser) atStatementEnd() bool {
	return p.check(token.NEWLINE) || p.check(token.SEMI) || p.check(token.DEDENT) ||
		p.check(token.RBRACE) || p.isAtEnd()
}

// synchronize recovers from a statement-level parse error by discarding
// tokens up to the next statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(token.NEWLINE) || p.check(token.SEMI) {
			p.advance()
			return
		}
		if p.check(token.DEDENT) {
			return
		}
		p.advance()
	}
}

// checkProgress is the progress watchdog from spec §4.1: after
// WatchdogIterations consecutive iterations of a top-level loop that made
// no cursor progress, it forces one token of progress so a pathological
// input can't hang the compiler forever.
func (p *Parser) checkProgress(before int) {
	if p.pos != before {
		p.stall = 0
		return
	}
	p.stall++
	if p.stall >= p.opts.WatchdogIterations {
		if !p.isAtEnd() {
			p.errorAtf(p.peek(), diagnostics.InternalError, "parser made no progress for %d iterations, forcing advance", p.stall)
			p.advance()
		}
		p.stall = 0
	}
}

// keywordTypeSet holds every token.Type that token.Keywords can produce, so
// pathSegmentText can treat reserved words as ordinary path segments (DM
// paths like "/mob/proc/Attack" embed keywords as plain components).
var keywordTypeSet = func() map[token.Type]bool {
	m := make(map[token.Type]bool, len(token.Keywords))
	for _, tt := range token.Keywords {
		m[tt] = true
	}
	return m
}()

// pathSegmentText reports whether t's text can serve as one path segment,
// accepting both plain identifiers and reserved words used positionally.
func pathSegmentText(t token.Token) (string, bool) {
	if t.Type == token.IDENTIFIER || keywordTypeSet[t.Type] {
		return t.Lexeme, true
	}
	return "", false
}

func (p *Parser) expectIdentLike(what string) string {
	if text, ok := pathSegmentText(p.peek()); ok {
		p.advance()
		return text
	}
	p.errorAtf(p.peek(), diagnostics.ParseError, "expected %s, got %q", what, p.peek().Lexeme)
	return ""
}

// parseSegments collects a bare dot-free segment chain: seg ("/" seg)*,
// with no leading anchor token consumed. Used for declarator/param/proc
// names once any "/" anchor or "var"/"proc"/"verb" marker is already
// consumed by the caller.
func (p *Parser) parseSegments() []string {
	var segs []string
	if text, ok := pathSegmentText(p.peek()); ok {
		segs = append(segs, text)
		p.advance()
	} else {
		return segs
	}
	for p.check(token.SLASH) {
		save := p.pos
		p.advance()
		text, ok := pathSegmentText(p.peek())
		if !ok {
			p.pos = save
			break
		}
		segs = append(segs, text)
		p.advance()
	}
	return segs
}

// parseSegmentsPath is parseSegments wrapped in a Path, Kind irrelevant to
// the caller (declarator/param/proc name resolution only cares about
// Segments).
func (p *Parser) parseSegmentsPath() path.Path {
	return path.New(path.Absolute, p.parseSegments())
}

// parsePathLiteral parses an anchored path: an optional "/", ".", or ".."
// anchor followed by a segment chain, e.g. "/obj/item", ".foo/bar", "..bar".
func (p *Parser) parsePathLiteral() path.Path {
	kind := path.Absolute
	switch {
	case p.match(token.DOTDOT):
		kind = path.UpwardSearch
	case p.match(token.DOT):
		kind = path.Relative
	case p.match(token.SLASH):
		kind = path.Absolute
	}
	return path.New(kind, p.parseSegments())
}

func (p *Parser) isPathAnchor() bool {
	return p.check(token.SLASH) || p.check(token.DOT) || p.check(token.DOTDOT)
}

// declarator is the parsed shape shared by proc-body var statements and
// object-scope var definitions, before being wrapped in an ast.Declarator
// or ast.VarDef.
type declarator struct {
	name     string
	typePath path.Path
	mods     path.Modifiers
	isList   bool
	init     ast.Expr
}

// parseVarDeclarators parses "var" T/name ( "[" "]" )? ( "=" expr )?
// ( "," name ( "=" expr )? )* assuming the leading "var" keyword has
// already been consumed.
func (p *Parser) parseVarDeclarators() []declarator {
	raw := p.parsePathLiteral()
	mods, typePath := path.StripModifiers(raw)
	name := typePath.Last()
	declType := typePath.Parent()
	isList := false
	if p.check(token.LBRACKET) && p.peekN(1).Type == token.RBRACKET {
		p.advance()
		p.advance()
		isList = true
	}
	var init ast.Expr
	if p.match(token.ASSIGN) {
		init = p.parseExpression()
	}
	decls := []declarator{{name: name, typePath: declType, mods: mods, isList: isList, init: init}}
	for p.match(token.COMMA) {
		nm := p.expectIdentLike("declarator name")
		isList2 := false
		if p.check(token.LBRACKET) && p.peekN(1).Type == token.RBRACKET {
			p.advance()
			p.advance()
			isList2 = true
		}
		var init2 ast.Expr
		if p.match(token.ASSIGN) {
			init2 = p.parseExpression()
		}
		decls = append(decls, declarator{name: nm, typePath: declType, mods: mods, isList: isList2, init: init2})
	}
	return decls
}

// --- object-scope parsing ---

// parseObjectMember parses one member of enclosing's body — a var def, a
// proc/verb def, a nested type, or a var override — returning the (usually
// one, occasionally several, for comma-joined var declarators) resulting
// ObjectStmt nodes. Returns nil on a recovered parse error.
func (p *Parser) parseObjectMember(enclosing path.Path) []ast.ObjectStmt {
	loc := p.loc()

	switch {
	case p.match(token.KW_VAR):
		decls := p.parseVarDeclarators()
		out := make([]ast.ObjectStmt, 0, len(decls))
		for _, d := range decls {
			n := &ast.VarDef{Name: d.name, TypePath: d.typePath, Mods: d.mods, IsList: d.isList, Init: d.init}
			n.Loc = loc
			out = append(out, n)
		}
		return out

	case p.check(token.KW_PROC) || p.check(token.KW_VERB):
		isVerb := p.check(token.KW_VERB)
		p.advance()
		if p.match(token.SLASH) {
			return []ast.ObjectStmt{p.parseProcSignatureAndBody(loc, isVerb)}
		}
		p.skipNewlines()
		var out []ast.ObjectStmt
		if p.match(token.INDENT) {
			for !p.check(token.DEDENT) && !p.isAtEnd() {
				p.skipNewlines()
				if p.check(token.DEDENT) {
					break
				}
				before := p.pos
				out = append(out, p.parseProcSignatureAndBody(p.loc(), isVerb))
				p.skipNewlines()
				p.checkProgress(before)
			}
			p.match(token.DEDENT)
		}
		return out
	}

	anchored := p.isPathAnchor()
	var segs []string
	kind := path.Absolute
	if anchored {
		full := p.parsePathLiteral()
		segs = full.Segments
		kind = full.Kind
	} else {
		segs = p.parseSegments()
	}
	if len(segs) == 0 {
		p.errorAtf(p.peek(), diagnostics.ParseError, "unexpected token %q in object body", p.peek().Lexeme)
		p.synchronize()
		return nil
	}

	switch {
	case p.check(token.LPAREN):
		p.advance()
		name := segs[len(segs)-1]
		params := p.parseParamList()
		p.expect(token.RPAREN, "')' after parameters")
		body := p.parseBlock()
		n := &ast.ProcDef{Name: name, Params: params, Body: body}
		n.Loc = loc
		return []ast.ObjectStmt{n}

	case p.match(token.ASSIGN):
		name := segs[len(segs)-1]
		val := p.parseExpression()
		n := &ast.VarOverride{Name: name, Value: val}
		n.Loc = loc
		return []ast.ObjectStmt{n}

	default:
		var childPath path.Path
		if anchored && kind == path.Absolute {
			childPath = path.New(path.Absolute, segs)
		} else {
			childPath = enclosing.Combine(path.New(kind, segs))
		}
		var body []ast.ObjectStmt
		if p.match(token.INDENT) {
			body = p.parseObjectBody(childPath)
		}
		n := &ast.ObjectDef{Path: childPath, Body: body}
		n.Loc = loc
		return []ast.ObjectStmt{n}
	}
}

func (p *Parser) parseObjectBody(enclosing path.Path) []ast.ObjectStmt {
	var out []ast.ObjectStmt
	for !p.check(token.DEDENT) && !p.isAtEnd() {
		p.skipNewlines()
		if p.check(token.DEDENT) || p.isAtEnd() {
			break
		}
		before := p.pos
		out = append(out, p.parseObjectMember(enclosing)...)
		p.skipNewlines()
		p.checkProgress(before)
	}
	p.match(token.DEDENT)
	return out
}

func (p *Parser) parseProcSignatureAndBody(loc ast.Location, isVerb bool) *ast.ProcDef {
	raw := p.parseSegmentsPath()
	mods, typePath := path.StripModifiers(raw)
	name := typePath.Last()
	p.expect(token.LPAREN, "'(' after proc name")
	params := p.parseParamList()
	p.expect(token.RPAREN, "')' after parameters")
	body := p.parseBlock()
	n := &ast.ProcDef{Name: name, IsVerb: isVerb, IsFinal: mods.Final, Params: params, Body: body}
	n.Loc = loc
	return n
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.check(token.RPAREN) {
		return params
	}
	for {
		raw := p.parseSegmentsPath()
		_, typePath := path.StripModifiers(raw)
		name := typePath.Last()
		declType := typePath.Parent()
		hasType := len(declType.Segments) > 0
		if p.check(token.LBRACKET) && p.peekN(1).Type == token.RBRACKET {
			p.advance()
			p.advance()
		}
		var typeFlags uint32
		if p.match(token.KW_AS) {
			word := p.parseTypeFlagWord()
			for p.match(token.PIPE) {
				word += "|" + p.parseTypeFlagWord()
			}
			typeFlags = uint32(valuetype.ParseFlags(word))
			if p.match(token.KW_IN) {
				p.parseExpression() // constraint list: not modeled on Param, discarded
			}
		}
		var def ast.Expr
		if p.match(token.ASSIGN) {
			def = p.parseExpression()
		}
		params = append(params, ast.Param{Name: name, TypePath: declType, HasType: hasType, Default: def, TypeFlags: typeFlags})
		if !p.match(token.COMMA) {
			break
		}
	}
	return params
}

func (p *Parser) parseTypeFlagWord() string {
	tok := p.peek()
	if text, ok := pathSegmentText(tok); ok {
		p.advance()
		return text
	}
	p.errorAtf(tok, diagnostics.ParseError, "expected type flag name, got %q", tok.Lexeme)
	return ""
}

// --- statement parsing (proc bodies) ---

// parseBlock parses either an INDENT ... DEDENT block, a brace block, or a
// single inline statement (e.g. "if (x) return" with no indented body).
func (p *Parser) parseBlock() []ast.Stmt {
	switch {
	case p.match(token.INDENT):
		var stmts []ast.Stmt
		for !p.check(token.DEDENT) && !p.isAtEnd() {
			p.skipNewlines()
			if p.check(token.DEDENT) || p.isAtEnd() {
				break
			}
			before := p.pos
			if s := p.parseStatement(); s != nil {
				stmts = append(stmts, s)
			} else {
				p.synchronize()
			}
			p.skipNewlines()
			p.checkProgress(before)
		}
		p.match(token.DEDENT)
		return stmts
	case p.match(token.LBRACE):
		var stmts []ast.Stmt
		for !p.check(token.RBRACE) && !p.isAtEnd() {
			p.skipNewlines()
			if p.check(token.RBRACE) {
				break
			}
			before := p.pos
			if s := p.parseStatement(); s != nil {
				stmts = append(stmts, s)
			} else {
				p.synchronize()
			}
			p.skipNewlines()
			p.checkProgress(before)
		}
		p.match(token.RBRACE)
		return stmts
	case p.check(token.NEWLINE) || p.check(token.SEMI):
		// empty body, e.g. "while (x) ;"
		p.skipNewlines()
		return nil
	default:
		if s := p.parseStatement(); s != nil {
			return []ast.Stmt{s}
		}
		return nil
	}
}

// parseStatement parses one proc-body statement. It returns nil only when
// the cursor already sits at a statement terminator; a token that starts
// nothing recognizable is parsed as an expression statement, which reports
// the diagnostic and yields an ast.Invalid operand.
func (p *Parser) parseStatement() ast.Stmt {
	loc := p.loc()

	switch {
	case p.match(token.KW_VAR):
		decls := p.parseVarDeclarators()
		out := make([]ast.Declarator, 0, len(decls))
		for _, d := range decls {
			out = append(out, ast.Declarator{Name: d.name, TypePath: d.typePath, Mods: d.mods, IsList: d.isList, Init: d.init})
		}
		n := &ast.VarDecl{Declarators: out}
		n.Loc = loc
		return n

	case p.match(token.KW_RETURN):
		var val ast.Expr
		if !p.atStatementEnd() {
			val = p.parseExpression()
		}
		n := &ast.Return{Value: val}
		n.Loc = loc
		return n

	case p.match(token.KW_IF):
		return p.parseIf(loc)

	case p.match(token.KW_WHILE):
		return p.parseWhile(loc)

	case p.match(token.KW_DO):
		return p.parseDoWhile(loc)

	case p.match(token.KW_FOR):
		return p.parseFor(loc)

	case p.match(token.KW_SWITCH):
		return p.parseSwitch(loc)

	case p.match(token.KW_BREAK):
		n := &ast.Break{}
		n.Loc = loc
		return n

	case p.match(token.KW_CONTINUE):
		n := &ast.Continue{}
		n.Loc = loc
		return n

	case p.match(token.KW_GOTO):
		name := p.expectIdentLike("label name")
		n := &ast.Goto{Name: name}
		n.Loc = loc
		return n

	case p.match(token.KW_DEL):
		val := p.parseExpression()
		n := &ast.Del{Value: val}
		n.Loc = loc
		return n

	case p.match(token.KW_SPAWN):
		return p.parseSpawn(loc)

	case p.match(token.KW_TRY):
		return p.parseTry(loc)

	case p.match(token.KW_THROW):
		val := p.parseExpression()
		n := &ast.Throw{Value: val}
		n.Loc = loc
		return n

	case p.match(token.KW_SET):
		name := p.expectIdentLike("attribute name")
		p.expect(token.ASSIGN, "'=' in set statement")
		val := p.parseExpression()
		n := &ast.SetAttribute{Name: name, Value: val}
		n.Loc = loc
		return n

	case p.check(token.IDENTIFIER) && p.peekN(1).Type == token.COLON &&
		(p.peekN(2).Type == token.NEWLINE || p.peekN(2).Type == token.DEDENT || p.peekN(2).Type == token.EOF):
		name := p.advance().Lexeme
		p.advance() // ':'
		n := &ast.Label{Name: name}
		n.Loc = loc
		return n

	case p.atStatementEnd():
		return nil

	default:
		expr := p.parseExpression()
		n := &ast.ExprStmt{Value: expr}
		n.Loc = loc
		return n
	}
}

func (p *Parser) parseIf(loc ast.Location) ast.Stmt {
	p.expect(token.LPAREN, "'(' after if")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')' after if condition")
	then := p.parseBlock()
	var els []ast.Stmt
	save := p.pos
	p.skipNewlines()
	if p.match(token.KW_ELSE) {
		if p.check(token.KW_IF) {
			p.advance()
			els = []ast.Stmt{p.parseIf(p.loc())}
		} else {
			els = p.parseBlock()
		}
	} else {
		p.pos = save
	}
	n := &ast.If{Cond: cond, Then: then, Else: els}
	n.Loc = loc
	return n
}

func (p *Parser) parseWhile(loc ast.Location) ast.Stmt {
	p.expect(token.LPAREN, "'(' after while")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')' after while condition")
	body := p.parseBlock()
	n := &ast.While{Cond: cond, Body: body}
	n.Loc = loc
	return n
}

func (p *Parser) parseDoWhile(loc ast.Location) ast.Stmt {
	body := p.parseBlock()
	p.skipNewlines()
	p.expect(token.KW_WHILE, "'while' after do-block")
	p.expect(token.LPAREN, "'(' after while")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')' after while condition")
	n := &ast.DoWhile{Body: body, Cond: cond}
	n.Loc = loc
	return n
}

func (p *Parser) parseFor(loc ast.Location) ast.Stmt {
	p.expect(token.LPAREN, "'(' after for")

	if p.match(token.KW_VAR) {
		raw := p.parsePathLiteral()
		_, typePath := path.StripModifiers(raw)
		name := typePath.Last()
		declType := typePath.Parent()
		hasType := len(declType.Segments) > 0

		if p.match(token.KW_IN) {
			source := p.parseExpression()
			p.expect(token.RPAREN, "')' after for-in source")
			body := p.parseBlock()
			n := &ast.ForIn{
				Var:    ast.ForInVarDecl{Name: name, TypePath: declType, HasType: hasType, IsNew: true},
				Source: source,
				Body:   body,
			}
			n.Loc = loc
			return n
		}

		if p.match(token.ASSIGN) {
			low := p.parseExpression()
			if p.match(token.KW_TO) {
				high := p.parseExpression()
				var step ast.Expr
				if p.match(token.KW_STEP) {
					step = p.parseExpression()
				}
				p.expect(token.RPAREN, "')' after for-range clause")
				body := p.parseBlock()
				n := &ast.ForRange{
					Var:  ast.Declarator{Name: name, TypePath: declType, Init: low},
					Low:  low,
					High: high,
					Step: step,
					Body: body,
				}
				n.Loc = loc
				return n
			}
			initDecl := &ast.VarDecl{Declarators: []ast.Declarator{{Name: name, TypePath: declType, Init: low}}}
			initDecl.Loc = loc
			return p.finishCStyleFor(loc, initDecl)
		}

		initDecl := &ast.VarDecl{Declarators: []ast.Declarator{{Name: name, TypePath: declType}}}
		initDecl.Loc = loc
		return p.finishCStyleFor(loc, initDecl)
	}

	if p.check(token.SEMI) {
		p.advance()
		return p.finishCStyleForAfterInit(loc, nil)
	}

	first := p.parseExpression()
	if p.match(token.KW_IN) {
		source := p.parseExpression()
		p.expect(token.RPAREN, "')' after for-in source")
		body := p.parseBlock()
		name := ""
		if id, ok := first.(*ast.Identifier); ok {
			name = id.Name
		}
		n := &ast.ForIn{Var: ast.ForInVarDecl{Name: name, IsNew: false}, Source: source, Body: body}
		n.Loc = loc
		return n
	}
	initStmt := &ast.ExprStmt{Value: first}
	initStmt.Loc = loc
	return p.finishCStyleFor(loc, initStmt)
}

func (p *Parser) finishCStyleFor(loc ast.Location, init ast.Stmt) ast.Stmt {
	p.expect(token.SEMI, "';' after for-init")
	return p.finishCStyleForAfterInit(loc, init)
}

func (p *Parser) finishCStyleForAfterInit(loc ast.Location, init ast.Stmt) ast.Stmt {
	var cond ast.Expr
	if !p.check(token.SEMI) {
		cond = p.parseExpression()
	}
	p.expect(token.SEMI, "';' after for-condition")
	var post ast.Stmt
	if !p.check(token.RPAREN) {
		pe := p.parseExpression()
		postStmt := &ast.ExprStmt{Value: pe}
		postStmt.Loc = pe.Pos()
		post = postStmt
	}
	p.expect(token.RPAREN, "')' after for-clauses")
	body := p.parseBlock()
	n := &ast.For{Init: init, Cond: cond, Post: post, Body: body}
	n.Loc = loc
	return n
}

func (p *Parser) parseSwitch(loc ast.Location) ast.Stmt {
	p.expect(token.LPAREN, "'(' after switch")
	subject := p.parseExpression()
	p.expect(token.RPAREN, "')' after switch subject")

	closing := token.DEDENT
	opened := p.match(token.INDENT)
	if !opened {
		opened = p.match(token.LBRACE)
		closing = token.RBRACE
	}

	var cases []ast.SwitchCase
	var def []ast.Stmt
	if opened {
		for !p.check(closing) && !p.isAtEnd() {
			p.skipNewlines()
			if p.check(closing) {
				break
			}
			before := p.pos
			switch {
			case p.match(token.KW_CASE):
				values := p.parseCaseValues()
				p.expect(token.COLON, "':' after case values")
				body := p.parseCaseBody(closing)
				cases = append(cases, ast.SwitchCase{Values: values, Body: body})
			case p.match(token.KW_DEFAULT):
				p.expect(token.COLON, "':' after default")
				def = p.parseCaseBody(closing)
			default:
				p.errorAtf(p.peek(), diagnostics.ParseError, "expected 'case' or 'default', got %q", p.peek().Lexeme)
				p.synchronize()
			}
			p.skipNewlines()
			p.checkProgress(before)
		}
		p.match(closing)
	}

	n := &ast.Switch{Subject: subject, Cases: cases, Default: def}
	n.Loc = loc
	return n
}

func (p *Parser) parseCaseValues() []ast.Expr {
	var values []ast.Expr
	for {
		v := p.parseTernary()
		if p.match(token.KW_TO) {
			hi := p.parseTernary()
			rangeNode := &ast.SwitchCaseRange{Low: v, High: hi}
			rangeNode.Loc = v.Pos()
			v = rangeNode
		}
		values = append(values, v)
		if !p.match(token.COMMA) {
			break
		}
	}
	return values
}

func (p *Parser) parseCaseBody(closing token.Type) []ast.Stmt {
	if p.match(token.INDENT) {
		var stmts []ast.Stmt
		for !p.check(token.DEDENT) && !p.isAtEnd() {
			p.skipNewlines()
			if p.check(token.DEDENT) {
				break
			}
			before := p.pos
			if s := p.parseStatement(); s != nil {
				stmts = append(stmts, s)
			} else {
				p.synchronize()
			}
			p.skipNewlines()
			p.checkProgress(before)
		}
		p.match(token.DEDENT)
		return stmts
	}
	var stmts []ast.Stmt
	for !p.check(token.KW_CASE) && !p.check(token.KW_DEFAULT) && !p.check(closing) && !p.isAtEnd() {
		p.skipNewlines()
		if p.check(token.KW_CASE) || p.check(token.KW_DEFAULT) || p.check(closing) {
			break
		}
		before := p.pos
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		} else {
			p.synchronize()
		}
		p.checkProgress(before)
	}
	return stmts
}

func (p *Parser) parseSpawn(loc ast.Location) ast.Stmt {
	var delay ast.Expr
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			delay = p.parseExpression()
		}
		p.expect(token.RPAREN, "')' after spawn delay")
	}
	body := p.parseBlock()
	n := &ast.Spawn{Delay: delay, Body: body}
	n.Loc = loc
	return n
}

func (p *Parser) parseTry(loc ast.Location) ast.Stmt {
	body := p.parseBlock()
	var catchVar string
	var catchBody []ast.Stmt
	save := p.pos
	p.skipNewlines()
	if p.match(token.KW_CATCH) {
		if p.match(token.LPAREN) {
			if !p.check(token.RPAREN) {
				catchVar = p.expectIdentLike("catch variable")
			}
			p.expect(token.RPAREN, "')' after catch variable")
		}
		catchBody = p.parseBlock()
	} else {
		p.pos = save
	}
	n := &ast.Try{Body: body, CatchVar: catchVar, Catch: catchBody}
	n.Loc = loc
	return n
}

// --- expression parsing ---

var assignOps = map[token.Type]ast.AssignmentOperator{
	token.ASSIGN:      ast.Assign,
	token.ASSIGN_INTO: ast.AssignInto,
	token.PLUS_EQ:     ast.AddAssign,
	token.MINUS_EQ:    ast.SubtractAssign,
	token.STAR_EQ:     ast.MultiplyAssign,
	token.SLASH_EQ:    ast.DivideAssign,
	token.PERCENT_EQ:  ast.ModuloAssign,
	token.AND_EQ:      ast.BitAndAssign,
	token.OR_EQ:       ast.BitOrAssign,
	token.XOR_EQ:      ast.BitXorAssign,
	token.SHL_EQ:      ast.ShiftLeftAssign,
	token.SHR_EQ:      ast.ShiftRightAssign,
	token.AND_AND_EQ:  ast.LogicalAndAssign,
	token.OR_OR_EQ:    ast.LogicalOrAssign,
}

// parseExpression is the entry point for any expression context, tracking
// recursion depth per spec §4.1's RecursionGuard.
func (p *Parser) parseExpression() ast.Expr {
	p.exprDepth++
	defer func() { p.exprDepth-- }()
	if p.exprDepth > p.opts.MaxExprDepth {
		tok := p.peek()
		p.errorAt(tok, diagnostics.MaxDepthExceeded, "expression nesting too deep")
		n := &ast.Invalid{Reason: "max expression recursion depth exceeded"}
		n.Loc = p.locAt(tok)
		return n
	}
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	loc := p.loc()
	left := p.parseTernary()
	if op, ok := assignOps[p.peek().Type]; ok {
		p.advance()
		right := p.parseAssignment()
		n := &ast.Assign{Op: op, Target: left, Value: right}
		n.Loc = loc
		return n
	}
	return left
}

func (p *Parser) parseTernary() ast.Expr {
	loc := p.loc()
	cond := p.parseLogicalOr()
	if p.match(token.QUESTION) {
		then := p.parseTernary()
		p.expect(token.COLON, "':' in ternary expression")
		els := p.parseTernary()
		n := &ast.Ternary{Cond: cond, Then: then, Else: els}
		n.Loc = loc
		return n
	}
	return cond
}

func (p *Parser) parseBinaryLevel(next func() ast.Expr, ops map[token.Type]ast.BinaryOperator) ast.Expr {
	loc := p.loc()
	left := next()
	for {
		op, ok := ops[p.peek().Type]
		if !ok {
			break
		}
		p.advance()
		right := next()
		n := &ast.Binary{Op: op, Left: left, Right: right}
		n.Loc = loc
		left = n
	}
	return left
}

var logicalOrOps = map[token.Type]ast.BinaryOperator{token.OR_OR: ast.LogicalOr}
var logicalAndOps = map[token.Type]ast.BinaryOperator{token.AND_AND: ast.LogicalAnd}
var bitOrOps = map[token.Type]ast.BinaryOperator{token.PIPE: ast.BitwiseOr}
var bitXorOps = map[token.Type]ast.BinaryOperator{token.CARET: ast.BitwiseXor}
var bitAndOps = map[token.Type]ast.BinaryOperator{token.AMP: ast.BitwiseAnd}
var equalityOps = map[token.Type]ast.BinaryOperator{
	token.EQ: ast.Equal, token.NEQ: ast.NotEqual,
	token.TILDE_EQ: ast.Equal, token.TILDE_NEQ: ast.NotEqual,
}
var relationalOps = map[token.Type]ast.BinaryOperator{
	token.LT: ast.Less, token.LTE: ast.LessOrEqual,
	token.GT: ast.Greater, token.GTE: ast.GreaterOrEqual,
	token.KW_IN: ast.In,
}
var shiftOps = map[token.Type]ast.BinaryOperator{token.SHL: ast.LeftShift, token.SHR: ast.RightShift}
var additiveOps = map[token.Type]ast.BinaryOperator{token.PLUS: ast.Add, token.MINUS: ast.Subtract}
var multiplicativeOps = map[token.Type]ast.BinaryOperator{
	token.STAR: ast.Multiply, token.SLASH: ast.Divide, token.PERCENT: ast.Modulo,
}

func (p *Parser) parseLogicalOr() ast.Expr  { return p.parseBinaryLevel(p.parseLogicalAnd, logicalOrOps) }
func (p *Parser) parseLogicalAnd() ast.Expr { return p.parseBinaryLevel(p.parseBitwiseOr, logicalAndOps) }
func (p *Parser) parseBitwiseOr() ast.Expr  { return p.parseBinaryLevel(p.parseBitwiseXor, bitOrOps) }
func (p *Parser) parseBitwiseXor() ast.Expr { return p.parseBinaryLevel(p.parseBitwiseAnd, bitXorOps) }
func (p *Parser) parseBitwiseAnd() ast.Expr { return p.parseBinaryLevel(p.parseEquality, bitAndOps) }
func (p *Parser) parseEquality() ast.Expr   { return p.parseBinaryLevel(p.parseRelational, equalityOps) }
func (p *Parser) parseRelational() ast.Expr { return p.parseBinaryLevel(p.parseShift, relationalOps) }
func (p *Parser) parseShift() ast.Expr      { return p.parseBinaryLevel(p.parseAdditive, shiftOps) }
func (p *Parser) parseAdditive() ast.Expr   { return p.parseBinaryLevel(p.parseMultiplicative, additiveOps) }
func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseBinaryLevel(p.parsePower, multiplicativeOps)
}

// parsePower is right-associative, unlike every other binary level.
func (p *Parser) parsePower() ast.Expr {
	loc := p.loc()
	base := p.parseUnary()
	if p.match(token.POWER) {
		exp := p.parsePower()
		n := &ast.Binary{Op: ast.Power, Left: base, Right: exp}
		n.Loc = loc
		return n
	}
	return base
}

func (p *Parser) parseUnary() ast.Expr {
	loc := p.loc()
	switch {
	case p.match(token.MINUS):
		n := &ast.Unary{Op: ast.Negate, Operand: p.parseUnary()}
		n.Loc = loc
		return n
	case p.match(token.BANG):
		n := &ast.Unary{Op: ast.BooleanNot, Operand: p.parseUnary()}
		n.Loc = loc
		return n
	case p.match(token.TILDE):
		n := &ast.Unary{Op: ast.BitNot, Operand: p.parseUnary()}
		n.Loc = loc
		return n
	case p.match(token.PLUSPLUS):
		n := &ast.Unary{Op: ast.PreIncrement, Operand: p.parseUnary()}
		n.Loc = loc
		return n
	case p.match(token.MINUSMINUS):
		n := &ast.Unary{Op: ast.PreDecrement, Operand: p.parseUnary()}
		n.Loc = loc
		return n
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		loc := expr.Pos()
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr, loc)
		case p.match(token.DOT):
			field := p.expectIdentLike("field name")
			n := &ast.DereferenceField{Target: expr, Field: field, Safe: false}
			n.Loc = loc
			expr = n
		case p.match(token.QDOT):
			field := p.expectIdentLike("field name")
			n := &ast.DereferenceField{Target: expr, Field: field, Safe: true}
			n.Loc = loc
			expr = n
		case p.match(token.COLON):
			field := p.expectIdentLike("field name")
			n := &ast.DereferenceField{Target: expr, Field: field, Safe: false}
			n.Loc = loc
			expr = n
		case p.match(token.LBRACKET):
			idx := p.parseExpression()
			p.expect(token.RBRACKET, "']' after index")
			n := &ast.DereferenceIndex{Target: expr, Index: idx}
			n.Loc = loc
			expr = n
		case p.match(token.PLUSPLUS):
			n := &ast.Unary{Op: ast.PostIncrement, Operand: expr}
			n.Loc = loc
			expr = n
		case p.match(token.MINUSMINUS):
			n := &ast.Unary{Op: ast.PostDecrement, Operand: expr}
			n.Loc = loc
			expr = n
		default:
			return expr
		}
	}
}

// parseCallArgList parses a comma-separated argument list up to (but not
// consuming) the closing token already expected by the caller.
func (p *Parser) parseCallArgList() []ast.CallArg {
	var args []ast.CallArg
	if p.check(token.RPAREN) {
		return args
	}
	for {
		var name string
		if p.check(token.IDENTIFIER) && p.peekN(1).Type == token.ASSIGN {
			name = p.advance().Lexeme
			p.advance()
		}
		val := p.parseExpression()
		args = append(args, ast.CallArg{Name: name, Value: val})
		if !p.match(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) finishCall(callee ast.Expr, loc ast.Location) ast.Expr {
	args := p.parseCallArgList()
	p.expect(token.RPAREN, "')' after arguments")
	n := &ast.Call{Callee: callee, Args: args}
	n.Loc = loc
	return n
}

func (p *Parser) parsePrimary() ast.Expr {
	loc := p.loc()
	tok := p.peek()

	switch {
	case p.match(token.INT):
		v, _ := tok.Literal.(int64)
		return ast.NewConstantInt(loc, v)

	case p.match(token.FLOAT):
		v, _ := tok.Literal.(float64)
		return ast.NewConstantFloat(loc, v)

	case p.match(token.STRING):
		s, _ := tok.Literal.(string)
		n := &ast.ConstantString{Value: s}
		n.Loc = loc
		return n

	case p.match(token.INTERP_STRING_BEGIN):
		return p.parseInterpolatedString(tok, loc)

	case p.match(token.RESOURCE):
		s, _ := tok.Literal.(string)
		n := &ast.ConstantResource{Value: s}
		n.Loc = loc
		return n

	case p.match(token.KW_NULL):
		n := &ast.ConstantNull{}
		n.Loc = loc
		return n

	case p.match(token.KW_TRUE):
		return ast.NewConstantInt(loc, 1)

	case p.match(token.KW_FALSE):
		return ast.NewConstantInt(loc, 0)

	case p.match(token.LPAREN):
		expr := p.parseExpression()
		p.expect(token.RPAREN, "')' after expression")
		return expr

	case p.match(token.KW_LIST):
		return p.parseListLiteral(loc)

	case p.match(token.KW_NEWLIST):
		return p.parseNewList(loc)

	case p.match(token.KW_NEW):
		return p.parseNewPath(loc)

	case p.match(token.KW_INPUT):
		return p.parseInputExpr(loc)

	case p.match(token.KW_CALL):
		return p.parseDynamicCall(loc)

	case p.isPathAnchor():
		pth := p.parsePathLiteral()
		n := &ast.ConstantPath{Value: pth}
		n.Loc = loc
		return n

	case p.match(token.KW_SRC), p.match(token.KW_USR), p.match(token.KW_ARGS),
		p.match(token.KW_WORLD), p.match(token.KW_GLOBAL):
		n := &ast.Identifier{Name: p.previous().Lexeme}
		n.Loc = loc
		return n

	case p.match(token.IDENTIFIER):
		n := &ast.Identifier{Name: p.previous().Lexeme}
		n.Loc = loc
		return n

	default:
		p.errorAtf(tok, diagnostics.ParseError, "unexpected token %q", tok.Lexeme)
		if !p.isAtEnd() {
			p.advance()
		}
		n := &ast.Invalid{Reason: "unexpected token " + string(tok.Type)}
		n.Loc = loc
		return n
	}
}

// parseInterpolatedString consumes the BEGIN token's text then alternates
// expression/MID until END, per the lexer's emitInterpolatedParts encoding
// (spec §1, ambient lexer collaborator): no explicit delimiter token
// separates an embedded expression from the MID/END that follows it — the
// parser simply parses one expression after BEGIN/MID and expects the next
// token to be MID or END.
func (p *Parser) parseInterpolatedString(begin token.Token, loc ast.Location) ast.Expr {
	text, _ := begin.Literal.(string)
	parts := []ast.InterpPart{{Text: text}}
	for {
		expr := p.parseExpression()
		parts = append(parts, ast.InterpPart{Expr: expr})
		switch {
		case p.match(token.INTERP_STRING_END):
			t, _ := p.previous().Literal.(string)
			parts = append(parts, ast.InterpPart{Text: t})
			n := &ast.InterpolatedString{Parts: parts}
			n.Loc = loc
			return n
		case p.match(token.INTERP_STRING_MID):
			t, _ := p.previous().Literal.(string)
			parts = append(parts, ast.InterpPart{Text: t})
			continue
		default:
			p.errorAtf(p.peek(), diagnostics.ParseError, "unterminated interpolated string")
			n := &ast.InterpolatedString{Parts: parts}
			n.Loc = loc
			return n
		}
	}
}

func (p *Parser) parseListLiteral(loc ast.Location) ast.Expr {
	p.expect(token.LPAREN, "'(' after list")
	var items []ast.ListItem
	if !p.check(token.RPAREN) {
		for {
			first := p.parseExpression()
			if p.match(token.ASSIGN) {
				val := p.parseExpression()
				items = append(items, ast.ListItem{Key: first, Value: val})
			} else {
				items = append(items, ast.ListItem{Value: first})
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN, "')' after list items")
	n := &ast.ListLiteral{Items: items}
	n.Loc = loc
	return n
}

func (p *Parser) parseNewList(loc ast.Location) ast.Expr {
	p.expect(token.LPAREN, "'(' after newlist")
	var typeArgs []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			typeArgs = append(typeArgs, p.parseExpression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN, "')' after newlist arguments")
	n := &ast.NewList{TypeArgs: typeArgs}
	n.Loc = loc
	return n
}

func (p *Parser) parseNewPath(loc ast.Location) ast.Expr {
	var typePathPtr *path.Path
	var pathExpr ast.Expr
	switch {
	case p.isPathAnchor():
		pp := p.parsePathLiteral()
		typePathPtr = &pp
	case !p.check(token.LPAREN):
		pathExpr = p.parseUnary()
	}
	var args []ast.CallArg
	if p.match(token.LPAREN) {
		args = p.parseCallArgList()
		p.expect(token.RPAREN, "')' after new arguments")
	}
	n := &ast.NewPath{TypePath: typePathPtr, PathExpr: pathExpr, Args: args}
	n.Loc = loc
	return n
}

func (p *Parser) parseInputExpr(loc ast.Location) ast.Expr {
	p.expect(token.LPAREN, "'(' after input")
	message := p.parseExpression()
	var title, def ast.Expr
	if p.match(token.COMMA) {
		title = p.parseExpression()
	}
	if p.match(token.COMMA) {
		def = p.parseExpression()
	}
	p.expect(token.RPAREN, "')' after input arguments")
	var typeFlags uint32
	var inList ast.Expr
	if p.match(token.KW_AS) {
		word := p.parseTypeFlagWord()
		for p.match(token.PIPE) {
			word += "|" + p.parseTypeFlagWord()
		}
		typeFlags = uint32(valuetype.ParseFlags(word))
	}
	if p.match(token.KW_IN) {
		inList = p.parseExpression()
	}
	n := &ast.InputExpr{Message: message, Title: title, Default: def, TypeFlags: typeFlags, InList: inList}
	n.Loc = loc
	return n
}

// parseDynamicCall parses "call(proc_name)(args)" or
// "call(receiver, proc_name)(args)".
func (p *Parser) parseDynamicCall(loc ast.Location) ast.Expr {
	p.expect(token.LPAREN, "'(' after call")
	first := p.parseExpression()
	var second ast.Expr
	if p.match(token.COMMA) {
		second = p.parseExpression()
	}
	p.expect(token.RPAREN, "')' after call target")
	p.expect(token.LPAREN, "'(' for call arguments")
	callArgs := p.parseCallArgList()
	p.expect(token.RPAREN, "')' after call arguments")

	target := []ast.CallArg{{Value: first}}
	if second != nil {
		target = append(target, ast.CallArg{Value: second})
	}
	n := &ast.Call{IsDynamicCall: true, CallTarget: target, CallArgs: callArgs}
	n.Loc = loc
	return n
}
