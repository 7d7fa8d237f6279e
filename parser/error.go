package parser

import (
	"fmt"

	"dmcompiler/diagnostics"
	"dmcompiler/token"
)

// locOf converts a token's position into a diagnostics.Location tagged with
// the parser's source file.
func (p *Parser) locOf(t token.Token) diagnostics.Location {
	return diagnostics.Location{File: p.file, Line: t.Line, Column: t.Column}
}

// errorAt reports a diagnostic at t's position through the parser's sink
// and returns it, so callers can inspect it if needed.
func (p *Parser) errorAt(t token.Token, kind diagnostics.Kind, message string) diagnostics.Diagnostic {
	d := diagnostics.New(kind, p.locOf(t), message)
	p.sink.Report(d)
	return d
}

// errorAtf is errorAt with a formatted message.
func (p *Parser) errorAtf(t token.Token, kind diagnostics.Kind, format string, args ...any) diagnostics.Diagnostic {
	return p.errorAt(t, kind, fmt.Sprintf(format, args...))
}

// warnAt reports a Warning-severity diagnostic at t's position.
func (p *Parser) warnAt(t token.Token, kind diagnostics.Kind, message string) {
	p.sink.Report(diagnostics.Warn(kind, p.locOf(t), message))
}
