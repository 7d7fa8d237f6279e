package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"dmcompiler/ast"
	"dmcompiler/compileopts"
	"dmcompiler/compiler"
	"dmcompiler/constfold"
	"dmcompiler/diagnostics"
	"dmcompiler/lexer"
	"dmcompiler/objtree"
	"dmcompiler/parser"
)

// parseSource runs P1 (lex + parse) over src, returning the raw AST before
// constant folding. Every parse-time diagnostic lands in sink.
func parseSource(src, filename string, opts compileopts.Options) (*ast.File, *diagnostics.Sink, error) {
	lex := lexer.New(src)
	tokens, err := lex.Scan()
	if err != nil {
		return nil, nil, fmt.Errorf("lexing %s: %w", filename, err)
	}

	sink := diagnostics.NewSink(opts.Logger)
	p := parser.New(tokens, filename, sink, opts)
	file := p.Parse()
	return file, sink, nil
}

// compileSource runs the full pipeline (spec §2): P1 parse, the free
// constant-folding pass between P1/P2, P2 CodeTreeBuilder population, then
// P4a/P4b expression/statement compilation of every proc shell the builder
// collected.
func compileSource(src, filename string, opts compileopts.Options) (*objtree.ObjectTree, *diagnostics.Sink, bool, error) {
	opts = opts.WithDefaults()

	file, sink, err := parseSource(src, filename, opts)
	if err != nil {
		return nil, nil, false, err
	}
	file = constfold.Fold(file)

	tree := objtree.New()
	builder := objtree.NewCodeTreeBuilder(tree, sink, opts.Logger)
	builder.Build(file)

	comp := compiler.New(tree, sink, opts.Logger, opts)
	ok := comp.CompileAll() && !sink.HasErrors()
	return tree, sink, ok, nil
}

// printDiagnostics writes every diagnostic in sink to stderr, one per line.
func printDiagnostics(sink *diagnostics.Sink) {
	for _, d := range sink.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}

func newLogger() logrus.FieldLogger {
	return logrus.StandardLogger()
}
