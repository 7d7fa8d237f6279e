package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"dmcompiler/compileopts"
	"dmcompiler/parser"
)

// parseCmd implements phase P1 only: lex + parse a .dm source file and dump
// its AST as JSON, mirroring the teacher's own astPrinter-driven debug
// output (parser/printer.go).
type parseCmd struct {
	outPath string
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "Parse a DM source file and print its AST as JSON" }
func (*parseCmd) Usage() string {
	return `parse <file.dm>:
  Lex and parse a DM source file, printing its AST as JSON. Parse
  diagnostics are written to stderr; a parse error does not prevent the
  partial AST from being printed (spec §7: partial trees with invalid-
  expression placeholders).
`
}

func (p *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.outPath, "o", "", "write the AST JSON to this file instead of stdout")
}

func (p *parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "parse: no source file given\n")
		return subcommands.ExitUsageError
	}
	srcPath := args[0]
	data, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: reading %s: %v\n", srcPath, err)
		return subcommands.ExitFailure
	}

	opts := compileopts.Default()
	opts.Logger = newLogger()
	file, sink, err := parseSource(string(data), srcPath, opts.WithDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		return subcommands.ExitFailure
	}

	printDiagnostics(sink)

	if p.outPath != "" {
		if err := parser.WriteASTJSONToFile(file, p.outPath); err != nil {
			fmt.Fprintf(os.Stderr, "parse: writing AST: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		out, err := parser.PrintASTJSON(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse: rendering AST: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(out)
	}

	if sink.HasErrors() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
