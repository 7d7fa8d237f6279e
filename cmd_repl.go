package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"dmcompiler/bytecode"
	"dmcompiler/compileopts"
)

// replCmd is an interactive line-at-a-time driver for the pipeline: each
// line is wrapped as the body of a throwaway "/proc/__repl__()" and run
// through the full parse/fold/build/compile pipeline, printing diagnostics
// and a disassembly of the resulting bytecode. Line editing and history
// are provided by the teacher's own chzyer/readline dependency.
type replCmd struct {
	disassemble bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Interactively compile DM proc-body statements" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Each line is compiled as a standalone
  proc body and its bytecode disassembly is printed. Type "exit" to quit.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.disassemble, "disassemble", true, "print a disassembly of each compiled line")
}

const replBanner = `
DM compiler core REPL. Each line compiles as one proc-body statement.
Type "exit" or Ctrl-D to quit.
`

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Print(replBanner)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "/tmp/dmcompiler_repl_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	opts := compileopts.Default().WithDefaults()
	opts.Logger = newLogger()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "repl: %v\n", err)
			return subcommands.ExitFailure
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" {
			return subcommands.ExitSuccess
		}

		src := "/proc/__repl__()\n\t" + line + "\n"
		tree, sink, ok, err := compileSource(src, "<repl>", opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printDiagnostics(sink)
		if !ok {
			continue
		}

		procID, found := tree.GetProc(0, "__repl__")
		if !found {
			fmt.Fprintln(os.Stderr, "repl: internal: __repl__ proc vanished")
			continue
		}
		proc := tree.Proc(procID)

		if r.disassemble {
			text, err := bytecode.Disassemble(proc.Bytecode)
			if err != nil {
				fmt.Fprintf(os.Stderr, "repl: disassembling: %v\n", err)
				continue
			}
			fmt.Printf("max_stack=%d\n%s", proc.MaxStack, text)
		}
	}
}
