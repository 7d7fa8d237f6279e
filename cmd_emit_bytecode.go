package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"dmcompiler/bytecode"
	"dmcompiler/compileopts"
)

// emitBytecodeCmd runs the full pipeline (P1-P4b) and emits the resulting
// per-proc bytecode, optionally disassembled via bytecode.Disassemble,
// mirroring the teacher's own emit subcommand (cmd_emit_bytecode.go) shape.
type emitBytecodeCmd struct {
	disassemble  bool
	dumpBytecode bool
	outDir       string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Compile a DM source file and emit its bytecode"
}
func (*emitBytecodeCmd) Usage() string {
	return `emit <file.dm>:
  Run the full pipeline and emit every proc's bytecode. By default both a
  raw .dmbc dump and a .dmasm disassembly are written next to the input
  file (or into -o if given).
`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "write a disassembly listing (.dmasm) per proc")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the raw bytecode (.dmbc) per proc")
	f.StringVar(&cmd.outDir, "o", "", "directory to write output files to (default: alongside the input file)")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "emit: no source file given\n")
		return subcommands.ExitUsageError
	}
	srcPath := args[0]
	data, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emit: reading %s: %v\n", srcPath, err)
		return subcommands.ExitFailure
	}

	opts := compileopts.Default()
	opts.Logger = newLogger()

	tree, sink, ok, err := compileSource(string(data), srcPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emit: %v\n", err)
		return subcommands.ExitFailure
	}
	printDiagnostics(sink)
	if !ok {
		fmt.Fprintf(os.Stderr, "emit: compilation failed\n")
		return subcommands.ExitFailure
	}

	base := strings.TrimSuffix(srcPath, ".dm")
	if cmd.outDir != "" {
		parts := strings.Split(base, string(os.PathSeparator))
		base = cmd.outDir + string(os.PathSeparator) + parts[len(parts)-1]
	}

	for _, proc := range tree.AllProcs {
		owner := tree.Object(proc.Owner)
		label := fmt.Sprintf("%s/%s", owner.Path.String(), proc.Name)

		if cmd.dumpBytecode {
			outPath := fmt.Sprintf("%s.%d.dmbc", base, proc.ID)
			if err := os.WriteFile(outPath, proc.Bytecode, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "emit: writing %s: %v\n", outPath, err)
				return subcommands.ExitFailure
			}
		}

		if cmd.disassemble {
			text, err := bytecode.Disassemble(proc.Bytecode)
			if err != nil {
				fmt.Fprintf(os.Stderr, "emit: disassembling %s: %v\n", label, err)
				return subcommands.ExitFailure
			}
			outPath := fmt.Sprintf("%s.%d.dmasm", base, proc.ID)
			header := fmt.Sprintf("; %s (max_stack=%d)\n", label, proc.MaxStack)
			if err := os.WriteFile(outPath, []byte(header+text), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "emit: writing %s: %v\n", outPath, err)
				return subcommands.ExitFailure
			}
		}
	}

	fmt.Printf("emit: compiled %d proc(s), %d object(s), %d interned string(s)\n",
		len(tree.AllProcs), len(tree.AllObjects), tree.Strings.Len())
	return subcommands.ExitSuccess
}
