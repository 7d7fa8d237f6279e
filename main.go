// Command dmcompiler drives the DM compiler core's pipeline (lexer input ->
// parser -> constant folder -> object-tree builder -> expression/statement
// compiler) from the command line, following the teacher's (informatter-nilan)
// subcommand-per-entry-point shape: main.go only registers subcommands and
// dispatches, every subcommand's own logic lives in its cmd_*.go file.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&parseCmd{}, "")
	subcommands.Register(&emitBytecodeCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
