// Command lucario is the command-line interface to the emulator: a
// decimal-word educational computer.
package main

import (
	"context"
	"os"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Executor(),
	cmd.Debugger(),
	cmd.List(),
	cmd.Monitor(),
	cmd.Restart(),
	cmd.Shutdown(),
}

func main() {
	all := append(append([]cli.Command(nil), commands...), cmd.Commands(commands))

	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(all).
			WithHelp(cmd.Help(all)).
			Execute(os.Args[1:])

	os.Exit(result)
}
