package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/log"
)

// Commands returns the "commands" command: it prints the name of every
// other registered command, one per line.
func Commands(cmds []cli.Command) cli.Command {
	return commands{cmds: cmds}
}

type commands struct {
	cmds []cli.Command
}

func (commands) Description() string { return "list available commands" }

func (commands) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "commands\n\nLists the names of all available commands.\n")
	return err
}

func (commands) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("commands", flag.ExitOnError)
}

func (c commands) Run(_ context.Context, _ []string, out io.Writer, _ *log.Logger) int {
	for _, cmd := range c.cmds {
		fmt.Fprintln(out, cmd.FlagSet().Name())
	}

	return 0
}
