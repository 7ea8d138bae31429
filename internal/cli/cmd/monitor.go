package cmd

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/log"
	"github.com/druxorey/project-lucario/internal/tty"
	"github.com/druxorey/project-lucario/internal/vm"
)

// Monitor returns the "monitor" command: a thin, out-of-scope contract
// stub that attaches a raw-mode console to a freshly created machine.
func Monitor() cli.Command { return monitor{} }

type monitor struct{}

func (monitor) Description() string { return "attach an interactive register monitor" }

func (monitor) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "monitor\n\nAttaches a raw-mode console that prints register state.\n")
	return err
}

func (monitor) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("monitor", flag.ExitOnError)
}

func (monitor) Run(ctx context.Context, _ []string, _ io.Writer, logger *log.Logger) int {
	console, err := tty.NewConsole(os.Stdin, os.Stdout)
	if err != nil {
		logger.Error("monitor: cannot attach console", "err", err)
		return 1
	}
	defer console.Restore()

	machine := vm.New(vm.WithLogger(logger))
	defer machine.Shutdown()

	if err := console.Monitor(ctx, machine); err != nil {
		logger.Error("monitor exited", "err", err)
		return 1
	}

	return 0
}
