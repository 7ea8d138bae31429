package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/log"
	"github.com/druxorey/project-lucario/internal/vm"
)

// Restart returns the "restart" command: it builds a machine, resets it,
// and reports the outcome. There is no long-lived daemon for the core to
// attach to, so this exercises vm.Machine.Reset directly rather than
// signaling an external process.
func Restart() cli.Command { return restart{} }

type restart struct{}

func (restart) Description() string { return "reset a machine's register file" }

func (restart) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "restart\n\nResets a machine to its initial register state.\n")
	return err
}

func (restart) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("restart", flag.ExitOnError)
}

func (restart) Run(_ context.Context, _ []string, out io.Writer, logger *log.Logger) int {
	machine := vm.New(vm.WithLogger(logger))
	defer machine.Shutdown()

	if err := machine.Reset(); err != nil {
		logger.Error("restart failed", "err", err)
		return 1
	}

	fmt.Fprintln(out, "machine reset")

	return 0
}

// Shutdown returns the "shutdown" command: it stops a machine's DMA worker
// cleanly.
func Shutdown() cli.Command { return shutdown{} }

type shutdown struct{}

func (shutdown) Description() string { return "stop a machine's DMA worker" }

func (shutdown) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "shutdown\n\nStops a machine's background DMA worker.\n")
	return err
}

func (shutdown) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("shutdown", flag.ExitOnError)
}

func (shutdown) Run(_ context.Context, _ []string, out io.Writer, logger *log.Logger) int {
	machine := vm.New(vm.WithLogger(logger))
	machine.Shutdown()

	fmt.Fprintln(out, "machine shut down")

	return 0
}
