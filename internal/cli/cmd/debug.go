package cmd

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/image"
	"github.com/druxorey/project-lucario/internal/loader"
	"github.com/druxorey/project-lucario/internal/log"
	"github.com/druxorey/project-lucario/internal/vm"
)

// Debugger returns the "debug" command: it loads a single program image and
// runs it with per-step register state logged at Debug level.
func Debugger() cli.Command { return &debugger{} }

type debugger struct{}

func (*debugger) Description() string { return "run a program image with per-step tracing" }

func (*debugger) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "debug program.img\n\nRuns a program image, logging register state after every step.\n")
	return err
}

func (*debugger) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("debug", flag.ExitOnError)
}

func (*debugger) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("debug: exactly one program image is required")
		return 1
	}

	log.LogLevel.Set(log.Debug)

	file, err := os.Open(args[0])
	if err != nil {
		logger.Error("debug: cannot open image", "file", args[0], "err", err)
		return 1
	}
	defer file.Close()

	img, err := image.Parse(file)
	if err != nil {
		logger.Error("debug: cannot parse image", "file", args[0], "err", err)
		return 1
	}

	machine := vm.New(vm.WithLogger(logger))
	defer machine.Shutdown()

	if err := loader.Load(machine, img); err != nil {
		logger.Error("debug: cannot load image", "file", args[0], "err", err)
		return 1
	}

	if err := machine.Run(ctx); err != nil {
		logger.Error("debug: run failed", "err", err)
		return 1
	}

	return 0
}
