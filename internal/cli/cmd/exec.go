package cmd

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/image"
	"github.com/druxorey/project-lucario/internal/loader"
	"github.com/druxorey/project-lucario/internal/log"
	"github.com/druxorey/project-lucario/internal/vm"
)

// Executor returns the "run" command, which loads one or more program
// images and runs them to completion.
func Executor() cli.Command {
	return &executor{log: log.DefaultLogger()}
}

type executor struct {
	logLevel slog.Level
	log      *log.Logger
}

func (executor) Description() string {
	return "load and run one or more program images"
}

func (executor) Usage(out io.Writer) error {
	_, err := io.WriteString(out, `run program.img [program.img...]

Loads each program image in turn and runs it to completion or halt.
`)

	return err
}

func (ex *executor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return ex.logLevel.UnmarshalText([]byte(s))
	})

	return fs
}

// Run loads each named program image and runs it on a fresh machine to
// completion or halt, logging the outcome of each.
func (ex *executor) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	log.LogLevel.Set(ex.logLevel)

	if len(args) == 0 {
		logger.Error("run: at least one program image is required")
		return 1
	}

	machine := vm.New(vm.WithLogger(logger))
	defer machine.Shutdown()

	exit := 0

	for _, fn := range args {
		if err := ex.runOne(ctx, machine, fn, logger); err != nil {
			logger.Error("program failed", "file", fn, "err", err)
			exit = 1
		}
	}

	return exit
}

func (ex *executor) runOne(ctx context.Context, machine *vm.Machine, fn string, logger *log.Logger) error {
	img, err := ex.loadImage(fn)
	if err != nil {
		return err
	}

	if err := loader.Load(machine, img); err != nil {
		return err
	}

	logger.Info("loaded program", "file", fn, "name", img.Name, "words", len(img.Words))

	err = machine.Run(ctx)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Warn("run interrupted", "file", fn, "err", err)
		return err
	case err != nil:
		return err
	default:
		logger.Info("program halted", "file", fn, "pc", machine.PC, "ac", machine.AC)
		return nil
	}
}

func (ex *executor) loadImage(fn string) (image.Program, error) {
	ex.log.Debug("reading program image", "file", fn)

	file, err := os.Open(fn)
	if err != nil {
		return image.Program{}, err
	}
	defer file.Close()

	return image.Parse(file)
}
