package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/druxorey/project-lucario/internal/cli"
	"github.com/druxorey/project-lucario/internal/log"
)

// List returns the "list" command. Directory listing is out of scope for
// the core; this is a one-line stdlib stand-in, not an authoritative image
// catalog.
func List() cli.Command { return list{} }

type list struct{}

func (list) Description() string { return "list the files in a directory" }

func (list) Usage(out io.Writer) error {
	_, err := io.WriteString(out, "list [dir]\n\nLists files in dir (default \".\").\n")
	return err
}

func (list) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("list", flag.ExitOnError)
}

func (list) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("list: cannot read directory", "dir", dir, "err", err)
		return 1
	}

	for _, e := range entries {
		if !e.IsDir() {
			fmt.Fprintln(out, e.Name())
		}
	}

	return 0
}
