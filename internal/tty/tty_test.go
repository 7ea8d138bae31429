// Package tty_test exercises the console's raw-mode setup.
//
// The test is skipped when stdin is not a terminal (ErrNoTTY). Notably, this
// includes when run with "go test" because it redirects tests' standard
// input/output streams. You can test it by building a test binary and
// running it directly:
//
//	$ go test -c && ./tty.test
package tty_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/druxorey/project-lucario/internal/tty"
	"github.com/druxorey/project-lucario/internal/vm"
)

const timeout = 100 * time.Millisecond

func TestMonitor(t *testing.T) {
	console, err := tty.NewConsole(os.Stdin, os.Stdout)
	if errors.Is(err, tty.ErrNoTTY) {
		t.Skipf("error: %s", err)
	}

	if err != nil {
		t.Fatalf("NewConsole: %s", err)
	}

	defer console.Restore()

	machine := vm.New()
	defer machine.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := console.Monitor(ctx, machine); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Monitor: %s", err)
	}
}
