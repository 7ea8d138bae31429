// Package tty provides a raw-mode terminal console for the monitor command.
// The monitor itself — an interactive debugger over a running machine — is
// out of scope for this core; Console only carries the raw-mode terminal
// plumbing the teacher used for its console, adapted to print register
// state and accept single-key commands instead of driving a keyboard/
// display device pair this machine does not have.
package tty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/druxorey/project-lucario/internal/vm"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a raw-mode terminal bound to a machine: key presses arrive on
// keyCh, and Monitor prints a compact register dump after every key press.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	keyCh chan byte
}

// ErrNoTTY is returned if standard input is not a terminal. In this case,
// the monitor's single-key commands are not supported.
var ErrNoTTY error = errors.New("console: not a TTY")

// NewConsole creates a Console using the provided streams. If the input
// stream is not a terminal, ErrNoTTY is returned. Callers must call Restore
// to return the terminal to its initial state.
func NewConsole(sin, sout *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	cons := &Console{
		fd:    fd,
		in:    sin,
		out:   term.NewTerminal(sout, ""),
		state: saved,
		keyCh: make(chan byte, 1),
	}

	if err := cons.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return cons, nil
}

// Restore returns the terminal to its initial state and cancels in-progress
// reads.
func (c *Console) Restore() {
	_ = c.in.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = c.in.SetReadDeadline(time.Time{})

	return nil
}

// readKeys reads bytes from the terminal and writes them to the key
// channel until the context is cancelled.
func (c *Console) readKeys(ctx context.Context, cancel context.CancelCauseFunc) {
	buf := bufio.NewReader(c.in)
	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			cancel(err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case c.keyCh <- b:
		}
	}
}

// Monitor runs the minimal out-of-scope monitor contract: it prints the
// machine's register state after every key press, until 'q' is pressed or
// the context is cancelled. 's' single-steps the machine; any other key
// just refreshes the display.
func (c *Console) Monitor(ctx context.Context, m *vm.Machine) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	go c.readKeys(ctx, cancel)

	fmt.Fprintln(c.out, "monitor: 's' step, any other key refresh, 'q' quit")
	fmt.Fprintln(c.out, m.String())

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case key := <-c.keyCh:
			switch key {
			case 'q':
				return nil
			case 's':
				if _, err := m.Step(); err != nil {
					fmt.Fprintln(c.out, "step error:", err)
				}
			}

			fmt.Fprintln(c.out, m.String())
		}
	}
}
