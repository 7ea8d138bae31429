// Package loader installs a parsed program image into a machine's RAM and
// register file.
package loader

import (
	"errors"
	"fmt"

	"github.com/druxorey/project-lucario/internal/image"
	"github.com/druxorey/project-lucario/internal/vm"
)

// ErrProgramTooLarge is returned when a program image leaves less than
// vm.MinStackSize words for the stack region.
var ErrProgramTooLarge = errors.New("loader: program leaves insufficient room for the stack")

// Load resets m, writes img's words into RAM starting at vm.OSReserved, and
// derives the register file from the image per the loader contract: base
// and limit bound the user partition, RX and SP mark the stack's bounds
// relative to RB, and PC is the image's 1-based entry point converted to a
// 0-based index, so the first fetch in Step reads the entry word.
func Load(m *vm.Machine, img image.Program) error {
	if err := m.Reset(); err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	wordCount := len(img.Words)

	stackSize := vm.RAMSize - vm.OSReserved - wordCount
	if stackSize > vm.DefaultStackSize {
		stackSize = vm.DefaultStackSize
	}

	if stackSize < vm.MinStackSize {
		return ErrProgramTooLarge
	}

	for i, n := range img.Words {
		w := vm.Word(n)
		if !vm.IsValidWord(w) {
			return fmt.Errorf("loader: word %d (%d) is not a valid encoding", i, n)
		}

		if err := m.Mem.DMAWrite(vm.OSReserved+i, w); err != nil {
			return fmt.Errorf("loader: writing word %d: %w", i, err)
		}
	}

	m.RB = vm.OSReserved
	m.RL = vm.OSReserved + wordCount + stackSize
	m.RX = wordCount
	m.SP = wordCount + stackSize
	m.PC = img.Start - 1
	m.Mode = vm.ModeUser
	m.IE = vm.IntOn
	m.TimerLimit = 16
	m.CyclesCounter = 0

	return nil
}
