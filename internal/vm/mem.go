package vm

// mem.go implements the MMU: a contiguous RAM array addressed through
// logical-to-physical translation, base/limit protection in user mode, and
// a kernel bypass. All four public operations serialize on the bus lock,
// the single arbitration point shared with the DMA engine (dma.go).

import (
	"sync"

	"github.com/druxorey/project-lucario/internal/log"
)

// Memory is the machine's RAM and the MMU that guards it.
type Memory struct {
	ram [RAMSize]Word

	cpu *Machine // consulted for mode, RB, and RL on every translation.
	bus *sync.Mutex

	log *log.Logger
}

// NewMemory creates a memory controller bound to the given machine and bus
// lock. Machine and Memory are mutually referential by construction: New
// wires them together.
func NewMemory(cpu *Machine, bus *sync.Mutex, logger *log.Logger) *Memory {
	return &Memory{cpu: cpu, bus: bus, log: logger}
}

// Read loads the word at a logical address, translating and
// protection-checking it first.
func (m *Memory) Read(logical int) (Word, error) {
	m.bus.Lock()
	defer m.bus.Unlock()

	phys, err := m.translate(logical)
	if err != nil {
		return 0, err
	}

	return m.ram[phys], nil
}

// Write stores a word at a logical address. The word is validated before
// the address is translated, matching the reference implementation's
// ordering: a malformed payload is rejected before its destination is even
// considered.
func (m *Memory) Write(logical int, w Word) error {
	m.bus.Lock()
	defer m.bus.Unlock()

	if !IsValidWord(w) {
		return &MemoryError{Addr: logical, Err: ErrInvalidData}
	}

	phys, err := m.translate(logical)
	if err != nil {
		return err
	}

	m.ram[phys] = w

	return nil
}

// DMARead loads a word at a physical address, bypassing base/limit
// protection. The DMA engine uses it because the address it holds was
// already validated, in user-partition terms, when the program issued
// SDMAM; re-running that check here would reject valid transfers once the
// program has since changed its own RB/RL.
func (m *Memory) DMARead(physical int) (Word, error) {
	m.bus.Lock()
	defer m.bus.Unlock()

	if physical < 0 || physical >= RAMSize {
		return 0, &MemoryError{Addr: physical, Err: ErrOutOfBounds}
	}

	return m.ram[physical], nil
}

// DMAWrite stores a word at a physical address, bypassing base/limit
// protection; see DMARead.
func (m *Memory) DMAWrite(physical int, w Word) error {
	m.bus.Lock()
	defer m.bus.Unlock()

	if physical < 0 || physical >= RAMSize {
		return &MemoryError{Addr: physical, Err: ErrOutOfBounds}
	}

	if !IsValidWord(w) {
		return &MemoryError{Addr: physical, Err: ErrInvalidData}
	}

	m.ram[physical] = w

	return nil
}

// Reset is a documented no-op: RAM persists across a CPU reset. Only the
// loader may overwrite program regions.
func (m *Memory) Reset() {}

// translate converts a logical address into a physical one, enforcing
// base/limit protection in user mode. The caller must hold the bus lock.
func (m *Memory) translate(logical int) (int, error) {
	var phys int

	if m.cpu.Mode == ModeKernel {
		phys = logical
	} else {
		phys = logical + m.cpu.RB
		if phys < m.cpu.RB || phys > m.cpu.RL {
			return 0, &MemoryError{Addr: logical, Err: ErrProtectionFault}
		}
	}

	if phys < 0 || phys >= RAMSize {
		return 0, &MemoryError{Addr: logical, Err: ErrOutOfBounds}
	}

	return phys, nil
}
