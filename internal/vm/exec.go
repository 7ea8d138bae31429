package vm

// exec.go implements the CPU control loop: fetch, decode, execute, tick the
// timer, then service pending interrupts.

import (
	"context"
	"errors"
)

// Step runs one instruction cycle. It returns halted=true when the machine
// should stop: either because an execution unit's failure escalated into a
// halting interrupt, or because fetch itself failed, which the reference
// implementation treats as an immediate halt that bypasses the interrupt
// controller entirely (see DESIGN.md).
func (m *Machine) Step() (halted bool, err error) {
	if err := m.fetch(); err != nil {
		m.log.Error("fetch failed, halting", "pc", m.PC, "err", err)
		return true, nil
	}

	di := Decode(m.IR)

	if execErr := m.Execute(di); execErr != nil {
		m.log.Warn("instruction failed", "instr", di, "err", execErr)
		m.raiseFromError(di.Opcode, execErr)
	}

	m.tickTimer()

	halted, err = m.serviceInterrupts()
	if err != nil {
		return true, err
	}

	return halted, nil
}

// fetch loads the next instruction word and advances PC. A read failure is
// reported to the caller directly; Step treats it as an unconditional halt.
func (m *Machine) fetch() error {
	m.MAR = Word(m.PC)

	w, err := m.Mem.Read(int(m.MAR))
	if err != nil {
		return err
	}

	m.MDR = w
	m.IR = m.MDR
	m.PC++

	return nil
}

// raiseFromError converts an execution unit's failure into the interrupt it
// represents. Any MemoryError (protection fault, out-of-bounds address, or
// invalid data), and an InstructionError wrapping ErrInvalidAddress (STR in
// Immediate mode, a failed DMA transfer), become INVALID_ADDR; anything else
// (bad opcode, bad mode, div-by-zero, illegal CHMOD operand, out-of-range
// DMA-program argument) becomes INVALID_INSTR.
func (m *Machine) raiseFromError(op Opcode, err error) {
	var memErr *MemoryError

	if errors.As(err, &memErr) {
		m.raise(ICInvalidAddr, 0)
		return
	}

	var instrErr *InstructionError

	if errors.As(err, &instrErr) && errors.Is(instrErr.Err, ErrInvalidAddress) {
		m.raise(ICInvalidAddr, 0)
		return
	}

	m.raise(ICInvalidInstr, 0)
}

// tickTimer advances the cycle counter and raises TIMER when it reaches the
// configured limit. TimerLimit == 0 disables the timer.
func (m *Machine) tickTimer() {
	if m.TimerLimit == 0 {
		return
	}

	m.CyclesCounter++

	if m.CyclesCounter >= m.TimerLimit {
		m.CyclesCounter = 0
		m.raise(ICTimer, 0)
	}
}

// Run executes Step in a loop until the machine halts or ctx is canceled.
func (m *Machine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		halted, err := m.Step()

		m.log.Debug("step", "state", m)

		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}
