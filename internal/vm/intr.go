package vm

// intr.go implements the interrupt controller: a pending bitmap keyed by
// interrupt code, a fixed priority ordering, and the dispatch protocol that
// saves and restores CPU context across a handler.

import (
	"fmt"

	"github.com/druxorey/project-lucario/internal/log"
)

// InterruptCode identifies a condition the interrupt controller may be
// asked to service.
type InterruptCode int

// Interrupt codes.
const (
	ICInvalidSyscall InterruptCode = iota
	ICInvalidIntCode
	ICSyscall
	ICTimer
	ICIODone
	ICInvalidInstr
	ICInvalidAddr
	ICUnderflow
	ICOverflow

	numInterruptCodes
)

func (c InterruptCode) String() string {
	switch c {
	case ICInvalidSyscall:
		return "INVALID_SYSCALL"
	case ICInvalidIntCode:
		return "INVALID_INT_CODE"
	case ICSyscall:
		return "SYSCALL"
	case ICTimer:
		return "TIMER"
	case ICIODone:
		return "IO_DONE"
	case ICInvalidInstr:
		return "INVALID_INSTR"
	case ICInvalidAddr:
		return "INVALID_ADDR"
	case ICUnderflow:
		return "UNDERFLOW"
	case ICOverflow:
		return "OVERFLOW"
	default:
		return fmt.Sprintf("IC(%d)", int(c))
	}
}

// priorityOrder is the one, consistently-applied priority ordering chosen
// to resolve the ambiguity noted in the design notes: hardware-origin
// interrupts first, then the synchronous SYSCALL, then the asynchronous
// TIMER/IO_DONE/malformed-input codes. This matches the reference
// implementation's checkInterrupts exactly.
var priorityOrder = [...]InterruptCode{
	ICInvalidInstr,
	ICInvalidAddr,
	ICOverflow,
	ICUnderflow,
	ICSyscall,
	ICTimer,
	ICIODone,
	ICInvalidSyscall,
	ICInvalidIntCode,
}

// raise sets a pending bit, acquiring the bus lock itself. Use this from
// contexts that do not already hold the lock (execution units, the fetch
// stage).
func (m *Machine) raise(code InterruptCode, related int) {
	m.bus.Lock()
	defer m.bus.Unlock()

	m.raiseLocked(code, related)
}

// raiseLocked sets a pending bit. The caller must already hold the bus
// lock; the DMA worker uses this to publish transfer completion without a
// second lock acquisition.
func (m *Machine) raiseLocked(code InterruptCode, related int) {
	if code < 0 || code >= numInterruptCodes {
		code = ICInvalidIntCode
	}

	m.pending[code] = true
	m.relatedValue = related
}

// serviceInterrupts selects the highest-priority pending interrupt, if any,
// and dispatches it. It returns true if the CPU should halt.
func (m *Machine) serviceInterrupts() (halted bool, err error) {
	code, any := m.selectPending()
	if !any {
		return false, nil
	}

	m.IE = IntOff

	if saveErr := m.saveContext(); saveErr != nil {
		return true, saveErr
	}

	cont := m.dispatch(code)

	m.pending[code] = false

	if cont {
		if restoreErr := m.restoreContext(code); restoreErr != nil {
			return true, restoreErr
		}
	}

	m.IE = IntOn

	return !cont, nil
}

func (m *Machine) selectPending() (InterruptCode, bool) {
	if m.IE == IntOff {
		return 0, false
	}

	for _, code := range priorityOrder {
		if m.pending[code] {
			return code, true
		}
	}

	for code := InterruptCode(0); code < numInterruptCodes; code++ {
		if m.pending[code] {
			return ICInvalidIntCode, true
		}
	}

	return 0, false
}

// dispatch runs the handler policy for code and returns true if execution
// should continue afterward.
func (m *Machine) dispatch(code InterruptCode) (cont bool) {
	log.LogInterrupt(m.log, code)

	switch code {
	case ICInvalidInstr:
		m.log.Error("halt: invalid instruction", "pc", m.PC)
		return false
	case ICInvalidAddr:
		m.log.Error("halt: invalid address", "pc", m.PC)
		return false
	case ICOverflow:
		m.handleOverflow()
		return true
	case ICUnderflow:
		m.AC = IntToWord(0, m)
		return true
	case ICTimer:
		return true
	case ICIODone:
		return true
	case ICSyscall:
		if m.relatedValue == 0 {
			m.log.Info("syscall exit", "pc", m.PC)
			return false
		}

		return true
	case ICInvalidSyscall:
		return true
	default:
		return true
	}
}

// handleOverflow recomputes AC from the unreduced value attached when
// IC_OVERFLOW was raised. It reduces first and only then hands the
// already-small magnitude to the word codec, so the codec reports the
// correct sign rather than re-flagging overflow.
func (m *Machine) handleOverflow() {
	reduced := m.relatedValue % (MaxMagnitude + 1)
	m.AC = IntToWord(reduced, m)

	m.log.Info("overflow handled", "related", m.relatedValue, "ac", WordToInt(m.AC))
}

// saveContext pushes RX, RL, RB, mode, condition code, PC, and AC, in that
// order, so AC ends on top of the stack.
func (m *Machine) saveContext() error {
	for _, w := range []Word{
		Word(m.RX), Word(m.RL), Word(m.RB),
		Word(m.Mode), Word(m.CC), Word(m.PC), m.AC,
	} {
		if err := m.pushWord(w); err != nil {
			return err
		}
	}

	return nil
}

// restoreContext pops the context pushed by saveContext, in reverse order.
// For OVERFLOW and UNDERFLOW, the popped AC and CC are discarded: those
// handlers have already written the AC/CC values that must survive (AC from
// the reduced magnitude, CC from the word codec's call during that
// reduction), and popping the pre-interrupt CC back over them would
// silently undo the handler's work.
func (m *Machine) restoreContext(code InterruptCode) error {
	savedAC, err := m.popWord()
	if err != nil {
		return err
	}

	pc, err := m.popWord()
	if err != nil {
		return err
	}

	cc, err := m.popWord()
	if err != nil {
		return err
	}

	mode, err := m.popWord()
	if err != nil {
		return err
	}

	rb, err := m.popWord()
	if err != nil {
		return err
	}

	rl, err := m.popWord()
	if err != nil {
		return err
	}

	rx, err := m.popWord()
	if err != nil {
		return err
	}

	if code != ICOverflow && code != ICUnderflow {
		m.AC = savedAC
		m.CC = ConditionCode(cc)
	}

	m.PC = int(pc)
	m.Mode = Mode(mode)
	m.RB = int(rb)
	m.RL = int(rl)
	m.RX = int(rx)

	return nil
}
