package vm

import (
	"context"
	"testing"
	"time"
)

func newExecTestMachine(t *testing.T) *Machine {
	t.Helper()

	m := New()
	t.Cleanup(m.Shutdown)
	m.Mode = ModeKernel
	m.RL = RAMSize
	m.IE = IntOn

	return m
}

func TestStepHaltsDirectlyOnFetchFailure(t *testing.T) {
	m := newExecTestMachine(t)
	m.PC = -1 // out of bounds, fetch must fail.

	halted, err := m.Step()
	if err != nil {
		t.Fatalf("Step returned err = %s, want nil (fetch failure halts silently)", err)
	}

	if !halted {
		t.Fatal("expected a fetch failure to halt the machine")
	}

	for code := InterruptCode(0); code < numInterruptCodes; code++ {
		if m.pending[code] {
			t.Errorf("fetch failure should bypass the interrupt controller, but %s is pending", code)
		}
	}
}

func TestStepRaisesInvalidInstrOnBadMode(t *testing.T) {
	m := newExecTestMachine(t)
	m.SP = RAMSize - 1 // room for the interrupt controller's context save.

	// SUM (opcode 0) with mode digit 3: a valid opcode but an addressing
	// mode outside {Direct, Immediate, Indexed}.
	if err := m.Mem.Write(0, 300000); err != nil {
		t.Fatalf("Write: %s", err)
	}

	halted, err := m.Step()
	if err != nil {
		t.Fatalf("Step: %s", err)
	}

	if !halted {
		t.Fatal("expected an invalid addressing mode to halt the machine")
	}
}

func TestStepRaisesInvalidAddrOnProtectionFault(t *testing.T) {
	m := newExecTestMachine(t)
	m.Mode = ModeUser
	m.RB, m.RL = 300, 400
	m.SP = 100 // room for the interrupt controller's context save.

	// STR Direct 99999: an address far outside [RB, RL].
	if err := m.Mem.Write(0, 5099999); err != nil {
		t.Fatalf("Write: %s", err)
	}

	halted, err := m.Step()
	if err != nil {
		t.Fatalf("Step: %s", err)
	}

	if !halted {
		t.Fatal("expected a protection fault to halt the machine")
	}
}

func TestTickTimerRaisesAtLimit(t *testing.T) {
	m := newExecTestMachine(t)
	m.TimerLimit = 3

	m.tickTimer()
	m.tickTimer()

	if m.pending[ICTimer] {
		t.Fatal("TIMER should not be pending before the limit is reached")
	}

	m.tickTimer()

	if !m.pending[ICTimer] {
		t.Fatal("expected TIMER to be pending once CyclesCounter reaches TimerLimit")
	}

	if m.CyclesCounter != 0 {
		t.Errorf("CyclesCounter = %d, want 0 after reset", m.CyclesCounter)
	}
}

func TestTickTimerDisabledWhenLimitIsZero(t *testing.T) {
	m := newExecTestMachine(t)
	m.TimerLimit = 0

	for i := 0; i < 10; i++ {
		m.tickTimer()
	}

	if m.pending[ICTimer] {
		t.Fatal("TIMER should never fire while TimerLimit == 0")
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	m := newExecTestMachine(t)

	// An infinite loop built from JMPE Direct 0: AC and M[SP] are both the
	// RAM-zeroed value 0, so the branch is always taken back to address 0.
	m.SP = RAMSize - 1

	if err := m.Mem.Write(0, 9000000); err != nil {
		t.Fatalf("Write: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	if err == nil {
		t.Fatal("expected Run to return the context's error once it is canceled")
	}
}

func TestRaiseFromErrorMapsMemoryErrorToInvalidAddr(t *testing.T) {
	m := newExecTestMachine(t)

	m.raiseFromError(OpSTR, &MemoryError{Addr: 5, Err: ErrProtectionFault})

	if !m.pending[ICInvalidAddr] {
		t.Error("expected a MemoryError to raise INVALID_ADDR")
	}
}

func TestRaiseFromErrorMapsInvalidAddressInstructionErrorToInvalidAddr(t *testing.T) {
	m := newExecTestMachine(t)

	m.raiseFromError(OpSDMAM, &InstructionError{Opcode: OpSDMAM, Err: ErrInvalidAddress})

	if !m.pending[ICInvalidAddr] {
		t.Error("expected an InstructionError wrapping ErrInvalidAddress to raise INVALID_ADDR")
	}
}

func TestRaiseFromErrorMapsOtherErrorsToInvalidInstr(t *testing.T) {
	m := newExecTestMachine(t)

	m.raiseFromError(OpDIVI, &InstructionError{Opcode: OpDIVI, Err: ErrInvalidInstruction})

	if !m.pending[ICInvalidInstr] {
		t.Error("expected a non-address InstructionError to raise INVALID_INSTR")
	}
}
