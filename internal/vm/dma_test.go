package vm

import (
	"testing"
	"time"
)

func newDMATestMachine(t *testing.T) *Machine {
	t.Helper()

	m := New()
	t.Cleanup(m.Shutdown)
	m.Mode = ModeKernel // simplifies SDMAM's address check for this scenario.

	return m
}

// TestScenarioDMAWriteBack is S6: write a word to RAM, program the DMA
// engine to copy it to disk, and start the transfer. On completion,
// DISK[track][cylinder][sector] must equal the RAM word, and IC_IO_DONE
// must be pending.
func TestScenarioDMAWriteBack(t *testing.T) {
	m := newDMATestMachine(t)

	if err := m.Mem.Write(456, 1234567); err != nil {
		t.Fatalf("Write(456): %s", err)
	}

	program := []Instruction{
		{Opcode: OpSDMAP, Mode: Immediate, Operand: 1},
		{Opcode: OpSDMAC, Mode: Immediate, Operand: 2},
		{Opcode: OpSDMAS, Mode: Immediate, Operand: 3},
		{Opcode: OpSDMAIO, Mode: Immediate, Operand: 1}, // RAM -> Disk.
		{Opcode: OpSDMAM, Mode: Immediate, Operand: 456},
	}

	for _, di := range program {
		if err := m.Execute(di); err != nil {
			t.Fatalf("%s: %s", di.Opcode, err)
		}
	}

	if err := m.Execute(Instruction{Opcode: OpSDMAON}); err != nil {
		t.Fatalf("SDMAON: %s", err)
	}

	if m.DMA.Active() {
		t.Error("DMA should not be active once SDMAON returns")
	}

	got, err := m.Disk.ReadSector(1, 2, 3)
	if err != nil {
		t.Fatalf("ReadSector(1,2,3): %s", err)
	}

	if got != 1234567 {
		t.Errorf("DISK[1][2][3] = %d, want 1234567", got)
	}

	m.bus.Lock()
	pending := m.pending[ICIODone]
	m.bus.Unlock()

	if !pending {
		t.Error("expected IC_IO_DONE to be pending after the transfer")
	}
}

func TestSDMAPRejectsOutOfRangeTrack(t *testing.T) {
	m := newDMATestMachine(t)

	err := m.Execute(Instruction{Opcode: OpSDMAP, Mode: Immediate, Operand: 99})
	if err == nil {
		t.Fatal("expected an out-of-range track to fail")
	}
}

func TestSDMAMEnforcesFullRangeInUserMode(t *testing.T) {
	m := New()
	t.Cleanup(m.Shutdown)
	m.Mode = ModeUser
	m.RB, m.RL = 300, 400

	// Operand -1 would place memAddr at RB-1, below the partition's lower
	// bound. The reference implementation's SDMAM only checks the upper
	// bound in user mode; this stricter check enforces the full [RB, RL]
	// window the spec's invariant text describes (see DESIGN.md).
	err := m.Execute(Instruction{Opcode: OpSDMAM, Mode: Immediate, Operand: -1})
	if err == nil {
		t.Fatal("expected memAddr below RB to fail")
	}
}

func TestDMABeginBlocksUntilTransferCompletes(t *testing.T) {
	m := newDMATestMachine(t)

	if err := m.Mem.Write(10, 42); err != nil {
		t.Fatalf("Write(10): %s", err)
	}

	start := time.Now()

	program := []Instruction{
		{Opcode: OpSDMAP, Mode: Immediate, Operand: 0},
		{Opcode: OpSDMAC, Mode: Immediate, Operand: 0},
		{Opcode: OpSDMAS, Mode: Immediate, Operand: 0},
		{Opcode: OpSDMAIO, Mode: Immediate, Operand: 1},
		{Opcode: OpSDMAM, Mode: Immediate, Operand: 10},
	}

	for _, di := range program {
		if err := m.Execute(di); err != nil {
			t.Fatalf("%s: %s", di.Opcode, err)
		}
	}

	if err := m.Execute(Instruction{Opcode: OpSDMAON}); err != nil {
		t.Fatalf("SDMAON: %s", err)
	}

	if time.Since(start) <= 0 {
		t.Fatal("SDMAON should take nonzero time while the worker transfers")
	}

	if m.DMA.Active() || m.DMA.pending {
		t.Error("transfer should be complete and flags cleared once SDMAON returns")
	}
}
