package loader_test

import (
	"context"
	"testing"
	"time"

	"github.com/druxorey/project-lucario/internal/image"
	"github.com/druxorey/project-lucario/internal/loader"
	"github.com/druxorey/project-lucario/internal/vm"
)

func TestLoadSetsUpRegisterFile(t *testing.T) {
	m := vm.New()
	t.Cleanup(m.Shutdown)

	img := image.Program{Start: 1, Name: "test", Words: []int{4100007, 100005, 13000000}}

	if err := loader.Load(m, img); err != nil {
		t.Fatalf("Load: %s", err)
	}

	wordCount := len(img.Words)
	wantStack := vm.DefaultStackSize

	if m.RB != vm.OSReserved {
		t.Errorf("RB = %d, want %d", m.RB, vm.OSReserved)
	}

	if m.RL != vm.OSReserved+wordCount+wantStack {
		t.Errorf("RL = %d, want %d", m.RL, vm.OSReserved+wordCount+wantStack)
	}

	if m.RX != wordCount {
		t.Errorf("RX = %d, want %d", m.RX, wordCount)
	}

	if m.SP != wordCount+wantStack {
		t.Errorf("SP = %d, want %d", m.SP, wordCount+wantStack)
	}

	if m.PC != img.Start-1 {
		t.Errorf("PC = %d, want %d", m.PC, img.Start-1)
	}

	if m.Mode != vm.ModeUser {
		t.Errorf("Mode = %s, want USER", m.Mode)
	}

	if m.IE != vm.IntOn {
		t.Error("interrupts should be enabled after load")
	}
}

// TestScenarioAdditionAndExit is S1: a three-instruction program loads
// 7, adds 5, and exits. AC must end at 12, condition code POS, with a clean
// halt.
func TestScenarioAdditionAndExit(t *testing.T) {
	m := vm.New()
	t.Cleanup(m.Shutdown)

	img := image.Program{Start: 1, Name: "s1", Words: []int{4100007, 100005, 13000000}}

	if err := loader.Load(m, img); err != nil {
		t.Fatalf("Load: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run: %s", err)
	}

	if vm.WordToInt(m.AC) != 12 {
		t.Errorf("AC = %d, want 12", vm.WordToInt(m.AC))
	}

	if m.CC != vm.CCPos {
		t.Errorf("CC = %s, want POS", m.CC)
	}
}
