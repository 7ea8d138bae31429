package vm

// errors.go defines the error kinds produced by the core. Units report a
// failure by returning one of these, wrapped with context; the control loop
// (exec.go) translates a non-nil error into a raised interrupt at the
// boundary. This is the Go rendering of the design note's "result variant
// {Success, Failure}": a nil error is Success, and Failure converts to an
// interrupt where Step meets the interrupt controller, not before.

import (
	"errors"
	"fmt"
)

// Memory error kinds.
var (
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrProtectionFault = errors.New("protection fault")
	ErrInvalidData     = errors.New("invalid data")
)

// Instruction error kinds.
var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrInvalidAddress     = errors.New("invalid address")
)

// MemoryError reports the logical address a failed memory access targeted.
type MemoryError struct {
	Addr int
	Err  error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory: address %d: %s", e.Addr, e.Err)
}

func (e *MemoryError) Unwrap() error { return e.Err }

// InstructionError reports the opcode an execution unit failed to carry out.
type InstructionError struct {
	Opcode Opcode
	Err    error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction: %s: %s", e.Opcode, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
