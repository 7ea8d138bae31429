package vm

// instr.go defines the instruction encoding and the closed opcode
// enumeration. Per the design notes this is modeled as a tagged enumeration
// dispatched through a single matching construct (see ops.go's Execute),
// not through per-opcode types implementing a common interface.

import "fmt"

// Opcode identifies the operation encoded in an instruction word. The ISA
// has exactly 34 opcodes, 0 through 33.
type Opcode int

// Opcode constants, in encoding order.
const (
	OpSUM Opcode = iota
	OpRES
	OpMULT
	OpDIVI
	OpLOAD
	OpSTR
	OpLOADRX
	OpSTRRX
	OpCOMP
	OpJMPE
	OpJMPNE
	OpJMPLT
	OpJMPLGT
	OpSVC
	OpRETRN
	OpHAB
	OpDHAB
	OpTTI
	OpCHMOD
	OpLOADRB
	OpSTRRB
	OpLOADRL
	OpSTRRL
	OpLOADSP
	OpSTRSP
	OpPSH
	OpPOP
	OpJ
	OpSDMAP
	OpSDMAC
	OpSDMAS
	OpSDMAIO
	OpSDMAM
	OpSDMAON

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpSUM: "SUM", OpRES: "RES", OpMULT: "MULT", OpDIVI: "DIVI",
	OpLOAD: "LOAD", OpSTR: "STR", OpLOADRX: "LOADRX", OpSTRRX: "STRRX",
	OpCOMP: "COMP", OpJMPE: "JMPE", OpJMPNE: "JMPNE", OpJMPLT: "JMPLT",
	OpJMPLGT: "JMPLGT", OpSVC: "SVC", OpRETRN: "RETRN", OpHAB: "HAB",
	OpDHAB: "DHAB", OpTTI: "TTI", OpCHMOD: "CHMOD", OpLOADRB: "LOADRB",
	OpSTRRB: "STRRB", OpLOADRL: "LOADRL", OpSTRRL: "STRRL",
	OpLOADSP: "LOADSP", OpSTRSP: "STRSP", OpPSH: "PSH", OpPOP: "POP",
	OpJ: "J", OpSDMAP: "SDMAP", OpSDMAC: "SDMAC", OpSDMAS: "SDMAS",
	OpSDMAIO: "SDMAIO", OpSDMAM: "SDMAM", OpSDMAON: "SDMAON",
}

func (op Opcode) String() string {
	if op < 0 || op >= numOpcodes {
		return fmt.Sprintf("OP(%d)", int(op))
	}

	return opcodeNames[op]
}

// Valid reports whether op is one of the 34 defined opcodes.
func (op Opcode) Valid() bool {
	return op >= 0 && op < numOpcodes
}

// AddressingMode selects how an instruction's operand digit is interpreted.
type AddressingMode int

// Addressing modes.
const (
	Direct AddressingMode = iota
	Immediate
	Indexed
)

func (m AddressingMode) String() string {
	switch m {
	case Direct:
		return "Direct"
	case Immediate:
		return "Immediate"
	case Indexed:
		return "Indexed"
	default:
		return "?"
	}
}

// Valid reports whether m is one of the three defined addressing modes.
func (m AddressingMode) Valid() bool {
	return m == Direct || m == Immediate || m == Indexed
}

// Instruction is a decoded instruction word: OOMVVVVV in decimal digits,
// opcode in the top two digits, addressing mode in the third, operand in
// the low five.
type Instruction struct {
	Opcode  Opcode
	Mode    AddressingMode
	Operand int
}

// Decode extracts the opcode, addressing mode, and operand fields from an
// instruction word. It does not validate the fields; a unit that requires a
// valid opcode or mode checks it itself and fails with InvalidInstruction.
func Decode(w Word) Instruction {
	n := int(w)

	return Instruction{
		Opcode:  Opcode(n / 1_000_000),
		Mode:    AddressingMode((n / 100_000) % 10),
		Operand: n % 100_000,
	}
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s %s %05d", i.Opcode, i.Mode, i.Operand)
}
