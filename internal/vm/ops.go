package vm

// ops.go dispatches decoded instructions to their execution units. Per the
// design notes, the opcode set is closed and enumerated, so dispatch is one
// switch statement rather than a table of opcode-specific types each
// implementing a shared interface.

// Execute carries out a decoded instruction, mutating the machine's state.
// A non-nil return is a Failure in the sense of the design notes: the
// control loop (exec.go) is responsible for turning it into a raised
// interrupt, not this method.
func (m *Machine) Execute(di Instruction) error {
	if !di.Opcode.Valid() || !di.Mode.Valid() {
		return &InstructionError{Opcode: di.Opcode, Err: ErrInvalidInstruction}
	}

	switch di.Opcode {
	case OpSUM, OpRES, OpMULT, OpDIVI:
		return m.execArithmetic(di)
	case OpLOAD:
		return m.execLoad(di)
	case OpSTR:
		return m.execStore(di)
	case OpLOADRX:
		m.AC = Word(m.RX)
		return nil
	case OpSTRRX:
		m.RX = WordToInt(m.AC)
		return nil
	case OpCOMP:
		return m.execComp(di)
	case OpJMPE, OpJMPNE, OpJMPLT, OpJMPLGT:
		return m.execConditionalJump(di)
	case OpSVC:
		// The syscall number is the instruction's own operand, not AC: AC
		// usually holds a live computed value (as in the addition-then-exit
		// scenario) and the reference implementation's AC-based exit check
		// would misfire there. See DESIGN.md.
		m.raise(ICSyscall, di.Operand)
		return nil
	case OpRETRN:
		return m.execReturn()
	case OpHAB:
		m.IE = IntOn
		return nil
	case OpDHAB:
		m.IE = IntOff
		return nil
	case OpTTI:
		return m.execTTI(di)
	case OpCHMOD:
		return m.execChmod(di)
	case OpLOADRB:
		m.AC = Word(m.RB)
		return nil
	case OpSTRRB:
		m.RB = WordToInt(m.AC)
		return nil
	case OpLOADRL:
		m.AC = Word(m.RL)
		return nil
	case OpSTRRL:
		m.RL = WordToInt(m.AC)
		return nil
	case OpLOADSP:
		return m.execLoadSP()
	case OpSTRSP:
		return m.execStoreSP()
	case OpPSH:
		return m.execPush()
	case OpPOP:
		return m.execPop()
	case OpJ:
		m.PC = m.effectiveAddress(di.Mode, di.Operand)
		return nil
	case OpSDMAP, OpSDMAC, OpSDMAS, OpSDMAIO, OpSDMAM:
		return m.execDMAProgram(di)
	case OpSDMAON:
		return m.execDMAStart()
	default:
		return &InstructionError{Opcode: di.Opcode, Err: ErrInvalidInstruction}
	}
}

// effectiveAddress computes the address an instruction's operand names.
// Indexed mode adds the current AC to the operand; Direct and Immediate
// both resolve to the bare operand, matching the reference implementation's
// calculateEffectiveAddress (only Indexed is special-cased there). STR is
// the one unit that explicitly rejects Immediate mode.
func (m *Machine) effectiveAddress(mode AddressingMode, operand int) int {
	if mode == Indexed {
		return operand + WordToInt(m.AC)
	}

	return operand
}

// resolveOperand implements the ALU/LOAD/COMP/DMA-program resolution
// rules: Immediate reinterprets the operand digits as a signed value
// through the word codec; Direct and Indexed read the effective address.
func (m *Machine) resolveOperand(di Instruction) (Word, error) {
	if di.Mode == Immediate {
		return IntToWord(di.Operand, m), nil
	}

	addr := m.effectiveAddress(di.Mode, di.Operand)

	w, err := m.Mem.Read(addr)
	if err != nil {
		return 0, err
	}

	return w, nil
}

// signCC reports the sign of n without touching AC or running it through
// the word codec's overflow reduction; POP and COMP use it to update flags
// from a value that is not itself the result of an arithmetic operation.
func signCC(n int) ConditionCode {
	switch {
	case n == 0:
		return CCZero
	case n < 0:
		return CCNeg
	default:
		return CCPos
	}
}

func (m *Machine) execArithmetic(di Instruction) error {
	op, err := m.resolveOperand(di)
	if err != nil {
		return err
	}

	a, b := WordToInt(m.AC), WordToInt(op)

	var raw int

	switch di.Opcode {
	case OpSUM:
		raw = a + b
	case OpRES:
		raw = a - b
	case OpMULT:
		raw = a * b
	case OpDIVI:
		if b == 0 {
			m.setCC(CCOverflow)
			return &InstructionError{Opcode: di.Opcode, Err: ErrInvalidInstruction}
		}

		raw = a / b
	}

	m.AC = IntToWord(raw, m)

	if m.CC == CCOverflow {
		m.raise(ICOverflow, raw)
	}

	return nil
}

func (m *Machine) execLoad(di Instruction) error {
	w, err := m.resolveOperand(di)
	if err != nil {
		return err
	}

	m.AC = w

	return nil
}

func (m *Machine) execStore(di Instruction) error {
	if di.Mode == Immediate {
		return &InstructionError{Opcode: OpSTR, Err: ErrInvalidAddress}
	}

	addr := m.effectiveAddress(di.Mode, di.Operand)

	return m.Mem.Write(addr, m.AC)
}

func (m *Machine) execComp(di Instruction) error {
	op, err := m.resolveOperand(di)
	if err != nil {
		return err
	}

	m.setCC(signCC(WordToInt(m.AC) - WordToInt(op)))

	return nil
}

func (m *Machine) execConditionalJump(di Instruction) error {
	s, err := m.Mem.Read(m.SP)
	if err != nil {
		return err
	}

	ac, stackTop := WordToInt(m.AC), WordToInt(s)

	var taken bool

	switch di.Opcode {
	case OpJMPE:
		taken = ac == stackTop
	case OpJMPNE:
		taken = ac != stackTop
	case OpJMPLT:
		taken = ac < stackTop
	case OpJMPLGT:
		taken = ac > stackTop
	}

	if taken {
		m.PC = m.effectiveAddress(di.Mode, di.Operand)
	}

	return nil
}

func (m *Machine) execReturn() error {
	w, err := m.popWord()
	if err != nil {
		return err
	}

	m.PC = WordToInt(w)

	return nil
}

func (m *Machine) execTTI(di Instruction) error {
	w, err := m.resolveOperand(di)
	if err != nil {
		return err
	}

	limit := WordToInt(w)
	if limit < 0 {
		limit = 0
	}

	m.TimerLimit = uint(limit)

	return nil
}

func (m *Machine) execChmod(di Instruction) error {
	switch di.Operand {
	case 0:
		m.Mode = ModeUser
	case 1:
		m.Mode = ModeKernel
	default:
		return &InstructionError{Opcode: OpCHMOD, Err: ErrInvalidInstruction}
	}

	return nil
}

func (m *Machine) execLoadSP() error {
	w, err := m.Mem.Read(m.SP)
	if err != nil {
		return err
	}

	m.AC = w

	return nil
}

func (m *Machine) execStoreSP() error {
	return m.Mem.Write(m.SP, m.AC)
}

// execPush writes AC at the current SP before decrementing it, the reverse
// order from the interrupt controller's context save (intr.go's
// saveContext, which decrements first): the two protocols genuinely differ
// in the reference implementation.
func (m *Machine) execPush() error {
	if m.SP-1 < m.RX {
		return &MemoryError{Addr: m.SP - 1, Err: ErrProtectionFault}
	}

	if err := m.Mem.Write(m.SP, m.AC); err != nil {
		return err
	}

	m.SP--

	return nil
}

// execPop increments SP before loading AC, the reverse order from
// pushWord/popWord's interrupt-context convention. The bound check uses
// SP+RB, since SP is RB-relative while RL is an absolute physical limit;
// spec text omits the RB term, but the reference implementation's
// arithmetic requires it (see DESIGN.md).
func (m *Machine) execPop() error {
	if m.SP+m.RB >= m.RL {
		return &MemoryError{Addr: m.SP, Err: ErrProtectionFault}
	}

	m.SP++

	w, err := m.Mem.Read(m.SP)
	if err != nil {
		return err
	}

	m.AC = w
	m.setCC(signCC(WordToInt(w)))

	return nil
}

func (m *Machine) execDMAProgram(di Instruction) error {
	w, err := m.resolveOperand(di)
	if err != nil {
		return err
	}

	v := WordToInt(w)

	m.bus.Lock()
	defer m.bus.Unlock()

	var progErr error

	switch di.Opcode {
	case OpSDMAP:
		progErr = m.DMA.programTrack(v)
	case OpSDMAC:
		progErr = m.DMA.programCylinder(v)
	case OpSDMAS:
		progErr = m.DMA.programSector(v)
	case OpSDMAIO:
		progErr = m.DMA.programDirection(v)
	case OpSDMAM:
		progErr = m.DMA.programMemAddr(v)
	}

	if progErr != nil {
		return &InstructionError{Opcode: di.Opcode, Err: progErr}
	}

	return nil
}

func (m *Machine) execDMAStart() error {
	m.bus.Lock()
	defer m.bus.Unlock()

	m.DMA.begin()

	if m.DMA.lastStatus() != 0 {
		return &InstructionError{Opcode: OpSDMAON, Err: ErrInvalidAddress}
	}

	return nil
}
