package vm

// cpu.go assembles the machine from its parts: register file, MMU, disk,
// and DMA engine, bound together by a single bus lock.

import (
	"errors"
	"fmt"
	"sync"

	"github.com/druxorey/project-lucario/internal/disk"
	"github.com/druxorey/project-lucario/internal/log"
)

// Mode is the CPU's privilege level.
type Mode uint8

// Privilege modes.
const (
	ModeUser Mode = iota
	ModeKernel
)

func (m Mode) String() string {
	if m == ModeKernel {
		return "KERNEL"
	}

	return "USER"
}

// InterruptEnable is the CPU's global interrupt-enable flag.
type InterruptEnable uint8

// Interrupt-enable states.
const (
	IntOff InterruptEnable = iota
	IntOn
)

// Machine is the whole simulated computer: CPU register file, MMU, disk,
// and DMA engine. CPU and DMA are created once and exist for the process
// lifetime; a reset clears register and controller state but never touches
// RAM or Disk.
type Machine struct {
	// Register file.
	AC, MAR, MDR, IR Word

	// Base, limit, index, stack pointer, and program counter are all
	// addresses into RAM.
	RB, RL, RX, SP, PC int

	// Processor status word fields.
	CC   ConditionCode
	Mode Mode
	IE   InterruptEnable

	TimerLimit    uint
	CyclesCounter uint

	pending      [numInterruptCodes]bool
	relatedValue int

	Mem  *Memory
	Disk *disk.Disk
	DMA  *DMAController

	bus *sync.Mutex
	log *log.Logger
}

// OptionFn configures a machine during New.
type OptionFn func(*Machine)

// WithLogger overrides the machine's logger.
func WithLogger(logger *log.Logger) OptionFn {
	return func(m *Machine) {
		m.log = logger
		m.Mem.log = logger
		m.DMA.log = logger
	}
}

// New creates a machine and starts its DMA worker. The worker runs for the
// life of the Machine value; call Shutdown to stop it.
func New(opts ...OptionFn) *Machine {
	m := &Machine{bus: new(sync.Mutex), log: log.DefaultLogger()}
	m.Reset() //nolint:errcheck // a fresh machine's DMA is never active.

	m.Mem = NewMemory(m, m.bus, m.log)
	m.Disk = disk.New()
	m.DMA = NewDMAController(m.bus, m.Mem, m.Disk, m, m.log)

	for _, fn := range opts {
		fn(m)
	}

	m.DMA.Start()

	return m
}

// Shutdown stops the DMA worker. It does not affect RAM, Disk, or the
// register file.
func (m *Machine) Shutdown() {
	m.DMA.Stop()
}

// ErrResetWhileActive is returned by Reset when a DMA transfer is in
// progress; resetting mid-transfer would corrupt the worker's view of the
// registers it is using.
var ErrResetWhileActive = errors.New("vm: reset requested while dma transfer is active")

// Reset clears the register file and the interrupt-pending bitmap. RAM and
// Disk persist; only the loader overwrites program regions.
func (m *Machine) Reset() error {
	if m.DMA != nil && m.DMA.Active() {
		return ErrResetWhileActive
	}

	m.AC, m.MAR, m.MDR, m.IR = 0, 0, 0, 0
	m.RB, m.RL, m.RX, m.SP, m.PC = 0, 0, 0, 0, 0
	m.CC = CCZero
	m.Mode = ModeUser
	m.IE = IntOff
	m.TimerLimit = 0
	m.CyclesCounter = 0
	m.relatedValue = 0

	for i := range m.pending {
		m.pending[i] = false
	}

	return nil
}

func (m *Machine) setCC(cc ConditionCode) { m.CC = cc }

func (m *Machine) String() string {
	return fmt.Sprintf(
		"PC:%03d AC:%s IR:%s CC:%s MODE:%s IE:%d RB:%d RL:%d RX:%d SP:%d",
		m.PC, m.AC, m.IR, m.CC, m.Mode, m.IE, m.RB, m.RL, m.RX, m.SP,
	)
}

func (m *Machine) LogValue() log.Value {
	return log.GroupValue(
		log.Any("PC", m.PC),
		log.String("AC", m.AC.String()),
		log.String("CC", m.CC.String()),
		log.String("MODE", m.Mode.String()),
		log.Any("RB", m.RB),
		log.Any("RL", m.RL),
		log.Any("RX", m.RX),
		log.Any("SP", m.SP),
	)
}

// pushWord pushes a raw word onto the stack, decrementing SP first.
func (m *Machine) pushWord(w Word) error {
	m.SP--
	return m.Mem.Write(m.SP, w)
}

// popWord pops a raw word from the stack, incrementing SP after the read.
func (m *Machine) popWord() (Word, error) {
	w, err := m.Mem.Read(m.SP)
	if err != nil {
		return 0, err
	}

	m.SP++

	return w, nil
}
