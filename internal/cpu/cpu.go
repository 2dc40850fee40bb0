// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

// Status register bit masks
const (
	flagC      = 0x01
	flagZ      = 0x02
	flagI      = 0x04
	flagD      = 0x08
	flagB      = 0x10
	flagUnused = 0x20
	flagV      = 0x40
	flagN      = 0x80
)

const (
	stackBase   = 0x0100
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// SystemBus is what the CPU drives. Every Read/Write advances the machine
// by one cycle; TickUntil pads an instruction to its documented length.
type SystemBus interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
	Tick()
	TickUntil(target uint64)
	Cycles() uint64
	NMIPoll() bool
	IRQPoll() bool
	IsDMATransferring() bool
	HandleDMA()
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	// Status flags. B and the unused bit are not stored; they only exist in
	// bytes pushed on the stack.
	C bool
	Z bool
	I bool
	D bool
	V bool
	N bool

	// Jammed is set by the JAM opcodes; further steps are no-ops
	Jammed bool

	bus SystemBus
}

// New creates a CPU attached to a bus
func New(bus SystemBus) *CPU {
	return &CPU{bus: bus, SP: 0xFD}
}

// Reset reloads PC from the reset vector, drops SP by 3 and masks IRQs.
// The sequence costs 7 cycles.
func (c *CPU) Reset() {
	start := c.bus.Cycles()

	c.SP -= 3
	c.I = true
	c.Jammed = false

	lo := uint16(c.bus.Read(resetVector))
	hi := uint16(c.bus.Read(resetVector + 1))
	c.PC = hi<<8 | lo

	c.bus.TickUntil(start + 7)
}

// Cycles returns the monotonic cycle counter
func (c *CPU) Cycles() uint64 {
	return c.bus.Cycles()
}

// Step runs one instruction (or services a DMA stall) and then polls
// NMI before IRQ, as the hardware does at instruction boundaries.
func (c *CPU) Step() {
	for c.bus.IsDMATransferring() {
		c.bus.HandleDMA()
	}

	if c.Jammed {
		c.bus.Tick()
		return
	}

	start := c.bus.Cycles()

	opcode := c.bus.Read(c.PC)
	c.PC++
	in := &instructions[opcode]

	addr, pageCrossed := c.operand(in.Mode)

	extra := c.execute(opcode, in, addr, pageCrossed)
	if pageCrossed && in.PageCycle {
		extra++
	}

	c.bus.TickUntil(start + uint64(in.Cycles) + uint64(extra))

	if c.bus.NMIPoll() {
		c.interrupt(nmiVector)
	} else if !c.I && c.bus.IRQPoll() {
		c.interrupt(irqVector)
	}
}

// operand resolves the effective address for an addressing mode. The second
// return reports a page-boundary crossing for modes that can incur the
// one-cycle read penalty.
func (c *CPU) operand(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		addr := c.PC
		c.PC++
		return addr, false

	case ZeroPage:
		addr := uint16(c.bus.Read(c.PC))
		c.PC++
		return addr, false

	case ZeroPageX:
		base := c.bus.Read(c.PC)
		c.PC++
		return uint16(base + c.X), false

	case ZeroPageY:
		base := c.bus.Read(c.PC)
		c.PC++
		return uint16(base + c.Y), false

	case Relative:
		offset := int8(c.bus.Read(c.PC))
		c.PC++
		target := uint16(int32(c.PC) + int32(offset))
		return target, (c.PC & 0xFF00) != (target & 0xFF00)

	case Absolute:
		lo := uint16(c.bus.Read(c.PC))
		hi := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		return hi<<8 | lo, false

	case AbsoluteX:
		lo := uint16(c.bus.Read(c.PC))
		hi := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		base := hi<<8 | lo
		addr := base + uint16(c.X)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case AbsoluteY:
		lo := uint16(c.bus.Read(c.PC))
		hi := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		base := hi<<8 | lo
		addr := base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case Indirect:
		ptrLo := uint16(c.bus.Read(c.PC))
		ptrHi := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		ptr := ptrHi<<8 | ptrLo
		lo := uint16(c.bus.Read(ptr))
		// 6502 bug: the high byte wraps within the page
		hi := uint16(c.bus.Read(ptr&0xFF00 | (ptr+1)&0x00FF))
		return hi<<8 | lo, false

	case IndexedIndirect:
		base := c.bus.Read(c.PC)
		c.PC++
		ptr := base + c.X
		lo := uint16(c.bus.Read(uint16(ptr)))
		hi := uint16(c.bus.Read(uint16(ptr + 1)))
		return hi<<8 | lo, false

	case IndirectIndexed:
		ptr := c.bus.Read(c.PC)
		c.PC++
		lo := uint16(c.bus.Read(uint16(ptr)))
		hi := uint16(c.bus.Read(uint16(ptr + 1)))
		base := hi<<8 | lo
		addr := base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	default:
		return 0, false
	}
}

// interrupt services NMI/IRQ/BRK through the given vector. Hardware
// interrupts push P with B clear; servicing costs 7 cycles.
func (c *CPU) interrupt(vector uint16) {
	start := c.bus.Cycles()

	c.pushWord(c.PC)
	c.push(c.Status(false))
	c.I = true

	lo := uint16(c.bus.Read(vector))
	hi := uint16(c.bus.Read(vector + 1))
	c.PC = hi<<8 | lo

	c.bus.TickUntil(start + 7)
}

// Stack helpers

func (c *CPU) push(val uint8) {
	c.bus.Write(stackBase+uint16(c.SP), val)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(val uint16) {
	c.push(uint8(val >> 8))
	c.push(uint8(val))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// Status builds the P byte. The unused bit is always set; B is set only in
// bytes pushed by PHP/BRK.
func (c *CPU) Status(brk bool) uint8 {
	var p uint8 = flagUnused
	if c.C {
		p |= flagC
	}
	if c.Z {
		p |= flagZ
	}
	if c.I {
		p |= flagI
	}
	if c.D {
		p |= flagD
	}
	if brk {
		p |= flagB
	}
	if c.V {
		p |= flagV
	}
	if c.N {
		p |= flagN
	}
	return p
}

// SetStatus loads P from a popped byte. B and the unused bit do not exist
// as stored flags and are discarded.
func (c *CPU) SetStatus(p uint8) {
	c.C = p&flagC != 0
	c.Z = p&flagZ != 0
	c.I = p&flagI != 0
	c.D = p&flagD != 0
	c.V = p&flagV != 0
	c.N = p&flagN != 0
}

func (c *CPU) setZN(val uint8) {
	c.Z = val == 0
	c.N = val&0x80 != 0
}

// State is the serializable CPU snapshot
type State struct {
	A      uint8  `json:"a"`
	X      uint8  `json:"x"`
	Y      uint8  `json:"y"`
	SP     uint8  `json:"sp"`
	PC     uint16 `json:"pc"`
	P      uint8  `json:"p"`
	Jammed bool   `json:"jammed"`
}

// TakeSnapshot captures the register file
func (c *CPU) TakeSnapshot() State {
	return State{A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, P: c.Status(false), Jammed: c.Jammed}
}

// RestoreSnapshot restores the register file
func (c *CPU) RestoreSnapshot(s State) {
	c.A, c.X, c.Y, c.SP, c.PC = s.A, s.X, s.Y, s.SP, s.PC
	c.SetStatus(s.P)
	c.Jammed = s.Jammed
}
