// Package bus implements the system bus connecting CPU, PPU, APU, joypads
// and the cartridge.
package bus

import (
	"nengo/internal/apu"
	"nengo/internal/cartridge"
	"nengo/internal/cpu"
	"nengo/internal/input"
	"nengo/internal/ppu"
)

// Bus owns every addressable component. All CPU memory traffic flows
// through Read/Write, each of which advances the machine by exactly one
// cycle: three PPU dots, one APU cycle and one mapper cycle notification.
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Joypad *input.Joypad

	cart *cartridge.Cartridge

	ram     [0x800]uint8
	cycles  uint64
	openBus uint8
}

// New assembles a machine around a cartridge. Pass cartridge.NewEmpty()
// for a powered-on console with no game inserted.
func New(cart *cartridge.Cartridge, sampleRate int) *Bus {
	b := &Bus{
		cart:   cart,
		Joypad: input.New(),
	}
	b.PPU = ppu.New(cart)
	b.APU = apu.New(int(cart.Header.Timing.CPUHz()), sampleRate)
	b.APU.SetExternalSampleSource(func() float32 { return b.cart.Mapper().Sample() })
	b.CPU = cpu.New(b)
	return b
}

// Cartridge returns the inserted cartridge
func (b *Bus) Cartridge() *cartridge.Cartridge { return b.cart }

// LoadCartridge swaps in a new cartridge and resets the machine
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.PPU.SetCartridge(cart)
	b.Reset()
}

// Reset performs a console reset
func (b *Bus) Reset() {
	b.cart.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Joypad.Reset()
	b.CPU.Reset()
}

// Cycles returns the monotonic CPU cycle counter
func (b *Bus) Cycles() uint64 { return b.cycles }

// RAM exposes the 2 KiB of console RAM for tests and debuggers
func (b *Bus) RAM() *[0x800]uint8 { return &b.ram }

// Tick advances the machine by one CPU cycle
func (b *Bus) Tick() {
	b.PPU.Step()
	b.PPU.Step()
	b.PPU.Step()
	b.APU.Step()
	b.cart.Mapper().NotifyCPUCycle()
	b.cycles++
}

// TickN advances the machine by n CPU cycles
func (b *Bus) TickN(n int) {
	for i := 0; i < n; i++ {
		b.Tick()
	}
}

// TickUntil pads the current instruction out to the target cycle count
func (b *Bus) TickUntil(target uint64) {
	for b.cycles < target {
		b.Tick()
	}
}

// Read performs one CPU read cycle
func (b *Bus) Read(addr uint16) uint8 {
	b.Tick()
	val := b.readDispatch(addr)
	b.openBus = val
	return val
}

// Peek reads without ticking or side effects where possible; meant for
// debuggers and trace logging.
func (b *Bus) Peek(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4020:
		return b.openBus
	case addr < 0x6000:
		return b.openBus
	default:
		return b.cart.CPURead(addr)
	}
}

func (b *Bus) readDispatch(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(addr)
	case addr == 0x4015:
		return b.APU.ReadStatus()
	case addr == 0x4016:
		return b.Joypad.Read1()
	case addr == 0x4017:
		return b.Joypad.Read2()
	case addr < 0x4020:
		// APU registers are write-only; reads float
		return b.openBus
	case addr < 0x6000:
		return b.cart.CartRead(addr)
	default:
		return b.cart.CPURead(addr)
	}
}

// Write performs one CPU write cycle
func (b *Bus) Write(addr uint16, val uint8) {
	parity := b.cycles
	b.Tick()
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = val
	case addr < 0x4000:
		b.PPU.WriteRegister(addr, val)
	case addr == 0x4014:
		b.oamDMA(val, parity%2 == 1)
	case addr == 0x4016:
		b.Joypad.Write(val)
	case addr <= 0x4013 || addr == 0x4015 || addr == 0x4017:
		b.APU.WriteRegister(addr, val)
	case addr < 0x4020:
		// test-mode registers, ignored
	case addr < 0x6000:
		b.cart.CartWrite(addr, val)
	default:
		b.cart.CPUWrite(addr, val)
	}
}

// Read16 reads a little-endian word
func (b *Bus) Read16(addr uint16) uint16 {
	lo := uint16(b.Read(addr))
	hi := uint16(b.Read(addr + 1))
	return hi<<8 | lo
}

// Write16 writes a little-endian word
func (b *Bus) Write16(addr uint16, val uint16) {
	b.Write(addr, uint8(val))
	b.Write(addr+1, uint8(val>>8))
}

// oamDMA copies a 256-byte page into OAM, stalling the CPU for 513 cycles
// (514 when started on an odd cycle). The PPU sees the writes in order
// through OAMDATA.
func (b *Bus) oamDMA(page uint8, oddStart bool) {
	b.Tick() // alignment wait state
	if oddStart {
		b.Tick()
	}
	src := uint16(page) << 8
	for i := 0; i < 256; i++ {
		val := b.Read(src + uint16(i))
		b.PPU.WriteOAM(val)
		b.Tick()
	}
}

// IsDMATransferring reports a pending DMC fetch; OAM DMA runs to
// completion inside the triggering write.
func (b *Bus) IsDMATransferring() bool {
	return b.APU.DMC.NeedsDMA()
}

// HandleDMA services one DMC sample fetch: the CPU is stalled while the
// byte is read and loaded.
func (b *Bus) HandleDMA() {
	b.Tick()
	b.Tick()
	addr := b.APU.DMC.DMAAddress()
	val := b.Read(addr)
	b.APU.DMC.LoadSample(val)
	b.Tick()
}

// NMIPoll consumes the PPU's pending NMI
func (b *Bus) NMIPoll() bool {
	return b.PPU.NMIPoll()
}

// IRQPoll reports the wired-OR IRQ line: mapper, frame counter, DMC
func (b *Bus) IRQPoll() bool {
	return b.cart.Mapper().PollIRQ() || b.APU.IRQAsserted()
}

// Step executes one CPU instruction (with any DMA stalls it incurs)
func (b *Bus) Step() {
	b.CPU.Step()
}

// StepUntilVBlank runs instructions until the PPU enters vertical blank
func (b *Bus) StepUntilVBlank() {
	b.PPU.VBlankPoll() // clear any stale signal
	for !b.PPU.VBlankPoll() {
		b.Step()
	}
}

// RunCycles runs instructions until at least n more CPU cycles have passed
func (b *Bus) RunCycles(n uint64) {
	target := b.cycles + n
	for b.cycles < target {
		b.Step()
	}
}

// FrameBuffer returns the PPU's indexed framebuffer
func (b *Bus) FrameBuffer() []uint8 {
	return b.PPU.FrameBuffer()
}

// AudioSamples drains the APU sample queue
func (b *Bus) AudioSamples() []int16 {
	return b.APU.Samples()
}
