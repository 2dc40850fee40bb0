package bus

import (
	"testing"

	"nengo/internal/cartridge"
)

// newTestBus builds a machine around a minimal NROM cart. The program is
// placed at 0x8000 with the reset vector pointing at it.
func newTestBus(program ...uint8) *Bus {
	cart := cartridge.MustBuildCart(cartridge.ROMSpec{
		Mapper:   0,
		PRGBanks: 2,
		CHRBanks: 0,
		Program:  program,
	})
	b := New(cart, 44100)
	b.CPU.Reset()
	return b
}

func TestRAMMirroring(t *testing.T) {
	b := newTestBus(0xEA)
	b.Write(0x0001, 0x42)
	for _, addr := range []uint16{0x0801, 0x1001, 0x1801} {
		if got := b.Read(addr); got != 0x42 {
			t.Errorf("mirror %04X = %02X, want 42", addr, got)
		}
	}
}

func TestCycleConservation(t *testing.T) {
	b := newTestBus(
		0xA9, 0x01, // LDA #$01
		0x8D, 0x00, 0x02, // STA $0200
		0x4C, 0x00, 0x80, // JMP $8000
	)

	startCycles := b.Cycles()
	startDots := ppuPosition(b)
	for i := 0; i < 1000; i++ {
		b.Step()
	}
	cpuDelta := b.Cycles() - startCycles
	dotDelta := ppuPosition(b) - startDots
	if dotDelta != 3*cpuDelta {
		t.Errorf("PPU advanced %d dots over %d CPU cycles, want exactly 3x", dotDelta, cpuDelta)
	}
}

// ppuPosition linearizes the PPU position into total dots since power-on
func ppuPosition(b *Bus) uint64 {
	return b.PPU.Frame()*89342 + uint64(b.PPU.Scanline())*341 + uint64(b.PPU.Dot())
}

func TestOAMDMATransfer(t *testing.T) {
	b := newTestBus(0xEA)

	// fill page 2 with a pattern
	for i := 0; i < 256; i++ {
		b.RAM()[0x200+i] = uint8(i ^ 0xA5)
	}

	// even start
	if b.Cycles()%2 == 1 {
		b.Tick()
	}
	start := b.Cycles()
	b.Write(0x4014, 0x02)
	if got := b.Cycles() - start; got != 1+513 {
		t.Errorf("even-start DMA = %d cycles (with the write), want 514", got)
	}

	oam := b.PPU.OAM()
	for i := 0; i < 256; i++ {
		if oam[i] != uint8(i^0xA5) {
			t.Fatalf("OAM[%d] = %02X, want %02X", i, oam[i], uint8(i^0xA5))
		}
	}

	// odd start takes one cycle more
	if b.Cycles()%2 == 0 {
		b.Tick()
	}
	start = b.Cycles()
	b.Write(0x4014, 0x02)
	if got := b.Cycles() - start; got != 1+514 {
		t.Errorf("odd-start DMA = %d cycles (with the write), want 515", got)
	}
}

func TestDMCDMAStall(t *testing.T) {
	b := newTestBus(0xEA)

	b.Write(0x4012, 0x00) // sample at 0xC000
	b.Write(0x4013, 0x00) // length 1
	b.Write(0x4015, 0x10) // enable DMC

	if !b.IsDMATransferring() {
		t.Fatal("DMC DMA not pending after enable")
	}
	start := b.Cycles()
	b.HandleDMA()
	if got := b.Cycles() - start; got != 4 {
		t.Errorf("DMC DMA stall = %d cycles, want 4", got)
	}
	if b.IsDMATransferring() {
		t.Error("DMA still pending after the fetch")
	}
}

func TestJoypadThroughBus(t *testing.T) {
	b := newTestBus(0xEA)
	b.Joypad.SetButtons(1, 0x81) // A + Right

	b.Write(0x4016, 1)
	b.Write(0x4016, 0)
	if got := b.Read(0x4016) & 1; got != 1 {
		t.Error("bit 0 (A) not shifted out first")
	}
	for i := 0; i < 6; i++ {
		b.Read(0x4016)
	}
	if got := b.Read(0x4016) & 1; got != 1 {
		t.Error("bit 7 (Right) lost")
	}
}

func TestNMIDispatchThroughVector(t *testing.T) {
	// program: enable NMI, then spin; NMI handler writes 0x42 to 0x0010
	b := newTestBus(
		0xA9, 0x80, // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000 (NMI enable)
		0x4C, 0x05, 0x80, // JMP $8005 (spin)
	)

	// handler at 0x9000: LDA #$42; STA $10; RTI
	cart := b.Cartridge()
	handler := []uint8{0xA9, 0x42, 0x85, 0x10, 0x40}
	copy(cart.PRG[0x1000:], handler)
	cart.PRG[len(cart.PRG)-6] = 0x00 // NMI vector lo
	cart.PRG[len(cart.PRG)-5] = 0x90 // NMI vector hi

	// run one frame and a bit; vblank raises the NMI
	for i := 0; i < 40000; i++ {
		b.Step()
		if b.RAM()[0x10] == 0x42 {
			return
		}
	}
	t.Error("NMI handler never ran")
}

func TestAPUFrameIRQReachesCPU(t *testing.T) {
	// CLI; spin. The frame counter IRQ must vector the CPU.
	b := newTestBus(
		0x58,             // CLI
		0x4C, 0x01, 0x80, // JMP $8001
	)
	cart := b.Cartridge()
	// IRQ handler at 0x9100: INC $11; RTI
	handler := []uint8{0xE6, 0x11, 0x40}
	copy(cart.PRG[0x1100:], handler)
	cart.PRG[len(cart.PRG)-2] = 0x00
	cart.PRG[len(cart.PRG)-1] = 0x91

	for i := 0; i < 20000; i++ {
		b.Step()
		if b.RAM()[0x11] > 0 {
			return
		}
	}
	t.Error("frame IRQ never serviced")
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := newTestBus(
		0xA9, 0x55, // LDA #$55
		0x85, 0x20, // STA $20
		0x4C, 0x04, 0x80, // JMP $8004
	)
	for i := 0; i < 100; i++ {
		b.Step()
	}

	snap, err := b.TakeSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// disturb state, then restore
	b.Write(0x0020, 0x00)
	b.CPU.A = 0
	if err := b.RestoreSnapshot(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.RAM()[0x20] != 0x55 {
		t.Error("RAM not restored")
	}
	if b.CPU.A != 0x55 {
		t.Error("CPU not restored")
	}
}
