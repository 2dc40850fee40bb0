package cpu

import "testing"

// testBus is a flat 64 KiB memory implementing SystemBus, counting cycles
// the way the real bus does: one per access plus explicit padding.
type testBus struct {
	mem    [0x10000]uint8
	cycles uint64
	nmi    bool
	irq    bool
}

func (b *testBus) Read(addr uint16) uint8 {
	b.Tick()
	return b.mem[addr]
}

func (b *testBus) Write(addr uint16, val uint8) {
	b.Tick()
	b.mem[addr] = val
}

func (b *testBus) Tick()         { b.cycles++ }
func (b *testBus) Cycles() uint64 { return b.cycles }

func (b *testBus) TickUntil(target uint64) {
	for b.cycles < target {
		b.cycles++
	}
}

func (b *testBus) NMIPoll() bool {
	if b.nmi {
		b.nmi = false
		return true
	}
	return false
}

func (b *testBus) IRQPoll() bool          { return b.irq }
func (b *testBus) IsDMATransferring() bool { return false }
func (b *testBus) HandleDMA()              {}

// newTestCPU loads a program at 0x8000 and points reset there
func newTestCPU(program ...uint8) (*CPU, *testBus) {
	b := &testBus{}
	copy(b.mem[0x8000:], program)
	b.mem[0xFFFC] = 0x00
	b.mem[0xFFFD] = 0x80
	c := New(b)
	c.Reset()
	return c, b
}

func TestResetSequence(t *testing.T) {
	c, b := newTestCPU(0xEA)
	if c.PC != 0x8000 {
		t.Errorf("PC = %04X, want 8000", c.PC)
	}
	if c.SP != 0xFA {
		t.Errorf("SP = %02X, want FA", c.SP)
	}
	if !c.I {
		t.Error("irq_off not set by reset")
	}
	if b.cycles != 7 {
		t.Errorf("reset cycles = %d, want 7", b.cycles)
	}
}

func TestLDAFlags(t *testing.T) {
	c, _ := newTestCPU(
		0xA9, 0x00, // LDA #$00
		0xA9, 0x80, // LDA #$80
		0xA9, 0x01, // LDA #$01
	)
	c.Step()
	if !c.Z || c.N {
		t.Error("LDA #$00: want Z set, N clear")
	}
	c.Step()
	if c.Z || !c.N {
		t.Error("LDA #$80: want N set, Z clear")
	}
	c.Step()
	if c.Z || c.N {
		t.Error("LDA #$01: want Z and N clear")
	}
	if c.A != 0x01 {
		t.Errorf("A = %02X", c.A)
	}
}

func TestADCOverflowAndCarry(t *testing.T) {
	cases := []struct {
		a, v     uint8
		carryIn  bool
		want     uint8
		c, vflag bool
	}{
		{0x50, 0x50, false, 0xA0, false, true},  // pos+pos = neg
		{0xD0, 0x90, false, 0x60, true, true},   // neg+neg = pos
		{0xFF, 0x01, false, 0x00, true, false},  // wrap, no overflow
		{0x01, 0x01, true, 0x03, false, false},  // carry in
	}
	for _, tc := range cases {
		c, _ := newTestCPU(0x69, tc.v)
		c.A = tc.a
		c.C = tc.carryIn
		c.Step()
		if c.A != tc.want || c.C != tc.c || c.V != tc.vflag {
			t.Errorf("ADC %02X+%02X: A=%02X C=%t V=%t, want A=%02X C=%t V=%t",
				tc.a, tc.v, c.A, c.C, c.V, tc.want, tc.c, tc.vflag)
		}
	}
}

func TestSBCBorrow(t *testing.T) {
	c, _ := newTestCPU(0xE9, 0x30) // SBC #$30
	c.A = 0x50
	c.C = true // no borrow
	c.Step()
	if c.A != 0x20 || !c.C {
		t.Errorf("SBC: A=%02X C=%t", c.A, c.C)
	}
}

func TestStatusByteBUnused(t *testing.T) {
	// PHP pushes B=1 and unused=1; PLP drops B
	c, b := newTestCPU(
		0x08,       // PHP
		0xA9, 0xFF, // LDA #$FF (sets N)
		0x28, // PLP
	)
	c.C = true
	c.Step()
	pushed := b.mem[0x0100+uint16(c.SP)+1]
	if pushed&flagB == 0 || pushed&flagUnused == 0 {
		t.Errorf("PHP pushed %02X; B and unused must be set", pushed)
	}
	c.Step()
	c.Step() // PLP restores the pre-LDA flags
	if c.N {
		t.Error("PLP did not restore N")
	}
	if !c.C {
		t.Error("PLP lost carry")
	}
}

func TestBRKAndRTI(t *testing.T) {
	c, b := newTestCPU(0x00, 0xFF) // BRK + padding
	b.mem[0xFFFE] = 0x00
	b.mem[0xFFFF] = 0x90
	b.mem[0x9000] = 0x40 // RTI

	c.Step()
	if c.PC != 0x9000 {
		t.Fatalf("BRK vector: PC = %04X", c.PC)
	}
	if !c.I {
		t.Error("BRK must set irq_off")
	}
	pushed := b.mem[0x0100+uint16(c.SP)+1]
	if pushed&flagB == 0 {
		t.Error("BRK must push B set")
	}

	c.Step() // RTI
	if c.PC != 0x8002 {
		t.Errorf("RTI returned to %04X, want 8002 (BRK skips its padding byte)", c.PC)
	}
}

func TestIndirectJMPPageBug(t *testing.T) {
	c, b := newTestCPU(0x6C, 0xFF, 0x02) // JMP ($02FF)
	b.mem[0x02FF] = 0x34
	b.mem[0x0300] = 0x12 // would be the correct high byte
	b.mem[0x0200] = 0x56 // the bug fetches from the page start
	c.Step()
	if c.PC != 0x5634 {
		t.Errorf("PC = %04X, want 5634 (page-wrap bug)", c.PC)
	}
}

func TestZeroPageWraparound(t *testing.T) {
	c, b := newTestCPU(0xB5, 0xF0) // LDA $F0,X
	c.X = 0x20
	b.mem[0x0010] = 0x42 // 0xF0+0x20 wraps to 0x10
	c.Step()
	if c.A != 0x42 {
		t.Errorf("A = %02X, zero page index must wrap", c.A)
	}
}

func TestInstructionCycles(t *testing.T) {
	cases := []struct {
		name    string
		program []uint8
		setup   func(*CPU, *testBus)
		cycles  uint64
	}{
		{"LDA imm", []uint8{0xA9, 0x01}, nil, 2},
		{"LDA zp", []uint8{0xA5, 0x10}, nil, 3},
		{"LDA abs", []uint8{0xAD, 0x00, 0x02}, nil, 4},
		{"LDA absX no cross", []uint8{0xBD, 0x00, 0x02}, func(c *CPU, b *testBus) { c.X = 1 }, 4},
		{"LDA absX cross", []uint8{0xBD, 0xFF, 0x02}, func(c *CPU, b *testBus) { c.X = 1 }, 5},
		{"STA absX never adds", []uint8{0x9D, 0xFF, 0x02}, func(c *CPU, b *testBus) { c.X = 1 }, 5},
		{"INC abs", []uint8{0xEE, 0x00, 0x02}, nil, 6},
		{"JSR", []uint8{0x20, 0x00, 0x90}, nil, 6},
		{"branch not taken", []uint8{0xB0, 0x10}, nil, 2},
		{"branch taken", []uint8{0x90, 0x10}, nil, 3},
		{"branch taken cross", []uint8{0x90, 0xFD}, nil, 4},
		{"ISB absX", []uint8{0xFF, 0x00, 0x02}, func(c *CPU, b *testBus) { c.X = 1 }, 7},
	}

	for _, tc := range cases {
		c, b := newTestCPU(tc.program...)
		if tc.setup != nil {
			tc.setup(c, b)
		}
		start := b.cycles
		c.Step()
		if got := b.cycles - start; got != tc.cycles {
			t.Errorf("%s: %d cycles, want %d", tc.name, got, tc.cycles)
		}
	}
}

func TestUndocumentedLAXSAX(t *testing.T) {
	c, b := newTestCPU(
		0xA7, 0x10, // LAX $10
		0x87, 0x20, // SAX $20
	)
	b.mem[0x10] = 0x5A
	c.Step()
	if c.A != 0x5A || c.X != 0x5A {
		t.Errorf("LAX: A=%02X X=%02X", c.A, c.X)
	}
	c.A = 0xF0
	c.X = 0x3C
	c.Step()
	if b.mem[0x20] != 0xF0&0x3C {
		t.Errorf("SAX stored %02X", b.mem[0x20])
	}
}

func TestUndocumentedDCPISB(t *testing.T) {
	c, b := newTestCPU(0xC7, 0x10) // DCP $10
	b.mem[0x10] = 0x11
	c.A = 0x10
	c.Step()
	if b.mem[0x10] != 0x10 {
		t.Errorf("DCP memory = %02X", b.mem[0x10])
	}
	if !c.Z || !c.C {
		t.Error("DCP compare flags wrong")
	}

	c2, b2 := newTestCPU(0xE7, 0x10) // ISB $10
	b2.mem[0x10] = 0x0F
	c2.A = 0x20
	c2.C = true
	c2.Step()
	if b2.mem[0x10] != 0x10 {
		t.Errorf("ISB memory = %02X", b2.mem[0x10])
	}
	if c2.A != 0x10 {
		t.Errorf("ISB A = %02X, want 10", c2.A)
	}
}

func TestSHAQuirk(t *testing.T) {
	c, b := newTestCPU(0x9F, 0x00, 0x02) // SHA $0200,Y
	c.A = 0xFF
	c.X = 0xFF
	c.Y = 0x10
	c.Step()
	// stored value is A & X & (high byte of address + 1)
	if b.mem[0x0210] != 0xFF&0xFF&0x03 {
		t.Errorf("SHA stored %02X", b.mem[0x0210])
	}
}

func TestJAMHaltsCPU(t *testing.T) {
	c, b := newTestCPU(0x02, 0xA9, 0x42) // JAM; LDA #$42 never runs
	c.Step()
	if !c.Jammed {
		t.Fatal("JAM did not set jammed")
	}
	pc := c.PC
	for i := 0; i < 5; i++ {
		c.Step()
	}
	if c.PC != pc || c.A == 0x42 {
		t.Error("jammed CPU kept executing")
	}
	_ = b
}

func TestNMIServicing(t *testing.T) {
	c, b := newTestCPU(0xEA, 0xEA) // NOPs
	b.mem[0xFFFA] = 0x00
	b.mem[0xFFFB] = 0x95

	b.nmi = true
	start := b.cycles
	c.Step() // NOP + NMI service
	if c.PC != 0x9500 {
		t.Errorf("NMI vector: PC = %04X", c.PC)
	}
	if got := b.cycles - start; got != 2+7 {
		t.Errorf("NOP+NMI cycles = %d, want 9", got)
	}
	// hardware interrupts push B clear
	pushed := b.mem[0x0100+uint16(c.SP)+1]
	if pushed&flagB != 0 {
		t.Error("NMI pushed B set")
	}
	if pushed&flagUnused == 0 {
		t.Error("NMI pushed unused clear")
	}
}

func TestIRQMasking(t *testing.T) {
	c, b := newTestCPU(0x58, 0xEA, 0xEA) // CLI; NOP; NOP
	b.mem[0xFFFE] = 0x00
	b.mem[0xFFFF] = 0x96

	b.irq = true
	// I is set from reset; the IRQ must wait for CLI
	c.Step() // CLI, then the boundary poll takes the IRQ
	if c.PC != 0x9600 {
		t.Errorf("IRQ not taken after CLI: PC = %04X", c.PC)
	}
	if !c.I {
		t.Error("IRQ service must set irq_off")
	}
}
