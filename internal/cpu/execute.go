package cpu

// execute runs one decoded instruction. The returned value is the extra
// cycle count branches contribute; page-cross penalties are handled by the
// caller from the table flag.
func (c *CPU) execute(opcode uint8, in *Instruction, addr uint16, pageCrossed bool) uint8 {
	switch opcode {
	// Load/store
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1: // LDA
		c.A = c.bus.Read(addr)
		c.setZN(c.A)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE: // LDX
		c.X = c.bus.Read(addr)
		c.setZN(c.X)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC: // LDY
		c.Y = c.bus.Read(addr)
		c.setZN(c.Y)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91: // STA
		c.bus.Write(addr, c.A)
	case 0x86, 0x96, 0x8E: // STX
		c.bus.Write(addr, c.X)
	case 0x84, 0x94, 0x8C: // STY
		c.bus.Write(addr, c.Y)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71: // ADC
		c.adc(c.bus.Read(addr))
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1: // SBC, USBC
		c.sbc(c.bus.Read(addr))

	// Logic
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31: // AND
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11: // ORA
		c.A |= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51: // EOR
		c.A ^= c.bus.Read(addr)
		c.setZN(c.A)

	// Shifts and rotates
	case 0x0A: // ASL A
		c.A = c.asl(c.A)
	case 0x06, 0x16, 0x0E, 0x1E: // ASL
		c.rmw(addr, c.asl)
	case 0x4A: // LSR A
		c.A = c.lsr(c.A)
	case 0x46, 0x56, 0x4E, 0x5E: // LSR
		c.rmw(addr, c.lsr)
	case 0x2A: // ROL A
		c.A = c.rol(c.A)
	case 0x26, 0x36, 0x2E, 0x3E: // ROL
		c.rmw(addr, c.rol)
	case 0x6A: // ROR A
		c.A = c.ror(c.A)
	case 0x66, 0x76, 0x6E, 0x7E: // ROR
		c.rmw(addr, c.ror)

	// Compares
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1: // CMP
		c.compare(c.A, c.bus.Read(addr))
	case 0xE0, 0xE4, 0xEC: // CPX
		c.compare(c.X, c.bus.Read(addr))
	case 0xC0, 0xC4, 0xCC: // CPY
		c.compare(c.Y, c.bus.Read(addr))

	// Increments and decrements
	case 0xE6, 0xF6, 0xEE, 0xFE: // INC
		c.rmw(addr, func(v uint8) uint8 { v++; c.setZN(v); return v })
	case 0xC6, 0xD6, 0xCE, 0xDE: // DEC
		c.rmw(addr, func(v uint8) uint8 { v--; c.setZN(v); return v })
	case 0xE8: // INX
		c.X++
		c.setZN(c.X)
	case 0xCA: // DEX
		c.X--
		c.setZN(c.X)
	case 0xC8: // INY
		c.Y++
		c.setZN(c.Y)
	case 0x88: // DEY
		c.Y--
		c.setZN(c.Y)

	// Transfers
	case 0xAA: // TAX
		c.X = c.A
		c.setZN(c.X)
	case 0x8A: // TXA
		c.A = c.X
		c.setZN(c.A)
	case 0xA8: // TAY
		c.Y = c.A
		c.setZN(c.Y)
	case 0x98: // TYA
		c.A = c.Y
		c.setZN(c.A)
	case 0xBA: // TSX
		c.X = c.SP
		c.setZN(c.X)
	case 0x9A: // TXS
		c.SP = c.X

	// Stack
	case 0x48: // PHA
		c.push(c.A)
	case 0x68: // PLA
		c.A = c.pop()
		c.setZN(c.A)
	case 0x08: // PHP
		c.push(c.Status(true))
	case 0x28: // PLP
		c.SetStatus(c.pop())

	// Flags
	case 0x18: // CLC
		c.C = false
	case 0x38: // SEC
		c.C = true
	case 0x58: // CLI
		c.I = false
	case 0x78: // SEI
		c.I = true
	case 0xB8: // CLV
		c.V = false
	case 0xD8: // CLD
		c.D = false
	case 0xF8: // SED
		c.D = true

	// Control flow
	case 0x4C, 0x6C: // JMP
		c.PC = addr
	case 0x20: // JSR
		c.pushWord(c.PC - 1)
		c.PC = addr
	case 0x60: // RTS
		c.PC = c.popWord() + 1
	case 0x40: // RTI
		c.SetStatus(c.pop())
		c.PC = c.popWord()

	// Branches
	case 0x90: // BCC
		return c.branch(!c.C, addr, pageCrossed)
	case 0xB0: // BCS
		return c.branch(c.C, addr, pageCrossed)
	case 0xD0: // BNE
		return c.branch(!c.Z, addr, pageCrossed)
	case 0xF0: // BEQ
		return c.branch(c.Z, addr, pageCrossed)
	case 0x10: // BPL
		return c.branch(!c.N, addr, pageCrossed)
	case 0x30: // BMI
		return c.branch(c.N, addr, pageCrossed)
	case 0x50: // BVC
		return c.branch(!c.V, addr, pageCrossed)
	case 0x70: // BVS
		return c.branch(c.V, addr, pageCrossed)

	// Misc
	case 0x24, 0x2C: // BIT
		v := c.bus.Read(addr)
		c.N = v&0x80 != 0
		c.V = v&0x40 != 0
		c.Z = c.A&v == 0
	case 0x00: // BRK
		c.PC++ // padding byte
		c.pushWord(c.PC)
		c.push(c.Status(true))
		c.I = true
		lo := uint16(c.bus.Read(irqVector))
		hi := uint16(c.bus.Read(irqVector + 1))
		c.PC = hi<<8 | lo

	// NOPs, documented and not. Addressed variants still perform the read.
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
	case 0x80, 0x82, 0x89, 0xC2, 0xE2,
		0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		c.bus.Read(addr)

	// Undocumented opcodes
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF: // LAX
		c.A = c.bus.Read(addr)
		c.X = c.A
		c.setZN(c.A)
	case 0x83, 0x87, 0x8F, 0x97: // SAX
		c.bus.Write(addr, c.A&c.X)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB: // DCP
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.compare(c.A, v)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB: // ISB
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.sbc(v)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B: // SLO
		v := c.asl(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A |= v
		c.setZN(c.A)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B: // RLA
		v := c.rol(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A &= v
		c.setZN(c.A)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B: // SRE
		v := c.lsr(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A ^= v
		c.setZN(c.A)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B: // RRA
		v := c.ror(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.adc(v)

	case 0x0B, 0x2B: // ANC
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
		c.C = c.N
	case 0x4B: // ALR
		c.A &= c.bus.Read(addr)
		c.A = c.lsr(c.A)
	case 0x6B: // ARR
		c.A &= c.bus.Read(addr)
		c.A = c.A>>1 | boolBit(c.C)<<7
		c.setZN(c.A)
		c.C = c.A&0x40 != 0
		c.V = (c.A>>6)&1 != (c.A>>5)&1
	case 0xCB: // SBX
		v := c.bus.Read(addr)
		t := c.A & c.X
		c.C = t >= v
		c.X = t - v
		c.setZN(c.X)
	case 0xBB: // LAS
		v := c.bus.Read(addr) & c.SP
		c.A = v
		c.X = v
		c.SP = v
		c.setZN(v)
	case 0x9B: // TAS
		c.SP = c.A & c.X
		c.bus.Write(addr, c.A&c.X&(uint8(addr>>8)+1))
	case 0x9F, 0x93: // SHA
		c.bus.Write(addr, c.A&c.X&(uint8(addr>>8)+1))
	case 0x9E: // SHX
		c.bus.Write(addr, c.X&(uint8(addr>>8)+1))
	case 0x9C: // SHY
		c.bus.Write(addr, c.Y&(uint8(addr>>8)+1))
	case 0x8B: // ANE: unstable, modelled with the common magic constant
		c.A = (c.A | 0xEE) & c.X & c.bus.Read(addr)
		c.setZN(c.A)
	case 0xAB: // LXA
		c.A = (c.A | 0xEE) & c.bus.Read(addr)
		c.X = c.A
		c.setZN(c.A)

	case 0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2: // JAM
		c.Jammed = true
		c.PC--
	}
	return 0
}

func (c *CPU) adc(v uint8) {
	carry := boolBit(c.C)
	sum := uint16(c.A) + uint16(v) + uint16(carry)
	res := uint8(sum)
	c.V = (c.A^res)&0x80 != 0 && (c.A^v)&0x80 == 0
	c.C = sum > 0xFF
	c.A = res
	c.setZN(c.A)
}

func (c *CPU) sbc(v uint8) {
	c.adc(v ^ 0xFF)
}

func (c *CPU) compare(reg, v uint8) {
	c.C = reg >= v
	c.setZN(reg - v)
}

func (c *CPU) asl(v uint8) uint8 {
	c.C = v&0x80 != 0
	v <<= 1
	c.setZN(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.C = v&0x01 != 0
	v >>= 1
	c.setZN(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carry := boolBit(c.C)
	c.C = v&0x80 != 0
	v = v<<1 | carry
	c.setZN(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carry := boolBit(c.C)
	c.C = v&0x01 != 0
	v = v>>1 | carry<<7
	c.setZN(v)
	return v
}

// rmw performs a read-modify-write memory operation
func (c *CPU) rmw(addr uint16, op func(uint8) uint8) {
	v := c.bus.Read(addr)
	c.bus.Write(addr, op(v))
}

// branch applies a conditional branch: +1 cycle when taken, +2 when the
// target lies on another page.
func (c *CPU) branch(cond bool, addr uint16, pageCrossed bool) uint8 {
	if !cond {
		return 0
	}
	c.PC = addr
	if pageCrossed {
		return 2
	}
	return 1
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
