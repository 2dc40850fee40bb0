package cartridge

// Handler function types for the page-indexed dispatch tables. The bus
// resolves CPU pages 3-7 (SRAM and PRG) through these; the PPU resolves
// pages 0-11 (patterns and nametables) the same way. Handlers are swapped by
// mappers on bank-switch writes so the hot path stays branch free.
type (
	CPUReadHandler  func(c *Cartridge, addr uint16) uint8
	CPUWriteHandler func(c *Cartridge, addr uint16, val uint8)
	PPUReadHandler  func(c *Cartridge, addr uint16) uint8
	PPUWriteHandler func(c *Cartridge, addr uint16, val uint8)
)

// Dispatch table indices
const (
	// CPU side: one handler per 8 KiB page
	SRAMHandler = 3 // 0x6000-0x7FFF
	// PPU side: one handler per 1 KiB page; 0-7 patterns, 8-11 nametables,
	// 12-15 nametable mirrors (palette range is intercepted by the PPU)
	NametableHandler = 8
)

// MemConfig aggregates the four banking tables and the handler dispatch
// tables. It is plain data owned by the cartridge: mappers mutate it, the
// bus and PPU consult it on every access.
type MemConfig struct {
	Prg       Banking `json:"prg"`
	Chr       Banking `json:"chr"`
	Sram      Banking `json:"sram"`
	Nametable Banking `json:"nametable"`

	// Function tables are not serializable; they are rebuilt from the mapper
	// after a snapshot restore.
	CPUReads  [8]CPUReadHandler   `json:"-"`
	CPUWrites [8]CPUWriteHandler  `json:"-"`
	PPUReads  [16]PPUReadHandler  `json:"-"`
	PPUWrites [16]PPUWriteHandler `json:"-"`
}

// NewMemConfig builds the power-on configuration for a header: unbanked
// PRG/CHR/SRAM windows and nametables wired for the header's mirroring.
func NewMemConfig(h *Header) MemConfig {
	cfg := MemConfig{
		Prg:       NewPRGBanking(h, 1),
		Chr:       NewCHRBanking(h, 1),
		Sram:      NewSRAMBanking(h),
		Nametable: NewNametableBanking(h),
	}
	cfg.resetHandlers()
	return cfg
}

// resetHandlers installs the default dispatch table. CPU pages 0-2 belong to
// the bus (RAM, PPU registers, APU/IO) and are present only so the table is
// total; no mapper touches them.
func (cfg *MemConfig) resetHandlers() {
	for i := 0; i < 3; i++ {
		cfg.CPUReads[i] = openBusRead
		cfg.CPUWrites[i] = openBusWrite
	}
	cfg.CPUReads[SRAMHandler] = SramRead
	cfg.CPUWrites[SRAMHandler] = SramWrite
	for i := 4; i < 8; i++ {
		cfg.CPUReads[i] = PrgRead
		cfg.CPUWrites[i] = PrgWrite
	}

	for i := 0; i < 8; i++ {
		cfg.PPUReads[i] = ChrRead
		cfg.PPUWrites[i] = ChrWrite
	}
	for i := 8; i < 16; i++ {
		cfg.PPUReads[i] = NametableRead
		cfg.PPUWrites[i] = NametableWrite
	}
}

// SetPRGHandlers swaps the handlers of all four PRG pages
func (cfg *MemConfig) SetPRGHandlers(read CPUReadHandler, write CPUWriteHandler) {
	for i := 4; i < 8; i++ {
		cfg.CPUReads[i] = read
		cfg.CPUWrites[i] = write
	}
}

// SetCHRHandlers swaps the handlers of the pattern table pages
func (cfg *MemConfig) SetCHRHandlers(read PPUReadHandler, write PPUWriteHandler) {
	for i := 0; i < 8; i++ {
		cfg.PPUReads[i] = read
		cfg.PPUWrites[i] = write
	}
}

// SetNametableHandlers swaps the handlers of the nametable pages proper
// (0x2000-0x2FFF); mirror pages 12-15 follow along.
func (cfg *MemConfig) SetNametableHandlers(read PPUReadHandler, write PPUWriteHandler) {
	for i := 8; i < 16; i++ {
		cfg.PPUReads[i] = read
		cfg.PPUWrites[i] = write
	}
}

// Default handlers. They resolve through the mapper translate hooks, which
// for most mappers collapse to a banking table lookup.

func PrgRead(c *Cartridge, addr uint16) uint8 {
	return c.PRG[c.mapper.PrgTranslate(&c.Config, addr)%len(c.PRG)]
}

func PrgWrite(c *Cartridge, addr uint16, val uint8) {
	c.mapper.PrgWrite(&c.Config, addr, val)
}

func SramRead(c *Cartridge, addr uint16) uint8 {
	if len(c.SRAM) == 0 {
		return 0
	}
	return c.SRAM[c.mapper.SramTranslate(&c.Config, addr)%len(c.SRAM)]
}

func SramWrite(c *Cartridge, addr uint16, val uint8) {
	if len(c.SRAM) == 0 {
		return
	}
	c.SRAM[c.mapper.SramTranslate(&c.Config, addr)%len(c.SRAM)] = val
}

// SramAsPrgRead serves the 0x6000-0x7FFF window from PRG ROM; FME-7 and MMC5
// bank this window between ROM and RAM.
func SramAsPrgRead(c *Cartridge, addr uint16) uint8 {
	return c.PRG[c.Config.Sram.Translate(addr)%len(c.PRG)]
}

func SramAsPrgWrite(c *Cartridge, addr uint16, val uint8) {}

func ChrRead(c *Cartridge, addr uint16) uint8 {
	return c.CHR[c.mapper.ChrTranslate(&c.Config, addr)%len(c.CHR)]
}

func ChrWrite(c *Cartridge, addr uint16, val uint8) {
	if !c.Header.UsesCHRRAM {
		return
	}
	c.CHR[c.mapper.ChrTranslate(&c.Config, addr)%len(c.CHR)] = val
}

func NametableRead(c *Cartridge, addr uint16) uint8 {
	a := 0x2000 | (addr & 0x0FFF) // 0x3000-0x3EFF mirrors down
	return c.ciram[c.mapper.NametableTranslate(&c.Config, a)&0x0FFF]
}

func NametableWrite(c *Cartridge, addr uint16, val uint8) {
	a := 0x2000 | (addr & 0x0FFF)
	c.ciram[c.mapper.NametableTranslate(&c.Config, a)&0x0FFF] = val
}

// Nametable0Read pins a page to the first CIRAM kilobyte (Namco 163)
func Nametable0Read(c *Cartridge, addr uint16) uint8 {
	return c.ciram[addr&0x03FF]
}

func Nametable0Write(c *Cartridge, addr uint16, val uint8) {
	c.ciram[addr&0x03FF] = val
}

// Nametable1Read pins a page to the second CIRAM kilobyte (Namco 163)
func Nametable1Read(c *Cartridge, addr uint16) uint8 {
	return c.ciram[0x0400+(addr&0x03FF)]
}

func Nametable1Write(c *Cartridge, addr uint16, val uint8) {
	c.ciram[0x0400+(addr&0x03FF)] = val
}

// ChrFromNametableRead serves nametable fetches from CHR memory through the
// nametable banking table (GTROM, Namco 163 CHR-as-nametable).
func ChrFromNametableRead(c *Cartridge, addr uint16) uint8 {
	return c.CHR[c.Config.Nametable.Translate(0x2000+(addr&0x0FFF))%len(c.CHR)]
}

func ChrFromNametableWrite(c *Cartridge, addr uint16, val uint8) {
	if !c.Header.UsesCHRRAM {
		return
	}
	c.CHR[c.Config.Nametable.Translate(0x2000+(addr&0x0FFF))%len(c.CHR)] = val
}

func openBusRead(c *Cartridge, addr uint16) uint8 { return 0 }

func openBusWrite(c *Cartridge, addr uint16, val uint8) {}
