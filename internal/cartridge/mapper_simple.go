package cartridge

// Discrete-logic boards: one or two latch bits, no IRQ.

// NROM is mapper 0: up to 32 KiB PRG, up to 8 KiB CHR, no registers
type NROM struct{ mapperBase }

func (NROM) Name() string { return "NROM" }

func (NROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	if h.PRGSize <= 16*1024 {
		// 16 KiB images mirror into both halves
		cfg.Prg.SetPage(0, 0)
		cfg.Prg.SetPage(1, 0)
	} else {
		cfg.Prg.SetPage(0, 0)
		cfg.Prg.SetPage(1, 1)
	}
	cfg.Chr = NewCHRBanking(h, 1)
}

// UxROM is mapper 2: switchable 16 KiB at 0x8000, last bank fixed at 0xC000
type UxROM struct{ mapperBase }

func (UxROM) Name() string { return "UxROM" }

func (UxROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	cfg.Prg.SetPageToLastBank(1)
	cfg.Chr = NewCHRBanking(h, 1)
}

func (UxROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Prg.SetPage(0, int(val))
}

// CNROM is mapper 3: fixed PRG, switchable 8 KiB CHR
type CNROM struct{ mapperBase }

func (CNROM) Name() string { return "CNROM" }

func (CNROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	if h.PRGSize <= 16*1024 {
		cfg.Prg.SetPage(0, 0)
		cfg.Prg.SetPage(1, 0)
	} else {
		cfg.Prg.SetPage(0, 0)
		cfg.Prg.SetPage(1, 1)
	}
	cfg.Chr = NewCHRBanking(h, 1)
}

func (CNROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Chr.SetPage(0, int(val&0x03))
}

// AxROM is mapper 7: 32 KiB PRG banks plus single-screen mirroring select
type AxROM struct{ mapperBase }

func (AxROM) Name() string { return "AxROM" }

func (AxROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 1)
	cfg.Chr = NewCHRBanking(h, 1)
	cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
}

func (AxROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Prg.SetPage(0, int(val&0x07))
	if val&0x10 != 0 {
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
	} else {
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
	}
}

// ColorDreams is mapper 11: 32 KiB PRG and 8 KiB CHR selects in one register
type ColorDreams struct{ mapperBase }

func (ColorDreams) Name() string { return "ColorDreams" }

func (ColorDreams) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 1)
	cfg.Chr = NewCHRBanking(h, 1)
}

func (ColorDreams) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Prg.SetPage(0, int(val&0x03))
	cfg.Chr.SetPage(0, int(val>>4)&0x0F)
}

// GxROM is mapper 66: 32 KiB PRG and 8 KiB CHR selects in one register
type GxROM struct{ mapperBase }

func (GxROM) Name() string { return "GxROM" }

func (GxROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 1)
	cfg.Chr = NewCHRBanking(h, 1)
}

func (GxROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Chr.SetPage(0, int(val&0x03))
	cfg.Prg.SetPage(0, int(val>>4)&0x03)
}

// BNROM is mapper 34 (incl. the NINA-001 variant by submapper): 32 KiB PRG banks
type BNROM struct {
	mapperBase
	Nina bool `json:"nina"`
}

func (*BNROM) Name() string { return "BNROM" }

func (m *BNROM) Init(h *Header, cfg *MemConfig) {
	m.Nina = h.Submapper == 1 || (!h.UsesCHRRAM && h.CHRSize > 8*1024)
	cfg.Prg = NewPRGBanking(h, 1)
	if m.Nina {
		cfg.Chr = NewCHRBanking(h, 2)
		cfg.Chr.SetPage(0, 0)
		cfg.Chr.SetPage(1, 1)
	} else {
		cfg.Chr = NewCHRBanking(h, 1)
	}
	m.SyncHandlers(cfg)
}

func (m *BNROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	if !m.Nina {
		cfg.Prg.SetPage(0, int(val))
	}
}

// NINA-001 registers live at 0x7FFD-0x7FFF, expressed as a SRAM handler swap
// so the PRG path stays on the default handlers.
func (m *BNROM) SyncHandlers(cfg *MemConfig) {
	if m.Nina {
		cfg.CPUWrites[SRAMHandler] = ninaWrite
	}
}

func ninaWrite(c *Cartridge, addr uint16, val uint8) {
	switch addr {
	case 0x7FFD:
		c.Config.Prg.SetPage(0, int(val&0x01))
	case 0x7FFE:
		c.Config.Chr.SetPage(0, int(val&0x0F))
	case 0x7FFF:
		c.Config.Chr.SetPage(1, int(val&0x0F))
	}
	SramWrite(c, addr, val)
}

// Camerica is mapper 71: UxROM-like with single-screen select at 0x9000
type Camerica struct{ mapperBase }

func (Camerica) Name() string { return "Camerica" }

func (Camerica) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	cfg.Prg.SetPageToLastBank(1)
	cfg.Chr = NewCHRBanking(h, 1)
}

func (Camerica) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	switch {
	case addr >= 0x9000 && addr <= 0x9FFF:
		if val&0x10 != 0 {
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
		} else {
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
		}
	case addr >= 0xC000:
		cfg.Prg.SetPage(0, int(val&0x0F))
	}
}

// UNROM512 is mapper 30: 16 KiB PRG banks, 8 KiB CHR RAM banks, one-screen flip
type UNROM512 struct{ mapperBase }

func (UNROM512) Name() string { return "UNROM512" }

func (UNROM512) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	cfg.Prg.SetPageToLastBank(1)
	cfg.Chr = NewCHRBanking(h, 1)
}

func (UNROM512) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	cfg.Prg.SetPage(0, int(val)&0x1F)
	cfg.Chr.SetPage(0, int(val>>5)&0x03)
	if val&0x80 != 0 {
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
	} else {
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
	}
}

// GTROM is mapper 111: 32 KiB PRG banks, two 8 KiB CHR RAM banks, and
// nametables that can select between the last two 8 KiB of CHR RAM. The
// register is reachable both at 0x5000-0x5FFF and 0x7000-0x7FFF.
type GTROM struct{ mapperBase }

func (GTROM) Name() string { return "GTROM" }

func (GTROM) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 1)
	cfg.Chr = NewCHRBanking(h, 1)
	// nametable window banked over CHR RAM in 8 KiB units
	cfg.Nametable = NewBanking(h.CHRRealSize(), 0x2000, 8*1024, 1)
	cfg.SetNametableHandlers(ChrFromNametableRead, ChrFromNametableWrite)
	// the SRAM window carries the register mirror
	cfg.CPUWrites[SRAMHandler] = gtromSramWrite
}

func (m GTROM) write(cfg *MemConfig, val uint8) {
	cfg.Prg.SetPage(0, int(val)&0x0F)
	cfg.Chr.SetPage(0, int(val>>4)&0x01)
	cfg.Nametable.SetPage(0, int(val>>5)&0x01+2)
}

func (m GTROM) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {}

func (m GTROM) CartWrite(cfg *MemConfig, addr uint16, val uint8) {
	if addr >= 0x5000 && addr <= 0x5FFF {
		m.write(cfg, val)
	}
}

func (m GTROM) SyncHandlers(cfg *MemConfig) {
	cfg.SetNametableHandlers(ChrFromNametableRead, ChrFromNametableWrite)
	cfg.CPUWrites[SRAMHandler] = gtromSramWrite
}

func gtromSramWrite(c *Cartridge, addr uint16, val uint8) {
	if addr >= 0x7000 {
		GTROM{}.write(&c.Config, val)
	}
}
