package cartridge

// namcoChrTarget tells where a 1 KiB PPU page is routed
type namcoChrTarget uint8

const (
	namcoChr namcoChrTarget = iota
	namcoCiram0
	namcoCiram1
)

// Namco163 is mapper 19: 1 KiB CHR banking over twelve PPU pages (including
// the nametable window, which can select CHR ROM or either CIRAM kilobyte),
// three 8 KiB PRG selects and a 15-bit cycle IRQ readable over the expansion
// port. The wavetable sound unit is out of scope; its enable bit is tracked.
type Namco163 struct {
	mapperBase

	IrqValue     uint16 `json:"irqValue"`
	IrqEnabled   bool   `json:"irqEnabled"`
	IrqRequested bool   `json:"irqRequested"`

	ChrSelects     [12]namcoChrTarget `json:"chrSelects"`
	ChrRAM0Enabled bool               `json:"chrRam0Enabled"`
	ChrRAM1Enabled bool               `json:"chrRam1Enabled"`

	SoundEnabled bool `json:"soundEnabled"`
}

func (*Namco163) Name() string { return "Namco163" }

func (m *Namco163) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 4)
	cfg.Prg.SetPageToLastBank(3)
	cfg.Chr = NewBanking(h.CHRRealSize(), 0, 1024, 12)
}

func (m *Namco163) CartRead(addr uint16) uint8 {
	switch {
	case addr >= 0x5000 && addr <= 0x57FF:
		return uint8(m.IrqValue)
	case addr >= 0x5800 && addr <= 0x5FFF:
		res := uint8(m.IrqValue >> 8)
		if m.IrqEnabled {
			res |= 0x80
		}
		return res
	}
	return 0xFF
}

func (m *Namco163) CartWrite(cfg *MemConfig, addr uint16, val uint8) {
	switch {
	case addr >= 0x5000 && addr <= 0x57FF:
		m.IrqValue = m.IrqValue&0xFF00 | uint16(val)
		m.IrqRequested = false
	case addr >= 0x5800 && addr <= 0x5FFF:
		m.IrqValue = m.IrqValue&0x00FF | uint16(val&0x7F)<<8
		m.IrqEnabled = val&0x80 != 0
		m.IrqRequested = false
	}
}

func (m *Namco163) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	switch {
	case addr <= 0x9FFF: // CHR pages 0-3
		page := int(addr-0x8000) / 0x800
		if val >= 0xE0 && m.ChrRAM0Enabled {
			m.ChrSelects[page] = namcoCiram0
		} else {
			m.ChrSelects[page] = namcoChr
		}
		cfg.Chr.SetPage(page, int(val))
		m.SyncHandlers(cfg)
	case addr <= 0xBFFF: // CHR pages 4-7
		page := int(addr-0x8000) / 0x800
		if val >= 0xE0 && m.ChrRAM1Enabled {
			m.ChrSelects[page] = namcoCiram1
		} else {
			m.ChrSelects[page] = namcoChr
		}
		cfg.Chr.SetPage(page, int(val))
		m.SyncHandlers(cfg)
	case addr <= 0xDFFF: // nametable pages 8-11
		page := int(addr-0x8000) / 0x800
		if val >= 0xE0 {
			if val%2 == 0 {
				m.ChrSelects[page] = namcoCiram0
			} else {
				m.ChrSelects[page] = namcoCiram1
			}
		} else {
			m.ChrSelects[page] = namcoChr
		}
		cfg.Chr.SetPage(page, int(val))
		m.SyncHandlers(cfg)
	case addr <= 0xE7FF:
		cfg.Prg.SetPage(0, int(val&0x3F))
		m.SoundEnabled = val&0x40 == 0
	case addr <= 0xEFFF:
		cfg.Prg.SetPage(1, int(val&0x3F))
		m.ChrRAM0Enabled = val&0x40 == 0
		m.ChrRAM1Enabled = val&0x80 == 0
	case addr <= 0xF7FF:
		cfg.Prg.SetPage(2, int(val&0x3F))
	}
}

// SyncHandlers routes each of the twelve CHR/nametable pages to CHR memory
// or a pinned CIRAM kilobyte per the current selects.
func (m *Namco163) SyncHandlers(cfg *MemConfig) {
	for page, target := range m.ChrSelects {
		switch target {
		case namcoChr:
			if page < 8 {
				cfg.PPUReads[page] = ChrRead
				cfg.PPUWrites[page] = ChrWrite
			} else {
				cfg.PPUReads[page] = namcoChrNametableRead
				cfg.PPUWrites[page] = namcoChrNametableWrite
			}
		case namcoCiram0:
			cfg.PPUReads[page] = Nametable0Read
			cfg.PPUWrites[page] = Nametable0Write
		case namcoCiram1:
			cfg.PPUReads[page] = Nametable1Read
			cfg.PPUWrites[page] = Nametable1Write
		}
	}
	// mirror pages follow the nametable pages
	for i := 0; i < 4; i++ {
		cfg.PPUReads[12+i] = cfg.PPUReads[8+i]
		cfg.PPUWrites[12+i] = cfg.PPUWrites[8+i]
	}
}

// namcoChrNametableRead serves a nametable page from CHR via the 12-page
// CHR banking table.
func namcoChrNametableRead(c *Cartridge, addr uint16) uint8 {
	page := int(addr&0x3FFF) >> 10 & 0x0B
	return c.CHR[c.Config.Chr.PageBankAddr(page, addr)%len(c.CHR)]
}

func namcoChrNametableWrite(c *Cartridge, addr uint16, val uint8) {
	if !c.Header.UsesCHRRAM {
		return
	}
	page := int(addr&0x3FFF) >> 10 & 0x0B
	c.CHR[c.Config.Chr.PageBankAddr(page, addr)%len(c.CHR)] = val
}

func (m *Namco163) NotifyCPUCycle() {
	if !m.IrqEnabled {
		return
	}
	if m.IrqValue < 0x7FFF {
		m.IrqValue++
		if m.IrqValue == 0x7FFF {
			m.IrqRequested = true
		}
	}
}

func (m *Namco163) PollIRQ() bool { return m.IrqRequested }
