package cartridge

// MMC3 is mapper 4: bank select/bank data register pair, PRG and CHR mode
// bits implemented as page swaps, and the scanline IRQ counter.
type MMC3 struct {
	mapperBase

	RegSelect   uint8 `json:"regSelect"`
	PrgFixFirst bool  `json:"prgFixFirst"`
	ChrInverted bool  `json:"chrInverted"`

	SramReadEnabled  bool `json:"sramReadEnabled"`
	SramWriteEnabled bool `json:"sramWriteEnabled"`

	IrqCount     uint8 `json:"irqCount"`
	IrqLatch     uint8 `json:"irqLatch"`
	IrqReload    bool  `json:"irqReload"`
	IrqEnabled   bool  `json:"irqEnabled"`
	IrqRequested bool  `json:"irqRequested"`

	FourScreen bool `json:"fourScreen"`
}

func (*MMC3) Name() string { return "MMC3" }

func (m *MMC3) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 4)
	cfg.Chr = NewCHRBanking(h, 8)

	// PRG mode 0 at power-on: page 2 holds the second-to-last bank (mode 1
	// swaps it with page 0 and lets R6 select page 2)
	cfg.Prg.SetPage(2, cfg.Prg.BanksCount-2)
	cfg.Prg.SetPageToLastBank(3)

	m.FourScreen = h.Mirroring == MirrorFourScreen
}

func (m *MMC3) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	even := addr%2 == 0
	switch {
	case addr <= 0x9FFF && even:
		m.writeBankSelect(cfg, val)
	case addr <= 0x9FFF:
		m.writeBankData(cfg, val)
	case addr <= 0xBFFF && even:
		if !m.FourScreen {
			if val&1 != 0 {
				cfg.Nametable.UpdateMirroring(MirrorHorizontal)
			} else {
				cfg.Nametable.UpdateMirroring(MirrorVertical)
			}
		}
	case addr <= 0xBFFF:
		m.SramWriteEnabled = val&0x40 == 0
		m.SramReadEnabled = val&0x80 != 0
	case addr <= 0xDFFF && even:
		m.IrqLatch = val
	case addr <= 0xDFFF:
		m.IrqReload = true
	case even:
		m.IrqEnabled = false
		m.IrqRequested = false
	default:
		m.IrqEnabled = true
	}
}

func (m *MMC3) writeBankSelect(cfg *MemConfig, val uint8) {
	m.RegSelect = val & 0x07

	fixFirst := val&0x40 != 0
	if fixFirst != m.PrgFixFirst {
		cfg.Prg.SwapPages(0, 2)
	}
	m.PrgFixFirst = fixFirst

	inverted := val&0x80 != 0
	if inverted != m.ChrInverted {
		cfg.Chr.SwapPages(0, 4)
		cfg.Chr.SwapPages(1, 5)
		cfg.Chr.SwapPages(2, 6)
		cfg.Chr.SwapPages(3, 7)
	}
	m.ChrInverted = inverted
}

func (m *MMC3) writeBankData(cfg *MemConfig, val uint8) {
	switch m.RegSelect {
	case 0, 1:
		m.setChrPair(cfg, int(val&^1))
	case 6, 7:
		m.setPrgBank(cfg, int(val&0x3F))
	default:
		m.setChr1K(cfg, int(val))
	}
}

func (m *MMC3) setPrgBank(cfg *MemConfig, bank int) {
	var page int
	if m.PrgFixFirst {
		if m.RegSelect == 6 {
			page = 2
		} else {
			page = 1
		}
	} else {
		page = int(m.RegSelect) - 6
	}
	cfg.Prg.SetPage(page, bank)
}

func (m *MMC3) setChrPair(cfg *MemConfig, bank int) {
	page := int(m.RegSelect) * 2
	if m.ChrInverted {
		page += 4
	}
	cfg.Chr.SetPage(page, bank)
	cfg.Chr.SetPage(page+1, bank+1)
}

func (m *MMC3) setChr1K(cfg *MemConfig, bank int) {
	page := int(m.RegSelect) + 2
	if m.ChrInverted {
		page -= 4
	}
	cfg.Chr.SetPage(page, bank)
}

// NotifyScanline clocks the IRQ counter. Reload-on-zero then decrement; when
// the counter lands on zero with IRQs enabled, the line asserts.
func (m *MMC3) NotifyScanline() {
	if m.IrqCount == 0 || m.IrqReload {
		m.IrqCount = m.IrqLatch
		m.IrqReload = false
	} else {
		m.IrqCount--
	}

	if m.IrqEnabled && m.IrqCount == 0 {
		m.IrqRequested = true
	}
}

func (m *MMC3) PollIRQ() bool { return m.IrqRequested }
