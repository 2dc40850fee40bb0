package cartridge

// BandaiFCG is mapper 16 (and 159): eight 1 KiB CHR selects, one 16 KiB PRG
// select, mirroring control and a 16-bit down-counting cycle IRQ. The
// register block mirrors at 0x6000 and 0x8000; submapper 5 moves the counter
// latch behind a separate reload.
type BandaiFCG struct {
	mapperBase

	Submapper uint8 `json:"submapper"`

	IrqEnabled   bool   `json:"irqEnabled"`
	IrqCount     uint16 `json:"irqCount"`
	IrqLatch     uint16 `json:"irqLatch"`
	IrqRequested bool   `json:"irqRequested"`
}

func (*BandaiFCG) Name() string { return "BandaiFCG" }

func (m *BandaiFCG) Init(h *Header, cfg *MemConfig) {
	m.Submapper = h.Submapper
	cfg.Prg = NewPRGBanking(h, 2)
	cfg.Prg.SetPageToLastBank(1)
	cfg.Chr = NewCHRBanking(h, 8)
	m.SyncHandlers(cfg)
}

func (m *BandaiFCG) write(cfg *MemConfig, reg uint16, fromPrg bool, val uint8) {
	switch reg {
	case 0, 1, 2, 3, 4, 5, 6, 7:
		cfg.Chr.SetPage(int(reg), int(val))
	case 8:
		cfg.Prg.SetPage(0, int(val&0x0F))
	case 9:
		switch val & 0x03 {
		case 0:
			cfg.Nametable.UpdateMirroring(MirrorVertical)
		case 1:
			cfg.Nametable.UpdateMirroring(MirrorHorizontal)
		case 2:
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
		case 3:
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
		}
	case 0x0A:
		m.IrqEnabled = val&1 != 0
		m.IrqRequested = false
		if m.Submapper == 5 || fromPrg {
			m.IrqCount = m.IrqLatch
		}
	case 0x0B:
		if fromPrg {
			m.IrqLatch = m.IrqLatch&0x00FF | uint16(val)<<8
		} else {
			m.IrqCount = m.IrqCount&0x00FF | uint16(val)<<8
		}
	case 0x0C:
		if fromPrg {
			m.IrqLatch = m.IrqLatch&0xFF00 | uint16(val)
		} else {
			m.IrqCount = m.IrqCount&0xFF00 | uint16(val)
		}
	}
}

func (m *BandaiFCG) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	m.write(cfg, addr&0x0F, true, val)
}

// The 0x6000 register mirror replaces the SRAM window on FCG boards
func (m *BandaiFCG) SyncHandlers(cfg *MemConfig) {
	cfg.CPUWrites[SRAMHandler] = bandaiSramWrite
}

func bandaiSramWrite(c *Cartridge, addr uint16, val uint8) {
	m := c.mapper.(*BandaiFCG)
	m.write(&c.Config, addr&0x0F, false, val)
}

func (m *BandaiFCG) NotifyCPUCycle() {
	if !m.IrqEnabled {
		return
	}
	if m.IrqCount == 0 {
		m.IrqRequested = true
	}
	m.IrqCount--
}

func (m *BandaiFCG) PollIRQ() bool { return m.IrqRequested }
