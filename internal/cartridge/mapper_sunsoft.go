package cartridge

// SunsoftFME7 is mapper 69: a command/parameter port pair. Commands 0-7
// select CHR pages, 8 banks the 0x6000 window between PRG ROM and SRAM,
// 9-B select PRG pages, C mirroring, D-F the 16-bit down-counting IRQ.
type SunsoftFME7 struct {
	mapperBase

	Command uint8 `json:"command"`

	SramBanked  bool `json:"sramBanked"`
	SramEnabled bool `json:"sramEnabled"`

	IrqEnabled        bool   `json:"irqEnabled"`
	IrqCounterEnabled bool   `json:"irqCounterEnabled"`
	IrqRequested      bool   `json:"irqRequested"`
	IrqCount          uint16 `json:"irqCount"`

	PrgSize  int `json:"prgSize"`
	SramSize int `json:"sramSize"`
}

func (*SunsoftFME7) Name() string { return "SunsoftFME7" }

func (m *SunsoftFME7) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 4)
	cfg.Prg.SetPageToLastBank(3)
	cfg.Chr = NewCHRBanking(h, 8)
	m.PrgSize = h.PRGSize
	m.SramSize = h.SRAMRealSize()
}

func (m *SunsoftFME7) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	switch {
	case addr <= 0x9FFF:
		m.Command = val & 0x0F
	case addr <= 0xBFFF:
		m.applyCommand(cfg, val)
	}
}

func (m *SunsoftFME7) applyCommand(cfg *MemConfig, val uint8) {
	switch {
	case m.Command <= 0x7:
		cfg.Chr.SetPage(int(m.Command), int(val))
	case m.Command == 0x8:
		m.SramBanked = val&0x40 != 0
		m.SramEnabled = val&0x80 != 0
		// the window banks over SRAM or over the whole PRG ROM
		if m.SramBanked {
			cfg.Sram = NewBanking(m.SramSize, 0x6000, 8*1024, 1)
		} else {
			cfg.Sram = NewBanking(m.PrgSize, 0x6000, 8*1024, 1)
		}
		cfg.Sram.SetPage(0, int(val&0x3F))
		m.SyncHandlers(cfg)
	case m.Command <= 0xB:
		cfg.Prg.SetPage(int(m.Command)-0x9, int(val&0x3F))
	case m.Command == 0xC:
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
	case m.Command == 0xD:
		m.IrqEnabled = val&0x01 != 0
		m.IrqCounterEnabled = val&0x80 != 0
		m.IrqRequested = false
	case m.Command == 0xE:
		m.IrqCount = m.IrqCount&0xFF00 | uint16(val)
	case m.Command == 0xF:
		m.IrqCount = m.IrqCount&0x00FF | uint16(val)<<8
	}
}

// SyncHandlers points the 0x6000 window at SRAM or PRG ROM per command 8.
// When ROM-banked, the window needs the SRAM banking table sized over PRG.
func (m *SunsoftFME7) SyncHandlers(cfg *MemConfig) {
	if m.SramBanked {
		cfg.CPUReads[SRAMHandler] = fme7SramRead
		cfg.CPUWrites[SRAMHandler] = SramWrite
	} else {
		cfg.CPUReads[SRAMHandler] = SramAsPrgRead
		cfg.CPUWrites[SRAMHandler] = SramAsPrgWrite
	}
}

// fme7SramRead honors the SRAM enable bit; disabled reads float
func fme7SramRead(c *Cartridge, addr uint16) uint8 {
	m := c.mapper.(*SunsoftFME7)
	if !m.SramEnabled {
		return 0xDE
	}
	return SramRead(c, addr)
}

func (m *SunsoftFME7) NotifyCPUCycle() {
	if !m.IrqCounterEnabled {
		return
	}
	m.IrqCount--
	if m.IrqCount == 0xFFFF && m.IrqEnabled {
		m.IrqRequested = true
	}
}

func (m *SunsoftFME7) PollIRQ() bool { return m.IrqRequested }
