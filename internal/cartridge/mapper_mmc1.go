package cartridge

// MMC1 PRG banking modes
type mmc1PrgMode uint8

const (
	mmc1Prg32K mmc1PrgMode = iota
	mmc1PrgFixFirst
	mmc1PrgFixLast
)

// MMC1 is mapper 1: serial 5-bit shift register loading five internal
// registers. Larger SxROM boards reuse CHR select bits for 256 KiB PRG
// banking and SRAM banking. Consecutive-cycle writes are ignored.
type MMC1 struct {
	mapperBase

	PrgSelect   int  `json:"prgSelect"`
	ChrSelect0  int  `json:"chrSelect0"`
	ChrSelect1  int  `json:"chrSelect1"`
	LastWroteC1 bool `json:"lastWroteC1"`

	Has512KPRG  bool `json:"has512kPrg"`
	Prg256KBank int  `json:"prg256kBank"`
	PrgLastBank int  `json:"prgLastBank"`

	ShiftReg    uint8 `json:"shiftReg"`
	ShiftWrites int   `json:"shiftWrites"`
	WriteLock   uint8 `json:"writeLock"`

	PrgMode mmc1PrgMode `json:"prgMode"`
	Chr4K   bool        `json:"chr4k"`
}

func (*MMC1) Name() string { return "MMC1" }

func (m *MMC1) Init(h *Header, cfg *MemConfig) {
	cfg.Prg = NewPRGBanking(h, 2)
	cfg.Chr = NewCHRBanking(h, 2)
	cfg.Sram = NewSRAMBanking(h)

	m.Has512KPRG = h.PRGSize > 256*1024
	if m.Has512KPRG {
		// 512 KiB boards act as two 256 KiB halves
		m.PrgLastBank = cfg.Prg.BanksCount/2 - 1
	} else {
		m.PrgLastBank = cfg.Prg.BanksCount - 1
	}

	m.PrgMode = mmc1PrgFixLast
	cfg.Prg.SetPageToLastBank(1)
	cfg.Chr.SetPage(0, 0)
	cfg.Chr.SetPage(1, 1)
}

func (m *MMC1) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	if m.WriteLock > 0 {
		// writes on consecutive CPU cycles are absorbed
		m.WriteLock = 2
		return
	}
	m.WriteLock = 2

	if val&0x80 != 0 {
		m.ShiftReg = 0
		m.ShiftWrites = 0
		m.PrgMode = mmc1PrgFixLast
		m.updatePrgBanks(cfg)
		return
	}

	m.ShiftReg = (m.ShiftReg >> 1) | ((val & 1) << 4)
	m.ShiftWrites++
	if m.ShiftWrites < 5 {
		return
	}

	switch {
	case addr <= 0x9FFF:
		m.writeCtrl(cfg, m.ShiftReg)
	case addr <= 0xBFFF:
		m.ChrSelect0 = int(m.ShiftReg) & 0x1F
		m.LastWroteC1 = false
		m.updateChrAndSramBanks(cfg)
	case addr <= 0xDFFF:
		m.ChrSelect1 = int(m.ShiftReg) & 0x1F
		m.LastWroteC1 = true
		m.updateChrAndSramBanks(cfg)
	default:
		m.PrgSelect = int(m.ShiftReg) & 0x0F
		m.updatePrgBanks(cfg)
	}

	m.ShiftReg = 0
	m.ShiftWrites = 0
}

func (m *MMC1) writeCtrl(cfg *MemConfig, val uint8) {
	switch val & 0x03 {
	case 0:
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
	case 1:
		cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
	case 2:
		cfg.Nametable.UpdateMirroring(MirrorVertical)
	case 3:
		cfg.Nametable.UpdateMirroring(MirrorHorizontal)
	}

	switch (val >> 2) & 0x03 {
	case 2:
		m.PrgMode = mmc1PrgFixFirst
	case 3:
		m.PrgMode = mmc1PrgFixLast
	default:
		m.PrgMode = mmc1Prg32K
	}
	m.updatePrgBanks(cfg)

	m.Chr4K = (val>>4)&1 != 0
	m.updateChrAndSramBanks(cfg)
}

func (m *MMC1) updatePrgBanks(cfg *MemConfig) {
	var bank0, bank1 int
	switch m.PrgMode {
	case mmc1Prg32K:
		bank0 = m.PrgSelect &^ 1
		bank1 = bank0 + 1
	case mmc1PrgFixFirst:
		bank0 = 0
		bank1 = m.PrgSelect
	case mmc1PrgFixLast:
		bank0 = m.PrgSelect
		bank1 = m.PrgLastBank
	}
	cfg.Prg.SetPage(0, bank0|m.Prg256KBank)
	cfg.Prg.SetPage(1, bank1|m.Prg256KBank)
}

func (m *MMC1) updateChrAndSramBanks(cfg *MemConfig) {
	if m.Chr4K {
		cfg.Chr.SetPage(0, m.ChrSelect0)
		cfg.Chr.SetPage(1, m.ChrSelect1)
	} else {
		bank := m.ChrSelect0 &^ 1
		cfg.Chr.SetPage(0, bank)
		cfg.Chr.SetPage(1, bank+1)
	}

	// On SxROM the live CHR register doubles as PRG-256K and SRAM bank bits
	sel := m.ChrSelect0
	if m.LastWroteC1 && m.Chr4K {
		sel = m.ChrSelect1
	}

	if m.Has512KPRG {
		m.Prg256KBank = sel & 0x10
		m.updatePrgBanks(cfg)
	}

	switch cfg.Sram.DataSize {
	case 16 * 1024:
		cfg.Sram.SetPage(0, (sel>>3)&0x01)
	case 32 * 1024:
		cfg.Sram.SetPage(0, (sel>>2)&0x03)
	default:
		cfg.Sram.SetPage(0, 0)
	}
}

func (m *MMC1) NotifyCPUCycle() {
	if m.WriteLock > 0 {
		m.WriteLock--
	}
}
