package cartridge

// mmc2Latch values mirror the tile IDs that flip the latches
type mmc2Latch uint8

const (
	latchFD mmc2Latch = 0
	latchFE mmc2Latch = 1
)

// MMC2 covers mappers 9 (MMC2) and 10 (MMC4). Two independent CHR banking
// tables per pattern half, selected by latches that flip when the PPU
// fetches the magic tiles 0xFD/0xFE. CHR translation is dynamic per access,
// so the translate hook is overridden.
type MMC2 struct {
	mapperBase

	Mapper    uint16    `json:"mapper"`
	ChrBanks0 Banking   `json:"chrBanks0"`
	ChrBanks1 Banking   `json:"chrBanks1"`
	Latch0    mmc2Latch `json:"latch0"`
	Latch1    mmc2Latch `json:"latch1"`
}

func (m *MMC2) Name() string {
	if m.Mapper == 10 {
		return "MMC4"
	}
	return "MMC2"
}

func (m *MMC2) Init(h *Header, cfg *MemConfig) {
	m.Mapper = h.Mapper
	m.ChrBanks0 = NewCHRBanking(h, 2)
	m.ChrBanks1 = NewCHRBanking(h, 2)
	m.Latch0 = latchFE
	m.Latch1 = latchFE

	if h.Mapper == 9 {
		// MMC2: one switchable 8 KiB page, three fixed to the last banks
		cfg.Prg = NewPRGBanking(h, 4)
		cfg.Prg.SetPage(1, cfg.Prg.BanksCount-3)
		cfg.Prg.SetPage(2, cfg.Prg.BanksCount-2)
		cfg.Prg.SetPage(3, cfg.Prg.BanksCount-1)
	} else {
		// MMC4: one switchable 16 KiB page, last bank fixed
		cfg.Prg = NewPRGBanking(h, 2)
		cfg.Prg.SetPageToLastBank(1)
	}
}

func (m *MMC2) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	v := int(val) & 0x1F
	switch {
	case addr >= 0xA000 && addr <= 0xAFFF:
		cfg.Prg.SetPage(0, v&0x0F)
	case addr >= 0xB000 && addr <= 0xBFFF:
		m.ChrBanks0.SetPage(0, v)
	case addr >= 0xC000 && addr <= 0xCFFF:
		m.ChrBanks0.SetPage(1, v)
	case addr >= 0xD000 && addr <= 0xDFFF:
		m.ChrBanks1.SetPage(0, v)
	case addr >= 0xE000 && addr <= 0xEFFF:
		m.ChrBanks1.SetPage(1, v)
	case addr >= 0xF000:
		if v&1 != 0 {
			cfg.Nametable.UpdateMirroring(MirrorHorizontal)
		} else {
			cfg.Nametable.UpdateMirroring(MirrorVertical)
		}
	}
}

func (m *MMC2) ChrTranslate(cfg *MemConfig, addr uint16) int {
	var res int
	if addr <= 0x0FFF {
		res = m.ChrBanks0.PageBankAddr(int(m.Latch0), addr)
	} else {
		res = m.ChrBanks1.PageBankAddr(int(m.Latch1), addr)
	}
	m.updateLatches(addr)
	return res
}

func (m *MMC2) NametableTranslate(cfg *MemConfig, addr uint16) int {
	res := cfg.Nametable.Translate(addr)
	m.updateLatches(addr)
	return res
}

// updateLatches flips the CHR latches on the magic pattern fetches. MMC2
// only matches the exact tile row on the first latch; MMC4 matches the full
// tile range.
func (m *MMC2) updateLatches(addr uint16) {
	switch {
	case addr == 0x0FD8 && m.Mapper == 9,
		addr >= 0x0FD8 && addr <= 0x0FDF && m.Mapper == 10:
		m.Latch0 = latchFD
	case addr == 0x0FE8 && m.Mapper == 9,
		addr >= 0x0FE8 && addr <= 0x0FEF && m.Mapper == 10:
		m.Latch0 = latchFE
	case addr >= 0x1FD8 && addr <= 0x1FDF:
		m.Latch1 = latchFD
	case addr >= 0x1FE8 && addr <= 0x1FEF:
		m.Latch1 = latchFE
	}
}
