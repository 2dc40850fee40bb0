package cartridge

// VRC6 pulse channel: like the APU pulse but with a 4-bit volume, an 8-step
// duty selector and no sweep or envelope.
type VRC6Pulse struct {
	Volume    uint8  `json:"volume"`
	Duty      uint8  `json:"duty"`
	DutyIdx   uint8  `json:"dutyIdx"`
	ModeIgn   bool   `json:"modeIgn"` // ignore duty, constant output
	Enabled   bool   `json:"enabled"`
	Period    uint16 `json:"period"`
	Count     uint16 `json:"count"`
}

func (p *VRC6Pulse) writeCtrl(val uint8) {
	p.Volume = val & 0x0F
	p.Duty = (val >> 4) & 0x07
	p.ModeIgn = val&0x80 != 0
}

func (p *VRC6Pulse) stepTimer() {
	if !p.Enabled {
		return
	}
	if p.Count == 0 {
		p.Count = p.Period
		p.DutyIdx = (p.DutyIdx + 1) & 0x0F
	} else {
		p.Count--
	}
}

func (p *VRC6Pulse) sample() uint8 {
	if !p.Enabled {
		return 0
	}
	if p.ModeIgn || p.DutyIdx <= p.Duty {
		return p.Volume
	}
	return 0
}

// VRC6 sawtooth channel: 8-bit accumulator, fed a 6-bit rate, clocked every
// other timer tick; the top five bits are the output
type VRC6Saw struct {
	Rate    uint8  `json:"rate"`
	Accum   uint8  `json:"accum"`
	Step    uint8  `json:"step"`
	Enabled bool   `json:"enabled"`
	Period  uint16 `json:"period"`
	Count   uint16 `json:"count"`
	Odd     bool   `json:"odd"`
}

func (s *VRC6Saw) stepTimer() {
	if !s.Enabled {
		return
	}
	if s.Count == 0 {
		s.Count = s.Period
		s.Odd = !s.Odd
		if s.Odd {
			return
		}
		s.Step++
		if s.Step >= 7 {
			s.Step = 0
			s.Accum = 0
		} else {
			s.Accum += s.Rate
		}
	} else {
		s.Count--
	}
}

func (s *VRC6Saw) sample() uint8 {
	if !s.Enabled {
		return 0
	}
	return s.Accum >> 3
}

// VRC6 is mappers 24 and 26: 8/16 KiB PRG banking, flexible CHR banking,
// Konami IRQ and three expansion audio channels. Mapper 26 swaps A0/A1 on
// register writes.
type VRC6 struct {
	mapperBase

	Mapper uint16 `json:"mapper"`

	ChrSelect [8]int    `json:"chrSelect"`
	Irq       KonamiIrq `json:"irq"`

	Halted  bool `json:"halted"`
	Pulse1  VRC6Pulse `json:"pulse1"`
	Pulse2  VRC6Pulse `json:"pulse2"`
	Saw     VRC6Saw   `json:"saw"`
}

func (m *VRC6) Name() string { return "VRC6" }

func (m *VRC6) Init(h *Header, cfg *MemConfig) {
	m.Mapper = h.Mapper
	m.Halted = true
	cfg.Prg = NewPRGBanking(h, 4)
	cfg.Prg.SetPageToLastBank(3)
	cfg.Chr = NewCHRBanking(h, 8)
}

func (m *VRC6) PrgWrite(cfg *MemConfig, addr uint16, val uint8) {
	if m.Mapper == 26 {
		addr = addr&0xFFFC | (addr&0x01)<<1 | (addr&0x02)>>1
	}

	switch addr & 0xF003 {
	case 0x8000, 0x8001, 0x8002, 0x8003:
		bank := int(val&0x0F) * 2
		cfg.Prg.SetPage(0, bank)
		cfg.Prg.SetPage(1, bank+1)
	case 0xC000, 0xC001, 0xC002, 0xC003:
		cfg.Prg.SetPage(2, int(val)&0x1F)

	case 0x9000:
		m.Pulse1.writeCtrl(val)
	case 0x9001:
		m.Pulse1.Period = m.Pulse1.Period&0xFF00 | uint16(val)
	case 0x9002:
		m.Pulse1.Period = m.Pulse1.Period&0x00FF | uint16(val&0x0F)<<8
		m.Pulse1.Enabled = val&0x80 != 0
		if !m.Pulse1.Enabled {
			m.Pulse1.DutyIdx = 0
		}
	case 0x9003:
		m.Halted = val&0x01 != 0
	case 0xA000:
		m.Pulse2.writeCtrl(val)
	case 0xA001:
		m.Pulse2.Period = m.Pulse2.Period&0xFF00 | uint16(val)
	case 0xA002:
		m.Pulse2.Period = m.Pulse2.Period&0x00FF | uint16(val&0x0F)<<8
		m.Pulse2.Enabled = val&0x80 != 0
		if !m.Pulse2.Enabled {
			m.Pulse2.DutyIdx = 0
		}
	case 0xB000:
		m.Saw.Rate = val & 0x3F
	case 0xB001:
		m.Saw.Period = m.Saw.Period&0xFF00 | uint16(val)
	case 0xB002:
		m.Saw.Period = m.Saw.Period&0x00FF | uint16(val&0x0F)<<8
		m.Saw.Enabled = val&0x80 != 0
		if !m.Saw.Enabled {
			m.Saw.Accum = 0
			m.Saw.Step = 0
		}

	case 0xB003:
		switch (val >> 2) & 0x03 {
		case 0:
			cfg.Nametable.UpdateMirroring(MirrorVertical)
		case 1:
			cfg.Nametable.UpdateMirroring(MirrorHorizontal)
		case 2:
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenA)
		case 3:
			cfg.Nametable.UpdateMirroring(MirrorSingleScreenB)
		}

	case 0xD000, 0xD001, 0xD002, 0xD003:
		reg := int(addr & 0x03)
		m.ChrSelect[reg] = int(val)
		cfg.Chr.SetPage(reg, int(val))
	case 0xE000, 0xE001, 0xE002, 0xE003:
		reg := 4 + int(addr&0x03)
		m.ChrSelect[reg] = int(val)
		cfg.Chr.SetPage(reg, int(val))

	case 0xF000:
		m.Irq.Latch = uint16(val)
	case 0xF001:
		m.Irq.WriteCtrl(val)
	case 0xF002:
		m.Irq.WriteAck()
	}
}

func (m *VRC6) NotifyCPUCycle() {
	m.Irq.Step()
	if !m.Halted {
		m.Pulse1.stepTimer()
		m.Pulse2.stepTimer()
		m.Saw.stepTimer()
	}
}

func (m *VRC6) PollIRQ() bool { return m.Irq.Requested }

// Sample mixes the three expansion channels into roughly the same scale as
// one APU pulse channel.
func (m *VRC6) Sample() float32 {
	mix := float32(m.Pulse1.sample()) + float32(m.Pulse2.sample()) + float32(m.Saw.sample())
	return 0.00752 * mix
}
