package apu

// pulseSequences holds the four duty waveforms
var pulseSequences = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// Pulse is one of the two square channels. The two differ only in the
// sweep's negate arithmetic: pulse 1 adds the ones' complement, pulse 2
// the twos' complement.
type Pulse struct {
	Timer    timer         `json:"timer"`
	DutyMode uint8         `json:"dutyMode"`
	DutyIdx  uint8         `json:"dutyIdx"`
	Envelope envelope      `json:"envelope"`
	Length   lengthCounter `json:"length"`

	SweepEnabled bool  `json:"sweepEnabled"`
	SweepReload  bool  `json:"sweepReload"`
	SweepShift   uint8 `json:"sweepShift"`
	SweepNegate  bool  `json:"sweepNegate"`
	SweepPeriod  uint8 `json:"sweepPeriod"`
	SweepCount   uint8 `json:"sweepCount"`

	Complement bool `json:"complement"` // pulse 2 behavior
}

func (p *Pulse) writeCtrl(val uint8) {
	p.DutyMode = val >> 6 & 0x03
	p.Length.Halted = val&0x20 != 0
	p.Envelope.set(val)
}

func (p *Pulse) writeSweep(val uint8) {
	p.SweepEnabled = val&0x80 != 0
	p.SweepPeriod = val >> 4 & 0x07
	p.SweepNegate = val&0x08 != 0
	p.SweepShift = val & 0x07
	p.SweepReload = true
}

func (p *Pulse) writeTimerHigh(val uint8) {
	p.Length.reload(val)
	p.Timer.setPeriodHigh(val)
	p.Envelope.Start = true
	p.DutyIdx = 0
}

func (p *Pulse) stepTimer() {
	if p.Timer.step() {
		p.DutyIdx = (p.DutyIdx + 1) & 0x07
	}
}

// stepSweep runs at each half-frame. Pulse 1 subtracts one extra in negate
// mode.
func (p *Pulse) stepSweep() {
	if p.SweepCount == 0 && p.SweepEnabled && p.SweepShift != 0 && !p.muted() {
		change := int(p.Timer.Period >> p.SweepShift)
		if p.SweepNegate {
			target := int(p.Timer.Period) - change
			if !p.Complement {
				target--
			}
			if target < 0 {
				target = 0
			}
			p.Timer.Period = uint16(target)
		} else {
			p.Timer.Period += uint16(change)
		}
	}

	if p.SweepCount == 0 || p.SweepReload {
		p.SweepCount = p.SweepPeriod
		p.SweepReload = false
	} else {
		p.SweepCount--
	}
}

// muted reports the sweep/timer mute conditions
func (p *Pulse) muted() bool {
	return p.Timer.Period < 8 || (!p.SweepNegate && p.Timer.Period > 0x7FF)
}

func (p *Pulse) setEnabled(on bool) {
	if on {
		p.Length.Enabled = true
	} else {
		p.Length.disable()
	}
}

func (p *Pulse) sample() uint8 {
	if p.muted() || p.Length.Count == 0 {
		return 0
	}
	if pulseSequences[p.DutyMode][p.DutyIdx] == 0 {
		return 0
	}
	return p.Envelope.volume()
}
