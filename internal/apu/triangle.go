package apu

// triangleSequence is the 32-step output waveform
var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Triangle advances only while both its length and linear counters are
// nonzero; its timer runs at CPU rate.
type Triangle struct {
	Timer timer `json:"timer"`

	ControlFlag  bool  `json:"controlFlag"` // length halt / linear control
	LinearReload bool  `json:"linearReload"`
	LinearPeriod uint8 `json:"linearPeriod"`
	LinearCount  uint8 `json:"linearCount"`

	LengthCount uint8 `json:"lengthCount"`
	Enabled     bool  `json:"enabled"`

	SeqIdx uint8 `json:"seqIdx"`
}

func (t *Triangle) writeCtrl(val uint8) {
	t.ControlFlag = val&0x80 != 0
	t.LinearPeriod = val & 0x7F
}

func (t *Triangle) writeTimerHigh(val uint8) {
	if t.Enabled {
		t.LengthCount = lengthTable[val>>3]
	}
	t.Timer.setPeriodHigh(val)
	t.LinearReload = true
}

func (t *Triangle) stepTimer() {
	if t.Timer.step() {
		if t.LengthCount > 0 && t.LinearCount > 0 {
			t.SeqIdx = (t.SeqIdx + 1) & 0x1F
		}
	}
}

// stepLinear runs at each quarter-frame
func (t *Triangle) stepLinear() {
	if t.LinearReload {
		t.LinearCount = t.LinearPeriod
	} else if t.LinearCount > 0 {
		t.LinearCount--
	}
	if !t.ControlFlag {
		t.LinearReload = false
	}
}

// stepLength runs at each half-frame
func (t *Triangle) stepLength() {
	if !t.ControlFlag && t.LengthCount > 0 {
		t.LengthCount--
	}
}

func (t *Triangle) setEnabled(on bool) {
	t.Enabled = on
	if !on {
		t.LengthCount = 0
	}
}

// sample returns the current sequence value; when the counters gate the
// channel the sequencer simply stops advancing, it does not mute.
func (t *Triangle) sample() uint8 {
	return triangleSequence[t.SeqIdx]
}
