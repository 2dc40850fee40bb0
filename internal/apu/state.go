package apu

// State is the serializable APU snapshot. Host-side plumbing (sample rate,
// queue, expansion hook) is not part of it.
type State struct {
	Pulse1   Pulse    `json:"pulse1"`
	Pulse2   Pulse    `json:"pulse2"`
	Triangle Triangle `json:"triangle"`
	Noise    Noise    `json:"noise"`
	DMC      DMC      `json:"dmc"`

	Mode5        bool  `json:"mode5"`
	IRQInhibit   bool  `json:"irqInhibit"`
	FrameIRQ     bool  `json:"frameIrq"`
	Cycles       int   `json:"cycles"`
	WriteDelay   int   `json:"writeDelay"`
	PendingWrite uint8 `json:"pendingWrite"`
}

// TakeSnapshot captures the serializable APU state
func (a *APU) TakeSnapshot() State {
	return State{
		Pulse1:       a.Pulse1,
		Pulse2:       a.Pulse2,
		Triangle:     a.Triangle,
		Noise:        a.Noise,
		DMC:          a.DMC,
		Mode5:        a.mode5,
		IRQInhibit:   a.irqInhibit,
		FrameIRQ:     a.frameIRQ,
		Cycles:       a.cycles,
		WriteDelay:   a.writeDelay,
		PendingWrite: a.pendingWrite,
	}
}

// RestoreSnapshot restores APU state from a snapshot
func (a *APU) RestoreSnapshot(s State) {
	a.Pulse1 = s.Pulse1
	a.Pulse2 = s.Pulse2
	a.Triangle = s.Triangle
	a.Noise = s.Noise
	a.DMC = s.DMC
	a.mode5 = s.Mode5
	a.irqInhibit = s.IRQInhibit
	a.frameIRQ = s.FrameIRQ
	a.cycles = s.Cycles
	a.writeDelay = s.WriteDelay
	a.pendingWrite = s.PendingWrite
	a.samples = a.samples[:0]
	a.sampleCounter = 0
}
