package ppu

// State is the serializable PPU snapshot. The framebuffer is transient and
// not included.
type State struct {
	V       uint16 `json:"v"`
	T       uint16 `json:"t"`
	X       uint8  `json:"x"`
	W       bool   `json:"w"`
	Ctrl    uint8  `json:"ctrl"`
	Mask    uint8  `json:"mask"`
	Stat    uint8  `json:"stat"`
	OAMAddr uint8  `json:"oamAddr"`

	OAM     []uint8 `json:"oam"`
	Palette []uint8 `json:"palette"`

	ReadBuffer uint8  `json:"readBuffer"`
	Scanline   int    `json:"scanline"`
	Dot        int    `json:"dot"`
	OddFrame   bool   `json:"oddFrame"`
	Frame      uint64 `json:"frame"`

	NMIPending bool `json:"nmiPending"`
}

// TakeSnapshot captures the serializable PPU state
func (p *PPU) TakeSnapshot() State {
	return State{
		V: p.v, T: p.t, X: p.x, W: p.w,
		Ctrl: p.ctrl, Mask: p.mask, Stat: p.stat, OAMAddr: p.oamAddr,
		OAM:     append([]uint8(nil), p.oam[:]...),
		Palette: append([]uint8(nil), p.palette[:]...),
		ReadBuffer: p.readBuffer,
		Scanline:   p.scanline,
		Dot:        p.dot,
		OddFrame:   p.oddFrame,
		Frame:      p.frame,
		NMIPending: p.nmiPending,
	}
}

// RestoreSnapshot restores PPU state from a snapshot
func (p *PPU) RestoreSnapshot(s State) {
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.ctrl, p.mask, p.stat, p.oamAddr = s.Ctrl, s.Mask, s.Stat, s.OAMAddr
	copy(p.oam[:], s.OAM)
	copy(p.palette[:], s.Palette)
	p.readBuffer = s.ReadBuffer
	p.scanline = s.Scanline
	p.dot = s.Dot
	p.oddFrame = s.OddFrame
	p.frame = s.Frame
	p.nmiPending = s.NMIPending
}
