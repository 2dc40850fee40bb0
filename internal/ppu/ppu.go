// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"nengo/internal/cartridge"
)

// PPUCTRL bits
const (
	ctrlNametable  = 0x03
	ctrlIncrement  = 0x04
	ctrlSprTable   = 0x08
	ctrlBgTable    = 0x10
	ctrlSprSize    = 0x20
	ctrlNMIEnable  = 0x80
)

// PPUMASK bits
const (
	maskGreyscale = 0x01
	maskBgLeft    = 0x02
	maskSprLeft   = 0x04
	maskBgOn      = 0x08
	maskSprOn     = 0x10
	maskEmphasis  = 0xE0
)

// PPUSTATUS bits
const (
	statOverflow = 0x20
	statSpr0Hit  = 0x40
	statVblank   = 0x80
)

const (
	// NTSC frame geometry
	dotsPerScanline = 341
	prerenderLine   = 261

	FrameWidth  = 256
	FrameHeight = 240
)

// sprPixel is one slot of the per-scanline sprite buffer
type sprPixel struct {
	pixel   uint8
	palette uint8
	behind  bool
	isSpr0  bool
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	cart *cartridge.Cartridge

	// Loopy registers: 15-bit current/temporary VRAM address, fine X, and
	// the shared first/second write latch
	v uint16
	t uint16
	x uint8
	w bool

	ctrl    uint8
	mask    uint8
	stat    uint8
	oamAddr uint8

	oam        [256]uint8
	palette    [32]uint8
	readBuffer uint8
	regLatch   uint8 // last value on the register bus, for open-bus low bits

	scanline int
	dot      int
	oddFrame bool
	frame    uint64

	// Background fetch pipeline: the latches fill over an 8-dot cadence,
	// then pack into tileData, which holds two tiles of 4-bit pixels
	// (palette high bits | pattern low bits) and shifts one pixel per dot.
	fetchTileID  uint8
	fetchPalette uint8
	fetchPlane0  uint8
	fetchPlane1  uint8
	tileData     uint64

	// Sprite pipeline
	secondaryOAM [8][4]uint8
	spriteCount  int
	spr0Next     bool // sprite 0 latched into secondary OAM for next line
	spr0Line     bool // sprite 0 present in the current line buffer
	spriteLine   [FrameWidth]sprPixel

	// Interrupt plumbing
	nmiPending    bool
	vblankStarted bool

	frameBuffer [FrameWidth * FrameHeight]uint8
}

// New creates a PPU wired to a cartridge
func New(cart *cartridge.Cartridge) *PPU {
	return &PPU{cart: cart}
}

// SetCartridge rebinds the PPU to a new cartridge
func (p *PPU) SetCartridge(cart *cartridge.Cartridge) {
	p.cart = cart
}

// Reset returns the PPU to its power-on state. OAM, palette and frame
// contents persist, matching hardware.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.stat = 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = 0
	p.dot = 0
	p.oddFrame = false
	p.nmiPending = false
	p.vblankStarted = false
}

// Scanline returns the current scanline (0..261)
func (p *PPU) Scanline() int { return p.scanline }

// Dot returns the current dot within the scanline (0..340)
func (p *PPU) Dot() int { return p.dot }

// Frame returns the frame counter
func (p *PPU) Frame() uint64 { return p.frame }

// NMIPoll consumes a pending NMI request
func (p *PPU) NMIPoll() bool {
	if p.nmiPending {
		p.nmiPending = false
		return true
	}
	return false
}

// VBlankPoll consumes the frame-complete signal
func (p *PPU) VBlankPoll() bool {
	if p.vblankStarted {
		p.vblankStarted = false
		return true
	}
	return false
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskBgOn|maskSprOn) != 0
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSprSize != 0 {
		return 16
	}
	return 8
}

// advance moves to the next dot, wrapping scanline and frame
func (p *PPU) advance() {
	p.dot++
	if p.dot >= dotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline > prerenderLine {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
			p.frame++
		}
	}
}

// Step advances the PPU by one dot and processes it
func (p *PPU) Step() {
	p.advance()

	// odd frames drop the final dot of the pre-render line
	if p.scanline == prerenderLine && p.dot == 340 && p.oddFrame && p.renderingEnabled() {
		p.advance()
	}

	visible := p.scanline < FrameHeight
	prerender := p.scanline == prerenderLine

	if visible || prerender {
		p.renderStep(prerender)
	}

	switch {
	case p.scanline == 241 && p.dot == 1:
		p.stat |= statVblank
		p.vblankStarted = true
		if p.ctrl&ctrlNMIEnable != 0 {
			p.nmiPending = true
		}
		p.cart.Mapper().NotifyPPUState(cartridge.PhaseVblank, 0)

	case prerender && p.dot == 1:
		p.stat &^= statVblank | statSpr0Hit | statOverflow
	}

	// mapper scanline hook, MMC3-style, once per rendered line
	if p.dot == 260 && (visible || prerender) && p.renderingEnabled() {
		p.cart.Mapper().NotifyScanline()
	}
}

// renderStep runs the background and sprite pipelines for one dot of a
// visible or pre-render scanline.
func (p *PPU) renderStep(prerender bool) {
	if !prerender && p.dot >= 1 && p.dot <= 256 && p.renderingEnabled() {
		p.renderPixel()
	}

	fetching := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if fetching && p.renderingEnabled() {
		p.tileData <<= 4
		p.fetchBgStep()
	}

	if !p.renderingEnabled() {
		// sprite buffers still clear so stale pixels do not leak
		if p.dot == 257 {
			p.clearSpriteLine()
		}
		return
	}

	switch {
	case p.dot == 256:
		p.incrementY()
	case p.dot == 257:
		p.copyX()
		if !prerender {
			p.evaluateSprites()
			p.fetchSprites()
		} else {
			p.clearSpriteLine()
		}
	case prerender && p.dot >= 280 && p.dot <= 304:
		p.copyY()
	}
}

// fetchBgStep runs the 8-dot background fetch cadence
func (p *PPU) fetchBgStep() {
	p.cart.Mapper().NotifyPPUState(cartridge.PhaseFetchBg, p.v)

	switch p.dot % 8 {
	case 1:
		p.fetchTileID = p.read(0x2000 | p.v&0x0FFF)
	case 3:
		attrAddr := 0x23C0 | p.v&0x0C00 | p.v>>4&0x38 | p.v>>2&0x07
		attr := p.read(attrAddr)
		shift := (p.v >> 4 & 0x04) | (p.v & 0x02)
		p.fetchPalette = attr >> shift & 0x03
	case 5:
		p.fetchPlane0 = p.read(p.bgPatternAddr())
	case 7:
		p.fetchPlane1 = p.read(p.bgPatternAddr() + 8)
	case 0:
		p.storeTileData()
		p.incrementX()
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	base := uint16(0)
	if p.ctrl&ctrlBgTable != 0 {
		base = 0x1000
	}
	fineY := p.v >> 12 & 0x07
	return base + uint16(p.fetchTileID)*16 + fineY
}

// storeTileData packs the fetched tile row into the low 32 bits of the
// pipeline register, one 4-bit entry per pixel.
func (p *PPU) storeTileData() {
	var data uint32
	pal := p.fetchPalette << 2
	for i := 0; i < 8; i++ {
		p0 := (p.fetchPlane0 & 0x80) >> 7
		p1 := (p.fetchPlane1 & 0x80) >> 6
		p.fetchPlane0 <<= 1
		p.fetchPlane1 <<= 1
		data <<= 4
		data |= uint32(pal | p1 | p0)
	}
	p.tileData |= uint64(data)
}

// backgroundPixel selects the bg pixel and palette for the current dot,
// applying fine X against the two buffered tiles.
func (p *PPU) backgroundPixel() (uint8, uint8) {
	if p.mask&maskBgOn == 0 {
		return 0, 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	entry := uint8(data & 0x0F)
	return entry & 0x03, entry >> 2
}

// renderPixel muxes background and sprite and writes the framebuffer
func (p *PPU) renderPixel() {
	px := p.dot - 1
	py := p.scanline

	bgPixel, bgPal := p.backgroundPixel()
	if px < 8 && p.mask&maskBgLeft == 0 {
		bgPixel = 0
	}

	spr := p.spriteLine[px]
	sprPix := spr.pixel
	if p.mask&maskSprOn == 0 || (px < 8 && p.mask&maskSprLeft == 0) {
		sprPix = 0
	}

	// sprite 0 hit: both layers opaque, never on the last visible dot
	if spr.isSpr0 && sprPix != 0 && bgPixel != 0 && px != 255 {
		p.stat |= statSpr0Hit
	}

	var color uint8
	switch {
	case bgPixel == 0 && sprPix == 0:
		color = p.paletteRead(0x3F00)
	case bgPixel == 0:
		color = p.paletteRead(0x3F10 + uint16(spr.palette)*4 + uint16(sprPix))
	case sprPix == 0:
		color = p.paletteRead(0x3F00 + uint16(bgPal)*4 + uint16(bgPixel))
	case spr.behind:
		color = p.paletteRead(0x3F00 + uint16(bgPal)*4 + uint16(bgPixel))
	default:
		color = p.paletteRead(0x3F10 + uint16(spr.palette)*4 + uint16(sprPix))
	}

	if p.mask&maskGreyscale != 0 {
		color &= 0x30
	}
	p.frameBuffer[py*FrameWidth+px] = color
}

func (p *PPU) clearSpriteLine() {
	for i := range p.spriteLine {
		p.spriteLine[i] = sprPixel{}
	}
}

// evaluateSprites scans all 64 OAM entries for sprites in range of the next
// scanline, latching up to eight into secondary OAM. The ninth in-range
// sprite raises the overflow flag (without the hardware's diagonal scan
// bug).
func (p *PPU) evaluateSprites() {
	p.spriteCount = 0
	p.spr0Next = false

	height := p.spriteHeight()
	found := 0
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		dist := p.scanline - y
		if dist < 0 || dist >= height {
			continue
		}
		if found < 8 {
			copy(p.secondaryOAM[found][:], p.oam[i*4:i*4+4])
			if i == 0 {
				p.spr0Next = true
			}
			found++
		} else {
			p.stat |= statOverflow
			break
		}
	}
	p.spriteCount = found
}

// fetchSprites fills the per-pixel sprite buffer for the next scanline from
// secondary OAM. Lower OAM index wins ties.
func (p *PPU) fetchSprites() {
	p.clearSpriteLine()
	p.spr0Line = p.spr0Next

	height := p.spriteHeight()
	for idx := 0; idx < p.spriteCount; idx++ {
		spr := &p.secondaryOAM[idx]
		y := int(spr[0])
		tile := spr[1]
		attr := spr[2]
		x := int(spr[3])

		dist := p.scanline - y
		if attr&0x80 != 0 { // vertical flip
			dist = height - 1 - dist
		}

		var addr uint16
		if height == 8 {
			base := uint16(0)
			if p.ctrl&ctrlSprTable != 0 {
				base = 0x1000
			}
			addr = base + uint16(tile)*16 + uint16(dist)
		} else {
			bank := uint16(tile&1) << 12
			tileID := uint16(tile &^ 1)
			if dist >= 8 {
				tileID++
				dist -= 8
			}
			addr = bank + tileID*16 + uint16(dist)
		}

		p.cart.Mapper().NotifyPPUState(cartridge.PhaseFetchSpr, addr)
		plane0 := p.read(addr)
		plane1 := p.read(addr + 8)

		for i := 0; i < 8; i++ {
			bit := 7 - i
			if attr&0x40 != 0 { // horizontal flip
				bit = i
			}
			var pixel uint8
			if plane0>>bit&1 != 0 {
				pixel |= 0x01
			}
			if plane1>>bit&1 != 0 {
				pixel |= 0x02
			}

			sx := x + i
			if sx >= FrameWidth {
				continue
			}
			if p.spriteLine[sx].pixel != 0 {
				continue
			}
			if pixel == 0 && p.spriteLine[sx].isSpr0 {
				continue
			}
			p.spriteLine[sx] = sprPixel{
				pixel:   pixel,
				palette: attr & 0x03,
				behind:  attr&0x20 != 0,
				isSpr0:  idx == 0 && p.spr0Line,
			}
		}
	}
}

// Loopy address helpers

func (p *PPU) incrementX() {
	if !p.renderingEnabled() {
		return
	}
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if !p.renderingEnabled() {
		return
	}
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &^= 0x7000
		y := p.v >> 5 & 0x001F
		switch y {
		case 29:
			y = 0
			p.v ^= 0x0800
		case 31:
			y = 0
		default:
			y++
		}
		p.v = p.v&^0x03E0 | y<<5
	}
}

func (p *PPU) copyX() {
	if !p.renderingEnabled() {
		return
	}
	p.v = p.v&^0x041F | p.t&0x041F
}

func (p *PPU) copyY() {
	if !p.renderingEnabled() {
		return
	}
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}

// Memory access

// read resolves a PPU-space address: palette locally, everything below
// 0x3F00 through the cartridge dispatch table.
func (p *PPU) read(addr uint16) uint8 {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		return p.paletteRead(addr)
	}
	return p.cart.PPURead(addr)
}

func (p *PPU) write(addr uint16, val uint8) {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		p.paletteWrite(addr, val)
		return
	}
	p.cart.PPUWrite(addr, val)
}

func paletteIndex(addr uint16) int {
	i := int(addr) & 0x1F
	// sprite background-color slots mirror the background ones
	if i == 0x10 || i == 0x14 || i == 0x18 || i == 0x1C {
		i &= 0x0F
	}
	return i
}

func (p *PPU) paletteRead(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) paletteWrite(addr uint16, val uint8) {
	p.palette[paletteIndex(addr)] = val & 0x3F
}

// Register interface (CPU 0x2000-0x2007)

// ReadRegister reads a memory-mapped PPU register
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 0x2007 {
	case 0x2002:
		stat := p.stat | p.regLatch&0x1F
		p.stat &^= statVblank
		p.w = false
		// a read racing vblank start suppresses this frame's NMI
		if p.scanline == 241 && p.dot <= 2 {
			p.nmiPending = false
			if p.dot == 0 {
				stat &^= statVblank
			}
		}
		return stat
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	default:
		return p.regLatch
	}
}

// WriteRegister writes a memory-mapped PPU register
func (p *PPU) WriteRegister(addr uint16, val uint8) {
	p.regLatch = val
	switch addr & 0x2007 {
	case 0x2000:
		wasOff := p.ctrl&ctrlNMIEnable == 0
		p.ctrl = val
		p.t = p.t&^0x0C00 | uint16(val&ctrlNametable)<<10
		if wasOff && val&ctrlNMIEnable != 0 && p.stat&statVblank != 0 {
			p.nmiPending = true
		}
		p.cart.Mapper().NotifyPPUCtrl(val)
	case 0x2001:
		p.mask = val
		p.cart.Mapper().NotifyPPUMask(val)
	case 0x2003:
		p.oamAddr = val
	case 0x2004:
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case 0x2005:
		if !p.w {
			p.t = p.t&^0x001F | uint16(val)>>3
			p.x = val & 0x07
		} else {
			p.t = p.t &^ 0x73E0
			p.t |= uint16(val&0xF8) << 2 // coarse Y
			p.t |= uint16(val&0x07) << 12 // fine Y
		}
		p.w = !p.w
	case 0x2006:
		if !p.w {
			p.t = p.t&0x00FF | uint16(val&0x3F)<<8
		} else {
			p.t = p.t&0xFF00 | uint16(val)
			p.v = p.t
		}
		p.w = !p.w
	case 0x2007:
		p.writeData(val)
	}
}

// readData implements the buffered 0x2007 read: palette reads bypass the
// buffer, which refills from the nametable underneath.
func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var res uint8
	if addr >= 0x3F00 {
		res = p.paletteRead(addr)
		p.readBuffer = p.cart.PPURead(addr & 0x2FFF)
	} else {
		res = p.readBuffer
		p.readBuffer = p.cart.PPURead(addr)
	}
	p.incrementV()
	return res
}

func (p *PPU) writeData(val uint8) {
	p.write(p.v, val)
	p.incrementV()
}

func (p *PPU) incrementV() {
	if p.ctrl&ctrlIncrement != 0 {
		p.v += 32
	} else {
		p.v++
	}
}

// WriteOAM stores one byte during OAM DMA
func (p *PPU) WriteOAM(val uint8) {
	p.oam[p.oamAddr] = val
	p.oamAddr++
}

// OAM exposes object attribute memory for debugging and tests
func (p *PPU) OAM() *[256]uint8 { return &p.oam }

// FrameBuffer returns the palette-indexed framebuffer
func (p *PPU) FrameBuffer() []uint8 { return p.frameBuffer[:] }

// Status returns the raw status register without side effects
func (p *PPU) Status() uint8 { return p.stat }

// Ctrl returns the control register
func (p *PPU) Ctrl() uint8 { return p.ctrl }

// Mask returns the mask register
func (p *PPU) Mask() uint8 { return p.mask }
