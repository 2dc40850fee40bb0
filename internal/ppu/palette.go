package ppu

import (
	"fmt"
	"os"
)

// defaultPalette is a standard 2C02 NTSC palette, used when no .pal file
// is supplied.
var defaultPalette = [64][3]uint8{
	{0x62, 0x62, 0x62}, {0x00, 0x1F, 0xB2}, {0x24, 0x04, 0xC8}, {0x52, 0x00, 0xB2},
	{0x73, 0x00, 0x76}, {0x80, 0x00, 0x24}, {0x73, 0x0B, 0x00}, {0x52, 0x28, 0x00},
	{0x24, 0x44, 0x00}, {0x00, 0x57, 0x00}, {0x00, 0x5C, 0x00}, {0x00, 0x53, 0x24},
	{0x00, 0x3C, 0x76}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00},
	{0xAB, 0xAB, 0xAB}, {0x0D, 0x57, 0xFF}, {0x4B, 0x30, 0xFF}, {0x8A, 0x13, 0xFF},
	{0xBC, 0x08, 0xD6}, {0xD2, 0x12, 0x69}, {0xC7, 0x2E, 0x00}, {0x9D, 0x54, 0x00},
	{0x60, 0x7B, 0x00}, {0x20, 0x98, 0x00}, {0x00, 0xA3, 0x00}, {0x00, 0x99, 0x42},
	{0x00, 0x7D, 0xB4}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00},
	{0xFF, 0xFF, 0xFF}, {0x53, 0xAE, 0xFF}, {0x90, 0x85, 0xFF}, {0xD3, 0x65, 0xFF},
	{0xFF, 0x57, 0xFF}, {0xFF, 0x5D, 0xCF}, {0xFF, 0x77, 0x57}, {0xFA, 0x9E, 0x00},
	{0xBD, 0xC7, 0x00}, {0x7A, 0xE7, 0x00}, {0x43, 0xF6, 0x11}, {0x26, 0xEF, 0x7E},
	{0x2C, 0xD5, 0xF6}, {0x4E, 0x4E, 0x4E}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00},
	{0xFF, 0xFF, 0xFF}, {0xB6, 0xE1, 0xFF}, {0xCE, 0xD1, 0xFF}, {0xE9, 0xC3, 0xFF},
	{0xFF, 0xBC, 0xFF}, {0xFF, 0xBD, 0xF4}, {0xFF, 0xC6, 0xC3}, {0xFF, 0xD5, 0x9A},
	{0xE9, 0xE6, 0x81}, {0xCE, 0xF4, 0x81}, {0xB6, 0xFB, 0x9A}, {0xA9, 0xFA, 0xC3},
	{0xA9, 0xF0, 0xF4}, {0xB8, 0xB8, 0xB8}, {0x00, 0x00, 0x00}, {0x00, 0x00, 0x00},
}

// Palette is a 64-entry RGB color table
type Palette [64][3]uint8

// DefaultPalette returns the built-in color table
func DefaultPalette() Palette {
	return defaultPalette
}

// LoadPaletteFile reads a .pal file: 3 bytes per color, first 64 entries
// used.
func LoadPaletteFile(path string) (Palette, error) {
	var pal Palette
	data, err := os.ReadFile(path)
	if err != nil {
		return pal, err
	}
	if len(data) < 64*3 {
		return pal, fmt.Errorf("palette file too small: %d bytes", len(data))
	}
	for i := 0; i < 64; i++ {
		pal[i][0] = data[i*3]
		pal[i][1] = data[i*3+1]
		pal[i][2] = data[i*3+2]
	}
	return pal, nil
}

// emphasisFactor dims the two non-emphasised channel groups. The
// simple constant-factor model is adequate for RGB output.
const emphasisFactor = 0.816

// RenderRGBA converts the indexed framebuffer to RGBA8 through a palette,
// applying the current color-emphasis bits. dst must hold 256*240*4 bytes.
func (p *PPU) RenderRGBA(pal *Palette, dst []uint8) {
	emphR := p.mask&0x20 != 0
	emphG := p.mask&0x40 != 0
	emphB := p.mask&0x80 != 0

	for i, idx := range p.frameBuffer {
		c := pal[idx&0x3F]
		r, g, b := float64(c[0]), float64(c[1]), float64(c[2])
		if emphR || emphG || emphB {
			if !emphR {
				r *= emphasisFactor
			}
			if !emphG {
				g *= emphasisFactor
			}
			if !emphB {
				b *= emphasisFactor
			}
		}
		dst[i*4] = uint8(r)
		dst[i*4+1] = uint8(g)
		dst[i*4+2] = uint8(b)
		dst[i*4+3] = 0xFF
	}
}
