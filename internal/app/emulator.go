// Package app provides the emulator facade and host-side services around
// the core: stepping, savestates and configuration.
package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"nengo/internal/bus"
	"nengo/internal/cartridge"
	"nengo/internal/input"
	"nengo/internal/ppu"
)

// Emulator is the thin wrapper the frontends drive: step, fetch video,
// drain audio, feed input, snapshot.
type Emulator struct {
	bus     *bus.Bus
	romPath string
	palette ppu.Palette

	sampleRate     int
	audioHighWater int
}

// NewEmulator creates an emulator with no cartridge inserted
func NewEmulator(sampleRate int) *Emulator {
	return &Emulator{
		bus:            bus.New(cartridge.NewEmpty(), sampleRate),
		palette:        ppu.DefaultPalette(),
		sampleRate:     sampleRate,
		audioHighWater: 8192,
	}
}

// Bus exposes the underlying machine for tests and debuggers
func (e *Emulator) Bus() *bus.Bus { return e.bus }

// ROMPath returns the path of the loaded ROM, if any
func (e *Emulator) ROMPath() string { return e.romPath }

// SetPalette replaces the output color table
func (e *Emulator) SetPalette(pal ppu.Palette) { e.palette = pal }

// Palette returns the active color table
func (e *Emulator) Palette() *ppu.Palette { return &e.palette }

// LoadROM inserts a cartridge from disk, restoring battery RAM from the
// sibling .srm file. Any previously loaded game's battery RAM is saved
// first.
func (e *Emulator) LoadROM(path string) error {
	cart, err := cartridge.LoadFromFile(path)
	if err != nil {
		return err
	}

	if e.romPath != "" {
		if err := e.SaveSRAM(); err != nil {
			log.Printf("[SRAM] save failed: %v", err)
		}
	}

	if err := cart.LoadSRAMFile(sramPath(path)); err != nil {
		log.Printf("[SRAM] load failed: %v", err)
	}

	e.romPath = path
	e.bus.LoadCartridge(cart)
	return nil
}

// SaveSRAM persists battery RAM next to the ROM
func (e *Emulator) SaveSRAM() error {
	if e.romPath == "" {
		return nil
	}
	return e.bus.Cartridge().SaveSRAMFile(sramPath(e.romPath))
}

func sramPath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".srm"
}

// Reset performs a console reset
func (e *Emulator) Reset() { e.bus.Reset() }

// Step executes one CPU instruction
func (e *Emulator) Step() { e.bus.Step() }

// StepFrame runs until the next vertical blank, one full frame of video
func (e *Emulator) StepFrame() {
	e.bus.StepUntilVBlank()
	e.bus.APU.TrimSamples(e.audioHighWater)
}

// StepUntilVBlank is StepFrame without the audio trim
func (e *Emulator) StepUntilVBlank() { e.bus.StepUntilVBlank() }

// RunCycles advances at least n CPU cycles
func (e *Emulator) RunCycles(n uint64) { e.bus.RunCycles(n) }

// FrameBuffer returns the PPU's 256x240 palette-indexed frame
func (e *Emulator) FrameBuffer() []uint8 { return e.bus.FrameBuffer() }

// RenderRGBA converts the frame into dst (256*240*4 bytes)
func (e *Emulator) RenderRGBA(dst []uint8) {
	e.bus.PPU.RenderRGBA(&e.palette, dst)
}

// AudioSamples drains the pending mono PCM samples
func (e *Emulator) AudioSamples() []int16 { return e.bus.AudioSamples() }

// SetAudioHighWater bounds the sample backlog kept between frames
func (e *Emulator) SetAudioHighWater(n int) { e.audioHighWater = n }

// SetButtons replaces a controller port's button mask
func (e *Emulator) SetButtons(port int, mask uint8) {
	e.bus.Joypad.SetButtons(port, mask)
}

// SetButton updates one button on a controller port
func (e *Emulator) SetButton(port int, button input.Button, pressed bool) {
	e.bus.Joypad.SetButton(port, button, pressed)
}

// TakeSnapshot captures the serializable machine state
func (e *Emulator) TakeSnapshot() (*bus.State, error) {
	return e.bus.TakeSnapshot()
}

// RestoreSnapshot restores machine state. The loaded ROM must match the
// one the snapshot was taken from; PRG/CHR ROM rebind from it.
func (e *Emulator) RestoreSnapshot(s *bus.State) error {
	return e.bus.RestoreSnapshot(s)
}

// LoadPaletteFile replaces the color table from a .pal file
func (e *Emulator) LoadPaletteFile(path string) error {
	pal, err := ppu.LoadPaletteFile(path)
	if err != nil {
		return err
	}
	e.palette = pal
	return nil
}

// Shutdown flushes battery RAM before the process exits
func (e *Emulator) Shutdown() {
	if err := e.SaveSRAM(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save SRAM: %v\n", err)
	}
}
