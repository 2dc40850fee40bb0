// Package graphics provides the host video/audio/input backends the
// frontend can run the core under.
package graphics

import "nengo/internal/ppu"

// Input is the host input snapshot gathered once per displayed frame
type Input struct {
	Buttons1 uint8
	Buttons2 uint8
	Quit     bool
	Reset    bool
	SaveSlot int // -1 when not requested
	LoadSlot int // -1 when not requested
}

// Host is what a backend drives: one emulated frame per call, returning
// the RGBA frame and the audio produced during it.
type Host interface {
	StepHostFrame(in Input) (rgba []uint8, audio []int16, err error)
}

// Backend owns the window, audio device and input polling
type Backend interface {
	Name() string
	Run(host Host, title string, scale int, sampleRate int) error
}

// FrameBytes is the size of one RGBA frame
const FrameBytes = ppu.FrameWidth * ppu.FrameHeight * 4

// NewBackend constructs a backend by config name
func NewBackend(name string) (Backend, bool) {
	switch name {
	case "ebiten":
		return &EbitenBackend{}, true
	case "sdl2":
		return &SDLBackend{}, true
	case "headless":
		return &HeadlessBackend{}, true
	default:
		return nil, false
	}
}
