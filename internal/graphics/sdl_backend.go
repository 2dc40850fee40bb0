package graphics

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"nengo/internal/ppu"
)

// SDLBackend runs the core under SDL2: streaming texture video, queued
// audio, event-driven input.
type SDLBackend struct{}

// Name identifies the backend
func (b *SDLBackend) Name() string { return "sdl2" }

// Run opens the SDL window and drives the host at 60 Hz
func (b *SDLBackend) Run(host Host, title string, scale int, sampleRate int) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(ppu.FrameWidth*scale), int32(ppu.FrameHeight*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING, int32(ppu.FrameWidth), int32(ppu.FrameHeight))
	if err != nil {
		return err
	}
	defer texture.Destroy()

	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  1024,
	}
	audioDev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return err
	}
	defer sdl.CloseAudioDevice(audioDev)
	sdl.PauseAudioDevice(audioDev, false)

	held := Input{SaveSlot: -1, LoadSlot: -1}
	for {
		in, quit := pollSDLInput(&held)
		if quit {
			return nil
		}

		rgba, samples, err := host.StepHostFrame(in)
		if err != nil {
			return err
		}

		if len(samples) > 0 {
			buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
			if err := sdl.QueueAudio(audioDev, buf); err != nil {
				return err
			}
		}

		if err := texture.Update(nil, unsafe.Pointer(&rgba[0]), ppu.FrameWidth*4); err != nil {
			return err
		}
		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()
	}
}

// pollSDLInput drains the event queue into a per-frame input snapshot.
// held tracks the joypad buttons between events.
func pollSDLInput(held *Input) (Input, bool) {
	held.Reset = false
	held.SaveSlot = -1
	held.LoadSlot = -1

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			return *held, true
		case *sdl.KeyboardEvent:
			down := ev.Type == sdl.KEYDOWN
			switch ev.Keysym.Sym {
			case sdl.K_ESCAPE:
				if down {
					return *held, true
				}
			case sdl.K_z:
				setButton(&held.Buttons1, 0x01, down)
			case sdl.K_x:
				setButton(&held.Buttons1, 0x02, down)
			case sdl.K_RSHIFT:
				setButton(&held.Buttons1, 0x04, down)
			case sdl.K_RETURN:
				setButton(&held.Buttons1, 0x08, down)
			case sdl.K_UP:
				setButton(&held.Buttons1, 0x10, down)
			case sdl.K_DOWN:
				setButton(&held.Buttons1, 0x20, down)
			case sdl.K_LEFT:
				setButton(&held.Buttons1, 0x40, down)
			case sdl.K_RIGHT:
				setButton(&held.Buttons1, 0x80, down)
			case sdl.K_r:
				if down {
					held.Reset = true
				}
			case sdl.K_F1, sdl.K_F2, sdl.K_F3, sdl.K_F4:
				if down {
					held.SaveSlot = int(ev.Keysym.Sym - sdl.K_F1)
				}
			case sdl.K_F5, sdl.K_F6, sdl.K_F7, sdl.K_F8:
				if down {
					held.LoadSlot = int(ev.Keysym.Sym - sdl.K_F5)
				}
			}
		}
	}
	return *held, false
}

func setButton(mask *uint8, bit uint8, down bool) {
	if down {
		*mask |= bit
	} else {
		*mask &^= bit
	}
}
