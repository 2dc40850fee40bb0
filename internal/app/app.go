package app

import (
	"fmt"
	"log"

	"nengo/internal/debug"
	"nengo/internal/graphics"
)

// Application wires the emulator facade to a graphics backend and the
// savestate manager. It implements graphics.Host.
type Application struct {
	Emulator *Emulator
	Config   *Config
	States   *StateManager
	Watch    *debug.Watcher

	rgba []uint8
}

// NewApplication builds the host application from a config
func NewApplication(cfg *Config) *Application {
	emu := NewEmulator(cfg.Audio.SampleRate)
	return &Application{
		Emulator: emu,
		Config:   cfg,
		States:   NewStateManager(cfg.Paths.SaveDir),
		Watch:    debug.NewWatcher(emu.Bus()),
		rgba:     make([]uint8, graphics.FrameBytes),
	}
}

// LoadROM loads a cartridge, applying the configured palette file if any
func (a *Application) LoadROM(path string) error {
	if err := a.Emulator.LoadROM(path); err != nil {
		return err
	}
	if a.Config.Paths.PaletteFile != "" {
		if err := a.Emulator.LoadPaletteFile(a.Config.Paths.PaletteFile); err != nil {
			log.Printf("[PALETTE] %v", err)
		}
	}
	return nil
}

// Run hands control to the configured backend until quit
func (a *Application) Run(title string) error {
	backend, ok := graphics.NewBackend(a.Config.Video.Backend)
	if !ok {
		return fmt.Errorf("unknown video backend %q", a.Config.Video.Backend)
	}
	defer a.Emulator.Shutdown()
	return backend.Run(a, title, a.Config.Window.Scale, a.Config.Audio.SampleRate)
}

// StepHostFrame runs one emulated frame for the backend
func (a *Application) StepHostFrame(in graphics.Input) ([]uint8, []int16, error) {
	a.Emulator.SetButtons(1, in.Buttons1)
	a.Emulator.SetButtons(2, in.Buttons2)

	if in.Reset {
		a.Emulator.Reset()
	}
	if in.SaveSlot >= 0 {
		if err := a.States.SaveSlot(a.Emulator, in.SaveSlot); err != nil {
			log.Printf("[STATE] save slot %d: %v", in.SaveSlot, err)
		}
	}
	if in.LoadSlot >= 0 {
		if err := a.States.LoadSlot(a.Emulator, in.LoadSlot); err != nil {
			log.Printf("[STATE] load slot %d: %v", in.LoadSlot, err)
		}
	}

	a.Emulator.StepFrame()
	a.Watch.Check()

	a.Emulator.RenderRGBA(a.rgba)
	return a.rgba, a.Emulator.AudioSamples(), nil
}
