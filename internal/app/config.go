package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the host-side settings: window, audio, paths
type Config struct {
	Window struct {
		Scale      int  `json:"scale"`
		Fullscreen bool `json:"fullscreen"`
		VSync      bool `json:"vsync"`
	} `json:"window"`

	Audio struct {
		Enabled    bool    `json:"enabled"`
		SampleRate int     `json:"sampleRate"`
		Volume     float64 `json:"volume"`
	} `json:"audio"`

	Paths struct {
		SaveDir    string `json:"saveDir"`
		PaletteFile string `json:"paletteFile"`
	} `json:"paths"`

	Video struct {
		Backend string `json:"backend"` // ebiten, sdl2, headless
	} `json:"video"`

	path string
}

// NewConfig returns the defaults
func NewConfig() *Config {
	c := &Config{}
	c.Window.Scale = 3
	c.Window.VSync = true
	c.Audio.Enabled = true
	c.Audio.SampleRate = 44100
	c.Audio.Volume = 1.0
	c.Paths.SaveDir = "saves"
	c.Video.Backend = "ebiten"
	return c
}

// LoadFromFile overlays settings from a JSON config file; a missing file
// leaves the defaults in place.
func (c *Config) LoadFromFile(path string) error {
	c.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("bad config %s: %w", path, err)
	}
	return c.validate()
}

// SaveToFile writes the settings back out
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) validate() error {
	if c.Window.Scale < 1 || c.Window.Scale > 8 {
		c.Window.Scale = 3
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		c.Audio.Volume = 1.0
	}
	switch c.Video.Backend {
	case "ebiten", "sdl2", "headless":
	default:
		return fmt.Errorf("unknown video backend %q", c.Video.Backend)
	}
	return nil
}
