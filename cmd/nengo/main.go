// Command nengo is the NES emulator frontend.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nengo/internal/app"
	"nengo/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		backendName string
		scale       int
		palettePath string
		watches     []string
	)

	root := &cobra.Command{
		Use:     "nengo <rom>",
		Short:   "Cycle-accurate NES emulator",
		Args:    cobra.ExactArgs(1),
		Version: version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.NewConfig()
			if configPath != "" {
				if err := cfg.LoadFromFile(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("backend") {
				cfg.Video.Backend = backendName
			}
			if cmd.Flags().Changed("scale") {
				cfg.Window.Scale = scale
			}
			if palettePath != "" {
				cfg.Paths.PaletteFile = palettePath
			}

			a := app.NewApplication(cfg)
			romPath := args[0]
			if err := a.LoadROM(romPath); err != nil {
				return fmt.Errorf("loading %s: %w", romPath, err)
			}

			for _, spec := range watches {
				if err := addWatchSpec(a, spec); err != nil {
					return err
				}
			}

			title := fmt.Sprintf("nengo - %s", filepath.Base(romPath))
			return a.Run(title)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	root.Flags().StringVarP(&backendName, "backend", "b", "ebiten", "video backend (ebiten, sdl2, headless)")
	root.Flags().IntVarP(&scale, "scale", "s", 3, "window scale factor")
	root.Flags().StringVarP(&palettePath, "palette", "p", "", "64-color .pal file")
	root.Flags().StringArrayVarP(&watches, "watch", "w", nil, "memory watchpoint, ADDR[:condition]")

	return root
}

// addWatchSpec parses "C0DE" or "C0DE:value > old" into a watchpoint
func addWatchSpec(a *app.Application, spec string) error {
	var addr uint16
	cond := ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		cond = spec[i+1:]
		spec = spec[:i]
	}
	if _, err := fmt.Sscanf(spec, "%x", &addr); err != nil {
		return fmt.Errorf("bad watch address %q: %w", spec, err)
	}
	if err := a.Watch.AddWatch(addr, cond); err != nil {
		return err
	}
	log.Printf("[WATCH] armed $%04X %s", addr, cond)
	return nil
}
