package app

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"nengo/internal/bus"
)

// ErrInvalidSavestate covers version mismatches and unknown type tags
var ErrInvalidSavestate = errors.New("invalid savestate")

// savestate file format: zstd-compressed JSON of SaveState
const (
	stateVersion   = 1
	StateExtension = ".nensv"
)

// SaveState is the on-disk savestate envelope
type SaveState struct {
	Version     int        `json:"version"`
	Timestamp   time.Time  `json:"timestamp"`
	ROMChecksum string     `json:"romChecksum"`
	Machine     *bus.State `json:"machine"`
}

// StateManager persists numbered savestate slots for the loaded ROM
type StateManager struct {
	saveDir  string
	maxSlots int
}

// NewStateManager creates a manager writing under saveDir
func NewStateManager(saveDir string) *StateManager {
	return &StateManager{saveDir: saveDir, maxSlots: 10}
}

// SaveSlot writes the emulator state into a numbered slot
func (sm *StateManager) SaveSlot(e *Emulator, slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("slot %d out of range", slot)
	}
	return sm.Export(e, sm.slotPath(e.ROMPath(), slot))
}

// LoadSlot restores the emulator state from a numbered slot
func (sm *StateManager) LoadSlot(e *Emulator, slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("slot %d out of range", slot)
	}
	return sm.Import(e, sm.slotPath(e.ROMPath(), slot))
}

// Export writes a savestate file at an arbitrary path
func (sm *StateManager) Export(e *Emulator, path string) error {
	snap, err := e.TakeSnapshot()
	if err != nil {
		return err
	}
	state := &SaveState{
		Version:     stateVersion,
		Timestamp:   time.Now(),
		ROMChecksum: fileChecksum(e.ROMPath()),
		Machine:     snap,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(state); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Import restores a savestate file, validating version and ROM identity
func (sm *StateManager) Import(e *Emulator, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSavestate, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSavestate, err)
	}

	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSavestate, err)
	}
	if state.Version != stateVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidSavestate, state.Version)
	}
	if sum := fileChecksum(e.ROMPath()); sum != "" && state.ROMChecksum != "" && sum != state.ROMChecksum {
		return fmt.Errorf("%w: savestate belongs to a different ROM", ErrInvalidSavestate)
	}
	if state.Machine == nil {
		return fmt.Errorf("%w: empty machine state", ErrInvalidSavestate)
	}

	if err := e.RestoreSnapshot(state.Machine); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSavestate, err)
	}
	return nil
}

// HasSlot reports whether a slot file exists for the loaded ROM
func (sm *StateManager) HasSlot(e *Emulator, slot int) bool {
	_, err := os.Stat(sm.slotPath(e.ROMPath(), slot))
	return err == nil
}

func (sm *StateManager) slotPath(romPath string, slot int) string {
	base := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	if base == "" {
		base = "nocart"
	}
	return filepath.Join(sm.saveDir, fmt.Sprintf("%s.%d%s", base, slot, StateExtension))
}

func fileChecksum(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
