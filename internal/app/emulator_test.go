package app

import (
	"os"
	"path/filepath"
	"testing"

	"nengo/internal/cartridge"
)

// writeTestROM places a synthetic ROM on disk for LoadROM
func writeTestROM(t *testing.T, spec cartridge.ROMSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, cartridge.BuildROM(spec), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// statusProgram writes 0x80 to 0x6000 on boot, then 0x00 once its work
// loop finishes, the way the self-test ROMs report status.
var statusProgram = []uint8{
	0xA9, 0x80, // LDA #$80
	0x8D, 0x00, 0x60, // STA $6000  (running)
	0xA2, 0x00, // LDX #$00
	0xE8,       // loop: INX
	0xD0, 0xFD, // BNE loop
	0xA9, 0x00, // LDA #$00
	0x8D, 0x00, 0x60, // STA $6000  (pass)
	0x4C, 0x0F, 0x80, // spin
}

func TestRunUntilStatusByte(t *testing.T) {
	path := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Program: statusProgram})

	e := NewEmulator(44100)
	if err := e.LoadROM(path); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	cart := e.Bus().Cartridge()
	// run until the status byte flips from "running" to "pass"
	sawRunning := false
	for i := 0; i < 200000; i++ {
		e.Step()
		switch cart.CPURead(0x6000) {
		case 0x80:
			sawRunning = true
		case 0x00:
			if sawRunning {
				return
			}
		}
	}
	t.Fatal("status byte never reached pass")
}

func TestStepFrameProducesVideoAndAudio(t *testing.T) {
	path := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Program: []uint8{
		0xA9, 0x1E, // LDA #$1E (bg+spr on)
		0x8D, 0x01, 0x20, // STA $2001
		0x4C, 0x05, 0x80, // spin
	}})

	e := NewEmulator(44100)
	if err := e.LoadROM(path); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	e.StepFrame()
	e.StepFrame()

	if len(e.FrameBuffer()) != 256*240 {
		t.Errorf("framebuffer size = %d", len(e.FrameBuffer()))
	}
	samples := e.AudioSamples()
	want := 44100 / 60
	if len(samples) < want/2 || len(samples) > want*4 {
		t.Errorf("audio samples per frame = %d, want around %d", len(samples), want)
	}
}

func TestSavestateRoundTrip(t *testing.T) {
	path := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Program: statusProgram})

	e := NewEmulator(44100)
	if err := e.LoadROM(path); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		e.Step()
	}

	sm := NewStateManager(t.TempDir())
	statePath := filepath.Join(t.TempDir(), "slot"+StateExtension)
	if err := sm.Export(e, statePath); err != nil {
		t.Fatalf("export: %v", err)
	}

	pc := e.Bus().CPU.PC
	for i := 0; i < 500; i++ {
		e.Step()
	}

	if err := sm.Import(e, statePath); err != nil {
		t.Fatalf("import: %v", err)
	}
	if e.Bus().CPU.PC != pc {
		t.Errorf("PC = %04X after import, want %04X", e.Bus().CPU.PC, pc)
	}
}

func TestSavestateRejectsOtherROM(t *testing.T) {
	pathA := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Program: statusProgram})
	pathB := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 2, Program: statusProgram})

	e := NewEmulator(44100)
	if err := e.LoadROM(pathA); err != nil {
		t.Fatal(err)
	}
	sm := NewStateManager(t.TempDir())
	statePath := filepath.Join(t.TempDir(), "a"+StateExtension)
	if err := sm.Export(e, statePath); err != nil {
		t.Fatal(err)
	}

	if err := e.LoadROM(pathB); err != nil {
		t.Fatal(err)
	}
	if err := sm.Import(e, statePath); err == nil {
		t.Error("import accepted a savestate from a different ROM")
	}
}

func TestSRAMSavedOnROMSwitch(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.nes")
	os.WriteFile(pathA, cartridge.BuildROM(cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Battery: true}), 0o644)
	pathB := filepath.Join(dir, "b.nes")
	os.WriteFile(pathB, cartridge.BuildROM(cartridge.ROMSpec{Mapper: 0, PRGBanks: 1}), 0o644)

	e := NewEmulator(44100)
	if err := e.LoadROM(pathA); err != nil {
		t.Fatal(err)
	}
	e.Bus().Cartridge().CPUWrite(0x6000, 0x99)

	// switching games must flush the old battery RAM
	if err := e.LoadROM(pathB); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.srm")); err != nil {
		t.Fatalf("no .srm written on switch: %v", err)
	}

	if err := e.LoadROM(pathA); err != nil {
		t.Fatal(err)
	}
	if got := e.Bus().Cartridge().CPURead(0x6000); got != 0x99 {
		t.Errorf("battery RAM = %02X after reload, want 99", got)
	}
}

func TestResetVectorInvariant(t *testing.T) {
	path := writeTestROM(t, cartridge.ROMSpec{Mapper: 0, PRGBanks: 1, Program: statusProgram})
	e := NewEmulator(44100)
	if err := e.LoadROM(path); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		e.Step()
	}
	sp := e.Bus().CPU.SP
	e.Reset()
	if e.Bus().CPU.PC != 0x8000 {
		t.Errorf("reset PC = %04X, want 8000", e.Bus().CPU.PC)
	}
	if e.Bus().CPU.SP != sp-3 {
		t.Errorf("reset SP = %02X, want %02X", e.Bus().CPU.SP, sp-3)
	}
	if !e.Bus().CPU.I {
		t.Error("reset must set irq_off")
	}
}
