package cartridge

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCHRRAMWritable(t *testing.T) {
	cart := MustBuildCart(ROMSpec{Mapper: 0, PRGBanks: 1, CHRBanks: 0})
	cart.PPUWrite(0x1234, 0x77)
	if got := cart.PPURead(0x1234); got != 0x77 {
		t.Errorf("CHR RAM readback = %02X", got)
	}

	rom := MustBuildCart(ROMSpec{Mapper: 0, PRGBanks: 1, CHRBanks: 1})
	rom.PPUWrite(0x1234, 0x77)
	if got := rom.PPURead(0x1234); got == 0x77 {
		t.Error("CHR ROM accepted a write")
	}
}

func TestSRAMPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.srm")

	cart := MustBuildCart(ROMSpec{Mapper: 0, PRGBanks: 1, Battery: true})
	cart.CPUWrite(0x6000, 0xDE)
	cart.CPUWrite(0x7FFF, 0xAD)
	if err := cart.SaveSRAMFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := MustBuildCart(ROMSpec{Mapper: 0, PRGBanks: 1, Battery: true})
	if err := fresh.LoadSRAMFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if fresh.CPURead(0x6000) != 0xDE || fresh.CPURead(0x7FFF) != 0xAD {
		t.Error("battery RAM not restored")
	}
}

func TestNoBatteryNoSRAMFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.srm")

	cart := MustBuildCart(ROMSpec{Mapper: 0, PRGBanks: 1})
	cart.CPUWrite(0x6000, 0xDE)
	if err := cart.SaveSRAMFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("non-battery cart wrote a .srm file")
	}
}

func TestSnapshotSkipsPRG(t *testing.T) {
	cart := MustBuildCart(ROMSpec{Mapper: 1, PRGBanks: 8, CHRBanks: 1})
	snap, err := cart.TakeSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.CHR) != 0 {
		t.Error("CHR ROM serialized; only CHR RAM should travel")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) > 64*1024 {
		t.Errorf("snapshot unexpectedly large (%d bytes); PRG leaked?", len(data))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cart := MustBuildCart(ROMSpec{Mapper: 2, PRGBanks: 4, CHRBanks: 0})

	cart.CPUWrite(0x8000, 2)  // bank switch
	cart.CPUWrite(0x6123, 0x42)
	cart.PPUWrite(0x0100, 0x24) // CHR RAM
	cart.PPUWrite(0x2005, 0x99) // nametable

	snap1, err := cart.TakeSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	blob1, _ := json.Marshal(snap1)

	// restore into a fresh cartridge of the same ROM
	fresh := MustBuildCart(ROMSpec{Mapper: 2, PRGBanks: 4, CHRBanks: 0})
	if err := fresh.RestoreSnapshot(snap1); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if fresh.Config.Prg.Translate(0x8000) != cart.Config.Prg.Translate(0x8000) {
		t.Error("bank state lost across restore")
	}
	if fresh.CPURead(0x6123) != 0x42 {
		t.Error("SRAM lost across restore")
	}
	if fresh.PPURead(0x0100) != 0x24 {
		t.Error("CHR RAM lost across restore")
	}
	if fresh.PPURead(0x2005) != 0x99 {
		t.Error("nametable RAM lost across restore")
	}

	// serialize -> deserialize -> serialize is byte-identical
	snap2, err := fresh.TakeSnapshot()
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	blob2, _ := json.Marshal(snap2)
	if !bytes.Equal(blob1, blob2) {
		t.Error("snapshot round trip not byte-identical")
	}
}

func TestResetRestoresPowerOnBanks(t *testing.T) {
	cart := MustBuildCart(ROMSpec{Mapper: 2, PRGBanks: 4, FillPRG: true})
	cart.CPUWrite(0x8000, 2)
	if got := cart.CPURead(0x8000); got != 2 {
		t.Fatalf("bank switch failed: %d", got)
	}
	cart.Reset()
	if got := cart.CPURead(0x8000); got != 0 {
		t.Errorf("reset did not restore bank 0: %d", got)
	}
}
