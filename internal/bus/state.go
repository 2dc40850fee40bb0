package bus

import (
	"nengo/internal/apu"
	"nengo/internal/cartridge"
	"nengo/internal/cpu"
	"nengo/internal/input"
	"nengo/internal/ppu"
)

// State is the serializable snapshot of the whole machine
type State struct {
	RAM     []uint8             `json:"ram"`
	Cycles  uint64              `json:"cycles"`
	OpenBus uint8               `json:"openBus"`
	CPU     cpu.State           `json:"cpu"`
	PPU     ppu.State           `json:"ppu"`
	APU     apu.State           `json:"apu"`
	Joypad  input.Joypad        `json:"joypad"`
	Cart    *cartridge.Snapshot `json:"cart"`
}

// TakeSnapshot captures the full machine state. PRG (and CHR ROM) are
// excluded; they rebind from the ROM file on restore.
func (b *Bus) TakeSnapshot() (*State, error) {
	cartSnap, err := b.cart.TakeSnapshot()
	if err != nil {
		return nil, err
	}
	return &State{
		RAM:     append([]uint8(nil), b.ram[:]...),
		Cycles:  b.cycles,
		OpenBus: b.openBus,
		CPU:     b.CPU.TakeSnapshot(),
		PPU:     b.PPU.TakeSnapshot(),
		APU:     b.APU.TakeSnapshot(),
		Joypad:  *b.Joypad,
		Cart:    cartSnap,
	}, nil
}

// RestoreSnapshot restores machine state captured by TakeSnapshot. The
// cartridge must already hold the same ROM image.
func (b *Bus) RestoreSnapshot(s *State) error {
	copy(b.ram[:], s.RAM)
	b.cycles = s.Cycles
	b.openBus = s.OpenBus
	b.CPU.RestoreSnapshot(s.CPU)
	b.PPU.RestoreSnapshot(s.PPU)
	b.APU.RestoreSnapshot(s.APU)
	*b.Joypad = s.Joypad
	if s.Cart != nil {
		if err := b.cart.RestoreSnapshot(s.Cart); err != nil {
			return err
		}
	}
	return nil
}
