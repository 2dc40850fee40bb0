package cartridge

// Test ROM construction helpers, used by this package's tests and by the
// bus/app tests that need a bootable image.

// ROMSpec describes a synthetic iNES image
type ROMSpec struct {
	Mapper     uint8
	PRGBanks   int // 16 KiB units
	CHRBanks   int // 8 KiB units, 0 = CHR RAM
	Vertical   bool
	Battery    bool
	Trainer    bool

	// Program is placed at the start of PRG; the reset vector points at it
	Program []uint8
	// ResetTarget overrides the reset vector (default 0x8000)
	ResetTarget uint16
	// NMITarget fills the NMI vector (default: same as reset)
	NMITarget uint16
	// IRQTarget fills the IRQ/BRK vector (default: same as reset)
	IRQTarget uint16
	// FillPRG stamps every 16 KiB bank with its index in the first byte
	FillPRG bool
}

// BuildROM assembles the iNES image
func BuildROM(spec ROMSpec) []uint8 {
	if spec.PRGBanks == 0 {
		spec.PRGBanks = 1
	}
	if spec.ResetTarget == 0 {
		spec.ResetTarget = 0x8000
	}
	if spec.NMITarget == 0 {
		spec.NMITarget = spec.ResetTarget
	}
	if spec.IRQTarget == 0 {
		spec.IRQTarget = spec.ResetTarget
	}

	var flags6 uint8
	if spec.Vertical {
		flags6 |= 0x01
	}
	if spec.Battery {
		flags6 |= 0x02
	}
	if spec.Trainer {
		flags6 |= 0x04
	}
	flags6 |= (spec.Mapper & 0x0F) << 4
	flags7 := spec.Mapper & 0xF0

	rom := make([]uint8, 0, headerSize+spec.PRGBanks*prgPageSize+spec.CHRBanks*chrPageSize)
	rom = append(rom,
		0x4E, 0x45, 0x53, 0x1A,
		uint8(spec.PRGBanks), uint8(spec.CHRBanks),
		flags6, flags7,
		0, 0, 0, 0, 0, 0, 0, 0)

	if spec.Trainer {
		rom = append(rom, make([]uint8, trainerSize)...)
	}

	prg := make([]uint8, spec.PRGBanks*prgPageSize)
	if spec.FillPRG {
		for bank := 0; bank < spec.PRGBanks; bank++ {
			prg[bank*prgPageSize] = uint8(bank)
		}
	}
	copy(prg, spec.Program)

	// vectors live in the last bank, visible at 0xFFFA-0xFFFF
	v := len(prg) - 6
	prg[v] = uint8(spec.NMITarget)
	prg[v+1] = uint8(spec.NMITarget >> 8)
	prg[v+2] = uint8(spec.ResetTarget)
	prg[v+3] = uint8(spec.ResetTarget >> 8)
	prg[v+4] = uint8(spec.IRQTarget)
	prg[v+5] = uint8(spec.IRQTarget >> 8)

	rom = append(rom, prg...)
	rom = append(rom, make([]uint8, spec.CHRBanks*chrPageSize)...)
	return rom
}

// MustBuildCart builds and parses a test cartridge, panicking on error
func MustBuildCart(spec ROMSpec) *Cartridge {
	cart, err := New(BuildROM(spec))
	if err != nil {
		panic(err)
	}
	return cart
}
