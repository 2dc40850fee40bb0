package cartridge

import "fmt"

// PPUPhase tells a mapper what the PPU is currently doing. MMC5 uses it to
// detect scanlines and to split sprite and background CHR banks.
type PPUPhase uint8

const (
	PhaseFetchBg PPUPhase = iota
	PhaseFetchSpr
	PhaseVblank
)

// Mapper is the contract every cartridge board implements. Hot-path address
// translation goes through the banking tables baked into MemConfig; the
// interface is only invoked on cartridge-region writes and on explicit
// notifications, so dispatch cost stays off ordinary reads.
type Mapper interface {
	// Name returns the registry name used to tag snapshots
	Name() string

	// Init lays out the power-on banks and handler table
	Init(h *Header, cfg *MemConfig)

	// PrgWrite handles mapper register writes in 0x8000-0xFFFF
	PrgWrite(cfg *MemConfig, addr uint16, val uint8)

	// CartRead/CartWrite cover the 0x4020-0x5FFF expansion region
	CartRead(addr uint16) uint8
	CartWrite(cfg *MemConfig, addr uint16, val uint8)

	// Translate hooks; the defaults collapse to banking table lookups.
	// Only mappers whose mapping is dynamic per access override these
	// (MMC2/MMC4 latches, MMC5 ex-attribute mode).
	PrgTranslate(cfg *MemConfig, addr uint16) int
	ChrTranslate(cfg *MemConfig, addr uint16) int
	SramTranslate(cfg *MemConfig, addr uint16) int
	NametableTranslate(cfg *MemConfig, addr uint16) int

	// Notifications for mappers with their own counters
	NotifyCPUCycle()
	NotifyScanline()
	NotifyPPUCtrl(val uint8)
	NotifyPPUMask(val uint8)
	NotifyPPUState(phase PPUPhase, addr uint16)

	// PollIRQ reports whether the mapper IRQ line is asserted
	PollIRQ() bool

	// Sample returns the expansion audio contribution, 0 for silent boards
	Sample() float32

	// SyncHandlers reapplies handler swaps that depend on mapper register
	// state. Called after a snapshot restore rebuilds the dispatch tables.
	SyncHandlers(cfg *MemConfig)
}

// mapperBase supplies the no-op defaults; concrete mappers embed it and
// override what their hardware actually wires up.
type mapperBase struct{}

func (mapperBase) PrgWrite(cfg *MemConfig, addr uint16, val uint8)  {}
func (mapperBase) CartRead(addr uint16) uint8                       { return 0 }
func (mapperBase) CartWrite(cfg *MemConfig, addr uint16, val uint8) {}

func (mapperBase) PrgTranslate(cfg *MemConfig, addr uint16) int {
	return cfg.Prg.Translate(addr)
}

func (mapperBase) ChrTranslate(cfg *MemConfig, addr uint16) int {
	return cfg.Chr.Translate(addr)
}

func (mapperBase) SramTranslate(cfg *MemConfig, addr uint16) int {
	return cfg.Sram.Translate(addr)
}

func (mapperBase) NametableTranslate(cfg *MemConfig, addr uint16) int {
	return cfg.Nametable.Translate(addr)
}

func (mapperBase) NotifyCPUCycle()                            {}
func (mapperBase) NotifyScanline()                            {}
func (mapperBase) NotifyPPUCtrl(val uint8)                    {}
func (mapperBase) NotifyPPUMask(val uint8)                    {}
func (mapperBase) NotifyPPUState(phase PPUPhase, addr uint16) {}
func (mapperBase) PollIRQ() bool                              { return false }
func (mapperBase) Sample() float32                            { return 0 }
func (mapperBase) SyncHandlers(cfg *MemConfig)                {}

// Dummy is the mapper of an empty machine (no cartridge inserted)
type Dummy struct{ mapperBase }

func (Dummy) Name() string                     { return "Dummy" }
func (Dummy) Init(h *Header, cfg *MemConfig)   {}

// newMapperByName constructs an uninitialised mapper value for a registry
// name. Used by snapshot restore, where the tag, not the header, is
// authoritative.
func newMapperByName(name string) (Mapper, bool) {
	ctor, ok := mapperCtors[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

var mapperCtors = map[string]func() Mapper{
	"Dummy":       func() Mapper { return &Dummy{} },
	"NROM":        func() Mapper { return &NROM{} },
	"MMC1":        func() Mapper { return &MMC1{} },
	"UxROM":       func() Mapper { return &UxROM{} },
	"CNROM":       func() Mapper { return &CNROM{} },
	"MMC3":        func() Mapper { return &MMC3{} },
	"MMC5":        func() Mapper { return &MMC5{} },
	"AxROM":       func() Mapper { return &AxROM{} },
	"MMC2":        func() Mapper { return &MMC2{} },
	"MMC4":        func() Mapper { return &MMC2{} },
	"ColorDreams": func() Mapper { return &ColorDreams{} },
	"BandaiFCG":   func() Mapper { return &BandaiFCG{} },
	"Namco163":    func() Mapper { return &Namco163{} },
	"VRC2/4":      func() Mapper { return &VRC24{} },
	"VRC6":        func() Mapper { return &VRC6{} },
	"UNROM512":    func() Mapper { return &UNROM512{} },
	"BNROM":       func() Mapper { return &BNROM{} },
	"GxROM":       func() Mapper { return &GxROM{} },
	"SunsoftFME7": func() Mapper { return &SunsoftFME7{} },
	"Camerica":    func() Mapper { return &Camerica{} },
	"VRC3":        func() Mapper { return &VRC3{} },
	"VRC7":        func() Mapper { return &VRC7{} },
	"GTROM":       func() Mapper { return &GTROM{} },
}

// mapperName maps an iNES mapper number to the registry name
func mapperName(id uint16) string {
	switch id {
	case 0:
		return "NROM"
	case 1:
		return "MMC1"
	case 2:
		return "UxROM"
	case 3:
		return "CNROM"
	case 4:
		return "MMC3"
	case 5:
		return "MMC5"
	case 7:
		return "AxROM"
	case 9:
		return "MMC2"
	case 10:
		return "MMC4"
	case 11:
		return "ColorDreams"
	case 16, 159:
		return "BandaiFCG"
	case 19:
		return "Namco163"
	case 21, 22, 23, 25:
		return "VRC2/4"
	case 24, 26:
		return "VRC6"
	case 30:
		return "UNROM512"
	case 34:
		return "BNROM"
	case 66:
		return "GxROM"
	case 69:
		return "SunsoftFME7"
	case 71:
		return "Camerica"
	case 73:
		return "VRC3"
	case 85:
		return "VRC7"
	case 111:
		return "GTROM"
	default:
		return fmt.Sprintf("mapper %d", id)
	}
}

// newMapper constructs and initialises the mapper for a header
func newMapper(h *Header, cfg *MemConfig) (Mapper, error) {
	name := mapperName(h.Mapper)
	m, ok := newMapperByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %d (%s)", ErrUnsupportedMapper, h.Mapper, name)
	}
	m.Init(h, cfg)
	return m, nil
}
