package cartridge

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Cartridge owns the ROM image, the work RAM, the console nametable RAM and
// the mapper. CIRAM lives here rather than in the PPU because its address
// lines are routed through the cartridge connector, which is exactly what
// lets boards like GTROM and Namco 163 remap it.
type Cartridge struct {
	Header Header

	PRG  []uint8
	CHR  []uint8
	SRAM []uint8

	ciram [0x1000]uint8

	Config MemConfig
	mapper Mapper
}

// New parses a raw iNES/NES 2.0 image into a cartridge
func New(rom []uint8) (*Cartridge, error) {
	header, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	prgStart := headerSize
	if header.HasTrainer {
		prgStart += trainerSize
	}
	chrStart := prgStart + header.PRGSize
	chrEnd := chrStart
	if !header.UsesCHRRAM {
		chrEnd += header.CHRSize
	}
	if len(rom) < chrEnd || header.PRGSize == 0 {
		return nil, fmt.Errorf("%w: header claims %d PRG + %d CHR bytes", ErrRomTooSmall, header.PRGSize, header.CHRSize)
	}

	c := &Cartridge{Header: header}
	c.PRG = append([]uint8(nil), rom[prgStart:chrStart]...)
	if header.UsesCHRRAM {
		c.CHR = make([]uint8, header.CHRRealSize())
	} else {
		c.CHR = append([]uint8(nil), rom[chrStart:chrEnd]...)
	}
	c.SRAM = make([]uint8, header.SRAMRealSize())

	c.Config = NewMemConfig(&c.Header)
	mapper, err := newMapper(&c.Header, &c.Config)
	if err != nil {
		return nil, err
	}
	c.mapper = mapper

	log.Printf("[CART] loaded: %s", c.Header.String())
	return c, nil
}

// NewEmpty builds the cartridge of an empty machine: a dummy mapper over a
// minimal PRG array so reset vectors read as zero.
func NewEmpty() *Cartridge {
	h := Header{PRGSize: 32 * 1024, UsesCHRRAM: true, CHRRAMSize: 8 * 1024}
	c := &Cartridge{
		Header: h,
		PRG:    make([]uint8, h.PRGSize),
		CHR:    make([]uint8, h.CHRRAMSize),
		SRAM:   make([]uint8, h.SRAMRealSize()),
	}
	c.Config = NewMemConfig(&c.Header)
	c.mapper = &Dummy{}
	return c
}

// LoadFromFile reads a ROM image from disk; `.xz` compressed images are
// decompressed transparently.
func LoadFromFile(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("bad xz stream: %w", err)
		}
		r = xr
	}
	return LoadFromReader(r)
}

// LoadFromReader reads a full ROM image from r
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(data)
}

// Reset rebuilds the mapper from the header; bank tables return to their
// power-on layout. SRAM and CHR RAM contents survive, as on hardware.
func (c *Cartridge) Reset() {
	c.Config = NewMemConfig(&c.Header)
	mapper, err := newMapper(&c.Header, &c.Config)
	if err != nil {
		// the header was accepted at load time, so this cannot fail
		panic(err)
	}
	c.mapper = mapper
}

// Mapper exposes the mapper for IRQ polling and notifications
func (c *Cartridge) Mapper() Mapper { return c.mapper }

// CPURead resolves a CPU access in 0x6000-0xFFFF through the dispatch table
func (c *Cartridge) CPURead(addr uint16) uint8 {
	return c.Config.CPUReads[addr>>13](c, addr)
}

// CPUWrite resolves a CPU write in 0x6000-0xFFFF through the dispatch table
func (c *Cartridge) CPUWrite(addr uint16, val uint8) {
	c.Config.CPUWrites[addr>>13](c, addr, val)
}

// CartRead covers the 0x4020-0x5FFF expansion region
func (c *Cartridge) CartRead(addr uint16) uint8 {
	return c.mapper.CartRead(addr)
}

// CartWrite covers the 0x4020-0x5FFF expansion region
func (c *Cartridge) CartWrite(addr uint16, val uint8) {
	c.mapper.CartWrite(&c.Config, addr, val)
}

// PPURead resolves a PPU access below 0x3F00 through the dispatch table
func (c *Cartridge) PPURead(addr uint16) uint8 {
	return c.Config.PPUReads[(addr&0x3FFF)>>10](c, addr)
}

// PPUWrite resolves a PPU write below 0x3F00 through the dispatch table
func (c *Cartridge) PPUWrite(addr uint16, val uint8) {
	c.Config.PPUWrites[(addr&0x3FFF)>>10](c, addr, val)
}

// BatterySRAM returns the battery-backed RAM, or nil when the board has none
func (c *Cartridge) BatterySRAM() []uint8 {
	if !c.Header.HasBattery {
		return nil
	}
	return c.SRAM
}

// SetBatterySRAM restores battery RAM loaded from disk
func (c *Cartridge) SetBatterySRAM(data []uint8) {
	if len(data) == len(c.SRAM) {
		copy(c.SRAM, data)
	}
}

// SaveSRAMFile persists battery RAM next to the ROM (`.srm`)
func (c *Cartridge) SaveSRAMFile(path string) error {
	sram := c.BatterySRAM()
	if sram == nil {
		return nil
	}
	return os.WriteFile(path, sram, 0o644)
}

// LoadSRAMFile restores battery RAM from a `.srm` file if one exists
func (c *Cartridge) LoadSRAMFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	c.SetBatterySRAM(data)
	return nil
}

// Snapshot is the serializable view of the cartridge. PRG is never included
// and must be rebound from the ROM file; CHR only travels when it is RAM.
type Snapshot struct {
	Header    Header          `json:"header"`
	CHR       []uint8         `json:"chr,omitempty"`
	SRAM      []uint8         `json:"sram"`
	Ciram     []uint8         `json:"ciram"`
	Prg       Banking         `json:"prg"`
	Chr       Banking         `json:"chrBanks"`
	Sram      Banking         `json:"sramBanks"`
	Nametable Banking         `json:"nametable"`
	Mapper    string          `json:"mapper"`
	State     json.RawMessage `json:"state"`
}

// TakeSnapshot captures the full serializable cartridge state
func (c *Cartridge) TakeSnapshot() (*Snapshot, error) {
	state, err := json.Marshal(c.mapper)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Header:    c.Header,
		SRAM:      append([]uint8(nil), c.SRAM...),
		Ciram:     append([]uint8(nil), c.ciram[:]...),
		Prg:       c.Config.Prg,
		Chr:       c.Config.Chr,
		Sram:      c.Config.Sram,
		Nametable: c.Config.Nametable,
		Mapper:    c.mapper.Name(),
		State:     state,
	}
	if c.Header.UsesCHRRAM {
		snap.CHR = append([]uint8(nil), c.CHR...)
	}
	return snap, nil
}

// RestoreSnapshot rebuilds cartridge state from a snapshot. The mapper is
// restored polymorphically by its registry tag, then the banking tables are
// overlaid and handler swaps resynchronised.
func (c *Cartridge) RestoreSnapshot(snap *Snapshot) error {
	mapper, ok := newMapperByName(snap.Mapper)
	if !ok {
		return fmt.Errorf("unknown mapper tag %q", snap.Mapper)
	}

	c.Config = NewMemConfig(&c.Header)
	mapper.Init(&c.Header, &c.Config)
	if err := json.Unmarshal(snap.State, mapper); err != nil {
		return err
	}
	c.mapper = mapper

	c.Config.Prg.Pages = append([]int(nil), snap.Prg.Pages...)
	c.Config.Chr.Pages = append([]int(nil), snap.Chr.Pages...)
	c.Config.Sram.Pages = append([]int(nil), snap.Sram.Pages...)
	c.Config.Nametable = snap.Nametable
	c.mapper.SyncHandlers(&c.Config)

	copy(c.SRAM, snap.SRAM)
	copy(c.ciram[:], snap.Ciram)
	if c.Header.UsesCHRRAM && len(snap.CHR) == len(c.CHR) {
		copy(c.CHR, snap.CHR)
	}
	return nil
}
