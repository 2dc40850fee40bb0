package cartridge

import "math/bits"

// Banking maps equal-sized pages of a fixed CPU/PPU address window to banks
// of a backing ROM/RAM array. Bank size and bank count are powers of two, so
// oversized bank numbers written by games wrap with a mask.
type Banking struct {
	DataSize   int    `json:"dataSize"`
	BankSize   int    `json:"bankSize"`
	BanksCount int    `json:"banksCount"`
	PagesStart int    `json:"pagesStart"`
	Pages      []int  `json:"pages"` // per-page base offset into the backing array
	BankShift  uint   `json:"bankShift"`
}

// NewBanking creates a banking table for a window of pagesCount pages of
// pageSize bytes each, starting at pagesStart, over dataSize bytes of backing
// memory. All pages start out pointing at bank 0.
func NewBanking(dataSize, pagesStart, pageSize, pagesCount int) Banking {
	b := Banking{
		DataSize:   dataSize,
		BankSize:   pageSize,
		PagesStart: pagesStart,
		Pages:      make([]int, pagesCount),
	}
	if pageSize > 0 {
		b.BanksCount = dataSize / pageSize
		b.BankShift = uint(bits.TrailingZeros(uint(pageSize)))
	}
	return b
}

// NewPRGBanking splits the 0x8000-0xFFFF window into pagesCount pages
func NewPRGBanking(h *Header, pagesCount int) Banking {
	return NewBanking(h.PRGSize, 0x8000, 32*1024/pagesCount, pagesCount)
}

// NewCHRBanking splits the 0x0000-0x1FFF window into pagesCount pages
func NewCHRBanking(h *Header, pagesCount int) Banking {
	return NewBanking(h.CHRRealSize(), 0x0000, 8*1024/pagesCount, pagesCount)
}

// NewSRAMBanking covers the 0x6000-0x7FFF window with one 8 KiB page
func NewSRAMBanking(h *Header) Banking {
	return NewBanking(h.SRAMRealSize(), 0x6000, 8*1024, 1)
}

// NewNametableBanking covers the 0x2000-0x2FFF window with four 1 KiB pages
// over the console's 4 KiB of CIRAM. Carts without four-screen wiring only
// ever see two banks.
func NewNametableBanking(h *Header) Banking {
	b := NewBanking(4*1024, 0x2000, 1024, 4)
	if h.Mirroring != MirrorFourScreen {
		b.BanksCount = 2
	}
	b.UpdateMirroring(h.Mirroring)
	return b
}

// SetPage points a page at a bank. Bank numbers wrap with the bank count mask
// to accommodate games that write oversized values.
func (b *Banking) SetPage(page, bank int) {
	if page < 0 || page >= len(b.Pages) || b.BanksCount == 0 {
		return
	}
	bank &= b.BanksCount - 1
	b.Pages[page] = bank << b.BankShift
}

// SwapPages exchanges the banks of two pages
func (b *Banking) SwapPages(left, right int) {
	b.Pages[left], b.Pages[right] = b.Pages[right], b.Pages[left]
}

// SetPageToLastBank points a page at the final bank of the backing memory
func (b *Banking) SetPageToLastBank(page int) {
	b.SetPage(page, b.BanksCount-1)
}

// PageBankAddr resolves an address through an explicit page instead of the
// one derived from the address. Used by mappers with latch-driven mappings.
func (b *Banking) PageBankAddr(page int, addr uint16) int {
	return b.Pages[page] + (int(addr) & (b.BankSize - 1))
}

// Translate resolves a window address to an offset in the backing memory
func (b *Banking) Translate(addr uint16) int {
	page := (int(addr) - b.PagesStart) >> b.BankShift
	return b.PageBankAddr(page, addr)
}

// UpdateMirroring rewires a nametable banking table for a mirroring mode
func (b *Banking) UpdateMirroring(m Mirroring) {
	switch m {
	case MirrorHorizontal:
		b.SetPage(0, 0)
		b.SetPage(1, 0)
		b.SetPage(2, 1)
		b.SetPage(3, 1)
	case MirrorVertical:
		b.SetPage(0, 0)
		b.SetPage(1, 1)
		b.SetPage(2, 0)
		b.SetPage(3, 1)
	case MirrorSingleScreenA:
		for i := 0; i < 4; i++ {
			b.SetPage(i, 0)
		}
	case MirrorSingleScreenB:
		for i := 0; i < 4; i++ {
			b.SetPage(i, 1)
		}
	case MirrorFourScreen:
		for i := 0; i < 4; i++ {
			b.SetPage(i, i)
		}
	}
}
