package cartridge

import "testing"

func TestBankingTranslate(t *testing.T) {
	// 128 KiB backing, 16 KiB pages at 0x8000
	b := NewBanking(128*1024, 0x8000, 16*1024, 2)
	if b.BanksCount != 8 {
		t.Fatalf("banks = %d, want 8", b.BanksCount)
	}

	b.SetPage(0, 3)
	b.SetPage(1, 7)

	if got := b.Translate(0x8000); got != 3*16*1024 {
		t.Errorf("translate(0x8000) = %#x", got)
	}
	if got := b.Translate(0x8123); got != 3*16*1024+0x123 {
		t.Errorf("translate(0x8123) = %#x", got)
	}
	if got := b.Translate(0xC000); got != 7*16*1024 {
		t.Errorf("translate(0xC000) = %#x", got)
	}
}

func TestBankingWrap(t *testing.T) {
	b := NewBanking(64*1024, 0x8000, 16*1024, 2)
	// oversized bank numbers wrap with bank & (count-1)
	for _, v := range []int{0, 1, 4, 5, 0xFF} {
		b.SetPage(0, v)
		want := (v & (b.BanksCount - 1)) * 16 * 1024
		if got := b.Translate(0x8000); got != want {
			t.Errorf("bank %d: translate = %#x, want %#x", v, got, want)
		}
	}
}

func TestBankingSwapAndLast(t *testing.T) {
	b := NewBanking(64*1024, 0x8000, 8*1024, 4)
	b.SetPage(0, 1)
	b.SetPage(1, 2)
	b.SwapPages(0, 1)
	if b.Translate(0x8000) != 2*8*1024 || b.Translate(0xA000) != 1*8*1024 {
		t.Error("swap did not exchange pages")
	}

	b.SetPageToLastBank(3)
	if got := b.Translate(0xE000); got != 7*8*1024 {
		t.Errorf("last bank translate = %#x", got)
	}
}

func TestNametableMirroring(t *testing.T) {
	h := &Header{Mirroring: MirrorHorizontal}
	b := NewNametableBanking(h)

	cases := []struct {
		addr uint16
		want int
	}{
		{0x2000, 0x000},
		{0x2400, 0x000},
		{0x2800, 0x400},
		{0x2C00, 0x400},
	}
	for _, c := range cases {
		if got := b.Translate(c.addr); got != c.want {
			t.Errorf("horizontal %04X -> %#x, want %#x", c.addr, got, c.want)
		}
	}

	b.UpdateMirroring(MirrorVertical)
	if b.Translate(0x2400) != 0x400 || b.Translate(0x2800) != 0x000 {
		t.Error("vertical mirroring wrong")
	}

	b.UpdateMirroring(MirrorSingleScreenB)
	for _, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		if got := b.Translate(addr); got != 0x400+(int(addr)&0x3FF) {
			t.Errorf("single screen B %04X -> %#x", addr, got)
		}
	}
}

func TestFourScreen(t *testing.T) {
	h := &Header{Mirroring: MirrorFourScreen}
	b := NewNametableBanking(h)
	for i, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		if got := b.Translate(addr); got != i*0x400 {
			t.Errorf("four screen %04X -> %#x, want %#x", addr, got, i*0x400)
		}
	}
}
