package input

import "testing"

func TestStrobeAndShift(t *testing.T) {
	j := New()
	j.SetButton(1, ButtonA, true)
	j.SetButton(1, ButtonStart, true)

	j.Write(1)
	// strobe high: reads return the live A button without shifting
	for i := 0; i < 3; i++ {
		if got := j.Read1(); got != 1 {
			t.Fatalf("strobed read %d = %02X, want 1", i, got)
		}
	}

	j.Write(0)
	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0} // A, B, Select, Start, U, D, L, R
	for i, w := range want {
		if got := j.Read1() & 1; got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}

	// exhausted port reads 1
	if got := j.Read1(); got&1 != 1 {
		t.Errorf("ninth read = %02X, want bit0 set", got)
	}
}

func TestOpenBusBit(t *testing.T) {
	j := New()
	j.Write(1)
	j.Write(0)
	if got := j.Read1(); got&0x40 == 0 {
		t.Errorf("read = %02X, bit 6 must mimic open bus", got)
	}
}

func TestSecondPort(t *testing.T) {
	j := New()
	j.SetButtons(2, uint8(ButtonB|ButtonLeft))
	j.Write(1)
	j.Write(0)

	want := []uint8{0, 1, 0, 0, 0, 0, 1, 0}
	for i, w := range want {
		if got := j.Read2() & 1; got != w {
			t.Errorf("port2 bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestStrobeResetsCursor(t *testing.T) {
	j := New()
	j.SetButton(1, ButtonA, true)
	j.Write(1)
	j.Write(0)
	j.Read1()
	j.Read1()

	j.Write(1)
	j.Write(0)
	if got := j.Read1() & 1; got != 1 {
		t.Error("strobe pulse must rewind to bit 0 (A)")
	}
}
