package bit

import "testing"

func TestJoinHighLow(t *testing.T) {
	cases := []struct {
		high, low uint8
		word      uint16
	}{
		{0x00, 0x00, 0x0000},
		{0x12, 0x34, 0x1234},
		{0xFF, 0xFF, 0xFFFF},
		{0x01, 0x00, 0x0100},
	}
	for _, c := range cases {
		if got := Join(c.high, c.low); got != c.word {
			t.Errorf("Join(%#x, %#x) = %#x, want %#x", c.high, c.low, got, c.word)
		}
		if got := High(c.word); got != c.high {
			t.Errorf("High(%#x) = %#x, want %#x", c.word, got, c.high)
		}
		if got := Low(c.word); got != c.low {
			t.Errorf("Low(%#x) = %#x, want %#x", c.word, got, c.low)
		}
	}
}

func TestSetClearTest(t *testing.T) {
	var v uint8
	for i := uint8(0); i < 8; i++ {
		v = Set(i, v)
		if !Test(i, v) {
			t.Errorf("bit %d not set in %#x", i, v)
		}
	}
	if v != 0xFF {
		t.Fatalf("expected 0xFF, got %#x", v)
	}
	for i := uint8(0); i < 8; i++ {
		v = Clear(i, v)
		if Test(i, v) {
			t.Errorf("bit %d still set in %#x", i, v)
		}
	}
	if v != 0 {
		t.Fatalf("expected 0, got %#x", v)
	}
}

func TestField(t *testing.T) {
	if got := Field(0b1101_0110, 6, 4); got != 0b101 {
		t.Errorf("Field(0b11010110, 6, 4) = %#b, want 0b101", got)
	}
	if got := Field(0xFF, 7, 0); got != 0xFF {
		t.Errorf("Field(0xFF, 7, 0) = %#x, want 0xFF", got)
	}
	if got := Field(0b0000_1100, 3, 2); got != 0b11 {
		t.Errorf("Field = %#b, want 0b11", got)
	}
}

func TestTest16(t *testing.T) {
	if !Test16(9, 1<<9) {
		t.Error("bit 9 should be set")
	}
	if Test16(9, 1<<8) {
		t.Error("bit 9 should be clear")
	}
}
