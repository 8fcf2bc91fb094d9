package sc3

import "testing"

func TestDecodeDoubleByte(t *testing.T) {
	tests := []struct {
		c1, c2 byte
		want   string
	}{
		{0x82, 0xA0, "あ"},
		{0x88, 0x9F, "亜"},
		{0x87, 0x40, "💧"}, // circled digit one
		{0x87, 0x4A, "ö"},
		{0x81, 0x40, " "},
		{0x81, 0x48, "?"},
		{0x81, 0x69, "("},
		{0x81, 0x66, "\\"},
	}
	for _, tt := range tests {
		if got := decodeDoubleByte(tt.c1, tt.c2); got != tt.want {
			t.Errorf("decodeDoubleByte(0x%02X, 0x%02X) = %q, want %q", tt.c1, tt.c2, got, tt.want)
		}
	}
}

func TestDecodeSingleByte(t *testing.T) {
	tests := []struct {
		b    byte
		want string
	}{
		{0x41, "A"},
		{0xC9, "É"},
		{0xFC, "ü"},
		{0x20, " "},
	}
	for _, tt := range tests {
		if got := decodeSingleByte(tt.b); got != tt.want {
			t.Errorf("decodeSingleByte(0x%02X) = %q, want %q", tt.b, got, tt.want)
		}
	}
}

func TestIsDoubleByteLead(t *testing.T) {
	for b := 0; b < 256; b++ {
		want := (b >= 0x80 && b <= 0xA0) || (b >= 0xE0 && b <= 0xEF)
		if got := isDoubleByteLead(byte(b)); got != want {
			t.Errorf("isDoubleByteLead(0x%02X) = %v, want %v", b, got, want)
		}
	}
}
