package pixel

import (
	"image/color"
	"testing"
)

func TestNewComponents(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
	}{
		{"black", 0, 0, 0},
		{"white", 31, 63, 31},
		{"red only", 31, 0, 0},
		{"green only", 0, 63, 0},
		{"blue only", 0, 0, 31},
		{"mixed", 12, 45, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.r, tt.g, tt.b)
			if c.R() != tt.r || c.G() != tt.g || c.B() != tt.b {
				t.Errorf("components = (%d, %d, %d), want (%d, %d, %d)",
					c.R(), c.G(), c.B(), tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestNewMasksComponents(t *testing.T) {
	// Oversized components must be masked, not allowed to corrupt
	// neighboring fields.
	c := New(0xff, 0xff, 0xff)
	if c != White {
		t.Errorf("New(0xff, 0xff, 0xff) = %04x, want %04x", uint16(c), uint16(White))
	}
}

func TestRGBAFullScale(t *testing.T) {
	r, g, b, a := White.RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("White.RGBA() = (%04x, %04x, %04x, %04x), want all ffff", r, g, b, a)
	}

	r, g, b, _ = Black.RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("Black.RGBA() = (%04x, %04x, %04x), want all 0", r, g, b)
	}
}

func TestFromColorRoundTrip(t *testing.T) {
	for _, c := range []RGB565{Black, White, Red, Green, Blue, Cyan, Magenta, Yellow} {
		if got := FromColor(c); got != c {
			t.Errorf("FromColor(%04x) = %04x, want identity", uint16(c), uint16(got))
		}
	}
}

func TestFromColorTruncates(t *testing.T) {
	got := FromColor(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if got != White {
		t.Errorf("FromColor(white RGBA) = %04x, want %04x", uint16(got), uint16(White))
	}
}

func TestModel(t *testing.T) {
	got := Model.Convert(color.RGBA{R: 255, G: 0, B: 0, A: 255})
	if got != Red {
		t.Errorf("Model.Convert(red) = %v, want %v", got, Red)
	}
}
