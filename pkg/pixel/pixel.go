// Package pixel provides the RGB565 color model used on the matrix wire
// format. HUB75 content generators hand 16-bit 5-6-5 values to the driver;
// the helpers here convert to and from the standard library color types.
package pixel

import "image/color"

// RGB565 is a 16-bit color with 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// New packs 5-bit red, 6-bit green and 5-bit blue components into an RGB565
// value. Components are masked to their field width.
func New(r, g, b uint8) RGB565 {
	return RGB565(uint16(r&0x1f)<<11 | uint16(g&0x3f)<<5 | uint16(b&0x1f))
}

// FromColor converts any color.Color to RGB565 by truncation.
func FromColor(c color.Color) RGB565 {
	r, g, b, _ := c.RGBA()
	return RGB565(uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(b>>11))
}

// R returns the 5-bit red component.
func (c RGB565) R() uint8 { return uint8(c >> 11) }

// G returns the 6-bit green component.
func (c RGB565) G() uint8 { return uint8(c>>5) & 0x3f }

// B returns the 5-bit blue component.
func (c RGB565) B() uint8 { return uint8(c) & 0x1f }

// RGBA implements color.Color. Each component is expanded to 8 bits by
// replicating its high bits into the low bits, so full scale maps to 0xff.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r8 := uint32(c.R()<<3 | c.R()>>2)
	g8 := uint32(c.G()<<2 | c.G()>>4)
	b8 := uint32(c.B()<<3 | c.B()>>2)
	return r8<<8 | r8, g8<<8 | g8, b8<<8 | b8, 0xffff
}

// Common colors used by the test patterns.
var (
	Black   = New(0, 0, 0)
	White   = New(31, 63, 31)
	Red     = New(31, 0, 0)
	Green   = New(0, 63, 0)
	Blue    = New(0, 0, 31)
	Cyan    = New(0, 63, 31)
	Magenta = New(31, 0, 31)
	Yellow  = New(31, 63, 0)
)

// Model converts colors to RGB565.
var Model color.Model = color.ModelFunc(func(c color.Color) color.Color {
	if _, ok := c.(RGB565); ok {
		return c
	}
	return FromColor(c)
})
