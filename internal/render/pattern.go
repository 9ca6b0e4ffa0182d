package render

import (
	"github.com/mclarke/hub75-matrix/internal/types"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

// DrawTestPattern draws the bring-up pattern: a one-pixel white border,
// corner markers in distinct colors and a centered color bar block. Every
// data line, both halves and the address decoding are exercised.
func DrawTestPattern(c types.Canvas) {
	w, h := c.Size()
	c.Clear()

	for x := 0; x < w; x++ {
		c.SetPixel(x, 0, pixel.White)
		c.SetPixel(x, h-1, pixel.White)
	}
	for y := 0; y < h; y++ {
		c.SetPixel(0, y, pixel.White)
		c.SetPixel(w-1, y, pixel.White)
	}

	// Corner markers. If any two match, the address lines are miswired.
	corner := func(x0, y0 int, col pixel.RGB565) {
		for dy := 0; dy < 3; dy++ {
			for dx := 0; dx < 3; dx++ {
				c.SetPixel(x0+dx, y0+dy, col)
			}
		}
	}
	corner(1, 1, pixel.Red)
	corner(w-4, 1, pixel.Green)
	corner(1, h-4, pixel.Blue)
	corner(w-4, h-4, pixel.Yellow)

	bars := []pixel.RGB565{
		pixel.Red, pixel.Green, pixel.Blue,
		pixel.Cyan, pixel.Magenta, pixel.Yellow, pixel.White,
	}
	barW := (w - 8) / len(bars)
	for i, col := range bars {
		for y := h / 4; y < 3*h/4; y++ {
			for x := 0; x < barW; x++ {
				c.SetPixel(4+i*barW+x, y, col)
			}
		}
	}
}

// DrawGradient draws horizontal intensity ramps, one band per channel plus
// a gray band. Banding here means too few bit planes or a broken plane.
func DrawGradient(c types.Canvas) {
	w, h := c.Size()
	c.Clear()

	band := h / 4
	for x := 0; x < w; x++ {
		v := uint8(x * 255 / (w - 1))
		for y := 0; y < band; y++ {
			c.SetPixel(x, y, pixel.New(v, 0, 0))
		}
		for y := band; y < 2*band; y++ {
			c.SetPixel(x, y, pixel.New(0, v, 0))
		}
		for y := 2 * band; y < 3*band; y++ {
			c.SetPixel(x, y, pixel.New(0, 0, v))
		}
		for y := 3 * band; y < h; y++ {
			c.SetPixel(x, y, pixel.New(v, v, v))
		}
	}
}

// DrawChecker draws an alternating checkerboard, phase-shifted by frame so
// an animated commit path is visible at a glance.
func DrawChecker(c types.Canvas, frame int, cell int, a, b pixel.RGB565) {
	w, h := c.Size()
	if cell < 1 {
		cell = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell)+frame)%2 == 0 {
				c.SetPixel(x, y, a)
			} else {
				c.SetPixel(x, y, b)
			}
		}
	}
}
