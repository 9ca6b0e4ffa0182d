package render

import (
	"fmt"
	"image"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mclarke/hub75-matrix/internal/types"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

// TextRenderer draws text into a canvas. With a TTF font loaded it renders
// through freetype; without one it falls back to the fixed 7x13 face, which
// is always available and fits two lines on a 64-pixel panel.
type TextRenderer struct {
	ttf  *truetype.Font
	size float64
}

// NewTextRenderer creates a text renderer. fontPath may be empty.
func NewTextRenderer(fontPath string, size float64) (*TextRenderer, error) {
	r := &TextRenderer{size: size}
	if fontPath == "" {
		return r, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %v", fontPath, err)
	}
	f, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %v", fontPath, err)
	}
	r.ttf = f
	return r, nil
}

// Draw renders text with its top-left corner at (x, y).
func (r *TextRenderer) Draw(c types.Canvas, text string, x, y int, col pixel.RGB565) error {
	w, h := c.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if r.ttf != nil {
		ctx := freetype.NewContext()
		ctx.SetDPI(72)
		ctx.SetFont(r.ttf)
		ctx.SetFontSize(r.size)
		ctx.SetClip(img.Bounds())
		ctx.SetDst(img)
		ctx.SetSrc(image.NewUniform(col))

		pt := freetype.Pt(x, y+int(ctx.PointToFixed(r.size)>>6))
		if _, err := ctx.DrawString(text, pt); err != nil {
			return fmt.Errorf("failed to draw string: %v", err)
		}
	} else {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(col),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
		}
		d.DrawString(text)
	}

	Blit(c, img)
	return nil
}

// Width returns the advance of text in pixels, for centering.
func (r *TextRenderer) Width(text string) int {
	var face font.Face
	if r.ttf != nil {
		face = truetype.NewFace(r.ttf, &truetype.Options{Size: r.size, DPI: 72})
		defer face.Close()
	} else {
		face = basicfont.Face7x13
	}
	return font.MeasureString(face, text).Ceil()
}

// Blit copies the non-transparent pixels of an image into the canvas.
func Blit(c types.Canvas, img image.Image) {
	w, h := c.Size()
	b := img.Bounds()
	for y := 0; y < h && y < b.Dy(); y++ {
		for x := 0; x < w && x < b.Dx(); x++ {
			px := img.At(b.Min.X+x, b.Min.Y+y)
			if _, _, _, a := px.RGBA(); a == 0 {
				continue
			}
			c.SetPixel(x, y, pixel.FromColor(px))
		}
	}
}
