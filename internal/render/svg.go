package render

import (
	"fmt"
	"image"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/mclarke/hub75-matrix/internal/types"
)

// DrawSVG rasterizes an SVG file scaled to the canvas and blits it. Used
// for the boot splash; at 64x64 only simple artwork survives.
func DrawSVG(c types.Canvas, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %v", path, err)
	}

	w, h := c.Size()
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	Blit(c, img)
	return nil
}
