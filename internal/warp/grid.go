package warp

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// StitchGrid lays out one timestep's patch list as a single raster for
// inspection: the anchor patch on its own top row, then the history patches
// in a near-square grid below it, separated by gap-colored spacing.
func StitchGrid(patches []*image.NRGBA, gapSize int, gapColor color.Color) (*image.NRGBA, error) {
	if len(patches) == 0 {
		return nil, errors.New("no patches to stitch")
	}
	if gapSize < 0 {
		gapSize = 0
	}

	pw := patches[0].Rect.Dx()
	ph := patches[0].Rect.Dy()

	gridCols := 1
	gridRows := 0
	if n := len(patches) - 1; n > 0 {
		gridCols = int(math.Ceil(math.Sqrt(float64(n))))
		gridRows = (n + gridCols - 1) / gridCols
	}

	width := gridCols*pw + (gridCols-1)*gapSize
	if width < pw {
		width = pw
	}
	height := (gridRows+1)*ph + gridRows*gapSize

	canvas := imaging.New(width, height, gapColor)

	// Anchor patch on its own row.
	draw.Draw(canvas, image.Rect(0, 0, pw, ph), patches[0], patches[0].Rect.Min, draw.Src)

	for idx, patch := range patches[1:] {
		row := idx/gridCols + 1
		col := idx % gridCols
		y := row * (ph + gapSize)
		x := col * (pw + gapSize)
		draw.Draw(canvas, image.Rect(x, y, x+pw, y+ph), patch, patch.Rect.Min, draw.Src)
	}
	return canvas, nil
}
