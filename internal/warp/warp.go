// Package warp implements perspective warping of images through 3x3
// homographies, plus the tiled BEV mosaic builder.
package warp

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// Perspective warps src through h into a width x height raster. The
// homography maps source pixel coordinates to destination coordinates; the
// warp walks destination pixels through the inverse and samples the source
// bilinearly. Destination pixels that fall outside the source are black.
func Perspective(src image.Image, h geometry.Homography, width, height int) (*image.NRGBA, error) {
	if src == nil {
		return nil, errors.New("nil source image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New("target size must be positive")
	}

	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	// Clone to NRGBA once so the sampling loop can hit Pix directly.
	nsrc := imaging.Clone(src)
	out := imaging.New(width, height, color.NRGBA{A: 255})

	sw := nsrc.Rect.Dx()
	sh := nsrc.Rect.Dy()
	for y := 0; y < height; y++ {
		fy := float64(y)
		row := out.PixOffset(0, y)
		for x := 0; x < width; x++ {
			fx := float64(x)
			w := inv[6]*fx + inv[7]*fy + inv[8]
			if w == 0 {
				continue
			}
			sx := (inv[0]*fx + inv[1]*fy + inv[2]) / w
			sy := (inv[3]*fx + inv[4]*fy + inv[5]) / w
			r, g, b, a, ok := bilinearSample(nsrc, sx, sy, sw, sh)
			if !ok {
				continue
			}
			o := row + x*4
			out.Pix[o] = r
			out.Pix[o+1] = g
			out.Pix[o+2] = b
			out.Pix[o+3] = a
		}
	}
	return out, nil
}

// bilinearSample reads src at fractional coordinates. Samples outside the
// bounds report ok=false.
func bilinearSample(src *image.NRGBA, x, y float64, w, h int) (r, g, b, a uint8, ok bool) {
	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 0, 0, 0, 0, false
	}
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	o00 := src.PixOffset(x0, y0)
	o10 := src.PixOffset(x1, y0)
	o01 := src.PixOffset(x0, y1)
	o11 := src.PixOffset(x1, y1)

	lerp2 := func(c00, c10, c01, c11 uint8) uint8 {
		top := float64(c00) + (float64(c10)-float64(c00))*fx
		bot := float64(c01) + (float64(c11)-float64(c01))*fx
		return uint8(top + (bot-top)*fy + 0.5)
	}
	r = lerp2(src.Pix[o00], src.Pix[o10], src.Pix[o01], src.Pix[o11])
	g = lerp2(src.Pix[o00+1], src.Pix[o10+1], src.Pix[o01+1], src.Pix[o11+1])
	b = lerp2(src.Pix[o00+2], src.Pix[o10+2], src.Pix[o01+2], src.Pix[o11+2])
	a = lerp2(src.Pix[o00+3], src.Pix[o10+3], src.Pix[o01+3], src.Pix[o11+3])
	return r, g, b, a, true
}

// EnsureSize resizes img to width x height if the warp produced a
// mismatched raster; a matching raster is returned untouched.
func EnsureSize(img *image.NRGBA, width, height int) *image.NRGBA {
	if img.Rect.Dx() == width && img.Rect.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Linear)
}
