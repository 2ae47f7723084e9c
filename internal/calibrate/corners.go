// Package calibrate recovers a ground-plane homography and its physical
// decomposition from a single chessboard image.
package calibrate

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/overland-robotics/birdview/internal/bufpool"
	"github.com/overland-robotics/birdview/internal/geometry"
)

// CornerDetector finds the inner corners of a chessboard in an image. The
// returned points are in row-major scan order (top row first, left to right
// within each row) and their count is exactly rows*cols. Detection failure
// wraps geometry.ErrCalibration.
type CornerDetector interface {
	Detect(img image.Image, rows, cols int) ([]geometry.Point, error)
}

// HarrisDetector locates chessboard corners with Harris corner detection:
// Sobel gradients, windowed second-moment matrix, cornerness response,
// threshold relative to the strongest response, then non-maximum
// suppression by spacing.
type HarrisDetector struct {
	// Window is the side length of the summation window (odd, default 5).
	Window int
	// Quality scales the strongest response to form the acceptance
	// threshold (default 0.01).
	Quality float64
	// MinSpacing is the minimum pixel distance between accepted corners
	// (default 8).
	MinSpacing float64
}

// NewHarrisDetector returns a detector with the default parameters.
func NewHarrisDetector() *HarrisDetector {
	return &HarrisDetector{Window: 5, Quality: 0.01, MinSpacing: 8}
}

type corner struct {
	x, y float64
	r    float64 // cornerness
}

// Detect implements CornerDetector.
func (d *HarrisDetector) Detect(img image.Image, rows, cols int) ([]geometry.Point, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", geometry.ErrCalibration)
	}
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("grid %dx%d too small: %w", rows, cols, geometry.ErrCalibration)
	}

	window := d.Window
	if window <= 0 {
		window = 5
	}
	quality := d.Quality
	if quality <= 0 {
		quality = 0.01
	}
	spacing := d.MinSpacing
	if spacing <= 0 {
		spacing = 8
	}

	gray := imaging.Grayscale(img)
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	if w < 3*window || h < 3*window {
		return nil, fmt.Errorf("image %dx%d too small for corner detection: %w", w, h, geometry.ErrCalibration)
	}

	plane := bufpool.GetFloat64(w * h)
	defer bufpool.PutFloat64(plane)
	for y := 0; y < h; y++ {
		row := gray.PixOffset(0, y)
		for x := 0; x < w; x++ {
			plane[y*w+x] = float64(gray.Pix[row+x*4])
		}
	}

	gx := bufpool.GetFloat64(w * h)
	gy := bufpool.GetFloat64(w * h)
	defer bufpool.PutFloat64(gx)
	defer bufpool.PutFloat64(gy)
	sobel(plane, gx, gy, w, h)

	response := harrisResponse(gx, gy, w, h, window)
	defer bufpool.PutFloat64(response)

	maxR := 0.0
	for _, r := range response {
		if r > maxR {
			maxR = r
		}
	}
	if maxR <= 0 {
		return nil, fmt.Errorf("no corner response (flat image): %w", geometry.ErrCalibration)
	}

	thresh := quality * maxR
	candidates := make([]corner, 0, rows*cols*4)
	// Local maxima above the threshold only.
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r := response[y*w+x]
			if r < thresh {
				continue
			}
			if r < response[y*w+x-1] || r < response[y*w+x+1] ||
				r < response[(y-1)*w+x] || r < response[(y+1)*w+x] {
				continue
			}
			candidates = append(candidates, corner{x: float64(x), y: float64(y), r: r})
		}
	}

	picked := suppress(candidates, spacing)
	if len(picked) < rows*cols {
		return nil, fmt.Errorf("found %d corners, need %d: %w", len(picked), rows*cols, geometry.ErrCalibration)
	}
	picked = picked[:rows*cols]

	return orderRowMajor(picked, rows, cols)
}

// sobel fills gx and gy with 3x3 Sobel gradients of plane. Border pixels
// stay zero.
func sobel(plane, gx, gy []float64, w, h int) {
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl := plane[(y-1)*w+x-1]
			tc := plane[(y-1)*w+x]
			tr := plane[(y-1)*w+x+1]
			ml := plane[y*w+x-1]
			mr := plane[y*w+x+1]
			bl := plane[(y+1)*w+x-1]
			bc := plane[(y+1)*w+x]
			br := plane[(y+1)*w+x+1]
			gx[y*w+x] = (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy[y*w+x] = (bl + 2*bc + br) - (tl + 2*tc + tr)
		}
	}
}

// harrisResponse computes R = det(M) - k*trace(M)^2 over a square window,
// with the standard k = 0.04.
func harrisResponse(gx, gy []float64, w, h, window int) []float64 {
	const k = 0.04
	half := window / 2

	out := bufpool.GetFloat64(w * h)
	for y := half + 1; y < h-half-1; y++ {
		for x := half + 1; x < w-half-1; x++ {
			var sxx, sxy, syy float64
			for dy := -half; dy <= half; dy++ {
				base := (y + dy) * w
				for dx := -half; dx <= half; dx++ {
					i := base + x + dx
					sxx += gx[i] * gx[i]
					sxy += gx[i] * gy[i]
					syy += gy[i] * gy[i]
				}
			}
			det := sxx*syy - sxy*sxy
			trace := sxx + syy
			out[y*w+x] = det - k*trace*trace
		}
	}
	return out
}

// suppress keeps the strongest corners first and drops any candidate closer
// than spacing to an already accepted one.
func suppress(candidates []corner, spacing float64) []corner {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].r > candidates[j].r })
	out := make([]corner, 0, len(candidates))
	for _, c := range candidates {
		ok := true
		for _, kept := range out {
			if math.Hypot(c.x-kept.x, c.y-kept.y) < spacing {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// orderRowMajor sorts corners into the chessboard's row-major scan order:
// group into rows by the vertical coordinate, then left to right within
// each row.
func orderRowMajor(corners []corner, rows, cols int) ([]geometry.Point, error) {
	if len(corners) != rows*cols {
		return nil, fmt.Errorf("got %d corners for a %dx%d grid: %w", len(corners), rows, cols, geometry.ErrCalibration)
	}
	sort.Slice(corners, func(i, j int) bool { return corners[i].y < corners[j].y })

	pts := make([]geometry.Point, 0, len(corners))
	for r := 0; r < rows; r++ {
		row := corners[r*cols : (r+1)*cols]
		sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })
		for _, c := range row {
			pts = append(pts, geometry.Point{X: c.x, Y: c.y})
		}
	}
	return pts, nil
}
