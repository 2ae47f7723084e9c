package warp

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sort"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/overland-robotics/birdview/internal/bufpool"
	"github.com/overland-robotics/birdview/internal/geometry"
)

// GridSpec defines the lattice of pixel shifts the mosaic builder covers
// around the reference patch. Shifts run from -PatchesX to PatchesX+1
// horizontally and -2 to PatchesY-1 vertically, in steps of ShiftStep.
type GridSpec struct {
	PatchesX  int `mapstructure:"patches_x" yaml:"patches_x" json:"patches_x"`
	PatchesY  int `mapstructure:"patches_y" yaml:"patches_y" json:"patches_y"`
	ShiftStep int `mapstructure:"shift_step" yaml:"shift_step" json:"shift_step"`
}

// DefaultGridSpec covers a 14x12 patch neighborhood at a 128 px step.
func DefaultGridSpec() GridSpec {
	return GridSpec{PatchesX: 6, PatchesY: 10, ShiftStep: 128}
}

// cols and rows are the lattice dimensions implied by the spec.
func (g GridSpec) cols() int { return 2*g.PatchesX + 2 }
func (g GridSpec) rows() int { return g.PatchesY + 2 }

// shifts enumerates (sx, sy) pairs row by row, top-left to bottom-right in
// image convention: descending y first, descending x within each row.
func (g GridSpec) shifts() [][2]int {
	xs := make([]int, 0, g.cols())
	for i := -g.PatchesX; i <= g.PatchesX+1; i++ {
		xs = append(xs, i*g.ShiftStep)
	}
	ys := make([]int, 0, g.rows())
	for i := -2; i < g.PatchesY; i++ {
		ys = append(ys, i*g.ShiftStep)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(xs)))
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	pairs := make([][2]int, 0, len(xs)*len(ys))
	for _, sy := range ys {
		for _, sx := range xs {
			pairs = append(pairs, [2]int{sx, sy})
		}
	}
	return pairs
}

// MosaicBuilder tiles shifted homography warps of a single frame into one
// stitched BEV raster. Per-shift warps are independent and run on a bounded
// worker pool; every worker writes to a disjoint canvas region, so no
// locking is needed beyond the job queue.
type MosaicBuilder struct {
	Grid    GridSpec
	Workers int // worker pool cap (0 = 8)

	// TrimThreshold is the brightness below which a canvas row counts as
	// black when trimming the bottom of the mosaic.
	TrimThreshold uint8
}

// NewMosaicBuilder returns a builder with the default grid and trim
// threshold 1, matching the BEV reconstruction defaults.
func NewMosaicBuilder() *MosaicBuilder {
	return &MosaicBuilder{Grid: DefaultGridSpec(), Workers: 8, TrimThreshold: 1}
}

type shiftJob struct {
	index int
	sx    int
	sy    int
}

// Build warps src through h once per lattice shift and assembles the
// patches into a single raster, cropping trailing all-black rows from the
// bottom.
func (b *MosaicBuilder) Build(src image.Image, h geometry.Homography, patchSize int) (*image.NRGBA, error) {
	if src == nil {
		return nil, errors.New("nil source image")
	}
	if patchSize <= 0 {
		return nil, errors.New("patch size must be positive")
	}

	shifts := b.Grid.shifts()
	cols := b.Grid.cols()
	rows := b.Grid.rows()

	workers := b.Workers
	if workers <= 0 {
		workers = 8
	}
	if workers > len(shifts) {
		workers = len(shifts)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, cols*patchSize, rows*patchSize))

	jobs := make(chan shiftJob, len(shifts))
	errs := make(chan error, len(shifts))

	var wg sync.WaitGroup
	for _i := 0; _i < workers; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				shifted := geometry.TranslationHomography(float64(job.sx), float64(job.sy)).Mul(h)
				patch, err := Perspective(src, shifted, patchSize, patchSize)
				if err != nil {
					errs <- fmt.Errorf("warping shift (%d, %d): %w", job.sx, job.sy, err)
					continue
				}
				patch = EnsureSize(patch, patchSize, patchSize)

				// Disjoint destination slot per shift.
				col := job.index % cols
				row := job.index / cols
				dst := image.Rect(col*patchSize, row*patchSize, (col+1)*patchSize, (row+1)*patchSize)
				draw.Draw(canvas, dst, patch, patch.Rect.Min, draw.Src)
			}
		}()
	}

	for i, s := range shifts {
		jobs <- shiftJob{index: i, sx: s[0], sy: s[1]}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	return b.trimBottom(canvas), nil
}

// trimBottom crops the canvas so the last row with any pixel brighter than
// the threshold becomes the new bottom edge.
func (b *MosaicBuilder) trimBottom(canvas *image.NRGBA) *image.NRGBA {
	w := canvas.Rect.Dx()
	h := canvas.Rect.Dy()

	lum := bufpool.GetFloat64(w)
	defer bufpool.PutFloat64(lum)

	cropRow := h
	for y := h - 1; y >= 0; y-- {
		row := canvas.PixOffset(0, y)
		bright := false
		for x := 0; x < w; x++ {
			o := row + x*4
			// Rec. 601 luma.
			lum[x] = 0.299*float64(canvas.Pix[o]) + 0.587*float64(canvas.Pix[o+1]) + 0.114*float64(canvas.Pix[o+2])
			if lum[x] > float64(b.TrimThreshold) {
				bright = true
				break
			}
		}
		if bright {
			cropRow = y + 1
			break
		}
	}
	if cropRow == h {
		return canvas
	}
	return imaging.Crop(canvas, image.Rect(0, 0, w, cropRow))
}
