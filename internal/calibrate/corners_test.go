package calibrate

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// chessboardImage renders a frontal chessboard filling the whole image:
// (rows+1) x (cols+1) tiles of tileSize pixels, giving rows x cols inner
// corners at the tile crossings.
func chessboardImage(rows, cols, tileSize int) *image.NRGBA {
	w := (cols + 1) * tileSize
	h := (rows + 1) * tileSize
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tx := x / tileSize
			ty := y / tileSize
			c := color.NRGBA{A: 255}
			if (tx+ty)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestHarrisDetectorFindsChessboardCorners(t *testing.T) {
	const (
		rows     = 4
		cols     = 5
		tileSize = 24
	)
	img := chessboardImage(rows, cols, tileSize)

	detector := NewHarrisDetector()
	corners, err := detector.Detect(img, rows, cols)
	require.NoError(t, err)
	require.Len(t, corners, rows*cols)

	// Each detected corner sits near a tile crossing, in row-major order.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			got := corners[r*cols+c]
			wantX := float64((c + 1) * tileSize)
			wantY := float64((r + 1) * tileSize)
			assert.InDelta(t, wantX, got.X, 2.5, "corner (%d,%d) x", r, c)
			assert.InDelta(t, wantY, got.Y, 2.5, "corner (%d,%d) y", r, c)
		}
	}

	// Row-major scan order: x increases within a row.
	for r := 0; r < rows; r++ {
		for c := 1; c < cols; c++ {
			assert.Greater(t, corners[r*cols+c].X, corners[r*cols+c-1].X)
		}
	}
}

func TestHarrisDetectorFlatImage(t *testing.T) {
	img := imaging.New(200, 160, color.NRGBA{A: 255})
	detector := NewHarrisDetector()
	_, err := detector.Detect(img, 8, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrCalibration)
}

func TestHarrisDetectorRejectsBadInput(t *testing.T) {
	detector := NewHarrisDetector()

	_, err := detector.Detect(nil, 4, 4)
	assert.ErrorIs(t, err, geometry.ErrCalibration)

	img := imaging.New(8, 8, color.NRGBA{A: 255})
	_, err = detector.Detect(img, 4, 4)
	assert.ErrorIs(t, err, geometry.ErrCalibration)

	img = imaging.New(200, 160, color.NRGBA{A: 255})
	_, err = detector.Detect(img, 1, 4)
	assert.ErrorIs(t, err, geometry.ErrCalibration)
}

func TestOrderRowMajor(t *testing.T) {
	// Shuffled 2x3 grid with slight vertical jitter.
	input := []corner{
		{x: 60, y: 11}, {x: 10, y: 10}, {x: 35, y: 9},
		{x: 35, y: 41}, {x: 60, y: 39}, {x: 10, y: 40},
	}
	pts, err := orderRowMajor(input, 2, 3)
	require.NoError(t, err)
	want := []geometry.Point{
		{X: 10, Y: 10}, {X: 35, Y: 9}, {X: 60, Y: 11},
		{X: 10, Y: 40}, {X: 35, Y: 41}, {X: 60, Y: 39},
	}
	assert.Equal(t, want, pts)
}

func TestSuppressSpacing(t *testing.T) {
	candidates := []corner{
		{x: 10, y: 10, r: 100},
		{x: 12, y: 11, r: 90}, // within spacing of the first
		{x: 40, y: 10, r: 80},
	}
	kept := suppress(candidates, 8)
	require.Len(t, kept, 2)
	assert.Equal(t, 100.0, kept[0].r)
	assert.Equal(t, 80.0, kept[1].r)
	assert.Greater(t, math.Hypot(kept[1].x-kept[0].x, kept[1].y-kept[0].y), 8.0)
}
