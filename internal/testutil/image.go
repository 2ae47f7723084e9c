package testutil

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Chessboard renders a frontal calibration target: (rows+1) x (cols+1)
// alternating tiles of tileSize pixels, which exposes rows x cols inner
// corners at the tile crossings.
func Chessboard(rows, cols, tileSize int) *image.NRGBA {
	w := (cols + 1) * tileSize
	h := (rows + 1) * tileSize
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if ((x/tileSize)+(y/tileSize))%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// TrajectoryFrame renders a synthetic camera frame for timestep t: a
// ground-like diagonal gradient with the frame number stamped in the top
// left corner, so warped output stays attributable to its source frame.
func TrajectoryFrame(t, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x + y + 16*t) % 256)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 64, A: 255})
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 12),
	}
	drawer.DrawString(strconv.Itoa(t))
	return img
}

// WriteTrajectory lays out a synthetic trajectory directory: one frame per
// pose plus a poses.csv of row-major 4x4 transforms, the format the
// extract command consumes.
func WriteTrajectory(dir string, frames []*image.NRGBA, poses [][16]float64) error {
	if len(frames) != len(poses) {
		return fmt.Errorf("frame count %d does not match pose count %d", len(frames), len(poses))
	}
	if err := EnsureDir(dir); err != nil {
		return err
	}

	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := png.Encode(f, frame); err != nil {
			f.Close()
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	posesPath := filepath.Join(dir, "poses.csv")
	f, err := os.Create(posesPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", posesPath, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	for _, pose := range poses {
		row := make([]string, 16)
		for i, v := range pose {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing poses: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// IdentityPose is the 4x4 identity transform with the given translation.
func IdentityPose(x, y, z float64) [16]float64 {
	return [16]float64{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// SaveImage saves an image to the specified path, creating parent
// directories as needed.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))

	file, err := os.Create(path)
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}

// CompareImages reports whether two images match within an average
// per-pixel tolerance in [0,1].
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	bounds1 := img1.Bounds()
	bounds2 := img2.Bounds()
	if bounds1 != bounds2 {
		return false
	}

	var totalDiff, pixelCount float64
	for y := bounds1.Min.Y; y < bounds1.Max.Y; y++ {
		for x := bounds1.Min.X; x < bounds1.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x, y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)

			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}

	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return (totalDiff / pixelCount / maxDiff) <= tolerance
}

// CreateTestImage creates a uniformly colored image.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}
