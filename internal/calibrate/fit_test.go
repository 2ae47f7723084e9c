package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overland-robotics/birdview/internal/geometry"
)

func projectAll(t *testing.T, h geometry.Homography, pts []geometry.Point) []geometry.Point {
	t.Helper()
	out, err := h.ApplyAll(pts)
	require.NoError(t, err)
	return out
}

func TestFitRecoversExactHomography(t *testing.T) {
	hTrue := geometry.Homography{
		1.1, 0.05, 200,
		-0.03, 0.95, 150,
		0.0002, -0.0001, 1,
	}
	src := geometry.ModelChessboard2D(6, 8, 30, true)
	dst := projectAll(t, hTrue, src)

	h, mask, err := NewFitter().Fit(src, dst)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		assert.InDelta(t, hTrue[i], h[i], 1e-6, "H element %d", i)
	}
	for i, in := range mask {
		assert.True(t, in, "correspondence %d should be an inlier", i)
	}
}

func TestFitRejectsOutliers(t *testing.T) {
	hTrue := geometry.Homography{
		0.9, -0.02, 320,
		0.04, 1.05, 240,
		-0.0001, 0.0002, 1,
	}
	src := geometry.ModelChessboard2D(6, 8, 30, true)
	dst := projectAll(t, hTrue, src)

	// Corrupt a handful of correspondences well past the inlier threshold.
	corrupted := map[int]bool{3: true, 11: true, 20: true, 33: true, 40: true}
	for i := range corrupted {
		dst[i].X += 80
		dst[i].Y -= 65
	}

	h, mask, err := NewFitter().Fit(src, dst)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		assert.InDelta(t, hTrue[i], h[i], 1e-3, "H element %d", i)
	}
	for i, in := range mask {
		assert.Equal(t, !corrupted[i], in, "inlier flag for correspondence %d", i)
	}
}

func TestFitInputValidation(t *testing.T) {
	pts := geometry.ModelChessboard2D(2, 2, 10, false)

	_, _, err := NewFitter().Fit(pts[:3], pts[:3])
	assert.Error(t, err)

	_, _, err = NewFitter().Fit(pts, pts[:3])
	assert.Error(t, err)
}

func TestHomographyFromFourDegenerate(t *testing.T) {
	// Three collinear points give no unique solution.
	p := [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	_, ok := homographyFromFour(p, p)
	assert.False(t, ok)
}

func TestHomographyFromFourIdentity(t *testing.T) {
	p := [4]geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	h, ok := homographyFromFour(p, p)
	require.True(t, ok)
	for _, pt := range []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 5, Y: 3}} {
		got, err := h.Apply(pt)
		require.NoError(t, err)
		assert.InDelta(t, pt.X, got.X, 1e-9)
		assert.InDelta(t, pt.Y, got.Y, 1e-9)
	}
}
