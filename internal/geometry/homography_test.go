package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityHomographyApply(t *testing.T) {
	h := IdentityHomography()
	p, err := h.Apply(Point{X: 3.5, Y: -7.25})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 3.5, Y: -7.25}, p)
}

func TestTranslationHomography(t *testing.T) {
	h := TranslationHomography(10, -5)
	p, err := h.Apply(Point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 11, Y: -3}, p)
}

func TestHomographyMulComposition(t *testing.T) {
	a := TranslationHomography(3, 4)
	b := TranslationHomography(-1, 2)
	// a.Mul(b) applies b first.
	p, err := a.Mul(b).Apply(Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 2, Y: 6}, p)
}

func TestHomographyInverseRoundTrip(t *testing.T) {
	h := Homography{
		1.2, 0.1, 30,
		-0.05, 0.9, -12,
		0.0001, 0.0002, 1,
	}
	inv, err := h.Inverse()
	require.NoError(t, err)

	orig := Point{X: 42, Y: 17}
	fwd, err := h.Apply(orig)
	require.NoError(t, err)
	back, err := inv.Apply(fwd)
	require.NoError(t, err)
	assert.InDelta(t, orig.X, back.X, 1e-9)
	assert.InDelta(t, orig.Y, back.Y, 1e-9)
}

func TestHomographyInverseSingular(t *testing.T) {
	var zero Homography
	_, err := zero.Inverse()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSingularMatrix)
}

func TestHomographyApplyDegenerate(t *testing.T) {
	// Bottom row maps (1, 1) to w = 0.
	h := Homography{
		1, 0, 0,
		0, 1, 0,
		1, 1, -2,
	}
	_, err := h.Apply(Point{X: 1, Y: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}

func TestHomographyApplyAllMatchesApply(t *testing.T) {
	h := Homography{
		0.8, -0.2, 12,
		0.3, 1.1, -4,
		0.0005, -0.0003, 1,
	}
	pts := []Point{{0, 0}, {100, 50}, {-30, 80}, {7.5, -2.25}}
	all, err := h.ApplyAll(pts)
	require.NoError(t, err)
	require.Len(t, all, len(pts))
	for i, p := range pts {
		single, err := h.Apply(p)
		require.NoError(t, err)
		assert.InDelta(t, single.X, all[i].X, 1e-12)
		assert.InDelta(t, single.Y, all[i].Y, 1e-12)
	}
}

func TestHomographyDenseRoundTrip(t *testing.T) {
	h := Homography{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, h, HomographyFromDense(h.Dense()))
}
