package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestHomogeneousCartesianRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
	}{
		{"origin", []Point{{0, 0}}},
		{"mixed signs", []Point{{1.5, -2.5}, {-3, 4}, {0.001, -0.001}}},
		{"large coordinates", []Point{{1e6, -1e6}, {12345.678, 87654.321}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back, err := ToCartesian(ToHomogeneous(tt.pts))
			require.NoError(t, err)
			// w is exactly 1, so the division is exact.
			assert.Equal(t, tt.pts, back)
		})
	}
}

func TestToCartesianDegenerateW(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		1, 0, // second point at infinity
	})
	_, err := ToCartesian(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}

func TestToCartesianWrongShape(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	_, err := ToCartesian(m)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}

func TestBoxOverlapsSymmetry(t *testing.T) {
	boxes := []Box{
		NewBox(0, 0, 10, 10),
		NewBox(5, 5, 15, 15),
		NewBox(20, 20, 30, 30),
		NewBox(-5, -5, 0, 0),
		NewBox(10, 0, 20, 10),
	}
	for _, a := range boxes {
		for _, b := range boxes {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "overlap must be symmetric for %+v and %+v", a, b)
		}
		assert.True(t, a.Overlaps(a), "box must overlap itself: %+v", a)
	}
}

func TestBoxOverlapsBoundaryContact(t *testing.T) {
	a := NewBox(0, 0, 10, 10)
	b := NewBox(10, 0, 20, 10)
	// Touching at x=10 counts as overlapping.
	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))

	c := NewBox(10.0001, 0, 20, 10)
	assert.False(t, a.Overlaps(c))
}

func TestBoxOverlapsDisjoint(t *testing.T) {
	a := NewBox(0, 0, 10, 10)
	tests := []struct {
		name string
		b    Box
		want bool
	}{
		{"far right", NewBox(50, 0, 60, 10), false},
		{"far below", NewBox(0, 50, 10, 60), false},
		{"contained", NewBox(2, 2, 8, 8), true},
		{"corner touch", NewBox(10, 10, 20, 20), true},
		{"partial", NewBox(5, 5, 15, 15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.b))
		})
	}
}

func TestNewBoxOrdersCoordinates(t *testing.T) {
	b := NewBox(10, 20, 0, 5)
	assert.Equal(t, Box{MinX: 0, MinY: 5, MaxX: 10, MaxY: 20}, b)
	assert.InDelta(t, 10.0, b.Width(), 1e-12)
	assert.InDelta(t, 15.0, b.Height(), 1e-12)
}

func TestBoundingBox(t *testing.T) {
	pts := []Point{{3, -1}, {-2, 7}, {5, 2}}
	box := BoundingBox(pts)
	assert.Equal(t, Box{MinX: -2, MinY: -1, MaxX: 5, MaxY: 7}, box)

	assert.Equal(t, Box{}, BoundingBox(nil))
}
