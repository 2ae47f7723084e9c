package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Homography is a 3x3 projective transform stored row-major. It maps
// homogeneous 2D coordinates on one plane to homogeneous 2D coordinates on
// another, up to scale. A plain value type: there is exactly one homography
// representation used everywhere, so no interface or hierarchy is needed.
type Homography [9]float64

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// TranslationHomography returns a pure pixel translation by (dx, dy).
func TranslationHomography(dx, dy float64) Homography {
	return Homography{1, 0, dx, 0, 1, dy, 0, 0, 1}
}

// HomographyFromDense copies a 3x3 gonum matrix into a Homography.
func HomographyFromDense(m mat.Matrix) Homography {
	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r*3+c] = m.At(r, c)
		}
	}
	return h
}

// Dense returns the homography as a freshly allocated 3x3 gonum matrix.
func (h Homography) Dense() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), h[:]...))
}

// At returns the element at (row, col).
func (h Homography) At(row, col int) float64 { return h[row*3+col] }

// Mul returns the composition h * o (o applied first).
func (h Homography) Mul(o Homography) Homography {
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = h[r*3]*o[c] + h[r*3+1]*o[3+c] + h[r*3+2]*o[6+c]
		}
	}
	return out
}

// Inverse returns the inverse homography, or ErrSingularMatrix if h is not
// invertible.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.Dense()); err != nil {
		return Homography{}, fmt.Errorf("inverting homography: %w", ErrSingularMatrix)
	}
	return HomographyFromDense(&inv), nil
}

// Apply maps a single cartesian point through the homography. Points that
// land at infinity yield ErrDegenerateProjection.
func (h Homography) Apply(p Point) (Point, error) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < wEpsilon {
		return Point{}, fmt.Errorf("point (%g, %g) maps to w=%g: %w", p.X, p.Y, w, ErrDegenerateProjection)
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, nil
}

// ApplyAll maps a point set through the homography.
func (h Homography) ApplyAll(pts []Point) ([]Point, error) {
	var proj mat.Dense
	proj.Mul(h.Dense(), ToHomogeneous(pts))
	return ToCartesian(&proj)
}
