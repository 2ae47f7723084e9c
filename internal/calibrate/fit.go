package calibrate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// Fitter estimates a homography from point correspondences with RANSAC
// consensus sampling, then refines over the inliers with a normalized
// least-squares fit.
type Fitter struct {
	// MaxIterations bounds the number of random minimal samples (default 2000).
	MaxIterations int
	// InlierThreshold is the reprojection distance in pixels below which a
	// correspondence counts as an inlier (default 3).
	InlierThreshold float64
	// Seed makes the consensus sampling reproducible.
	Seed int64
}

// NewFitter returns a fitter with the default parameters.
func NewFitter() *Fitter {
	return &Fitter{MaxIterations: 2000, InlierThreshold: 3, Seed: 1}
}

// Fit estimates the homography mapping src[i] to dst[i]. It returns the
// refined matrix together with the inlier mask of the best consensus set.
func (f *Fitter) Fit(src, dst []geometry.Point) (geometry.Homography, []bool, error) {
	if len(src) != len(dst) {
		return geometry.Homography{}, nil, fmt.Errorf("point sets differ in length: %d vs %d", len(src), len(dst))
	}
	if len(src) < 4 {
		return geometry.Homography{}, nil, errors.New("need at least 4 correspondences")
	}

	iterations := f.MaxIterations
	if iterations <= 0 {
		iterations = 2000
	}
	threshold := f.InlierThreshold
	if threshold <= 0 {
		threshold = 3
	}

	rng := rand.New(rand.NewSource(f.Seed))
	n := len(src)

	bestCount := -1
	bestMask := make([]bool, n)
	mask := make([]bool, n)

	for _i := 0; _i < iterations; _i++ {
		i0, i1, i2, i3 := sampleFour(rng, n)
		h, ok := homographyFromFour(
			[4]geometry.Point{src[i0], src[i1], src[i2], src[i3]},
			[4]geometry.Point{dst[i0], dst[i1], dst[i2], dst[i3]},
		)
		if !ok {
			continue
		}

		count := 0
		for i := 0; i < n; i++ {
			mask[i] = reprojectionError(h, src[i], dst[i]) < threshold
			if mask[i] {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			copy(bestMask, mask)
			if count == n {
				break
			}
		}
	}

	if bestCount < 4 {
		return geometry.Homography{}, nil, errors.New("consensus sampling found no model with 4 inliers")
	}

	inSrc := make([]geometry.Point, 0, bestCount)
	inDst := make([]geometry.Point, 0, bestCount)
	for i, in := range bestMask {
		if in {
			inSrc = append(inSrc, src[i])
			inDst = append(inDst, dst[i])
		}
	}

	h, err := fitLeastSquares(inSrc, inDst)
	if err != nil {
		return geometry.Homography{}, nil, err
	}
	return h, bestMask, nil
}

// sampleFour draws four distinct indices in [0, n).
func sampleFour(rng *rand.Rand, n int) (int, int, int, int) {
	idx := make([]int, 0, 4)
	for len(idx) < 4 {
		v := rng.Intn(n)
		dup := false
		for _, u := range idx {
			if u == v {
				dup = true
				break
			}
		}
		if !dup {
			idx = append(idx, v)
		}
	}
	return idx[0], idx[1], idx[2], idx[3]
}

func reprojectionError(h geometry.Homography, src, dst geometry.Point) float64 {
	p, err := h.Apply(src)
	if err != nil {
		return math.Inf(1)
	}
	return math.Hypot(p.X-dst.X, p.Y-dst.Y)
}

// homographyFromFour solves the exact 8x8 system for four correspondences
// with h22 fixed to 1, by Gaussian elimination with partial pivoting.
func homographyFromFour(p, q [4]geometry.Point) (geometry.Homography, bool) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := p[i].X, p[i].Y
		dx, dy := q[i].X, q[i].Y
		r := 2 * i
		a[r] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		a[r+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	// Forward elimination.
	for col := 0; col < 8; col++ {
		pivot := col
		maxAbs := math.Abs(a[col][col])
		for r := col + 1; r < 8; r++ {
			if v := math.Abs(a[r][col]); v > maxAbs {
				maxAbs = v
				pivot = r
			}
		}
		if maxAbs == 0 {
			return geometry.Homography{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		div := a[col][col]
		for c := col; c < 9; c++ {
			a[col][c] /= div
		}
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	return geometry.Homography{
		a[0][8], a[1][8], a[2][8],
		a[3][8], a[4][8], a[5][8],
		a[6][8], a[7][8], 1,
	}, true
}

// fitLeastSquares solves the homogeneous DLT system over all
// correspondences via SVD, with Hartley normalization of both point sets
// for conditioning.
func fitLeastSquares(src, dst []geometry.Point) (geometry.Homography, error) {
	ns, ts := normalize(src)
	nd, td := normalize(dst)

	n := len(ns)
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		sx, sy := ns[i].X, ns[i].Y
		dx, dy := nd[i].X, nd[i].Y
		a.SetRow(2*i, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, -dx})
		a.SetRow(2*i+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, -dy})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return geometry.Homography{}, errors.New("SVD of DLT system failed")
	}
	var v mat.Dense
	svd.VTo(&v)

	// Null vector: the right singular vector for the smallest singular value.
	_, cols := v.Dims()
	var hn geometry.Homography
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, cols-1)
	}

	// Denormalize: H = Td^-1 * Hn * Ts.
	tdInv, err := td.Inverse()
	if err != nil {
		return geometry.Homography{}, err
	}
	h := tdInv.Mul(hn).Mul(ts)

	if h[8] == 0 {
		return geometry.Homography{}, errors.New("degenerate homography fit")
	}
	for i := 0; i < 9; i++ {
		h[i] /= h[8]
	}
	h[8] = 1
	return h, nil
}

// normalize translates the centroid to the origin and scales the mean
// distance to sqrt(2), returning the transformed points and the transform.
func normalize(pts []geometry.Point) ([]geometry.Point, geometry.Homography) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	var meanDist float64
	for _, p := range pts {
		meanDist += math.Hypot(p.X-cx, p.Y-cy)
	}
	meanDist /= float64(len(pts))

	scale := 1.0
	if meanDist > 0 {
		scale = math.Sqrt2 / meanDist
	}

	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point{X: (p.X - cx) * scale, Y: (p.Y - cy) * scale}
	}
	t := geometry.Homography{
		scale, 0, -scale * cx,
		0, scale, -scale * cy,
		0, 0, 1,
	}
	return out, t
}
