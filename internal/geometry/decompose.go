package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Decomposition is a ground-plane homography broken into physical terms:
// the camera pose relative to the calibration plane, and the plane itself
// expressed in the camera frame. Normal and Distance are derived once at
// calibration time and reused for every later homography synthesis.
type Decomposition struct {
	RT       RigidTransform
	Normal   Vec3
	Distance float64
}

// DecomposeHomography splits a calibrated homography H (model plane to
// image) into a rigid transform, plane normal and plane distance, using the
// camera intrinsics K.
//
// The first two columns of K^-1 * H are the first two rotation basis
// vectors up to a common scale; the scale is recovered from the first
// column's norm, the third basis vector comes from the cross product, and
// the rotation is re-orthonormalized through SVD (R = U*V^T), flipping the
// third basis vector when the determinant comes out -1.
func DecomposeHomography(h Homography, k *mat.Dense) (Decomposition, error) {
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return Decomposition{}, fmt.Errorf("intrinsics not invertible: %w", ErrSingularMatrix)
	}

	h1 := mat.NewVecDense(3, []float64{h[0], h[3], h[6]})
	h2 := mat.NewVecDense(3, []float64{h[1], h[4], h[7]})
	h3 := mat.NewVecDense(3, []float64{h[2], h[5], h[8]})

	var kh1, kh2, kh3 mat.VecDense
	kh1.MulVec(&kInv, h1)
	kh2.MulVec(&kInv, h2)
	kh3.MulVec(&kInv, h3)

	lambda := 1 / mat.Norm(&kh1, 2)
	if math.IsInf(lambda, 0) || math.IsNaN(lambda) {
		return Decomposition{}, fmt.Errorf("scale factor is not finite: %w", ErrDecomposition)
	}

	r1 := Vec3{lambda * kh1.AtVec(0), lambda * kh1.AtVec(1), lambda * kh1.AtVec(2)}
	r2 := Vec3{lambda * kh2.AtVec(0), lambda * kh2.AtVec(1), lambda * kh2.AtVec(2)}
	r3 := r1.Cross(r2)
	t := Vec3{lambda * kh3.AtVec(0), lambda * kh3.AtVec(1), lambda * kh3.AtVec(2)}

	// r1, r2, r3 are the rotation's basis vectors (columns).
	r := mat.NewDense(3, 3, []float64{
		r1[0], r2[0], r3[0],
		r1[1], r2[1], r3[1],
		r1[2], r2[2], r3[2],
	})

	// Re-orthonormalize: drops the scale noise the cross product and the
	// inlier-quality of the fit leave behind.
	var svd mat.SVD
	if !svd.Factorize(r, mat.SVDFull) {
		return Decomposition{}, fmt.Errorf("SVD of rotation estimate failed: %w", ErrDecomposition)
	}
	var u, v, rot mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	rot.Mul(&u, v.T())

	if mat.Det(&rot) < 0 {
		// Reflection: flip the third basis vector to restore det +1.
		for row := 0; row < 3; row++ {
			rot.Set(row, 2, -rot.At(row, 2))
		}
	}

	normal := Vec3{rot.At(0, 2), rot.At(1, 2), rot.At(2, 2)}
	distance := normal[0]*t[0] + normal[1]*t[1] + normal[2]*t[2]

	return Decomposition{
		RT:       NewRigidTransform(&rot, t),
		Normal:   normal,
		Distance: distance,
	}, nil
}

// ComposeCalibratedHomography rebuilds the model-plane-to-image homography
// from intrinsics and a rigid transform: H = K * [r1 r2 T], the projection
// of (x, y, 0, 1) model points. Inverse of DecomposeHomography up to scale.
func ComposeCalibratedHomography(k *mat.Dense, rt RigidTransform) Homography {
	r := rt.Rotation()
	t := rt.Translation()
	m := mat.NewDense(3, 3, []float64{
		r.At(0, 0), r.At(0, 1), t[0],
		r.At(1, 0), r.At(1, 1), t[1],
		r.At(2, 0), r.At(2, 1), t[2],
	})
	var h mat.Dense
	h.Mul(k, m)
	return HomographyFromDense(&h)
}

// SynthesizeHomography builds the homography induced on a plane with the
// given camera-frame normal and distance by a relative rigid motion:
//
//	H = K * (R - T*n^T / d) * K^-1
//
// The sign convention matches DecomposeHomography, so a decomposition's
// plane terms can be fed straight back in.
func SynthesizeHomography(k *mat.Dense, rRel *mat.Dense, tRel Vec3, normal Vec3, distance float64) (Homography, error) {
	if distance == 0 {
		return Homography{}, fmt.Errorf("plane distance is zero: %w", ErrDecomposition)
	}
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return Homography{}, fmt.Errorf("intrinsics not invertible: %w", ErrSingularMatrix)
	}

	outer := mat.NewDense(3, 3, nil)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			outer.Set(row, col, tRel[row]*normal[col]/distance)
		}
	}

	var plane, tmp, h mat.Dense
	plane.Sub(rRel, outer)
	tmp.Mul(k, &plane)
	h.Mul(&tmp, &kInv)
	return HomographyFromDense(&h), nil
}
