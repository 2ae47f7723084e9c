package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testIntrinsics() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		600, 0, 320,
		0, 600, 240,
		0, 0, 1,
	})
}

// rotationFromAxisAngle builds a rotation matrix via the Rodrigues formula.
func rotationFromAxisAngle(ax, ay, az, angle float64) *mat.Dense {
	n := math.Sqrt(ax*ax + ay*ay + az*az)
	ax, ay, az = ax/n, ay/n, az/n
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return mat.NewDense(3, 3, []float64{
		t*ax*ax + c, t*ax*ay - s*az, t*ax*az + s*ay,
		t*ax*ay + s*az, t*ay*ay + c, t*ay*az - s*ax,
		t*ax*az - s*ay, t*ay*az + s*ax, t*az*az + c,
	})
}

func TestDecomposeComposeRoundTrip(t *testing.T) {
	k := testIntrinsics()
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 10; trial++ {
		r := rotationFromAxisAngle(
			rng.Float64()-0.5,
			rng.Float64()-0.5,
			rng.Float64()-0.5,
			(rng.Float64()-0.5)*1.2,
		)
		tr := Vec3{
			(rng.Float64() - 0.5) * 2,
			(rng.Float64() - 0.5) * 2,
			1 + rng.Float64()*3, // plane in front of the camera
		}
		rt := NewRigidTransform(r, tr)

		h := ComposeCalibratedHomography(k, rt)
		dec, err := DecomposeHomography(h, k)
		require.NoError(t, err, "trial %d", trial)

		for i := 0; i < 16; i++ {
			assert.InDelta(t, rt[i], dec.RT[i], 1e-4, "trial %d element %d", trial, i)
		}

		// Re-composing from the recovered transform reproduces H up to scale.
		h2 := ComposeCalibratedHomography(k, dec.RT)
		scale := h[8] / h2[8]
		for i := 0; i < 9; i++ {
			assert.InDelta(t, h[i], h2[i]*scale, 1e-4, "trial %d H element %d", trial, i)
		}
	}
}

func TestDecomposeRecoversPlane(t *testing.T) {
	k := testIntrinsics()
	r := rotationFromAxisAngle(1, 0.2, -0.1, 0.35)
	tr := Vec3{0.4, -0.2, 2.5}
	h := ComposeCalibratedHomography(k, NewRigidTransform(r, tr))

	dec, err := DecomposeHomography(h, k)
	require.NoError(t, err)

	// Normal is the rotated plane normal, unit length.
	norm := math.Sqrt(dec.Normal[0]*dec.Normal[0] + dec.Normal[1]*dec.Normal[1] + dec.Normal[2]*dec.Normal[2])
	assert.InDelta(t, 1.0, norm, 1e-9)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, r.At(i, 2), dec.Normal[i], 1e-6)
	}

	// Distance is the translation's component along the normal.
	want := dec.Normal[0]*tr[0] + dec.Normal[1]*tr[1] + dec.Normal[2]*tr[2]
	assert.InDelta(t, want, dec.Distance, 1e-9)
}

func TestDecomposeRotationIsProper(t *testing.T) {
	k := testIntrinsics()
	rng := rand.New(rand.NewSource(21))
	for trial := 0; trial < 10; trial++ {
		r := rotationFromAxisAngle(rng.Float64()+0.1, rng.Float64(), rng.Float64(), rng.Float64())
		tr := Vec3{rng.Float64(), rng.Float64(), 1.5 + rng.Float64()}
		h := ComposeCalibratedHomography(k, NewRigidTransform(r, tr))

		dec, err := DecomposeHomography(h, k)
		require.NoError(t, err, "trial %d", trial)

		rot := dec.RT.Rotation()
		assert.InDelta(t, 1.0, mat.Det(rot), 1e-9, "trial %d", trial)

		var rtr mat.Dense
		rtr.Mul(rot.T(), rot)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, rtr.At(i, j), 1e-9, "trial %d R^T R (%d,%d)", trial, i, j)
			}
		}
	}
}

func TestDecomposeNonFiniteScale(t *testing.T) {
	k := testIntrinsics()
	// First column zero makes the scale factor blow up.
	h := Homography{
		0, 1, 2,
		0, 3, 4,
		0, 0, 1,
	}
	_, err := DecomposeHomography(h, k)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecomposition)
}

func TestDecomposeSingularIntrinsics(t *testing.T) {
	k := mat.NewDense(3, 3, nil)
	_, err := DecomposeHomography(IdentityHomography(), k)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSingularMatrix)
}

func TestSynthesizeZeroDistance(t *testing.T) {
	k := testIntrinsics()
	_, err := SynthesizeHomography(k, rotationFromAxisAngle(0, 0, 1, 0.1), Vec3{}, Vec3{0, 0, 1}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecomposition)
}

// TestSynthesizePlaneTransfer checks the plane-induced homography against
// direct projection: for points P on the plane n.P = d, warping the first
// view's pixels through H must land where the moved camera images P.
func TestSynthesizePlaneTransfer(t *testing.T) {
	k := testIntrinsics()
	rng := rand.New(rand.NewSource(99))

	for trial := 0; trial < 10; trial++ {
		rRel := rotationFromAxisAngle(
			rng.Float64()-0.5, rng.Float64()-0.5, rng.Float64()-0.5,
			(rng.Float64()-0.5)*0.3,
		)
		tRel := Vec3{
			(rng.Float64() - 0.5) * 0.4,
			(rng.Float64() - 0.5) * 0.4,
			(rng.Float64() - 0.5) * 0.4,
		}
		normal := Vec3{0, 0, 1}
		distance := 2.0 + rng.Float64()

		h, err := SynthesizeHomography(k, rRel, tRel, normal, distance)
		require.NoError(t, err, "trial %d", trial)

		for _i := 0; _i < 5; _i++ {
			// Random point on the plane z = distance.
			p := Vec3{(rng.Float64() - 0.5) * 2, (rng.Float64() - 0.5) * 2, distance}

			// Moved camera sees P at R*P - T.
			var rp mat.VecDense
			rp.MulVec(rRel, mat.NewVecDense(3, []float64{p[0], p[1], p[2]}))
			moved := Vec3{rp.AtVec(0) - tRel[0], rp.AtVec(1) - tRel[1], rp.AtVec(2) - tRel[2]}

			src := project(k, p)
			want := project(k, moved)

			got, err := h.Apply(src)
			require.NoError(t, err)
			assert.InDelta(t, want.X, got.X, 1e-6, "trial %d", trial)
			assert.InDelta(t, want.Y, got.Y, 1e-6, "trial %d", trial)
		}
	}
}

func TestSynthesizePureRotationIgnoresPlane(t *testing.T) {
	k := testIntrinsics()
	r := rotationFromAxisAngle(0.3, -0.2, 1, 0.25)

	h1, err := SynthesizeHomography(k, r, Vec3{}, Vec3{0, 0, 1}, 1.0)
	require.NoError(t, err)
	h2, err := SynthesizeHomography(k, r, Vec3{}, Vec3{0.3, 0.1, 0.94}, 5.0)
	require.NoError(t, err)

	// With zero translation the plane terms drop out entirely.
	for i := 0; i < 9; i++ {
		assert.InDelta(t, h1[i], h2[i], 1e-9)
	}
}

// TestDecomposedPoseProjectsModelGrid cross-checks the decomposition on the
// chessboard model: projecting the 3D grid through K and the recovered pose
// must land exactly where H maps the 2D grid.
func TestDecomposedPoseProjectsModelGrid(t *testing.T) {
	k := testIntrinsics()
	r := rotationFromAxisAngle(0.2, 1, -0.3, 0.4)
	tr := Vec3{0.3, -0.5, 3}
	h := ComposeCalibratedHomography(k, NewRigidTransform(r, tr))

	dec, err := DecomposeHomography(h, k)
	require.NoError(t, err)

	grid2d := ModelChessboard2D(4, 6, 0.1, true)
	grid3d := ModelChessboard3D(4, 6, 0.1, true)
	rot := dec.RT.Rotation()
	trans := dec.RT.Translation()
	for i, p3 := range grid3d {
		var cp mat.VecDense
		cp.MulVec(rot, mat.NewVecDense(3, []float64{p3[0], p3[1], p3[2]}))
		cam := Vec3{cp.AtVec(0) + trans[0], cp.AtVec(1) + trans[1], cp.AtVec(2) + trans[2]}
		want := project(k, cam)

		got, err := h.Apply(grid2d[i])
		require.NoError(t, err)
		assert.InDelta(t, want.X, got.X, 1e-6, "corner %d", i)
		assert.InDelta(t, want.Y, got.Y, 1e-6, "corner %d", i)
	}
}

func project(k *mat.Dense, p Vec3) Point {
	var v mat.VecDense
	v.MulVec(k, mat.NewVecDense(3, []float64{p[0], p[1], p[2]}))
	return Point{X: v.AtVec(0) / v.AtVec(2), Y: v.AtVec(1) / v.AtVec(2)}
}
