package geometry

import (
	"gonum.org/v1/gonum/mat"
)

// Vec3 is a 3-vector, used for translations and plane normals.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// RigidTransform is a 4x4 rigid transform stored row-major: a proper
// rotation in the upper-left 3x3, a translation in the right column and
// (0,0,0,1) as the bottom row. It describes a camera pose relative to a
// reference frame.
type RigidTransform [16]float64

// IdentityRigidTransform returns the identity pose.
func IdentityRigidTransform() RigidTransform {
	return RigidTransform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// NewRigidTransform assembles a rigid transform from a 3x3 rotation and a
// translation vector.
func NewRigidTransform(r mat.Matrix, t Vec3) RigidTransform {
	rt := IdentityRigidTransform()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			rt[row*4+col] = r.At(row, col)
		}
		rt[row*4+3] = t[row]
	}
	return rt
}

// Rotation returns the upper-left 3x3 rotation as a gonum matrix.
func (rt RigidTransform) Rotation() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		rt[0], rt[1], rt[2],
		rt[4], rt[5], rt[6],
		rt[8], rt[9], rt[10],
	})
}

// Translation returns the translation column.
func (rt RigidTransform) Translation() Vec3 {
	return Vec3{rt[3], rt[7], rt[11]}
}

// Dense returns the full 4x4 transform as a gonum matrix.
func (rt RigidTransform) Dense() *mat.Dense {
	return mat.NewDense(4, 4, append([]float64(nil), rt[:]...))
}

// WithTranslation returns a copy of rt with the translation replaced.
func (rt RigidTransform) WithTranslation(t Vec3) RigidTransform {
	rt[3], rt[7], rt[11] = t[0], t[1], t[2]
	return rt
}
