// Package sampler extracts per-timestep BEV patch stacks from a trajectory:
// the current ground patch plus the geometrically overlapping history,
// reconstructed from past frames through motion-propagated homographies.
package sampler

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// DefaultCameraOffset is the static mounting lever arm from the
// pose-reporting frame to the camera's optical center, in meters. It is
// added identically to both poses before differencing so it cancels in the
// relative transform.
var DefaultCameraOffset = geometry.Vec3{0.2286, 0, 0.5715}

// Propagator turns one chessboard calibration into correct ground-plane
// homographies for every other frame of a trajectory, assuming the ground
// plane and the pose-to-camera mounting are both static.
type Propagator struct {
	k        *mat.Dense
	patchH   geometry.Homography // image -> patch coordinates
	normal   geometry.Vec3
	distance float64
	offset   geometry.Vec3
}

// NewPropagator builds a propagator from the camera intrinsics, the
// image-to-patch homography and the calibration plane terms.
func NewPropagator(k *mat.Dense, patchH geometry.Homography, normal geometry.Vec3, distance float64, offset geometry.Vec3) *Propagator {
	return &Propagator{k: k, patchH: patchH, normal: normal, distance: distance, offset: offset}
}

// PatchHomography returns the image-to-patch homography of the reference
// calibration.
func (p *Propagator) PatchHomography() geometry.Homography { return p.patchH }

// Relative computes the homography that carries the other frame's image
// coordinates into the reference frame's image coordinates, induced by the
// ground plane and the relative rigid motion between the two poses.
//
// Identical poses short-circuit to the exact identity: R_rel = I and
// T_rel = 0 hold algebraically, so no numerics are involved.
func (p *Propagator) Relative(rtRef, rtOther geometry.RigidTransform) (geometry.Homography, error) {
	if rtRef == rtOther {
		return geometry.IdentityHomography(), nil
	}

	tRef := rtRef.Translation().Add(p.offset)
	tOther := rtOther.Translation().Add(p.offset)

	rRef := rtRef.Rotation()
	rOther := rtOther.Rotation()

	var rRel mat.Dense
	rRel.Mul(rRef.T(), rOther)

	// SynthesizeHomography expects the motion as P_ref = R_rel*P_other - T,
	// so the translation difference runs reference-minus-other, rotated into
	// the reference frame.
	diff := tRef.Sub(tOther)
	var tRelVec mat.VecDense
	tRelVec.MulVec(rRef.T(), mat.NewVecDense(3, []float64{diff[0], diff[1], diff[2]}))
	tRel := geometry.Vec3{tRelVec.AtVec(0), tRelVec.AtVec(1), tRelVec.AtVec(2)}

	h, err := geometry.SynthesizeHomography(p.k, &rRel, tRel, p.normal, p.distance)
	if err != nil {
		return geometry.Homography{}, fmt.Errorf("synthesizing relative homography: %w", err)
	}
	return h, nil
}

// ToPatch composes the relative homography with the calibrated
// image-to-patch transform: the result warps the other frame straight into
// the reference frame's patch coordinates. With identical poses it returns
// the calibrated homography exactly.
func (p *Propagator) ToPatch(rtRef, rtOther geometry.RigidTransform) (geometry.Homography, error) {
	if rtRef == rtOther {
		return p.patchH, nil
	}
	rel, err := p.Relative(rtRef, rtOther)
	if err != nil {
		return geometry.Homography{}, err
	}
	return p.patchH.Mul(rel), nil
}
