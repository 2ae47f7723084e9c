// Package camera holds the pinhole camera model: the intrinsics matrix K
// and its inverse. The model is built once at startup from configuration
// and treated as immutable, shared read-only state from then on.
package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// Intrinsics are the pinhole parameters with fixed zero skew.
type Intrinsics struct {
	Fx float64 `mapstructure:"fx" yaml:"fx" json:"fx"`
	Fy float64 `mapstructure:"fy" yaml:"fy" json:"fy"`
	Cx float64 `mapstructure:"cx" yaml:"cx" json:"cx"`
	Cy float64 `mapstructure:"cy" yaml:"cy" json:"cy"`
}

// Model is the loaded camera: K and K^-1. Both matrices are read-only
// after Load; callers must not mutate them.
type Model struct {
	k    *mat.Dense
	kInv *mat.Dense
}

// Load validates the intrinsics and builds K = [[fx,0,cx],[0,fy,cy],[0,0,1]]
// together with its inverse.
func Load(in Intrinsics) (*Model, error) {
	if in.Fx <= 0 || in.Fy <= 0 {
		return nil, fmt.Errorf("focal lengths must be positive, got fx=%g fy=%g: %w", in.Fx, in.Fy, geometry.ErrConfig)
	}
	if in.Cx == 0 || in.Cy == 0 {
		return nil, fmt.Errorf("principal point missing (cx=%g cy=%g): %w", in.Cx, in.Cy, geometry.ErrConfig)
	}

	k := mat.NewDense(3, 3, []float64{
		in.Fx, 0, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	})

	// Structurally impossible to be singular after the positivity check,
	// but guarded regardless.
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, fmt.Errorf("intrinsics matrix not invertible: %w", geometry.ErrSingularMatrix)
	}

	return &Model{k: k, kInv: &kInv}, nil
}

// K returns the intrinsics matrix.
func (m *Model) K() *mat.Dense { return m.k }

// KInverse returns the inverse intrinsics matrix.
func (m *Model) KInverse() *mat.Dense { return m.kInv }
