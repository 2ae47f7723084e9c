package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/overland-robotics/birdview/internal/geometry"
)

func TestLoadBuildsKAndInverse(t *testing.T) {
	m, err := Load(Intrinsics{Fx: 600, Fy: 580, Cx: 320, Cy: 240})
	require.NoError(t, err)

	k := m.K()
	assert.Equal(t, 600.0, k.At(0, 0))
	assert.Equal(t, 580.0, k.At(1, 1))
	assert.Equal(t, 320.0, k.At(0, 2))
	assert.Equal(t, 240.0, k.At(1, 2))
	assert.Equal(t, 0.0, k.At(0, 1))
	assert.Equal(t, 1.0, k.At(2, 2))

	var prod mat.Dense
	prod.Mul(k, m.KInverse())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, prod.At(i, j), 1e-12)
		}
	}
}

func TestLoadRejectsBadIntrinsics(t *testing.T) {
	tests := []struct {
		name string
		in   Intrinsics
	}{
		{"zero fx", Intrinsics{Fx: 0, Fy: 600, Cx: 320, Cy: 240}},
		{"negative fy", Intrinsics{Fx: 600, Fy: -1, Cx: 320, Cy: 240}},
		{"missing cx", Intrinsics{Fx: 600, Fy: 600, Cx: 0, Cy: 240}},
		{"missing cy", Intrinsics{Fx: 600, Fy: 600, Cx: 320, Cy: 0}},
		{"all missing", Intrinsics{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, geometry.ErrConfig)
		})
	}
}
