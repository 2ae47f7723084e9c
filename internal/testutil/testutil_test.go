package testutil

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overland-robotics/birdview/internal/sampler"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestChessboardDimensions(t *testing.T) {
	img := Chessboard(4, 5, 10)
	assert.Equal(t, 60, img.Rect.Dx())
	assert.Equal(t, 50, img.Rect.Dy())

	// Opposite corners of a tile crossing differ in color.
	assert.NotEqual(t, img.NRGBAAt(5, 5), img.NRGBAAt(15, 5))
}

func TestTrajectoryFramesDiffer(t *testing.T) {
	a := TrajectoryFrame(0, 64, 48)
	b := TrajectoryFrame(1, 64, 48)
	assert.False(t, CompareImages(a, b, 0.001))
	assert.True(t, CompareImages(a, a, 0))
}

func TestWriteTrajectoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	frames := []*image.NRGBA{
		TrajectoryFrame(0, 32, 24),
		TrajectoryFrame(1, 32, 24),
	}
	poses := [][16]float64{
		IdentityPose(0, 0, 0),
		IdentityPose(1.5, 0, 0),
	}
	require.NoError(t, WriteTrajectory(dir, frames, poses))

	src, err := sampler.OpenDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	pose, err := src.PoseAt(1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, pose.Translation()[0])

	img, err := src.ImageAt(0)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestWriteTrajectoryCountMismatch(t *testing.T) {
	err := WriteTrajectory(t.TempDir(), []*image.NRGBA{TrajectoryFrame(0, 8, 8)}, nil)
	assert.Error(t, err)
}
