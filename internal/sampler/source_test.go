package sampler

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overland-robotics/birdview/internal/geometry"
)

func writeTrajectory(t *testing.T, frames int, poseRows []string) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < frames; i++ {
		img := imaging.New(4, 4, color.NRGBA{R: uint8(10 * i), A: 255})
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", i))
		require.NoError(t, imaging.Save(img, path))
	}
	if poseRows != nil {
		var data []byte
		for _, row := range poseRows {
			data = append(data, row...)
			data = append(data, '\n')
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, PosesFileName), data, 0o644))
	}
	return dir
}

func identityPoseRow() string {
	return "1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1"
}

func TestOpenDirReadsFramesAndPoses(t *testing.T) {
	rows := []string{
		identityPoseRow(),
		"1,0,0,2.5,0,1,0,-1,0,0,1,0,0,0,0,1",
		identityPoseRow(),
	}
	dir := writeTrajectory(t, 3, rows)

	src, err := OpenDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())

	pose, err := src.PoseAt(1)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{2.5, -1, 0}, pose.Translation())

	img, err := src.ImageAt(2)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestOpenDirAcceptsTwelveValuePoses(t *testing.T) {
	dir := writeTrajectory(t, 1, []string{"1,0,0,3,0,1,0,4,0,0,1,5"})

	src, err := OpenDir(dir)
	require.NoError(t, err)

	pose, err := src.PoseAt(0)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{3, 4, 5}, pose.Translation())
	assert.Equal(t, 1.0, pose[15])
}

func TestOpenDirPoseCountMismatch(t *testing.T) {
	dir := writeTrajectory(t, 3, []string{identityPoseRow(), identityPoseRow()})

	_, err := OpenDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrConfig)
}

func TestOpenDirRejectsMalformedPoseRow(t *testing.T) {
	dir := writeTrajectory(t, 1, []string{"1,2,3"})
	_, err := OpenDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrConfig)
}

func TestOpenDirEmpty(t *testing.T) {
	_, err := OpenDir(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrConfig)
}

func TestDirSourceIndexBounds(t *testing.T) {
	dir := writeTrajectory(t, 1, []string{identityPoseRow()})
	src, err := OpenDir(dir)
	require.NoError(t, err)

	_, err = src.ImageAt(-1)
	assert.ErrorIs(t, err, geometry.ErrConfig)
	_, err = src.ImageAt(1)
	assert.ErrorIs(t, err, geometry.ErrConfig)
	_, err = src.PoseAt(5)
	assert.ErrorIs(t, err, geometry.ErrConfig)
}
