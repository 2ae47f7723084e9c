package sampler

import (
	"encoding/csv"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/overland-robotics/birdview/internal/geometry"
)

// FrameSource supplies synchronized camera frames and vehicle poses for a
// recorded trajectory, indexed by timestep.
type FrameSource interface {
	// Len returns the number of timesteps available.
	Len() int
	// ImageAt returns the camera frame recorded at timestep t.
	ImageAt(t int) (image.Image, error)
	// PoseAt returns the vehicle pose recorded at timestep t.
	PoseAt(t int) (geometry.RigidTransform, error)
}

// DirSource reads a trajectory from a directory: one image file per
// timestep plus a poses.csv whose row i is the row-major 4x4 pose of
// timestep i (16 values, or 12 for a 3x4 pose with the homogeneous row
// implied). Images are decoded lazily; poses are loaded up front.
type DirSource struct {
	paths []string
	poses []geometry.RigidTransform
}

// PosesFileName is the pose file expected inside a trajectory directory.
const PosesFileName = "poses.csv"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// OpenDir opens a trajectory directory. Image files are ordered by name,
// so zero-padded frame numbering keeps them in recording order.
func OpenDir(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading trajectory directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no image files in %s", geometry.ErrConfig, dir)
	}

	poses, err := loadPoses(filepath.Join(dir, PosesFileName))
	if err != nil {
		return nil, err
	}
	if len(poses) != len(paths) {
		return nil, fmt.Errorf("%w: %d poses for %d frames in %s",
			geometry.ErrConfig, len(poses), len(paths), dir)
	}

	return &DirSource{paths: paths, poses: poses}, nil
}

func loadPoses(path string) ([]geometry.RigidTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pose file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing pose file %s: %w", path, err)
	}

	poses := make([]geometry.RigidTransform, 0, len(records))
	for i, record := range records {
		rt, err := parsePoseRow(record)
		if err != nil {
			return nil, fmt.Errorf("pose file %s row %d: %w", path, i, err)
		}
		poses = append(poses, rt)
	}
	return poses, nil
}

func parsePoseRow(fields []string) (geometry.RigidTransform, error) {
	var rt geometry.RigidTransform
	if len(fields) != 16 && len(fields) != 12 {
		return rt, fmt.Errorf("%w: expected 12 or 16 values, got %d",
			geometry.ErrConfig, len(fields))
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return rt, fmt.Errorf("%w: value %d: %v", geometry.ErrConfig, i, err)
		}
		values[i] = v
	}
	copy(rt[:], values)
	if len(values) == 12 {
		rt[12], rt[13], rt[14], rt[15] = 0, 0, 0, 1
	}
	return rt, nil
}

// Len returns the number of timesteps in the trajectory.
func (s *DirSource) Len() int { return len(s.paths) }

// ImageAt decodes and returns the frame at timestep t.
func (s *DirSource) ImageAt(t int) (image.Image, error) {
	if t < 0 || t >= len(s.paths) {
		return nil, fmt.Errorf("%w: timestep %d out of range [0,%d)",
			geometry.ErrConfig, t, len(s.paths))
	}
	img, err := imaging.Open(s.paths[t])
	if err != nil {
		return nil, fmt.Errorf("decoding frame %d (%s): %w", t, s.paths[t], err)
	}
	return img, nil
}

// PoseAt returns the pose at timestep t.
func (s *DirSource) PoseAt(t int) (geometry.RigidTransform, error) {
	if t < 0 || t >= len(s.poses) {
		return geometry.RigidTransform{}, fmt.Errorf("%w: timestep %d out of range [0,%d)",
			geometry.ErrConfig, t, len(s.poses))
	}
	return s.poses[t], nil
}
