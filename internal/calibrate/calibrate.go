package calibrate

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/overland-robotics/birdview/internal/camera"
	"github.com/overland-robotics/birdview/internal/geometry"
)

// Result is a calibrated ground-plane homography with its physical
// decomposition. Computed once at startup and treated as immutable,
// shared read-only state afterwards.
type Result struct {
	// H maps centered model-plane coordinates to image pixels.
	H geometry.Homography `yaml:"homography"`
	// RT is the camera pose relative to the calibration plane.
	RT geometry.RigidTransform `yaml:"rigid_transform"`
	// Normal and Distance describe the plane in camera coordinates.
	Normal   geometry.Vec3 `yaml:"plane_normal"`
	Distance float64       `yaml:"plane_distance"`
	// TileWidth is the empirically estimated chessboard tile width in pixels.
	TileWidth float64 `yaml:"tile_width"`
	// Corners are the detected chessboard corners in row-major scan order.
	Corners []geometry.Point `yaml:"corners"`
	// Inliers is the consensus mask from the robust fit, for diagnostics.
	Inliers []bool `yaml:"inliers"`
}

// PatchHomography returns the image-to-patch homography used for BEV
// warping: the inverse of the model-to-image calibration.
func (r *Result) PatchHomography() (geometry.Homography, error) {
	return r.H.Inverse()
}

// Calibrator runs one-time chessboard calibration. The camera model and
// corner detector are injected explicitly; nothing is read from ambient
// state.
type Calibrator struct {
	cam      *camera.Model
	detector CornerDetector
	fitter   *Fitter
}

// NewCalibrator builds a calibrator around the given camera model and
// corner detector.
func NewCalibrator(cam *camera.Model, detector CornerDetector) *Calibrator {
	return &Calibrator{cam: cam, detector: detector, fitter: NewFitter()}
}

// Calibrate detects the chessboard's rows x cols inner corners in img,
// estimates the tile width, fits the model-to-image homography robustly
// and decomposes it into the camera pose and plane terms.
func (c *Calibrator) Calibrate(img image.Image, rows, cols int) (*Result, error) {
	corners, err := c.detector.Detect(img, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("detecting corners: %w", err)
	}
	if len(corners) != rows*cols {
		return nil, fmt.Errorf("detector returned %d corners for a %dx%d grid: %w",
			len(corners), rows, cols, geometry.ErrCalibration)
	}

	tileWidth, err := estimateTileWidth(corners, cols)
	if err != nil {
		return nil, err
	}

	model := geometry.ModelChessboard2D(rows, cols, tileWidth, true)
	h, inliers, err := c.fitter.Fit(model, corners)
	if err != nil {
		return nil, fmt.Errorf("fitting homography: %w", err)
	}

	dec, err := geometry.DecomposeHomography(h, c.cam.K())
	if err != nil {
		return nil, err
	}

	return &Result{
		H:         h,
		RT:        dec.RT,
		Normal:    dec.Normal,
		Distance:  dec.Distance,
		TileWidth: tileWidth,
		Corners:   corners,
		Inliers:   inliers,
	}, nil
}

// estimateTileWidth groups the detected corners into rows by the vertical
// coordinate, sorts each row horizontally and takes the maximum
// consecutive-corner spacing across all rows. Using the largest (least
// foreshortened) spacing keeps the estimate stable under perspective.
func estimateTileWidth(corners []geometry.Point, cols int) (float64, error) {
	if cols < 2 || len(corners) < cols {
		return 0, fmt.Errorf("not enough corners to estimate tile width: %w", geometry.ErrCalibration)
	}

	sorted := append([]geometry.Point(nil), corners...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	distances := make([]float64, 0, len(sorted))
	for start := 0; start+cols <= len(sorted); start += cols {
		row := sorted[start : start+cols]
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
		for i := 0; i < cols-1; i++ {
			distances = append(distances, math.Hypot(row[i+1].X-row[i].X, row[i+1].Y-row[i].Y))
		}
	}

	width, err := stats.Max(distances)
	if err != nil || width <= 0 {
		return 0, fmt.Errorf("degenerate corner spacing: %w", geometry.ErrCalibration)
	}
	return width, nil
}
