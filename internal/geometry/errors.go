package geometry

import "errors"

// Sentinel errors for the geometry core. Callers wrap these with context via
// fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	// ErrConfig indicates malformed or missing camera intrinsics.
	ErrConfig = errors.New("invalid camera configuration")

	// ErrCalibration indicates the chessboard could not be calibrated
	// (corners not found, or wrong corner count).
	ErrCalibration = errors.New("chessboard calibration failed")

	// ErrDegenerateProjection indicates a homogeneous divide by (near) zero,
	// i.e. a point at infinity or a numerically invalid homography.
	ErrDegenerateProjection = errors.New("degenerate projection")

	// ErrDecomposition indicates a non-finite scale factor or zero plane
	// distance during homography decomposition or synthesis.
	ErrDecomposition = errors.New("homography decomposition failed")

	// ErrSingularMatrix indicates a matrix that cannot be inverted.
	ErrSingularMatrix = errors.New("singular matrix")
)
