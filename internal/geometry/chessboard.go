package geometry

// ModelChessboard2D generates the idealized frontal-parallel chessboard
// corner grid: rows*cols points in row-major order, left to right within a
// row, spaced tileWidth apart. That scan order matches the corner
// detector's, so model and detected corners correspond index for index.
//
// With centerAtZero the grid is laid out so the mean of all points is the
// origin; otherwise the first corner anchors at (0, 0).
func ModelChessboard2D(rows, cols int, tileWidth float64, centerAtZero bool) []Point {
	pts := make([]Point, 0, rows*cols)
	midRow := float64(rows) / 2
	midCol := float64(cols) / 2
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if centerAtZero {
				pts = append(pts, Point{
					X: ((float64(col) + 0.5) - midCol) * tileWidth,
					Y: ((float64(row) + 0.5) - midRow) * tileWidth,
				})
			} else {
				pts = append(pts, Point{
					X: float64(col) * tileWidth,
					Y: float64(row) * tileWidth,
				})
			}
		}
	}
	return pts
}

// ModelPoint3D is a homogeneous 3D point on the chessboard plane (z = 0).
type ModelPoint3D [4]float64

// ModelChessboard3D generates the same grid as ModelChessboard2D lifted
// onto the z=0 plane in homogeneous coordinates, for projection through
// K * RT.
func ModelChessboard3D(rows, cols int, tileWidth float64, centerAtZero bool) []ModelPoint3D {
	pts2d := ModelChessboard2D(rows, cols, tileWidth, centerAtZero)
	pts := make([]ModelPoint3D, len(pts2d))
	for i, p := range pts2d {
		pts[i] = ModelPoint3D{p.X, p.Y, 0, 1}
	}
	return pts
}
