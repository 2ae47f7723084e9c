package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// wEpsilon is the machine epsilon for float64, used to reject homogeneous
// points whose w component is numerically zero.
const wEpsilon = 2.220446049250313e-16

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Overlaps reports whether b and o overlap on both axes. Boxes that merely
// touch at an edge or corner count as overlapping: the test uses non-strict
// inequality on both axes.
func (b Box) Overlaps(o Box) bool {
	return !(b.MaxX < o.MinX || o.MaxX < b.MinX ||
		b.MaxY < o.MinY || o.MaxY < b.MinY)
}

// BoundingBox returns the axis-aligned bounding box of pts. The zero Box is
// returned for an empty slice.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	box := Box{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		box.MinX = math.Min(box.MinX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return box
}

// ToHomogeneous lifts cartesian points into homogeneous coordinates as a
// 3xN column matrix (x, y, 1 per column), ready to be multiplied by a 3x3
// homography.
func ToHomogeneous(pts []Point) *mat.Dense {
	m := mat.NewDense(3, len(pts), nil)
	for i, p := range pts {
		m.Set(0, i, p.X)
		m.Set(1, i, p.Y)
		m.Set(2, i, 1)
	}
	return m
}

// ToCartesian projects a 3xN homogeneous column matrix back to cartesian
// points by dividing through by the w row. Points whose w is within machine
// epsilon of zero yield ErrDegenerateProjection.
func ToCartesian(m mat.Matrix) ([]Point, error) {
	rows, cols := m.Dims()
	if rows != 3 {
		return nil, fmt.Errorf("expected 3xN homogeneous matrix, got %dx%d: %w", rows, cols, ErrDegenerateProjection)
	}
	pts := make([]Point, cols)
	for i := 0; i < cols; i++ {
		w := m.At(2, i)
		if math.Abs(w) < wEpsilon {
			return nil, fmt.Errorf("point %d has w=%g: %w", i, w, ErrDegenerateProjection)
		}
		pts[i] = Point{X: m.At(0, i) / w, Y: m.At(1, i) / w}
	}
	return pts, nil
}
