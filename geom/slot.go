package geom

import (
	"image"
	"math"
)

// DefaultMinSlotArea is the smallest polygon area in square pixels that is
// promoted to a Slot
const DefaultMinSlotArea = 300.0

// Slot is a candidate parking space found by a detector.  The ID is only
// unique within the detection cycle that produced it.
type Slot struct {
	ID      int
	Polygon []Point
	Center  Point
}

// NewSlot builds a Slot from a closed polygon ring.  It returns false when
// the polygon has fewer than three vertices or its area is below minArea.
// The center is the mean of the polygon vertices.
func NewSlot(id int, polygon []Point, minArea float64) (Slot, bool) {

	if len(polygon) < 3 {
		return Slot{}, false
	}

	if PolygonArea(polygon) < minArea {
		return Slot{}, false
	}

	poly := make([]Point, len(polygon))
	copy(poly, polygon)

	return Slot{
		ID:      id,
		Polygon: poly,
		Center:  Centroid(poly),
	}, true
}

// Contains reports whether the point lies inside the slot polygon or on
// its boundary
func (s Slot) Contains(p Point) bool {
	return PolygonContains(s.Polygon, p)
}

// ImagePoints returns the polygon as integer pixel points for drawing
func (s Slot) ImagePoints() []image.Point {

	pts := make([]image.Point, len(s.Polygon))

	for i, p := range s.Polygon {
		pts[i] = p.Image()
	}

	return pts
}

// Centroid returns the mean of the given vertices
func Centroid(pts []Point) Point {

	if len(pts) == 0 {
		return Point{}
	}

	var c Point

	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}

	n := float64(len(pts))

	return Point{X: c.X / n, Y: c.Y / n}
}

// PolygonArea returns the unsigned area of a closed polygon ring using the
// shoelace formula
func PolygonArea(pts []Point) float64 {

	if len(pts) < 3 {
		return 0
	}

	sum := 0.0

	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}

	return math.Abs(sum) / 2
}

// onSegmentEps is the tolerance used when testing for a point lying on a
// polygon edge
const onSegmentEps = 1e-9

// PolygonContains performs a boundary inclusive point in polygon test
func PolygonContains(pts []Point, p Point) bool {

	n := len(pts)

	if n < 3 {
		return false
	}

	inside := false

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := pts[j]
		b := pts[i]

		if onSegment(a, b, p) {
			return true
		}

		// even-odd crossing of a ray cast towards +x
		if (b.Y > p.Y) != (a.Y > p.Y) {
			x := (a.X-b.X)*(p.Y-b.Y)/(a.Y-b.Y) + b.X

			if p.X < x {
				inside = !inside
			}
		}
	}

	return inside
}

// onSegment reports whether p lies on the segment a-b
func onSegment(a, b, p Point) bool {

	ab := b.Sub(a)
	ap := p.Sub(a)

	if math.Abs(ab.Cross(ap)) > onSegmentEps*math.Max(1, ab.Len()) {
		return false
	}

	return p.X >= math.Min(a.X, b.X)-onSegmentEps &&
		p.X <= math.Max(a.X, b.X)+onSegmentEps &&
		p.Y >= math.Min(a.Y, b.Y)-onSegmentEps &&
		p.Y <= math.Max(a.Y, b.Y)+onSegmentEps
}
