package planner

import (
	"math"

	"github.com/swdee/go-autopark/geom"
)

// RearGuide samples n points of the cubic Bezier guide line drawn on the
// rear camera view from the bottom of the frame to the tracked slot.  Both
// control points are pulled towards the top of the frame so the line
// leaves the bumper heading straight back before bending into the slot.
func RearGuide(start, end geom.Point, n int) []geom.Point {

	if n < 2 {
		n = 2
	}

	base := math.Max(140, math.Abs(end.Y-start.Y)*0.8)

	p1 := start.Add(geom.Pt(0, -base))
	p2 := start.Lerp(end, 0.5).Add(geom.Pt(0, -base*0.35))

	pts := make([]geom.Point, n)

	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		pts[i] = CubicBezier(start, p1, p2, end, t)
	}

	return pts
}

// CubicBezier evaluates the cubic Bezier curve p0..p3 at t
func CubicBezier(p0, p1, p2, p3 geom.Point, t float64) geom.Point {

	u := 1 - t

	return p0.Scale(u * u * u).
		Add(p1.Scale(3 * u * u * t)).
		Add(p2.Scale(3 * u * t * t)).
		Add(p3.Scale(t * t * t))
}
