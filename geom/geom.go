// Package geom holds the pose, slot and path primitives shared by the
// planner, trackers and renderers.  All coordinates are in the pixel frame
// of the front camera.
package geom

import (
	"image"
	"math"
)

// Point is a 2-D position in frame pixel coordinates
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Dot returns the dot product of p and q
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the 2-D cross product p x q
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Len returns the euclidean length of p
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist2 returns the squared distance between p and q
func (p Point) Dist2(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Lerp interpolates between p and q, t=0 gives p and t=1 gives q
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X*(1-t) + q.X*t,
		Y: p.Y*(1-t) + q.Y*t,
	}
}

// Image truncates the point to integer pixel coordinates for drawing
func (p Point) Image() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Pose is the position and heading of the virtual vehicle.  Yaw is in
// radians in the image frame, so -Pi/2 faces the top of the frame.
type Pose struct {
	X, Y float64
	Yaw  float64
	// Reverse marks the pose as driven in reverse gear, it only affects
	// how the vehicle is drawn
	Reverse bool
}

// Pos returns the position of the pose
func (p Pose) Pos() Point {
	return Point{X: p.X, Y: p.Y}
}

// Heading returns the unit vector the pose is facing
func (p Pose) Heading() Point {
	return Point{X: math.Cos(p.Yaw), Y: math.Sin(p.Yaw)}
}

// Path is an ordered sequence of poses.  Paths are never modified once
// built, replanning produces a new Path.
type Path []Pose

// Last returns the final pose of the path
func (p Path) Last() (Pose, bool) {

	if len(p) == 0 {
		return Pose{}, false
	}

	return p[len(p)-1], true
}

// Points returns the positions of every pose in the path
func (p Path) Points() []Point {

	pts := make([]Point, len(p))

	for i, pose := range p {
		pts[i] = pose.Pos()
	}

	return pts
}

// Filter returns a new path holding the poses matching the given gear
func (p Path) Filter(reverse bool) Path {

	out := make(Path, 0, len(p))

	for _, pose := range p {
		if pose.Reverse == reverse {
			out = append(out, pose)
		}
	}

	return out
}
