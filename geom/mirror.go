package geom

import "math"

// MirrorPose reflects a pose across the vertical line x = width/2.  Applying
// it twice returns the original pose.
func MirrorPose(p Pose, width float64) Pose {
	return Pose{
		X:       width - p.X,
		Y:       p.Y,
		Yaw:     NormalizeAngle(math.Pi - p.Yaw),
		Reverse: p.Reverse,
	}
}

// MirrorSlot reflects a slot polygon and its center across the vertical
// line x = width/2
func MirrorSlot(s Slot, width float64) Slot {

	poly := make([]Point, len(s.Polygon))

	for i, p := range s.Polygon {
		poly[i] = Point{X: width - p.X, Y: p.Y}
	}

	return Slot{
		ID:      s.ID,
		Polygon: poly,
		Center:  Point{X: width - s.Center.X, Y: s.Center.Y},
	}
}

// MirrorPath reflects every pose of a path, returning a new path
func MirrorPath(path Path, width float64) Path {

	out := make(Path, len(path))

	for i, p := range path {
		out[i] = MirrorPose(p, width)
	}

	return out
}
