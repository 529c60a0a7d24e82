package planner

import (
	"math"

	"github.com/swdee/go-autopark/geom"
)

// Resample re-times path onto n samples by index space linear
// interpolation of position and a shortest-arc blend of yaw, so that the
// playback of the path completes in exactly n ticks.  Every returned pose
// is marked as reverse gear.
//
// An empty path gives an empty result.  When n <= 1 a single pose equal to
// the last pose of path is returned, a single pose path is repeated n times.
func Resample(path geom.Path, n int) geom.Path {

	if len(path) == 0 {
		return geom.Path{}
	}

	last := path[len(path)-1]
	last.Reverse = true

	if n <= 1 {
		return geom.Path{last}
	}

	out := make(geom.Path, n)

	if len(path) == 1 {
		for i := range out {
			out[i] = last
		}

		return out
	}

	span := float64(len(path) - 1)

	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1) * span
		i0 := int(math.Floor(f))

		if i0 > len(path)-1 {
			i0 = len(path) - 1
		}

		i1 := i0 + 1

		if i1 > len(path)-1 {
			i1 = len(path) - 1
		}

		alpha := f - float64(i0)
		p0 := path[i0]
		p1 := path[i1]

		pos := p0.Pos().Lerp(p1.Pos(), alpha)

		out[i] = geom.Pose{
			X:       pos.X,
			Y:       pos.Y,
			Yaw:     geom.SmoothYaw(p0.Yaw, p1.Yaw, alpha),
			Reverse: true,
		}
	}

	return out
}
