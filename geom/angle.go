package geom

import "math"

// NormalizeAngle wraps an angle in radians into the range (-Pi, Pi]
func NormalizeAngle(a float64) float64 {

	a = math.Mod(a+math.Pi, 2*math.Pi)

	if a <= 0 {
		a += 2 * math.Pi
	}

	return a - math.Pi
}

// AngleDiff returns the shortest signed angle taking b to a
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// SmoothYaw blends yaw y0 towards y1 along the shortest arc using a
// smoothstep weighting of t, so the heading rate is zero at both ends
func SmoothYaw(y0, y1, t float64) float64 {

	if t <= 0 {
		return y0
	}

	if t >= 1 {
		t = 1
	}

	t2 := t * t * (3 - 2*t)

	return NormalizeAngle(y0 + AngleDiff(y1, y0)*t2)
}
