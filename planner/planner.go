// Package planner builds the two phase parking maneuver, a forward
// approach along the lane followed by a curved reverse into the slot, and
// provides the follower and resampler used to play it back.
package planner

import (
	"math"

	"github.com/swdee/go-autopark/geom"
)

// Params defines the tunables of the maneuver geometry.  The distances are
// in frame pixels and were tuned empirically against 1280x720 footage.
type Params struct {
	// FrameWidth and FrameHeight are the dimensions of the pixel frame all
	// geometry is expressed in
	FrameWidth  float64
	FrameHeight float64
	// ForwardMargin is how far past the projection of the slot center onto
	// the lane the forward approach continues before reversing
	ForwardMargin float64
	// ForwardSteps is the number of samples of the forward approach
	ForwardSteps int
	// ReverseSteps is the total number of samples of the reverse segment,
	// split between the curve and the straight finish by CurveRatio
	ReverseSteps int
	CurveRatio   float64
	// FrontOffset is the distance ahead of the parking pose, along the slot
	// heading, where the reverse curve ends
	FrontOffset float64
	// CurveSideOffset is the lateral shift of the Bezier control point from
	// the chord midpoint
	CurveSideOffset float64
}

// DefaultParams returns the maneuver parameters for a 1280x720 frame
func DefaultParams() Params {
	return Params{
		FrameWidth:      1280,
		FrameHeight:     720,
		ForwardMargin:   120,
		ForwardSteps:    60,
		ReverseSteps:    110,
		CurveRatio:      0.6,
		FrontOffset:     190,
		CurveSideOffset: 80,
	}
}

// InitialPose returns the canonical start pose, bottom center of the frame
// facing up
func (p Params) InitialPose() geom.Pose {
	return geom.Pose{
		X:   p.FrameWidth / 2,
		Y:   float64(int(p.FrameHeight * 0.9)),
		Yaw: -math.Pi / 2,
	}
}

// Planner turns a start pose and a selected slot into a maneuver path
type Planner struct {
	Params Params
}

// New returns a Planner using the given parameters
func New(p Params) *Planner {
	return &Planner{Params: p}
}

// Plan returns the full maneuver from start into the slot.  The geometry is
// only solved for slots on the left half of the frame, slots on the right
// are mirrored across the vertical midline, planned, and mirrored back.
func (pl *Planner) Plan(start geom.Pose, slot geom.Slot) geom.Path {

	w := pl.Params.FrameWidth

	if slot.Center.X <= w/2 {
		return pl.planLeft(start, slot)
	}

	path := pl.planLeft(geom.MirrorPose(start, w), geom.MirrorSlot(slot, w))

	return geom.MirrorPath(path, w)
}

// SlotYaw returns the parking heading for the slot as seen from start, the
// lane heading or one of its right angle rotations closest to the slot's
// principal axis
func (pl *Planner) SlotYaw(start geom.Pose, slot geom.Slot) float64 {
	return Snap(start.Yaw, RawOrientation(start, slot))
}

// RawOrientation estimates the slot orientation from the principal axis of
// its polygon.  The axis is oriented to point from the slot center towards
// the start position, when that is ambiguous the lane heading is used.
func RawOrientation(start geom.Pose, slot geom.Slot) float64 {

	axis, ok := geom.PrincipalAxis(slot.Polygon)

	if !ok {
		return geom.NormalizeAngle(start.Yaw)
	}

	toStart := start.Pos().Sub(slot.Center)

	if axis.Dot(toStart) < 0 {
		axis = axis.Scale(-1)
	}

	return geom.NormalizeAngle(math.Atan2(axis.Y, axis.X))
}

// SnapCandidates returns the lane heading and its +/-90 degree rotations
func SnapCandidates(laneYaw float64) [3]float64 {
	return [3]float64{
		geom.NormalizeAngle(laneYaw),
		geom.NormalizeAngle(laneYaw + math.Pi/2),
		geom.NormalizeAngle(laneYaw - math.Pi/2),
	}
}

// Snap returns the candidate heading with the smallest shortest-arc
// distance to raw.  Ties keep the earlier candidate.
func Snap(laneYaw, raw float64) float64 {

	cands := SnapCandidates(laneYaw)
	best := cands[0]
	bestDiff := math.Abs(geom.AngleDiff(raw, best))

	for _, c := range cands[1:] {
		if d := math.Abs(geom.AngleDiff(raw, c)); d < bestDiff {
			best = c
			bestDiff = d
		}
	}

	return best
}

// planLeft solves the maneuver for a slot on the left half of the frame
func (pl *Planner) planLeft(start geom.Pose, slot geom.Slot) geom.Path {

	laneYaw := start.Yaw
	laneDir := start.Heading()
	slotYaw := pl.SlotYaw(start, slot)

	park := geom.Pose{
		X:       slot.Center.X,
		Y:       slot.Center.Y,
		Yaw:     slotYaw,
		Reverse: true,
	}

	// forward set-up point along the lane past the slot
	proj := slot.Center.Sub(start.Pos()).Dot(laneDir)

	if proj < 0 {
		proj = 0
	}

	setupPos := start.Pos().Add(laneDir.Scale(proj + pl.Params.ForwardMargin))
	setup := geom.Pose{X: setupPos.X, Y: setupPos.Y, Yaw: laneYaw}

	path := Straight(start, setup, pl.Params.ForwardSteps)
	path = append(path, pl.reverse(setup, park, slot.Center)...)

	return path
}

// reverse builds the quadratic Bezier curve from the set-up pose to a
// point in front of the stall, followed by a straight run into the parking
// pose
func (pl *Planner) reverse(setup, park geom.Pose, center geom.Point) geom.Path {

	total := pl.Params.ReverseSteps
	curveSteps := int(float64(total) * pl.Params.CurveRatio)

	if curveSteps < 2 {
		curveSteps = 2
	}

	straightSteps := total - curveSteps

	if straightSteps < 1 {
		straightSteps = 1
	}

	mid := park.Pos().Add(park.Heading().Scale(pl.Params.FrontOffset))
	p0 := setup.Pos()

	base := mid.Sub(p0)
	baseLen := base.Len()

	if baseLen < 1e-5 {
		base = geom.Pt(1, 0)
		baseLen = 1
	}

	dir := base.Scale(1 / baseLen)
	cross := dir.Cross(center.Sub(p0))
	leftNormal := geom.Pt(-dir.Y, dir.X)

	shift := leftNormal.Scale(pl.Params.CurveSideOffset)

	if cross >= 0 {
		shift = shift.Scale(-1)
	}

	ctrl := p0.Lerp(mid, 0.5).Add(shift)

	path := make(geom.Path, 0, curveSteps+straightSteps)

	for i := 0; i < curveSteps; i++ {
		t := float64(i) / float64(curveSteps-1)
		pos := QuadBezier(p0, ctrl, mid, t)

		path = append(path, geom.Pose{
			X:       pos.X,
			Y:       pos.Y,
			Yaw:     geom.SmoothYaw(setup.Yaw, park.Yaw, t),
			Reverse: true,
		})
	}

	last := path[len(path)-1].Pos()

	for i := 1; i <= straightSteps; i++ {
		t := float64(i) / float64(straightSteps)
		pos := last.Lerp(park.Pos(), t)

		path = append(path, geom.Pose{
			X:       pos.X,
			Y:       pos.Y,
			Yaw:     park.Yaw,
			Reverse: true,
		})
	}

	return path
}

// QuadBezier evaluates the quadratic Bezier curve p0,p1,p2 at t
func QuadBezier(p0, p1, p2 geom.Point, t float64) geom.Point {

	u := 1 - t

	return p0.Scale(u * u).Add(p1.Scale(2 * u * t)).Add(p2.Scale(t * t))
}

// Straight returns steps forward-gear poses linearly interpolated from p0
// to p1 holding the heading of p0.  At least two poses are produced.
func Straight(p0, p1 geom.Pose, steps int) geom.Path {

	if steps < 2 {
		steps = 2
	}

	path := make(geom.Path, steps)

	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		pos := p0.Pos().Lerp(p1.Pos(), t)

		path[i] = geom.Pose{X: pos.X, Y: pos.Y, Yaw: p0.Yaw}
	}

	return path
}
