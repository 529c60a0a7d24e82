package planner

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-autopark/geom"
)

func rectSlot(t *testing.T, cx, cy, w, h float64) geom.Slot {

	t.Helper()

	s, ok := geom.NewSlot(1, []geom.Point{
		{X: cx - w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy + h/2},
		{X: cx - w/2, Y: cy + h/2},
	}, geom.DefaultMinSlotArea)

	require.True(t, ok)

	return s
}

func angleIn(yaw float64, set ...float64) bool {

	for _, s := range set {
		if math.Abs(geom.AngleDiff(yaw, s)) < 1e-6 {
			return true
		}
	}

	return false
}

func TestInitialPose(t *testing.T) {

	p := DefaultParams().InitialPose()

	assert.Equal(t, geom.Pose{X: 640, Y: 648, Yaw: -math.Pi / 2}, p)
}

func TestPlanEndToEndRightSideSlot(t *testing.T) {

	pl := New(DefaultParams())
	start := geom.Pose{X: 640, Y: 648, Yaw: -math.Pi / 2}
	slot := rectSlot(t, 800, 400, 100, 60)

	path := pl.Plan(start, slot)
	require.NotEmpty(t, path)

	p := DefaultParams()
	assert.Len(t, path, p.ForwardSteps+p.ReverseSteps)

	first := path[0]
	assert.InDelta(t, 640, first.X, 1e-9)
	assert.InDelta(t, 648, first.Y, 1e-9)
	assert.False(t, first.Reverse)

	last, _ := path.Last()
	assert.InDelta(t, 800, last.X, 1e-9)
	assert.InDelta(t, 400, last.Y, 1e-9)
	assert.True(t, last.Reverse)
	assert.True(t, angleIn(last.Yaw, -math.Pi/2, 0, math.Pi), "final yaw %f", last.Yaw)

	// the long side of the stall is horizontal, the car noses out towards
	// the lane so it ends facing left
	assert.InDelta(t, math.Pi, math.Abs(last.Yaw), 1e-9)
}

func TestPlanForwardSegment(t *testing.T) {

	pl := New(DefaultParams())
	start := pl.Params.InitialPose()
	slot := rectSlot(t, 300, 350, 100, 60)

	path := pl.Plan(start, slot)
	fwd := path.Filter(false)
	require.Len(t, fwd, pl.Params.ForwardSteps)

	for _, p := range fwd {
		assert.InDelta(t, start.Yaw, p.Yaw, 1e-12)
		assert.InDelta(t, start.X, p.X, 1e-9)
	}

	// projection of the slot center on the lane plus the margin
	setup := fwd[len(fwd)-1]
	assert.InDelta(t, start.Y-(start.Y-350)-pl.Params.ForwardMargin, setup.Y, 1e-9)
}

func TestPlanClampsNegativeProjection(t *testing.T) {

	pl := New(DefaultParams())
	start := pl.Params.InitialPose()

	// slot behind the car along the lane
	slot := rectSlot(t, 200, 700, 100, 60)
	path := pl.Plan(start, slot)

	setup := path.Filter(false)[pl.Params.ForwardSteps-1]
	assert.InDelta(t, start.Y-pl.Params.ForwardMargin, setup.Y, 1e-9)
}

func TestPlanEndsAtSlotForManySlots(t *testing.T) {

	pl := New(DefaultParams())
	start := pl.Params.InitialPose()

	for _, c := range []geom.Point{
		{X: 100, Y: 100}, {X: 640, Y: 360}, {X: 641, Y: 360},
		{X: 1200, Y: 80}, {X: 900, Y: 650}, {X: 320, Y: 500},
	} {
		for _, size := range [][2]float64{{100, 60}, {40, 120}, {80, 80}} {
			slot := rectSlot(t, c.X, c.Y, size[0], size[1])
			path := pl.Plan(start, slot)

			require.NotEmpty(t, path)

			last, _ := path.Last()
			assert.InDelta(t, c.X, last.X, 1e-6)
			assert.InDelta(t, c.Y, last.Y, 1e-6)
			cands := SnapCandidates(start.Yaw)
			assert.True(t, angleIn(last.Yaw, cands[:]...))

			for _, p := range path {
				assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Yaw))
			}
		}
	}
}

func TestPlanMirrorSymmetry(t *testing.T) {

	pl := New(DefaultParams())
	start := pl.Params.InitialPose()
	w := pl.Params.FrameWidth

	left := rectSlot(t, 400, 380, 100, 60)
	right := geom.MirrorSlot(left, w)

	pathL := pl.Plan(start, left)
	pathR := pl.Plan(start, right)

	if diff := cmp.Diff(pathL, geom.MirrorPath(pathR, w), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("mirrored slot did not give a mirrored path (-want +got):\n%s", diff)
	}
}

func TestSnapReturnsClosestCandidate(t *testing.T) {

	lanes := []float64{-math.Pi / 2, 0, 0.3, math.Pi, -2.5}

	for _, lane := range lanes {
		cands := SnapCandidates(lane)

		for raw := -math.Pi; raw <= math.Pi; raw += 0.05 {
			got := Snap(lane, raw)

			require.True(t, angleIn(got, cands[:]...), "snap %f not a candidate", got)

			d := math.Abs(geom.AngleDiff(raw, got))

			for _, c := range cands {
				assert.LessOrEqual(t, d, math.Abs(geom.AngleDiff(raw, c))+1e-12)
			}
		}
	}
}

func TestRawOrientationPointsToStart(t *testing.T) {

	start := geom.Pose{X: 640, Y: 648, Yaw: -math.Pi / 2}

	left := rectSlot(t, 300, 400, 100, 60)
	assert.InDelta(t, 0, RawOrientation(start, left), 1e-9)

	right := rectSlot(t, 1000, 400, 100, 60)
	assert.InDelta(t, math.Pi, math.Abs(RawOrientation(start, right)), 1e-9)
}

func TestReverseDegenerateChord(t *testing.T) {

	p := DefaultParams()
	p.FrontOffset = 0
	pl := New(p)

	setup := geom.Pose{X: 300, Y: 300, Yaw: -math.Pi / 2}
	park := geom.Pose{X: 300, Y: 300, Yaw: 0, Reverse: true}

	path := pl.reverse(setup, park, geom.Pt(300, 300))
	require.Len(t, path, p.ReverseSteps)

	for _, pose := range path {
		assert.False(t, math.IsNaN(pose.X) || math.IsNaN(pose.Y))
	}
}

func TestStraight(t *testing.T) {

	p0 := geom.Pose{X: 0, Y: 100, Yaw: 1}
	p1 := geom.Pose{X: 0, Y: 0, Yaw: 2}

	path := Straight(p0, p1, 5)
	require.Len(t, path, 5)
	assert.Equal(t, geom.Pose{X: 0, Y: 100, Yaw: 1}, path[0])
	assert.Equal(t, geom.Pose{X: 0, Y: 50, Yaw: 1}, path[2])
	assert.Equal(t, geom.Pose{X: 0, Y: 0, Yaw: 1}, path[4])

	assert.Len(t, Straight(p0, p1, 1), 2)
}

func TestRearGuide(t *testing.T) {

	start := geom.Pt(640, 720)
	end := geom.Pt(400, 300)

	pts := RearGuide(start, end, 60)
	require.Len(t, pts, 60)
	assert.Equal(t, start, pts[0])
	assert.InDelta(t, end.X, pts[59].X, 1e-9)
	assert.InDelta(t, end.Y, pts[59].Y, 1e-9)

	// leaves the start heading straight up
	assert.InDelta(t, start.X, pts[1].X, 1)
	assert.Less(t, pts[1].Y, start.Y)
}
