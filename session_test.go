package autopark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-autopark/detect"
	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/video"
	"gocv.io/x/gocv"
)

// scriptedDetector returns the slots produced by fn for each call
type scriptedDetector struct {
	calls int
	fn    func(call int) ([]geom.Slot, error)
}

func (d *scriptedDetector) Detect(img gocv.Mat) ([]geom.Slot, error) {
	d.calls++
	return d.fn(d.calls)
}

// memRecorder keeps recorded events in memory
type memRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *memRecorder) Record(kind, phase, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%s:%s:%s", kind, phase, detail))
}

func testSlot(id int, cx, cy float64) geom.Slot {

	s, ok := geom.NewSlot(id, []geom.Point{
		{X: cx - 50, Y: cy - 30}, {X: cx + 50, Y: cy - 30},
		{X: cx + 50, Y: cy + 30}, {X: cx - 50, Y: cy + 30},
	}, geom.DefaultMinSlotArea)

	if !ok {
		panic("invalid test slot")
	}

	return s
}

func newTestSession(t *testing.T, front, rear, third int, det detect.Detector,
	rec Recorder) *Session {

	t.Helper()

	opts := DefaultOptions()
	opts.DetectEvery = 1
	opts.TickInterval = time.Millisecond

	w, h := int(opts.Planner.FrameWidth), int(opts.Planner.FrameHeight)

	s := NewSession(opts, Config{
		Front:    video.NewBlank(w, h, front),
		Rear:     video.NewBlank(w, h, rear),
		Third:    video.NewBlank(w, h, third),
		Detector: det,
		Recorder: rec,
	})

	t.Cleanup(func() { s.Close() })

	return s
}

// tickUntil ticks the session until the phase is reached
func tickUntil(t *testing.T, s *Session, p Phase, limit int) {

	t.Helper()

	for i := 0; i < limit; i++ {
		if s.Status().Phase == p {
			return
		}
		s.tick()
	}

	require.Equal(t, p, s.Status().Phase, "phase not reached after %d ticks", limit)
}

func TestMailboxCoalesces(t *testing.T) {

	var m mailbox

	m.put(command{kind: cmdClick, x: 1, y: 1})
	m.put(command{kind: cmdStart})
	m.put(command{kind: cmdClick, x: 2, y: 2})
	m.put(command{kind: cmdReset})

	cmds := m.drain()
	require.Len(t, cmds, 3)

	assert.Equal(t, cmdStart, cmds[0].kind)
	assert.Equal(t, cmdClick, cmds[1].kind)
	assert.Equal(t, 2, cmds[1].x)
	assert.Equal(t, cmdReset, cmds[2].kind)

	assert.Empty(t, m.drain())
}

func TestPhaseStrings(t *testing.T) {

	assert.Equal(t, "FROZEN_PREVIEW", PhaseFrozenPreview.String())
	assert.Equal(t, "READY - Press START", PhaseReady.modeText())
	assert.True(t, PhaseBackMode.Rear())
	assert.True(t, PhaseBackMode.Frozen())
	assert.False(t, PhaseRearTracking.Frozen())
}

func TestReadyRendersFirstFrame(t *testing.T) {

	s := newTestSession(t, 5, 0, 0, nil, nil)

	assert.Nil(t, s.FrontJPEG())

	s.tick()
	s.tick()

	st := s.Status()
	assert.Equal(t, PhaseReady, st.Phase)
	// only the first frame is read while waiting for start
	assert.Equal(t, 1, st.FrameIndex)

	front := s.FrontJPEG()
	require.NotEmpty(t, front)
	assert.Equal(t, []byte{0xFF, 0xD8}, front[:2])
	assert.NotEmpty(t, s.BirdsEyeJPEG())

	// clicks are acknowledged but dropped while waiting for start
	require.NoError(t, s.Click(640, 600))
	s.tick()

	st = s.Status()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.False(t, st.HasSelection)
	assert.Zero(t, st.PathLen)
}

func TestStartOnlyInReady(t *testing.T) {

	s := newTestSession(t, 5, 0, 0, nil, nil)

	require.NoError(t, s.Start())
	s.tick()

	assert.Equal(t, PhaseSearch, s.Status().Phase)
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

func TestConfirmWithoutPathFails(t *testing.T) {

	s := newTestSession(t, 10, 0, 0, nil, nil)

	_, err := s.Confirm()
	assert.ErrorIs(t, err, ErrNoPath)
	assert.Equal(t, PhaseReady, s.Status().Phase)

	require.NoError(t, s.Start())
	s.tick()

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrNoPath)

	s.tick()
	assert.Equal(t, PhaseSearch, s.Status().Phase)
}

func TestClickMissClearsSelection(t *testing.T) {

	s := newTestSession(t, 50, 0, 0, nil, nil)

	require.NoError(t, s.Start())
	s.tick()
	s.tick()

	// slot 2 of the fixed layout is centered at 384,396
	require.NoError(t, s.Click(384, 396))
	s.tick()

	st := s.Status()
	require.Equal(t, PhaseFrozenPreview, st.Phase)
	assert.True(t, st.HasSelection)
	assert.Equal(t, 2, st.SelectedID)
	assert.Positive(t, st.PathLen)

	require.NoError(t, s.Click(5, 5))
	s.tick()

	st = s.Status()
	assert.False(t, st.HasSelection)
	assert.Equal(t, PhaseFrozenPreview, st.Phase)
}

func TestFrozenPreviewHoldsFrame(t *testing.T) {

	s := newTestSession(t, 50, 0, 0, nil, nil)

	require.NoError(t, s.Start())
	s.tick()
	require.NoError(t, s.Click(384, 396))
	s.tick()

	index := s.Status().FrameIndex

	for i := 0; i < 5; i++ {
		s.tick()
	}

	assert.Equal(t, index, s.Status().FrameIndex)
	assert.Equal(t, PhaseFrozenPreview, s.Status().Phase)
}

func TestFullManeuver(t *testing.T) {

	rec := &memRecorder{}
	s := newTestSession(t, 20, 5, 3, nil, rec)

	s.tick()
	require.NoError(t, s.Start())
	s.tick()

	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseFrozenPreview, s.Status().Phase)

	goal, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(640, 298), goal)

	s.tick()
	require.Equal(t, PhaseConfirmed, s.Status().Phase)

	// 18 front frames remained at confirmation
	assert.Len(t, s.goPath, 16)
	// a click while driving forward is acknowledged and dropped
	goLen := len(s.goPath)
	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseConfirmed, s.Status().Phase)
	assert.Len(t, s.goPath, goLen)

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrNotConfirmable)

	tickUntil(t, s, PhaseBackMode, 30)

	st := s.Status()
	assert.Equal(t, video.StageRear, st.Stage)
	assert.Len(t, s.reversePath, 8)
	assert.Equal(t, s.goPath[len(s.goPath)-1], s.carPose)

	for _, p := range s.reversePath {
		assert.True(t, p.Reverse)
	}

	// held on the first rear frame
	s.tick()
	assert.Equal(t, 1, s.Status().FrameIndex)

	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseRearTracking, s.Status().Phase)

	_, ok := s.continuity.Anchor()
	assert.True(t, ok)

	for i := 0; i < 20; i++ {
		s.tick()
	}

	st = s.Status()
	assert.Equal(t, video.StageThird, st.Stage)
	assert.Equal(t, PhaseRearTracking, st.Phase)
	assert.Equal(t, len(s.reversePath)-1, s.reverseIdx)

	require.NoError(t, s.Reset())
	s.tick()

	st = s.Status()
	assert.Equal(t, PhaseSearch, st.Phase)
	assert.Zero(t, st.PathLen)
	assert.False(t, st.HasSelection)
	assert.Equal(t, s.opts.Planner.InitialPose(), s.carPose)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	assert.Contains(t, rec.events, "phase:CONFIRMED:")
	assert.Contains(t, rec.events, "phase:BACK_MODE:")
	assert.Contains(t, rec.events, "command:SEARCH:click 384,396")
}

func TestManeuverAfterResetOnPlayedFeeds(t *testing.T) {

	rec := &memRecorder{}
	s := newTestSession(t, 20, 5, 3, nil, rec)

	s.tick()
	require.NoError(t, s.Start())
	s.tick()

	require.NoError(t, s.Click(384, 396))
	s.tick()
	_, err := s.Confirm()
	require.NoError(t, err)
	tickUntil(t, s, PhaseBackMode, 30)

	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseRearTracking, s.Status().Phase)

	for i := 0; i < 20; i++ {
		s.tick()
	}

	require.Equal(t, video.StageThird, s.Status().Stage)
	require.Len(t, s.drawnSlots(), 1)

	require.NoError(t, s.Reset())
	s.tick()

	// all sources are played, the slots come from the held frame
	require.Equal(t, PhaseSearch, s.Status().Phase)
	assert.Len(t, s.drawnSlots(), 3)
	assert.Empty(t, s.freezeSlots)

	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseFrozenPreview, s.Status().Phase)

	_, err = s.Confirm()
	require.NoError(t, err)

	// no frames are left so the forward leg ends right away
	tickUntil(t, s, PhaseBackMode, 3)

	assert.Len(t, s.goPath, 2)
	assert.Equal(t, s.goPath[len(s.goPath)-1], s.carPose)
	assert.Len(t, s.reversePath, 2)

	require.NoError(t, s.Click(384, 396))
	s.tick()
	assert.Equal(t, PhaseRearTracking, s.Status().Phase)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	confirmed := 0

	for _, e := range rec.events {
		if e == "phase:CONFIRMED:" {
			confirmed++
		}
	}

	assert.Equal(t, 2, confirmed)
}

func TestConfirmOnRearFeedUsesRearBudget(t *testing.T) {

	s := newTestSession(t, 5, 10, 3, nil, nil)

	s.tick()
	require.NoError(t, s.Start())
	tickUntil(t, s, PhaseBackMode, 10)
	require.Equal(t, video.StageRear, s.Status().Stage)

	require.NoError(t, s.Reset())
	s.tick()
	require.Equal(t, PhaseSearch, s.Status().Phase)
	require.Equal(t, video.StageRear, s.Status().Stage)

	require.NoError(t, s.Click(384, 396))
	s.tick()
	require.Equal(t, PhaseFrozenPreview, s.Status().Phase)

	remaining := s.timeline.Remaining()
	require.Equal(t, 8, remaining)

	_, err := s.Confirm()
	require.NoError(t, err)
	s.tick()
	require.Equal(t, PhaseConfirmed, s.Status().Phase)

	assert.Len(t, s.goPath, int(float64(remaining)*s.opts.GoForwardRatio))

	// rear running out ends the forward leg on the first third frame
	tickUntil(t, s, PhaseBackMode, remaining+2)

	st := s.Status()
	assert.Equal(t, video.StageThird, st.Stage)
	assert.Equal(t, 1, st.FrameIndex)
	assert.Equal(t, s.goPath[len(s.goPath)-1], s.carPose)
	assert.False(t, s.follower.Active())
	assert.Len(t, s.reversePath, 3)
}

func TestFrontEndsWithoutPlan(t *testing.T) {

	s := newTestSession(t, 3, 0, 0, nil, nil)

	require.NoError(t, s.Start())
	tickUntil(t, s, PhaseBackMode, 10)

	require.Len(t, s.reversePath, 2)
	assert.Equal(t, s.carPose.Pos(), s.reversePath[0].Pos())

	// no rear frames, the last front frame is held
	s.tick()
	assert.Equal(t, PhaseBackMode, s.Status().Phase)
	assert.NotEmpty(t, s.FrontJPEG())
}

func TestDetectorFailureYieldsNoSlots(t *testing.T) {

	det := &scriptedDetector{fn: func(int) ([]geom.Slot, error) {
		return nil, errors.New("model failure")
	}}

	s := newTestSession(t, 10, 0, 0, det, nil)

	require.NoError(t, s.Start())

	for i := 0; i < 3; i++ {
		s.tick()
	}

	assert.Equal(t, 3, det.calls)
	assert.Empty(t, s.slots)
	assert.Equal(t, PhaseSearch, s.Status().Phase)
}

func TestDetectionThrottled(t *testing.T) {

	det := &scriptedDetector{fn: func(int) ([]geom.Slot, error) {
		return detect.DummySlots(1280, 720), nil
	}}

	s := newTestSession(t, 20, 0, 0, det, nil)
	s.opts.DetectEvery = 3

	require.NoError(t, s.Start())

	for i := 0; i < 9; i++ {
		s.tick()
	}

	assert.Equal(t, 3, det.calls)
}

func TestRearContinuity(t *testing.T) {

	near := testSlot(1, 420, 420)
	far := testSlot(1, 1000, 100)

	det := &scriptedDetector{fn: func(call int) ([]geom.Slot, error) {
		switch {
		case call <= 2:
			return []geom.Slot{testSlot(1, 400, 400), testSlot(2, 900, 400)}, nil
		case call == 3:
			return []geom.Slot{far}, nil
		case call == 4:
			return nil, nil
		default:
			return []geom.Slot{far, near}, nil
		}
	}}

	s := newTestSession(t, 1, 20, 0, det, nil)

	require.NoError(t, s.Start())
	tickUntil(t, s, PhaseBackMode, 5)

	require.NoError(t, s.Click(400, 400))
	s.tick()
	require.Equal(t, PhaseRearTracking, s.Status().Phase)

	// far detection is rejected and the selected slot retained
	drawn := s.drawnSlots()
	require.Len(t, drawn, 1)
	assert.Equal(t, geom.Pt(400, 400), drawn[0].Center)

	// empty detection retains the slot
	s.tick()
	drawn = s.drawnSlots()
	require.Len(t, drawn, 1)
	assert.Equal(t, geom.Pt(400, 400), drawn[0].Center)

	// nearby detection is adopted and moves the anchor
	s.tick()
	drawn = s.drawnSlots()
	require.Len(t, drawn, 1)
	assert.Equal(t, geom.Pt(420, 420), drawn[0].Center)

	anchor, ok := s.continuity.Anchor()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(420, 420), anchor)
}

func TestRunStopsOnCancel(t *testing.T) {

	s := newTestSession(t, 100, 0, 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(s.FrontJPEG()) > 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		return s.Status().Phase == PhaseSearch
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSmoothGuideOption(t *testing.T) {

	opts := DefaultOptions()
	opts.SmoothGuide = true

	s := NewSession(opts, Config{})
	defer s.Close()

	s.continuity.Seed(testSlot(1, 400, 400))
	s.continuity.Seed(testSlot(1, 400, 400))
	s.continuity.Seed(testSlot(1, 460, 400))

	anchor, ok := s.continuity.Anchor()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(460, 400), anchor)

	target, ok := s.continuity.Target()
	require.True(t, ok)
	assert.Greater(t, target.X, 400.0)
	assert.Less(t, target.X, 460.0)
}
