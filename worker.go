package autopark

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/planner"
	"github.com/swdee/go-autopark/video"
	"gocv.io/x/gocv"
)

// Run processes staged commands, plays the camera sources and renders the
// views until ctx is cancelled.  The sources are closed on return.
func (s *Session) Run(ctx context.Context) error {

	defer s.Close()

	for {
		s.tick()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.opts.TickInterval):
		}
	}
}

// ioPlan is the camera and detector work decided for one tick
type ioPlan struct {
	read bool
	// detect requests detection on a newly decoded frame
	detect bool
	// waiting is set in READY, decoded frames are not counted
	waiting bool
	// forward is set while the go-forward path plays, the end of the
	// current source then ends the forward leg
	forward bool
	// refresh requests detection on the frame buffer even when no frame
	// is decoded
	refresh bool
}

// ioResult is the outcome of the unlocked camera and detector work
type ioResult struct {
	// decoded is set when a new frame was decoded into the frame buffer
	decoded bool
	// backMode is set when playback left the forward leg, the frame buffer
	// then holds the frame to reverse on
	backMode bool
	detected bool
	slots    []geom.Slot
}

// tick runs one worker iteration
func (s *Session) tick() {

	s.mu.Lock()
	s.applyCommands(s.pending.drain())
	plan := s.planIO()
	s.mu.Unlock()

	res := s.doIO(plan)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyIO(res)

	if s.follower.Active() {
		if pose, ok := s.follower.Step(); ok {
			s.carPose = pose
			s.trail.Add(pose)
		}
	}

	s.fps.Tick(time.Now())
	s.render()

	if s.phase == PhaseRearTracking && len(s.reversePath) > 0 &&
		s.reverseIdx < len(s.reversePath)-1 {
		s.reverseIdx++
	}
}

// applyCommands applies drained commands in arrival order
func (s *Session) applyCommands(cmds []command) {

	for _, c := range cmds {

		if s.recorder != nil {
			s.recorder.Record("command", s.phase.String(), c.String())
		}

		switch c.kind {
		case cmdStart:
			if s.phase == PhaseReady {
				s.setPhase(PhaseSearch)
			}

		case cmdClick:
			s.click(c.x, c.y)

		case cmdConfirm:
			s.confirm()

		case cmdReset:
			s.reset()
		}
	}
}

// click runs the hit test against the drawn slot set
func (s *Session) click(x, y int) {

	if !s.clickable() {
		log.Printf("[session] click %d,%d ignored in %s", x, y, s.phase)
		return
	}

	slot, ok := s.selector.HitTest(float64(x), float64(y))

	if !ok {
		log.Printf("[session] click %d,%d missed all slots", x, y)
		return
	}

	if s.phase.Rear() {
		log.Printf("[session] rear slot %d selected, start tracking", slot.ID)

		s.continuity.Seed(slot)
		s.slots = []geom.Slot{slot}
		s.freezeSlots = []geom.Slot{slot}
		s.selector.Update(s.slots)
		s.selector.Select(slot.ID)
		s.setPhase(PhaseRearTracking)

		return
	}

	log.Printf("[session] slot %d selected, planning path", slot.ID)

	if s.phase == PhaseSearch {
		s.freezeFrame.Close()
		s.freezeFrame = s.frame.Clone()
		s.freezeSlots = s.selector.Slots()
	}

	start := s.opts.Planner.InitialPose()
	s.carPose = start
	s.plan = s.planner.Plan(start, slot)
	s.goal = nil
	s.trail.Reset()
	s.follower.Start(s.plan)

	s.bevSlots = append([]geom.Slot(nil), s.freezeSlots...)
	s.bevPath = s.plan

	s.setPhase(PhaseFrozenPreview)
}

// confirm replaces the previewed path with the go-forward path sized to the
// rest of the front feed
func (s *Session) confirm() {

	if s.phase != PhaseFrozenPreview || len(s.plan) == 0 {
		return
	}

	s.bevSlots = append([]geom.Slot(nil), s.freezeSlots...)
	s.bevPath = s.plan

	s.forwardSegment = s.plan.Filter(false)

	if len(s.forwardSegment) == 0 {
		s.forwardSegment = s.plan
	}

	start := s.opts.Planner.InitialPose()
	s.carPose = start

	remaining := max(s.timeline.Remaining(), 1)
	steps := max(1, int(float64(remaining)*s.opts.GoForwardRatio))

	goal := s.goalPoint()
	s.goal = &goal

	target := geom.Pose{X: goal.X, Y: goal.Y, Yaw: start.Yaw}
	s.goPath = planner.Straight(start, target, steps)
	s.trail.Reset()
	s.follower.Start(s.goPath)

	log.Printf("[session] confirmed, %d remaining frames, %d steps, goal %.0f,%.0f",
		remaining, steps, goal.X, goal.Y)

	s.setPhase(PhaseConfirmed)
}

// reset clears the maneuver.  Playback is not rewound, the slot set is
// cleared and detection is requested on the current frame so the slots
// shown match it even when all sources have been played.
func (s *Session) reset() {

	s.selector.Clear()
	s.follower.Stop()
	s.continuity.Reset()
	s.trail.Reset()

	s.plan = nil
	s.goPath = nil
	s.goal = nil
	s.carPose = s.opts.Planner.InitialPose()

	s.slots = nil
	s.freezeSlots = nil
	s.selector.Update(nil)

	s.bevSlots = nil
	s.bevPath = nil
	s.forwardSegment = nil
	s.reversePath = nil
	s.reverseIdx = 0

	if s.phase == PhaseReady {
		return
	}

	log.Printf("[session] reset")

	s.refresh = true
	s.setPhase(PhaseSearch)
}

// planIO decides the camera and detector work of the tick
func (s *Session) planIO() ioPlan {

	p := ioPlan{refresh: s.refresh && s.hasFrame}

	switch s.phase {
	case PhaseReady:
		p.read = !s.hasFrame
		p.waiting = true
	case PhaseSearch:
		p.read = true
		p.detect = true
	case PhaseConfirmed:
		p.read = true
		p.forward = true
	case PhaseRearTracking:
		p.read = true
		p.detect = s.timeline.Stage() == video.StageRear
	}

	return p
}

// doIO decodes and detects with the session lock released.  Only the
// worker touches the timeline, detector and frame buffers.
func (s *Session) doIO(p ioPlan) ioResult {

	var res ioResult

	if p.read {
		res = s.readFrame(p)
	}

	if p.refresh && !res.detected {
		res.detected = true
		res.slots = s.detectSlots()
	}

	return res
}

// readFrame decodes the next frame of the timeline and runs the throttled
// detection on it
func (s *Session) readFrame(p ioPlan) ioResult {

	var res ioResult

	stage := s.timeline.Stage()
	err := s.timeline.Next(&s.scratch)

	switch {
	case err == nil:
		s.storeFrame()
		res.decoded = true

	case errors.Is(err, video.ErrFrameUnavailable):
		log.Printf("[session] %v, reusing last frame", err)

	case errors.Is(err, video.ErrEndOfSource):
		return s.endOfSource(p, stage)

	default:
		log.Printf("[session] error reading frame: %v", err)
	}

	if p.forward && s.timeline.Stage() != stage {
		// rear ran out during the go-forward drive and rolled over
		log.Printf("[session] %s video ended during go forward", stage)

		res.backMode = true
		res.detected = true
		res.slots = s.detectSlots()

		return res
	}

	if !res.decoded || p.waiting {
		return res
	}

	s.decoded++

	if p.detect && s.decoded%s.opts.DetectEvery == 0 {
		res.detected = true
		res.slots = s.detectSlots()
	}

	return res
}

// endOfSource handles exhaustion of the source of stage.  The front feed
// ending switches to the rear camera, any source ending during the
// go-forward drive ends the forward leg on the held frame, otherwise the
// last frame is held.
func (s *Session) endOfSource(p ioPlan, stage video.Stage) ioResult {

	var res ioResult

	switch {
	case stage == video.StageFront && !p.waiting:
		log.Printf("[session] front video ended, switching to rear camera")

		s.timeline.StartRear()

		if err := s.timeline.Next(&s.scratch); err == nil {
			s.storeFrame()
		} else {
			log.Printf("[session] no rear frame, keeping last frame: %v", err)
		}

	case p.forward:
		log.Printf("[session] %s video ended during go forward, holding last frame", stage)

	default:
		// all sources played, hold the last frame
		return res
	}

	res.backMode = true
	res.detected = true
	res.slots = s.detectSlots()

	return res
}

// storeFrame moves the decoded scratch frame into the frame buffer at the
// planning frame size
func (s *Session) storeFrame() {

	size := image.Pt(int(s.opts.Planner.FrameWidth), int(s.opts.Planner.FrameHeight))

	if s.scratch.Cols() != size.X || s.scratch.Rows() != size.Y {
		gocv.Resize(s.scratch, &s.frame, size, 0, 0, gocv.InterpolationLinear)
	} else {
		s.scratch.CopyTo(&s.frame)
	}

	s.hasFrame = true
}

// detectSlots runs the detector on the frame buffer, failures yield no
// slots
func (s *Session) detectSlots() []geom.Slot {

	if !s.hasFrame {
		return nil
	}

	slots, err := s.detector.Detect(s.frame)

	if err != nil {
		log.Printf("[session] detection failed: %v", err)
		return nil
	}

	return slots
}

// applyIO applies the decoded frame and detection results to the state
func (s *Session) applyIO(res ioResult) {

	s.stage = s.timeline.Stage()
	s.index = s.timeline.Index()

	if s.phase == PhaseReady && res.decoded {
		s.freezeFrame.Close()
		s.freezeFrame = s.frame.Clone()
		s.freezeSlots = nil
		s.slots = nil
		s.selector.Update(nil)
		return
	}

	if res.detected {
		s.refresh = false
	}

	if res.backMode {
		s.enterBackMode(res.slots)
		return
	}

	if res.detected {
		if s.phase == PhaseRearTracking {
			s.trackRear(res.slots)
		} else {
			s.slots = res.slots
		}
	}

	if !s.phase.Frozen() {
		s.selector.Update(s.slots)
	}
}

// trackRear keeps the selected slot across rear detection cycles
func (s *Session) trackRear(detected []geom.Slot) {

	if _, ok := s.continuity.Anchor(); !ok {
		s.slots = detected
		return
	}

	if slot, ok := s.continuity.Observe(detected); ok {
		s.slots = []geom.Slot{slot}
	} else {
		s.slots = nil
	}
}

// enterBackMode switches to the rear camera held on its first frame, with
// the reverse part of the plan re-timed onto the rear feeds
func (s *Session) enterBackMode(detected []geom.Slot) {

	if s.phase == PhaseConfirmed && len(s.goPath) > 0 {
		// the go-forward path completes with the front feed
		s.follower.Finish()
		s.carPose = s.goPath[len(s.goPath)-1]
	} else {
		s.follower.Stop()
	}

	// the held frame plus the rear frames still to play
	steps := max(2, s.timeline.ReverseRemaining()+1)

	if len(s.bevPath) > 0 {
		segment := s.bevPath.Filter(true)

		if len(segment) == 0 {
			segment = s.bevPath
		}

		s.reversePath = planner.Resample(segment, steps)
	} else {
		pose := s.carPose
		pose.Reverse = true
		s.reversePath = make(geom.Path, steps)

		for i := range s.reversePath {
			s.reversePath[i] = pose
		}
	}

	s.reverseIdx = 0

	s.freezeFrame.Close()
	s.freezeFrame = s.frame.Clone()

	s.slots = detected
	s.freezeSlots = append([]geom.Slot(nil), detected...)
	s.selector.Update(s.slots)
	s.continuity.Reset()

	s.setPhase(PhaseBackMode)
}
