package autopark

import (
	"log"

	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/planner"
	"github.com/swdee/go-autopark/render"
	"github.com/swdee/go-autopark/video"
	"gocv.io/x/gocv"
)

// render draws both views and publishes their encoded frames
func (s *Session) render() {

	drawn := s.drawnSlots()

	front := s.renderFront(drawn)
	defer front.Close()

	if buf, err := render.EncodeJPEG(front); err == nil {
		s.frontJPEG = buf
	} else {
		log.Printf("[session] error encoding camera view: %v", err)
	}

	bev := s.renderBirdsEye(drawn)
	defer bev.Close()

	if buf, err := render.EncodeJPEG(bev); err == nil {
		s.bevJPEG = buf
	} else {
		log.Printf("[session] error encoding bird's-eye view: %v", err)
	}
}

// drawnSlots returns the slot set shown for the current phase
func (s *Session) drawnSlots() []geom.Slot {

	switch s.phase {
	case PhaseReady, PhaseFrozenPreview, PhaseBackMode:
		return s.freezeSlots
	case PhaseConfirmed:
		return nil
	case PhaseRearTracking:
		if slot, ok := s.continuity.Slot(); ok {
			return []geom.Slot{slot}
		}
		return s.slots
	default:
		return s.slots
	}
}

// renderFront draws the camera view overlays.  The caller must Close the
// returned Mat.
func (s *Session) renderFront(drawn []geom.Slot) gocv.Mat {

	var img gocv.Mat

	switch {
	case s.phase.Frozen() && !s.freezeFrame.Empty():
		img = s.freezeFrame.Clone()
	case s.hasFrame:
		img = s.frame.Clone()
	default:
		img = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
			int(s.opts.Planner.FrameHeight), int(s.opts.Planner.FrameWidth),
			gocv.MatTypeCV8UC3)
	}

	if s.phase != PhaseConfirmed && s.phase != PhaseRearTracking {
		id, ok := s.selector.SelectedID()
		render.Slots(&img, drawn, id, ok, render.DefaultSlotStyle())
	}

	switch {
	case s.phase.Rear():
		// the car is behind the rear camera
	case s.phase == PhaseConfirmed || s.phase == PhaseReady:
		render.FrontCar(&img, s.opts.Planner.InitialPose())
	default:
		render.Trail(&img, s.trail.Points(), nil, render.DefaultTrailStyle())
		render.FrontCar(&img, s.carPose)
	}

	if s.phase.Rear() && s.stage != video.StageThird {
		if target, ok := s.continuity.Target(); ok {
			start := geom.Pt(float64(int(s.opts.Planner.FrameWidth)/2),
				float64(int(s.opts.Planner.FrameHeight*0.9)))

			render.Guide(&img, planner.RearGuide(start, target, s.opts.GuideSamples))
		}
	}

	if s.phase == PhaseConfirmed && s.goal != nil {
		render.GoalLine(&img, s.opts.Planner.InitialPose().Pos(), *s.goal,
			s.follower.Progress())
	}

	render.HUD(&img, s.phase.modeText(), s.fps.Value(), render.HUDFont())

	return img
}

// renderBirdsEye draws the top down view.  The caller must Close the
// returned Mat.
func (s *Session) renderBirdsEye(drawn []geom.Slot) gocv.Mat {

	switch {
	case s.phase.Rear() && len(s.reversePath) > 0:
		slots := s.bevSlots

		if len(slots) == 0 {
			slots = drawn
		}

		path := s.bevPath

		if len(path) == 0 {
			path = s.plan
		}

		idx := min(max(s.reverseIdx, 0), len(s.reversePath)-1)
		car := s.reversePath[idx]

		return s.birdsEye.Render(slots, &car, path, nil)

	case s.phase == PhaseConfirmed && len(s.bevPath) > 0:
		car := s.carPose

		if n := len(s.forwardSegment); n > 0 {
			idx := int(s.follower.Progress() * float64(n-1))
			car = s.forwardSegment[min(max(idx, 0), n-1)]
		}

		return s.birdsEye.Render(s.bevSlots, &car, s.bevPath, nil)

	default:
		car := s.carPose
		return s.birdsEye.Render(drawn, &car, s.plan, s.goal)
	}
}
