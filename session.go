package autopark

import (
	"bytes"
	"errors"
	"log"
	"sync"

	"github.com/swdee/go-autopark/detect"
	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/planner"
	"github.com/swdee/go-autopark/render"
	"github.com/swdee/go-autopark/tracker"
	"github.com/swdee/go-autopark/video"
	"gocv.io/x/gocv"
)

var (
	// ErrNoPath is returned by Confirm when no path has been planned
	ErrNoPath = errors.New("no planned path")
	// ErrNotConfirmable is returned by Confirm outside of the path preview
	ErrNotConfirmable = errors.New("path cannot be confirmed in this phase")
	// ErrAlreadyStarted is returned by Start once the maneuver has started
	ErrAlreadyStarted = errors.New("session already started")
)

// Recorder receives the commands and phase changes of a session, such as a
// journal.Maneuver
type Recorder interface {
	Record(kind, phase, detail string)
}

// Config holds the collaborators of a Session
type Config struct {
	// Front, Rear and Third are played in sequence, nil sources are empty
	Front video.Source
	Rear  video.Source
	Third video.Source
	// Detector finds slots in camera frames, defaults to the fixed layout
	// detector
	Detector detect.Detector
	// Recorder is optional
	Recorder Recorder
}

// Status is a snapshot of the session state
type Status struct {
	Phase Phase
	// SelectedID is the selected slot id, valid when HasSelection is set
	SelectedID   int
	HasSelection bool
	// Stage is the camera source being played
	Stage video.Stage
	// FrameIndex is the number of frames consumed from the current source
	FrameIndex int
	// PathLen is the length of the planned path
	PathLen int
	FPS     float64
}

// Session owns the state of one parking maneuver visualization.  All state
// is mutated by the worker started with Run, callers stage commands and
// read back rendered frames.
type Session struct {
	opts Options
	// mu guards the state read by callers and the staged commands
	mu      sync.Mutex
	pending mailbox

	timeline   *video.Timeline
	detector   detect.Detector
	recorder   Recorder
	planner    *planner.Planner
	selector   *tracker.Selector
	continuity *tracker.Continuity
	follower   planner.Follower
	trail      *tracker.Trail
	birdsEye   *render.BirdsEye
	fps        render.FPS

	phase Phase
	// frame is the last good decoded frame, freezeFrame the held frame
	frame       gocv.Mat
	hasFrame    bool
	freezeFrame gocv.Mat
	// scratch receives decoded frames
	scratch gocv.Mat
	// decoded counts frames decoded since start for detection throttling
	decoded int
	// refresh requests detection on the held frame after a reset
	refresh bool
	stage   video.Stage
	index   int

	// slots is the live slot set, freezeSlots the set held with the frame
	slots       []geom.Slot
	freezeSlots []geom.Slot
	carPose     geom.Pose
	// plan is the planned maneuver, goPath the go-forward path
	plan   geom.Path
	goPath geom.Path
	goal   *geom.Point

	// snapshots drawn on the bird's-eye view after confirmation
	bevSlots       []geom.Slot
	bevPath        geom.Path
	forwardSegment geom.Path
	reversePath    geom.Path
	reverseIdx     int

	frontJPEG []byte
	bevJPEG   []byte

	closeOnce sync.Once
}

// NewSession returns a session in the READY phase
func NewSession(opts Options, cfg Config) *Session {

	det := cfg.Detector

	if det == nil {
		det = detect.NewDummy()
	}

	if opts.DetectEvery < 1 {
		opts.DetectEvery = 1
	}

	continuity := tracker.NewContinuity(opts.MaxJump)

	if opts.SmoothGuide {
		continuity.Smooth(tracker.NewCenterFilter(4, 2, 8))
	}

	return &Session{
		opts:        opts,
		timeline:    video.NewTimeline(cfg.Front, cfg.Rear, cfg.Third),
		detector:    det,
		recorder:    cfg.Recorder,
		planner:     planner.New(opts.Planner),
		selector:    tracker.NewSelector(),
		continuity:  continuity,
		trail:       tracker.NewTrail(opts.TrailSize),
		birdsEye:    render.NewBirdsEye(opts.BirdsEye),
		phase:       PhaseReady,
		frame:       gocv.NewMat(),
		freezeFrame: gocv.NewMat(),
		scratch:     gocv.NewMat(),
		carPose:     opts.Planner.InitialPose(),
	}
}

// Start stages the start of playback
func (s *Session) Start() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseReady {
		return ErrAlreadyStarted
	}

	s.pending.put(command{kind: cmdStart})

	return nil
}

// Click stages a slot selection at frame coordinates x, y.  The click is
// always acknowledged, the worker drops it in READY and CONFIRMED.
func (s *Session) Click(x, y int) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.put(command{kind: cmdClick, x: x, y: y})

	return nil
}

// clickable reports whether clicks are applied in the current phase
func (s *Session) clickable() bool {
	return s.phase != PhaseReady && s.phase != PhaseConfirmed
}

// Confirm stages the confirmation of the previewed path and returns the
// go-forward goal point
func (s *Session) Confirm() (geom.Point, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.plan) == 0 {
		return geom.Point{}, ErrNoPath
	}

	if s.phase != PhaseFrozenPreview {
		return geom.Point{}, ErrNotConfirmable
	}

	s.pending.put(command{kind: cmdConfirm})

	return s.goalPoint(), nil
}

// goalPoint returns the go-forward goal straight ahead of the initial pose
func (s *Session) goalPoint() geom.Point {

	start := s.opts.Planner.InitialPose()

	return geom.Pt(start.X, max(start.Y-s.opts.GoForwardDistance, 0))
}

// Reset stages the cancellation of the maneuver
func (s *Session) Reset() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.put(command{kind: cmdReset})

	return nil
}

// Status returns a snapshot of the session state
func (s *Session) Status() Status {

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.selector.SelectedID()

	return Status{
		Phase:        s.phase,
		SelectedID:   id,
		HasSelection: ok,
		Stage:        s.stage,
		FrameIndex:   s.index,
		PathLen:      len(s.plan),
		FPS:          s.fps.Value(),
	}
}

// FrontJPEG returns a copy of the most recent camera view, nil before the
// first frame is rendered
func (s *Session) FrontJPEG() []byte {

	s.mu.Lock()
	defer s.mu.Unlock()

	return bytes.Clone(s.frontJPEG)
}

// BirdsEyeJPEG returns a copy of the most recent bird's-eye view, nil
// before the first frame is rendered
func (s *Session) BirdsEyeJPEG() []byte {

	s.mu.Lock()
	defer s.mu.Unlock()

	return bytes.Clone(s.bevJPEG)
}

// Close releases the camera sources and frame buffers.  It is called by
// Run on exit.
func (s *Session) Close() error {

	var err error

	s.closeOnce.Do(func() {
		err = s.timeline.Close()
		s.frame.Close()
		s.freezeFrame.Close()
		s.scratch.Close()
	})

	return err
}

// setPhase moves to phase p, logging and recording the transition
func (s *Session) setPhase(p Phase) {

	if p == s.phase {
		return
	}

	log.Printf("[session] phase %s -> %s", s.phase, p)
	s.phase = p

	if s.recorder != nil {
		s.recorder.Record("phase", p.String(), "")
	}
}
