package autopark

import (
	"time"

	"github.com/swdee/go-autopark/planner"
	"github.com/swdee/go-autopark/render"
	"github.com/swdee/go-autopark/tracker"
)

// Options defines the Session tunables
type Options struct {
	// TickInterval is the sleep between worker iterations
	TickInterval time.Duration
	// DetectEvery runs the detector on every Nth decoded frame
	DetectEvery int
	// GoForwardDistance is how far ahead of the initial pose the go-forward
	// goal is placed, in pixels
	GoForwardDistance float64
	// GoForwardRatio scales the remaining front frames into the go-forward
	// sample count so the animation ends just before the feed does
	GoForwardRatio float64
	// MaxJump is the largest center displacement in pixels accepted as the
	// same slot between rear detection cycles
	MaxJump float64
	// GuideSamples is the number of points of the rear guide curve
	GuideSamples int
	// SmoothGuide filters the rear guide target with a Kalman filter
	// instead of jumping to each accepted slot center
	SmoothGuide bool
	// TrailSize is the number of past car positions drawn on the camera view
	TrailSize int
	// Planner holds the frame size and path shape parameters
	Planner planner.Params
	// BirdsEye holds the bird's-eye canvas parameters
	BirdsEye render.BirdsEyeParams
}

// DefaultOptions returns the options for a 1280x720 frame
func DefaultOptions() Options {
	return Options{
		TickInterval:      20 * time.Millisecond,
		DetectEvery:       3,
		GoForwardDistance: 350,
		GoForwardRatio:    0.9,
		MaxJump:           tracker.DefaultMaxJump,
		GuideSamples:      60,
		TrailSize:         300,
		Planner:           planner.DefaultParams(),
		BirdsEye:          render.DefaultBirdsEyeParams(),
	}
}
