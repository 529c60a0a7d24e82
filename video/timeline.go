package video

import (
	"errors"

	"gocv.io/x/gocv"
)

// Stage identifies one of the sources played in sequence
type Stage int

const (
	StageFront Stage = iota
	StageRear
	StageThird
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageFront:
		return "front"
	case StageRear:
		return "rear"
	case StageThird:
		return "third"
	default:
		return "unknown"
	}
}

// Timeline plays the front, rear and third sources one after the other.
// The front to rear switch is driven by the caller, the rear to third
// switch happens inside Next when the rear source is exhausted.
type Timeline struct {
	sources [3]Source
	stage   Stage
	// index is the number of frames consumed from the active source
	index int
}

// NewTimeline returns a timeline over the three sources.  Nil sources are
// treated as empty.
func NewTimeline(front, rear, third Source) *Timeline {

	t := &Timeline{sources: [3]Source{front, rear, third}}

	for i, s := range t.sources {
		if s == nil {
			t.sources[i] = empty{}
		}
	}

	return t
}

// Stage returns the active source stage
func (t *Timeline) Stage() Stage {
	return t.stage
}

// Index returns the number of frames consumed from the active source
func (t *Timeline) Index() int {
	return t.index
}

// Source returns the source of the given stage
func (t *Timeline) Source(s Stage) Source {
	return t.sources[s]
}

// Remaining returns the unconsumed frames of the active source
func (t *Timeline) Remaining() int {
	return t.sources[t.stage].Remaining()
}

// ReverseRemaining returns the unconsumed frames of the rear and third
// sources that are still ahead of the playback position
func (t *Timeline) ReverseRemaining() int {

	n := t.sources[StageThird].Remaining()

	if t.stage != StageThird {
		n += t.sources[StageRear].Remaining()
	}

	return n
}

// StartRear makes the rear source active
func (t *Timeline) StartRear() {
	t.stage = StageRear
	t.index = 0
}

// Next decodes the next frame of the active source into dst.  When the
// rear source is exhausted playback continues with the third source.
// ErrEndOfSource is returned for an exhausted front or third source.
func (t *Timeline) Next(dst *gocv.Mat) error {

	err := t.sources[t.stage].Next(dst)

	if errors.Is(err, ErrEndOfSource) && t.stage == StageRear {
		t.stage = StageThird
		t.index = 0
		err = t.sources[t.stage].Next(dst)
	}

	if !errors.Is(err, ErrEndOfSource) {
		t.index++
	}

	return err
}

// Close closes all sources
func (t *Timeline) Close() error {

	var errs []error

	for _, s := range t.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
