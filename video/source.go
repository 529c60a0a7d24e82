package video

import (
	"errors"

	"gocv.io/x/gocv"
)

var (
	// ErrEndOfSource is returned once a source has delivered its frame budget
	ErrEndOfSource = errors.New("end of video source")
	// ErrFrameUnavailable is returned when a frame within the budget could
	// not be decoded.  The frame still counts against the budget and the
	// caller should reuse its last good frame.
	ErrFrameUnavailable = errors.New("video frame unavailable")
)

// Source is a finite sequence of camera frames with a known frame count
type Source interface {
	// Next decodes the next frame into dst
	Next(dst *gocv.Mat) error
	// Total returns the number of frames in the source
	Total() int
	// Remaining returns the number of frames not yet consumed
	Remaining() int
	Close() error
}

// Still is a Source that repeats a single image a fixed number of times
type Still struct {
	img      gocv.Mat
	total    int
	consumed int
}

// NewStill returns a source yielding n copies of img.  The image is cloned
// so the caller keeps ownership of img.
func NewStill(img gocv.Mat, n int) *Still {
	return &Still{
		img:   img.Clone(),
		total: max(n, 0),
	}
}

// NewBlank returns a source of n grey frames of the given size
func NewBlank(width, height, n int) *Still {

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(60, 60, 60, 0), height, width,
		gocv.MatTypeCV8UC3)
	defer img.Close()

	return NewStill(img, n)
}

// Next copies the image into dst
func (s *Still) Next(dst *gocv.Mat) error {

	if s.consumed >= s.total {
		return ErrEndOfSource
	}

	s.consumed++
	s.img.CopyTo(dst)

	return nil
}

// Total returns the number of frames in the source
func (s *Still) Total() int {
	return s.total
}

// Remaining returns the number of frames not yet consumed
func (s *Still) Remaining() int {
	return s.total - s.consumed
}

// Close frees the image
func (s *Still) Close() error {
	return s.img.Close()
}

// empty is the Source used for a missing timeline entry
type empty struct{}

func (empty) Next(*gocv.Mat) error { return ErrEndOfSource }
func (empty) Total() int           { return 0 }
func (empty) Remaining() int       { return 0 }
func (empty) Close() error         { return nil }
