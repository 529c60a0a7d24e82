package video

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"
)

// File is a Source backed by a video file.  The number of frames is
// established at open by decoding the whole file once, since container
// frame counts are unreliable.
type File struct {
	path     string
	cap      *gocv.VideoCapture
	size     image.Point
	total    int
	consumed int
	frame    gocv.Mat
}

// OpenFile opens the video file at path.  Decoded frames are resized to
// width x height, a zero size keeps the native resolution.
func OpenFile(path string, width, height int) (*File, error) {

	total, err := countFrames(path)

	if err != nil {
		return nil, err
	}

	vc, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, fmt.Errorf("error opening video %s: %w", path, err)
	}

	log.Printf("[video] opened %s with %d frames", path, total)

	return &File{
		path:  path,
		cap:   vc,
		size:  image.Pt(width, height),
		total: total,
		frame: gocv.NewMat(),
	}, nil
}

// countFrames decodes every frame of the file and returns the count
func countFrames(path string) (int, error) {

	vc, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return 0, fmt.Errorf("error opening video %s: %w", path, err)
	}

	defer vc.Close()

	if !vc.IsOpened() {
		return 0, fmt.Errorf("error opening video %s", path)
	}

	img := gocv.NewMat()
	defer img.Close()

	n := 0

	for vc.Read(&img) {
		if img.Empty() {
			break
		}

		n++
	}

	return n, nil
}

// Next decodes the next frame into dst
func (f *File) Next(dst *gocv.Mat) error {

	if f.consumed >= f.total {
		return ErrEndOfSource
	}

	f.consumed++

	if ok := f.cap.Read(&f.frame); !ok || f.frame.Empty() {
		return fmt.Errorf("%w: %s frame %d", ErrFrameUnavailable, f.path, f.consumed)
	}

	if f.size.X > 0 && f.size.Y > 0 &&
		(f.frame.Cols() != f.size.X || f.frame.Rows() != f.size.Y) {
		gocv.Resize(f.frame, dst, f.size, 0, 0, gocv.InterpolationLinear)
		return nil
	}

	f.frame.CopyTo(dst)

	return nil
}

// Total returns the number of frames counted at open
func (f *File) Total() int {
	return f.total
}

// Remaining returns the number of frames not yet consumed
func (f *File) Remaining() int {
	return f.total - f.consumed
}

// Close releases the capture device
func (f *File) Close() error {

	if err := f.frame.Close(); err != nil {
		return err
	}

	return f.cap.Close()
}
