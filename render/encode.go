package render

import (
	"fmt"

	"gocv.io/x/gocv"
)

// EncodeJPEG compresses the image to JPEG and returns a Go owned copy of
// the bytes
func EncodeJPEG(img gocv.Mat) ([]byte, error) {

	if img.Empty() {
		return nil, fmt.Errorf("cannot encode empty image")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding jpeg: %w", err)
	}

	defer buf.Close()

	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)

	return out, nil
}
