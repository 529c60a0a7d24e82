package preprocess

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

var (
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

func TestLetterBoxResize(t *testing.T) {

	tests := []struct {
		srcWidth      int
		srcHeight     int
		resizeWidth   int
		resizeHeight  int
		expectedXPad  int
		expectedYPad  int
		expectedScale float32
	}{
		{1280, 720, 640, 640, 0, 140, 0.50},
		{720, 1280, 640, 640, 140, 0, 0.50},
		{800, 1000, 640, 640, 64, 0, 0.64},
		{800, 800, 640, 640, 0, 0, 0.8},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC1)

		resizedImg := gocv.NewMat()

		resizer := NewResizer(tc.srcWidth, tc.srcHeight, tc.resizeWidth, tc.resizeHeight)

		resizer.LetterBoxResize(img, &resizedImg, black)

		if resizer.XPad() != tc.expectedXPad || resizer.YPad() != tc.expectedYPad {
			t.Errorf("Test failed for src (%d, %d): Padding values wrong, expected XPad=%d, YPad=%d, got xPad=%d, yPad=%d",
				tc.srcWidth, tc.srcHeight, tc.expectedXPad, tc.expectedYPad, resizer.XPad(), resizer.YPad())
		}

		if resizer.ScaleFactor() != tc.expectedScale {
			t.Errorf("Test failed for src (%d, %d): Scalefactor incorrect, expected %f, got %f",
				tc.srcWidth, tc.srcHeight, tc.expectedScale, resizer.ScaleFactor())
		}

		img.Close()
		resizedImg.Close()
		resizer.Close()
	}
}

func TestContentRectAndToSource(t *testing.T) {

	resizer := NewResizer(1280, 720, 640, 640)
	defer resizer.Close()

	want := image.Rect(0, 140, 640, 500)

	if got := resizer.ContentRect(); got != want {
		t.Errorf("ContentRect wrong, expected %v, got %v", want, got)
	}

	tests := []struct {
		x, y   float32
		sx, sy float32
	}{
		{320, 320, 640, 360},
		{0, 140, 0, 0},
		{640, 500, 1280, 720},
		// padding maps outside the frame and is clamped
		{-10, 0, 0, 0},
		{700, 640, 1280, 720},
	}

	for _, tc := range tests {
		sx, sy := resizer.ToSource(tc.x, tc.y)

		if sx != tc.sx || sy != tc.sy {
			t.Errorf("ToSource(%.1f, %.1f) expected (%.1f, %.1f), got (%.1f, %.1f)",
				tc.x, tc.y, tc.sx, tc.sy, sx, sy)
		}
	}
}
