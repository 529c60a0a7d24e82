package render

import (
	"fmt"
	"image"
	"time"

	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// HUD writes the mode text at the top left of the image and the frame
// rate at the top right
func HUD(img *gocv.Mat, mode string, fps float64, font Font) {

	gocv.PutTextWithParams(img, mode, image.Pt(font.LeftPad, font.TopPad),
		font.Face, font.Scale, font.Color, font.Thickness, font.LineType, false)

	text := fmt.Sprintf("FPS: %4.1f", fps)
	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	gocv.PutTextWithParams(img, text,
		image.Pt(img.Cols()-textSize.X-font.RightPad, font.TopPad),
		font.Face, font.Scale, Green, font.Thickness, font.LineType, false)
}

// GoalLine draws the go-forward target line from the car position towards
// the goal, with a dot that slides from the goal back to the car as
// progress goes from 0 to 1
func GoalLine(img *gocv.Mat, car, goal geom.Point, progress float64) {

	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	carPt := car.Image()
	dot := image.Pt(carPt.X, int(goal.Y*(1-progress)+car.Y*progress))

	gocv.Line(img, carPt, dot, White, 2)
	gocv.Circle(img, dot, 7, Red, -1)
}

// Guide draws the rear camera guide line
func Guide(img *gocv.Mat, pts []geom.Point) {

	line := make([]image.Point, len(pts))

	for i, p := range pts {
		line[i] = p.Image()
	}

	Polyline(img, line, false, Yellow, 3)
}

// FPS keeps an exponentially smoothed frame rate
type FPS struct {
	last  time.Time
	value float64
}

// Tick records a frame at time now and returns the smoothed rate
func (f *FPS) Tick(now time.Time) float64 {

	if !f.last.IsZero() {
		if dt := now.Sub(f.last).Seconds(); dt > 0 {
			f.value = f.value*0.9 + (1/dt)*0.1
		}
	}

	f.last = now

	return f.value
}

// Value returns the current smoothed rate
func (f *FPS) Value() float64 {
	return f.value
}
