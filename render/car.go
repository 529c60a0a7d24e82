package render

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// CarStyle defines the size and colors of the vehicle rectangle
type CarStyle struct {
	Length        float64
	Width         float64
	ForwardColor  color.RGBA
	ReverseColor  color.RGBA
	LineThickness int
	// DriverRadius is the radius of the dot marking the driver corner, zero
	// disables it
	DriverRadius int
	DriverColor  color.RGBA
}

// FrontCarStyle returns the style of the car drawn on the camera view
func FrontCarStyle() CarStyle {
	return CarStyle{
		Length:        70,
		Width:         35,
		ForwardColor:  Red,
		ReverseColor:  Yellow,
		LineThickness: 3,
		DriverRadius:  6,
		DriverColor:   Red,
	}
}

// BirdsEyeCarStyle returns the style of the car drawn on the bird's-eye
// canvas
func BirdsEyeCarStyle() CarStyle {
	return CarStyle{
		Length:        40,
		Width:         20,
		ForwardColor:  Red,
		ReverseColor:  Red,
		LineThickness: 2,
	}
}

// CarCorners returns the four corners of a length by width rectangle
// centered on center and rotated by yaw.  Corner 1 is the front corner on
// the driver side.
func CarCorners(center image.Point, yaw, length, width float64) []image.Point {

	local := [4][2]float64{
		{-length / 2, -width / 2},
		{length / 2, -width / 2},
		{length / 2, width / 2},
		{-length / 2, width / 2},
	}

	c := math.Cos(yaw)
	s := math.Sin(yaw)

	pts := make([]image.Point, 4)

	for i, l := range local {
		x := c*l[0] - s*l[1] + float64(center.X)
		y := s*l[0] + c*l[1] + float64(center.Y)
		pts[i] = image.Pt(int(x), int(y))
	}

	return pts
}

// Car draws the vehicle rectangle for the pose at the given pixel position
func Car(img *gocv.Mat, center image.Point, pose geom.Pose, style CarStyle) {

	corners := CarCorners(center, pose.Yaw, style.Length, style.Width)

	clr := style.ForwardColor

	if pose.Reverse {
		clr = style.ReverseColor
	}

	Polyline(img, corners, true, clr, style.LineThickness)

	if style.DriverRadius > 0 {
		gocv.Circle(img, corners[1], style.DriverRadius, style.DriverColor, -1)
	}
}

// FrontCar draws the vehicle on the camera view using unscaled frame
// coordinates
func FrontCar(img *gocv.Mat, pose geom.Pose) {
	Car(img, pose.Pos().Image(), pose, FrontCarStyle())
}
