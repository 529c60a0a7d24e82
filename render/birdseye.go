package render

import (
	"image"

	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// BirdsEyeParams defines the canvas and the frame it is projected from
type BirdsEyeParams struct {
	// Width and Height of the canvas in pixels
	Width  int
	Height int
	// FrameWidth and FrameHeight of the camera frame the geometry is in
	FrameWidth  float64
	FrameHeight float64
	// PathThickness, SlotThickness and GoalRadius in canvas pixels
	PathThickness int
	SlotThickness int
	GoalRadius    int
	Caption       string
}

// DefaultBirdsEyeParams returns a 600x600 canvas for a 1280x720 frame
func DefaultBirdsEyeParams() BirdsEyeParams {
	return BirdsEyeParams{
		Width:         600,
		Height:        600,
		FrameWidth:    1280,
		FrameHeight:   720,
		PathThickness: 1,
		SlotThickness: 2,
		GoalRadius:    6,
		Caption:       "BEV",
	}
}

// BirdsEye projects slots, path and vehicle pose into a fixed size top
// down canvas.  The horizontal and vertical scales are independent.
type BirdsEye struct {
	Params BirdsEyeParams
	sx, sy float64
	car    CarStyle
	font   Font
}

// NewBirdsEye returns a bird's-eye renderer
func NewBirdsEye(p BirdsEyeParams) *BirdsEye {
	return &BirdsEye{
		Params: p,
		sx:     float64(p.Width) / p.FrameWidth,
		sy:     float64(p.Height) / p.FrameHeight,
		car:    BirdsEyeCarStyle(),
		font:   CaptionFont(),
	}
}

// Scale returns the horizontal and vertical scale factors from frame to
// canvas
func (b *BirdsEye) Scale() (float64, float64) {
	return b.sx, b.sy
}

// Project maps a frame point onto the canvas
func (b *BirdsEye) Project(p geom.Point) image.Point {
	return image.Pt(int(p.X*b.sx), int(p.Y*b.sy))
}

// Render draws the path, the slot outlines, the car and an optional goal
// marker, in that order, onto a new canvas.  The caller must Close the
// returned Mat.
func (b *BirdsEye) Render(slots []geom.Slot, car *geom.Pose, path geom.Path,
	goal *geom.Point) gocv.Mat {

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		b.Params.Height, b.Params.Width, gocv.MatTypeCV8UC3)

	if len(path) > 0 {
		pts := make([]image.Point, len(path))

		for i, pose := range path {
			pts[i] = b.Project(pose.Pos())
		}

		Polyline(&canvas, pts, false, White, b.Params.PathThickness)
	}

	for _, s := range slots {
		pts := make([]image.Point, len(s.Polygon))

		for i, p := range s.Polygon {
			pts[i] = b.Project(p)
		}

		Polyline(&canvas, pts, true, Green, b.Params.SlotThickness)
	}

	if car != nil {
		Car(&canvas, b.Project(car.Pos()), *car, b.car)
	}

	if goal != nil {
		gocv.Circle(&canvas, b.Project(*goal), b.Params.GoalRadius, Red, -1)
	}

	if b.Params.Caption != "" {
		gocv.PutTextWithParams(&canvas, b.Params.Caption,
			image.Pt(b.font.LeftPad, b.font.TopPad), b.font.Face, b.font.Scale,
			b.font.Color, b.font.Thickness, b.font.LineType, false)
	}

	return canvas
}
