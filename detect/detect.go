package detect

import (
	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// Detector finds parking slot polygons in a camera frame.  Slot ids are
// assigned sequentially from 1 on every call.
type Detector interface {
	Detect(img gocv.Mat) ([]geom.Slot, error)
}

// BoxRect are the dimensions of the bounding box of a detected object
type BoxRect struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Result defines the attributes of a single object detected
type Result struct {
	// Class is the class index the model was trained with
	Class int
	// Box are the bounding box dimensions of the object location in model
	// input coordinates
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
}

// Dummy returns three fixed rectangular slots placed relative to the frame
// size.  It is used when no segmentation model is available.
type Dummy struct{}

// NewDummy returns a fixed layout detector
func NewDummy() *Dummy {
	return &Dummy{}
}

// Detect returns the fixed slots for the frame dimensions
func (d *Dummy) Detect(img gocv.Mat) ([]geom.Slot, error) {
	return DummySlots(img.Cols(), img.Rows()), nil
}

// dummyRects are the slot rectangles as fractions of frame width and height
var dummyRects = [][4]float64{
	{0.60, 0.60, 0.80, 0.70},
	{0.20, 0.50, 0.40, 0.60},
	{0.45, 0.40, 0.65, 0.50},
}

// DummySlots returns the fixed slot layout for a w x h frame
func DummySlots(w, h int) []geom.Slot {

	slots := make([]geom.Slot, 0, len(dummyRects))

	for _, r := range dummyRects {
		x1 := float64(int(float64(w) * r[0]))
		y1 := float64(int(float64(h) * r[1]))
		x2 := float64(int(float64(w) * r[2]))
		y2 := float64(int(float64(h) * r[3]))

		poly := []geom.Point{
			{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
		}

		slot, ok := geom.NewSlot(len(slots)+1, poly, 0)

		if !ok {
			continue
		}

		slots = append(slots, slot)
	}

	return slots
}
