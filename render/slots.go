package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// SlotStyle defines how slot outlines are drawn on the camera view
type SlotStyle struct {
	LineColor     color.RGBA
	SelectedColor color.RGBA
	LineThickness int
	// HaloOffset is the distance in pixels the halo drawn around the
	// selected slot sits outside its polygon, zero disables the halo
	HaloOffset    float64
	HaloThickness int
	// Labels enables drawing the slot id above each slot center
	Labels bool
	Font   Font
}

// DefaultSlotStyle returns the default camera view slot style
func DefaultSlotStyle() SlotStyle {
	return SlotStyle{
		LineColor:     Green,
		SelectedColor: Yellow,
		LineThickness: 2,
		HaloOffset:    8,
		HaloThickness: 1,
		Labels:        true,
		Font:          DefaultFont(),
	}
}

// boxLabel defines where a slot label should be rendered on the image
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Slots renders the outline of each slot, highlighting the one matching
// selectedID when hasSel is set
func Slots(img *gocv.Mat, slots []geom.Slot, selectedID int, hasSel bool,
	style SlotStyle) {

	// keep a record of all labels so they are drawn on top of every outline
	labels := make([]boxLabel, 0, len(slots))

	for _, s := range slots {

		if len(s.Polygon) < 3 {
			continue
		}

		useClr := style.LineColor
		selected := hasSel && s.ID == selectedID

		if selected {
			useClr = style.SelectedColor
		}

		Polyline(img, s.ImagePoints(), true, useClr, style.LineThickness)

		if selected && style.HaloOffset > 0 {
			for _, ring := range Halo(s.Polygon, style.HaloOffset) {
				Polyline(img, ring, true, useClr, style.HaloThickness)
			}
		}

		if !style.Labels {
			continue
		}

		labels = append(labels, slotLabel(s, useClr, style.Font))
	}

	for _, l := range labels {
		// draw box text gets written on
		gocv.Rectangle(img, l.rect, l.clr, -1)

		gocv.PutTextWithParams(img, l.text, l.textPos,
			style.Font.Face, style.Font.Scale, style.Font.Color,
			style.Font.Thickness, style.Font.LineType, false)
	}
}

// slotLabel works out the label box for a slot id, placed just above and
// left of the slot center
func slotLabel(s geom.Slot, clr color.RGBA, font Font) boxLabel {

	text := fmt.Sprintf("%d", s.ID)
	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	anchor := s.Center.Image().Sub(image.Pt(10, 10))

	var centerX int

	switch font.Alignment {
	case Left:
		centerX = anchor.X + textSize.X/2 + font.LeftPad
	case Right:
		centerX = anchor.X - textSize.X/2 - font.RightPad
	case Center:
		fallthrough
	default:
		centerX = anchor.X
	}

	labelPosition := image.Pt(centerX-textSize.X/2, anchor.Y-font.BottomPad)

	rect := image.Rect(centerX-textSize.X/2-font.LeftPad,
		anchor.Y-textSize.Y-font.TopPad-font.BottomPad,
		centerX+textSize.X/2+font.RightPad, anchor.Y)

	return boxLabel{
		rect:    rect,
		clr:     clr,
		text:    text,
		textPos: labelPosition,
	}
}

// Polyline draws pts as a connected line, closing the ring when closed is
// set.  Fewer than two points draws nothing.
func Polyline(img *gocv.Mat, pts []image.Point, closed bool,
	clr color.RGBA, thickness int) {

	if len(pts) < 2 {
		return
	}

	ptsVec := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer ptsVec.Close()

	gocv.Polylines(img, ptsVec, closed, clr, thickness)
}
