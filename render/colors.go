package render

import "image/color"

var (
	// slotColors is a list of colors used to paint unselected slot outlines
	// in the bird's-eye view when slots are colored by id
	slotColors = []color.RGBA{
		{R: 72, G: 249, B: 10, A: 255},   // #48F90A
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 255, G: 149, B: 200, A: 255}, // #FF95C8
		{R: 255, G: 112, B: 31, A: 255},  // #FF701F
		{R: 207, G: 210, B: 49, A: 255},  // #CFD231
	}

	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// SlotColor returns the palette color for a slot id
func SlotColor(id int) color.RGBA {

	if id < 0 {
		id = -id
	}

	return slotColors[id%len(slotColors)]
}
