package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label relative to its anchor point
	Alignment Alignment
}

// DefaultFont returns the font used for slot id labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.7,
		Color:     Black,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Center,
	}
}

// HUDFont returns the font used for the mode and FPS status line
func HUDFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     1.1,
		Color:     Yellow,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   10,
		RightPad:  20,
		TopPad:    30,
		Alignment: Left,
	}
}

// CaptionFont returns the font used for the bird's-eye caption
func CaptionFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.8,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   10,
		TopPad:    25,
		Alignment: Left,
	}
}
