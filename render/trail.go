package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the driven trail
type TrailStyle struct {
	LineColor     color.RGBA
	LineThickness int
	// CircleRadius of the dot drawn on the most recent point, zero disables
	// the dot
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineColor:     Pink,
		LineThickness: 1,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the history of vehicle positions.  Project maps each frame
// point to image coordinates, nil draws the points unscaled.
func Trail(img *gocv.Mat, points []geom.Point, project func(geom.Point) image.Point,
	style TrailStyle) {

	if len(points) < 2 {
		return
	}

	if project == nil {
		project = geom.Point.Image
	}

	for i := 1; i < len(points); i++ {
		// draw line segment of trail
		gocv.Line(img, project(points[i-1]), project(points[i]),
			style.LineColor, style.LineThickness)
	}

	if style.CircleRadius > 0 {
		gocv.Circle(img, project(points[len(points)-1]), style.CircleRadius,
			style.CircleColor, -1)
	}
}
