package render

import (
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-autopark/geom"
)

// Halo grows the polygon outwards by delta pixels with rounded corners and
// returns the resulting rings as drawable points
func Halo(poly []geom.Point, delta float64) [][]image.Point {

	if len(poly) < 3 {
		return nil
	}

	// convert the polygon to a Clipper Path
	var path clipper.Path

	for _, pt := range poly {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X)),
			Y: clipper.CInt(math.Round(pt.Y)),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(delta)

	rings := make([][]image.Point, 0, len(solution))

	for _, sol := range solution {
		ring := make([]image.Point, 0, len(sol))

		for _, pt := range sol {
			ring = append(ring, image.Pt(int(pt.X), int(pt.Y)))
		}

		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}

	return rings
}
