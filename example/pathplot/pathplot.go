package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/planner"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	forwardColor = color.RGBA{R: 30, G: 90, B: 220, A: 255}
	reverseColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	slotColor    = color.RGBA{R: 20, G: 160, B: 60, A: 255}
)

// rectSlot returns a slot of size w x h centered at cx,cy
func rectSlot(cx, cy, w, h float64) (geom.Slot, error) {

	slot, ok := geom.NewSlot(1, []geom.Point{
		{X: cx - w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy + h/2},
		{X: cx - w/2, Y: cy + h/2},
	}, geom.DefaultMinSlotArea)

	if !ok {
		return geom.Slot{}, fmt.Errorf("slot %.0fx%.0f is below the minimum area", w, h)
	}

	return slot, nil
}

// toXYs converts frame points to plot coordinates, flipping the vertical
// axis so the plot reads the same way up as the camera frame
func toXYs(pts []geom.Point, frameH float64) plotter.XYs {

	xys := make(plotter.XYs, len(pts))

	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: frameH - p.Y}
	}

	return xys
}

// PlotPath plans a maneuver from the initial pose into slot and returns a
// plot of the forward and reverse segments over the slot outline
func PlotPath(params planner.Params, slot geom.Slot) (*plot.Plot, geom.Path, error) {

	pl := planner.New(params)
	start := params.InitialPose()
	path := pl.Plan(start, slot)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Maneuver into slot at %.0f,%.0f", slot.Center.X, slot.Center.Y)
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "frame height - y (px)"
	p.X.Min, p.X.Max = 0, params.FrameWidth
	p.Y.Min, p.Y.Max = 0, params.FrameHeight
	p.Add(plotter.NewGrid())

	outline := append(append([]geom.Point{}, slot.Polygon...), slot.Polygon[0])
	slotLine, err := plotter.NewLine(toXYs(outline, params.FrameHeight))

	if err != nil {
		return nil, nil, fmt.Errorf("error plotting slot: %w", err)
	}

	slotLine.Color = slotColor
	slotLine.Width = vg.Points(2)
	p.Add(slotLine)
	p.Legend.Add("slot", slotLine)

	segments := []struct {
		name    string
		reverse bool
		color   color.RGBA
	}{
		{"forward", false, forwardColor},
		{"reverse", true, reverseColor},
	}

	for _, seg := range segments {
		pts := path.Filter(seg.reverse).Points()

		if len(pts) < 2 {
			continue
		}

		line, err := plotter.NewLine(toXYs(pts, params.FrameHeight))

		if err != nil {
			return nil, nil, fmt.Errorf("error plotting %s segment: %w", seg.name, err)
		}

		line.Color = seg.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(seg.name, line)
	}

	startPt, err := plotter.NewScatter(toXYs([]geom.Point{start.Pos()}, params.FrameHeight))

	if err != nil {
		return nil, nil, fmt.Errorf("error plotting start: %w", err)
	}

	startPt.Color = color.Black
	startPt.Radius = vg.Points(4)
	p.Add(startPt)
	p.Legend.Add("start", startPt)

	return p, path, nil
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	cx := flag.Float64("x", 300, "Slot center x in frame pixels")
	cy := flag.Float64("y", 300, "Slot center y in frame pixels")
	w := flag.Float64("w", 120, "Slot width in frame pixels")
	h := flag.Float64("h", 220, "Slot height in frame pixels")
	outFile := flag.String("o", "path.png", "The output PNG file")

	flag.Parse()

	slot, err := rectSlot(*cx, *cy, *w, *h)

	if err != nil {
		log.Fatalf("Invalid slot: %v", err)
	}

	p, path, err := PlotPath(planner.DefaultParams(), slot)

	if err != nil {
		log.Fatalf("Error plotting path: %v", err)
	}

	if err := p.Save(8*vg.Inch, 4.5*vg.Inch, *outFile); err != nil {
		log.Fatalf("Error saving plot: %v", err)
	}

	log.Printf("Saved %d pose path to %s", len(path), *outFile)
}
