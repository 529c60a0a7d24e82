package tracker

import (
	"log"

	"github.com/swdee/go-autopark/geom"
)

// DefaultMaxJump is the largest distance in pixels the tracked slot center
// may move between two detection cycles and still be treated as the same
// slot
const DefaultMaxJump = 120.0

// Continuity re-identifies the user's slot across detection cycles while
// reversing.  Detector ids are not stable between cycles so identity is
// derived from the distance between the new slot centers and the anchor,
// the center of the last accepted slot.
type Continuity struct {
	maxDist2 float64
	anchor   geom.Point
	slot     geom.Slot
	hasSlot  bool
	// filter optionally smooths the guide target
	filter *CenterFilter
	target geom.Point
}

// NewContinuity returns a Continuity tracker that accepts a new slot when
// its center is within maxJump pixels of the anchor
func NewContinuity(maxJump float64) *Continuity {
	return &Continuity{
		maxDist2: maxJump * maxJump,
	}
}

// Smooth enables filtering of the guide target with f, nil disables it
func (c *Continuity) Smooth(f *CenterFilter) {
	c.filter = f
	c.target = c.anchor
}

// Seed sets the anchor and continuation slot, replacing any previous one
func (c *Continuity) Seed(slot geom.Slot) {

	c.slot = slot
	c.anchor = slot.Center
	c.hasSlot = true
	c.target = slot.Center

	if c.filter == nil {
		return
	}

	est, err := c.filter.Observe(slot.Center)

	if err != nil {
		log.Printf("[continuity] guide filter: %v", err)
		c.filter.Initiate(slot.Center)
		return
	}

	c.target = est
}

// Observe feeds a new detection cycle.  The slot nearest to the anchor is
// adopted if there is no continuation yet or it is within the distance
// threshold, otherwise the cycle is discarded and the previous slot kept.
// It returns the current continuation slot.
func (c *Continuity) Observe(slots []geom.Slot) (geom.Slot, bool) {

	if len(slots) == 0 {
		return c.slot, c.hasSlot
	}

	best := -1
	bestDist := 0.0

	for i, s := range slots {
		d := s.Center.Dist2(c.anchor)

		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}

	if !c.hasSlot || bestDist <= c.maxDist2 {
		c.Seed(slots[best])
	}

	return c.slot, c.hasSlot
}

// Slot returns the current continuation slot
func (c *Continuity) Slot() (geom.Slot, bool) {
	return c.slot, c.hasSlot
}

// Anchor returns the center of the last accepted slot
func (c *Continuity) Anchor() (geom.Point, bool) {
	return c.anchor, c.hasSlot
}

// Target returns the point the rear guide is drawn to, the anchor or its
// filtered estimate when smoothing is enabled
func (c *Continuity) Target() (geom.Point, bool) {
	return c.target, c.hasSlot
}

// Reset forgets the anchor and continuation slot
func (c *Continuity) Reset() {

	c.slot = geom.Slot{}
	c.anchor = geom.Point{}
	c.target = geom.Point{}
	c.hasSlot = false

	if c.filter != nil {
		c.filter.Reset()
	}
}
