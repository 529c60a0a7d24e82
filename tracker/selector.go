package tracker

import (
	"github.com/swdee/go-autopark/geom"
)

// Selector keeps the set of slots currently drawn on screen and the id of
// the slot chosen by the user.  A Selector is not safe for concurrent use,
// callers hold the session lock.
type Selector struct {
	slots    []geom.Slot
	selected int
	hasSel   bool
}

// NewSelector returns an empty slot selector
func NewSelector() *Selector {
	return &Selector{}
}

// Update replaces the tracked slot set.  If the selected id is not part of
// the new set the selection is cleared.
func (s *Selector) Update(slots []geom.Slot) {

	s.slots = append(s.slots[:0:0], slots...)

	if !s.hasSel {
		return
	}

	if _, ok := s.find(s.selected); !ok {
		s.Clear()
	}
}

// HitTest selects the first slot whose polygon contains the point x,y.
// When no slot matches the selection is cleared and false returned.
func (s *Selector) HitTest(x, y float64) (geom.Slot, bool) {

	p := geom.Pt(x, y)

	for _, slot := range s.slots {
		if slot.Contains(p) {
			s.selected = slot.ID
			s.hasSel = true
			return slot, true
		}
	}

	s.Clear()
	return geom.Slot{}, false
}

// Select forces the selection to the given slot id, returning false if no
// slot in the current set has that id
func (s *Selector) Select(id int) bool {

	if _, ok := s.find(id); !ok {
		return false
	}

	s.selected = id
	s.hasSel = true
	return true
}

// Current returns the selected slot
func (s *Selector) Current() (geom.Slot, bool) {

	if !s.hasSel {
		return geom.Slot{}, false
	}

	return s.find(s.selected)
}

// SelectedID returns the selected slot id
func (s *Selector) SelectedID() (int, bool) {
	return s.selected, s.hasSel
}

// Clear removes the selection
func (s *Selector) Clear() {
	s.selected = 0
	s.hasSel = false
}

// Slots returns a copy of the tracked slot set
func (s *Selector) Slots() []geom.Slot {
	return append([]geom.Slot(nil), s.slots...)
}

func (s *Selector) find(id int) (geom.Slot, bool) {

	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, true
		}
	}

	return geom.Slot{}, false
}
