package planner

import (
	"github.com/swdee/go-autopark/geom"
)

// Follower is a cursor that hands out the poses of a path one per tick,
// strictly forward
type Follower struct {
	path   geom.Path
	idx    int
	active bool
}

// Start resets the cursor to the beginning of path and activates the
// follower
func (f *Follower) Start(path geom.Path) {
	f.path = path
	f.idx = 0
	f.active = true
}

// Step returns the pose at the cursor and advances it.  Once the path is
// exhausted the follower becomes inactive and false is returned on every
// call until it is started again.
func (f *Follower) Step() (geom.Pose, bool) {

	if !f.active || f.idx >= len(f.path) {
		f.active = false
		return geom.Pose{}, false
	}

	pose := f.path[f.idx]
	f.idx++

	return pose, true
}

// Stop deactivates the follower and drops its path
func (f *Follower) Stop() {
	f.path = nil
	f.idx = 0
	f.active = false
}

// Finish moves the cursor past the end of the path
func (f *Follower) Finish() {
	f.idx = len(f.path)
	f.active = false
}

// Active reports whether Step may still return poses
func (f *Follower) Active() bool {
	return f.active && f.idx < len(f.path)
}

// Index returns the cursor position
func (f *Follower) Index() int {
	return f.idx
}

// Len returns the length of the followed path
func (f *Follower) Len() int {
	return len(f.path)
}

// Path returns the path being followed
func (f *Follower) Path() geom.Path {
	return f.path
}

// Progress returns the fraction of the path consumed in the range [0,1]
func (f *Follower) Progress() float64 {

	if len(f.path) == 0 {
		return 0
	}

	p := float64(f.idx) / float64(len(f.path))

	if p > 1 {
		return 1
	}

	return p
}
