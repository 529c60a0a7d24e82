package tracker

import (
	"sync"

	"github.com/swdee/go-autopark/geom"
)

// Trail is a bounded history of the positions the virtual vehicle has been
// drawn at, used to render the driven track behind the car
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// points in the order they were added
	points []geom.Point
	sync.Mutex
}

// NewTrail returns a new trail history.  Size is the maximum length of the
// trail to maintain.
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		points: make([]geom.Point, 0, size),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.points = t.points[:0]
}

// Add appends the position of the pose to the history, dropping the oldest
// point once the size is exceeded.  Repeated positions are not recorded.
func (t *Trail) Add(pose geom.Pose) {
	t.Lock()
	defer t.Unlock()

	p := pose.Pos()

	if n := len(t.points); n > 0 && t.points[n-1] == p {
		return
	}

	t.points = append(t.points, p)

	// check if history is exceeded and drop oldest point
	if len(t.points) > t.size {
		t.points = t.points[1:]
	}
}

// Points returns a copy of the point history
func (t *Trail) Points() []geom.Point {
	t.Lock()
	defer t.Unlock()

	return append([]geom.Point(nil), t.points...)
}
