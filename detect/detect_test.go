package detect

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-autopark/geom"
	"gocv.io/x/gocv"
)

func TestDummySlots(t *testing.T) {

	slots := DummySlots(1280, 720)
	require.Len(t, slots, 3)

	wantCenters := []geom.Point{{X: 896, Y: 468}, {X: 384, Y: 396}, {X: 704, Y: 324}}

	for i, s := range slots {
		assert.Equal(t, i+1, s.ID)
		assert.Len(t, s.Polygon, 4)
		assert.InDelta(t, wantCenters[i].X, s.Center.X, 1)
		assert.InDelta(t, wantCenters[i].Y, s.Center.Y, 1)
	}

	// layout follows the frame size
	small := DummySlots(640, 360)
	require.Len(t, small, 3)
	assert.InDelta(t, 448, small[0].Center.X, 1)
}

func TestDummyDetect(t *testing.T) {

	img := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer img.Close()

	slots, err := NewDummy().Detect(img)
	require.NoError(t, err)
	assert.Equal(t, DummySlots(1280, 720), slots)
}

func TestCalculateOverlap(t *testing.T) {

	// identical boxes
	assert.InDelta(t, 1.0, calculateOverlap(0, 0, 9, 9, 0, 0, 9, 9), 1e-6)

	// disjoint boxes
	assert.Zero(t, calculateOverlap(0, 0, 9, 9, 20, 20, 29, 29))

	// half overlap of 10x10 boxes, 50 / 150
	assert.InDelta(t, 1.0/3.0, calculateOverlap(0, 0, 9, 9, 5, 0, 14, 9), 1e-6)
}

func TestQuickSortIndiceInverse(t *testing.T) {

	probs := []float32{0.2, 0.9, 0.5, 0.7}
	idx := []int{0, 1, 2, 3}

	quickSortIndiceInverse(probs, 0, len(probs)-1, idx)

	assert.Equal(t, []float32{0.9, 0.7, 0.5, 0.2}, probs)
	assert.Equal(t, []int{1, 3, 2, 0}, idx)
}

func TestDecodeOutput(t *testing.T) {

	// 3 anchors, 2 classes, 2 mask coefficients, channel major
	pred := []float32{
		100, 0, 0, // cx
		100, 0, 0, // cy
		20, 5, 5, // w
		10, 5, 5, // h
		0.1, 0.8, 0.0, // class 0
		0.9, 0.6, 0.4, // class 1
		1, 7, 7, // coeff 0
		2, 7, 7, // coeff 1
	}

	c := decodeOutput(pred, 3, 2, 2, 1, 0.5)

	require.Equal(t, 1, c.count())
	assert.Equal(t, []float32{90, 95, 20, 10}, c.boxes)
	assert.Equal(t, []float32{0.9}, c.probs)
	assert.Equal(t, []int{1}, c.classIDs)
	assert.Equal(t, []float32{1, 2}, c.coeffs)

	// short tensors decode to nothing
	assert.Zero(t, decodeOutput(pred[:10], 3, 2, 2, 1, 0.5).count())
}

func TestSelectResultsSuppressesOverlaps(t *testing.T) {

	p := DefaultSegmentParams()
	p.PrototypeChannel = 1

	s := &Segment{Params: p}

	c := &candidates{
		boxes: []float32{
			5, 5, 100, 100,
			0, 0, 100, 100,
			300, 300, 50, 50,
		},
		probs:    []float32{0.8, 0.9, 0.7},
		classIDs: []int{1, 1, 1},
		coeffs:   []float32{2, 1, 3},
	}

	results, coeffs := s.selectResults(c)

	require.Len(t, results, 2)
	assert.Equal(t, BoxRect{Left: 0, Top: 0, Right: 100, Bottom: 100}, results[0].Box)
	assert.Equal(t, float32(0.9), results[0].Probability)
	assert.Equal(t, BoxRect{Left: 300, Top: 300, Right: 350, Bottom: 350}, results[1].Box)
	assert.Equal(t, []float32{1, 3}, coeffs)
	assert.Equal(t, float32(0.7), results[1].Probability)

	// source probabilities are untouched by the sort
	assert.Equal(t, []float32{0.8, 0.9, 0.7}, c.probs)

	empty, _ := s.selectResults(&candidates{})
	assert.Empty(t, empty)
}

func TestMatmulMask(t *testing.T) {

	// two prototype channels over a 4 pixel mask
	proto := []float32{
		1, -1, 1, -1,
		1, 1, -1, -1,
	}
	coeffs := []float32{
		1, 1, // box 0
		-1, 0, // box 1
	}

	out := make([]uint8, 8)
	matmulMask(coeffs, proto, 2, 2, 4, out)

	assert.Equal(t, []uint8{255, 0, 0, 0, 0, 255, 0, 255}, out)
}

func TestLargestContour(t *testing.T) {

	mask := gocv.Zeros(120, 160, gocv.MatTypeCV8U)
	defer mask.Close()

	gocv.Rectangle(&mask, image.Rect(10, 10, 60, 40), white, -1)
	gocv.Rectangle(&mask, image.Rect(100, 100, 110, 105), white, -1)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	poly := largestContour(contours, 300)
	require.Len(t, poly, 4)
	assert.InDelta(t, 1500, geom.PolygonArea(poly), 1)

	assert.Nil(t, largestContour(contours, 2000))
}

func TestBufferPool(t *testing.T) {

	pool := newBufferPool()
	require.NoError(t, pool.Create("a", 16))
	assert.Error(t, pool.Create("a", 16))

	buf := pool.Get("a", 8)
	assert.Len(t, buf, 8)

	buf[0] = 9
	pool.Put("a", buf)

	// reused buffers are zeroed
	again := pool.Get("a", 16)
	assert.Len(t, again, 16)
	assert.Equal(t, uint8(0), again[0])

	// oversize requests are allocated directly
	assert.Len(t, pool.Get("a", 32), 32)

	assert.Panics(t, func() { pool.Get("missing", 1) })
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
