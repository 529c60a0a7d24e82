package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-autopark/geom"
)

func TestCenterFilterFirstObservation(t *testing.T) {

	kf := NewCenterFilter(4, 2, 8)

	_, ok := kf.Estimate()
	assert.False(t, ok)

	assert.Error(t, kf.Update(geom.Pt(1, 1)))

	got, err := kf.Observe(geom.Pt(300, 200))
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(300, 200), got)
}

func TestCenterFilterDampsJump(t *testing.T) {

	kf := NewCenterFilter(4, 2, 8)

	for i := 0; i < 10; i++ {
		_, err := kf.Observe(geom.Pt(100, 100))
		require.NoError(t, err)
	}

	got, err := kf.Observe(geom.Pt(140, 100))
	require.NoError(t, err)

	assert.Greater(t, got.X, 100.0)
	assert.Less(t, got.X, 140.0)
	assert.InDelta(t, 100, got.Y, 1e-6)
}

func TestCenterFilterFollowsConstantVelocity(t *testing.T) {

	kf := NewCenterFilter(4, 2, 8)

	var got geom.Point
	var err error

	for i := 0; i < 40; i++ {
		got, err = kf.Observe(geom.Pt(float64(10*i), 50))
		require.NoError(t, err)
	}

	assert.InDelta(t, 390, got.X, 1)
	assert.InDelta(t, 50, got.Y, 1e-6)

	kf.Reset()
	_, ok := kf.Estimate()
	assert.False(t, ok)
}

func TestContinuitySmoothedTarget(t *testing.T) {

	c := NewContinuity(DefaultMaxJump)

	_, ok := c.Target()
	assert.False(t, ok)

	c.Seed(box(1, 400, 400))

	// without a filter the target is the anchor
	target, ok := c.Target()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(400, 400), target)

	c.Smooth(NewCenterFilter(4, 2, 8))
	c.Seed(box(1, 400, 400))
	c.Observe([]geom.Slot{box(2, 400, 400)})
	c.Observe([]geom.Slot{box(3, 460, 400)})

	anchor, _ := c.Anchor()
	assert.Equal(t, geom.Pt(460, 400), anchor)

	target, _ = c.Target()
	assert.Greater(t, target.X, 400.0)
	assert.Less(t, target.X, 460.0)

	c.Reset()
	_, ok = c.Target()
	assert.False(t, ok)
}
