package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/service/search"
)

type radiusRecorder struct {
	radii  []float64
	err    error
	during func()
}

func (r *radiusRecorder) SetRadius(ctx context.Context, radiusKm float64) error {
	r.radii = append(r.radii, radiusKm)
	if r.during != nil {
		r.during()
	}
	return r.err
}

// visibleArea returns a viewport whose corner lies cornerKm north of the center
func visibleArea(cornerKm float64) *geo.Viewport {
	corner := northOf("corner", cornerKm, 0).Coordinates
	return &geo.Viewport{Center: denpasar, NorthEast: corner}
}

func TestViewportFocusOn(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())

	camera := v.FocusOn(denpasar, 5)

	assert.Equal(t, denpasar, camera.Center)
	assert.Equal(t, 12, camera.Zoom)
	assert.Equal(t, 5.0, v.DisplayRadius())
	assert.Equal(t, camera, v.Camera())
}

func TestViewportMoveDoesNotSearch(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())
	v.FocusOn(denpasar, 5)

	radius := v.Move(search.Camera{Center: denpasar, Zoom: 11}, visibleArea(14.142))

	assert.InDelta(t, 10.0, radius, 0.01)
	assert.InDelta(t, 10.0, v.DisplayRadius(), 0.01)
	assert.Equal(t, 11, v.Camera().Zoom)
}

func TestViewportMoveClampsRadius(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())

	assert.Equal(t, 50.0, v.Move(search.Camera{Center: denpasar, Zoom: 6}, visibleArea(400)))
	assert.Equal(t, 1.0, v.Move(search.Camera{Center: denpasar, Zoom: 18}, visibleArea(0.2)))
	assert.Equal(t, 5.0, v.Move(search.Camera{Center: denpasar, Zoom: 12}, nil))
}

func TestViewportScanArea(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())
	v.FocusOn(denpasar, 5)

	moved := search.Camera{Center: northOf("moved", 3, 0).Coordinates, Zoom: 10}
	v.Move(moved, visibleArea(21.3))

	target := &radiusRecorder{}
	camera, radius, err := v.ScanArea(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, moved, camera, "the camera is restored after the refetch")
	assert.Equal(t, 15.1, radius)
	assert.Equal(t, []float64{15.1}, target.radii)
}

func TestViewportScanAreaKeepsMoveDuringRefetch(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())
	v.FocusOn(denpasar, 5)
	v.Move(search.Camera{Center: denpasar, Zoom: 11}, visibleArea(14.142))

	later := search.Camera{Center: northOf("later", 8, 0).Coordinates, Zoom: 13}
	target := &radiusRecorder{during: func() {
		v.Move(later, visibleArea(2.83))
	}}

	camera, radius, err := v.ScanArea(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, 10.0, radius)
	assert.Equal(t, later, camera)
	assert.Equal(t, later, v.Camera())
	assert.InDelta(t, 2.0, v.DisplayRadius(), 0.01)
}

func TestViewportScanAreaPropagatesError(t *testing.T) {
	v := search.NewViewport(geo.DefaultRadiusLimits())
	v.FocusOn(denpasar, 5)

	target := &radiusRecorder{err: errors.New("fetch failed")}
	camera, radius, err := v.ScanArea(context.Background(), target)

	assert.Error(t, err)
	assert.Equal(t, 5.0, radius)
	assert.Equal(t, denpasar, camera.Center)
}

func TestViewportScanAreaAppliesToController(t *testing.T) {
	store := &memoryStore{listings: spreadListings(25)}
	c := newTestController(newTestFetcher(store))
	require.NoError(t, c.SetCenter(context.Background(), denpasar))

	v := search.NewViewport(geo.DefaultRadiusLimits())
	v.FocusOn(denpasar, c.Snapshot().RadiusKm)

	v.Move(search.Camera{Center: denpasar, Zoom: 14}, visibleArea(1.7))
	assert.Equal(t, 5.0, c.Snapshot().RadiusKm, "moving the map alone does not refetch")

	_, radius, err := v.ScanArea(context.Background(), c)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, radius, snap.RadiusKm)
	assert.Equal(t, 1.2, snap.RadiusKm)
	for _, item := range snap.Items {
		assert.LessOrEqual(t, *item.DistanceKm, 1.2)
	}
}
