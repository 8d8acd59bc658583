// internal/service/search/viewport.go

package search

import (
	"context"
	"sync"

	"kosbaliku/internal/domain/geo"
	geoService "kosbaliku/internal/service/geo"
)

// Camera is the map camera position
type Camera struct {
	Center geo.Location `json:"center"`
	Zoom   int          `json:"zoom"`
}

// RadiusSetter receives confirmed radius changes
type RadiusSetter interface {
	SetRadius(ctx context.Context, radiusKm float64) error
}

// Viewport reconciles map camera movements with the search radius.
// Camera moves only update the display radius; ScanArea applies it.
type Viewport struct {
	limits geo.RadiusLimits

	mu       sync.Mutex
	camera   Camera
	radiusKm float64
	moves    uint64
}

// NewViewport creates a viewport at the default radius
func NewViewport(limits geo.RadiusLimits) *Viewport {
	if limits == (geo.RadiusLimits{}) {
		limits = geo.DefaultRadiusLimits()
	}

	return &Viewport{
		limits:   limits,
		radiusKm: limits.Default,
	}
}

// FocusOn positions the camera on a search center at the zoom matching the radius
func (v *Viewport) FocusOn(center geo.Location, radiusKm float64) Camera {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.camera = Camera{Center: center, Zoom: geoService.ZoomForRadius(radiusKm)}
	v.radiusKm = v.limits.Clamp(radiusKm)
	v.moves++
	return v.camera
}

// Move records a camera change and returns the radius implied by the visible area.
// It never triggers a search.
func (v *Viewport) Move(camera Camera, visible *geo.Viewport) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.camera = camera
	v.radiusKm = geoService.RadiusFromBounds(visible, v.limits)
	v.moves++
	return v.radiusKm
}

// DisplayRadius returns the last radius computed from the viewport
func (v *Viewport) DisplayRadius() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.radiusKm
}

// Camera returns the current camera position
func (v *Viewport) Camera() Camera {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.camera
}

// ScanArea confirms the displayed radius as the search radius.
// The camera saved before the refetch is restored unless it moved in the meantime.
// The returned camera is the one in place afterwards.
func (v *Viewport) ScanArea(ctx context.Context, target RadiusSetter) (Camera, float64, error) {
	v.mu.Lock()
	saved := v.camera
	moves := v.moves
	radius := v.limits.Clamp(geo.RoundRadius(v.radiusKm))
	v.mu.Unlock()

	err := target.SetRadius(ctx, radius)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.moves == moves {
		v.camera = saved
		v.radiusKm = radius
	}
	return v.camera, radius, err
}
