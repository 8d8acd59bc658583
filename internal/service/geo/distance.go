// internal/service/geo/distance.go

package geo

import (
	"math"

	"kosbaliku/internal/domain/geo"
)

// EarthRadiusKm is the mean Earth radius used by all distance calculations
const EarthRadiusKm = 6371.0

// FinestZoom is returned for non-positive radii
const FinestZoom = 15

// zoomBand maps the largest radius covered by a band to its zoom level
type zoomBand struct {
	maxRadiusKm float64
	zoom        int
}

// zoomBands must stay sorted by maxRadiusKm with non-increasing zoom
var zoomBands = []zoomBand{
	{0.5, 15},
	{1, 14},
	{2, 13},
	{5, 12},
	{10, 11},
	{20, 10},
	{35, 9},
	{50, 8},
}

// ZoomForRadius maps a search radius to a discrete map zoom level.
// Radii beyond the widest band use that band's zoom.
func ZoomForRadius(radiusKm float64) int {
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return FinestZoom
	}

	for _, band := range zoomBands {
		if radiusKm <= band.maxRadiusKm {
			return band.zoom
		}
	}

	return zoomBands[len(zoomBands)-1].zoom
}

// DistanceKm calculates the great-circle distance between two points in kilometers
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert latitude and longitude from degrees to radians
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	// Haversine formula
	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(phi1)*math.Cos(phi2)*vSin

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Distance is DistanceKm for two locations
func Distance(a, b geo.Location) float64 {
	return DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// IsWithinRadius checks if a location lies within radiusKm of the center
func IsWithinRadius(location, center geo.Location, radiusKm float64) bool {
	return Distance(location, center) <= radiusKm
}

// BoundsFromCenter computes the map bounds enclosing a circle around center
func BoundsFromCenter(center geo.Location, radiusKm float64) geo.Bounds {
	latChange := (radiusKm / EarthRadiusKm) * (180 / math.Pi)
	lngChange := (radiusKm / (EarthRadiusKm * math.Cos(center.Latitude*math.Pi/180))) * (180 / math.Pi)

	return geo.Bounds{
		North: center.Latitude + latChange,
		South: center.Latitude - latChange,
		East:  center.Longitude + lngChange,
		West:  center.Longitude - lngChange,
	}
}

// RadiusFromBounds approximates the radius of the circle inscribed in a viewport.
// The center-to-corner distance is the half diagonal, so it is divided by √2.
func RadiusFromBounds(viewport *geo.Viewport, limits geo.RadiusLimits) float64 {
	if viewport == nil {
		return limits.Default
	}

	diagonal := Distance(viewport.Center, viewport.NorthEast)
	return limits.Clamp(diagonal / math.Sqrt2)
}
