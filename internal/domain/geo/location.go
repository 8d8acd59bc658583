// internal/domain/geo/location.go

package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned for missing or out-of-range coordinates
var ErrInvalidLocation = errors.New("invalid location")

// Location represents a geographic point
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Validate checks that the coordinates are finite and within range
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return fmt.Errorf("%w: coordinates must be numeric", ErrInvalidLocation)
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidLocation, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Bounds is a rectangular map area in degrees
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Viewport describes the visible map area by its center and north-east corner
type Viewport struct {
	Center    Location `json:"center"`
	NorthEast Location `json:"north_east"`
}

// Viewport converts the bounds to a center + north-east corner pair
func (b Bounds) Viewport() Viewport {
	return Viewport{
		Center: Location{
			Latitude:  (b.North + b.South) / 2,
			Longitude: (b.East + b.West) / 2,
		},
		NorthEast: Location{Latitude: b.North, Longitude: b.East},
	}
}

// RadiusLimits bounds the search radius in kilometers
type RadiusLimits struct {
	Min     float64
	Max     float64
	Default float64
}

// DefaultRadiusLimits returns the limits used by the search view
func DefaultRadiusLimits() RadiusLimits {
	return RadiusLimits{Min: 1, Max: 50, Default: 5}
}

// Clamp forces a radius into [Min, Max]
func (l RadiusLimits) Clamp(radiusKm float64) float64 {
	if math.IsNaN(radiusKm) {
		return l.Default
	}
	return math.Min(l.Max, math.Max(l.Min, radiusKm))
}

// RoundRadius rounds a radius to one decimal place
func RoundRadius(radiusKm float64) float64 {
	return math.Round(radiusKm*10) / 10
}
