// internal/domain/place/place.go

package place

import (
	"context"
	"errors"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
)

// ErrPlaceNotFound is returned when the maps provider does not know a place or route
var ErrPlaceNotFound = errors.New("place not found")

// Prediction is one autocomplete suggestion from the maps provider
type Prediction struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text"`
}

// Provider defines the maps provider operations used by search
type Provider interface {
	// Autocomplete returns predictions for a partial location name
	Autocomplete(ctx context.Context, input string) ([]Prediction, error)

	// PlaceLocation resolves a place ID to coordinates
	PlaceLocation(ctx context.Context, placeID string) (geo.Location, error)

	// TravelInfo returns road distance and duration between two points
	TravelInfo(ctx context.Context, origin, destination geo.Location) (*listing.TravelInfo, error)
}
