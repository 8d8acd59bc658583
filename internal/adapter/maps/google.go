// internal/adapter/maps/google.go

package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gmaps "googlemaps.github.io/maps"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/domain/place"
)

// GoogleConfig contains configuration for the Google Maps provider
type GoogleConfig struct {
	APIKey             string
	RegionCenter       geo.Location
	AutocompleteRadius int // meters
	Country            string
	Language           string
}

// GoogleProvider implements place.Provider with the Google Maps web services
type GoogleProvider struct {
	client *gmaps.Client
	config GoogleConfig
}

// NewGoogleProvider creates a new Google Maps provider
func NewGoogleProvider(config GoogleConfig, options ...gmaps.ClientOption) (*GoogleProvider, error) {
	if config.Country == "" {
		config.Country = "id"
	}
	if config.Language == "" {
		config.Language = "id"
	}

	options = append([]gmaps.ClientOption{gmaps.WithAPIKey(config.APIKey)}, options...)
	client, err := gmaps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create maps client: %w", err)
	}

	return &GoogleProvider{
		client: client,
		config: config,
	}, nil
}

// Autocomplete returns predictions biased to the configured region
func (p *GoogleProvider) Autocomplete(ctx context.Context, input string) ([]place.Prediction, error) {
	req := &gmaps.PlaceAutocompleteRequest{
		Input: input,
		Location: &gmaps.LatLng{
			Lat: p.config.RegionCenter.Latitude,
			Lng: p.config.RegionCenter.Longitude,
		},
		Radius:   uint(p.config.AutocompleteRadius),
		Language: p.config.Language,
		Components: map[gmaps.Component][]string{
			gmaps.ComponentCountry: {p.config.Country},
		},
	}

	resp, err := p.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		if isNotFound(err) {
			return []place.Prediction{}, nil
		}
		return nil, fmt.Errorf("error requesting autocomplete: %w", err)
	}

	predictions := make([]place.Prediction, 0, len(resp.Predictions))
	for _, pr := range resp.Predictions {
		predictions = append(predictions, place.Prediction{
			PlaceID:       pr.PlaceID,
			Description:   pr.Description,
			MainText:      pr.StructuredFormatting.MainText,
			SecondaryText: pr.StructuredFormatting.SecondaryText,
		})
	}

	return predictions, nil
}

// PlaceLocation resolves a place ID to its coordinates
func (p *GoogleProvider) PlaceLocation(ctx context.Context, placeID string) (geo.Location, error) {
	req := &gmaps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: p.config.Language,
		Fields:   []gmaps.PlaceDetailsFieldMask{gmaps.PlaceDetailsFieldMaskGeometry},
	}

	resp, err := p.client.PlaceDetails(ctx, req)
	if err != nil {
		if isNotFound(err) {
			return geo.Location{}, place.ErrPlaceNotFound
		}
		return geo.Location{}, fmt.Errorf("error requesting place details: %w", err)
	}

	return geo.Location{
		Latitude:  resp.Geometry.Location.Lat,
		Longitude: resp.Geometry.Location.Lng,
	}, nil
}

// TravelInfo returns the driving distance and duration between two points
func (p *GoogleProvider) TravelInfo(ctx context.Context, origin, destination geo.Location) (*listing.TravelInfo, error) {
	req := &gmaps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: []string{latLng(destination)},
		Mode:         gmaps.TravelModeDriving,
		Language:     p.config.Language,
	}

	resp, err := p.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error requesting distance matrix: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, place.ErrPlaceNotFound
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, fmt.Errorf("%w: route status %s", place.ErrPlaceNotFound, element.Status)
	}

	return &listing.TravelInfo{
		DistanceText:    element.Distance.HumanReadable,
		DistanceMeters:  element.Distance.Meters,
		DurationText:    FormatDuration(element.Duration),
		DurationSeconds: int64(element.Duration / time.Second),
	}, nil
}

// FormatDuration renders a travel duration as shown on listing cards, e.g. "1 jam 5 menit"
func FormatDuration(d time.Duration) string {
	minutes := int((d + 30*time.Second) / time.Minute)
	if minutes < 1 {
		return "< 1 menit"
	}

	hours, minutes := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d menit", minutes)
	case minutes == 0:
		return fmt.Sprintf("%d jam", hours)
	}
	return fmt.Sprintf("%d jam %d menit", hours, minutes)
}

func latLng(l geo.Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}

// isNotFound matches the status codes the maps client embeds in its errors
func isNotFound(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") ||
		strings.Contains(msg, "ZERO_RESULTS") ||
		strings.Contains(msg, "INVALID_REQUEST")
}
