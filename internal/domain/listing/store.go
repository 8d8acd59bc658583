// internal/domain/listing/store.go

package listing

import (
	"context"

	"kosbaliku/internal/domain/geo"
)

// RadiusFinder finds listings around a point, nearest first
type RadiusFinder interface {
	FindWithinRadius(ctx context.Context, center geo.Location, radiusKm float64) ([]Proximity, error)
}

// DetailLoader loads full listing records for a set of IDs. Order of the result is unspecified.
type DetailLoader interface {
	GetListingsByIDs(ctx context.Context, ids []string) ([]Listing, error)
}

// Store is the complete read surface of the listing database
type Store interface {
	RadiusFinder
	DetailLoader

	// GetListing returns the detail page data for a listing
	GetListing(ctx context.Context, id string) (*Detail, error)

	// SuggestByName returns listings whose name contains the query
	SuggestByName(ctx context.Context, query string, limit int) ([]Suggestion, error)

	// ListShowcase returns the newest premium or non-premium listings
	ListShowcase(ctx context.Context, premium bool, limit int) ([]Listing, error)
}
