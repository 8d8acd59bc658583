// internal/service/search/fetcher.go

package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
)

// DefaultPageSize is used when neither the caller nor the configuration sets one
const DefaultPageSize = 10

// Query describes one nearby-listing search
type Query struct {
	Center   geo.Location      `json:"center"`
	RadiusKm float64           `json:"radius_km"`
	Filters  listing.FilterSet `json:"filters"`
}

// Page is one page of filtered and sorted results
type Page struct {
	Items          []listing.Listing `json:"items"`
	TotalCount     int               `json:"total_count"`
	HasMore        bool              `json:"has_more"`
	CandidateCount int               `json:"candidate_count"`
	Page           int               `json:"page"`
	PageSize       int               `json:"page_size"`
}

// ListingFetcher is the remote listing fetcher used by the controller
type ListingFetcher interface {
	Fetch(ctx context.Context, q Query, page, pageSize int) (*Page, error)
}

// FetcherConfig contains configuration for the fetcher
type FetcherConfig struct {
	PageSize int
}

// Fetcher runs the radius search, detail load, filter, sort and pagination pipeline
type Fetcher struct {
	finder listing.RadiusFinder
	loader listing.DetailLoader
	config FetcherConfig
	logger *zap.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(
	finder listing.RadiusFinder,
	loader listing.DetailLoader,
	config FetcherConfig,
	logger *zap.Logger,
) *Fetcher {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		finder: finder,
		loader: loader,
		config: config,
		logger: logger,
	}
}

// PageSize returns the configured page size
func (f *Fetcher) PageSize() int {
	return f.config.PageSize
}

// Fetch returns one page of listings within the radius that match the filters
func (f *Fetcher) Fetch(ctx context.Context, q Query, page, pageSize int) (*Page, error) {
	if err := q.Center.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = f.config.PageSize
	}

	result := &Page{
		Items:    []listing.Listing{},
		Page:     page,
		PageSize: pageSize,
	}

	candidates, err := f.finder.FindWithinRadius(ctx, q.Center, q.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("error finding listings within radius: %w", err)
	}

	result.CandidateCount = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	records, err := f.loader.GetListingsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading listing details: %w", err)
	}

	listings := joinByDistance(candidates, records)
	if missing := len(candidates) - len(listings); missing > 0 {
		f.logger.Debug("listings missing from detail load",
			zap.Int("candidates", len(candidates)),
			zap.Int("missing", missing),
		)
	}

	filtered := q.Filters.Apply(listings)
	sortListings(filtered, q.Filters.Sort)

	result.TotalCount = len(filtered)

	// Page bounds are derived by division so huge page numbers cannot overflow
	fullPages := len(filtered) / pageSize
	result.HasMore = fullPages > page || (fullPages == page && len(filtered)%pageSize > 0)

	if page-1 < fullPages || (page-1 == fullPages && len(filtered)%pageSize > 0) {
		start := (page - 1) * pageSize
		end := start + pageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		result.Items = filtered[start:end]
	}

	return result, nil
}

// joinByDistance attaches distances to the loaded records and restores the radius search order.
// Candidates without a loaded record are skipped.
func joinByDistance(candidates []listing.Proximity, records []listing.Listing) []listing.Listing {
	byID := make(map[string]listing.Listing, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	joined := make([]listing.Listing, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		r, ok := byID[c.ID]
		if !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		distance := c.DistanceKm
		r.DistanceKm = &distance
		joined = append(joined, r)
	}

	return joined
}

// sortListings orders listings in place. Nearest keeps the distance order.
func sortListings(listings []listing.Listing, mode listing.SortMode) {
	switch mode {
	case listing.SortPriceAsc:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price < listings[j].Price
		})
	case listing.SortPriceDesc:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price > listings[j].Price
		})
	}
}
