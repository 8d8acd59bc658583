// internal/domain/listing/filter.go

package listing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned for filter sets that can never be satisfied or are malformed
var ErrInvalidFilter = errors.New("invalid filter")

// SortMode defines the order of search results
type SortMode string

const (
	SortNearest   SortMode = "nearest"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
)

// ParseSortMode accepts the API values and the labels used by the filter bar.
// An empty string selects SortNearest.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest", "terdekat", "rekomen":
		return SortNearest, nil
	case "price_asc", "harga terendah":
		return SortPriceAsc, nil
	case "price_desc", "harga tertinggi":
		return SortPriceDesc, nil
	}
	return "", fmt.Errorf("%w: unknown sort mode %q", ErrInvalidFilter, s)
}

// FilterSet is the set of constraints applied to listings found within the search radius.
// A zero MinPrice or MaxPrice means that side of the price range is unbounded.
type FilterSet struct {
	PremiumOnly bool        `json:"premium"`
	RoomType    RoomType    `json:"room_type,omitempty"`
	PricePeriod PricePeriod `json:"price_period,omitempty"`
	MinPrice    int64       `json:"min_price"`
	MaxPrice    int64       `json:"max_price"`
	Facilities  []string    `json:"facilities,omitempty"`
	Sort        SortMode    `json:"sort"`
}

// Validate normalizes the filter set and checks it against the facility catalog
func (f *FilterSet) Validate(catalog *FacilityCatalog) error {
	if f.Sort == "" {
		f.Sort = SortNearest
	}
	switch f.Sort {
	case SortNearest, SortPriceAsc, SortPriceDesc:
	default:
		return fmt.Errorf("%w: unknown sort mode %q", ErrInvalidFilter, f.Sort)
	}

	if f.RoomType != "" {
		rt, err := ParseRoomType(string(f.RoomType))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.RoomType = rt
	}

	if f.PricePeriod != "" {
		pp, err := ParsePricePeriod(string(f.PricePeriod))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.PricePeriod = pp
	}

	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidFilter)
	}
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return fmt.Errorf("%w: minimum price %d exceeds maximum price %d", ErrInvalidFilter, f.MinPrice, f.MaxPrice)
	}

	if catalog != nil {
		for _, name := range f.Facilities {
			if !catalog.Contains(name) {
				return fmt.Errorf("%w: unknown facility %q", ErrInvalidFilter, name)
			}
		}
	}

	return nil
}

// IsDefault reports whether no constraint is active. Sort order is not a constraint.
func (f FilterSet) IsDefault() bool {
	return f.ActiveCount() == 0
}

// ActiveCount returns the number of active constraints, as shown on the filter button
func (f FilterSet) ActiveCount() int {
	count := 0
	if f.PremiumOnly {
		count++
	}
	if f.RoomType != "" {
		count++
	}
	if f.PricePeriod != "" {
		count++
	}
	if f.MinPrice > 0 {
		count++
	}
	if f.MaxPrice > 0 {
		count++
	}
	if len(f.Facilities) > 0 {
		count++
	}
	return count
}

// Matches checks a single listing against every constraint
func (f FilterSet) Matches(l Listing) bool {
	if f.PremiumOnly && !l.Premium {
		return false
	}
	if f.RoomType != "" && !strings.EqualFold(string(l.RoomType), string(f.RoomType)) {
		return false
	}
	if f.PricePeriod != "" && !strings.EqualFold(string(l.PricePeriod), string(f.PricePeriod)) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	return l.HasFacilities(f.Facilities)
}

// Apply returns the listings matching the filter set, preserving order
func (f FilterSet) Apply(listings []Listing) []Listing {
	filtered := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
