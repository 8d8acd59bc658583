// internal/domain/listing/model.go

package listing

import (
	"errors"
	"fmt"
	"strings"

	"kosbaliku/internal/domain/geo"
)

// ErrNotFound is returned when a listing does not exist
var ErrNotFound = errors.New("listing not found")

// RoomType identifies who may rent rooms in a kos
type RoomType string

const (
	RoomTypeMale   RoomType = "putra"
	RoomTypeFemale RoomType = "putri"
	RoomTypeMixed  RoomType = "campur"
)

// ParseRoomType accepts the stored values and their English aliases
func ParseRoomType(s string) (RoomType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "putra", "male":
		return RoomTypeMale, nil
	case "putri", "female":
		return RoomTypeFemale, nil
	case "campur", "mixed":
		return RoomTypeMixed, nil
	}
	return "", fmt.Errorf("unknown room type %q", s)
}

// PricePeriod is the unit a price is quoted for
type PricePeriod string

const (
	PeriodWeekly  PricePeriod = "mingguan"
	PeriodMonthly PricePeriod = "bulanan"
	PeriodYearly  PricePeriod = "tahunan"
)

// ParsePricePeriod accepts the stored values, their short forms and English aliases
func ParsePricePeriod(s string) (PricePeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mingguan", "minggu", "weekly":
		return PeriodWeekly, nil
	case "bulanan", "bulan", "monthly":
		return PeriodMonthly, nil
	case "tahunan", "tahun", "yearly":
		return PeriodYearly, nil
	}
	return "", fmt.Errorf("unknown price period %q", s)
}

// TravelInfo is the road distance and duration between a search origin and a listing
type TravelInfo struct {
	DistanceText    string `json:"distance_text"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationText    string `json:"duration_text"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// Listing is the read-only projection of a kos used by search and cards
type Listing struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	Coordinates geo.Location `json:"coordinates"`
	RoomType    RoomType     `json:"room_type"`
	Available   bool         `json:"available"`
	Premium     bool         `json:"premium"`
	Price       int64        `json:"price"`
	PricePeriod PricePeriod  `json:"price_period"`
	Facilities  []string     `json:"facilities"`
	Images      []string     `json:"images"`
	DistanceKm  *float64     `json:"distance_km,omitempty"`
	Travel      *TravelInfo  `json:"travel,omitempty"`
}

// HasFacilities reports whether the listing offers every required facility
func (l Listing) HasFacilities(required []string) bool {
	if len(required) == 0 {
		return true
	}

	offered := make(map[string]struct{}, len(l.Facilities))
	for _, f := range l.Facilities {
		offered[f] = struct{}{}
	}

	for _, f := range required {
		if _, ok := offered[f]; !ok {
			return false
		}
	}
	return true
}

// Proximity is one row of a radius search
type Proximity struct {
	ID         string
	DistanceKm float64
}

// Owner holds the contact details shown on the detail page
type Owner struct {
	Name      string `json:"name"`
	Instagram string `json:"instagram,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Detail is a listing with everything the detail page needs
type Detail struct {
	Listing
	Address               string   `json:"address"`
	Rules                 string   `json:"rules"`
	Notes                 string   `json:"notes"`
	Owner                 *Owner   `json:"owner,omitempty"`
	RoomFacilities        []string `json:"room_facilities"`
	EnvironmentFacilities []string `json:"environment_facilities"`
	Slug                  string   `json:"slug"`
}

// Suggestion is a listing name match for the search box
type Suggestion struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Slug    string `json:"slug"`
}
