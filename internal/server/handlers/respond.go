// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code < 500 {
		response["detail"] = err.Error()
	}

	respondWithJSON(w, code, response)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, geo.ErrInvalidLocation), errors.Is(err, listing.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, listing.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// parseLocation reads lat and lng query parameters
func parseLocation(q url.Values, latKey, lngKey string) (geo.Location, error) {
	latStr := q.Get(latKey)
	lngStr := q.Get(lngKey)

	if latStr == "" || lngStr == "" {
		return geo.Location{}, fmt.Errorf("%w: missing location parameters", geo.ErrInvalidLocation)
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: invalid latitude", geo.ErrInvalidLocation)
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: invalid longitude", geo.ErrInvalidLocation)
	}

	location := geo.Location{Latitude: lat, Longitude: lng}
	return location, location.Validate()
}

// parseFloat reads an optional float parameter
func parseFloat(q url.Values, key string, defaultValue float64) (float64, error) {
	valueStr := q.Get(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return value, nil
}

// parseInt reads an optional integer parameter
func parseInt(q url.Values, key string, defaultValue int) (int, error) {
	valueStr := q.Get(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// parseFilters reads the filter set from query parameters
func parseFilters(q url.Values) (listing.FilterSet, error) {
	var filters listing.FilterSet
	var err error

	if premiumStr := q.Get("premium"); premiumStr != "" {
		filters.PremiumOnly, err = strconv.ParseBool(premiumStr)
		if err != nil {
			return filters, fmt.Errorf("%w: invalid premium flag", listing.ErrInvalidFilter)
		}
	}

	filters.RoomType = listing.RoomType(q.Get("type"))
	filters.PricePeriod = listing.PricePeriod(q.Get("period"))

	for key, dest := range map[string]*int64{"min_price": &filters.MinPrice, "max_price": &filters.MaxPrice} {
		if valueStr := q.Get(key); valueStr != "" {
			*dest, err = strconv.ParseInt(valueStr, 10, 64)
			if err != nil {
				return filters, fmt.Errorf("%w: invalid %s", listing.ErrInvalidFilter, key)
			}
		}
	}

	if facilitiesStr := q.Get("facilities"); facilitiesStr != "" {
		for _, f := range strings.Split(facilitiesStr, ",") {
			if f = strings.TrimSpace(f); f != "" {
				filters.Facilities = append(filters.Facilities, f)
			}
		}
	}

	filters.Sort, err = listing.ParseSortMode(q.Get("sort"))
	if err != nil {
		return filters, err
	}

	return filters, nil
}
