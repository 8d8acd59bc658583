// internal/server/handlers/geo.go

package handlers

import (
	"net/http"

	"kosbaliku/internal/domain/geo"
	geoService "kosbaliku/internal/service/geo"
)

// GeoHandler handles map geometry HTTP requests
type GeoHandler struct {
	limits geo.RadiusLimits
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(limits geo.RadiusLimits) *GeoHandler {
	return &GeoHandler{
		limits: limits,
	}
}

// GetZoom returns the map zoom level for a search radius
func (h *GeoHandler) GetZoom(w http.ResponseWriter, r *http.Request) {
	radius, err := parseFloat(r.URL.Query(), "radius", h.limits.Default)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"radius_km": radius,
		"zoom":      geoService.ZoomForRadius(radius),
	})
}

// GetBounds returns the map bounds enclosing a search circle
func (h *GeoHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	center, err := parseLocation(q, "lat", "lng")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", err)
		return
	}

	radius, err := parseFloat(q, "radius", h.limits.Default)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
		return
	}
	radius = h.limits.Clamp(radius)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"center":    center,
		"radius_km": radius,
		"zoom":      geoService.ZoomForRadius(radius),
		"bounds":    geoService.BoundsFromCenter(center, radius),
	})
}
