// internal/server/handlers/places.go

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/place"
)

// PlaceFinder resolves location names typed into the search box
type PlaceFinder interface {
	Autocomplete(ctx context.Context, input string) ([]place.Prediction, error)
	PlaceLocation(ctx context.Context, placeID string) (geo.Location, error)
}

// PlacesHandler handles maps provider HTTP requests
type PlacesHandler struct {
	places PlaceFinder
}

// NewPlacesHandler creates a new places handler
func NewPlacesHandler(places PlaceFinder) *PlacesHandler {
	return &PlacesHandler{
		places: places,
	}
}

// Autocomplete returns location predictions for the search box
func (h *PlacesHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.places.Autocomplete(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to get predictions", err)
		return
	}

	respondWithJSON(w, http.StatusOK, predictions)
}

// GetPlace returns the coordinates of a selected prediction
func (h *PlacesHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	location, err := h.places.PlaceLocation(r.Context(), placeID)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			respondWithError(w, http.StatusNotFound, "Place not found", nil)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to get place", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"place_id": placeID,
		"location": location,
	})
}
