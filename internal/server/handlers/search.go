// internal/server/handlers/search.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/service/search"
)

// SessionHandler handles search session HTTP requests
type SessionHandler struct {
	manager *search.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *search.SessionManager) *SessionHandler {
	return &SessionHandler{
		manager: manager,
	}
}

// sessionResponse is the state of a search session
type sessionResponse struct {
	ID       string          `json:"id"`
	Location string          `json:"location"`
	Camera   search.Camera   `json:"camera"`
	State    search.Snapshot `json:"state"`
}

func newSessionResponse(s *search.Session) sessionResponse {
	return sessionResponse{
		ID:       s.ID,
		Location: s.LocationName(),
		Camera:   s.Viewport.Camera(),
		State:    s.Controller.Snapshot(),
	}
}

// CreateSession opens a search session at a location
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	type createSessionRequest struct {
		Location string   `json:"location"`
		Lat      *float64 `json:"lat"`
		Lng      *float64 `json:"lng"`
		Premium  bool     `json:"premium"`
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", geo.ErrInvalidLocation)
		return
	}

	s, err := h.manager.Create(r.Context(), search.SessionParams{
		LocationName: req.Location,
		Center:       geo.Location{Latitude: *req.Lat, Longitude: *req.Lng},
		PremiumOnly:  req.Premium,
	})
	if err != nil {
		if errors.Is(err, geo.ErrInvalidLocation) {
			respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", err)
			return
		}
		respondWithError(w, http.StatusServiceUnavailable, "Failed to create search session", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, newSessionResponse(s))
}

// GetSession returns the current state of a session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, newSessionResponse(s))
}

// UpdateFilters replaces the session's filter set
func (h *SessionHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var filters listing.FilterSet
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.respondAfter(w, s, s.Controller.SetFilters(r.Context(), filters))
}

// UpdateSort changes the session's sort order
func (h *SessionHandler) UpdateSort(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Sort string `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	mode, err := listing.ParseSortMode(req.Sort)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid sort mode", err)
		return
	}

	h.respondAfter(w, s, s.Controller.SetSort(r.Context(), mode))
}

// UpdateCenter moves the session to a new location
func (h *SessionHandler) UpdateCenter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Location string   `json:"location"`
		Lat      *float64 `json:"lat"`
		Lng      *float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", geo.ErrInvalidLocation)
		return
	}

	center := geo.Location{Latitude: *req.Lat, Longitude: *req.Lng}
	if err := center.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", err)
		return
	}

	if req.Location != "" {
		s.SetLocationName(req.Location)
	}
	s.Viewport.FocusOn(center, s.Controller.Snapshot().RadiusKm)

	h.respondAfter(w, s, s.Controller.SetCenter(r.Context(), center))
}

// LoadMore appends the next page of results
func (h *SessionHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	issued, err := s.Controller.LoadMore(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Gagal memuat data kos", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"issued": issued,
		"state":  s.Controller.Snapshot(),
	})
}

// MoveCamera records a map camera change and returns the radius it implies
func (h *SessionHandler) MoveCamera(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Camera   search.Camera `json:"camera"`
		Viewport *geo.Viewport `json:"viewport"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	radius := s.Viewport.Move(req.Camera, req.Viewport)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"radius_km": radius,
	})
}

// ScanArea applies the displayed radius as the search radius
func (h *SessionHandler) ScanArea(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	camera, radius, err := s.Viewport.ScanArea(r.Context(), s.Controller)
	if err != nil {
		respondWithError(w, statusFor(err), "Gagal memuat data kos", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"camera":    camera,
		"radius_km": radius,
		"state":     s.Controller.Snapshot(),
	})
}

// CloseSession ends a session
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(chi.URLParam(r, "id")); err != nil {
		respondWithError(w, http.StatusNotFound, "Search session not found", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*search.Session, bool) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Search session not found", nil)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) respondAfter(w http.ResponseWriter, s *search.Session, err error) {
	if err != nil {
		respondWithError(w, statusFor(err), "Gagal memuat data kos", err)
		return
	}

	respondWithJSON(w, http.StatusOK, newSessionResponse(s))
}
