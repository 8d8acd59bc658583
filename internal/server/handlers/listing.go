// internal/server/handlers/listing.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/domain/place"
	geoService "kosbaliku/internal/service/geo"
	"kosbaliku/internal/service/search"
)

// TravelPlanner looks up road travel between two points
type TravelPlanner interface {
	TravelInfo(ctx context.Context, origin, destination geo.Location) (*listing.TravelInfo, error)
}

// ListingHandlerConfig contains limits for listing endpoints
type ListingHandlerConfig struct {
	Limits          geo.RadiusLimits
	PageSize        int
	SuggestionLimit int
	ShowcaseLimit   int
	TravelWorkers   int
}

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	store   listing.Store
	fetcher search.ListingFetcher
	travel  TravelPlanner
	catalog *listing.FacilityCatalog
	config  ListingHandlerConfig
	logger  *zap.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(
	store listing.Store,
	fetcher search.ListingFetcher,
	travel TravelPlanner,
	catalog *listing.FacilityCatalog,
	config ListingHandlerConfig,
	logger *zap.Logger,
) *ListingHandler {
	if config.Limits == (geo.RadiusLimits{}) {
		config.Limits = geo.DefaultRadiusLimits()
	}
	if config.SuggestionLimit <= 0 {
		config.SuggestionLimit = 5
	}
	if config.ShowcaseLimit <= 0 {
		config.ShowcaseLimit = 8
	}
	if config.TravelWorkers <= 0 {
		config.TravelWorkers = 4
	}
	if catalog == nil {
		catalog = listing.DefaultFacilityCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ListingHandler{
		store:   store,
		fetcher: fetcher,
		travel:  travel,
		catalog: catalog,
		config:  config,
		logger:  logger,
	}
}

// nearbyResponse is one page of a nearby search
type nearbyResponse struct {
	*search.Page
	RadiusKm float64            `json:"radius_km"`
	Zoom     int                `json:"zoom"`
	Empty    *search.EmptyState `json:"empty,omitempty"`
}

// GetNearby returns one page of listings around a location
func (h *ListingHandler) GetNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	center, err := parseLocation(q, "lat", "lng")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", err)
		return
	}

	radius, err := parseFloat(q, "radius", h.config.Limits.Default)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
		return
	}
	radius = h.config.Limits.Clamp(radius)

	page, err := parseInt(q, "page", 1)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page", err)
		return
	}

	filters, err := parseFilters(q)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid filters", err)
		return
	}
	if err := filters.Validate(h.catalog); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid filters", err)
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), search.Query{
		Center:   center,
		RadiusKm: radius,
		Filters:  filters,
	}, page, h.config.PageSize)
	if err != nil {
		respondWithError(w, statusFor(err), "Gagal memuat data kos", err)
		return
	}

	if q.Get("travel") == "true" {
		h.attachTravel(r.Context(), center, result.Items)
	}

	response := nearbyResponse{
		Page:     result,
		RadiusKm: radius,
		Zoom:     geoService.ZoomForRadius(radius),
	}
	if result.TotalCount == 0 {
		response.Empty = search.DescribeEmpty(search.ClassifyEmpty(result.CandidateCount, filters), filters)
	}

	respondWithJSON(w, http.StatusOK, response)
}

// attachTravel looks up travel info for each listing concurrently.
// Listings whose lookup fails are left without travel info.
func (h *ListingHandler) attachTravel(ctx context.Context, origin geo.Location, items []listing.Listing) {
	if h.travel == nil || len(items) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.TravelWorkers)

	for i := range items {
		item := &items[i]
		g.Go(func() error {
			info, err := h.travel.TravelInfo(ctx, origin, item.Coordinates)
			if err != nil {
				h.logger.Debug("travel lookup failed",
					zap.String("listing_id", item.ID),
					zap.Error(err),
				)
				return nil
			}
			item.Travel = info
			return nil
		})
	}

	_ = g.Wait()
}

// GetPremium returns the newest premium listings
func (h *ListingHandler) GetPremium(w http.ResponseWriter, r *http.Request) {
	h.showcase(w, r, true)
}

// GetRecommended returns the newest regular listings
func (h *ListingHandler) GetRecommended(w http.ResponseWriter, r *http.Request) {
	h.showcase(w, r, false)
}

func (h *ListingHandler) showcase(w http.ResponseWriter, r *http.Request, premium bool) {
	limit, err := parseInt(r.URL.Query(), "limit", h.config.ShowcaseLimit)
	if err != nil || limit <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	listings, err := h.store.ListShowcase(r.Context(), premium, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list listings", err)
		return
	}

	respondWithJSON(w, http.StatusOK, listings)
}

// GetSuggestions returns listings whose name matches the search box input
func (h *ListingHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithJSON(w, http.StatusOK, []listing.Suggestion{})
		return
	}

	suggestions, err := h.store.SuggestByName(r.Context(), query, h.config.SuggestionLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get suggestions", err)
		return
	}

	respondWithJSON(w, http.StatusOK, suggestions)
}

// GetListing returns the detail page data for a listing slug
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadDetail(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// GetTravel returns the road distance from a location to a listing
func (h *ListingHandler) GetTravel(w http.ResponseWriter, r *http.Request) {
	origin, err := parseLocation(r.URL.Query(), "lat", "lng")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Lokasi tidak valid", err)
		return
	}

	detail, ok := h.loadDetail(w, r)
	if !ok {
		return
	}

	if h.travel == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Travel lookup unavailable", nil)
		return
	}

	info, err := h.travel.TravelInfo(r.Context(), origin, detail.Coordinates)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			respondWithError(w, http.StatusNotFound, "Route not found", nil)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to get travel info", err)
		return
	}

	respondWithJSON(w, http.StatusOK, info)
}

func (h *ListingHandler) loadDetail(w http.ResponseWriter, r *http.Request) (*listing.Detail, bool) {
	id, ok := listing.IDFromSlug(chi.URLParam(r, "slug"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid listing slug", nil)
		return nil, false
	}

	detail, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Kos tidak ditemukan.", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get listing", err)
		}
		return nil, false
	}

	if h.catalog != nil && len(detail.RoomFacilities) == 0 && len(detail.EnvironmentFacilities) == 0 {
		detail.RoomFacilities, detail.EnvironmentFacilities = h.catalog.Split(detail.Facilities)
	}

	return detail, true
}

// GetFacilities returns the facility catalog
func (h *ListingHandler) GetFacilities(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Facilities())
}
