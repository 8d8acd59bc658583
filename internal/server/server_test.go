package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kosbaliku/internal/config"
	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/domain/place"
	geoService "kosbaliku/internal/service/geo"
	"kosbaliku/internal/service/search"
)

var sanur = geo.Location{Latitude: -8.6878, Longitude: 115.2620}

type fakeStore struct {
	listings []listing.Listing
	details  map[string]*listing.Detail
}

func (s *fakeStore) FindWithinRadius(ctx context.Context, center geo.Location, radiusKm float64) ([]listing.Proximity, error) {
	var out []listing.Proximity
	for _, l := range s.listings {
		if d := geoService.Distance(center, l.Coordinates); d <= radiusKm {
			out = append(out, listing.Proximity{ID: l.ID, DistanceKm: d})
		}
	}
	return out, nil
}

func (s *fakeStore) GetListingsByIDs(ctx context.Context, ids []string) ([]listing.Listing, error) {
	var out []listing.Listing
	for _, id := range ids {
		for _, l := range s.listings {
			if l.ID == id {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) GetListing(ctx context.Context, id string) (*listing.Detail, error) {
	d, ok := s.details[id]
	if !ok {
		return nil, listing.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *fakeStore) SuggestByName(ctx context.Context, query string, limit int) ([]listing.Suggestion, error) {
	var out []listing.Suggestion
	for _, l := range s.listings {
		if strings.Contains(strings.ToLower(l.Name), strings.ToLower(query)) && len(out) < limit {
			out = append(out, listing.Suggestion{ID: l.ID, Name: l.Name, Slug: listing.Slug(l.Name, l.ID)})
		}
	}
	return out, nil
}

func (s *fakeStore) ListShowcase(ctx context.Context, premium bool, limit int) ([]listing.Listing, error) {
	var out []listing.Listing
	for _, l := range s.listings {
		if l.Premium == premium && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePlaces struct{}

func (fakePlaces) Autocomplete(ctx context.Context, input string) ([]place.Prediction, error) {
	return []place.Prediction{{PlaceID: "ChIJ-sanur", Description: "Sanur, Denpasar Selatan", MainText: "Sanur"}}, nil
}

func (fakePlaces) PlaceLocation(ctx context.Context, placeID string) (geo.Location, error) {
	if placeID != "ChIJ-sanur" {
		return geo.Location{}, place.ErrPlaceNotFound
	}
	return sanur, nil
}

func (fakePlaces) TravelInfo(ctx context.Context, origin, destination geo.Location) (*listing.TravelInfo, error) {
	if destination.Latitude > -8.66 {
		return nil, errors.New("quota exceeded")
	}
	return &listing.TravelInfo{DistanceText: "2 km", DistanceMeters: 2000, DurationText: "6 menit", DurationSeconds: 360}, nil
}

// listingAt places a listing distKm south of sanur
func listingAt(id, name string, distKm float64, price int64, premium bool) listing.Listing {
	return listing.Listing{
		ID:          id,
		Name:        name,
		Location:    "Sanur, Denpasar",
		Coordinates: geo.Location{Latitude: sanur.Latitude - distKm/111.19492664455873, Longitude: sanur.Longitude},
		RoomType:    listing.RoomTypeFemale,
		Available:   true,
		Premium:     premium,
		Price:       price,
		PricePeriod: listing.PeriodMonthly,
		Facilities:  []string{"AC", "Wi-Fi", "Parkir Motor"},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *fakeStore) {
	t.Helper()

	store := &fakeStore{
		listings: []listing.Listing{
			listingAt("7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4e01", "Kos Melati", 1.5, 1200000, false),
			listingAt("7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4e02", "Kos Kenanga Premium", 0.5, 2500000, true),
			listingAt("7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4e03", "Kos Anggrek", 3, 900000, false),
			listingAt("7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4e04", "Kos Jauh", 20, 600000, false),
		},
	}
	store.details = map[string]*listing.Detail{
		store.listings[0].ID: {Listing: store.listings[0], Address: "Jl. Danau Tamblingan 12", Rules: "Tidak boleh merokok"},
	}

	logger := zap.NewNop()
	limits := geo.DefaultRadiusLimits()
	fetcher := search.NewFetcher(store, store, search.FetcherConfig{PageSize: 2}, logger)

	sessions := search.NewSessionManager(fetcher, nil, search.SessionManagerConfig{
		SessionTTL:      time.Hour,
		JanitorInterval: time.Hour,
		Limits:          limits,
		PageSize:        2,
	}, logger)
	t.Cleanup(func() { sessions.Stop(context.Background()) })

	router := NewRouter(
		config.ServerConfig{CorsOrigins: []string{"*"}, RequestTimeout: 5 * time.Second},
		config.SearchConfig{
			DefaultRadius:   limits.Default,
			MinRadius:       limits.Min,
			MaxRadius:       limits.Max,
			PageSize:        2,
			SuggestionLimit: 5,
			ShowcaseLimit:   8,
		},
		Dependencies{
			Store:    store,
			Fetcher:  fetcher,
			Sessions: sessions,
			Places:   fakePlaces{},
			Catalog:  listing.DefaultFacilityCatalog(),
			Logger:   logger,
		},
	)

	return router, store
}

func doRequest(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func nearbyURL(params url.Values) string {
	params.Set("lat", "-8.6878")
	params.Set("lng", "115.2620")
	return "/api/v1/listings/nearby?" + params.Encode()
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGetNearby(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, nearbyURL(url.Values{}), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items      []listing.Listing `json:"items"`
		TotalCount int               `json:"total_count"`
		HasMore    bool              `json:"has_more"`
		RadiusKm   float64           `json:"radius_km"`
		Zoom       int               `json:"zoom"`
	}
	decode(t, rec, &resp)

	assert.Equal(t, 3, resp.TotalCount)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 5.0, resp.RadiusKm)
	assert.Equal(t, 12, resp.Zoom)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Kos Kenanga Premium", resp.Items[0].Name)
	assert.Equal(t, "Kos Melati", resp.Items[1].Name)
	assert.Nil(t, resp.Items[0].Travel)
}

func TestGetNearbyClampsRadiusAndSorts(t *testing.T) {
	router, _ := newTestRouter(t)

	params := url.Values{}
	params.Set("radius", "120")
	params.Set("sort", "price_asc")
	params.Set("page", "2")
	rec := doRequest(t, router, http.MethodGet, nearbyURL(params), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items    []listing.Listing `json:"items"`
		RadiusKm float64           `json:"radius_km"`
		Zoom     int               `json:"zoom"`
		HasMore  bool              `json:"has_more"`
	}
	decode(t, rec, &resp)

	assert.Equal(t, 50.0, resp.RadiusKm)
	assert.Equal(t, 8, resp.Zoom)
	assert.False(t, resp.HasMore)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(1200000), resp.Items[0].Price)
	assert.Equal(t, int64(2500000), resp.Items[1].Price)
}

func TestGetNearbyFilters(t *testing.T) {
	router, _ := newTestRouter(t)

	params := url.Values{}
	params.Set("premium", "true")
	params.Set("facilities", "AC, Wi-Fi")
	rec := doRequest(t, router, http.MethodGet, nearbyURL(params), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []listing.Listing `json:"items"`
	}
	decode(t, rec, &resp)

	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Premium)
}

func TestGetNearbyEmptyStates(t *testing.T) {
	router, _ := newTestRouter(t)

	type emptyResponse struct {
		TotalCount int                `json:"total_count"`
		Empty      *search.EmptyState `json:"empty"`
	}

	params := url.Values{}
	params.Set("max_price", "500000")
	rec := doRequest(t, router, http.MethodGet, nearbyURL(params), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var filtered emptyResponse
	decode(t, rec, &filtered)
	assert.Zero(t, filtered.TotalCount)
	require.NotNil(t, filtered.Empty)
	assert.Equal(t, search.EmptyFilter, filtered.Empty.Kind)
	assert.Contains(t, filtered.Empty.Detail, "Rp500.000")

	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/nearby?lat=-8.1&lng=115.0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var nothing emptyResponse
	decode(t, rec, &nothing)
	require.NotNil(t, nothing.Empty)
	assert.Equal(t, search.EmptySearch, nothing.Empty.Kind)
}

func TestGetNearbyRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := map[string]string{
		"missing location":  "/api/v1/listings/nearby",
		"latitude range":    "/api/v1/listings/nearby?lat=-95&lng=115",
		"malformed radius":  nearbyURL(url.Values{"radius": {"far"}}),
		"min above max":     nearbyURL(url.Values{"min_price": {"900000"}, "max_price": {"100000"}}),
		"unknown facility":  nearbyURL(url.Values{"facilities": {"Helipad"}}),
		"unknown sort":      nearbyURL(url.Values{"sort": {"random"}}),
		"unknown room type": nearbyURL(url.Values{"type": {"asrama"}}),
		"malformed premium": nearbyURL(url.Values{"premium": {"maybe"}}),
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGetNearbyWithTravel(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, nearbyURL(url.Values{"travel": {"true"}}), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []listing.Listing `json:"items"`
	}
	decode(t, rec, &resp)

	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		require.NotNil(t, item.Travel)
		assert.Equal(t, "6 menit", item.Travel.DurationText)
	}
}

func TestGetListing(t *testing.T) {
	router, store := newTestRouter(t)
	melati := store.listings[0]

	rec := doRequest(t, router, http.MethodGet, "/api/v1/listings/"+listing.Slug(melati.Name, melati.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail listing.Detail
	decode(t, rec, &detail)
	assert.Equal(t, melati.ID, detail.ID)
	assert.Equal(t, "Jl. Danau Tamblingan 12", detail.Address)
	assert.ElementsMatch(t, []string{"AC"}, detail.RoomFacilities)
	assert.ElementsMatch(t, []string{"Wi-Fi", "Parkir Motor"}, detail.EnvironmentFacilities)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/kos-hilang-7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4eff", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTravel(t *testing.T) {
	router, store := newTestRouter(t)
	melati := store.listings[0]

	target := "/api/v1/listings/" + listing.Slug(melati.Name, melati.ID) + "/travel?lat=-8.6700&lng=115.2126"
	rec := doRequest(t, router, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info listing.TravelInfo
	decode(t, rec, &info)
	assert.Equal(t, 2000, info.DistanceMeters)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/"+listing.Slug(melati.Name, melati.ID)+"/travel", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowcaseAndSuggestions(t *testing.T) {
	router, _ := newTestRouter(t)

	var premium []listing.Listing
	rec := doRequest(t, router, http.MethodGet, "/api/v1/listings/premium", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &premium)
	require.Len(t, premium, 1)
	assert.True(t, premium[0].Premium)

	var recommended []listing.Listing
	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/recommended?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &recommended)
	assert.Len(t, recommended, 2)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/recommended?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var suggestions []listing.Suggestion
	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/suggestions?q=melati", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &suggestions)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "kos-melati-7b6f0c3e-1d2a-4c5b-9e8f-0a1b2c3d4e01", suggestions[0].Slug)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/listings/suggestions?q=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetFacilities(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/facilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var facilities []listing.Facility
	decode(t, rec, &facilities)
	assert.Len(t, facilities, 24)
}

func TestPlacesRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/places/autocomplete?input=sanur", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var predictions []place.Prediction
	decode(t, rec, &predictions)
	require.Len(t, predictions, 1)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/places/ChIJ-sanur", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved struct {
		Location geo.Location `json:"location"`
	}
	decode(t, rec, &resolved)
	assert.Equal(t, sanur, resolved.Location)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/places/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeoRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/geo/zoom?radius=0.4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"radius_km": 0.4, "zoom": 15}`, rec.Body.String())

	for _, radius := range []string{"NaN", "Inf", "-Inf"} {
		rec = doRequest(t, router, http.MethodGet, "/api/v1/geo/zoom?radius="+radius, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, radius)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/geo/bounds?lat=-8.6878&lng=115.2620&radius=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Zoom   int        `json:"zoom"`
		Bounds geo.Bounds `json:"bounds"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 11, resp.Zoom)
	assert.Greater(t, resp.Bounds.North, sanur.Latitude)
	assert.Less(t, resp.Bounds.West, sanur.Longitude)
}

func TestSearchSessionFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/search/sessions/", map[string]interface{}{
		"location": "Sanur",
		"lat":      sanur.Latitude,
		"lng":      sanur.Longitude,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	type sessionBody struct {
		ID       string          `json:"id"`
		Location string          `json:"location"`
		Camera   search.Camera   `json:"camera"`
		State    search.Snapshot `json:"state"`
	}

	var created sessionBody
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Sanur", created.Location)
	assert.Equal(t, search.StatusResults, created.State.Status)
	assert.Len(t, created.State.Items, 2)
	assert.True(t, created.State.HasMore)

	base := "/api/v1/search/sessions/" + created.ID

	rec = doRequest(t, router, http.MethodPost, base+"/more", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var more struct {
		Issued bool            `json:"issued"`
		State  search.Snapshot `json:"state"`
	}
	decode(t, rec, &more)
	assert.True(t, more.Issued)
	assert.Len(t, more.State.Items, 3)
	assert.False(t, more.State.HasMore)

	rec = doRequest(t, router, http.MethodPost, base+"/more", nil)
	decode(t, rec, &more)
	assert.False(t, more.Issued)

	rec = doRequest(t, router, http.MethodPut, base+"/sort", map[string]string{"sort": "price_desc"})
	require.Equal(t, http.StatusOK, rec.Code)
	var sorted sessionBody
	decode(t, rec, &sorted)
	assert.Equal(t, 1, sorted.State.Page)
	require.Len(t, sorted.State.Items, 2)
	assert.Equal(t, int64(2500000), sorted.State.Items[0].Price)

	rec = doRequest(t, router, http.MethodPut, base+"/filters", listing.FilterSet{MinPrice: 3000000})
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered sessionBody
	decode(t, rec, &filtered)
	assert.Equal(t, search.StatusEmpty, filtered.State.Status)
	require.NotNil(t, filtered.State.Empty)
	assert.Equal(t, search.EmptyFilter, filtered.State.Empty.Kind)

	rec = doRequest(t, router, http.MethodPut, base+"/filters", listing.FilterSet{MinPrice: 3000000, MaxPrice: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPut, base+"/filters", listing.FilterSet{})
	require.Equal(t, http.StatusOK, rec.Code)

	corner := geo.Location{Latitude: sanur.Latitude + 1.7/111.19492664455873, Longitude: sanur.Longitude}
	rec = doRequest(t, router, http.MethodPost, base+"/camera", map[string]interface{}{
		"camera":   search.Camera{Center: sanur, Zoom: 14},
		"viewport": geo.Viewport{Center: sanur, NorthEast: corner},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var moved struct {
		RadiusKm float64 `json:"radius_km"`
	}
	decode(t, rec, &moved)
	assert.InDelta(t, 1.2, moved.RadiusKm, 0.01)

	rec = doRequest(t, router, http.MethodGet, base, nil)
	var unchanged sessionBody
	decode(t, rec, &unchanged)
	assert.Equal(t, 5.0, unchanged.State.RadiusKm, "moving the camera does not search")

	rec = doRequest(t, router, http.MethodPost, base+"/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scanned struct {
		RadiusKm float64         `json:"radius_km"`
		Camera   search.Camera   `json:"camera"`
		State    search.Snapshot `json:"state"`
	}
	decode(t, rec, &scanned)
	assert.Equal(t, 1.2, scanned.RadiusKm)
	assert.Equal(t, 14, scanned.Camera.Zoom)
	assert.Equal(t, 1.2, scanned.State.RadiusKm)
	assert.Len(t, scanned.State.Items, 1)

	rec = doRequest(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionRejectsInvalidLocation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/search/sessions/", map[string]interface{}{
		"location": "Nowhere",
		"lat":      120.0,
		"lng":      115.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/search/sessions/", map[string]interface{}{
		"location": "Sanur",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
