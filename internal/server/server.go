// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"kosbaliku/internal/config"
	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/server/handlers"
	"kosbaliku/internal/service/search"
)

// Dependencies are the services exposed over HTTP
type Dependencies struct {
	Store    listing.Store
	Fetcher  search.ListingFetcher
	Sessions *search.SessionManager
	Places   PlacesService
	Catalog  *listing.FacilityCatalog
	NATS     *nats.Conn
	Logger   *zap.Logger
}

// PlacesService is the maps gateway used by the API
type PlacesService interface {
	handlers.PlaceFinder
	handlers.TravelPlanner
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, searchCfg config.SearchConfig, deps Dependencies) *Server {
	router := NewRouter(cfg, searchCfg, deps)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, searchCfg config.SearchConfig, deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	if cfg.AccessLog {
		router.Use(RequestLogger(logger))
	}
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limits := geo.RadiusLimits{
		Min:     searchCfg.MinRadius,
		Max:     searchCfg.MaxRadius,
		Default: searchCfg.DefaultRadius,
	}

	// Create handler dependencies
	var travel handlers.TravelPlanner
	if deps.Places != nil {
		travel = deps.Places
	}

	listingHandler := handlers.NewListingHandler(
		deps.Store,
		deps.Fetcher,
		travel,
		deps.Catalog,
		handlers.ListingHandlerConfig{
			Limits:          limits,
			PageSize:        searchCfg.PageSize,
			SuggestionLimit: searchCfg.SuggestionLimit,
			ShowcaseLimit:   searchCfg.ShowcaseLimit,
		},
		logger,
	)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions)
	geoHandler := handlers.NewGeoHandler(limits)

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Listings API
			r.Route("/listings", func(r chi.Router) {
				r.Get("/nearby", listingHandler.GetNearby)
				r.Get("/premium", listingHandler.GetPremium)
				r.Get("/recommended", listingHandler.GetRecommended)
				r.Get("/suggestions", listingHandler.GetSuggestions)
				r.Get("/{slug}", listingHandler.GetListing)
				r.Get("/{slug}/travel", listingHandler.GetTravel)
			})

			r.Get("/facilities", listingHandler.GetFacilities)

			// Search sessions API
			r.Route("/search/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.CreateSession)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", sessionHandler.GetSession)
					r.Delete("/", sessionHandler.CloseSession)
					r.Put("/filters", sessionHandler.UpdateFilters)
					r.Put("/sort", sessionHandler.UpdateSort)
					r.Put("/center", sessionHandler.UpdateCenter)
					r.Post("/more", sessionHandler.LoadMore)
					r.Post("/camera", sessionHandler.MoveCamera)
					r.Post("/scan", sessionHandler.ScanArea)
				})
			})

			// Places API
			if deps.Places != nil {
				placesHandler := handlers.NewPlacesHandler(deps.Places)
				r.Route("/places", func(r chi.Router) {
					r.Get("/autocomplete", placesHandler.Autocomplete)
					r.Get("/{placeID}", placesHandler.GetPlace)
				})
			}

			// Geo API
			r.Route("/geo", func(r chi.Router) {
				r.Get("/zoom", geoHandler.GetZoom)
				r.Get("/bounds", geoHandler.GetBounds)
			})
		})
	})

	// WebSocket endpoint for live search state
	if deps.NATS != nil {
		router.Get("/ws/search/{id}", handlers.SearchWebSocketHandler(deps.NATS, deps.Sessions, logger))
	}

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
