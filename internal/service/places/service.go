// internal/service/places/service.go

package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	"kosbaliku/internal/domain/place"
)

// Cache stores provider responses
type Cache interface {
	// Get loads a cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ServiceConfig contains configuration for the places service
type ServiceConfig struct {
	AutocompleteTTL time.Duration
	PlaceTTL        time.Duration
	TravelTTL       time.Duration
	MinInputLength  int
	LookupTimeout   time.Duration
}

// Service fronts the maps provider with a cache and collapses identical concurrent lookups
type Service struct {
	provider place.Provider
	cache    Cache
	group    singleflight.Group
	config   ServiceConfig
	logger   *zap.Logger
}

// NewService creates a new places service. cache may be nil.
func NewService(provider place.Provider, cache Cache, config ServiceConfig, logger *zap.Logger) *Service {
	if config.AutocompleteTTL <= 0 {
		config.AutocompleteTTL = time.Hour
	}
	if config.PlaceTTL <= 0 {
		config.PlaceTTL = 24 * time.Hour
	}
	if config.TravelTTL <= 0 {
		config.TravelTTL = 6 * time.Hour
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		provider: provider,
		cache:    cache,
		config:   config,
		logger:   logger,
	}
}

// Autocomplete returns location predictions. Blank or short input returns none without calling the provider.
func (s *Service) Autocomplete(ctx context.Context, input string) ([]place.Prediction, error) {
	input = strings.TrimSpace(input)
	if input == "" || len([]rune(input)) < s.config.MinInputLength {
		return []place.Prediction{}, nil
	}

	key := "places:autocomplete:" + strings.ToLower(input)
	return cached(ctx, s, key, s.config.AutocompleteTTL, func(ctx context.Context) ([]place.Prediction, error) {
		return s.provider.Autocomplete(ctx, input)
	})
}

// PlaceLocation resolves a place ID to coordinates
func (s *Service) PlaceLocation(ctx context.Context, placeID string) (geo.Location, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return geo.Location{}, place.ErrPlaceNotFound
	}

	key := "places:location:" + placeID
	return cached(ctx, s, key, s.config.PlaceTTL, func(ctx context.Context) (geo.Location, error) {
		return s.provider.PlaceLocation(ctx, placeID)
	})
}

// TravelInfo returns the road distance and duration between two points
func (s *Service) TravelInfo(ctx context.Context, origin, destination geo.Location) (*listing.TravelInfo, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("places:travel:%.5f,%.5f:%.5f,%.5f",
		origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	return cached(ctx, s, key, s.config.TravelTTL, func(ctx context.Context) (*listing.TravelInfo, error) {
		return s.provider.TravelInfo(ctx, origin, destination)
	})
}

// cached serves key from the cache or loads it once for all concurrent callers.
// Cache failures are logged and never fail the lookup.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var value T

	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &value)
		if err != nil {
			s.logger.Warn("places cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return value, nil
		}
	}

	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		// The flight outlives the caller that started it
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.LookupTimeout)
		defer cancel()

		loaded, err := load(flightCtx)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Set(flightCtx, key, loaded, ttl); err != nil {
				s.logger.Warn("places cache write failed", zap.String("key", key), zap.Error(err))
			}
		}

		return loaded, nil
	})
	if err != nil {
		return value, err
	}

	if shared {
		s.logger.Debug("places lookup shared", zap.String("key", key))
	}

	return result.(T), nil
}
