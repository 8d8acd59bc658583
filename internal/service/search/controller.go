// internal/service/search/controller.go

package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	geoService "kosbaliku/internal/service/geo"
)

// Status is the state of the search controller
type Status string

const (
	StatusIdle           Status = "idle"
	StatusLoadingInitial Status = "loading-initial"
	StatusLoadingMore    Status = "loading-more"
	StatusError          Status = "error"
	StatusResults        Status = "idle-with-results"
	StatusEmpty          Status = "idle-empty"
)

// Snapshot is an immutable view of the controller state
type Snapshot struct {
	Status      Status            `json:"status"`
	Center      *geo.Location     `json:"center,omitempty"`
	RadiusKm    float64           `json:"radius_km"`
	Zoom        int               `json:"zoom"`
	Filters     listing.FilterSet `json:"filters"`
	ActiveCount int               `json:"active_filter_count"`
	Items       []listing.Listing `json:"items"`
	TotalCount  int               `json:"total_count"`
	HasMore     bool              `json:"has_more"`
	Page        int               `json:"page"`
	Empty       *EmptyState       `json:"empty,omitempty"`
	Error       string            `json:"error,omitempty"`
	Generation  uint64            `json:"generation"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Listener receives a snapshot after every state transition
type Listener func(Snapshot)

// ControllerConfig contains configuration for the search controller
type ControllerConfig struct {
	Limits   geo.RadiusLimits
	PageSize int
	Catalog  *listing.FacilityCatalog
}

// Controller owns the search state of one browsing session.
// At most one fetch is in flight per generation; a reset starts a new generation
// and results of older generations are discarded when they settle.
type Controller struct {
	fetcher ListingFetcher
	config  ControllerConfig
	logger  *zap.Logger

	mu             sync.Mutex
	center         *geo.Location
	radiusKm       float64
	filters        listing.FilterSet
	page           int
	results        *orderedSet
	totalCount     int
	hasMore        bool
	candidateCount int
	status         Status
	empty          *EmptyState
	lastErr        string
	generation     uint64
	inFlight       bool
	updatedAt      time.Time
	listeners      []Listener
}

// NewController creates a new controller in the idle state
func NewController(fetcher ListingFetcher, config ControllerConfig, logger *zap.Logger) *Controller {
	if config.Limits == (geo.RadiusLimits{}) {
		config.Limits = geo.DefaultRadiusLimits()
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Catalog == nil {
		config.Catalog = listing.DefaultFacilityCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		fetcher:   fetcher,
		config:    config,
		logger:    logger,
		radiusKm:  config.Limits.Default,
		filters:   listing.FilterSet{Sort: listing.SortNearest},
		results:   newOrderedSet(),
		status:    StatusIdle,
		updatedAt: time.Now(),
	}
}

// Subscribe registers a listener for state transitions
func (c *Controller) Subscribe(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, listener)
}

// SetCenter moves the search to a new location and refetches from page 1.
// An invalid location is rejected before any state changes.
func (c *Controller) SetCenter(ctx context.Context, center geo.Location) error {
	if err := center.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.center = &center
	return c.resetLocked(ctx)
}

// SetFilters replaces the filter set and refetches from page 1
func (c *Controller) SetFilters(ctx context.Context, filters listing.FilterSet) error {
	if err := filters.Validate(c.config.Catalog); err != nil {
		return err
	}

	c.mu.Lock()
	c.filters = filters
	return c.resetLocked(ctx)
}

// SetSort changes the order and refetches from page 1 instead of resorting in place
func (c *Controller) SetSort(ctx context.Context, mode listing.SortMode) error {
	c.mu.Lock()
	filters := c.filters
	filters.Sort = mode
	if err := filters.Validate(c.config.Catalog); err != nil {
		c.mu.Unlock()
		return err
	}

	c.filters = filters
	return c.resetLocked(ctx)
}

// SetRadius applies a confirmed radius, clamped to the configured limits, and refetches from page 1
func (c *Controller) SetRadius(ctx context.Context, radiusKm float64) error {
	c.mu.Lock()
	c.radiusKm = c.config.Limits.Clamp(radiusKm)
	return c.resetLocked(ctx)
}

// Refresh refetches the current search from page 1
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	return c.resetLocked(ctx)
}

// LoadMore fetches the next page and appends it.
// It is a no-op reporting false when a fetch is in flight or there is nothing more to load.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.inFlight || !c.hasMore || c.center == nil {
		c.mu.Unlock()
		return false, nil
	}

	c.inFlight = true
	c.status = StatusLoadingMore
	c.lastErr = ""
	generation := c.generation
	nextPage := c.page + 1
	query := c.queryLocked()
	snap, listeners := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, snap)

	page, err := c.fetcher.Fetch(ctx, query, nextPage, c.config.PageSize)
	return true, c.settle(generation, nextPage, page, err)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// resetLocked starts a new generation and fetches page 1. c.mu must be held; it is released here.
func (c *Controller) resetLocked(ctx context.Context) error {
	c.generation++
	c.page = 1
	c.results.reset()
	c.totalCount = 0
	c.hasMore = false
	c.candidateCount = 0
	c.empty = nil
	c.lastErr = ""

	if c.center == nil {
		c.inFlight = false
		c.status = StatusIdle
		snap, listeners := c.snapshotLocked(), c.listenersLocked()
		c.mu.Unlock()
		notify(listeners, snap)
		return nil
	}

	c.inFlight = true
	c.status = StatusLoadingInitial
	generation := c.generation
	query := c.queryLocked()
	snap, listeners := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, snap)

	page, err := c.fetcher.Fetch(ctx, query, 1, c.config.PageSize)
	return c.settle(generation, 1, page, err)
}

// settle applies a fetch outcome unless a newer generation has started
func (c *Controller) settle(generation uint64, requested int, page *Page, fetchErr error) error {
	c.mu.Lock()

	if generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded search result",
			zap.Uint64("generation", generation),
			zap.Int("page", requested),
		)
		return fetchErr
	}

	c.inFlight = false

	if fetchErr != nil {
		c.status = StatusError
		c.lastErr = "Gagal memuat data kos. Silakan coba lagi."
		snap, listeners := c.snapshotLocked(), c.listenersLocked()
		c.mu.Unlock()

		c.logger.Warn("search fetch failed",
			zap.Int("page", requested),
			zap.Error(fetchErr),
		)
		notify(listeners, snap)
		return fetchErr
	}

	c.page = requested
	if added := c.results.add(page.Items...); added < len(page.Items) {
		c.logger.Debug("skipped listings already shown",
			zap.Int("page", requested),
			zap.Int("duplicates", len(page.Items)-added),
		)
	}
	c.totalCount = page.TotalCount
	c.hasMore = page.HasMore
	if requested == 1 {
		c.candidateCount = page.CandidateCount
	}

	if c.results.len() == 0 {
		kind := ClassifyEmpty(c.candidateCount, c.filters)
		c.empty = DescribeEmpty(kind, c.filters)
		c.status = StatusEmpty
	} else {
		c.empty = nil
		c.status = StatusResults
	}

	snap, listeners := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, snap)
	return nil
}

func (c *Controller) queryLocked() Query {
	return Query{
		Center:   *c.center,
		RadiusKm: c.radiusKm,
		Filters:  c.filters,
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	c.updatedAt = time.Now()

	var center *geo.Location
	if c.center != nil {
		loc := *c.center
		center = &loc
	}

	filters := c.filters
	filters.Facilities = append([]string(nil), c.filters.Facilities...)

	return Snapshot{
		Status:      c.status,
		Center:      center,
		RadiusKm:    c.radiusKm,
		Zoom:        geoService.ZoomForRadius(c.radiusKm),
		Filters:     filters,
		ActiveCount: c.filters.ActiveCount(),
		Items:       c.results.snapshot(),
		TotalCount:  c.totalCount,
		HasMore:     c.hasMore,
		Page:        c.page,
		Empty:       c.empty,
		Error:       c.lastErr,
		Generation:  c.generation,
		UpdatedAt:   c.updatedAt,
	}
}

func (c *Controller) listenersLocked() []Listener {
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	return listeners
}

func notify(listeners []Listener, snap Snapshot) {
	for _, listener := range listeners {
		listener(snap)
	}
}
