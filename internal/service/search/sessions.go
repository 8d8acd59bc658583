// internal/service/search/sessions.go

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("search session not found")

// Publisher publishes events to the message bus
type Publisher interface {
	Publish(subject string, data []byte) error
}

// SessionParams is the search context carried by the page URL
type SessionParams struct {
	LocationName string       `json:"location"`
	Center       geo.Location `json:"center"`
	PremiumOnly  bool         `json:"premium"`
}

// Session is one browsing session with its own controller and viewport
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *Controller
	Viewport   *Viewport

	mu           sync.Mutex
	locationName string
	lastActive   time.Time
}

// LocationName returns the name of the searched location
func (s *Session) LocationName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locationName
}

// SetLocationName renames the searched location
func (s *Session) SetLocationName(name string) {
	s.mu.Lock()
	s.locationName = name
	s.mu.Unlock()
}

// LastActive returns the time the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// SessionManagerConfig contains configuration for the session manager
type SessionManagerConfig struct {
	EventsTopic     string
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	MaxSessions     int
	Limits          geo.RadiusLimits
	PageSize        int
	Catalog         *listing.FacilityCatalog
}

// SessionManager hosts search sessions and streams their state to the message bus
type SessionManager struct {
	fetcher  ListingFetcher
	eventBus Publisher
	config   SessionManagerConfig
	logger   *zap.Logger
	sessions sync.Map
	count    int
	countMu  sync.Mutex
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSessionManager creates a new session manager and starts its janitor
func NewSessionManager(
	fetcher ListingFetcher,
	eventBus Publisher,
	config SessionManagerConfig,
	logger *zap.Logger,
) *SessionManager {
	if config.EventsTopic == "" {
		config.EventsTopic = "search"
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 30 * time.Minute
	}
	if config.JanitorInterval <= 0 {
		config.JanitorInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sm := &SessionManager{
		fetcher:  fetcher,
		eventBus: eventBus,
		config:   config,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	sm.wg.Add(1)
	go sm.monitorSessions()

	return sm
}

// StateSubject returns the subject a session's snapshots are published on
func (sm *SessionManager) StateSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.state", sm.config.EventsTopic, sessionID)
}

// Create opens a session and runs its first search
func (sm *SessionManager) Create(ctx context.Context, params SessionParams) (*Session, error) {
	if err := params.Center.Validate(); err != nil {
		return nil, err
	}

	sm.countMu.Lock()
	if sm.config.MaxSessions > 0 && sm.count >= sm.config.MaxSessions {
		sm.countMu.Unlock()
		return nil, fmt.Errorf("maximum of %d search sessions reached", sm.config.MaxSessions)
	}
	sm.count++
	sm.countMu.Unlock()

	now := sm.now()
	s := &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		Viewport:     NewViewport(sm.config.Limits),
		locationName: params.LocationName,
		lastActive:   now,
	}

	s.Controller = NewController(sm.fetcher, ControllerConfig{
		Limits:   sm.config.Limits,
		PageSize: sm.config.PageSize,
		Catalog:  sm.config.Catalog,
	}, sm.logger.With(zap.String("session_id", s.ID)))

	s.Controller.Subscribe(func(snap Snapshot) {
		if err := sm.publishState(s.ID, snap); err != nil {
			sm.logger.Warn("failed to publish session state",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
	})

	sm.sessions.Store(s.ID, s)

	sm.logger.Info("search session created",
		zap.String("session_id", s.ID),
		zap.String("location", params.LocationName),
		zap.Bool("premium", params.PremiumOnly),
	)

	if params.PremiumOnly {
		if err := s.Controller.SetFilters(ctx, listing.FilterSet{PremiumOnly: true}); err != nil {
			sm.Close(s.ID)
			return nil, err
		}
	}

	// A failed first fetch is reported through the session state
	s.Viewport.FocusOn(params.Center, s.Controller.Snapshot().RadiusKm)
	if err := s.Controller.SetCenter(ctx, params.Center); err != nil {
		sm.logger.Warn("initial search failed",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
	}

	return s, nil
}

// Get returns a session and marks it active
func (sm *SessionManager) Get(id string) (*Session, error) {
	value, ok := sm.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s := value.(*Session)
	s.touch(sm.now())
	return s, nil
}

// Touch marks a session active
func (sm *SessionManager) Touch(id string) error {
	_, err := sm.Get(id)
	return err
}

// Close removes a session
func (sm *SessionManager) Close(id string) error {
	if _, loaded := sm.sessions.LoadAndDelete(id); !loaded {
		return ErrSessionNotFound
	}

	sm.countMu.Lock()
	sm.count--
	sm.countMu.Unlock()

	sm.publishClosed(id)
	sm.logger.Info("search session closed", zap.String("session_id", id))
	return nil
}

// Len returns the number of open sessions
func (sm *SessionManager) Len() int {
	sm.countMu.Lock()
	defer sm.countMu.Unlock()

	return sm.count
}

// Stop stops the janitor and waits for it to exit
func (sm *SessionManager) Stop(ctx context.Context) error {
	sm.cancel()

	c := make(chan struct{})
	go func() {
		sm.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// monitorSessions regularly drops idle sessions
func (sm *SessionManager) monitorSessions() {
	defer sm.wg.Done()

	ticker := time.NewTicker(sm.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			sm.expireIdle()
		}
	}
}

// expireIdle closes sessions idle for longer than the TTL and returns how many were closed
func (sm *SessionManager) expireIdle() int {
	cutoff := sm.now().Add(-sm.config.SessionTTL)
	expired := 0

	sm.sessions.Range(func(key, value interface{}) bool {
		s, ok := value.(*Session)
		if !ok {
			return true
		}

		if s.LastActive().Before(cutoff) {
			if err := sm.Close(s.ID); err == nil {
				expired++
			}
		}
		return true
	})

	if expired > 0 {
		sm.logger.Info("expired idle search sessions", zap.Int("count", expired))
	}

	return expired
}

func (sm *SessionManager) publishState(sessionID string, snap Snapshot) error {
	if sm.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":       "state",
		"session_id": sessionID,
		"state":      snap,
	})
	if err != nil {
		return fmt.Errorf("error marshaling session state: %w", err)
	}

	return sm.eventBus.Publish(sm.StateSubject(sessionID), data)
}

func (sm *SessionManager) publishClosed(sessionID string) {
	if sm.eventBus == nil {
		return
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type":       "closed",
		"session_id": sessionID,
		"time":       sm.now(),
	})

	if err := sm.eventBus.Publish(sm.StateSubject(sessionID), data); err != nil {
		sm.logger.Warn("failed to publish session close",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
