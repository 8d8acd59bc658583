package search_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
	geoService "kosbaliku/internal/service/geo"
	"kosbaliku/internal/service/search"
)

var denpasar = geo.Location{Latitude: -8.670458, Longitude: 115.212629}

// memoryStore finds listings with the haversine distance, like the PostGIS store
type memoryStore struct {
	mu          sync.Mutex
	listings    []listing.Listing
	hidden      map[string]bool
	findErr     error
	loadErr     error
	findCalls   int
	loadCalls   int
	duplicateID string
}

func (s *memoryStore) FindWithinRadius(ctx context.Context, center geo.Location, radiusKm float64) ([]listing.Proximity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}

	var results []listing.Proximity
	for _, l := range s.listings {
		d := geoService.Distance(center, l.Coordinates)
		if d <= radiusKm {
			results = append(results, listing.Proximity{ID: l.ID, DistanceKm: d})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceKm == results[j].DistanceKm {
			return results[i].ID < results[j].ID
		}
		return results[i].DistanceKm < results[j].DistanceKm
	})

	if s.duplicateID != "" {
		for _, r := range results {
			if r.ID == s.duplicateID {
				results = append(results, r)
				break
			}
		}
	}

	return results, nil
}

func (s *memoryStore) GetListingsByIDs(ctx context.Context, ids []string) ([]listing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadCalls++
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []listing.Listing
	// reverse order so callers cannot rely on it
	for i := len(s.listings) - 1; i >= 0; i-- {
		l := s.listings[i]
		if wanted[l.ID] && !s.hidden[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

// northOf places a listing dist km north of denpasar
func northOf(id string, distKm float64, price int64) listing.Listing {
	return listing.Listing{
		ID:          id,
		Name:        "Kos " + id,
		Coordinates: geo.Location{Latitude: denpasar.Latitude + distKm/111.19492664455873, Longitude: denpasar.Longitude},
		RoomType:    listing.RoomTypeMixed,
		Available:   true,
		Price:       price,
		PricePeriod: listing.PeriodMonthly,
		Facilities:  []string{"Wi-Fi"},
	}
}

// spreadListings returns n listings at increasing distance with prices that are not distance-ordered
func spreadListings(n int) []listing.Listing {
	out := make([]listing.Listing, 0, n)
	for i := 0; i < n; i++ {
		price := int64(500000 + ((i*7)%n)*50000)
		out = append(out, northOf(fmt.Sprintf("kos-%02d", i), 0.1+float64(i)*0.15, price))
	}
	return out
}

// pageFetcher serves scripted pages and can block until released
type pageFetcher struct {
	mu      sync.Mutex
	pages   map[int]*search.Page
	err     error
	calls   []fetchCall
	block   map[int]chan struct{}
	started chan fetchCall
}

type fetchCall struct {
	Query search.Query
	Page  int
}

func newPageFetcher() *pageFetcher {
	return &pageFetcher{
		pages:   make(map[int]*search.Page),
		block:   make(map[int]chan struct{}),
		started: make(chan fetchCall, 16),
	}
}

func (f *pageFetcher) Fetch(ctx context.Context, q search.Query, page, pageSize int) (*search.Page, error) {
	f.mu.Lock()
	call := fetchCall{Query: q, Page: page}
	f.calls = append(f.calls, call)
	gate := f.block[page]
	f.mu.Unlock()

	f.started <- call

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[page]; ok {
		return p, nil
	}
	return &search.Page{Items: []listing.Listing{}, Page: page, PageSize: pageSize}, nil
}

func (f *pageFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *pageFetcher) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{})
	f.block[page] = ch
	return ch
}

func (f *pageFetcher) callCount(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c.Page == page {
			n++
		}
	}
	return n
}

func (f *pageFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[len(f.calls)-1]
}
