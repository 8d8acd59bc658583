// internal/service/search/orderedset.go

package search

import "kosbaliku/internal/domain/listing"

// orderedSet accumulates listings in arrival order, keyed by ID.
// The first instance of an ID keeps its position; later duplicates are ignored.
type orderedSet struct {
	index map[string]struct{}
	items []listing.Listing
}

func newOrderedSet() *orderedSet {
	return &orderedSet{
		index: make(map[string]struct{}),
	}
}

// add appends listings not seen before and returns how many were added
func (s *orderedSet) add(listings ...listing.Listing) int {
	added := 0
	for _, l := range listings {
		if _, exists := s.index[l.ID]; exists {
			continue
		}
		s.index[l.ID] = struct{}{}
		s.items = append(s.items, l)
		added++
	}
	return added
}

func (s *orderedSet) len() int {
	return len(s.items)
}

// snapshot returns a copy that is safe to hand out
func (s *orderedSet) snapshot() []listing.Listing {
	out := make([]listing.Listing, len(s.items))
	copy(out, s.items)
	return out
}

func (s *orderedSet) reset() {
	s.index = make(map[string]struct{})
	s.items = nil
}
