// internal/service/search/empty.go

package search

import (
	"strings"

	"kosbaliku/internal/domain/listing"
)

// EmptyKind explains why a search produced no listings
type EmptyKind string

const (
	// EmptySearch means nothing exists within the radius at all
	EmptySearch EmptyKind = "search"
	// EmptyFilter means listings exist within the radius but the active filters exclude them
	EmptyFilter EmptyKind = "filter"
	// EmptyRadius means listings exist within the radius under default filters yet none could be shown
	EmptyRadius EmptyKind = "radius"
)

// EmptyState is the user-facing explanation of an empty result
type EmptyState struct {
	Kind    EmptyKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// ClassifyEmpty decides why a result with no listings is empty
func ClassifyEmpty(candidateCount int, filters listing.FilterSet) EmptyKind {
	switch {
	case candidateCount == 0:
		return EmptySearch
	case !filters.IsDefault():
		return EmptyFilter
	default:
		return EmptyRadius
	}
}

// DescribeEmpty builds the empty-state message for a kind
func DescribeEmpty(kind EmptyKind, filters listing.FilterSet) *EmptyState {
	state := &EmptyState{Kind: kind}

	switch kind {
	case EmptySearch:
		state.Message = "Belum ada kos di lokasi ini. Coba cari di area lain!"
	case EmptyFilter:
		state.Message = "Tidak ada kos yang cocok dengan filter yang dipilih."
		state.Detail = filterDetail(filters)
	case EmptyRadius:
		state.Message = "Tidak ada kos dalam radius pencarianmu. Coba perluas jarak atau cari di lokasi lain."
	default:
		state.Message = "Tidak ada hasil yang ditemukan."
	}

	return state
}

// filterDetail names the active filters that emptied the result
func filterDetail(f listing.FilterSet) string {
	var parts []string
	lead := func(joined, first string) string {
		if len(parts) == 0 {
			return first
		}
		return joined
	}

	if f.RoomType != "" {
		parts = append(parts, "Tidak ada kos "+string(f.RoomType))
	}
	if f.PremiumOnly {
		parts = append(parts, lead("dan tidak ada kos premium", "Tidak ada kos premium"))
	}
	if len(f.Facilities) > 0 {
		parts = append(parts, lead("dengan", "Tidak ada kos dengan")+" fasilitas yang dipilih")
	}

	switch {
	case f.MinPrice > 0 && f.MaxPrice > 0:
		parts = append(parts, lead("dalam rentang harga", "Tidak ada kos dalam rentang harga")+" "+
			listing.FormatRupiah(f.MinPrice)+" - "+listing.FormatRupiah(f.MaxPrice))
	case f.MinPrice > 0:
		parts = append(parts, lead("dengan harga di atas", "Tidak ada kos dengan harga di atas")+" "+
			listing.FormatRupiah(f.MinPrice))
	case f.MaxPrice > 0:
		parts = append(parts, lead("dengan harga di bawah", "Tidak ada kos dengan harga di bawah")+" "+
			listing.FormatRupiah(f.MaxPrice))
	}

	if f.PricePeriod != "" {
		parts = append(parts, lead("untuk", "Tidak ada kos untuk")+" durasi "+string(f.PricePeriod))
	}

	if len(parts) == 0 {
		return "Silakan ubah filter untuk melihat hasil lainnya."
	}

	return strings.Join(parts, " ") + " di lokasi ini."
}
