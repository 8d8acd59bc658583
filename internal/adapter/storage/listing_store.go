// internal/adapter/storage/listing_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kosbaliku/internal/domain/geo"
	"kosbaliku/internal/domain/listing"
)

// listingColumns selects the card projection of a kos. The listed price prefers the monthly rate.
const listingColumns = `
		k.kos_id::text, k.kos_nama, COALESCE(k.kos_lokasi, ''), COALESCE(k.kos_tipe, ''),
		COALESCE(k.kos_avail, false), COALESCE(k.kos_premium, false),
		ST_Y(k.location::geometry) as lat, ST_X(k.location::geometry) as lng,
		COALESCE(h.harga, 0), COALESCE(h.tipe_durasi, ''),
		COALESCE(f.names, '{}'), COALESCE(i.urls, '{}')
`

const listingJoins = `
		LEFT JOIN LATERAL (
			SELECT harga, tipe_durasi
			FROM harga_kos
			WHERE harga_kos.kos_id = k.kos_id
			ORDER BY (lower(tipe_durasi) = 'bulanan') DESC, harga ASC
			LIMIT 1
		) h ON true
		LEFT JOIN LATERAL (
			SELECT array_agg(fa.fasilitas_nama ORDER BY fa.fasilitas_id) AS names
			FROM kos_fasilitas kf
			JOIN fasilitas fa ON fa.fasilitas_id = kf.fasilitas_id
			WHERE kf.kos_id = k.kos_id
		) f ON true
		LEFT JOIN LATERAL (
			SELECT array_agg(url_foto ORDER BY url_foto) AS urls
			FROM kos_images
			WHERE kos_images.kos_id = k.kos_id
		) i ON true
`

// ListingStore implements storage for kos listings
type ListingStore struct {
	db *pgxpool.Pool
}

// NewListingStore creates a new listing store
func NewListingStore(db *pgxpool.Pool) *ListingStore {
	return &ListingStore{
		db: db,
	}
}

// FindWithinRadius returns the IDs and distances of listings within radiusKm, nearest first
func (s *ListingStore) FindWithinRadius(ctx context.Context, center geo.Location, radiusKm float64) ([]listing.Proximity, error) {
	query := `
		SELECT
			k.kos_id::text,
			ST_Distance(k.location, geography(ST_MakePoint($1, $2))) / 1000 as distance_km
		FROM kos k
		WHERE k.location IS NOT NULL
		AND ST_DWithin(k.location, geography(ST_MakePoint($1, $2)), $3 * 1000)
		ORDER BY distance_km ASC, k.kos_id ASC
	`

	rows, err := s.db.Query(ctx, query, center.Longitude, center.Latitude, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	results := []listing.Proximity{}
	for rows.Next() {
		var p listing.Proximity
		if err := rows.Scan(&p.ID, &p.DistanceKm); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return results, nil
}

// GetListingsByIDs loads the card projection of the given listings
func (s *ListingStore) GetListingsByIDs(ctx context.Context, ids []string) ([]listing.Listing, error) {
	if len(ids) == 0 {
		return []listing.Listing{}, nil
	}

	query := `SELECT ` + listingColumns + ` FROM kos k ` + listingJoins + `
		WHERE k.kos_id = ANY($1::uuid[])
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// ListShowcase returns the newest premium or regular listings
func (s *ListingStore) ListShowcase(ctx context.Context, premium bool, limit int) ([]listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM kos k ` + listingJoins + `
		WHERE COALESCE(k.kos_premium, false) = $1
		ORDER BY k.created_at DESC, k.kos_id ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, premium, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// GetListing retrieves the detail page data of a listing
func (s *ListingStore) GetListing(ctx context.Context, id string) (*listing.Detail, error) {
	query := `
		SELECT ` + listingColumns + `,
			COALESCE(k.kos_alamat, ''), COALESCE(k.kos_rule, ''), COALESCE(k.kos_note, ''),
			u.user_name, u.user_ig, u.user_email, u.user_phone,
			COALESCE(c.room, '{}'), COALESCE(c.environment, '{}')
		FROM kos k ` + listingJoins + `
		LEFT JOIN users u ON u.user_id = k.pemilik_id
		LEFT JOIN LATERAL (
			SELECT
				array_agg(fa.fasilitas_nama ORDER BY fa.fasilitas_id) FILTER (WHERE fa.fasilitas_tipe = 'Kamar') AS room,
				array_agg(fa.fasilitas_nama ORDER BY fa.fasilitas_id) FILTER (WHERE fa.fasilitas_tipe = 'Lingkungan') AS environment
			FROM kos_fasilitas kf
			JOIN fasilitas fa ON fa.fasilitas_id = kf.fasilitas_id
			WHERE kf.kos_id = k.kos_id
		) c ON true
		WHERE k.kos_id::text = $1
	`

	var d listing.Detail
	var ownerName, ownerIG, ownerEmail, ownerPhone *string

	row := newListingRow(&d.Listing)
	dest := append(row.dest(),
		&d.Address,
		&d.Rules,
		&d.Notes,
		&ownerName,
		&ownerIG,
		&ownerEmail,
		&ownerPhone,
		&d.RoomFacilities,
		&d.EnvironmentFacilities,
	)

	err := s.db.QueryRow(ctx, query, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, listing.ErrNotFound
		}
		return nil, fmt.Errorf("error getting listing: %w", err)
	}

	row.finish()

	if ownerName != nil {
		d.Owner = &listing.Owner{
			Name:      *ownerName,
			Instagram: deref(ownerIG),
			Email:     deref(ownerEmail),
			Phone:     deref(ownerPhone),
		}
	}

	d.Slug = listing.Slug(d.Name, d.ID)

	return &d, nil
}

// SuggestByName returns listings whose name contains query, case-insensitively
func (s *ListingStore) SuggestByName(ctx context.Context, query string, limit int) ([]listing.Suggestion, error) {
	sql := `
		SELECT k.kos_id::text, k.kos_nama, COALESCE(k.kos_alamat, '')
		FROM kos k
		WHERE k.kos_nama ILIKE '%' || $1 || '%'
		ORDER BY k.kos_nama ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, sql, escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	suggestions := []listing.Suggestion{}
	for rows.Next() {
		var sg listing.Suggestion
		if err := rows.Scan(&sg.ID, &sg.Name, &sg.Address); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		sg.Slug = listing.Slug(sg.Name, sg.ID)
		suggestions = append(suggestions, sg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}

func scanListings(rows pgx.Rows) ([]listing.Listing, error) {
	listings := []listing.Listing{}
	for rows.Next() {
		var l listing.Listing
		row := newListingRow(&l)
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		row.finish()
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// listingRow holds the columns of listingColumns that need conversion after scanning
type listingRow struct {
	l        *listing.Listing
	roomType string
	period   string
	lat, lng *float64
}

func newListingRow(l *listing.Listing) *listingRow {
	return &listingRow{l: l}
}

func (r *listingRow) dest() []interface{} {
	return []interface{}{
		&r.l.ID,
		&r.l.Name,
		&r.l.Location,
		&r.roomType,
		&r.l.Available,
		&r.l.Premium,
		&r.lat,
		&r.lng,
		&r.l.Price,
		&r.period,
		&r.l.Facilities,
		&r.l.Images,
	}
}

// finish normalizes stored vocabulary values. Unknown values are kept lowercased.
func (r *listingRow) finish() {
	if rt, err := listing.ParseRoomType(r.roomType); err == nil {
		r.l.RoomType = rt
	} else {
		r.l.RoomType = listing.RoomType(strings.ToLower(r.roomType))
	}

	if pp, err := listing.ParsePricePeriod(r.period); err == nil {
		r.l.PricePeriod = pp
	} else {
		r.l.PricePeriod = listing.PricePeriod(strings.ToLower(r.period))
	}

	if r.lat != nil && r.lng != nil {
		r.l.Coordinates = geo.Location{Latitude: *r.lat, Longitude: *r.lng}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(s))
}
