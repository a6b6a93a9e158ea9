// Package query provides the read-side projections over the library: category
// enumeration, category-scoped track listing, and full-text search. All
// queries honor a global duplicate-exclusion toggle.
package query

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
	"github.com/franz/cadenza/internal/util"
)

// Filter categories
const (
	FilterArtist = "artist"
	FilterAlbum  = "album"
	FilterGenre  = "genre"
	FilterYear   = "year"
)

// Placeholder values surfaced for tracks with an empty category field
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown Genre"
	UnknownYear   = "Unknown Year"
)

// Service answers read queries against the store
type Service struct {
	store  *store.Store
	logger *logrus.Logger

	// ExcludeDuplicates hides tracks flagged as duplicates from every query
	// when true. Toggled globally, not per call.
	ExcludeDuplicates bool
}

// New creates a query service with duplicate exclusion enabled
func New(st *store.Store, logger *logrus.Logger) *Service {
	return &Service{store: st, logger: logger, ExcludeDuplicates: true}
}

// dupClause returns the SQL fragment that hides duplicates, with its leading
// AND, or an empty string when the toggle is off
func (s *Service) dupClause() string {
	if s.ExcludeDuplicates {
		return " AND is_duplicate = 0"
	}
	return ""
}

// AllTracks returns the whole library in display order
func (s *Service) AllTracks() ([]store.Track, error) {
	return s.store.QueryTracks("WHERE 1=1" + s.dupClause() + " ORDER BY sort_artist, album, disc_no, track_no, sort_title")
}

// DistinctValues enumerates the values of a filter category. The unknown
// placeholder for the category appears last, and only when at least one
// track actually has the field empty.
func (s *Service) DistinctValues(filterType string) ([]string, error) {
	var column, placeholder string
	switch filterType {
	case FilterArtist:
		// Enumerate canonical artists, not raw credit strings, so a track
		// credited to "A & B" contributes both names.
		return s.distinctArtists()
	case FilterAlbum:
		column, placeholder = "album", UnknownAlbum
	case FilterGenre:
		column, placeholder = "genre", UnknownGenre
	case FilterYear:
		column, placeholder = "year", UnknownYear
	default:
		return nil, fmt.Errorf("%w: unknown filter type %q", util.ErrNotFound, filterType)
	}

	empty := fmt.Sprintf("%s = '' OR %s IS NULL", column, column)
	if filterType == FilterYear {
		empty = "year = 0"
	}

	rows, err := s.store.DB().Query(fmt.Sprintf(`
		SELECT DISTINCT CAST(%s AS TEXT) FROM tracks
		WHERE NOT (%s)%s ORDER BY 1
	`, column, empty, s.dupClause()))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s values: %w", filterType, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	occupied, err := s.hasEmpty(empty)
	if err != nil {
		return nil, err
	}
	if occupied {
		values = append(values, placeholder)
	}
	return values, nil
}

func (s *Service) distinctArtists() ([]string, error) {
	rows, err := s.store.DB().Query(`
		SELECT DISTINCT a.name
		FROM artists a
		JOIN track_artists ta ON ta.artist_id = a.id
		JOIN tracks t ON t.id = ta.track_id
		WHERE ta.role = ?` + s.dupClause() + `
		ORDER BY a.name`, store.RoleArtist)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate artists: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	occupied, err := s.hasEmpty("artist = '' OR artist IS NULL")
	if err != nil {
		return nil, err
	}
	if occupied {
		names = append(names, UnknownArtist)
	}
	return names, nil
}

// hasEmpty reports whether any visible track matches the empty-field clause
func (s *Service) hasEmpty(emptyClause string) (bool, error) {
	var n int
	err := s.store.DB().QueryRow(
		"SELECT COUNT(*) FROM tracks WHERE (" + emptyClause + ")" + s.dupClause(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count unfiled tracks: %w", err)
	}
	return n > 0, nil
}

// TracksByFilter returns the tracks matching one value of a filter category.
// The artist filter resolves through the credit relation, so a track credited
// to several artists is found under each of them. Passing the category's
// unknown placeholder returns the tracks whose field is empty.
func (s *Service) TracksByFilter(filterType, value string) ([]store.Track, error) {
	switch filterType {
	case FilterArtist:
		if value == UnknownArtist {
			return s.store.QueryTracks("WHERE (artist = '' OR artist IS NULL)" + s.dupClause() + " ORDER BY sort_title")
		}
		return s.store.QueryTracks(`WHERE id IN (
			SELECT ta.track_id FROM track_artists ta
			JOIN artists a ON a.id = ta.artist_id
			WHERE ta.role = '`+store.RoleArtist+`' AND a.name_norm = ?
		)`+s.dupClause()+" ORDER BY album, disc_no, track_no", meta.NormalizeName(value))
	case FilterAlbum:
		if value == UnknownAlbum {
			return s.store.QueryTracks("WHERE (album = '' OR album IS NULL)" + s.dupClause() + " ORDER BY sort_title")
		}
		return s.store.QueryTracks("WHERE album = ?"+s.dupClause()+" ORDER BY disc_no, track_no", value)
	case FilterGenre:
		if value == UnknownGenre {
			return s.store.QueryTracks("WHERE (genre = '' OR genre IS NULL)" + s.dupClause() + " ORDER BY sort_artist, sort_title")
		}
		return s.store.QueryTracks(`WHERE id IN (
			SELECT tg.track_id FROM track_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE g.name_norm = ?
		)`+s.dupClause()+" ORDER BY sort_artist, sort_title", meta.NormalizeName(value))
	case FilterYear:
		if value == UnknownYear {
			return s.store.QueryTracks("WHERE year = 0" + s.dupClause() + " ORDER BY sort_artist, sort_title")
		}
		return s.store.QueryTracks("WHERE CAST(year AS TEXT) = ?"+s.dupClause()+" ORDER BY sort_artist, album, track_no", value)
	}
	return nil, fmt.Errorf("%w: unknown filter type %q", util.ErrNotFound, filterType)
}

// Search runs a full-text query against the search index and returns matching
// tracks. The query is passed to the index as a prefix match per term.
func (s *Service) Search(queryText string) ([]store.Track, error) {
	match := buildMatchQuery(queryText)
	if match == "" {
		return nil, nil
	}
	return s.store.QueryTracks(`WHERE id IN (
		SELECT rowid FROM track_search WHERE track_search MATCH ?
	)`+s.dupClause()+" ORDER BY sort_artist, sort_title", match)
}

// buildMatchQuery quotes each term and adds a prefix wildcard, so raw user
// input cannot inject index query syntax
func buildMatchQuery(queryText string) string {
	terms := strings.Fields(queryText)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
	}
	return strings.Join(quoted, " ")
}

// Stats summarizes the visible library
type Stats struct {
	Tracks     int
	Artists    int
	Albums     int
	Genres     int
	Playlists  int
	Duplicates int
	SizeBytes  int64
}

// LibraryStats returns entity counts and total file size
func (s *Service) LibraryStats() (*Stats, error) {
	stats := &Stats{}
	row := s.store.DB().QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM tracks),
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM albums),
			(SELECT COUNT(*) FROM genres),
			(SELECT COUNT(*) FROM playlists),
			(SELECT COUNT(*) FROM tracks WHERE is_duplicate = 1),
			(SELECT COALESCE(SUM(size_bytes), 0) FROM tracks)
	`)
	err := row.Scan(&stats.Tracks, &stats.Artists, &stats.Albums, &stats.Genres,
		&stats.Playlists, &stats.Duplicates, &stats.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read library stats: %w", err)
	}
	return stats, nil
}
