package store

import (
	"database/sql"
	"fmt"
)

// System playlist ids. Fixed strings rather than generated ids so re-seeding
// an existing library never creates a second copy.
const (
	SystemFavoritesID     = "system.favorites"
	SystemRecentlyAddedID = "system.recently-added"
	SystemMostPlayedID    = "system.most-played"
)

type seedPlaylist struct {
	id       string
	name     string
	criteria string
	order    int
}

// Default smart playlists. The criteria payloads are serialized
// smart.Criteria values; the format is owned by internal/smart.
var defaultPlaylists = []seedPlaylist{
	{
		id:       SystemFavoritesID,
		name:     "Favorites",
		criteria: `{"match":"all","rules":[{"field":"favorite","op":"eq","value":true}],"sort":{"field":"title"}}`,
		order:    0,
	},
	{
		id:       SystemRecentlyAddedID,
		name:     "Recently Added",
		criteria: `{"match":"all","rules":[],"sort":{"field":"date_added","desc":true},"limit":100}`,
		order:    1,
	},
	{
		id:       SystemMostPlayedID,
		name:     "Most Played",
		criteria: `{"match":"all","rules":[{"field":"play_count","op":"gt","value":0}],"sort":{"field":"play_count","desc":true},"limit":50}`,
		order:    2,
	},
}

// backfillSearchIndex repairs the full-text shadow table after restoring a
// database that predates it. The triggers keep it in sync from then on, so
// the backfill only runs when the index is completely empty; a partial index
// is impossible because index rows are only ever written inside the same
// transaction as their track rows.
func (s *Store) backfillSearchIndex() error {
	var indexed int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM track_search").Scan(&indexed); err != nil {
		return fmt.Errorf("failed to count search rows: %w", err)
	}
	if indexed > 0 {
		return nil
	}

	var tracks int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&tracks); err != nil {
		return fmt.Errorf("failed to count tracks: %w", err)
	}
	if tracks == 0 {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO track_search(rowid, title, artist, album, album_artist, composer, genre, year)
		SELECT id, title, artist, album, album_artist, composer, genre, CAST(year AS TEXT)
		FROM tracks
	`)
	if err != nil {
		return fmt.Errorf("failed to backfill search index: %w", err)
	}

	s.logger.WithField("tracks", tracks).Info("backfilled full-text search index")
	return nil
}

// seedDefaults inserts the default smart playlists and pinned shortcuts on
// first run. First run is detected by an empty playlists table, so the whole
// setup is idempotent: a second call is a no-op.
func (s *Store) seedDefaults() error {
	var existing int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM playlists").Scan(&existing); err != nil {
		return fmt.Errorf("failed to count playlists: %w", err)
	}
	if existing > 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		for _, p := range defaultPlaylists {
			if _, err := tx.Exec(`
				INSERT INTO playlists (id, name, type, is_user_editable, is_content_editable, smart_criteria, sort_order)
				VALUES (?, ?, ?, 0, 0, ?, ?)
			`, p.id, p.name, PlaylistSmart, p.criteria, p.order); err != nil {
				return fmt.Errorf("failed to seed playlist %s: %w", p.name, err)
			}

			if _, err := tx.Exec(`
				INSERT INTO pinned_items (item_type, playlist_id, display_name, sort_position)
				VALUES (?, ?, ?, ?)
			`, PinPlaylist, p.id, p.name, p.order); err != nil {
				return fmt.Errorf("failed to seed pinned item %s: %w", p.name, err)
			}
		}

		s.logger.WithField("playlists", len(defaultPlaylists)).Info("seeded default smart playlists")
		return nil
	})
}
