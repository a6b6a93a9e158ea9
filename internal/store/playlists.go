package store

import (
	"database/sql"
	"fmt"
)

const playlistColumns = `
	id, name, type, is_user_editable, is_content_editable,
	COALESCE(smart_criteria, ''), sort_order, created_at, updated_at`

func scanPlaylist(row rowScanner) (*Playlist, error) {
	p := &Playlist{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Type, &p.IsUserEditable, &p.IsContentEditable,
		&p.SmartCriteria, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlaylists returns every playlist ordered by sort order, then name
func (s *Store) ListPlaylists() ([]Playlist, error) {
	rows, err := s.db.Query("SELECT" + playlistColumns + " FROM playlists ORDER BY sort_order, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

// GetPlaylist retrieves a playlist by id. Returns (nil, nil) when absent.
func (s *Store) GetPlaylist(id string) (*Playlist, error) {
	row := s.db.QueryRow("SELECT"+playlistColumns+" FROM playlists WHERE id = ?", id)
	p, err := scanPlaylist(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return p, nil
}

// InsertPlaylist persists a new playlist row
func (s *Store) InsertPlaylist(p *Playlist) error {
	var criteria any
	if p.SmartCriteria != "" {
		criteria = p.SmartCriteria
	}

	_, err := s.db.Exec(`
		INSERT INTO playlists (id, name, type, is_user_editable, is_content_editable, smart_criteria, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Type, p.IsUserEditable, p.IsContentEditable, criteria, p.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// RenamePlaylist updates a playlist's display name
func (s *Store) RenamePlaylist(id, name string) error {
	_, err := s.db.Exec(`
		UPDATE playlists SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist, its track rows (cascade) and any pinned
// shortcuts referencing it, in one transaction.
func (s *Store) DeletePlaylist(id string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM pinned_items WHERE playlist_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete playlist pins: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM playlists WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}
		return nil
	})
}

// ReplacePlaylistTracks rewrites a playlist's ordered track set in one
// transaction: positions are reassigned densely from 1 so the per-playlist
// position uniqueness always holds. One call per batch mutation.
func (s *Store) ReplacePlaylistTracks(id string, trackIDs []int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM playlist_tracks WHERE playlist_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear playlist tracks: %w", err)
		}

		for i, trackID := range trackIDs {
			if _, err := tx.Exec(`
				INSERT INTO playlist_tracks (playlist_id, track_id, position)
				VALUES (?, ?, ?)
			`, id, trackID, i+1); err != nil {
				return fmt.Errorf("failed to insert playlist track: %w", err)
			}
		}

		if _, err := tx.Exec(`
			UPDATE playlists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, id); err != nil {
			return fmt.Errorf("failed to touch playlist: %w", err)
		}

		return nil
	})
}

// GetPlaylistTrackIDs returns a playlist's track ids in stored display order
func (s *Store) GetPlaylistTrackIDs(id string) ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var trackID int64
		if err := rows.Scan(&trackID); err != nil {
			return nil, err
		}
		ids = append(ids, trackID)
	}
	return ids, rows.Err()
}

// ListPinnedItems returns the pinned shortcuts in sidebar order
func (s *Store) ListPinnedItems() ([]PinnedItem, error) {
	rows, err := s.db.Query(`
		SELECT id, item_type, COALESCE(entity_value, ''), artist_id, album_id,
		       COALESCE(playlist_id, ''), display_name, sort_position
		FROM pinned_items ORDER BY sort_position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned items: %w", err)
	}
	defer rows.Close()

	var items []PinnedItem
	for rows.Next() {
		item := PinnedItem{}
		var artistID, albumID sql.NullInt64
		if err := rows.Scan(
			&item.ID, &item.ItemType, &item.EntityValue, &artistID, &albumID,
			&item.PlaylistID, &item.DisplayName, &item.SortPosition,
		); err != nil {
			return nil, err
		}
		if artistID.Valid {
			item.ArtistID = &artistID.Int64
		}
		if albumID.Valid {
			item.AlbumID = &albumID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// PinItem adds a pinned shortcut at the end of the sidebar
func (s *Store) PinItem(item *PinnedItem) error {
	var maxPos sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(sort_position) FROM pinned_items").Scan(&maxPos); err != nil {
		return fmt.Errorf("failed to get pin position: %w", err)
	}

	position := 0
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	var artistID, albumID, playlistID, entityValue any
	if item.ArtistID != nil {
		artistID = *item.ArtistID
	}
	if item.AlbumID != nil {
		albumID = *item.AlbumID
	}
	if item.PlaylistID != "" {
		playlistID = item.PlaylistID
	}
	if item.EntityValue != "" {
		entityValue = item.EntityValue
	}

	result, err := s.db.Exec(`
		INSERT INTO pinned_items (item_type, entity_value, artist_id, album_id, playlist_id, display_name, sort_position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ItemType, entityValue, artistID, albumID, playlistID, item.DisplayName, position)
	if err != nil {
		return fmt.Errorf("failed to pin item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pin id: %w", err)
	}
	item.ID = id
	item.SortPosition = position
	return nil
}

// UnpinItem removes a pinned shortcut
func (s *Store) UnpinItem(id int64) error {
	_, err := s.db.Exec("DELETE FROM pinned_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to unpin item: %w", err)
	}
	return nil
}
