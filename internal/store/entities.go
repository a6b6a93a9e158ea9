package store

import (
	"database/sql"
	"fmt"
)

// ArtistCredit names one artist credited on a track, with the junction role
type ArtistCredit struct {
	Name     string
	NameNorm string
	Role     string
}

// GenreRef names one genre attached to a track
type GenreRef struct {
	Name     string
	NameNorm string
}

// AlbumKey is the identity of an album: normalized title + album artist
type AlbumKey struct {
	Title           string
	TitleNorm       string
	AlbumArtist     string
	AlbumArtistNorm string
	Year            int
}

// upsertArtistTx resolves an artist by normalized name, creating it if
// absent, and returns its id.
func (s *Store) upsertArtistTx(tx *sql.Tx, name, nameNorm string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM artists WHERE name_norm = ?", nameNorm).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up artist: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO artists (name, name_norm) VALUES (?, ?)
	`, name, nameNorm)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artist: %w", err)
	}
	return result.LastInsertId()
}

// upsertGenreTx resolves a genre by normalized name, creating it if absent
func (s *Store) upsertGenreTx(tx *sql.Tx, name, nameNorm string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM genres WHERE name_norm = ?", nameNorm).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up genre: %w", err)
	}

	result, err := tx.Exec("INSERT INTO genres (name, name_norm) VALUES (?, ?)", name, nameNorm)
	if err != nil {
		return 0, fmt.Errorf("failed to insert genre: %w", err)
	}
	return result.LastInsertId()
}

// ResolveAlbumTx resolves an album by its identity key, creating the row if
// absent, and returns its id. Called before track insertion because the
// track's album foreign key depends on it.
func (s *Store) ResolveAlbumTx(tx *sql.Tx, key AlbumKey) (int64, error) {
	if key.TitleNorm == "" {
		return 0, nil
	}

	var id int64
	err := tx.QueryRow(`
		SELECT id FROM albums WHERE title_norm = ? AND album_artist_norm = ?
	`, key.TitleNorm, key.AlbumArtistNorm).Scan(&id)
	if err == nil {
		// Backfill the year if an earlier file lacked one
		if key.Year > 0 {
			if _, err := tx.Exec(`
				UPDATE albums SET year = ? WHERE id = ? AND year = 0
			`, key.Year, id); err != nil {
				return 0, fmt.Errorf("failed to update album year: %w", err)
			}
		}
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up album: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO albums (title, title_norm, album_artist, album_artist_norm, year)
		VALUES (?, ?, ?, ?, ?)
	`, key.Title, key.TitleNorm, key.AlbumArtist, key.AlbumArtistNorm, key.Year)
	if err != nil {
		return 0, fmt.Errorf("failed to insert album: %w", err)
	}
	return result.LastInsertId()
}

// ReplaceTrackArtistsTx rewrites a track's artist credits. Rows are replaced
// wholesale rather than diffed; with same-track edits possible inside one
// batch this is both simpler and correct.
func (s *Store) ReplaceTrackArtistsTx(tx *sql.Tx, trackID int64, credits []ArtistCredit) error {
	if _, err := tx.Exec("DELETE FROM track_artists WHERE track_id = ?", trackID); err != nil {
		return fmt.Errorf("failed to clear track artists: %w", err)
	}

	for _, credit := range credits {
		if credit.NameNorm == "" {
			continue
		}
		artistID, err := s.upsertArtistTx(tx, credit.Name, credit.NameNorm)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO track_artists (track_id, artist_id, role) VALUES (?, ?, ?)
			ON CONFLICT(track_id, artist_id, role) DO NOTHING
		`, trackID, artistID, credit.Role); err != nil {
			return fmt.Errorf("failed to insert track artist: %w", err)
		}
	}

	return nil
}

// ReplaceTrackGenresTx rewrites a track's genre relations
func (s *Store) ReplaceTrackGenresTx(tx *sql.Tx, trackID int64, genres []GenreRef) error {
	if _, err := tx.Exec("DELETE FROM track_genres WHERE track_id = ?", trackID); err != nil {
		return fmt.Errorf("failed to clear track genres: %w", err)
	}

	for _, genre := range genres {
		if genre.NameNorm == "" {
			continue
		}
		genreID, err := s.upsertGenreTx(tx, genre.Name, genre.NameNorm)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO track_genres (track_id, genre_id) VALUES (?, ?)
			ON CONFLICT(track_id, genre_id) DO NOTHING
		`, trackID, genreID); err != nil {
			return fmt.Errorf("failed to insert track genre: %w", err)
		}
	}

	return nil
}

// LinkAlbumArtistTx records an album artist credit on the album_artists
// junction. Position orders multi-artist credits for display.
func (s *Store) LinkAlbumArtistTx(tx *sql.Tx, albumID int64, credit ArtistCredit, position int) error {
	if albumID == 0 || credit.NameNorm == "" {
		return nil
	}

	artistID, err := s.upsertArtistTx(tx, credit.Name, credit.NameNorm)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO album_artists (album_id, artist_id, role, position) VALUES (?, ?, ?, ?)
		ON CONFLICT(album_id, artist_id, role) DO NOTHING
	`, albumID, artistID, credit.Role, position)
	if err != nil {
		return fmt.Errorf("failed to link album artist: %w", err)
	}
	return nil
}

// PropagateArtworkTx copies embedded artwork discovered on a track onto its
// linked album and contributing artists, without overwriting art they
// already have.
func (s *Store) PropagateArtworkTx(tx *sql.Tx, trackID int64, albumID int64, artworkPath string) error {
	if artworkPath == "" {
		return nil
	}

	if albumID != 0 {
		if _, err := tx.Exec(`
			UPDATE albums SET artwork_path = ?
			WHERE id = ? AND (artwork_path IS NULL OR artwork_path = '')
		`, artworkPath, albumID); err != nil {
			return fmt.Errorf("failed to propagate album artwork: %w", err)
		}
	}

	if _, err := tx.Exec(`
		UPDATE artists SET artwork_path = ?
		WHERE (artwork_path IS NULL OR artwork_path = '')
		  AND id IN (SELECT artist_id FROM track_artists WHERE track_id = ?)
	`, artworkPath, trackID); err != nil {
		return fmt.Errorf("failed to propagate artist artwork: %w", err)
	}

	return nil
}

// RecomputeStatsTx re-derives the running statistics on artists, albums,
// genres and folders from the junction relations. Run once per ingestion
// batch, only when the batch changed something.
func (s *Store) RecomputeStatsTx(tx *sql.Tx) error {
	statements := []string{
		`UPDATE artists SET total_tracks = (
			SELECT COUNT(DISTINCT track_id) FROM track_artists WHERE artist_id = artists.id
		)`,
		`UPDATE artists SET total_albums = (
			SELECT COUNT(DISTINCT t.album_id) FROM track_artists ta
			JOIN tracks t ON t.id = ta.track_id
			WHERE ta.artist_id = artists.id AND t.album_id IS NOT NULL
		)`,
		`UPDATE albums SET total_tracks = (
			SELECT COUNT(*) FROM tracks WHERE album_id = albums.id
		)`,
		`UPDATE genres SET total_tracks = (
			SELECT COUNT(*) FROM track_genres WHERE genre_id = genres.id
		)`,
		`UPDATE folders SET track_count = (
			SELECT COUNT(*) FROM tracks WHERE folder_id = folders.id
		)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to recompute stats: %w", err)
		}
	}

	return nil
}

// GetArtistByName retrieves an artist by normalized name. Returns (nil, nil)
// when absent.
func (s *Store) GetArtistByName(nameNorm string) (*Artist, error) {
	a := &Artist{}
	var externalID, artworkPath, biography sql.NullString
	var genres, websites, members sql.NullString

	err := s.db.QueryRow(`
		SELECT id, name, name_norm, external_id, artwork_path, biography,
		       genres_json, websites_json, members_json, total_tracks, total_albums
		FROM artists WHERE name_norm = ?
	`, nameNorm).Scan(
		&a.ID, &a.Name, &a.NameNorm, &externalID, &artworkPath, &biography,
		&genres, &websites, &members, &a.TotalTracks, &a.TotalAlbums,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}

	a.ExternalID = externalID.String
	a.ArtworkPath = artworkPath.String
	a.Biography = biography.String
	a.Genres = decodeStringList(genres)
	a.Websites = decodeStringList(websites)
	a.Members = decodeStringList(members)
	return a, nil
}

// UpdateArtistProfile writes externally sourced artist metadata. The list
// fields are encoded at this boundary only.
func (s *Store) UpdateArtistProfile(id int64, externalID, biography string, genres, websites, members []string) error {
	_, err := s.db.Exec(`
		UPDATE artists SET
			external_id = ?, biography = ?,
			genres_json = ?, websites_json = ?, members_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, externalID, biography,
		encodeStringList(genres), encodeStringList(websites), encodeStringList(members), id)
	if err != nil {
		return fmt.Errorf("failed to update artist profile: %w", err)
	}
	return nil
}

// UpsertFolder registers a watched folder by path, returning its id
func (s *Store) UpsertFolder(name, path string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM folders WHERE path = ?", path).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up folder: %w", err)
	}

	result, err := s.db.Exec("INSERT INTO folders (name, path) VALUES (?, ?)", name, path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert folder: %w", err)
	}
	return result.LastInsertId()
}

// ListFolders returns every registered folder with its track count
func (s *Store) ListFolders() ([]Folder, error) {
	rows, err := s.db.Query(`
		SELECT id, name, path, track_count, COALESCE(bookmark, ''), created_at, updated_at
		FROM folders ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f := Folder{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.TrackCount, &f.Bookmark, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}
