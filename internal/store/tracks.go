package store

import (
	"database/sql"
	"fmt"
	"time"
)

const trackColumns = `
	id, folder_id, album_id, path,
	title, artist, album, album_artist, composer, genre, year,
	sort_title, sort_artist, track_no, disc_no,
	duration_ms, bitrate_kbps, sample_rate, bit_depth, codec, lossless,
	size_bytes, mtime_unix, has_artwork, favorite, play_count, last_played_at,
	is_duplicate, primary_track_id, duplicate_group_id, extended_json,
	created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*Track, error) {
	t := &Track{}
	var (
		albumID    sql.NullInt64
		primaryID  sql.NullInt64
		lastPlayed sql.NullTime
		extended   sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.FolderID, &albumID, &t.Path,
		&t.Title, &t.Artist, &t.Album, &t.AlbumArtist, &t.Composer, &t.Genre, &t.Year,
		&t.SortTitle, &t.SortArtist, &t.TrackNo, &t.DiscNo,
		&t.DurationMs, &t.BitrateKbps, &t.SampleRate, &t.BitDepth, &t.Codec, &t.Lossless,
		&t.SizeBytes, &t.MtimeUnix, &t.HasArtwork, &t.Favorite, &t.PlayCount, &lastPlayed,
		&t.IsDuplicate, &primaryID, &t.DuplicateGroupID, &extended,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if albumID.Valid {
		t.AlbumID = &albumID.Int64
	}
	if primaryID.Valid {
		t.PrimaryTrackID = &primaryID.Int64
	}
	if lastPlayed.Valid {
		t.LastPlayed = &lastPlayed.Time
	}
	t.Extended = decodeExtended(extended)

	return t, nil
}

func scanTracks(rows *sql.Rows) ([]Track, error) {
	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}

// QueryTracks runs a SELECT over the tracks table with the given clause
// (WHERE / ORDER BY, referencing track columns unqualified) appended, and
// scans full track rows. Read-side services compose their filters on top of
// this instead of duplicating the column list.
func (s *Store) QueryTracks(clause string, args ...any) ([]Track, error) {
	rows, err := s.db.Query("SELECT"+trackColumns+" FROM tracks "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}

// GetTrackByPath retrieves a track by its unique file path. Returns
// (nil, nil) when no track exists at that path.
func (s *Store) GetTrackByPath(path string) (*Track, error) {
	row := s.db.QueryRow("SELECT"+trackColumns+" FROM tracks WHERE path = ?", path)
	t, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by path: %w", err)
	}
	return t, nil
}

// GetTrackByID retrieves a track by id. Returns (nil, nil) when absent.
func (s *Store) GetTrackByID(id int64) (*Track, error) {
	row := s.db.QueryRow("SELECT"+trackColumns+" FROM tracks WHERE id = ?", id)
	t, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by id: %w", err)
	}
	return t, nil
}

// ListTracks returns every track in the library ordered by id
func (s *Store) ListTracks() ([]Track, error) {
	rows, err := s.db.Query("SELECT" + trackColumns + " FROM tracks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}

// GetTracksByIDs returns the tracks with the given ids, in id order
func (s *Store) GetTracksByIDs(ids []int64) ([]Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT" + trackColumns + " FROM tracks WHERE id IN ("
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i] = id
	}
	query += ") ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks by ids: %w", err)
	}
	defer rows.Close()
	return scanTracks(rows)
}

// InsertTrackTx inserts a new track inside the batch write transaction and
// sets t.ID. The album link must already be resolved by the caller since the
// foreign key depends on it.
func (s *Store) InsertTrackTx(tx *sql.Tx, t *Track) error {
	var albumID any
	if t.AlbumID != nil {
		albumID = *t.AlbumID
	}

	result, err := tx.Exec(`
		INSERT INTO tracks (
			folder_id, album_id, path,
			title, artist, album, album_artist, composer, genre, year,
			sort_title, sort_artist, track_no, disc_no,
			duration_ms, bitrate_kbps, sample_rate, bit_depth, codec, lossless,
			size_bytes, mtime_unix, has_artwork, extended_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.FolderID, albumID, t.Path,
		t.Title, t.Artist, t.Album, t.AlbumArtist, t.Composer, t.Genre, t.Year,
		t.SortTitle, t.SortArtist, t.TrackNo, t.DiscNo,
		t.DurationMs, t.BitrateKbps, t.SampleRate, t.BitDepth, t.Codec, t.Lossless,
		t.SizeBytes, t.MtimeUnix, t.HasArtwork, encodeExtended(t.Extended),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get track id: %w", err)
	}
	t.ID = id

	return nil
}

// UpdateTrackTx rewrites the metadata-bearing columns of an existing track
// inside the batch write transaction. Favorite flag, play statistics and
// duplicate fields are deliberately left alone: those are library state, not
// file metadata.
func (s *Store) UpdateTrackTx(tx *sql.Tx, t *Track) error {
	var albumID any
	if t.AlbumID != nil {
		albumID = *t.AlbumID
	}

	_, err := tx.Exec(`
		UPDATE tracks SET
			album_id = ?,
			title = ?, artist = ?, album = ?, album_artist = ?, composer = ?, genre = ?, year = ?,
			sort_title = ?, sort_artist = ?, track_no = ?, disc_no = ?,
			duration_ms = ?, bitrate_kbps = ?, sample_rate = ?, bit_depth = ?, codec = ?, lossless = ?,
			size_bytes = ?, mtime_unix = ?, has_artwork = ?, extended_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		albumID,
		t.Title, t.Artist, t.Album, t.AlbumArtist, t.Composer, t.Genre, t.Year,
		t.SortTitle, t.SortArtist, t.TrackNo, t.DiscNo,
		t.DurationMs, t.BitrateKbps, t.SampleRate, t.BitDepth, t.Codec, t.Lossless,
		t.SizeBytes, t.MtimeUnix, t.HasArtwork, encodeExtended(t.Extended),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return nil
}

// DeleteTrack removes a track row; the search index row and junction rows go
// with it via trigger and cascade.
func (s *Store) DeleteTrack(id int64) error {
	_, err := s.db.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}

// SetFavorite toggles the favorite flag on a track
func (s *Store) SetFavorite(trackID int64, favorite bool) error {
	_, err := s.db.Exec(`
		UPDATE tracks SET favorite = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, favorite, trackID)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	return nil
}

// RecordPlay increments the play count and stamps the last played time
func (s *Store) RecordPlay(trackID int64, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE tracks SET play_count = play_count + 1, last_played_at = ? WHERE id = ?
	`, at.UTC(), trackID)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}
