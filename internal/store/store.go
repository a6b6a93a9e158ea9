package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/franz/cadenza/internal/util"
)

const (
	currentSchemaVersion = 2
)

// Playlist types
const (
	PlaylistRegular = "regular"
	PlaylistSmart   = "smart"
)

// Artist credit roles on the track_artists junction
const (
	RoleArtist      = "artist"
	RoleAlbumArtist = "album_artist"
	RoleComposer    = "composer"
)

// Pinned item discriminators
const (
	PinPlaylist = "playlist"
	PinArtist   = "artist"
	PinAlbum    = "album"
	PinGenre    = "genre"
)

// Store represents the library's persistent state
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Options holds options for opening a database
type Options struct {
	Logger *logrus.Logger
}

// Open opens or creates a SQLite database at the given path with default
// options and brings the schema up to the current version. Safe to call on
// every process start.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: SQLite works best with a single writer, and the
	// ingestion pipeline relies on one serialized write transaction at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	if err := store.backfillSearchIndex(); err != nil {
		db.Close()
		return nil, fmt.Errorf("search index backfill failed: %w", err)
	}

	if err := store.seedDefaults(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding failed: %w", err)
	}

	logger.WithField("path", path).Debug("store opened")
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("%w: integrity check reported %s", util.ErrCorrupt, result)
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		// Already at current version
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Apply schema v1: tables, junctions, search index and triggers
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if _, err := tx.Exec(schemaV1Search); err != nil {
			return fmt.Errorf("failed to apply search schema: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Apply schema v2 - Performance indexes
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		// No schema yet
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction. The transaction is
// rolled back if fn returns an error; nothing is partially committed.
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Folder represents a watched directory owning tracks
type Folder struct {
	ID         int64
	Name       string
	Path       string
	TrackCount int
	Bookmark   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Track represents a single audio file in the library. The display fields
// are denormalized from the junction relations for fast listing.
type Track struct {
	ID          int64
	FolderID    int64
	AlbumID     *int64
	Path        string
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Year        int
	SortTitle   string
	SortArtist  string
	TrackNo     int
	DiscNo      int
	DurationMs  int
	BitrateKbps int
	SampleRate  int
	BitDepth    int
	Codec       string
	Lossless    bool
	SizeBytes   int64
	MtimeUnix   int64
	HasArtwork  bool
	Favorite    bool
	PlayCount   int
	LastPlayed  *time.Time

	// Duplicate tracking. IsDuplicate is false and PrimaryTrackID nil for
	// the elected primary of a group and for singletons.
	IsDuplicate      bool
	PrimaryTrackID   *int64
	DuplicateGroupID string

	// Extended metadata, stored as an opaque encoded blob and decoded only
	// at this boundary.
	Extended map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Artist is a canonical artist entity keyed by normalized name
type Artist struct {
	ID          int64
	Name        string
	NameNorm    string
	ExternalID  string
	ArtworkPath string
	Biography   string
	Genres      []string
	Websites    []string
	Members     []string
	TotalTracks int
	TotalAlbums int
}

// Album is a canonical album entity keyed by normalized title + album artist
type Album struct {
	ID              int64
	Title           string
	TitleNorm       string
	AlbumArtist     string
	AlbumArtistNorm string
	Year            int
	ExternalID      string
	ArtworkPath     string
	Genres          []string
	TotalTracks     int
}

// Genre is a canonical genre entity keyed by normalized name
type Genre struct {
	ID          int64
	Name        string
	NameNorm    string
	TotalTracks int
}

// Playlist represents a user or system playlist row. Smart playlists carry
// serialized criteria in SmartCriteria; regular playlists own ordered
// playlist_tracks rows instead.
type Playlist struct {
	ID                string
	Name              string
	Type              string
	IsUserEditable    bool
	IsContentEditable bool
	SmartCriteria     string
	SortOrder         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PinnedItem is a denormalized shortcut to a filter value or playlist
type PinnedItem struct {
	ID           int64
	ItemType     string
	EntityValue  string
	ArtistID     *int64
	AlbumID      *int64
	PlaylistID   string
	DisplayName  string
	SortPosition int
}
