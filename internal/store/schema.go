package store

// Schema v1 - Initial database schema
//
// Tables are created in dependency order: independent entities first
// (folders, artists, albums, genres), then tracks, then playlists, then the
// junction tables referencing both sides, and finally the full-text search
// shadow table with its synchronization triggers.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Watched folders owning tracks
CREATE TABLE IF NOT EXISTS folders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  path TEXT NOT NULL UNIQUE,
  track_count INTEGER NOT NULL DEFAULT 0,
  bookmark TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Canonical artists, keyed by a case/diacritic-insensitive normalized name
CREATE TABLE IF NOT EXISTS artists (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_norm TEXT NOT NULL UNIQUE,
  external_id TEXT,
  artwork_path TEXT,
  biography TEXT,
  genres_json TEXT,
  websites_json TEXT,
  members_json TEXT,
  total_tracks INTEGER NOT NULL DEFAULT 0,
  total_albums INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Canonical albums, identified by normalized title + normalized album artist
CREATE TABLE IF NOT EXISTS albums (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  title_norm TEXT NOT NULL,
  album_artist TEXT NOT NULL DEFAULT '',
  album_artist_norm TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  external_id TEXT,
  artwork_path TEXT,
  genres_json TEXT,
  total_tracks INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (title_norm, album_artist_norm)
);

-- Canonical genres
CREATE TABLE IF NOT EXISTS genres (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_norm TEXT NOT NULL UNIQUE,
  total_tracks INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tracks. Display fields (title/artist/album/genre/year) are denormalized
-- copies kept for fast listing; the junction tables hold the real relations.
-- A track is owned by its folder (cascade) and optionally linked to an album
-- (link cleared, not cascaded, when the album goes away).
CREATE TABLE IF NOT EXISTS tracks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
  album_id INTEGER REFERENCES albums(id) ON DELETE SET NULL,
  path TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  artist TEXT NOT NULL DEFAULT '',
  album TEXT NOT NULL DEFAULT '',
  album_artist TEXT NOT NULL DEFAULT '',
  composer TEXT NOT NULL DEFAULT '',
  genre TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  sort_title TEXT NOT NULL DEFAULT '',
  sort_artist TEXT NOT NULL DEFAULT '',
  track_no INTEGER NOT NULL DEFAULT 0,
  disc_no INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  bitrate_kbps INTEGER NOT NULL DEFAULT 0,
  sample_rate INTEGER NOT NULL DEFAULT 0,
  bit_depth INTEGER NOT NULL DEFAULT 0,
  codec TEXT NOT NULL DEFAULT '',
  lossless INTEGER NOT NULL DEFAULT 0,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  mtime_unix INTEGER NOT NULL DEFAULT 0,
  has_artwork INTEGER NOT NULL DEFAULT 0,
  favorite INTEGER NOT NULL DEFAULT 0,
  play_count INTEGER NOT NULL DEFAULT 0,
  last_played_at DATETIME,
  is_duplicate INTEGER NOT NULL DEFAULT 0,
  primary_track_id INTEGER,
  duplicate_group_id TEXT NOT NULL DEFAULT '',
  extended_json TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracks_path ON tracks(path);
CREATE INDEX IF NOT EXISTS idx_tracks_album_id ON tracks(album_id);
CREATE INDEX IF NOT EXISTS idx_tracks_folder_id ON tracks(folder_id);
CREATE INDEX IF NOT EXISTS idx_tracks_is_duplicate ON tracks(is_duplicate);

-- Playlists. The id is a stable opaque string, not an autoincrement rowid,
-- so playlists keep their identity across export/import. Smart playlists
-- carry serialized criteria and never own playlist_tracks rows.
CREATE TABLE IF NOT EXISTS playlists (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'regular',
  is_user_editable INTEGER NOT NULL DEFAULT 1,
  is_content_editable INTEGER NOT NULL DEFAULT 1,
  smart_criteria TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
  playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (playlist_id, track_id),
  UNIQUE (playlist_id, position)
);

-- Track <-> artist credits, role-tagged (artist / album_artist / composer)
CREATE TABLE IF NOT EXISTS track_artists (
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  role TEXT NOT NULL DEFAULT 'artist',
  PRIMARY KEY (track_id, artist_id, role)
);

CREATE TABLE IF NOT EXISTS track_genres (
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
  PRIMARY KEY (track_id, genre_id)
);

CREATE TABLE IF NOT EXISTS album_artists (
  album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  role TEXT NOT NULL DEFAULT 'album_artist',
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (album_id, artist_id, role)
);

-- Pinned shortcuts to library filter values or playlists. Lifecycle is
-- independent of the referenced entity, except playlist deletion which
-- cleans up its pins.
CREATE TABLE IF NOT EXISTS pinned_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  item_type TEXT NOT NULL,
  entity_value TEXT,
  artist_id INTEGER,
  album_id INTEGER,
  playlist_id TEXT,
  display_name TEXT NOT NULL DEFAULT '',
  sort_position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Full-text search shadow table plus its three synchronization triggers.
// The shadow table mirrors the seven searchable track text fields, keyed by
// the track rowid. It is maintained exclusively by the triggers; application
// code never writes to it, which is what keeps the index from drifting as
// long as all writes go through the tracks table.
const schemaV1Search = `
CREATE VIRTUAL TABLE IF NOT EXISTS track_search USING fts5(
  title,
  artist,
  album,
  album_artist,
  composer,
  genre,
  year
);

CREATE TRIGGER IF NOT EXISTS trg_track_search_insert AFTER INSERT ON tracks BEGIN
  INSERT INTO track_search(rowid, title, artist, album, album_artist, composer, genre, year)
  VALUES (new.id, new.title, new.artist, new.album, new.album_artist, new.composer, new.genre, CAST(new.year AS TEXT));
END;

CREATE TRIGGER IF NOT EXISTS trg_track_search_update AFTER UPDATE ON tracks BEGIN
  UPDATE track_search
  SET title = new.title,
      artist = new.artist,
      album = new.album,
      album_artist = new.album_artist,
      composer = new.composer,
      genre = new.genre,
      year = CAST(new.year AS TEXT)
  WHERE rowid = new.id;
END;

CREATE TRIGGER IF NOT EXISTS trg_track_search_delete AFTER DELETE ON tracks BEGIN
  DELETE FROM track_search WHERE rowid = old.id;
END;
`

// Schema v2 - Performance indexes for the hot read paths
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_tracks_favorite ON tracks(favorite);
CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks(genre);
CREATE INDEX IF NOT EXISTS idx_tracks_year ON tracks(year);
CREATE INDEX IF NOT EXISTS idx_tracks_dup_group ON tracks(duplicate_group_id);
CREATE INDEX IF NOT EXISTS idx_track_artists_artist ON track_artists(artist_id, role);
CREATE INDEX IF NOT EXISTS idx_track_genres_genre ON track_genres(genre_id);
CREATE INDEX IF NOT EXISTS idx_playlist_tracks_position ON playlist_tracks(playlist_id, position);
CREATE INDEX IF NOT EXISTS idx_pinned_items_playlist ON pinned_items(playlist_id);
`
