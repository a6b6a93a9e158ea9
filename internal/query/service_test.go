package query

import (
	"database/sql"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func openTestStore(t *testing.T, name string) *store.Store {
	t.Helper()
	t.Cleanup(func() {
		os.Remove(name)
		os.Remove(name + "-shm")
		os.Remove(name + "-wal")
	})

	s, err := store.Open(name)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedLibrary ingests a small fixture set through the normalizer so the
// credit and genre relations are populated the same way ingestion does it.
func seedLibrary(t *testing.T, s *store.Store) map[string]int64 {
	t.Helper()
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	fixtures := []*meta.Raw{
		{Title: "Duet", Artist: "Alice & Bob", Album: "Together", Genre: "Pop", Year: 2001},
		{Title: "Solo", Artist: "Alice", Album: "Alone", Genre: "Pop", Year: 2003},
		{Title: "Untagged", Artist: "", Album: "", Genre: "", Year: 0},
	}

	ids := make(map[string]int64, len(fixtures))
	err = s.Transaction(func(tx *sql.Tx) error {
		for i, raw := range fixtures {
			path := "/music/" + string(rune('a'+i)) + ".mp3"
			delta := meta.Normalize(raw, path, 1024, 1700000000)

			albumID, err := s.ResolveAlbumTx(tx, delta.AlbumKey)
			if err != nil {
				return err
			}
			track := delta.Track
			track.FolderID = folderID
			if albumID > 0 {
				track.AlbumID = &albumID
			}
			if err := s.InsertTrackTx(tx, &track); err != nil {
				return err
			}
			if err := s.ReplaceTrackArtistsTx(tx, track.ID, delta.Credits); err != nil {
				return err
			}
			if err := s.ReplaceTrackGenresTx(tx, track.ID, delta.Genres); err != nil {
				return err
			}
			ids[raw.Title] = track.ID
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}
	return ids
}

func TestDistinctValuesIncludesPlaceholderOnlyWhenOccupied(t *testing.T) {
	s := openTestStore(t, "test-query-distinct.db")
	seedLibrary(t, s)
	svc := New(s, testLogger())

	genres, err := svc.DistinctValues(FilterGenre)
	if err != nil {
		t.Fatalf("failed to enumerate genres: %v", err)
	}
	if len(genres) != 2 || genres[0] != "Pop" || genres[1] != UnknownGenre {
		t.Errorf("expected [Pop %s], got %v", UnknownGenre, genres)
	}

	// Artists enumerate through the credit relation: the "Alice & Bob"
	// credit contributes both names.
	artists, err := svc.DistinctValues(FilterArtist)
	if err != nil {
		t.Fatalf("failed to enumerate artists: %v", err)
	}
	want := []string{"Alice", "Bob", UnknownArtist}
	if len(artists) != len(want) {
		t.Fatalf("expected %v, got %v", want, artists)
	}
	for i := range want {
		if artists[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, artists)
		}
	}

	// Remove the untagged track: the placeholders must disappear
	ids := seededIDs(t, s)
	if err := s.DeleteTrack(ids["Untagged"]); err != nil {
		t.Fatalf("failed to delete track: %v", err)
	}
	genres, err = svc.DistinctValues(FilterGenre)
	if err != nil {
		t.Fatalf("failed to re-enumerate genres: %v", err)
	}
	for _, g := range genres {
		if g == UnknownGenre {
			t.Error("placeholder listed with no unfiled tracks")
		}
	}
}

func seededIDs(t *testing.T, s *store.Store) map[string]int64 {
	t.Helper()
	tracks, err := s.ListTracks()
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	ids := make(map[string]int64, len(tracks))
	for _, track := range tracks {
		ids[track.Title] = track.ID
	}
	return ids
}

func TestTracksByFilterResolvesMultiArtistCredits(t *testing.T) {
	s := openTestStore(t, "test-query-credits.db")
	seedLibrary(t, s)
	svc := New(s, testLogger())

	// "Duet" is credited to "Alice & Bob"; it must be found under each name
	bobTracks, err := svc.TracksByFilter(FilterArtist, "Bob")
	if err != nil {
		t.Fatalf("failed to filter by Bob: %v", err)
	}
	if len(bobTracks) != 1 || bobTracks[0].Title != "Duet" {
		t.Errorf("expected [Duet] for Bob, got %d tracks", len(bobTracks))
	}

	aliceTracks, err := svc.TracksByFilter(FilterArtist, "Alice")
	if err != nil {
		t.Fatalf("failed to filter by Alice: %v", err)
	}
	if len(aliceTracks) != 2 {
		t.Errorf("expected 2 tracks for Alice, got %d", len(aliceTracks))
	}

	unknown, err := svc.TracksByFilter(FilterArtist, UnknownArtist)
	if err != nil {
		t.Fatalf("failed to filter by placeholder: %v", err)
	}
	if len(unknown) != 1 || unknown[0].Title != "Untagged" {
		t.Errorf("expected [Untagged] under placeholder, got %d tracks", len(unknown))
	}
}

func TestQueriesHonorDuplicateToggle(t *testing.T) {
	s := openTestStore(t, "test-query-dupes.db")
	ids := seedLibrary(t, s)
	svc := New(s, testLogger())

	// Flag "Solo" as a duplicate of "Duet"
	err := s.ApplyDuplicateGroups([]store.DuplicateAssignment{{
		GroupID:      "g1",
		PrimaryID:    ids["Duet"],
		DuplicateIDs: []int64{ids["Solo"]},
	}})
	if err != nil {
		t.Fatalf("failed to flag duplicate: %v", err)
	}

	visible, err := svc.AllTracks()
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	if len(visible) != 2 {
		t.Errorf("expected duplicate hidden, got %d tracks", len(visible))
	}

	svc.ExcludeDuplicates = false
	all, err := svc.AllTracks()
	if err != nil {
		t.Fatalf("failed to list all tracks: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tracks with toggle off, got %d", len(all))
	}
}

func TestSearchUsesFullTextIndex(t *testing.T) {
	s := openTestStore(t, "test-query-search.db")
	seedLibrary(t, s)
	svc := New(s, testLogger())

	hits, err := svc.Search("together")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Duet" {
		t.Errorf("expected album-term search to find Duet, got %d hits", len(hits))
	}

	// Prefix matching on partial terms
	hits, err = svc.Search("ali")
	if err != nil {
		t.Fatalf("prefix search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits for artist prefix, got %d", len(hits))
	}

	// Raw index syntax must not leak through
	if _, err := svc.Search(`"unbalanced`); err != nil {
		t.Errorf("quoted input should be escaped, got error: %v", err)
	}

	if hits, err := svc.Search("   "); err != nil || hits != nil {
		t.Errorf("blank query should return nothing, got %v / %v", hits, err)
	}
}
