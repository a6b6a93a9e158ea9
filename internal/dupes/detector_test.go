package dupes

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

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

func insertTrack(t *testing.T, s *store.Store, folderID int64, track *store.Track) int64 {
	t.Helper()
	track.FolderID = folderID
	err := s.Transaction(func(tx *sql.Tx) error {
		return s.InsertTrackTx(tx, track)
	})
	if err != nil {
		t.Fatalf("failed to insert track %s: %v", track.Path, err)
	}
	return track.ID
}

func TestReconcileElectsHigherBitrate(t *testing.T) {
	s := openTestStore(t, "test-detector-bitrate.db")
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	low := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/song-128.mp3", Title: "Same Song", Artist: "Artist",
		DurationMs: 200000, BitrateKbps: 128, Codec: "mp3",
	})
	high := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/song-320.mp3", Title: "Same Song", Artist: "Artist",
		DurationMs: 201000, BitrateKbps: 320, Codec: "mp3",
	})

	detector := New(s, testLogger())
	result, err := detector.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Groups != 1 || result.Duplicates != 1 {
		t.Fatalf("expected 1 group with 1 duplicate, got %+v", result)
	}

	primary, _ := s.GetTrackByID(high)
	shadow, _ := s.GetTrackByID(low)
	if primary.IsDuplicate {
		t.Error("320 kbps copy should be primary")
	}
	if !shadow.IsDuplicate || shadow.PrimaryTrackID == nil || *shadow.PrimaryTrackID != high {
		t.Errorf("128 kbps copy should point at primary %d, got %+v", high, shadow)
	}
	if primary.DuplicateGroupID == "" || primary.DuplicateGroupID != shadow.DuplicateGroupID {
		t.Error("group members should share a group id")
	}
}

func TestReconcilePrefersLossless(t *testing.T) {
	s := openTestStore(t, "test-detector-lossless.db")
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	flac := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/song.flac", Title: "Song", Artist: "Artist",
		DurationMs: 180000, Codec: "flac", Lossless: true, SampleRate: 44100,
	})
	insertTrack(t, s, folderID, &store.Track{
		Path: "/music/song.mp3", Title: "Song", Artist: "Artist",
		DurationMs: 180000, BitrateKbps: 320, Codec: "mp3", SampleRate: 44100,
		Album: "Album", TrackNo: 1, Year: 1999,
	})

	detector := New(s, testLogger())
	if _, err := detector.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	primary, _ := s.GetTrackByID(flac)
	if primary.IsDuplicate {
		t.Error("lossless copy should win even against a fully tagged 320 kbps file")
	}
}

func TestReconcileOutcomeIsIdempotent(t *testing.T) {
	s := openTestStore(t, "test-detector-idempotent.db")
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	a := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/a.mp3", Title: "Twin", Artist: "Band", DurationMs: 100000, BitrateKbps: 192,
	})
	insertTrack(t, s, folderID, &store.Track{
		Path: "/music/b.mp3", Title: "Twin", Artist: "Band", DurationMs: 100000, BitrateKbps: 192,
	})

	detector := New(s, testLogger())
	if _, err := detector.Reconcile(context.Background()); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	first, _ := s.GetTrackByID(a)

	if _, err := detector.Reconcile(context.Background()); err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	second, _ := s.GetTrackByID(a)

	// Equal scores: the lower id wins both times. The group id itself is
	// regenerated per run and carries no cross-run meaning.
	if first.IsDuplicate || second.IsDuplicate {
		t.Error("lowest id should be primary on ties, every run")
	}
}

func TestReconcileLeavesSingletonsAlone(t *testing.T) {
	s := openTestStore(t, "test-detector-singleton.db")
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	id := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/only.mp3", Title: "Only One", Artist: "Band", DurationMs: 100000,
	})
	untagged := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/untagged-1.mp3", DurationMs: 100000,
	})
	untagged2 := insertTrack(t, s, folderID, &store.Track{
		Path: "/music/untagged-2.mp3", DurationMs: 100000,
	})

	detector := New(s, testLogger())
	result, err := detector.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	// Tracks without any identity fields fall back to a per-path key, so the
	// two untagged files must not be grouped together.
	if result.Groups != 0 || result.Duplicates != 0 {
		t.Fatalf("expected no groups, got %+v", result)
	}
	for _, trackID := range []int64{id, untagged, untagged2} {
		track, _ := s.GetTrackByID(trackID)
		if track.IsDuplicate || track.DuplicateGroupID != "" {
			t.Errorf("track %d should have cleared duplicate fields", trackID)
		}
	}
}

func TestIdentityKeyBucketsDuration(t *testing.T) {
	base := &store.Track{Title: "Song", Artist: "Artist", DurationMs: 200000}
	near := &store.Track{Title: "Song", Artist: "Artist", DurationMs: 201000}
	far := &store.Track{Title: "Song", Artist: "Artist", DurationMs: 210000}

	if IdentityKey(base) != IdentityKey(near) {
		t.Error("durations 1s apart should share a key")
	}
	if IdentityKey(base) == IdentityKey(far) {
		t.Error("durations 10s apart should not share a key")
	}
}

func TestIdentityKeyIgnoresVersionSuffixAndFeaturedArtists(t *testing.T) {
	a := &store.Track{Title: "Song (2019 Remaster)", Artist: "Artist feat. Guest", DurationMs: 200000}
	b := &store.Track{Title: "Song", Artist: "Artist", DurationMs: 200000}
	if IdentityKey(a) != IdentityKey(b) {
		t.Errorf("expected %q == %q", IdentityKey(a), IdentityKey(b))
	}
}
