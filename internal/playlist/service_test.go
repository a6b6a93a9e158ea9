package playlist

import (
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

func newTestService(t *testing.T, s *store.Store) *Service {
	t.Helper()
	svc, err := New(s, testLogger())
	if err != nil {
		t.Fatalf("failed to start playlist service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func insertTracks(t *testing.T, s *store.Store, n int) []int64 {
	t.Helper()
	folderID, err := s.UpsertFolder("Music", "/music")
	if err != nil {
		t.Fatalf("failed to upsert folder: %v", err)
	}

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		track := &store.Track{
			FolderID: folderID,
			Path:     "/music/track-" + string(rune('a'+i)) + ".mp3",
			Title:    "Track",
		}
		err := s.Transaction(func(tx *sql.Tx) error {
			return s.InsertTrackTx(tx, track)
		})
		if err != nil {
			t.Fatalf("failed to insert track: %v", err)
		}
		ids = append(ids, track.ID)
	}
	return ids
}

func TestCreateAndListPlaylists(t *testing.T) {
	s := openTestStore(t, "test-pl-create.db")
	svc := newTestService(t, s)

	created, err := svc.Create("Road Trip")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	if created.ID == "" || !created.IsUserEditable || !created.IsContentEditable {
		t.Errorf("created playlist misconfigured: %+v", created)
	}

	// Seeded system playlists plus the new one
	listed := svc.List()
	found := false
	for _, p := range listed {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("created playlist missing from List")
	}

	// The create must have been written through
	persisted, err := s.GetPlaylist(created.ID)
	if err != nil || persisted == nil {
		t.Fatalf("created playlist not persisted: %v", err)
	}
}

func TestSystemPlaylistsAreProtected(t *testing.T) {
	s := openTestStore(t, "test-pl-protected.db")
	svc := newTestService(t, s)
	ids := insertTracks(t, s, 1)

	system := svc.Get(store.SystemFavoritesID)
	if system == nil {
		t.Fatal("expected seeded system playlist")
	}
	originalName := system.Name

	// Every blocked mutation is a silent no-op, never an error
	if err := svc.Rename(store.SystemFavoritesID, "Hijacked"); err != nil {
		t.Errorf("rename of protected playlist should be a no-op, got error: %v", err)
	}
	if err := svc.Delete(store.SystemFavoritesID); err != nil {
		t.Errorf("delete of protected playlist should be a no-op, got error: %v", err)
	}
	if err := svc.AddTracks(store.SystemFavoritesID, ids); err != nil {
		t.Errorf("add to protected playlist should be a no-op, got error: %v", err)
	}

	after := svc.Get(store.SystemFavoritesID)
	if after == nil {
		t.Fatal("protected playlist was deleted")
	}
	if after.Name != originalName {
		t.Errorf("protected playlist was renamed to %q", after.Name)
	}
	if tracks := svc.TrackIDs(store.SystemFavoritesID); len(tracks) != 0 {
		t.Errorf("protected playlist gained tracks: %v", tracks)
	}

	persisted, err := s.GetPlaylist(store.SystemFavoritesID)
	if err != nil || persisted == nil {
		t.Fatalf("protected playlist missing from store: %v", err)
	}
	if persisted.Name != originalName {
		t.Errorf("blocked rename leaked to storage: %q", persisted.Name)
	}
}

func TestAddTracksDeduplicatesBatch(t *testing.T) {
	s := openTestStore(t, "test-pl-add.db")
	svc := newTestService(t, s)
	ids := insertTracks(t, s, 3)

	p, err := svc.Create("Mix")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	// Batch contains an internal duplicate
	if err := svc.AddTracks(p.ID, []int64{ids[0], ids[1], ids[0]}); err != nil {
		t.Fatalf("failed to add tracks: %v", err)
	}
	// Second batch repeats an existing member
	if err := svc.AddTracks(p.ID, []int64{ids[1], ids[2]}); err != nil {
		t.Fatalf("failed to add second batch: %v", err)
	}

	got := svc.TrackIDs(p.ID)
	want := []int64{ids[0], ids[1], ids[2]}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	// In-memory state and storage must agree
	persisted, err := s.GetPlaylistTrackIDs(p.ID)
	if err != nil {
		t.Fatalf("failed to read persisted tracks: %v", err)
	}
	if len(persisted) != len(want) {
		t.Errorf("persisted %v, want %v", persisted, want)
	}
}

func TestRemoveTracksKeepsRemainderOrder(t *testing.T) {
	s := openTestStore(t, "test-pl-remove.db")
	svc := newTestService(t, s)
	ids := insertTracks(t, s, 3)

	p, err := svc.Create("Mix")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	if err := svc.AddTracks(p.ID, ids); err != nil {
		t.Fatalf("failed to add tracks: %v", err)
	}

	if err := svc.RemoveTracks(p.ID, []int64{ids[1]}); err != nil {
		t.Fatalf("failed to remove track: %v", err)
	}
	got := svc.TrackIDs(p.ID)
	if len(got) != 2 || got[0] != ids[0] || got[1] != ids[2] {
		t.Errorf("expected [%d %d], got %v", ids[0], ids[2], got)
	}

	// Removing an id that is not a member changes nothing and writes nothing
	if err := svc.RemoveTracks(p.ID, []int64{9999}); err != nil {
		t.Fatalf("removing absent track failed: %v", err)
	}
	if got := svc.TrackIDs(p.ID); len(got) != 2 {
		t.Errorf("absent removal changed membership: %v", got)
	}
}

func TestDeleteRemovesPlaylistAndPins(t *testing.T) {
	s := openTestStore(t, "test-pl-delete.db")
	svc := newTestService(t, s)

	p, err := svc.Create("Doomed")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	pin := &store.PinnedItem{ItemType: store.PinPlaylist, PlaylistID: p.ID, DisplayName: p.Name}
	if err := s.PinItem(pin); err != nil {
		t.Fatalf("failed to pin playlist: %v", err)
	}

	if err := svc.Delete(p.ID); err != nil {
		t.Fatalf("failed to delete playlist: %v", err)
	}
	if svc.Get(p.ID) != nil {
		t.Error("deleted playlist still served")
	}

	pins, err := s.ListPinnedItems()
	if err != nil {
		t.Fatalf("failed to list pins: %v", err)
	}
	for _, item := range pins {
		if item.PlaylistID == p.ID {
			t.Error("pin referencing deleted playlist survived")
		}
	}
}

func TestFailedWriteRollsBackMemory(t *testing.T) {
	s := openTestStore(t, "test-pl-rollback.db")
	svc := newTestService(t, s)
	ids := insertTracks(t, s, 2)

	p, err := svc.Create("Fragile")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	if err := svc.AddTracks(p.ID, ids[:1]); err != nil {
		t.Fatalf("failed to add track: %v", err)
	}

	// Closing the database makes the next write-through fail; the in-memory
	// collection must revert to its previous state.
	s.Close()

	if err := svc.AddTracks(p.ID, ids[1:]); err == nil {
		t.Fatal("expected write against closed store to fail")
	}
	got := svc.TrackIDs(p.ID)
	if len(got) != 1 || got[0] != ids[0] {
		t.Errorf("failed write leaked into memory: %v", got)
	}

	if err := svc.Rename(p.ID, "Broken"); err == nil {
		t.Fatal("expected rename against closed store to fail")
	}
	if after := svc.Get(p.ID); after.Name != "Fragile" {
		t.Errorf("failed rename leaked into memory: %q", after.Name)
	}
}
