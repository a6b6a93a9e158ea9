// Package playlist coordinates all playlist mutation through a single
// goroutine. The in-memory collection is owned by that goroutine; public
// methods send requests into it and wait, so no caller ever touches shared
// state directly.
package playlist

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/franz/cadenza/internal/store"
)

// entry pairs a playlist's metadata with its ordered track ids.
// Smart playlists carry no track ids; their membership is computed from
// criteria at read time.
type entry struct {
	meta     store.Playlist
	trackIDs []int64
}

// Service is the single-consumer playlist coordinator
type Service struct {
	store    *store.Store
	logger   *logrus.Logger
	requests chan func()
	done     chan struct{}

	// Owned by the run loop. Never accessed from outside it.
	playlists map[string]*entry
}

// New loads the playlist collection from the store and starts the
// coordinator goroutine. Callers must Close the service when done.
func New(st *store.Store, logger *logrus.Logger) (*Service, error) {
	loaded, err := st.ListPlaylists()
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}

	playlists := make(map[string]*entry, len(loaded))
	for _, p := range loaded {
		e := &entry{meta: p}
		if p.Type == store.PlaylistRegular {
			ids, err := st.GetPlaylistTrackIDs(p.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load playlist %s: %w", p.ID, err)
			}
			e.trackIDs = ids
		}
		playlists[p.ID] = e
	}

	s := &Service{
		store:     st,
		logger:    logger,
		requests:  make(chan func()),
		done:      make(chan struct{}),
		playlists: playlists,
	}
	go s.run()
	return s, nil
}

// Close stops the coordinator goroutine. Pending requests finish first.
func (s *Service) Close() {
	close(s.requests)
	<-s.done
}

func (s *Service) run() {
	defer close(s.done)
	for req := range s.requests {
		req()
	}
}

// do executes fn on the coordinator goroutine and waits for it
func (s *Service) do(fn func()) {
	reply := make(chan struct{})
	s.requests <- func() {
		fn()
		close(reply)
	}
	<-reply
}

// List returns every playlist in sidebar order
func (s *Service) List() []store.Playlist {
	var out []store.Playlist
	s.do(func() {
		out = make([]store.Playlist, 0, len(s.playlists))
		for _, e := range s.playlists {
			out = append(out, e.meta)
		}
	})
	sortPlaylists(out)
	return out
}

// Get returns a playlist by id, or nil when absent
func (s *Service) Get(id string) *store.Playlist {
	var out *store.Playlist
	s.do(func() {
		if e, ok := s.playlists[id]; ok {
			meta := e.meta
			out = &meta
		}
	})
	return out
}

// TrackIDs returns a regular playlist's track ids in display order
func (s *Service) TrackIDs(id string) []int64 {
	var out []int64
	s.do(func() {
		if e, ok := s.playlists[id]; ok {
			out = append([]int64(nil), e.trackIDs...)
		}
	})
	return out
}

// Create adds a new user playlist with a generated id
func (s *Service) Create(name string) (*store.Playlist, error) {
	var (
		created *store.Playlist
		err     error
	)
	s.do(func() {
		p := store.Playlist{
			ID:                uuid.NewString(),
			Name:              name,
			Type:              store.PlaylistRegular,
			IsUserEditable:    true,
			IsContentEditable: true,
		}
		s.playlists[p.ID] = &entry{meta: p}
		if perr := s.store.InsertPlaylist(&p); perr != nil {
			delete(s.playlists, p.ID)
			s.logger.WithError(perr).WithField("name", name).Error("playlist create failed, reverting")
			err = perr
			return
		}
		created = &p
	})
	return created, err
}

// Rename changes a playlist's display name. Renaming a playlist that is not
// user editable is a silent no-op.
func (s *Service) Rename(id, name string) error {
	var err error
	s.do(func() {
		e, ok := s.playlists[id]
		if !ok {
			return
		}
		if !e.meta.IsUserEditable {
			s.denied("rename", &e.meta)
			return
		}

		previous := e.meta.Name
		e.meta.Name = name
		if perr := s.store.RenamePlaylist(id, name); perr != nil {
			e.meta.Name = previous
			s.logger.WithError(perr).WithField("playlist", id).Error("playlist rename failed, reverting")
			err = perr
		}
	})
	return err
}

// Delete removes a playlist, its track rows and any pinned shortcuts
// referencing it. Deleting a playlist that is not user editable is a silent
// no-op.
func (s *Service) Delete(id string) error {
	var err error
	s.do(func() {
		e, ok := s.playlists[id]
		if !ok {
			return
		}
		if !e.meta.IsUserEditable {
			s.denied("delete", &e.meta)
			return
		}

		delete(s.playlists, id)
		if perr := s.store.DeletePlaylist(id); perr != nil {
			s.playlists[id] = e
			s.logger.WithError(perr).WithField("playlist", id).Error("playlist delete failed, reverting")
			err = perr
		}
	})
	return err
}

// AddTracks appends tracks to a regular playlist. Ids already present and
// duplicates within the batch are dropped, so a batch add is idempotent.
// Exactly one persistence write happens per call. Adding to a playlist whose
// content is not editable is a silent no-op.
func (s *Service) AddTracks(id string, trackIDs []int64) error {
	var err error
	s.do(func() {
		e, ok := s.playlists[id]
		if !ok {
			return
		}
		if !e.meta.IsContentEditable {
			s.denied("add tracks", &e.meta)
			return
		}

		seen := make(map[int64]bool, len(e.trackIDs))
		for _, tid := range e.trackIDs {
			seen[tid] = true
		}

		next := append([]int64(nil), e.trackIDs...)
		for _, tid := range trackIDs {
			if seen[tid] {
				continue
			}
			seen[tid] = true
			next = append(next, tid)
		}
		if len(next) == len(e.trackIDs) {
			return
		}

		err = s.replaceTracks(e, next, "add")
	})
	return err
}

// RemoveTracks removes tracks from a regular playlist, keeping the order of
// the remainder. Exactly one persistence write happens per call. Removing
// from a playlist whose content is not editable is a silent no-op.
func (s *Service) RemoveTracks(id string, trackIDs []int64) error {
	var err error
	s.do(func() {
		e, ok := s.playlists[id]
		if !ok {
			return
		}
		if !e.meta.IsContentEditable {
			s.denied("remove tracks", &e.meta)
			return
		}

		drop := make(map[int64]bool, len(trackIDs))
		for _, tid := range trackIDs {
			drop[tid] = true
		}

		next := make([]int64, 0, len(e.trackIDs))
		for _, tid := range e.trackIDs {
			if !drop[tid] {
				next = append(next, tid)
			}
		}
		if len(next) == len(e.trackIDs) {
			return
		}

		err = s.replaceTracks(e, next, "remove")
	})
	return err
}

// replaceTracks applies a track list change memory-first, then persists it,
// reverting on failure. Runs on the coordinator goroutine.
func (s *Service) replaceTracks(e *entry, next []int64, op string) error {
	previous := e.trackIDs
	e.trackIDs = next
	if err := s.store.ReplacePlaylistTracks(e.meta.ID, next); err != nil {
		e.trackIDs = previous
		s.logger.WithError(err).WithFields(logrus.Fields{
			"playlist": e.meta.ID,
			"op":       op,
		}).Error("playlist write failed, reverting")
		return err
	}
	return nil
}

// denied logs a blocked mutation. Policy violations are warnings, not errors.
func (s *Service) denied(op string, p *store.Playlist) {
	s.logger.WithFields(logrus.Fields{
		"playlist": p.ID,
		"name":     p.Name,
		"op":       op,
	}).Warn("playlist is not editable, ignoring")
}

func sortPlaylists(playlists []store.Playlist) {
	sort.Slice(playlists, func(i, j int) bool {
		if playlists[i].SortOrder != playlists[j].SortOrder {
			return playlists[i].SortOrder < playlists[j].SortOrder
		}
		return playlists[i].Name < playlists[j].Name
	})
}
