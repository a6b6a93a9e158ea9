// Package ingest turns batches of audio file paths into library rows. File
// reads and metadata extraction fan out across workers; every database write
// for a batch happens in one transaction.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/cadenza/internal/dupes"
	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
	"github.com/franz/cadenza/internal/util"
)

type action int

const (
	actionSkip action = iota
	actionInsert
	actionUpdate
)

// classified is the read-only outcome of phase one for a single path
type classified struct {
	path     string
	act      action
	delta    *meta.Delta
	existing *store.Track
}

// Pipeline ingests audio files into the store
type Pipeline struct {
	store       *store.Store
	extractor   meta.Extractor
	detector    *dupes.Detector
	logger      *logrus.Logger
	concurrency int

	mu       sync.Mutex
	scanning bool
	message  string
}

// Config holds pipeline configuration
type Config struct {
	Store       *store.Store
	Extractor   meta.Extractor
	Detector    *dupes.Detector
	Logger      *logrus.Logger
	Concurrency int
}

// New creates a new Pipeline
func New(cfg *Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = meta.NewTagExtractor()
	}
	return &Pipeline{
		store:       cfg.Store,
		extractor:   extractor,
		detector:    cfg.Detector,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Result summarizes one batch
type Result struct {
	Scanned    int
	Added      int
	Updated    int
	Skipped    int
	Duplicates int
}

// Status reports whether a batch is currently being processed
type Status struct {
	Scanning bool
	Message  string
}

// Status returns the pipeline's current progress state
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Scanning: p.scanning, Message: p.message}
}

func (p *Pipeline) setStatus(scanning bool, format string, args ...any) {
	p.mu.Lock()
	p.scanning = scanning
	p.message = fmt.Sprintf(format, args...)
	p.mu.Unlock()
}

// ProcessBatch ingests the given paths into the folder. Classification and
// extraction run concurrently and never write; all writes for the batch then
// happen in a single transaction, so a failure rolls the whole batch back.
// A file that cannot be read or parsed is skipped with a log line and never
// fails the batch. After a successful commit duplicate groups are
// reconciled across the whole library.
func (p *Pipeline) ProcessBatch(ctx context.Context, folderID int64, paths []string) (*Result, error) {
	p.setStatus(true, "classifying %d files", len(paths))
	defer p.setStatus(false, "idle")

	result := &Result{Scanned: len(paths)}

	workers := pool.NewWithResults[*classified]().WithMaxGoroutines(p.concurrency)
	for _, path := range paths {
		path := path
		workers.Go(func() *classified {
			return p.classify(path)
		})
	}
	outcomes := workers.Wait()

	// Completion order is nondeterministic; apply in path order so inserted
	// row ids are stable for a given batch.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	var changes []*classified
	for _, c := range outcomes {
		if c.act == actionSkip {
			result.Skipped++
			continue
		}
		changes = append(changes, c)
	}

	if len(changes) > 0 {
		p.setStatus(true, "writing %d changed files", len(changes))
		err := p.store.Transaction(func(tx *sql.Tx) error {
			for _, c := range changes {
				if err := p.applyTx(tx, folderID, c); err != nil {
					return fmt.Errorf("failed to apply %s: %w", c.path, err)
				}
				if c.act == actionInsert {
					result.Added++
				} else {
					result.Updated++
				}
			}
			return p.store.RecomputeStatsTx(tx)
		})
		if err != nil {
			return nil, err
		}
	}

	p.setStatus(true, "reconciling duplicates")
	recon, err := p.detector.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile duplicates: %w", err)
	}
	result.Duplicates = recon.Duplicates

	p.logger.WithFields(logrus.Fields{
		"scanned": result.Scanned,
		"added":   result.Added,
		"updated": result.Updated,
		"skipped": result.Skipped,
	}).Info("batch complete")
	return result, nil
}

// classify decides what a single path needs. Read-only; failures demote the
// file to a skip.
func (p *Pipeline) classify(path string) *classified {
	skip := &classified{path: path, act: actionSkip}

	if !IsAudioPath(path) {
		p.logger.WithError(util.ErrUnsupported).WithField("path", path).Warn("not an audio file, skipping")
		return skip
	}

	info, err := os.Stat(path)
	if err != nil {
		p.logger.WithError(err).WithField("path", path).Warn("cannot stat file, skipping")
		return skip
	}

	existing, err := p.store.GetTrackByPath(path)
	if err != nil {
		p.logger.WithError(err).WithField("path", path).Warn("lookup failed, skipping")
		return skip
	}
	// Not newer than the stored mtime means unchanged; a size change still
	// forces re-extraction.
	if existing != nil && info.ModTime().Unix() <= existing.MtimeUnix && existing.SizeBytes == info.Size() {
		return skip
	}

	raw, err := p.extractor.Extract(path)
	if err != nil {
		p.logger.WithError(err).WithField("path", path).Warn("extraction failed, skipping")
		return skip
	}

	c := &classified{
		path:     path,
		act:      actionInsert,
		delta:    meta.Normalize(raw, path, info.Size(), info.ModTime().Unix()),
		existing: existing,
	}
	if existing != nil {
		c.act = actionUpdate
	}
	return c
}

// applyTx writes one classified file inside the batch transaction. Album
// identity is resolved before the track row so the foreign key exists.
func (p *Pipeline) applyTx(tx *sql.Tx, folderID int64, c *classified) error {
	delta := c.delta

	albumID, err := p.store.ResolveAlbumTx(tx, delta.AlbumKey)
	if err != nil {
		return err
	}

	track := delta.Track
	track.FolderID = folderID
	if albumID > 0 {
		track.AlbumID = &albumID
	}

	if c.act == actionUpdate {
		track.ID = c.existing.ID
		track.FolderID = c.existing.FolderID
		if err := p.store.UpdateTrackTx(tx, &track); err != nil {
			return err
		}
	} else {
		if err := p.store.InsertTrackTx(tx, &track); err != nil {
			return err
		}
	}

	if err := p.store.ReplaceTrackArtistsTx(tx, track.ID, delta.Credits); err != nil {
		return err
	}
	if err := p.store.ReplaceTrackGenresTx(tx, track.ID, delta.Genres); err != nil {
		return err
	}

	if albumID > 0 {
		position := 0
		for _, credit := range delta.Credits {
			if credit.Role != store.RoleAlbumArtist {
				continue
			}
			if err := p.store.LinkAlbumArtistTx(tx, albumID, credit, position); err != nil {
				return err
			}
			position++
		}
	}

	// Artwork reaches the contributing artists even when the track has no
	// album to attach it to.
	if delta.ArtworkPath != "" {
		if err := p.store.PropagateArtworkTx(tx, track.ID, albumID, delta.ArtworkPath); err != nil {
			return err
		}
	}

	return nil
}
