package dupes

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
)

// Duration bucket size for the identity key. Files within ±1.5s of each
// other land in the same bucket and are candidates for the same recording.
const durationBucketSeconds = 3.0

// Detector groups tracks into duplicate groups and elects a primary per group
type Detector struct {
	store  *store.Store
	logger *logrus.Logger
}

// New creates a new Detector
func New(st *store.Store, logger *logrus.Logger) *Detector {
	return &Detector{store: st, logger: logger}
}

// Result represents one reconciliation pass
type Result struct {
	Tracks     int
	Groups     int
	Duplicates int
}

// Reconcile re-derives duplicate grouping for the whole library: every
// track's flags are reset, tracks are grouped by identity key, and each
// multi-member group gets one elected primary with all other members
// pointing at it. The pass is idempotent in outcome - the same primary wins
// every run - but group identifiers are freshly generated each run, so
// callers may rely on group membership and primary election only, never on a
// group id matching a previous run's.
func (d *Detector) Reconcile(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks, err := d.store.ListTracks()
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	groups := make(map[string][]*store.Track)
	for i := range tracks {
		key := IdentityKey(&tracks[i])
		groups[key] = append(groups[key], &tracks[i])
	}

	result := &Result{Tracks: len(tracks)}
	var assignments []store.DuplicateAssignment

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		electPrimary(members)

		assignment := store.DuplicateAssignment{
			GroupID:   uuid.NewString(),
			PrimaryID: members[0].ID,
		}
		for _, member := range members[1:] {
			assignment.DuplicateIDs = append(assignment.DuplicateIDs, member.ID)
		}

		assignments = append(assignments, assignment)
		result.Groups++
		result.Duplicates += len(members) - 1
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := d.store.ApplyDuplicateGroups(assignments); err != nil {
		return nil, fmt.Errorf("failed to apply duplicate groups: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"tracks":     result.Tracks,
		"groups":     result.Groups,
		"duplicates": result.Duplicates,
	}).Info("duplicate reconciliation complete")

	return result, nil
}

// electPrimary orders members best-first: highest quality score wins, with
// the stable numeric id as tie-breaker so election is deterministic
// regardless of traversal order.
func electPrimary(members []*store.Track) {
	sort.Slice(members, func(i, j int) bool {
		si, sj := QualityScore(members[i]), QualityScore(members[j])
		if si != sj {
			return si > sj
		}
		return members[i].ID < members[j].ID
	})
}

// IdentityKey derives the content-identity fingerprint of a track:
// normalized title, normalized primary artist, and the duration rounded to a
// tolerant bucket.
func IdentityKey(t *store.Track) string {
	title := meta.NormalizeTitle(t.Title)
	artist := meta.NormalizeName(meta.PrimaryArtist(t.Artist))

	if title == "" && artist == "" {
		// No usable identity; key on the path so nothing false-groups
		return "path|" + t.Path
	}

	return fmt.Sprintf("%s|%s|%d", title, artist, bucketDuration(t.DurationMs))
}

// bucketDuration rounds a duration to the nearest bucket so durations within
// half a bucket of each other compare equal.
func bucketDuration(durationMs int) int {
	if durationMs <= 0 {
		return 0
	}
	seconds := float64(durationMs) / 1000.0
	return int(math.Round(seconds/durationBucketSeconds) * durationBucketSeconds)
}

// QualityScore ranks a track's technical fidelity. Higher is better. The
// weights follow a simple tier model: lossless codec beats lossy, then
// bitrate, then sample rate, then completeness of the tags themselves.
func QualityScore(t *store.Track) float64 {
	score := codecScore(t)
	score += sampleRateScore(t.SampleRate)
	score += bitDepthScore(t.BitDepth)
	score += completenessScore(t)
	return score
}

func codecScore(t *store.Track) float64 {
	codec := strings.ToLower(t.Codec)

	if t.Lossless {
		switch codec {
		case "flac", "alac", "wav", "aiff":
			return 40.0
		default:
			return 35.0
		}
	}

	switch {
	case t.BitrateKbps >= 320:
		return 20.0
	case t.BitrateKbps >= 256:
		return 18.0
	case t.BitrateKbps >= 192:
		return 15.0
	case t.BitrateKbps >= 128:
		return 12.0
	default:
		return 8.0
	}
}

func sampleRateScore(sampleRate int) float64 {
	switch {
	case sampleRate >= 96000:
		return 5.0
	case sampleRate >= 48000:
		return 2.0
	case sampleRate >= 44100:
		return 0.0
	case sampleRate > 0:
		return -2.0
	default:
		return 0.0
	}
}

func bitDepthScore(bitDepth int) float64 {
	switch {
	case bitDepth >= 24:
		return 5.0
	case bitDepth >= 20:
		return 3.0
	default:
		return 0.0
	}
}

func completenessScore(t *store.Track) float64 {
	score := 0.0
	if t.Title != "" {
		score += 1.0
	}
	if t.Artist != "" {
		score += 1.0
	}
	if t.Album != "" {
		score += 1.0
	}
	if t.TrackNo > 0 {
		score += 1.0
	}
	if t.Year > 0 {
		score += 1.0
	}
	return score
}
