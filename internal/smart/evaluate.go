package smart

import (
	"sort"
	"strings"

	"github.com/franz/cadenza/internal/store"
)

// Matches reports whether a single track satisfies the criteria predicate.
// An empty rule list matches every track.
func (c *Criteria) Matches(t *store.Track) bool {
	if len(c.Rules) == 0 {
		return true
	}
	for _, rule := range c.Rules {
		hit := rule.matches(t)
		if c.Match == MatchAny {
			if hit {
				return true
			}
		} else if !hit {
			return false
		}
	}
	return c.Match != MatchAny
}

// Evaluate computes smart playlist membership over the given universe of
// tracks: filter, then sort, then limit, in that order. The input slice is
// not modified. Without an explicit sort the universe order is kept.
func (c *Criteria) Evaluate(universe []store.Track) []store.Track {
	return c.Window(c.MatchSet(universe))
}

// MatchSet computes the filtered and sorted membership without applying the
// limit. This is the shape ApplyDelta maintains incrementally; the limit
// stays a read-time concern via Window, so a member dropping out never loses
// the track that should take its place.
func (c *Criteria) MatchSet(universe []store.Track) []store.Track {
	matched := make([]store.Track, 0, len(universe))
	for _, t := range universe {
		if c.Matches(&t) {
			matched = append(matched, t)
		}
	}
	c.sortTracks(matched)
	return matched
}

// Window applies the limit to a match set. The input slice is not modified.
func (c *Criteria) Window(matched []store.Track) []store.Track {
	if c.Limit > 0 && len(matched) > c.Limit {
		return matched[:c.Limit]
	}
	return matched
}

// ApplyDelta incrementally updates a match set after a single track changed.
// Members must be the un-truncated set from MatchSet or a previous
// ApplyDelta; Window of the result is identical to re-running Evaluate over
// the full universe with the changed track swapped in.
func (c *Criteria) ApplyDelta(members []store.Track, changed store.Track) []store.Track {
	next := make([]store.Track, 0, len(members)+1)
	for _, t := range members {
		if t.ID != changed.ID {
			next = append(next, t)
		}
	}
	if c.Matches(&changed) {
		next = append(next, changed)
	}

	if c.Sort != nil {
		c.sortTracks(next)
	} else {
		sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
	}
	return next
}

func (c *Criteria) sortTracks(tracks []store.Track) {
	if c.Sort == nil {
		return
	}
	field, desc := c.Sort.Field, c.Sort.Desc
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := &tracks[i], &tracks[j]
		var less, equal bool
		if stringFields[field] {
			av, bv := strings.ToLower(stringValue(a, field)), strings.ToLower(stringValue(b, field))
			less, equal = av < bv, av == bv
		} else {
			av, bv := numberValue(a, field), numberValue(b, field)
			less, equal = av < bv, av == bv
		}
		if equal {
			// Deterministic order for ties regardless of direction.
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

func (r Rule) matches(t *store.Track) bool {
	switch {
	case stringFields[r.Field]:
		want, ok := r.Value.(string)
		if !ok {
			return false
		}
		have := stringValue(t, r.Field)
		switch r.Op {
		case OpEq:
			return strings.EqualFold(have, want)
		case OpNeq:
			return !strings.EqualFold(have, want)
		case OpContains:
			return strings.Contains(strings.ToLower(have), strings.ToLower(want))
		}
	case numberFields[r.Field]:
		want, ok := asNumber(r.Value)
		if !ok {
			return false
		}
		have := numberValue(t, r.Field)
		switch r.Op {
		case OpEq:
			return have == want
		case OpNeq:
			return have != want
		case OpGt:
			return have > want
		case OpGte:
			return have >= want
		case OpLt:
			return have < want
		case OpLte:
			return have <= want
		}
	case r.Field == FieldFavorite:
		want, ok := r.Value.(bool)
		if !ok {
			return false
		}
		if r.Op == OpNeq {
			return t.Favorite != want
		}
		return t.Favorite == want
	}
	return false
}

func stringValue(t *store.Track, field string) string {
	switch field {
	case FieldTitle:
		return t.Title
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	case FieldAlbumArtist:
		return t.AlbumArtist
	case FieldComposer:
		return t.Composer
	case FieldGenre:
		return t.Genre
	case FieldCodec:
		return t.Codec
	}
	return ""
}

func numberValue(t *store.Track, field string) float64 {
	switch field {
	case FieldYear:
		return float64(t.Year)
	case FieldDurationMs:
		return float64(t.DurationMs)
	case FieldBitrate:
		return float64(t.BitrateKbps)
	case FieldPlayCount:
		return float64(t.PlayCount)
	case FieldDateAdded:
		return float64(t.CreatedAt.Unix())
	case FieldLastPlayed:
		if t.LastPlayed == nil {
			return 0
		}
		return float64(t.LastPlayed.Unix())
	}
	return 0
}

// asNumber accepts the numeric shapes json.Unmarshal can produce
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
