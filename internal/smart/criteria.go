package smart

import (
	"encoding/json"
	"fmt"

	"github.com/franz/cadenza/internal/util"
)

// Match modes
const (
	MatchAll = "all"
	MatchAny = "any"
)

// Rule operators
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpContains = "contains"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
)

// Rule fields
const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldAlbum       = "album"
	FieldAlbumArtist = "album_artist"
	FieldComposer    = "composer"
	FieldGenre       = "genre"
	FieldCodec       = "codec"
	FieldYear        = "year"
	FieldDurationMs  = "duration_ms"
	FieldBitrate     = "bitrate"
	FieldPlayCount   = "play_count"
	FieldFavorite    = "favorite"
	FieldDateAdded   = "date_added"
	FieldLastPlayed  = "last_played"
)

var stringFields = map[string]bool{
	FieldTitle:       true,
	FieldArtist:      true,
	FieldAlbum:       true,
	FieldAlbumArtist: true,
	FieldComposer:    true,
	FieldGenre:       true,
	FieldCodec:       true,
}

var numberFields = map[string]bool{
	FieldYear:       true,
	FieldDurationMs: true,
	FieldBitrate:    true,
	FieldPlayCount:  true,
	FieldDateAdded:  true,
	FieldLastPlayed: true,
}

// Criteria is the serializable definition of a smart playlist: a predicate
// over track fields, an optional sort, and an optional result limit. It is
// stored verbatim in the playlists.smart_criteria column; membership is
// always computed from it, never materialized.
type Criteria struct {
	Match string `json:"match,omitempty"`
	Rules []Rule `json:"rules"`
	Sort  *Sort  `json:"sort,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Rule is a single field condition. Value is a string for text fields, a
// number for numeric fields, or a bool for the favorite flag.
type Rule struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Sort names the ordering applied before the limit
type Sort struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Parse decodes and validates serialized criteria
func Parse(raw string) (*Criteria, error) {
	var c Criteria
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidCriteria, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode serializes criteria for storage
func (c *Criteria) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode criteria: %w", err)
	}
	return string(raw), nil
}

// Validate checks fields, operators and the match mode
func (c *Criteria) Validate() error {
	if c.Match != "" && c.Match != MatchAll && c.Match != MatchAny {
		return fmt.Errorf("%w: unknown match mode %q", util.ErrInvalidCriteria, c.Match)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: negative limit", util.ErrInvalidCriteria)
	}

	for _, rule := range c.Rules {
		if err := rule.validate(); err != nil {
			return err
		}
	}

	if c.Sort != nil && !stringFields[c.Sort.Field] && !numberFields[c.Sort.Field] {
		return fmt.Errorf("%w: unknown sort field %q", util.ErrInvalidCriteria, c.Sort.Field)
	}

	return nil
}

func (r Rule) validate() error {
	switch {
	case stringFields[r.Field]:
		if r.Op != OpEq && r.Op != OpNeq && r.Op != OpContains {
			return fmt.Errorf("%w: operator %q not valid for text field %q", util.ErrInvalidCriteria, r.Op, r.Field)
		}
	case numberFields[r.Field]:
		switch r.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("%w: operator %q not valid for numeric field %q", util.ErrInvalidCriteria, r.Op, r.Field)
		}
	case r.Field == FieldFavorite:
		if r.Op != OpEq && r.Op != OpNeq {
			return fmt.Errorf("%w: operator %q not valid for favorite", util.ErrInvalidCriteria, r.Op)
		}
	default:
		return fmt.Errorf("%w: unknown field %q", util.ErrInvalidCriteria, r.Field)
	}
	return nil
}
