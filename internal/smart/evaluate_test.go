package smart

import (
	"errors"
	"testing"
	"time"

	"github.com/franz/cadenza/internal/store"
	"github.com/franz/cadenza/internal/util"
)

func track(id int64, title string, favorite bool, playCount int) store.Track {
	return store.Track{
		ID:        id,
		Title:     title,
		Favorite:  favorite,
		PlayCount: playCount,
		CreatedAt: time.Date(2026, 1, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func ids(tracks []store.Track) []int64 {
	out := make([]int64, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestEvaluateSortsBeforeLimit(t *testing.T) {
	universe := []store.Track{
		track(1, "C", false, 0),
		track(2, "A", false, 0),
		track(3, "B", false, 0),
	}
	c := &Criteria{
		Match: MatchAll,
		Sort:  &Sort{Field: FieldTitle},
		Limit: 2,
	}

	got := c.Evaluate(universe)
	if len(got) != 2 || got[0].Title != "A" || got[1].Title != "B" {
		t.Fatalf("expected [A B], got %v", ids(got))
	}
}

func TestEvaluateMatchModes(t *testing.T) {
	universe := []store.Track{
		track(1, "One", true, 0),
		track(2, "Two", false, 5),
		track(3, "Three", true, 5),
	}
	rules := []Rule{
		{Field: FieldFavorite, Op: OpEq, Value: true},
		{Field: FieldPlayCount, Op: OpGt, Value: float64(0)},
	}

	all := &Criteria{Match: MatchAll, Rules: rules}
	if got := all.Evaluate(universe); len(got) != 1 || got[0].ID != 3 {
		t.Errorf("match all: expected [3], got %v", ids(got))
	}

	anyOf := &Criteria{Match: MatchAny, Rules: rules}
	if got := anyOf.Evaluate(universe); len(got) != 3 {
		t.Errorf("match any: expected all 3 tracks, got %v", ids(got))
	}
}

func TestEvaluateStringOperators(t *testing.T) {
	universe := []store.Track{
		{ID: 1, Title: "Hôtel California", Genre: "Rock"},
		{ID: 2, Title: "Take Five", Genre: "Jazz"},
	}

	contains := &Criteria{Rules: []Rule{{Field: FieldTitle, Op: OpContains, Value: "california"}}}
	if got := contains.Evaluate(universe); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("contains: expected [1], got %v", ids(got))
	}

	neq := &Criteria{Rules: []Rule{{Field: FieldGenre, Op: OpNeq, Value: "rock"}}}
	if got := neq.Evaluate(universe); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("neq is case-insensitive: expected [2], got %v", ids(got))
	}
}

func TestApplyDeltaMatchesFullEvaluate(t *testing.T) {
	universe := []store.Track{
		track(1, "Alpha", true, 0),
		track(2, "Beta", false, 0),
		track(3, "Gamma", true, 0),
	}
	c := &Criteria{
		Match: MatchAll,
		Rules: []Rule{{Field: FieldFavorite, Op: OpEq, Value: true}},
		Sort:  &Sort{Field: FieldTitle},
	}

	members := c.MatchSet(universe)

	// Track 2 becomes a favorite; track 1 stops being one. Apply each change
	// incrementally and compare against a fresh full evaluation.
	universe[1].Favorite = true
	members = c.ApplyDelta(members, universe[1])
	universe[0].Favorite = false
	members = c.ApplyDelta(members, universe[0])

	got := c.Window(members)
	want := c.Evaluate(universe)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", ids(want), ids(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Fatalf("expected %v, got %v", ids(want), ids(got))
		}
	}
}

func TestApplyDeltaRefillsLimitedWindow(t *testing.T) {
	universe := []store.Track{
		track(1, "Alpha", true, 0),
		track(2, "Beta", true, 0),
		track(3, "Gamma", true, 0),
	}
	c := &Criteria{
		Match: MatchAll,
		Rules: []Rule{{Field: FieldFavorite, Op: OpEq, Value: true}},
		Sort:  &Sort{Field: FieldTitle},
		Limit: 2,
	}

	members := c.MatchSet(universe)
	if got := c.Window(members); len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected window [1 2], got %v", ids(got))
	}

	// The first member drops out; the track beyond the limit must take its
	// place in the window.
	universe[0].Favorite = false
	members = c.ApplyDelta(members, universe[0])

	got := c.Window(members)
	want := c.Evaluate(universe)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("expected window [2 3], got %v", ids(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Fatalf("expected %v, got %v", ids(want), ids(got))
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := `{"match":"all","rules":[{"field":"play_count","op":"gt","value":0}],"sort":{"field":"play_count","desc":true},"limit":50}`
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse criteria: %v", err)
	}
	if c.Limit != 50 || c.Sort == nil || !c.Sort.Desc {
		t.Errorf("parsed criteria wrong: %+v", c)
	}

	encoded, err := c.Encode()
	if err != nil {
		t.Fatalf("failed to encode criteria: %v", err)
	}
	again, err := Parse(encoded)
	if err != nil {
		t.Fatalf("failed to reparse criteria: %v", err)
	}
	if again.Sort.Field != FieldPlayCount {
		t.Errorf("round trip lost sort field: %+v", again)
	}
}

func TestParseRejectsBadCriteria(t *testing.T) {
	cases := []string{
		`{"rules":[{"field":"mood","op":"eq","value":"happy"}]}`,
		`{"rules":[{"field":"title","op":"gt","value":"x"}]}`,
		`{"rules":[{"field":"favorite","op":"contains","value":true}]}`,
		`{"match":"some","rules":[]}`,
		`{"rules":[],"sort":{"field":"mood"}}`,
		`not json`,
	}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, util.ErrInvalidCriteria) {
			t.Errorf("expected ErrInvalidCriteria for %s, got %v", raw, err)
		}
	}
}
