package meta

import (
	"strings"

	"github.com/franz/cadenza/internal/store"
)

// Delta is the set of entity changes one file implies: the track row itself,
// its artist credits with roles, its genres, and the identity of the album
// it belongs to (zero value when the file carries no album).
type Delta struct {
	Track    store.Track
	Credits  []store.ArtistCredit
	Genres   []store.GenreRef
	AlbumKey store.AlbumKey

	// ArtworkPath carries embedded art for propagation onto the album and
	// contributing artists.
	ArtworkPath string
}

// Normalize maps a raw metadata record plus its file reference into entity
// deltas. Pure; it never touches storage.
func Normalize(raw *Raw, path string, sizeBytes, mtimeUnix int64) *Delta {
	track := store.Track{
		Path:        path,
		Title:       raw.Title,
		Artist:      raw.Artist,
		Album:       raw.Album,
		AlbumArtist: raw.AlbumArtist,
		Composer:    raw.Composer,
		Genre:       raw.Genre,
		Year:        raw.Year,
		SortTitle:   SortName(raw.Title),
		SortArtist:  SortName(raw.Artist),
		TrackNo:     raw.TrackNo,
		DiscNo:      raw.DiscNo,
		DurationMs:  raw.DurationMs,
		BitrateKbps: raw.BitrateKbps,
		SampleRate:  raw.SampleRate,
		BitDepth:    raw.BitDepth,
		Codec:       raw.Codec,
		Lossless:    raw.Lossless,
		SizeBytes:   sizeBytes,
		MtimeUnix:   mtimeUnix,
		HasArtwork:  raw.ArtworkPath != "",
		Extended:    raw.Extended,
	}

	delta := &Delta{
		Track:       track,
		Credits:     buildCredits(raw),
		Genres:      buildGenres(raw.Genre),
		ArtworkPath: raw.ArtworkPath,
	}

	if raw.Album != "" {
		albumArtist := raw.AlbumArtist
		if albumArtist == "" {
			// Fall back to the first performing artist so compilations
			// without an album-artist tag still get a stable identity
			if names := SplitCredits(raw.Artist); len(names) > 0 {
				albumArtist = names[0]
			}
		}
		delta.AlbumKey = store.AlbumKey{
			Title:           raw.Album,
			TitleNorm:       NormalizeTitle(raw.Album),
			AlbumArtist:     albumArtist,
			AlbumArtistNorm: NormalizeName(albumArtist),
			Year:            raw.Year,
		}
	}

	return delta
}

// PrimaryArtist returns the first performing artist of a credit string
func PrimaryArtist(credit string) string {
	names := SplitCredits(credit)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func buildCredits(raw *Raw) []store.ArtistCredit {
	seen := make(map[string]bool)
	var credits []store.ArtistCredit

	add := func(name, role string) {
		name = strings.TrimSpace(name)
		nameNorm := NormalizeName(name)
		if nameNorm == "" || seen[role+"|"+nameNorm] {
			return
		}
		seen[role+"|"+nameNorm] = true
		credits = append(credits, store.ArtistCredit{Name: name, NameNorm: nameNorm, Role: role})
	}

	for _, name := range SplitCredits(raw.Artist) {
		add(name, store.RoleArtist)
	}
	for _, name := range SplitCredits(raw.AlbumArtist) {
		add(name, store.RoleAlbumArtist)
	}
	for _, name := range SplitCredits(raw.Composer) {
		add(name, store.RoleComposer)
	}

	return credits
}

func buildGenres(genre string) []store.GenreRef {
	seen := make(map[string]bool)
	var genres []store.GenreRef

	for _, name := range SplitCredits(genre) {
		nameNorm := NormalizeName(name)
		if nameNorm == "" || seen[nameNorm] {
			continue
		}
		seen[nameNorm] = true
		genres = append(genres, store.GenreRef{Name: name, NameNorm: nameNorm})
	}

	return genres
}
