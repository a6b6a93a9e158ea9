package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Raw is the structured metadata record produced for one audio file. It is
// the boundary type between whatever extracts metadata and the rest of the
// system; nothing downstream touches the file again.
type Raw struct {
	Title       string
	Artist      string // full credit string, possibly multiple names
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Year        int
	TrackNo     int
	DiscNo      int

	DurationMs  int
	BitrateKbps int
	SampleRate  int
	BitDepth    int
	Codec       string
	Lossless    bool

	// ArtworkPath is set when the file carries embedded art that has been
	// materialized somewhere readable (cover cache, sidecar file).
	ArtworkPath string

	Extended map[string]string
}

// Extractor turns a file path into a structured metadata record. It must be
// synchronous and side-effect free; a failure applies to that file only.
type Extractor interface {
	Extract(path string) (*Raw, error)
}

// Lossless codecs by file extension
var losslessCodecs = map[string]bool{
	"flac": true,
	"alac": true,
	"ape":  true,
	"wav":  true,
	"aiff": true,
	"wv":   true,
}

// TagExtractor reads metadata with the dhowden/tag parser, falling back to
// path-derived fields when the file has no usable tags.
type TagExtractor struct{}

// NewTagExtractor returns the default tag-based extractor
func NewTagExtractor() *TagExtractor {
	return &TagExtractor{}
}

// Extract implements Extractor
func (e *TagExtractor) Extract(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	codec := codecFromPath(path)
	raw := &Raw{
		Codec:    codec,
		Lossless: losslessCodecs[codec],
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		// No readable tags at all; derive what we can from the path
		applyPathFallback(raw, path)
		return raw, nil
	}

	raw.Title = strings.TrimSpace(m.Title())
	raw.Artist = strings.TrimSpace(m.Artist())
	raw.Album = strings.TrimSpace(m.Album())
	raw.AlbumArtist = strings.TrimSpace(m.AlbumArtist())
	raw.Composer = strings.TrimSpace(m.Composer())
	raw.Genre = strings.TrimSpace(m.Genre())
	raw.Year = m.Year()
	raw.TrackNo, _ = m.Track()
	raw.DiscNo, _ = m.Disc()

	if raw.Title == "" || raw.Artist == "" {
		applyPathFallback(raw, path)
	}

	raw.Extended = map[string]string{
		"format":    string(m.Format()),
		"file_type": string(m.FileType()),
	}
	if comment := strings.TrimSpace(m.Comment()); comment != "" {
		raw.Extended["comment"] = comment
	}

	return raw, nil
}

// applyPathFallback fills missing title/artist/album from the conventional
// Artist/Album/NN Title.ext layout.
func applyPathFallback(raw *Raw, path string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if raw.Title == "" {
		raw.Title = strings.TrimSpace(base)
	}

	albumDir := filepath.Dir(path)
	artistDir := filepath.Dir(albumDir)
	if raw.Album == "" {
		if name := filepath.Base(albumDir); name != "." && name != string(filepath.Separator) {
			raw.Album = name
		}
	}
	if raw.Artist == "" {
		if name := filepath.Base(artistDir); name != "." && name != string(filepath.Separator) {
			raw.Artist = name
		}
	}
}

func codecFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
