package ingest

import (
	"path/filepath"
	"strings"
)

// AudioExtensions are the supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
	".ape",
	".wv",
}

var audioExtSet = func() map[string]bool {
	m := make(map[string]bool, len(AudioExtensions))
	for _, ext := range AudioExtensions {
		m[ext] = true
	}
	return m
}()

// IsAudioPath reports whether the path has a supported audio extension
func IsAudioPath(path string) bool {
	return audioExtSet[strings.ToLower(filepath.Ext(path))]
}
