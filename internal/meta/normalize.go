package meta

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, strips combining marks and recomposes,
// so "Björk" and "Bjork" normalize to the same key.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Credit separators seen in the wild: "A & B", "A feat. B", "A; B", "A / B".
// A bare comma is not a separator; names like "Tyler, The Creator" use it.
var creditSeparatorPattern = regexp.MustCompile(`(?i)\s*(?:;|/|&|\+| feat\.? | featuring | ft\.? | with )\s*`)

var versionSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\([^)]*?(remix|live|acoustic|demo|instrumental|radio|edit|extended|version|mix|remaster|deluxe|bonus|anniversary|edition|unplugged|session|mono|stereo).*?\)`),
	regexp.MustCompile(`(?i)\s*\[[^\]]*?(remix|live|acoustic|demo|instrumental|radio|edit|extended|version|mix|remaster|deluxe|bonus|anniversary|edition|unplugged|session|mono|stereo).*?\]`),
	regexp.MustCompile(`(?i)\s+(remastered|remix|live|acoustic|demo|instrumental|unplugged)$`),
}

// NormalizeName builds the case/diacritic-insensitive key used for artist,
// album-artist and genre identity.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}

	name = strings.ToLower(strings.TrimSpace(name))

	// "Beatles, The" -> "the beatles"
	if strings.HasSuffix(name, ", the") {
		name = "the " + strings.TrimSuffix(name, ", the")
	}

	name = removePunctuation(name)
	return collapseWhitespace(name)
}

// NormalizeTitle builds the comparison key for track and album titles.
// Version suffixes like "(2011 Remaster)" are stripped so reissues of the
// same recording share a key.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	for _, pattern := range versionSuffixPatterns {
		title = pattern.ReplaceAllString(title, "")
	}

	return NormalizeName(title)
}

// SortName rewrites a display name into its sort variant: a leading article
// moves to the back ("The Kinks" -> "Kinks, The").
func SortName(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) && len(trimmed) > len(article) {
			return trimmed[len(article):] + ", " + trimmed[:len(article)-1]
		}
	}
	return trimmed
}

// SplitCredits splits a multi-artist credit string ("A & B", "A feat. B")
// into individual names, preserving original casing. Empty fragments are
// dropped; a single plain name comes back as itself.
func SplitCredits(credit string) []string {
	if strings.TrimSpace(credit) == "" {
		return nil
	}

	parts := creditSeparatorPattern.Split(credit, -1)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func removePunctuation(s string) string {
	replacer := strings.NewReplacer(
		".", "",
		",", "",
		"!", "",
		"?", "",
		"'", "",
		"\"", "",
		":", "",
		";", "",
		"-", " ",
		"_", " ",
		"&", "and",
		"/", "",
		"(", "",
		")", "",
		"[", "",
		"]", "",
	)
	return replacer.Replace(s)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
