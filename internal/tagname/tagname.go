// Package tagname converts free-form tag text into canonical tag
// identifiers of the form [a-z0-9-]+.
package tagname

import (
	"regexp"
	"sort"
	"strings"
)

// Default is the tag used when none is given or the given one is invalid.
const Default = "base"

var (
	separatorRun = regexp.MustCompile(`[\s\p{Zs}\v\x{85}\x{2028}\x{2029}\x{FEFF}_]+`)
	disallowed   = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun    = regexp.MustCompile(`-+`)
	validTag     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Normalize lowercases text, turns whitespace and underscore runs into a
// single hyphen, strips everything outside [a-z0-9-], collapses repeated
// hyphens and trims hyphens from both ends. Normalize(Normalize(x)) ==
// Normalize(x).
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = separatorRun.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether tag is a non-empty canonical identifier.
func IsValid(tag string) bool {
	return tag != "" && validTag.MatchString(tag)
}

// Canonical normalizes text and reports whether the result is valid.
func Canonical(text string) (string, bool) {
	tag := Normalize(text)
	return tag, IsValid(tag)
}

// OrDefault returns the canonical form of text, or Default when text
// normalizes to an invalid tag.
func OrDefault(text string) string {
	if tag, ok := Canonical(text); ok {
		return tag
	}
	return Default
}

// SortForDisplay returns tags deduplicated with first (when non-empty) at
// the front and the rest in alphabetical order. first is included even if
// absent from tags.
func SortForDisplay(tags []string, first string) []string {
	seen := make(map[string]bool, len(tags)+1)
	rest := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == first || seen[t] {
			continue
		}
		seen[t] = true
		rest = append(rest, t)
	}
	sort.Strings(rest)
	if first == "" {
		return rest
	}
	return append([]string{first}, rest...)
}
