package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify turns a display name into a url-safe identifier. Stage and limbo
// zone ids are slugs of their names so graph JSON stays human-readable.
// Falls back to the given fallback when the input yields nothing.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
