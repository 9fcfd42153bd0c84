// internal/routing/slug.go
//
// Slug helpers for storefront anchors and paths.
//
// • MakeSlug(title) ─ converts arbitrary text from a WebPages row into a
//   URL-safe fragment restricted to ASCII a-z, 0-9 and “-”.
// • SitePath(username) ─ the main-host path of a master-sheet user.
//
// Rules (MakeSlug)
// ----------------
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.
// 3. Trim leading / trailing “-”.
// 4. If the result is empty, return "page".
// 5. Cap at 100 bytes.

package routing

import (
	"net/url"
	"strings"
)

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastWasDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "page"
	}
	if len(slug) > 100 {
		slug = strings.TrimRight(slug[:100], "-")
	}
	return slug
}

// SitePath returns "/<username>" with the name path-escaped.
func SitePath(username string) string {
	return "/" + url.PathEscape(strings.TrimSpace(username))
}
