// Package platform owns the platform-key vocabulary: the closed set of
// adapter keys and the synonym table that maps user-facing platform
// names onto them. It is a pure mapping with no knowledge of the
// adapter registry, so new synonyms never touch adapter code.
package platform

import "strings"

// Canonical adapter keys.
const (
	YouTube  = "youtube"
	Twitter  = "twitter"
	Reddit   = "reddit"
	Podcasts = "podcasts"
	RSS      = "rss"
	Email    = "email"
	Slack    = "slack"
	Uploads  = "uploads"
)

// synonyms collapses user-facing platform names onto adapter keys.
var synonyms = map[string]string{
	"newsletters": RSS,
	"substack":    RSS,
	"podcast":     Podcasts,
	"emails":      Email,
}

var known = map[string]bool{
	YouTube:  true,
	Twitter:  true,
	Reddit:   true,
	Podcasts: true,
	RSS:      true,
	Email:    true,
	Slack:    true,
	Uploads:  true,
}

// Normalize maps a raw platform key onto its adapter key. Unrecognized
// keys normalize to themselves (lowercased); dispatch turns those into
// a no-handler outcome.
func Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := synonyms[key]; ok {
		return canonical
	}
	return key
}

// Known reports whether key is one of the canonical adapter keys
func Known(key string) bool {
	return known[key]
}

// All returns the canonical adapter keys
func All() []string {
	return []string{YouTube, Twitter, Reddit, Podcasts, RSS, Email, Slack, Uploads}
}
