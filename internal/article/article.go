// Package article defines the news item shared by collection, scoring and
// storage.
package article

import "strings"

// MaxSummaryLength bounds the summary stored with an article, in runes.
const MaxSummaryLength = 1000

// Article is a single feed entry as collected. Fields that were missing
// in the feed are empty strings.
type Article struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
}

// New creates an article, trimming fields and truncating the summary.
func New(source, title, link, published, summary string) Article {
	return Article{
		Source:    strings.TrimSpace(source),
		Title:     strings.TrimSpace(title),
		Link:      strings.TrimSpace(link),
		Published: strings.TrimSpace(published),
		Summary:   Truncate(strings.TrimSpace(summary), MaxSummaryLength),
	}
}

// Text returns the title and summary joined by a space.
func (a Article) Text() string {
	return a.Title + " " + a.Summary
}

// WithSummary returns a copy of the article with a new, truncated summary.
func (a Article) WithSummary(summary string) Article {
	a.Summary = Truncate(strings.TrimSpace(summary), MaxSummaryLength)
	return a
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
