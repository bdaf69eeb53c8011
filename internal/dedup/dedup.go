// Package dedup removes repeated articles by link and by fuzzy title match.
package dedup

import (
	"strings"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

// Threshold is the title similarity above which two articles are the same
// story.
const Threshold = 0.85

// Deduplicate drops articles whose link was already seen or whose title is
// more than Threshold similar to a kept title. The first occurrence wins and
// surviving articles keep their order. Articles with neither link nor title
// are always kept.
func Deduplicate(articles []article.Article) ([]article.Article, int) {
	unique := make([]article.Article, 0, len(articles))
	links := make(map[string]struct{})
	var titles []string
	duplicates := 0

	for _, a := range articles {
		link := strings.TrimSpace(a.Link)
		title := strings.ToLower(strings.TrimSpace(a.Title))

		if link == "" && title == "" {
			unique = append(unique, a)
			continue
		}

		if link != "" {
			if _, ok := links[link]; ok {
				duplicates++
				continue
			}
		}
		if title != "" && similarToAny(title, titles) {
			duplicates++
			continue
		}

		if link != "" {
			links[link] = struct{}{}
		}
		if title != "" {
			titles = append(titles, title)
		}
		unique = append(unique, a)
	}

	return unique, duplicates
}

func similarToAny(title string, seen []string) bool {
	for _, s := range seen {
		if s == title || Ratio(title, s) > Threshold {
			return true
		}
	}
	return false
}
