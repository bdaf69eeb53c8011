package temporal

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

const (
	renderDigestChars = 500
	renderDayArticles = 5
)

// Render formats the context as plain text for a language-model prompt.
// Digest excerpts and per-day article lists are shortened further.
func (c *Context) Render() string {
	var b strings.Builder
	for _, bs := range c.Buckets {
		if len(bs.Days) == 0 && len(bs.Digests) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%s to %s, %.0f%% sampled)\n",
			bs.Name, bs.Start.Format("2006-01-02"), bs.End.Format("2006-01-02"), bs.SampleRate*100)

		if len(bs.Digests) > 0 {
			b.WriteString("\nPrevious analysis:\n")
			for _, d := range bs.Digests {
				fmt.Fprintf(&b, "- %s %s: %s\n", d.Date.Format("2006-01-02"), d.Title,
					oneLine(article.Truncate(d.Body, renderDigestChars)))
			}
		}

		if len(bs.Days) > 0 {
			b.WriteString("\nHeadlines:\n")
			for _, day := range bs.Days {
				fmt.Fprintf(&b, "%s (%d of %d articles):\n", day.Date.Format("2006-01-02"), len(day.Articles), day.Total)
				for i, a := range day.Articles {
					if i == renderDayArticles {
						break
					}
					fmt.Fprintf(&b, "- [%s] %s\n", a.Source, a.Title)
				}
			}
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "No historical context available.\n"
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
