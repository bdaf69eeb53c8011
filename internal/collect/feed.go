package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedFetcher retrieves and parses one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// GofeedFetcher fetches feeds over HTTP with gofeed.
type GofeedFetcher struct {
	parser *gofeed.Parser
}

// NewGofeedFetcher creates a fetcher whose requests time out after timeout.
func NewGofeedFetcher(timeout time.Duration) *GofeedFetcher {
	p := gofeed.NewParser()
	p.UserAgent = "TrendCrawler/1.0 (news aggregator)"
	if timeout > 0 {
		p.Client = newHTTPClient(timeout)
	}
	return &GofeedFetcher{parser: p}
}

// Fetch downloads and parses feedURL.
func (g *GofeedFetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	return g.parser.ParseURLWithContext(feedURL, ctx)
}

// feedArticles converts up to max items of feed into articles.
func feedArticles(feed *gofeed.Feed, source string, max int) []article.Article {
	var out []article.Article
	for _, item := range feed.Items {
		if max > 0 && len(out) >= max {
			break
		}
		a, ok := parseItem(item, source)
		if !ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

func parseItem(item *gofeed.Item, source string) (article.Article, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := cleanHTML(item.Title)
	if link == "" && title == "" {
		return article.Article{}, false
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return article.New(source, title, link, publishedTime(item), cleanHTML(summary)), true
}

// publishedTime normalizes the entry timestamp to RFC 3339, keeping the
// raw value when no parser understands it.
func publishedTime(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	raw := item.Published
	if raw == "" {
		raw = item.Updated
	}
	if raw == "" {
		return ""
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}

// cleanHTML returns the visible text of an HTML fragment with whitespace
// collapsed.
func cleanHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
