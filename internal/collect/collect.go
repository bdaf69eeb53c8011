// Package collect gathers articles from RSS feeds and NewsAPI.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/config"
)

// errEmptyFeed marks a feed that parsed but had no usable entries.
var errEmptyFeed = errors.New("feed returned no entries")

// Options tunes collection.
type Options struct {
	MaxConcurrent int
	MaxPerFeed    int
	// Retries is the number of extra attempts for a failing or empty feed.
	Retries int
	// Backoff is the delay before the first retry; it doubles each time.
	Backoff time.Duration
}

// Result holds the results of a collection run.
type Result struct {
	Articles    []article.Article
	Sources     map[string]int
	EmptyFeeds  []string
	FailedFeeds []string
}

// Collector orchestrates article collection from RSS feeds and NewsAPI.
type Collector struct {
	feeds      []FeedConfig
	fetcher    FeedFetcher
	opts       Options
	newsClient *NewsAPIClient
	newsQuery  string
	watchTerms []string
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewCollector creates a collector for the configured sources.
func NewCollector(cfg *config.Config) *Collector {
	feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
	for i, f := range cfg.Sources.Feeds {
		feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
	}
	c := New(feeds, NewGofeedFetcher(cfg.Collect.Timeout), Options{
		MaxConcurrent: cfg.Collect.MaxConcurrent,
		MaxPerFeed:    cfg.Collect.MaxPerFeed,
		Retries:       cfg.Collect.Retries,
		Backoff:       cfg.Collect.Backoff,
	})

	apiCfg := cfg.Sources.NewsAPI
	if apiCfg.Enabled {
		c.newsClient = NewNewsAPIClient(apiCfg.APIKeyEnv, cfg.Collect.Timeout)
		c.newsClient.pageSize = apiCfg.PageSize
		c.newsQuery = apiCfg.Query
	}
	return c
}

// New creates a collector over feeds using fetcher.
func New(feeds []FeedConfig, fetcher FeedFetcher, opts Options) *Collector {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Collector{feeds: feeds, fetcher: fetcher, opts: opts, sleep: sleepContext}
}

// SetWatchTerms adds extra NewsAPI queries, one per term.
func (c *Collector) SetWatchTerms(terms []string) {
	c.watchTerms = terms
}

// Collect fetches every source in parallel and waits for all of them.
// Articles come back grouped in configured feed order, NewsAPI last, so
// the result does not depend on which fetch finished first. A failing
// source is logged and skipped; only cancellation fails the run.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	slots := len(c.feeds)
	useNews := c.newsClient != nil && c.newsClient.IsConfigured()
	if useNews {
		slots++
	}

	perSource := make([][]article.Article, slots)
	errs := make([]error, slots)

	var g errgroup.Group
	g.SetLimit(c.opts.MaxConcurrent)

	for i, fc := range c.feeds {
		i, fc := i, fc
		g.Go(func() error {
			perSource[i], errs[i] = c.fetchFeed(ctx, fc)
			return nil
		})
	}
	if useNews {
		g.Go(func() error {
			log.Println("Collecting from NewsAPI...")
			perSource[slots-1], errs[slots-1] = c.newsClient.SearchWithTerms(ctx, c.newsQuery, c.watchTerms, 1)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collecting articles: %w", err)
	}

	r := &Result{Sources: make(map[string]int)}
	for i, articles := range perSource {
		name := "NewsAPI"
		if i < len(c.feeds) {
			name = sourceName(c.feeds[i])
		}
		switch {
		case errors.Is(errs[i], errEmptyFeed):
			r.EmptyFeeds = append(r.EmptyFeeds, name)
		case errs[i] != nil:
			log.Printf("Failed to collect %s: %v", name, errs[i])
			r.FailedFeeds = append(r.FailedFeeds, name)
		}
		for _, a := range articles {
			r.Sources[a.Source]++
		}
		r.Articles = append(r.Articles, articles...)
	}

	log.Printf("Collection complete: %d articles from %d sources, %d empty, %d failed",
		len(r.Articles), len(r.Sources), len(r.EmptyFeeds), len(r.FailedFeeds))
	return r, nil
}

// fetchFeed retries a feed with exponential backoff while it errors or
// yields no entries.
func (c *Collector) fetchFeed(ctx context.Context, fc FeedConfig) ([]article.Article, error) {
	name := sourceName(fc)
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := c.opts.Backoff << (attempt - 1)
			log.Printf("Retrying %s in %v (attempt %d/%d): %v", name, delay, attempt+1, c.opts.Retries+1, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		feed, err := c.fetcher.Fetch(ctx, fc.URL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		articles := feedArticles(feed, name, c.opts.MaxPerFeed)
		if len(articles) > 0 {
			log.Printf("Parsed %d entries from %s", len(articles), name)
			return articles, nil
		}
		lastErr = errEmptyFeed
	}
	return nil, lastErr
}

func sourceName(fc FeedConfig) string {
	if fc.Name != "" {
		return fc.Name
	}
	return extractSourceName(fc.URL)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
