// Package fetch fills empty article summaries with readable page text.
package fetch

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

// minTextLength is the shortest extracted text accepted as a summary.
const minTextLength = 100

// Result holds the results of an enrichment run.
type Result struct {
	Fetched           int
	AlreadyHadSummary int
	Failed            int
}

// ContentFetcher fetches article pages and extracts their text.
type ContentFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewContentFetcher creates a fetcher issuing at most requestsPerSecond
// requests; zero or less means unlimited.
func NewContentFetcher(timeout time.Duration, requestsPerSecond float64) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &ContentFetcher{
		limiter: rate.NewLimiter(limit, 1),
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich returns a copy of articles in which empty summaries are replaced
// with text extracted from the linked page. After an HTTP error status,
// remaining articles from the same domain are skipped.
func (f *ContentFetcher) Enrich(ctx context.Context, articles []article.Article) ([]article.Article, *Result) {
	out := make([]article.Article, len(articles))
	copy(out, articles)
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for i, a := range out {
		if a.Summary != "" {
			result.AlreadyHadSummary++
			continue
		}
		if a.Link == "" {
			result.Failed++
			continue
		}

		domain := ""
		if u, err := url.Parse(a.Link); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		if err := f.limiter.Wait(ctx); err != nil {
			log.Printf("Content fetch stopped: %v", err)
			result.Failed += countMissing(out[i:])
			break
		}

		text, err := f.fetchArticleText(ctx, a.Link)
		var statusErr *httpError
		if errors.As(err, &statusErr) {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP %d for %s, skipping remaining from %s", statusErr.code, a.Link, domain)
			continue
		}

		if text == "" {
			result.Failed++
			log.Printf("No extractable content from: %s", a.Link)
			continue
		}
		out[i] = a.WithSummary(text)
		result.Fetched++
		log.Printf("Fetched content for: %s", a.Title)
	}

	log.Printf("Content fetch complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return out, result
}

func countMissing(articles []article.Article) int {
	n := 0
	for _, a := range articles {
		if a.Summary == "" {
			n++
		}
	}
	return n
}

// fetchArticleText returns "" with a nil error for connection and
// extraction failures; only HTTP error statuses are reported.
func (f *ContentFetcher) fetchArticleText(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "TrendCrawler/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	page, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.Join(strings.Fields(page.TextContent), " ")
	if longEnough(text) {
		return text, nil
	}
	return "", nil
}

// longEnough reports whether text has more than minTextLength characters.
func longEnough(text string) bool {
	return utf8.RuneCountInString(text) > minTextLength
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
