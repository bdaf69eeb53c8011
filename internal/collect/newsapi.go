package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIClient fetches articles from NewsAPI.
type NewsAPIClient struct {
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
}

// NewNewsAPIClient creates a NewsAPI client reading its key from apiKeyEnv.
func NewNewsAPIClient(apiKeyEnv string, timeout time.Duration) *NewsAPIClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &NewsAPIClient{
		apiKey:   os.Getenv(apiKeyEnv),
		baseURL:  newsAPIBaseURL,
		pageSize: 100,
		client:   newHTTPClient(timeout),
	}
}

// IsConfigured returns whether the API key is available.
func (c *NewsAPIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Search returns articles matching query published within daysBack days.
func (c *NewsAPIClient) Search(ctx context.Context, query string, daysBack, pageSize int) ([]article.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi key not configured")
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	now := time.Now()
	params := url.Values{
		"q":        {query},
		"from":     {now.AddDate(0, 0, -daysBack).Format("2006-01-02")},
		"to":       {now.Format("2006-01-02")},
		"language": {"en"},
		"pageSize": {strconv.Itoa(pageSize)},
		"sortBy":   {"publishedAt"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi HTTP %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
			Content     string `json:"content"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %s: %s", result.Status, result.Message)
	}

	var articles []article.Article
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}

		summary := a.Description
		if summary == "" {
			summary = a.Content
		}
		source := "NewsAPI"
		if a.Source.Name != "" {
			source = a.Source.Name
		}
		articles = append(articles, article.New(source, a.Title, a.URL, a.PublishedAt, cleanHTML(summary)))
	}

	log.Printf("Fetched %d articles from NewsAPI for query: %s", len(articles), query)
	return articles, nil
}

// SearchWithTerms runs the base query and one narrowed query per watch
// term, dropping repeated URLs. The base query must succeed; failed term
// queries are logged and skipped.
func (c *NewsAPIClient) SearchWithTerms(ctx context.Context, baseQuery string, terms []string, daysBack int) ([]article.Article, error) {
	seen := make(map[string]struct{})
	var all []article.Article
	add := func(articles []article.Article) {
		for _, a := range articles {
			if _, ok := seen[a.Link]; ok {
				continue
			}
			seen[a.Link] = struct{}{}
			all = append(all, a)
		}
	}

	base, err := c.Search(ctx, baseQuery, daysBack, c.pageSize)
	if err != nil {
		return nil, err
	}
	add(base)

	for _, term := range terms {
		q := strings.TrimSpace(baseQuery + " " + term)
		articles, err := c.Search(ctx, q, daysBack, c.pageSize/2)
		if err != nil {
			log.Printf("NewsAPI query %q failed: %v", q, err)
			continue
		}
		add(articles)
	}
	return all, nil
}
