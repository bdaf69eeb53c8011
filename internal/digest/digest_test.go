package digest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/llm"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

type mockProvider struct {
	response string
	err      error
	prompt   string
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(_ context.Context, req llm.Request) (string, error) {
	m.prompt = req.Prompt
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testInput() Input {
	return Input{
		Date:          time.Date(2026, 2, 6, 0, 0, 0, 0, time.Local),
		TotalArticles: 42,
		Topics: []trending.TrendingTopic{
			{Keyword: "oil prices", SourceCount: 4, CombinedScore: 4, Articles: []article.Article{
				{Source: "BBC World", Title: "Oil prices climb", Link: "https://bbc.example/oil"},
				{Source: "TASS", Title: "OPEC weighs output"},
			}},
			{Keyword: "ceasefire", SourceCount: 3, CombinedScore: 2.1},
		},
	}
}

func TestWriteWithProvider(t *testing.T) {
	db := openTestDB(t)
	postsDir := t.TempDir()

	resp, _ := json.Marshal(map[string]string{
		"title":   "Oil Markets React",
		"excerpt": "Prices climb.",
		"body":    "## Overview\n\nOil prices climbed.",
	})
	provider := &mockProvider{response: "```json\n" + string(resp) + "\n```"}

	in := testInput()
	in.Context = &temporal.Context{}
	in.Keywords = []score.Keyword{
		{Term: "oil prices", Score: 1.4, Kind: score.KindPhrase},
		{Term: "opec", Score: 0.9, Kind: score.KindKeyword},
	}
	w := NewWriter(provider, 0, postsDir, db)
	result, err := w.Write(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Generated || result.Title != "Oil Markets React" {
		t.Errorf("unexpected result %+v", result)
	}
	if filepath.Base(result.Path) != "2026-02-06-oil-markets-react.md" {
		t.Errorf("unexpected path %s", result.Path)
	}
	if !strings.Contains(provider.prompt, `"oil prices" (4 sources)`) || !strings.Contains(provider.prompt, "[TASS] OPEC weighs output") {
		t.Errorf("prompt missing topics:\n%s", provider.prompt)
	}
	if !strings.Contains(provider.prompt, "Leading keywords across the corpus: oil prices (phrase), opec (keyword)") {
		t.Errorf("prompt missing keywords:\n%s", provider.prompt)
	}
	if !strings.Contains(provider.prompt, "No historical context available.") {
		t.Errorf("prompt missing rendered context:\n%s", provider.prompt)
	}

	digests, err := db.GetDigestsForDay("2026-02-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(digests) != 1 || digests[0].Slug != "oil-markets-react" || !strings.Contains(digests[0].BodyMarkdown, "Oil prices climbed") {
		t.Errorf("unexpected stored digests %+v", digests)
	}
}

func TestWriteFallbackWithoutProvider(t *testing.T) {
	postsDir := t.TempDir()
	w := NewWriter(nil, 0, postsDir, nil)

	result, err := w.Write(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Generated {
		t.Error("expected fallback digest")
	}
	if result.Title != "Trending: oil prices, ceasefire" {
		t.Errorf("unexpected title %q", result.Title)
	}
	for _, want := range []string{"## oil prices", "Covered by 4 sources.", "- [Oil prices climb](https://bbc.example/oil) (BBC World)", "- OPEC weighs output (TASS)"} {
		if !strings.Contains(result.Body, want) {
			t.Errorf("expected body to contain %q, got:\n%s", want, result.Body)
		}
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("post not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Error("expected front matter")
	}
}

func TestWriteFallbackOnProviderFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{"error", &mockProvider{err: errors.New("boom")}},
		{"not json", &mockProvider{response: "I cannot do that"}},
		{"missing body", &mockProvider{response: `{"title": "Only a title"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(tt.provider, 0, t.TempDir(), nil)
			result, err := w.Write(context.Background(), testInput())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Generated {
				t.Error("expected fallback digest")
			}
		})
	}
}

func TestWriteNoTopics(t *testing.T) {
	provider := &mockProvider{response: `{"title":"x","body":"y"}`}
	w := NewWriter(provider, 0, t.TempDir(), nil)
	in := Input{Date: time.Date(2026, 2, 6, 0, 0, 0, 0, time.Local), TotalArticles: 7}

	result, err := w.Write(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.prompt != "" {
		t.Error("expected no LLM call without topics")
	}
	if result.Title != "Daily Briefing 2026-02-06" || !strings.Contains(result.Body, "among 7 articles") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestFallbackContextSection(t *testing.T) {
	in := testInput()
	in.Context = &temporal.Context{Summary: temporal.Summary{Days: 3, TotalArticles: 90, SampledArticles: 40, Digests: 2}}
	body := fallbackBody(in)
	if !strings.Contains(body, "Sampled 40 of 90 archived articles across 3 days, with 2 earlier digests.") {
		t.Errorf("missing context section:\n%s", body)
	}
}
