package trending

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
)

func sanctionsCorpus() []article.Article {
	return []article.Article{
		{Source: "Reuters", Title: "New sanctions imposed", Summary: "Exporters react"},
		{Source: "TASS", Title: "Sanctions widen", Summary: ""},
		{Source: "Meduza", Title: "EU sanctions package", Summary: "Details emerge"},
		{Source: "Bloomberg", Title: "Steel tariffs rise", Summary: ""},
	}
}

func TestIdentifyCorroboratedTerm(t *testing.T) {
	topics, err := Identify(sanctionsCorpus(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found *TrendingTopic
	for i := range topics {
		if topics[i].Keyword == "sanctions" {
			found = &topics[i]
		}
		if topics[i].Keyword == "tariffs" {
			t.Errorf("tariffs should not trend with a single source")
		}
	}
	if found == nil {
		t.Fatalf("expected sanctions to trend, got %+v", topics)
	}
	if found.SourceCount != 3 {
		t.Errorf("expected source count 3, got %d", found.SourceCount)
	}
	if found.CombinedScore != 3 {
		t.Errorf("expected combined score 3 for the top normalized term, got %f", found.CombinedScore)
	}
	if len(found.Articles) != 3 {
		t.Errorf("expected 3 articles, got %d", len(found.Articles))
	}
}

func TestIdentifyFallback(t *testing.T) {
	opts := DefaultOptions()
	opts.Fallback = true
	topics, err := Identify(sanctionsCorpus(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %+v", topics)
	}
	if topics[0].Keyword != "sanctions" || topics[0].SourceCount != 3 || topics[0].CombinedScore != 3 {
		t.Errorf("unexpected topic %+v", topics[0])
	}
}

func TestIdentifyEmpty(t *testing.T) {
	for _, fb := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Fallback = fb
		topics, err := Identify(nil, opts)
		if err != nil {
			t.Fatalf("fallback=%v: unexpected error: %v", fb, err)
		}
		if len(topics) != 0 {
			t.Errorf("fallback=%v: expected no topics, got %v", fb, topics)
		}
	}
}

func TestIdentifyInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	if _, err := Identify(sanctionsCorpus(), opts); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}

	opts = DefaultOptions()
	opts.MinDF = -1
	if _, err := Identify(sanctionsCorpus(), opts); !errors.Is(err, score.ErrInvalidMinDF) {
		t.Errorf("expected ErrInvalidMinDF, got %v", err)
	}
}

func TestIdentifyCapsArticles(t *testing.T) {
	var articles []article.Article
	for i := 0; i < 12; i++ {
		articles = append(articles, article.Article{
			Source: fmt.Sprintf("source-%02d", i),
			Title:  fmt.Sprintf("Ceasefire holds in region %d", i),
		})
	}
	articles = append(articles, article.Article{Source: "other", Title: "Harbor reopens"})

	topics, err := Identify(articles, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, topic := range topics {
		if topic.Keyword != "ceasefire" {
			continue
		}
		if topic.SourceCount != 12 {
			t.Errorf("expected 12 sources, got %d", topic.SourceCount)
		}
		if len(topic.Articles) != 10 {
			t.Errorf("expected 10 representative articles, got %d", len(topic.Articles))
		}
		if topic.Articles[0].Source != "source-00" {
			t.Errorf("expected scan order, got %s first", topic.Articles[0].Source)
		}
		return
	}
	t.Fatalf("expected ceasefire topic, got %+v", topics)
}

func TestIdentifyInvariants(t *testing.T) {
	articles := []article.Article{
		{Source: "A", Title: "Oil prices climb", Summary: "Brent crude rallies on supply fears"},
		{Source: "B", Title: "Oil prices extend gains", Summary: "Supply fears mount"},
		{Source: "C", Title: "Crude oil prices steady", Summary: "Traders weigh supply"},
		{Source: "A", Title: "Election results delayed", Summary: "Counting continues"},
		{Source: "D", Title: "Election commission responds", Summary: "Counting resumes"},
		{Source: "E", Title: "Harbor reopens after storm", Summary: ""},
		{Source: "F", Title: "Putin and Xi meet, Beijing hosts", Summary: ""},
		{Source: "G", Title: "Putin and Xi meet, Beijing hosts", Summary: ""},
		{Source: "H", Title: "Putin and Xi meet, Beijing hosts", Summary: ""},
	}
	for _, fb := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Fallback = fb
		topics, err := Identify(articles, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(topics) == 0 {
			t.Fatalf("fallback=%v: expected topics", fb)
		}
		for _, topic := range topics {
			if topic.SourceCount < opts.Threshold {
				t.Errorf("topic %q has %d sources", topic.Keyword, topic.SourceCount)
			}
			if len(topic.Articles) == 0 {
				t.Errorf("topic %q has no articles", topic.Keyword)
			}
			for _, a := range topic.Articles {
				if !strings.Contains(strings.ToLower(a.Text()), topic.Keyword) {
					t.Errorf("article %q does not contain %q", a.Title, topic.Keyword)
				}
			}
		}
		for i := 1; i < len(topics); i++ {
			if topics[i].CombinedScore > topics[i-1].CombinedScore {
				t.Errorf("topics not sorted at %d", i)
			}
		}
	}
}

func TestIdentifyDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Scorer = score.NewScorer(score.NewMemoryCache(0))
	first, err := Identify(sanctionsCorpus(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := Identify(sanctionsCorpus(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, next)
		}
	}
}

func TestIdentifyFallbackSkipsBridgedBigrams(t *testing.T) {
	var articles []article.Article
	for _, src := range []string{"Reuters", "TASS", "Xinhua"} {
		articles = append(articles, article.Article{Source: src, Title: "Putin and Xi meet, Beijing hosts"})
	}
	opts := DefaultOptions()
	opts.Fallback = true
	topics, err := Identify(articles, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make(map[string]int)
	for _, topic := range topics {
		got[topic.Keyword] = topic.SourceCount
	}
	for _, kw := range []string{"putin meet", "meet beijing"} {
		if _, ok := got[kw]; ok {
			t.Errorf("bigram %q spans punctuation or a dropped word and should not trend", kw)
		}
	}
	if got["beijing hosts"] != 3 {
		t.Errorf("expected beijing hosts from 3 sources, got %d", got["beijing hosts"])
	}
	if got["beijing"] != 3 {
		t.Errorf("expected beijing from 3 sources, got %d", got["beijing"])
	}
}

func TestIdentifyMaxTopics(t *testing.T) {
	var articles []article.Article
	words := []string{"alpha", "bravo", "charlie", "delta"}
	for i := 0; i < 3; i++ {
		articles = append(articles, article.Article{
			Source: fmt.Sprintf("s%d", i),
			Title:  strings.Join(words, " "),
		})
	}
	articles = append(articles, article.Article{Source: "x", Title: "unrelated harbor"})

	opts := DefaultOptions()
	opts.Fallback = true
	opts.MaxTopics = 2
	topics, err := Identify(articles, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 2 {
		t.Errorf("expected 2 topics, got %d", len(topics))
	}
}
