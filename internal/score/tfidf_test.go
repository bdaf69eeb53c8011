package score

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

func TestScoreTermsEmpty(t *testing.T) {
	scores, err := ScoreTerms(nil, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %v", scores)
	}

	scores, err = ScoreTerms([][]string{{}, {}}, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores for empty documents, got %v", scores)
	}
}

func TestScoreTermsNegativeMinDF(t *testing.T) {
	_, err := ScoreTerms([][]string{{"iran"}}, -1, 10)
	if !errors.Is(err, ErrInvalidMinDF) {
		t.Errorf("expected ErrInvalidMinDF, got %v", err)
	}
}

func TestScoreTermsUbiquitousTermScoresZero(t *testing.T) {
	docs := [][]string{
		{"russia", "sanctions"},
		{"russia", "sanctions"},
		{"russia", "tariffs"},
	}
	scores, err := ScoreTerms(docs, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"tariffs", "sanctions", "russia"}
	var got []string
	for _, s := range scores {
		got = append(got, s.Term)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranking = %v, want %v", got, want)
	}

	if scores[2].Score != 0 {
		t.Errorf("expected russia to score 0, got %f", scores[2].Score)
	}
	if math.Abs(scores[1].Score-math.Log(1.5)) > 1e-12 {
		t.Errorf("expected sanctions score ln(1.5), got %f", scores[1].Score)
	}
	if math.Abs(scores[0].Score-0.5*math.Log(3)) > 1e-12 {
		t.Errorf("expected tariffs score 0.5*ln(3), got %f", scores[0].Score)
	}
}

func TestScoreTermsMinDFFilter(t *testing.T) {
	docs := [][]string{
		{"russia", "sanctions", "sanctions"},
		{"russia", "sanctions"},
		{"russia", "tariffs"},
	}
	scores, err := ScoreTerms(docs, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	df := map[string]int{"russia": 3, "sanctions": 2, "tariffs": 1}
	for _, s := range scores {
		if df[s.Term] < 2 {
			t.Errorf("term %q has df %d below the cutoff", s.Term, df[s.Term])
		}
	}
	if len(scores) != 2 {
		t.Errorf("expected 2 surviving terms, got %d", len(scores))
	}
}

func TestScoreTermsRepeatedOccurrenceCountsOnceForDF(t *testing.T) {
	docs := [][]string{
		{"ceasefire", "ceasefire", "ceasefire"},
		{"harbor"},
	}
	scores, err := ScoreTerms(docs, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected repeated terms in one document to have df 1, got %v", scores)
	}
}

func TestScoreTermsTiesKeepFirstSeenOrder(t *testing.T) {
	docs := [][]string{
		{"alpha", "beta"},
		{"alpha", "beta"},
		{"gamma"},
	}
	for i := 0; i < 5; i++ {
		scores, err := ScoreTerms(docs, 2, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(scores) != 2 || scores[0].Term != "alpha" || scores[1].Term != "beta" {
			t.Fatalf("expected [alpha beta], got %v", scores)
		}
	}
}

func TestScoreTermsTopN(t *testing.T) {
	docs := [][]string{
		{"alpha", "beta", "gamma"},
		{"alpha", "beta", "gamma"},
		{"delta"},
	}
	scores, err := ScoreTerms(docs, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Errorf("expected 2 scores, got %d", len(scores))
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]TermScore{{"a", 2}, {"b", 1}, {"c", 0}})
	want := []TermScore{{"a", 1}, {"b", 0.5}, {"c", 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}

	zero := Normalize([]TermScore{{"a", 0}})
	if zero[0].Score != 0 {
		t.Errorf("expected zero score to stay zero, got %f", zero[0].Score)
	}
	if Normalize(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestScorerUsesCache(t *testing.T) {
	cache := NewMemoryCache(0)
	scorer := NewScorer(cache)
	docs := [][]string{{"iran", "oil"}, {"iran", "deal"}, {"gold"}}

	first, err := scorer.Score(docs, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cache entry, got %d", cache.Len())
	}

	second, err := scorer.Score(docs, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}

	if _, err := scorer.Score(docs, 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("expected different parameters to use a new key, got %d entries", cache.Len())
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after invalidate, got %d", cache.Len())
	}
}

func TestMemoryCacheBounded(t *testing.T) {
	cache := NewMemoryCache(2)
	cache.Put("a", nil)
	cache.Put("b", nil)
	cache.Put("c", nil)
	if cache.Len() != 1 {
		t.Errorf("expected cache to reset when full, got %d entries", cache.Len())
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("expected latest entry to be present")
	}
}

func TestCacheKeyDistinguishesBoundaries(t *testing.T) {
	a := CacheKey([][]string{{"ab", "c"}}, 2, 10)
	b := CacheKey([][]string{{"a", "bc"}}, 2, 10)
	if a == b {
		t.Error("expected different keys for different token boundaries")
	}
}

func TestNilScorerScores(t *testing.T) {
	var s *Scorer
	scores, err := s.Score([][]string{{"iran"}, {"iran"}, {"oil"}}, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 1 || scores[0].Term != "iran" {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestEnhancedKinds(t *testing.T) {
	articles := []article.Article{
		{Source: "A", Title: "Sanctions hit exporters", Summary: "White House weighs response"},
		{Source: "B", Title: "New sanctions expected", Summary: "White House confirms"},
		{Source: "C", Title: "Oil prices climb", Summary: "Markets react"},
	}

	keywords, err := Enhanced(articles, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keywords) == 0 {
		t.Fatal("expected keywords")
	}
	if keywords[0].Term != "sanctions" || keywords[0].Kind != KindKeyword {
		t.Errorf("expected boosted 'sanctions' keyword first, got %+v", keywords[0])
	}

	var phrase *Keyword
	for i := range keywords {
		if keywords[i].Term == "white house" {
			phrase = &keywords[i]
		}
	}
	if phrase == nil {
		t.Fatal("expected 'white house' phrase")
	}
	if phrase.Kind != KindPhrase {
		t.Errorf("expected phrase kind, got %v", phrase.Kind)
	}
}

func TestEnhancedEmpty(t *testing.T) {
	keywords, err := Enhanced(nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keywords) != 0 {
		t.Errorf("expected no keywords, got %v", keywords)
	}
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(Keyword{Term: "nato", Score: 1, Kind: KindPhrase})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"term":"nato","score":1,"kind":"phrase"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var k Kind
	if err := k.UnmarshalText([]byte("entity")); err != nil || k != KindEntity {
		t.Errorf("expected entity, got %v (%v)", k, err)
	}
	if err := k.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
