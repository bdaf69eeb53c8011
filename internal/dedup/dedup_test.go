package dedup

import (
	"math"
	"testing"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abcd", "", 0},
		{"abcd", "abcd", 1},
		{"abcd", "bcde", 0.75},
		{"abcd", "wxyz", 0},
		// "putin meets xi" (14) + " beijing" (8) = 22 matched of 55 runes.
		{"putin meets xi in beijing", "putin meets xi, beijing summit", 0.8},
	}
	for _, tt := range tests {
		got := Ratio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatioSymmetricForDistinctBlocks(t *testing.T) {
	a := "sanctions package approved"
	b := "new sanctions package approved"
	if math.Abs(Ratio(a, b)-Ratio(b, a)) > 1e-9 {
		t.Errorf("expected symmetric ratio, got %f and %f", Ratio(a, b), Ratio(b, a))
	}
}

func TestDeduplicateSameLink(t *testing.T) {
	articles := []article.Article{
		{Source: "TASS", Title: "Putin Meets Xi", Link: "https://tass.com/1"},
		{Source: "TASS English", Title: "PUTIN MEETS XI: full text", Link: "https://tass.com/1"},
	}
	unique, dups := Deduplicate(articles)
	if dups != 1 {
		t.Errorf("expected 1 duplicate, got %d", dups)
	}
	if len(unique) != 1 || unique[0].Source != "TASS" {
		t.Errorf("expected first article to be kept, got %+v", unique)
	}
}

func TestDeduplicateSimilarTitles(t *testing.T) {
	articles := []article.Article{
		{Source: "RIA", Title: "Putin meets Xi in Beijing", Link: "https://ria.ru/1"},
		{Source: "RT", Title: "Putin meets Xi in Beijing.", Link: "https://rt.com/1"},
		{Source: "Interfax", Title: "  putin MEETS xi in beijing ", Link: "https://interfax.ru/1"},
	}
	unique, dups := Deduplicate(articles)
	if dups != 2 {
		t.Errorf("expected 2 duplicates, got %d", dups)
	}
	if len(unique) != 1 || unique[0].Source != "RIA" {
		t.Errorf("expected RIA article to be kept, got %+v", unique)
	}
}

func TestDeduplicateKeepsDistinctStories(t *testing.T) {
	articles := []article.Article{
		{Source: "A", Title: "Putin meets Xi in Beijing", Link: "https://a.com/1"},
		{Source: "B", Title: "Oil prices fall on demand worries", Link: "https://b.com/1"},
		{Source: "C", Title: "Putin meets Xi, Beijing summit", Link: "https://c.com/1"},
	}
	unique, dups := Deduplicate(articles)
	if dups != 0 {
		t.Errorf("expected no duplicates below the threshold, got %d", dups)
	}
	for i, a := range unique {
		if a.Source != articles[i].Source {
			t.Errorf("expected order to be preserved at %d, got %s", i, a.Source)
		}
	}
}

func TestDeduplicateEmptyRecords(t *testing.T) {
	articles := []article.Article{
		{Source: "A"},
		{Source: "B"},
		{Source: "C", Summary: "text only"},
	}
	unique, dups := Deduplicate(articles)
	if dups != 0 || len(unique) != 3 {
		t.Errorf("expected all empty records kept, got %d unique, %d dups", len(unique), dups)
	}
}

func TestDeduplicateMissingLinkStillFuzzyMatches(t *testing.T) {
	articles := []article.Article{
		{Source: "A", Title: "Ceasefire agreed in Gaza talks"},
		{Source: "B", Title: "Ceasefire agreed in Gaza talks!"},
		{Source: "C", Link: "https://c.com/x"},
		{Source: "D", Link: "https://c.com/x"},
	}
	unique, dups := Deduplicate(articles)
	if dups != 2 {
		t.Errorf("expected 2 duplicates, got %d", dups)
	}
	if len(unique) != 2 {
		t.Errorf("expected 2 unique, got %d", len(unique))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	articles := []article.Article{
		{Source: "A", Title: "Putin meets Xi in Beijing", Link: "https://a.com/1"},
		{Source: "B", Title: "Putin meets Xi in Beijing.", Link: "https://b.com/1"},
		{Source: "C", Title: "Markets rally", Link: "https://a.com/1"},
		{Source: "D", Title: "NATO summit opens", Link: "https://d.com/1"},
		{Source: "E"},
	}
	once, _ := Deduplicate(articles)
	twice, dups := Deduplicate(once)
	if dups != 0 {
		t.Errorf("expected no further duplicates, got %d", dups)
	}
	if len(twice) != len(once) {
		t.Errorf("expected %d articles, got %d", len(once), len(twice))
	}
}

func TestDeduplicateEmptyInput(t *testing.T) {
	unique, dups := Deduplicate(nil)
	if len(unique) != 0 || dups != 0 {
		t.Errorf("expected empty result, got %d/%d", len(unique), dups)
	}
}
