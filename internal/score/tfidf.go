// Package score implements corpus-level TF-IDF scoring of unigrams and
// bigrams.
package score

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/keywords"
)

// DefaultMinDF is the default minimum document frequency.
const DefaultMinDF = 2

// ErrInvalidMinDF is returned for a negative minimum document frequency.
var ErrInvalidMinDF = errors.New("minimum document frequency must not be negative")

// TermScore is a term with its accumulated TF-IDF weight.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// ScoreTerms computes TF-IDF over docs and returns the topN highest
// scoring terms that occur in at least minDF documents. topN <= 0 returns
// every surviving term. Ties keep the order in which terms first appear.
func ScoreTerms(docs [][]string, minDF, topN int) ([]TermScore, error) {
	if minDF < 0 {
		return nil, fmt.Errorf("scoring terms with min_df=%d: %w", minDF, ErrInvalidMinDF)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	df := make(map[string]int)
	var order []string
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			if _, ok := df[term]; !ok {
				order = append(order, term)
			}
			df[term]++
		}
	}

	n := float64(len(docs))
	scores := make(map[string]float64)
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		counts := make(map[string]int, len(doc))
		for _, term := range doc {
			counts[term]++
		}
		length := float64(len(doc))
		for term, count := range counts {
			d := df[term]
			if d < minDF {
				continue
			}
			tf := float64(count) / length
			scores[term] += tf * idf(n, d)
		}
	}

	var ranked []TermScore
	for _, term := range order {
		if df[term] < minDF {
			continue
		}
		ranked = append(ranked, TermScore{Term: term, Score: scores[term]})
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// idf is ln(n/df); a term present in every document carries no weight.
func idf(n float64, df int) float64 {
	if df <= 0 || float64(df) >= n {
		return 0
	}
	return math.Log(n / float64(df))
}

// Normalize divides every score by the maximum so the result lies in [0,1].
// If the maximum is zero all scores become zero.
func Normalize(scores []TermScore) []TermScore {
	if len(scores) == 0 {
		return nil
	}
	maxScore := 0.0
	for _, s := range scores {
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}
	out := make([]TermScore, len(scores))
	for i, s := range scores {
		out[i] = TermScore{Term: s.Term}
		if maxScore > 0 {
			out[i].Score = s.Score / maxScore
		}
	}
	return out
}

// UnigramDocuments builds one unigram document per article.
func UnigramDocuments(articles []article.Article) [][]string {
	docs := make([][]string, len(articles))
	for i, a := range articles {
		docs[i] = keywords.Unigrams(a.Text())
	}
	return docs
}

// BigramDocuments builds one bigram document per article.
func BigramDocuments(articles []article.Article) [][]string {
	docs := make([][]string, len(articles))
	for i, a := range articles {
		docs[i] = keywords.Bigrams(a.Text())
	}
	return docs
}
