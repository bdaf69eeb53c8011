// Package trending finds topics that several independent sources cover at
// the same time.
package trending

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/keywords"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
)

// ErrInvalidThreshold is returned for a corroboration threshold below one.
var ErrInvalidThreshold = errors.New("corroboration threshold must be at least 1")

// TrendingTopic is a keyword corroborated by several sources.
type TrendingTopic struct {
	Keyword       string            `json:"keyword"`
	SourceCount   int               `json:"source_count"`
	CombinedScore float64           `json:"combined_score"`
	Articles      []article.Article `json:"articles"`
}

// Options controls Identify.
type Options struct {
	// Threshold is the minimum number of distinct sources.
	Threshold   int
	MinDF       int
	UnigramTopN int
	BigramTopN  int
	MaxTopics   int
	MaxArticles int
	// Fallback ranks by source count alone and skips TF-IDF.
	Fallback bool
	// Scorer is optional; nil scores without a cache.
	Scorer *score.Scorer
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		Threshold:   3,
		MinDF:       score.DefaultMinDF,
		UnigramTopN: 50,
		BigramTopN:  30,
		MaxTopics:   10,
		MaxArticles: 10,
	}
}

// Identify returns trending topics ranked by combined score. An empty
// corpus or a corpus without corroborated terms yields an empty result.
func Identify(articles []article.Article, opts Options) ([]TrendingTopic, error) {
	if opts.Threshold < 1 {
		return nil, fmt.Errorf("identifying trending topics with threshold=%d: %w", opts.Threshold, ErrInvalidThreshold)
	}
	if opts.Fallback {
		return fallback(articles, opts), nil
	}
	return tfidf(articles, opts)
}

func tfidf(articles []article.Article, opts Options) ([]TrendingTopic, error) {
	unigrams, err := opts.Scorer.Score(score.UnigramDocuments(articles), opts.MinDF, opts.UnigramTopN)
	if err != nil {
		return nil, fmt.Errorf("scoring unigrams: %w", err)
	}
	bigrams, err := opts.Scorer.Score(score.BigramDocuments(articles), opts.MinDF, opts.BigramTopN)
	if err != nil {
		return nil, fmt.Errorf("scoring bigrams: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	// Unigram and bigram scores differ in magnitude, so each set is
	// normalized by its own maximum before merging.
	terms := append(score.Normalize(bigrams), score.Normalize(unigrams)...)

	texts := lowerTexts(articles)
	var topics []TrendingTopic
	for _, t := range terms {
		matched, sources := scan(articles, texts, t.Term, opts.MaxArticles)
		if sources < opts.Threshold {
			continue
		}
		topics = append(topics, TrendingTopic{
			Keyword:       t.Term,
			SourceCount:   sources,
			CombinedScore: t.Score * float64(sources),
			Articles:      matched,
		})
	}
	return rank(topics, opts.MaxTopics), nil
}

// fallback ranks every extracted keyword by the number of sources whose
// text contains it. Bigrams join filtered tokens, so a candidate may match
// no article verbatim; such candidates drop out at the source count.
func fallback(articles []article.Article, opts Options) []TrendingTopic {
	seen := make(map[string]struct{})
	var candidates []string
	for _, a := range articles {
		for _, kw := range keywords.ExtractKeywords(a.Text()) {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			candidates = append(candidates, kw)
		}
	}

	texts := lowerTexts(articles)
	var topics []TrendingTopic
	for _, kw := range candidates {
		matched, sources := scan(articles, texts, kw, opts.MaxArticles)
		if sources < opts.Threshold {
			continue
		}
		topics = append(topics, TrendingTopic{
			Keyword:       kw,
			SourceCount:   sources,
			CombinedScore: float64(sources),
			Articles:      matched,
		})
	}
	return rank(topics, opts.MaxTopics)
}

// scan returns up to limit articles whose text contains term, in input
// order, and the number of distinct sources among all matches.
func scan(articles []article.Article, texts []string, term string, limit int) ([]article.Article, int) {
	var matched []article.Article
	sources := make(map[string]struct{})
	for i, text := range texts {
		if !strings.Contains(text, term) {
			continue
		}
		sources[articles[i].Source] = struct{}{}
		if limit <= 0 || len(matched) < limit {
			matched = append(matched, articles[i])
		}
	}
	return matched, len(sources)
}

func lowerTexts(articles []article.Article) []string {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = strings.ToLower(a.Text())
	}
	return texts
}

func rank(topics []TrendingTopic, limit int) []TrendingTopic {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].CombinedScore > topics[j].CombinedScore
	})
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}
