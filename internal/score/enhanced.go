package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

// Kind identifies the extraction method that produced a keyword.
type Kind int

const (
	KindEntity Kind = iota
	KindKeyword
	KindPhrase
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindKeyword:
		return "keyword"
	case KindPhrase:
		return "phrase"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindEntity, KindKeyword, KindPhrase:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown keyword kind %d", int(k))
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "entity":
		*k = KindEntity
	case "keyword":
		*k = KindKeyword
	case "phrase":
		*k = KindPhrase
	default:
		return fmt.Errorf("unknown keyword kind %q", string(text))
	}
	return nil
}

// Keyword is a ranked term from Enhanced, tagged with the method that
// first produced it.
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
	Kind  Kind    `json:"kind"`
}

const (
	enhancedUnigramTopN = 30
	enhancedBigramTopN  = 20
	geopoliticalBoost   = 1.5
	phraseBoost         = 1.2
	diversityBonus      = 0.3
)

var geopoliticalTerms = map[string]bool{
	"ukraine": true, "ukrainian": true, "zelensky": true, "biden": true,
	"trump": true, "putin": true, "nato": true, "sanctions": true,
	"military": true, "diplomatic": true, "treaty": true, "nuclear": true,
	"alliance": true, "summit": true, "conflict": true, "peace": true,
	"war": true, "china": true, "chinese": true, "beijing": true,
	"washington": true, "europe": true, "european": true,
}

var commonPhraseWords = map[string]bool{
	"government": true, "minister": true, "president": true, "officials": true,
}

// Enhanced ranks keywords by combining unigram and bigram TF-IDF with
// topical boosts and a bonus for terms found by more than one method.
func (s *Scorer) Enhanced(articles []article.Article, topN int) ([]Keyword, error) {
	unigrams, err := s.Score(UnigramDocuments(articles), DefaultMinDF, enhancedUnigramTopN)
	if err != nil {
		return nil, fmt.Errorf("scoring unigrams: %w", err)
	}
	bigrams, err := s.Score(BigramDocuments(articles), DefaultMinDF, enhancedBigramTopN)
	if err != nil {
		return nil, fmt.Errorf("scoring bigrams: %w", err)
	}

	type combined struct {
		score float64
		kinds []Kind
	}
	byTerm := make(map[string]*combined)
	var order []string
	add := func(term string, score float64, kind Kind) {
		c, ok := byTerm[term]
		if !ok {
			c = &combined{}
			byTerm[term] = c
			order = append(order, term)
		}
		c.score += score
		c.kinds = append(c.kinds, kind)
	}

	for _, u := range unigrams {
		boost := 1.0
		if geopoliticalTerms[u.Term] {
			boost = geopoliticalBoost
		}
		add(u.Term, u.Score*boost, KindKeyword)
	}
	for _, b := range bigrams {
		words := strings.Fields(b.Term)
		if len(words) != 2 || commonPhraseWords[words[0]] || commonPhraseWords[words[1]] {
			continue
		}
		add(b.Term, b.Score*phraseBoost, KindPhrase)
	}

	ranked := make([]Keyword, 0, len(order))
	for _, term := range order {
		c := byTerm[term]
		distinct := make(map[Kind]struct{})
		for _, k := range c.kinds {
			distinct[k] = struct{}{}
		}
		bonus := 1.0 + float64(len(distinct)-1)*diversityBonus
		ranked = append(ranked, Keyword{Term: term, Score: c.score * bonus, Kind: c.kinds[0]})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// Enhanced runs Scorer.Enhanced without a cache.
func Enhanced(articles []article.Article, topN int) ([]Keyword, error) {
	return NewScorer(nil).Enhanced(articles, topN)
}
