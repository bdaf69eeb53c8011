package database

import (
	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

// StoredArticle is an article archived under a day.
type StoredArticle struct {
	ID       int64
	Day      string
	Position int
	article.Article
	CollectedAt *string
}

// Briefing is the trending result for one day.
type Briefing struct {
	ID                int64
	Day               string
	TotalScanned      int
	DuplicatesRemoved int
	ArticleCount      int
	Topics            []trending.TrendingTopic
	Fallback          bool
	GeneratedAt       *string
}

// Digest is a published analysis post for one day.
type Digest struct {
	ID           int64
	Day          string
	Slug         string
	Title        string
	BodyMarkdown string
	GeneratedAt  *string
}

// WatchTerm is a user-defined term that widens NewsAPI searches.
type WatchTerm struct {
	ID          int64
	Term        string
	Description *string
	IsActive    bool
	CreatedAt   *string
	UpdatedAt   *string
}

// RunReport holds metadata about a pipeline run.
type RunReport struct {
	ID           int64
	Day          string
	GeneratedAt  *string
	ArticleCount int
	TopicCount   int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles    int
	DaysWithArticles int
	Briefings        int
	Digests          int
	TotalWatchTerms  int
	ActiveWatchTerms int
}
