// Package snapshot reads and writes the on-disk daily briefing files and
// digest posts, and rebuilds an archive from them.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

const (
	dayLayout      = "2006-01-02"
	briefingSuffix = "-briefing.json"
	// TopHeadlines is how many collected articles a briefing lists as headlines.
	TopHeadlines = 15
)

// Briefing is the JSON snapshot of one day's run.
type Briefing struct {
	Date                 string                   `json:"date"`
	GeneratedAt          time.Time                `json:"generated_at"`
	TotalArticlesScanned int                      `json:"total_articles_scanned"`
	DuplicatesRemoved    int                      `json:"duplicates_removed"`
	Fallback             bool                     `json:"fallback,omitempty"`
	TrendingStories      []trending.TrendingTopic `json:"trending_stories"`
	Keywords             []score.Keyword          `json:"keywords,omitempty"`
	TopHeadlines         []article.Article        `json:"top_headlines"`
	AllArticles          []article.Article        `json:"all_articles"`
}

// NewBriefing assembles a snapshot from the deduplicated corpus of day.
func NewBriefing(day string, generatedAt time.Time, scanned, duplicates int, topics []trending.TrendingTopic, articles []article.Article) *Briefing {
	headlines := articles
	if len(headlines) > TopHeadlines {
		headlines = headlines[:TopHeadlines]
	}
	if topics == nil {
		topics = []trending.TrendingTopic{}
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return &Briefing{
		Date:                 day,
		GeneratedAt:          generatedAt,
		TotalArticlesScanned: scanned,
		DuplicatesRemoved:    duplicates,
		TrendingStories:      topics,
		TopHeadlines:         headlines,
		AllArticles:          articles,
	}
}

// FileName returns the snapshot file name for day.
func FileName(day string) string {
	return day + briefingSuffix
}

// Write stores b as <dir>/<date>-briefing.json and returns the path.
func Write(dir string, b *Briefing) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding briefing %s: %w", b.Date, err)
	}
	path := filepath.Join(dir, FileName(b.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing briefing: %w", err)
	}
	return path, nil
}

// Read loads a snapshot file.
func Read(path string) (*Briefing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading briefing: %w", err)
	}
	var b Briefing
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing briefing %s: %w", filepath.Base(path), err)
	}
	return &b, nil
}

// LoadDir rebuilds an archive from the snapshot files in snapshotDir and
// the posts in postsDir. Missing directories yield an empty archive;
// files whose names carry no valid date are skipped, and unreadable files
// are logged and skipped.
func LoadDir(snapshotDir, postsDir string) (temporal.Archive, error) {
	var archive temporal.Archive

	days, err := loadDays(snapshotDir)
	if err != nil {
		return archive, err
	}
	archive.Days = days

	posts, err := LoadPosts(postsDir)
	if err != nil {
		return archive, err
	}
	for _, p := range posts {
		archive.Digests = append(archive.Digests, temporal.Digest{Date: p.Date, Title: p.Title, Body: p.Body})
	}
	return archive, nil
}

func loadDays(dir string) ([]temporal.DayCorpus, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+briefingSuffix))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	sort.Strings(paths)

	var days []temporal.DayCorpus
	for _, path := range paths {
		date, ok := datePrefix(filepath.Base(path))
		if !ok {
			continue
		}
		b, err := Read(path)
		if err != nil {
			log.Printf("Warning: skipping snapshot: %v", err)
			continue
		}
		articles := b.AllArticles
		if len(articles) == 0 {
			articles = b.TopHeadlines
		}
		days = append(days, temporal.DayCorpus{Date: date, Articles: articles})
	}
	return days, nil
}

// datePrefix parses the YYYY-MM-DD prefix of a file name as local midnight.
func datePrefix(name string) (time.Time, bool) {
	if len(name) < len(dayLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dayLayout, name[:len(dayLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	rest := name[len(dayLayout):]
	if rest != "" && !strings.HasPrefix(rest, "-") && !strings.HasPrefix(rest, ".") {
		return time.Time{}, false
	}
	return t, true
}
