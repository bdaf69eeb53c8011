package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

var briefingColumns = []string{
	"id", "day", "total_scanned", "duplicates_removed", "article_count", "trending_json", "fallback", "generated_at",
}

// SaveBriefing inserts or replaces the briefing for a day.
func (db *DB) SaveBriefing(b Briefing) (int64, error) {
	topics := b.Topics
	if topics == nil {
		topics = []trending.TrendingTopic{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return 0, fmt.Errorf("encoding trending topics: %w", err)
	}

	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO briefings
		(day, total_scanned, duplicates_removed, article_count, trending_json, fallback)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.Day, b.TotalScanned, b.DuplicatesRemoved, b.ArticleCount, string(data), b.Fallback,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetBriefing returns the briefing for a day.
func (db *DB) GetBriefing(day string) (*Briefing, error) {
	rows, err := db.query(sq.Select(briefingColumns...).From("briefings").Where(sq.Eq{"day": day}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	briefings, err := scanBriefings(rows)
	if err != nil {
		return nil, err
	}
	if len(briefings) == 0 {
		return nil, nil
	}
	return &briefings[0], nil
}

// GetAllBriefings returns all briefings ordered by day DESC.
func (db *DB) GetAllBriefings() ([]Briefing, error) {
	rows, err := db.query(sq.Select(briefingColumns...).From("briefings").OrderBy("day DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBriefings(rows)
}

func scanBriefings(rows *sql.Rows) ([]Briefing, error) {
	var briefings []Briefing
	for rows.Next() {
		var b Briefing
		var topicsJSON string
		var fallback int
		if err := rows.Scan(&b.ID, &b.Day, &b.TotalScanned, &b.DuplicatesRemoved,
			&b.ArticleCount, &topicsJSON, &fallback, &b.GeneratedAt); err != nil {
			return nil, err
		}
		b.Fallback = fallback != 0
		if err := json.Unmarshal([]byte(topicsJSON), &b.Topics); err != nil {
			return nil, fmt.Errorf("decoding trending topics for %s: %w", b.Day, err)
		}
		briefings = append(briefings, b)
	}
	return briefings, rows.Err()
}

// InsertReport inserts or replaces a run report.
func (db *DB) InsertReport(day string, articleCount, topicCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO run_reports (day, article_count, topic_count)
		VALUES (?, ?, ?)`,
		day, articleCount, topicCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastRunDate returns the day of the most recent run report.
// Returns empty string if no runs exist.
func (db *DB) GetLastRunDate() (string, error) {
	row := db.conn.QueryRow("SELECT day FROM run_reports ORDER BY day DESC LIMIT 1")

	var day string
	if err := row.Scan(&day); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return day, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(DISTINCT day) FROM articles", &s.DaysWithArticles},
		{"SELECT COUNT(*) FROM briefings", &s.Briefings},
		{"SELECT COUNT(*) FROM digests", &s.Digests},
		{"SELECT COUNT(*) FROM watch_terms", &s.TotalWatchTerms},
		{"SELECT COUNT(*) FROM watch_terms WHERE is_active = 1", &s.ActiveWatchTerms},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
