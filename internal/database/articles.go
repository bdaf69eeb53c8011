package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

var articleColumns = []string{
	"id", "day", "position", "source", "title", "link", "published", "summary", "collected_at",
}

// ReplaceDay stores articles as the corpus of day, replacing any corpus
// stored for that day before. Input order is kept.
func (db *DB) ReplaceDay(day string, articles []article.Article) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replacing %s: %w", day, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles WHERE day = ?", day); err != nil {
		return fmt.Errorf("clearing %s: %w", day, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO articles (day, position, source, title, link, published, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range articles {
		if _, err := stmt.Exec(day, i, a.Source, a.Title, a.Link, a.Published, a.Summary); err != nil {
			return fmt.Errorf("inserting article %d for %s: %w", i, day, err)
		}
	}
	return tx.Commit()
}

// GetArticlesForDay returns the corpus stored for day in stored order.
func (db *DB) GetArticlesForDay(day string) ([]article.Article, error) {
	rows, err := db.query(sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"day": day}).
		OrderBy("position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}
	out := make([]article.Article, len(stored))
	for i, s := range stored {
		out[i] = s.Article
	}
	return out, nil
}

// ListDays returns the days with stored articles, newest first.
func (db *DB) ListDays() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT day FROM articles ORDER BY day DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func scanArticles(rows *sql.Rows) ([]StoredArticle, error) {
	var articles []StoredArticle
	for rows.Next() {
		var a StoredArticle
		if err := rows.Scan(&a.ID, &a.Day, &a.Position, &a.Source, &a.Title, &a.Link,
			&a.Published, &a.Summary, &a.CollectedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
