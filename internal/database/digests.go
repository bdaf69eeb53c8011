package database

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

var digestColumns = []string{"id", "day", "slug", "title", "body_markdown", "generated_at"}

// SaveDigest inserts or replaces the digest with the same day and slug.
func (db *DB) SaveDigest(d Digest) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO digests (day, slug, title, body_markdown)
		VALUES (?, ?, ?, ?)`,
		d.Day, d.Slug, d.Title, d.BodyMarkdown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetDigestsForDay returns the digests of a day, newest first.
func (db *DB) GetDigestsForDay(day string) ([]Digest, error) {
	rows, err := db.query(sq.Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"day": day}).
		OrderBy("generated_at DESC", "id DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDigests(rows)
}

func scanDigests(rows *sql.Rows) ([]Digest, error) {
	var digests []Digest
	for rows.Next() {
		var d Digest
		if err := rows.Scan(&d.ID, &d.Day, &d.Slug, &d.Title, &d.BodyMarkdown, &d.GeneratedAt); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}
