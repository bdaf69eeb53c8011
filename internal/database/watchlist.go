package database

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var watchColumns = []string{"id", "term", "description", "is_active", "created_at", "updated_at"}

// InsertWatchTerm adds a term to the watchlist. Terms are stored
// lower-cased.
func (db *DB) InsertWatchTerm(term, description string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO watch_terms (term, description) VALUES (?, ?)`,
		strings.ToLower(strings.TrimSpace(term)), description,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllWatchTerms returns every watch term.
func (db *DB) GetAllWatchTerms() ([]WatchTerm, error) {
	return db.queryWatchTerms(sq.Select(watchColumns...).From("watch_terms").OrderBy("term"))
}

// GetActiveWatchTerms returns only active watch terms.
func (db *DB) GetActiveWatchTerms() ([]WatchTerm, error) {
	return db.queryWatchTerms(sq.Select(watchColumns...).
		From("watch_terms").
		Where(sq.Eq{"is_active": 1}).
		OrderBy("term"))
}

// GetWatchTerm returns a single watch term by ID.
func (db *DB) GetWatchTerm(id int64) (*WatchTerm, error) {
	terms, err := db.queryWatchTerms(sq.Select(watchColumns...).From("watch_terms").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return &terms[0], nil
}

// UpdateWatchTerm updates the given fields of a watch term.
func (db *DB) UpdateWatchTerm(id int64, term, description *string) error {
	b := sq.Update("watch_terms").Where(sq.Eq{"id": id})
	changed := false
	if term != nil {
		b = b.Set("term", strings.ToLower(strings.TrimSpace(*term)))
		changed = true
	}
	if description != nil {
		b = b.Set("description", *description)
		changed = true
	}
	if !changed {
		return nil
	}

	query, args, err := b.Set("updated_at", sq.Expr("datetime('now')")).ToSql()
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(query, args...)
	return err
}

// ToggleWatchTerm toggles the active state of a watch term.
func (db *DB) ToggleWatchTerm(id int64) error {
	_, err := db.conn.Exec(
		`UPDATE watch_terms SET is_active = NOT is_active, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	return err
}

// DeleteWatchTerm removes a watch term.
func (db *DB) DeleteWatchTerm(id int64) error {
	_, err := db.conn.Exec("DELETE FROM watch_terms WHERE id = ?", id)
	return err
}

func (db *DB) queryWatchTerms(b sq.SelectBuilder) ([]WatchTerm, error) {
	rows, err := db.query(b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatchTerms(rows)
}

func scanWatchTerms(rows *sql.Rows) ([]WatchTerm, error) {
	var terms []WatchTerm
	for rows.Next() {
		var w WatchTerm
		var active int
		if err := rows.Scan(&w.ID, &w.Term, &w.Description, &active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.IsActive = active != 0
		terms = append(terms, w)
	}
	return terms, rows.Err()
}
