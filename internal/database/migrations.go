package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT NOT NULL,
    position INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    published TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    collected_at TEXT DEFAULT (datetime('now')),
    UNIQUE (day, position)
);

CREATE TABLE IF NOT EXISTS briefings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT UNIQUE NOT NULL,
    total_scanned INTEGER DEFAULT 0,
    duplicates_removed INTEGER DEFAULT 0,
    article_count INTEGER DEFAULT 0,
    trending_json TEXT NOT NULL DEFAULT '[]',
    fallback INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT UNIQUE NOT NULL,
    generated_at TEXT DEFAULT (datetime('now')),
    article_count INTEGER DEFAULT 0,
    topic_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_articles_day ON articles(day);
CREATE INDEX IF NOT EXISTS idx_briefings_day ON briefings(day);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "digests and watch terms",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS digests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    body_markdown TEXT NOT NULL,
    generated_at TEXT DEFAULT (datetime('now')),
    UNIQUE (day, slug)
);

CREATE TABLE IF NOT EXISTS watch_terms (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    term TEXT UNIQUE NOT NULL,
    description TEXT,
    is_active INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_digests_day ON digests(day);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
