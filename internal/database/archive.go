package database

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
)

// LoadArchive returns the stored days and digests whose day lies in
// [from, to], both inclusive, for the temporal sampler.
func (db *DB) LoadArchive(from, to time.Time) (temporal.Archive, error) {
	var archive temporal.Archive
	dayRange := sq.And{
		sq.GtOrEq{"day": from.Format(DayLayout)},
		sq.LtOrEq{"day": to.Format(DayLayout)},
	}

	rows, err := db.query(sq.Select(articleColumns...).
		From("articles").
		Where(dayRange).
		OrderBy("day", "position"))
	if err != nil {
		return archive, fmt.Errorf("loading archived articles: %w", err)
	}
	stored, err := scanArticles(rows)
	rows.Close()
	if err != nil {
		return archive, fmt.Errorf("scanning archived articles: %w", err)
	}

	for _, s := range stored {
		n := len(archive.Days)
		if n == 0 || archive.Days[n-1].Date.Format(DayLayout) != s.Day {
			date, err := ParseDay(s.Day)
			if err != nil {
				return archive, fmt.Errorf("parsing day %q: %w", s.Day, err)
			}
			archive.Days = append(archive.Days, temporal.DayCorpus{Date: date})
			n++
		}
		archive.Days[n-1].Articles = append(archive.Days[n-1].Articles, s.Article)
	}

	rows, err = db.query(sq.Select(digestColumns...).
		From("digests").
		Where(dayRange).
		OrderBy("day DESC", "id DESC"))
	if err != nil {
		return archive, fmt.Errorf("loading digests: %w", err)
	}
	digests, err := scanDigests(rows)
	rows.Close()
	if err != nil {
		return archive, fmt.Errorf("scanning digests: %w", err)
	}

	for _, d := range digests {
		date, err := ParseDay(d.Day)
		if err != nil {
			return archive, fmt.Errorf("parsing digest day %q: %w", d.Day, err)
		}
		archive.Digests = append(archive.Digests, temporal.Digest{Date: date, Title: d.Title, Body: d.BodyMarkdown})
	}
	return archive, nil
}
