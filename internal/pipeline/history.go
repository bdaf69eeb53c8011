package pipeline

import (
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/snapshot"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
)

// LoadContext samples the stored archive relative to now.
func LoadContext(cfg *config.Config, db *database.DB, now time.Time) (*temporal.Context, error) {
	archive, err := db.LoadArchive(historyStart(cfg, now), now)
	if err != nil {
		return nil, err
	}
	return sampleArchive(cfg, archive, now)
}

// LoadContextFromFiles samples the snapshot and post files relative to now.
func LoadContextFromFiles(cfg *config.Config, now time.Time) (*temporal.Context, error) {
	archive, err := snapshot.LoadDir(cfg.GetSnapshotDir(), cfg.GetPostsDir())
	if err != nil {
		return nil, err
	}
	return sampleArchive(cfg, archive, now)
}

func sampleArchive(cfg *config.Config, archive temporal.Archive, now time.Time) (*temporal.Context, error) {
	return temporal.Sample(archive, now, cfg.Temporal.Buckets, temporal.WithDigestChars(cfg.Temporal.DigestChars))
}

// historyStart is the oldest instant any bucket reaches.
func historyStart(cfg *config.Config, now time.Time) time.Time {
	maxDays := 0
	for _, b := range cfg.Temporal.Buckets {
		if b.DaysBack > maxDays {
			maxDays = b.DaysBack
		}
	}
	return now.AddDate(0, 0, -maxDays)
}
