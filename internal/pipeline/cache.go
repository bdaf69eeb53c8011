package pipeline

import (
	"context"
	"log"
	"os"

	"github.com/TobiSchelling/TrendCrawler/internal/cache"
	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
)

// NewScorer builds the scorer for the configured cache backend. An
// unreachable Redis falls back to the in-memory cache. The returned func
// releases the backend.
func NewScorer(ctx context.Context, cfg config.Cache) (*score.Scorer, func()) {
	switch cfg.Backend {
	case "none":
		return score.NewScorer(nil), func() {}
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: os.Getenv(cfg.Redis.PasswordEnv),
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err == nil {
			log.Printf("Using Redis score cache at %s", cfg.Redis.Addr)
			return score.NewScorer(rc), func() { rc.Close() }
		}
		log.Printf("Warning: %v; using in-memory score cache", err)
	}
	return score.NewScorer(score.NewMemoryCache(cfg.MaxEntries)), func() {}
}
