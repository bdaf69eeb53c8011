// Package pipeline runs the daily collection and analysis steps.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/collect"
	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/dedup"
	"github.com/TobiSchelling/TrendCrawler/internal/digest"
	"github.com/TobiSchelling/TrendCrawler/internal/fetch"
	"github.com/TobiSchelling/TrendCrawler/internal/llm"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
	"github.com/TobiSchelling/TrendCrawler/internal/snapshot"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

const (
	totalSteps = 8
	// snapshotKeywords is how many enhanced keywords a briefing records.
	snapshotKeywords = 15
)

// Collector gathers the raw corpus.
type Collector interface {
	Collect(ctx context.Context) (*collect.Result, error)
}

// Enricher fills missing summaries.
type Enricher interface {
	Enrich(ctx context.Context, articles []article.Article) ([]article.Article, *fetch.Result)
}

// Deps are the pipeline's collaborators. Enricher and Provider may be nil.
type Deps struct {
	Collector Collector
	Enricher  Enricher
	Provider  llm.Provider
	Scorer    *score.Scorer
}

// RunOptions tweaks a single run.
type RunOptions struct {
	// Fallback forces source-count ranking.
	Fallback bool
	NoDigest bool
	// Now defaults to the current time.
	Now time.Time
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Day      string
	Topics   []trending.TrendingTopic
	Keywords []score.Keyword
	Context  *temporal.Context
	Digest   *digest.Result
	Steps    []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates the daily briefing.
type Pipeline struct {
	cfg  *config.Config
	db   *database.DB
	deps Deps
}

// New creates a pipeline wired from cfg. The returned func releases the
// score cache.
func New(ctx context.Context, cfg *config.Config, db *database.DB) (*Pipeline, func()) {
	collector := collect.NewCollector(cfg)
	if terms, err := db.GetActiveWatchTerms(); err != nil {
		log.Printf("Warning: loading watch terms: %v", err)
	} else if len(terms) > 0 {
		var words []string
		for _, t := range terms {
			words = append(words, t.Term)
		}
		collector.SetWatchTerms(words)
	}

	deps := Deps{Collector: collector}
	if cfg.Fetch.Enabled {
		deps.Enricher = fetch.NewContentFetcher(cfg.Fetch.Timeout, cfg.Fetch.RequestsPerSecond)
	}
	if p := llm.CreateProvider(cfg.Summarization); p != nil {
		deps.Provider = p
	}

	scorer, release := NewScorer(ctx, cfg.Cache)
	deps.Scorer = scorer
	return NewWithDeps(cfg, db, deps), release
}

// NewWithDeps creates a pipeline from explicit collaborators.
func NewWithDeps(cfg *config.Config, db *database.DB, deps Deps) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, deps: deps}
}

// TrendingOptions maps the scoring config onto trending options.
func TrendingOptions(cfg config.Scoring, scorer *score.Scorer) trending.Options {
	return trending.Options{
		Threshold:   cfg.CorroborationThreshold,
		MinDF:       cfg.MinDocumentFrequency,
		UnigramTopN: cfg.UnigramTopN,
		BigramTopN:  cfg.BigramTopN,
		MaxTopics:   cfg.MaxTopics,
		MaxArticles: cfg.MaxArticles,
		Fallback:    cfg.Fallback,
		Scorer:      scorer,
	}
}

// Run executes every step for day. Collection, storage and trending
// failures stop the run; later steps log and continue.
func (p *Pipeline) Run(ctx context.Context, day string, opts RunOptions) *Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := &Result{Day: day}

	log.Printf("Step 1/%d: Collecting articles...", totalSteps)
	collected, err := p.deps.Collector.Collect(ctx)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Collect", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Collected %d articles from %d sources (%d empty, %d failed feeds)",
			len(collected.Articles), len(collected.Sources), len(collected.EmptyFeeds), len(collected.FailedFeeds)),
	})

	log.Printf("Step 2/%d: Removing duplicates...", totalSteps)
	articles, removed := dedup.Deduplicate(collected.Articles)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Dedup",
		Summary: fmt.Sprintf("Kept %d articles, removed %d duplicates", len(articles), removed),
	})

	if p.deps.Enricher != nil {
		log.Printf("Step 3/%d: Fetching missing summaries...", totalSteps)
		var fr *fetch.Result
		articles, fr = p.deps.Enricher.Enrich(ctx, articles)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Enrich",
			Summary: fmt.Sprintf("Fetched %d summaries, %d failed, %d already present", fr.Fetched, fr.Failed, fr.AlreadyHadSummary),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Enrich", Summary: "Skipped (fetch disabled)"})
	}

	log.Printf("Step 4/%d: Storing articles...", totalSteps)
	if err := p.db.ReplaceDay(day, articles); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{Name: "Store", Summary: fmt.Sprintf("Stored %d articles for %s", len(articles), day)})

	log.Printf("Step 5/%d: Identifying trending topics...", totalSteps)
	topts := TrendingOptions(p.cfg.Scoring, p.deps.Scorer)
	topts.Fallback = topts.Fallback || opts.Fallback
	topics, err := trending.Identify(articles, topts)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Trending", Err: err})
		return r
	}
	if len(topics) == 0 {
		log.Printf("Warning: no topic reached %d sources", topts.Threshold)
	}
	r.Topics = topics

	keywords, err := p.deps.Scorer.Enhanced(articles, snapshotKeywords)
	if err != nil {
		log.Printf("Warning: ranking keywords: %v", err)
	}
	r.Keywords = keywords

	_, err = p.db.SaveBriefing(database.Briefing{
		Day:               day,
		TotalScanned:      len(collected.Articles),
		DuplicatesRemoved: removed,
		ArticleCount:      len(articles),
		Topics:            topics,
		Fallback:          topts.Fallback,
	})
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Trending", Err: fmt.Errorf("saving briefing: %w", err)})
		return r
	}
	if _, err := p.db.InsertReport(day, len(articles), len(topics)); err != nil {
		log.Printf("Warning: recording run report: %v", err)
	}
	r.Steps = append(r.Steps, StepResult{Name: "Trending", Summary: fmt.Sprintf("Found %d trending topics", len(topics))})

	log.Printf("Step 6/%d: Writing snapshot...", totalSteps)
	b := snapshot.NewBriefing(day, now, len(collected.Articles), removed, topics, articles)
	b.Fallback = topts.Fallback
	b.Keywords = keywords
	if path, err := snapshot.Write(p.cfg.GetSnapshotDir(), b); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Snapshot", Err: err})
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Snapshot", Summary: "Wrote " + path})
	}

	log.Printf("Step 7/%d: Sampling historical context...", totalSteps)
	tctx, err := LoadContext(p.cfg, p.db, now)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Context", Err: err})
	} else {
		r.Context = tctx
		r.Steps = append(r.Steps, StepResult{
			Name: "Context",
			Summary: fmt.Sprintf("Sampled %d of %d articles over %d days, %d digests",
				tctx.Summary.SampledArticles, tctx.Summary.TotalArticles, tctx.Summary.Days, tctx.Summary.Digests),
		})
	}

	if opts.NoDigest {
		r.Steps = append(r.Steps, StepResult{Name: "Digest", Summary: "Skipped (--no-digest)"})
		return r
	}
	log.Printf("Step 8/%d: Writing digest...", totalSteps)
	date, err := database.ParseDay(day)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Digest", Err: err})
		return r
	}
	w := digest.NewWriter(p.deps.Provider, p.cfg.Summarization.MaxTokens, p.cfg.GetPostsDir(), p.db)
	dr, err := w.Write(ctx, digest.Input{Date: date, TotalArticles: len(articles), Topics: topics, Keywords: keywords, Context: r.Context})
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Digest", Err: err})
		return r
	}
	r.Digest = dr
	source := "fallback"
	if dr.Generated {
		source = p.deps.Provider.Name()
	}
	r.Steps = append(r.Steps, StepResult{Name: "Digest", Summary: fmt.Sprintf("%q (%s)", dr.Title, source)})
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(day string) *Result {
	r := &Result{Day: day}

	sources := len(p.cfg.Sources.Feeds)
	if p.cfg.Sources.NewsAPI.Enabled {
		sources++
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] Would collect from %d sources, %d entries per feed", sources, p.cfg.Collect.MaxPerFeed),
	})

	stored, _ := p.db.GetArticlesForDay(day)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("[dry-run] %d articles already stored for %s", len(stored), day),
	})

	briefing, _ := p.db.GetBriefing(day)
	if briefing != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Trending",
			Summary: fmt.Sprintf("[dry-run] Briefing already exists for %s with %d topics", day, len(briefing.Topics)),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Trending",
			Summary: fmt.Sprintf("[dry-run] Would rank topics reaching %d sources", p.cfg.Scoring.CorroborationThreshold),
		})
	}

	provider := "fallback digest"
	if p.deps.Provider != nil {
		provider = p.deps.Provider.Name()
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Digest",
		Summary: fmt.Sprintf("[dry-run] Would write digest to %s using %s", p.cfg.GetPostsDir(), provider),
	})
	return r
}
