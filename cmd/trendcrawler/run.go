package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/pipeline"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

// --- run command ---

var (
	dryRun   bool
	fallback bool
	noDigest bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> dedup -> enrich -> store -> trending -> snapshot -> context -> digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		day := database.GetToday()
		if lastRun, _ := db.GetLastRunDate(); lastRun == day {
			fmt.Printf("Already ran today (%s). Re-running pipeline.\n", day)
		}

		pipe, release := pipeline.New(cmd.Context(), cfg, db)
		defer release()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(day)
		} else {
			result = pipe.Run(cmd.Context(), day, pipeline.RunOptions{Fallback: fallback, NoDigest: noDigest})
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("pipeline did not complete for %s", day)
		}
		if !dryRun {
			printTopics(result.Topics)
			fmt.Println("\nPipeline complete! Run 'trendcrawler serve' to view the briefing.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().BoolVar(&fallback, "fallback", false, "Rank by source count only, skipping TF-IDF")
	runCmd.Flags().BoolVar(&noDigest, "no-digest", false, "Skip writing the digest")
}

// --- trending command ---

var (
	trendingFallback bool
	trendingJSON     bool
	trendingKeywords int
)

var trendingCmd = &cobra.Command{
	Use:   "trending [day]",
	Short: "Rank trending topics for a stored day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day := database.GetToday()
		if len(args) == 1 {
			day = args[0]
		}
		if _, err := database.ParseDay(day); err != nil {
			return fmt.Errorf("invalid day %q: expected YYYY-MM-DD", day)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		articles, err := db.GetArticlesForDay(day)
		if err != nil {
			return fmt.Errorf("loading articles for %s: %w", day, err)
		}
		if len(articles) == 0 {
			return fmt.Errorf("no articles stored for %s; run 'trendcrawler collect' first", day)
		}

		scorer, release := pipeline.NewScorer(cmd.Context(), cfg.Cache)
		defer release()
		opts := pipeline.TrendingOptions(cfg.Scoring, scorer)
		opts.Fallback = opts.Fallback || trendingFallback

		topics, err := trending.Identify(articles, opts)
		if err != nil {
			return err
		}

		var keywords []score.Keyword
		if trendingKeywords > 0 {
			keywords, err = scorer.Enhanced(articles, trendingKeywords)
			if err != nil {
				return err
			}
		}

		if trendingJSON {
			if topics == nil {
				topics = []trending.TrendingTopic{}
			}
			if trendingKeywords > 0 {
				return writeJSON(struct {
					Topics   []trending.TrendingTopic `json:"topics"`
					Keywords []score.Keyword          `json:"keywords"`
				}{topics, keywords})
			}
			return writeJSON(topics)
		}
		fmt.Printf("%s: %d articles\n", database.FormatDayDisplay(day), len(articles))
		printTopics(topics)
		if trendingKeywords > 0 {
			printKeywords(keywords)
		}
		return nil
	},
}

func init() {
	trendingCmd.Flags().BoolVar(&trendingFallback, "fallback", false, "Rank by source count only, skipping TF-IDF")
	trendingCmd.Flags().BoolVar(&trendingJSON, "json", false, "Print topics as JSON")
	trendingCmd.Flags().IntVar(&trendingKeywords, "keywords", 0, "Also list the top N enhanced keywords")
}

// --- context command ---

var (
	contextJSON      bool
	contextFromFiles bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the recency-weighted historical context",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()

		var tctx *temporal.Context
		if contextFromFiles {
			var err error
			tctx, err = pipeline.LoadContextFromFiles(cfg, now)
			if err != nil {
				return err
			}
		} else {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			tctx, err = pipeline.LoadContext(cfg, db, now)
			if err != nil {
				return err
			}
		}

		if contextJSON {
			return writeJSON(tctx)
		}

		s := tctx.Summary
		fmt.Printf("Historical context: %d of %d articles sampled over %d days, %d digests\n\n",
			s.SampledArticles, s.TotalArticles, s.Days, s.Digests)
		fmt.Print(tctx.Render())
		return nil
	},
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Print the context as JSON")
	contextCmd.Flags().BoolVar(&contextFromFiles, "from-files", false, "Read snapshot and post files instead of the database")
}

func printTopics(topics []trending.TrendingTopic) {
	if len(topics) == 0 {
		fmt.Println("\nNo trending topics: no term reached the corroboration threshold.")
		return
	}
	fmt.Println("\nTrending topics:")
	for i, t := range topics {
		fmt.Printf("  %d. %s (%d sources, score %.2f)\n", i+1, t.Keyword, t.SourceCount, t.CombinedScore)
		for j, a := range t.Articles {
			if j == 3 {
				fmt.Printf("       ... %d more\n", len(t.Articles)-j)
				break
			}
			fmt.Printf("       - [%s] %s\n", a.Source, strings.TrimSpace(a.Title))
		}
	}
}

func printKeywords(keywords []score.Keyword) {
	if len(keywords) == 0 {
		fmt.Println("\nNo keywords reached the minimum document frequency.")
		return
	}
	fmt.Println("\nKeywords:")
	for i, k := range keywords {
		fmt.Printf("  %d. %s [%s] %.3f\n", i+1, k.Term, k.Kind, k.Score)
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
