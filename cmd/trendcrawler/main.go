package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TrendCrawler/internal/cache"
	"github.com/TobiSchelling/TrendCrawler/internal/collect"
	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/dedup"
	"github.com/TobiSchelling/TrendCrawler/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "trendcrawler",
	Short:   "Cross-source trending news briefings",
	Long:    "TrendCrawler collects news feeds, finds stories corroborated by several sources, and writes daily digests with recency-weighted history.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		config.LoadEnv()
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trendcrawler", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/trendcrawler/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and LLM provider.")
		fmt.Printf("API keys can go in %s\n", filepath.Join(config.ConfigDir(), ".env"))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		lastRun, err := db.GetLastRunDate()
		if err != nil {
			return fmt.Errorf("getting last run: %w", err)
		}
		if lastRun == "" {
			lastRun = "never"
		}

		fmt.Printf("Today: %s\n", database.GetToday())
		fmt.Printf("Last run: %s\n\n", lastRun)
		fmt.Println("Archive:")
		fmt.Printf("  Articles: %d\n", stats.TotalArticles)
		fmt.Printf("  Days with data: %d\n", stats.DaysWithArticles)
		fmt.Printf("  Briefings: %d\n", stats.Briefings)
		fmt.Printf("  Digests: %d\n", stats.Digests)
		fmt.Println("\nSources:")
		fmt.Printf("  Feeds: %d\n", len(cfg.Sources.Feeds))
		fmt.Printf("  NewsAPI: %v\n", cfg.Sources.NewsAPI.Enabled)
		fmt.Println("\nWatchlist:")
		fmt.Printf("  Total: %d\n", stats.TotalWatchTerms)
		fmt.Printf("  Active: %d\n", stats.ActiveWatchTerms)
		fmt.Println("\nScoring:")
		fmt.Printf("  Corroboration threshold: %d sources\n", cfg.Scoring.CorroborationThreshold)
		fmt.Printf("  Score cache: %s\n", cfg.Cache.Backend)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and store today's articles without scoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		day := database.GetToday()
		fmt.Println("Collecting articles from sources...")

		collector := collect.NewCollector(cfg)
		result, err := collector.Collect(cmd.Context())
		if err != nil {
			return err
		}
		articles, removed := dedup.Deduplicate(result.Articles)
		if err := db.ReplaceDay(day, articles); err != nil {
			return fmt.Errorf("storing articles: %w", err)
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", len(result.Articles))
		fmt.Printf("  Stored: %d\n", len(articles))
		fmt.Printf("  Duplicates removed: %d\n", removed)
		if len(result.FailedFeeds) > 0 {
			fmt.Printf("  Failed feeds: %v\n", result.FailedFeeds)
		}
		if len(result.EmptyFeeds) > 0 {
			fmt.Printf("  Empty feeds: %v\n", result.EmptyFeeds)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nArticles by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool {
				if sorted[i].val != sorted[j].val {
					return sorted[i].val > sorted[j].val
				}
				return sorted[i].key < sorted[j].key
			})
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on (overrides server.port)")
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the score cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached TF-IDF scores from Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Backend != "redis" {
			fmt.Printf("Cache backend is %q; nothing persistent to clear.\n", cfg.Cache.Backend)
			return nil
		}
		rc, err := cache.NewRedisCache(cmd.Context(), cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: os.Getenv(cfg.Cache.Redis.PasswordEnv),
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()

		n, err := rc.Invalidate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached score sets\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "trendcrawler.db")
	return database.Open(dbPath)
}
